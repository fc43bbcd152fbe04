package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/florahq/verdant/internal/ai"
)

const (
	opIdentify     = "controller.ai.identify"
	opValidate     = "controller.ai.validate"
	opAnalyze      = "controller.ai.analyze"
	opDescribe     = "controller.ai.describe"
	opRecommend    = "controller.ai.recommend"
	opAskProfessor = "controller.ai.ask"

	plantTopic = "a plant, flower, tree or garden scene"
)

var errAIUnavailable = errors.New("ai client is not configured")

func (c *Controller) requireAI(operation string) error {
	if c.ai == nil {
		return c.fail(operation, "ai_unavailable", errAIUnavailable, "Plant assistance is not available right now.")
	}
	return nil
}

// IdentifyPlant compresses the photo and asks the model for a single
// identification. A nil result with an error means the caller shows nothing.
func (c *Controller) IdentifyPlant(ctx context.Context, imageB64 string) (*ai.Identification, error) {
	if err := c.requireAI(opIdentify); err != nil {
		return nil, err
	}
	prepared, err := c.prepareForModel(opIdentify, imageB64)
	if err != nil {
		return nil, err
	}
	result, err := c.ai.IdentifyPlant(ctx, prepared)
	if err != nil || result == nil {
		return nil, c.fail(opIdentify, "model_failed", err, "The plant could not be identified.")
	}
	return result, nil
}

// IdentifyCandidates returns up to max ranked identifications for a photo.
func (c *Controller) IdentifyCandidates(ctx context.Context, imageB64 string, max int) ([]ai.Identification, error) {
	if err := c.requireAI(opIdentify); err != nil {
		return nil, err
	}
	prepared, err := c.prepareForModel(opIdentify, imageB64)
	if err != nil {
		return nil, err
	}
	candidates, err := c.ai.IdentifyCandidates(ctx, prepared, max)
	if err != nil {
		return nil, c.fail(opIdentify, "model_failed", err, "The plant could not be identified.")
	}
	return candidates, nil
}

// ValidatePlantImage checks a photo is on-topic before it enters an
// identification flow. A model failure blocks the flow rather than letting
// an unchecked image through.
func (c *Controller) ValidatePlantImage(ctx context.Context, imageB64 string) (*ai.Validation, error) {
	if err := c.requireAI(opValidate); err != nil {
		return nil, err
	}
	prepared, err := c.prepareForModel(opValidate, imageB64)
	if err != nil {
		return nil, err
	}
	verdict, err := c.ai.ValidateImage(ctx, prepared, plantTopic)
	if err != nil || verdict == nil {
		return nil, c.fail(opValidate, "model_failed", err, "The photo could not be checked.")
	}
	return verdict, nil
}

// AnalyzeHealth runs a typed health analysis over a plant photo.
func (c *Controller) AnalyzeHealth(ctx context.Context, imageB64, analysisType string) (*ai.HealthReport, error) {
	if err := c.requireAI(opAnalyze); err != nil {
		return nil, err
	}
	prepared, err := c.prepareForModel(opAnalyze, imageB64)
	if err != nil {
		return nil, err
	}
	report, err := c.ai.AnalyzeHealth(ctx, prepared, analysisType)
	if err != nil || report == nil {
		return nil, c.fail(opAnalyze, "model_failed", err, "The analysis could not be completed.")
	}
	return report, nil
}

// DescribePlant generates a care-oriented description for a named plant.
func (c *Controller) DescribePlant(ctx context.Context, name, scientificName string) (string, error) {
	if err := c.requireAI(opDescribe); err != nil {
		return "", err
	}
	description, err := c.ai.GenerateDescription(ctx, name, scientificName)
	if err != nil || strings.TrimSpace(description) == "" {
		return "", c.fail(opDescribe, "model_failed", err, "A description could not be generated.")
	}
	return description, nil
}

// RecommendPlants asks for suggestions matching the given criteria.
func (c *Controller) RecommendPlants(ctx context.Context, criteria ai.RecommendationCriteria) ([]ai.Recommendation, error) {
	if err := c.requireAI(opRecommend); err != nil {
		return nil, err
	}
	recommendations, err := c.ai.Recommendations(ctx, criteria)
	if err != nil {
		return nil, c.fail(opRecommend, "model_failed", err, "Recommendations are not available right now.")
	}
	return recommendations, nil
}

// AskProfessor answers an open gardening question, optionally about a photo.
func (c *Controller) AskProfessor(ctx context.Context, imageB64, question string) (string, error) {
	if err := c.requireAI(opAskProfessor); err != nil {
		return "", err
	}
	if strings.TrimSpace(question) == "" {
		return "", c.fail(opAskProfessor, "missing_question",
			fmt.Errorf("%w: question is required", ErrValidation), "Ask a question first.")
	}
	prepared := ""
	if strings.TrimSpace(imageB64) != "" {
		var err error
		prepared, err = c.prepareForModel(opAskProfessor, imageB64)
		if err != nil {
			return "", err
		}
	}
	answer, err := c.ai.Ask(ctx, prepared, question)
	if err != nil || strings.TrimSpace(answer) == "" {
		return "", c.fail(opAskProfessor, "model_failed", err, "No answer came back. Try again.")
	}
	return answer, nil
}
