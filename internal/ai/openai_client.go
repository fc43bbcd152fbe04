package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const systemPrompt = "You are a horticultural assistant. Reply ONLY with valid JSON matching the requested schema."

var (
	errNoChoices    = errors.New("ai: no choices in response")
	errEmptyContent = errors.New("ai: empty model content")
)

type openAI struct {
	endpoint string
	key      string
	model    string
	httpc    *http.Client
}

// NewOpenAI constructs a Client against an OpenAI-compatible chat endpoint.
func NewOpenAI(endpoint, key, model string) Client {
	return &openAI{
		endpoint: strings.TrimRight(endpoint, "/"),
		key:      key,
		model:    model,
		httpc:    &http.Client{Timeout: 25 * time.Second},
	}
}

// userContent builds the multimodal message payload; imageB64 may be empty.
func userContent(prompt, imageB64 string) any {
	if imageB64 == "" {
		return prompt
	}
	url := imageB64
	if !strings.HasPrefix(url, "data:") {
		url = "data:image/jpeg;base64," + imageB64
	}
	return []map[string]any{
		{"type": "text", "text": prompt},
		{"type": "image_url", "image_url": map[string]string{"url": url}},
	}
}

func (c *openAI) chat(ctx context.Context, prompt string, imageB64 string) (string, error) {
	reqBody := map[string]any{
		"model": c.model,
		"messages": []map[string]any{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userContent(prompt, imageB64)},
		},
		"temperature": 0.2,
	}
	encoded, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/v1/chat/completions", bytes.NewReader(encoded))
	if err != nil {
		return "", err
	}
	request.Header.Set("Authorization", "Bearer "+c.key)
	request.Header.Set("Content-Type", "application/json")

	response, err := c.httpc.Do(request)
	if err != nil {
		return "", err
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ai: model endpoint returned %d", response.StatusCode)
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(response.Body).Decode(&out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", errNoChoices
	}
	content := strings.TrimSpace(out.Choices[0].Message.Content)
	if content == "" {
		return "", errEmptyContent
	}
	return content, nil
}

func (c *openAI) IdentifyPlant(ctx context.Context, imageB64 string) (*Identification, error) {
	prompt := `Identify the plant in the image. Reply as JSON: {"name":"...","scientificName":"...","description":"...","careInstructions":"...","confidence":0.0}`
	content, err := c.chat(ctx, prompt, imageB64)
	if err != nil {
		return nil, err
	}
	var result Identification
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return nil, fmt.Errorf("ai: parse identification: %w", err)
	}
	if strings.TrimSpace(result.Name) == "" {
		return nil, errEmptyContent
	}
	return &result, nil
}

func (c *openAI) IdentifyCandidates(ctx context.Context, imageB64 string, max int) ([]Identification, error) {
	if max <= 0 {
		max = 3
	}
	prompt := fmt.Sprintf(`List up to %d candidate identifications for the plant in the image, most likely first. Reply as JSON: {"candidates":[{"name":"...","scientificName":"...","description":"...","careInstructions":"...","confidence":0.0}]}`, max)
	content, err := c.chat(ctx, prompt, imageB64)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Candidates []Identification `json:"candidates"`
	}
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		// Some models reply with a bare array.
		var arr []Identification
		if err2 := json.Unmarshal([]byte(content), &arr); err2 != nil {
			return nil, fmt.Errorf("ai: parse candidates: %w", err)
		}
		payload.Candidates = arr
	}
	if len(payload.Candidates) > max {
		payload.Candidates = payload.Candidates[:max]
	}
	return payload.Candidates, nil
}

func (c *openAI) GenerateDescription(ctx context.Context, name, scientificName string) (string, error) {
	prompt := fmt.Sprintf(`Write a short care-oriented description for the plant %q (%s). Reply as JSON: {"description":"..."}`, name, scientificName)
	content, err := c.chat(ctx, prompt, "")
	if err != nil {
		return "", err
	}
	var payload struct {
		Description string `json:"description"`
	}
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return "", fmt.Errorf("ai: parse description: %w", err)
	}
	return strings.TrimSpace(payload.Description), nil
}

func (c *openAI) ValidateImage(ctx context.Context, imageB64, topic string) (*Validation, error) {
	prompt := fmt.Sprintf(`Does the image show %s? Reply as JSON: {"onTopic":true,"reason":"..."}`, topic)
	content, err := c.chat(ctx, prompt, imageB64)
	if err != nil {
		return nil, err
	}
	var result Validation
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return nil, fmt.Errorf("ai: parse validation: %w", err)
	}
	return &result, nil
}

func (c *openAI) AnalyzeHealth(ctx context.Context, imageB64, analysisType string) (*HealthReport, error) {
	prompt := fmt.Sprintf(`Run a %s analysis on the plant in the image. Reply as JSON: {"condition":"...","issues":["..."],"advice":"..."}`, analysisType)
	content, err := c.chat(ctx, prompt, imageB64)
	if err != nil {
		return nil, err
	}
	var result HealthReport
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return nil, fmt.Errorf("ai: parse health report: %w", err)
	}
	return &result, nil
}

func (c *openAI) Recommendations(ctx context.Context, criteria RecommendationCriteria) ([]Recommendation, error) {
	encoded, err := json.Marshal(criteria)
	if err != nil {
		return nil, err
	}
	prompt := fmt.Sprintf(`Recommend plants matching these preferences: %s. Reply as JSON: {"recommendations":[{"name":"...","scientificName":"...","reason":"..."}]}`, encoded)
	content, err := c.chat(ctx, prompt, "")
	if err != nil {
		return nil, err
	}
	var payload struct {
		Recommendations []Recommendation `json:"recommendations"`
	}
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, fmt.Errorf("ai: parse recommendations: %w", err)
	}
	return payload.Recommendations, nil
}

func (c *openAI) Ask(ctx context.Context, imageB64, question string) (string, error) {
	prompt := fmt.Sprintf(`Answer the gardener's question. Question: %s. Reply as JSON: {"answer":"..."}`, question)
	content, err := c.chat(ctx, prompt, imageB64)
	if err != nil {
		return "", err
	}
	var payload struct {
		Answer string `json:"answer"`
	}
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return "", fmt.Errorf("ai: parse answer: %w", err)
	}
	return strings.TrimSpace(payload.Answer), nil
}
