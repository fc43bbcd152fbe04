// Package ai wraps the generative model behind a typed client. Every call
// returns either a well-formed payload or an error; callers never assume a
// populated result.
package ai

import "context"

// Identification is the model's answer to "what plant is this".
type Identification struct {
	Name             string  `json:"name"`
	ScientificName   string  `json:"scientificName"`
	Description      string  `json:"description"`
	CareInstructions string  `json:"careInstructions"`
	Confidence       float64 `json:"confidence"`
}

// Validation reports whether an image is on-topic for the application.
type Validation struct {
	OnTopic bool   `json:"onTopic"`
	Reason  string `json:"reason"`
}

// HealthReport is the outcome of a health analysis pass.
type HealthReport struct {
	Condition string   `json:"condition"`
	Issues    []string `json:"issues"`
	Advice    string   `json:"advice"`
}

// RecommendationCriteria narrows plant recommendations.
type RecommendationCriteria struct {
	LightCondition string `json:"lightCondition"`
	CareLevel      string `json:"careLevel"`
	PlantType      string `json:"plantType"`
	Location       string `json:"location"`
	Size           string `json:"size"`
}

// Recommendation is one suggested plant for the given criteria.
type Recommendation struct {
	Name           string `json:"name"`
	ScientificName string `json:"scientificName"`
	Reason         string `json:"reason"`
}

// Client is the generative-AI contract the controller consumes.
type Client interface {
	IdentifyPlant(ctx context.Context, imageB64 string) (*Identification, error)
	IdentifyCandidates(ctx context.Context, imageB64 string, max int) ([]Identification, error)
	GenerateDescription(ctx context.Context, name, scientificName string) (string, error)
	ValidateImage(ctx context.Context, imageB64, topic string) (*Validation, error)
	AnalyzeHealth(ctx context.Context, imageB64, analysisType string) (*HealthReport, error)
	Recommendations(ctx context.Context, criteria RecommendationCriteria) ([]Recommendation, error)
	Ask(ctx context.Context, imageB64, question string) (string, error)
}
