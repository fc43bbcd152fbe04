package ai

import "context"

// Mock is a scripted Client for tests and offline development.
type Mock struct {
	Identification  *Identification
	Candidates      []Identification
	Description     string
	Validation      *Validation
	Health          *HealthReport
	Recommended     []Recommendation
	Answer          string
	Err             error
	IdentifyCalls   int
	ValidateCalls   int
	AnalyzeCalls    int
	LastImagePrefix string
}

func (m *Mock) IdentifyPlant(_ context.Context, imageB64 string) (*Identification, error) {
	m.IdentifyCalls++
	m.rememberImage(imageB64)
	return m.Identification, m.Err
}

func (m *Mock) IdentifyCandidates(_ context.Context, imageB64 string, max int) ([]Identification, error) {
	m.IdentifyCalls++
	m.rememberImage(imageB64)
	if m.Err != nil {
		return nil, m.Err
	}
	if max > 0 && len(m.Candidates) > max {
		return m.Candidates[:max], nil
	}
	return m.Candidates, nil
}

func (m *Mock) GenerateDescription(context.Context, string, string) (string, error) {
	return m.Description, m.Err
}

func (m *Mock) ValidateImage(_ context.Context, imageB64, _ string) (*Validation, error) {
	m.ValidateCalls++
	m.rememberImage(imageB64)
	return m.Validation, m.Err
}

func (m *Mock) AnalyzeHealth(_ context.Context, imageB64, _ string) (*HealthReport, error) {
	m.AnalyzeCalls++
	m.rememberImage(imageB64)
	return m.Health, m.Err
}

func (m *Mock) Recommendations(context.Context, RecommendationCriteria) ([]Recommendation, error) {
	return m.Recommended, m.Err
}

func (m *Mock) Ask(_ context.Context, imageB64, _ string) (string, error) {
	m.rememberImage(imageB64)
	return m.Answer, m.Err
}

func (m *Mock) rememberImage(imageB64 string) {
	if len(imageB64) > 16 {
		imageB64 = imageB64[:16]
	}
	m.LastImagePrefix = imageB64
}
