package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Fatalf("missing bearer token")
		}
		body := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	}))
}

func TestIdentifyPlantParsesPayload(t *testing.T) {
	server := chatServer(t, `{"name":"Basil","scientificName":"Ocimum basilicum","description":"Aromatic herb","careInstructions":"Keep moist","confidence":0.93}`)
	defer server.Close()

	client := NewOpenAI(server.URL, "test-key", "test-model")
	result, err := client.IdentifyPlant(context.Background(), "AQID")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Name != "Basil" || result.Confidence != 0.93 {
		t.Fatalf("unexpected identification %#v", result)
	}
}

func TestIdentifyPlantRejectsNamelessPayload(t *testing.T) {
	server := chatServer(t, `{"name":"","confidence":0.1}`)
	defer server.Close()

	client := NewOpenAI(server.URL, "test-key", "test-model")
	if _, err := client.IdentifyPlant(context.Background(), "AQID"); err == nil {
		t.Fatalf("expected error for nameless identification")
	}
}

func TestIdentifyCandidatesToleratesBareArray(t *testing.T) {
	server := chatServer(t, `[{"name":"Basil"},{"name":"Mint"},{"name":"Oregano"}]`)
	defer server.Close()

	client := NewOpenAI(server.URL, "test-key", "test-model")
	candidates, err := client.IdentifyCandidates(context.Background(), "AQID", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candidates) != 2 || candidates[0].Name != "Basil" {
		t.Fatalf("unexpected candidates %#v", candidates)
	}
}

func TestValidateImageParsesVerdict(t *testing.T) {
	server := chatServer(t, `{"onTopic":false,"reason":"shows a bicycle"}`)
	defer server.Close()

	client := NewOpenAI(server.URL, "test-key", "test-model")
	verdict, err := client.ValidateImage(context.Background(), "AQID", "a plant")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if verdict.OnTopic || verdict.Reason != "shows a bicycle" {
		t.Fatalf("unexpected verdict %#v", verdict)
	}
}

func TestRecommendationsParsePayload(t *testing.T) {
	server := chatServer(t, `{"recommendations":[{"name":"Snake Plant","scientificName":"Dracaena trifasciata","reason":"tolerates low light"}]}`)
	defer server.Close()

	client := NewOpenAI(server.URL, "test-key", "test-model")
	recs, err := client.Recommendations(context.Background(), RecommendationCriteria{LightCondition: "low-light"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 1 || recs[0].Name != "Snake Plant" {
		t.Fatalf("unexpected recommendations %#v", recs)
	}
}

func TestChatFailuresSurfaceAsErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client := NewOpenAI(server.URL, "test-key", "test-model")
	if _, err := client.Ask(context.Background(), "", "why are the leaves yellow"); err == nil {
		t.Fatalf("expected error when model returns no choices")
	}

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer down.Close()

	client = NewOpenAI(down.URL, "test-key", "test-model")
	if _, err := client.GenerateDescription(context.Background(), "Basil", ""); err == nil {
		t.Fatalf("expected error when endpoint is down")
	}
}
