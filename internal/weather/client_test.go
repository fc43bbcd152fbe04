package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCurrentParsesProviderResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/forecast" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("current") == "" {
			t.Fatalf("expected current query parameter")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"current":{"temperature_2m":18.4,"weather_code":2}}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	snapshot, err := client.Current(context.Background(), 52.52, 13.4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snapshot.TemperatureC != 18.4 || snapshot.ConditionCode != 2 {
		t.Fatalf("unexpected snapshot %#v", snapshot)
	}
}

func TestForDateParsesDailyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("start_date") != "2026-05-01" {
			t.Fatalf("unexpected start date %s", r.URL.Query().Get("start_date"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"daily":{"temperature_2m_max":[22.1],"weather_code":[61]}}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	date := time.Date(2026, 5, 1, 15, 30, 0, 0, time.UTC)
	snapshot, err := client.ForDate(context.Background(), 52.52, 13.4, date)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snapshot.TemperatureC != 22.1 || snapshot.ConditionCode != 61 {
		t.Fatalf("unexpected snapshot %#v", snapshot)
	}
}

func TestLookupFailuresReturnErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	if _, err := client.Current(context.Background(), 0, 0); err == nil {
		t.Fatalf("expected error on provider failure")
	}
}

func TestEmptyResponseIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	if _, err := client.Current(context.Background(), 0, 0); err == nil {
		t.Fatalf("expected error on empty payload")
	}
	if _, err := client.ForDate(context.Background(), 0, 0, time.Now()); err == nil {
		t.Fatalf("expected error on empty daily payload")
	}
}
