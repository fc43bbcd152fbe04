// Package weather wraps the forecast provider. Every lookup is best-effort:
// callers attach a snapshot when one comes back and carry on without one
// otherwise.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Snapshot is the condition summary attached to logs and posts.
type Snapshot struct {
	TemperatureC  float64
	ConditionCode int
}

// Client looks up weather snapshots for a coordinate.
type Client interface {
	// Current returns the present conditions, or an error when the provider
	// is unavailable.
	Current(ctx context.Context, lat, lon float64) (*Snapshot, error)
	// ForDate returns the conditions on a calendar date.
	ForDate(ctx context.Context, lat, lon float64, date time.Time) (*Snapshot, error)
}

var errEmptyResponse = errors.New("weather: empty provider response")

// HTTPClient talks to an open-meteo-compatible forecast endpoint.
type HTTPClient struct {
	endpoint string
	httpc    *http.Client
}

// NewHTTPClient constructs a client for the given provider endpoint.
func NewHTTPClient(endpoint string) *HTTPClient {
	return &HTTPClient{
		endpoint: strings.TrimRight(endpoint, "/"),
		httpc:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Current implements Client.
func (c *HTTPClient) Current(ctx context.Context, lat, lon float64) (*Snapshot, error) {
	query := url.Values{}
	query.Set("latitude", fmt.Sprintf("%.4f", lat))
	query.Set("longitude", fmt.Sprintf("%.4f", lon))
	query.Set("current", "temperature_2m,weather_code")

	var payload struct {
		Current struct {
			Temperature *float64 `json:"temperature_2m"`
			WeatherCode *int     `json:"weather_code"`
		} `json:"current"`
	}
	if err := c.get(ctx, query, &payload); err != nil {
		return nil, err
	}
	if payload.Current.Temperature == nil || payload.Current.WeatherCode == nil {
		return nil, errEmptyResponse
	}
	return &Snapshot{
		TemperatureC:  *payload.Current.Temperature,
		ConditionCode: *payload.Current.WeatherCode,
	}, nil
}

// ForDate implements Client.
func (c *HTTPClient) ForDate(ctx context.Context, lat, lon float64, date time.Time) (*Snapshot, error) {
	day := date.UTC().Format("2006-01-02")
	query := url.Values{}
	query.Set("latitude", fmt.Sprintf("%.4f", lat))
	query.Set("longitude", fmt.Sprintf("%.4f", lon))
	query.Set("daily", "temperature_2m_max,weather_code")
	query.Set("start_date", day)
	query.Set("end_date", day)

	var payload struct {
		Daily struct {
			Temperature []float64 `json:"temperature_2m_max"`
			WeatherCode []int     `json:"weather_code"`
		} `json:"daily"`
	}
	if err := c.get(ctx, query, &payload); err != nil {
		return nil, err
	}
	if len(payload.Daily.Temperature) == 0 || len(payload.Daily.WeatherCode) == 0 {
		return nil, errEmptyResponse
	}
	return &Snapshot{
		TemperatureC:  payload.Daily.Temperature[0],
		ConditionCode: payload.Daily.WeatherCode[0],
	}, nil
}

func (c *HTTPClient) get(ctx context.Context, query url.Values, out any) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/v1/forecast?"+query.Encode(), nil)
	if err != nil {
		return err
	}
	response, err := c.httpc.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("weather: provider returned %d", response.StatusCode)
	}
	return json.NewDecoder(response.Body).Decode(out)
}
