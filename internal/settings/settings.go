// Package settings models the user preference record and its local durable
// cache. Entity collections are never cached locally; settings are the one
// exception, persisted synchronously on every change and mirrored to the
// remote profile by the controller's debounced sync.
package settings

// Modules are the per-user feature toggles.
type Modules struct {
	GardenLogs bool `json:"gardenLogs"`
	GardenView bool `json:"gardenView"`
	Social     bool `json:"social"`
	Notebook   bool `json:"notebook"`
}

// FloraPrefs are the chat-dock preferences, stored under their own key.
type FloraPrefs struct {
	IsDocked bool `json:"isDocked"`
	IsOpen   bool `json:"isOpen"`
}

// HomeLocation mirrors the user's weather reference point inside the record.
type HomeLocation struct {
	Latitude    float64 `json:"lat"`
	Longitude   float64 `json:"lon"`
	DisplayName string  `json:"name"`
	CountryCode string  `json:"countryCode"`
}

// Settings is the flat user preference record.
type Settings struct {
	Lang           string        `json:"lang"`
	DarkMode       bool          `json:"darkMode"`
	HomeLocation   *HomeLocation `json:"homeLocation,omitempty"`
	UseWeather     bool          `json:"useWeather"`
	TempUnit       string        `json:"tempUnit"`
	LengthUnit     string        `json:"lengthUnit"`
	WindUnit       string        `json:"windUnit"`
	FirstDayOfWeek string        `json:"firstDayOfWeek"`
	TimeFormat     string        `json:"timeFormat"`
	LimitAI        bool          `json:"limitAI"`
	Modules        Modules       `json:"modules"`
	Tier           string        `json:"tier"`
}

// Defaults returns the record a brand-new user starts with.
func Defaults() Settings {
	return Settings{
		Lang:           "en",
		UseWeather:     true,
		TempUnit:       "celsius",
		LengthUnit:     "cm",
		WindUnit:       "kmh",
		FirstDayOfWeek: "monday",
		TimeFormat:     "24h",
		Modules: Modules{
			GardenLogs: true,
			GardenView: true,
			Social:     true,
			Notebook:   true,
		},
		Tier: "free",
	}
}

// Overlay reconciles the local cache with the remote profile on session
// start. The local record always wins when it exists; the remote record is
// only adopted wholesale when no local cache has ever been written. Remote
// remains the eventual sink via the debounced sync.
func Overlay(local Settings, localExists bool, remote *Settings) Settings {
	if localExists || remote == nil {
		return local
	}
	return *remote
}
