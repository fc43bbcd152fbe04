package controller

import (
	"context"
	"testing"

	"github.com/florahq/verdant/internal/garden"
)

func TestAddLogSkipsWeatherWithoutHomeLocation(t *testing.T) {
	h := newHarness(t)
	h.begin(t)
	if err := h.ctrl.CreatePlant(context.Background(), PlantInput{Name: "Tomato"}); err != nil {
		t.Fatalf("create plant failed: %v", err)
	}
	plantID := h.store.Plants(false)[0].PlantID

	if err := h.ctrl.AddPlantLog(context.Background(), plantID, LogInput{
		Title:         "First fruit",
		AttachWeather: true,
	}); err != nil {
		t.Fatalf("add log failed: %v", err)
	}

	if h.weather.callCount() != 0 {
		t.Fatalf("no home location must mean no weather lookup, got %d calls", h.weather.callCount())
	}
	logs := h.store.LogsForPlant(plantID)
	if len(logs) != 1 {
		t.Fatalf("expected one log, got %d", len(logs))
	}
	if logs[0].Weather() != nil {
		t.Fatalf("log must carry no snapshot without a home location")
	}
}

func TestAddLogAttachesWeatherFromHomeLocation(t *testing.T) {
	h := newHarness(t)
	h.begin(t)
	if err := h.ctrl.SetHomeLocation(context.Background(), garden.HomeLocation{
		Latitude: 52.52, Longitude: 13.4, DisplayName: "Berlin",
	}); err != nil {
		t.Fatalf("set home location failed: %v", err)
	}
	if err := h.ctrl.CreatePlant(context.Background(), PlantInput{Name: "Tomato"}); err != nil {
		t.Fatalf("create plant failed: %v", err)
	}
	plantID := h.store.Plants(false)[0].PlantID

	if err := h.ctrl.AddPlantLog(context.Background(), plantID, LogInput{
		Title:         "Sunny day",
		AttachWeather: true,
	}); err != nil {
		t.Fatalf("add log failed: %v", err)
	}

	if h.weather.callCount() != 1 {
		t.Fatalf("expected one weather lookup, got %d", h.weather.callCount())
	}
	logs := h.store.LogsForPlant(plantID)
	snapshot := logs[0].Weather()
	if snapshot == nil || snapshot.TemperatureC != 18.5 || snapshot.ConditionCode != 3 {
		t.Fatalf("unexpected snapshot %#v", snapshot)
	}
}

func TestWeatherFailureNeverBlocksTheLogSave(t *testing.T) {
	h := newHarness(t)
	h.begin(t)
	if err := h.ctrl.SetHomeLocation(context.Background(), garden.HomeLocation{Latitude: 1, Longitude: 2}); err != nil {
		t.Fatalf("set home location failed: %v", err)
	}
	if err := h.ctrl.CreatePlant(context.Background(), PlantInput{Name: "Tomato"}); err != nil {
		t.Fatalf("create plant failed: %v", err)
	}
	plantID := h.store.Plants(false)[0].PlantID
	h.weather.err = context.DeadlineExceeded

	if err := h.ctrl.AddPlantLog(context.Background(), plantID, LogInput{
		Title:         "Storm",
		AttachWeather: true,
	}); err != nil {
		t.Fatalf("weather failure must not block the save: %v", err)
	}
	logs := h.store.LogsForPlant(plantID)
	if len(logs) != 1 || logs[0].Weather() != nil {
		t.Fatalf("expected a snapshot-free saved log, got %#v", logs)
	}
}

func TestClearHomeLocationStopsWeatherLookups(t *testing.T) {
	h := newHarness(t)
	h.begin(t)
	if err := h.ctrl.SetHomeLocation(context.Background(), garden.HomeLocation{Latitude: 1, Longitude: 2}); err != nil {
		t.Fatalf("set home location failed: %v", err)
	}
	if err := h.ctrl.CreatePlant(context.Background(), PlantInput{Name: "Pepper"}); err != nil {
		t.Fatalf("create plant failed: %v", err)
	}
	plantID := h.store.Plants(false)[0].PlantID

	if err := h.ctrl.AddPlantLog(context.Background(), plantID, LogInput{Title: "One", AttachWeather: true}); err != nil {
		t.Fatalf("add log failed: %v", err)
	}
	if h.weather.callCount() != 1 {
		t.Fatalf("expected one lookup before clearing, got %d", h.weather.callCount())
	}

	if err := h.ctrl.ClearHomeLocation(context.Background()); err != nil {
		t.Fatalf("clear home location failed: %v", err)
	}
	if err := h.ctrl.AddPlantLog(context.Background(), plantID, LogInput{Title: "Two", AttachWeather: true}); err != nil {
		t.Fatalf("add log failed: %v", err)
	}

	if h.weather.callCount() != 1 {
		t.Fatalf("lookups must stop after clearing, got %d", h.weather.callCount())
	}
	first := h.store.LogsForPlant(plantID)
	if len(first) != 2 {
		t.Fatalf("expected both logs saved, got %d", len(first))
	}
	// The earlier log keeps its snapshot; only new lookups stop.
	withSnapshot := 0
	for _, entry := range first {
		if entry.Weather() != nil {
			withSnapshot++
		}
	}
	if withSnapshot != 1 {
		t.Fatalf("expected exactly one log with a snapshot, got %d", withSnapshot)
	}
}

func TestSetAsMainPhotoReplacesManagedImage(t *testing.T) {
	h := newHarness(t)
	h.begin(t)
	if err := h.ctrl.CreatePlant(context.Background(), PlantInput{
		Name:        "Orchid",
		ImageBase64: testPhoto(t),
	}); err != nil {
		t.Fatalf("create plant failed: %v", err)
	}
	plant := h.store.Plants(false)[0]
	oldURL := plant.ImageURL

	if err := h.ctrl.AddPlantLog(context.Background(), plant.PlantID, LogInput{
		Title:          "New bloom",
		ImageBase64:    testPhoto(t),
		SetAsMainPhoto: true,
	}); err != nil {
		t.Fatalf("add log failed: %v", err)
	}

	updated, _ := h.store.Plant(plant.PlantID)
	if updated.ImageURL == oldURL || updated.ImageURL == "" {
		t.Fatalf("expected main photo replaced, still %q", updated.ImageURL)
	}
	// Old object deleted, log object kept.
	if got := h.storedObjectCount(t); got != 1 {
		t.Fatalf("expected the superseded object removed, have %d objects", got)
	}
}

func TestUnmanagedMainPhotoIsNeverDeleted(t *testing.T) {
	h := newHarness(t)
	h.begin(t)
	if err := h.ctrl.CreatePlant(context.Background(), PlantInput{Name: "Cactus"}); err != nil {
		t.Fatalf("create plant failed: %v", err)
	}
	plant := h.store.Plants(false)[0]
	plant.ImageURL = "https://example.com/external/cactus.jpg"
	if err := h.gw.UpdatePlant(context.Background(), plant); err != nil {
		t.Fatalf("failed to seed external image: %v", err)
	}
	if err := h.ctrl.BeginSession(context.Background(), true); err != nil {
		t.Fatalf("reload failed: %v", err)
	}

	if err := h.ctrl.AddPlantLog(context.Background(), plant.PlantID, LogInput{
		Title:          "Swap photo",
		ImageBase64:    testPhoto(t),
		SetAsMainPhoto: true,
	}); err != nil {
		t.Fatalf("add log failed: %v", err)
	}

	updated, _ := h.store.Plant(plant.PlantID)
	if !h.media.IsManaged(updated.ImageURL) {
		t.Fatalf("expected the new managed url, got %q", updated.ImageURL)
	}
	// Only the new log image exists in the bucket; the external URL was left
	// alone rather than fed to Delete.
	if got := h.storedObjectCount(t); got != 1 {
		t.Fatalf("expected one stored object, got %d", got)
	}
}

func TestAddGardenLogAndDefaultTitle(t *testing.T) {
	h := newHarness(t)
	h.begin(t)

	if err := h.ctrl.AddGardenLog(context.Background(), LogInput{Description: "frost overnight"}); err != nil {
		t.Fatalf("add garden log failed: %v", err)
	}
	logs := h.store.GardenLogs()
	if len(logs) != 1 {
		t.Fatalf("expected one garden log, got %d", len(logs))
	}
	if logs[0].Title != defaultLogTitle {
		t.Fatalf("expected defaulted title %q, got %q", defaultLogTitle, logs[0].Title)
	}
	if logs[0].OwnerType != garden.LogOwnerGarden {
		t.Fatalf("expected garden owner type, got %s", logs[0].OwnerType)
	}
}

func TestShareToSocialPublishesPost(t *testing.T) {
	h := newHarness(t)
	h.begin(t)
	if err := h.ctrl.CreatePlant(context.Background(), PlantInput{Name: "Dahlia"}); err != nil {
		t.Fatalf("create plant failed: %v", err)
	}
	plantID := h.store.Plants(false)[0].PlantID

	if err := h.ctrl.AddPlantLog(context.Background(), plantID, LogInput{
		Title:         "First bud",
		ShareToSocial: true,
	}); err != nil {
		t.Fatalf("add log failed: %v", err)
	}

	feed := h.store.Feed()
	if len(feed) != 1 {
		t.Fatalf("expected the shared post in the feed, got %d", len(feed))
	}
	if feed[0].PlantName != "Dahlia" || feed[0].Title != "First bud" {
		t.Fatalf("unexpected shared post %#v", feed[0].SocialPost)
	}
	if feed[0].AuthorName != "Test Gardener" {
		t.Fatalf("expected author name on the post, got %q", feed[0].AuthorName)
	}
}
