package controller

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/florahq/verdant/internal/garden"
	"github.com/florahq/verdant/internal/nav"
)

func seedPlant(t *testing.T, h *harness, plantID, name string, sequence int) garden.Plant {
	t.Helper()
	plant := garden.Plant{
		UserID:   h.userID.String(),
		PlantID:  plantID,
		Name:     name,
		IsActive: true,
		Sequence: sequence,
	}
	stored, err := h.gw.InsertPlant(context.Background(), plant)
	if err != nil {
		t.Fatalf("failed to seed plant: %v", err)
	}
	return stored
}

func TestCreatePlantAssignsSequenceAndLandsOnDashboard(t *testing.T) {
	h := newHarness(t)
	seedPlant(t, h, "plant-1", "Basil", 1)
	seedPlant(t, h, "plant-2", "basil ", 2)
	seedPlant(t, h, "plant-3", "Mint", 1)
	h.begin(t)

	if err := h.ctrl.CreatePlant(context.Background(), PlantInput{Name: "  BASIL "}); err != nil {
		t.Fatalf("create plant failed: %v", err)
	}

	plants := h.store.Plants(false)
	if len(plants) != 4 {
		t.Fatalf("expected 4 plants, got %d", len(plants))
	}
	var created *garden.Plant
	for i := range plants {
		if plants[i].Sequence == 3 && garden.NormalizedName(plants[i].Name) == "basil" {
			created = &plants[i]
		}
	}
	if created == nil {
		t.Fatalf("new basil did not receive sequence 3: %#v", plants)
	}
	if h.nav.Current() != nav.ViewDashboard {
		t.Fatalf("expected dashboard landing, got %s", h.nav.Current())
	}
	if h.toasts.successCount() != 1 {
		t.Fatalf("expected exactly one success toast, got %d", h.toasts.successCount())
	}
}

func TestCreatePlantRequiresNameBeforeAnyNetworkCall(t *testing.T) {
	h := newHarness(t)
	h.begin(t)

	err := h.ctrl.CreatePlant(context.Background(), PlantInput{Name: "   "})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(h.store.Plants(true)) != 0 {
		t.Fatalf("validation failure must not touch the store")
	}
	if h.storedObjectCount(t) != 0 {
		t.Fatalf("validation failure must not upload anything")
	}
	if h.toasts.failureCount() != 1 {
		t.Fatalf("expected exactly one failure toast, got %d", h.toasts.failureCount())
	}
}

func TestCreatePlantStoresManagedPhoto(t *testing.T) {
	h := newHarness(t)
	h.begin(t)

	if err := h.ctrl.CreatePlant(context.Background(), PlantInput{
		Name:        "Fern",
		ImageBase64: testPhoto(t),
	}); err != nil {
		t.Fatalf("create plant failed: %v", err)
	}

	plants := h.store.Plants(false)
	if len(plants) != 1 {
		t.Fatalf("expected one plant, got %d", len(plants))
	}
	if !h.media.IsManaged(plants[0].ImageURL) {
		t.Fatalf("expected a managed image url, got %q", plants[0].ImageURL)
	}
	if h.storedObjectCount(t) != 1 {
		t.Fatalf("expected one stored object, got %d", h.storedObjectCount(t))
	}
}

func TestDeletePlantCascadesImagesLogsAndRow(t *testing.T) {
	h := newHarness(t)
	h.begin(t)

	if err := h.ctrl.CreatePlant(context.Background(), PlantInput{
		Name:        "Rose",
		ImageBase64: testPhoto(t),
	}); err != nil {
		t.Fatalf("create plant failed: %v", err)
	}
	plantID := h.store.Plants(false)[0].PlantID

	for i := 0; i < 2; i++ {
		if err := h.ctrl.AddPlantLog(context.Background(), plantID, LogInput{
			Title:       "Watered",
			ImageBase64: testPhoto(t),
		}); err != nil {
			t.Fatalf("add log failed: %v", err)
		}
	}
	if got := h.storedObjectCount(t); got != 3 {
		t.Fatalf("expected 3 stored objects before delete, got %d", got)
	}

	if err := h.ctrl.DeletePlant(context.Background(), plantID); err != nil {
		t.Fatalf("delete plant failed: %v", err)
	}

	if got := h.storedObjectCount(t); got != 0 {
		t.Fatalf("expected all stored objects removed, got %d", got)
	}
	if len(h.store.Plants(true)) != 0 {
		t.Fatalf("plant row survived the cascade")
	}
	if len(h.store.LogsForPlant(plantID)) != 0 {
		t.Fatalf("log rows survived the cascade")
	}
	if h.nav.Current() != nav.ViewDashboard {
		t.Fatalf("expected dashboard landing, got %s", h.nav.Current())
	}
	if len(h.confirm.prompts) == 0 || !strings.Contains(h.confirm.prompts[len(h.confirm.prompts)-1], "Rose") {
		t.Fatalf("expected a confirmation prompt naming the plant, got %v", h.confirm.prompts)
	}
}

func TestDeletePlantDeclinedChangesNothing(t *testing.T) {
	h := newHarness(t)
	h.begin(t)

	if err := h.ctrl.CreatePlant(context.Background(), PlantInput{
		Name:        "Ivy",
		ImageBase64: testPhoto(t),
	}); err != nil {
		t.Fatalf("create plant failed: %v", err)
	}
	plantID := h.store.Plants(false)[0].PlantID
	h.confirm.answer = false

	if err := h.ctrl.DeletePlant(context.Background(), plantID); !errors.Is(err, ErrDeclined) {
		t.Fatalf("expected declined error, got %v", err)
	}
	if len(h.store.Plants(false)) != 1 {
		t.Fatalf("declined delete must not remove the plant")
	}
	if h.storedObjectCount(t) != 1 {
		t.Fatalf("declined delete must not remove the image")
	}
}

func TestArchiveRoundTripKeepsLogs(t *testing.T) {
	h := newHarness(t)
	h.begin(t)

	if err := h.ctrl.CreatePlant(context.Background(), PlantInput{Name: "Sage"}); err != nil {
		t.Fatalf("create plant failed: %v", err)
	}
	plantID := h.store.Plants(false)[0].PlantID
	if err := h.ctrl.AddPlantLog(context.Background(), plantID, LogInput{Title: "Repotted"}); err != nil {
		t.Fatalf("add log failed: %v", err)
	}

	if err := h.ctrl.SetPlantArchived(context.Background(), plantID, true); err != nil {
		t.Fatalf("archive failed: %v", err)
	}
	if len(h.store.Plants(false)) != 0 {
		t.Fatalf("archived plant must leave the default listing")
	}
	if len(h.store.Plants(true)) != 1 {
		t.Fatalf("archived plant must stay in the full listing")
	}
	if len(h.store.LogsForPlant(plantID)) != 1 {
		t.Fatalf("archiving must not touch logs")
	}

	if err := h.ctrl.SetPlantArchived(context.Background(), plantID, false); err != nil {
		t.Fatalf("unarchive failed: %v", err)
	}
	if len(h.store.Plants(false)) != 1 {
		t.Fatalf("restored plant must reappear in the default listing")
	}
	if len(h.store.LogsForPlant(plantID)) != 1 {
		t.Fatalf("restore must not touch logs")
	}
}

func TestPlacePinEnforcesPerAreaCapClientSide(t *testing.T) {
	h := newHarness(t)
	h.begin(t)

	if err := h.ctrl.CreateArea(context.Background(), AreaInput{Name: "Greenhouse"}); err != nil {
		t.Fatalf("create area failed: %v", err)
	}
	areaID := h.store.Areas()[0].AreaID
	if err := h.ctrl.CreatePlant(context.Background(), PlantInput{Name: "Chili"}); err != nil {
		t.Fatalf("create plant failed: %v", err)
	}
	plantID := h.store.Plants(false)[0].PlantID

	for i := 0; i < garden.MaxPinsPerArea; i++ {
		if err := h.ctrl.PlacePin(context.Background(), plantID, garden.LocationPin{
			GardenAreaID: areaID, X: float64(i) * 0.2, Y: 0.5,
		}); err != nil {
			t.Fatalf("pin %d failed: %v", i, err)
		}
	}

	err := h.ctrl.PlacePin(context.Background(), plantID, garden.LocationPin{GardenAreaID: areaID, X: 0.9, Y: 0.9})
	if !errors.Is(err, garden.ErrPinCapReached) {
		t.Fatalf("expected pin cap error, got %v", err)
	}
	plant, _ := h.store.Plant(plantID)
	if got := plant.PinsInArea(areaID); got != garden.MaxPinsPerArea {
		t.Fatalf("expected %d pins, got %d", garden.MaxPinsPerArea, got)
	}

	if err := h.ctrl.RemovePins(context.Background(), plantID, areaID); err != nil {
		t.Fatalf("remove pins failed: %v", err)
	}
	plant, _ = h.store.Plant(plantID)
	if got := plant.PinsInArea(areaID); got != 0 {
		t.Fatalf("expected pins cleared, got %d", got)
	}
}
