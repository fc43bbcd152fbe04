package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/florahq/verdant/internal/garden"
	"github.com/florahq/verdant/internal/media"
	"github.com/florahq/verdant/internal/nav"
)

const (
	opCreatePlant  = "controller.plants.create"
	opUpdatePlant  = "controller.plants.update"
	opArchivePlant = "controller.plants.archive"
	opDeletePlant  = "controller.plants.delete"
	opPlacePin     = "controller.plants.place_pin"
	opRemovePins   = "controller.plants.remove_pins"
)

// PlantInput carries the user-entered fields for creating or editing a plant.
type PlantInput struct {
	Name             string
	ScientificName   string
	Description      string
	CareInstructions string
	ImageBase64      string
	PlantedAt        time.Time
	Indoor           bool
}

// CreatePlant uploads the optional photo, assigns the per-name sequence
// number, inserts the row, re-fetches the collection and lands on the
// dashboard. A failure after the upload may orphan the stored object; the
// row insert is never retried.
func (c *Controller) CreatePlant(ctx context.Context, input PlantInput) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return c.fail(opCreatePlant, "missing_name",
			fmt.Errorf("%w: plant name is required", ErrValidation),
			"Give the plant a name first.")
	}

	imageURL, err := c.prepareUpload(opCreatePlant, input.ImageBase64, media.QualityHigh)
	if err != nil {
		return err
	}

	plantID, err := c.newID(opCreatePlant)
	if err != nil {
		return err
	}

	plant := garden.Plant{
		UserID:           c.userID.String(),
		PlantID:          plantID,
		Name:             name,
		ScientificName:   strings.TrimSpace(input.ScientificName),
		Description:      input.Description,
		CareInstructions: input.CareInstructions,
		ImageURL:         imageURL,
		Indoor:           input.Indoor,
		IsActive:         true,
		Sequence:         garden.NextSequence(c.store.AllPlants(), name),
	}
	if !input.PlantedAt.IsZero() {
		plant.PlantedAtSeconds = input.PlantedAt.UTC().Unix()
	}

	if _, err := c.backend.InsertPlant(ctx, plant); err != nil {
		return c.fail(opCreatePlant, "insert_failed", err, "The plant could not be saved.")
	}
	if err := c.refetchPlants(ctx, opCreatePlant); err != nil {
		return err
	}
	if err := c.nav.Land(nav.ViewDashboard); err != nil {
		c.logError(opCreatePlant, "landing_failed", err)
	}
	c.notify.Success(fmt.Sprintf("%s added to your garden.", name))
	return nil
}

// UpdatePlant overwrites a plant's editable fields and re-fetches.
func (c *Controller) UpdatePlant(ctx context.Context, plantID string, input PlantInput) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	plant, ok := c.store.Plant(plantID)
	if !ok {
		return c.fail(opUpdatePlant, "unknown_plant",
			fmt.Errorf("%w: plant %s not loaded", ErrValidation, plantID),
			"That plant is no longer available.")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return c.fail(opUpdatePlant, "missing_name",
			fmt.Errorf("%w: plant name is required", ErrValidation),
			"Give the plant a name first.")
	}

	if strings.TrimSpace(input.ImageBase64) != "" {
		imageURL, err := c.prepareUpload(opUpdatePlant, input.ImageBase64, media.QualityHigh)
		if err != nil {
			return err
		}
		c.deleteIfManaged(opUpdatePlant, plant.ImageURL)
		plant.ImageURL = imageURL
	}

	plant.Name = name
	plant.ScientificName = strings.TrimSpace(input.ScientificName)
	plant.Description = input.Description
	plant.CareInstructions = input.CareInstructions
	plant.Indoor = input.Indoor
	if !input.PlantedAt.IsZero() {
		plant.PlantedAtSeconds = input.PlantedAt.UTC().Unix()
	}

	if err := c.backend.UpdatePlant(ctx, plant); err != nil {
		return c.fail(opUpdatePlant, "update_failed", err, "The plant could not be saved.")
	}
	if err := c.refetchPlants(ctx, opUpdatePlant); err != nil {
		return err
	}
	c.notify.Success("Plant updated.")
	return nil
}

// SetPlantArchived flips the archive flag. Archived plants leave the default
// dashboard listing but keep their logs.
func (c *Controller) SetPlantArchived(ctx context.Context, plantID string, archived bool) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	plant, ok := c.store.Plant(plantID)
	if !ok {
		return c.fail(opArchivePlant, "unknown_plant",
			fmt.Errorf("%w: plant %s not loaded", ErrValidation, plantID),
			"That plant is no longer available.")
	}
	plant.IsActive = !archived
	if err := c.backend.UpdatePlant(ctx, plant); err != nil {
		return c.fail(opArchivePlant, "update_failed", err, "The plant could not be updated.")
	}
	if err := c.refetchPlants(ctx, opArchivePlant); err != nil {
		return err
	}
	if archived {
		c.notify.Success("Plant archived.")
	} else {
		c.notify.Success("Plant restored.")
	}
	return nil
}

// DeletePlant cascades: the main image, every log image, the log rows, then
// the plant row, followed by a full re-fetch and a dashboard landing. The
// cascade only starts after an explicit confirmation.
func (c *Controller) DeletePlant(ctx context.Context, plantID string) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	plant, ok := c.store.Plant(plantID)
	if !ok {
		return c.fail(opDeletePlant, "unknown_plant",
			fmt.Errorf("%w: plant %s not loaded", ErrValidation, plantID),
			"That plant is no longer available.")
	}
	if !c.confirm.Confirm(fmt.Sprintf("Delete %s and all of its logs?", plant.Name)) {
		return ErrDeclined
	}

	c.deleteIfManaged(opDeletePlant, plant.ImageURL)
	for _, entry := range c.store.LogsForPlant(plantID) {
		c.deleteIfManaged(opDeletePlant, entry.ImageURL)
		logID, err := garden.NewEntityID(entry.LogID)
		if err != nil {
			continue
		}
		if err := c.backend.DeleteLog(ctx, c.userID, logID); err != nil {
			c.logError(opDeletePlant, "log_delete_failed", err)
		}
	}

	entityID, err := garden.NewEntityID(plantID)
	if err != nil {
		return c.fail(opDeletePlant, "invalid_identifier", err, "The plant could not be deleted.")
	}
	if err := c.backend.DeletePlant(ctx, c.userID, entityID); err != nil {
		return c.fail(opDeletePlant, "delete_failed", err, "The plant could not be deleted.")
	}

	if err := c.refetchPlants(ctx, opDeletePlant); err != nil {
		return err
	}
	if err := c.refetchLogs(ctx, opDeletePlant, garden.LogOwnerPlant); err != nil {
		return err
	}
	c.store.SelectPlant("")
	if err := c.nav.Land(nav.ViewDashboard); err != nil {
		c.logError(opDeletePlant, "landing_failed", err)
	}
	c.notify.Success("Plant deleted.")
	return nil
}

// PlacePin adds a location pin to a plant, enforcing the per-area cap before
// any network call.
func (c *Controller) PlacePin(ctx context.Context, plantID string, pin garden.LocationPin) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	plant, ok := c.store.Plant(plantID)
	if !ok {
		return c.fail(opPlacePin, "unknown_plant",
			fmt.Errorf("%w: plant %s not loaded", ErrValidation, plantID),
			"That plant is no longer available.")
	}
	if err := plant.AddPin(pin); err != nil {
		if errors.Is(err, garden.ErrPinCapReached) {
			return c.fail(opPlacePin, "pin_cap_reached", err,
				fmt.Sprintf("A plant can hold at most %d pins per area.", garden.MaxPinsPerArea))
		}
		return c.fail(opPlacePin, "invalid_pin", err, "That pin could not be placed.")
	}
	if err := c.backend.UpdatePlant(ctx, plant); err != nil {
		return c.fail(opPlacePin, "update_failed", err, "The pin could not be saved.")
	}
	if err := c.refetchPlants(ctx, opPlacePin); err != nil {
		return err
	}
	c.notify.Success("Pin placed.")
	return nil
}

// RemovePins drops every pin the plant holds on one garden area.
func (c *Controller) RemovePins(ctx context.Context, plantID, areaID string) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	plant, ok := c.store.Plant(plantID)
	if !ok {
		return c.fail(opRemovePins, "unknown_plant",
			fmt.Errorf("%w: plant %s not loaded", ErrValidation, plantID),
			"That plant is no longer available.")
	}
	if plant.RemovePinsForArea(areaID) == 0 {
		return nil
	}
	if err := c.backend.UpdatePlant(ctx, plant); err != nil {
		return c.fail(opRemovePins, "update_failed", err, "The pins could not be removed.")
	}
	if err := c.refetchPlants(ctx, opRemovePins); err != nil {
		return err
	}
	c.notify.Success("Pins removed.")
	return nil
}
