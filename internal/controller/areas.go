package controller

import (
	"context"
	"fmt"
	"strings"

	"github.com/florahq/verdant/internal/garden"
	"github.com/florahq/verdant/internal/media"
)

const (
	opCreateArea = "controller.areas.create"
	opUpdateArea = "controller.areas.update"
	opDeleteArea = "controller.areas.delete"
)

// AreaInput carries the fields for creating or editing a garden area.
type AreaInput struct {
	Name        string
	ImageBase64 string
}

// CreateArea adds a named garden region.
func (c *Controller) CreateArea(ctx context.Context, input AreaInput) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return c.fail(opCreateArea, "missing_name",
			fmt.Errorf("%w: area name is required", ErrValidation),
			"Give the area a name first.")
	}

	imageURL, err := c.prepareUpload(opCreateArea, input.ImageBase64, media.QualityStandard)
	if err != nil {
		return err
	}
	areaID, err := c.newID(opCreateArea)
	if err != nil {
		return err
	}

	area := garden.GardenArea{
		UserID:   c.userID.String(),
		AreaID:   areaID,
		Name:     name,
		ImageURL: imageURL,
	}
	if _, err := c.backend.InsertGardenArea(ctx, area); err != nil {
		return c.fail(opCreateArea, "insert_failed", err, "The area could not be saved.")
	}
	if err := c.refetchAreas(ctx, opCreateArea); err != nil {
		return err
	}
	c.notify.Success(fmt.Sprintf("%s added to your garden.", name))
	return nil
}

// UpdateArea overwrites an area's name and image.
func (c *Controller) UpdateArea(ctx context.Context, areaID string, input AreaInput) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	area, ok := c.store.Area(areaID)
	if !ok {
		return c.fail(opUpdateArea, "unknown_area",
			fmt.Errorf("%w: area %s not loaded", ErrValidation, areaID),
			"That area is no longer available.")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return c.fail(opUpdateArea, "missing_name",
			fmt.Errorf("%w: area name is required", ErrValidation),
			"Give the area a name first.")
	}

	if strings.TrimSpace(input.ImageBase64) != "" {
		imageURL, err := c.prepareUpload(opUpdateArea, input.ImageBase64, media.QualityStandard)
		if err != nil {
			return err
		}
		c.deleteIfManaged(opUpdateArea, area.ImageURL)
		area.ImageURL = imageURL
	}
	area.Name = name

	if err := c.backend.UpdateGardenArea(ctx, area); err != nil {
		return c.fail(opUpdateArea, "update_failed", err, "The area could not be saved.")
	}
	if err := c.refetchAreas(ctx, opUpdateArea); err != nil {
		return err
	}
	c.notify.Success("Area updated.")
	return nil
}

// DeleteArea removes an area after confirmation. Pins plants hold on the
// area are removed first so no plant keeps a dangling placement.
func (c *Controller) DeleteArea(ctx context.Context, areaID string) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	area, ok := c.store.Area(areaID)
	if !ok {
		return c.fail(opDeleteArea, "unknown_area",
			fmt.Errorf("%w: area %s not loaded", ErrValidation, areaID),
			"That area is no longer available.")
	}
	if !c.confirm.Confirm(fmt.Sprintf("Delete %s? Plant pins on it will be removed.", area.Name)) {
		return ErrDeclined
	}

	pinsDropped := false
	for _, plant := range c.store.AllPlants() {
		if plant.RemovePinsForArea(areaID) == 0 {
			continue
		}
		if err := c.backend.UpdatePlant(ctx, plant); err != nil {
			c.logError(opDeleteArea, "pin_cleanup_failed", err)
			continue
		}
		pinsDropped = true
	}

	c.deleteIfManaged(opDeleteArea, area.ImageURL)
	entityID, err := garden.NewEntityID(areaID)
	if err != nil {
		return c.fail(opDeleteArea, "invalid_identifier", err, "The area could not be deleted.")
	}
	if err := c.backend.DeleteGardenArea(ctx, c.userID, entityID); err != nil {
		return c.fail(opDeleteArea, "delete_failed", err, "The area could not be deleted.")
	}

	if err := c.refetchAreas(ctx, opDeleteArea); err != nil {
		return err
	}
	if pinsDropped {
		if err := c.refetchPlants(ctx, opDeleteArea); err != nil {
			return err
		}
	}
	c.notify.Success("Area deleted.")
	return nil
}
