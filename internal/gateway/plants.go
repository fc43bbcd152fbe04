package gateway

import (
	"context"
	"strings"

	"github.com/florahq/verdant/internal/garden"
	"go.uber.org/zap"
)

const (
	opListPlants  = "gateway.plants.list"
	opInsertPlant = "gateway.plants.insert"
	opUpdatePlant = "gateway.plants.update"
	opDeletePlant = "gateway.plants.delete"
)

// ListPlants returns every plant owned by the user, newest first.
func (g *Gateway) ListPlants(ctx context.Context, userID garden.UserID) ([]garden.Plant, error) {
	var plants []garden.Plant
	if err := g.db.WithContext(ctx).
		Where("user_id = ?", userID.String()).
		Order("created_at_s DESC").
		Find(&plants).Error; err != nil {
		g.logError(opListPlants, "query_failed", err, zap.String("user_id", userID.String()))
		return nil, newError(opListPlants, "query_failed", err)
	}
	return plants, nil
}

// InsertPlant persists a new plant row and returns the stored representation.
func (g *Gateway) InsertPlant(ctx context.Context, plant garden.Plant) (garden.Plant, error) {
	if strings.TrimSpace(plant.PlantID) == "" || strings.TrimSpace(plant.UserID) == "" {
		return garden.Plant{}, newError(opInsertPlant, "missing_identifier", garden.ErrInvalidEntityID)
	}
	now := g.nowSeconds()
	plant.CreatedAtSeconds = now
	plant.UpdatedAtSeconds = now
	if err := g.db.WithContext(ctx).Create(&plant).Error; err != nil {
		g.logError(opInsertPlant, "insert_failed", err, zap.String("plant_id", plant.PlantID))
		return garden.Plant{}, newError(opInsertPlant, "insert_failed", err)
	}
	return plant, nil
}

// UpdatePlant overwrites a plant row in place.
func (g *Gateway) UpdatePlant(ctx context.Context, plant garden.Plant) error {
	plant.UpdatedAtSeconds = g.nowSeconds()
	result := g.db.WithContext(ctx).
		Model(&garden.Plant{}).
		Where("user_id = ? AND plant_id = ?", plant.UserID, plant.PlantID).
		Select("name", "scientific_name", "description", "care_instructions",
			"image_url", "planted_at_s", "indoor", "is_active", "sequence",
			"locations", "updated_at_s").
		Updates(&plant)
	if result.Error != nil {
		g.logError(opUpdatePlant, "update_failed", result.Error, zap.String("plant_id", plant.PlantID))
		return newError(opUpdatePlant, "update_failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return newError(opUpdatePlant, "not_found", ErrNotFound)
	}
	return nil
}

// DeletePlant removes exactly one plant row.
func (g *Gateway) DeletePlant(ctx context.Context, userID garden.UserID, plantID garden.EntityID) error {
	result := g.db.WithContext(ctx).
		Where("user_id = ? AND plant_id = ?", userID.String(), plantID.String()).
		Delete(&garden.Plant{})
	if result.Error != nil {
		g.logError(opDeletePlant, "delete_failed", result.Error, zap.String("plant_id", plantID.String()))
		return newError(opDeletePlant, "delete_failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return newError(opDeletePlant, "not_found", ErrNotFound)
	}
	return nil
}
