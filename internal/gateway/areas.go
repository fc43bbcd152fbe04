package gateway

import (
	"context"
	"strings"

	"github.com/florahq/verdant/internal/garden"
	"go.uber.org/zap"
)

const (
	opListAreas  = "gateway.areas.list"
	opInsertArea = "gateway.areas.insert"
	opUpdateArea = "gateway.areas.update"
	opDeleteArea = "gateway.areas.delete"
)

// ListGardenAreas returns the user's garden areas in creation order.
func (g *Gateway) ListGardenAreas(ctx context.Context, userID garden.UserID) ([]garden.GardenArea, error) {
	var areas []garden.GardenArea
	if err := g.db.WithContext(ctx).
		Where("user_id = ?", userID.String()).
		Order("created_at_s ASC").
		Find(&areas).Error; err != nil {
		g.logError(opListAreas, "query_failed", err, zap.String("user_id", userID.String()))
		return nil, newError(opListAreas, "query_failed", err)
	}
	return areas, nil
}

// InsertGardenArea persists a new garden area.
func (g *Gateway) InsertGardenArea(ctx context.Context, area garden.GardenArea) (garden.GardenArea, error) {
	if strings.TrimSpace(area.AreaID) == "" || strings.TrimSpace(area.UserID) == "" {
		return garden.GardenArea{}, newError(opInsertArea, "missing_identifier", garden.ErrInvalidEntityID)
	}
	area.CreatedAtSeconds = g.nowSeconds()
	if err := g.db.WithContext(ctx).Create(&area).Error; err != nil {
		g.logError(opInsertArea, "insert_failed", err, zap.String("area_id", area.AreaID))
		return garden.GardenArea{}, newError(opInsertArea, "insert_failed", err)
	}
	return area, nil
}

// UpdateGardenArea overwrites an area's name and image reference.
func (g *Gateway) UpdateGardenArea(ctx context.Context, area garden.GardenArea) error {
	result := g.db.WithContext(ctx).
		Model(&garden.GardenArea{}).
		Where("user_id = ? AND area_id = ?", area.UserID, area.AreaID).
		Select("name", "image_url").
		Updates(&area)
	if result.Error != nil {
		g.logError(opUpdateArea, "update_failed", result.Error, zap.String("area_id", area.AreaID))
		return newError(opUpdateArea, "update_failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return newError(opUpdateArea, "not_found", ErrNotFound)
	}
	return nil
}

// DeleteGardenArea removes exactly one garden area row.
func (g *Gateway) DeleteGardenArea(ctx context.Context, userID garden.UserID, areaID garden.EntityID) error {
	result := g.db.WithContext(ctx).
		Where("user_id = ? AND area_id = ?", userID.String(), areaID.String()).
		Delete(&garden.GardenArea{})
	if result.Error != nil {
		g.logError(opDeleteArea, "delete_failed", result.Error, zap.String("area_id", areaID.String()))
		return newError(opDeleteArea, "delete_failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return newError(opDeleteArea, "not_found", ErrNotFound)
	}
	return nil
}
