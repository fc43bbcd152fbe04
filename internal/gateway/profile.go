package gateway

import (
	"context"
	"errors"

	"github.com/florahq/verdant/internal/garden"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	opGetHomeLocation    = "gateway.home_location.get"
	opUpsertHomeLocation = "gateway.home_location.upsert"
	opDeleteHomeLocation = "gateway.home_location.delete"
	opGetSettings        = "gateway.settings.get"
	opUpsertSettings     = "gateway.settings.upsert"
)

// GetHomeLocation returns the user's home location, or nil when none is set.
func (g *Gateway) GetHomeLocation(ctx context.Context, userID garden.UserID) (*garden.HomeLocation, error) {
	var location garden.HomeLocation
	err := g.db.WithContext(ctx).
		Where("user_id = ?", userID.String()).
		Take(&location).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		g.logError(opGetHomeLocation, "query_failed", err, zap.String("user_id", userID.String()))
		return nil, newError(opGetHomeLocation, "query_failed", err)
	}
	return &location, nil
}

// UpsertHomeLocation stores the user's single home location, replacing any
// previous value. This is one of the two modeled upserts.
func (g *Gateway) UpsertHomeLocation(ctx context.Context, location garden.HomeLocation) error {
	if location.UserID == "" {
		return newError(opUpsertHomeLocation, "missing_identifier", garden.ErrInvalidUserID)
	}
	if err := g.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).
		Create(&location).Error; err != nil {
		g.logError(opUpsertHomeLocation, "upsert_failed", err, zap.String("user_id", location.UserID))
		return newError(opUpsertHomeLocation, "upsert_failed", err)
	}
	return nil
}

// DeleteHomeLocation clears the user's home location. Deleting an absent
// location is not an error.
func (g *Gateway) DeleteHomeLocation(ctx context.Context, userID garden.UserID) error {
	if err := g.db.WithContext(ctx).
		Where("user_id = ?", userID.String()).
		Delete(&garden.HomeLocation{}).Error; err != nil {
		g.logError(opDeleteHomeLocation, "delete_failed", err, zap.String("user_id", userID.String()))
		return newError(opDeleteHomeLocation, "delete_failed", err)
	}
	return nil
}

// GetProfileSettings returns the remote settings payload, or nil when the
// profile has never synced.
func (g *Gateway) GetProfileSettings(ctx context.Context, userID garden.UserID) (*garden.ProfileSettings, error) {
	var settings garden.ProfileSettings
	err := g.db.WithContext(ctx).
		Where("user_id = ?", userID.String()).
		Take(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		g.logError(opGetSettings, "query_failed", err, zap.String("user_id", userID.String()))
		return nil, newError(opGetSettings, "query_failed", err)
	}
	return &settings, nil
}

// UpsertProfileSettings stores the user's settings payload, replacing any
// previous value. This is the second modeled upsert.
func (g *Gateway) UpsertProfileSettings(ctx context.Context, settings garden.ProfileSettings) error {
	if settings.UserID == "" {
		return newError(opUpsertSettings, "missing_identifier", garden.ErrInvalidUserID)
	}
	settings.UpdatedAtSeconds = g.nowSeconds()
	if err := g.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).
		Create(&settings).Error; err != nil {
		g.logError(opUpsertSettings, "upsert_failed", err, zap.String("user_id", settings.UserID))
		return newError(opUpsertSettings, "upsert_failed", err)
	}
	return nil
}
