package gateway

import (
	"context"
	"strings"

	"github.com/florahq/verdant/internal/garden"
	"go.uber.org/zap"
)

const (
	opListLogs  = "gateway.logs.list"
	opInsertLog = "gateway.logs.insert"
	opUpdateLog = "gateway.logs.update"
	opDeleteLog = "gateway.logs.delete"
)

// ListLogs returns the user's log entries for one owner type, newest first.
func (g *Gateway) ListLogs(ctx context.Context, userID garden.UserID, ownerType garden.LogOwnerType) ([]garden.LogEntry, error) {
	var entries []garden.LogEntry
	if err := g.db.WithContext(ctx).
		Where("user_id = ? AND owner_type = ?", userID.String(), string(ownerType)).
		Order("date_s DESC, created_at_s DESC").
		Find(&entries).Error; err != nil {
		g.logError(opListLogs, "query_failed", err,
			zap.String("user_id", userID.String()),
			zap.String("owner_type", string(ownerType)))
		return nil, newError(opListLogs, "query_failed", err)
	}
	return entries, nil
}

// InsertLog persists a new log entry.
func (g *Gateway) InsertLog(ctx context.Context, entry garden.LogEntry) (garden.LogEntry, error) {
	if strings.TrimSpace(entry.LogID) == "" || strings.TrimSpace(entry.UserID) == "" {
		return garden.LogEntry{}, newError(opInsertLog, "missing_identifier", garden.ErrInvalidEntityID)
	}
	if entry.OwnerType != garden.LogOwnerPlant && entry.OwnerType != garden.LogOwnerGarden {
		return garden.LogEntry{}, newError(opInsertLog, "invalid_owner_type", garden.ErrInvalidEntityID)
	}
	entry.CreatedAtSeconds = g.nowSeconds()
	if err := g.db.WithContext(ctx).Create(&entry).Error; err != nil {
		g.logError(opInsertLog, "insert_failed", err, zap.String("log_id", entry.LogID))
		return garden.LogEntry{}, newError(opInsertLog, "insert_failed", err)
	}
	return entry, nil
}

// UpdateLog overwrites the mutable fields of a log entry.
func (g *Gateway) UpdateLog(ctx context.Context, entry garden.LogEntry) error {
	result := g.db.WithContext(ctx).
		Model(&garden.LogEntry{}).
		Where("user_id = ? AND log_id = ?", entry.UserID, entry.LogID).
		Select("title", "description", "date_s", "image_url", "weather_temp_c", "weather_code").
		Updates(&entry)
	if result.Error != nil {
		g.logError(opUpdateLog, "update_failed", result.Error, zap.String("log_id", entry.LogID))
		return newError(opUpdateLog, "update_failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return newError(opUpdateLog, "not_found", ErrNotFound)
	}
	return nil
}

// DeleteLog removes exactly one log entry.
func (g *Gateway) DeleteLog(ctx context.Context, userID garden.UserID, logID garden.EntityID) error {
	result := g.db.WithContext(ctx).
		Where("user_id = ? AND log_id = ?", userID.String(), logID.String()).
		Delete(&garden.LogEntry{})
	if result.Error != nil {
		g.logError(opDeleteLog, "delete_failed", result.Error, zap.String("log_id", logID.String()))
		return newError(opDeleteLog, "delete_failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return newError(opDeleteLog, "not_found", ErrNotFound)
	}
	return nil
}
