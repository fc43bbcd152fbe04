package gateway

import (
	"context"
	"strings"

	"github.com/florahq/verdant/internal/garden"
	"go.uber.org/zap"
)

const (
	opListNotebook   = "gateway.notebook.list"
	opInsertNotebook = "gateway.notebook.insert"
	opUpdateNotebook = "gateway.notebook.update"
	opDeleteNotebook = "gateway.notebook.delete"
)

// ListNotebookEntries returns the user's notebook entries, newest date first.
func (g *Gateway) ListNotebookEntries(ctx context.Context, userID garden.UserID) ([]garden.NotebookEntry, error) {
	var entries []garden.NotebookEntry
	if err := g.db.WithContext(ctx).
		Where("user_id = ?", userID.String()).
		Order("date_s DESC, created_at_s DESC").
		Find(&entries).Error; err != nil {
		g.logError(opListNotebook, "query_failed", err, zap.String("user_id", userID.String()))
		return nil, newError(opListNotebook, "query_failed", err)
	}
	return entries, nil
}

// InsertNotebookEntry persists a new note or task.
func (g *Gateway) InsertNotebookEntry(ctx context.Context, entry garden.NotebookEntry) (garden.NotebookEntry, error) {
	if strings.TrimSpace(entry.EntryID) == "" || strings.TrimSpace(entry.UserID) == "" {
		return garden.NotebookEntry{}, newError(opInsertNotebook, "missing_identifier", garden.ErrInvalidEntityID)
	}
	if entry.Kind != garden.NotebookNote && entry.Kind != garden.NotebookTask {
		return garden.NotebookEntry{}, newError(opInsertNotebook, "invalid_kind", garden.ErrInvalidEntityID)
	}
	entry.CreatedAtSeconds = g.nowSeconds()
	if err := g.db.WithContext(ctx).Create(&entry).Error; err != nil {
		g.logError(opInsertNotebook, "insert_failed", err, zap.String("entry_id", entry.EntryID))
		return garden.NotebookEntry{}, newError(opInsertNotebook, "insert_failed", err)
	}
	return entry, nil
}

// UpdateNotebookEntry overwrites the mutable fields of a notebook entry.
func (g *Gateway) UpdateNotebookEntry(ctx context.Context, entry garden.NotebookEntry) error {
	result := g.db.WithContext(ctx).
		Model(&garden.NotebookEntry{}).
		Where("user_id = ? AND entry_id = ?", entry.UserID, entry.EntryID).
		Select("title", "description", "date_s", "image_url", "completed", "recurrence").
		Updates(&entry)
	if result.Error != nil {
		g.logError(opUpdateNotebook, "update_failed", result.Error, zap.String("entry_id", entry.EntryID))
		return newError(opUpdateNotebook, "update_failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return newError(opUpdateNotebook, "not_found", ErrNotFound)
	}
	return nil
}

// DeleteNotebookEntry removes exactly one notebook entry.
func (g *Gateway) DeleteNotebookEntry(ctx context.Context, userID garden.UserID, entryID garden.EntityID) error {
	result := g.db.WithContext(ctx).
		Where("user_id = ? AND entry_id = ?", userID.String(), entryID.String()).
		Delete(&garden.NotebookEntry{})
	if result.Error != nil {
		g.logError(opDeleteNotebook, "delete_failed", result.Error, zap.String("entry_id", entryID.String()))
		return newError(opDeleteNotebook, "delete_failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return newError(opDeleteNotebook, "not_found", ErrNotFound)
	}
	return nil
}
