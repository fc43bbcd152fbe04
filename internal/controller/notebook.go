package controller

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/florahq/verdant/internal/garden"
	"github.com/florahq/verdant/internal/media"
)

const (
	opCreateNotebook = "controller.notebook.create"
	opUpdateNotebook = "controller.notebook.update"
	opDeleteNotebook = "controller.notebook.delete"
	opCompleteTask   = "controller.notebook.complete"
)

// NotebookInput carries the fields for a note or task.
type NotebookInput struct {
	Kind        garden.NotebookKind
	Title       string
	Description string
	Date        time.Time
	ImageBase64 string
	Recurrence  string
}

// CreateNotebookEntry adds a note or task to the timeline.
func (c *Controller) CreateNotebookEntry(ctx context.Context, input NotebookInput) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return c.fail(opCreateNotebook, "missing_title",
			fmt.Errorf("%w: entry title is required", ErrValidation),
			"Give the entry a title first.")
	}
	if input.Kind != garden.NotebookNote && input.Kind != garden.NotebookTask {
		return c.fail(opCreateNotebook, "invalid_kind",
			fmt.Errorf("%w: unknown entry kind %q", ErrValidation, input.Kind),
			"That entry could not be saved.")
	}
	if input.Recurrence != "" {
		if _, ok := garden.NextOccurrence(0, input.Recurrence); !ok {
			return c.fail(opCreateNotebook, "invalid_recurrence",
				fmt.Errorf("%w: unknown recurrence %q", ErrValidation, input.Recurrence),
				"That repeat interval is not supported.")
		}
	}
	date := input.Date
	if date.IsZero() {
		date = c.clock()
	}

	imageURL, err := c.prepareUpload(opCreateNotebook, input.ImageBase64, media.QualityStandard)
	if err != nil {
		return err
	}
	entryID, err := c.newID(opCreateNotebook)
	if err != nil {
		return err
	}

	entry := garden.NotebookEntry{
		UserID:      c.userID.String(),
		EntryID:     entryID,
		Kind:        input.Kind,
		Title:       title,
		Description: input.Description,
		DateSeconds: date.UTC().Unix(),
		ImageURL:    imageURL,
		Recurrence:  input.Recurrence,
	}
	if _, err := c.backend.InsertNotebookEntry(ctx, entry); err != nil {
		return c.fail(opCreateNotebook, "insert_failed", err, "The entry could not be saved.")
	}
	if err := c.refetchNotebook(ctx, opCreateNotebook); err != nil {
		return err
	}
	c.notify.Success("Entry saved.")
	return nil
}

// UpdateNotebookEntry overwrites an entry's editable fields.
func (c *Controller) UpdateNotebookEntry(ctx context.Context, entryID string, input NotebookInput) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	entry, ok := c.store.NotebookEntry(entryID)
	if !ok {
		return c.fail(opUpdateNotebook, "unknown_entry",
			fmt.Errorf("%w: entry %s not loaded", ErrValidation, entryID),
			"That entry is no longer available.")
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return c.fail(opUpdateNotebook, "missing_title",
			fmt.Errorf("%w: entry title is required", ErrValidation),
			"Give the entry a title first.")
	}

	if strings.TrimSpace(input.ImageBase64) != "" {
		imageURL, err := c.prepareUpload(opUpdateNotebook, input.ImageBase64, media.QualityStandard)
		if err != nil {
			return err
		}
		c.deleteIfManaged(opUpdateNotebook, entry.ImageURL)
		entry.ImageURL = imageURL
	}
	entry.Title = title
	entry.Description = input.Description
	if !input.Date.IsZero() {
		entry.DateSeconds = input.Date.UTC().Unix()
	}
	entry.Recurrence = input.Recurrence

	if err := c.backend.UpdateNotebookEntry(ctx, entry); err != nil {
		return c.fail(opUpdateNotebook, "update_failed", err, "The entry could not be saved.")
	}
	if err := c.refetchNotebook(ctx, opUpdateNotebook); err != nil {
		return err
	}
	c.notify.Success("Entry updated.")
	return nil
}

// DeleteNotebookEntry removes one entry and its stored image.
func (c *Controller) DeleteNotebookEntry(ctx context.Context, entryID string) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	entry, ok := c.store.NotebookEntry(entryID)
	if !ok {
		return c.fail(opDeleteNotebook, "unknown_entry",
			fmt.Errorf("%w: entry %s not loaded", ErrValidation, entryID),
			"That entry is no longer available.")
	}
	if !c.confirm.Confirm("Delete this entry?") {
		return ErrDeclined
	}

	c.deleteIfManaged(opDeleteNotebook, entry.ImageURL)
	id, err := garden.NewEntityID(entryID)
	if err != nil {
		return c.fail(opDeleteNotebook, "invalid_identifier", err, "The entry could not be deleted.")
	}
	if err := c.backend.DeleteNotebookEntry(ctx, c.userID, id); err != nil {
		return c.fail(opDeleteNotebook, "delete_failed", err, "The entry could not be deleted.")
	}
	if err := c.refetchNotebook(ctx, opDeleteNotebook); err != nil {
		return err
	}
	c.notify.Success("Entry deleted.")
	return nil
}

// CompleteTask marks a task done. A recurring task spawns its next
// occurrence, linked to the completed one via the parent id.
func (c *Controller) CompleteTask(ctx context.Context, entryID string) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	entry, ok := c.store.NotebookEntry(entryID)
	if !ok {
		return c.fail(opCompleteTask, "unknown_entry",
			fmt.Errorf("%w: entry %s not loaded", ErrValidation, entryID),
			"That task is no longer available.")
	}
	if entry.Kind != garden.NotebookTask {
		return c.fail(opCompleteTask, "not_a_task",
			fmt.Errorf("%w: entry %s is not a task", ErrValidation, entryID),
			"Only tasks can be completed.")
	}
	if entry.Completed {
		return nil
	}

	entry.Completed = true
	if err := c.backend.UpdateNotebookEntry(ctx, entry); err != nil {
		return c.fail(opCompleteTask, "update_failed", err, "The task could not be updated.")
	}

	if nextDate, ok := garden.NextOccurrence(entry.DateSeconds, entry.Recurrence); ok {
		nextID, err := c.ids.NewID()
		if err != nil {
			c.logError(opCompleteTask, "spawn_id_failed", err)
		} else {
			next := garden.NotebookEntry{
				UserID:      entry.UserID,
				EntryID:     nextID,
				Kind:        garden.NotebookTask,
				Title:       entry.Title,
				Description: entry.Description,
				DateSeconds: nextDate,
				Recurrence:  entry.Recurrence,
				ParentID:    entry.EntryID,
			}
			if _, err := c.backend.InsertNotebookEntry(ctx, next); err != nil {
				c.logError(opCompleteTask, "spawn_failed", err)
			}
		}
	}

	if err := c.refetchNotebook(ctx, opCompleteTask); err != nil {
		return err
	}
	c.notify.Success("Task completed.")
	return nil
}
