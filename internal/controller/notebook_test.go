package controller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/florahq/verdant/internal/garden"
)

func TestCompleteRecurringTaskSpawnsNextOccurrence(t *testing.T) {
	h := newHarness(t)
	h.begin(t)

	due := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	if err := h.ctrl.CreateNotebookEntry(context.Background(), NotebookInput{
		Kind:       garden.NotebookTask,
		Title:      "Fertilize roses",
		Date:       due,
		Recurrence: garden.RecurrenceWeekly,
	}); err != nil {
		t.Fatalf("create task failed: %v", err)
	}
	original := h.store.NotebookEntries()[0]

	if err := h.ctrl.CompleteTask(context.Background(), original.EntryID); err != nil {
		t.Fatalf("complete task failed: %v", err)
	}

	entries := h.store.NotebookEntries()
	if len(entries) != 2 {
		t.Fatalf("expected the completed task plus its spawn, got %d", len(entries))
	}
	var completed, spawned *garden.NotebookEntry
	for i := range entries {
		if entries[i].EntryID == original.EntryID {
			completed = &entries[i]
		} else {
			spawned = &entries[i]
		}
	}
	if completed == nil || !completed.Completed {
		t.Fatalf("original task not marked complete: %#v", completed)
	}
	if spawned == nil || spawned.Completed {
		t.Fatalf("spawned task missing or already complete: %#v", spawned)
	}
	if spawned.ParentID != original.EntryID {
		t.Fatalf("spawn must link to its parent, got %q", spawned.ParentID)
	}
	if got := spawned.DateSeconds - original.DateSeconds; got != 7*86400 {
		t.Fatalf("weekly spawn must land 7 days later, got %d seconds", got)
	}
	if spawned.Recurrence != garden.RecurrenceWeekly {
		t.Fatalf("spawn must keep the recurrence, got %q", spawned.Recurrence)
	}
}

func TestCompleteNonRecurringTaskSpawnsNothing(t *testing.T) {
	h := newHarness(t)
	h.begin(t)

	if err := h.ctrl.CreateNotebookEntry(context.Background(), NotebookInput{
		Kind:  garden.NotebookTask,
		Title: "Repot the fern",
	}); err != nil {
		t.Fatalf("create task failed: %v", err)
	}
	entryID := h.store.NotebookEntries()[0].EntryID

	if err := h.ctrl.CompleteTask(context.Background(), entryID); err != nil {
		t.Fatalf("complete task failed: %v", err)
	}
	if got := len(h.store.NotebookEntries()); got != 1 {
		t.Fatalf("one-off task must not spawn, got %d entries", got)
	}

	// Completing again is a no-op.
	if err := h.ctrl.CompleteTask(context.Background(), entryID); err != nil {
		t.Fatalf("re-complete failed: %v", err)
	}
	if got := len(h.store.NotebookEntries()); got != 1 {
		t.Fatalf("re-completion must not spawn, got %d entries", got)
	}
}

func TestCompleteRejectsNotes(t *testing.T) {
	h := newHarness(t)
	h.begin(t)

	if err := h.ctrl.CreateNotebookEntry(context.Background(), NotebookInput{
		Kind:  garden.NotebookNote,
		Title: "Aphids on the roses",
	}); err != nil {
		t.Fatalf("create note failed: %v", err)
	}
	entryID := h.store.NotebookEntries()[0].EntryID

	if err := h.ctrl.CompleteTask(context.Background(), entryID); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for a note, got %v", err)
	}
}

func TestCreateNotebookEntryRejectsUnknownRecurrence(t *testing.T) {
	h := newHarness(t)
	h.begin(t)

	err := h.ctrl.CreateNotebookEntry(context.Background(), NotebookInput{
		Kind:       garden.NotebookTask,
		Title:      "Prune",
		Recurrence: "fortnightly",
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
