package controller

import (
	"context"
	"testing"

	"github.com/florahq/verdant/internal/garden"
	"github.com/florahq/verdant/internal/nav"
)

func TestBeginSessionWithPendingApprovalParksOnWaitlist(t *testing.T) {
	h := newHarness(t)
	if err := h.ctrl.BeginSession(context.Background(), false); err != nil {
		t.Fatalf("pending session failed: %v", err)
	}
	if h.nav.Current() != nav.ViewWaitlist {
		t.Fatalf("expected waitlist, got %s", h.nav.Current())
	}
	if len(h.store.Plants(true)) != 0 {
		t.Fatalf("pending users must not load data")
	}
}

func TestMissingOptionalTablesDegradeSilently(t *testing.T) {
	// Only the required tables exist; the optional module tables were never
	// provisioned on this backend.
	h := newHarnessWithModels(t, &garden.Plant{}, &garden.LogEntry{})
	seedPlant(t, h, "plant-1", "Basil", 1)

	if err := h.ctrl.BeginSession(context.Background(), true); err != nil {
		t.Fatalf("session must survive unprovisioned optional tables: %v", err)
	}

	if len(h.store.Plants(false)) != 1 {
		t.Fatalf("required collections must still load")
	}
	if len(h.store.Areas()) != 0 || len(h.store.NotebookEntries()) != 0 || len(h.store.Feed()) != 0 {
		t.Fatalf("optional collections must stay empty")
	}
	if h.toasts.failureCount() != 0 {
		t.Fatalf("missing optional tables must not surface to the user, got %d toasts", h.toasts.failureCount())
	}
	if h.nav.Current() != nav.ViewDashboard {
		t.Fatalf("expected dashboard, got %s", h.nav.Current())
	}
}

func TestDisabledModulesAreNotFetched(t *testing.T) {
	h := newHarness(t)
	seedPosts(t, h, 3)

	record := h.ctrl.Settings()
	record.Modules.Social = false
	if err := h.local.SaveSettings(record); err != nil {
		t.Fatalf("failed to seed local settings: %v", err)
	}

	h.begin(t)
	if len(h.store.Feed()) != 0 {
		t.Fatalf("disabled social module must not load the feed")
	}
}
