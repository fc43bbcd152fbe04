package controller

import (
	"context"
	"encoding/json"

	"github.com/florahq/verdant/internal/garden"
	"github.com/florahq/verdant/internal/gateway"
	"github.com/florahq/verdant/internal/nav"
	"github.com/florahq/verdant/internal/settings"
)

const (
	opBeginSession = "controller.session.begin"
	opEndSession   = "controller.session.end"
)

// remotePayload is the JSON shape stored in the remote profile: the flat
// settings record plus the chat-dock preferences.
type remotePayload struct {
	settings.Settings
	Flora settings.FloraPrefs `json:"flora"`
}

// BeginSession reconciles settings, loads the entity collections for an
// approved user and moves the nav machine to the entry view. Optional module
// collections degrade silently when their backing tables are not provisioned.
func (c *Controller) BeginSession(ctx context.Context, approved bool) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	merged := c.reconcileSettings(ctx)

	if !approved {
		c.nav.ApplyAuthState(nav.AuthPending)
		return nil
	}
	c.nav.ApplyAuthState(nav.AuthApproved)

	if err := c.refetchPlants(ctx, opBeginSession); err != nil {
		return err
	}
	if err := c.refetchLogs(ctx, opBeginSession, garden.LogOwnerPlant); err != nil {
		return err
	}
	if merged.Modules.GardenLogs {
		if err := c.refetchLogs(ctx, opBeginSession, garden.LogOwnerGarden); err != nil {
			return err
		}
	}
	if merged.Modules.GardenView {
		if err := c.refetchAreas(ctx, opBeginSession); err != nil {
			return err
		}
	}
	if merged.Modules.Notebook {
		if err := c.refetchNotebook(ctx, opBeginSession); err != nil {
			return err
		}
	}
	if merged.Modules.Social {
		if err := c.loadFeed(ctx, opBeginSession, true); err != nil {
			return err
		}
	}
	return nil
}

// reconcileSettings merges the local cache with the remote profile. Local
// always wins when it exists; a remote record is only adopted wholesale on a
// machine that never cached anything.
func (c *Controller) reconcileSettings(ctx context.Context) settings.Settings {
	local, localExists, err := c.local.LoadSettings()
	if err != nil {
		c.logError(opBeginSession, "local_settings_unreadable", err)
		local, localExists = settings.Defaults(), false
	}

	var remote *settings.Settings
	record, err := c.backend.GetProfileSettings(ctx, c.userID)
	switch {
	case err != nil:
		if !gateway.IsMissingRelation(err) {
			c.logError(opBeginSession, "remote_settings_unreadable", err)
		}
	case record != nil:
		var payload remotePayload
		if err := json.Unmarshal([]byte(record.PayloadJSON), &payload); err != nil {
			c.logError(opBeginSession, "remote_settings_corrupt", err)
		} else {
			remote = &payload.Settings
		}
	}

	merged := settings.Overlay(local, localExists, remote)
	if !localExists && remote != nil {
		if err := c.local.SaveSettings(merged); err != nil {
			c.logError(opBeginSession, "local_settings_write_failed", err)
		}
	}

	c.settingsMu.Lock()
	c.current = merged
	c.settingsMu.Unlock()
	return merged
}

// EndSession flushes any pending settings sync, clears the store and returns
// the nav machine to the welcome view.
func (c *Controller) EndSession(ctx context.Context) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.flushSettingsSync(ctx)
	c.store.Clear()
	c.nav.ApplyAuthState(nav.AuthSignedOut)
}
