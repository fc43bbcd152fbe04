package controller

import (
	"context"
	"encoding/json"
	"time"

	"github.com/florahq/verdant/internal/garden"
	"github.com/florahq/verdant/internal/settings"
)

const (
	opSetHomeLocation   = "controller.profile.set_home"
	opClearHomeLocation = "controller.profile.clear_home"
	opUpdateSettings    = "controller.settings.update"
	opSyncSettings      = "controller.settings.sync"
	opUpdateFlora       = "controller.settings.flora"
)

// SetHomeLocation stores the weather reference point remotely and mirrors it
// into the settings record.
func (c *Controller) SetHomeLocation(ctx context.Context, location garden.HomeLocation) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	location.UserID = c.userID.String()
	if err := c.backend.UpsertHomeLocation(ctx, location); err != nil {
		return c.fail(opSetHomeLocation, "upsert_failed", err, "The location could not be saved.")
	}

	record := c.Settings()
	record.HomeLocation = &settings.HomeLocation{
		Latitude:    location.Latitude,
		Longitude:   location.Longitude,
		DisplayName: location.DisplayName,
		CountryCode: location.CountryCode,
	}
	c.applySettings(record)
	c.notify.Success("Home location saved.")
	return nil
}

// ClearHomeLocation removes the reference point. Weather lookups stop at the
// next log save; nothing recorded earlier changes.
func (c *Controller) ClearHomeLocation(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if err := c.backend.DeleteHomeLocation(ctx, c.userID); err != nil {
		return c.fail(opClearHomeLocation, "delete_failed", err, "The location could not be removed.")
	}

	record := c.Settings()
	record.HomeLocation = nil
	c.applySettings(record)
	c.notify.Success("Home location removed.")
	return nil
}

// UpdateSettings persists a changed record locally right away and schedules
// the debounced remote write. A new change within the window supersedes the
// pending write.
func (c *Controller) UpdateSettings(record settings.Settings) error {
	if err := c.local.SaveSettings(record); err != nil {
		return c.fail(opUpdateSettings, "local_write_failed", err, "Settings could not be saved.")
	}
	c.applySettings(record)
	return nil
}

// UpdateFloraPrefs persists the chat-dock preferences under their own key
// and rides the same debounced remote sync.
func (c *Controller) UpdateFloraPrefs(prefs settings.FloraPrefs) error {
	if err := c.local.SaveFlora(prefs); err != nil {
		return c.fail(opUpdateFlora, "local_write_failed", err, "Preferences could not be saved.")
	}
	c.scheduleSettingsSync()
	return nil
}

// applySettings swaps the active record and restarts the sync debounce.
func (c *Controller) applySettings(record settings.Settings) {
	c.settingsMu.Lock()
	c.current = record
	c.settingsMu.Unlock()
	c.scheduleSettingsSync()
}

func (c *Controller) scheduleSettingsSync() {
	c.settingsMu.Lock()
	defer c.settingsMu.Unlock()
	if c.settingsTimer != nil {
		c.settingsTimer.Stop()
	}
	c.settingsTimer = time.AfterFunc(c.syncLag, func() {
		c.pushSettings(context.Background())
	})
}

// flushSettingsSync cancels a pending debounced write and pushes the current
// record immediately. Used on sign-out.
func (c *Controller) flushSettingsSync(ctx context.Context) {
	c.settingsMu.Lock()
	pending := c.settingsTimer != nil && c.settingsTimer.Stop()
	c.settingsTimer = nil
	c.settingsMu.Unlock()
	if pending {
		c.pushSettings(ctx)
	}
}

// pushSettings writes the current record to the remote profile. Failures are
// logged only; the local cache already holds the truth and the next change
// retries.
func (c *Controller) pushSettings(ctx context.Context) {
	record := c.Settings()
	flora, err := c.local.LoadFlora()
	if err != nil {
		c.logError(opSyncSettings, "flora_read_failed", err)
	}
	payload, err := json.Marshal(remotePayload{Settings: record, Flora: flora})
	if err != nil {
		c.logError(opSyncSettings, "encode_failed", err)
		return
	}
	stored := garden.ProfileSettings{
		UserID:      c.userID.String(),
		PayloadJSON: string(payload),
	}
	if err := c.backend.UpsertProfileSettings(ctx, stored); err != nil {
		c.logError(opSyncSettings, "remote_write_failed", err)
	}
}
