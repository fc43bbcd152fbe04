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
	opAddLog    = "controller.logs.add"
	opDeleteLog = "controller.logs.delete"

	defaultLogTitle = "Garden note"
)

// LogInput carries the fields and side-effect flags for a new log entry.
type LogInput struct {
	Title       string
	Description string
	Date        time.Time
	ImageBase64 string

	SetAsMainPhoto bool
	ShareToSocial  bool
	AddToNotebook  bool
	AttachWeather  bool
}

// AddPlantLog records a dated event against one plant.
func (c *Controller) AddPlantLog(ctx context.Context, plantID string, input LogInput) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	plant, ok := c.store.Plant(plantID)
	if !ok {
		return c.fail(opAddLog, "unknown_plant",
			fmt.Errorf("%w: plant %s not loaded", ErrValidation, plantID),
			"That plant is no longer available.")
	}
	return c.addLog(ctx, garden.LogOwnerPlant, plantID, plant.Name, input)
}

// AddGardenLog records a dated event against the garden as a whole.
func (c *Controller) AddGardenLog(ctx context.Context, input LogInput) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	input.SetAsMainPhoto = false
	return c.addLog(ctx, garden.LogOwnerGarden, c.userID.String(), "", input)
}

// addLog runs the sequenced log save: upload, best-effort weather, insert,
// then the flagged follow-ups. The follow-ups never undo a saved log; their
// failures are logged and the save still counts.
func (c *Controller) addLog(ctx context.Context, ownerType garden.LogOwnerType, ownerID, plantName string, input LogInput) error {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = defaultLogTitle
	}
	date := input.Date
	if date.IsZero() {
		date = c.clock()
	}

	imageURL, err := c.prepareUpload(opAddLog, input.ImageBase64, media.QualityStandard)
	if err != nil {
		return err
	}

	entry := garden.LogEntry{
		UserID:      c.userID.String(),
		OwnerType:   ownerType,
		OwnerID:     ownerID,
		DateSeconds: date.UTC().Unix(),
		Title:       title,
		Description: input.Description,
		ImageURL:    imageURL,
	}
	entry.LogID, err = c.newID(opAddLog)
	if err != nil {
		return err
	}

	if input.AttachWeather {
		if snapshot := c.lookupWeather(ctx, date); snapshot != nil {
			entry.WeatherTempC = &snapshot.TemperatureC
			entry.WeatherCode = &snapshot.ConditionCode
		}
	}

	if _, err := c.backend.InsertLog(ctx, entry); err != nil {
		return c.fail(opAddLog, "insert_failed", err, "The log could not be saved.")
	}

	mainPhotoChanged := false
	if input.SetAsMainPhoto && imageURL != "" && ownerType == garden.LogOwnerPlant {
		if plant, ok := c.store.Plant(ownerID); ok {
			c.deleteIfManaged(opAddLog, plant.ImageURL)
			plant.ImageURL = imageURL
			if err := c.backend.UpdatePlant(ctx, plant); err != nil {
				c.logError(opAddLog, "main_photo_update_failed", err)
			} else {
				mainPhotoChanged = true
			}
		}
	}

	if input.ShareToSocial {
		c.shareLogToFeed(ctx, entry, plantName)
	}
	if input.AddToNotebook {
		c.copyLogToNotebook(ctx, entry)
	}

	if err := c.refetchLogs(ctx, opAddLog, ownerType); err != nil {
		return err
	}
	if mainPhotoChanged {
		if err := c.refetchPlants(ctx, opAddLog); err != nil {
			return err
		}
	}
	c.notify.Success("Log saved.")
	return nil
}

// lookupWeather resolves the snapshot for a log date from the user's home
// location. Every step is best-effort; absence of a home location or a
// provider failure simply yields no snapshot.
func (c *Controller) lookupWeather(ctx context.Context, date time.Time) *garden.WeatherSnapshot {
	if c.weather == nil || !c.Settings().UseWeather {
		return nil
	}
	home, err := c.backend.GetHomeLocation(ctx, c.userID)
	if err != nil || home == nil {
		if err != nil {
			c.logError(opAddLog, "home_location_lookup_failed", err)
		}
		return nil
	}
	snapshot, err := c.weather.ForDate(ctx, home.Latitude, home.Longitude, date)
	if err != nil || snapshot == nil {
		if err != nil {
			c.logError(opAddLog, "weather_lookup_failed", err)
		}
		return nil
	}
	return &garden.WeatherSnapshot{
		TemperatureC:  snapshot.TemperatureC,
		ConditionCode: snapshot.ConditionCode,
	}
}

func (c *Controller) shareLogToFeed(ctx context.Context, entry garden.LogEntry, plantName string) {
	postID, err := c.ids.NewID()
	if err != nil {
		c.logError(opAddLog, "share_id_failed", err)
		return
	}
	post := garden.SocialPost{
		PostID:           postID,
		AuthorID:         c.userID.String(),
		AuthorName:       c.displayName,
		PlantName:        plantName,
		Title:            entry.Title,
		Description:      entry.Description,
		ImageURL:         entry.ImageURL,
		EventDateSeconds: entry.DateSeconds,
		WeatherTempC:     entry.WeatherTempC,
		WeatherCode:      entry.WeatherCode,
	}
	if _, err := c.backend.InsertPost(ctx, post); err != nil {
		c.logError(opAddLog, "share_failed", err)
		return
	}
	if err := c.loadFeed(ctx, opAddLog, true); err != nil {
		c.logError(opAddLog, "feed_refresh_failed", err)
	}
}

func (c *Controller) copyLogToNotebook(ctx context.Context, entry garden.LogEntry) {
	entryID, err := c.ids.NewID()
	if err != nil {
		c.logError(opAddLog, "notebook_id_failed", err)
		return
	}
	note := garden.NotebookEntry{
		UserID:      c.userID.String(),
		EntryID:     entryID,
		Kind:        garden.NotebookNote,
		Title:       entry.Title,
		Description: entry.Description,
		DateSeconds: entry.DateSeconds,
		ImageURL:    entry.ImageURL,
	}
	if _, err := c.backend.InsertNotebookEntry(ctx, note); err != nil {
		c.logError(opAddLog, "notebook_copy_failed", err)
		return
	}
	if err := c.refetchNotebook(ctx, opAddLog); err != nil {
		c.logError(opAddLog, "notebook_refresh_failed", err)
	}
}

// DeleteLog removes one log entry and its stored image after confirmation.
func (c *Controller) DeleteLog(ctx context.Context, logID string) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	entry, ok := c.store.Log(logID)
	if !ok {
		return c.fail(opDeleteLog, "unknown_log",
			fmt.Errorf("%w: log %s not loaded", ErrValidation, logID),
			"That log is no longer available.")
	}
	if !c.confirm.Confirm("Delete this log entry?") {
		return ErrDeclined
	}

	c.deleteIfManaged(opDeleteLog, entry.ImageURL)
	entityID, err := garden.NewEntityID(logID)
	if err != nil {
		return c.fail(opDeleteLog, "invalid_identifier", err, "The log could not be deleted.")
	}
	if err := c.backend.DeleteLog(ctx, c.userID, entityID); err != nil {
		return c.fail(opDeleteLog, "delete_failed", err, "The log could not be deleted.")
	}
	if err := c.refetchLogs(ctx, opDeleteLog, entry.OwnerType); err != nil {
		return err
	}
	c.store.SelectLog("")
	c.notify.Success("Log deleted.")
	return nil
}
