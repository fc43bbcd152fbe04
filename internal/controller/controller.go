// Package controller owns the synchronization between user intents and the
// backend. Each public method translates one intent into a deterministic
// sequence of gateway calls, store updates and navigation transitions under a
// uniform failure policy: log the technical error, raise a single
// notification, and leave the store in its last-known-good state. Collections
// are re-fetched in full after every successful write; the only optimistic
// paths are the like toggle and the comment append.
package controller

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/florahq/verdant/internal/ai"
	"github.com/florahq/verdant/internal/garden"
	"github.com/florahq/verdant/internal/gateway"
	"github.com/florahq/verdant/internal/nav"
	"github.com/florahq/verdant/internal/settings"
	"github.com/florahq/verdant/internal/store"
	"github.com/florahq/verdant/internal/weather"
)

const (
	defaultFeedPageSize    = 10
	defaultSettingsSyncLag = 1500 * time.Millisecond
)

var (
	errMissingBackend  = errors.New("backend is required")
	errMissingMedia    = errors.New("media store is required")
	errMissingStore    = errors.New("domain store is required")
	errMissingNav      = errors.New("nav machine is required")
	errMissingSettings = errors.New("settings store is required")

	noOpLogger = zap.NewNop()
)

// Backend is the per-entity persistence contract. *gateway.Gateway satisfies
// it; tests wrap it to inject failures.
type Backend interface {
	ListPlants(ctx context.Context, userID garden.UserID) ([]garden.Plant, error)
	InsertPlant(ctx context.Context, plant garden.Plant) (garden.Plant, error)
	UpdatePlant(ctx context.Context, plant garden.Plant) error
	DeletePlant(ctx context.Context, userID garden.UserID, plantID garden.EntityID) error

	ListLogs(ctx context.Context, userID garden.UserID, ownerType garden.LogOwnerType) ([]garden.LogEntry, error)
	InsertLog(ctx context.Context, entry garden.LogEntry) (garden.LogEntry, error)
	UpdateLog(ctx context.Context, entry garden.LogEntry) error
	DeleteLog(ctx context.Context, userID garden.UserID, logID garden.EntityID) error

	ListGardenAreas(ctx context.Context, userID garden.UserID) ([]garden.GardenArea, error)
	InsertGardenArea(ctx context.Context, area garden.GardenArea) (garden.GardenArea, error)
	UpdateGardenArea(ctx context.Context, area garden.GardenArea) error
	DeleteGardenArea(ctx context.Context, userID garden.UserID, areaID garden.EntityID) error

	ListNotebookEntries(ctx context.Context, userID garden.UserID) ([]garden.NotebookEntry, error)
	InsertNotebookEntry(ctx context.Context, entry garden.NotebookEntry) (garden.NotebookEntry, error)
	UpdateNotebookEntry(ctx context.Context, entry garden.NotebookEntry) error
	DeleteNotebookEntry(ctx context.Context, userID garden.UserID, entryID garden.EntityID) error

	ListPosts(ctx context.Context, offset, count int) ([]garden.SocialPost, error)
	InsertPost(ctx context.Context, post garden.SocialPost) (garden.SocialPost, error)
	DeletePost(ctx context.Context, authorID garden.UserID, postID garden.EntityID) error
	CountLikes(ctx context.Context, postID garden.EntityID) (int64, error)
	HasLiked(ctx context.Context, postID garden.EntityID, userID garden.UserID) (bool, error)
	InsertLike(ctx context.Context, postID garden.EntityID, userID garden.UserID) error
	DeleteLike(ctx context.Context, postID garden.EntityID, userID garden.UserID) error
	ListComments(ctx context.Context, postID garden.EntityID) ([]garden.PostComment, error)
	InsertComment(ctx context.Context, comment garden.PostComment) (garden.PostComment, error)

	GetHomeLocation(ctx context.Context, userID garden.UserID) (*garden.HomeLocation, error)
	UpsertHomeLocation(ctx context.Context, location garden.HomeLocation) error
	DeleteHomeLocation(ctx context.Context, userID garden.UserID) error
	GetProfileSettings(ctx context.Context, userID garden.UserID) (*garden.ProfileSettings, error)
	UpsertProfileSettings(ctx context.Context, record garden.ProfileSettings) error
}

// Media is the image storage contract. *gateway.MediaStore satisfies it.
type Media interface {
	Upload(base64Image string, ownerID garden.UserID) (string, error)
	IsManaged(url string) bool
	Delete(url string) error
	ResolveDisplayURL(storedRef string) string
}

// Notifier receives the single user-visible notification each intent ends
// with. Implementations must not block.
type Notifier interface {
	Success(message string)
	Failure(message string)
}

// Confirmer gates destructive intents behind an explicit user confirmation.
type Confirmer interface {
	Confirm(prompt string) bool
}

// NopNotifier drops notifications.
type NopNotifier struct{}

func (NopNotifier) Success(string) {}
func (NopNotifier) Failure(string) {}

// AlwaysConfirm approves every prompt. Wiring without an interactive surface
// uses it; the HTTP layer substitutes the caller's explicit confirmation.
type AlwaysConfirm struct{}

func (AlwaysConfirm) Confirm(string) bool { return true }

// Config describes a controller session's dependencies.
type Config struct {
	Backend   Backend
	Media     Media
	Weather   weather.Client
	AI        ai.Client
	Store     *store.Store
	Nav       *nav.Machine
	Local     *settings.FileStore
	Notifier  Notifier
	Confirmer Confirmer
	IDs       garden.IDProvider
	Clock     func() time.Time
	Logger    *zap.Logger

	UserID      garden.UserID
	DisplayName string

	FeedPageSize    int
	SettingsSyncLag time.Duration
}

// Controller is one signed-in user's synchronization controller. It is the
// store's sole writer; intents are serialized so multi-step mutations never
// interleave.
type Controller struct {
	backend  Backend
	media    Media
	weather  weather.Client
	ai       ai.Client
	store    *store.Store
	nav      *nav.Machine
	local    *settings.FileStore
	notify   Notifier
	confirm  Confirmer
	ids      garden.IDProvider
	clock    func() time.Time
	logger   *zap.Logger
	pageSize int
	syncLag  time.Duration

	userID      garden.UserID
	displayName string

	opMu sync.Mutex

	settingsMu    sync.Mutex
	settingsTimer *time.Timer
	current       settings.Settings
}

// New constructs a Controller after validating its dependencies.
func New(cfg Config) (*Controller, error) {
	if cfg.Backend == nil {
		return nil, newError("controller.new", "missing_backend", errMissingBackend)
	}
	if cfg.Media == nil {
		return nil, newError("controller.new", "missing_media", errMissingMedia)
	}
	if cfg.Store == nil {
		return nil, newError("controller.new", "missing_store", errMissingStore)
	}
	if cfg.Nav == nil {
		return nil, newError("controller.new", "missing_nav", errMissingNav)
	}
	if cfg.Local == nil {
		return nil, newError("controller.new", "missing_settings_store", errMissingSettings)
	}
	if cfg.UserID.String() == "" {
		return nil, newError("controller.new", "missing_user", garden.ErrInvalidUserID)
	}

	notify := cfg.Notifier
	if notify == nil {
		notify = NopNotifier{}
	}
	confirm := cfg.Confirmer
	if confirm == nil {
		confirm = AlwaysConfirm{}
	}
	ids := cfg.IDs
	if ids == nil {
		ids = garden.NewUUIDProvider()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	pageSize := cfg.FeedPageSize
	if pageSize <= 0 {
		pageSize = defaultFeedPageSize
	}
	syncLag := cfg.SettingsSyncLag
	if syncLag <= 0 {
		syncLag = defaultSettingsSyncLag
	}

	return &Controller{
		backend:     cfg.Backend,
		media:       cfg.Media,
		weather:     cfg.Weather,
		ai:          cfg.AI,
		store:       cfg.Store,
		nav:         cfg.Nav,
		local:       cfg.Local,
		notify:      notify,
		confirm:     confirm,
		ids:         ids,
		clock:       clock,
		logger:      logger,
		pageSize:    pageSize,
		syncLag:     syncLag,
		userID:      cfg.UserID,
		displayName: cfg.DisplayName,
		current:     settings.Defaults(),
	}, nil
}

// Settings returns the active preference record.
func (c *Controller) Settings() settings.Settings {
	c.settingsMu.Lock()
	defer c.settingsMu.Unlock()
	return c.current
}

func (c *Controller) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
		zap.String("user_id", c.userID.String()),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	c.logger.Error("controller error", attrs...)
}

// fail applies the uniform failure policy and returns a coded error.
func (c *Controller) fail(operation, reason string, err error, toast string) error {
	c.logError(operation, reason, err)
	c.notify.Failure(toast)
	return newError(operation, reason, err)
}

func (c *Controller) newID(operation string) (string, error) {
	id, err := c.ids.NewID()
	if err != nil {
		return "", c.fail(operation, "id_generation_failed", err, "Something went wrong. Please try again.")
	}
	return id, nil
}

func (c *Controller) nowSeconds() int64 {
	return c.clock().UTC().Unix()
}

// refetchPlants replaces the plant collection from the backend.
func (c *Controller) refetchPlants(ctx context.Context, operation string) error {
	plants, err := c.backend.ListPlants(ctx, c.userID)
	if err != nil {
		return c.fail(operation, "refetch_failed", err, "Saved, but the list could not be refreshed.")
	}
	c.store.ReplacePlants(plants)
	return nil
}

// refetchLogs replaces one owner type's log entries. Missing-relation errors
// mean the feature is not provisioned yet and leave the store untouched.
func (c *Controller) refetchLogs(ctx context.Context, operation string, ownerType garden.LogOwnerType) error {
	entries, err := c.backend.ListLogs(ctx, c.userID, ownerType)
	if err != nil {
		if gateway.IsMissingRelation(err) {
			return nil
		}
		return c.fail(operation, "refetch_failed", err, "Saved, but the logs could not be refreshed.")
	}
	c.store.ReplaceLogs(ownerType, entries)
	return nil
}

func (c *Controller) refetchAreas(ctx context.Context, operation string) error {
	areas, err := c.backend.ListGardenAreas(ctx, c.userID)
	if err != nil {
		if gateway.IsMissingRelation(err) {
			return nil
		}
		return c.fail(operation, "refetch_failed", err, "Saved, but the garden could not be refreshed.")
	}
	c.store.ReplaceAreas(areas)
	return nil
}

func (c *Controller) refetchNotebook(ctx context.Context, operation string) error {
	entries, err := c.backend.ListNotebookEntries(ctx, c.userID)
	if err != nil {
		if gateway.IsMissingRelation(err) {
			return nil
		}
		return c.fail(operation, "refetch_failed", err, "Saved, but the notebook could not be refreshed.")
	}
	c.store.ReplaceNotebook(entries)
	return nil
}
