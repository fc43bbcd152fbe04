package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/florahq/verdant/internal/ai"
	"github.com/florahq/verdant/internal/auth"
	"github.com/florahq/verdant/internal/controller"
	"github.com/florahq/verdant/internal/garden"
	"github.com/florahq/verdant/internal/nav"
	"github.com/florahq/verdant/internal/settings"
	"github.com/florahq/verdant/internal/store"
	"github.com/florahq/verdant/internal/weather"
)

var (
	errMissingBackend     = errors.New("backend dependency required")
	errMissingMedia       = errors.New("media store dependency required")
	errMissingSettingsDir = errors.New("settings directory required")
)

// SessionManagerConfig bundles the shared services every user session
// is built on top of.
type SessionManagerConfig struct {
	Backend         controller.Backend
	Media           controller.Media
	Weather         weather.Client
	AI              ai.Client
	SettingsDir     string
	Dispatcher      *NoticeDispatcher
	Logger          *zap.Logger
	Clock           func() time.Time
	FeedPageSize    int
	SettingsSyncLag time.Duration
}

// UserSession is one signed-in user's live state: their controller, the
// store it writes, and the navigation machine tracking their view.
type UserSession struct {
	Controller *controller.Controller
	Store      *store.Store
	Nav        *nav.Machine
	Confirm    *confirmGate
	Approved   bool
}

// confirmGate answers the controller's confirmation prompt with whatever
// the current request supplied. Arm and operation run under one lock so
// concurrent requests cannot leak an answer into each other's prompts.
type confirmGate struct {
	mu      sync.Mutex
	allowed bool
}

func (g *confirmGate) Confirm(string) bool {
	return g.allowed
}

// run executes op with the gate armed to the given answer.
func (g *confirmGate) run(allowed bool, op func() error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.allowed = allowed
	return op()
}

// SessionManager builds and caches one controller per signed-in user.
// Shared services (backend, media, weather, model) are reused across
// sessions; store, navigation and settings cache are per user.
type SessionManager struct {
	cfg    SessionManagerConfig
	logger *zap.Logger
	clock  func() time.Time

	mu     sync.Mutex
	active map[string]*UserSession
}

func NewSessionManager(cfg SessionManagerConfig) (*SessionManager, error) {
	if cfg.Backend == nil {
		return nil, errMissingBackend
	}
	if cfg.Media == nil {
		return nil, errMissingMedia
	}
	if cfg.SettingsDir == "" {
		return nil, errMissingSettingsDir
	}
	if err := os.MkdirAll(cfg.SettingsDir, 0o755); err != nil {
		return nil, fmt.Errorf("session manager: %w", err)
	}
	if cfg.Dispatcher == nil {
		cfg.Dispatcher = NewNoticeDispatcher()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &SessionManager{
		cfg:    cfg,
		logger: logger,
		clock:  clock,
		active: make(map[string]*UserSession),
	}, nil
}

// Acquire returns the user's live session, opening one on first use.
// Opening a session loads the remote collections and lands the user on
// their entry view; a second acquire for the same user is a lookup.
func (m *SessionManager) Acquire(ctx context.Context, identity auth.Session) (*UserSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if session, ok := m.active[identity.UserID]; ok {
		return session, nil
	}

	userID, err := garden.NewUserID(identity.UserID)
	if err != nil {
		return nil, err
	}
	local, err := settings.NewFileStore(filepath.Join(m.cfg.SettingsDir, identity.UserID+".json"))
	if err != nil {
		return nil, err
	}

	stateStore := store.New()
	machine := nav.NewMachine(stateStore)
	gate := &confirmGate{}
	ctrl, err := controller.New(controller.Config{
		Backend: m.cfg.Backend,
		Media:   m.cfg.Media,
		Weather: m.cfg.Weather,
		AI:      m.cfg.AI,
		Store:   stateStore,
		Nav:     machine,
		Local:   local,
		Notifier: &noticeNotifier{
			dispatcher: m.cfg.Dispatcher,
			userID:     identity.UserID,
			clock:      m.clock,
		},
		Confirmer:       gate,
		Clock:           m.clock,
		Logger:          m.logger,
		UserID:          userID,
		DisplayName:     identity.DisplayName,
		FeedPageSize:    m.cfg.FeedPageSize,
		SettingsSyncLag: m.cfg.SettingsSyncLag,
	})
	if err != nil {
		return nil, err
	}
	if err := ctrl.BeginSession(ctx, identity.Approved); err != nil {
		return nil, err
	}

	session := &UserSession{
		Controller: ctrl,
		Store:      stateStore,
		Nav:        machine,
		Confirm:    gate,
		Approved:   identity.Approved,
	}
	m.active[identity.UserID] = session
	return session, nil
}

// Lookup returns the user's session without opening one.
func (m *SessionManager) Lookup(userID string) (*UserSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.active[userID]
	return session, ok
}

// Release closes the user's session: pending settings writes are flushed,
// the store is cleared and the controller discarded.
func (m *SessionManager) Release(ctx context.Context, userID string) {
	m.mu.Lock()
	session, ok := m.active[userID]
	if ok {
		delete(m.active, userID)
	}
	m.mu.Unlock()
	if ok {
		session.Controller.EndSession(ctx)
	}
}
