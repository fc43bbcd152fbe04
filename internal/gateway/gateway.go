// Package gateway holds the stateless request/response wrappers around the
// persistent store. Every method maps one (entity, operation) pair onto the
// database, returns the persisted representation or a coded failure, and
// never embeds business policy: no retries, no cascades, no notifications.
package gateway

import (
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	errMissingDatabase = errors.New("database handle is required")
	noOpLogger         = zap.NewNop()
)

// Config describes the gateway's dependencies.
type Config struct {
	Database *gorm.DB
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Gateway exposes per-entity CRUD against the backing store.
type Gateway struct {
	db     *gorm.DB
	clock  func() time.Time
	logger *zap.Logger
}

// New constructs a Gateway after validating its dependencies.
func New(cfg Config) (*Gateway, error) {
	if cfg.Database == nil {
		return nil, newError("gateway.new", "missing_database", errMissingDatabase)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Gateway{db: cfg.Database, clock: clock, logger: logger}, nil
}

func (g *Gateway) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	g.logger.Error("gateway error", attrs...)
}

func (g *Gateway) nowSeconds() int64 {
	return g.clock().UTC().Unix()
}
