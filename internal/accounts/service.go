package accounts

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"
)

// ErrInvalidIdentity indicates the claims did not contain a usable identifier.
var ErrInvalidIdentity = errors.New("accounts: invalid identity")

// Claims carries the verified login fields the service needs to resolve a user.
type Claims struct {
	Subject     string
	Email       string
	DisplayName string
	AvatarURL   string
}

// Resolution is the outcome of resolving a login: the canonical user id and
// whether the account has cleared the waitlist.
type Resolution struct {
	UserID      string
	DisplayName string
	Approved    bool
}

// ServiceConfig describes the dependencies required for identity resolution.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	// AutoApprove skips the waitlist for every new identity. Used by
	// deployments that do not gate access.
	AutoApprove bool
}

// Service manages canonical user identifiers and waitlist approval state.
type Service struct {
	db          *gorm.DB
	now         func() time.Time
	autoApprove bool
	cache       sync.Map
}

// NewService constructs the identity service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("accounts: database connection required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		db:          cfg.Database,
		now:         clock,
		autoApprove: cfg.AutoApprove,
	}, nil
}

// Resolve returns the canonical user id and approval state for verified login
// claims, creating the identity mapping on first sight.
func (s *Service) Resolve(provider string, claims Claims) (Resolution, error) {
	provider = normalize(provider)
	if provider == "" {
		provider = "google"
	}
	subject := normalize(claims.Subject)
	if subject == "" {
		subject = normalize(claims.Email)
	}
	if subject == "" {
		return Resolution{}, ErrInvalidIdentity
	}

	cacheKey := provider + ":" + subject
	if cached, ok := s.cache.Load(cacheKey); ok {
		if resolution, ok := cached.(Resolution); ok {
			return resolution, nil
		}
	}

	var identity Identity
	err := s.db.
		Where("provider = ? AND subject = ?", provider, subject).
		First(&identity).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		identity = Identity{
			Provider:    provider,
			Subject:     subject,
			UserID:      subject,
			Email:       normalize(claims.Email),
			DisplayName: normalize(claims.DisplayName),
			AvatarURL:   normalize(claims.AvatarURL),
			Approved:    s.autoApprove,
			LastSeenAt:  s.now(),
		}
		if err := s.db.Create(&identity).Error; err != nil {
			return Resolution{}, err
		}
	} else if err != nil {
		return Resolution{}, err
	} else {
		updates := map[string]interface{}{"last_seen_at": s.now()}
		if email := normalize(claims.Email); email != "" && email != identity.Email {
			updates["user_email"] = email
		}
		if display := normalize(claims.DisplayName); display != "" && display != identity.DisplayName {
			updates["user_display_name"] = display
			identity.DisplayName = display
		}
		if avatar := normalize(claims.AvatarURL); avatar != "" && avatar != identity.AvatarURL {
			updates["user_avatar_url"] = avatar
		}
		_ = s.db.Model(&Identity{}).
			Where("provider = ? AND subject = ?", provider, subject).
			Updates(updates).
			Error
	}

	resolution := Resolution{
		UserID:      identity.UserID,
		DisplayName: identity.DisplayName,
		Approved:    identity.Approved,
	}
	s.cache.Store(cacheKey, resolution)
	return resolution, nil
}

// Approve clears the waitlist flag for every identity mapped to the user id.
func (s *Service) Approve(userID string) error {
	userID = normalize(userID)
	if userID == "" {
		return ErrInvalidIdentity
	}
	if err := s.db.Model(&Identity{}).
		Where("user_id = ?", userID).
		Update("approved", true).
		Error; err != nil {
		return err
	}
	// Drop any cached resolutions so the new flag is observed.
	s.cache.Range(func(key, value any) bool {
		if resolution, ok := value.(Resolution); ok && resolution.UserID == userID {
			s.cache.Delete(key)
		}
		return true
	})
	return nil
}
