package garden

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const maxIdentifierLength = 190

var (
	// ErrInvalidEntityID indicates that an entity identifier is empty or exceeds storage bounds.
	ErrInvalidEntityID = errors.New("garden: invalid entity id")
	// ErrInvalidUserID indicates that a user identifier is empty or exceeds storage bounds.
	ErrInvalidUserID = errors.New("garden: invalid user id")
)

// EntityID represents a validated identifier for any garden-domain entity.
type EntityID string

// NewEntityID validates raw input and returns an EntityID.
func NewEntityID(rawInput string) (EntityID, error) {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidEntityID)
	}
	if len(trimmed) > maxIdentifierLength {
		return "", fmt.Errorf("%w: exceeds %d characters", ErrInvalidEntityID, maxIdentifierLength)
	}
	return EntityID(trimmed), nil
}

// String returns the underlying string identifier.
func (id EntityID) String() string {
	return string(id)
}

// UserID represents a validated user identifier.
type UserID string

// NewUserID validates raw input and returns a UserID.
func NewUserID(rawInput string) (UserID, error) {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidUserID)
	}
	if len(trimmed) > maxIdentifierLength {
		return "", fmt.Errorf("%w: exceeds %d characters", ErrInvalidUserID, maxIdentifierLength)
	}
	return UserID(trimmed), nil
}

// String returns the underlying string identifier.
func (id UserID) String() string {
	return string(id)
}

// IDProvider issues identifiers for newly created entities.
type IDProvider interface {
	NewID() (string, error)
}

type uuidProvider struct{}

// NewUUIDProvider constructs an IDProvider that issues UUIDv7 identifiers.
func NewUUIDProvider() IDProvider {
	return &uuidProvider{}
}

func (p *uuidProvider) NewID() (string, error) {
	value, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return value.String(), nil
}
