package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultSessionTTL = 24 * time.Hour

var (
	// ErrInvalidIssuerConfig indicates the issuer was constructed with
	// unusable configuration.
	ErrInvalidIssuerConfig = errors.New("auth: invalid session issuer config")

	// ErrSessionExpired marks a structurally valid session token past its
	// expiry. Callers log it quieter than a forged token.
	ErrSessionExpired = errors.New("auth: session token expired")

	errMissingSecret      = errors.New("signing secret required")
	errMissingIssuerName  = errors.New("issuer name required")
	errMissingAudienceOut = errors.New("audience required")
)

// SessionIssuerConfig bundles what the issuer needs.
type SessionIssuerConfig struct {
	Secret   string
	Issuer   string
	Audience string
	TTL      time.Duration
	Clock    func() time.Time
}

// Session is the verified content of a backend session token.
type Session struct {
	UserID      string
	DisplayName string
	Approved    bool
}

type sessionClaims struct {
	DisplayName string `json:"name,omitempty"`
	Approved    bool   `json:"approved"`
	jwt.RegisteredClaims
}

// SessionIssuer mints and validates the HS256 tokens the API hands out
// after a successful Google sign-in.
type SessionIssuer struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	clock    func() time.Time
}

// NewSessionIssuer constructs an issuer with validated configuration.
func NewSessionIssuer(cfg SessionIssuerConfig) (*SessionIssuer, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, fmt.Errorf("%w: %v", ErrInvalidIssuerConfig, errMissingSecret)
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		return nil, fmt.Errorf("%w: %v", ErrInvalidIssuerConfig, errMissingIssuerName)
	}
	audience := strings.TrimSpace(cfg.Audience)
	if audience == "" {
		return nil, fmt.Errorf("%w: %v", ErrInvalidIssuerConfig, errMissingAudienceOut)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	return &SessionIssuer{
		secret:   []byte(cfg.Secret),
		issuer:   issuer,
		audience: audience,
		ttl:      ttl,
		clock:    clock,
	}, nil
}

// Issue signs a session token for the user. The second return value is the
// token lifetime in seconds, handed to clients alongside the token.
func (s *SessionIssuer) Issue(session Session) (string, int64, error) {
	if strings.TrimSpace(session.UserID) == "" {
		return "", 0, errors.New("user id required")
	}

	now := s.clock()
	claims := sessionClaims{
		DisplayName: session.DisplayName,
		Approved:    session.Approved,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.UserID,
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", 0, err
	}
	return signed, int64(s.ttl.Seconds()), nil
}

// Validate parses a session token and returns its content.
func (s *SessionIssuer) Validate(rawToken string) (Session, error) {
	if strings.TrimSpace(rawToken) == "" {
		return Session{}, errMissingToken
	}

	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(
		rawToken,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			return s.secret, nil
		},
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.clock),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Session{}, ErrSessionExpired
		}
		return Session{}, err
	}
	if !token.Valid || claims.Subject == "" {
		return Session{}, errors.New("session token invalid")
	}

	return Session{
		UserID:      claims.Subject,
		DisplayName: claims.DisplayName,
		Approved:    claims.Approved,
	}, nil
}
