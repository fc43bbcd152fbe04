// Package auth verifies Google sign-in tokens and issues the backend session
// tokens the API accepts afterwards. Verification is offline against cached
// JWKS; the session token carries the approval flag the waitlist gate reads.
package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	defaultJWKSCacheTTL = 10 * time.Minute
	issuerGoogle        = "https://accounts.google.com"
	issuerGoogleAlt     = "accounts.google.com"
)

var (
	// ErrInvalidVerifierConfig indicates the verifier was constructed with
	// unusable configuration.
	ErrInvalidVerifierConfig = errors.New("auth: invalid google verifier config")

	errMissingToken         = errors.New("id token must not be empty")
	errMissingKeyIdentifier = errors.New("token missing key identifier")
	errKeyNotFound          = errors.New("signing key not found in JWKS")
	errUntrustedIssuer      = errors.New("token issuer not allowed")
	errMissingSubject       = errors.New("token missing subject claim")
	errMissingAudience      = errors.New("audience configuration required")
	errMissingJWKSURL       = errors.New("jwks url configuration required")
	errNoUsableKeys         = errors.New("jwks document contained no usable keys")
)

// GoogleVerifierConfig bundles what the verifier needs.
type GoogleVerifierConfig struct {
	Audience   string
	JWKSURL    string
	HTTPClient *http.Client
	CacheTTL   time.Duration
	Logger     *zap.Logger
	Clock      func() time.Time
}

// GoogleClaims carries the verified identity and profile fields downstream
// identity resolution consumes.
type GoogleClaims struct {
	Subject     string
	Email       string
	DisplayName string
	AvatarURL   string
	Expiry      time.Time
}

// idTokenClaims is the wire shape of a Google ID token payload.
type idTokenClaims struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
	jwt.RegisteredClaims
}

// GoogleVerifier verifies Google ID tokens offline using cached JWKS.
type GoogleVerifier struct {
	audience   string
	jwksURL    string
	httpClient *http.Client
	logger     *zap.Logger
	clock      func() time.Time
	keys       *keyCache
}

// NewGoogleVerifier constructs a verifier with validated configuration.
func NewGoogleVerifier(cfg GoogleVerifierConfig) (*GoogleVerifier, error) {
	audience := strings.TrimSpace(cfg.Audience)
	if audience == "" {
		return nil, fmt.Errorf("%w: %v", ErrInvalidVerifierConfig, errMissingAudience)
	}
	jwksURL := strings.TrimSpace(cfg.JWKSURL)
	if jwksURL == "" {
		return nil, fmt.Errorf("%w: %v", ErrInvalidVerifierConfig, errMissingJWKSURL)
	}

	cacheTTL := cfg.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = defaultJWKSCacheTTL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	return &GoogleVerifier{
		audience:   audience,
		jwksURL:    jwksURL,
		httpClient: httpClient,
		logger:     logger,
		clock:      clock,
		keys:       &keyCache{ttl: cacheTTL},
	}, nil
}

// Verify validates the ID token and returns the claims identity resolution
// needs. Only the two Google issuer spellings are trusted.
func (v *GoogleVerifier) Verify(ctx context.Context, rawToken string) (GoogleClaims, error) {
	if strings.TrimSpace(rawToken) == "" {
		return GoogleClaims{}, errMissingToken
	}

	claims := &idTokenClaims{}
	token, err := jwt.ParseWithClaims(
		rawToken,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			keyID, _ := token.Header["kid"].(string)
			if keyID == "" {
				return nil, errMissingKeyIdentifier
			}
			return v.lookupKey(ctx, keyID)
		},
		jwt.WithAudience(v.audience),
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithTimeFunc(v.clock),
	)
	if err != nil {
		return GoogleClaims{}, err
	}
	if !token.Valid {
		return GoogleClaims{}, errors.New("token signature invalid")
	}
	if claims.Issuer != issuerGoogle && claims.Issuer != issuerGoogleAlt {
		return GoogleClaims{}, errUntrustedIssuer
	}
	if claims.Subject == "" {
		return GoogleClaims{}, errMissingSubject
	}

	expiry := time.Time{}
	if claims.ExpiresAt != nil {
		expiry = claims.ExpiresAt.Time
	}
	return GoogleClaims{
		Subject:     claims.Subject,
		Email:       claims.Email,
		DisplayName: claims.Name,
		AvatarURL:   claims.Picture,
		Expiry:      expiry,
	}, nil
}

func (v *GoogleVerifier) lookupKey(ctx context.Context, keyID string) (*rsa.PublicKey, error) {
	now := v.clock()
	if key := v.keys.get(keyID, now); key != nil {
		return key, nil
	}
	if err := v.refreshKeys(ctx, now); err != nil {
		return nil, err
	}
	if key := v.keys.get(keyID, now); key != nil {
		return key, nil
	}
	return nil, errKeyNotFound
}

func (v *GoogleVerifier) refreshKeys(ctx context.Context, fetchedAt time.Time) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, v.jwksURL, nil)
	if err != nil {
		return err
	}
	response, err := v.httpClient.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("jwks request returned status %d", response.StatusCode)
	}

	var document struct {
		Keys []jwk `json:"keys"`
	}
	if err := json.NewDecoder(response.Body).Decode(&document); err != nil {
		return err
	}

	keyMap := make(map[string]*rsa.PublicKey, len(document.Keys))
	for _, key := range document.Keys {
		if key.KeyType != "RSA" || key.Use != "sig" {
			continue
		}
		publicKey, err := key.toRSAPublicKey()
		if err != nil {
			v.logger.Debug("skipping jwk", zap.String("kid", key.KeyID), zap.Error(err))
			continue
		}
		keyMap[key.KeyID] = publicKey
	}
	if len(keyMap) == 0 {
		return errNoUsableKeys
	}

	v.keys.store(keyMap, fetchedAt)
	return nil
}

type keyCache struct {
	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	expiresAt time.Time
	ttl       time.Duration
}

func (c *keyCache) get(keyID string, now time.Time) *rsa.PublicKey {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.keys == nil || now.After(c.expiresAt) {
		return nil
	}
	return c.keys[keyID]
}

func (c *keyCache) store(keys map[string]*rsa.PublicKey, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys = keys
	c.expiresAt = now.Add(c.ttl)
}

type jwk struct {
	KeyType string `json:"kty"`
	KeyID   string `json:"kid"`
	Use     string `json:"use"`
	Modulus string `json:"n"`
	Exp     string `json:"e"`
}

func (k jwk) toRSAPublicKey() (*rsa.PublicKey, error) {
	modulusBytes, err := base64.RawURLEncoding.DecodeString(k.Modulus)
	if err != nil {
		return nil, fmt.Errorf("invalid modulus encoding: %w", err)
	}
	exponentBytes, err := base64.RawURLEncoding.DecodeString(k.Exp)
	if err != nil {
		return nil, fmt.Errorf("invalid exponent encoding: %w", err)
	}
	if len(exponentBytes) == 0 {
		return nil, errors.New("missing exponent bytes")
	}

	exponent := 0
	for _, b := range exponentBytes {
		exponent = exponent<<8 + int(b)
	}
	if exponent == 0 {
		return nil, errors.New("invalid exponent value")
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(modulusBytes),
		E: exponent,
	}, nil
}
