package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testGoogleAudience = "verdant-web-client"

func encodeBigInt(value *big.Int) string {
	return base64.RawURLEncoding.EncodeToString(value.Bytes())
}

func mustGenerateKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	return key
}

// jwksServer serves a single-key JWKS document and counts fetches.
func jwksServer(t *testing.T, key *rsa.PrivateKey, keyID string, fetches *int32) *httptest.Server {
	t.Helper()
	document := map[string]any{
		"keys": []map[string]string{{
			"kty": "RSA",
			"kid": keyID,
			"use": "sig",
			"alg": "RS256",
			"n":   encodeBigInt(key.N),
			"e":   encodeBigInt(big.NewInt(int64(key.E))),
		}},
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fetches != nil {
			atomic.AddInt32(fetches, 1)
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(document); err != nil {
			t.Errorf("failed to encode jwks: %v", err)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func signIDToken(t *testing.T, key *rsa.PrivateKey, keyID string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = keyID
	signed, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func googleTokenClaims(now time.Time) jwt.MapClaims {
	return jwt.MapClaims{
		"iss":     issuerGoogle,
		"aud":     testGoogleAudience,
		"sub":     "google-user-42",
		"email":   "gardener@example.com",
		"name":    "Test Gardener",
		"picture": "https://example.com/avatar.png",
		"iat":     now.Unix(),
		"exp":     now.Add(time.Hour).Unix(),
	}
}

func newTestVerifier(t *testing.T, jwksURL string, clock func() time.Time) *GoogleVerifier {
	t.Helper()
	verifier, err := NewGoogleVerifier(GoogleVerifierConfig{
		Audience: testGoogleAudience,
		JWKSURL:  jwksURL,
		Clock:    clock,
	})
	if err != nil {
		t.Fatalf("failed to construct verifier: %v", err)
	}
	return verifier
}

func TestVerifyReturnsProfileClaims(t *testing.T) {
	key := mustGenerateKey(t)
	server := jwksServer(t, key, "key-1", nil)
	now := time.Now()
	verifier := newTestVerifier(t, server.URL, func() time.Time { return now })

	claims, err := verifier.Verify(context.Background(), signIDToken(t, key, "key-1", googleTokenClaims(now)))
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if claims.Subject != "google-user-42" {
		t.Fatalf("unexpected subject %q", claims.Subject)
	}
	if claims.Email != "gardener@example.com" {
		t.Fatalf("unexpected email %q", claims.Email)
	}
	if claims.DisplayName != "Test Gardener" {
		t.Fatalf("unexpected display name %q", claims.DisplayName)
	}
	if claims.AvatarURL != "https://example.com/avatar.png" {
		t.Fatalf("unexpected avatar %q", claims.AvatarURL)
	}
}

func TestVerifyAcceptsBareIssuerSpelling(t *testing.T) {
	key := mustGenerateKey(t)
	server := jwksServer(t, key, "key-1", nil)
	now := time.Now()
	verifier := newTestVerifier(t, server.URL, func() time.Time { return now })

	tokenClaims := googleTokenClaims(now)
	tokenClaims["iss"] = issuerGoogleAlt
	if _, err := verifier.Verify(context.Background(), signIDToken(t, key, "key-1", tokenClaims)); err != nil {
		t.Fatalf("bare issuer spelling must verify: %v", err)
	}
}

func TestVerifyRejectsForeignIssuer(t *testing.T) {
	key := mustGenerateKey(t)
	server := jwksServer(t, key, "key-1", nil)
	now := time.Now()
	verifier := newTestVerifier(t, server.URL, func() time.Time { return now })

	tokenClaims := googleTokenClaims(now)
	tokenClaims["iss"] = "https://evil.example.com"
	if _, err := verifier.Verify(context.Background(), signIDToken(t, key, "key-1", tokenClaims)); !errors.Is(err, errUntrustedIssuer) {
		t.Fatalf("expected untrusted issuer error, got %v", err)
	}
}

func TestVerifyRejectsWrongAudience(t *testing.T) {
	key := mustGenerateKey(t)
	server := jwksServer(t, key, "key-1", nil)
	now := time.Now()
	verifier := newTestVerifier(t, server.URL, func() time.Time { return now })

	tokenClaims := googleTokenClaims(now)
	tokenClaims["aud"] = "someone-else"
	if _, err := verifier.Verify(context.Background(), signIDToken(t, key, "key-1", tokenClaims)); err == nil {
		t.Fatalf("expected audience mismatch to fail")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	key := mustGenerateKey(t)
	server := jwksServer(t, key, "key-1", nil)
	now := time.Now()
	verifier := newTestVerifier(t, server.URL, func() time.Time { return now })

	tokenClaims := googleTokenClaims(now)
	tokenClaims["exp"] = now.Add(-time.Minute).Unix()
	if _, err := verifier.Verify(context.Background(), signIDToken(t, key, "key-1", tokenClaims)); err == nil {
		t.Fatalf("expected expired token to fail")
	}
}

func TestVerifyRejectsTokenSignedWithForeignKey(t *testing.T) {
	trusted := mustGenerateKey(t)
	foreign := mustGenerateKey(t)
	server := jwksServer(t, trusted, "key-1", nil)
	now := time.Now()
	verifier := newTestVerifier(t, server.URL, func() time.Time { return now })

	if _, err := verifier.Verify(context.Background(), signIDToken(t, foreign, "key-1", googleTokenClaims(now))); err == nil {
		t.Fatalf("expected signature mismatch to fail")
	}
}

func TestVerifyCachesJWKSAcrossCalls(t *testing.T) {
	key := mustGenerateKey(t)
	var fetches int32
	server := jwksServer(t, key, "key-1", &fetches)
	now := time.Now()
	verifier := newTestVerifier(t, server.URL, func() time.Time { return now })

	for i := 0; i < 3; i++ {
		if _, err := verifier.Verify(context.Background(), signIDToken(t, key, "key-1", googleTokenClaims(now))); err != nil {
			t.Fatalf("verify %d failed: %v", i, err)
		}
	}
	if got := atomic.LoadInt32(&fetches); got != 1 {
		t.Fatalf("expected a single jwks fetch, got %d", got)
	}
}

func TestVerifyRejectsUnknownKeyIdentifier(t *testing.T) {
	key := mustGenerateKey(t)
	server := jwksServer(t, key, "key-1", nil)
	now := time.Now()
	verifier := newTestVerifier(t, server.URL, func() time.Time { return now })

	if _, err := verifier.Verify(context.Background(), signIDToken(t, key, "key-2", googleTokenClaims(now))); err == nil {
		t.Fatalf("expected unknown key identifier to fail")
	}
}

func TestNewGoogleVerifierValidatesConfig(t *testing.T) {
	if _, err := NewGoogleVerifier(GoogleVerifierConfig{JWKSURL: "http://localhost"}); !errors.Is(err, ErrInvalidVerifierConfig) {
		t.Fatalf("expected config error for missing audience, got %v", err)
	}
	if _, err := NewGoogleVerifier(GoogleVerifierConfig{Audience: testGoogleAudience}); !errors.Is(err, ErrInvalidVerifierConfig) {
		t.Fatalf("expected config error for missing jwks url, got %v", err)
	}
}
