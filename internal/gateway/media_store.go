package gateway

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/florahq/verdant/internal/garden"
	"go.uber.org/zap"
)

// bucketMarker is the path segment identifying objects this application
// uploaded itself. Deletion is only ever attempted on URLs carrying it.
const bucketMarker = "plant-images"

var (
	errMissingStorageRoot = errors.New("storage root is required")
	errEmptyImagePayload  = errors.New("empty image payload")
)

// MediaStoreConfig describes the filesystem bucket backing image storage.
type MediaStoreConfig struct {
	// Root is the directory holding stored objects.
	Root string
	// BaseURL is the public prefix stored objects resolve under.
	BaseURL string
	IDs     garden.IDProvider
	Logger  *zap.Logger
}

// MediaStore stores encoded images on the filesystem and resolves their
// public URLs. It carries no business policy: whether a superseded object
// should be deleted is the caller's decision.
type MediaStore struct {
	root    string
	baseURL string
	ids     garden.IDProvider
	logger  *zap.Logger
}

// NewMediaStore constructs a MediaStore and ensures the root directory exists.
func NewMediaStore(cfg MediaStoreConfig) (*MediaStore, error) {
	if strings.TrimSpace(cfg.Root) == "" {
		return nil, newError("gateway.media.new", "missing_root", errMissingStorageRoot)
	}
	ids := cfg.IDs
	if ids == nil {
		ids = garden.NewUUIDProvider()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	if err := os.MkdirAll(cfg.Root, 0o755); err != nil {
		return nil, newError("gateway.media.new", "mkdir_failed", err)
	}
	return &MediaStore{
		root:    cfg.Root,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		ids:     ids,
		logger:  logger,
	}, nil
}

// Upload decodes the base64 payload, writes it under the owner's prefix and
// returns the object's public URL.
func (s *MediaStore) Upload(base64Image string, ownerID garden.UserID) (string, error) {
	payload := strings.TrimSpace(base64Image)
	// Tolerate data-URL prefixes from capture surfaces.
	if idx := strings.Index(payload, ","); idx != -1 && strings.HasPrefix(payload, "data:") {
		payload = payload[idx+1:]
	}
	if payload == "" {
		return "", newError("gateway.media.upload", "empty_payload", errEmptyImagePayload)
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", newError("gateway.media.upload", "decode_failed", err)
	}

	objectID, err := s.ids.NewID()
	if err != nil {
		return "", newError("gateway.media.upload", "id_generation_failed", err)
	}
	name := objectID + ".jpg"
	dir := filepath.Join(s.root, ownerID.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", newError("gateway.media.upload", "mkdir_failed", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), raw, 0o644); err != nil {
		s.logError("gateway.media.upload", "write_failed", err, zap.String("object", name))
		return "", newError("gateway.media.upload", "write_failed", err)
	}

	return fmt.Sprintf("%s/%s/%s", s.baseURL, ownerID.String(), name), nil
}

// IsManaged reports whether the URL names an object this store uploaded.
// The check is the bucket-marker substring test; unmanaged and placeholder
// URLs must never be deleted.
func (s *MediaStore) IsManaged(url string) bool {
	return strings.Contains(url, bucketMarker+"/")
}

// Delete removes a stored object. Unmanaged URLs are a no-op, as is a
// missing object.
func (s *MediaStore) Delete(url string) error {
	if !s.IsManaged(url) {
		return nil
	}
	idx := strings.Index(url, bucketMarker+"/")
	relative := url[idx+len(bucketMarker)+1:]
	if relative == "" {
		return nil
	}
	path := filepath.Join(s.root, filepath.FromSlash(relative))
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logError("gateway.media.delete", "remove_failed", err, zap.String("url", url))
		return newError("gateway.media.delete", "remove_failed", err)
	}
	return nil
}

// ResolveDisplayURL maps a stored reference to a displayable URL. Already
// public URLs and empty references pass through unchanged.
func (s *MediaStore) ResolveDisplayURL(storedRef string) string {
	ref := strings.TrimSpace(storedRef)
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") || strings.HasPrefix(ref, "data:") {
		return ref
	}
	return s.baseURL + "/" + strings.TrimLeft(ref, "/")
}

func (s *MediaStore) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
		zap.Error(err),
	}
	attrs = append(attrs, fields...)
	s.logger.Error("media store error", attrs...)
}
