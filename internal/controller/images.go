package controller

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/florahq/verdant/internal/media"
)

// decodeImagePayload turns a view-layer image payload into raw bytes,
// tolerating data-URL prefixes from capture surfaces.
func decodeImagePayload(imageB64 string) ([]byte, error) {
	payload := strings.TrimSpace(imageB64)
	if idx := strings.Index(payload, ","); idx != -1 && strings.HasPrefix(payload, "data:") {
		payload = payload[idx+1:]
	}
	if payload == "" {
		return nil, fmt.Errorf("%w: empty image payload", ErrValidation)
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return raw, nil
}

// prepareUpload compresses an optional image payload and stores it, returning
// the stored URL. An empty payload is not an error; it yields an empty URL.
func (c *Controller) prepareUpload(operation, imageB64 string, quality media.Quality) (string, error) {
	if strings.TrimSpace(imageB64) == "" {
		return "", nil
	}
	raw, err := decodeImagePayload(imageB64)
	if err != nil {
		return "", c.fail(operation, "image_unreadable", err, "The photo could not be read.")
	}
	encoded, err := media.Compress(raw, quality)
	if err != nil {
		return "", c.fail(operation, "compress_failed", err, "The photo could not be processed.")
	}
	url, err := c.media.Upload(base64.StdEncoding.EncodeToString(encoded), c.userID)
	if err != nil {
		return "", c.fail(operation, "upload_failed", err, "The photo could not be uploaded.")
	}
	return url, nil
}

// prepareForModel compresses an image payload for AI submission and returns
// it re-encoded as base64. The limit-AI preference drops to the tighter
// profile to keep payloads small.
func (c *Controller) prepareForModel(operation, imageB64 string) (string, error) {
	raw, err := decodeImagePayload(imageB64)
	if err != nil {
		return "", c.fail(operation, "image_unreadable", err, "The photo could not be read.")
	}
	quality := media.QualityHigh
	if c.Settings().LimitAI {
		quality = media.QualityStandard
	}
	encoded, err := media.Compress(raw, quality)
	if err != nil {
		return "", c.fail(operation, "compress_failed", err, "The photo could not be processed.")
	}
	return base64.StdEncoding.EncodeToString(encoded), nil
}

// deleteIfManaged removes a stored object when the URL names one of ours.
// Unmanaged and empty URLs are left alone.
func (c *Controller) deleteIfManaged(operation, url string) {
	if url == "" || !c.media.IsManaged(url) {
		return
	}
	if err := c.media.Delete(url); err != nil {
		// Orphaned objects are acceptable; losing the row operation is not.
		c.logError(operation, "image_delete_failed", err)
	}
}
