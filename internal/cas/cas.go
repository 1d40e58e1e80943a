// Package cas implements the content-addressed cache for binary assets.
// Assets are keyed by a 64-bit FNV-1a hash of their base64 content, so
// identical uploads across many snapshots share one stored copy.
//
// The hash is non-cryptographic: a collision silently aliases two different
// assets to one stored blob.
package cas

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/veldt/labelsmith/internal/store"
)

// FNV-1a 64-bit parameters.
const (
	hashBasis uint64 = 0xcbf29ce484222325
	hashPrime uint64 = 0x100000001b3
)

// HashKey computes the storage key for a content string: the FNV-1a 64-bit
// hash of the raw bytes, encoded base 36.
func HashKey(content string) string {
	h := hashBasis
	for i := 0; i < len(content); i++ {
		h ^= uint64(content[i])
		h *= hashPrime
	}
	return strconv.FormatUint(h, 36)
}

// Cache stores and retrieves binary assets through a store.AssetStore.
// Backend failures degrade to no-ops with a log line: an asset failing to
// cache must never block the editing flow.
type Cache struct {
	assets store.AssetStore
	logger *slog.Logger
}

// New creates a cache over the given asset store.
// A nil logger falls back to slog.Default().
func New(assets store.AssetStore, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{assets: assets, logger: logger}
}

// Put stores the content under its hash key unless already present, and
// returns the key either way. stored is false on the dedup path and on
// backend failure; neither is an error to the caller.
func (c *Cache) Put(ctx context.Context, mimeType, contentBase64 string) (key string, stored bool) {
	key = HashKey(contentBase64)

	record := store.AssetRecord{
		MimeType:      mimeType,
		ContentBase64: contentBase64,
	}
	stored, err := c.assets.PutAsset(ctx, key, record)
	if err != nil {
		c.logger.Warn("asset cache: put degraded to no-op", "key", key, "error", err)
		return key, false
	}
	return key, stored
}

// Get retrieves the record for a key. ok is false when the key is absent or
// the backend is unavailable; a missing asset is an observable state, not an
// error.
func (c *Cache) Get(ctx context.Context, key string) (store.AssetRecord, bool) {
	record, err := c.assets.GetAsset(ctx, key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			c.logger.Warn("asset cache: get failed", "key", key, "error", err)
		}
		return store.AssetRecord{}, false
	}
	return record, true
}

// Decode returns the raw bytes of a stored record for use as a file-like
// payload.
func Decode(record store.AssetRecord) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(record.ContentBase64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode asset content: %w", err)
	}
	return data, nil
}
