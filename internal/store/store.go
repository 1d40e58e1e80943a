// Package store defines the storage interfaces for labelsmith's persistence
// layer. It provides abstractions for snapshot state (the current label
// configuration plus its bounded undo history), the content-addressed asset
// table, and the named template repository.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested asset or template does not exist.
var ErrNotFound = errors.New("not found")

// SnapshotStore persists the editing state: the current snapshot and the
// ordered undo history.
type SnapshotStore interface {
	// SaveState persists both the current snapshot and the full history.
	// The write is atomic from the caller's perspective: a subsequent
	// LoadState sees either the old state or the new one, never a mix.
	SaveState(ctx context.Context, current *Snapshot, history []Snapshot) error

	// LoadState retrieves the persisted state. A missing or undecodable
	// record yields (nil, nil, nil) so callers fall back to defaults.
	LoadState(ctx context.Context) (current *Snapshot, history []Snapshot, err error)
}

// AssetStore persists binary assets keyed by content hash.
// Writes are insert-only: an existing key is never overwritten.
type AssetStore interface {
	// PutAsset stores a record under key unless the key already exists.
	// Returns stored=false (and no error) when the key was already present.
	PutAsset(ctx context.Context, key string, record AssetRecord) (stored bool, err error)

	// GetAsset retrieves a record by key.
	// Returns ErrNotFound if the key does not exist.
	GetAsset(ctx context.Context, key string) (AssetRecord, error)

	// AssetCount returns the number of stored assets.
	AssetCount(ctx context.Context) (int, error)

	// ClearAssets removes all stored assets.
	ClearAssets(ctx context.Context) error
}

// TemplateStore persists named label templates.
type TemplateStore interface {
	// SaveTemplate stores a template, replacing any existing one with the
	// same name.
	SaveTemplate(ctx context.Context, tmpl Template) error

	// GetTemplate retrieves a template by name.
	// Returns ErrNotFound if no template with that name exists.
	GetTemplate(ctx context.Context, name string) (Template, error)

	// ListTemplates returns metadata for all templates, sorted by name.
	ListTemplates(ctx context.Context) ([]TemplateInfo, error)

	// DeleteTemplate removes a template by name.
	// Returns ErrNotFound if no template with that name exists.
	DeleteTemplate(ctx context.Context, name string) error
}

// Store combines the snapshot, asset, and template stores.
// Implementations provide access to all three and manage their lifecycle
// as a single unit.
type Store interface {
	// Snapshots returns the snapshot state store.
	Snapshots() SnapshotStore

	// Assets returns the content-addressed asset store.
	Assets() AssetStore

	// Templates returns the template repository store.
	Templates() TemplateStore

	// Close releases all resources.
	Close() error
}
