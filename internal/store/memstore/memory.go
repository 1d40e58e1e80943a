// Package memstore provides an in-memory implementation of the store
// interfaces. It is used for unit tests and as the session fallback when no
// persistence medium is available; data exists only for the lifetime of the
// process.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/veldt/labelsmith/internal/store"
)

// MemoryStore is an in-memory implementation of store.Store.
// It uses maps for storage and is thread-safe via mutexes.
type MemoryStore struct {
	snapshots *memorySnapshotStore
	assets    *memoryAssetStore
	templates *memoryTemplateStore
}

// Compile-time interface checks.
var (
	_ store.Store         = (*MemoryStore)(nil)
	_ store.SnapshotStore = (*memorySnapshotStore)(nil)
	_ store.AssetStore    = (*memoryAssetStore)(nil)
	_ store.TemplateStore = (*memoryTemplateStore)(nil)
)

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		snapshots: &memorySnapshotStore{},
		assets:    &memoryAssetStore{records: make(map[string]store.AssetRecord)},
		templates: &memoryTemplateStore{templates: make(map[string]store.Template)},
	}
}

// Snapshots returns the snapshot state store.
func (m *MemoryStore) Snapshots() store.SnapshotStore {
	return m.snapshots
}

// Assets returns the asset store.
func (m *MemoryStore) Assets() store.AssetStore {
	return m.assets
}

// Templates returns the template store.
func (m *MemoryStore) Templates() store.TemplateStore {
	return m.templates
}

// Close releases resources (no-op for memory store).
func (m *MemoryStore) Close() error {
	return nil
}

// memorySnapshotStore implements store.SnapshotStore with copied-in state.
type memorySnapshotStore struct {
	mu      sync.RWMutex
	current *store.Snapshot
	history []store.Snapshot
}

// SaveState stores deep copies of the current snapshot and history.
func (m *memorySnapshotStore) SaveState(_ context.Context, current *store.Snapshot, history []store.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if current == nil {
		m.current = nil
	} else {
		c := current.Clone()
		m.current = &c
	}
	m.history = cloneHistory(history)
	return nil
}

// LoadState returns deep copies of the stored state.
func (m *memorySnapshotStore) LoadState(_ context.Context) (*store.Snapshot, []store.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var current *store.Snapshot
	if m.current != nil {
		c := m.current.Clone()
		current = &c
	}
	return current, cloneHistory(m.history), nil
}

func cloneHistory(history []store.Snapshot) []store.Snapshot {
	if history == nil {
		return nil
	}
	out := make([]store.Snapshot, len(history))
	for i, snap := range history {
		out[i] = snap.Clone()
	}
	return out
}

// memoryAssetStore implements store.AssetStore using a map keyed by hash.
type memoryAssetStore struct {
	mu      sync.RWMutex
	records map[string]store.AssetRecord
}

// PutAsset stores the record unless the key is already present.
func (m *memoryAssetStore) PutAsset(_ context.Context, key string, record store.AssetRecord) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.records[key]; exists {
		return false, nil
	}
	m.records[key] = record
	return true, nil
}

// GetAsset retrieves a record by key.
func (m *memoryAssetStore) GetAsset(_ context.Context, key string) (store.AssetRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, exists := m.records[key]
	if !exists {
		return store.AssetRecord{}, store.ErrNotFound
	}
	return record, nil
}

// AssetCount returns the number of stored assets.
func (m *memoryAssetStore) AssetCount(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records), nil
}

// ClearAssets removes all stored assets.
func (m *memoryAssetStore) ClearAssets(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = make(map[string]store.AssetRecord)
	return nil
}

// memoryTemplateStore implements store.TemplateStore using a map keyed by name.
type memoryTemplateStore struct {
	mu        sync.RWMutex
	templates map[string]store.Template
}

// SaveTemplate stores the template, replacing any existing one with the same name.
func (m *memoryTemplateStore) SaveTemplate(_ context.Context, tmpl store.Template) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if tmpl.UpdatedAt.IsZero() {
		tmpl.UpdatedAt = time.Now()
	}
	tmpl.Snapshot = tmpl.Snapshot.Clone()
	m.templates[tmpl.Name] = tmpl
	return nil
}

// GetTemplate retrieves a template by name.
func (m *memoryTemplateStore) GetTemplate(_ context.Context, name string) (store.Template, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tmpl, exists := m.templates[name]
	if !exists {
		return store.Template{}, store.ErrNotFound
	}
	tmpl.Snapshot = tmpl.Snapshot.Clone()
	return tmpl, nil
}

// ListTemplates returns metadata for all templates, sorted by name.
func (m *memoryTemplateStore) ListTemplates(_ context.Context) ([]store.TemplateInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]store.TemplateInfo, 0, len(m.templates))
	for _, tmpl := range m.templates {
		size := int64(0)
		if canonical, err := tmpl.Snapshot.Canonical(); err == nil {
			size = int64(len(canonical))
		}
		infos = append(infos, store.TemplateInfo{
			Name:      tmpl.Name,
			LabelSize: tmpl.Snapshot.LabelSize,
			Size:      size,
			UpdatedAt: tmpl.UpdatedAt,
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Name < infos[j].Name
	})
	return infos, nil
}

// DeleteTemplate removes a template by name.
func (m *memoryTemplateStore) DeleteTemplate(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.templates[name]; !exists {
		return store.ErrNotFound
	}
	delete(m.templates, name)
	return nil
}
