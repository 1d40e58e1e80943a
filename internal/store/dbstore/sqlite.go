// Package dbstore provides the SQLite-backed implementation of the store
// interfaces using GORM.
package dbstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/veldt/labelsmith/internal/store"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SQLiteStore is a SQLite-backed implementation of store.Store
type SQLiteStore struct {
	db     *gorm.DB
	dbPath string
}

// Compile-time interface checks.
var (
	_ store.Store         = (*SQLiteStore)(nil)
	_ store.SnapshotStore = (*sqliteSnapshotStore)(nil)
	_ store.AssetStore    = (*sqliteAssetStore)(nil)
	_ store.TemplateStore = (*sqliteTemplateStore)(nil)
)

// NewSQLiteStore creates a new SQLite-backed store at the specified path
// and initializes the database schema.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&StateModel{}, &AssetModel{}, &TemplateModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// Snapshots returns the snapshot state store
func (s *SQLiteStore) Snapshots() store.SnapshotStore {
	return &sqliteSnapshotStore{db: s.db}
}

// Assets returns the asset store
func (s *SQLiteStore) Assets() store.AssetStore {
	return &sqliteAssetStore{db: s.db}
}

// Templates returns the template store
func (s *SQLiteStore) Templates() store.TemplateStore {
	return &sqliteTemplateStore{db: s.db}
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// sqliteSnapshotStore implements store.SnapshotStore over the editing_state table
type sqliteSnapshotStore struct {
	db *gorm.DB
}

// SaveState writes both state rows in one transaction so a concurrent
// LoadState never observes a current snapshot without its history.
func (s *sqliteSnapshotStore) SaveState(ctx context.Context, current *store.Snapshot, history []store.Snapshot) error {
	currentPayload := ""
	if current != nil {
		data, err := json.Marshal(current)
		if err != nil {
			return fmt.Errorf("failed to serialize current snapshot: %w", err)
		}
		currentPayload = string(data)
	}

	historyPayload, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to serialize history: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if current == nil {
			if err := tx.Delete(&StateModel{}, "key = ?", stateKeyCurrent).Error; err != nil {
				return err
			}
		} else if err := upsertState(tx, stateKeyCurrent, currentPayload); err != nil {
			return err
		}
		return upsertState(tx, stateKeyHistory, string(historyPayload))
	})
	if err != nil {
		return fmt.Errorf("failed to persist state: %w", err)
	}
	return nil
}

// upsertState writes one state row, updating it if it already exists.
func upsertState(tx *gorm.DB, key, payload string) error {
	model := &StateModel{Key: key, Payload: payload}
	return tx.Where("key = ?", key).
		Assign(map[string]interface{}{"payload": payload, "updated_at": tx.NowFunc()}).
		FirstOrCreate(model).Error
}

// LoadState reads the persisted state. Missing or undecodable rows are
// treated as absent so callers fall back to defaults.
func (s *sqliteSnapshotStore) LoadState(ctx context.Context) (*store.Snapshot, []store.Snapshot, error) {
	var current *store.Snapshot
	if payload, ok, err := s.loadPayload(ctx, stateKeyCurrent); err != nil {
		return nil, nil, err
	} else if ok {
		var snap store.Snapshot
		if err := json.Unmarshal([]byte(payload), &snap); err == nil {
			current = &snap
		}
	}

	var history []store.Snapshot
	if payload, ok, err := s.loadPayload(ctx, stateKeyHistory); err != nil {
		return nil, nil, err
	} else if ok {
		// A corrupt history row degrades to an empty history.
		_ = json.Unmarshal([]byte(payload), &history)
	}

	return current, history, nil
}

// loadPayload reads one state row; ok is false when the row does not exist.
func (s *sqliteSnapshotStore) loadPayload(ctx context.Context, key string) (string, bool, error) {
	var model StateModel
	if err := s.db.WithContext(ctx).First(&model, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to load state %q: %w", key, err)
	}
	return model.Payload, true, nil
}

// sqliteAssetStore implements store.AssetStore over the assets table
type sqliteAssetStore struct {
	db *gorm.DB
}

// PutAsset performs an insert-only write: an existing key is left untouched
// and reported as stored=false.
func (s *sqliteAssetStore) PutAsset(ctx context.Context, key string, record store.AssetRecord) (bool, error) {
	model := &AssetModel{
		Key:           key,
		MimeType:      record.MimeType,
		ContentBase64: record.ContentBase64,
	}

	result := s.db.WithContext(ctx).Where("key = ?", key).FirstOrCreate(model)
	if result.Error != nil {
		return false, fmt.Errorf("failed to store asset: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// GetAsset retrieves an asset record by content hash
func (s *sqliteAssetStore) GetAsset(ctx context.Context, key string) (store.AssetRecord, error) {
	var model AssetModel
	if err := s.db.WithContext(ctx).First(&model, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return store.AssetRecord{}, store.ErrNotFound
		}
		return store.AssetRecord{}, fmt.Errorf("failed to get asset: %w", err)
	}
	return store.AssetRecord{
		MimeType:      model.MimeType,
		ContentBase64: model.ContentBase64,
	}, nil
}

// AssetCount returns the total number of stored assets
func (s *sqliteAssetStore) AssetCount(ctx context.Context) (int, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&AssetModel{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count assets: %w", err)
	}
	return int(count), nil
}

// ClearAssets removes all stored assets
func (s *sqliteAssetStore) ClearAssets(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&AssetModel{}).Error; err != nil {
		return fmt.Errorf("failed to clear assets: %w", err)
	}
	return nil
}

// sqliteTemplateStore implements store.TemplateStore over the templates table
type sqliteTemplateStore struct {
	db *gorm.DB
}

// SaveTemplate stores a template (upsert by name)
func (s *sqliteTemplateStore) SaveTemplate(ctx context.Context, tmpl store.Template) error {
	payload, err := json.Marshal(tmpl.Snapshot)
	if err != nil {
		return fmt.Errorf("failed to serialize template: %w", err)
	}

	model := &TemplateModel{
		Name:      tmpl.Name,
		LabelSize: tmpl.Snapshot.LabelSize,
		Payload:   string(payload),
		Size:      int64(len(payload)),
	}

	result := s.db.WithContext(ctx).Where("name = ?", tmpl.Name).
		Assign(map[string]interface{}{
			"label_size": model.LabelSize,
			"payload":    model.Payload,
			"size":       model.Size,
			"updated_at": s.db.NowFunc(),
		}).
		FirstOrCreate(model)
	if result.Error != nil {
		return fmt.Errorf("failed to save template: %w", result.Error)
	}
	return nil
}

// GetTemplate retrieves a template by name
func (s *sqliteTemplateStore) GetTemplate(ctx context.Context, name string) (store.Template, error) {
	var model TemplateModel
	if err := s.db.WithContext(ctx).First(&model, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return store.Template{}, store.ErrNotFound
		}
		return store.Template{}, fmt.Errorf("failed to get template: %w", err)
	}

	var snap store.Snapshot
	if err := json.Unmarshal([]byte(model.Payload), &snap); err != nil {
		return store.Template{}, fmt.Errorf("failed to decode template %q: %w", name, err)
	}

	return store.Template{
		Name:      model.Name,
		Snapshot:  snap,
		UpdatedAt: model.UpdatedAt,
	}, nil
}

// ListTemplates returns metadata for all templates, sorted by name
func (s *sqliteTemplateStore) ListTemplates(ctx context.Context) ([]store.TemplateInfo, error) {
	var models []TemplateModel
	if err := s.db.WithContext(ctx).
		Select("name", "label_size", "size", "updated_at").
		Order("name ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}

	infos := make([]store.TemplateInfo, len(models))
	for i, model := range models {
		infos[i] = store.TemplateInfo{
			Name:      model.Name,
			LabelSize: model.LabelSize,
			Size:      model.Size,
			UpdatedAt: model.UpdatedAt,
		}
	}
	return infos, nil
}

// DeleteTemplate removes a template by name
func (s *sqliteTemplateStore) DeleteTemplate(ctx context.Context, name string) error {
	result := s.db.WithContext(ctx).Delete(&TemplateModel{}, "name = ?", name)
	if result.Error != nil {
		return fmt.Errorf("failed to delete template: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}
