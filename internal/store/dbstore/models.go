package dbstore

import (
	"time"
)

// State row keys for the editing state table.
const (
	stateKeyCurrent = "current"
	stateKeyHistory = "history"
)

// StateModel holds one serialized piece of editing state (the current
// snapshot or the history array) as a JSON payload under a well-known key.
type StateModel struct {
	Key       string    `gorm:"primaryKey;size:32"`
	Payload   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for StateModel
func (StateModel) TableName() string {
	return "editing_state"
}

// AssetModel represents one content-addressed binary asset.
// The primary key is the content hash, so a second write of identical
// content lands on the existing row.
type AssetModel struct {
	Key           string    `gorm:"primaryKey;size:64"`
	MimeType      string    `gorm:"size:128;not null"`
	ContentBase64 string    `gorm:"type:text;not null"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
}

// TableName returns the table name for AssetModel
func (AssetModel) TableName() string {
	return "assets"
}

// TemplateModel represents a named label template.
type TemplateModel struct {
	Name      string    `gorm:"primaryKey;size:120"`
	LabelSize string    `gorm:"size:16"`
	Payload   string    `gorm:"type:text;not null"`
	Size      int64     `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for TemplateModel
func (TemplateModel) TableName() string {
	return "templates"
}
