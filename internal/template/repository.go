// Package template implements the named template repository: whole label
// configurations saved under a user-chosen name for later reuse. Attached
// images are moved into the content-addressed asset cache on save and
// re-embedded on load, so many templates sharing one image store it once.
package template

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/veldt/labelsmith/internal/cas"
	"github.com/veldt/labelsmith/internal/store"
)

// volatileFields are the live style control fields a template never stores:
// they are derived from the first line on load instead.
var volatileFields = []string{
	"font_size",
	"font_inverted",
	"font",
	"font_align",
	"font_checkbox",
	"font_color",
	"line_spacing",
}

// ImageUpload is an inline image payload attached to a template save.
type ImageUpload struct {
	Name          string
	MimeType      string
	ContentBase64 string
}

// Loaded is a template prepared for restoring into the editor: the snapshot
// with first-line convenience fields filled in, plus the embedded asset when
// it could be fetched.
type Loaded struct {
	Template store.Template

	// Asset is the re-embedded image content, nil when the template has no
	// asset or the asset is missing from the cache. A missing asset is an
	// observable degraded state, not a load failure.
	Asset *store.AssetRecord
}

// Repository manages named templates over a store.
type Repository struct {
	templates store.TemplateStore
	assets    *cas.Cache
	logger    *slog.Logger
}

// NewRepository creates a repository over the given store.
// A nil logger falls back to slog.Default().
func NewRepository(s store.Store, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		templates: s.Templates(),
		assets:    cas.New(s.Assets(), logger),
		logger:    logger,
	}
}

// Save stores the snapshot under name, replacing any existing template with
// that name. An inline image is moved into the asset cache and replaced by
// its hash reference; volatile style control fields are stripped.
func (r *Repository) Save(ctx context.Context, name string, snap store.Snapshot, image *ImageUpload) (store.Template, error) {
	if name == "" {
		return store.Template{}, fmt.Errorf("template name is required")
	}

	snap = snap.Clone()
	for _, field := range volatileFields {
		delete(snap.Fields, field)
	}

	if image != nil && image.ContentBase64 != "" {
		key, stored := r.assets.Put(ctx, image.MimeType, image.ContentBase64)
		snap.Asset = &store.AssetRef{
			Hash:     key,
			MimeType: image.MimeType,
			Name:     image.Name,
		}
		r.logger.Debug("template image cached", "template", name, "key", key, "stored", stored)
	}

	tmpl := store.Template{
		Name:      name,
		Snapshot:  snap,
		UpdatedAt: time.Now(),
	}
	if err := r.templates.SaveTemplate(ctx, tmpl); err != nil {
		return store.Template{}, fmt.Errorf("failed to save template %q: %w", name, err)
	}
	return tmpl, nil
}

// Load retrieves a template by name, fills the first-line convenience fields
// from its per-line styles, and re-embeds the referenced asset content.
func (r *Repository) Load(ctx context.Context, name string) (Loaded, error) {
	tmpl, err := r.templates.GetTemplate(ctx, name)
	if err != nil {
		return Loaded{}, err
	}

	fillFirstLineFields(&tmpl.Snapshot)

	loaded := Loaded{Template: tmpl}
	if tmpl.Snapshot.Asset != nil {
		if record, ok := r.assets.Get(ctx, tmpl.Snapshot.Asset.Hash); ok {
			loaded.Asset = &record
		} else {
			r.logger.Warn("template asset missing from cache",
				"template", name, "key", tmpl.Snapshot.Asset.Hash)
		}
	}
	return loaded, nil
}

// List returns metadata for all templates, sorted by name.
func (r *Repository) List(ctx context.Context) ([]store.TemplateInfo, error) {
	return r.templates.ListTemplates(ctx)
}

// Delete removes a template by name. The referenced asset stays in the
// cache: it is content-addressed and may be shared with other templates or
// history entries.
func (r *Repository) Delete(ctx context.Context, name string) error {
	return r.templates.DeleteTemplate(ctx, name)
}

// fillFirstLineFields mirrors the first line's style into the flat control
// fields so a restoring UI can seed its style controls directly.
func fillFirstLineFields(snap *store.Snapshot) {
	if len(snap.PerLineStyles) == 0 {
		return
	}
	first := snap.PerLineStyles[0]
	if snap.Fields == nil {
		snap.Fields = make(map[string]string)
	}
	snap.Fields["font"] = first.Font
	snap.Fields["font_size"] = strconv.Itoa(first.Size)
	snap.Fields["font_inverted"] = strconv.FormatBool(first.Inverted)
	snap.Fields["font_align"] = string(first.Align)
	snap.Fields["font_color"] = string(first.Color)
	snap.Fields["line_spacing"] = strconv.Itoa(first.LineSpacing)
}
