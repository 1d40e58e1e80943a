// Package editor owns the editing state: the current configuration snapshot
// and a bounded history of prior snapshots. All mutation goes through the
// Session; no other component touches the history.
package editor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/veldt/labelsmith/internal/cas"
	"github.com/veldt/labelsmith/internal/diff"
	"github.com/veldt/labelsmith/internal/linestyle"
	"github.com/veldt/labelsmith/internal/store"
)

const (
	// DefaultHistoryLimit is the history capacity: at most this many
	// snapshots are retained, oldest evicted first.
	DefaultHistoryLimit = 40
)

// Session manages the current snapshot and its undo history over a store.
// The in-memory state stays authoritative for the whole session: a failed
// persistence write is reported but does not roll back the edit, and the
// next successful save persists everything again.
//
// A Session serves one logical editing thread; the stores underneath are
// safe for concurrent use, the Session itself is not.
type Session struct {
	store        store.Store
	assets       *cas.Cache
	logger       *slog.Logger
	historyLimit int

	current *store.Snapshot
	history []store.Snapshot
}

// NewSession creates a session with the default history limit.
func NewSession(s store.Store, logger *slog.Logger) *Session {
	return NewSessionWithLimit(s, DefaultHistoryLimit, logger)
}

// NewSessionWithLimit creates a session with a custom history limit.
// A nil logger falls back to slog.Default().
func NewSessionWithLimit(s store.Store, historyLimit int, logger *slog.Logger) *Session {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		store:        s,
		assets:       cas.New(s.Assets(), logger),
		logger:       logger,
		historyLimit: historyLimit,
	}
}

// Load hydrates the session from persistence. Missing or undecodable state
// yields an empty session; only transport failures are returned.
func (s *Session) Load(ctx context.Context) error {
	current, history, err := s.store.Snapshots().LoadState(ctx)
	if err != nil {
		return fmt.Errorf("failed to load editing state: %w", err)
	}
	s.current = current
	s.history = history
	if len(s.history) > s.historyLimit {
		s.history = s.history[len(s.history)-s.historyLimit:]
	}
	return nil
}

// Save records a snapshot as the new current state. The snapshot joins the
// history only when its canonical form differs from the newest entry, so
// no-op edits never grow the history. The diff against the previous newest
// entry is logged either way.
//
// On persistence failure the in-memory state is already updated and the
// error is returned for the caller to surface; undo keeps working.
func (s *Session) Save(ctx context.Context, snap store.Snapshot) error {
	canonical, err := snap.Canonical()
	if err != nil {
		return err
	}

	appended := true
	var previous *store.Snapshot
	if len(s.history) > 0 {
		previous = &s.history[len(s.history)-1]
		prevCanonical, err := previous.Canonical()
		if err == nil && prevCanonical == canonical {
			appended = false
		}
	}

	s.logDiff("snapshot save", previous, snap, appended)

	if appended {
		s.history = append(s.history, snap.Clone())
		if len(s.history) > s.historyLimit {
			s.history = s.history[1:]
		}
	}
	clone := snap.Clone()
	s.current = &clone

	if err := s.persist(ctx); err != nil {
		return err
	}
	return nil
}

// Restore applies an externally supplied snapshot (a loaded template) as the
// new current state. It is a normal save and participates in the same
// history and dedup rules.
func (s *Session) Restore(ctx context.Context, snap store.Snapshot) error {
	return s.Save(ctx, snap)
}

// Undo discards the newest history entry and restores the previous one as
// current. With fewer than two entries there is nothing to roll back to and
// Undo reports ok=false without touching anything.
func (s *Session) Undo(ctx context.Context) (store.Snapshot, bool, error) {
	if len(s.history) < 2 {
		return store.Snapshot{}, false, nil
	}

	discarded := s.history[len(s.history)-1]
	s.history = s.history[:len(s.history)-1]
	restored := s.history[len(s.history)-1].Clone()
	s.current = &restored

	s.logDiff("snapshot undo", &discarded, restored, true)

	if err := s.persist(ctx); err != nil {
		return restored.Clone(), true, err
	}
	return restored.Clone(), true, nil
}

// HistoryDepth returns the number of undo steps available.
func (s *Session) HistoryDepth() int {
	if len(s.history) <= 1 {
		return 0
	}
	return len(s.history) - 1
}

// Current returns a copy of the current snapshot, or nil when the session
// has no state yet.
func (s *Session) Current() *store.Snapshot {
	if s.current == nil {
		return nil
	}
	clone := s.current.Clone()
	return &clone
}

// History returns a copy of the history, oldest first.
func (s *Session) History() []store.Snapshot {
	out := make([]store.Snapshot, len(s.history))
	for i, snap := range s.history {
		out[i] = snap.Clone()
	}
	return out
}

// Reset discards all in-memory and persisted editing state.
func (s *Session) Reset(ctx context.Context) error {
	s.current = nil
	s.history = nil
	return s.persist(ctx)
}

// AttachAsset caches the content and returns the reference a snapshot
// carries. Caching failures degrade inside the cache; the returned ref is
// valid either way since the key is derived from the content alone.
func (s *Session) AttachAsset(ctx context.Context, name, mimeType, contentBase64 string) *store.AssetRef {
	key, _ := s.assets.Put(ctx, mimeType, contentBase64)
	return &store.AssetRef{
		Hash:     key,
		MimeType: mimeType,
		Name:     name,
	}
}

// ResolveAsset fetches the asset a snapshot refers to. ok is false when the
// snapshot has no asset or the asset is missing from the cache; the latter
// is the documented degraded state after a partial restore.
func (s *Session) ResolveAsset(ctx context.Context, snap store.Snapshot) (store.AssetRecord, bool) {
	if snap.Asset == nil {
		return store.AssetRecord{}, false
	}
	return s.assets.Get(ctx, snap.Asset.Hash)
}

// Assets exposes the content-addressed cache.
func (s *Session) Assets() *cas.Cache {
	return s.assets
}

func (s *Session) persist(ctx context.Context) error {
	if err := s.store.Snapshots().SaveState(ctx, s.current, s.history); err != nil {
		s.logger.Warn("editing state not persisted, in-memory state remains authoritative", "error", err)
		return fmt.Errorf("failed to persist editing state: %w", err)
	}
	return nil
}

// logDiff emits the flattened three-way diff between two snapshots. Diffs
// are observability only and never influence control flow.
func (s *Session) logDiff(op string, before *store.Snapshot, after store.Snapshot, appended bool) {
	var beforeFlat map[string]string
	if before != nil {
		beforeFlat = diff.Flatten(*before)
	}
	result := diff.Diff(beforeFlat, diff.Flatten(after))
	s.logger.Debug(op,
		"added", len(result.Added),
		"changed", len(result.Changed),
		"removed", len(result.Removed),
		"appended", appended,
		"depth", s.HistoryDepth(),
	)
}

// Edit is one round of user input: the raw field values, the text, and the
// live style controls, as collected by the UI layer on an edit event.
type Edit struct {
	// Fields is the flat form-field mapping outside the typed keys.
	Fields map[string]string

	LabelSize   string
	Orientation string
	PrintType   store.PrintType

	// PerLine is the per-line styling toggle; ignored for shipping labels.
	PerLine bool

	// RawText is the current multi-line label text.
	RawText string

	// Style is the live style controls.
	Style store.LineStyle

	// Selected is the line index the style controls apply to, or
	// linestyle.NoSelection.
	Selected int

	// Asset is the attached asset reference, if any.
	Asset *store.AssetRef
}

// ApplyEdit recomputes the per-line styles for the edit, assembles the next
// snapshot, and saves it. The returned snapshot is the new current state
// even when persistence failed.
func (s *Session) ApplyEdit(ctx context.Context, edit Edit) (store.Snapshot, error) {
	var previous []store.LineStyle
	if s.current != nil {
		previous = s.current.PerLineStyles
	}

	snap := store.Snapshot{
		LabelSize:   edit.LabelSize,
		Orientation: edit.Orientation,
		PrintType:   edit.PrintType,
		Asset:       edit.Asset,
		Fields:      edit.Fields,
		PerLineStyles: linestyle.Resolve(linestyle.Input{
			Mode:     linestyle.ModeFor(edit.PrintType, edit.PerLine),
			RawText:  edit.RawText,
			Current:  edit.Style,
			Previous: previous,
			Selected: edit.Selected,
		}),
	}

	err := s.Save(ctx, snap)
	return snap, err
}
