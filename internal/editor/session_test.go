package editor

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/veldt/labelsmith/internal/linestyle"
	"github.com/veldt/labelsmith/internal/store"
	"github.com/veldt/labelsmith/internal/store/memstore"
)

func newTestSession(t *testing.T) (*Session, *memstore.MemoryStore) {
	t.Helper()
	mem := memstore.NewMemoryStore()
	return NewSession(mem, nil), mem
}

func fieldSnapshot(pairs ...string) store.Snapshot {
	fields := make(map[string]string)
	for i := 0; i+1 < len(pairs); i += 2 {
		fields[pairs[i]] = pairs[i+1]
	}
	return store.Snapshot{Fields: fields}
}

func TestSaveGrowsHistory(t *testing.T) {
	ctx := context.Background()
	session, _ := newTestSession(t)

	for i := 1; i <= 5; i++ {
		if err := session.Save(ctx, fieldSnapshot("a", fmt.Sprintf("%d", i))); err != nil {
			t.Fatalf("save %d failed: %v", i, err)
		}
		wantDepth := i - 1
		if got := session.HistoryDepth(); got != wantDepth {
			t.Errorf("after %d saves HistoryDepth = %d, want %d", i, got, wantDepth)
		}
	}
}

// TestHistoryDepthBounded verifies the capacity property: with limit N,
// depth saturates at N-1 undo steps no matter how many distinct saves occur.
func TestHistoryDepthBounded(t *testing.T) {
	ctx := context.Background()
	mem := memstore.NewMemoryStore()
	session := NewSessionWithLimit(mem, 40, nil)

	for i := 0; i < 100; i++ {
		if err := session.Save(ctx, fieldSnapshot("a", fmt.Sprintf("%d", i))); err != nil {
			t.Fatalf("save %d failed: %v", i, err)
		}
		want := i
		if want > 39 {
			want = 39
		}
		if got := session.HistoryDepth(); got != want {
			t.Fatalf("after %d saves HistoryDepth = %d, want %d", i+1, got, want)
		}
	}

	// Oldest entries were evicted: the front of history is save 60.
	history := session.History()
	if len(history) != 40 {
		t.Fatalf("history len = %d, want 40", len(history))
	}
	if history[0].Fields["a"] != "60" {
		t.Errorf("oldest entry = %v, want a=60", history[0].Fields)
	}
}

func TestSaveIdenticalDoesNotGrowHistory(t *testing.T) {
	ctx := context.Background()
	session, _ := newTestSession(t)

	snap := fieldSnapshot("a", "1")
	if err := session.Save(ctx, snap); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := session.Save(ctx, snap); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if got := session.HistoryDepth(); got != 0 {
		t.Errorf("HistoryDepth = %d, want 0 after repeated identical save", got)
	}
	if len(session.History()) != 1 {
		t.Errorf("history len = %d, want 1", len(session.History()))
	}
}

func TestUndoAfterSingleSaveIsNoop(t *testing.T) {
	ctx := context.Background()
	session, _ := newTestSession(t)

	if err := session.Save(ctx, fieldSnapshot("a", "1")); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	_, ok, err := session.Undo(ctx)
	if err != nil {
		t.Fatalf("undo errored: %v", err)
	}
	if ok {
		t.Error("undo with a single entry should be a no-op")
	}
	if current := session.Current(); current == nil || current.Fields["a"] != "1" {
		t.Errorf("current changed by no-op undo: %+v", current)
	}
}

func TestSaveSaveSaveUndo(t *testing.T) {
	ctx := context.Background()
	session, _ := newTestSession(t)

	for _, v := range []string{"1", "2", "3"} {
		if err := session.Save(ctx, fieldSnapshot("a", v)); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	restored, ok, err := session.Undo(ctx)
	if err != nil {
		t.Fatalf("undo failed: %v", err)
	}
	if !ok {
		t.Fatal("undo reported nothing to undo")
	}
	if restored.Fields["a"] != "2" {
		t.Errorf("restored a = %q, want 2", restored.Fields["a"])
	}
	if current := session.Current(); current.Fields["a"] != "2" {
		t.Errorf("current a = %q, want 2", current.Fields["a"])
	}
	if got := session.HistoryDepth(); got != 1 {
		t.Errorf("HistoryDepth = %d, want 1", got)
	}
}

func TestRestoreParticipatesInHistory(t *testing.T) {
	ctx := context.Background()
	session, _ := newTestSession(t)

	if err := session.Save(ctx, fieldSnapshot("a", "1")); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := session.Restore(ctx, fieldSnapshot("a", "2")); err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if got := session.HistoryDepth(); got != 1 {
		t.Errorf("HistoryDepth = %d, want 1", got)
	}

	// Restoring the identical snapshot again is deduped like any save.
	if err := session.Restore(ctx, fieldSnapshot("a", "2")); err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if got := session.HistoryDepth(); got != 1 {
		t.Errorf("HistoryDepth after duplicate restore = %d, want 1", got)
	}
}

func TestLoadHydratesState(t *testing.T) {
	ctx := context.Background()
	mem := memstore.NewMemoryStore()

	first := NewSession(mem, nil)
	for _, v := range []string{"1", "2"} {
		if err := first.Save(ctx, fieldSnapshot("a", v)); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	second := NewSession(mem, nil)
	if err := second.Load(ctx); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if current := second.Current(); current == nil || current.Fields["a"] != "2" {
		t.Errorf("loaded current = %+v, want a=2", second.Current())
	}
	if got := second.HistoryDepth(); got != 1 {
		t.Errorf("loaded HistoryDepth = %d, want 1", got)
	}
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	session, mem := newTestSession(t)

	if err := session.Save(ctx, fieldSnapshot("a", "1")); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := session.Reset(ctx); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if session.Current() != nil {
		t.Error("current survived reset")
	}

	current, history, err := mem.Snapshots().LoadState(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if current != nil || len(history) != 0 {
		t.Errorf("persisted state survived reset: current=%+v history=%d", current, len(history))
	}
}

// failingStore wraps a working store with a snapshot backend that always
// fails, simulating an unavailable persistence medium.
type failingStore struct {
	*memstore.MemoryStore
}

type failingSnapshotStore struct{}

func (failingSnapshotStore) SaveState(context.Context, *store.Snapshot, []store.Snapshot) error {
	return errors.New("storage unavailable")
}

func (failingSnapshotStore) LoadState(context.Context) (*store.Snapshot, []store.Snapshot, error) {
	return nil, nil, errors.New("storage unavailable")
}

func (f failingStore) Snapshots() store.SnapshotStore {
	return failingSnapshotStore{}
}

// TestInMemoryStateAuthoritativeOnPersistFailure verifies that a failed
// persistence write surfaces an error but leaves the session fully working:
// the edit took effect and undo still operates on in-memory state.
func TestInMemoryStateAuthoritativeOnPersistFailure(t *testing.T) {
	ctx := context.Background()
	session := NewSession(failingStore{memstore.NewMemoryStore()}, nil)

	if err := session.Save(ctx, fieldSnapshot("a", "1")); err == nil {
		t.Fatal("save against failing store returned no error")
	}
	if err := session.Save(ctx, fieldSnapshot("a", "2")); err == nil {
		t.Fatal("save against failing store returned no error")
	}

	if current := session.Current(); current == nil || current.Fields["a"] != "2" {
		t.Errorf("current = %+v, want a=2", session.Current())
	}
	if got := session.HistoryDepth(); got != 1 {
		t.Errorf("HistoryDepth = %d, want 1", got)
	}

	restored, ok, err := session.Undo(ctx)
	if !ok {
		t.Fatal("undo reported nothing to undo")
	}
	if err == nil {
		t.Error("undo against failing store returned no persistence error")
	}
	if restored.Fields["a"] != "1" {
		t.Errorf("restored a = %q, want 1", restored.Fields["a"])
	}
}

func TestApplyEditResolvesLines(t *testing.T) {
	ctx := context.Background()
	session, _ := newTestSession(t)

	style := store.LineStyle{Font: "X", Size: 10, Align: store.AlignLeft, LineSpacing: store.SpacingSingle, Color: store.ColorBlack}

	snap, err := session.ApplyEdit(ctx, Edit{
		LabelSize: "62",
		PrintType: store.PrintText,
		PerLine:   true,
		RawText:   "A\nB\nC",
		Style:     style,
		Selected:  linestyle.NoSelection,
	})
	if err != nil {
		t.Fatalf("apply edit failed: %v", err)
	}
	if len(snap.PerLineStyles) != 3 {
		t.Fatalf("lines = %d, want 3", len(snap.PerLineStyles))
	}

	// Second edit with a selected line: only that slot picks up the new size.
	bigger := style
	bigger.Size = 40
	snap, err = session.ApplyEdit(ctx, Edit{
		LabelSize: "62",
		PrintType: store.PrintText,
		PerLine:   true,
		RawText:   "A\nB\nC",
		Style:     bigger,
		Selected:  1,
	})
	if err != nil {
		t.Fatalf("apply edit failed: %v", err)
	}
	if snap.PerLineStyles[1].Size != 40 {
		t.Errorf("selected slot size = %d, want 40", snap.PerLineStyles[1].Size)
	}
	if snap.PerLineStyles[0].Size != 10 || snap.PerLineStyles[2].Size != 10 {
		t.Errorf("unselected slots changed: %+v", snap.PerLineStyles)
	}
	if got := session.HistoryDepth(); got != 1 {
		t.Errorf("HistoryDepth = %d, want 1", got)
	}
}

func TestAttachAndResolveAsset(t *testing.T) {
	ctx := context.Background()
	session, _ := newTestSession(t)

	ref := session.AttachAsset(ctx, "logo.png", "image/png", "xyz")
	if ref == nil || ref.Hash == "" {
		t.Fatalf("attach returned invalid ref: %+v", ref)
	}

	snap := fieldSnapshot("a", "1")
	snap.Asset = ref
	if err := session.Save(ctx, snap); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	record, ok := session.ResolveAsset(ctx, *session.Current())
	if !ok {
		t.Fatal("asset not resolvable after attach")
	}
	if record.ContentBase64 != "xyz" {
		t.Errorf("content = %q, want xyz", record.ContentBase64)
	}

	// A snapshot without an asset resolves to nothing.
	if _, ok := session.ResolveAsset(ctx, fieldSnapshot()); ok {
		t.Error("resolved an asset for a snapshot without one")
	}
}

func TestHistoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	session, _ := newTestSession(t)

	if err := session.Save(ctx, fieldSnapshot("a", "1")); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	history := session.History()
	history[0].Fields["a"] = "tampered"

	fresh := session.History()
	if !reflect.DeepEqual(fresh[0].Fields, map[string]string{"a": "1"}) {
		t.Errorf("history entry mutated through returned copy: %v", fresh[0].Fields)
	}
}
