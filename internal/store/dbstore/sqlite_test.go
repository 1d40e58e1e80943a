package dbstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/veldt/labelsmith/internal/store"
)

func setupTestDB(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStateRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := setupTestDB(t)

	current := store.Snapshot{
		LabelSize:   "62",
		Orientation: "standard",
		PrintType:   store.PrintText,
		PerLineStyles: []store.LineStyle{
			{Font: "DejaVu Serif", Size: 70, Align: store.AlignCenter, LineSpacing: store.SpacingSingle, Color: store.ColorBlack, Text: "hello"},
		},
		Fields: map[string]string{"margin_top": "24"},
	}
	history := []store.Snapshot{
		{Fields: map[string]string{"a": "1"}},
		current.Clone(),
	}

	if err := s.Snapshots().SaveState(ctx, &current, history); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	gotCurrent, gotHistory, err := s.Snapshots().LoadState(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if gotCurrent == nil || !gotCurrent.Equal(current) {
		t.Errorf("loaded current does not match saved snapshot: %+v", gotCurrent)
	}
	if len(gotHistory) != 2 {
		t.Fatalf("history len = %d, want 2", len(gotHistory))
	}
	if !gotHistory[1].Equal(current) {
		t.Errorf("history[1] does not match: %+v", gotHistory[1])
	}
}

func TestStateOverwrite(t *testing.T) {
	ctx := context.Background()
	s := setupTestDB(t)

	first := store.Snapshot{Fields: map[string]string{"a": "1"}}
	second := store.Snapshot{Fields: map[string]string{"a": "2"}}

	if err := s.Snapshots().SaveState(ctx, &first, []store.Snapshot{first}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := s.Snapshots().SaveState(ctx, &second, []store.Snapshot{first, second}); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	current, history, err := s.Snapshots().LoadState(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if current == nil || current.Fields["a"] != "2" {
		t.Errorf("current = %+v, want a=2", current)
	}
	if len(history) != 2 {
		t.Errorf("history len = %d, want 2", len(history))
	}
}

func TestStateNilCurrentClears(t *testing.T) {
	ctx := context.Background()
	s := setupTestDB(t)

	snap := store.Snapshot{Fields: map[string]string{"a": "1"}}
	if err := s.Snapshots().SaveState(ctx, &snap, []store.Snapshot{snap}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := s.Snapshots().SaveState(ctx, nil, nil); err != nil {
		t.Fatalf("clear failed: %v", err)
	}

	current, history, err := s.Snapshots().LoadState(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if current != nil {
		t.Errorf("current survived clear: %+v", current)
	}
	if len(history) != 0 {
		t.Errorf("history survived clear: %d entries", len(history))
	}
}

func TestLoadStateEmptyDatabase(t *testing.T) {
	ctx := context.Background()
	s := setupTestDB(t)

	current, history, err := s.Snapshots().LoadState(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if current != nil || len(history) != 0 {
		t.Errorf("fresh database returned state: current=%+v history=%d", current, len(history))
	}
}

func TestPutAssetInsertOnly(t *testing.T) {
	ctx := context.Background()
	assets := setupTestDB(t).Assets()

	record := store.AssetRecord{MimeType: "image/png", ContentBase64: "xyz"}
	stored, err := assets.PutAsset(ctx, "abc123", record)
	if err != nil {
		t.Fatalf("first put failed: %v", err)
	}
	if !stored {
		t.Error("first put reported stored=false")
	}

	stored, err = assets.PutAsset(ctx, "abc123", store.AssetRecord{MimeType: "image/jpeg", ContentBase64: "other"})
	if err != nil {
		t.Fatalf("second put failed: %v", err)
	}
	if stored {
		t.Error("second put reported stored=true, want existing row untouched")
	}

	got, err := assets.GetAsset(ctx, "abc123")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.ContentBase64 != "xyz" || got.MimeType != "image/png" {
		t.Errorf("existing record overwritten: %+v", got)
	}
}

func TestGetAssetMissing(t *testing.T) {
	ctx := context.Background()
	assets := setupTestDB(t).Assets()

	_, err := assets.GetAsset(ctx, "absent")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestAssetCountAndClear(t *testing.T) {
	ctx := context.Background()
	assets := setupTestDB(t).Assets()

	for _, key := range []string{"k1", "k2", "k3"} {
		if _, err := assets.PutAsset(ctx, key, store.AssetRecord{ContentBase64: key}); err != nil {
			t.Fatalf("put %q failed: %v", key, err)
		}
	}

	count, err := assets.AssetCount(ctx)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}

	if err := assets.ClearAssets(ctx); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	count, err = assets.AssetCount(ctx)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("count after clear = %d, want 0", count)
	}
}

func TestTemplateUpsert(t *testing.T) {
	ctx := context.Background()
	templates := setupTestDB(t).Templates()

	tmpl := store.Template{
		Name:     "address",
		Snapshot: store.Snapshot{LabelSize: "62", Fields: map[string]string{"text": "v1"}},
	}
	if err := templates.SaveTemplate(ctx, tmpl); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	tmpl.Snapshot.LabelSize = "29"
	tmpl.Snapshot.Fields["text"] = "v2"
	if err := templates.SaveTemplate(ctx, tmpl); err != nil {
		t.Fatalf("resave failed: %v", err)
	}

	got, err := templates.GetTemplate(ctx, "address")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Snapshot.LabelSize != "29" || got.Snapshot.Fields["text"] != "v2" {
		t.Errorf("resave did not replace snapshot: %+v", got.Snapshot)
	}

	infos, err := templates.ListTemplates(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(infos) != 1 {
		t.Fatalf("list len = %d, want 1 after upsert", len(infos))
	}
	if infos[0].LabelSize != "29" || infos[0].Size == 0 {
		t.Errorf("list entry = %+v", infos[0])
	}
}

func TestTemplateListSorted(t *testing.T) {
	ctx := context.Background()
	templates := setupTestDB(t).Templates()

	for _, name := range []string{"zebra", "alpha", "middle"} {
		if err := templates.SaveTemplate(ctx, store.Template{
			Name:     name,
			Snapshot: store.Snapshot{LabelSize: "62"},
		}); err != nil {
			t.Fatalf("save %q failed: %v", name, err)
		}
	}

	infos, err := templates.ListTemplates(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	want := []string{"alpha", "middle", "zebra"}
	if len(infos) != len(want) {
		t.Fatalf("list len = %d, want %d", len(infos), len(want))
	}
	for i, name := range want {
		if infos[i].Name != name {
			t.Errorf("infos[%d].Name = %q, want %q", i, infos[i].Name, name)
		}
	}
}

func TestTemplateDelete(t *testing.T) {
	ctx := context.Background()
	templates := setupTestDB(t).Templates()

	if err := templates.SaveTemplate(ctx, store.Template{Name: "gone", Snapshot: store.Snapshot{}}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := templates.DeleteTemplate(ctx, "gone"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := templates.GetTemplate(ctx, "gone"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("get after delete err = %v, want ErrNotFound", err)
	}
	if err := templates.DeleteTemplate(ctx, "gone"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("repeat delete err = %v, want ErrNotFound", err)
	}
}

func TestPersistenceAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	snap := store.Snapshot{Fields: map[string]string{"a": "1"}}
	if err := s.Snapshots().SaveState(ctx, &snap, []store.Snapshot{snap}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if _, err := s.Assets().PutAsset(ctx, "k1", store.AssetRecord{ContentBase64: "xyz"}); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	reopened, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer reopened.Close()

	current, _, err := reopened.Snapshots().LoadState(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if current == nil || current.Fields["a"] != "1" {
		t.Errorf("state lost across reopen: %+v", current)
	}
	record, err := reopened.Assets().GetAsset(ctx, "k1")
	if err != nil || record.ContentBase64 != "xyz" {
		t.Errorf("asset lost across reopen: (%+v, %v)", record, err)
	}
}
