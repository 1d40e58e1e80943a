package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"

	"github.com/veldt/labelsmith/internal/editor"
	"github.com/veldt/labelsmith/internal/linestyle"
	"github.com/veldt/labelsmith/internal/store"
	"github.com/veldt/labelsmith/internal/store/memstore"
	"github.com/veldt/labelsmith/internal/template"
)

func main() {
	fmt.Println("labelsmith Session Demo")

	ctx := context.Background()
	mem := memstore.NewMemoryStore()
	session := editor.NewSession(mem, nil)

	style := store.LineStyle{
		Font:        "DejaVu Serif",
		Size:        70,
		Align:       store.AlignCenter,
		LineSpacing: store.SpacingSingle,
		Color:       store.ColorBlack,
	}

	// A series of edits: each one recomputes the per-line styles and joins
	// the history when it actually changes something.
	texts := []string{
		"Hello",
		"Hello\nWorld",
		"Hello\nWorld\n2026-08-31",
		"Hello\nWorld\n2026-08-31", // identical edit, history must not grow
	}

	fmt.Println("\nApplying edits:")
	for i, text := range texts {
		snap, err := session.ApplyEdit(ctx, editor.Edit{
			LabelSize:   "62",
			Orientation: "standard",
			PrintType:   store.PrintText,
			PerLine:     true,
			RawText:     text,
			Style:       style,
			Selected:    linestyle.NoSelection,
		})
		if err != nil {
			log.Fatalf("Failed to apply edit %d: %v", i, err)
		}
		fmt.Printf("%d. %d lines, %d undo steps available\n",
			i+1, len(snap.PerLineStyles), session.HistoryDepth())
	}

	// Undo back one step
	restored, ok, err := session.Undo(ctx)
	if err != nil {
		log.Fatalf("Failed to undo: %v", err)
	}
	fmt.Printf("\nUndo: ok=%v, restored %d lines, %d undo steps remaining\n",
		ok, len(restored.PerLineStyles), session.HistoryDepth())

	// Cache the same asset twice: one stored copy, same key
	content := base64.StdEncoding.EncodeToString([]byte("not actually a png"))
	key1, stored1 := session.Assets().Put(ctx, "image/png", content)
	key2, stored2 := session.Assets().Put(ctx, "image/png", content)
	count, _ := mem.Assets().AssetCount(ctx)
	fmt.Printf("\nAsset cache: first put stored=%v key=%s\n", stored1, key1)
	fmt.Printf("Asset cache: second put stored=%v key=%s (dedup)\n", stored2, key2)
	fmt.Printf("Asset cache: %d entries\n", count)

	// Save the current state as a named template and load it back
	repo := template.NewRepository(mem, nil)
	current := session.Current()
	if _, err := repo.Save(ctx, "demo-label", *current, nil); err != nil {
		log.Fatalf("Failed to save template: %v", err)
	}
	loaded, err := repo.Load(ctx, "demo-label")
	if err != nil {
		log.Fatalf("Failed to load template: %v", err)
	}
	fmt.Printf("\nTemplate round trip: %q with %d lines\n",
		loaded.Template.Name, len(loaded.Template.Snapshot.PerLineStyles))
}
