package cli

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/veldt/labelsmith/internal/cas"
	"github.com/veldt/labelsmith/internal/config"
	"github.com/veldt/labelsmith/internal/editor"
	"github.com/veldt/labelsmith/internal/linestyle"
	"github.com/veldt/labelsmith/internal/store"
	"github.com/veldt/labelsmith/internal/store/dbstore"
	"github.com/veldt/labelsmith/internal/template"
	"github.com/veldt/labelsmith/internal/tui"
)

// CLI handles the command-line interface
type CLI struct {
	session   *editor.Session
	templates *template.Repository
	store     store.Store
	config    *config.Config
	configMgr *config.ConfigManager
}

// New creates a new CLI instance
func New() (*CLI, error) {
	return NewWithArgs(nil)
}

// NewWithArgs creates a new CLI instance with custom arguments for the
// database path (precedence: flag > config > default).
func NewWithArgs(args *Args) (*CLI, error) {
	configMgr, err := config.NewConfigManager()
	if err != nil {
		return nil, err
	}
	cfg, err := configMgr.Load()
	if err != nil {
		return nil, err
	}

	var dbPath string
	switch {
	case args != nil && args.DBPath != nil:
		dbPath = *args.DBPath
	case cfg.DBLocation != "":
		dbPath = cfg.DBLocation
	default:
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		dbPath = filepath.Join(homeDir, ".config", "labelsmith", "labelsmith.db")
	}

	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	sqliteStore, err := dbstore.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database store: %w", err)
	}

	logger := newLogger()
	session := editor.NewSessionWithLimit(sqliteStore, cfg.HistoryLimit, logger)
	if err := session.Load(context.Background()); err != nil {
		logger.Warn("starting with empty editing state", "error", err)
	}

	return &CLI{
		session:   session,
		templates: template.NewRepository(sqliteStore, logger),
		store:     sqliteStore,
		config:    cfg,
		configMgr: configMgr,
	}, nil
}

// newLogger builds the CLI logger; LABELSMITH_DEBUG=1 enables the per-save
// diff logging.
func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if os.Getenv("LABELSMITH_DEBUG") != "" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// Close releases the underlying store.
func (c *CLI) Close() error {
	return c.store.Close()
}

// Execute runs the CLI command based on parsed arguments
func (c *CLI) Execute(args *Args) error {
	if err := args.Validate(); err != nil {
		return err
	}

	ctx := context.Background()

	switch {
	case args.Edit != nil:
		return c.executeEdit(ctx, args.Edit)
	case args.Save != nil:
		return c.executeSave(ctx, args.Save)
	case args.Current != nil:
		return c.executeCurrent()
	case args.History != nil:
		return c.executeHistory(args.History)
	case args.Undo != nil:
		return c.executeUndo(ctx)
	case args.Asset != nil:
		return c.executeAsset(ctx, args.Asset)
	case args.Template != nil:
		return c.executeTemplate(ctx, args.Template)
	case args.Config != nil:
		return c.executeConfig(args.Config)
	case args.Clear != nil:
		return c.executeClear(ctx, args.Clear)
	default:
		return c.launchTUI()
	}
}

// executeEdit handles the 'labelsmith edit' command
func (c *CLI) executeEdit(ctx context.Context, cmd *EditCmd) error {
	style := c.config.DefaultStyle()
	if cmd.Font != "" {
		style.Font = cmd.Font
	}
	if cmd.Size > 0 {
		style.Size = cmd.Size
	}
	if cmd.Spacing > 0 {
		style.LineSpacing = cmd.Spacing
	}
	style.Align = store.Alignment(cmd.Align)
	style.Color = store.LineColor(cmd.Color)
	style.Inverted = cmd.Inverted
	style.Boxed = cmd.Boxed

	selected := linestyle.NoSelection
	if cmd.Line != nil {
		selected = *cmd.Line
	}

	labelSize := cmd.LabelSize
	if labelSize == "" {
		labelSize = c.config.DefaultLabelSize
	}
	orientation := cmd.Orientation
	if orientation == "" {
		orientation = c.config.DefaultOrientation
	}

	snap, err := c.session.ApplyEdit(ctx, editor.Edit{
		LabelSize:   labelSize,
		Orientation: orientation,
		PrintType:   store.PrintType(cmd.PrintType),
		PerLine:     cmd.PerLine,
		RawText:     strings.ReplaceAll(cmd.Text, `\n`, "\n"),
		Style:       style,
		Selected:    selected,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Saved snapshot: %d lines, %d undo steps available\n",
		len(snap.PerLineStyles), c.session.HistoryDepth())
	return nil
}

// executeSave handles the 'labelsmith save' command
func (c *CLI) executeSave(ctx context.Context, cmd *SaveCmd) error {
	var reader io.Reader = os.Stdin
	if cmd.File != nil {
		file, err := os.Open(*cmd.File)
		if err != nil {
			return fmt.Errorf("failed to open file: %w", err)
		}
		defer file.Close()
		reader = file
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("failed to read payload: %w", err)
	}

	var snap store.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("failed to decode snapshot payload: %w", err)
	}

	if err := c.session.Save(ctx, snap); err != nil {
		return err
	}
	fmt.Printf("Saved snapshot: %d undo steps available\n", c.session.HistoryDepth())
	return nil
}

// executeCurrent handles the 'labelsmith current' command
func (c *CLI) executeCurrent() error {
	current := c.session.Current()
	if current == nil {
		fmt.Println("No current snapshot")
		return nil
	}
	canonical, err := current.Canonical()
	if err != nil {
		return err
	}
	fmt.Println(canonical)
	return nil
}

// executeHistory handles the 'labelsmith history' command
func (c *CLI) executeHistory(cmd *HistoryCmd) error {
	if cmd.Interactive {
		return c.launchTUI()
	}

	history := c.session.History()
	if len(history) == 0 {
		fmt.Println("History is empty")
		return nil
	}

	for i, snap := range history {
		marker := " "
		if i == len(history)-1 {
			marker = "*"
		}
		size := 0
		if canonical, err := snap.Canonical(); err == nil {
			size = len(canonical)
		}
		fmt.Printf("%s %2d. %d lines, label %s, %d bytes\n",
			marker, i, len(snap.PerLineStyles), snap.LabelSize, size)
	}
	fmt.Printf("%d undo steps available\n", c.session.HistoryDepth())
	return nil
}

// executeUndo handles the 'labelsmith undo' command
func (c *CLI) executeUndo(ctx context.Context) error {
	restored, ok, err := c.session.Undo(ctx)
	if !ok {
		fmt.Println("Nothing to undo")
		return err
	}
	fmt.Printf("Restored snapshot: %d lines, %d undo steps remaining\n",
		len(restored.PerLineStyles), c.session.HistoryDepth())
	return err
}

// executeAsset handles the 'labelsmith asset' subcommands
func (c *CLI) executeAsset(ctx context.Context, cmd *AssetCmd) error {
	switch {
	case cmd.Put != nil:
		data, err := os.ReadFile(cmd.Put.File)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		content := base64.StdEncoding.EncodeToString(data)
		key, stored := c.session.Assets().Put(ctx, cmd.Put.Mime, content)
		if stored {
			fmt.Printf("Cached %s as %s\n", cmd.Put.File, key)
		} else {
			fmt.Printf("Already cached: %s\n", key)
		}
		return nil

	case cmd.Get != nil:
		record, ok := c.session.Assets().Get(ctx, cmd.Get.Key)
		if !ok {
			return fmt.Errorf("asset not found: %s", cmd.Get.Key)
		}
		data, err := cas.Decode(record)
		if err != nil {
			return err
		}
		if cmd.Get.File != nil {
			if err := os.WriteFile(*cmd.Get.File, data, 0644); err != nil {
				return fmt.Errorf("failed to write file: %w", err)
			}
			fmt.Printf("Wrote %d bytes (%s) to %s\n", len(data), record.MimeType, *cmd.Get.File)
			return nil
		}
		_, err = os.Stdout.Write(data)
		return err

	case cmd.Count != nil:
		count, err := c.store.Assets().AssetCount(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%d cached assets\n", count)
		return nil

	default:
		return fmt.Errorf("no asset subcommand specified")
	}
}

// executeTemplate handles the 'labelsmith template' subcommands
func (c *CLI) executeTemplate(ctx context.Context, cmd *TemplateCmd) error {
	switch {
	case cmd.Save != nil:
		current := c.session.Current()
		if current == nil {
			return fmt.Errorf("no current snapshot to save")
		}
		var image *template.ImageUpload
		if cmd.Save.Image != nil {
			data, err := os.ReadFile(*cmd.Save.Image)
			if err != nil {
				return fmt.Errorf("failed to read image: %w", err)
			}
			image = &template.ImageUpload{
				Name:          filepath.Base(*cmd.Save.Image),
				MimeType:      cmd.Save.Mime,
				ContentBase64: base64.StdEncoding.EncodeToString(data),
			}
		}
		tmpl, err := c.templates.Save(ctx, cmd.Save.Name, *current, image)
		if err != nil {
			return err
		}
		fmt.Printf("Saved template %q\n", tmpl.Name)
		return nil

	case cmd.Load != nil:
		loaded, err := c.templates.Load(ctx, cmd.Load.Name)
		if err != nil {
			return err
		}
		if err := c.session.Restore(ctx, loaded.Template.Snapshot); err != nil {
			return err
		}
		if loaded.Template.Snapshot.Asset != nil && loaded.Asset == nil {
			fmt.Printf("Restored template %q (asset missing from cache)\n", cmd.Load.Name)
		} else {
			fmt.Printf("Restored template %q\n", cmd.Load.Name)
		}
		return nil

	case cmd.List != nil:
		infos, err := c.templates.List(ctx)
		if err != nil {
			return err
		}
		if len(infos) == 0 {
			fmt.Println("No templates")
			return nil
		}
		for _, info := range infos {
			fmt.Printf("%-30s label %-6s %6d bytes  %s\n",
				info.Name, info.LabelSize, info.Size,
				info.UpdatedAt.Format("2006-01-02 15:04"))
		}
		return nil

	case cmd.Delete != nil:
		if err := c.templates.Delete(ctx, cmd.Delete.Name); err != nil {
			return err
		}
		fmt.Printf("Deleted template %q\n", cmd.Delete.Name)
		return nil

	default:
		return fmt.Errorf("no template subcommand specified")
	}
}

// executeConfig handles the 'labelsmith config' subcommands
func (c *CLI) executeConfig(cmd *ConfigCmd) error {
	switch {
	case cmd.Get != nil:
		value, err := c.configMgr.Get(cmd.Get.Key)
		if err != nil {
			return err
		}
		fmt.Println(value)
		return nil

	case cmd.Set != nil:
		if err := c.configMgr.Update(cmd.Set.Key, cmd.Set.Value); err != nil {
			return err
		}
		fmt.Printf("Set %s = %s\n", cmd.Set.Key, cmd.Set.Value)
		return nil

	case cmd.List != nil:
		values, err := c.configMgr.List()
		if err != nil {
			return err
		}
		for key, value := range values {
			fmt.Printf("%s = %s\n", key, value)
		}
		return nil

	default:
		return fmt.Errorf("no config subcommand specified")
	}
}

// executeClear handles the 'labelsmith clear' command
func (c *CLI) executeClear(ctx context.Context, cmd *ClearCmd) error {
	if err := c.session.Reset(ctx); err != nil {
		return err
	}
	fmt.Println("Cleared editing state")
	if cmd.Assets {
		if err := c.store.Assets().ClearAssets(ctx); err != nil {
			return err
		}
		fmt.Println("Cleared asset cache")
	}
	return nil
}

// launchTUI starts the interactive history browser
func (c *CLI) launchTUI() error {
	return tui.Run(c.session)
}
