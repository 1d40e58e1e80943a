package cli

import (
	"fmt"
)

// Args represents the top-level command structure
type Args struct {
	Edit     *EditCmd     `arg:"subcommand:edit" help:"Apply an edit to the label configuration"`
	Save     *SaveCmd     `arg:"subcommand:save" help:"Save a full snapshot payload"`
	Current  *CurrentCmd  `arg:"subcommand:current" help:"Print the current snapshot"`
	History  *HistoryCmd  `arg:"subcommand:history" help:"Show the undo history (or browse it interactively)"`
	Undo     *UndoCmd     `arg:"subcommand:undo" help:"Roll back to the previous snapshot"`
	Asset    *AssetCmd    `arg:"subcommand:asset" help:"Manage cached binary assets"`
	Template *TemplateCmd `arg:"subcommand:template" help:"Manage named templates"`
	Config   *ConfigCmd   `arg:"subcommand:config" help:"Manage configuration"`
	Clear    *ClearCmd    `arg:"subcommand:clear" help:"Discard editing state"`

	DBPath *string `arg:"--db,env:LABELSMITH_DB" help:"Path to the database file"`
}

// EditCmd applies one edit event: text plus live style controls.
type EditCmd struct {
	Text        string `arg:"positional" help:"Label text (lines separated by \\n)"`
	Font        string `arg:"--font" help:"Font family"`
	Size        int    `arg:"--size" help:"Font size"`
	Align       string `arg:"--align" default:"center" help:"Alignment: left, center, right"`
	Spacing     int    `arg:"--spacing" help:"Line spacing: 100, 150, 200"`
	Color       string `arg:"--color" default:"black" help:"Line color: black, red"`
	Inverted    bool   `arg:"--inverted" help:"Invert the line"`
	Boxed       bool   `arg:"--boxed" help:"Draw a box around the line"`
	PerLine     bool   `arg:"--per-line" help:"Style lines independently"`
	Line        *int   `arg:"-l,--line" help:"Selected line index the style applies to"`
	PrintType   string `arg:"--type" default:"text" help:"Print type: text, qrcode, qrcode_text, image, shipping"`
	LabelSize   string `arg:"--label-size" help:"Label size identifier"`
	Orientation string `arg:"--orientation" help:"Label orientation: standard, rotated"`
}

// SaveCmd persists a complete snapshot payload (flat JSON).
type SaveCmd struct {
	File *string `arg:"positional" help:"JSON file to read (stdin if omitted)"`
}

// CurrentCmd prints the current snapshot as flat JSON.
type CurrentCmd struct{}

// HistoryCmd shows the undo history.
type HistoryCmd struct {
	Interactive bool `arg:"-i,--interactive" help:"Browse the history in a TUI"`
}

// UndoCmd rolls back one step.
type UndoCmd struct{}

// AssetCmd groups asset cache operations.
type AssetCmd struct {
	Put   *AssetPutCmd   `arg:"subcommand:put" help:"Cache a file's content"`
	Get   *AssetGetCmd   `arg:"subcommand:get" help:"Retrieve cached content by key"`
	Count *AssetCountCmd `arg:"subcommand:count" help:"Print the number of cached assets"`
}

// AssetPutCmd caches a file and prints its content key.
type AssetPutCmd struct {
	File string `arg:"positional,required" help:"File to cache"`
	Mime string `arg:"--mime" default:"application/octet-stream" help:"MIME type of the content"`
}

// AssetGetCmd retrieves cached content by key.
type AssetGetCmd struct {
	Key  string  `arg:"positional,required" help:"Content key"`
	File *string `arg:"positional" help:"Output file (stdout if omitted)"`
}

// AssetCountCmd prints the asset table size.
type AssetCountCmd struct{}

// TemplateCmd groups template repository operations.
type TemplateCmd struct {
	Save   *TemplateSaveCmd   `arg:"subcommand:save" help:"Save the current snapshot as a named template"`
	Load   *TemplateLoadCmd   `arg:"subcommand:load" help:"Restore a template into the editor"`
	List   *TemplateListCmd   `arg:"subcommand:list" help:"List templates"`
	Delete *TemplateDeleteCmd `arg:"subcommand:delete" help:"Delete a template"`
}

// TemplateSaveCmd saves the current snapshot under a name.
type TemplateSaveCmd struct {
	Name  string  `arg:"positional,required" help:"Template name"`
	Image *string `arg:"--image" help:"Image file to attach"`
	Mime  string  `arg:"--mime" default:"image/png" help:"MIME type of the attached image"`
}

// TemplateLoadCmd restores a template as the current snapshot.
type TemplateLoadCmd struct {
	Name string `arg:"positional,required" help:"Template name"`
}

// TemplateListCmd lists templates.
type TemplateListCmd struct{}

// TemplateDeleteCmd deletes a template.
type TemplateDeleteCmd struct {
	Name string `arg:"positional,required" help:"Template name"`
}

// ConfigCmd groups configuration operations.
type ConfigCmd struct {
	Get  *ConfigGetCmd  `arg:"subcommand:get" help:"Print one configuration value"`
	Set  *ConfigSetCmd  `arg:"subcommand:set" help:"Set one configuration value"`
	List *ConfigListCmd `arg:"subcommand:list" help:"Print all configuration values"`
}

// ConfigGetCmd prints one configuration value.
type ConfigGetCmd struct {
	Key string `arg:"positional,required" help:"Configuration key"`
}

// ConfigSetCmd sets one configuration value.
type ConfigSetCmd struct {
	Key   string `arg:"positional,required" help:"Configuration key"`
	Value string `arg:"positional,required" help:"New value"`
}

// ConfigListCmd prints all configuration values.
type ConfigListCmd struct{}

// ClearCmd discards editing state.
type ClearCmd struct {
	Assets bool `arg:"--assets" help:"Also clear the asset cache"`
}

// Description returns the program description
func (Args) Description() string {
	return "labelsmith - label configuration versioning with bounded undo history and content-addressed asset cache"
}

// Version returns the program version
func (Args) Version() string {
	return "labelsmith 0.1.0"
}

// Epilogue returns additional help text
func (Args) Epilogue() string {
	return `Examples:
  # Editing
  labelsmith edit "Hello\nWorld" --font "DejaVu Serif" --size 70
  labelsmith edit "Hello\nWorld" --per-line --line 1 --size 40
  echo '{"label_size":"62","margin_top":"24"}' | labelsmith save

  # History
  labelsmith history                 # List undo history
  labelsmith history -i              # Interactive browser
  labelsmith undo                    # Roll back one step

  # Assets and templates
  labelsmith asset put logo.png --mime image/png
  labelsmith template save shelf-label --image logo.png
  labelsmith template load shelf-label

For more information, visit: https://github.com/veldt/labelsmith`
}

// Validate performs validation on the parsed arguments
func (args *Args) Validate() error {
	if args.Edit != nil {
		return args.Edit.Validate()
	}
	return nil
}

// Validate validates edit command arguments
func (e *EditCmd) Validate() error {
	switch e.Align {
	case "left", "center", "right":
	default:
		return fmt.Errorf("invalid alignment: %s (must be left, center, or right)", e.Align)
	}
	switch e.Spacing {
	case 0, 100, 150, 200:
	default:
		return fmt.Errorf("invalid line spacing: %d (must be 100, 150, or 200)", e.Spacing)
	}
	switch e.Color {
	case "black", "red":
	default:
		return fmt.Errorf("invalid color: %s (must be black or red)", e.Color)
	}
	switch e.PrintType {
	case "text", "qrcode", "qrcode_text", "image", "shipping":
	default:
		return fmt.Errorf("invalid print type: %s", e.PrintType)
	}
	if e.Line != nil && *e.Line < 0 {
		return fmt.Errorf("line index must be non-negative")
	}
	return nil
}
