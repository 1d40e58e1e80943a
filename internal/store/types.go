package store

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Alignment is the horizontal alignment of a text line.
type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
)

// LineColor is the print color of a text line.
type LineColor string

const (
	ColorBlack LineColor = "black"
	ColorRed   LineColor = "red"
)

// PrintType selects what kind of label is being designed. It also determines
// how per-line styles are resolved (see internal/linestyle).
type PrintType string

const (
	PrintText       PrintType = "text"
	PrintQRCode     PrintType = "qrcode"
	PrintQRCodeText PrintType = "qrcode_text"
	PrintImage      PrintType = "image"
	PrintShipping   PrintType = "shipping"
)

// Line spacing percentages accepted by the designer.
const (
	SpacingSingle  = 100
	SpacingOneHalf = 150
	SpacingDouble  = 200
)

// LineStyle holds the font and layout settings for one text line (or, in
// shipping mode, one named section).
type LineStyle struct {
	Font        string    `json:"font"`
	Size        int       `json:"size"`
	Inverted    bool      `json:"inverted"`
	Boxed       bool      `json:"boxed"`
	Align       Alignment `json:"align"`
	LineSpacing int       `json:"line_spacing"`
	Color       LineColor `json:"color"`
	Text        string    `json:"text"`
}

// AssetRef points at a binary asset held in the content-addressed asset
// store. Snapshots carry the reference, never the payload, so identical
// uploads across many history entries share one stored copy.
type AssetRef struct {
	Hash     string `json:"image_ref"`
	MimeType string `json:"image_mime"`
	Name     string `json:"image_name"`
}

// AssetRecord is the stored form of a binary asset.
type AssetRecord struct {
	MimeType      string `json:"mimeType"`
	ContentBase64 string `json:"contentBase64"`
}

// Well-known snapshot field keys.
const (
	keyLabelSize     = "label_size"
	keyOrientation   = "orientation"
	keyPrintType     = "print_type"
	keyPerLineStyles = "perLineStyles"
	keyImageRef      = "image_ref"
	keyImageMime     = "image_mime"
	keyImageName     = "image_name"
)

// Snapshot is one complete, self-consistent set of editable configuration
// values at a point in time. It is a pure value: the only external reference
// is the asset hash, which is itself a value.
//
// Commonly used fields are typed; everything else the form produces lives in
// Fields, keyed by form field name, so unknown persisted keys survive a
// round trip.
type Snapshot struct {
	LabelSize     string
	Orientation   string
	PrintType     PrintType
	PerLineStyles []LineStyle
	Asset         *AssetRef
	Fields        map[string]string
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := s
	if s.PerLineStyles != nil {
		out.PerLineStyles = make([]LineStyle, len(s.PerLineStyles))
		copy(out.PerLineStyles, s.PerLineStyles)
	}
	if s.Asset != nil {
		ref := *s.Asset
		out.Asset = &ref
	}
	if s.Fields != nil {
		out.Fields = make(map[string]string, len(s.Fields))
		for k, v := range s.Fields {
			out.Fields[k] = v
		}
	}
	return out
}

// Canonical returns the canonical serialized form of the snapshot.
// Keys are emitted in sorted order, so two snapshots are equal exactly when
// their canonical forms are equal.
func (s Snapshot) Canonical() (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to serialize snapshot: %w", err)
	}
	return string(data), nil
}

// Equal reports whether two snapshots have the same canonical form.
func (s Snapshot) Equal(other Snapshot) bool {
	a, errA := s.Canonical()
	b, errB := other.Canonical()
	if errA != nil || errB != nil {
		return false
	}
	return a == b
}

// MarshalJSON emits the flat wire shape: every field key maps to a scalar,
// with the per-line styles serialized as a JSON string under one key and the
// asset reference expanded into image_ref/image_mime/image_name.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	flat := make(map[string]string, len(s.Fields)+8)
	for k, v := range s.Fields {
		flat[k] = v
	}
	if s.LabelSize != "" {
		flat[keyLabelSize] = s.LabelSize
	}
	if s.Orientation != "" {
		flat[keyOrientation] = s.Orientation
	}
	if s.PrintType != "" {
		flat[keyPrintType] = string(s.PrintType)
	}
	if s.PerLineStyles != nil {
		lines, err := json.Marshal(s.PerLineStyles)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize line styles: %w", err)
		}
		flat[keyPerLineStyles] = string(lines)
	}
	if s.Asset != nil {
		flat[keyImageRef] = s.Asset.Hash
		flat[keyImageMime] = s.Asset.MimeType
		flat[keyImageName] = s.Asset.Name
	}
	return json.Marshal(flat)
}

// UnmarshalJSON decodes the flat wire shape back into a Snapshot. Recovery is
// field-by-field: valid fields are applied, invalid ones are skipped, and
// unknown keys land in Fields. It never fails on malformed field values, only
// on input that is not a JSON object at all.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to decode snapshot: %w", err)
	}

	*s = Snapshot{}
	var ref AssetRef
	for key, value := range raw {
		switch key {
		case keyLabelSize:
			if v, ok := value.(string); ok {
				s.LabelSize = v
			}
		case keyOrientation:
			if v, ok := value.(string); ok {
				s.Orientation = v
			}
		case keyPrintType:
			if v, ok := value.(string); ok {
				s.PrintType = PrintType(v)
			}
		case keyPerLineStyles:
			s.PerLineStyles = decodeLineStyles(value)
		case keyImageRef:
			if v, ok := value.(string); ok {
				ref.Hash = v
			}
		case keyImageMime:
			if v, ok := value.(string); ok {
				ref.MimeType = v
			}
		case keyImageName:
			if v, ok := value.(string); ok {
				ref.Name = v
			}
		default:
			if v, ok := scalarString(value); ok {
				if s.Fields == nil {
					s.Fields = make(map[string]string)
				}
				s.Fields[key] = v
			}
		}
	}
	if ref.Hash != "" {
		s.Asset = &ref
	}
	return nil
}

// decodeLineStyles accepts either a JSON-encoded string (the canonical form)
// or a bare array (older persisted records).
func decodeLineStyles(value any) []LineStyle {
	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	default:
		enc, err := json.Marshal(v)
		if err != nil {
			return nil
		}
		data = enc
	}
	var lines []LineStyle
	if err := json.Unmarshal(data, &lines); err != nil {
		return nil
	}
	return lines
}

// scalarString renders a decoded JSON scalar as its form-field string value.
func scalarString(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		return "", false
	}
}

// Template is a named snapshot saved to the repository for later reuse.
type Template struct {
	// Name is the unique template name.
	Name string

	// Snapshot is the saved configuration. Its Asset, if any, refers into
	// the content-addressed asset store.
	Snapshot Snapshot

	// UpdatedAt is the time of the last save.
	UpdatedAt time.Time
}

// TemplateInfo is template metadata for listing, without the snapshot body.
type TemplateInfo struct {
	Name      string
	LabelSize string
	Size      int64
	UpdatedAt time.Time
}
