// Package linestyle derives the ordered per-line style sequence from raw
// multi-line text and the live style controls. Three mutually exclusive modes
// govern how line records relate to each other; the label's print type picks
// the mode.
package linestyle

import (
	"strings"

	"github.com/veldt/labelsmith/internal/store"
)

// Mode is the per-line style policy.
type Mode int

const (
	// ModeSynced gives every line an identical copy of the current style.
	ModeSynced Mode = iota

	// ModeIndependent keeps a stored style per line; new lines inherit
	// from their predecessor, removed lines truncate from the end.
	ModeIndependent

	// ModeFixedSection pins the sequence to a fixed set of named sections
	// regardless of the text (shipping labels: sender and recipient).
	ModeFixedSection
)

// SectionNames are the fixed slot labels used in ModeFixedSection, in order.
var SectionNames = []string{"Sender", "Recipient"}

// ModeFor maps a print type and the per-line toggle to a resolution mode.
// Shipping labels always use fixed sections; every other print type is
// independent when the per-line toggle is on and synced otherwise.
func ModeFor(printType store.PrintType, perLine bool) Mode {
	if printType == store.PrintShipping {
		return ModeFixedSection
	}
	if perLine {
		return ModeIndependent
	}
	return ModeSynced
}

// NoSelection marks the absence of a selected line.
const NoSelection = -1

// Input carries everything Resolve needs.
type Input struct {
	// Mode is the resolution policy.
	Mode Mode

	// RawText is the label text; lines are split on '\n'.
	RawText string

	// Current is the live style controls; its Text field is ignored.
	Current store.LineStyle

	// Previous is the prior resolved sequence, or nil on first resolve.
	Previous []store.LineStyle

	// Selected is the index of the line the style controls apply to,
	// or NoSelection. The selected line's record is fully replaced by
	// Current before any length adjustment runs.
	Selected int
}

// Resolve produces the per-line style sequence for the input. The result is
// freshly allocated; Previous is never mutated.
func Resolve(in Input) []store.LineStyle {
	switch in.Mode {
	case ModeFixedSection:
		return resolveFixed(in)
	case ModeIndependent:
		return resolveIndependent(in)
	default:
		return resolveSynced(in)
	}
}

// DeriveNewSlot is the inheritance rule for a slot created by line growth:
// the new slot copies the immediately preceding slot's style, except when the
// edit happened on the new line itself or no predecessor exists, in which
// case the live style controls win.
func DeriveNewSlot(index int, previous *store.LineStyle, current store.LineStyle, wasEdited bool) store.LineStyle {
	if wasEdited || previous == nil {
		return current
	}
	return *previous
}

func resolveSynced(in Input) []store.LineStyle {
	lines := splitLines(in.RawText)
	out := make([]store.LineStyle, len(lines))
	for i, text := range lines {
		out[i] = in.Current
		out[i].Text = text
	}
	return out
}

func resolveIndependent(in Input) []store.LineStyle {
	prior := applySelection(in.Previous, in.Selected, in.Current)
	lines := splitLines(in.RawText)

	out := make([]store.LineStyle, 0, len(lines))
	for i := range lines {
		if i < len(prior) {
			out = append(out, prior[i])
			continue
		}
		var previous *store.LineStyle
		if len(out) > 0 {
			previous = &out[len(out)-1]
		}
		out = append(out, DeriveNewSlot(i, previous, in.Current, in.Selected == i))
	}
	for i, text := range lines {
		out[i].Text = text
	}
	return out
}

func resolveFixed(in Input) []store.LineStyle {
	prior := applySelection(in.Previous, in.Selected, in.Current)

	// Slots beyond the fixed count are discarded; missing slots backfill
	// from the last existing slot, or the current style when none exists.
	out := make([]store.LineStyle, len(SectionNames))
	for i := range SectionNames {
		switch {
		case i < len(prior):
			out[i] = prior[i]
		case i > 0:
			out[i] = out[i-1]
		default:
			out[i] = in.Current
		}
		out[i].Text = SectionNames[i]
	}
	return out
}

// applySelection copies the prior sequence with the selected slot replaced by
// the live style controls, preserving that slot's text.
func applySelection(previous []store.LineStyle, selected int, current store.LineStyle) []store.LineStyle {
	out := make([]store.LineStyle, len(previous))
	copy(out, previous)
	if selected >= 0 && selected < len(out) {
		text := out[selected].Text
		out[selected] = current
		out[selected].Text = text
	}
	return out
}

func splitLines(raw string) []string {
	return strings.Split(raw, "\n")
}
