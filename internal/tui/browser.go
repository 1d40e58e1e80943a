// Package tui implements the interactive history browser: a two-pane view
// with the undo history on the left and the selected entry's diff against
// its predecessor on the right.
package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/veldt/labelsmith/internal/diff"
	"github.com/veldt/labelsmith/internal/editor"
	"github.com/veldt/labelsmith/internal/store"
)

// BrowserModel holds the state of the history browser.
type BrowserModel struct {
	session *editor.Session
	entries []store.Snapshot

	cursor int
	width  int
	height int
	status string
}

// NewBrowserModel creates a browser over the session's history.
func NewBrowserModel(session *editor.Session) BrowserModel {
	entries := session.History()
	return BrowserModel{
		session: session,
		entries: entries,
		cursor:  maxIndex(entries),
	}
}

func maxIndex(entries []store.Snapshot) int {
	if len(entries) == 0 {
		return 0
	}
	return len(entries) - 1
}

// Init implements tea.Model
func (m BrowserModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m BrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < maxIndex(m.entries) {
				m.cursor++
			}
		case "g":
			m.cursor = 0
		case "G":
			m.cursor = maxIndex(m.entries)
		case "u":
			return m.undo()
		case "enter":
			return m.restore()
		}
	}
	return m, nil
}

func (m BrowserModel) undo() (tea.Model, tea.Cmd) {
	_, ok, err := m.session.Undo(context.Background())
	switch {
	case err != nil:
		m.status = fmt.Sprintf("Undo failed to persist: %v", err)
	case !ok:
		m.status = "Nothing to undo"
	default:
		m.status = fmt.Sprintf("Rolled back, %d undo steps remaining", m.session.HistoryDepth())
	}
	m.entries = m.session.History()
	if m.cursor > maxIndex(m.entries) {
		m.cursor = maxIndex(m.entries)
	}
	return m, nil
}

func (m BrowserModel) restore() (tea.Model, tea.Cmd) {
	if len(m.entries) == 0 {
		return m, nil
	}
	if err := m.session.Restore(context.Background(), m.entries[m.cursor]); err != nil {
		m.status = fmt.Sprintf("Restore failed to persist: %v", err)
	} else {
		m.status = fmt.Sprintf("Restored entry %d as current", m.cursor)
	}
	m.entries = m.session.History()
	m.cursor = maxIndex(m.entries)
	return m, nil
}

// View implements tea.Model
func (m BrowserModel) View() string {
	if len(m.entries) == 0 {
		return "History is empty. Press q to quit.\n"
	}

	leftWidth := 32
	rightWidth := m.width - leftWidth - 6
	if rightWidth < 20 {
		rightWidth = 20
	}
	paneHeight := m.height - 4
	if paneHeight < 5 {
		paneHeight = 5
	}

	left := m.renderList(leftWidth, paneHeight)
	right := m.renderDiff(rightWidth, paneHeight)
	panes := lipgloss.JoinHorizontal(lipgloss.Top, left, right)

	help := "j/k: navigate  u: undo  enter: restore  q: quit"
	if m.status != "" {
		help = m.status + "  |  " + help
	}
	return panes + "\n" + lipgloss.NewStyle().Faint(true).Render(help) + "\n"
}

func (m BrowserModel) renderList(width, height int) string {
	style := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(0, 1).
		Width(width).
		Height(height)

	var content strings.Builder
	content.WriteString(lipgloss.NewStyle().Bold(true).Render("History") + "\n\n")

	for i, snap := range m.entries {
		marker := " "
		if i == len(m.entries)-1 {
			marker = "*"
		}
		line := fmt.Sprintf("%s %2d. %d lines, label %s", marker, i, len(snap.PerLineStyles), snap.LabelSize)
		if len(line) > width-4 {
			line = line[:width-7] + "..."
		}
		if i == m.cursor {
			line = lipgloss.NewStyle().
				Background(lipgloss.Color("62")).
				Foreground(lipgloss.Color("230")).
				Width(width - 4).
				Render(line)
		}
		content.WriteString(line + "\n")
	}

	return style.Render(content.String())
}

// renderDiff shows the selected entry's flattened diff against its
// predecessor, or the full flattened entry when it is the oldest.
func (m BrowserModel) renderDiff(width, height int) string {
	style := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("205")).
		Padding(0, 1).
		Width(width).
		Height(height)

	var before map[string]string
	if m.cursor > 0 {
		before = diff.Flatten(m.entries[m.cursor-1])
	}
	result := diff.Diff(before, diff.Flatten(m.entries[m.cursor]))

	var content strings.Builder
	title := fmt.Sprintf("Entry %d vs predecessor", m.cursor)
	content.WriteString(lipgloss.NewStyle().Bold(true).Render(title) + "\n\n")

	if result.Empty() {
		content.WriteString("No changes\n")
	} else {
		writeSortedLines(&content, "+", result.Added, width)
		for _, key := range sortedKeys(result.Changed) {
			change := result.Changed[key]
			writeLine(&content, fmt.Sprintf("~ %s: %s -> %s", key, change.From, change.To), width)
		}
		writeSortedLines(&content, "-", result.Removed, width)
	}

	lines := strings.Split(content.String(), "\n")
	if len(lines) > height-2 {
		lines = lines[:height-2]
	}
	return style.Render(strings.Join(lines, "\n"))
}

func writeSortedLines(content *strings.Builder, sign string, entries map[string]string, width int) {
	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		writeLine(content, fmt.Sprintf("%s %s: %s", sign, key, entries[key]), width)
	}
}

func writeLine(content *strings.Builder, line string, width int) {
	if len(line) > width-4 {
		line = line[:width-7] + "..."
	}
	content.WriteString(line + "\n")
}

func sortedKeys(changes map[string]diff.Change) []string {
	keys := make([]string, 0, len(changes))
	for key := range changes {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Run starts the history browser and blocks until the user quits.
func Run(session *editor.Session) error {
	program := tea.NewProgram(NewBrowserModel(session), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run history browser: %w", err)
	}
	return nil
}
