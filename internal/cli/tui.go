package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/depgraph/pkg/snapshot"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// manifestItem is one row of the manifest picker.
type manifestItem struct {
	Name     string
	File     string
	Direct   int
	Indirect int
}

// manifestItems lists the manifests of s in name order.
func manifestItems(s *snapshot.Snapshot) []manifestItem {
	totals := snapshot.Summarize(s)
	items := make([]manifestItem, len(totals))
	for i, t := range totals {
		items[i] = manifestItem{Name: t.Manifest, Direct: t.Direct, Indirect: t.Indirect}
		if f := s.Manifests[t.Manifest].File; f != nil {
			items[i].File = f.SourceLocation
		}
	}
	return items
}

// =============================================================================
// ManifestListModel - Interactive manifest selection
// =============================================================================

// ManifestListModel is the bubbletea model for interactive manifest selection.
type ManifestListModel struct {
	Manifests []manifestItem
	Cursor    int
	Selected  *manifestItem
	Height    int
	Offset    int
}

// NewManifestListModel creates a new manifest list model.
func NewManifestListModel(manifests []manifestItem) ManifestListModel {
	return ManifestListModel{Manifests: manifests, Height: 15}
}

func (m ManifestListModel) Init() tea.Cmd {
	return nil
}

func (m ManifestListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Manifests)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Manifests) == 0 {
				return m, tea.Quit
			}
			m.Selected = &m.Manifests[m.Cursor]
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
	}
	return m, nil
}

func (m ManifestListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Manifest"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	width := 0
	for _, mf := range m.Manifests {
		width = max(width, len(mf.Name))
	}

	end := min(m.Offset+m.Height, len(m.Manifests))
	for i := m.Offset; i < end; i++ {
		mf := m.Manifests[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		counts := fmt.Sprintf("%d direct, %d indirect", mf.Direct, mf.Indirect)
		line := fmt.Sprintf("%s%-*s  %s", cursor, width, mf.Name, counts)
		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		if mf.File != "" {
			b.WriteString("  " + listDimStyle.Render(mf.File))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Manifests))))
	return b.String()
}
