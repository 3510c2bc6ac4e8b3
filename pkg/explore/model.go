package explore

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/imoan723/JSRecon-Buddy/pkg/export"
)

// focusedPane tracks which pane has keyboard focus.
type focusedPane int

const (
	paneCategories focusedPane = iota
	paneFindings
	paneDetail
)

// Model is the root Bubble Tea model for the explore TUI.
type Model struct {
	doc  *export.Document
	cats export.Categories // filtered view over doc.Categories

	focus      focusedPane
	catCursor  int
	findCursor int
	occCursor  int

	filtering bool
	query     string

	width  int
	height int
}

// New creates a Model over the exported document at path.
func New(path string) (Model, error) {
	doc, err := Load(path)
	if err != nil {
		return Model{}, err
	}
	return Model{
		doc:   doc,
		cats:  doc.Categories,
		focus: paneCategories,
	}, nil
}

func (m Model) Init() tea.Cmd {
	return tea.SetWindowTitle("jsrecon explore")
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.filtering {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "/":
			m.filtering = true
			return m, nil
		case "esc":
			if m.query != "" {
				m.query = ""
				m.applyFilter()
			}
			return m, nil
		case "tab", "right", "l":
			m.focus = (m.focus + 1) % 3
			return m, nil
		case "shift+tab", "left", "h":
			m.focus = (m.focus + 2) % 3
			return m, nil
		case "down", "j":
			m.move(1)
			return m, nil
		case "up", "k":
			m.move(-1)
			return m, nil
		case "g":
			m.moveTo(0)
			return m, nil
		case "G":
			m.moveTo(1 << 30)
			return m, nil
		}
	}
	return m, nil
}

func (m Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.filtering = false
	case "esc":
		m.filtering = false
		m.query = ""
		m.applyFilter()
	case "backspace":
		if len(m.query) > 0 {
			m.query = m.query[:len(m.query)-1]
			m.applyFilter()
		}
	case "ctrl+c":
		return m, tea.Quit
	default:
		if msg.Type == tea.KeyRunes {
			m.query += string(msg.Runes)
			m.applyFilter()
		}
	}
	return m, nil
}

func (m *Model) applyFilter() {
	m.cats = filterCategories(m.doc.Categories, m.query)
	m.catCursor = 0
	m.findCursor = 0
	m.occCursor = 0
}

// move shifts the focused pane's cursor and resets downstream cursors.
func (m *Model) move(delta int) {
	switch m.focus {
	case paneCategories:
		m.catCursor = clamp(m.catCursor+delta, len(m.cats))
		m.findCursor = 0
		m.occCursor = 0
	case paneFindings:
		m.findCursor = clamp(m.findCursor+delta, len(m.findings()))
		m.occCursor = 0
	case paneDetail:
		if f := m.selectedFinding(); f != nil {
			m.occCursor = clamp(m.occCursor+delta, len(f.Occurrences))
		}
	}
}

func (m *Model) moveTo(pos int) {
	switch m.focus {
	case paneCategories:
		m.catCursor = clamp(pos, len(m.cats))
		m.findCursor = 0
		m.occCursor = 0
	case paneFindings:
		m.findCursor = clamp(pos, len(m.findings()))
		m.occCursor = 0
	case paneDetail:
		if f := m.selectedFinding(); f != nil {
			m.occCursor = clamp(pos, len(f.Occurrences))
		}
	}
}

func clamp(v, n int) int {
	if n == 0 {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}

func (m Model) findings() []export.Finding {
	if m.catCursor >= len(m.cats) {
		return nil
	}
	return m.cats[m.catCursor].Findings
}

func (m Model) selectedFinding() *export.Finding {
	findings := m.findings()
	if m.findCursor >= len(findings) {
		return nil
	}
	return &findings[m.findCursor]
}

func (m Model) View() string {
	if m.width == 0 {
		return "loading..."
	}

	catWidth := m.width / 4
	findWidth := m.width * 3 / 8
	detailWidth := m.width - catWidth - findWidth - 6 // borders
	paneHeight := m.height - 4

	panes := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderPane(paneCategories, "Categories", m.renderCategories(), catWidth, paneHeight),
		m.renderPane(paneFindings, "Findings", m.renderFindings(findWidth), findWidth, paneHeight),
		m.renderPane(paneDetail, "Occurrences", m.renderDetail(detailWidth), detailWidth, paneHeight),
	)
	return lipgloss.JoinVertical(lipgloss.Left, panes, m.statusBar())
}

func (m Model) renderPane(pane focusedPane, title, body string, width, height int) string {
	style := inactiveBorderStyle
	if m.focus == pane {
		style = activeBorderStyle
	}
	content := lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), body)
	return style.Width(width).Height(height).Render(content)
}

func (m Model) renderCategories() string {
	if len(m.cats) == 0 {
		return countStyle.Render("no findings")
	}
	var b strings.Builder
	for i, cat := range m.cats {
		row := fmt.Sprintf("%s %s", cat.Name, countStyle.Render(fmt.Sprintf("(%d)", len(cat.Findings))))
		if i == m.catCursor {
			row = selectedRowStyle.Render(row)
		} else {
			row = normalRowStyle.Render(row)
		}
		b.WriteString(row)
		b.WriteByte('\n')
	}
	return b.String()
}

func (m Model) renderFindings(width int) string {
	findings := m.findings()
	if len(findings) == 0 {
		return countStyle.Render("no findings")
	}
	var b strings.Builder
	for i, f := range findings {
		row := truncate(f.Value, width-4)
		if i == m.findCursor {
			row = selectedRowStyle.Render(row)
		} else {
			row = normalRowStyle.Render(row)
		}
		b.WriteString(row)
		b.WriteByte('\n')
	}
	return b.String()
}

func (m Model) renderDetail(width int) string {
	f := m.selectedFinding()
	if f == nil {
		return countStyle.Render("nothing selected")
	}
	var b strings.Builder
	b.WriteString(fieldLabelStyle.Render("Value: "))
	b.WriteString(fieldValueStyle.Render(truncate(f.Value, width-10)))
	b.WriteString("\n\n")
	for i, occ := range f.Occurrences {
		marker := "  "
		if i == m.occCursor {
			marker = selectedRowStyle.Render("> ")
		}
		b.WriteString(marker)
		b.WriteString(fieldValueStyle.Render(truncate(occ.Source, width-6)))
		b.WriteByte('\n')
		if occ.Context != "" {
			b.WriteString("  ")
			b.WriteString(contextStyle.Render(truncate(occ.Context, width-6)))
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func (m Model) statusBar() string {
	left := fmt.Sprintf(" %s — %d findings", m.doc.URL, m.doc.FindingCount())
	if m.filtering {
		return statusBarStyle.Render(left) + "  /" + m.query + "█"
	}
	help := "tab: pane  j/k: move  /: filter  q: quit"
	if m.query != "" {
		help = fmt.Sprintf("filter: %q  esc: clear  %s", m.query, help)
	}
	return statusBarStyle.Render(left + "  " + help)
}

func truncate(s string, max int) string {
	if max <= 3 || len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
