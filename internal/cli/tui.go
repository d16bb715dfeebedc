package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/changeover/pkg/job"
	"github.com/matzehuels/changeover/pkg/report"
)

// List styles
var (
	listDimStyle    = lipgloss.NewStyle().Foreground(colorFaint)
	listHeaderStyle = lipgloss.NewStyle().Foreground(colorMuted).Bold(true)
	detailKeyStyle  = lipgloss.NewStyle().Foreground(colorMuted).Width(14)
)

// =============================================================================
// ReportModel - Interactive sequence browser
// =============================================================================

// ReportModel is the bubbletea model for browsing a sequence report.
type ReportModel struct {
	Title   string
	Rows    []report.Row
	Summary report.Summary
	Cursor  int
	Height  int
	Offset  int
}

// NewReportModel creates a new report model.
func NewReportModel(title string, rows []report.Row) ReportModel {
	return ReportModel{
		Title:   title,
		Rows:    rows,
		Summary: report.Summarize(rows),
		Height:  15,
	}
}

func (m ReportModel) Init() tea.Cmd {
	return nil
}

func (m ReportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			m.move(-1)
		case "down", "j":
			m.move(1)
		case "pgup":
			m.move(-m.Height)
		case "pgdown", " ":
			m.move(m.Height)
		case "home", "g":
			m.move(-len(m.Rows))
		case "end", "G":
			m.move(len(m.Rows))
		}
	case tea.WindowSizeMsg:
		// header, table borders and the detail pane
		m.Height = max(msg.Height-16, 5)
		m.move(0)
	}
	return m, nil
}

// move shifts the cursor by delta, clamped to the rows, and scrolls the
// window to keep it visible.
func (m *ReportModel) move(delta int) {
	if len(m.Rows) == 0 {
		return
	}
	m.Cursor = min(max(m.Cursor+delta, 0), len(m.Rows)-1)
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

func (m ReportModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Title))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("%d jobs · changeover %d · shared %d",
		m.Summary.Jobs, m.Summary.TotalCost, m.Summary.TotalShared)))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  pgup/pgdn page  q quit"))
	b.WriteString("\n\n")

	if len(m.Rows) == 0 {
		b.WriteString(listDimStyle.Render("  No jobs in this report."))
		b.WriteString("\n")
		return b.String()
	}

	end := min(m.Offset+m.Height, len(m.Rows))
	b.WriteString(rowTable(m.Rows[m.Offset:end], m.Cursor-m.Offset).Render())
	b.WriteString("\n")
	b.WriteString(rowDetail(m.Rows[m.Cursor]))
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Rows))))

	return b.String()
}

// rowTable renders rows as a bordered table. The row at index current is
// highlighted; pass -1 for none.
func rowTable(rows []report.Row, current int) *table.Table {
	data := make([][]string, len(rows))
	for i, r := range rows {
		data[i] = []string{
			strconv.Itoa(r.Index),
			r.ItemCode,
			string(r.Layer),
			r.Tier.String(),
			strconv.Itoa(r.IndividualCount),
			strconv.Itoa(r.TransitionSharedCount),
			strconv.Itoa(r.Changeover),
		}
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorFaint)).
		Headers("#", "Item", "Layer", "Tier", "Materials", "Shared", "Cost").
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return listHeaderStyle
			}
			base := lipgloss.NewStyle().Padding(0, 1)
			if row < len(rows) && rows[row].Tier == job.TierPriority && col == 3 {
				base = base.Foreground(colorWarn)
			}
			if row == current {
				return base.Foreground(colorAccent).Bold(true)
			}
			if row < len(rows) && rows[row].Layer == job.LayerBottom {
				return base.Foreground(colorMuted)
			}
			return base
		})
}

// rowDetail renders the full selection reason and material counts of r.
func rowDetail(r report.Row) string {
	var b strings.Builder
	line := func(k, v string) {
		b.WriteString("  " + detailKeyStyle.Render(k) + StyleValue.Render(v) + "\n")
	}
	line("Item", fmt.Sprintf("%s (%s)", r.ItemCode, r.Layer))
	line("Materials", fmt.Sprintf("%d total, %d common, %d individual", r.TotalCount, r.CommonCount, r.IndividualCount))
	if r.Qty != nil {
		line("Qty", strconv.Itoa(*r.Qty))
	}
	if r.ProdTime != nil {
		line("Prod time", strconv.FormatFloat(*r.ProdTime, 'f', -1, 64))
	}
	line("Reason", r.SelectionReason)
	return b.String()
}
