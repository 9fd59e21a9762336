package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/hapaudit/pkg/errors"
	"github.com/matzehuels/hapaudit/pkg/report"
)

var listDimStyle = lipgloss.NewStyle().Foreground(colorDim)

// =============================================================================
// BoundaryListModel - Interactive boundary browser
// =============================================================================

// BoundaryListModel is the bubbletea model that pages through the
// boundaries of one report.
type BoundaryListModel struct {
	Report     *report.Report
	ErrorsOnly bool
	Cursor     int
	Offset     int
	Height     int

	rows []report.Boundary
}

// NewBoundaryListModel creates a model listing every boundary of rep.
func NewBoundaryListModel(rep *report.Report) BoundaryListModel {
	m := BoundaryListModel{Report: rep, Height: 15}
	m.rows = rep.Boundaries
	return m
}

func (m BoundaryListModel) Init() tea.Cmd {
	return nil
}

func (m BoundaryListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
			m.move(-len(m.rows))
		case "end", "G":
			m.move(len(m.rows))
		case "e":
			m.ErrorsOnly = !m.ErrorsOnly
			if m.ErrorsOnly {
				m.rows = errorBoundaries(m.Report.Boundaries)
			} else {
				m.rows = m.Report.Boundaries
			}
			m.Cursor, m.Offset = 0, 0
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-10, 5)
		m.move(0)
	}
	return m, nil
}

// move shifts the cursor by d rows and keeps it on screen.
func (m *BoundaryListModel) move(d int) {
	m.Cursor = min(max(m.Cursor+d, 0), max(len(m.rows)-1, 0))
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

// Selected returns the boundary under the cursor.
func (m BoundaryListModel) Selected() (report.Boundary, bool) {
	if m.Cursor >= len(m.rows) {
		return report.Boundary{}, false
	}
	return m.rows[m.Cursor], true
}

func (m BoundaryListModel) View() string {
	var b strings.Builder
	s := m.Report.Stats

	b.WriteString(StyleTitle.Render(fmt.Sprintf("%s  %s", m.Report.Event, m.Report.ID)))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("%d boundaries · %d errors · %d contigs · %d scaffolds",
		s.Boundaries, s.Errors, s.ContigPaths, s.Scaffolds)))
	b.WriteString("\n")
	filter := "all"
	if m.ErrorsOnly {
		filter = "errors"
	}
	b.WriteString(listDimStyle.Render("↑/↓ navigate  e toggle errors (" + filter + ")  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.rows))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, append([]string{cursor}, boundaryRow(m.rows[i])[:6]...))
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Sequence", "Position", "Strand", "Side", "Block", "Code").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			idx := m.Offset + row
			if idx >= len(m.rows) {
				return lipgloss.NewStyle()
			}
			base := lipgloss.NewStyle()
			if col == 6 {
				base = codeStyle(m.rows[idx].Code)
			}
			if idx == m.Cursor {
				return base.Bold(true)
			}
			return base
		})
	b.WriteString(t.Render())
	b.WriteString("\n")

	if sel, ok := m.Selected(); ok {
		b.WriteString(listDimStyle.Render(fmt.Sprintf("  insert %d · delete %d · path %d · Ns %d",
			sel.InsertLength, sel.DeleteLength, sel.PathLength, sel.NCount)))
		b.WriteString("\n")
	}
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", min(m.Cursor+1, len(m.rows)), len(m.rows))))
	return b.String()
}

// =============================================================================
// browse
// =============================================================================

func (c *CLI) browseCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "browse [id]",
		Short: "Page through the boundaries of a report",
		Long: `Browse opens an interactive list of a report's boundaries. The report is
read from the configured store by ID, or from a JSON file written by
'audit --output'.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				rep *report.Report
				err error
			)
			switch {
			case file != "" && len(args) == 0:
				rep, err = readReportFile(file)
			case file == "" && len(args) == 1:
				err = c.withStore(cmd.Context(), func(st report.Store) error {
					rep, err = st.Get(cmd.Context(), args[0])
					return err
				})
			default:
				err = errors.New(errors.ErrCodeInvalidInput, "give either a report ID or --file")
			}
			if err != nil {
				return err
			}
			p := tea.NewProgram(NewBoundaryListModel(rep), tea.WithContext(cmd.Context()), tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "read the report from a JSON file")
	return cmd
}

func readReportFile(path string) (*report.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "read %s", path)
	}
	var rep report.Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode %s", path)
	}
	rep.Recount()
	return &rep, nil
}
