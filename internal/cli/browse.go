package cli

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/parsimony/pkg/archive"
	"github.com/matzehuels/parsimony/pkg/pipeline"
	"github.com/matzehuels/parsimony/pkg/render"
)

var listDimStyle = lipgloss.NewStyle().Foreground(colorDim)

// browseAction is what the user chose to do with the selected result.
type browseAction int

const (
	actionNone browseAction = iota
	actionShow
	actionRender
)

// =============================================================================
// ResultListModel - Interactive result selection
// =============================================================================

// ResultListModel is the bubbletea model for browsing archived results.
type ResultListModel struct {
	Results  []*pipeline.Result
	Cursor   int
	Offset   int
	Height   int
	Selected *pipeline.Result
	Action   browseAction
}

// NewResultListModel creates a new result list model.
func NewResultListModel(results []*pipeline.Result) ResultListModel {
	return ResultListModel{
		Results: results,
		Height:  15,
	}
}

func (m ResultListModel) Init() tea.Cmd {
	return nil
}

func (m ResultListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
			if m.Cursor < len(m.Results)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			return m.choose(actionShow)
		case "r":
			return m.choose(actionRender)
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 8
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m ResultListModel) choose(a browseAction) (tea.Model, tea.Cmd) {
	if len(m.Results) == 0 {
		return m, tea.Quit
	}
	m.Selected = m.Results[m.Cursor]
	m.Action = a
	return m, tea.Quit
}

func (m ResultListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Archived Results"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ show  r render  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Results) {
		end = len(m.Results)
	}

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		r := m.Results[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{
			cursor,
			shortID(r.ID),
			string(r.Kind),
			fmt.Sprint(r.Length),
			fmt.Sprint(len(r.Trees)),
			fmt.Sprintf("%d×%d", len(r.Taxa), r.NumChars),
			formatRelativeTime(r.CreatedAt),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "ID", "Kind", "Length", "Trees", "Matrix", "Created").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			idx := m.Offset + row
			if idx >= len(m.Results) {
				return lipgloss.NewStyle()
			}
			base := lipgloss.NewStyle()
			if col == 6 {
				base = base.Foreground(colorDim)
			}
			if idx == m.Cursor {
				return base.Foreground(colorGreen).Bold(true)
			}
			return base
		})

	b.WriteString(t.Render())
	b.WriteString("\n")
	if m.Cursor < len(m.Results) {
		sel := m.Results[m.Cursor]
		b.WriteString(listDimStyle.Render("  " + sel.Summary()))
		b.WriteString("\n")
	}
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Results))))

	return b.String()
}

// =============================================================================
// Command
// =============================================================================

// browseCommand creates the interactive result browser.
func (c *CLI) browseCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse archived results interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := c.openArchive(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			results, err := store.List(ctx, limit)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				printInfo("No archived results")
				return nil
			}

			p := tea.NewProgram(NewResultListModel(results), tea.WithContext(ctx))
			final, err := p.Run()
			if err != nil {
				return err
			}
			fm, ok := final.(ResultListModel)
			if !ok || fm.Selected == nil {
				printDetail("No selection made")
				return nil
			}

			switch fm.Action {
			case actionRender:
				return c.runRender(fm.Selected, render.FormatSVG, &renderOpts{tree: 1})
			default:
				printResult(fm.Selected)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", archive.DefaultListLimit, "maximum number of results to load")
	return cmd
}

// =============================================================================
// Helpers
// =============================================================================

func formatRelativeTime(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Local().Format("Jan 2, 2006")
	}
}
