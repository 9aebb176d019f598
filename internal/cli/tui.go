package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nestflow/nestflow/pkg/builder"
	"github.com/nestflow/nestflow/pkg/graph"
	"github.com/nestflow/nestflow/pkg/layout"
)

// Tree styles
var (
	treeSelectedStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	treeContainerStyle = lipgloss.NewStyle().Foreground(colorWhite)
	treeLeafStyle      = lipgloss.NewStyle().Foreground(colorGray)
	treeDimStyle       = lipgloss.NewStyle().Foreground(colorDim)
	treeTitleStyle     = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
)

// =============================================================================
// GraphViewModel - Interactive containment tree browser
// =============================================================================

// treeRow is one visible line of the containment tree.
type treeRow struct {
	id        string
	depth     int
	container bool
	expanded  bool
}

// GraphViewModel is the bubbletea model for interactive graph exploration.
// Toggling a container collapses or expands its subtree and recomputes the
// layout through the builder, so the footer always shows live drawing
// dimensions.
type GraphViewModel struct {
	source  *graph.Graph
	builder *builder.Builder
	rows    []treeRow
	cursor  int
	offset  int
	height  int
	result  *layout.Result
	err     error
}

// NewGraphViewModel seeds a builder from a loaded graph and computes the
// initial layout.
func NewGraphViewModel(g *graph.Graph, opts layout.Options) (*GraphViewModel, error) {
	b, err := builderFromGraph(g, opts)
	if err != nil {
		return nil, err
	}
	m := &GraphViewModel{
		source:  g,
		builder: b,
		height:  20,
	}
	m.result, m.err = b.Settle()
	m.rebuildRows()
	return m, nil
}

// builderFromGraph replays a graph document into a builder, parents before
// children.
func builderFromGraph(g *graph.Graph, opts layout.Options) (*builder.Builder, error) {
	b, err := builder.New(builder.Options{Layout: opts})
	if err != nil {
		return nil, err
	}

	var add func(parentID string, n *graph.Node) error
	add = func(parentID string, n *graph.Node) error {
		if n.IsContainer() {
			if _, err := b.AddContainer(parentID, builder.Container{
				ID:            n.ID,
				Flow:          n.Flow,
				AlignChildren: n.AlignChildren,
				Ports:         n.Ports,
			}); err != nil {
				return err
			}
			for _, childID := range n.Children {
				if child, ok := g.Node(childID); ok {
					if err := add(n.ID, child); err != nil {
						return err
					}
				}
			}
			return nil
		}
		_, err := b.AddLeaf(parentID, builder.Leaf{
			ID:     n.ID,
			Width:  n.Width,
			Height: n.Height,
			Ports:  n.Ports,
		})
		return err
	}

	for _, id := range g.Roots() {
		if n, ok := g.Node(id); ok {
			if err := add("", n); err != nil {
				return nil, err
			}
		}
	}

	for _, e := range g.Edges() {
		if _, err := b.AddEdge(builder.Edge{
			ID:       e.ID,
			From:     e.From,
			To:       e.To,
			FromPort: e.FromPort,
			ToPort:   e.ToPort,
			Group:    e.Group,
		}); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// rebuildRows flattens the containment tree into visible lines, honoring
// collapsed containers.
func (m *GraphViewModel) rebuildRows() {
	m.rows = m.rows[:0]

	var walk func(id string, depth int)
	walk = func(id string, depth int) {
		n, ok := m.source.Node(id)
		if !ok {
			return
		}
		expanded := true
		if n.IsContainer() {
			expanded, _ = m.builder.Expanded(id)
		}
		m.rows = append(m.rows, treeRow{
			id:        id,
			depth:     depth,
			container: n.IsContainer(),
			expanded:  expanded,
		})
		if n.IsContainer() && expanded {
			for _, childID := range n.Children {
				walk(childID, depth+1)
			}
		}
	}

	for _, id := range m.source.Roots() {
		walk(id, 0)
	}

	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *GraphViewModel) Init() tea.Cmd {
	return nil
}

func (m *GraphViewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if m.cursor < len(m.rows)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		case "enter", " ":
			if m.cursor < len(m.rows) && m.rows[m.cursor].container {
				if _, err := m.builder.ToggleExpanded(m.rows[m.cursor].id); err == nil {
					m.result, m.err = m.builder.Settle()
					m.rebuildRows()
				}
			}
		}
	case tea.WindowSizeMsg:
		m.height = msg.Height - 7
		if m.height < 5 {
			m.height = 5
		}
	}
	return m, nil
}

func (m *GraphViewModel) View() string {
	var b strings.Builder

	b.WriteString(treeTitleStyle.Render("Graph Explorer"))
	b.WriteString("\n")
	b.WriteString(treeDimStyle.Render("↑/↓ navigate  ⏎ toggle container  q quit"))
	b.WriteString("\n\n")

	end := m.offset + m.height
	if end > len(m.rows) {
		end = len(m.rows)
	}

	for i := m.offset; i < end; i++ {
		row := m.rows[i]

		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}

		marker := "·"
		if row.container {
			if row.expanded {
				marker = "▾"
			} else {
				marker = "▸"
			}
		}

		line := fmt.Sprintf("%s%s%s %s", cursor, strings.Repeat("  ", row.depth), marker, row.id)
		switch {
		case i == m.cursor:
			b.WriteString(treeSelectedStyle.Render(line))
		case row.container:
			b.WriteString(treeContainerStyle.Render(line))
		default:
			b.WriteString(treeLeafStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.footer())
	return b.String()
}

// footer summarizes the live layout under the tree.
func (m *GraphViewModel) footer() string {
	if m.err != nil {
		return styleIconError.Render(iconError) + " " + treeDimStyle.Render(m.err.Error())
	}
	if m.result == nil {
		return treeDimStyle.Render("  no layout yet")
	}
	return treeDimStyle.Render(fmt.Sprintf("  %d visible · %.0f×%.0f units · [%d/%d]",
		len(m.result.Nodes), m.result.Width, m.result.Height, m.cursor+1, len(m.rows)))
}
