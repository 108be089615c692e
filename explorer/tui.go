package explorer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/rlch/dbctx"
)

// BuildFunc produces the tree to explore.
type BuildFunc func(ctx context.Context) (*dbctx.ExplorerItem, error)

// Option configures Run.
type Option func(*options)

type options struct {
	in     io.Reader
	out    io.Writer
	styles *Styles
	label  string
}

// WithInput sets where key presses are read from. Defaults to os.Stdin.
func WithInput(r io.Reader) Option {
	return func(o *options) { o.in = r }
}

// WithOutput sets where the tree is drawn. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.out = w }
}

// WithStyles overrides DefaultStyles.
func WithStyles(s *Styles) Option {
	return func(o *options) { o.styles = s }
}

// WithLabel sets the text shown next to the spinner while building.
func WithLabel(label string) Option {
	return func(o *options) { o.label = label }
}

// Run calls build and lets the user browse the result. While build runs a
// spinner is shown. When the output is not a terminal the tree is rendered
// once, without styles, and Run returns.
func Run(ctx context.Context, build BuildFunc, opts ...Option) (*dbctx.ExplorerItem, error) {
	o := options{in: os.Stdin, out: os.Stdout, label: "introspecting"}
	for _, opt := range opts {
		opt(&o)
	}

	if !isTerminal(o.out) {
		tree, err := build(ctx)
		if err != nil {
			return nil, err
		}

		return tree, Render(o.out, tree, PlainStyles())
	}

	if o.styles == nil {
		o.styles = DefaultStyles()
	}

	m := newModel(ctx, build, o.styles, o.label)

	p := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithInput(o.in),
		tea.WithOutput(o.out),
		tea.WithAltScreen(),
	)

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return nil, fmt.Errorf("explorer: %w", err)
	}

	if m.err != nil {
		return nil, m.err
	}

	if m.tree == nil {
		return nil, ctx.Err()
	}

	return m.tree, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Toggle key.Binding
	Quit   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("enter", " ", "space"),
			key.WithHelp("enter/space", "toggle"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c", "esc"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) help() string {
	parts := make([]string, 0, 4)
	for _, b := range []key.Binding{k.Up, k.Down, k.Toggle, k.Quit} {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}

	return strings.Join(parts, " • ")
}

// row is a visible line of the tree.
type row struct {
	item  *dbctx.ExplorerItem
	depth int
}

type builtMsg struct {
	tree *dbctx.ExplorerItem
	err  error
}

// model is the bubbletea model for the explorer. It is used through a
// pointer so Run can read the result after the program exits.
type model struct {
	ctx     context.Context
	build   BuildFunc
	styles  *Styles
	keys    keyMap
	spinner spinner.Model
	label   string

	width  int
	height int

	started time.Time
	tree    *dbctx.ExplorerItem
	err     error

	expanded map[*dbctx.ExplorerItem]bool
	rows     []row
	cursor   int
	offset   int
}

func newModel(ctx context.Context, build BuildFunc, styles *Styles, label string) *model {
	s := spinner.New()
	s.Spinner = spinner.Spinner{
		Frames: []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		FPS:    time.Second / 10,
	}
	s.Style = styles.Spinner

	return &model{
		ctx:      ctx,
		build:    build,
		styles:   styles,
		keys:     defaultKeyMap(),
		spinner:  s,
		label:    label,
		width:    80,
		height:   24,
		started:  time.Now(),
		expanded: make(map[*dbctx.ExplorerItem]bool),
	}
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.runBuild())
}

func (m *model) runBuild() tea.Cmd {
	return func() tea.Msg {
		tree, err := m.build(m.ctx)
		return builtMsg{tree: tree, err: err}
	}
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.scroll()

	case spinner.TickMsg:
		if m.loading() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)

			return m, cmd
		}

	case builtMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}

		m.setTree(msg.tree)

	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}

	return m, nil
}

func (m *model) loading() bool {
	return m.tree == nil && m.err == nil
}

func (m *model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case m.loading():
		return nil
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Toggle):
		m.toggle()
	}

	m.scroll()

	return nil
}

// setTree shows the root and its categories expanded.
func (m *model) setTree(tree *dbctx.ExplorerItem) {
	m.tree = tree

	dbctx.Walk(tree, func(item *dbctx.ExplorerItem, _ int) bool {
		if item.Kind == dbctx.KindRoot || item.Kind == dbctx.KindCategory {
			m.expanded[item] = true
			return true
		}

		return false
	})

	m.cursor = 0
	m.refresh()
}

func (m *model) toggle() {
	if m.cursor >= len(m.rows) {
		return
	}

	item := m.rows[m.cursor].item
	if len(item.Children) == 0 {
		return
	}

	m.expanded[item] = !m.expanded[item]
	m.refresh()
}

// refresh recomputes the visible rows, keeping the cursor in range.
func (m *model) refresh() {
	m.rows = m.rows[:0]

	dbctx.Walk(m.tree, func(item *dbctx.ExplorerItem, depth int) bool {
		m.rows = append(m.rows, row{item: item, depth: depth})
		return m.expanded[item]
	})

	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}

	if m.cursor < 0 {
		m.cursor = 0
	}
}

// visibleRows is the number of tree rows that fit above the footer.
func (m *model) visibleRows() int {
	// Footer lines: tooltip, snippet, help.
	n := m.height - 4
	if n < 1 {
		n = 1
	}

	return n
}

func (m *model) scroll() {
	n := m.visibleRows()

	if m.cursor < m.offset {
		m.offset = m.cursor
	}

	if m.cursor >= m.offset+n {
		m.offset = m.cursor - n + 1
	}

	if m.offset < 0 {
		m.offset = 0
	}
}

// selected returns the item under the cursor.
func (m *model) selected() *dbctx.ExplorerItem {
	if m.cursor >= len(m.rows) {
		return nil
	}

	return m.rows[m.cursor].item
}

func (m *model) View() string {
	if m.err != nil {
		return m.styles.Error.Render(m.err.Error()) + "\n"
	}

	if m.loading() {
		elapsed := time.Since(m.started).Round(100 * time.Millisecond)
		return fmt.Sprintf("%s %s %s\n", m.spinner.View(), m.label, m.styles.Property.Render("["+elapsed.String()+"]"))
	}

	var b strings.Builder

	end := min(m.offset+m.visibleRows(), len(m.rows))

	for i := m.offset; i < end; i++ {
		r := m.rows[i]

		cursor := "  "
		if i == m.cursor {
			cursor = m.styles.Selected.Render("› ")
		}

		marker := "  "
		if len(r.item.Children) > 0 {
			marker = "▸ "
			if m.expanded[r.item] {
				marker = "▾ "
			}
		}

		b.WriteString(cursor)
		b.WriteString(strings.Repeat("  ", r.depth))
		b.WriteString(m.styles.Branch.Render(marker))
		b.WriteString(m.styles.label(r.item))
		b.WriteString("\n")
	}

	if item := m.selected(); item != nil {
		if item.Tooltip != "" {
			b.WriteString(m.styles.Property.Render("  " + item.Tooltip))
			b.WriteString("\n")
		}

		if item.Snippet != "" {
			b.WriteString(m.styles.Property.Render("  " + item.Snippet))
			b.WriteString("\n")
		}
	}

	b.WriteString(m.styles.Help.Render(m.keys.help()))

	return b.String()
}
