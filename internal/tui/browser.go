// Package tui is a terminal browser for the tutorial pages. It drives the same
// navigation shell as the web view and renders pages with glamour.
package tui

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gabrielmiguelok/autoimpute-tutorials/internal/content"
	"github.com/gabrielmiguelok/autoimpute-tutorials/internal/nav"
)

var (
	brandStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#343A40")).
			Padding(0, 1)

	itemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ADB5BD")).
			Padding(0, 1)

	activeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Underline(true).
			Padding(0, 1)

	disabledStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D")).
			Strikethrough(true).
			Padding(0, 1)

	menuStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), true).
			BorderForeground(lipgloss.Color("#6C757D")).
			Padding(0, 1)

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#0D6EFD")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)
)

// LibraryMsg swaps in a reloaded page library.
type LibraryMsg struct {
	Library *content.Library
}

// Option configures a Model.
type Option func(*Model)

// WithRenderer replaces the glamour renderer.
func WithRenderer(r PageRenderer) Option {
	return func(m *Model) { m.renderer = r }
}

// WithClipboard replaces the system clipboard writer.
func WithClipboard(fn func(string) error) Option {
	return func(m *Model) { m.copy = fn }
}

// WithKeyMap replaces the default bindings.
func WithKeyMap(k KeyMap) Option {
	return func(m *Model) { m.keys = k }
}

// Model is the bubbletea model of the browser.
type Model struct {
	catalog  nav.Catalog
	lib      *content.Library
	shell    *nav.Shell
	keys     KeyMap
	help     help.Model
	viewport viewport.Model
	renderer PageRenderer
	copy     func(string) error

	// cursor indexes the enabled entries of the open dropdown.
	cursor int
	width  int
	height int
	ready  bool
	status string
}

// New creates a browser positioned on the catalog default.
func New(catalog nav.Catalog, lib *content.Library, opts ...Option) Model {
	m := Model{
		catalog:  catalog,
		lib:      lib,
		shell:    nav.NewShell(catalog, lib.Tags()),
		keys:     DefaultKeyMap(),
		help:     help.New(),
		renderer: NewGlamour(DefaultStyle),
		copy:     clipboard.WriteAll,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Shell returns the navigation state.
func (m Model) Shell() *nav.Shell {
	return m.shell
}

// Status returns the last status line message.
func (m Model) Status() string {
	return m.status
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		if !m.ready {
			m.viewport = viewport.New(msg.Width, 1)
			m.ready = true
		}
		m.resize()
		m.refresh()
		return m, nil

	case LibraryMsg:
		if msg.Library == nil {
			return m, nil
		}
		current := m.shell.Current()
		m.lib = msg.Library
		m.shell = nav.NewShell(m.catalog, msg.Library.Tags())
		m.shell.Select(current)
		m.status = "pages reloaded"
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	open := m.openDropdown()

	switch {
	case key.Matches(msg, m.keys.Toggle):
		if ds := m.shell.Dropdowns(); len(ds) > 0 {
			m.shell.Toggle(ds[0].Label())
			m.cursor = 0
			m.resize()
		}
		return m, nil

	case open != nil && key.Matches(msg, m.keys.Close):
		open.Close()
		m.resize()
		return m, nil

	case open != nil && key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case open != nil && key.Matches(msg, m.keys.Down):
		if m.cursor < len(enabled(open.Entries()))-1 {
			m.cursor++
		}
		return m, nil

	case open != nil && key.Matches(msg, m.keys.Enter):
		entries := enabled(open.Entries())
		if m.cursor < len(entries) {
			m.selectTag(entries[m.cursor].Tag)
		}
		return m, nil

	case key.Matches(msg, m.keys.Copy):
		m.copyCode()
		return m, nil
	}

	if s := msg.String(); len(s) == 1 && s[0] >= '1' && s[0] <= '9' {
		entries := m.menu()
		if i := int(s[0] - '1'); i < len(entries) {
			m.selectTag(entries[i].Tag)
		}
		return m, nil
	}

	if !m.ready {
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) selectTag(tag nav.Tag) {
	m.shell.Select(tag)
	m.cursor = 0
	m.status = ""
	m.resize()
	m.refresh()
	if m.ready {
		m.viewport.GotoTop()
	}
}

func (m *Model) copyCode() {
	page, ok := m.page()
	if !ok {
		m.status = "nothing to copy"
		return
	}
	blocks := page.CodeBlocks()
	if len(blocks) == 0 {
		m.status = "page has no code"
		return
	}
	parts := make([]string, len(blocks))
	for i, b := range blocks {
		parts[i] = strings.TrimRight(b.Code, "\n")
	}
	if err := m.copy(strings.Join(parts, "\n\n")); err != nil {
		m.status = "copy failed: " + err.Error()
		return
	}
	m.status = fmt.Sprintf("copied %d code blocks", len(blocks))
}

func (m Model) page() (*content.Page, bool) {
	tag, ok := m.shell.Mounted()
	if !ok {
		return nil, false
	}
	return m.lib.Page(tag)
}

// menu lists the selectable entries in the order digits address them.
func (m Model) menu() []nav.Entry {
	entries := enabled(m.catalog.Items)
	for _, g := range m.catalog.Groups {
		entries = append(entries, enabled(g.Entries)...)
	}
	return entries
}

func (m Model) openDropdown() *nav.Dropdown {
	for _, d := range m.shell.Dropdowns() {
		if d.IsOpen() {
			return d
		}
	}
	return nil
}

func enabled(entries []nav.Entry) []nav.Entry {
	out := make([]nav.Entry, 0, len(entries))
	for _, e := range entries {
		if !e.Disabled {
			out = append(out, e)
		}
	}
	return out
}

func (m *Model) resize() {
	if !m.ready {
		return
	}
	h := m.height - lipgloss.Height(m.header()) - lipgloss.Height(m.footer())
	if h < 1 {
		h = 1
	}
	m.viewport.Width = m.width
	m.viewport.Height = h
}

func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.body())
}

func (m Model) body() string {
	if page, ok := m.page(); ok {
		out, err := m.renderer.Render(string(page.Source), m.width)
		if err != nil {
			return "Failed to render " + page.Title + ": " + err.Error()
		}
		return out
	}
	return Placeholder(m.shell.Title())
}

// Placeholder is the text shown for a selection without a page.
func Placeholder(title string) string {
	return "\n  Coming soon\n\n  " + title + " has not been published yet.\n"
}

func (m Model) header() string {
	var b strings.Builder
	b.WriteString(brandStyle.Render(m.catalog.Brand))

	n := 0
	label := func(e nav.EntryState) string {
		if e.Disabled {
			return disabledStyle.Render(e.Label)
		}
		n++
		text := fmt.Sprintf("%d %s", n, e.Label)
		if e.Active {
			return activeStyle.Render(text)
		}
		return itemStyle.Render(text)
	}

	for _, e := range m.shell.Items() {
		b.WriteString(label(e))
	}
	var menus []string
	for _, d := range m.shell.Dropdowns() {
		arrow := "▸"
		if d.IsOpen() {
			arrow = "▾"
		}
		style := itemStyle
		if d.Contains(m.shell.Current()) {
			style = activeStyle
		}
		b.WriteString(style.Render(d.Label() + " " + arrow))

		var lines []string
		cursor := 0
		for _, e := range m.shell.GroupEntries(d) {
			text := label(e)
			if !d.IsOpen() {
				continue
			}
			prefix := "  "
			if !e.Disabled {
				if cursor == m.cursor {
					prefix = cursorStyle.Render("> ")
				}
				cursor++
			}
			lines = append(lines, prefix+text)
		}
		if d.IsOpen() {
			menus = append(menus, menuStyle.Render(strings.Join(lines, "\n")))
		}
	}

	if len(menus) == 0 {
		return b.String()
	}
	return lipgloss.JoinVertical(lipgloss.Left, append([]string{b.String()}, menus...)...)
}

func (m Model) footer() string {
	if m.status != "" {
		return statusStyle.Render(m.status) + "\n" + m.help.View(m.keys)
	}
	return m.help.View(m.keys)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.header(), m.viewport.View(), m.footer())
}
