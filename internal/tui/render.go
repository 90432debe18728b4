package tui

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/glamour"

	"github.com/gabrielmiguelok/autoimpute-tutorials/internal/content"
	"github.com/gabrielmiguelok/autoimpute-tutorials/internal/nav"
)

// DefaultStyle is the glamour style used when none is configured. It does
// not query the terminal, so it is safe outside a TTY.
const DefaultStyle = "dark"

// PageRenderer turns Markdown into terminal text wrapped at width.
type PageRenderer interface {
	Render(markdown string, width int) (string, error)
}

// Glamour renders Markdown with glamour. Renderers are built once per wrap
// width and reused.
type Glamour struct {
	style string

	mu        sync.Mutex
	renderers map[int]*glamour.TermRenderer
}

// NewGlamour creates a renderer for a standard glamour style ("dark",
// "light", "notty", ...).
func NewGlamour(style string) *Glamour {
	if style == "" {
		style = DefaultStyle
	}
	return &Glamour{style: style, renderers: make(map[int]*glamour.TermRenderer)}
}

// Render implements PageRenderer.
func (g *Glamour) Render(markdown string, width int) (string, error) {
	r, err := g.renderer(width)
	if err != nil {
		return "", err
	}
	out, err := r.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("glamour: %w", err)
	}
	return out, nil
}

func (g *Glamour) renderer(width int) (*glamour.TermRenderer, error) {
	if width < 20 {
		width = 20
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if r, ok := g.renderers[width]; ok {
		return r, nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(g.style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, fmt.Errorf("glamour: %w", err)
	}
	g.renderers[width] = r
	return r, nil
}

// RenderPage renders the page bound to tag, or the placeholder when the
// library has none. title labels the placeholder.
func RenderPage(r PageRenderer, lib *content.Library, tag nav.Tag, title string, width int) (string, error) {
	page, ok := lib.Page(tag)
	if !ok {
		return Placeholder(title), nil
	}
	return r.Render(string(page.Source), width)
}
