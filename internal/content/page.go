// Package content loads the tutorial pages. Each page is a Markdown file with
// YAML front matter; the set of loaded pages determines which navigation tags
// are bound to content.
package content

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/adrg/frontmatter"

	"github.com/gabrielmiguelok/autoimpute-tutorials/internal/markdown"
	"github.com/gabrielmiguelok/autoimpute-tutorials/internal/nav"
)

// Page errors.
var (
	ErrMissingTag = errors.New("page front matter has no tag")
	ErrEmptyBody  = errors.New("page has no body")
	ErrNotParsed  = errors.New("page was not created by ParsePage")
)

// Page is one immutable content page. Its HTML is rendered on first use and
// then reused, so every call to HTML returns the same output.
type Page struct {
	Tag     nav.Tag
	Title   string
	Summary string
	Order   int
	Path    string
	Source  []byte

	html func() (string, error)
}

type frontMatter struct {
	Tag     string `yaml:"tag"`
	Title   string `yaml:"title"`
	Summary string `yaml:"summary"`
	Order   int    `yaml:"order"`
}

// ParsePage reads front matter and body from src. path is used in errors and
// for display only.
func ParsePage(path string, src []byte, r *markdown.Renderer) (*Page, error) {
	var meta frontMatter
	body, err := frontmatter.Parse(bytes.NewReader(src), &meta)
	if err != nil {
		return nil, fmt.Errorf("%s: parse front matter: %w", path, err)
	}
	if strings.TrimSpace(meta.Tag) == "" {
		return nil, fmt.Errorf("%s: %w", path, ErrMissingTag)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyBody)
	}

	p := &Page{
		Tag:     nav.Tag(strings.TrimSpace(meta.Tag)),
		Title:   meta.Title,
		Summary: meta.Summary,
		Order:   meta.Order,
		Path:    path,
		Source:  body,
	}
	if p.Title == "" {
		p.Title = string(p.Tag)
	}
	p.html = sync.OnceValues(func() (string, error) {
		out, err := r.Render(p.Source)
		if err != nil {
			return "", fmt.Errorf("%s: %w", path, err)
		}
		return string(out), nil
	})
	return p, nil
}

// HTML returns the rendered page body.
func (p *Page) HTML() (string, error) {
	if p == nil || p.html == nil {
		return "", ErrNotParsed
	}
	return p.html()
}

// CodeBlocks returns the fenced code snippets of the page.
func (p *Page) CodeBlocks() []markdown.CodeBlock {
	return markdown.CodeBlocks(p.Source)
}
