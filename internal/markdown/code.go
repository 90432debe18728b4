package markdown

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark/util"
)

// CodeRenderer turns the body of a fenced code block into HTML. lang is the
// info string of the fence and may be empty.
type CodeRenderer interface {
	RenderCode(w io.Writer, code []byte, lang string) error
}

// CodeRendererFunc adapts a function to CodeRenderer.
type CodeRendererFunc func(w io.Writer, code []byte, lang string) error

// RenderCode calls f.
func (f CodeRendererFunc) RenderCode(w io.Writer, code []byte, lang string) error {
	return f(w, code, lang)
}

// PlainRenderer writes the code escaped inside <pre><code>, tagging the
// language with a class the way most highlighters expect.
type PlainRenderer struct{}

// RenderCode implements CodeRenderer.
func (PlainRenderer) RenderCode(w io.Writer, code []byte, lang string) error {
	var b strings.Builder
	b.WriteString("<pre><code")
	if lang != "" {
		b.WriteString(` class="language-`)
		b.Write(util.EscapeHTML([]byte(lang)))
		b.WriteString(`"`)
	}
	b.WriteString(">")
	b.Write(util.EscapeHTML(code))
	b.WriteString("</code></pre>\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// DefaultStyle is the chroma style used when none is configured.
const DefaultStyle = "github"

// ChromaRenderer highlights code with chroma, emitting CSS classes rather
// than inline styles. WriteCSS produces the matching stylesheet.
type ChromaRenderer struct {
	style     *chroma.Style
	formatter *chromahtml.Formatter
}

// NewChromaRenderer creates a highlighter for the named style, falling back
// to chroma's default style for unknown names.
func NewChromaRenderer(style string) *ChromaRenderer {
	s := styles.Get(style)
	if s == nil {
		s = styles.Fallback
	}
	return &ChromaRenderer{
		style:     s,
		formatter: chromahtml.New(chromahtml.WithClasses(true), chromahtml.TabWidth(4)),
	}
}

// RenderCode implements CodeRenderer. Unknown languages are emitted through
// the plain-text lexer, still escaped.
func (c *ChromaRenderer) RenderCode(w io.Writer, code []byte, lang string) error {
	lexer := lexers.Get(lang)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	it, err := lexer.Tokenise(nil, string(code))
	if err != nil {
		return fmt.Errorf("tokenise %s: %w", lang, err)
	}

	if lang != "" {
		if _, err := fmt.Fprintf(w, `<div class="code-block" data-lang="%s">`, util.EscapeHTML([]byte(lang))); err != nil {
			return err
		}
	} else if _, err := io.WriteString(w, `<div class="code-block">`); err != nil {
		return err
	}
	if err := c.formatter.Format(w, c.style, it); err != nil {
		return fmt.Errorf("format code: %w", err)
	}
	_, err = io.WriteString(w, "</div>\n")
	return err
}

// WriteCSS writes the stylesheet for the highlighter's classes.
func (c *ChromaRenderer) WriteCSS(w io.Writer) error {
	return c.formatter.WriteCSS(w, c.style)
}
