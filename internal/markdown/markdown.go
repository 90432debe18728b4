// Package markdown converts page sources to HTML. It wraps goldmark with the
// extensions the tutorials rely on (GFM tables, raw HTML) and routes fenced
// code blocks through a pluggable CodeRenderer.
package markdown

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// ErrUnknownExtension is returned by CheckExtensions for a name with no
// goldmark extension behind it.
var ErrUnknownExtension = errors.New("unknown markdown extension")

// Renderer converts Markdown to HTML. It is safe for concurrent use.
type Renderer struct {
	md   goldmark.Markdown
	code CodeRenderer
}

type options struct {
	code       CodeRenderer
	escapeHTML bool
	hardWraps  bool
	extensions []string
}

// Option configures a Renderer.
type Option func(*options)

// WithCodeRenderer sets the fenced code block renderer. The default is
// PlainRenderer.
func WithCodeRenderer(c CodeRenderer) Option {
	return func(o *options) {
		if c != nil {
			o.code = c
		}
	}
}

// WithEscapedHTML escapes raw HTML in the source instead of passing it
// through.
func WithEscapedHTML() Option {
	return func(o *options) { o.escapeHTML = true }
}

// WithHardWraps renders soft line breaks as <br>.
func WithHardWraps() Option {
	return func(o *options) { o.hardWraps = true }
}

// WithExtensions selects goldmark extensions by name. Unknown names are
// ignored. Without this option the renderer uses GFM.
func WithExtensions(names ...string) Option {
	return func(o *options) { o.extensions = append(o.extensions, names...) }
}

// New creates a Renderer.
func New(opts ...Option) *Renderer {
	o := options{code: PlainRenderer{}}
	for _, opt := range opts {
		opt(&o)
	}

	rendererOptions := []renderer.Option{
		renderer.WithNodeRenderers(util.Prioritized(&codeBlockRenderer{code: o.code}, 100)),
	}
	if !o.escapeHTML {
		rendererOptions = append(rendererOptions, html.WithUnsafe())
	}
	if o.hardWraps {
		rendererOptions = append(rendererOptions, html.WithHardWraps())
	}

	md := goldmark.New(
		goldmark.WithExtensions(collectExtensions(o.extensions)...),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(rendererOptions...),
	)

	return &Renderer{md: md, code: o.code}
}

// Render converts src to HTML.
func (r *Renderer) Render(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.md.Convert(src, &buf); err != nil {
		return nil, fmt.Errorf("markdown render: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderString is Render for string sources.
func (r *Renderer) RenderString(src string) (string, error) {
	out, err := r.Render([]byte(src))
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// CodeRenderer returns the renderer used for fenced code.
func (r *Renderer) CodeRenderer() CodeRenderer {
	return r.code
}

// CodeBlock is a fenced code block extracted from a source.
type CodeBlock struct {
	Lang string
	Code string
}

// CodeBlocks returns the fenced code blocks of src in document order.
// Indented blocks hold program output in the tutorials and are left out.
func CodeBlocks(src []byte) []CodeBlock {
	doc := goldmark.DefaultParser().Parse(text.NewReader(src))

	var blocks []CodeBlock
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fenced, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		blocks = append(blocks, CodeBlock{
			Lang: string(fenced.Language(src)),
			Code: string(blockText(fenced, src)),
		})
		return ast.WalkSkipChildren, nil
	})
	return blocks
}

func blockText(n ast.Node, src []byte) []byte {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(src))
	}
	return buf.Bytes()
}

// codeBlockRenderer hands fenced and indented code to a CodeRenderer. Registered with a
// higher priority than goldmark's html renderer so it wins for the kind.
type codeBlockRenderer struct {
	code CodeRenderer
}

func (r *codeBlockRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderCodeBlock)
	reg.Register(ast.KindCodeBlock, r.renderCodeBlock)
}

func (r *codeBlockRenderer) renderCodeBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}

	var lang string
	if n, ok := node.(*ast.FencedCodeBlock); ok {
		if l := n.Language(source); l != nil {
			lang = string(l)
		}
	}
	if err := r.code.RenderCode(w, blockText(node, source), lang); err != nil {
		return ast.WalkStop, fmt.Errorf("render %s block: %w", lang, err)
	}
	return ast.WalkSkipChildren, nil
}

var extensionRegistry = map[string]goldmark.Extender{
	"gfm":           extension.GFM,
	"table":         extension.Table,
	"tables":        extension.Table,
	"strikethrough": extension.Strikethrough,
	"linkify":       extension.Linkify,
	"tasklist":      extension.TaskList,
	"definition":    extension.DefinitionList,
	"footnote":      extension.Footnote,
	"typographer":   extension.Typographer,
}

// CheckExtensions reports the first name WithExtensions would ignore.
func CheckExtensions(names []string) error {
	for _, name := range names {
		if _, ok := extensionRegistry[normalizeExtension(name)]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownExtension, name)
		}
	}
	return nil
}

func normalizeExtension(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func collectExtensions(names []string) []goldmark.Extender {
	if len(names) == 0 {
		return []goldmark.Extender{extension.GFM}
	}

	var extenders []goldmark.Extender
	seen := map[string]struct{}{}
	for _, name := range names {
		key := normalizeExtension(name)
		if _, ok := seen[key]; ok {
			continue
		}
		ext, ok := extensionRegistry[key]
		if !ok {
			continue
		}
		extenders = append(extenders, ext)
		seen[key] = struct{}{}
	}
	return extenders
}
