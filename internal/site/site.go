// Package site renders the tutorials website. The navigation shell is served
// as a live view: the first request renders the whole document, then the
// browser joins over a websocket and each menu activation comes back as a
// diff of the navbar and content slots. Static renders of single pages cover
// clients without JavaScript.
package site

import (
	"errors"
	"fmt"
	"html"
	"net/http"
	"strings"

	"github.com/gabrielmiguelok/autoimpute-tutorials/client"
	"github.com/gabrielmiguelok/autoimpute-tutorials/internal/content"
	"github.com/gabrielmiguelok/autoimpute-tutorials/internal/markdown"
	"github.com/gabrielmiguelok/autoimpute-tutorials/internal/nav"
	"github.com/gabrielmiguelok/autoimpute-tutorials/pkg/core"
	"github.com/gabrielmiguelok/autoimpute-tutorials/pkg/logging"
	"github.com/gabrielmiguelok/autoimpute-tutorials/pkg/router"
)

// AssetsPrefix is where the browser client is served.
const AssetsPrefix = "/_live/"

// ErrNoStore is returned by New without a content store.
var ErrNoStore = errors.New("site: content store is required")

// Site holds what every viewer shares: the catalog, the content and the
// rendered stylesheet.
type Site struct {
	catalog nav.Catalog
	store   *content.Store
	meta    Meta
	styles  string
	logger  logging.Logger
}

type options struct {
	meta   Meta
	code   markdown.CodeRenderer
	styles []StyleOption
	logger logging.Logger
}

// Option configures a Site.
type Option func(*options)

// WithMeta replaces DefaultMeta.
func WithMeta(m Meta) Option {
	return func(o *options) {
		o.meta = m
	}
}

// WithCodeRenderer adds the highlighter stylesheet of c, if it has one.
func WithCodeRenderer(c markdown.CodeRenderer) Option {
	return func(o *options) {
		o.code = c
	}
}

// WithStyles passes options to RenderStyles.
func WithStyles(opts ...StyleOption) Option {
	return func(o *options) {
		o.styles = append(o.styles, opts...)
	}
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// New creates a site over catalog and store.
func New(catalog nav.Catalog, store *content.Store, opts ...Option) (*Site, error) {
	if store == nil || store.Library() == nil {
		return nil, ErrNoStore
	}
	if err := catalog.Validate(); err != nil {
		return nil, fmt.Errorf("site: %w", err)
	}
	if catalog.BasePath == "" {
		catalog.BasePath = "/"
	}

	o := &options{meta: DefaultMeta(), logger: logging.NopLogger{}}
	for _, opt := range opts {
		opt(o)
	}

	styleOpts := o.styles
	if o.code != nil {
		css, err := codeStyles(o.code)
		if err != nil {
			return nil, fmt.Errorf("site: %w", err)
		}
		styleOpts = append(styleOpts, WithCodeCSS(css))
	}

	return &Site{
		catalog: catalog,
		store:   store,
		meta:    o.meta,
		styles:  RenderStyles(styleOpts...),
		logger:  o.logger,
	}, nil
}

// Catalog returns the navigation layout.
func (s *Site) Catalog() nav.Catalog {
	return s.catalog
}

// Library returns the current content.
func (s *Site) Library() *content.Library {
	return s.store.Library()
}

// NewView creates the live component for one viewer.
func (s *Site) NewView() core.Component {
	return &View{site: s}
}

func (s *Site) document(title, nonce string) Document {
	return Document{
		Meta:  s.meta,
		Title: title,
		CSS:   s.styles,
		Nonce: nonce,
	}
}

func (s *Site) scriptURL() string {
	return AssetsPrefix + client.Script + "?v=" + client.Version()
}

// servePage renders one page without the live client. Unknown tags get the
// placeholder with a 404.
func (s *Site) servePage(w http.ResponseWriter, r *http.Request) {
	lib := s.Library()
	tag := nav.Tag(r.PathValue("tag"))

	title := string(tag)
	if e, ok := s.catalog.Lookup(tag); ok {
		title = e.Label
	}

	status := http.StatusOK
	var section string
	if page, ok := lib.Page(tag); ok {
		title = page.Title
		article, err := renderArticle(page)
		if err != nil {
			logging.L(r.Context()).Error("page render failed", logging.String("tag", string(tag)), logging.Err(err))
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		section = article
	} else {
		status = http.StatusNotFound
		section = RenderPlaceholder(tag, title)
	}

	var body strings.Builder
	body.WriteString(s.staticHeader(tag))
	body.WriteString(`<main id="content" class="content">`)
	body.WriteString("\n")
	body.WriteString(section)
	body.WriteString("</main>\n")
	body.WriteString(RenderFooter(s.meta.Footer))

	s.writeDocument(w, r, status, title, body.String())
}

// serveIndex lists every page in the library.
func (s *Site) serveIndex(w http.ResponseWriter, r *http.Request) {
	var body strings.Builder
	body.WriteString(s.staticHeader(""))
	body.WriteString(`<main id="content" class="content">`)
	body.WriteString("\n<h1>Pages</h1>\n")
	body.WriteString(`<ul class="page-list">`)
	body.WriteString("\n")
	for _, p := range s.Library().Pages() {
		body.WriteString(fmt.Sprintf(`<li><a href="%s">%s</a>`,
			html.EscapeString(s.pagePath(p.Tag)), html.EscapeString(p.Title)))
		if p.Summary != "" {
			body.WriteString(" <span>" + html.EscapeString(p.Summary) + "</span>")
		}
		body.WriteString("</li>\n")
	}
	body.WriteString("</ul>\n</main>\n")
	body.WriteString(RenderFooter(s.meta.Footer))

	s.writeDocument(w, r, http.StatusOK, "Pages", body.String())
}

func (s *Site) pagePath(tag nav.Tag) string {
	return "/pages/" + string(tag)
}

// staticHeader links back into the live site.
func (s *Site) staticHeader(tag nav.Tag) string {
	return fmt.Sprintf(`<nav class="navbar" aria-label="Main navigation">`+"\n"+
		`<a class="navbar-brand" href="%s">%s</a>`+"\n"+
		`<a class="nav-link" href="%s">Open in site</a>`+"\n"+
		"</nav>\n",
		html.EscapeString(s.catalog.BasePath),
		html.EscapeString(s.catalog.Brand),
		html.EscapeString(PageURL(s.catalog.BasePath, tag, "")))
}

func (s *Site) writeDocument(w http.ResponseWriter, r *http.Request, status int, title, body string) {
	doc := s.document(title, router.GetCSPNonce(r.Context()))
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if r.Method == http.MethodHead {
		return
	}
	w.Write([]byte(RenderDocument(doc, body)))
}
