package content

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"

	"github.com/gabrielmiguelok/autoimpute-tutorials/internal/markdown"
	"github.com/gabrielmiguelok/autoimpute-tutorials/internal/nav"
)

//go:embed pages/*.md
var embedded embed.FS

// ErrDuplicateTag is returned when two pages declare the same tag.
var ErrDuplicateTag = errors.New("duplicate page tag")

// ErrNoPages is returned when a directory holds no Markdown files.
var ErrNoPages = errors.New("no pages found")

// Library is an immutable set of pages keyed by tag.
type Library struct {
	pages map[nav.Tag]*Page
	order []*Page
}

// Default loads the pages compiled into the binary.
func Default(r *markdown.Renderer) (*Library, error) {
	sub, err := fs.Sub(embedded, "pages")
	if err != nil {
		return nil, err
	}
	return Load(sub, r)
}

// LoadDir loads the pages of an on-disk directory.
func LoadDir(dir string, r *markdown.Renderer) (*Library, error) {
	return Load(os.DirFS(dir), r)
}

// Load reads every *.md file at the root of fsys.
func Load(fsys fs.FS, r *markdown.Renderer) (*Library, error) {
	names, err := fs.Glob(fsys, "*.md")
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	if len(names) == 0 {
		return nil, ErrNoPages
	}

	lib := &Library{pages: make(map[nav.Tag]*Page, len(names))}
	for _, name := range names {
		src, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		p, err := ParsePage(path.Clean(name), src, r)
		if err != nil {
			return nil, err
		}
		if prev, dup := lib.pages[p.Tag]; dup {
			return nil, fmt.Errorf("%w %q in %s and %s", ErrDuplicateTag, p.Tag, prev.Path, p.Path)
		}
		lib.pages[p.Tag] = p
		lib.order = append(lib.order, p)
	}

	sort.SliceStable(lib.order, func(i, j int) bool {
		if lib.order[i].Order != lib.order[j].Order {
			return lib.order[i].Order < lib.order[j].Order
		}
		return lib.order[i].Tag < lib.order[j].Tag
	})
	return lib, nil
}

// Page returns the page bound to tag.
func (l *Library) Page(tag nav.Tag) (*Page, bool) {
	p, ok := l.pages[tag]
	return p, ok
}

// Pages returns the pages sorted by their order field.
func (l *Library) Pages() []*Page {
	return l.order
}

// Tags returns the bound tags in page order.
func (l *Library) Tags() []nav.Tag {
	tags := make([]nav.Tag, len(l.order))
	for i, p := range l.order {
		tags[i] = p.Tag
	}
	return tags
}

// Len returns the number of pages.
func (l *Library) Len() int {
	return len(l.order)
}

// Warm renders every page once so that render errors surface at startup.
func (l *Library) Warm() error {
	var errs []error
	for _, p := range l.order {
		if _, err := p.HTML(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
