package content

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gabrielmiguelok/autoimpute-tutorials/internal/markdown"
	"github.com/gabrielmiguelok/autoimpute-tutorials/internal/nav"
)

func TestDefaultLibraryCoversCatalog(t *testing.T) {
	lib, err := Default(markdown.New())
	require.NoError(t, err)
	require.NoError(t, lib.Warm())

	for _, tag := range nav.DefaultCatalog().Tags() {
		p, ok := lib.Page(tag)
		require.True(t, ok, "no page for %s", tag)
		html, err := p.HTML()
		require.NoError(t, err)
		require.NotEmpty(t, html)
	}

	pages := lib.Pages()
	require.Equal(t, nav.TagHome, pages[0].Tag)
	for i := 1; i < len(pages); i++ {
		require.LessOrEqual(t, pages[i-1].Order, pages[i].Order)
	}
}

func TestDefaultLibraryIsComplete(t *testing.T) {
	lib, err := Default(markdown.New())
	require.NoError(t, err)

	var tables, images, code int
	for _, p := range lib.Pages() {
		html, err := p.HTML()
		require.NoError(t, err)
		tables += strings.Count(html, `<table border="1" class="dataframe">`)
		images += strings.Count(html, `<img alt=`)
		code += len(p.CodeBlocks())
	}
	require.Equal(t, 18, tables)
	require.Equal(t, 45, images)
	require.Greater(t, code, 60)

	// Every page closes its code fences, so no HTML ends up inside a <pre>.
	for _, p := range lib.Pages() {
		html, err := p.HTML()
		require.NoError(t, err)
		require.NotContains(t, html, "&lt;/div&gt;", p.Tag)
		require.NotContains(t, html, "&lt;img", p.Tag)
	}
}

func TestPageHTMLIsStable(t *testing.T) {
	lib, err := Default(markdown.New(markdown.WithCodeRenderer(markdown.NewChromaRenderer(markdown.DefaultStyle))))
	require.NoError(t, err)

	p, ok := lib.Page(nav.TagImputerII)
	require.True(t, ok)

	first, err := p.HTML()
	require.NoError(t, err)
	second, err := p.HTML()
	require.NoError(t, err)
	require.Equal(t, first, second)

	require.Contains(t, first, `<table border="1" class="dataframe">`)
	require.Contains(t, first, `data-lang="python"`)
	require.NotEmpty(t, p.CodeBlocks())
}

func TestUnparsedPageHTML(t *testing.T) {
	var zero Page
	_, err := zero.HTML()
	require.ErrorIs(t, err, ErrNotParsed)

	var missing *Page
	_, err = missing.HTML()
	require.ErrorIs(t, err, ErrNotParsed)
}

func TestLoadErrors(t *testing.T) {
	r := markdown.New()

	_, err := Load(fstest.MapFS{}, r)
	require.ErrorIs(t, err, ErrNoPages)

	_, err = Load(fstest.MapFS{
		"a.md": {Data: []byte("---\ntag: x\n---\nbody\n")},
		"b.md": {Data: []byte("---\ntag: x\n---\nother\n")},
	}, r)
	require.ErrorIs(t, err, ErrDuplicateTag)

	_, err = Load(fstest.MapFS{
		"a.md": {Data: []byte("---\ntitle: no tag\n---\nbody\n")},
	}, r)
	require.ErrorIs(t, err, ErrMissingTag)

	_, err = Load(fstest.MapFS{
		"a.md": {Data: []byte("---\ntag: empty\n---\n\n")},
	}, r)
	require.ErrorIs(t, err, ErrEmptyBody)
}

func TestLoadDefaultsTitle(t *testing.T) {
	lib, err := Load(fstest.MapFS{
		"z.md": {Data: []byte("---\ntag: zeta\norder: 2\n---\nZ\n")},
		"a.md": {Data: []byte("---\ntag: alpha\ntitle: Alpha\norder: 1\n---\nA\n")},
	}, markdown.New())
	require.NoError(t, err)

	require.Equal(t, []nav.Tag{"alpha", "zeta"}, lib.Tags())
	p, _ := lib.Page("zeta")
	require.Equal(t, "zeta", p.Title)
}

func writePage(t *testing.T, dir, name, tag, body string) {
	t.Helper()
	src := "---\ntag: " + tag + "\n---\n" + body + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644))
}

func TestWatcherReloads(t *testing.T) {
	dir := t.TempDir()
	writePage(t, dir, "one.md", "one", "# One")

	r := markdown.New()
	lib, err := LoadDir(dir, r)
	require.NoError(t, err)
	store := NewStore(lib)

	reloaded := make(chan *Library, 4)
	w := NewWatcher(dir, store, r, WithDebounce(20*time.Millisecond), OnReload(func(l *Library) {
		reloaded <- l
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)
	writePage(t, dir, "two.md", "two", "# Two")

	select {
	case l := <-reloaded:
		_, ok := l.Page("two")
		require.True(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload")
	}

	_, ok := store.Library().Page("two")
	require.True(t, ok)

	cancel()
	require.NoError(t, <-done)
}

func TestWatcherRunWaitsForReload(t *testing.T) {
	dir := t.TempDir()
	writePage(t, dir, "one.md", "one", "# One")

	r := markdown.New()
	lib, err := LoadDir(dir, r)
	require.NoError(t, err)

	started := make(chan struct{})
	var finished atomic.Bool
	var once sync.Once
	w := NewWatcher(dir, NewStore(lib), r, WithDebounce(10*time.Millisecond), OnReload(func(*Library) {
		once.Do(func() { close(started) })
		time.Sleep(200 * time.Millisecond)
		finished.Store(true)
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	writePage(t, dir, "two.md", "two", "# Two")

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("no reload")
	}
	cancel()
	require.NoError(t, <-done)
	require.True(t, finished.Load(), "Run returned while a reload was running")

	// Events after Run has returned schedule nothing.
	w.schedule()
	w.mu.Lock()
	require.Nil(t, w.timer)
	w.mu.Unlock()
}

func TestReloadKeepsLibraryOnError(t *testing.T) {
	dir := t.TempDir()
	writePage(t, dir, "one.md", "one", "# One")

	r := markdown.New()
	lib, err := LoadDir(dir, r)
	require.NoError(t, err)
	store := NewStore(lib)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.md"), []byte("---\ntag: [\n---\nx\n"), 0o644))
	NewWatcher(dir, store, r).Reload()

	require.Same(t, lib, store.Library())
	require.False(t, strings.Contains(strings.Join(tagStrings(store.Library()), ","), "bad"))
}

func tagStrings(l *Library) []string {
	out := make([]string, 0, l.Len())
	for _, t := range l.Tags() {
		out = append(out, string(t))
	}
	return out
}
