// Command tutorials serves the Autoimpute tutorials site and browses it from
// the terminal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/gabrielmiguelok/autoimpute-tutorials/internal/config"
	"github.com/gabrielmiguelok/autoimpute-tutorials/internal/content"
	"github.com/gabrielmiguelok/autoimpute-tutorials/internal/markdown"
	"github.com/gabrielmiguelok/autoimpute-tutorials/internal/nav"
	"github.com/gabrielmiguelok/autoimpute-tutorials/internal/tui"
	"github.com/gabrielmiguelok/autoimpute-tutorials/pkg/logging"
)

var version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}

	command, args := os.Args[1], os.Args[2:]

	var err error
	switch command {
	case "serve":
		err = runServe(args)
	case "browse":
		err = runBrowse(args)
	case "render":
		err = runRender(args, os.Stdout)
	case "pages":
		err = runPages(args, os.Stdout)
	case "version", "-v", "--version":
		fmt.Printf("tutorials v%s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil && !errors.Is(err, flag.ErrHelp) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`tutorials v%s

Usage: tutorials <command> [arguments]

Commands:
  serve                Serve the site
  browse               Browse the pages in the terminal
  render <tag>         Print a page as HTML, or as terminal text with --term
  pages                List the pages and their menu entries
  version              Show version
  help                 Show this help

Common flags:
  --config <file>      YAML configuration (default: $TUTORIALS_CONFIG or ./tutorials.yaml)
  --pages <dir>        Read pages from a directory instead of the built-in set

Settings can also be given as TUTORIALS_* environment variables,
e.g. TUTORIALS_SERVER_ADDRESS=:9000.
`, version)
}

// app holds what every command needs.
type app struct {
	cfg      config.Config
	catalog  nav.Catalog
	logger   *logging.SlogLogger
	renderer *markdown.Renderer
	lib      *content.Library
}

type commonFlags struct {
	config string
	pages  string
}

func (f *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.config, "config", "", "configuration file")
	fs.StringVar(&f.pages, "pages", "", "pages directory")
}

func load(f commonFlags, logOut io.Writer) (*app, error) {
	cfg, err := config.Load(f.config)
	if err != nil {
		return nil, err
	}
	if f.pages != "" {
		cfg.Content.Dir = f.pages
	}

	catalog, err := cfg.Catalog()
	if err != nil {
		return nil, err
	}
	logger, err := cfg.Logger(logOut)
	if err != nil {
		return nil, err
	}

	r := cfg.Markdown()
	var lib *content.Library
	if cfg.Content.Dir != "" {
		lib, err = content.LoadDir(cfg.Content.Dir, r)
	} else {
		lib, err = content.Default(r)
	}
	if err != nil {
		return nil, fmt.Errorf("load pages: %w", err)
	}

	return &app{cfg: cfg, catalog: catalog, logger: logger, renderer: r, lib: lib}, nil
}

func (a *app) watching() bool {
	return a.cfg.Content.Watch && a.cfg.Content.Dir != ""
}

func runBrowse(args []string) error {
	var common commonFlags
	fs := flag.NewFlagSet("browse", flag.ContinueOnError)
	common.register(fs)
	style := fs.String("style", tui.DefaultStyle, "glamour style (dark, light, notty)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := load(common, io.Discard)
	if err != nil {
		return err
	}

	p := tea.NewProgram(
		tui.New(a.catalog, a.lib, tui.WithRenderer(tui.NewGlamour(*style))),
		tea.WithAltScreen(),
	)

	if a.watching() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		w := content.NewWatcher(a.cfg.Content.Dir, content.NewStore(a.lib), a.renderer,
			content.OnReload(func(lib *content.Library) {
				p.Send(tui.LibraryMsg{Library: lib})
			}),
		)
		go w.Run(ctx)
	}

	_, err = p.Run()
	return err
}

func runRender(args []string, out io.Writer) error {
	var common commonFlags
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	common.register(fs)
	termOut := fs.Bool("term", false, "render for the terminal")
	style := fs.String("style", tui.DefaultStyle, "glamour style for --term")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: tutorials render [--term] <tag>")
	}
	tag := nav.Tag(fs.Arg(0))

	a, err := load(common, io.Discard)
	if err != nil {
		return err
	}

	title := string(tag)
	if e, ok := a.catalog.Lookup(tag); ok {
		title = e.Label
	}

	if *termOut {
		width := 80
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
			width = w
		}
		text, err := tui.RenderPage(tui.NewGlamour(*style), a.lib, tag, title, width)
		if err != nil {
			return err
		}
		_, err = io.WriteString(out, text)
		return err
	}

	page, ok := a.lib.Page(tag)
	if !ok {
		return fmt.Errorf("no page for %q", tag)
	}
	html, err := page.HTML()
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, html)
	return err
}

func runPages(args []string, out io.Writer) error {
	var common commonFlags
	fs := flag.NewFlagSet("pages", flag.ContinueOnError)
	common.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := load(common, io.Discard)
	if err != nil {
		return err
	}

	for _, p := range a.lib.Pages() {
		menu := "-"
		if e, ok := a.catalog.Lookup(p.Tag); ok {
			menu = e.Label
			if g, ok := a.catalog.GroupOf(p.Tag); ok {
				menu = g + " / " + menu
			}
		}
		fmt.Fprintf(out, "%-22s %-40s %s\n", p.Tag, p.Title, menu)
	}

	var unbound []string
	for _, tag := range a.catalog.Tags() {
		if _, ok := a.lib.Page(tag); !ok {
			unbound = append(unbound, string(tag))
		}
	}
	if len(unbound) > 0 {
		fmt.Fprintf(out, "\nno page yet: %s\n", strings.Join(unbound, ", "))
	}
	return nil
}
