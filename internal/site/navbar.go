package site

import (
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/gabrielmiguelok/autoimpute-tutorials/internal/nav"
)

// Query parameters understood on mount. They make every navigation state
// reachable by plain links when the websocket is unavailable.
const (
	ParamPage = "page"
	ParamOpen = "open"
)

// Live events fired by the navbar.
const (
	EventSelect = "select"
	EventToggle = "toggle"
)

// PageURL links to base with tag selected and, when open is set, that
// dropdown expanded.
func PageURL(base string, tag nav.Tag, open string) string {
	q := url.Values{}
	if tag != "" {
		q.Set(ParamPage, string(tag))
	}
	if open != "" {
		q.Set(ParamOpen, open)
	}
	if len(q) == 0 {
		return base
	}
	return base + "?" + q.Encode()
}

// RenderNavbar generates the navigation bar for the shell's current state.
func RenderNavbar(shell *nav.Shell) string {
	var sb strings.Builder
	catalog := shell.Catalog()
	base := catalog.BasePath

	sb.WriteString(`<nav class="navbar navbar-expand-lg" aria-label="Main navigation" data-slot="nav">`)
	sb.WriteString("\n")
	writeNavbarInner(&sb, shell, base)
	sb.WriteString("</nav>\n")
	return sb.String()
}

func writeNavbarInner(sb *strings.Builder, shell *nav.Shell, base string) {
	catalog := shell.Catalog()
	current := shell.Current()

	sb.WriteString(fmt.Sprintf(`<a class="navbar-brand" href="%s"%s>%s</a>`,
		html.EscapeString(base),
		clickAttrs(EventSelect, "tag", string(catalog.Default)),
		html.EscapeString(catalog.Brand)))
	sb.WriteString("\n")

	sb.WriteString(`<ul class="navbar-nav">`)
	sb.WriteString("\n")

	for _, item := range shell.Items() {
		class := "nav-item"
		if item.Active {
			class += " active"
		}
		sb.WriteString(fmt.Sprintf(`<li class="%s">`, class))
		writeEntry(sb, item, "nav-link", base)
		sb.WriteString("</li>\n")
	}

	for _, d := range shell.Dropdowns() {
		open := d.IsOpen()
		class := "nav-item dropdown"
		if d.Contains(current) {
			class += " active"
		}
		sb.WriteString(fmt.Sprintf(`<li class="%s">`, class))
		sb.WriteString("\n")

		// Without the websocket the toggle falls back to a link that opens
		// or closes the menu on a fresh render.
		target := d.Label()
		if open {
			target = ""
		}
		sb.WriteString(fmt.Sprintf(`<a class="nav-link dropdown-toggle" href="%s" role="button" aria-haspopup="true" aria-expanded="%t"%s>%s</a>`,
			html.EscapeString(PageURL(base, current, target)),
			open,
			clickAttrs(EventToggle, "group", d.Label()),
			html.EscapeString(d.Label())))
		sb.WriteString("\n")

		menuClass := "dropdown-menu"
		if open {
			menuClass += " show"
		}
		sb.WriteString(fmt.Sprintf(`<div class="%s">`, menuClass))
		sb.WriteString("\n")
		for _, e := range shell.GroupEntries(d) {
			writeEntry(sb, e, "dropdown-item", base)
		}
		sb.WriteString("</div>\n")
		sb.WriteString("</li>\n")
	}

	sb.WriteString("</ul>\n")
}

// writeEntry writes one activatable link. Disabled entries get no href and
// no click binding.
func writeEntry(sb *strings.Builder, e nav.EntryState, class, base string) {
	label := html.EscapeString(e.Label)

	if e.Disabled {
		sb.WriteString(fmt.Sprintf(`<a class="%s disabled" aria-disabled="true" tabindex="-1">%s</a>`, class, label))
		sb.WriteString("\n")
		return
	}

	current := ""
	if e.Active {
		class += " active"
		current = `<span class="sr-only"> (current)</span>`
	}
	sb.WriteString(fmt.Sprintf(`<a class="%s" href="%s"%s>%s%s</a>`,
		class,
		html.EscapeString(PageURL(base, e.Tag, "")),
		clickAttrs(EventSelect, "tag", string(e.Tag)),
		label,
		current))
	sb.WriteString("\n")
}

func clickAttrs(event, key, value string) string {
	return fmt.Sprintf(` lv-click="%s" lv-value-%s="%s"`, event, key, html.EscapeString(value))
}
