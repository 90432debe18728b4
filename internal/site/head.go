package site

import (
	"fmt"
	"html"
	"strings"

	json "github.com/goccy/go-json"
)

// Document is one full HTML page.
type Document struct {
	Meta Meta
	// Title is the page-specific part of the tab title.
	Title string
	// CSS is inlined into <head>.
	CSS string
	// Nonce is the CSP nonce for inline styles and scripts.
	Nonce string
	// Scripts are external script URLs loaded at the end of <body>.
	Scripts []string
}

// tabTitle joins the page title with the site title.
func tabTitle(page, site string) string {
	switch {
	case page == "":
		return site
	case site == "":
		return page
	default:
		return page + " · " + site
	}
}

func nonceAttr(nonce string) string {
	if nonce == "" {
		return ""
	}
	return fmt.Sprintf(` nonce="%s"`, html.EscapeString(nonce))
}

// RenderHead generates the <head> section. The <title> is a text slot so
// navigation updates the browser tab.
func RenderHead(doc Document) string {
	var sb strings.Builder
	m := doc.Meta

	sb.WriteString("<head>\n")
	sb.WriteString(`<meta charset="UTF-8">` + "\n")
	sb.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1.0">` + "\n")
	sb.WriteString(fmt.Sprintf(`<title data-slot="title">%s</title>`+"\n", html.EscapeString(tabTitle(doc.Title, m.Title))))

	if m.Description != "" {
		sb.WriteString(fmt.Sprintf(`<meta name="description" content="%s">`+"\n", html.EscapeString(m.Description)))
	}
	if m.Author != "" {
		sb.WriteString(fmt.Sprintf(`<meta name="author" content="%s">`+"\n", html.EscapeString(m.Author)))
	}
	if m.URL != "" {
		sb.WriteString(fmt.Sprintf(`<link rel="canonical" href="%s">`+"\n", html.EscapeString(m.URL)))
	}
	if m.ThemeColor != "" {
		sb.WriteString(fmt.Sprintf(`<meta name="theme-color" content="%s">`+"\n", html.EscapeString(m.ThemeColor)))
	}
	if m.Favicon != "" {
		sb.WriteString(fmt.Sprintf(`<link rel="icon" href="%s">`+"\n", html.EscapeString(m.Favicon)))
	}

	sb.WriteString(renderOpenGraph(m))
	sb.WriteString(renderJSONLD(m, doc.Nonce))

	if doc.CSS != "" {
		sb.WriteString("<style" + nonceAttr(doc.Nonce) + ">\n")
		sb.WriteString(doc.CSS)
		sb.WriteString("\n</style>\n")
	}

	sb.WriteString("</head>\n")
	return sb.String()
}

func renderOpenGraph(m Meta) string {
	var sb strings.Builder

	sb.WriteString(`<meta property="og:type" content="website">` + "\n")
	if m.Title != "" {
		sb.WriteString(fmt.Sprintf(`<meta property="og:title" content="%s">`+"\n", html.EscapeString(m.Title)))
	}
	if m.Description != "" {
		sb.WriteString(fmt.Sprintf(`<meta property="og:description" content="%s">`+"\n", html.EscapeString(m.Description)))
	}
	if m.URL != "" {
		sb.WriteString(fmt.Sprintf(`<meta property="og:url" content="%s">`+"\n", html.EscapeString(m.URL)))
	}
	sb.WriteString(fmt.Sprintf(`<meta property="og:locale" content="%s">`+"\n", html.EscapeString(m.lang())))

	return sb.String()
}

func renderJSONLD(m Meta, nonce string) string {
	data, err := json.Marshal(map[string]any{
		"@context":    "https://schema.org",
		"@type":       "WebSite",
		"name":        m.Title,
		"description": m.Description,
		"url":         m.URL,
		"inLanguage":  m.lang(),
	})
	if err != nil {
		return ""
	}
	// json.Marshal escapes <, > and & so the payload cannot close the tag.
	return fmt.Sprintf(`<script type="application/ld+json"%s>%s</script>`+"\n", nonceAttr(nonce), data)
}

// RenderDocument wraps body in a complete HTML document.
func RenderDocument(doc Document, body string) string {
	var sb strings.Builder

	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString(fmt.Sprintf(`<html lang="%s">`+"\n", html.EscapeString(doc.Meta.lang())))
	sb.WriteString(RenderHead(doc))
	sb.WriteString("<body>\n")
	sb.WriteString(body)
	for _, src := range doc.Scripts {
		sb.WriteString(fmt.Sprintf(`<script src="%s"%s defer></script>`+"\n", html.EscapeString(src), nonceAttr(doc.Nonce)))
	}
	sb.WriteString("</body>\n</html>\n")
	return sb.String()
}
