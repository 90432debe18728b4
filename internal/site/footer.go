package site

import (
	"fmt"
	"html"
	"strings"
)

// RenderFooter generates the page footer.
func RenderFooter(cfg FooterConfig) string {
	var sb strings.Builder

	sb.WriteString(`<footer class="footer" role="contentinfo">`)
	sb.WriteString("\n")

	links := make([]Link, 0, len(cfg.Links)+2)
	if cfg.GitHubURL != "" {
		links = append(links, Link{Label: "GitHub", URL: cfg.GitHubURL, External: true})
	}
	if cfg.DocsURL != "" {
		links = append(links, Link{Label: "Documentation", URL: cfg.DocsURL, External: true})
	}
	links = append(links, cfg.Links...)

	if len(links) > 0 {
		sb.WriteString(`<nav aria-label="Footer navigation">`)
		sb.WriteString("\n")
		for _, link := range links {
			sb.WriteString(renderLink(link))
			sb.WriteString("\n")
		}
		sb.WriteString("</nav>\n")
	}

	var notes []string
	if cfg.License != "" {
		notes = append(notes, html.EscapeString(cfg.License)+" License")
	}
	if cfg.Copyright != "" {
		notes = append(notes, html.EscapeString(cfg.Copyright))
	}
	if len(notes) > 0 {
		sb.WriteString("<div>")
		sb.WriteString(strings.Join(notes, " • "))
		sb.WriteString("</div>\n")
	}

	sb.WriteString("</footer>\n")
	return sb.String()
}

func renderLink(link Link) string {
	attrs := ""
	if link.External {
		attrs = ` target="_blank" rel="noopener noreferrer"`
	}
	return fmt.Sprintf(`<a href="%s"%s>%s</a>`,
		html.EscapeString(link.URL), attrs, html.EscapeString(link.Label))
}
