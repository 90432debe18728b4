package site

import (
	"context"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/gabrielmiguelok/autoimpute-tutorials/internal/content"
	"github.com/gabrielmiguelok/autoimpute-tutorials/internal/nav"
	"github.com/gabrielmiguelok/autoimpute-tutorials/pkg/core"
	"github.com/gabrielmiguelok/autoimpute-tutorials/pkg/logging"
	"github.com/gabrielmiguelok/autoimpute-tutorials/pkg/router"
)

// View is the live component of one viewer: a navigation shell plus the
// content region it controls. It keeps the library it mounted with, so a
// content reload reaches a viewer on its next page load.
type View struct {
	core.BaseComponent

	site  *Site
	lib   *content.Library
	shell *nav.Shell
}

// Name implements core.Component.
func (v *View) Name() string {
	return "tutorials"
}

// Mount positions the shell on the default page, or on the page and open
// dropdown named in the query string.
func (v *View) Mount(ctx context.Context, params core.Params, session core.Session) error {
	v.lib = v.site.Library()
	v.shell = nav.NewShell(v.site.catalog, v.lib.Tags())

	if tag := params.Get(ParamPage); tag != "" {
		v.shell.Select(nav.Tag(tag))
	}
	if group := params.Get(ParamOpen); group != "" {
		v.shell.Toggle(group)
	}
	return nil
}

// HandleEvent applies select and toggle activations. Other events are
// ignored.
func (v *View) HandleEvent(ctx context.Context, event string, payload map[string]any) error {
	switch event {
	case EventSelect:
		tag, ok := core.PayloadString(payload, "tag")
		if !ok {
			return nil
		}
		v.shell.Select(nav.Tag(tag))
		logging.L(ctx).Debug("page selected", selectFields(ctx, tag, v.shell.IsBound(nav.Tag(tag)))...)

	case EventToggle:
		if group, ok := core.PayloadString(payload, "group"); ok {
			v.shell.Toggle(group)
		}

	default:
		logging.L(ctx).Debug("event ignored", logging.String("event", event))
	}
	return nil
}

// Render implements core.Component.
func (v *View) Render(ctx context.Context) core.Renderer {
	return core.RendererFunc(func(ctx context.Context, w io.Writer) error {
		region, err := renderMain(v.lib, v.shell)
		if err != nil {
			return err
		}

		var body strings.Builder
		body.WriteString(`<a href="#content" class="skip-link">Skip to content</a>`)
		body.WriteString("\n<div data-live-root>\n")
		body.WriteString(RenderNavbar(v.shell))
		body.WriteString(region)
		body.WriteString("</div>\n")
		body.WriteString(RenderFooter(v.site.meta.Footer))

		doc := v.site.document(v.shell.Title(), router.GetCSPNonce(ctx))
		doc.Scripts = []string{v.site.scriptURL()}
		_, err = io.WriteString(w, RenderDocument(doc, body.String()))
		return err
	})
}

// selectFields describes a selection together with the connection it came
// from, when the context carries one.
func selectFields(ctx context.Context, tag string, bound bool) []logging.Field {
	fields := []logging.Field{
		logging.String("tag", tag),
		logging.Bool("bound", bound),
	}
	if socket := core.SocketFromContext(ctx); socket != nil {
		fields = append(fields, logging.String("socket_id", socket.ID()))
	}
	if id := core.SessionFromContext(ctx).GetString("request_id"); id != "" {
		fields = append(fields, logging.String("request_id", id))
	}
	return fields
}

// Shell exposes the navigation state, mainly for tests.
func (v *View) Shell() *nav.Shell {
	return v.shell
}

// renderMain renders the content region: the page bound to the current
// selection, or the placeholder when there is none.
func renderMain(lib *content.Library, shell *nav.Shell) (string, error) {
	var sb strings.Builder
	sb.WriteString(`<main id="content" class="content" data-slot="content">`)
	sb.WriteString("\n")

	section, err := renderSection(lib, shell)
	if err != nil {
		return "", err
	}
	sb.WriteString(section)

	sb.WriteString("</main>\n")
	return sb.String(), nil
}

func renderSection(lib *content.Library, shell *nav.Shell) (string, error) {
	tag, ok := shell.Mounted()
	if !ok {
		return RenderPlaceholder(shell.Current(), shell.Title()), nil
	}
	page, ok := lib.Page(tag)
	if !ok {
		return RenderPlaceholder(shell.Current(), shell.Title()), nil
	}
	return renderArticle(page)
}

func renderArticle(page *content.Page) (string, error) {
	body, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("page %s: %w", page.Tag, err)
	}
	return fmt.Sprintf(`<article class="page" data-page="%s">`+"\n%s</article>\n",
		html.EscapeString(string(page.Tag)), body), nil
}

// RenderPlaceholder is shown when a selection has no page.
func RenderPlaceholder(tag nav.Tag, title string) string {
	return fmt.Sprintf(`<section class="placeholder" data-placeholder="%s">`+"\n"+
		"<h1>Coming soon</h1>\n"+
		"<p>%s has not been published yet.</p>\n"+
		"</section>\n",
		html.EscapeString(string(tag)), html.EscapeString(title))
}
