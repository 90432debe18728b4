package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gabrielmiguelok/autoimpute-tutorials/internal/markdown"
	"github.com/gabrielmiguelok/autoimpute-tutorials/internal/nav"
	"github.com/gabrielmiguelok/autoimpute-tutorials/pkg/core"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tutorials.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TUTORIALS_CONFIG", "")
	t.Chdir(t.TempDir())

	c, err := Load("")
	require.NoError(t, err)

	require.Equal(t, ":8080", c.Server.Address)
	require.Equal(t, 15*time.Second, c.Server.ShutdownTimeout)
	require.Equal(t, "info", c.Log.Level)
	require.False(t, c.Content.Watch)

	catalog, err := c.Catalog()
	require.NoError(t, err)
	require.Equal(t, nav.DefaultCatalog(), catalog)

	require.Equal(t, core.DefaultConfig().Timeouts, c.LiveConfig().Timeouts)
	require.Equal(t, 10000, c.LiveConfig().MaxSessions)

	_, ok := c.CodeRenderer().(*markdown.ChromaRenderer)
	require.True(t, ok)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TUTORIALS_CONFIG", "")
	t.Setenv("TUTORIALS_SERVER_ADDRESS", "127.0.0.1:9000")
	t.Setenv("TUTORIALS_LOG_JSON", "true")
	t.Setenv("TUTORIALS_LIVE_SESSION_TTL", "90s")
	t.Setenv("TUTORIALS_LIVE_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("TUTORIALS_CONTENT_CODE_STYLE", "none")
	t.Setenv("TUTORIALS_NAV_DEFAULT", "contact")

	c, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "127.0.0.1:9000", c.Server.Address)
	require.True(t, c.Log.JSON)

	live := c.LiveConfig()
	require.Equal(t, 90*time.Second, live.Timeouts.SessionTTL)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, live.AllowedOrigins)

	require.Equal(t, markdown.PlainRenderer{}, c.CodeRenderer())

	catalog, err := c.Catalog()
	require.NoError(t, err)
	require.Equal(t, nav.TagContact, catalog.Default)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  base_path: /tutorials/
log:
  level: debug
content:
  dir: ./pages
  watch: true
live:
  relaxed: true
nav:
  brand: Imputation Notes
  items:
    - label: Start
      tag: home
  groups:
    - label: Guides
      entries:
        - label: Part One
          tag: tutorial-part-1
        - label: Soon
          tag: tutorial-later
          disabled: true
`)

	c, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "debug", c.Log.Level)
	require.Equal(t, "./pages", c.Content.Dir)
	require.True(t, c.Content.Watch)
	require.Equal(t, core.RelaxedTimeoutConfig().ComponentEvent, c.LiveConfig().Timeouts.ComponentEvent)

	catalog, err := c.Catalog()
	require.NoError(t, err)
	require.Equal(t, "/tutorials/", catalog.BasePath)
	require.Equal(t, "Imputation Notes", catalog.Brand)
	require.Equal(t, []nav.Entry{{Label: "Start", Tag: nav.TagHome}}, catalog.Items)
	require.Len(t, catalog.Groups, 1)
	require.Equal(t, "Guides", catalog.Groups[0].Label)
	require.True(t, catalog.Groups[0].Entries[1].Disabled)
}

func TestLoadFileFromEnv(t *testing.T) {
	path := writeConfig(t, "server:\n  address: ':7000'\n")
	t.Setenv("TUTORIALS_CONFIG", path)

	c, err := Load("")
	require.NoError(t, err)
	require.Equal(t, ":7000", c.Server.Address)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = Load(writeConfig(t, "server:\n  base_path: tutorials\n"))
	require.ErrorIs(t, err, ErrBadBasePath)

	_, err = Load(writeConfig(t, "log:\n  level: loud\n"))
	require.Error(t, err)

	_, err = Load(writeConfig(t, "live:\n  max_message_size: 0\n"))
	require.ErrorIs(t, err, core.ErrInvalidMaxMessageSize)

	_, err = Load(writeConfig(t, `
nav:
  items:
    - label: Home
      tag: home
    - label: Again
      tag: home
`))
	require.ErrorIs(t, err, nav.ErrDuplicateTag)

	_, err = Load(writeConfig(t, "content:\n  markdown_extensions: [table, mermaid]\n"))
	require.ErrorIs(t, err, markdown.ErrUnknownExtension)
}

func TestMarkdownSettings(t *testing.T) {
	c, err := Load(writeConfig(t, `
content:
  code_style: none
  hard_wraps: true
  markdown_extensions: [table]
`))
	require.NoError(t, err)
	require.Equal(t, []string{"table"}, c.Content.MarkdownExtensions)

	out, err := c.Markdown().RenderString("a\nb ~~c~~\n\n| x |\n|---|\n| 1 |\n")
	require.NoError(t, err)
	require.Contains(t, out, "a<br")
	require.Contains(t, out, "~~c~~")
	require.Contains(t, out, "<td>1</td>")

	out, err = Config{}.Markdown().RenderString("a\nb ~~c~~\n")
	require.NoError(t, err)
	require.NotContains(t, out, "<br")
	require.Contains(t, out, "<del>c</del>")
}
