package markdown

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const sample = "# Title\n\n" +
	"Some *text*.\n\n" +
	"```python\nimport pandas as pd\nx = 1 < 2\n```\n\n" +
	"<img src=\"https://example.com/a.png\" alt=\"plot\"/>\n\n" +
	"| a | b |\n|---|---|\n| 1 | 2 |\n"

func TestRenderPassesRawHTML(t *testing.T) {
	out, err := New().RenderString(sample)
	require.NoError(t, err)

	require.Contains(t, out, `<h1 id="title">Title</h1>`)
	require.Contains(t, out, `<img src="https://example.com/a.png" alt="plot"/>`)
	require.Contains(t, out, "<table>")
	require.Contains(t, out, "<td>1</td>")
}

func TestRenderEscapedHTML(t *testing.T) {
	out, err := New(WithEscapedHTML()).RenderString("<b>bold</b>\n")
	require.NoError(t, err)
	require.NotContains(t, out, "<b>bold</b>")
}

func TestPlainRendererEscapesCode(t *testing.T) {
	out, err := New().RenderString(sample)
	require.NoError(t, err)
	require.Contains(t, out, `<pre><code class="language-python">import pandas as pd`)
	require.Contains(t, out, "x = 1 &lt; 2")
}

func TestFencedCodeUsesCodeRenderer(t *testing.T) {
	var gotLang, gotCode string
	calls := 0
	r := New(WithCodeRenderer(CodeRendererFunc(func(w io.Writer, code []byte, lang string) error {
		calls++
		gotLang, gotCode = lang, string(code)
		_, err := io.WriteString(w, "<x-code/>")
		return err
	})))

	out, err := r.RenderString(sample)
	require.NoError(t, err)
	require.Equal(t, 1, calls)
	require.Equal(t, "python", gotLang)
	require.Equal(t, "import pandas as pd\nx = 1 < 2\n", gotCode)
	require.Contains(t, out, "<x-code/>")
	require.NotContains(t, out, "<pre>")
}

func TestIndentedCodeUsesCodeRenderer(t *testing.T) {
	var langs []string
	var codes []string
	r := New(WithCodeRenderer(CodeRendererFunc(func(w io.Writer, code []byte, lang string) error {
		langs = append(langs, lang)
		codes = append(codes, string(code))
		_, err := io.WriteString(w, "<x-code/>")
		return err
	})))

	out, err := r.RenderString("Intro.\n\n    si = SingleImputer()\n    si.fit(df)\n")
	require.NoError(t, err)
	require.Equal(t, []string{""}, langs)
	require.Equal(t, []string{"si = SingleImputer()\nsi.fit(df)\n"}, codes)
	require.Contains(t, out, "<x-code/>")
	require.NotContains(t, out, "<pre>")

	out, err = New().RenderString("    x = 1 < 2\n")
	require.NoError(t, err)
	require.Contains(t, out, "<pre><code>x = 1 &lt; 2")
}

func TestCodeRendererErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	r := New(WithCodeRenderer(CodeRendererFunc(func(io.Writer, []byte, string) error {
		return boom
	})))

	_, err := r.RenderString(sample)
	require.ErrorIs(t, err, boom)
}

func TestChromaRenderer(t *testing.T) {
	c := NewChromaRenderer(DefaultStyle)

	var buf bytes.Buffer
	require.NoError(t, c.RenderCode(&buf, []byte("x = 1 < 2\n"), "python"))
	out := buf.String()
	require.True(t, strings.HasPrefix(out, `<div class="code-block" data-lang="python">`))
	require.Contains(t, out, `class="chroma"`)
	require.Contains(t, out, "&lt;")

	buf.Reset()
	require.NoError(t, c.RenderCode(&buf, []byte("<script>"), "no-such-language"))
	require.NotContains(t, buf.String(), "<script>")

	buf.Reset()
	require.NoError(t, c.WriteCSS(&buf))
	require.Contains(t, buf.String(), ".chroma")
}

func TestCodeBlocks(t *testing.T) {
	blocks := CodeBlocks([]byte(sample + "\n```\nplain\n```\n\nThen:\n\n    indented\n"))
	require.Len(t, blocks, 2)
	require.Equal(t, CodeBlock{Lang: "python", Code: "import pandas as pd\nx = 1 < 2\n"}, blocks[0])
	require.Equal(t, CodeBlock{Lang: "", Code: "plain\n"}, blocks[1])
}

func TestCollectExtensions(t *testing.T) {
	require.Len(t, collectExtensions(nil), 1)
	require.Len(t, collectExtensions([]string{"table", "Table ", "bogus", "footnote"}), 2)

	require.NoError(t, CheckExtensions([]string{"GFM", " footnote"}))
	require.ErrorIs(t, CheckExtensions([]string{"table", "bogus"}), ErrUnknownExtension)
}

func TestRendererOptions(t *testing.T) {
	src := "first line\nsecond line\n\n~~gone~~ and a note[^1]\n\n[^1]: the note\n"

	out, err := New().RenderString(src)
	require.NoError(t, err)
	require.NotContains(t, out, "<br")
	require.Contains(t, out, "<del>gone</del>")
	require.NotContains(t, out, "footnote")

	out, err = New(WithHardWraps(), WithExtensions("footnote")).RenderString(src)
	require.NoError(t, err)
	require.Contains(t, out, "first line<br")
	require.NotContains(t, out, "<del>")
	require.Contains(t, out, `class="footnotes"`)
}
