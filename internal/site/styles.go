package site

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
)

// Colors is the site palette. Text colors keep a 4.5:1 contrast on their
// backgrounds.
var Colors = map[string]string{
	"bg":      "#FFFFFF",
	"bgAlt":   "#F8F9FA",
	"bgNav":   "#343A40",
	"bgCode":  "#F6F8FA",
	"bgHover": "#E9ECEF",

	"text":      "#212529",
	"textMuted": "#495057",
	"textNav":   "#E9ECEF",
	"textDim":   "#ADB5BD",

	"primary": "#0062CC",
	"accent":  "#17A2B8",
	"warning": "#856404",
	"warnBg":  "#FFF3CD",

	"border": "#DEE2E6",
}

var (
	FontFamily = `system-ui, -apple-system, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif`
	FontMono   = `SFMono-Regular, ui-monospace, Menlo, Consolas, 'Liberation Mono', monospace`
)

// StyleOption customizes the generated CSS.
type StyleOption func(*styleConfig)

type styleConfig struct {
	colors  map[string]string
	reset   bool
	codeCSS string
}

// WithCustomColors overrides palette entries.
func WithCustomColors(colors map[string]string) StyleOption {
	return func(cfg *styleConfig) {
		maps.Copy(cfg.colors, colors)
	}
}

// WithCodeCSS appends the stylesheet of the code highlighter.
func WithCodeCSS(css string) StyleOption {
	return func(cfg *styleConfig) {
		cfg.codeCSS = css
	}
}

// WithReset toggles the CSS reset.
func WithReset(include bool) StyleOption {
	return func(cfg *styleConfig) {
		cfg.reset = include
	}
}

// RenderStyles generates the site stylesheet. The output is deterministic.
func RenderStyles(opts ...StyleOption) string {
	cfg := &styleConfig{colors: maps.Clone(Colors), reset: true}
	for _, opt := range opts {
		opt(cfg)
	}

	var sb strings.Builder
	if cfg.reset {
		sb.WriteString(cssReset())
	}
	sb.WriteString(cssVariables(cfg.colors))
	sb.WriteString(cssBase())
	sb.WriteString(cssNavbar())
	sb.WriteString(cssDropdown())
	sb.WriteString(cssContent())
	sb.WriteString(cssFooter())
	sb.WriteString(cssAccessibility())
	sb.WriteString(cssResponsive())
	if cfg.codeCSS != "" {
		sb.WriteString("\n")
		sb.WriteString(cfg.codeCSS)
	}
	return sb.String()
}

// codeStyles returns the highlighter CSS when the code renderer has one.
func codeStyles(r any) (string, error) {
	w, ok := r.(interface{ WriteCSS(io.Writer) error })
	if !ok {
		return "", nil
	}
	var sb strings.Builder
	if err := w.WriteCSS(&sb); err != nil {
		return "", fmt.Errorf("code styles: %w", err)
	}
	return sb.String(), nil
}

func cssReset() string {
	return `
*,*::before,*::after{box-sizing:border-box}
html{-webkit-text-size-adjust:100%;tab-size:4}
body{margin:0;line-height:1.6;-webkit-font-smoothing:antialiased}
img,svg{max-width:100%;height:auto}
button{font:inherit}
`
}

func cssVariables(colors map[string]string) string {
	vars := make([]string, 0, len(colors))
	for _, name := range slices.Sorted(maps.Keys(colors)) {
		vars = append(vars, fmt.Sprintf("--color-%s:%s", name, colors[name]))
	}
	return fmt.Sprintf(":root{%s;--font-sans:%s;--font-mono:%s}\n", strings.Join(vars, ";"), FontFamily, FontMono)
}

func cssBase() string {
	return `
body{font-family:var(--font-sans);background:var(--color-bg);color:var(--color-text);min-height:100vh;display:flex;flex-direction:column}
a{color:var(--color-primary)}
h1,h2,h3,h4{line-height:1.25;margin:1.5rem 0 0.75rem}
hr{border:0;border-top:1px solid var(--color-border);margin:0.5rem 0 1rem}
code{font-family:var(--font-mono);font-size:0.875em}
`
}

func cssNavbar() string {
	return `
.navbar{display:flex;flex-wrap:wrap;align-items:center;gap:0.5rem 1rem;padding:0.5rem 1rem;background:var(--color-bgNav);color:var(--color-textNav)}
.navbar-brand{font-size:1.25rem;font-weight:700;color:var(--color-textNav);text-decoration:none;margin-right:1rem}
.navbar-nav{display:flex;flex-direction:column;list-style:none;margin:0;padding:0;width:100%}
.nav-item{position:relative}
.nav-link{display:block;padding:0.5rem 0.75rem;color:var(--color-textDim);text-decoration:none;border-radius:0.25rem;cursor:pointer}
.nav-link:hover{color:var(--color-textNav)}
.nav-item.active>.nav-link{color:#FFFFFF;font-weight:600}
.nav-link.disabled{opacity:0.5;cursor:default;pointer-events:none}
`
}

func cssDropdown() string {
	return `
.dropdown-toggle::after{content:"";display:inline-block;margin-left:0.35em;vertical-align:0.2em;border-top:0.3em solid;border-right:0.3em solid transparent;border-left:0.3em solid transparent}
.dropdown-menu{display:none;min-width:14rem;padding:0.5rem 0;background:var(--color-bg);border:1px solid var(--color-border);border-radius:0.25rem;box-shadow:0 0.5rem 1rem rgba(0,0,0,0.15);z-index:10}
.dropdown-menu.show{display:block}
.dropdown-item{display:block;padding:0.35rem 1.5rem;color:var(--color-text);text-decoration:none;white-space:nowrap}
.dropdown-item:hover{background:var(--color-bgHover)}
.dropdown-item.active{background:var(--color-primary);color:#FFFFFF}
.dropdown-item.disabled{color:var(--color-textDim);pointer-events:none}
`
}

func cssContent() string {
	return `
.content{flex:1;width:100%;max-width:960px;margin:0 auto;padding:1.5rem 1rem 3rem}
.content img{display:block;margin:1rem auto}
.content table{border-collapse:collapse;margin:1rem 0;display:block;overflow-x:auto}
.content th,.content td{border:1px solid var(--color-border);padding:0.4rem 0.75rem;text-align:left}
.content th{background:var(--color-bgAlt)}
.content pre{background:var(--color-bgCode);border:1px solid var(--color-border);border-radius:0.375rem;padding:1rem;overflow-x:auto;line-height:1.45}
.content pre code{font-size:0.85rem}
.content blockquote{margin:1rem 0;padding:0.25rem 1rem;border-left:0.25rem solid var(--color-border);color:var(--color-textMuted)}
.placeholder{margin:3rem auto;max-width:32rem;padding:1.5rem;text-align:center;background:var(--color-warnBg);color:var(--color-warning);border-radius:0.5rem}
.placeholder h1{margin-top:0}
.page-list{list-style:none;padding:0}
.page-list li{padding:0.5rem 0;border-bottom:1px solid var(--color-border)}
`
}

func cssFooter() string {
	return `
.footer{padding:1.5rem 1rem;border-top:1px solid var(--color-border);background:var(--color-bgAlt);color:var(--color-textMuted);font-size:0.875rem;text-align:center}
.footer nav{display:flex;flex-wrap:wrap;justify-content:center;gap:1rem;margin-bottom:0.5rem}
`
}

func cssAccessibility() string {
	return `
.sr-only{position:absolute;width:1px;height:1px;padding:0;margin:-1px;overflow:hidden;clip:rect(0,0,0,0);white-space:nowrap;border:0}
.skip-link{position:absolute;top:-40px;left:0;background:var(--color-primary);color:#FFFFFF;padding:0.5rem 1rem;z-index:1000}
.skip-link:focus{top:0}
:focus-visible{outline:2px solid var(--color-accent);outline-offset:2px}
`
}

func cssResponsive() string {
	return `
@media(min-width:992px){
.navbar-nav{flex-direction:row;width:auto}
.dropdown-menu{position:absolute;top:100%;left:0}
.content{padding:2rem 1.5rem 4rem}
}
`
}
