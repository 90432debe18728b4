package site

// Meta describes the document around the shell: what goes into <head> and
// the footer.
type Meta struct {
	// Title is appended to the selected entry's label in the browser tab.
	Title string
	// Description is the meta description for search results.
	Description string
	// URL is the canonical address of the site.
	URL string
	// Author is the author meta tag.
	Author string
	// Language is the document language (default: "en").
	Language string
	// ThemeColor is the mobile browser theme color.
	ThemeColor string
	// Favicon is the path to the favicon.
	Favicon string

	Footer FooterConfig
}

// Link is a plain hyperlink.
type Link struct {
	Label    string
	URL      string
	External bool
}

// FooterConfig configures the footer.
type FooterConfig struct {
	GitHubURL string
	DocsURL   string
	// License is the license name (e.g., "MIT").
	License   string
	Copyright string
	Links     []Link
}

// DefaultMeta returns the metadata of the published tutorials site.
func DefaultMeta() Meta {
	return Meta{
		Title:       "Autoimpute Tutorials",
		Description: "Tutorials for Autoimpute, a Python package for analysis and implementation of imputation methods.",
		URL:         "https://kearnz.github.io/autoimpute-tutorials/",
		Author:      "Joseph Kearney, Shahid Barkat",
		Language:    "en",
		ThemeColor:  Colors["primary"],
		Footer: FooterConfig{
			GitHubURL: "https://github.com/kearnz/autoimpute",
			DocsURL:   "https://autoimpute.readthedocs.io/en/latest/",
			License:   "MIT",
		},
	}
}

func (m Meta) lang() string {
	if m.Language == "" {
		return "en"
	}
	return m.Language
}
