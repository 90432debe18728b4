// Package nav holds the navigation state of the tutorials site: the catalog of
// menu entries, the currently selected page and the open/closed state of each
// dropdown group.
//
// Nothing in this package renders HTML or reads input. Front-ends (the LiveView
// site and the terminal browser) own a Shell per viewer and call Select and
// Toggle in response to user activations.
package nav

import (
	"errors"
	"fmt"
	"strings"
)

// Tag identifies a content page. It is the Selection of the shell.
type Tag string

// Tags of the pages shipped with the site.
const (
	TagHome       Tag = "home"
	TagContact    Tag = "contact"
	TagImputerI   Tag = "tutorial-part-1"
	TagImputerII  Tag = "tutorial-part-2"
	TagImputerIII Tag = "tutorial-part-3"
	TagComparing  Tag = "tutorial-comparing"
	TagEndToEnd   Tag = "tutorial-end-to-end"
)

// Catalog errors.
var (
	ErrNoDefault     = errors.New("catalog has no default tag")
	ErrEmptyTag      = errors.New("entry has an empty tag")
	ErrEmptyLabel    = errors.New("entry has an empty label")
	ErrDuplicateTag  = errors.New("tag appears more than once")
	ErrDuplicateMenu = errors.New("dropdown label appears more than once")
)

// Entry is a single activatable menu item.
type Entry struct {
	Label    string `mapstructure:"label" yaml:"label"`
	Tag      Tag    `mapstructure:"tag" yaml:"tag"`
	Disabled bool   `mapstructure:"disabled" yaml:"disabled"`
}

// Group is a labeled dropdown of entries.
type Group struct {
	Label   string  `mapstructure:"label" yaml:"label"`
	Entries []Entry `mapstructure:"entries" yaml:"entries"`
}

// Catalog is the static navigation layout of the site. It is built once at
// startup, from configuration or DefaultCatalog, and never mutated.
type Catalog struct {
	Brand    string  `mapstructure:"brand" yaml:"brand"`
	BasePath string  `mapstructure:"base_path" yaml:"base_path"`
	Default  Tag     `mapstructure:"default" yaml:"default"`
	Items    []Entry `mapstructure:"items" yaml:"items"`
	Groups   []Group `mapstructure:"groups" yaml:"groups"`
}

// DefaultCatalog returns the layout of the published tutorials site.
func DefaultCatalog() Catalog {
	return Catalog{
		Brand:    "Autoimpute",
		BasePath: "/autoimpute-tutorials/",
		Default:  TagHome,
		Items: []Entry{
			{Label: "Home", Tag: TagHome},
			{Label: "Contact", Tag: TagContact},
		},
		Groups: []Group{
			{
				Label: "Tutorials",
				Entries: []Entry{
					{Label: "Imputers: Part I", Tag: TagImputerI},
					{Label: "Imputers: Part II", Tag: TagImputerII},
					{Label: "Imputers: Part III", Tag: TagImputerIII},
					{Label: "Comparing Imputation Methods", Tag: TagComparing},
					{Label: "End-to-End Analysis", Tag: TagEndToEnd},
				},
			},
		},
	}
}

// Validate reports the first structural problem in the catalog.
func (c Catalog) Validate() error {
	if strings.TrimSpace(string(c.Default)) == "" {
		return ErrNoDefault
	}

	seen := make(map[Tag]struct{})
	check := func(e Entry) error {
		if strings.TrimSpace(e.Label) == "" {
			return fmt.Errorf("%w (tag %q)", ErrEmptyLabel, e.Tag)
		}
		if strings.TrimSpace(string(e.Tag)) == "" {
			return fmt.Errorf("%w (label %q)", ErrEmptyTag, e.Label)
		}
		if _, dup := seen[e.Tag]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateTag, e.Tag)
		}
		seen[e.Tag] = struct{}{}
		return nil
	}

	for _, e := range c.Items {
		if err := check(e); err != nil {
			return err
		}
	}

	labels := make(map[string]struct{})
	for _, g := range c.Groups {
		if strings.TrimSpace(g.Label) == "" {
			return fmt.Errorf("%w (dropdown)", ErrEmptyLabel)
		}
		if _, dup := labels[g.Label]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateMenu, g.Label)
		}
		labels[g.Label] = struct{}{}
		for _, e := range g.Entries {
			if err := check(e); err != nil {
				return err
			}
		}
	}

	return nil
}

// Tags returns every entry tag in menu order: flat items first, then groups.
func (c Catalog) Tags() []Tag {
	tags := make([]Tag, 0, len(c.Items))
	for _, e := range c.Items {
		tags = append(tags, e.Tag)
	}
	for _, g := range c.Groups {
		for _, e := range g.Entries {
			tags = append(tags, e.Tag)
		}
	}
	return tags
}

// Lookup finds the entry for tag.
func (c Catalog) Lookup(tag Tag) (Entry, bool) {
	for _, e := range c.Items {
		if e.Tag == tag {
			return e, true
		}
	}
	for _, g := range c.Groups {
		for _, e := range g.Entries {
			if e.Tag == tag {
				return e, true
			}
		}
	}
	return Entry{}, false
}

// GroupOf returns the label of the dropdown containing tag.
func (c Catalog) GroupOf(tag Tag) (string, bool) {
	for _, g := range c.Groups {
		for _, e := range g.Entries {
			if e.Tag == tag {
				return g.Label, true
			}
		}
	}
	return "", false
}
