package nav

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func boundTags() []Tag {
	return DefaultCatalog().Tags()
}

func TestNewShellStartsOnDefault(t *testing.T) {
	s := NewShell(DefaultCatalog(), boundTags())

	require.Equal(t, TagHome, s.Current())
	tag, ok := s.Mounted()
	require.True(t, ok)
	require.Equal(t, TagHome, tag)

	d, ok := s.Dropdown("Tutorials")
	require.True(t, ok)
	require.False(t, d.IsOpen())
}

func TestSelectScenario(t *testing.T) {
	s := NewShell(DefaultCatalog(), boundTags())

	s.Select(TagContact)
	tag, ok := s.Mounted()
	require.True(t, ok)
	require.Equal(t, TagContact, tag)

	s.Select(TagImputerII)
	tag, ok = s.Mounted()
	require.True(t, ok)
	require.Equal(t, TagImputerII, tag)
	require.Equal(t, "Imputers: Part II", s.Title())

	s.Select("unregistered-tag")
	require.Equal(t, Tag("unregistered-tag"), s.Current())
	_, ok = s.Mounted()
	require.False(t, ok)
	require.Equal(t, "unregistered-tag", s.Title())
}

func TestSelectUnboundCatalogTag(t *testing.T) {
	s := NewShell(DefaultCatalog(), []Tag{TagHome})

	s.Select(TagEndToEnd)
	_, ok := s.Mounted()
	require.False(t, ok)
	require.Equal(t, "End-to-End Analysis", s.Title())
}

func TestNestedSelectClosesDropdown(t *testing.T) {
	s := NewShell(DefaultCatalog(), boundTags())
	d, _ := s.Dropdown("Tutorials")

	require.True(t, s.Toggle("Tutorials"))
	require.True(t, d.IsOpen())

	s.Select(TagImputerIII)
	require.False(t, d.IsOpen())

	// already closed
	s.Select(TagComparing)
	require.False(t, d.IsOpen())
}

func TestFlatSelectClosesDropdown(t *testing.T) {
	s := NewShell(DefaultCatalog(), boundTags())
	d, _ := s.Dropdown("Tutorials")

	s.Toggle("Tutorials")
	s.Select(TagContact)
	require.False(t, d.IsOpen())

	s.Toggle("Tutorials")
	s.Select("unregistered-tag")
	require.False(t, d.IsOpen())
}

func TestToggleUnknownGroup(t *testing.T) {
	s := NewShell(DefaultCatalog(), boundTags())
	require.False(t, s.Toggle("Nope"))
}

func TestItemsActiveFlag(t *testing.T) {
	s := NewShell(DefaultCatalog(), boundTags())
	s.Select(TagContact)

	items := s.Items()
	require.Len(t, items, 2)
	require.False(t, items[0].Active)
	require.True(t, items[1].Active)

	d, _ := s.Dropdown("Tutorials")
	for _, e := range s.GroupEntries(d) {
		require.False(t, e.Active, e.Tag)
	}
}

func TestCatalogValidate(t *testing.T) {
	require.NoError(t, DefaultCatalog().Validate())

	c := DefaultCatalog()
	c.Default = ""
	require.ErrorIs(t, c.Validate(), ErrNoDefault)

	c = DefaultCatalog()
	c.Items = append(c.Items, Entry{Label: "Again", Tag: TagHome})
	require.ErrorIs(t, c.Validate(), ErrDuplicateTag)

	c = DefaultCatalog()
	c.Groups = append(c.Groups, Group{Label: "Tutorials"})
	require.ErrorIs(t, c.Validate(), ErrDuplicateMenu)

	c = DefaultCatalog()
	c.Items[0].Label = " "
	err := c.Validate()
	require.True(t, errors.Is(err, ErrEmptyLabel))
}

func TestCatalogLookup(t *testing.T) {
	c := DefaultCatalog()

	group, ok := c.GroupOf(TagEndToEnd)
	require.True(t, ok)
	require.Equal(t, "Tutorials", group)

	_, ok = c.GroupOf(TagHome)
	require.False(t, ok)

	e, ok := c.Lookup(TagComparing)
	require.True(t, ok)
	require.Equal(t, "Comparing Imputation Methods", e.Label)

	require.Len(t, c.Tags(), 7)
}

// The shell is driven through random sequences of activations and must always
// mount exactly the selected page when it is bound, and nothing otherwise.
func TestShellProperties(t *testing.T) {
	catalog := DefaultCatalog()
	all := catalog.Tags()

	rapid.Check(t, func(t *rapid.T) {
		bound := rapid.SliceOfDistinct(rapid.SampledFrom(all), func(tag Tag) Tag { return tag }).Draw(t, "bound")
		s := NewShell(catalog, bound)
		d, _ := s.Dropdown("Tutorials")

		candidates := append([]Tag{"unregistered-tag", "x"}, all...)
		steps := rapid.IntRange(1, 40).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			if rapid.Bool().Draw(t, "toggle") {
				before := d.IsOpen()
				s.Toggle("Tutorials")
				s.Toggle("Tutorials")
				if d.IsOpen() != before {
					t.Fatalf("double toggle changed state")
				}
				s.Toggle("Tutorials")
				continue
			}

			tag := rapid.SampledFrom(candidates).Draw(t, "tag")
			s.Select(tag)

			if s.Current() != tag {
				t.Fatalf("current %q, want %q", s.Current(), tag)
			}
			mounted, ok := s.Mounted()
			if ok != s.IsBound(tag) {
				t.Fatalf("mounted=%v for %q, bound=%v", ok, tag, s.IsBound(tag))
			}
			if ok && mounted != tag {
				t.Fatalf("mounted %q, want %q", mounted, tag)
			}
			if d.IsOpen() {
				t.Fatalf("dropdown left open after selecting %q", tag)
			}

			active := 0
			for _, e := range s.Items() {
				if e.Active {
					active++
				}
			}
			for _, e := range s.GroupEntries(d) {
				if e.Active {
					active++
				}
			}
			if active > 1 {
				t.Fatalf("%d active entries", active)
			}
		}
	})
}
