package nav

// Shell is the single owner of "what is currently displayed". It is not safe
// for concurrent use; each viewer gets its own Shell and drives it from one
// event loop.
type Shell struct {
	catalog   Catalog
	bound     map[Tag]struct{}
	current   Tag
	dropdowns []*Dropdown
	byLabel   map[string]*Dropdown
}

// EntryState is an Entry annotated for rendering.
type EntryState struct {
	Entry
	// Active marks the entry matching the current selection. Cosmetic only.
	Active bool
}

// NewShell creates a shell positioned on the catalog default. bound lists the
// tags that have a content page; any other tag renders the placeholder.
func NewShell(catalog Catalog, bound []Tag) *Shell {
	s := &Shell{
		catalog: catalog,
		bound:   make(map[Tag]struct{}, len(bound)),
		current: catalog.Default,
		byLabel: make(map[string]*Dropdown, len(catalog.Groups)),
	}
	for _, t := range bound {
		s.bound[t] = struct{}{}
	}
	for _, g := range catalog.Groups {
		d := NewDropdown(g.Label, g.Entries)
		s.dropdowns = append(s.dropdowns, d)
		s.byLabel[g.Label] = d
	}
	return s
}

// Catalog returns the layout the shell was built from.
func (s *Shell) Catalog() Catalog {
	return s.catalog
}

// Current returns the selection.
func (s *Shell) Current() Tag {
	return s.current
}

// Select moves the selection to tag. Tags outside the catalog are accepted and
// simply leave the content region in placeholder state. Every open dropdown is
// closed so none stays over the newly shown page.
func (s *Shell) Select(tag Tag) {
	s.current = tag
	for _, d := range s.dropdowns {
		d.Close()
	}
}

// Mounted returns the tag whose page is shown, or false in placeholder state.
func (s *Shell) Mounted() (Tag, bool) {
	if s.IsBound(s.current) {
		return s.current, true
	}
	return "", false
}

// IsBound reports whether tag has a content page.
func (s *Shell) IsBound(tag Tag) bool {
	_, ok := s.bound[tag]
	return ok
}

// Toggle flips the dropdown with the given label. It returns false when there
// is no such dropdown.
func (s *Shell) Toggle(label string) bool {
	d, ok := s.byLabel[label]
	if !ok {
		return false
	}
	d.Toggle()
	return true
}

// Dropdown returns the dropdown with the given label.
func (s *Shell) Dropdown(label string) (*Dropdown, bool) {
	d, ok := s.byLabel[label]
	return d, ok
}

// Dropdowns returns the dropdowns in catalog order.
func (s *Shell) Dropdowns() []*Dropdown {
	return s.dropdowns
}

// Items returns the flat menu entries with their active flag.
func (s *Shell) Items() []EntryState {
	return s.annotate(s.catalog.Items)
}

// GroupEntries returns a dropdown's entries with their active flag.
func (s *Shell) GroupEntries(d *Dropdown) []EntryState {
	return s.annotate(d.Entries())
}

func (s *Shell) annotate(entries []Entry) []EntryState {
	out := make([]EntryState, len(entries))
	for i, e := range entries {
		out[i] = EntryState{Entry: e, Active: e.Tag == s.current}
	}
	return out
}

// Title returns the label of the current selection, or the raw tag when the
// catalog has no entry for it.
func (s *Shell) Title() string {
	if e, ok := s.catalog.Lookup(s.current); ok {
		return e.Label
	}
	return string(s.current)
}
