package nav

// Dropdown is a labeled group of entries that is collapsed until its trigger is
// activated. It knows nothing about the selection; the Shell closes it whenever
// an entry is chosen.
type Dropdown struct {
	label   string
	entries []Entry
	open    bool
}

// NewDropdown creates a closed dropdown.
func NewDropdown(label string, entries []Entry) *Dropdown {
	cp := make([]Entry, len(entries))
	copy(cp, entries)
	return &Dropdown{label: label, entries: cp}
}

// Label returns the trigger text.
func (d *Dropdown) Label() string {
	return d.label
}

// Entries returns the child entries. The slice must not be modified.
func (d *Dropdown) Entries() []Entry {
	return d.entries
}

// IsOpen reports whether the children are visible.
func (d *Dropdown) IsOpen() bool {
	return d.open
}

// Toggle flips the open state.
func (d *Dropdown) Toggle() {
	d.open = !d.open
}

// Close collapses the dropdown. Closing a closed dropdown is a no-op.
func (d *Dropdown) Close() {
	d.open = false
}

// Contains reports whether tag is one of the dropdown's entries.
func (d *Dropdown) Contains(tag Tag) bool {
	for _, e := range d.entries {
		if e.Tag == tag {
			return true
		}
	}
	return false
}
