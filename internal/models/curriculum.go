package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Location addresses a position in the curriculum tree: [unit],
// [unit, chapter] or [unit, chapter, section]. Indices are zero-based
// positions within the active locale's table of contents.
type Location []int

// locationDelim separates tuple elements in a serialized location key.
const locationDelim = ","

// Key serializes the location for use as a cache/map key.
func (l Location) Key() string {
	parts := make([]string, len(l))
	for i, v := range l {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, locationDelim)
}

// ParseKey inverts Key.
func ParseKey(key string) (Location, error) {
	if key == "" {
		return nil, fmt.Errorf("empty location key")
	}
	parts := strings.Split(key, locationDelim)
	if len(parts) > 3 {
		return nil, fmt.Errorf("location key %q has %d components, want at most 3", key, len(parts))
	}
	loc := make(Location, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("location key %q: %w", key, err)
		}
		loc[i] = v
	}
	return loc, nil
}

// Equal reports element-wise equality.
func (l Location) Equal(other Location) bool {
	if len(l) != len(other) {
		return false
	}
	for i := range l {
		if l[i] != other[i] {
			return false
		}
	}
	return true
}

// Child returns a copy of the location with one more index appended.
func (l Location) Child(idx int) Location {
	child := make(Location, len(l), len(l)+1)
	copy(child, l)
	return append(child, idx)
}

// String returns the serialized key form.
func (l Location) String() string {
	return l.Key()
}

// NoNumber marks a chapter without a display number.
const NoNumber = -1

// Section is a leaf of the curriculum tree.
type Section struct {
	URL   string
	Title string
}

// Chapter groups zero or more sections. Number is the display number
// shown in navigation, or NoNumber.
type Chapter struct {
	URL      string
	Title    string
	Number   int
	Sections []Section
}

// Unit is a top-level entry of the table of contents.
type Unit struct {
	URL      string
	Title    string
	Chapters []Chapter
}

// TOC is the table-of-contents tree for one locale.
type TOC struct {
	Units []Unit
}

// Unit returns the unit at the given index, or nil.
func (t *TOC) Unit(i int) *Unit {
	if t == nil || i < 0 || i >= len(t.Units) {
		return nil
	}
	return &t.Units[i]
}

// Chapter returns the chapter addressed by the first two components of
// loc, or nil.
func (t *TOC) Chapter(loc Location) *Chapter {
	if len(loc) < 2 {
		return nil
	}
	u := t.Unit(loc[0])
	if u == nil || loc[1] < 0 || loc[1] >= len(u.Chapters) {
		return nil
	}
	return &u.Chapters[loc[1]]
}

// Section returns the section addressed by loc, or nil.
func (t *TOC) Section(loc Location) *Section {
	if len(loc) < 3 {
		return nil
	}
	ch := t.Chapter(loc)
	if ch == nil || loc[2] < 0 || loc[2] >= len(ch.Sections) {
		return nil
	}
	return &ch.Sections[loc[2]]
}

// PageSequence enumerates every navigable location in visiting order.
type PageSequence []Location

// Pages derives the page sequence by a depth-first walk: a unit with no
// chapters is itself a page, a chapter with no sections is itself a
// page, otherwise every section of the chapter is a page.
func (t *TOC) Pages() PageSequence {
	var pages PageSequence
	for ui, u := range t.Units {
		if len(u.Chapters) == 0 {
			pages = append(pages, Location{ui})
			continue
		}
		for ci, ch := range u.Chapters {
			if len(ch.Sections) == 0 {
				pages = append(pages, Location{ui, ci})
				continue
			}
			for si := range ch.Sections {
				pages = append(pages, Location{ui, ci, si})
			}
		}
	}
	return pages
}

// IndexOf returns the position of loc in the sequence, or -1.
func (ps PageSequence) IndexOf(loc Location) int {
	key := loc.Key()
	for i, p := range ps {
		if p.Key() == key {
			return i
		}
	}
	return -1
}

// SearchDoc is one searchable unit of content, consumed read-only by
// the search index.
type SearchDoc struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Breadcrumbs string `json:"breadcrumbs"`
	Body        string `json:"body"`
}
