// Package resolver maps between hierarchical curriculum locations and
// flat document URLs, including legacy permalink redirection and fix-up
// of ambiguous chapter addresses.
package resolver

import (
	"strings"

	"github.com/avikon/lessonview/internal/models"
)

// Resolver holds the forward and backward address maps for one locale.
// Built once per locale load; read-only afterwards.
type Resolver struct {
	toc      *models.TOC
	pages    models.PageSequence
	locToURL map[string]string
	urlToLoc map[string]models.Location
	legacy   map[string]string
}

// Resolution is the outcome of resolving an address.
type Resolution struct {
	URL      string
	Location models.Location
	// Redirected is set when the requested address was not present in
	// the current tree and the resolver fell back to the first unit.
	Redirected bool
}

// New builds a resolver by walking the TOC tree once. legacy maps old
// permalinks to current URLs and may be nil.
func New(toc *models.TOC, pages models.PageSequence, legacy map[string]string) *Resolver {
	r := &Resolver{
		toc:      toc,
		pages:    pages,
		locToURL: make(map[string]string),
		urlToLoc: make(map[string]models.Location),
		legacy:   legacy,
	}
	for ui, u := range toc.Units {
		r.addEntry(models.Location{ui}, u.URL)
		for ci, ch := range u.Chapters {
			r.addEntry(models.Location{ui, ci}, ch.URL)
			for si, sec := range ch.Sections {
				r.addEntry(models.Location{ui, ci, si}, sec.URL)
			}
		}
	}
	return r
}

func (r *Resolver) addEntry(loc models.Location, url string) {
	r.locToURL[loc.Key()] = url
	if _, taken := r.urlToLoc[url]; !taken {
		r.urlToLoc[url] = loc
	}
}

// URLFor returns the canonical URL for a location.
func (r *Resolver) URLFor(loc models.Location) (string, bool) {
	url, ok := r.locToURL[loc.Key()]
	return url, ok
}

// LocationFor returns the location a URL maps to.
func (r *Resolver) LocationFor(url string) (models.Location, bool) {
	loc, ok := r.urlToLoc[url]
	return loc, ok
}

// Resolve turns a partial address (URL, location, or both) into a final
// {URL, location} pair. Unknown addresses fall back to the first unit
// with Redirected set. A chapter location whose chapter has sections is
// fixed up to a section location: anchor-less URLs descend to section 0,
// anchored URLs descend to the first section whose own URL anchor
// matches. A non-matching anchor leaves the location at the chapter,
// which renders but never appears in the page sequence.
func (r *Resolver) Resolve(url string, loc models.Location) Resolution {
	if len(loc) == 0 && url != "" {
		base, _ := SplitAnchor(url)
		if l, ok := r.urlToLoc[url]; ok {
			loc = l
		} else if l, ok := r.urlToLoc[base]; ok {
			loc = l
		}
	}

	canonical, known := r.locToURL[loc.Key()]
	if len(loc) == 0 || !known {
		fallback := models.Location{0}
		return Resolution{
			URL:        r.locToURL[fallback.Key()],
			Location:   fallback,
			Redirected: true,
		}
	}

	res := Resolution{URL: url, Location: loc}
	if res.URL == "" {
		res.URL = canonical
	}

	// Units never auto-descend; a unit landing page is a page of its own.
	if len(loc) != 2 {
		return res
	}
	ch := r.toc.Chapter(loc)
	if ch == nil || len(ch.Sections) == 0 {
		return res
	}

	_, anchor := SplitAnchor(res.URL)
	if anchor == "" {
		res.Location = loc.Child(0)
		res.URL = ch.Sections[0].URL
		return res
	}
	for si, sec := range ch.Sections {
		if _, secAnchor := SplitAnchor(sec.URL); secAnchor == anchor {
			res.Location = loc.Child(si)
			res.URL = sec.URL
			return res
		}
	}
	// Unmatched anchor: stay at the chapter under its own URL.
	res.URL = canonical
	return res
}

// PreviousPage returns the page before loc in the page sequence,
// clamped at the first page. Locations outside the sequence are
// returned unchanged.
func (r *Resolver) PreviousPage(loc models.Location) models.Location {
	i := r.pages.IndexOf(loc)
	if i <= 0 {
		if i == 0 {
			return r.pages[0]
		}
		return loc
	}
	return r.pages[i-1]
}

// NextPage returns the page after loc in the page sequence, clamped at
// the last page. Locations outside the sequence are returned unchanged.
func (r *Resolver) NextPage(loc models.Location) models.Location {
	i := r.pages.IndexOf(loc)
	if i < 0 {
		return loc
	}
	if i >= len(r.pages)-1 {
		return r.pages[len(r.pages)-1]
	}
	return r.pages[i+1]
}

// sectionSep separates the chapter slug from the section index in
// compact permalinks ("chapterSlug:2").
const sectionSep = ":"

// LegacyRedirect looks up an old permalink in the redirect table. When
// the permalink carries a section suffix the bare slug is also tried,
// with the suffix re-appended to the redirect target. The second return
// is false when no legacy mapping exists and the permalink should be
// used unmodified.
func (r *Resolver) LegacyRedirect(permalink string) (string, bool) {
	if target, ok := r.legacy[permalink]; ok {
		return target, true
	}
	if i := strings.Index(permalink, sectionSep); i >= 0 {
		if target, ok := r.legacy[permalink[:i]]; ok {
			return target + permalink[i:], true
		}
	}
	return "", false
}

// SplitAnchor splits a document URL into its base and anchor fragment.
// The anchor is returned without the leading "#".
func SplitAnchor(url string) (base, anchor string) {
	if i := strings.Index(url, "#"); i >= 0 {
		return url[:i], url[i+1:]
	}
	return url, ""
}
