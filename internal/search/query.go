package search

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// ErrBadQuery is returned for input the query grammar cannot parse,
// e.g. a bare trailing field operator ("foo:") or an unknown field.
var ErrBadQuery = errors.New("malformed search query")

// Result is one ranked hit.
type Result struct {
	ID    string
	Title string
}

// queryTerm is a parsed query token: a term, optionally restricted to a
// single field.
type queryTerm struct {
	field string // empty means all fields
	term  string
}

// parseQuery splits input on whitespace into terms and field:term
// qualifiers.
func parseQuery(text string) ([]queryTerm, error) {
	var terms []queryTerm
	for _, raw := range strings.Fields(text) {
		if i := strings.Index(raw, ":"); i >= 0 {
			field, term := raw[:i], raw[i+1:]
			if term == "" {
				return nil, fmt.Errorf("%w: missing term after %q", ErrBadQuery, raw)
			}
			if _, ok := fieldBoosts[field]; !ok {
				return nil, fmt.Errorf("%w: unknown field %q", ErrBadQuery, field)
			}
			terms = append(terms, queryTerm{field: field, term: term})
			continue
		}
		terms = append(terms, queryTerm{term: raw})
	}
	return terms, nil
}

// Query answers a ranked free-text query. Empty input yields an empty
// result list. Ordering is most-relevant-first by summed tf-idf with
// field boosts, with document id as the stable tiebreak.
func (idx *Index) Query(text string) ([]Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	terms, err := parseQuery(text)
	if err != nil {
		return nil, err
	}

	scores := make(map[string]float64)
	for _, qt := range terms {
		for _, token := range analyze(qt.term) {
			if qt.field != "" {
				idx.scoreToken(scores, qt.field, token)
				continue
			}
			for field := range idx.fields {
				idx.scoreToken(scores, field, token)
			}
		}
	}

	results := make([]Result, 0, len(scores))
	for id := range scores {
		results = append(results, Result{ID: id, Title: idx.titles[id]})
	}
	sort.Slice(results, func(i, j int) bool {
		si, sj := scores[results[i].ID], scores[results[j].ID]
		if si != sj {
			return si > sj
		}
		return results[i].ID < results[j].ID
	})
	return results, nil
}

func (idx *Index) scoreToken(scores map[string]float64, field, token string) {
	node := idx.fields[field].lookup(token)
	if node == nil {
		return
	}
	idf := 1 + math.Log(float64(idx.count)/float64(1+node.df))
	boost := fieldBoosts[field]
	for docID, tf := range node.docs {
		scores[docID] += tf * idf * boost
	}
}
