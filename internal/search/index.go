// Package search implements full-text search over curriculum metadata:
// an inverted index over title, breadcrumb and body fields with a small
// query grammar and tf-idf ranking.
package search

import (
	"math"
	"strings"
	"unicode"

	"github.com/avikon/lessonview/internal/models"
)

const maxWordLengthToIndex = 80

// Field boosts applied at query time.
var fieldBoosts = map[string]float64{
	"title":       2.0,
	"breadcrumbs": 1.5,
	"body":        1.0,
}

// trieNode is a node in the character-trie inverted index. Each node
// holds the postings for the token spelled by the path to it.
type trieNode struct {
	docs     map[string]float64 // doc id -> term frequency weight
	df       int                // document frequency
	children map[rune]*trieNode
}

func newTrieNode() *trieNode {
	return &trieNode{
		docs:     make(map[string]float64),
		children: make(map[rune]*trieNode),
	}
}

// fieldIndex is the inverted index for a single field.
type fieldIndex struct {
	root *trieNode
}

func newFieldIndex() *fieldIndex {
	return &fieldIndex{root: newTrieNode()}
}

func (fi *fieldIndex) add(docID, token string, weight float64) {
	if token == "" {
		return
	}
	node := fi.root
	for _, ch := range token {
		child, ok := node.children[ch]
		if !ok {
			child = newTrieNode()
			node.children[ch] = child
		}
		node = child
	}
	if _, seen := node.docs[docID]; !seen {
		node.df++
	}
	node.docs[docID] = weight
}

func (fi *fieldIndex) lookup(token string) *trieNode {
	node := fi.root
	for _, ch := range token {
		child, ok := node.children[ch]
		if !ok {
			return nil
		}
		node = child
	}
	return node
}

// Index is the full-text index over the locale's search documents.
// Built once per locale load; read-only afterwards.
type Index struct {
	fields map[string]*fieldIndex
	titles map[string]string // doc id -> title, for result assembly
	count  int
}

// New creates an empty index with the standard curriculum fields.
func New() *Index {
	fields := make(map[string]*fieldIndex, len(fieldBoosts))
	for name := range fieldBoosts {
		fields[name] = newFieldIndex()
	}
	return &Index{
		fields: fields,
		titles: make(map[string]string),
	}
}

// Add indexes one search document.
func (idx *Index) Add(doc models.SearchDoc) {
	if doc.ID == "" {
		return
	}
	if _, seen := idx.titles[doc.ID]; !seen {
		idx.count++
	}
	idx.titles[doc.ID] = doc.Title

	idx.addField(doc.ID, "title", doc.Title)
	idx.addField(doc.ID, "breadcrumbs", doc.Breadcrumbs)
	idx.addField(doc.ID, "body", doc.Body)
}

func (idx *Index) addField(docID, field, text string) {
	freq := make(map[string]int)
	for _, token := range analyze(text) {
		freq[token]++
	}
	for token, count := range freq {
		idx.fields[field].add(docID, token, math.Sqrt(float64(count)))
	}
}

// Len returns the number of indexed documents.
func (idx *Index) Len() int {
	return idx.count
}

// analyze tokenizes text and runs the pipeline: lowercase, stop-word
// filter, stemmer.
func analyze(text string) []string {
	var out []string
	for _, token := range tokenize(text) {
		if stopWords[token] {
			continue
		}
		if stemmed := stem(token); stemmed != "" {
			out = append(out, stemmed)
		}
	}
	return out
}

// tokenize splits text on anything that is not a letter, digit or
// apostrophe, lowercasing as it goes.
func tokenize(text string) []string {
	var tokens []string
	var word strings.Builder

	flush := func() {
		if word.Len() == 0 {
			return
		}
		token := word.String()
		if len(token) <= maxWordLengthToIndex {
			tokens = append(tokens, token)
		}
		word.Reset()
	}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' {
			word.WriteRune(unicode.ToLower(r))
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true,
	"at": true, "be": true, "but": true, "by": true, "can": true,
	"do": true, "for": true, "from": true, "has": true, "have": true,
	"how": true, "if": true, "in": true, "into": true, "is": true,
	"it": true, "its": true, "no": true, "not": true, "of": true,
	"on": true, "or": true, "so": true, "than": true, "that": true,
	"the": true, "their": true, "then": true, "there": true,
	"these": true, "they": true, "this": true, "to": true, "was": true,
	"we": true, "what": true, "when": true, "which": true, "will": true,
	"with": true, "you": true, "your": true,
}

// stem strips common English suffixes, longest first, so that inflected
// query terms and document terms meet at the same trie path.
func stem(word string) string {
	if len(word) <= 2 {
		return word
	}

	for _, s := range []struct {
		suffix string
		keep   int
	}{{"ies", 3}, {"es", 2}, {"s", 2}} {
		if strings.HasSuffix(word, s.suffix) && len(word)-len(s.suffix) >= s.keep {
			word = word[:len(word)-len(s.suffix)]
			break
		}
	}

	if strings.HasSuffix(word, "ed") && len(word) > 4 {
		word = word[:len(word)-2]
	} else if strings.HasSuffix(word, "ing") && len(word) > 5 {
		word = word[:len(word)-3]
	}

	for _, suffix := range []string{
		"tion", "sion", "ment", "ness", "ance", "ence",
		"able", "ible", "ful", "less", "ity", "ous", "ive",
	} {
		if strings.HasSuffix(word, suffix) && len(word) > len(suffix)+2 {
			word = word[:len(word)-len(suffix)]
			break
		}
	}

	for _, suffix := range []string{"ly", "er", "est"} {
		if strings.HasSuffix(word, suffix) && len(word) > len(suffix)+2 {
			word = word[:len(word)-len(suffix)]
			break
		}
	}

	return word
}
