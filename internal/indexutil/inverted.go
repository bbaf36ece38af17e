package indexutil

import "strings"

// TagWeight is the bonus contribution a tag/category token carries over a
// plain content token when scoring a match.
const TagWeight = 2.0

// Inverted maps each token to the set of item ids whose content or
// metadata contains it. It is private to the tier that owns it; callers
// only ever see query results, never the index itself (per the
// concurrency model's "tier indices are private" rule).
type Inverted struct {
	postings map[string]map[string]struct{}
}

// NewInverted returns an empty inverted index.
func NewInverted() *Inverted {
	return &Inverted{postings: make(map[string]map[string]struct{})}
}

// Add indexes content tokens plus the supplied tag/category tokens for id.
func (idx *Inverted) Add(id, content string, tags []string, category string) {
	for _, tok := range Tokenize(content) {
		idx.add(tok, id)
	}
	for _, tag := range tags {
		idx.add(strings.ToLower(tag), id)
	}
	if category != "" {
		idx.add(strings.ToLower(category), id)
	}
}

func (idx *Inverted) add(token, id string) {
	if token == "" {
		return
	}
	set, ok := idx.postings[token]
	if !ok {
		set = make(map[string]struct{})
		idx.postings[token] = set
	}
	set[id] = struct{}{}
}

// Remove drops id from every posting list it appears in. O(index size);
// acceptable because it only runs on delete/update, never on search.
func (idx *Inverted) Remove(id string) {
	for tok, set := range idx.postings {
		delete(set, id)
		if len(set) == 0 {
			delete(idx.postings, tok)
		}
	}
}

// Candidates returns the union of ids posted under any of tokens, along
// with how many distinct query tokens matched each id (used for scoring).
func (idx *Inverted) Candidates(tokens []string) map[string]int {
	hits := make(map[string]int)
	for _, tok := range tokens {
		set, ok := idx.postings[tok]
		if !ok {
			continue
		}
		for id := range set {
			hits[id]++
		}
	}
	return hits
}

// Reset clears the index, used by Rebuild/optimize.
func (idx *Inverted) Reset() {
	idx.postings = make(map[string]map[string]struct{})
}
