// Package indexutil holds the tokenizer, inverted index, and content-hash
// primitives shared by every tier's BaseLayer embedding.
package indexutil

import "strings"

// Tokenize lowercases s, strips punctuation, and drops tokens of length
// <= 2, matching BaseLayer's documented search tokenization.
func Tokenize(s string) []string {
	lower := strings.ToLower(s)
	fields := strings.FieldsFunc(lower, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) > 2 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// TokenSet deduplicates Tokenize's output into a set.
func TokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, t := range Tokenize(s) {
		set[t] = struct{}{}
	}
	return set
}
