package indexutil_test

import (
	"testing"

	"github.com/mnemosyne/mnemosyne/internal/indexutil"
)

func TestTokenizeDropsShortTokens(t *testing.T) {
	toks := indexutil.Tokenize("Go is a fast, compiled language!")
	for _, tok := range toks {
		if len(tok) <= 2 {
			t.Errorf("expected tokens longer than 2 chars, got %q", tok)
		}
	}
}

func TestInvertedAddAndCandidates(t *testing.T) {
	idx := indexutil.NewInverted()
	idx.Add("a", "JavaScript is a dynamic language", []string{"lang"}, "programming")
	idx.Add("b", "React is a JavaScript library", nil, "")

	hits := idx.Candidates(indexutil.Tokenize("javascript library"))
	if hits["b"] < hits["a"] {
		t.Errorf("expected item b (matches both tokens) to score at least as high as a: %v", hits)
	}
	if _, ok := hits["a"]; !ok {
		t.Error("expected item a to match token 'javascript'")
	}
}

func TestInvertedRemove(t *testing.T) {
	idx := indexutil.NewInverted()
	idx.Add("a", "unique content here", nil, "")
	idx.Remove("a")
	hits := idx.Candidates(indexutil.Tokenize("unique content"))
	if len(hits) != 0 {
		t.Errorf("expected no hits after remove, got %v", hits)
	}
}

func TestContentHash32Deterministic(t *testing.T) {
	a := indexutil.ContentHash32("UniqueContentXYZ")
	b := indexutil.ContentHash32("UniqueContentXYZ")
	if a != b {
		t.Error("expected deterministic hash for identical content")
	}
	c := indexutil.ContentHash32("DifferentContent")
	if a == c {
		t.Error("expected different hashes for different content")
	}
}

func TestCanonicalCacheKeyOrderIndependent(t *testing.T) {
	k1 := indexutil.CanonicalCacheKey("hello", map[string]bool{"semantic": true, "temporal": true})
	k2 := indexutil.CanonicalCacheKey("HELLO", map[string]bool{"temporal": true, "semantic": true})
	if k1 != k2 {
		t.Error("expected canonical cache key to be case- and order-insensitive")
	}
}
