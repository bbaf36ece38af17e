package indexutil

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
)

// ContentHash32 is a 32-bit rolling hash of content, used by Router's
// merge step to deduplicate identical content across tiers.
func ContentHash32(content string) uint32 {
	var h uint32 = 2166136261 // FNV-1a offset basis
	for i := 0; i < len(content); i++ {
		h ^= uint32(content[i])
		h *= 16777619
	}
	return h
}

// CanonicalCacheKey builds a deterministic cache key from a query string
// and the set of enabled search features, for AdvancedSearchEngine's
// content-addressed result cache.
func CanonicalCacheKey(query string, features map[string]bool) string {
	keys := make([]string, 0, len(features))
	for k, v := range features {
		if v {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(strings.ToLower(strings.TrimSpace(query)))
	b.WriteByte('|')
	b.WriteString(strings.Join(keys, ","))

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// FormatUint is a small helper kept next to the hash helpers since most
// callers format a hash alongside a cache key.
func FormatUint(v uint32) string { return strconv.FormatUint(uint64(v), 16) }
