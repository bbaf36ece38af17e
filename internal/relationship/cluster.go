package relationship

import (
	"sort"
	"strings"

	"github.com/mnemosyne/mnemosyne/pkg/types"
)

const clusterSnippetLen = 120

// ClusterSummary is a deterministic digest of a group of related items,
// used by search results and graph queries to describe a cluster without
// returning every member's full content.
type ClusterSummary struct {
	Size        int
	TopTags     []string
	Categories  []string
	Snippet     string
	MemberIDs   []string
}

// SummarizeCluster builds a ClusterSummary from a set of items. Output is
// deterministic given the same input set: tags and categories are
// frequency-ranked then ties broken alphabetically, and the snippet is
// drawn from the lexicographically earliest id so repeated calls agree.
func SummarizeCluster(items []types.MemoryItem) ClusterSummary {
	if len(items) == 0 {
		return ClusterSummary{}
	}

	tagCounts := make(map[string]int)
	catCounts := make(map[string]int)
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
		for _, t := range it.Metadata.Tags {
			tagCounts[t]++
		}
		if it.Metadata.Category != "" {
			catCounts[it.Metadata.Category]++
		}
	}
	sort.Strings(ids)

	snippetSource := items[0]
	for _, it := range items {
		if it.ID == ids[0] {
			snippetSource = it
			break
		}
	}
	snippet := snippetSource.Content
	if len(snippet) > clusterSnippetLen {
		snippet = strings.TrimSpace(snippet[:clusterSnippetLen]) + "…"
	}

	return ClusterSummary{
		Size:       len(items),
		TopTags:    rankedKeys(tagCounts, 5),
		Categories: rankedKeys(catCounts, 3),
		Snippet:    snippet,
		MemberIDs:  ids,
	}
}

func rankedKeys(counts map[string]int, limit int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > limit {
		keys = keys[:limit]
	}
	return keys
}
