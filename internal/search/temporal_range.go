package search

import (
	"context"
	"strings"
	"time"

	"github.com/mnemosyne/mnemosyne/pkg/types"
)

// ResolveRelativeRange turns a relative expression (today, yesterday,
// last week, this month) into an explicit [start,end] window anchored
// at now. Unrecognized expressions resolve to the trailing 24 hours.
func ResolveRelativeRange(expr string, now time.Time) TimeRange {
	switch strings.ToLower(strings.TrimSpace(expr)) {
	case "today":
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		return TimeRange{Start: start, End: now}
	case "yesterday":
		end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		return TimeRange{Start: end.Add(-24 * time.Hour), End: end}
	case "last week":
		return TimeRange{Start: now.Add(-14 * 24 * time.Hour), End: now.Add(-7 * 24 * time.Hour)}
	case "this month":
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return TimeRange{Start: start, End: now}
	default:
		return TimeRange{Start: now.Add(-24 * time.Hour), End: now}
	}
}

// temporalSearch resolves the range (explicit or relative), runs
// TemporalLayer's range query, filters by the text query, and scores
// each hit by proximity to the range midpoint.
func (e *Engine) temporalSearch(ctx context.Context, query types.MemoryQuery, explicit *TimeRange) ([]types.MemorySearchResult, error) {
	if e.ranges == nil {
		return nil, nil
	}
	rng := TimeRange{Start: time.Now().Add(-24 * time.Hour), End: time.Now()}
	if explicit != nil {
		rng = *explicit
	}

	limit := query.Limit
	if limit <= 0 {
		limit = types.InternalMaxLimit
	}
	items := e.ranges.GetMemoriesInRange(rng.Start, rng.End, limit)

	midpoint := rng.Start.Add(rng.End.Sub(rng.Start) / 2)
	span := rng.End.Sub(rng.Start)
	if span <= 0 {
		span = time.Hour
	}

	terms := tokenSet(query.Text)
	out := make([]types.MemorySearchResult, 0, len(items))
	for _, item := range items {
		if len(terms) > 0 && !containsAnyToken(item.Content, terms) {
			continue
		}
		dist := item.CreatedAt.Sub(midpoint)
		if dist < 0 {
			dist = -dist
		}
		proximity := 1 - float64(dist)/float64(span)
		if proximity < 0 {
			proximity = 0
		}
		out = append(out, types.MemorySearchResult{
			Item: item, Score: proximity, Source: types.TierTemporal,
			Explanation: "temporal proximity to range midpoint",
		})
	}
	return out, nil
}

func containsAnyToken(content string, terms map[string]bool) bool {
	contentTokens := tokenSet(content)
	for t := range terms {
		if contentTokens[t] {
			return true
		}
	}
	return false
}
