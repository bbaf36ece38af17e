package toolserver

import (
	"time"

	"github.com/mnemosyne/mnemosyne/pkg/types"
)

func parseQuery(args map[string]any) types.MemoryQuery {
	q := types.MemoryQuery{
		Limit:  clampLimit(argInt(args, "limit", types.DefaultQueryLimit)),
		Offset: argInt(args, "offset", 0),
	}
	if text, ok := argString(args, "query"); ok {
		q.Text = text
	}
	filters := types.QueryFilters{
		Tags:        argStringSlice(args, "tags"),
		MinPriority: argInt(args, "minPriority", 0),
		MaxPriority: argInt(args, "maxPriority", 0),
	}
	if v, ok := argString(args, "category"); ok {
		filters.Category = v
	}
	if v, ok := argString(args, "projectId"); ok {
		filters.ProjectID = v
	}
	if v, ok := argString(args, "sessionId"); ok {
		filters.SessionID = v
	}
	if v, ok := argString(args, "createdAfter"); ok {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filters.CreatedAfter = &t
		}
	}
	if v, ok := argString(args, "createdBefore"); ok {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filters.CreatedBefore = &t
		}
	}
	q.Filters = filters
	return q
}
