package relationship

import (
	"time"

	"github.com/google/uuid"

	"github.com/mnemosyne/mnemosyne/pkg/types"
)

// RecordVersion appends a new version to itemID's history, linked to
// its most recent prior version if one exists. The chain is append-only:
// callers never mutate a stored MemoryVersion.
func (e *Engine) RecordVersion(itemID string, change types.ChangeType, payload types.VersionPayload, actor string, now time.Time) types.MemoryVersion {
	e.mu.Lock()
	defer e.mu.Unlock()

	history := e.versions[itemID]
	parentID := ""
	if n := len(history); n > 0 {
		parentID = history[n-1].VersionID
	}

	v := types.MemoryVersion{
		ItemID:    itemID,
		Version:   len(history) + 1,
		Change:    change,
		ParentID:  parentID,
		VersionID: uuid.NewString(),
		Actor:     actor,
		Timestamp: now,
		Payload:   payload,
	}
	e.versions[itemID] = append(history, v)
	return v
}

// GetVersions returns itemID's full version history in chronological order.
func (e *Engine) GetVersions(itemID string) []types.MemoryVersion {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]types.MemoryVersion(nil), e.versions[itemID]...)
}

// GetVersionAt returns the version active as-of timestamp t, or nil if
// the item did not exist yet.
func (e *Engine) GetVersionAt(itemID string, t time.Time) *types.MemoryVersion {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var best *types.MemoryVersion
	for i, v := range e.versions[itemID] {
		if v.Timestamp.After(t) {
			break
		}
		best = &e.versions[itemID][i]
	}
	return best
}
