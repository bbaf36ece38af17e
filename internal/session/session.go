// Package session implements SessionLayer, the ephemeral, process-lifetime
// tier with least-recently-accessed eviction.
package session

import (
	"context"
	"log"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/mnemosyne/mnemosyne/internal/config"
	"github.com/mnemosyne/mnemosyne/internal/layer"
	"github.com/mnemosyne/mnemosyne/pkg/types"
)

// ActivityCounts are the rolling counters getSessionStats reports.
type ActivityCounts struct {
	Stores     int64
	Searches   int64
	Retrievals int64
}

// Stats is SessionLayer's extra capability beyond the shared surface.
type Stats struct {
	ActiveSince      time.Time
	ActiveMinutes    float64
	AverageItemAge   time.Duration
	MostAccessedID   string
	MostAccessedHits int64
	Activity         ActivityCounts
}

// Layer is the ephemeral tier. Default capacity: 50 items, 1 MiB, no TTL.
type Layer struct {
	*layer.BaseLayer

	startedAt time.Time
	activity  ActivityCounts

	// tracker mirrors last-access recency independently of BaseLayer's
	// internal map so eviction can ask "who is least-recently-used"
	// without reaching into the tier's private state.
	tracker *lru.LRU[string, struct{}]
}

// New constructs a SessionLayer. cfg.MaxItems bounds both the tier's live
// item set and the LRU tracker sizing.
func New(cfg config.TierConfig, logger *log.Logger) *Layer {
	if logger == nil {
		logger = log.Default()
	}
	l := &Layer{startedAt: time.Now()}

	trackerSize := cfg.MaxItems
	if trackerSize <= 0 {
		trackerSize = 1 << 20
	}
	tracker, _ := lru.NewLRU[string, struct{}](trackerSize, func(key string, _ struct{}) {})
	l.tracker = tracker

	l.BaseLayer = layer.New(types.TierSession, cfg, logger, l.evictLRU)
	return l
}

// evictLRU picks the least-recently-accessed id per the tracker, falling
// back to the oldest createdAt on tracker/items disagreement.
func (l *Layer) evictLRU(items map[string]types.MemoryItem) (string, bool) {
	if key, _, ok := l.tracker.GetOldest(); ok {
		if _, live := items[key]; live {
			return key, true
		}
	}
	var oldestID string
	var oldest time.Time
	first := true
	for id, item := range items {
		if first || item.CreatedAt.Before(oldest) {
			oldestID, oldest, first = id, item.CreatedAt, false
		}
	}
	return oldestID, !first
}

func (l *Layer) Store(ctx context.Context, partial types.PartialMemoryItem) (types.MemoryItem, error) {
	item, err := l.BaseLayer.Store(ctx, partial)
	if err != nil {
		return item, err
	}
	l.tracker.Add(item.ID, struct{}{})
	l.activity.Stores++
	return item, nil
}

func (l *Layer) Retrieve(ctx context.Context, id string) (*types.MemoryItem, error) {
	item, err := l.BaseLayer.Retrieve(ctx, id)
	if err != nil || item == nil {
		return item, err
	}
	l.tracker.Add(id, struct{}{})
	l.activity.Retrievals++
	return item, nil
}

func (l *Layer) Search(ctx context.Context, query types.MemoryQuery) ([]types.MemorySearchResult, error) {
	l.activity.Searches++
	return l.BaseLayer.Search(ctx, query)
}

// GetSessionStats reports active minutes, average item age, the
// most-accessed item, and rolling activity counters.
func (l *Layer) GetSessionStats() Stats {
	items := l.Items()
	stats := Stats{
		ActiveSince:   l.startedAt,
		ActiveMinutes: time.Since(l.startedAt).Minutes(),
		Activity:      l.activity,
	}

	if len(items) == 0 {
		return stats
	}

	var totalAge time.Duration
	now := time.Now()
	for id, item := range items {
		totalAge += now.Sub(item.CreatedAt)
		if item.AccessCount > stats.MostAccessedHits {
			stats.MostAccessedHits = item.AccessCount
			stats.MostAccessedID = id
		}
	}
	stats.AverageItemAge = totalAge / time.Duration(len(items))
	return stats
}

// GetPromotionCandidates returns ids eligible for promotion to Project:
// priority >= 8, or access count >= 3, or tagged promote/important —
// excluding items with priority <= 3 and access count < 2.
func (l *Layer) GetPromotionCandidates() []string {
	items := l.Items()
	var ids []string
	for id, item := range items {
		if item.Metadata.Priority <= 3 && item.AccessCount < 2 {
			continue
		}
		if item.Metadata.Priority >= 8 ||
			item.AccessCount >= 3 ||
			item.Metadata.HasAnyTag("promote", "important") {
			ids = append(ids, id)
		}
	}
	return ids
}

// Clear purges every live item one at a time and then empties the LRU
// tracker. No lock is held across the whole pass, so it is not atomic: an
// item stored while Clear runs can survive it.
func (l *Layer) Clear() {
	ctx := context.Background()
	for id := range l.Items() {
		l.BaseLayer.Purge(ctx, id)
	}
	l.tracker.Purge()
}

// Backup returns an ephemeral identifier; session data cannot be restored
// across process boundaries, so Restore is always a no-op returning false.
func (l *Layer) Backup(ctx context.Context) (string, error) {
	return layer.NewBackupID(), nil
}

func (l *Layer) Restore(ctx context.Context, backupID string) (bool, error) {
	return false, nil
}
