// Package temporal implements TemporalLayer, the historical tier
// optimized for time-based access.
package temporal

import (
	"context"
	"log"
	"math"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/mnemosyne/mnemosyne/internal/config"
	"github.com/mnemosyne/mnemosyne/internal/layer"
	"github.com/mnemosyne/mnemosyne/pkg/types"
)

const (
	exactWindow = 5 * time.Minute
)

// TemporalContext is the three-list result of getTemporalContext.
type TemporalContext struct {
	Exact  []types.MemoryItem // within +/- 5 minutes of t
	Before []types.MemoryItem // [t-window, t-5min), most-recent-first
	After  []types.MemoryItem // (t+5min, t+window], earliest-first
}

// Patterns is the output of analyzeTemporalPatterns.
type Patterns struct {
	Daily          map[string]int // YYYY-MM-DD -> count
	Weekly         map[string]int // YYYY-Www -> count
	Monthly        map[string]int // YYYY-MM -> count
	PatternStrength float64        // peak-to-average deviation in [0,1]
}

type chronoEntry struct {
	id        string
	createdAt time.Time
}

// Layer is the historical tier. Default capacity: 50000 items, 500 MiB,
// no TTL.
type Layer struct {
	*layer.BaseLayer

	root    string
	flusher *layer.DirtyFlusher

	chrono  []chronoEntry      // sorted ascending by createdAt
	buckets map[string][]string // YYYY-MM-DD -> ids
}

func New(dataRoot string, cfg config.TierConfig, logger *log.Logger, flushPeriod time.Duration) *Layer {
	if logger == nil {
		logger = log.Default()
	}
	l := &Layer{
		root:    filepath.Join(dataRoot, "temporal"),
		buckets: make(map[string][]string),
	}
	l.BaseLayer = layer.New(types.TierTemporal, cfg, logger, l.evictOldest)
	l.flusher = layer.NewDirtyFlusher(flushPeriod, l.flushLocked, logger)
	return l
}

func (l *Layer) Run(ctx context.Context) { l.flusher.Run(ctx) }

func (l *Layer) evictOldest(items map[string]types.MemoryItem) (string, bool) {
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

func dayBucket(t time.Time) string { return t.UTC().Format("2006-01-02") }

func (l *Layer) indexTemporal(item types.MemoryItem) {
	bucket := dayBucket(item.CreatedAt)
	l.buckets[bucket] = append(l.buckets[bucket], item.ID)

	i := sort.Search(len(l.chrono), func(i int) bool { return l.chrono[i].createdAt.After(item.CreatedAt) })
	entry := chronoEntry{id: item.ID, createdAt: item.CreatedAt}
	l.chrono = append(l.chrono, chronoEntry{})
	copy(l.chrono[i+1:], l.chrono[i:])
	l.chrono[i] = entry
}

func (l *Layer) Store(ctx context.Context, partial types.PartialMemoryItem) (types.MemoryItem, error) {
	item, err := l.BaseLayer.Store(ctx, partial)
	if err != nil {
		return item, err
	}
	l.indexTemporal(item)
	l.flusher.MarkDirty()
	return item, nil
}

// GetMemoriesInRange returns items created within [start, end], ascending
// by creation time, capped at limit.
func (l *Layer) GetMemoriesInRange(start, end time.Time, limit int) []types.MemoryItem {
	lo := sort.Search(len(l.chrono), func(i int) bool { return !l.chrono[i].createdAt.Before(start) })
	hi := sort.Search(len(l.chrono), func(i int) bool { return l.chrono[i].createdAt.After(end) })

	out := make([]types.MemoryItem, 0, hi-lo)
	for i := lo; i < hi && len(out) < limit; i++ {
		if item, ok := l.Peek(l.chrono[i].id); ok {
			out = append(out, item)
		}
	}
	return out
}

// GetTemporalContext returns items within +/-5 minutes of t ("exact"),
// [t-window, t-5min) most-recent-first ("before"), and (t+5min, t+window]
// earliest-first ("after"), each capped at limit.
func (l *Layer) GetTemporalContext(t time.Time, window time.Duration, limit int) TemporalContext {
	// dropAt removes items created exactly at a boundary instant, keeping
	// the before/after ranges exclusive at t-5min and t+5min.
	dropAt := func(items []types.MemoryItem, at time.Time) []types.MemoryItem {
		out := items[:0]
		for _, item := range items {
			if !item.CreatedAt.Equal(at) {
				out = append(out, item)
			}
		}
		return out
	}

	exact := l.GetMemoriesInRange(t.Add(-exactWindow), t.Add(exactWindow), limit)

	before := dropAt(l.GetMemoriesInRange(t.Add(-window), t.Add(-exactWindow), len(l.chrono)), t.Add(-exactWindow))
	sort.Slice(before, func(i, j int) bool { return before[i].CreatedAt.After(before[j].CreatedAt) })
	if len(before) > limit {
		before = before[:limit]
	}

	after := dropAt(l.GetMemoriesInRange(t.Add(exactWindow), t.Add(window), len(l.chrono)), t.Add(exactWindow))
	if len(after) > limit {
		after = after[:limit]
	}

	return TemporalContext{Exact: exact, Before: before, After: after}
}

// Search layers temporal scoring (recency + access boosts) on top of
// BaseLayer's lexical search, and honors MemoryQuery.Chronological.
func (l *Layer) Search(ctx context.Context, query types.MemoryQuery) ([]types.MemorySearchResult, error) {
	results, err := l.BaseLayer.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	if query.Chronological {
		return results, nil
	}

	now := time.Now()
	for i := range results {
		age := now.Sub(results[i].Item.CreatedAt)
		var recencyBoost float64
		switch {
		case age < 24*time.Hour:
			recencyBoost = 0.2
		case age < 7*24*time.Hour:
			recencyBoost = 0.1
		case age < 30*24*time.Hour:
			recencyBoost = 0.05
		}
		accessBoost := math.Min(float64(results[i].Item.AccessCount)/10, 0.1)
		results[i].Score += recencyBoost + accessBoost
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Item.ID < results[j].Item.ID
	})
	return results, nil
}

// AnalyzeTemporalPatterns returns daily/weekly/monthly histograms and a
// pattern strength measuring peak-to-average deviation.
func (l *Layer) AnalyzeTemporalPatterns() Patterns {
	daily := make(map[string]int)
	weekly := make(map[string]int)
	monthly := make(map[string]int)

	for _, entry := range l.chrono {
		daily[entry.createdAt.UTC().Format("2006-01-02")]++
		year, week := entry.createdAt.UTC().ISOWeek()
		weekly[sprintfWeek(year, week)]++
		monthly[entry.createdAt.UTC().Format("2006-01")]++
	}

	return Patterns{Daily: daily, Weekly: weekly, Monthly: monthly, PatternStrength: peakToAverage(daily)}
}

func sprintfWeek(year, week int) string {
	return strconv.Itoa(year) + "-W" + padWeek(week)
}

func padWeek(w int) string {
	if w < 10 {
		return "0" + strconv.Itoa(w)
	}
	return strconv.Itoa(w)
}

func peakToAverage(hist map[string]int) float64 {
	if len(hist) == 0 {
		return 0
	}
	var sum, peak float64
	for _, n := range hist {
		sum += float64(n)
		if float64(n) > peak {
			peak = float64(n)
		}
	}
	avg := sum / float64(len(hist))
	if peak == 0 {
		return 0
	}
	strength := (peak - avg) / peak
	if strength < 0 {
		strength = 0
	}
	if strength > 1 {
		strength = 1
	}
	return strength
}

func (l *Layer) Optimize(ctx context.Context) error {
	l.RebuildIndex()
	l.rebuildTemporalIndices()
	return nil
}

func (l *Layer) rebuildTemporalIndices() {
	l.chrono = nil
	l.buckets = make(map[string][]string)
	items := l.Items()
	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return items[ids[i]].CreatedAt.Before(items[ids[j]].CreatedAt) })
	for _, id := range ids {
		item := items[id]
		l.chrono = append(l.chrono, chronoEntry{id: id, createdAt: item.CreatedAt})
		bucket := dayBucket(item.CreatedAt)
		l.buckets[bucket] = append(l.buckets[bucket], id)
	}
}

type snapshotPayload struct {
	Items   []types.MemoryItem `json:"items"`
}

func (l *Layer) itemsPath() string { return filepath.Join(l.root, "items.json") }

func (l *Layer) flushLocked(ctx context.Context) error {
	items, _ := l.Export(ctx)
	if err := layer.WriteSnapshotFile(l.itemsPath(), snapshotPayload{Items: items}); err != nil {
		return types.NewError(types.KindPersistence, "flush temporal snapshot", err)
	}
	return nil
}

func (l *Layer) Close(ctx context.Context) error { return l.flusher.FlushNow(ctx) }

// Backup writes the item set only; the chronological and day-bucket
// indices are not included, and Restore rebuilds them by sorting the
// restored items.
func (l *Layer) Backup(ctx context.Context) (string, error) {
	id := layer.NewBackupID()
	items, _ := l.Export(ctx)
	path := filepath.Join(l.root, "backups", id+".json")
	if err := layer.WriteSnapshotFile(path, snapshotPayload{Items: items}); err != nil {
		return "", types.NewError(types.KindPersistence, "write temporal backup", err)
	}
	return id, nil
}

func (l *Layer) Restore(ctx context.Context, backupID string) (bool, error) {
	path := filepath.Join(l.root, "backups", backupID+".json")
	var payload snapshotPayload
	if err := layer.ReadSnapshotFile(path, &payload); err != nil {
		return false, types.NewError(types.KindPersistence, "read temporal backup", err)
	}
	for id := range l.Items() {
		l.BaseLayer.Purge(ctx, id)
	}
	if _, err := l.Import(ctx, payload.Items); err != nil {
		return false, err
	}
	l.RebuildIndex()
	l.rebuildTemporalIndices()
	return true, nil
}

func (l *Layer) Load(ctx context.Context) error {
	var payload snapshotPayload
	if err := layer.ReadSnapshotFile(l.itemsPath(), &payload); err != nil {
		return nil
	}
	if _, err := l.Import(ctx, payload.Items); err != nil {
		return err
	}
	l.RebuildIndex()
	l.rebuildTemporalIndices()
	return nil
}
