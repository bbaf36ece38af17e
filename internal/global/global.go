// Package global implements GlobalLayer, the cross-scope persistent tier
// with a deterministic vector index.
package global

import (
	"context"
	"log"
	"path/filepath"
	"sort"
	"time"

	"github.com/mnemosyne/mnemosyne/internal/config"
	"github.com/mnemosyne/mnemosyne/internal/layer"
	"github.com/mnemosyne/mnemosyne/pkg/types"
)

const (
	vectorSimilarityFloor = 0.1
	lexicalWeight         = 0.6
	vectorWeight          = 0.4
	clusterSimilarity     = 0.8
	archiveAge            = 6 * 30 * 24 * time.Hour
	archiveMaxAccess      = 2
)

// Cluster is one group analyzeClusters() returns.
type Cluster struct {
	DominantCategory string
	Size             int
	MemberIDs        []string
}

// GrowthRate reports stores per day/week/month over the trailing window.
type GrowthRate struct {
	PerDay   float64
	PerWeek  float64
	PerMonth float64
}

// VectorBacking is the optional durable store for the vector index (see
// postgres_backing.go). Absence is not a failure: the in-process index
// remains the source of truth and Search/analyzeClusters never depend on
// the backing being reachable.
type VectorBacking interface {
	StoreEmbedding(ctx context.Context, itemID string, vec []float64) error
	DeleteEmbedding(ctx context.Context, itemID string) error
}

// Layer is the cross-scope persistent tier. Default capacity: 10000
// items, 100 MiB, TTL 1 year.
type Layer struct {
	*layer.BaseLayer

	root    string
	flusher *layer.DirtyFlusher
	backing VectorBacking

	vectors map[string][]float64
	stores  []time.Time // store timestamps, for growth-rate reporting
}

// New constructs a GlobalLayer rooted at dataRoot. backing may be nil to
// use the in-process index exclusively.
func New(dataRoot string, cfg config.TierConfig, logger *log.Logger, flushPeriod time.Duration, backing VectorBacking) *Layer {
	if logger == nil {
		logger = log.Default()
	}
	l := &Layer{
		root:    filepath.Join(dataRoot, "global"),
		backing: backing,
		vectors: make(map[string][]float64),
	}
	l.BaseLayer = layer.New(types.TierGlobal, cfg, logger, l.evictOldest)
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

func (l *Layer) Store(ctx context.Context, partial types.PartialMemoryItem) (types.MemoryItem, error) {
	item, err := l.BaseLayer.Store(ctx, partial)
	if err != nil {
		return item, err
	}
	l.indexVector(ctx, item)
	l.stores = append(l.stores, item.CreatedAt)
	l.flusher.MarkDirty()
	return item, nil
}

func (l *Layer) Update(ctx context.Context, id string, content *string, metadata *types.MemoryMetadata) (*types.MemoryItem, error) {
	item, err := l.BaseLayer.Update(ctx, id, content, metadata)
	if err == nil && item != nil {
		l.indexVector(ctx, *item)
		l.flusher.MarkDirty()
	}
	return item, err
}

func (l *Layer) Delete(ctx context.Context, id string) (bool, error) {
	ok, err := l.BaseLayer.Delete(ctx, id)
	if ok {
		delete(l.vectors, id)
		if l.backing != nil {
			if bErr := l.backing.DeleteEmbedding(ctx, id); bErr != nil {
				l.Logger().Printf("global: vector backing delete failed for %s: %v", id, bErr)
			}
		}
		l.flusher.MarkDirty()
	}
	return ok, err
}

func (l *Layer) indexVector(ctx context.Context, item types.MemoryItem) {
	vec := Embed(item.Content, VectorDimension)
	l.vectors[item.ID] = vec
	if l.backing != nil {
		if err := l.backing.StoreEmbedding(ctx, item.ID, vec); err != nil {
			l.Logger().Printf("global: vector backing store failed for %s: %v", item.ID, err)
		}
	}
}

// Search returns the union of base lexical results and vector results
// with similarity >= 0.1; items present in both get a 0.6/0.4 weighted
// score and a joint explanation.
func (l *Layer) Search(ctx context.Context, query types.MemoryQuery) ([]types.MemorySearchResult, error) {
	lexical, err := l.BaseLayer.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	lexByID := make(map[string]types.MemorySearchResult, len(lexical))
	for _, r := range lexical {
		lexByID[r.Item.ID] = r
	}

	if query.Text == "" {
		return lexical, nil
	}

	queryVec := Embed(query.Text, VectorDimension)
	merged := make(map[string]types.MemorySearchResult, len(lexByID))
	for id, vec := range l.vectors {
		sim := CosineSimilarity(queryVec, vec)
		if sim < vectorSimilarityFloor {
			continue
		}
		item, ok := l.Peek(id)
		if !ok {
			continue
		}
		if lexResult, hasLex := lexByID[id]; hasLex {
			score := lexicalWeight*lexResult.Score + vectorWeight*sim
			merged[id] = types.MemorySearchResult{
				Item: item, Score: score, Source: types.TierGlobal,
				Explanation: "lexical+vector match (weighted 0.6/0.4)",
			}
		} else {
			merged[id] = types.MemorySearchResult{
				Item: item, Score: vectorWeight * sim / (lexicalWeight + vectorWeight), Source: types.TierGlobal,
				Explanation: "vector match only",
			}
		}
	}
	for id, r := range lexByID {
		if _, already := merged[id]; !already {
			merged[id] = r
		}
	}

	out := make([]types.MemorySearchResult, 0, len(merged))
	for _, r := range merged {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Item.ID < out[j].Item.ID
	})

	q := query
	q.Normalize(types.InternalMaxLimit)
	start := q.Offset
	if start > len(out) {
		start = len(out)
	}
	end := start + q.Limit
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], nil
}

// AnalyzeClusters groups items by vector cosine similarity >= 0.8 with a
// greedy, single-pass algorithm; returns the dominant category per
// cluster and its size.
func (l *Layer) AnalyzeClusters() []Cluster {
	items := l.Items()
	assigned := make(map[string]bool, len(items))
	var clusters []Cluster

	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if assigned[id] {
			continue
		}
		vec, ok := l.vectors[id]
		if !ok {
			continue
		}
		members := []string{id}
		assigned[id] = true
		categoryCounts := map[string]int{items[id].Metadata.Category: 1}

		for _, otherID := range ids {
			if assigned[otherID] {
				continue
			}
			otherVec, ok := l.vectors[otherID]
			if !ok {
				continue
			}
			if CosineSimilarity(vec, otherVec) >= clusterSimilarity {
				members = append(members, otherID)
				assigned[otherID] = true
				categoryCounts[items[otherID].Metadata.Category]++
			}
		}

		dominant := ""
		best := -1
		for cat, n := range categoryCounts {
			if n > best {
				dominant, best = cat, n
			}
		}
		clusters = append(clusters, Cluster{DominantCategory: dominant, Size: len(members), MemberIDs: members})
	}
	return clusters
}

// GrowthRate reports stores per day/week/month over the last 1/7/30 days.
func (l *Layer) GrowthRate() GrowthRate {
	now := time.Now()
	var day, week, month int
	for _, t := range l.stores {
		age := now.Sub(t)
		if age <= 24*time.Hour {
			day++
		}
		if age <= 7*24*time.Hour {
			week++
		}
		if age <= 30*24*time.Hour {
			month++
		}
	}
	return GrowthRate{PerDay: float64(day), PerWeek: float64(week), PerMonth: float64(month)}
}

// Optimize rebuilds both the inverted and vector indices, then archives
// items older than 6 months with access count < 2 and no recent access.
func (l *Layer) Optimize(ctx context.Context) error {
	l.RebuildIndex()
	for id, item := range l.Items() {
		l.vectors[id] = Embed(item.Content, VectorDimension)
	}

	now := time.Now()
	var toArchive []types.MemoryItem
	for id, item := range l.Items() {
		if now.Sub(item.CreatedAt) > archiveAge && item.AccessCount < archiveMaxAccess && now.Sub(item.LastAccessedAt) > archiveAge {
			toArchive = append(toArchive, item)
			l.BaseLayer.Delete(ctx, id)
			delete(l.vectors, id)
		}
	}
	if len(toArchive) > 0 {
		path := filepath.Join(l.root, "archive", "archive-"+time.Now().UTC().Format("20060102150405")+".json")
		if err := layer.WriteSnapshotFile(path, toArchive); err != nil {
			l.Logger().Printf("global: archive snapshot write failed: %v", err)
		}
	}
	return nil
}

type snapshotPayload struct {
	Items   []types.MemoryItem  `json:"items"`
	Vectors map[string][]float64 `json:"vectors"`
}

func (l *Layer) itemsPath() string { return filepath.Join(l.root, "items.json") }

func (l *Layer) flushLocked(ctx context.Context) error {
	items, _ := l.Export(ctx)
	if err := layer.WriteSnapshotFile(l.itemsPath(), snapshotPayload{Items: items, Vectors: l.vectors}); err != nil {
		return types.NewError(types.KindPersistence, "flush global snapshot", err)
	}
	return nil
}

func (l *Layer) Close(ctx context.Context) error { return l.flusher.FlushNow(ctx) }

func (l *Layer) Backup(ctx context.Context) (string, error) {
	id := layer.NewBackupID()
	items, _ := l.Export(ctx)
	path := filepath.Join(l.root, "backups", id+".json")
	if err := layer.WriteSnapshotFile(path, snapshotPayload{Items: items, Vectors: l.vectors}); err != nil {
		return "", types.NewError(types.KindPersistence, "write global backup", err)
	}
	return id, nil
}

func (l *Layer) Restore(ctx context.Context, backupID string) (bool, error) {
	path := filepath.Join(l.root, "backups", backupID+".json")
	var payload snapshotPayload
	if err := layer.ReadSnapshotFile(path, &payload); err != nil {
		return false, types.NewError(types.KindPersistence, "read global backup", err)
	}
	for id := range l.Items() {
		l.BaseLayer.Purge(ctx, id)
	}
	l.vectors = make(map[string][]float64)
	if _, err := l.Import(ctx, payload.Items); err != nil {
		return false, err
	}
	for id, vec := range payload.Vectors {
		l.vectors[id] = vec
	}
	l.RebuildIndex()
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
	for id, vec := range payload.Vectors {
		l.vectors[id] = vec
	}
	l.RebuildIndex()
	return nil
}
