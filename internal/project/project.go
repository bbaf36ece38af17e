// Package project implements ProjectLayer, the per-project persistent tier.
package project

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/mnemosyne/mnemosyne/internal/config"
	"github.com/mnemosyne/mnemosyne/internal/layer"
	"github.com/mnemosyne/mnemosyne/pkg/types"
)

// Stats is ProjectLayer's extra capability beyond the shared surface.
type Stats struct {
	ProjectID         string
	CategoryCounts    map[string]int
	OldestCreatedAt   *time.Time
	NewestCreatedAt   *time.Time
	Persistence       types.PersistenceStatus
	CompressionRatio  float64
	CompressionActive bool
}

const compressionAgeThreshold = 14 * 24 * time.Hour
const compressionAccessThreshold = 2

// Layer is the per-project persistent tier. One instance exists per
// projectId; every admitted item has its ProjectID forced to match.
type Layer struct {
	*layer.BaseLayer

	projectID string
	root      string // <dataRoot>/project/<projectId>
	flusher   *layer.DirtyFlusher

	rawBytesBeforeCompression int64
	rawBytesAfterCompression  int64
}

// New constructs a ProjectLayer rooted at dataRoot, one instance per
// projectID. flushPeriod should fall within the spec's 5-15 minute range.
func New(dataRoot, projectID string, cfg config.TierConfig, logger *log.Logger, flushPeriod time.Duration) *Layer {
	if logger == nil {
		logger = log.Default()
	}
	l := &Layer{
		projectID: projectID,
		root:      filepath.Join(dataRoot, "project", projectID),
	}
	l.BaseLayer = layer.New(types.TierProject, cfg, logger, l.evictOldest)
	l.flusher = layer.NewDirtyFlusher(flushPeriod, l.flushLocked, logger)
	return l
}

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

// Run drives the periodic flush; call as a background goroutine.
func (l *Layer) Run(ctx context.Context) { l.flusher.Run(ctx) }

func (l *Layer) Store(ctx context.Context, partial types.PartialMemoryItem) (types.MemoryItem, error) {
	partial.Metadata.ProjectID = l.projectID
	item, err := l.BaseLayer.Store(ctx, partial)
	if err != nil {
		return item, err
	}
	l.flusher.MarkDirty()
	return item, nil
}

func (l *Layer) Update(ctx context.Context, id string, content *string, metadata *types.MemoryMetadata) (*types.MemoryItem, error) {
	if metadata != nil {
		metadata.ProjectID = l.projectID
	}
	item, err := l.BaseLayer.Update(ctx, id, content, metadata)
	if err == nil && item != nil {
		l.flusher.MarkDirty()
	}
	return item, err
}

func (l *Layer) Delete(ctx context.Context, id string) (bool, error) {
	ok, err := l.BaseLayer.Delete(ctx, id)
	if ok {
		l.flusher.MarkDirty()
	}
	return ok, err
}

var whitespaceRun = regexp.MustCompile(`[ \t]+`)
var blankLineRun = regexp.MustCompile(`\n{3,}`)

// compress collapses runs of whitespace and duplicate blank lines while
// preserving every token, matching the source's stronger (not merely
// whitespace-normalizing) compression behavior.
func compress(content string) string {
	out := whitespaceRun.ReplaceAllString(content, " ")
	out = blankLineRun.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}

// Optimize rebuilds the index and, when CompressionEnabled, compresses
// items older than the age threshold that have seen little access.
func (l *Layer) Optimize(ctx context.Context) error {
	if l.Config().CompressionEnabled {
		now := time.Now()
		for id, item := range l.Items() {
			if now.Sub(item.CreatedAt) < compressionAgeThreshold || item.AccessCount >= compressionAccessThreshold {
				continue
			}
			before := int64(len(item.Content))
			compressed := compress(item.Content)
			after := int64(len(compressed))
			if after < before {
				l.rawBytesBeforeCompression += before
				l.rawBytesAfterCompression += after
				l.BaseLayer.Update(ctx, id, &compressed, nil)
			}
		}
	}
	l.RebuildIndex()
	return nil
}

// GetProjectStats reports per-category counts, oldest/newest creation
// times, persistence status, and a compression ratio when enabled.
func (l *Layer) GetProjectStats() Stats {
	base, _ := l.BaseLayer.Stats(context.Background())
	stats := Stats{
		ProjectID:       l.projectID,
		CategoryCounts:  base.CategoryCounts,
		OldestCreatedAt: base.OldestCreatedAt,
		NewestCreatedAt: base.NewestCreatedAt,
	}
	if l.flusher.Dirty() {
		stats.Persistence = types.PersistenceDirty
	} else {
		stats.Persistence = types.PersistenceClean
	}
	if l.Config().CompressionEnabled {
		stats.CompressionActive = true
		if l.rawBytesBeforeCompression > 0 {
			stats.CompressionRatio = float64(l.rawBytesAfterCompression) / float64(l.rawBytesBeforeCompression)
		} else {
			stats.CompressionRatio = 1.0
		}
	}
	return stats
}

type snapshotPayload struct {
	ProjectID string              `json:"projectId"`
	Items     []types.MemoryItem `json:"items"`
}

func (l *Layer) itemsPath() string { return filepath.Join(l.root, "items.json") }

func (l *Layer) flushLocked(ctx context.Context) error {
	items, _ := l.Export(ctx)
	payload := snapshotPayload{ProjectID: l.projectID, Items: items}
	if err := layer.WriteSnapshotFile(l.itemsPath(), payload); err != nil {
		l.Logger().Printf("project %s: snapshot flush failed: %v", l.projectID, err)
		return types.NewError(types.KindPersistence, "flush project snapshot", err)
	}
	return nil
}

// Close flushes synchronously regardless of the dirty flag.
func (l *Layer) Close(ctx context.Context) error {
	return l.flusher.FlushNow(ctx)
}

// Backup writes a self-contained snapshot with the project id embedded.
func (l *Layer) Backup(ctx context.Context) (string, error) {
	id := layer.NewBackupID()
	items, _ := l.Export(ctx)
	payload := snapshotPayload{ProjectID: l.projectID, Items: items}
	path := filepath.Join(l.root, "backups", id+".json")
	if err := layer.WriteSnapshotFile(path, payload); err != nil {
		return "", types.NewError(types.KindPersistence, "write project backup", err)
	}
	return id, nil
}

// Restore refuses snapshots whose embedded project id differs from this
// layer's.
func (l *Layer) Restore(ctx context.Context, backupID string) (bool, error) {
	path := filepath.Join(l.root, "backups", backupID+".json")
	var payload snapshotPayload
	if err := layer.ReadSnapshotFile(path, &payload); err != nil {
		return false, types.NewError(types.KindPersistence, "read project backup", err)
	}
	if payload.ProjectID != l.projectID {
		return false, nil
	}
	for id := range l.Items() {
		l.BaseLayer.Purge(ctx, id)
	}
	n, err := l.Import(ctx, payload.Items)
	if err != nil {
		return false, err
	}
	_ = n
	l.RebuildIndex()
	return true, nil
}

// Load restores state from the tier's primary items.json snapshot, if
// present, used at startup.
func (l *Layer) Load(ctx context.Context) error {
	var payload snapshotPayload
	if err := layer.ReadSnapshotFile(l.itemsPath(), &payload); err != nil {
		return nil // no prior snapshot is not an error at startup
	}
	if payload.ProjectID != "" && payload.ProjectID != l.projectID {
		return fmt.Errorf("project snapshot at %s belongs to project %q, not %q", l.itemsPath(), payload.ProjectID, l.projectID)
	}
	if _, err := l.Import(ctx, payload.Items); err != nil {
		return err
	}
	l.RebuildIndex()
	return nil
}
