package layer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Snapshot is the self-describing on-disk envelope every persistent
// tier writes: version, savedAt, and an opaque payload the tier decodes.
type Snapshot struct {
	Version int             `json:"version"`
	SavedAt time.Time       `json:"savedAt"`
	Payload json.RawMessage `json:"payload"`
}

// WriteSnapshotFile marshals payload into a Snapshot envelope and writes
// it atomically (write to temp file, then rename) to path.
func WriteSnapshotFile(path string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal snapshot payload: %w", err)
	}
	snap := Snapshot{Version: 1, SavedAt: time.Now(), Payload: raw}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot envelope: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("finalize snapshot: %w", err)
	}
	return nil
}

// ReadSnapshotFile reads path and decodes its payload into out.
func ReadSnapshotFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("parse snapshot envelope: %w", err)
	}
	if err := json.Unmarshal(snap.Payload, out); err != nil {
		return fmt.Errorf("parse snapshot payload: %w", err)
	}
	return nil
}

// NewBackupID returns a fresh identifier for a backup/archive snapshot.
func NewBackupID() string { return uuid.NewString() }

// DirtyFlusher runs a ticker-driven background flush whenever the dirty
// flag is set, the pattern every persistent tier (Project, Global,
// Temporal) shares. Modeled on the teacher's BackupService ticker loop.
type DirtyFlusher struct {
	mu      sync.Mutex
	dirty   bool
	period  time.Duration
	flush   func(ctx context.Context) error
	logger  *log.Logger
	stopped chan struct{}
}

// NewDirtyFlusher builds a flusher that calls flush roughly every period
// when MarkDirty has been called since the last flush.
func NewDirtyFlusher(period time.Duration, flush func(ctx context.Context) error, logger *log.Logger) *DirtyFlusher {
	if logger == nil {
		logger = log.Default()
	}
	return &DirtyFlusher{period: period, flush: flush, logger: logger, stopped: make(chan struct{})}
}

// MarkDirty records that in-memory state has diverged from the snapshot.
func (d *DirtyFlusher) MarkDirty() {
	d.mu.Lock()
	d.dirty = true
	d.mu.Unlock()
}

// Dirty reports whether the state is dirty, for statistics surfaces.
func (d *DirtyFlusher) Dirty() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dirty
}

// Run blocks, flushing on the configured period until ctx is cancelled.
func (d *DirtyFlusher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.mu.Lock()
			dirty := d.dirty
			d.mu.Unlock()
			if !dirty {
				continue
			}
			if err := d.flush(ctx); err != nil {
				d.logger.Printf("periodic flush failed: %v", err)
				continue
			}
			d.mu.Lock()
			d.dirty = false
			d.mu.Unlock()
		}
	}
}

// FlushNow flushes synchronously regardless of the dirty flag, used by
// close().
func (d *DirtyFlusher) FlushNow(ctx context.Context) error {
	if err := d.flush(ctx); err != nil {
		return err
	}
	d.mu.Lock()
	d.dirty = false
	d.mu.Unlock()
	return nil
}
