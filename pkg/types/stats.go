package types

import "time"

// PaginatedResult is the generic page envelope used by any listing
// operation across the tiers.
type PaginatedResult[T any] struct {
	Items    []T
	Total    int
	Page     int
	PageSize int
	HasMore  bool
}

// TierStats is the common statistics block every tier's getStats() returns.
type TierStats struct {
	Tier            Tier
	TotalItems      int
	TotalSizeBytes  int64
	CategoryCounts  map[string]int
	OldestCreatedAt *time.Time
	NewestCreatedAt *time.Time
}

// PersistenceStatus reports whether a persistent tier's on-disk snapshot
// matches its in-memory state.
type PersistenceStatus string

const (
	PersistenceClean PersistenceStatus = "clean"
	PersistenceDirty PersistenceStatus = "dirty"
)
