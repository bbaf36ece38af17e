package types

import "time"

// Tier identifies one of the four storage tiers a MemoryItem can live in.
type Tier string

const (
	TierSession  Tier = "session"
	TierProject  Tier = "project"
	TierGlobal   Tier = "global"
	TierTemporal Tier = "temporal"
)

// MemoryMetadata carries the structured fields attached to a MemoryItem.
// Additional holds caller-supplied properties the core never interprets.
type MemoryMetadata struct {
	Tags       []string       `json:"tags"`
	Category   string         `json:"category"`
	Priority   int            `json:"priority"` // 1-10, larger is more important
	Source     string         `json:"source"`
	ProjectID  string         `json:"projectId,omitempty"`
	SessionID  string         `json:"sessionId,omitempty"`
	UserID     string         `json:"userId,omitempty"`
	ExpiresAt  *time.Time     `json:"expiresAt,omitempty"`
	Additional map[string]any `json:"additional,omitempty"`
}

// HasTag reports whether tag is present, case-sensitively.
func (m MemoryMetadata) HasTag(tag string) bool {
	for _, t := range m.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// HasAnyTag reports whether any of tags intersects m.Tags.
func (m MemoryMetadata) HasAnyTag(tags ...string) bool {
	for _, t := range tags {
		if m.HasTag(t) {
			return true
		}
	}
	return false
}

// MemoryItem is the core stored unit. Identifiers are assigned by the
// tier that stores the item. Promotion and migration store a copy under a
// fresh id in the destination tier, so the copy does not keep the
// original's id.
type MemoryItem struct {
	ID             string         `json:"id"`
	Content        string         `json:"content"`
	Metadata       MemoryMetadata `json:"metadata"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
	AccessCount    int64          `json:"accessCount"`
	LastAccessedAt time.Time      `json:"lastAccessedAt"`
	Tier           Tier           `json:"tier"`
}

// PartialMemoryItem is the caller-supplied payload for store(); fields the
// core assigns (id, timestamps, access counters) are absent.
type PartialMemoryItem struct {
	Content  string
	Metadata MemoryMetadata
}

// Clone returns a deep-enough copy safe for a caller to mutate without
// affecting the tier's internal state.
func (m MemoryItem) Clone() MemoryItem {
	cp := m
	if m.Metadata.Tags != nil {
		cp.Metadata.Tags = append([]string(nil), m.Metadata.Tags...)
	}
	if m.Metadata.Additional != nil {
		additional := make(map[string]any, len(m.Metadata.Additional))
		for k, v := range m.Metadata.Additional {
			additional[k] = v
		}
		cp.Metadata.Additional = additional
	}
	return cp
}

// SizeBytes is the content byte size counted against a tier's maxSizeBytes.
func (m MemoryItem) SizeBytes() int64 { return int64(len(m.Content)) }
