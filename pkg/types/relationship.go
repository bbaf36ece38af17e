package types

import "time"

// RelationshipType enumerates the kinds of typed edges between items.
// Values beyond this set are accepted as user-defined equivalents; the
// core never rejects an unrecognized type, it simply treats it as
// opaque for scoring purposes.
type RelationshipType string

const (
	RelationshipTemporal   RelationshipType = "TEMPORAL"
	RelationshipSemantic   RelationshipType = "SEMANTIC"
	RelationshipReferences RelationshipType = "REFERENCES"
	RelationshipCausal     RelationshipType = "CAUSAL"
	RelationshipContext    RelationshipType = "CONTEXT"
	RelationshipSupersedes RelationshipType = "SUPERSEDES"
)

// RelationshipMeta records provenance for a relationship.
type RelationshipMeta struct {
	Algorithm string
	CreatedAt time.Time
	Validator string // non-empty once a human/automated validator confirmed it
}

// MemoryRelationship is a directed, typed, scored edge between two items.
type MemoryRelationship struct {
	ID         string
	FromID     string
	ToID       string
	Type       RelationshipType
	Strength   float64
	Confidence float64
	Meta       RelationshipMeta
}

// ChangeType enumerates the kinds of mutation a MemoryVersion records.
type ChangeType string

const (
	ChangeCreated  ChangeType = "created"
	ChangeUpdated  ChangeType = "updated"
	ChangeMerged   ChangeType = "merged"
	ChangeSplit    ChangeType = "split"
	ChangeArchived ChangeType = "archived"
)

// VersionPayload captures the before/after of a changed field.
type VersionPayload struct {
	OldContent  *string
	NewContent  *string
	OldMetadata *MemoryMetadata
	NewMetadata *MemoryMetadata
}

// MemoryVersion is one entry in an item's append-only version history.
type MemoryVersion struct {
	ItemID    string
	Version   int
	Change    ChangeType
	ParentID  string // version id of the parent version, if any
	VersionID string
	Actor     string
	Timestamp time.Time
	Payload   VersionPayload
}

// DecayBucket is the recommendation a decay prediction assigns an item.
type DecayBucket string

const (
	DecayUrgent  DecayBucket = "urgent"
	DecayArchive DecayBucket = "archive"
	DecayPromote DecayBucket = "promote"
	DecayRetain  DecayBucket = "retain"
)

// DecayPrediction is the RelationshipEngine's forecast for one item.
type DecayPrediction struct {
	ItemID               string
	CurrentImportance    float64
	PredictedImportance  float64
	DecayRate            float64
	TimeToObsolescence   time.Duration
	Confidence           float64
	Recommendation       DecayBucket
	ContributingFactors  map[string]float64
}

// Contradiction is a flagged pair of semantically similar but conflicting
// items, with a suggested resolution.
type ContradictionResolution string

const (
	ResolveSupersedeOlder ContradictionResolution = "supersede_older"
	ResolveMerge          ContradictionResolution = "merge"
	ResolveManualReview   ContradictionResolution = "manual_review"
)

type Contradiction struct {
	MemoryIDs  [2]string
	Similarity float64
	Resolution ContradictionResolution
	Reason     string
}
