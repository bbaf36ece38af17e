package router

import (
	"context"
	"time"

	"github.com/mnemosyne/mnemosyne/pkg/types"
)

// Filter selects which exported items a migration or archival pass acts
// on. A nil filter matches everything.
type Filter func(types.MemoryItem) bool

// Migrate exports items matching filter from the source tier, stores
// them in the destination, then deletes them from the source.
// Non-atomic: if the destination store succeeds but the source delete
// fails, the item ends up duplicated — safe under search-time dedup.
func (r *Router) Migrate(ctx context.Context, from, to types.Tier, filter Filter) (int, error) {
	src, ok := r.tiers[from]
	if !ok {
		return 0, types.NewError(types.KindNotFound, "no such source tier", nil)
	}
	dst, ok := r.tiers[to]
	if !ok {
		return 0, types.NewError(types.KindNotFound, "no such destination tier", nil)
	}

	items, err := src.Export(ctx)
	if err != nil {
		return 0, err
	}

	migrated := 0
	for _, item := range items {
		if filter != nil && !filter(item) {
			continue
		}
		if _, err := dst.Store(ctx, types.PartialMemoryItem{Content: item.Content, Metadata: item.Metadata}); err != nil {
			r.logger.Printf("router: migrate store failed for %s: %v", item.ID, err)
			continue
		}
		if _, err := src.Delete(ctx, item.ID); err != nil {
			r.logger.Printf("router: migrate source delete failed for %s (item now duplicated): %v", item.ID, err)
		}
		migrated++
	}
	r.emit(EventType("migrate"), Event{Tier: from})
	return migrated, nil
}

const globalArchiveAge = 6 * 30 * 24 * time.Hour

// RunScheduledOptimization promotes SessionLayer's promotion candidates
// to Project, then archives Global items older than 6 months to
// Temporal. Intended to run on a periodic ticker from the entrypoint.
func (r *Router) RunScheduledOptimization(ctx context.Context) {
	r.promoteSessionCandidates(ctx)
	r.archiveOldGlobalItems(ctx)
}

func (r *Router) promoteSessionCandidates(ctx context.Context) {
	session, ok := r.tiers[types.TierSession]
	if !ok {
		return
	}
	promoter, ok := session.(Promoter)
	if !ok {
		return
	}
	project, ok := r.tiers[types.TierProject]
	if !ok {
		return
	}
	for _, id := range promoter.GetPromotionCandidates() {
		item, err := session.Retrieve(ctx, id)
		if err != nil || item == nil {
			continue
		}
		if _, err := project.Store(ctx, types.PartialMemoryItem{Content: item.Content, Metadata: item.Metadata}); err != nil {
			r.logger.Printf("router: scheduled promotion of %s failed: %v", id, err)
		}
	}
}

func (r *Router) archiveOldGlobalItems(ctx context.Context) {
	_, err := r.Migrate(ctx, types.TierGlobal, types.TierTemporal, func(item types.MemoryItem) bool {
		return time.Since(item.CreatedAt) > globalArchiveAge
	})
	if err != nil {
		r.logger.Printf("router: scheduled global archival failed: %v", err)
	}
}
