package mixer_test

import (
	"testing"
	"time"

	"github.com/mnemosyne/mnemosyne/internal/mixer"
	"github.com/mnemosyne/mnemosyne/pkg/types"
)

func TestSelectStrategy_ShortQueryIsPerformance(t *testing.T) {
	if s := mixer.SelectStrategy(types.MemoryQuery{Text: "deploy"}); s != mixer.StrategyPerformance {
		t.Errorf("expected a short query to select Performance, got %v", s)
	}
}

func TestSelectStrategy_DiscoveryKeyword(t *testing.T) {
	q := types.MemoryQuery{Text: "explore anything related to the onboarding flow we discussed"}
	if s := mixer.SelectStrategy(q); s != mixer.StrategyDiscovery {
		t.Errorf("expected an exploratory query to select Discovery, got %v", s)
	}
}

func TestSelectStrategy_DateConstrainedIsContextual(t *testing.T) {
	after := time.Now().Add(-24 * time.Hour)
	q := types.MemoryQuery{Text: "deploy", Filters: types.QueryFilters{CreatedAfter: &after}}
	if s := mixer.SelectStrategy(q); s != mixer.StrategyContextual {
		t.Errorf("expected a date-constrained query to select Contextual, got %v", s)
	}
}

func TestSelectStrategy_LongQueryIsComprehensive(t *testing.T) {
	q := types.MemoryQuery{Text: "I would like to understand in detail how the deployment pipeline interacts with the configuration management layer across environments"}
	if s := mixer.SelectStrategy(q); s != mixer.StrategyComprehensive {
		t.Errorf("expected a long analytical query to select Comprehensive, got %v", s)
	}
}

func TestPlan_PerformanceOnlyQueriesSessionAndProject(t *testing.T) {
	m := mixer.New()
	plan := m.Plan(mixer.StrategyPerformance, types.MemoryQuery{Text: "x"})
	if len(plan.Tiers) != 2 {
		t.Fatalf("expected 2 tiers for Performance, got %v", plan.Tiers)
	}
}

func TestAdaptivePlan_BiasesTowardHistoricallyProductiveTiers(t *testing.T) {
	m := mixer.New()
	for i := 0; i < 5; i++ {
		m.RecordOutcome(map[types.Tier]int{types.TierGlobal: 10, types.TierSession: 1})
	}
	plan := m.Plan(mixer.StrategyAdaptive, types.MemoryQuery{Text: "moderate length query here"})
	if plan.TierWeights[types.TierGlobal] <= plan.TierWeights[types.TierSession] {
		t.Errorf("expected Global to outweigh Session after a productive history, got %+v", plan.TierWeights)
	}
}

func TestApplyNoveltyBoost_PrefersUnseenItems(t *testing.T) {
	results := []types.MemorySearchResult{
		{Item: types.MemoryItem{ID: "old"}, Score: 0.5},
		{Item: types.MemoryItem{ID: "new"}, Score: 0.45},
	}
	boosted := mixer.ApplyNoveltyBoost(results, map[string]bool{"old": true})
	if boosted[0].Item.ID != "new" {
		t.Errorf("expected the unseen item to rank first after the novelty boost, got %+v", boosted)
	}
}
