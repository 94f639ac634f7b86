package hybridpolicy

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func reportsFixtureS4() []RankReport {
	// current residency: rank0->A, rank1->C, rank2->E, rank3->G
	// demand this round: B:100, D:50, F:200, H:10 (A/C/E/G have none left)
	return []RankReport{
		{CurrentTarget: 0, Demand: []BlockDemand{{BlockID: 1, Rays: 100}}}, // B
		{CurrentTarget: 2, Demand: []BlockDemand{{BlockID: 3, Rays: 50}}},  // D
		{CurrentTarget: 4, Demand: []BlockDemand{{BlockID: 5, Rays: 200}}}, // F
		{CurrentTarget: 6, Demand: []BlockDemand{{BlockID: 7, Rays: 10}}},  // H
	}
}

func previousFixtureS4() Map {
	return Map{0, 2, 4, 6} // rank0:A, rank1:C, rank2:E, rank3:G
}

func TestLoadOnceS4EvictsStaleResidencyAndBackfillsByDemand(t *testing.T) {
	reports := reportsFixtureS4()
	previous := previousFixtureS4()

	m, _ := LoadOnce(reports, previous, nil)

	assigned := make(map[int32]bool)
	for _, b := range m {
		require.NotEqual(t, Idle, b)
		assigned[b] = true
	}
	require.Len(t, assigned, 4)
	for _, want := range []int32{1, 3, 5, 7} {
		require.True(t, assigned[want], "expected block %d to be assigned", want)
	}
	// none of the previous residents survive: nobody demanded A/C/E/G this round
	for _, stale := range []int32{0, 2, 4, 6} {
		require.False(t, assigned[stale])
	}
}

func TestLoadOnceStickinessWithNoDemandChange(t *testing.T) {
	reports := []RankReport{
		{CurrentTarget: 1, Demand: []BlockDemand{{BlockID: 1, Rays: 5}}},
		{CurrentTarget: 2, Demand: []BlockDemand{{BlockID: 2, Rays: 5}}},
	}
	previous := Map{1, 2}

	m1, _ := LoadOnce(reports, previous, nil)
	require.Equal(t, previous, m1)

	m2, _ := LoadOnce(reports, m1, nil)
	require.Equal(t, m1, m2)
}

func TestGreedyAssignsHighestDemandLowestIDTiebreak(t *testing.T) {
	reports := []RankReport{
		{Demand: []BlockDemand{{BlockID: 5, Rays: 10}, {BlockID: 9, Rays: 10}}},
		{Demand: []BlockDemand{{BlockID: 1, Rays: 20}}},
	}
	m, _ := Greedy(reports, nil, nil)
	require.Equal(t, int32(1), m[0])
	require.Equal(t, int32(5), m[1])
}

func TestSpreadAssignsTopKOnePerRank(t *testing.T) {
	reports := []RankReport{
		{Demand: []BlockDemand{{BlockID: 1, Rays: 30}, {BlockID: 2, Rays: 20}, {BlockID: 3, Rays: 10}}},
	}
	m, _ := Spread(reports, nil, nil)
	require.Equal(t, Map{1}, m)
}

func TestLoadAnotherNeverRepeatsPreviousTarget(t *testing.T) {
	reports := []RankReport{
		{Demand: []BlockDemand{{BlockID: 1, Rays: 50}}},
	}
	previous := Map{1}
	m, _ := LoadAnother(reports, previous, nil)
	require.NotEqual(t, int32(1), m[0])
}

func TestPolicyDeterminismAcrossRepeatedRuns(t *testing.T) {
	reports := reportsFixtureS4()
	previous := previousFixtureS4()
	rng := rand.New(rand.NewSource(1))

	policies := []Policy{Greedy, Spread, RayWeightedSpread, LoadOnce, LoadAnyOnce, LoadAnother, LoadMany}
	for _, p := range policies {
		a, dsA := p(reports, previous, rng)
		b, dsB := p(reports, previous, rng)
		require.Equal(t, a, b)
		require.Equal(t, dsA, dsB)
	}
}

func TestAdaptiveSendSwitchesOnDemandGrowth(t *testing.T) {
	last := 0
	policy := AdaptiveSend(&last)

	reports := reportsFixtureS4()
	previous := previousFixtureS4()

	greedyLike, _ := policy(reports, previous, nil)
	wantGreedy, _ := Greedy(reports, previous, nil)
	require.Equal(t, wantGreedy, greedyLike)

	// demand did not grow on the second call (same reports, last now == current)
	loadOnceLike, _ := policy(reports, previous, nil)
	wantLoadOnce, _ := LoadOnce(reports, previous, nil)
	require.Equal(t, wantLoadOnce, loadOnceLike)
}
