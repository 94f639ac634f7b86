// Package hybridpolicy implements the pluggable Map: rank -> block
// placement functions the Hybrid scheduler's coordinator runs once per
// round. Every policy is a function of the round's rank reports and the
// previous round's Map the coordinator passes back in; the one exception
// is AdaptiveSend, which also keeps the last round's total demand in the
// *int it was built with.
package hybridpolicy

import (
	"math/rand"
	"sort"

	"github.com/samber/lo"
)

// BlockDemand is one (block id, pending ray count) pair a rank reports
// for a block it currently has queued locally.
type BlockDemand struct {
	BlockID uint32
	Rays    int
}

// RankReport is what one rank contributes to a round's placement
// decision: the block it is currently tracing (its "current target", −1
// if idle) and the demand for every block it has rays queued for.
type RankReport struct {
	CurrentTarget int32
	Demand        []BlockDemand
}

// Map is rank -> block (−1 for idle), the coordinator's broadcast result.
type Map []int32

// DataSend mirrors Map: DataSend[i] = j means rank i should pull block
// j's data from rank i's previous holder, or −1 to load from cold
// storage. Block bytes are never actually moved on the wire by this
// package (SEND_DOMS stays disabled) — DataSend only records intent for
// a transport layer that chooses to act on it.
type DataSend []int32

// Idle is the sentinel for "this rank gets no block this round".
const Idle int32 = -1

// Policy computes a new Map and DataSend from the round's rank reports
// and the map the previous round produced (all Idle on the first round
// when run by controlplane.Coordinator; a nil map is also accepted).
// Implementations must be deterministic given identical reports and rng
// seed — the coordinator is responsible for broadcasting a single seed
// so every rank (if it recomputes locally) agrees.
type Policy func(reports []RankReport, previous Map, rng *rand.Rand) (Map, DataSend)

// globalDemand sums per-block ray counts across every rank's report.
func globalDemand(reports []RankReport) map[uint32]int {
	totals := make(map[uint32]int)
	for _, r := range reports {
		for _, d := range r.Demand {
			totals[d.BlockID] += d.Rays
		}
	}
	return totals
}

// rankedBlocks returns block ids present in totals, sorted by descending
// ray count then ascending id — the "most rays first, ties by lowest id"
// ordering used by every policy here except LoadOnce, which sorts by
// (size, id) itself.
func rankedBlocks(totals map[uint32]int) []uint32 {
	ids := lo.Keys(totals)
	sort.Slice(ids, func(i, j int) bool {
		if totals[ids[i]] != totals[ids[j]] {
			return totals[ids[i]] > totals[ids[j]]
		}
		return ids[i] < ids[j]
	})
	return ids
}

func newMap(n int) Map {
	m := make(Map, n)
	for i := range m {
		m[i] = Idle
	}
	return m
}

func newDataSend(n int) DataSend {
	d := make(DataSend, n)
	for i := range d {
		d[i] = Idle
	}
	return d
}

func holderOf(previous Map, block uint32) int32 {
	for rank, b := range previous {
		if b == int32(block) {
			return int32(rank)
		}
	}
	return Idle
}

// Greedy assigns each rank, in rank order, the highest-global-demand
// block not already claimed this round. Ties break on lowest block id
// via rankedBlocks' ordering.
func Greedy(reports []RankReport, previous Map, rng *rand.Rand) (Map, DataSend) {
	totals := globalDemand(reports)
	order := rankedBlocks(totals)
	m := newMap(len(reports))
	ds := newDataSend(len(reports))

	claimed := make(map[uint32]bool)
	idx := 0
	for rank := range reports {
		for idx < len(order) && claimed[order[idx]] {
			idx++
		}
		if idx >= len(order) {
			break
		}
		m[rank] = int32(order[idx])
		ds[rank] = holderOf(previous, order[idx])
		claimed[order[idx]] = true
		idx++
	}
	return m, ds
}

// Spread assigns the top-K globally-demanded blocks (K = min(ranks,
// blocks-with-rays)) one per rank, in descending-demand order.
func Spread(reports []RankReport, previous Map, rng *rand.Rand) (Map, DataSend) {
	totals := globalDemand(reports)
	order := rankedBlocks(totals)
	k := len(reports)
	if len(order) < k {
		k = len(order)
	}

	m := newMap(len(reports))
	ds := newDataSend(len(reports))
	for rank := 0; rank < k; rank++ {
		m[rank] = int32(order[rank])
		ds[rank] = holderOf(previous, order[rank])
	}
	return m, ds
}

// RayWeightedSpread behaves like Spread but allocates slots per block
// proportional to ray_count/total_rays, rounding down and handing any
// remaining ranks to the highest-demand blocks in rank order.
func RayWeightedSpread(reports []RankReport, previous Map, rng *rand.Rand) (Map, DataSend) {
	totals := globalDemand(reports)
	order := rankedBlocks(totals)
	m := newMap(len(reports))
	ds := newDataSend(len(reports))
	if len(order) == 0 {
		return m, ds
	}

	total := 0
	for _, t := range totals {
		total += t
	}
	if total == 0 {
		return m, ds
	}

	slots := make([]int, len(order))
	assigned := 0
	for i, id := range order {
		slots[i] = (totals[id] * len(reports)) / total
		assigned += slots[i]
	}
	for i := 0; assigned < len(reports) && i < len(order); i++ {
		slots[i]++
		assigned++
	}

	rank := 0
	for i, id := range order {
		for s := 0; s < slots[i] && rank < len(reports); s++ {
			m[rank] = int32(id)
			ds[rank] = holderOf(previous, id)
			rank++
		}
	}
	return m, ds
}

// LoadOnce preserves current residency whenever possible and fills idle
// ranks with the highest-demand blocks not yet resident anywhere,
// mirroring the reference data2proc/data2size/size2data walk: sort
// demanded blocks by (size, id) ascending, keep resident blocks in
// place, and backfill homeless ranks from the back of that ordering
// (largest demand first).
func LoadOnce(reports []RankReport, previous Map, rng *rand.Rand) (Map, DataSend) {
	data2proc := make(map[uint32]int32)
	for rank, b := range previous {
		if b != Idle {
			data2proc[uint32(b)] = int32(rank)
		}
	}

	data2size := globalDemand(reports)

	type sizeData struct {
		size int
		id   uint32
	}
	ordered := make([]sizeData, 0, len(data2size))
	for id, size := range data2size {
		ordered = append(ordered, sizeData{size: size, id: id})
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].size != ordered[j].size {
			return ordered[i].size < ordered[j].size
		}
		return ordered[i].id < ordered[j].id
	})

	m := newMap(len(reports))
	var homeless []uint32
	for _, sd := range ordered {
		if rank, ok := data2proc[sd.id]; ok {
			m[rank] = int32(sd.id)
		} else {
			homeless = append(homeless, sd.id)
		}
	}

	for rank := 0; rank < len(m) && len(homeless) > 0; rank++ {
		if m[rank] != Idle {
			continue
		}
		for len(homeless) > 0 {
			candidate := homeless[len(homeless)-1]
			homeless = homeless[:len(homeless)-1]
			if _, dup := data2proc[candidate]; dup {
				continue
			}
			m[rank] = int32(candidate)
			data2proc[candidate] = int32(rank)
			break
		}
	}

	ds := newDataSend(len(reports))
	for rank, b := range m {
		if b != Idle {
			ds[rank] = holderOf(previous, uint32(b))
		}
	}
	return m, ds
}

// LoadAnyOnce runs LoadOnce's placement, then allows duplicating an
// already-claimed block onto any rank still idle afterward, rather than
// leaving it unproductive for the round.
func LoadAnyOnce(reports []RankReport, previous Map, rng *rand.Rand) (Map, DataSend) {
	m, ds := LoadOnce(reports, previous, rng)

	totals := globalDemand(reports)
	order := rankedBlocks(totals)
	if len(order) == 0 {
		return m, ds
	}

	for rank := range m {
		if m[rank] != Idle {
			continue
		}
		m[rank] = int32(order[0])
		ds[rank] = holderOf(previous, order[0])
	}
	return m, ds
}

// LoadAnother requires every newly assigned block to differ from that
// rank's previous target, forcing rotation instead of repeated Greedy
// reassignment of the same block to the same rank.
func LoadAnother(reports []RankReport, previous Map, rng *rand.Rand) (Map, DataSend) {
	totals := globalDemand(reports)
	order := rankedBlocks(totals)
	m := newMap(len(reports))
	ds := newDataSend(len(reports))

	claimed := make(map[uint32]bool)
	for rank := range reports {
		var prevTarget int32 = Idle
		if rank < len(previous) {
			prevTarget = previous[rank]
		}
		for _, id := range order {
			if claimed[id] || int32(id) == prevTarget {
				continue
			}
			m[rank] = int32(id)
			ds[rank] = holderOf(previous, id)
			claimed[id] = true
			break
		}
	}
	return m, ds
}

// LoadMany places the same block on multiple ranks, cycling through the
// demand-ranked blocks as many times as needed to fill every rank — the
// placement duplication Spread and Greedy both avoid. Each block gets an
// equal share of ranks, with any remainder going to the highest-demand
// blocks; the share does not scale with a block's ray count.
func LoadMany(reports []RankReport, previous Map, rng *rand.Rand) (Map, DataSend) {
	totals := globalDemand(reports)
	order := rankedBlocks(totals)
	m := newMap(len(reports))
	ds := newDataSend(len(reports))
	if len(order) == 0 {
		return m, ds
	}

	for rank := range reports {
		id := order[rank%len(order)]
		m[rank] = int32(id)
		ds[rank] = holderOf(previous, id)
	}
	return m, ds
}

// AdaptiveSend switches between Greedy and LoadOnce depending on whether
// global ray demand grew since the previous round: Greedy favors
// maximal reassignment when the frame is still expanding outward
// (early bounces), LoadOnce favors residency stability once demand has
// plateaued or is shrinking.
func AdaptiveSend(lastTotal *int) Policy {
	return func(reports []RankReport, previous Map, rng *rand.Rand) (Map, DataSend) {
		totals := globalDemand(reports)
		current := 0
		for _, v := range totals {
			current += v
		}

		grew := lastTotal != nil && current > *lastTotal
		if lastTotal != nil {
			*lastTotal = current
		}

		if grew {
			return Greedy(reports, previous, rng)
		}
		return LoadOnce(reports, previous, rng)
	}
}
