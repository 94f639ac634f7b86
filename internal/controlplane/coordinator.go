// Package controlplane implements the Hybrid scheduler's per-round
// coordination: every rank reports its current target and demand, rank
// 0's chosen hybridpolicy.Policy computes the next Map/DataSend once all
// reports are in, and every rank reads back the same decision. This
// adapts the teacher's distributed_renderer.go node-load aggregation
// (a mutex-guarded map plus an HTTP report/response round trip) into an
// in-process round barrier, the same rendezvous shape exchange.Hub uses
// for bulk collectives but specialized to carry a policy decision instead
// of raw bytes.
package controlplane

import (
	"math/rand"
	"sync"

	"github.com/gravit-cluster/gvtcore/internal/hybridpolicy"
)

// Coordinator runs one hybridpolicy.Policy across n ranks, one round at a
// time. Round blocks the calling goroutine until every rank has reported
// for the current round, then every caller receives the same result.
type Coordinator struct {
	n      int
	policy hybridpolicy.Policy
	rng    *rand.Rand

	mu        sync.Mutex
	cond      *sync.Cond
	round     int
	submitted int
	reports   []hybridpolicy.RankReport
	previous  hybridpolicy.Map

	resultMap   hybridpolicy.Map
	resultSend  hybridpolicy.DataSend
	resultTotal int
}

// NewCoordinator builds a coordinator for n ranks running policy. The
// seeded rng is handed to the policy every round; none of the current
// hybridpolicy functions read it, since their tie-breaks are by block id
// or rank order.
func NewCoordinator(n int, policy hybridpolicy.Policy, seed int64) *Coordinator {
	c := &Coordinator{
		n:        n,
		policy:   policy,
		rng:      rand.New(rand.NewSource(seed)),
		reports:  make([]hybridpolicy.RankReport, n),
		previous: make(hybridpolicy.Map, n),
	}
	for i := range c.previous {
		c.previous[i] = hybridpolicy.Idle
	}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Round submits rank's report for the current round and blocks until
// every rank has reported, returning the round's Map, DataSend, and the
// total ray demand seen across all ranks — a total of zero means no rank
// has queued rays and the Hybrid scheduler's frame is done.
func (c *Coordinator) Round(rank int, report hybridpolicy.RankReport) (hybridpolicy.Map, hybridpolicy.DataSend, int) {
	c.mu.Lock()
	myRound := c.round
	c.reports[rank] = report
	c.submitted++

	if c.submitted == c.n {
		total := 0
		for _, r := range c.reports {
			for _, d := range r.Demand {
				total += d.Rays
			}
		}
		m, ds := c.policy(c.reports, c.previous, c.rng)
		c.resultMap, c.resultSend, c.resultTotal = m, ds, total
		c.previous = m
		c.submitted = 0
		c.round++
		c.cond.Broadcast()
	} else {
		for c.round == myRound {
			c.cond.Wait()
		}
	}

	m, ds, total := c.resultMap, c.resultSend, c.resultTotal
	c.mu.Unlock()
	return m, ds, total
}
