// Package exchange implements the cross-rank bulk-collective primitives
// the Domain and Hybrid schedulers need: an Alltoall-shaped ray exchange,
// Gather for the compositor, and a one-to-all Broadcast. TpcVoter
// messages do not pass through here; VoterNet delivers them directly.
// No MPI binding exists anywhere in the retrieved pack, so this models
// the collectives in-process over a shared condition variable; a real
// MPI-backed Transport only needs to satisfy the same interface.
package exchange

import "sync"

// Hub is the shared rendezvous point for NumRanks participants. Every
// collective call blocks until every rank has made the matching call for
// the current round, then every caller returns with its slice of the
// combined result — exactly MPI's SPMD collective shape, implemented
// with a round-counting condition variable instead of message passing.
type Hub struct {
	n int

	mu    sync.Mutex
	cond  *sync.Cond
	round int

	// submitted tracks how many ranks have called into the current
	// collective; the last arrival computes results for everyone.
	submitted int
	inbox     [][][]byte // inbox[sender][receiver] = payload sender addressed to receiver
	results   [][][]byte // results[receiver][sender], valid after the round completes
	done      bool
}

// NewHub builds a rendezvous point for n ranks.
func NewHub(n int) *Hub {
	h := &Hub{n: n, inbox: make([][][]byte, n)}
	h.cond = sync.NewCond(&h.mu)
	return h
}

// alltoall is the shared rendezvous body: each rank contributes a
// per-peer payload slice (payloads[j] is what this rank sends to peer
// j); the call returns once every rank has contributed, yielding what
// this rank received from every peer.
func (h *Hub) alltoall(rank int, payloads [][]byte) [][]byte {
	h.mu.Lock()

	myRound := h.round
	h.inbox[rank] = payloads
	h.submitted++

	if h.submitted == h.n {
		h.results = make([][][]byte, h.n)
		for receiver := 0; receiver < h.n; receiver++ {
			h.results[receiver] = make([][]byte, h.n)
			for sender := 0; sender < h.n; sender++ {
				if receiver < len(h.inbox[sender]) {
					h.results[receiver][sender] = h.inbox[sender][receiver]
				}
			}
		}
		h.submitted = 0
		h.round++
		h.inbox = make([][][]byte, h.n)
		h.cond.Broadcast()
	} else {
		for h.round == myRound {
			h.cond.Wait()
		}
	}

	mine := h.results[rank]
	h.mu.Unlock()
	return mine
}

// broadcastOp runs a one-to-all broadcast through the same rendezvous:
// only the root's payload is meaningful, every rank receives it back.
func (h *Hub) broadcastOp(rank, root int, payload []byte) []byte {
	payloads := make([][]byte, h.n)
	if rank == root {
		for j := range payloads {
			payloads[j] = payload
		}
	}
	inbound := h.alltoall(rank, payloads)
	return inbound[root]
}

// gatherOp runs an all-to-one gather: every rank sends payload toward
// root; root receives all n payloads in rank order, everyone else gets
// nil back.
func (h *Hub) gatherOp(rank, root int, payload []byte) [][]byte {
	payloads := make([][]byte, h.n)
	payloads[root] = payload
	inbound := h.alltoall(rank, payloads)
	if rank != root {
		return nil
	}
	return inbound
}
