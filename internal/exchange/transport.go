package exchange

import (
	"sync"

	"github.com/gravit-cluster/gvtcore/internal/rayproto"
	"github.com/gravit-cluster/gvtcore/internal/voter"
)

// Transport is one rank's handle into a shared Hub: the collective
// surface the Domain/Hybrid schedulers drive their ray exchange through
// and the compositor gathers over. Voter messages use VoterNet instead.
type Transport struct {
	hub  *Hub
	rank int
	root int
}

// NewTransport builds transports for every rank of a fresh Hub with n
// participants. Rank 0 is always the coordinator/root for broadcasts and
// gathers, matching the TpcVoter and compositor's own rank-0 role.
func NewTransport(n int) []*Transport {
	hub := NewHub(n)
	transports := make([]*Transport, n)
	for i := range transports {
		transports[i] = &Transport{hub: hub, rank: i, root: 0}
	}
	return transports
}

// Rank reports this transport's rank.
func (t *Transport) Rank() int { return t.rank }

// NumRanks reports the total participant count.
func (t *Transport) NumRanks() int { return t.hub.n }

// ExchangeRays runs one round of the §4.7 cross-rank ray exchange:
// outbound[j] is the batch of rays this rank is sending to peer j
// (outbound[rank] should be empty — local rays never leave the rank).
// The Alltoall counts stage is implicit in the Hub's shared-memory
// rendezvous (no separate byte_count pre-pass is needed when payloads
// already travel as Go slices); what is preserved is the per-ray
// variable-size framing, handled by rayproto.PackBatch/UnpackBatch.
func (t *Transport) ExchangeRays(outbound [][]rayproto.Ray) ([]rayproto.Ray, error) {
	payloads := make([][]byte, t.hub.n)
	for j, rays := range outbound {
		if len(rays) == 0 {
			continue
		}
		payloads[j] = rayproto.PackBatch(rays)
	}

	inbound := t.hub.alltoall(t.rank, payloads)

	var received []rayproto.Ray
	for _, buf := range inbound {
		if len(buf) == 0 {
			continue
		}
		rays, err := rayproto.UnpackBatch(buf)
		if err != nil {
			return nil, err
		}
		received = append(received, rays...)
	}
	return received, nil
}

// Broadcast sends payload from the root rank (root's argument is used,
// every other rank's argument is ignored) to every rank, returning what
// was broadcast. The Hybrid scheduler does not use it; its Map/data_send
// decision comes back from controlplane.Coordinator.
func (t *Transport) Broadcast(payload []byte) []byte {
	return t.hub.broadcastOp(t.rank, t.root, payload)
}

// Gather collects payload from every rank onto the root; non-root
// callers get nil back. Used by the MPI-gather compositor path.
func (t *Transport) Gather(payload []byte) [][]byte {
	return t.hub.gatherOp(t.rank, t.root, payload)
}

// VoterNet is the in-process stand-in for the "communication thread" the
// voter package's docs describe: PROPOSE/VOTE/decision messages are
// small, asynchronous, and per-rank, unlike the bulk Alltoall/Gather
// traffic Transport moves, so they are not routed through the Hub's
// rendezvous — a real MPI deployment would deliver them off a dedicated
// control-message tag instead of the bulk data channel, and this
// separates the same way.
type VoterNet struct {
	mu     sync.Mutex
	voters []*voter.Voter
}

// NewVoterNet builds a voter communication fabric for n ranks. Call
// Attach once per rank's voter after construction, then hand out
// Messenger(rank) to each.
func NewVoterNet(n int) *VoterNet {
	return &VoterNet{voters: make([]*voter.Voter, n)}
}

// Attach registers rank's voter so other ranks' messengers can reach it.
func (n *VoterNet) Attach(rank int, v *voter.Voter) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.voters[rank] = v
}

// Messenger returns the voter.Messenger a given rank's Voter should use.
func (n *VoterNet) Messenger(rank int) voter.Messenger {
	return &netMessenger{net: n, rank: rank}
}

type netMessenger struct {
	net  *VoterNet
	rank int
}

func (m *netMessenger) peers() []*voter.Voter {
	m.net.mu.Lock()
	defer m.net.mu.Unlock()
	return append([]*voter.Voter(nil), m.net.voters...)
}

func (m *netMessenger) BroadcastPropose() {
	for i, v := range m.peers() {
		if i != m.rank && v != nil {
			v.OnPropose()
		}
	}
}

func (m *netMessenger) SendVote(commit bool) {
	peers := m.peers()
	if len(peers) > 0 && peers[0] != nil {
		peers[0].OnVote(commit)
	}
}

func (m *netMessenger) BroadcastDecision(commit bool) {
	for i, v := range m.peers() {
		if i != m.rank && v != nil {
			v.OnDecision(commit)
		}
	}
}
