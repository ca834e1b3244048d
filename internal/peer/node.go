package peer

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/zoobzio/capitan"
	"golang.org/x/sync/errgroup"

	"github.com/danielpatrickdp/cosmicmind/internal/logging"
	"github.com/danielpatrickdp/cosmicmind/internal/state"
)

// maxInFlight bounds concurrent sends during a broadcast.
const maxInFlight = 4

// IntegrateResult counts what a merge of shared truths changed.
type IntegrateResult struct {
	Added      int
	Reinforced int
}

// KnowledgeBase is the local side of an exchange.
type KnowledgeBase interface {
	AgentID() string
	Identity() string
	Telos() string
	Ethics() []string
	Truths() []state.Truth
	ShareTrustWeight() float64
	IntegrateTruths(ctx context.Context, from string, inbound []state.Truth, trust float64) IntegrateResult
}

// Transport delivers encoded envelopes and returns the peer's reply, which
// may be empty.
type Transport interface {
	Send(ctx context.Context, addr string, data []byte) ([]byte, error)
}

// PeerInfo is what a node remembers about another agent.
type PeerInfo struct {
	ID       string
	Identity string
	Telos    string
	LastSeen time.Time
}

// Node speaks the envelope protocol on behalf of a knowledge base.
type Node struct {
	kb        KnowledgeBase
	transport Transport
	now       func() time.Time

	mu    sync.Mutex
	addrs []string
	known map[string]PeerInfo
}

// NewNode creates a node. transport may be nil for a receive-only node.
func NewNode(kb KnowledgeBase, transport Transport, addrs ...string) *Node {
	n := &Node{
		kb:        kb,
		transport: transport,
		now:       time.Now,
		known:     make(map[string]PeerInfo),
	}
	for _, a := range addrs {
		n.Connect(a)
	}
	return n
}

// SetClock replaces the time source used for envelope timestamps.
func (n *Node) SetClock(now func() time.Time) { n.now = now }

// Connect adds a peer address. Duplicates and empty addresses are ignored.
func (n *Node) Connect(addr string) bool {
	if addr == "" {
		return false
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, a := range n.addrs {
		if a == addr {
			return false
		}
	}
	n.addrs = append(n.addrs, addr)
	return true
}

// Addrs returns the configured peer addresses.
func (n *Node) Addrs() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.addrs...)
}

// Peers returns known agents sorted by ID.
func (n *Node) Peers() []PeerInfo {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]PeerInfo, 0, len(n.known))
	for _, p := range n.known {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// #region inbound

// Handle processes one inbound envelope and returns the encoded reply, or
// nil when the message needs none. Undecodable bytes are reported and
// returned as an error; a malformed payload is reported and ignored.
func (n *Node) Handle(ctx context.Context, data []byte) ([]byte, error) {
	env, err := Decode(data)
	if err != nil {
		capitan.Error(ctx, logging.PeerDecodeFailed,
			logging.FieldAgentID.Field(n.kb.AgentID()),
			logging.FieldError.Field(err),
		)
		return nil, err
	}
	if env.From == n.kb.AgentID() {
		return nil, nil
	}

	n.see(env)
	capitan.Emit(ctx, logging.PeerReceived,
		logging.FieldAgentID.Field(n.kb.AgentID()),
		logging.FieldPeer.Field(env.From),
		logging.FieldEnvelope.Field(string(env.Type)),
	)

	switch env.Type {
	case TypeIntroduce:
		// An introduction is always answered, even without a usable payload.
		if len(env.Payload) > 0 {
			var p IntroducePayload
			if err := DecodePayload(env, &p); err != nil {
				n.payloadFailed(ctx, env, err)
			} else {
				n.describe(env.From, p)
			}
		}
		return n.shareReply()
	case TypeRequestSync:
		return n.shareReply()
	case TypeShareTruths:
		var p ShareTruthsPayload
		if err := DecodePayload(env, &p); err != nil {
			n.payloadFailed(ctx, env, err)
			return nil, nil
		}
		n.kb.IntegrateTruths(ctx, env.From, p.Truths, p.TrustWeight)
	}
	return nil, nil
}

func (n *Node) see(env Envelope) {
	n.mu.Lock()
	defer n.mu.Unlock()
	info := n.known[env.From]
	info.ID = env.From
	info.LastSeen = env.Timestamp
	n.known[env.From] = info
}

func (n *Node) describe(id string, p IntroducePayload) {
	n.mu.Lock()
	defer n.mu.Unlock()
	info := n.known[id]
	info.Identity = p.IdentityLabel
	info.Telos = p.Telos
	n.known[id] = info
}

func (n *Node) payloadFailed(ctx context.Context, env Envelope, err error) {
	capitan.Error(ctx, logging.PeerDecodeFailed,
		logging.FieldAgentID.Field(n.kb.AgentID()),
		logging.FieldPeer.Field(env.From),
		logging.FieldEnvelope.Field(string(env.Type)),
		logging.FieldError.Field(err),
	)
}

func (n *Node) shareReply() ([]byte, error) {
	env, err := n.shareEnvelope()
	if err != nil {
		return nil, err
	}
	return Encode(env)
}

// #endregion inbound

// #region outbound

func (n *Node) shareEnvelope() (Envelope, error) {
	return NewEnvelope(n.kb.AgentID(), TypeShareTruths, ShareTruthsPayload{
		Truths:      n.kb.Truths(),
		TrustWeight: n.kb.ShareTrustWeight(),
	}, n.now())
}

// Introduce announces this agent to every peer. Replies are handled like
// inbound messages.
func (n *Node) Introduce(ctx context.Context) int {
	env, err := NewEnvelope(n.kb.AgentID(), TypeIntroduce, IntroducePayload{
		ID:            n.kb.AgentID(),
		IdentityLabel: n.kb.Identity(),
		Telos:         n.kb.Telos(),
		Ethics:        n.kb.Ethics(),
	}, n.now())
	if err != nil {
		return 0
	}
	return n.Broadcast(ctx, env)
}

// ShareTruths sends every local truth to every peer.
func (n *Node) ShareTruths(ctx context.Context) int {
	env, err := n.shareEnvelope()
	if err != nil {
		return 0
	}
	return n.Broadcast(ctx, env)
}

// RequestSync asks every peer for its truths.
func (n *Node) RequestSync(ctx context.Context) int {
	env, err := NewEnvelope(n.kb.AgentID(), TypeRequestSync, RequestSyncPayload{}, n.now())
	if err != nil {
		return 0
	}
	return n.Broadcast(ctx, env)
}

// Broadcast sends env to every peer once, best effort, and returns how many
// deliveries succeeded. Failures are reported, never retried.
func (n *Node) Broadcast(ctx context.Context, env Envelope) int {
	if n.transport == nil {
		return 0
	}
	data, err := Encode(env)
	if err != nil {
		return 0
	}

	var (
		mu        sync.Mutex
		delivered int
		g         errgroup.Group
	)
	g.SetLimit(maxInFlight)
	for _, addr := range n.Addrs() {
		g.Go(func() error {
			reply, err := n.transport.Send(ctx, addr, data)
			if err != nil {
				capitan.Error(ctx, logging.PeerSendFailed,
					logging.FieldAgentID.Field(n.kb.AgentID()),
					logging.FieldPeer.Field(addr),
					logging.FieldEnvelope.Field(string(env.Type)),
					logging.FieldError.Field(err),
				)
				return nil
			}
			mu.Lock()
			delivered++
			mu.Unlock()
			if len(reply) > 0 {
				_, _ = n.Handle(ctx, reply)
			}
			return nil
		})
	}
	_ = g.Wait()
	return delivered
}

// #endregion outbound
