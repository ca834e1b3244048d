package engine

import (
	"context"

	"github.com/google/uuid"
	"github.com/zoobzio/capitan"

	"github.com/danielpatrickdp/cosmicmind/internal/logging"
	"github.com/danielpatrickdp/cosmicmind/internal/peer"
	"github.com/danielpatrickdp/cosmicmind/internal/state"
)

// IntegrateTruths merges truths received from a peer under trust. Principles
// already held are reinforced in place; new principles are added.
func (m *Mind) IntegrateTruths(ctx context.Context, from string, inbound []state.Truth, trust float64) peer.IntegrateResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	var res peer.IntegrateResult
	for _, merge := range peer.Reconcile(m.truthsLocked(), inbound, trust) {
		t := merge.Truth
		if _, clash := m.truths[t.ID]; clash && !merge.Existing {
			t.ID = uuid.NewString()
		}
		m.putTruthLocked(t)
		if merge.Existing {
			res.Reinforced++
		} else {
			res.Added++
		}
	}

	capitan.Emit(ctx, logging.TruthsIntegrated,
		logging.FieldAgentID.Field(m.cfg.AgentID),
		logging.FieldPeer.Field(from),
		logging.FieldNew.Field(res.Added),
		logging.FieldMerged.Field(res.Reinforced),
		logging.FieldConfidence.Field(float32(trust)),
	)
	return res
}
