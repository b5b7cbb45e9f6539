package service

import (
	"context"

	"github.com/zenvpn/zen-console/client"
	"github.com/zenvpn/zen-console/logger"
	"github.com/zenvpn/zen-console/model"
	"github.com/zenvpn/zen-console/schema"
	"github.com/zenvpn/zen-console/store"
)

// InboundService orchestrates inbound listeners. A mutation on node N
// invalidates only Inbounds-by-node[N]; the users collection is left alone —
// attachment lists refresh when a user is explicitly reopened — and config
// artifacts are never cached, so there is nothing else to invalidate.
type InboundService struct {
	api   *client.Client
	store *store.Store
	guard *inflightGuard
}

// List returns node nodeID's inbounds, fetching when not current.
func (s *InboundService) List(ctx context.Context, nodeID uint) ([]model.Inbound, error) {
	if inbounds, state := s.store.Inbounds(nodeID); state == store.Loaded {
		return inbounds, nil
	}
	return s.Refresh(ctx, nodeID)
}

// Refresh re-fetches node nodeID's inbound collection.
func (s *InboundService) Refresh(ctx context.Context, nodeID uint) ([]model.Inbound, error) {
	seq := s.store.BeginInboundsFetch(nodeID)
	inbounds, err := s.api.ListInboundsByNode(ctx, nodeID)
	if err != nil {
		s.store.FailInboundsFetch(nodeID, seq)
		return nil, err
	}
	if !s.store.CompleteInboundsFetch(nodeID, seq, inbounds) {
		cached, _ := s.store.Inbounds(nodeID)
		return cached, nil
	}
	return inbounds, nil
}

// Create validates in against its protocol's schema and submits it. The
// payload carries node_id plus exclusively the active protocol's fields; an
// input that fails the schema never reaches the wire.
func (s *InboundService) Create(ctx context.Context, in *schema.InboundInput) (*model.Inbound, error) {
	payload, err := in.Payload()
	if err != nil {
		return nil, err
	}
	inbound, err := s.api.CreateInbound(ctx, in.NodeID, payload)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, in.NodeID)
	return inbound, nil
}

// Update applies a partial overlay to current. The overlay's variant fields
// must match current's protocol; protocol and node are immutable.
func (s *InboundService) Update(ctx context.Context, current *model.Inbound, upd *schema.InboundUpdate) (*model.Inbound, error) {
	payload, err := upd.Payload(current.Protocol, current.NodeID)
	if err != nil {
		return nil, err
	}
	release, err := s.guard.acquire("inbounds", current.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	inbound, err := s.api.UpdateInbound(ctx, current.ID, payload)
	if err != nil {
		s.reconcile(ctx, current.NodeID, err)
		return nil, err
	}
	s.invalidate(ctx, current.NodeID)
	return inbound, nil
}

// Delete removes an inbound from its node.
func (s *InboundService) Delete(ctx context.Context, id, nodeID uint) error {
	release, err := s.guard.acquire("inbounds", id)
	if err != nil {
		return err
	}
	defer release()

	if err := s.api.DeleteInbound(ctx, id); err != nil {
		s.reconcile(ctx, nodeID, err)
		return err
	}
	s.invalidate(ctx, nodeID)
	return nil
}

// GenerateKeys requests a fresh REALITY key triple for an existing inbound.
// An unsaved inbound (no id) is rejected locally; no call is issued.
func (s *InboundService) GenerateKeys(ctx context.Context, id uint) (*model.RealityKeys, error) {
	if id == 0 {
		return nil, &schema.Error{Field: "id", Message: "save the inbound before generating keys"}
	}
	release, err := s.guard.acquire("inbounds", id)
	if err != nil {
		return nil, err
	}
	defer release()
	return s.api.GenerateInboundKeys(ctx, id)
}

func (s *InboundService) invalidate(ctx context.Context, nodeID uint) {
	s.store.MarkInboundsStale(nodeID)
	if _, err := s.Refresh(ctx, nodeID); err != nil {
		logger.Warningf("inbounds re-fetch for node %d after mutation failed: %v", nodeID, err)
	}
}

func (s *InboundService) reconcile(ctx context.Context, nodeID uint, err error) {
	if client.IsNotFound(err) || client.IsConflict(err) {
		s.invalidate(ctx, nodeID)
	}
}
