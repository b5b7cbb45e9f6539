package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/zenvpn/zen-console/client"
	"github.com/zenvpn/zen-console/logger"
	"github.com/zenvpn/zen-console/model"
	"github.com/zenvpn/zen-console/schema"
	"github.com/zenvpn/zen-console/store"
)

// livenessTTL bounds how long a probe result is trusted before the badge
// falls back to unknown.
const livenessTTL = 2 * time.Minute

// NodeService orchestrates the node lifecycle. Node deletion drops the
// node's inbound collection from the store entirely, mirroring the server's
// cascade; liveness probing is best effort and never fails a load.
type NodeService struct {
	api      *client.Client
	store    *store.Store
	guard    *inflightGuard
	liveness *gocache.Cache
}

func newNodeService(api *client.Client, st *store.Store, guard *inflightGuard) *NodeService {
	return &NodeService{
		api:      api,
		store:    st,
		guard:    guard,
		liveness: gocache.New(livenessTTL, 5*time.Minute),
	}
}

// List returns the nodes, fetching when the collection is not current.
func (s *NodeService) List(ctx context.Context) ([]model.Node, error) {
	if nodes, state := s.store.Nodes(); state == store.Loaded {
		return nodes, nil
	}
	return s.Refresh(ctx)
}

// Refresh re-fetches the nodes collection and probes each node's liveness
// independently.
func (s *NodeService) Refresh(ctx context.Context) ([]model.Node, error) {
	seq := s.store.BeginNodesFetch()
	nodes, err := s.api.ListNodes(ctx)
	if err != nil {
		s.store.FailNodesFetch(seq)
		return nil, err
	}
	if !s.store.CompleteNodesFetch(seq, nodes) {
		cached, _ := s.store.Nodes()
		return cached, nil
	}
	s.ProbeAll(ctx, nodes)
	return nodes, nil
}

// Get fetches one node.
func (s *NodeService) Get(ctx context.Context, id uint) (*model.Node, error) {
	return s.api.GetNode(ctx, id)
}

// Create registers a node. When no api_token is supplied one is generated
// here, a 32-character alphanumeric secret for the node's agent.
func (s *NodeService) Create(ctx context.Context, in *model.CreateNodeInput) (*model.Node, error) {
	if in.APIToken == "" {
		in.APIToken = schema.NewAPIToken()
	}
	if err := schema.ValidateNode(in); err != nil {
		return nil, err
	}
	node, err := s.api.CreateNode(ctx, in)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return node, nil
}

// Update applies a partial overlay to one node.
func (s *NodeService) Update(ctx context.Context, id uint, in *model.UpdateNodeInput) (*model.Node, error) {
	if err := schema.ValidateNodeUpdate(in); err != nil {
		return nil, err
	}
	release, err := s.guard.acquire("nodes", id)
	if err != nil {
		return nil, err
	}
	defer release()

	node, err := s.api.UpdateNode(ctx, id, in)
	if err != nil {
		s.reconcile(ctx, err)
		return nil, err
	}
	s.store.ApplyNode(*node)
	s.invalidate(ctx)
	return node, nil
}

// Delete removes a node. The server cascades to the node's inbounds, so the
// local inbound collection for the node is dropped, not merely staled.
func (s *NodeService) Delete(ctx context.Context, id uint) error {
	release, err := s.guard.acquire("nodes", id)
	if err != nil {
		return err
	}
	defer release()

	if err := s.api.DeleteNode(ctx, id); err != nil {
		s.reconcile(ctx, err)
		return err
	}
	s.store.DropInbounds(id)
	s.liveness.Delete(livenessKey(id))
	s.invalidate(ctx)
	return nil
}

// Sync pushes the node's current inbound set to its agent. Idempotent and
// record-preserving; still serialized per node so it cannot interleave with
// a concurrent node mutation.
func (s *NodeService) Sync(ctx context.Context, id uint) error {
	release, err := s.guard.acquire("nodes", id)
	if err != nil {
		return err
	}
	defer release()
	return s.api.SyncNode(ctx, id)
}

// Probe checks one node's liveness. A failed probe degrades to offline; it
// never surfaces as an error.
func (s *NodeService) Probe(ctx context.Context, id uint) model.NodeState {
	online, err := s.api.GetNodeStatus(ctx, id)
	if err != nil {
		if client.IsAuth(err) {
			// session is gone; don't record a bogus offline
			return model.NodeUnknown
		}
		logger.Debugf("liveness probe for node %d failed: %v", id, err)
		online = false
	}
	state := model.NodeOffline
	if online {
		state = model.NodeOnline
	}
	s.liveness.Set(livenessKey(id), state, gocache.DefaultExpiration)
	return state
}

// ProbeAll probes the given nodes concurrently and waits for the sweep.
func (s *NodeService) ProbeAll(ctx context.Context, nodes []model.Node) {
	var wg sync.WaitGroup
	for _, n := range nodes {
		wg.Add(1)
		go func(id uint) {
			defer wg.Done()
			s.Probe(ctx, id)
		}(n.ID)
	}
	wg.Wait()
}

// Status returns the last probed liveness for the node, or unknown when no
// recent probe exists.
func (s *NodeService) Status(id uint) model.NodeState {
	if v, ok := s.liveness.Get(livenessKey(id)); ok {
		return v.(model.NodeState)
	}
	return model.NodeUnknown
}

func livenessKey(id uint) string { return fmt.Sprintf("node/%d", id) }

func (s *NodeService) invalidate(ctx context.Context) {
	s.store.MarkNodesStale()
	if _, err := s.Refresh(ctx); err != nil {
		logger.Warningf("nodes re-fetch after mutation failed: %v", err)
	}
}

func (s *NodeService) reconcile(ctx context.Context, err error) {
	if client.IsNotFound(err) || client.IsConflict(err) {
		s.invalidate(ctx)
	}
}
