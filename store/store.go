// Package store is the console's client-side cache of users, nodes, and
// inbounds. Collections move through not-loaded → loading → loaded → stale;
// every fetch carries a monotonic sequence number so a slow response can
// never overwrite data fetched after it.
package store

import (
	"sync"

	"github.com/zenvpn/zen-console/model"
)

// State is the lifecycle state of one collection.
type State int

// Collection states.
const (
	NotLoaded State = iota
	Loading
	Loaded
	Stale
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Stale:
		return "stale"
	default:
		return "not-loaded"
	}
}

type collection[T any] struct {
	state State
	items []T
	seq   uint64 // latest issued fetch
}

func (c *collection[T]) begin() uint64 {
	c.seq++
	c.state = Loading
	return c.seq
}

// complete applies a fetch result unless a newer fetch has been issued since.
func (c *collection[T]) complete(seq uint64, items []T) bool {
	if seq != c.seq {
		return false
	}
	c.items = items
	c.state = Loaded
	return true
}

// fail reverts the collection out of Loading. Previously loaded data is kept
// and marked stale rather than dropped.
func (c *collection[T]) fail(seq uint64) {
	if seq != c.seq || c.state != Loading {
		return
	}
	if c.items != nil {
		c.state = Stale
	} else {
		c.state = NotLoaded
	}
}

func (c *collection[T]) markStale() {
	// A collection never loaded has nothing to be stale about, and a loading
	// one will be re-marked by the mutation's completion if needed.
	if c.state == Loaded {
		c.state = Stale
	}
}

// Store holds all cached collections. Only the orchestrator writes to it.
type Store struct {
	mu       sync.Mutex
	users    collection[model.User]
	nodes    collection[model.Node]
	inbounds map[uint]*collection[model.Inbound]
}

// New creates an empty store.
func New() *Store {
	return &Store{inbounds: make(map[uint]*collection[model.Inbound])}
}

// BeginUsersFetch marks the users collection loading and returns a fetch
// sequence number to complete or fail with.
func (s *Store) BeginUsersFetch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users.begin()
}

// CompleteUsersFetch installs a users fetch result. It reports false, and
// applies nothing, when a newer fetch was issued after seq.
func (s *Store) CompleteUsersFetch(seq uint64, users []model.User) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users.complete(seq, users)
}

// FailUsersFetch records a failed users fetch.
func (s *Store) FailUsersFetch(seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users.fail(seq)
}

// MarkUsersStale flags the users collection for re-fetch.
func (s *Store) MarkUsersStale() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users.markStale()
}

// Users returns the cached users and the collection state.
func (s *Store) Users() ([]model.User, State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.User(nil), s.users.items...), s.users.state
}

// ApplyUser overlays one full entity onto the cached users without touching
// the collection state. Used when a mutation response already carries the
// current representation.
func (s *Store) ApplyUser(u model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users.items {
		if s.users.items[i].ID == u.ID {
			s.users.items[i] = u
			return
		}
	}
}

// BeginNodesFetch marks the nodes collection loading.
func (s *Store) BeginNodesFetch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nodes.begin()
}

// CompleteNodesFetch installs a nodes fetch result, unless superseded.
func (s *Store) CompleteNodesFetch(seq uint64, nodes []model.Node) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nodes.complete(seq, nodes)
}

// FailNodesFetch records a failed nodes fetch.
func (s *Store) FailNodesFetch(seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes.fail(seq)
}

// MarkNodesStale flags the nodes collection for re-fetch.
func (s *Store) MarkNodesStale() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes.markStale()
}

// Nodes returns the cached nodes and the collection state.
func (s *Store) Nodes() ([]model.Node, State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Node(nil), s.nodes.items...), s.nodes.state
}

// ApplyNode overlays one full node entity without touching collection state.
func (s *Store) ApplyNode(n model.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.nodes.items {
		if s.nodes.items[i].ID == n.ID {
			s.nodes.items[i] = n
			return
		}
	}
}

func (s *Store) inboundsFor(nodeID uint) *collection[model.Inbound] {
	c, ok := s.inbounds[nodeID]
	if !ok {
		c = &collection[model.Inbound]{}
		s.inbounds[nodeID] = c
	}
	return c
}

// BeginInboundsFetch marks node nodeID's inbound collection loading.
func (s *Store) BeginInboundsFetch(nodeID uint) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inboundsFor(nodeID).begin()
}

// CompleteInboundsFetch installs an inbound fetch result, unless superseded
// or the collection was dropped by a node deletion in the meantime.
func (s *Store) CompleteInboundsFetch(nodeID uint, seq uint64, inbounds []model.Inbound) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.inbounds[nodeID]
	if !ok {
		return false
	}
	return c.complete(seq, inbounds)
}

// FailInboundsFetch records a failed inbound fetch for nodeID.
func (s *Store) FailInboundsFetch(nodeID uint, seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.inbounds[nodeID]; ok {
		c.fail(seq)
	}
}

// MarkInboundsStale flags node nodeID's inbound collection for re-fetch.
func (s *Store) MarkInboundsStale(nodeID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.inbounds[nodeID]; ok {
		c.markStale()
	}
}

// DropInbounds removes node nodeID's inbound collection outright. Used when
// the node is deleted: the collection no longer exists, it is not merely
// stale.
func (s *Store) DropInbounds(nodeID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inbounds, nodeID)
}

// Inbounds returns the cached inbounds for nodeID and their state.
func (s *Store) Inbounds(nodeID uint) ([]model.Inbound, State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.inbounds[nodeID]
	if !ok {
		return nil, NotLoaded
	}
	return append([]model.Inbound(nil), c.items...), c.state
}

// Reset clears everything, e.g. on logout.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = collection[model.User]{}
	s.nodes = collection[model.Node]{}
	s.inbounds = make(map[uint]*collection[model.Inbound])
}
