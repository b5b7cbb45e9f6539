package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zenvpn/zen-console/model"
)

func TestCollectionLifecycle(t *testing.T) {
	s := New()

	_, state := s.Users()
	assert.Equal(t, NotLoaded, state)

	seq := s.BeginUsersFetch()
	_, state = s.Users()
	assert.Equal(t, Loading, state)

	require.True(t, s.CompleteUsersFetch(seq, []model.User{{ID: 1, Name: "alice"}}))
	users, state := s.Users()
	assert.Equal(t, Loaded, state)
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].Name)

	s.MarkUsersStale()
	_, state = s.Users()
	assert.Equal(t, Stale, state)
}

func TestStaleFetchResultDiscarded(t *testing.T) {
	s := New()

	slow := s.BeginUsersFetch()
	fast := s.BeginUsersFetch()

	require.True(t, s.CompleteUsersFetch(fast, []model.User{{ID: 2, Name: "bob"}}))
	// the older fetch resolves after the newer one: its data must not win
	assert.False(t, s.CompleteUsersFetch(slow, []model.User{{ID: 1, Name: "alice"}}))

	users, state := s.Users()
	assert.Equal(t, Loaded, state)
	require.Len(t, users, 1)
	assert.Equal(t, "bob", users[0].Name)
}

func TestStaleFailureIgnored(t *testing.T) {
	s := New()

	slow := s.BeginUsersFetch()
	fast := s.BeginUsersFetch()
	require.True(t, s.CompleteUsersFetch(fast, []model.User{{ID: 2}}))

	// the superseded fetch failing must not disturb the loaded state
	s.FailUsersFetch(slow)
	_, state := s.Users()
	assert.Equal(t, Loaded, state)
}

func TestFailKeepsPreviousData(t *testing.T) {
	s := New()

	seq := s.BeginUsersFetch()
	require.True(t, s.CompleteUsersFetch(seq, []model.User{{ID: 1}}))

	seq = s.BeginUsersFetch()
	s.FailUsersFetch(seq)
	users, state := s.Users()
	assert.Equal(t, Stale, state)
	assert.Len(t, users, 1)
}

func TestFailWithoutDataGoesNotLoaded(t *testing.T) {
	s := New()
	seq := s.BeginNodesFetch()
	s.FailNodesFetch(seq)
	_, state := s.Nodes()
	assert.Equal(t, NotLoaded, state)
}

func TestMarkStaleOnlyAffectsLoaded(t *testing.T) {
	s := New()

	s.MarkUsersStale()
	_, state := s.Users()
	assert.Equal(t, NotLoaded, state)

	s.BeginUsersFetch()
	s.MarkUsersStale()
	_, state = s.Users()
	assert.Equal(t, Loading, state)
}

func TestApplyUserOverlaysInPlace(t *testing.T) {
	s := New()
	seq := s.BeginUsersFetch()
	require.True(t, s.CompleteUsersFetch(seq, []model.User{{ID: 1, Name: "alice"}, {ID: 2, Name: "bob"}}))

	s.ApplyUser(model.User{ID: 2, Name: "bob", DataUsed: 42})
	users, state := s.Users()
	assert.Equal(t, Loaded, state, "apply must not change collection state")
	assert.Equal(t, int64(42), users[1].DataUsed)

	// unknown ids are ignored, not appended
	s.ApplyUser(model.User{ID: 99})
	users, _ = s.Users()
	assert.Len(t, users, 2)
}

func TestInboundsPerNode(t *testing.T) {
	s := New()

	seq1 := s.BeginInboundsFetch(1)
	seq2 := s.BeginInboundsFetch(2)
	require.True(t, s.CompleteInboundsFetch(1, seq1, []model.Inbound{{ID: 10, NodeID: 1}}))
	require.True(t, s.CompleteInboundsFetch(2, seq2, []model.Inbound{{ID: 20, NodeID: 2}}))

	s.MarkInboundsStale(1)
	_, state := s.Inbounds(1)
	assert.Equal(t, Stale, state)
	_, state = s.Inbounds(2)
	assert.Equal(t, Loaded, state, "other node's collection untouched")
}

func TestDropInbounds(t *testing.T) {
	s := New()

	seq := s.BeginInboundsFetch(1)
	require.True(t, s.CompleteInboundsFetch(1, seq, []model.Inbound{{ID: 10, NodeID: 1}}))

	s.DropInbounds(1)
	inbounds, state := s.Inbounds(1)
	assert.Equal(t, NotLoaded, state)
	assert.Empty(t, inbounds)
}

func TestDropWinsOverLateFetch(t *testing.T) {
	s := New()

	seq := s.BeginInboundsFetch(1)
	s.DropInbounds(1)

	// fetch issued before the drop must not resurrect the collection
	assert.False(t, s.CompleteInboundsFetch(1, seq, []model.Inbound{{ID: 10, NodeID: 1}}))
	_, state := s.Inbounds(1)
	assert.Equal(t, NotLoaded, state)
}

func TestReset(t *testing.T) {
	s := New()
	require.True(t, s.CompleteUsersFetch(s.BeginUsersFetch(), []model.User{{ID: 1}}))
	require.True(t, s.CompleteNodesFetch(s.BeginNodesFetch(), []model.Node{{ID: 1}}))
	require.True(t, s.CompleteInboundsFetch(1, s.BeginInboundsFetch(1), []model.Inbound{{ID: 10}}))

	s.Reset()

	_, state := s.Users()
	assert.Equal(t, NotLoaded, state)
	_, state = s.Nodes()
	assert.Equal(t, NotLoaded, state)
	_, state = s.Inbounds(1)
	assert.Equal(t, NotLoaded, state)
}
