package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zenvpn/zen-console/client"
	"github.com/zenvpn/zen-console/config"
	"github.com/zenvpn/zen-console/model"
	"github.com/zenvpn/zen-console/schema"
	"github.com/zenvpn/zen-console/store"
)

// testPanel is a minimal in-memory panel backing the orchestrator tests. It
// serves the standard envelope and counts requests per path.
type testPanel struct {
	mu     sync.Mutex
	users  []model.User
	nodes  []model.Node
	byNode map[uint][]model.Inbound
	hits   map[string]int

	// overrides, keyed by "METHOD path"
	reject map[string]int

	// intercept, when set before requests start, runs ahead of routing
	intercept func(r *http.Request)

	srv *httptest.Server
}

func newTestPanel(t *testing.T) *testPanel {
	t.Helper()
	p := &testPanel{
		byNode: make(map[uint][]model.Inbound),
		hits:   make(map[string]int),
		reject: make(map[string]int),
	}
	p.srv = httptest.NewServer(http.HandlerFunc(p.handle))
	t.Cleanup(p.srv.Close)
	return p
}

func (p *testPanel) services(t *testing.T) *Services {
	t.Helper()
	cfg := config.Config{
		PanelURL:  p.srv.URL,
		TokenFile: filepath.Join(t.TempDir(), "token"),
	}
	return NewWithClient(client.New(p.srv.URL, 5*time.Second), cfg)
}

func (p *testPanel) count(key string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hits[key]
}

func ok(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data})
}

func fail(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": msg})
}

func (p *testPanel) handle(w http.ResponseWriter, r *http.Request) {
	if p.intercept != nil {
		p.intercept(r)
	}
	key := r.Method + " " + r.URL.Path
	p.mu.Lock()
	p.hits[key]++
	if status, has := p.reject[key]; has {
		p.mu.Unlock()
		fail(w, status, "rejected")
		return
	}
	p.mu.Unlock()

	switch {
	case key == "POST /auth/login":
		ok(w, map[string]any{"token": "testtoken", "admin": map[string]any{"id": 1, "username": "root"}})
	case key == "GET /auth/me":
		ok(w, map[string]any{"id": 1, "username": "root"})
	case key == "POST /auth/logout":
		ok(w, nil)
	case key == "GET /users":
		p.mu.Lock()
		users := p.users
		p.mu.Unlock()
		ok(w, users)
	case key == "GET /nodes":
		p.mu.Lock()
		nodes := p.nodes
		p.mu.Unlock()
		ok(w, nodes)
	case key == "PUT /users/1":
		ok(w, model.User{ID: 1, Name: "alice", Enabled: true, DataUsed: 7})
	case key == "POST /users/1/reset-traffic":
		ok(w, model.User{ID: 1, Name: "alice", Enabled: true, DataUsed: 0})
	case key == "DELETE /users/1":
		ok(w, nil)
	case key == "DELETE /nodes/1":
		ok(w, nil)
	case key == "GET /nodes/1/status", key == "GET /nodes/2/status":
		ok(w, map[string]any{"online": true})
	case key == "GET /nodes/1/inbounds":
		p.mu.Lock()
		inbounds := p.byNode[1]
		p.mu.Unlock()
		ok(w, inbounds)
	case key == "POST /inbounds/5/generate-keys":
		ok(w, model.RealityKeys{PrivateKey: "priv", PublicKey: "pub", ShortID: "abcd"})
	case key == "GET /users/1/config":
		ok(w, model.UserConfig{ShareURL: p.srv.URL + "/sub/alice", URLs: []model.ShareURL{
			{InboundName: "edge", NodeName: "fra-1", URL: "vless://abc@fra1:443"},
			{InboundName: "bulk", NodeName: "ams-1", URL: "hysteria2://abc@ams1:8443"},
		}})
	default:
		fail(w, http.StatusNotFound, "no route "+key)
	}
}

func TestMutationAppliesEntityAndRefreshes(t *testing.T) {
	p := newTestPanel(t)
	p.users = []model.User{{ID: 1, Name: "alice", Enabled: true, DataUsed: 3}}
	svc := p.services(t)
	ctx := context.Background()

	_, err := svc.Users.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, p.count("GET /users"))

	enabled := true
	updated, err := svc.Users.Update(ctx, 1, &model.UpdateUserInput{Enabled: &enabled})
	require.NoError(t, err)
	assert.Equal(t, int64(7), updated.DataUsed)

	// the mutation re-fetched the collection
	assert.Equal(t, 2, p.count("GET /users"))
	users, state := svc.Store.Users()
	assert.Equal(t, store.Loaded, state)
	require.Len(t, users, 1)
}

func TestListServedFromCacheWhenLoaded(t *testing.T) {
	p := newTestPanel(t)
	p.users = []model.User{{ID: 1, Name: "alice"}}
	svc := p.services(t)
	ctx := context.Background()

	_, err := svc.Users.List(ctx)
	require.NoError(t, err)
	_, err = svc.Users.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, p.count("GET /users"), "second List must hit the cache")
}

func TestResetTrafficZeroesUsage(t *testing.T) {
	p := newTestPanel(t)
	p.users = []model.User{{ID: 1, Name: "alice", DataUsed: 99}}
	svc := p.services(t)

	user, err := svc.Users.ResetTraffic(context.Background(), 1)
	require.NoError(t, err)
	assert.Zero(t, user.DataUsed)
}

func TestNodeDeleteDropsInbounds(t *testing.T) {
	p := newTestPanel(t)
	p.nodes = []model.Node{{ID: 1, Name: "fra-1"}}
	p.byNode[1] = []model.Inbound{{ID: 10, NodeID: 1, Protocol: model.ProtocolReality}}
	svc := p.services(t)
	ctx := context.Background()

	_, err := svc.Inbounds.List(ctx, 1)
	require.NoError(t, err)
	_, state := svc.Store.Inbounds(1)
	require.Equal(t, store.Loaded, state)

	require.NoError(t, svc.Nodes.Delete(ctx, 1))

	_, state = svc.Store.Inbounds(1)
	assert.Equal(t, store.NotLoaded, state, "deleted node's inbounds are gone, not stale")
}

func TestGenerateKeysRequiresSavedInbound(t *testing.T) {
	p := newTestPanel(t)
	svc := p.services(t)

	_, err := svc.Inbounds.GenerateKeys(context.Background(), 0)
	require.Error(t, err)
	assert.True(t, schema.IsValidation(err))
	assert.Empty(t, p.hits, "no request may reach the wire for an unsaved inbound")

	keys, err := svc.Inbounds.GenerateKeys(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "pub", keys.PublicKey)
}

func TestConcurrentMutationRejected(t *testing.T) {
	p := newTestPanel(t)
	svc := p.services(t)
	ctx := context.Background()

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	p.intercept = func(r *http.Request) {
		if r.Method == http.MethodPut && r.URL.Path == "/users/1" {
			// the first update parks inside the request until released
			once.Do(func() {
				close(entered)
				<-release
			})
		}
	}

	enabled := true
	var wg sync.WaitGroup
	wg.Add(1)
	var firstErr error
	go func() {
		defer wg.Done()
		_, firstErr = svc.Users.Update(ctx, 1, &model.UpdateUserInput{Enabled: &enabled})
	}()

	<-entered
	_, err := svc.Users.Update(ctx, 1, &model.UpdateUserInput{Enabled: &enabled})
	assert.ErrorIs(t, err, ErrMutationInFlight)

	close(release)
	wg.Wait()
	require.NoError(t, firstErr)

	// once the first resolves the slot is free again
	_, err = svc.Users.Update(ctx, 1, &model.UpdateUserInput{Enabled: &enabled})
	assert.NoError(t, err)
}

func TestDistinctEntitiesMutateIndependently(t *testing.T) {
	g := newInflightGuard()

	rel1, err := g.acquire("users", 1)
	require.NoError(t, err)
	rel2, err := g.acquire("users", 2)
	require.NoError(t, err, "different id, no contention")
	rel3, err := g.acquire("nodes", 1)
	require.NoError(t, err, "different resource, no contention")

	_, err = g.acquire("users", 1)
	assert.ErrorIs(t, err, ErrMutationInFlight)

	rel1()
	rel2()
	rel3()
	_, err = g.acquire("users", 1)
	assert.NoError(t, err)
}

func TestNotFoundMutationReconciles(t *testing.T) {
	p := newTestPanel(t)
	p.users = []model.User{{ID: 1, Name: "alice"}}
	svc := p.services(t)
	ctx := context.Background()

	_, err := svc.Users.List(ctx)
	require.NoError(t, err)

	p.mu.Lock()
	p.reject["PUT /users/1"] = http.StatusNotFound
	p.users = nil
	p.mu.Unlock()

	enabled := true
	_, err = svc.Users.Update(ctx, 1, &model.UpdateUserInput{Enabled: &enabled})
	require.Error(t, err)
	assert.True(t, client.IsNotFound(err))

	// reconcile re-fetched; the vanished user is gone from the cache
	users, state := svc.Store.Users()
	assert.Equal(t, store.Loaded, state)
	assert.Empty(t, users)
}

func TestValidationFailureNeverReachesWire(t *testing.T) {
	p := newTestPanel(t)
	svc := p.services(t)

	in := schema.Defaults(1, model.ProtocolReality)
	in.Name = "edge"
	// sni missing
	_, err := svc.Inbounds.Create(context.Background(), &in)
	require.Error(t, err)
	assert.True(t, schema.IsValidation(err))
	assert.Zero(t, p.count("POST /nodes/1/inbounds"))
}

func TestSessionLifecycle(t *testing.T) {
	p := newTestPanel(t)
	svc := p.services(t)
	ctx := context.Background()

	assert.False(t, svc.Session.LoggedIn())

	admin, err := svc.Session.Login(ctx, "root", "secret")
	require.NoError(t, err)
	assert.Equal(t, "root", admin.Username)
	assert.True(t, svc.Session.LoggedIn())

	// token persisted for the next run
	data, err := os.ReadFile(svc.Session.tokenFile)
	require.NoError(t, err)
	assert.Equal(t, "testtoken", string(data[:len(data)-1]))

	svc.Session.Logout(ctx)
	assert.False(t, svc.Session.LoggedIn())
	assert.Nil(t, svc.Session.Identity())
	_, err = os.Stat(svc.Session.tokenFile)
	assert.True(t, os.IsNotExist(err))
}

func TestAuthFailureTearsDownSession(t *testing.T) {
	p := newTestPanel(t)
	p.users = []model.User{{ID: 1}}
	svc := p.services(t)
	ctx := context.Background()

	_, err := svc.Session.Login(ctx, "root", "secret")
	require.NoError(t, err)
	_, err = svc.Users.List(ctx)
	require.NoError(t, err)

	p.mu.Lock()
	p.reject["GET /users"] = http.StatusUnauthorized
	p.mu.Unlock()

	_, err = svc.Users.Refresh(ctx)
	require.Error(t, err)
	assert.True(t, client.IsAuth(err))

	assert.False(t, svc.Session.LoggedIn(), "rejected credential tears the session down")
	_, state := svc.Store.Users()
	assert.Equal(t, store.NotLoaded, state, "store is reset on teardown")
	_, err = os.Stat(svc.Session.tokenFile)
	assert.True(t, os.IsNotExist(err))
}

func TestChangePasswordRequiresSession(t *testing.T) {
	p := newTestPanel(t)
	svc := p.services(t)

	err := svc.Session.ChangePassword(context.Background(), "old", "new")
	assert.True(t, errors.Is(err, ErrNotLoggedIn))
}

func TestRestoreVerifiesPersistedToken(t *testing.T) {
	p := newTestPanel(t)
	svc := p.services(t)
	ctx := context.Background()

	_, err := svc.Session.Login(ctx, "root", "secret")
	require.NoError(t, err)
	tokenFile := svc.Session.tokenFile

	// a fresh process with the same token file picks the session back up
	cfg := config.Config{PanelURL: p.srv.URL, TokenFile: tokenFile}
	fresh := NewWithClient(client.New(p.srv.URL, 5*time.Second), cfg)
	require.NoError(t, fresh.Session.Restore(ctx))
	assert.True(t, fresh.Session.LoggedIn())
	require.NotNil(t, fresh.Session.Identity())
	assert.Equal(t, "root", fresh.Session.Identity().Username)
}

func TestNodeCreateGeneratesAPIToken(t *testing.T) {
	in := &model.CreateNodeInput{Name: "fra-1", Address: "fra1.example.com", APIPort: 8080}
	require.Empty(t, in.APIToken)
	require.NoError(t, schema.ValidateNode(&model.CreateNodeInput{
		Name: in.Name, Address: in.Address, APIPort: in.APIPort, APIToken: schema.NewAPIToken(),
	}))

	p := newTestPanel(t)
	svc := p.services(t)
	// the panel has no POST /nodes route; the request still proves the token
	// was filled in before validation
	_, err := svc.Nodes.Create(context.Background(), in)
	require.Error(t, err)
	assert.Len(t, in.APIToken, 32, "missing api_token is generated client side")
	assert.Equal(t, 1, p.count("POST /nodes"), "validation passed, request was issued")
}

func TestProbeDegradesToOffline(t *testing.T) {
	p := newTestPanel(t)
	svc := p.services(t)
	ctx := context.Background()

	assert.Equal(t, model.NodeUnknown, svc.Nodes.Status(9))

	// node 9 has no status route: the probe records offline, never an error
	state := svc.Nodes.Probe(ctx, 9)
	assert.Equal(t, model.NodeOffline, state)
	assert.Equal(t, model.NodeOffline, svc.Nodes.Status(9))

	state = svc.Nodes.Probe(ctx, 1)
	assert.Equal(t, model.NodeOnline, state)
	assert.Equal(t, model.NodeOnline, svc.Nodes.Status(1))
}

func TestProbeAllWithFailingAgents(t *testing.T) {
	p := newTestPanel(t)
	svc := p.services(t)

	// none of these nodes has a status route: every probe fails, logs, and
	// records offline, concurrently
	nodes := make([]model.Node, 32)
	for i := range nodes {
		nodes[i] = model.Node{ID: uint(100 + i)}
	}
	svc.Nodes.ProbeAll(context.Background(), nodes)

	for _, n := range nodes {
		assert.Equal(t, model.NodeOffline, svc.Nodes.Status(n.ID))
	}
}

func TestConfigNeverCached(t *testing.T) {
	p := newTestPanel(t)
	svc := p.services(t)
	ctx := context.Background()

	first, err := svc.Configs.Get(ctx, 1)
	require.NoError(t, err)
	_, err = svc.Configs.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, p.count("GET /users/1/config"), "every view fetches fresh")

	// one share URL per attachment, each tagged with its owning node and inbound
	require.Len(t, first.URLs, 2)
	assert.Equal(t, "edge", first.URLs[0].InboundName)
	assert.Equal(t, "fra-1", first.URLs[0].NodeName)
	assert.Equal(t, "ams-1", first.URLs[1].NodeName)
}

func TestSubscriptionEncoding(t *testing.T) {
	svc := &ConfigService{}
	cfg := &model.UserConfig{URLs: []model.ShareURL{
		{URL: "vless://a@h:443"},
		{URL: "hysteria2://b@h:443"},
	}}
	blob := svc.Subscription(cfg)
	assert.Equal(t, "dmxlc3M6Ly9hQGg6NDQzCmh5c3RlcmlhMjovL2JAaDo0NDM=", blob)
}

func TestQRCode(t *testing.T) {
	svc := &ConfigService{}
	png, err := svc.QRCode("vless://a@h:443")
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), png[:4])

	uri, err := svc.QRCodeBase64("vless://a@h:443")
	require.NoError(t, err)
	assert.Contains(t, uri, "data:image/png;base64,")
}
