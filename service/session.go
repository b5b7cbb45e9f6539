package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/zenvpn/zen-console/client"
	"github.com/zenvpn/zen-console/logger"
	"github.com/zenvpn/zen-console/model"
	"github.com/zenvpn/zen-console/store"
)

// ErrNotLoggedIn is returned by operations that need a session when none is
// established.
var ErrNotLoggedIn = errors.New("not logged in")

// SessionService owns the process-wide session state: the credential, the
// operator identity, and their persistence across runs. Teardown happens on
// explicit logout or on any authentication failure reported by the client.
type SessionService struct {
	api       *client.Client
	store     *store.Store
	tokenFile string

	mu       sync.Mutex
	token    string
	identity *model.AuthUser
}

func newSessionService(api *client.Client, st *store.Store, tokenFile string) *SessionService {
	s := &SessionService{api: api, store: st, tokenFile: tokenFile}
	api.SetTokenProvider(s.Token)
	api.SetOnUnauthorized(s.invalidate)
	return s
}

// Token returns the current credential, or "" when logged out.
func (s *SessionService) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Identity returns the authenticated operator, or nil.
func (s *SessionService) Identity() *model.AuthUser {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// LoggedIn reports whether a credential is present.
func (s *SessionService) LoggedIn() bool { return s.Token() != "" }

// Login authenticates and persists the credential.
func (s *SessionService) Login(ctx context.Context, username, password string) (*model.AuthUser, error) {
	res, err := s.api.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.token = res.Token
	s.identity = &res.Admin
	s.mu.Unlock()

	if err := s.persist(res.Token); err != nil {
		logger.Warningf("failed to persist session token: %v", err)
	}
	return &res.Admin, nil
}

// LoadToken restores a persisted credential without contacting the server.
// Whether it is still valid only shows on the first call that uses it.
func (s *SessionService) LoadToken() error {
	data, err := os.ReadFile(s.tokenFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return nil
	}
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

// Restore loads a persisted credential and verifies it with whoami. A
// rejected credential is discarded silently; the caller just isn't logged in.
func (s *SessionService) Restore(ctx context.Context) error {
	if err := s.LoadToken(); err != nil {
		return err
	}
	if !s.LoggedIn() {
		return nil
	}

	identity, err := s.api.Whoami(ctx)
	if err != nil {
		if client.IsAuth(err) {
			// invalidate already ran via the client hook
			return nil
		}
		return err
	}
	s.mu.Lock()
	s.identity = identity
	s.mu.Unlock()
	return nil
}

// Logout invalidates the session server side (best effort) and tears down
// local state either way.
func (s *SessionService) Logout(ctx context.Context) {
	if s.LoggedIn() {
		if err := s.api.Logout(ctx); err != nil && !client.IsAuth(err) {
			logger.Warningf("server logout failed: %v", err)
		}
	}
	s.invalidate()
}

// ChangePassword replaces the operator password.
func (s *SessionService) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	if !s.LoggedIn() {
		return ErrNotLoggedIn
	}
	return s.api.ChangePassword(ctx, oldPassword, newPassword)
}

// invalidate drops the credential, the persisted token, and everything in
// the store. Runs on logout and whenever the server rejects the credential.
func (s *SessionService) invalidate() {
	s.mu.Lock()
	s.token = ""
	s.identity = nil
	s.mu.Unlock()

	s.store.Reset()
	if err := os.Remove(s.tokenFile); err != nil && !os.IsNotExist(err) {
		logger.Warningf("failed to remove token file: %v", err)
	}
}

func (s *SessionService) persist(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.tokenFile), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.tokenFile, []byte(token+"\n"), 0o600)
}
