package service

import (
	"context"

	"github.com/zenvpn/zen-console/client"
	"github.com/zenvpn/zen-console/logger"
	"github.com/zenvpn/zen-console/model"
	"github.com/zenvpn/zen-console/schema"
	"github.com/zenvpn/zen-console/store"
)

// UserService orchestrates the user lifecycle. Every successful mutation
// applies the returned entity, marks the users collection stale, and
// re-fetches it; no other collection is touched.
type UserService struct {
	api   *client.Client
	store *store.Store
	guard *inflightGuard
}

// List returns the users, fetching when the collection is not current.
func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	if users, state := s.store.Users(); state == store.Loaded {
		return users, nil
	}
	return s.Refresh(ctx)
}

// Refresh re-fetches the users collection. A result superseded by a newer
// fetch is discarded and the newer outcome stands.
func (s *UserService) Refresh(ctx context.Context) ([]model.User, error) {
	seq := s.store.BeginUsersFetch()
	users, err := s.api.ListUsers(ctx)
	if err != nil {
		s.store.FailUsersFetch(seq)
		return nil, err
	}
	if !s.store.CompleteUsersFetch(seq, users) {
		cached, _ := s.store.Users()
		return cached, nil
	}
	return users, nil
}

// Get fetches one user with its current attachment list.
func (s *UserService) Get(ctx context.Context, id uint) (*model.User, error) {
	return s.api.GetUser(ctx, id)
}

// Create provisions a user with an initial attachment set.
func (s *UserService) Create(ctx context.Context, in *model.CreateUserInput) (*model.User, error) {
	if err := schema.ValidateUser(in); err != nil {
		return nil, err
	}
	user, err := s.api.CreateUser(ctx, in)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return user, nil
}

// Update applies a partial overlay to one user.
func (s *UserService) Update(ctx context.Context, id uint, in *model.UpdateUserInput) (*model.User, error) {
	if err := schema.ValidateUserUpdate(in); err != nil {
		return nil, err
	}
	release, err := s.guard.acquire("users", id)
	if err != nil {
		return nil, err
	}
	defer release()

	user, err := s.api.UpdateUser(ctx, id, in)
	if err != nil {
		s.reconcile(ctx, err)
		return nil, err
	}
	s.store.ApplyUser(*user)
	s.invalidate(ctx)
	return user, nil
}

// Delete removes a user and its attachments.
func (s *UserService) Delete(ctx context.Context, id uint) error {
	release, err := s.guard.acquire("users", id)
	if err != nil {
		return err
	}
	defer release()

	if err := s.api.DeleteUser(ctx, id); err != nil {
		s.reconcile(ctx, err)
		return err
	}
	s.invalidate(ctx)
	return nil
}

// SetEnabled enables or disables a user.
func (s *UserService) SetEnabled(ctx context.Context, id uint, enabled bool) (*model.User, error) {
	release, err := s.guard.acquire("users", id)
	if err != nil {
		return nil, err
	}
	defer release()

	user, err := s.api.SetUserEnabled(ctx, id, enabled)
	if err != nil {
		s.reconcile(ctx, err)
		return nil, err
	}
	s.store.ApplyUser(*user)
	s.invalidate(ctx)
	return user, nil
}

// ResetUUID regenerates the user's secret identifier.
func (s *UserService) ResetUUID(ctx context.Context, id uint) (*model.User, error) {
	release, err := s.guard.acquire("users", id)
	if err != nil {
		return nil, err
	}
	defer release()

	user, err := s.api.ResetUserUUID(ctx, id)
	if err != nil {
		s.reconcile(ctx, err)
		return nil, err
	}
	s.store.ApplyUser(*user)
	s.invalidate(ctx)
	return user, nil
}

// ResetTraffic zeroes the user's data_used counter.
func (s *UserService) ResetTraffic(ctx context.Context, id uint) (*model.User, error) {
	release, err := s.guard.acquire("users", id)
	if err != nil {
		return nil, err
	}
	defer release()

	user, err := s.api.ResetUserTraffic(ctx, id)
	if err != nil {
		s.reconcile(ctx, err)
		return nil, err
	}
	s.store.ApplyUser(*user)
	s.invalidate(ctx)
	return user, nil
}

// invalidate marks users stale and re-fetches. The re-fetch is best effort;
// the stale mark survives a failure and the next List picks it up.
func (s *UserService) invalidate(ctx context.Context) {
	s.store.MarkUsersStale()
	if _, err := s.Refresh(ctx); err != nil {
		logger.Warningf("users re-fetch after mutation failed: %v", err)
	}
}

// reconcile marks the collection stale when the target no longer exists, so
// a racing delete shows up on the next load.
func (s *UserService) reconcile(ctx context.Context, err error) {
	if client.IsNotFound(err) || client.IsConflict(err) {
		s.invalidate(ctx)
	}
}
