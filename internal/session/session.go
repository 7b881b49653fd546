// Package session caches the logged in identity in the local store and decides auto-login.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/idilsaglam/backlog/internal/logging"
	"github.com/idilsaglam/backlog/internal/model"
	"github.com/idilsaglam/backlog/internal/store/jsonstore"
	"go.uber.org/zap"
)

const (
	keyUser    = "session.user"
	keyPersist = "session.persist"
)

// UserLookup confirms that a cached user still exists on the backend.
type UserLookup interface {
	GetUser(ctx context.Context, id int64) (model.User, error)
}

// Cache persists and recalls who is logged in.
type Cache struct {
	store jsonstore.Store
	users UserLookup
	log   *logging.Logger
}

func New(store jsonstore.Store, users UserLookup, log *logging.Logger) *Cache {
	if log == nil {
		log = logging.NewNop()
	}
	return &Cache{store: store, users: users, log: log.Named("session")}
}

// Save writes s, overwriting any previous session. The stay-logged-in flag key
// exists only while s.PersistLogin is true.
func (c *Cache) Save(ctx context.Context, s model.Session) error {
	if err := s.Validate(); err != nil {
		return err
	}
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := c.store.Set(ctx, keyUser, string(b)); err != nil {
		return err
	}
	if s.PersistLogin {
		return c.store.Set(ctx, keyPersist, "true")
	}
	return c.store.Remove(ctx, keyPersist)
}

// LoadAndValidate returns the cached session if auto-login applies.
//
// Without the stay-logged-in flag it returns nil without contacting the backend.
// With the flag, the cached user id is looked up; any lookup failure clears the
// cache and yields nil, as does a cached value that does not decode. Storage
// failures are returned unchanged.
func (c *Cache) LoadAndValidate(ctx context.Context) (*model.Session, error) {
	flag, ok, err := c.store.Get(ctx, keyPersist)
	if err != nil {
		return nil, err
	}
	if !ok || flag != "true" {
		return nil, nil
	}

	s, err := c.Current(ctx)
	switch {
	case errors.Is(err, model.ErrInvalid):
		c.log.Warn(ctx, "cached session unreadable", zap.Error(err))
		return nil, c.clearKeys(ctx)
	case err != nil:
		return nil, err
	case s == nil:
		return nil, c.clearKeys(ctx)
	}
	s.PersistLogin = true

	if _, err := c.users.GetUser(ctx, s.UserID); err != nil {
		c.log.Info(ctx, "cached user rejected by backend", zap.Int64("user.id", s.UserID), zap.Error(err))
		return nil, c.clearKeys(ctx)
	}
	return s, nil
}

// Current returns the cached identity without validating it, or nil when nobody is logged in.
// A value that does not decode is reported as an error.
func (c *Cache) Current(ctx context.Context) (*model.Session, error) {
	raw, ok, err := c.store.Get(ctx, keyUser)
	if err != nil {
		return nil, err
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var s model.Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("%w: session: %w", model.ErrInvalid, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	flag, _, err := c.store.Get(ctx, keyPersist)
	if err != nil {
		return nil, err
	}
	s.PersistLogin = flag == "true"
	return &s, nil
}

// Rename updates the cached display name after a profile edit. No-op when logged out.
func (c *Cache) Rename(ctx context.Context, name string) error {
	s, err := c.Current(ctx)
	if err != nil || s == nil {
		return err
	}
	s.DisplayName = name
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return c.store.Set(ctx, keyUser, string(b))
}

// Clear removes all locally persisted state.
func (c *Cache) Clear(ctx context.Context) error {
	return c.store.Clear(ctx)
}

func (c *Cache) clearKeys(ctx context.Context) error {
	return c.store.Remove(ctx, keyUser, keyPersist)
}
