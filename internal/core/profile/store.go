package profile

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/internal/core/kv"
)

// KeyCurrent holds the id of the signed-in user.
const KeyCurrent = "profile:current"

// DefaultSubscription is assigned to newly created users.
const DefaultSubscription = "free"

// Store is a KV-backed Provider. Users are kept under "profile:user:<id>"
// so that signing out and back in preserves their subscription.
type Store struct {
	kv    kv.KV
	users *kv.TypedKV[User]
	now   func() time.Time
}

var _ Provider = (*Store)(nil)

// NewStore creates a profile store on top of store.
func NewStore(store kv.KV) *Store {
	return &Store{
		kv:    store,
		users: kv.Scoped[User](store, "profile:user"),
		now:   time.Now,
	}
}

// WithClock replaces the clock used for creation timestamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) currentID(ctx context.Context) (string, error) {
	var id string
	err := s.kv.Get(ctx, KeyCurrent, &id)
	switch {
	case err == nil && id != "":
		return id, nil
	case err == nil, kv.IsNotFound(err), kv.IsDecodeError(err):
		return "", ErrNoUser
	default:
		return "", fmt.Errorf("read current user: %w", err)
	}
}

// CurrentUser returns the signed-in user or ErrNoUser.
func (s *Store) CurrentUser(ctx context.Context) (*User, error) {
	id, err := s.currentID(ctx)
	if err != nil {
		return nil, err
	}

	u, err := s.users.Get(ctx, id)
	if err != nil {
		if kv.IsNotFound(err) || kv.IsDecodeError(err) {
			return nil, ErrNoUser
		}
		return nil, fmt.Errorf("read user %s: %w", id, err)
	}
	return &u, nil
}

// IsAuthenticated reports whether a user is signed in.
func (s *Store) IsAuthenticated(ctx context.Context) bool {
	_, err := s.CurrentUser(ctx)
	return err == nil
}

// Login signs in id, creating a free-tier profile on first use.
func (s *Store) Login(ctx context.Context, id, name string) (*User, error) {
	if id == "" {
		return nil, fmt.Errorf("login: user id is required")
	}

	u, err := s.users.Get(ctx, id)
	switch {
	case err == nil:
		if name != "" {
			u.Name = name
		}
	case kv.IsNotFound(err), kv.IsDecodeError(err):
		u = User{
			ID:           id,
			Name:         name,
			Subscription: DefaultSubscription,
			Portfolio:    []string{},
			CreatedAt:    s.now(),
		}
	default:
		return nil, fmt.Errorf("login: %w", err)
	}

	if err := s.users.Set(ctx, id, u); err != nil {
		return nil, fmt.Errorf("login: save user: %w", err)
	}
	if err := s.kv.Set(ctx, KeyCurrent, id); err != nil {
		return nil, fmt.Errorf("login: save session: %w", err)
	}
	return &u, nil
}

// Logout signs the current user out. The profile itself is kept.
func (s *Store) Logout(ctx context.Context) error {
	if err := s.kv.Delete(ctx, KeyCurrent); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// UpdateProfile applies up to the signed-in user and saves it.
func (s *Store) UpdateProfile(ctx context.Context, up Update) (*User, error) {
	return s.mutate(ctx, func(u *User) error {
		up.Apply(u)
		return nil
	})
}

// AddPortfolioCard appends cardID to the signed-in user's portfolio. Adding a
// card that is already present is a no-op.
func (s *Store) AddPortfolioCard(ctx context.Context, cardID string) (*User, error) {
	return s.mutate(ctx, func(u *User) error {
		if cardID == "" {
			return fmt.Errorf("card id is required")
		}
		if !slices.Contains(u.Portfolio, cardID) {
			u.Portfolio = append(u.Portfolio, cardID)
		}
		return nil
	})
}

func (s *Store) mutate(ctx context.Context, fn func(u *User) error) (*User, error) {
	u, err := s.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := fn(u); err != nil {
		return nil, err
	}
	if err := s.users.Set(ctx, u.ID, *u); err != nil {
		return nil, fmt.Errorf("save user %s: %w", u.ID, err)
	}
	return u, nil
}
