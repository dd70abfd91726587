package profile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/internal/core/kv"
)

func ptr[T any](v T) *T { return &v }

func TestStore_LoginCreatesFreeUser(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	s := NewStore(kv.NewMemory()).WithClock(func() time.Time { return now })

	assert.False(t, s.IsAuthenticated(ctx))
	_, err := s.CurrentUser(ctx)
	require.ErrorIs(t, err, ErrNoUser)

	u, err := s.Login(ctx, "u1", "Ada")
	require.NoError(t, err)
	assert.Equal(t, "free", u.Subscription)
	assert.Equal(t, now, u.CreatedAt)
	assert.Empty(t, u.Portfolio)

	assert.True(t, s.IsAuthenticated(ctx))
	cur, err := s.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ada", cur.Name)
}

func TestStore_LogoutKeepsProfile(t *testing.T) {
	ctx := context.Background()
	s := NewStore(kv.NewMemory())

	_, err := s.Login(ctx, "u1", "Ada")
	require.NoError(t, err)
	_, err = s.UpdateProfile(ctx, Update{Subscription: ptr("pro")})
	require.NoError(t, err)

	require.NoError(t, s.Logout(ctx))
	assert.False(t, s.IsAuthenticated(ctx))

	_, err = s.UpdateProfile(ctx, Update{Name: ptr("x")})
	require.ErrorIs(t, err, ErrNoUser)

	u, err := s.Login(ctx, "u1", "")
	require.NoError(t, err)
	assert.Equal(t, "pro", u.Subscription)
	assert.Equal(t, "Ada", u.Name)
}

func TestStore_UpdateProfilePartial(t *testing.T) {
	ctx := context.Background()
	s := NewStore(kv.NewMemory())
	_, err := s.Login(ctx, "u1", "Ada")
	require.NoError(t, err)

	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	u, err := s.UpdateProfile(ctx, Update{
		Subscription:          ptr("elite"),
		SubscriptionStartDate: &start,
		SubscriptionEndDate:   &end,
		PaymentMethod:         ptr("stripe"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada", u.Name)
	assert.Equal(t, "elite", u.Subscription)
	assert.Equal(t, "stripe", u.PaymentMethod)
	require.NotNil(t, u.SubscriptionEndDate)

	u, err = s.UpdateProfile(ctx, Update{ClearEndDate: true})
	require.NoError(t, err)
	assert.Nil(t, u.SubscriptionEndDate)
	assert.Equal(t, start, *u.SubscriptionStartDate)
}

func TestStore_AddPortfolioCard(t *testing.T) {
	ctx := context.Background()
	s := NewStore(kv.NewMemory())

	_, err := s.AddPortfolioCard(ctx, "c1")
	require.ErrorIs(t, err, ErrNoUser)

	_, err = s.Login(ctx, "u1", "Ada")
	require.NoError(t, err)

	_, err = s.AddPortfolioCard(ctx, "c1")
	require.NoError(t, err)
	u, err := s.AddPortfolioCard(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 1, u.PortfolioSize())

	u, err = s.AddPortfolioCard(ctx, "c2")
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2"}, u.Portfolio)

	_, err = s.AddPortfolioCard(ctx, "")
	assert.Error(t, err)
}

func TestStore_CorruptSession(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	mem.SetRaw(KeyCurrent, []byte("{"))

	s := NewStore(mem)
	assert.False(t, s.IsAuthenticated(ctx))
}

func TestStore_LoginRequiresID(t *testing.T) {
	_, err := NewStore(kv.NewMemory()).Login(context.Background(), "", "x")
	assert.Error(t, err)
}

func TestUser_Clone(t *testing.T) {
	start := time.Now()
	u := &User{ID: "a", Portfolio: []string{"c1"}, SubscriptionStartDate: &start}

	c := u.Clone()
	c.Portfolio[0] = "changed"
	*c.SubscriptionStartDate = start.Add(time.Hour)

	assert.Equal(t, "c1", u.Portfolio[0])
	assert.Equal(t, start, *u.SubscriptionStartDate)
	assert.Nil(t, (*User)(nil).Clone())
}
