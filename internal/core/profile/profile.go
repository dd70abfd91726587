// Package profile stores the signed-in user and their subscription state.
package profile

import (
	"context"
	"errors"
	"slices"
	"time"
)

// ErrNoUser is returned when no user is signed in.
var ErrNoUser = errors.New("no user signed in")

// User is the signed-in user's profile.
type User struct {
	ID                    string     `json:"id"`
	Name                  string     `json:"name"`
	Subscription          string     `json:"subscription"`
	SubscriptionStartDate *time.Time `json:"subscription_start_date,omitempty"`
	SubscriptionEndDate   *time.Time `json:"subscription_end_date,omitempty"`
	PaymentMethod         string     `json:"payment_method,omitempty"`
	Portfolio             []string   `json:"portfolio"`
	CreatedAt             time.Time  `json:"created_at"`
}

// PortfolioSize returns the number of cards in the portfolio.
func (u *User) PortfolioSize() int {
	return len(u.Portfolio)
}

// Clone returns a deep copy of u.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.Portfolio = slices.Clone(u.Portfolio)
	if u.SubscriptionStartDate != nil {
		t := *u.SubscriptionStartDate
		c.SubscriptionStartDate = &t
	}
	if u.SubscriptionEndDate != nil {
		t := *u.SubscriptionEndDate
		c.SubscriptionEndDate = &t
	}
	return &c
}

// Update is a partial profile change. Nil fields are left untouched.
type Update struct {
	Name                  *string
	Subscription          *string
	SubscriptionStartDate *time.Time
	SubscriptionEndDate   *time.Time
	ClearEndDate          bool
	PaymentMethod         *string
}

// Apply writes the non-nil fields of up onto u.
func (up Update) Apply(u *User) {
	if up.Name != nil {
		u.Name = *up.Name
	}
	if up.Subscription != nil {
		u.Subscription = *up.Subscription
	}
	if up.SubscriptionStartDate != nil {
		t := *up.SubscriptionStartDate
		u.SubscriptionStartDate = &t
	}
	if up.ClearEndDate {
		u.SubscriptionEndDate = nil
	}
	if up.SubscriptionEndDate != nil {
		t := *up.SubscriptionEndDate
		u.SubscriptionEndDate = &t
	}
	if up.PaymentMethod != nil {
		u.PaymentMethod = *up.PaymentMethod
	}
}

// Provider exposes the current user to the entitlement gate.
type Provider interface {
	CurrentUser(ctx context.Context) (*User, error)
	IsAuthenticated(ctx context.Context) bool
	UpdateProfile(ctx context.Context, up Update) (*User, error)
}
