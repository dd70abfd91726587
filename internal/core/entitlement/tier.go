// Package entitlement defines the subscription tiers and gates actions on the
// current tier and daily usage.
package entitlement

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
)

// Name identifies a subscription tier.
type Name string

const (
	Free  Name = "free"
	Pro   Name = "pro"
	Elite Name = "elite"
)

// ErrUnknownTier is returned when a tier name is not one of Free, Pro, Elite.
var ErrUnknownTier = errors.New("unknown subscription tier")

// ParseName converts s to a tier Name.
func ParseName(s string) (Name, error) {
	switch n := Name(s); n {
	case Free, Pro, Elite:
		return n, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTier, s)
	}
}

// Quota is a daily or absolute limit that is either a finite count or
// Unlimited.
type Quota struct {
	n         int
	unlimited bool
}

// Unlimited is the quota that allows any usage.
var Unlimited = Quota{unlimited: true}

// Limit returns a finite quota of n.
func Limit(n int) Quota { return Quota{n: max(n, 0)} }

// IsUnlimited reports whether q has no cap.
func (q Quota) IsUnlimited() bool { return q.unlimited }

// Max returns the finite cap. It is meaningless for Unlimited.
func (q Quota) Max() int { return q.n }

// Allows reports whether one more use is permitted after used.
func (q Quota) Allows(used int) bool { return q.unlimited || used < q.n }

// Reached reports whether used has hit a finite cap.
func (q Quota) Reached(used int) bool { return !q.unlimited && used >= q.n }

func (q Quota) String() string {
	if q.unlimited {
		return "Unlimited"
	}
	return strconv.Itoa(q.n)
}

// MarshalJSON encodes Unlimited as the string "unlimited" and finite quotas
// as numbers.
func (q Quota) MarshalJSON() ([]byte, error) {
	if q.unlimited {
		return []byte(`"unlimited"`), nil
	}
	return json.Marshal(q.n)
}

// Money is an amount in cents.
type Money int64

func (m Money) String() string {
	return fmt.Sprintf("$%d.%02d", int64(m)/100, int64(m)%100)
}

// MarshalJSON encodes m as its display string.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// Limits are the quotas and capability flags of a tier.
type Limits struct {
	DailyGradings        Quota `json:"daily_gradings"`
	DailyOracleQuestions Quota `json:"daily_oracle_questions"`
	PortfolioCards       Quota `json:"portfolio_cards"`
	AdvancedFeatures     bool  `json:"advanced_features"`
	PrioritySupport      bool  `json:"priority_support"`
	APIAccess            bool  `json:"api_access"`
	ARViewer             bool  `json:"ar_viewer"`
	CustomAI             bool  `json:"custom_ai"`
	WhiteLabel           bool  `json:"white_label"`
	DedicatedSupport     bool  `json:"dedicated_support"`
}

// Tier is an immutable subscription tier definition.
type Tier struct {
	Name        Name     `json:"name"`
	DisplayName string   `json:"display_name"`
	Price       Money    `json:"price"`
	Features    []string `json:"features"`
	Limits      Limits   `json:"limits"`
}

var tiers = []Tier{
	{
		Name:        Free,
		DisplayName: "Free",
		Price:       0,
		Features: []string{
			"5 AI gradings per day",
			"10 Oracle questions per day",
			"Up to 50 portfolio cards",
			"Basic market data",
		},
		Limits: Limits{
			DailyGradings:        Limit(5),
			DailyOracleQuestions: Limit(10),
			PortfolioCards:       Limit(50),
		},
	},
	{
		Name:        Pro,
		DisplayName: "Pro",
		Price:       2999,
		Features: []string{
			"Unlimited AI gradings",
			"Unlimited Oracle questions",
			"Up to 500 portfolio cards",
			"Advanced analytics",
			"Priority support",
		},
		Limits: Limits{
			DailyGradings:        Unlimited,
			DailyOracleQuestions: Unlimited,
			PortfolioCards:       Limit(500),
			AdvancedFeatures:     true,
			PrioritySupport:      true,
		},
	},
	{
		Name:        Elite,
		DisplayName: "Elite",
		Price:       9999,
		Features: []string{
			"Everything in Pro",
			"Unlimited portfolio cards",
			"API access",
			"AR card viewer",
			"Custom AI models",
			"White-label reports",
			"Dedicated support",
		},
		Limits: Limits{
			DailyGradings:        Unlimited,
			DailyOracleQuestions: Unlimited,
			PortfolioCards:       Unlimited,
			AdvancedFeatures:     true,
			PrioritySupport:      true,
			APIAccess:            true,
			ARViewer:             true,
			CustomAI:             true,
			WhiteLabel:           true,
			DedicatedSupport:     true,
		},
	},
}

func (t Tier) clone() Tier {
	t.Features = slices.Clone(t.Features)
	return t
}

// Tiers returns the three tier definitions in ascending capability order.
func Tiers() []Tier {
	out := make([]Tier, len(tiers))
	for i, t := range tiers {
		out[i] = t.clone()
	}
	return out
}

// Lookup returns the tier definition for name.
func Lookup(name Name) (Tier, bool) {
	for _, t := range tiers {
		if t.Name == name {
			return t.clone(), true
		}
	}
	return Tier{}, false
}

// Feature keys accepted by HasFeatureAccess and NeedsUpgradeForFeature.
const (
	FeatureUnlimitedGradings  = "unlimited_gradings"
	FeatureUnlimitedOracle    = "unlimited_oracle"
	FeatureUnlimitedPortfolio = "unlimited_portfolio"
	FeatureAdvanced           = "advanced_features"
	FeatureARViewer           = "ar_viewer"
	FeatureCustomAI           = "custom_ai"
	FeatureWhiteLabel         = "white_label"
	FeatureDedicatedSupport   = "dedicated_support"
)

// FeatureKeys lists the recognized feature keys.
var FeatureKeys = []string{
	FeatureUnlimitedGradings,
	FeatureUnlimitedOracle,
	FeatureUnlimitedPortfolio,
	FeatureAdvanced,
	FeatureARViewer,
	FeatureCustomAI,
	FeatureWhiteLabel,
	FeatureDedicatedSupport,
}

// Allows reports whether the limits grant feature. Unknown keys are denied.
func (l Limits) Allows(feature string) bool {
	switch feature {
	case FeatureUnlimitedGradings:
		return l.DailyGradings.IsUnlimited()
	case FeatureUnlimitedOracle:
		return l.DailyOracleQuestions.IsUnlimited()
	case FeatureUnlimitedPortfolio:
		return l.PortfolioCards.IsUnlimited()
	case FeatureAdvanced:
		return l.AdvancedFeatures
	case FeatureARViewer:
		return l.ARViewer
	case FeatureCustomAI:
		return l.CustomAI
	case FeatureWhiteLabel:
		return l.WhiteLabel
	case FeatureDedicatedSupport:
		return l.DedicatedSupport
	default:
		return false
	}
}
