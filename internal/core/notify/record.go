// Package notify owns the bounded, persisted notification history and the
// producers that feed it.
package notify

import (
	"fmt"
	"time"
)

// MaxRecords bounds the history; the oldest records are dropped on overflow.
const MaxRecords = 50

// DefaultLimit is the page size used by Notifications when limit <= 0.
const DefaultLimit = 10

// Storage keys.
const (
	KeyNotifications = "notifications"
	KeySettings      = "notification_settings"
)

// Type classifies a notification.
type Type string

const (
	TypePriceAlert     Type = "price_alert"
	TypeGrading        Type = "grading"
	TypeMarket         Type = "market"
	TypeAchievement    Type = "achievement"
	TypeRecommendation Type = "recommendation"
	TypePortfolio      Type = "portfolio"
)

// Types lists every notification type in display order.
var Types = []Type{
	TypePriceAlert,
	TypeGrading,
	TypeMarket,
	TypeAchievement,
	TypeRecommendation,
	TypePortfolio,
}

// Valid reports whether t is a known type.
func (t Type) Valid() bool {
	for _, known := range Types {
		if t == known {
			return true
		}
	}
	return false
}

// ParseType converts s to a Type.
func ParseType(s string) (Type, error) {
	t := Type(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown notification type %q", s)
	}
	return t, nil
}

// Record is a single notification. Action names the UI action to take when
// the record is opened and Data carries the payload for that action.
type Record struct {
	ID        int64          `json:"id"`
	Type      Type           `json:"type"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Timestamp time.Time      `json:"timestamp"`
	Urgent    bool           `json:"urgent"`
	Read      bool           `json:"read"`
	Action    string         `json:"action,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// clone copies r including its Data map (values are shared).
func (r Record) clone() Record {
	if r.Data != nil {
		data := make(map[string]any, len(r.Data))
		for k, v := range r.Data {
			data[k] = v
		}
		r.Data = data
	}
	return r
}

func cloneRecords(in []Record) []Record {
	out := make([]Record, len(in))
	for i, r := range in {
		out[i] = r.clone()
	}
	return out
}

// Settings are the user-facing engine toggles persisted under KeySettings.
type Settings struct {
	Enabled bool `json:"enabled"`
	Sound   bool `json:"sound"`
}
