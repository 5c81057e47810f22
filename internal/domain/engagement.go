package domain

import (
	"encoding/json"
	"sort"
	"time"
)

// ─── Product Attributes ─────────────────────────────────────────────────────

// ProductAttributes are the inputs to the EcoScore. The score itself is
// derived and must be recomputed whenever any of these change.
type ProductAttributes struct {
	CarbonFootprintKg float64  `json:"carbon_footprint_kg"`
	Materials         []string `json:"materials"`
	DurabilityScore   float64  `json:"durability_score"`    // 1..5
	PackagingScore    float64  `json:"packaging_score"`     // 1..5
	HealthImpactScore float64  `json:"health_impact_score"` // 1..5
}

// Product pairs catalog attributes with their derived EcoScore.
type Product struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Attributes ProductAttributes `json:"attributes"`
	EcoScore   float64           `json:"eco_score"`
}

// Refresh recomputes EcoScore from Attributes with score.
func (p *Product) Refresh(score func(ProductAttributes) float64) {
	p.EcoScore = score(p.Attributes)
}

// ─── Streak State ───────────────────────────────────────────────────────────

// StreakState is the consecutive-activity-day counter for analyses.
type StreakState struct {
	Days         int   `json:"analysis_streak_days"`
	LastActivity *Date `json:"last_analysis_date"` // nil until the first activity
}

// ─── Achievement Set ────────────────────────────────────────────────────────

// AchievementSet is a set of unlocked achievement keys. The zero value is
// an empty set ready to use.
type AchievementSet struct {
	keys map[string]struct{}
}

// NewAchievementSet builds a set from the given keys (duplicates collapse).
func NewAchievementSet(keys ...string) AchievementSet {
	var s AchievementSet
	for _, k := range keys {
		s.Add(k)
	}
	return s
}

// Has reports whether key is unlocked.
func (s AchievementSet) Has(key string) bool {
	_, ok := s.keys[key]
	return ok
}

// Add inserts key if absent. Returns true only when the key is new.
func (s *AchievementSet) Add(key string) bool {
	if key == "" || s.Has(key) {
		return false
	}
	if s.keys == nil {
		s.keys = make(map[string]struct{})
	}
	s.keys[key] = struct{}{}
	return true
}

// Len returns the number of unlocked achievements.
func (s AchievementSet) Len() int { return len(s.keys) }

// Keys returns the unlocked keys in sorted order.
func (s AchievementSet) Keys() []string {
	out := make([]string, 0, len(s.keys))
	for k := range s.keys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy.
func (s AchievementSet) Clone() AchievementSet {
	return NewAchievementSet(s.Keys()...)
}

// MarshalJSON encodes the set as a sorted list of keys.
func (s AchievementSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Keys())
}

// UnmarshalJSON decodes a list of keys, dropping duplicates.
func (s *AchievementSet) UnmarshalJSON(b []byte) error {
	var keys []string
	if err := json.Unmarshal(b, &keys); err != nil {
		return err
	}
	*s = NewAchievementSet(keys...)
	return nil
}

// ─── Milestones ─────────────────────────────────────────────────────────────

// Milestones are monotonically non-decreasing activity counters plus the
// set of unlocked achievements.
type Milestones struct {
	ProductsAnalyzed       int            `json:"products_analyzed_count"`
	SustainablePurchases   int            `json:"sustainable_purchases_count"`
	TotalCO2FromAnalysesKg float64        `json:"total_co2_estimated_from_analyses"`
	QuizzesCompleted       int            `json:"quizzes_completed_count"`
	MarketplaceListed      int            `json:"marketplace_items_listed"`
	MarketplaceSold        int            `json:"marketplace_items_sold"`
	MarketplacePurchased   int            `json:"marketplace_items_purchased"`
	PackagesReturned       int            `json:"packages_returned_successfully"`
	FeedbackSubmitted      int            `json:"feedback_submitted_count"`
	Achievements           AchievementSet `json:"achievements_unlocked"`
}

// Clone returns a deep copy (the achievement set is not shared).
func (m Milestones) Clone() Milestones {
	out := m
	out.Achievements = m.Achievements.Clone()
	return out
}

// ─── Unlocks & Notifications ────────────────────────────────────────────────

// Unlock records an achievement that fired and what it paid.
type Unlock struct {
	Key    string    `json:"key"`
	Reason string    `json:"reason"`
	Reward int64     `json:"reward"`
	At     time.Time `json:"at"`
}

// NotificationKind classifies a user-visible ledger notification.
type NotificationKind string

const (
	NotifyEarned   NotificationKind = "coins_earned"
	NotifySpent    NotificationKind = "coins_spent"
	NotifyRejected NotificationKind = "redeem_rejected"
)

// Notification is the user-visible side effect of a ledger operation.
type Notification struct {
	Kind    NotificationKind `json:"type"`
	Amount  int64            `json:"amount"`
	Reason  string           `json:"reason"`
	Balance int64            `json:"balance"`
	Needed  int64            `json:"needed,omitempty"` // Only for NotifyRejected
	At      time.Time        `json:"timestamp"`
}

// ─── Persisted State ────────────────────────────────────────────────────────

// State is everything the engine needs to resume a user session. The
// surrounding application must round-trip it losslessly; the transaction
// log is stored in full (newest first), never the display window.
type State struct {
	Balance int64 `json:"balance"`
	// OpeningBalance is the grant the user started with; Verify reconciles
	// the log against it.
	OpeningBalance int64             `json:"opening_balance"`
	Transactions   []CoinTransaction `json:"transactions"`
	Streak         StreakState       `json:"streak"`
	Milestones     Milestones        `json:"milestones"`
}

// NewState returns the defaults for a brand new user.
func NewState(startingBalance int64) State {
	if startingBalance < 0 {
		startingBalance = 0
	}
	return State{Balance: startingBalance, OpeningBalance: startingBalance}
}

// ─── Feature Enums ──────────────────────────────────────────────────────────

// MarketplaceKind is the kind of marketplace activity.
type MarketplaceKind string

const (
	MarketplaceListed    MarketplaceKind = "listed"
	MarketplaceSold      MarketplaceKind = "sold"
	MarketplacePurchased MarketplaceKind = "purchased"
)

// PackageCondition is the hub-assessed state of a returned package.
type PackageCondition string

const (
	ConditionGood            PackageCondition = "good"
	ConditionSlightlyDamaged PackageCondition = "slightly_damaged"
	ConditionHeavilyDamaged  PackageCondition = "heavily_damaged"
)

// ReturnStatus is the terminal status of a package return.
type ReturnStatus string

const (
	ReturnCompleted ReturnStatus = "return_completed"
	ReturnRejected  ReturnStatus = "return_rejected"
)
