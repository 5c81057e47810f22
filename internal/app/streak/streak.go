// Package streak derives the consecutive-activity-day counter from the last
// activity date and reports which streak thresholds are due.
package streak

import (
	"fmt"
	"sort"

	"github.com/kanakmaheshwari3115/AmazonHackon/internal/domain"
)

// Threshold is a streak length that unlocks a one-time achievement.
type Threshold struct {
	Days   int    `toml:"days" json:"days"`
	Key    string `toml:"key" json:"key"`
	Reward int64  `toml:"reward" json:"reward"`
	Reason string `toml:"reason" json:"reason"`
}

// DefaultThresholds are the 3-day and 7-day analysis streak bonuses.
func DefaultThresholds() []Threshold {
	return []Threshold{
		{Days: 3, Key: "analysis_streak_3_days", Reward: 25, Reason: "3-Day Analysis Streak"},
		{Days: 7, Key: "analysis_streak_7_days", Reward: 75, Reason: "7-Day Analysis Streak"},
	}
}

// Outcome classifies how an activity moved the streak.
type Outcome string

const (
	Started    Outcome = "started"    // no previous activity
	Extended   Outcome = "extended"   // activity on the next calendar day
	Reset      Outcome = "reset"      // gap of two or more days
	SameDay    Outcome = "same_day"   // already active today
	OutOfOrder Outcome = "out_of_order"
)

// Update is the result of recording one activity.
type Update struct {
	State   domain.StreakState
	Outcome Outcome
	Gap     int         // calendar days since the previous activity; 0 when Started
	Due     []Threshold // met and not yet unlocked, in ascending Days order
}

// Changed reports whether the activity started, extended or reset the streak.
func (u Update) Changed() bool {
	return u.Outcome != SameDay && u.Outcome != OutOfOrder
}

// Tracker evaluates streak thresholds after each activity.
type Tracker struct {
	thresholds []Threshold
}

// NewTracker validates and sorts the thresholds.
func NewTracker(thresholds []Threshold) (*Tracker, error) {
	seen := make(map[string]bool, len(thresholds))
	ts := make([]Threshold, 0, len(thresholds))
	for _, th := range thresholds {
		if th.Days <= 0 || th.Key == "" {
			return nil, fmt.Errorf("%w: streak threshold %+v", domain.ErrInvalidRule, th)
		}
		if seen[th.Key] {
			return nil, fmt.Errorf("%w: duplicate streak key %q", domain.ErrInvalidRule, th.Key)
		}
		seen[th.Key] = true
		ts = append(ts, th)
	}
	sort.SliceStable(ts, func(i, j int) bool { return ts[i].Days < ts[j].Days })
	return &Tracker{thresholds: ts}, nil
}

// Thresholds returns a copy of the configured thresholds.
func (t *Tracker) Thresholds() []Threshold {
	return append([]Threshold(nil), t.thresholds...)
}

// Record applies an activity on today and lists every threshold that the
// resulting streak meets and that is not yet in unlocked. Each threshold is
// checked on its own, so a long streak can make several due at once.
func (t *Tracker) Record(today domain.Date, state domain.StreakState, unlocked domain.AchievementSet) Update {
	u := Next(today, state)
	for _, th := range t.thresholds {
		if u.State.Days >= th.Days && !unlocked.Has(th.Key) {
			u.Due = append(u.Due, th)
		}
	}
	return u
}

// Next computes the streak after an activity on today, without thresholds.
//
//	no previous activity → 1
//	gap == 1             → Days + 1
//	gap  > 1             → 1
//	gap == 0             → unchanged
//	gap  < 0             → unchanged, LastActivity kept
func Next(today domain.Date, state domain.StreakState) Update {
	if state.LastActivity == nil {
		return Update{State: domain.StreakState{Days: 1, LastActivity: datePtr(today)}, Outcome: Started}
	}

	gap := state.LastActivity.DaysUntil(today)
	switch {
	case gap == 1:
		return Update{State: domain.StreakState{Days: state.Days + 1, LastActivity: datePtr(today)}, Outcome: Extended, Gap: gap}
	case gap > 1:
		return Update{State: domain.StreakState{Days: 1, LastActivity: datePtr(today)}, Outcome: Reset, Gap: gap}
	case gap == 0:
		// A restored state can carry a date with Days == 0; it still counts
		// as active today.
		days := state.Days
		if days == 0 {
			days = 1
		}
		return Update{State: domain.StreakState{Days: days, LastActivity: datePtr(*state.LastActivity)}, Outcome: SameDay}
	default:
		return Update{State: domain.StreakState{Days: state.Days, LastActivity: datePtr(*state.LastActivity)}, Outcome: OutOfOrder, Gap: gap}
	}
}

// Current returns the streak as it stands on today without recording an
// activity: a streak whose last activity is older than yesterday reads as 0.
func Current(today domain.Date, state domain.StreakState) int {
	if state.LastActivity == nil {
		return 0
	}
	if gap := state.LastActivity.DaysUntil(today); gap > 1 {
		return 0
	}
	return state.Days
}

func datePtr(d domain.Date) *domain.Date { return &d }
