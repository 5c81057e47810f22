package milestone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanakmaheshwari3115/AmazonHackon/internal/domain"
)

func keys(rules []Rule) []string {
	out := make([]string, len(rules))
	for i, r := range rules {
		out[i] = r.Key
	}
	return out
}

func defaultTracker(t *testing.T) *Tracker {
	t.Helper()
	tr, err := NewTracker(DefaultRules())
	require.NoError(t, err)
	return tr
}

func TestEvaluate_FirstAnalysis(t *testing.T) {
	tr := defaultTracker(t)
	fired, err := tr.Evaluate(domain.Milestones{ProductsAnalyzed: 1, TotalCO2FromAnalysesKg: 0.3})
	require.NoError(t, err)
	assert.Equal(t, []string{"first_analysis_bonus"}, keys(fired))
}

func TestEvaluate_GuardedByUnlockedSet(t *testing.T) {
	tr := defaultTracker(t)
	m := domain.Milestones{ProductsAnalyzed: 1}
	fired, _ := tr.Evaluate(m)
	require.Len(t, fired, 1)

	m.Achievements.Add(fired[0].Key)
	fired, err := tr.Evaluate(m)
	require.NoError(t, err)
	assert.Empty(t, fired, "replaying the same counters must not fire again")
}

func TestEvaluate_IndependentChecks(t *testing.T) {
	tr := defaultTracker(t)
	// A jump in counters makes several rules reachable at once.
	m := domain.Milestones{ProductsAnalyzed: 15, TotalCO2FromAnalysesKg: 40}
	fired, err := tr.Evaluate(m)
	require.NoError(t, err)
	assert.Equal(t, []string{"novice_analyzer", "eco_explorer_bonus", "carbon_crusher_bonus"}, keys(fired))
}

func TestEvaluate_CarbonCrusherMidUpdate(t *testing.T) {
	tr := defaultTracker(t)
	m := domain.Milestones{ProductsAnalyzed: 2, TotalCO2FromAnalysesKg: 24.9}
	fired, _ := tr.Evaluate(m)
	assert.Empty(t, fired)

	m.TotalCO2FromAnalysesKg += 0.2
	fired, _ = tr.Evaluate(m)
	assert.Equal(t, []string{"carbon_crusher_bonus"}, keys(fired))
}

func TestComparator(t *testing.T) {
	tests := []struct {
		c    Comparator
		v, x float64
		want bool
	}{
		{AtLeast, 5, 5, true},
		{AtLeast, 4, 5, false},
		{Equal, 5, 5, true},
		{Equal, 6, 5, false},
		{GreaterThan, 5, 5, false},
		{GreaterThan, 6, 5, true},
		{"", 5, 5, true},
	}
	for _, tt := range tests {
		got, err := tt.c.Holds(tt.v, tt.x)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%v %s %v", tt.v, tt.c, tt.x)
	}
	_, err := Comparator("<>").Holds(1, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidRule)
}

func TestCondition_CompoundRule(t *testing.T) {
	rules := append(DefaultRules(), Rule{
		Key:       "well_rounded",
		Condition: `quizzes_completed >= 1 && products_analyzed >= 3 && "first_analysis_bonus" in achievements`,
		Reward:    40,
		Reason:    "Well Rounded",
	})
	tr, err := NewTracker(rules)
	require.NoError(t, err)

	m := domain.Milestones{ProductsAnalyzed: 3, QuizzesCompleted: 1}
	m.Achievements = domain.NewAchievementSet("first_analysis_bonus", "first_quiz_completed_bonus")
	fired, err := tr.Evaluate(m)
	require.NoError(t, err)
	assert.Equal(t, []string{"well_rounded"}, keys(fired))
}

func TestCondition_WithSelector(t *testing.T) {
	tr, err := NewTracker([]Rule{{
		Key: "heavy_analyzer", Selector: ProductsAnalyzed, Threshold: 2,
		Condition: "total_co2_kg > 10.0",
	}})
	require.NoError(t, err)

	fired, _ := tr.Evaluate(domain.Milestones{ProductsAnalyzed: 2, TotalCO2FromAnalysesKg: 5})
	assert.Empty(t, fired)
	fired, _ = tr.Evaluate(domain.Milestones{ProductsAnalyzed: 2, TotalCO2FromAnalysesKg: 12})
	assert.Len(t, fired, 1)
}

func TestNewTracker_Rejects(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
	}{
		{"no key", Rule{Selector: ProductsAnalyzed}},
		{"no selector or condition", Rule{Key: "x"}},
		{"unknown selector", Rule{Key: "x", Selector: "likes"}},
		{"bad comparator", Rule{Key: "x", Selector: ProductsAnalyzed, Comparator: "=<"}},
		{"negative reward", Rule{Key: "x", Selector: ProductsAnalyzed, Reward: -1}},
		{"bad cel", Rule{Key: "x", Condition: "products_analyzed >="}},
		{"non bool cel", Rule{Key: "x", Condition: "products_analyzed + 1"}},
		{"unknown cel var", Rule{Key: "x", Condition: "followers > 1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTracker([]Rule{tt.rule})
			assert.Error(t, err)
		})
	}

	_, err := NewTracker([]Rule{
		{Key: "x", Selector: ProductsAnalyzed},
		{Key: "x", Selector: QuizzesCompleted},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidRule)
}

func TestProgress(t *testing.T) {
	tr := defaultTracker(t)
	m := domain.Milestones{ProductsAnalyzed: 3}
	m.Achievements.Add("first_analysis_bonus")

	var novice, first Progress
	for _, p := range tr.Progress(m) {
		switch p.Rule.Key {
		case "novice_analyzer":
			novice = p
		case "first_analysis_bonus":
			first = p
		}
	}
	assert.Equal(t, 3.0, novice.Current)
	assert.False(t, novice.Unlocked)
	assert.True(t, first.Unlocked)
}
