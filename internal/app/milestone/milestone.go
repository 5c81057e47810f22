// Package milestone evaluates the declarative achievement rule table
// against the activity counters.
//
// A rule names a counter (Selector), a comparison and a threshold, and may
// add a CEL Condition over the whole counter snapshot. Rules are evaluated
// uniformly after every counter mutation; a rule fires only while its key
// is absent from the unlocked set.
package milestone

import (
	"errors"
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/kanakmaheshwari3115/AmazonHackon/internal/domain"
)

// ─── Selectors & Comparators ────────────────────────────────────────────────

// Selector names a counter of domain.Milestones.
type Selector string

const (
	ProductsAnalyzed     Selector = "products_analyzed"
	TotalCO2Kg           Selector = "total_co2_kg"
	QuizzesCompleted     Selector = "quizzes_completed"
	SustainablePurchases Selector = "sustainable_purchases"
	MarketplaceListed    Selector = "marketplace_listed"
	MarketplaceSold      Selector = "marketplace_sold"
	MarketplacePurchased Selector = "marketplace_purchased"
	PackagesReturned     Selector = "packages_returned"
	FeedbackSubmitted    Selector = "feedback_submitted"
	AchievementsUnlocked Selector = "achievements_unlocked"
)

// Selectors lists every known selector.
var Selectors = []Selector{
	ProductsAnalyzed, TotalCO2Kg, QuizzesCompleted, SustainablePurchases,
	MarketplaceListed, MarketplaceSold, MarketplacePurchased,
	PackagesReturned, FeedbackSubmitted, AchievementsUnlocked,
}

// Value reads the selected counter from m.
func (s Selector) Value(m domain.Milestones) (float64, error) {
	switch s {
	case ProductsAnalyzed:
		return float64(m.ProductsAnalyzed), nil
	case TotalCO2Kg:
		return m.TotalCO2FromAnalysesKg, nil
	case QuizzesCompleted:
		return float64(m.QuizzesCompleted), nil
	case SustainablePurchases:
		return float64(m.SustainablePurchases), nil
	case MarketplaceListed:
		return float64(m.MarketplaceListed), nil
	case MarketplaceSold:
		return float64(m.MarketplaceSold), nil
	case MarketplacePurchased:
		return float64(m.MarketplacePurchased), nil
	case PackagesReturned:
		return float64(m.PackagesReturned), nil
	case FeedbackSubmitted:
		return float64(m.FeedbackSubmitted), nil
	case AchievementsUnlocked:
		return float64(m.Achievements.Len()), nil
	default:
		return 0, fmt.Errorf("%w: %q", domain.ErrUnknownSelector, string(s))
	}
}

// Comparator is the threshold comparison of a rule.
type Comparator string

const (
	AtLeast     Comparator = ">="
	Equal       Comparator = "=="
	GreaterThan Comparator = ">"
)

// Holds reports whether value compares to threshold.
func (c Comparator) Holds(value, threshold float64) (bool, error) {
	switch c {
	case AtLeast, "":
		return value >= threshold, nil
	case Equal:
		return value == threshold, nil
	case GreaterThan:
		return value > threshold, nil
	default:
		return false, fmt.Errorf("%w: comparator %q", domain.ErrInvalidRule, string(c))
	}
}

// ─── Rules ──────────────────────────────────────────────────────────────────

// Rule is one row of the achievement table. Either Selector or Condition
// must be set; when both are, both must hold.
type Rule struct {
	Key        string     `toml:"key" json:"key"`
	Selector   Selector   `toml:"selector" json:"selector,omitempty"`
	Comparator Comparator `toml:"comparator" json:"comparator,omitempty"`
	Threshold  float64    `toml:"threshold" json:"threshold"`
	Reward     int64      `toml:"reward" json:"reward"`
	Reason     string     `toml:"reason" json:"reason"`
	Condition  string     `toml:"condition" json:"condition,omitempty"` // CEL, e.g. "quizzes_completed >= 1 && products_analyzed >= 1"
}

// DefaultRules is the built-in achievement table.
func DefaultRules() []Rule {
	return []Rule{
		{Key: "first_analysis_bonus", Selector: ProductsAnalyzed, Comparator: Equal, Threshold: 1, Reward: 20, Reason: "First Product Analysis"},
		{Key: "novice_analyzer", Selector: ProductsAnalyzed, Comparator: AtLeast, Threshold: 5, Reward: 30, Reason: "Novice Analyzer (5 Analyses)"},
		{Key: "eco_explorer_bonus", Selector: ProductsAnalyzed, Comparator: AtLeast, Threshold: 15, Reward: 50, Reason: "Eco Explorer (15 Analyses)"},
		{Key: "carbon_crusher_bonus", Selector: TotalCO2Kg, Comparator: AtLeast, Threshold: 25, Reward: 100, Reason: "Carbon Crusher (25kg CO2)"},
		{Key: "first_quiz_completed_bonus", Selector: QuizzesCompleted, Comparator: AtLeast, Threshold: 1, Reward: 25, Reason: "First Quiz Completed!"},
		{Key: "first_ever_sustainable_purchase_bonus", Selector: SustainablePurchases, Comparator: AtLeast, Threshold: 1, Reward: 50, Reason: "First Ever Sustainable Purchase Bonus!"},
		{Key: "first_marketplace_sale", Selector: MarketplaceSold, Comparator: AtLeast, Threshold: 1, Reason: "First Marketplace Sale"},
		{Key: "first_package_return", Selector: PackagesReturned, Comparator: AtLeast, Threshold: 1, Reason: "First Package Returned"},
	}
}

// ─── Tracker ────────────────────────────────────────────────────────────────

type compiledRule struct {
	Rule
	program cel.Program // nil when the rule has no Condition
}

// Tracker holds the validated rule table with conditions compiled once.
type Tracker struct {
	rules []compiledRule
}

// NewTracker validates rules and compiles their CEL conditions.
func NewTracker(rules []Rule) (*Tracker, error) {
	env, err := newEnv()
	if err != nil {
		return nil, fmt.Errorf("milestone: cel env: %w", err)
	}

	seen := make(map[string]bool, len(rules))
	t := &Tracker{rules: make([]compiledRule, 0, len(rules))}
	for _, r := range rules {
		if r.Key == "" {
			return nil, fmt.Errorf("%w: rule without key", domain.ErrInvalidRule)
		}
		if seen[r.Key] {
			return nil, fmt.Errorf("%w: duplicate key %q", domain.ErrInvalidRule, r.Key)
		}
		seen[r.Key] = true
		if r.Reward < 0 {
			return nil, fmt.Errorf("%w: %s: negative reward", domain.ErrInvalidRule, r.Key)
		}
		if r.Selector == "" && r.Condition == "" {
			return nil, fmt.Errorf("%w: %s: needs a selector or a condition", domain.ErrInvalidRule, r.Key)
		}
		if r.Selector != "" {
			if _, err := r.Selector.Value(domain.Milestones{}); err != nil {
				return nil, fmt.Errorf("rule %s: %w", r.Key, err)
			}
			if _, err := r.Comparator.Holds(0, 0); err != nil {
				return nil, fmt.Errorf("rule %s: %w", r.Key, err)
			}
		}

		cr := compiledRule{Rule: r}
		if r.Condition != "" {
			prg, err := compile(env, r.Condition)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidRule, r.Key, err)
			}
			cr.program = prg
		}
		t.rules = append(t.rules, cr)
	}
	return t, nil
}

// Rules returns the rule table in evaluation order.
func (t *Tracker) Rules() []Rule {
	out := make([]Rule, len(t.rules))
	for i, r := range t.rules {
		out[i] = r.Rule
	}
	return out
}

// Evaluate returns, in table order, every rule that holds for m and whose
// key is not yet unlocked. A condition that fails to evaluate skips its
// rule; those failures are joined into the returned error.
func (t *Tracker) Evaluate(m domain.Milestones) ([]Rule, error) {
	var (
		fired []Rule
		errs  []error
		vars  map[string]any
	)
	for _, r := range t.rules {
		if m.Achievements.Has(r.Key) {
			continue
		}
		ok, err := r.holds(m, &vars)
		if err != nil {
			errs = append(errs, fmt.Errorf("rule %s: %w", r.Key, err))
			continue
		}
		if ok {
			fired = append(fired, r.Rule)
		}
	}
	return fired, errors.Join(errs...)
}

// Progress is a rule's standing against the current counters.
type Progress struct {
	Rule     Rule    `json:"rule"`
	Current  float64 `json:"current"`
	Unlocked bool    `json:"unlocked"`
}

// Progress reports every selector-based rule's current value.
func (t *Tracker) Progress(m domain.Milestones) []Progress {
	out := make([]Progress, 0, len(t.rules))
	for _, r := range t.rules {
		p := Progress{Rule: r.Rule, Unlocked: m.Achievements.Has(r.Key)}
		if r.Selector != "" {
			p.Current, _ = r.Selector.Value(m)
		}
		out = append(out, p)
	}
	return out
}

func (r compiledRule) holds(m domain.Milestones, vars *map[string]any) (bool, error) {
	if r.Selector != "" {
		v, err := r.Selector.Value(m)
		if err != nil {
			return false, err
		}
		ok, err := r.Comparator.Holds(v, r.Threshold)
		if err != nil || !ok {
			return false, err
		}
	}
	if r.program == nil {
		return true, nil
	}
	if *vars == nil {
		*vars = activation(m)
	}
	out, _, err := r.program.Eval(*vars)
	if err != nil {
		return false, err
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("condition returned %T, want bool", out.Value())
	}
	return b, nil
}

// ─── CEL ────────────────────────────────────────────────────────────────────

func newEnv() (*cel.Env, error) {
	opts := []cel.EnvOption{
		cel.Variable("achievements", cel.ListType(cel.StringType)),
	}
	for _, s := range Selectors {
		typ := cel.IntType
		if s == TotalCO2Kg {
			typ = cel.DoubleType
		}
		opts = append(opts, cel.Variable(string(s), typ))
	}
	return cel.NewEnv(opts...)
}

func compile(env *cel.Env, expr string) (cel.Program, error) {
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("condition %q has type %s, want bool", expr, out)
	}
	return env.Program(ast)
}

func activation(m domain.Milestones) map[string]any {
	vars := map[string]any{
		"achievements": m.Achievements.Keys(),
	}
	for _, s := range Selectors {
		v, _ := s.Value(m)
		if s == TotalCO2Kg {
			vars[string(s)] = v
		} else {
			vars[string(s)] = int64(v)
		}
	}
	return vars
}
