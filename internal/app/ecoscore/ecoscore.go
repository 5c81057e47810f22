// Package ecoscore computes the 1–5 sustainability rating of a product.
//
// A product has 5 equally weighted sub-scores, each on a 1..5 scale:
//   - Carbon: lower footprint is better, 0 kg → 5, ≥ MaxCarbonKg → 1
//   - Durability, Packaging, Health impact: supplied by the catalog
//   - Material: 1 + 0.5 per sustainable material (capped at +2), rescaled to 1..5
//
// EcoScore = round1(mean(sub-scores)), clamped to [1, 5].
//
// Compute is pure, deterministic and total: it never fails.
package ecoscore

import (
	"math"
	"strings"

	"github.com/kanakmaheshwari3115/AmazonHackon/internal/domain"
)

// ─── Constants ──────────────────────────────────────────────────────────────

const (
	// MinScore and MaxScore bound every sub-score and the final score.
	MinScore = 1.0
	MaxScore = 5.0

	// DefaultMaxCarbonKg is the footprint at which the carbon sub-score bottoms out.
	DefaultMaxCarbonKg = 10.0

	// MaterialBase is the raw material score with no sustainable materials.
	MaterialBase = 1.0

	// MaterialKeywordBonus is added per material that matches a keyword.
	MaterialKeywordBonus = 0.5

	// MaterialBonusCap caps the total keyword bonus (raw score ∈ [1, 3]).
	MaterialBonusCap = 2.0
)

// DefaultKeywords are the substrings that mark a material as sustainable.
var DefaultKeywords = []string{
	"organic", "recycled", "bamboo", "hemp", "cork",
	"sustainable wood", "plant-based", "compostable", "biodegradable",
}

// ─── Calculator ─────────────────────────────────────────────────────────────

// Calculator holds the tunables of the scoring algorithm.
type Calculator struct {
	MaxCarbonKg float64
	Keywords    []string
	// ClampFactors clamps durability/packaging/health to [1, 5] before
	// averaging. When false, out-of-range inputs propagate into the mean and
	// only the final average is clamped.
	ClampFactors bool
}

// DefaultCalculator returns the production scoring configuration.
func DefaultCalculator() Calculator {
	return Calculator{
		MaxCarbonKg:  DefaultMaxCarbonKg,
		Keywords:     DefaultKeywords,
		ClampFactors: true,
	}
}

// SubScores is the full breakdown behind a single EcoScore.
type SubScores struct {
	Carbon      float64 `json:"carbon"`
	Durability  float64 `json:"durability"`
	Packaging   float64 `json:"packaging"`
	Health      float64 `json:"health"`
	MaterialRaw float64 `json:"material_raw"` // 1..3
	Material    float64 `json:"material"`     // rescaled 1..5
	Average     float64 `json:"average"`
	Final       float64 `json:"final"`
}

// Compute returns the EcoScore of a product using c's configuration.
func (c Calculator) Compute(p domain.ProductAttributes) float64 {
	return c.Breakdown(p).Final
}

// Breakdown returns every sub-score along with the final EcoScore.
func (c Calculator) Breakdown(p domain.ProductAttributes) SubScores {
	s := SubScores{
		Carbon:      c.CarbonScore(p.CarbonFootprintKg),
		Durability:  c.factor(p.DurabilityScore),
		Packaging:   c.factor(p.PackagingScore),
		Health:      c.factor(p.HealthImpactScore),
		MaterialRaw: c.MaterialRaw(p.Materials),
	}
	s.Material = RescaleMaterial(s.MaterialRaw)

	s.Average = (s.Carbon + s.Durability + s.Packaging + s.Health + s.Material) / 5
	s.Final = clamp(round1(s.Average), MinScore, MaxScore)
	return s
}

// CarbonScore maps a footprint to the 1..5 "lower is better" scale:
//
//	score = 5 − 4 × clamp(kg / maxCarbon, 0, 1)
func (c Calculator) CarbonScore(kg float64) float64 {
	maxKg := c.MaxCarbonKg
	if maxKg <= 0 {
		maxKg = DefaultMaxCarbonKg
	}
	n := clamp(kg/maxKg, 0, 1)
	if math.IsNaN(n) {
		n = 1
	}
	return MaxScore - (MaxScore-MinScore)*n
}

// MaterialRaw returns 1 + min(2, 0.5 × matching materials).
// A material counts once no matter how many keywords it contains.
func (c Calculator) MaterialRaw(materials []string) float64 {
	bonus := 0.0
	for _, m := range materials {
		if c.isSustainable(m) {
			bonus += MaterialKeywordBonus
		}
	}
	return MaterialBase + math.Min(MaterialBonusCap, bonus)
}

// RescaleMaterial maps the raw 1..3 material score onto 1..5 (1→1, 2→3, 3→5).
func RescaleMaterial(raw float64) float64 {
	return (raw-1)*2 + 1
}

func (c Calculator) isSustainable(material string) bool {
	lower := strings.ToLower(material)
	for _, kw := range c.Keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func (c Calculator) factor(v float64) float64 {
	if c.ClampFactors {
		return clamp(v, MinScore, MaxScore)
	}
	return v
}

// ─── Package-level helpers ──────────────────────────────────────────────────

var defaultCalc = DefaultCalculator()

// Compute scores p with the default calculator (factors clamped).
func Compute(p domain.ProductAttributes) float64 {
	return defaultCalc.Compute(p)
}

// ComputeUnclamped scores p without per-factor clamping; only the final
// average is clamped.
func ComputeUnclamped(p domain.ProductAttributes) float64 {
	c := DefaultCalculator()
	c.ClampFactors = false
	return c.Compute(p)
}

// Breakdown returns the default calculator's sub-scores for p.
func Breakdown(p domain.ProductAttributes) SubScores {
	return defaultCalc.Breakdown(p)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
