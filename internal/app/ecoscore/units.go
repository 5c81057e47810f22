package ecoscore

import (
	"fmt"
	"math"
	"strings"

	"github.com/kanakmaheshwari3115/AmazonHackon/internal/domain"
)

// Conversion factors to kilograms.
const (
	GramsToKg  = 0.001
	KgToKg     = 1.0
	TonsToKg   = 1000.0
	PoundsToKg = 0.45359237
)

func unitFactor(unit string) (float64, bool) {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "g", "gco2e":
		return GramsToKg, true
	case "kg", "kgco2e", "":
		return KgToKg, true
	case "t", "tco2e":
		return TonsToKg, true
	case "lb", "lbco2e", "lbs":
		return PoundsToKg, true
	default:
		return 0, false
	}
}

// NormalizeToKg converts a carbon footprint to kilograms.
//
// Recognized units (case-insensitive): g, kg, t, lb and their CO2e
// variants. An empty unit means kg.
func NormalizeToKg(value float64, unit string) (float64, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("carbon value %v: %w", value, domain.ErrInvalidAmount)
	}
	if value < 0 {
		return 0, domain.ErrNegativeValue
	}
	factor, ok := unitFactor(unit)
	if !ok {
		return 0, fmt.Errorf("%q: %w", unit, domain.ErrInvalidUnit)
	}
	return value * factor, nil
}

// IsRecognizedUnit reports whether NormalizeToKg accepts unit.
func IsRecognizedUnit(unit string) bool {
	_, ok := unitFactor(unit)
	return ok
}
