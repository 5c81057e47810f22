package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors carry no infrastructure dependency.

var (
	// Ledger errors
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrInsufficientCoins = errors.New("not enough EcoCoins")
	ErrBalanceMismatch   = errors.New("balance does not match transaction log")

	// Catalog errors
	ErrRewardNotFound          = errors.New("reward not found in catalog")
	ErrUnknownFeedbackCategory = errors.New("unknown feedback category")
	ErrUnknownMarketplaceKind  = errors.New("unknown marketplace event kind")
	ErrUnknownPackageCondition = errors.New("unknown package condition")
	ErrUnknownSellerStep       = errors.New("unknown seller onboarding step")

	// Rule errors
	ErrUnknownSelector = errors.New("unknown milestone selector")
	ErrInvalidRule     = errors.New("invalid achievement rule")

	// Carbon unit errors
	ErrInvalidUnit   = errors.New("unrecognized carbon unit")
	ErrNegativeValue = errors.New("carbon value must not be negative")

	// Persistence errors
	ErrStateNotFound = errors.New("no saved state for user")
	ErrCorruptState  = errors.New("saved state is malformed")
)
