package rewards

import (
	"github.com/kanakmaheshwari3115/AmazonHackon/internal/app/milestone"
	"github.com/kanakmaheshwari3115/AmazonHackon/internal/app/streak"
	"github.com/kanakmaheshwari3115/AmazonHackon/internal/domain"
)

// Bonus is a one-time achievement that an event, not a counter, triggers.
type Bonus struct {
	Key    string `toml:"key" json:"key"`
	Reward int64  `toml:"reward" json:"reward"`
	Reason string `toml:"reason" json:"reason"`
}

// ReturnPolicy prices a returned package by its assessed condition.
type ReturnPolicy struct {
	Base          int64 `toml:"base" json:"base"`
	GoodBonus     int64 `toml:"good_bonus" json:"good_bonus"`
	SlightPenalty int64 `toml:"slight_penalty" json:"slight_penalty"`
	// HeavyPenalty is carried for display; a heavily damaged package is
	// rejected and pays nothing, it never debits.
	HeavyPenalty int64 `toml:"heavy_penalty" json:"heavy_penalty"`
}

// Config holds every reward amount and rule table the engine uses.
type Config struct {
	StartingBalance int64 `toml:"starting_balance"`

	DailyLoginBonus  int64  `toml:"daily_login_bonus"`
	DailyLoginReason string `toml:"daily_login_reason"`

	CoinsPerKgCO2       float64 `toml:"coins_per_kg_co2"`
	MinCoinsPerAnalysis int64   `toml:"min_coins_per_analysis"`

	HighEcoScoreThreshold float64 `toml:"high_ecoscore_threshold"`
	HighEcoScoreBonus     int64   `toml:"high_ecoscore_bonus"`

	QuizBaseReward   int64 `toml:"quiz_base_reward"`
	QuizPerfectBonus int64 `toml:"quiz_perfect_bonus"`

	MarketplaceListingReward  int64 `toml:"marketplace_listing_reward"`
	MarketplaceSaleReward     int64 `toml:"marketplace_sale_reward"`
	MarketplacePurchaseReward int64 `toml:"marketplace_purchase_reward"`

	FeedbackScreenshotBonus int64 `toml:"feedback_screenshot_bonus"`

	Returns ReturnPolicy `toml:"returns"`

	ProfileCompletion  Bonus `toml:"profile_completion"`
	SellerQuickStarter Bonus `toml:"seller_quick_starter"`
	SellerEcoProfile   Bonus `toml:"seller_eco_profile"`
	SellerCertDocs     Bonus `toml:"seller_cert_docs"`

	// SellerEcoProfileMinLen is the practices text length that must be
	// exceeded for SellerEcoProfile; SellerCertDocsMin certifications earn
	// SellerCertDocs.
	SellerEcoProfileMinLen int `toml:"seller_eco_profile_min_len"`
	SellerCertDocsMin      int `toml:"seller_cert_docs_min"`

	Rules              []milestone.Rule          `toml:"rules"`
	StreakThresholds   []streak.Threshold        `toml:"streak_thresholds"`
	Catalog            []domain.CoinReward       `toml:"catalog"`
	FeedbackCategories []domain.FeedbackCategory `toml:"feedback_categories"`
	SellerSteps        []domain.SellerStep       `toml:"seller_steps"`
}

// DefaultConfig returns the production reward table.
func DefaultConfig() Config {
	return Config{
		StartingBalance:  domain.StartingBalance,
		DailyLoginBonus:  5,
		DailyLoginReason: "Daily Login Bonus",

		CoinsPerKgCO2:       10,
		MinCoinsPerAnalysis: 2,

		HighEcoScoreThreshold: 3.7,
		HighEcoScoreBonus:     15,

		QuizBaseReward:   10,
		QuizPerfectBonus: 15,

		MarketplaceListingReward:  5,
		MarketplaceSaleReward:     25,
		MarketplacePurchaseReward: 10,

		FeedbackScreenshotBonus: 5,

		Returns: ReturnPolicy{Base: 10, GoodBonus: 5, SlightPenalty: 5, HeavyPenalty: 15},

		ProfileCompletion:  Bonus{Key: "profile_completion_bonus", Reward: 20, Reason: "Profile Setup: Eco-Interests"},
		SellerQuickStarter: Bonus{Key: "seller_reg_quick_starter", Reward: 50, Reason: "Registration Quick Starter"},
		SellerEcoProfile:   Bonus{Key: "seller_eco_profile_pro", Reward: 25, Reason: "Eco Profile Pro"},
		SellerCertDocs:     Bonus{Key: "seller_sustain_champion_docs", Reward: 30, Reason: "Sustainability Champion (Docs)"},

		SellerEcoProfileMinLen: 50,
		SellerCertDocsMin:      2,

		Rules:              milestone.DefaultRules(),
		StreakThresholds:   streak.DefaultThresholds(),
		Catalog:            domain.DefaultRewardCatalog(),
		FeedbackCategories: domain.DefaultFeedbackCategories(),
		SellerSteps:        domain.DefaultSellerSteps(),
	}
}
