package domain

// ─── Reward Catalog ─────────────────────────────────────────────────────────
// Items a user can redeem EcoCoins for. The catalog is configuration; the
// ledger only sees the cost and the name.

// RewardCategory groups catalog items for display.
type RewardCategory string

const (
	CategoryDiscount    RewardCategory = "Discount"
	CategoryDigitalGood RewardCategory = "Digital Good"
	CategoryEcoAction   RewardCategory = "Eco Action"
)

// CoinReward is a redeemable catalog item.
type CoinReward struct {
	ID          string         `json:"id" toml:"id"`
	Name        string         `json:"name" toml:"name"`
	Description string         `json:"description" toml:"description"`
	Cost        int64          `json:"cost" toml:"cost"`
	Category    RewardCategory `json:"category" toml:"category"`
}

// DefaultRewardCatalog returns the built-in redeemable rewards.
func DefaultRewardCatalog() []CoinReward {
	return []CoinReward{
		{ID: "discount_5", Name: "5% Off Coupon", Description: "Get 5% off your next individual cart purchase.", Cost: 50, Category: CategoryDiscount},
		{ID: "ebook_eco", Name: "Eco Living Guide Ebook", Description: "A digital guide to sustainable living.", Cost: 100, Category: CategoryDigitalGood},
		{ID: "plant_tree", Name: "Plant a Tree", Description: "A tree is planted on your behalf.", Cost: 150, Category: CategoryEcoAction},
		{ID: "discount_10", Name: "10% Off Coupon", Description: "A bigger 10% discount for true eco-shoppers!", Cost: 250, Category: CategoryDiscount},
	}
}

// FindReward looks up a catalog item by ID.
func FindReward(catalog []CoinReward, id string) (CoinReward, error) {
	for _, r := range catalog {
		if r.ID == id {
			return r, nil
		}
	}
	return CoinReward{}, ErrRewardNotFound
}

// ─── Feedback ───────────────────────────────────────────────────────────────

// FeedbackCategory is a feedback topic with the coins it pays.
type FeedbackCategory struct {
	Name     string `json:"name" toml:"name"`
	Label    string `json:"label" toml:"label"`
	Coins    int64  `json:"coins" toml:"coins"`
	Priority string `json:"priority" toml:"priority"` // "high", "medium", "low"
}

// DefaultFeedbackCategories returns the built-in feedback categories.
func DefaultFeedbackCategories() []FeedbackCategory {
	return []FeedbackCategory{
		{Name: "bug_report", Label: "Bug Report", Coins: 20, Priority: "high"},
		{Name: "feature_request", Label: "Feature Request", Coins: 15, Priority: "medium"},
		{Name: "sustainability_accuracy", Label: "Sustainability Data Accuracy", Coins: 25, Priority: "high"},
		{Name: "user_experience", Label: "User Experience Issue", Coins: 10, Priority: "medium"},
		{Name: "product_suggestion", Label: "New Product Suggestion", Coins: 5, Priority: "low"},
		{Name: "product_quality_issue", Label: "Product Quality Issue (Received)", Coins: 15, Priority: "medium"},
		{Name: "delivery_issue", Label: "Delivery Problem", Coins: 10, Priority: "medium"},
		{Name: "website_navigation", Label: "Website Navigation Difficulty", Coins: 8, Priority: "low"},
		{Name: "pricing_feedback", Label: "Pricing Feedback", Coins: 5, Priority: "low"},
		{Name: "account_issue", Label: "Account/Login Issue", Coins: 12, Priority: "medium"},
		{Name: "payment_issue", Label: "Payment Problem", Coins: 15, Priority: "high"},
		{Name: "order_issue", Label: "Order Processing Issue", Coins: 12, Priority: "medium"},
		{Name: "general_feedback", Label: "General Feedback", Coins: 5, Priority: "low"},
		{Name: "other", Label: "Other", Coins: 3, Priority: "low"},
	}
}

// FeedbackSubmission is a submitted piece of user feedback.
type FeedbackSubmission struct {
	ID            string `json:"id"`
	Category      string `json:"category"`
	Title         string `json:"title"`
	Severity      int    `json:"severity"` // 1..5, 0 when not rated
	HasScreenshot bool   `json:"has_screenshot"`
}

// SeverityMultiplier scales a category's base coins by reported severity.
func SeverityMultiplier(severity int) float64 {
	switch {
	case severity >= 4:
		return 1.5
	case severity == 3:
		return 1.2
	default:
		return 1.0
	}
}

// ─── Seller Onboarding ──────────────────────────────────────────────────────

// SellerStep is one step of the seller registration wizard.
type SellerStep struct {
	ID     string `json:"id" toml:"id"`
	Title  string `json:"title" toml:"title"`
	Reward int64  `json:"reward" toml:"reward"`
}

// DefaultSellerSteps returns the registration steps in wizard order.
func DefaultSellerSteps() []SellerStep {
	return []SellerStep{
		{ID: "business_info", Title: "Business Information", Reward: 10},
		{ID: "sustainability_profile", Title: "Sustainability Profile", Reward: 15},
		{ID: "verification_documents", Title: "Verification Documents", Reward: 20},
		{ID: "payment_setup", Title: "Payment Setup", Reward: 10},
		{ID: "store_customization", Title: "Store Customization", Reward: 5},
	}
}

// SellerProfile is what the registration wizard collected, reduced to the
// facts that gate seller achievements.
type SellerProfile struct {
	Certifications          []string `json:"certifications"`
	SustainabilityPractices string   `json:"sustainability_practices"`
}
