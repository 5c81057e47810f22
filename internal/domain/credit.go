package domain

import "time"

// ─── EcoCoin Ledger Types ───────────────────────────────────────────────────
// These live in domain because they represent core business rules.
// The ledger package owns mutation; these are the records it emits.

// StartingBalance is the coin grant a brand new user starts with.
const StartingBalance int64 = 100

// TransactionType is the accounting side of a coin transaction.
type TransactionType string

const (
	TxEarned TransactionType = "earned"
	TxSpent  TransactionType = "spent"
)

// CoinTransaction is a single, immutable row in the coin ledger.
type CoinTransaction struct {
	ID      string          `json:"id"`
	Type    TransactionType `json:"type"`
	Amount  int64           `json:"amount"` // Always positive; Type carries the sign
	Reason  string          `json:"reason"`
	Date    time.Time       `json:"date"`
	Context TxContext       `json:"context"`
}

// Signed returns the amount with its accounting sign applied.
func (t CoinTransaction) Signed() int64 {
	if t.Type == TxSpent {
		return -t.Amount
	}
	return t.Amount
}

// ─── Transaction Context ────────────────────────────────────────────────────
// Each transaction carries at most one originating-feature context. Kind
// says which variant is set; exactly that pointer is non-nil.

// ContextKind identifies the feature that produced a transaction.
type ContextKind string

const (
	ContextNone          ContextKind = ""
	ContextAnalysis      ContextKind = "analysis"
	ContextPurchase      ContextKind = "purchase"
	ContextQuiz          ContextKind = "quiz"
	ContextFeedback      ContextKind = "feedback"
	ContextSellerStep    ContextKind = "seller_step"
	ContextMarketplace   ContextKind = "marketplace"
	ContextPackageReturn ContextKind = "package_return"
	ContextAchievement   ContextKind = "achievement"
	ContextRedemption    ContextKind = "redemption"
)

// TxContext is a tagged union over the per-feature contexts.
type TxContext struct {
	Kind          ContextKind           `json:"kind,omitempty"`
	Analysis      *AnalysisContext      `json:"analysis,omitempty"`
	Purchase      *PurchaseContext      `json:"purchase,omitempty"`
	Quiz          *QuizContext          `json:"quiz,omitempty"`
	Feedback      *FeedbackContext      `json:"feedback,omitempty"`
	SellerStep    *SellerStepContext    `json:"seller_step,omitempty"`
	Marketplace   *MarketplaceContext   `json:"marketplace,omitempty"`
	PackageReturn *PackageReturnContext `json:"package_return,omitempty"`
	Achievement   *AchievementContext   `json:"achievement,omitempty"`
	Redemption    *RedemptionContext    `json:"redemption,omitempty"`
}

// AnalysisContext tags a per-analysis reward.
type AnalysisContext struct {
	AnalyzedCO2Kg float64 `json:"analyzed_co2_kg"`
	ProductName   string  `json:"product_name,omitempty"`
}

// PurchaseContext tags a sustainable-purchase reward.
type PurchaseContext struct {
	ProductID string  `json:"product_id"`
	EcoScore  float64 `json:"eco_score"`
}

// QuizContext tags a quiz reward.
type QuizContext struct {
	QuizID string `json:"quiz_id"`
}

// FeedbackContext tags a feedback reward.
type FeedbackContext struct {
	FeedbackID string `json:"feedback_id"`
	Category   string `json:"category,omitempty"`
}

// SellerStepContext tags a seller-onboarding step reward.
type SellerStepContext struct {
	StepID string `json:"seller_step_id"`
}

// MarketplaceContext tags a marketplace listing/sale/purchase reward.
type MarketplaceContext struct {
	ListingID string `json:"marketplace_listing_id"`
	Title     string `json:"title,omitempty"`
}

// PackageReturnContext tags a returnable-packaging reward.
type PackageReturnContext struct {
	PackageID string           `json:"return_package_id"`
	Condition PackageCondition `json:"condition,omitempty"`
}

// AchievementContext tags a one-time achievement bonus.
type AchievementContext struct {
	AchievementID string `json:"achievement_id"`
}

// RedemptionContext tags a spent transaction with the redeemed catalog item.
type RedemptionContext struct {
	RewardID string `json:"reward_id"`
}

// AnalysisTx builds an analysis context.
func AnalysisTx(co2Kg float64, productName string) TxContext {
	return TxContext{Kind: ContextAnalysis, Analysis: &AnalysisContext{AnalyzedCO2Kg: co2Kg, ProductName: productName}}
}

// PurchaseTx builds a purchase context.
func PurchaseTx(productID string, ecoScore float64) TxContext {
	return TxContext{Kind: ContextPurchase, Purchase: &PurchaseContext{ProductID: productID, EcoScore: ecoScore}}
}

// QuizTx builds a quiz context.
func QuizTx(quizID string) TxContext {
	return TxContext{Kind: ContextQuiz, Quiz: &QuizContext{QuizID: quizID}}
}

// FeedbackTx builds a feedback context.
func FeedbackTx(feedbackID, category string) TxContext {
	return TxContext{Kind: ContextFeedback, Feedback: &FeedbackContext{FeedbackID: feedbackID, Category: category}}
}

// SellerStepTx builds a seller-step context.
func SellerStepTx(stepID string) TxContext {
	return TxContext{Kind: ContextSellerStep, SellerStep: &SellerStepContext{StepID: stepID}}
}

// MarketplaceTx builds a marketplace context.
func MarketplaceTx(listingID, title string) TxContext {
	return TxContext{Kind: ContextMarketplace, Marketplace: &MarketplaceContext{ListingID: listingID, Title: title}}
}

// PackageReturnTx builds a package-return context.
func PackageReturnTx(packageID string, cond PackageCondition) TxContext {
	return TxContext{Kind: ContextPackageReturn, PackageReturn: &PackageReturnContext{PackageID: packageID, Condition: cond}}
}

// AchievementTx builds an achievement context.
func AchievementTx(key string) TxContext {
	return TxContext{Kind: ContextAchievement, Achievement: &AchievementContext{AchievementID: key}}
}

// RedemptionTx builds a redemption context.
func RedemptionTx(rewardID string) TxContext {
	return TxContext{Kind: ContextRedemption, Redemption: &RedemptionContext{RewardID: rewardID}}
}

// Valid reports whether the set pointer matches Kind and no other is set.
func (c TxContext) Valid() bool {
	set := 0
	match := false
	check := func(k ContextKind, present bool) {
		if present {
			set++
			if c.Kind == k {
				match = true
			}
		}
	}
	check(ContextAnalysis, c.Analysis != nil)
	check(ContextPurchase, c.Purchase != nil)
	check(ContextQuiz, c.Quiz != nil)
	check(ContextFeedback, c.Feedback != nil)
	check(ContextSellerStep, c.SellerStep != nil)
	check(ContextMarketplace, c.Marketplace != nil)
	check(ContextPackageReturn, c.PackageReturn != nil)
	check(ContextAchievement, c.Achievement != nil)
	check(ContextRedemption, c.Redemption != nil)

	if c.Kind == ContextNone {
		return set == 0
	}
	return set == 1 && match
}
