package rewards

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/kanakmaheshwari3115/AmazonHackon/internal/app/ledger"
	"github.com/kanakmaheshwari3115/AmazonHackon/internal/domain"
)

// Outcome is what a single event paid out.
type Outcome struct {
	CoinsAwarded  int64           `json:"coins_awarded"` // flat per-event reward
	BonusCoins    int64           `json:"bonus_coins"`   // sum of achievement rewards
	NewlyUnlocked []domain.Unlock `json:"newly_unlocked,omitempty"`
}

func (o *Outcome) add(us ...domain.Unlock) {
	for _, u := range us {
		o.BonusCoins += u.Reward
		o.NewlyUnlocked = append(o.NewlyUnlocked, u)
	}
}

// ─── Login ──────────────────────────────────────────────────────────────────

// RecordLogin credits the daily login bonus at most once per calendar day
// of now. The day is found by scanning the log for a same-day entry with
// the login reason.
func (e *Engine) RecordLogin(now time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ledger.HasReasonOn(e.cfg.DailyLoginReason, domain.DateOf(now)) {
		return false
	}
	_, ok := e.credit("login", e.cfg.DailyLoginBonus, e.cfg.DailyLoginReason)
	return ok
}

// ─── Analysis ───────────────────────────────────────────────────────────────

// AnalysisResult is the outcome of a completed product analysis.
type AnalysisResult struct {
	Outcome
	StreakDays int `json:"streak_days"`
}

// AnalysisCoins is max(min, floor(max(0, co2Kg) × perKg)).
func AnalysisCoins(co2Kg, perKg float64, minCoins int64) int64 {
	if math.IsNaN(co2Kg) || co2Kg < 0 {
		co2Kg = 0
	}
	coins := int64(math.Floor(co2Kg * perKg))
	if coins < minCoins {
		return minCoins
	}
	return coins
}

// RecordAnalysisCompleted applies one product analysis on today.
func (e *Engine) RecordAnalysisCompleted(co2Kg float64, today domain.Date, productName string) AnalysisResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	var res AnalysisResult

	e.milestones.ProductsAnalyzed++
	if co2Kg > 0 {
		e.milestones.TotalCO2FromAnalysesKg += co2Kg
	}

	su := e.streaks.Record(today, e.streak, e.milestones.Achievements)
	e.streak = su.State
	res.StreakDays = su.State.Days
	if su.Changed() {
		e.observer.StreakChanged(su.State.Days)
	}

	reason := "Product Analysis"
	if productName != "" {
		reason = fmt.Sprintf("Product Analysis (%s)", truncate(productName, 20))
	}
	coins := AnalysisCoins(co2Kg, e.cfg.CoinsPerKgCO2, e.cfg.MinCoinsPerAnalysis)
	if _, ok := e.credit("analysis", coins, reason, ledger.WithContext(domain.AnalysisTx(co2Kg, productName))); ok {
		res.CoinsAwarded = coins
	}

	res.add(e.applyRules()...)
	for _, th := range su.Due {
		if u, ok := e.unlock(th.Key, th.Reward, th.Reason); ok {
			res.add(u)
		}
	}
	res.add(e.applyRules()...)

	e.logger.Debug().
		Float64("co2_kg", co2Kg).
		Int64("coins", res.CoinsAwarded).
		Int("streak", res.StreakDays).
		Str("streak_outcome", string(su.Outcome)).
		Msg("analysis recorded")
	return res
}

// ─── Purchase ───────────────────────────────────────────────────────────────

// PurchaseResult is the outcome of a catalog purchase.
type PurchaseResult struct {
	Outcome
	Sustainable bool `json:"sustainable"`
}

// RecordPurchase rewards a purchase whose EcoScore meets the high-score
// threshold. The first such purchase also unlocks a one-time bonus.
func (e *Engine) RecordPurchase(ecoScore float64, productID, productName string) PurchaseResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	var res PurchaseResult
	if ecoScore < e.cfg.HighEcoScoreThreshold {
		return res
	}
	res.Sustainable = true
	e.milestones.SustainablePurchases++

	reason := fmt.Sprintf("Sustainable pick: %s", truncate(productName, 20))
	if _, ok := e.credit("purchase", e.cfg.HighEcoScoreBonus, reason, ledger.WithContext(domain.PurchaseTx(productID, ecoScore))); ok {
		res.CoinsAwarded = e.cfg.HighEcoScoreBonus
	}
	res.add(e.applyRules()...)
	return res
}

// ─── Quiz ───────────────────────────────────────────────────────────────────

// QuizResult is the outcome of a completed quiz.
type QuizResult struct {
	Outcome
	Perfect bool `json:"perfect"`
}

// RecordQuizCompleted pays baseReward for completing a quiz and
// perfectBonus whenever every question was answered correctly.
func (e *Engine) RecordQuizCompleted(quizID string, score, totalQuestions int, baseReward, perfectBonus int64) QuizResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	var res QuizResult
	e.milestones.QuizzesCompleted++

	ctx := ledger.WithContext(domain.QuizTx(quizID))
	if _, ok := e.credit("quiz", baseReward, "Quiz Completion: "+quizID, ctx); ok {
		res.CoinsAwarded += baseReward
	}
	res.add(e.applyRules()...)

	res.Perfect = totalQuestions > 0 && score == totalQuestions
	if res.Perfect {
		if _, ok := e.credit("quiz", perfectBonus, "Quiz Perfect Score!", ctx); ok {
			res.CoinsAwarded += perfectBonus
		}
	}
	return res
}

// ─── Profile ────────────────────────────────────────────────────────────────

// RecordProfileInterestsSet unlocks the profile completion bonus the first
// time eco-interests go from none to at least one.
func (e *Engine) RecordProfileInterestsSet(previousCount, newCount int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if previousCount != 0 || newCount <= 0 {
		return false
	}
	b := e.cfg.ProfileCompletion
	_, ok := e.unlock(b.Key, b.Reward, b.Reason)
	if ok {
		e.applyRules()
	}
	return ok
}

// ─── Marketplace ────────────────────────────────────────────────────────────

// MarketplaceListing identifies the listing a marketplace event is about.
type MarketplaceListing struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Currency string `json:"currency,omitempty"` // "Trade" for barter listings
}

// TradeCurrency marks a barter listing; buying one pays no coins.
const TradeCurrency = "Trade"

// RecordMarketplaceEvent counts a listing, sale or purchase and pays its
// flat reward.
func (e *Engine) RecordMarketplaceEvent(kind domain.MarketplaceKind, l MarketplaceListing) (Outcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var (
		res    Outcome
		amount int64
		reason string
	)
	switch kind {
	case domain.MarketplaceListed:
		e.milestones.MarketplaceListed++
		amount, reason = e.cfg.MarketplaceListingReward, "New Marketplace Item Listed"
	case domain.MarketplaceSold:
		e.milestones.MarketplaceSold++
		amount, reason = e.cfg.MarketplaceSaleReward, "Marketplace Sale: "+truncate(l.Title, 15)
	case domain.MarketplacePurchased:
		e.milestones.MarketplacePurchased++
		if !strings.EqualFold(l.Currency, TradeCurrency) {
			amount, reason = e.cfg.MarketplacePurchaseReward, "Purchased: "+truncate(l.Title, 15)
		}
	default:
		return res, fmt.Errorf("%w: %q", domain.ErrUnknownMarketplaceKind, string(kind))
	}

	if _, ok := e.credit("marketplace", amount, reason, ledger.WithContext(domain.MarketplaceTx(l.ID, l.Title))); ok {
		res.CoinsAwarded = amount
	}
	res.add(e.applyRules()...)
	return res, nil
}

// ─── Package Return ─────────────────────────────────────────────────────────

// ReturnResult is the hub's verdict on a returned package.
type ReturnResult struct {
	Outcome
	FinalReward int64               `json:"final_reward"`
	FinalStatus domain.ReturnStatus `json:"final_status"`
}

// PriceReturn applies policy to a condition without touching any state.
func PriceReturn(cond domain.PackageCondition, p ReturnPolicy) (int64, domain.ReturnStatus, error) {
	switch cond {
	case domain.ConditionGood:
		return p.Base + p.GoodBonus, domain.ReturnCompleted, nil
	case domain.ConditionSlightlyDamaged:
		r := p.Base - p.SlightPenalty
		if r < 0 {
			r = 0
		}
		return r, domain.ReturnCompleted, nil
	case domain.ConditionHeavilyDamaged:
		return 0, domain.ReturnRejected, nil
	default:
		return 0, "", fmt.Errorf("%w: %q", domain.ErrUnknownPackageCondition, string(cond))
	}
}

// RecordPackageReturn settles a returned package. A completed return with
// a positive reward is credited and counted; a rejected one pays nothing.
func (e *Engine) RecordPackageReturn(packageID, productName string, cond domain.PackageCondition, policy ReturnPolicy) (ReturnResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	reward, status, err := PriceReturn(cond, policy)
	if err != nil {
		return ReturnResult{}, err
	}
	res := ReturnResult{FinalReward: reward, FinalStatus: status}
	if status != domain.ReturnCompleted || reward <= 0 {
		return res, nil
	}

	reason := "Package Return: " + truncate(productName, 15)
	if _, ok := e.credit("package_return", reward, reason, ledger.WithContext(domain.PackageReturnTx(packageID, cond))); ok {
		res.CoinsAwarded = reward
		e.milestones.PackagesReturned++
		res.add(e.applyRules()...)
	}
	return res, nil
}

// ─── Feedback ───────────────────────────────────────────────────────────────

// FeedbackCoins prices a submission: floor(base × severity + screenshot).
func FeedbackCoins(cat domain.FeedbackCategory, sub domain.FeedbackSubmission, screenshotBonus int64) int64 {
	v := float64(cat.Coins) * domain.SeverityMultiplier(sub.Severity)
	if sub.HasScreenshot {
		v += float64(screenshotBonus)
	}
	return int64(math.Floor(v))
}

// RecordFeedbackSubmitted pays for a piece of feedback by its category.
func (e *Engine) RecordFeedbackSubmitted(sub domain.FeedbackSubmission) (Outcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	cat, ok := e.feedbackCategory(sub.Category)
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %q", domain.ErrUnknownFeedbackCategory, sub.Category)
	}

	var res Outcome
	e.milestones.FeedbackSubmitted++
	coins := FeedbackCoins(cat, sub, e.cfg.FeedbackScreenshotBonus)
	if _, ok := e.credit("feedback", coins, "Feedback: "+cat.Name, ledger.WithContext(domain.FeedbackTx(sub.ID, cat.Name))); ok {
		res.CoinsAwarded = coins
	}
	res.add(e.applyRules()...)
	return res, nil
}

func (e *Engine) feedbackCategory(name string) (domain.FeedbackCategory, bool) {
	for _, c := range e.cfg.FeedbackCategories {
		if c.Name == name {
			return c, true
		}
	}
	return domain.FeedbackCategory{}, false
}

// ─── Seller Onboarding ──────────────────────────────────────────────────────

// RecordSellerStepCompleted pays the reward of one registration step. A
// step already paid, as found in the log, pays nothing.
func (e *Engine) RecordSellerStepCompleted(stepID string) (Outcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var step *domain.SellerStep
	for i := range e.cfg.SellerSteps {
		if e.cfg.SellerSteps[i].ID == stepID {
			step = &e.cfg.SellerSteps[i]
			break
		}
	}
	if step == nil {
		return Outcome{}, fmt.Errorf("%w: %q", domain.ErrUnknownSellerStep, stepID)
	}

	var res Outcome
	if e.ledger.HasContext(func(c domain.TxContext) bool {
		return c.SellerStep != nil && c.SellerStep.StepID == step.ID
	}) {
		return res, nil
	}
	reason := "Seller Onboarding: " + step.Title
	if _, ok := e.credit("seller_step", step.Reward, reason, ledger.WithContext(domain.SellerStepTx(step.ID))); ok {
		res.CoinsAwarded = step.Reward
	}
	return res, nil
}

// RecordSellerRegistrationCompleted grants the seller achievements the
// submitted profile qualifies for, then the registration bonus.
func (e *Engine) RecordSellerRegistrationCompleted(p domain.SellerProfile) Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()

	var res Outcome
	grant := func(b Bonus) {
		if u, ok := e.unlock(b.Key, b.Reward, b.Reason); ok {
			res.add(u)
		}
	}

	certs := 0
	for _, c := range p.Certifications {
		if strings.TrimSpace(c) != "" {
			certs++
		}
	}
	if e.cfg.SellerCertDocsMin > 0 && certs >= e.cfg.SellerCertDocsMin {
		grant(e.cfg.SellerCertDocs)
	}
	if len(p.SustainabilityPractices) > e.cfg.SellerEcoProfileMinLen {
		grant(e.cfg.SellerEcoProfile)
	}
	grant(e.cfg.SellerQuickStarter)
	res.add(e.applyRules()...)
	return res
}

// ─── Redemption ─────────────────────────────────────────────────────────────

// RedeemResult is the outcome of spending coins on a catalog item.
type RedeemResult struct {
	ledger.DebitResult
	Reward domain.CoinReward `json:"reward"`
}

// Redeem spends the cost of a catalog item. An unknown id returns
// ErrRewardNotFound; too few coins is reported in the result, not as an
// error.
func (e *Engine) Redeem(rewardID string) (RedeemResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	r, err := domain.FindReward(e.cfg.Catalog, rewardID)
	if err != nil {
		return RedeemResult{}, fmt.Errorf("redeem %q: %w", rewardID, err)
	}
	res := e.debit(r.Cost, r.Name, domain.RedemptionTx(r.ID))
	return RedeemResult{DebitResult: res, Reward: r}, nil
}

// truncate shortens s to n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
