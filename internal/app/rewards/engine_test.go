package rewards

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanakmaheshwari3115/AmazonHackon/internal/app/milestone"
	"github.com/kanakmaheshwari3115/AmazonHackon/internal/domain"
)

// ─── Test Helpers ───────────────────────────────────────────────────────────

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) advanceDays(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.AddDate(0, 0, n)
}

func (c *fakeClock) today() domain.Date { return domain.DateOf(c.Now()) }

type countingObserver struct {
	NopObserver
	mu       sync.Mutex
	earned   map[string]int64
	spent    int64
	rejected int
	unlocked []string
	balance  int64
}

func (o *countingObserver) CoinsEarned(source string, amount int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.earned == nil {
		o.earned = map[string]int64{}
	}
	o.earned[source] += amount
}
func (o *countingObserver) CoinsSpent(amount int64) { o.spent += amount }
func (o *countingObserver) DebitRejected()          { o.rejected++ }
func (o *countingObserver) BalanceChanged(b int64)  { o.balance = b }
func (o *countingObserver) AchievementUnlocked(key string) {
	o.unlocked = append(o.unlocked, key)
}

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)}
	n := 0
	base := []Option{
		WithClock(clock),
		WithIDGenerator(func() string { n++; return fmt.Sprintf("tx-%d", n) }),
	}
	e, err := New(DefaultConfig(), append(base, opts...)...)
	require.NoError(t, err)
	return e, clock
}

func unlockedKeys(us []domain.Unlock) []string {
	out := make([]string, len(us))
	for i, u := range us {
		out[i] = u.Key
	}
	return out
}

// ─── Scoring ────────────────────────────────────────────────────────────────

func TestEngine_ComputeEcoScore(t *testing.T) {
	e, _ := newTestEngine(t)
	got := e.ComputeEcoScore(domain.ProductAttributes{
		Materials:       []string{"Organic Cotton"},
		DurabilityScore: 4, PackagingScore: 3, HealthImpactScore: 5,
	})
	assert.InDelta(t, 3.8, got, 1e-9)
}

// ─── Analysis ───────────────────────────────────────────────────────────────

func TestAnalysisCoins(t *testing.T) {
	tests := []struct {
		co2  float64
		want int64
	}{
		{0.3, 3},
		{0.1, 2},
		{0, 2},
		{-4, 2},
		{2.57, 25},
		{12, 120},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AnalysisCoins(tt.co2, 10, 2), "co2=%v", tt.co2)
	}
}

func TestRecordAnalysisCompleted_FlatRewardAndFirstBonus(t *testing.T) {
	e, clock := newTestEngine(t)

	res := e.RecordAnalysisCompleted(0.3, clock.today(), "Bamboo Toothbrush")
	assert.Equal(t, int64(3), res.CoinsAwarded)
	assert.Equal(t, int64(20), res.BonusCoins)
	assert.Equal(t, []string{"first_analysis_bonus"}, unlockedKeys(res.NewlyUnlocked))
	assert.Equal(t, 1, res.StreakDays)
	assert.Equal(t, int64(123), e.Balance())

	recent := e.Recent(0)
	require.Len(t, recent, 2)
	assert.Equal(t, "First Product Analysis", recent[0].Reason)
	assert.Equal(t, "Product Analysis (Bamboo Toothbrush)", recent[1].Reason)
	assert.InDelta(t, 0.3, recent[1].Context.Analysis.AnalyzedCO2Kg, 1e-9)
}

func TestRecordAnalysisCompleted_FirstBonusOnlyOnce(t *testing.T) {
	e, clock := newTestEngine(t)
	e.RecordAnalysisCompleted(0.3, clock.today(), "")
	res := e.RecordAnalysisCompleted(0.3, clock.today(), "")

	assert.Empty(t, res.NewlyUnlocked)
	assert.Equal(t, int64(3), res.CoinsAwarded, "flat reward still applies")
	assert.Equal(t, 2, e.Milestones().ProductsAnalyzed)
	assert.Equal(t, int64(100+3+20+3), e.Balance())
}

func TestRecordAnalysisCompleted_CarbonCrusherInOneJump(t *testing.T) {
	e, clock := newTestEngine(t)
	res := e.RecordAnalysisCompleted(25, clock.today(), "")

	assert.Equal(t, int64(250), res.CoinsAwarded)
	assert.ElementsMatch(t, []string{"first_analysis_bonus", "carbon_crusher_bonus"}, unlockedKeys(res.NewlyUnlocked))
	assert.Equal(t, int64(100+250+20+100), e.Balance())
}

func TestRecordAnalysisCompleted_NegativeCO2DoesNotShrinkTotal(t *testing.T) {
	e, clock := newTestEngine(t)
	e.RecordAnalysisCompleted(1.5, clock.today(), "")
	e.RecordAnalysisCompleted(-3, clock.today(), "")
	assert.InDelta(t, 1.5, e.Milestones().TotalCO2FromAnalysesKg, 1e-9)
}

func TestRecordAnalysisCompleted_NoviceAtFive(t *testing.T) {
	e, clock := newTestEngine(t)
	var fired []string
	for i := 0; i < 6; i++ {
		res := e.RecordAnalysisCompleted(0.1, clock.today(), "")
		fired = append(fired, unlockedKeys(res.NewlyUnlocked)...)
	}
	assert.Equal(t, []string{"first_analysis_bonus", "novice_analyzer"}, fired)
}

func TestRecordAnalysisCompleted_ThreeDayStreakOnce(t *testing.T) {
	e, clock := newTestEngine(t)

	var streakUnlocks []string
	record := func() AnalysisResult {
		res := e.RecordAnalysisCompleted(0.2, clock.today(), "")
		for _, u := range res.NewlyUnlocked {
			if strings.HasPrefix(u.Key, "analysis_streak") {
				streakUnlocks = append(streakUnlocks, u.Key)
			}
		}
		return res
	}

	record()
	clock.advanceDays(1)
	record()
	assert.Empty(t, streakUnlocks)

	clock.advanceDays(1)
	res := record()
	assert.Equal(t, 3, res.StreakDays)
	assert.Equal(t, []string{"analysis_streak_3_days"}, streakUnlocks)

	res = record() // day 3 again
	assert.Equal(t, 3, res.StreakDays)
	assert.Equal(t, []string{"analysis_streak_3_days"}, streakUnlocks)
}

func TestRecordAnalysisCompleted_StreakResetAfterGap(t *testing.T) {
	e, clock := newTestEngine(t)
	e.RecordAnalysisCompleted(0.2, clock.today(), "")
	clock.advanceDays(1)
	e.RecordAnalysisCompleted(0.2, clock.today(), "")
	clock.advanceDays(3)
	res := e.RecordAnalysisCompleted(0.2, clock.today(), "")
	assert.Equal(t, 1, res.StreakDays)
	assert.Equal(t, 0, e.StreakDays(clock.today().AddDays(2)))
}

// ─── Login ──────────────────────────────────────────────────────────────────

func TestRecordLogin_OncePerDay(t *testing.T) {
	e, clock := newTestEngine(t)

	assert.True(t, e.RecordLogin(clock.Now()))
	assert.False(t, e.RecordLogin(clock.Now().Add(3*time.Hour)))
	assert.Equal(t, int64(105), e.Balance())

	clock.advanceDays(1)
	assert.True(t, e.RecordLogin(clock.Now()))
	assert.Equal(t, int64(110), e.Balance())
}

// ─── Purchase ───────────────────────────────────────────────────────────────

func TestRecordPurchase(t *testing.T) {
	e, _ := newTestEngine(t)

	res := e.RecordPurchase(4.2, "p-1", "Organic Cotton Tote Bag")
	assert.True(t, res.Sustainable)
	assert.Equal(t, int64(15), res.CoinsAwarded)
	assert.Equal(t, []string{"first_ever_sustainable_purchase_bonus"}, unlockedKeys(res.NewlyUnlocked))

	res = e.RecordPurchase(3.7, "p-2", "Cork Yoga Mat")
	assert.True(t, res.Sustainable, "threshold is inclusive")
	assert.Empty(t, res.NewlyUnlocked)

	res = e.RecordPurchase(3.6, "p-3", "Plastic Bottle")
	assert.False(t, res.Sustainable)
	assert.Zero(t, res.CoinsAwarded)

	assert.Equal(t, 2, e.Milestones().SustainablePurchases)
	assert.Equal(t, int64(100+15+50+15), e.Balance())
	assert.Equal(t, "Sustainable pick: Organic Cotton Tote ...", e.Recent(0)[2].Reason)
}

// ─── Quiz ───────────────────────────────────────────────────────────────────

func TestRecordQuizCompleted(t *testing.T) {
	e, _ := newTestEngine(t)

	res := e.RecordQuizCompleted("quiz_carbon_basics", 5, 5, 10, 15)
	assert.True(t, res.Perfect)
	assert.Equal(t, int64(25), res.CoinsAwarded)
	assert.Equal(t, []string{"first_quiz_completed_bonus"}, unlockedKeys(res.NewlyUnlocked))

	res = e.RecordQuizCompleted("quiz_recycling", 3, 5, 10, 15)
	assert.False(t, res.Perfect)
	assert.Equal(t, int64(10), res.CoinsAwarded)
	assert.Empty(t, res.NewlyUnlocked)

	res = e.RecordQuizCompleted("quiz_recycling", 5, 5, 10, 15)
	assert.Equal(t, int64(25), res.CoinsAwarded, "perfect bonus applies every time")

	assert.Equal(t, 3, e.Milestones().QuizzesCompleted)
	assert.Equal(t, int64(100+25+25+10+25), e.Balance())
}

func TestRecordQuizCompleted_EmptyQuizNotPerfect(t *testing.T) {
	e, _ := newTestEngine(t)
	res := e.RecordQuizCompleted("empty", 0, 0, 10, 15)
	assert.False(t, res.Perfect)
}

// ─── Profile ────────────────────────────────────────────────────────────────

func TestRecordProfileInterestsSet(t *testing.T) {
	e, _ := newTestEngine(t)

	assert.False(t, e.RecordProfileInterestsSet(0, 0))
	assert.True(t, e.RecordProfileInterestsSet(0, 2))
	assert.False(t, e.RecordProfileInterestsSet(0, 3), "only once")
	assert.False(t, e.RecordProfileInterestsSet(2, 4))
	assert.Equal(t, int64(120), e.Balance())
	assert.True(t, e.Milestones().Achievements.Has("profile_completion_bonus"))
}

// ─── Marketplace ────────────────────────────────────────────────────────────

func TestRecordMarketplaceEvent(t *testing.T) {
	e, _ := newTestEngine(t)

	res, err := e.RecordMarketplaceEvent(domain.MarketplaceListed, MarketplaceListing{ID: "mp-1", Title: "Vintage Bike"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), res.CoinsAwarded)

	res, err = e.RecordMarketplaceEvent(domain.MarketplaceSold, MarketplaceListing{ID: "mp-1", Title: "Vintage Bike"})
	require.NoError(t, err)
	assert.Equal(t, int64(25), res.CoinsAwarded)
	assert.Equal(t, []string{"first_marketplace_sale"}, unlockedKeys(res.NewlyUnlocked))
	assert.Zero(t, res.BonusCoins, "first sale is a badge without coins")

	res, err = e.RecordMarketplaceEvent(domain.MarketplacePurchased, MarketplaceListing{ID: "mp-2", Title: "Book Swap", Currency: "Trade"})
	require.NoError(t, err)
	assert.Zero(t, res.CoinsAwarded, "trades pay nothing")

	res, err = e.RecordMarketplaceEvent(domain.MarketplacePurchased, MarketplaceListing{ID: "mp-3", Title: "Desk Lamp", Currency: "USD"})
	require.NoError(t, err)
	assert.Equal(t, int64(10), res.CoinsAwarded)

	_, err = e.RecordMarketplaceEvent("gifted", MarketplaceListing{})
	assert.ErrorIs(t, err, domain.ErrUnknownMarketplaceKind)

	m := e.Milestones()
	assert.Equal(t, 1, m.MarketplaceListed)
	assert.Equal(t, 1, m.MarketplaceSold)
	assert.Equal(t, 2, m.MarketplacePurchased)
	assert.Equal(t, int64(100+5+25+10), e.Balance())
}

// ─── Package Return ─────────────────────────────────────────────────────────

func TestRecordPackageReturn(t *testing.T) {
	policy := DefaultConfig().Returns
	tests := []struct {
		name        string
		cond        domain.PackageCondition
		policy      ReturnPolicy
		wantReward  int64
		wantStatus  domain.ReturnStatus
		wantCounted int
	}{
		{"good", domain.ConditionGood, policy, 15, domain.ReturnCompleted, 1},
		{"slight", domain.ConditionSlightlyDamaged, policy, 5, domain.ReturnCompleted, 1},
		{"heavy", domain.ConditionHeavilyDamaged, policy, 0, domain.ReturnRejected, 0},
		{"slight floors at zero", domain.ConditionSlightlyDamaged, ReturnPolicy{Base: 3, SlightPenalty: 5}, 0, domain.ReturnCompleted, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestEngine(t)
			res, err := e.RecordPackageReturn("pkg-1", "Glass Jar", tt.cond, tt.policy)
			require.NoError(t, err)
			assert.Equal(t, tt.wantReward, res.FinalReward)
			assert.Equal(t, tt.wantStatus, res.FinalStatus)
			assert.Equal(t, tt.wantCounted, e.Milestones().PackagesReturned)
			assert.Equal(t, int64(100)+tt.wantReward, e.Balance())
		})
	}

	e, _ := newTestEngine(t)
	_, err := e.RecordPackageReturn("pkg-1", "Glass Jar", "lost", policy)
	assert.ErrorIs(t, err, domain.ErrUnknownPackageCondition)
}

// ─── Feedback ───────────────────────────────────────────────────────────────

func TestRecordFeedbackSubmitted(t *testing.T) {
	e, _ := newTestEngine(t)

	res, err := e.RecordFeedbackSubmitted(domain.FeedbackSubmission{ID: "fb-1", Category: "bug_report", Severity: 4, HasScreenshot: true})
	require.NoError(t, err)
	assert.Equal(t, int64(35), res.CoinsAwarded) // floor(20×1.5 + 5)

	res, err = e.RecordFeedbackSubmitted(domain.FeedbackSubmission{ID: "fb-2", Category: "website_navigation", Severity: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(9), res.CoinsAwarded) // floor(8×1.2)

	_, err = e.RecordFeedbackSubmitted(domain.FeedbackSubmission{Category: "rant"})
	assert.ErrorIs(t, err, domain.ErrUnknownFeedbackCategory)

	assert.Equal(t, 2, e.Milestones().FeedbackSubmitted)
	assert.Equal(t, "Feedback: website_navigation", e.Recent(1)[0].Reason)
}

// ─── Seller ─────────────────────────────────────────────────────────────────

func TestRecordSellerStepCompleted(t *testing.T) {
	e, _ := newTestEngine(t)

	res, err := e.RecordSellerStepCompleted("verification_documents")
	require.NoError(t, err)
	assert.Equal(t, int64(20), res.CoinsAwarded)

	tx := e.Recent(1)[0]
	assert.Equal(t, "Seller Onboarding: Verification Documents", tx.Reason)
	assert.Equal(t, "verification_documents", tx.Context.SellerStep.StepID)

	_, err = e.RecordSellerStepCompleted("bank_vault")
	assert.ErrorIs(t, err, domain.ErrUnknownSellerStep)
}

func TestRecordSellerStepCompleted_PaysOncePerStep(t *testing.T) {
	e, clock := newTestEngine(t)
	start := e.Balance()

	_, err := e.RecordSellerStepCompleted("verification_documents")
	require.NoError(t, err)
	res, err := e.RecordSellerStepCompleted("verification_documents")
	require.NoError(t, err)
	assert.Zero(t, res.CoinsAwarded)
	assert.Equal(t, start+20, e.Balance())

	// The guard reads the log, so it survives a restore.
	restored, err := Restore(e.Snapshot(), DefaultConfig(), WithClock(clock))
	require.NoError(t, err)
	res, err = restored.RecordSellerStepCompleted("verification_documents")
	require.NoError(t, err)
	assert.Zero(t, res.CoinsAwarded)

	res, err = restored.RecordSellerStepCompleted("business_info")
	require.NoError(t, err)
	assert.Equal(t, int64(10), res.CoinsAwarded)
}

func TestRecordSellerRegistrationCompleted(t *testing.T) {
	e, _ := newTestEngine(t)
	profile := domain.SellerProfile{
		Certifications:          []string{"GOTS", " ", "Fair Trade"},
		SustainabilityPractices: strings.Repeat("We ship plastic-free. ", 3),
	}

	res := e.RecordSellerRegistrationCompleted(profile)
	assert.Equal(t, []string{"seller_sustain_champion_docs", "seller_eco_profile_pro", "seller_reg_quick_starter"}, unlockedKeys(res.NewlyUnlocked))
	assert.Equal(t, int64(105), res.BonusCoins)

	res = e.RecordSellerRegistrationCompleted(profile)
	assert.Empty(t, res.NewlyUnlocked, "seller achievements are one-time")
	assert.Equal(t, int64(205), e.Balance())
}

func TestRecordSellerRegistrationCompleted_MinimalProfile(t *testing.T) {
	e, _ := newTestEngine(t)
	res := e.RecordSellerRegistrationCompleted(domain.SellerProfile{Certifications: []string{"GOTS"}, SustainabilityPractices: "short"})
	assert.Equal(t, []string{"seller_reg_quick_starter"}, unlockedKeys(res.NewlyUnlocked))
}

// ─── Redemption ─────────────────────────────────────────────────────────────

func TestRedeem(t *testing.T) {
	obs := &countingObserver{}
	e, _ := newTestEngine(t, WithObserver(obs))

	res, err := e.Redeem("discount_5")
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, "Redeemed: 5% Off Coupon", res.Tx.Reason)
	assert.Equal(t, int64(50), e.Balance())

	res, err = e.Redeem("plant_tree")
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, int64(100), res.Needed)
	assert.Equal(t, int64(50), e.Balance())

	_, err = e.Redeem("yacht")
	assert.ErrorIs(t, err, domain.ErrRewardNotFound)

	assert.Equal(t, int64(50), obs.spent)
	assert.Equal(t, 1, obs.rejected)
	assert.Equal(t, int64(50), obs.balance)
}

func TestDebit_InsufficientIsRejectedWithoutMutation(t *testing.T) {
	e, _ := newTestEngine(t)
	require.True(t, e.Debit(50, "warmup").OK)

	res := e.Debit(60, "x")
	assert.False(t, res.OK)
	assert.Equal(t, int64(10), res.Needed)
	assert.Equal(t, int64(50), e.Balance())
	assert.Len(t, e.Recent(0), 1)
}

// ─── Rules Over Achievements ────────────────────────────────────────────────

func newEngineWithRules(t *testing.T, rules ...milestone.Rule) (*Engine, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)}
	cfg := DefaultConfig()
	cfg.Rules = append(cfg.Rules, rules...)
	e, err := New(cfg, WithClock(clock))
	require.NoError(t, err)
	return e, clock
}

var collector = milestone.Rule{
	Key: "collector", Selector: milestone.AchievementsUnlocked, Comparator: milestone.AtLeast,
	Threshold: 1, Reward: 5, Reason: "First Achievement",
}

func TestRules_SeeProfileUnlock(t *testing.T) {
	e, _ := newEngineWithRules(t, collector)

	require.True(t, e.RecordProfileInterestsSet(0, 2))
	assert.True(t, e.Milestones().Achievements.Has("collector"))
	assert.Equal(t, int64(125), e.Balance())
	assert.Equal(t, []string{"profile_completion_bonus", "collector"}, unlockedKeys(e.PendingUnlocks()))
}

func TestRules_SeeSellerRegistrationUnlock(t *testing.T) {
	e, _ := newEngineWithRules(t, collector)

	res := e.RecordSellerRegistrationCompleted(domain.SellerProfile{SustainabilityPractices: "short"})
	assert.Equal(t, []string{"seller_reg_quick_starter", "collector"}, unlockedKeys(res.NewlyUnlocked))
	assert.Equal(t, int64(55), res.BonusCoins)
}

func TestRules_SeeStreakUnlock(t *testing.T) {
	e, clock := newEngineWithRules(t, milestone.Rule{
		Key: "streak_fan", Condition: `"analysis_streak_3_days" in achievements`, Reward: 7, Reason: "Streak Fan",
	})

	e.RecordAnalysisCompleted(0.2, clock.today(), "")
	clock.advanceDays(1)
	e.RecordAnalysisCompleted(0.2, clock.today(), "")
	clock.advanceDays(1)
	res := e.RecordAnalysisCompleted(0.2, clock.today(), "")

	assert.Equal(t, []string{"analysis_streak_3_days", "streak_fan"}, unlockedKeys(res.NewlyUnlocked))
	require.NoError(t, e.Verify())
}

func TestRules_ChainSettlesInOneEvent(t *testing.T) {
	e, clock := newEngineWithRules(t, collector, milestone.Rule{
		Key: "hoarder", Selector: milestone.AchievementsUnlocked, Comparator: milestone.AtLeast,
		Threshold: 2, Reward: 9, Reason: "Two Achievements",
	})

	res := e.RecordAnalysisCompleted(0.3, clock.today(), "")
	assert.Equal(t, []string{"first_analysis_bonus", "collector", "hoarder"}, unlockedKeys(res.NewlyUnlocked))
	assert.Equal(t, int64(34), res.BonusCoins)

	res = e.RecordAnalysisCompleted(0.3, clock.today(), "")
	assert.Empty(t, res.NewlyUnlocked)
}

// ─── Persistence & Unlock Queue ─────────────────────────────────────────────

func TestSnapshotRestore_RoundTrip(t *testing.T) {
	e, clock := newTestEngine(t)
	e.RecordLogin(clock.Now())
	e.RecordAnalysisCompleted(0.5, clock.today(), "Hemp Shirt")
	e.RecordQuizCompleted("q", 1, 2, 10, 15)
	_, _ = e.Redeem("discount_5")

	snap := e.Snapshot()
	restored, err := Restore(snap, DefaultConfig(), WithClock(clock))
	require.NoError(t, err)

	assert.Equal(t, e.Balance(), restored.Balance())
	assert.Equal(t, e.Recent(0), restored.Recent(0))
	assert.Equal(t, e.Milestones().Achievements.Keys(), restored.Milestones().Achievements.Keys())
	require.NoError(t, restored.Verify())

	// Achievements survive the restore: no second first-analysis bonus, and
	// the login for today is already claimed.
	res := restored.RecordAnalysisCompleted(0.5, clock.today(), "")
	assert.Empty(t, res.NewlyUnlocked)
	assert.False(t, restored.RecordLogin(clock.Now()))
}

func TestRestore_VerifiesAgainstPersistedOpeningBalance(t *testing.T) {
	e, clock := newTestEngine(t)
	e.RecordLogin(clock.Now())
	_, _ = e.Redeem("discount_5")
	snap := e.Snapshot()
	assert.Equal(t, int64(100), snap.OpeningBalance)

	cfg := DefaultConfig()
	cfg.StartingBalance = 500
	restored, err := Restore(snap, cfg, WithClock(clock))
	require.NoError(t, err)
	require.NoError(t, restored.Verify(), "a later starting balance does not rewrite history")
	assert.Equal(t, int64(55), restored.Balance())
	assert.Equal(t, int64(100), restored.Snapshot().OpeningBalance)
}

func TestSnapshot_IsIndependentCopy(t *testing.T) {
	e, clock := newTestEngine(t)
	e.RecordAnalysisCompleted(0.5, clock.today(), "")
	snap := e.Snapshot()
	snap.Milestones.Achievements.Add("tampered")
	*snap.Streak.LastActivity = clock.today().AddDays(-10)

	assert.False(t, e.Milestones().Achievements.Has("tampered"))
	assert.Equal(t, clock.today(), *e.Streak().LastActivity)
}

func TestDrainUnlocks(t *testing.T) {
	e, clock := newTestEngine(t)
	e.RecordAnalysisCompleted(0.3, clock.today(), "")
	e.RecordProfileInterestsSet(0, 1)

	assert.Len(t, e.PendingUnlocks(), 2)
	drained := e.DrainUnlocks()
	assert.Equal(t, []string{"first_analysis_bonus", "profile_completion_bonus"}, unlockedKeys(drained))
	assert.Empty(t, e.PendingUnlocks())
}

func TestEngine_BalanceMatchesLogAfterManyEvents(t *testing.T) {
	e, clock := newTestEngine(t)
	for i := 0; i < 40; i++ {
		e.RecordLogin(clock.Now())
		e.RecordAnalysisCompleted(float64(i)/10, clock.today(), "")
		if i%3 == 0 {
			_, _ = e.Redeem("discount_5")
		}
		clock.advanceDays(1)
	}
	require.NoError(t, e.Verify())
	assert.GreaterOrEqual(t, e.Balance(), int64(0))
	assert.Len(t, e.Recent(0), 50)
	assert.Greater(t, len(e.Snapshot().Transactions), 50, "snapshot keeps the full log")
}

func TestEngine_ConcurrentEventsSerialize(t *testing.T) {
	e, _ := newTestEngine(t)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.Credit(2, "parallel")
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(200), e.Balance())
	assert.NoError(t, e.Verify())
}

func TestNew_RejectsBadRules(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rules = append(cfg.Rules, cfg.Rules[0])
	_, err := New(cfg)
	assert.ErrorIs(t, err, domain.ErrInvalidRule)
}

func TestObserver_EarnedBySource(t *testing.T) {
	obs := &countingObserver{}
	e, clock := newTestEngine(t, WithObserver(obs))
	e.RecordLogin(clock.Now())
	e.RecordAnalysisCompleted(0.3, clock.today(), "")

	assert.Equal(t, int64(5), obs.earned["login"])
	assert.Equal(t, int64(3), obs.earned["analysis"])
	assert.Equal(t, int64(20), obs.earned["achievement"])
	assert.Equal(t, []string{"first_analysis_bonus"}, obs.unlocked)
}
