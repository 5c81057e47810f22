package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/kanakmaheshwari3115/AmazonHackon/internal/app/ecoscore"
	"github.com/kanakmaheshwari3115/AmazonHackon/internal/app/ledger"
	"github.com/kanakmaheshwari3115/AmazonHackon/internal/app/rewards"
	"github.com/kanakmaheshwari3115/AmazonHackon/internal/app/session"
	"github.com/kanakmaheshwari3115/AmazonHackon/internal/domain"
)

// ─── Rewards API ────────────────────────────────────────────────────────────
//
// POST /api/ecoscore                      score a product
// GET  /api/rewards/summary               balance, totals, streak, counts
// GET  /api/rewards/balance
// GET  /api/rewards/transactions?limit=N  newest first, at most 50
// GET  /api/rewards/streak
// GET  /api/rewards/milestones
// GET  /api/rewards/achievements          rules with progress
// GET  /api/rewards/catalog
// GET  /api/rewards/unlocks               unlocks not yet acknowledged
// POST /api/rewards/unlocks/ack           acknowledge and clear them
// POST /api/rewards/redeem                {reward_id}; 402 when short
// POST /api/rewards/events/{kind}         engagement events

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.sessions.Open(r.Context(), s.user)
	if err != nil {
		s.logger.Error().Err(err).Msg("open session")
		writeError(w, http.StatusInternalServerError, "session unavailable")
		return nil, false
	}
	return sess, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.ContentLength == 0 {
		return true
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// statusFor maps engine errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrRewardNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnknownFeedbackCategory),
		errors.Is(err, domain.ErrUnknownMarketplaceKind),
		errors.Is(err, domain.ErrUnknownPackageCondition),
		errors.Is(err, domain.ErrUnknownSellerStep),
		errors.Is(err, domain.ErrInvalidUnit),
		errors.Is(err, domain.ErrNegativeValue),
		errors.Is(err, domain.ErrInvalidAmount):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// dispatch runs an event against the session, saves, and writes the result
// alongside the new balance.
func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, kind string, fn func(*rewards.Engine) (any, error)) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var result any
	err := sess.Do(r.Context(), func(e *rewards.Engine) error {
		var err error
		result, err = fn(e)
		return err
	})
	if s.metrics != nil {
		s.metrics.Event(kind, err)
	}
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"result":  result,
		"balance": sess.Engine().Balance(),
	})
}

// ─── Scoring ────────────────────────────────────────────────────────────────

// carbonInput lets clients send carbon in any recognized unit.
type carbonInput struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

type ecoScoreRequest struct {
	domain.ProductAttributes
	Carbon *carbonInput `json:"carbon,omitempty"`
}

func (s *Server) handleEcoScore(w http.ResponseWriter, r *http.Request) {
	var req ecoScoreRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Carbon != nil {
		kg, err := ecoscore.NormalizeToKg(req.Carbon.Value, req.Carbon.Unit)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		req.CarbonFootprintKg = kg
	}

	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	b := sess.Engine().ScoreBreakdown(req.ProductAttributes)
	writeJSON(w, http.StatusOK, map[string]any{
		"eco_score": b.Final,
		"breakdown": b,
	})
}

// ─── Queries ────────────────────────────────────────────────────────────────

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	e := sess.Engine()
	earned, spent := e.Totals()
	m := e.Milestones()
	writeJSON(w, http.StatusOK, map[string]any{
		"balance":      e.Balance(),
		"total_earned": earned,
		"total_spent":  spent,
		"streak_days":  e.StreakDays(domain.DateOf(s.clock.Now())),
		"milestones":   m,
		"unlocked":     m.Achievements.Len(),
		"total_rules":  len(e.Config().Rules),
		"pending":      len(e.PendingUnlocks()),
		"recent":       e.Recent(5),
	})
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"balance": sess.Engine().Balance()})
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	limit := ledger.DisplayWindow
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": sess.Engine().Recent(limit)})
}

func (s *Server) handleStreak(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	e := sess.Engine()
	writeJSON(w, http.StatusOK, map[string]any{
		"current_days": e.StreakDays(domain.DateOf(s.clock.Now())),
		"stored":       e.Streak(),
	})
}

func (s *Server) handleMilestones(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Engine().Milestones())
}

func (s *Server) handleAchievements(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	e := sess.Engine()
	progress := e.Progress()
	unlocked := e.Milestones().Achievements
	writeJSON(w, http.StatusOK, map[string]any{
		"rules":          progress,
		"unlocked":       unlocked.Keys(),
		"unlocked_count": unlocked.Len(),
	})
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rewards": sess.Engine().Catalog()})
}

func (s *Server) handleUnlocks(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"unlocks": sess.Engine().PendingUnlocks()})
}

func (s *Server) handleUnlocksAck(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"acknowledged": len(sess.Engine().DrainUnlocks())})
}

// ─── Redemption ─────────────────────────────────────────────────────────────

func (s *Server) handleRedeem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RewardID string `json:"reward_id"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.RewardID == "" {
		writeError(w, http.StatusBadRequest, "reward_id is required")
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var res rewards.RedeemResult
	err := sess.Do(r.Context(), func(e *rewards.Engine) error {
		var err error
		res, err = e.Redeem(req.RewardID)
		return err
	})
	if s.metrics != nil {
		s.metrics.Event("redeem", err)
	}
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	if !res.OK {
		writeJSON(w, http.StatusPaymentRequired, map[string]any{
			"error": map[string]any{
				"message": fmt.Sprintf("not enough EcoCoins for %s", res.Reward.Name),
				"type":    "insufficient_coins",
			},
			"needed":  res.Needed,
			"balance": sess.Engine().Balance(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"result":  res,
		"balance": sess.Engine().Balance(),
	})
}

// ─── Events ─────────────────────────────────────────────────────────────────

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, "login", func(e *rewards.Engine) (any, error) {
		return map[string]bool{"credited": e.RecordLogin(s.clock.Now())}, nil
	})
}

type analysisRequest struct {
	CO2Kg       *float64     `json:"co2_kg"`
	Carbon      *carbonInput `json:"carbon"`
	ProductName string       `json:"product_name"`
	Date        string       `json:"date"` // YYYY-MM-DD, default today
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	var req analysisRequest
	if !decode(w, r, &req) {
		return
	}
	var kg float64
	switch {
	case req.Carbon != nil:
		v, err := ecoscore.NormalizeToKg(req.Carbon.Value, req.Carbon.Unit)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		kg = v
	case req.CO2Kg != nil:
		kg = *req.CO2Kg
	default:
		writeError(w, http.StatusBadRequest, "co2_kg or carbon is required")
		return
	}
	today := domain.DateOf(s.clock.Now())
	if req.Date != "" {
		d, err := domain.ParseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		today = d
	}
	s.dispatch(w, r, "analysis", func(e *rewards.Engine) (any, error) {
		return e.RecordAnalysisCompleted(kg, today, req.ProductName), nil
	})
}

type purchaseRequest struct {
	ProductID   string                    `json:"product_id"`
	ProductName string                    `json:"product_name"`
	EcoScore    *float64                  `json:"eco_score"`
	Attributes  *domain.ProductAttributes `json:"attributes"`
}

func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if !decode(w, r, &req) {
		return
	}
	if req.EcoScore == nil && req.Attributes == nil {
		writeError(w, http.StatusBadRequest, "eco_score or attributes is required")
		return
	}
	s.dispatch(w, r, "purchase", func(e *rewards.Engine) (any, error) {
		var score float64
		if req.EcoScore != nil {
			score = *req.EcoScore
		} else {
			score = e.ComputeEcoScore(*req.Attributes)
		}
		return e.RecordPurchase(score, req.ProductID, req.ProductName), nil
	})
}

type quizRequest struct {
	QuizID         string `json:"quiz_id"`
	Score          int    `json:"score"`
	TotalQuestions int    `json:"total_questions"`
	BaseReward     *int64 `json:"base_reward"`
	PerfectBonus   *int64 `json:"perfect_bonus"`
}

func (s *Server) handleQuiz(w http.ResponseWriter, r *http.Request) {
	var req quizRequest
	if !decode(w, r, &req) {
		return
	}
	if req.QuizID == "" {
		writeError(w, http.StatusBadRequest, "quiz_id is required")
		return
	}
	s.dispatch(w, r, "quiz", func(e *rewards.Engine) (any, error) {
		base, perfect := e.Config().QuizBaseReward, e.Config().QuizPerfectBonus
		if req.BaseReward != nil {
			base = *req.BaseReward
		}
		if req.PerfectBonus != nil {
			perfect = *req.PerfectBonus
		}
		return e.RecordQuizCompleted(req.QuizID, req.Score, req.TotalQuestions, base, perfect), nil
	})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PreviousCount int `json:"previous_count"`
		NewCount      int `json:"new_count"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.dispatch(w, r, "profile", func(e *rewards.Engine) (any, error) {
		return map[string]bool{"credited": e.RecordProfileInterestsSet(req.PreviousCount, req.NewCount)}, nil
	})
}

func (s *Server) handleMarketplace(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kind domain.MarketplaceKind `json:"kind"`
		rewards.MarketplaceListing
	}
	if !decode(w, r, &req) {
		return
	}
	s.dispatch(w, r, "marketplace", func(e *rewards.Engine) (any, error) {
		return e.RecordMarketplaceEvent(req.Kind, req.MarketplaceListing)
	})
}

func (s *Server) handleReturn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PackageID   string                  `json:"package_id"`
		ProductName string                  `json:"product_name"`
		Condition   domain.PackageCondition `json:"condition"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.dispatch(w, r, "return", func(e *rewards.Engine) (any, error) {
		return e.RecordPackageReturn(req.PackageID, req.ProductName, req.Condition, e.Config().Returns)
	})
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req domain.FeedbackSubmission
	if !decode(w, r, &req) {
		return
	}
	s.dispatch(w, r, "feedback", func(e *rewards.Engine) (any, error) {
		return e.RecordFeedbackSubmitted(req)
	})
}

func (s *Server) handleSellerStep(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StepID string `json:"step_id"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.dispatch(w, r, "seller_step", func(e *rewards.Engine) (any, error) {
		return e.RecordSellerStepCompleted(req.StepID)
	})
}

func (s *Server) handleSellerRegistration(w http.ResponseWriter, r *http.Request) {
	var req domain.SellerProfile
	if !decode(w, r, &req) {
		return
	}
	s.dispatch(w, r, "seller_registration", func(e *rewards.Engine) (any, error) {
		return e.RecordSellerRegistrationCompleted(req), nil
	})
}
