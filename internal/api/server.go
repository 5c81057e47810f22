// Package api provides the HTTP server for ecorewards: EcoScore scoring,
// the coin ledger, engagement events and a live notification feed.
package api

import (
	"encoding/json"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/kanakmaheshwari3115/AmazonHackon/internal/app/session"
	"github.com/kanakmaheshwari3115/AmazonHackon/internal/domain"
	"github.com/kanakmaheshwari3115/AmazonHackon/internal/infra/observability"
)

// Version is reported by GET /api/version.
var Version = "0.1.0"

// Server is the ecorewards HTTP API server. It serves a single user's
// session.
type Server struct {
	sessions *session.Manager
	user     string
	clock    domain.Clock
	logger   zerolog.Logger

	metrics *observability.Metrics // nil disables /metrics
	hub     *NotificationHub       // nil disables the live feed
	origins []string
}

// NewServer creates a server for user's session.
func NewServer(sessions *session.Manager, user string) *Server {
	return &Server{
		sessions: sessions,
		user:     user,
		clock:    domain.SystemClock,
		logger:   zerolog.Nop(),
	}
}

// EnableMetrics serves m at /metrics and counts events into it.
func (s *Server) EnableMetrics(m *observability.Metrics) { s.metrics = m }

// SetNotificationHub sets the live notification SSE hub. The same hub must
// be the engines' notifier for events to reach it.
func (s *Server) SetNotificationHub(h *NotificationHub) { s.hub = h }

// SetLogger sets the request logger.
func (s *Server) SetLogger(l zerolog.Logger) { s.logger = l }

// SetClock sets the source of "today" for events that omit a date.
func (s *Server) SetClock(c domain.Clock) { s.clock = c }

// SetAllowedOrigins sets the CORS allow-list. "*" allows any origin.
func (s *Server) SetAllowedOrigins(origins []string) { s.origins = origins }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(s.corsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
		})
	})

	r.Get("/api/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"version": Version,
		})
	})

	r.Post("/api/ecoscore", s.handleEcoScore)

	r.Route("/api/rewards", func(r chi.Router) {
		// The SSE stream must not be cut by the request timeout.
		if s.hub != nil {
			r.Get("/notifications/live", s.hub.HandleSSE)
		}

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))

			r.Get("/summary", s.handleSummary)
			r.Get("/balance", s.handleBalance)
			r.Get("/transactions", s.handleTransactions)
			r.Get("/streak", s.handleStreak)
			r.Get("/milestones", s.handleMilestones)
			r.Get("/achievements", s.handleAchievements)
			r.Get("/catalog", s.handleCatalog)
			r.Get("/unlocks", s.handleUnlocks)
			r.Post("/unlocks/ack", s.handleUnlocksAck)
			r.Post("/redeem", s.handleRedeem)

			r.Route("/events", func(r chi.Router) {
				r.Post("/login", s.handleLogin)
				r.Post("/analysis", s.handleAnalysis)
				r.Post("/purchase", s.handlePurchase)
				r.Post("/quiz", s.handleQuiz)
				r.Post("/profile", s.handleProfile)
				r.Post("/marketplace", s.handleMarketplace)
				r.Post("/return", s.handleReturn)
				r.Post("/feedback", s.handleFeedback)
				r.Post("/seller-step", s.handleSellerStep)
				r.Post("/seller-registration", s.handleSellerRegistration)
			})
		})
	})

	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	return r
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    "error",
		},
	})
}

// corsMiddleware echoes allowed origins back.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		switch {
		case origin == "":
		case slices.Contains(s.origins, "*"):
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case slices.Contains(s.origins, origin):
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs one line per request at debug level.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
	})
}
