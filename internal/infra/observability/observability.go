// Package observability exports EcoCoin engine activity as Prometheus
// metrics. Metrics implements rewards.Observer so the engine reports to it
// directly.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kanakmaheshwari3115/AmazonHackon/internal/app/rewards"
)

const namespace = "ecorewards"

var _ rewards.Observer = (*Metrics)(nil)

// Metrics holds every engine collector.
type Metrics struct {
	registry *prometheus.Registry

	EarnedTotal   *prometheus.CounterVec
	SpentTotal    prometheus.Counter
	RejectedTotal prometheus.Counter
	BalanceGauge  prometheus.Gauge
	UnlockedTotal *prometheus.CounterVec
	StreakGauge   prometheus.Gauge
	ScoreHist     prometheus.Histogram
	EventsTotal   *prometheus.CounterVec
}

// New registers the collectors on a fresh registry. Process and Go runtime
// collectors are included when withRuntime is set.
func New(withRuntime bool) *Metrics {
	reg := prometheus.NewRegistry()
	if withRuntime {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		// ─── Ledger ─────────────────────────────────────────────────────────
		EarnedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "coins_earned_total",
			Help:      "Total EcoCoins credited, by source.",
		}, []string{"source"}),
		SpentTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "coins_spent_total",
			Help:      "Total EcoCoins spent on redemptions.",
		}),
		RejectedTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "debits_rejected_total",
			Help:      "Redemptions rejected for insufficient balance.",
		}),
		BalanceGauge: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "balance",
			Help:      "Current EcoCoin balance.",
		}),

		// ─── Engagement ─────────────────────────────────────────────────────
		UnlockedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "achievements_unlocked_total",
			Help:      "Achievements unlocked, by key.",
		}, []string{"key"}),
		StreakGauge: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "streak_days",
			Help:      "Current consecutive-day analysis streak.",
		}),
		ScoreHist: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ecoscore_computed",
			Help:      "Distribution of computed EcoScores.",
			Buckets:   []float64{1, 1.5, 2, 2.5, 3, 3.5, 3.7, 4, 4.5, 5},
		}),

		// ─── Transport ──────────────────────────────────────────────────────
		EventsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "events_total",
			Help:      "Engagement events received over HTTP, by kind and result.",
		}, []string{"kind", "result"}),
	}
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Event counts one HTTP-dispatched event.
func (m *Metrics) Event(kind string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.EventsTotal.WithLabelValues(kind, result).Inc()
}

// ─── rewards.Observer ───────────────────────────────────────────────────────

func (m *Metrics) CoinsEarned(source string, amount int64) {
	m.EarnedTotal.WithLabelValues(source).Add(float64(amount))
}

func (m *Metrics) CoinsSpent(amount int64) { m.SpentTotal.Add(float64(amount)) }

func (m *Metrics) DebitRejected() { m.RejectedTotal.Inc() }

func (m *Metrics) BalanceChanged(balance int64) { m.BalanceGauge.Set(float64(balance)) }

func (m *Metrics) AchievementUnlocked(key string) { m.UnlockedTotal.WithLabelValues(key).Inc() }

func (m *Metrics) StreakChanged(days int) { m.StreakGauge.Set(float64(days)) }

func (m *Metrics) EcoScoreComputed(score float64) { m.ScoreHist.Observe(score) }
