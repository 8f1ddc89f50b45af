package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "focus"

const (
	StateIdle       = "idle"
	StateScheduling = "scheduling"
	StateLoadError  = "load_error"
)

// Recorder holds the daemon's collectors on its own registry.
// A nil *Recorder records nothing.
type Recorder struct {
	registry *prometheus.Registry

	rounds        *prometheus.CounterVec
	wins          prometheus.Counter
	moveFailures  *prometheus.CounterVec
	loadErrors    prometheus.Counter
	tableEntries  prometheus.Gauge
	tableTickets  prometheus.Gauge
	roundDuration prometheus.Histogram
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		rounds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_total",
			Help:      "Scheduling rounds by the state the round ended in.",
		}, []string{"state"}),
		wins: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "round_wins_total",
			Help:      "Rounds in which a winner was drawn.",
		}),
		moveFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "move_failures_total",
			Help:      "Partition membership writes that failed, by target partition.",
		}, []string{"partition"}),
		loadErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "table_load_errors_total",
			Help:      "Ticket table reads that failed with an I/O error.",
		}),
		tableEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "table_entries",
			Help:      "Entries in the ticket table at the last round.",
		}),
		tableTickets: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "table_tickets",
			Help:      "Total tickets in the ticket table at the last round.",
		}),
		roundDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "round_duration_seconds",
			Help:      "Time spent loading, drawing and moving in one round, sleep excluded.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
	}
	r.registry.MustRegister(r.rounds, r.wins, r.moveFailures, r.loadErrors,
		r.tableEntries, r.tableTickets, r.roundDuration)
	return r
}

func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the recorder's registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Recorder) Round(state string, took time.Duration) {
	if r == nil {
		return
	}
	r.rounds.WithLabelValues(state).Inc()
	r.roundDuration.Observe(took.Seconds())
}

func (r *Recorder) Win() {
	if r == nil {
		return
	}
	r.wins.Inc()
}

func (r *Recorder) MoveFailed(partition string) {
	if r == nil {
		return
	}
	r.moveFailures.WithLabelValues(partition).Inc()
}

func (r *Recorder) LoadFailed() {
	if r == nil {
		return
	}
	r.loadErrors.Inc()
}

func (r *Recorder) Table(entries int, tickets int64) {
	if r == nil {
		return
	}
	r.tableEntries.Set(float64(entries))
	r.tableTickets.Set(float64(tickets))
}
