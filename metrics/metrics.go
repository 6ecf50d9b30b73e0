// Package metrics exposes prometheus counters for bot activity.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"engagebot/events"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// Option configures a Manager
type Option func(*Manager)

// WithNamespace sets the namespace for all metrics
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithRegistry registers metrics on registry instead of a fresh one
func WithRegistry(registry *prometheus.Registry) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}

// Manager owns the bot's metrics
type Manager struct {
	namespace string
	registry  *prometheus.Registry

	commands       *prometheus.CounterVec
	scoreChanges   *prometheus.CounterVec
	pointsCredited prometheus.Counter
	biddingChanges *prometheus.CounterVec
	bidsPlaced     prometheus.Counter
	messagesSent   *prometheus.CounterVec
}

// NewManager creates a manager on its own registry
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "engagebot",
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}

	auto := promauto.With(m.registry)
	m.commands = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "commands_total",
		Help:      "Commands handled by name and outcome",
	}, []string{"command", "outcome"})
	m.scoreChanges = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "score_changes_total",
		Help:      "Ledger score changes by kind",
	}, []string{"kind"})
	m.pointsCredited = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "points_credited_total",
		Help:      "Points added to user scores",
	})
	m.biddingChanges = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "bidding_transitions_total",
		Help:      "Bidding round transitions by new state",
	}, []string{"state"})
	m.bidsPlaced = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "bids_placed_total",
		Help:      "Bids placed or raised",
	})
	m.messagesSent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "messages_sent_total",
		Help:      "Outbound message chunks by result",
	}, []string{"result"})

	return m
}

// RecordCommand counts a handled command. Unknown names share one label value.
func (m *Manager) RecordCommand(name, outcome string) {
	if outcome == "unknown" {
		name = "unknown"
	}
	m.commands.WithLabelValues(name, outcome).Inc()
}

// RecordScoreChange counts a ledger mutation
func (m *Manager) RecordScoreChange(e events.ScoreChangeEvent) {
	m.scoreChanges.WithLabelValues(string(e.Kind)).Inc()
	if delta := e.NewScore - e.OldScore; delta > 0 {
		m.pointsCredited.Add(float64(delta))
	}
}

func (m *Manager) RecordBiddingChange(state string) {
	m.biddingChanges.WithLabelValues(state).Inc()
}

func (m *Manager) RecordBid() {
	m.bidsPlaced.Inc()
}

func (m *Manager) RecordMessageSent(failed bool) {
	result := "ok"
	if failed {
		result = "failed"
	}
	m.messagesSent.WithLabelValues(result).Inc()
}

// Subscribe feeds bus events into the counters
func (m *Manager) Subscribe(bus *events.Bus) {
	bus.Subscribe(events.EventTypeCommand, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.CommandHandledEvent); ok {
			m.RecordCommand(e.Command, e.Outcome)
		}
	})
	bus.Subscribe(events.EventTypeScoreChange, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.ScoreChangeEvent); ok {
			m.RecordScoreChange(e)
		}
	})
	bus.Subscribe(events.EventTypeBiddingChange, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.BiddingStateChangeEvent); ok {
			m.RecordBiddingChange(e.NewState)
		}
	})
	bus.Subscribe(events.EventTypeBidPlaced, func(ctx context.Context, event events.Event) {
		if _, ok := event.(events.BidPlacedEvent); ok {
			m.RecordBid()
		}
	})
	bus.Subscribe(events.EventTypeMessageSent, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.MessageSentEvent); ok {
			m.RecordMessageSent(e.Failed)
		}
	})
}

// Handler serves the registry in the prometheus text format
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled
func (m *Manager) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("Metrics server shutdown failed")
		}
	}()

	log.WithField("addr", addr).Info("Serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve metrics: %w", err)
	}
	return nil
}
