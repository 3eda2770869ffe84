package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// TransactionMetrics records orchestrator behavior under contention.
type TransactionMetrics struct {
	retries  prometheus.Counter
	failures prometheus.Counter
}

// NewTransactionMetrics registers transaction metrics on the provided registerer.
func NewTransactionMetrics(reg prometheus.Registerer) *TransactionMetrics {
	if reg == nil {
		return &TransactionMetrics{}
	}
	retries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_tx_retries_total",
		Help: "Transactions retried after a transient store conflict.",
	})
	failures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_tx_retry_exhausted_total",
		Help: "Transactions that exhausted the retry budget.",
	})
	reg.MustRegister(retries, failures)
	return &TransactionMetrics{retries: retries, failures: failures}
}

// IncRetry increments the retry counter.
func (t *TransactionMetrics) IncRetry() {
	if t == nil || t.retries == nil {
		return
	}
	t.retries.Inc()
}

// IncExhausted increments the exhausted-budget counter.
func (t *TransactionMetrics) IncExhausted() {
	if t == nil || t.failures == nil {
		return
	}
	t.failures.Inc()
}

// IdempotencyMetrics records guard outcomes for mutating requests.
type IdempotencyMetrics struct {
	replays   prometheus.Counter
	conflicts prometheus.Counter
}

// NewIdempotencyMetrics registers idempotency metrics on the provided registerer.
func NewIdempotencyMetrics(reg prometheus.Registerer) *IdempotencyMetrics {
	if reg == nil {
		return &IdempotencyMetrics{}
	}
	replays := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "idempotency_replays_total",
		Help: "Requests answered from a stored idempotency record.",
	})
	conflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "idempotency_conflicts_total",
		Help: "Requests rejected for key reuse or concurrent execution.",
	})
	reg.MustRegister(replays, conflicts)
	return &IdempotencyMetrics{replays: replays, conflicts: conflicts}
}

// IncReplay increments the replay counter.
func (i *IdempotencyMetrics) IncReplay() {
	if i == nil || i.replays == nil {
		return
	}
	i.replays.Inc()
}

// IncConflict increments the conflict counter.
func (i *IdempotencyMetrics) IncConflict() {
	if i == nil || i.conflicts == nil {
		return
	}
	i.conflicts.Inc()
}

// OutboxMetrics records publish outcomes for the outbox worker.
type OutboxMetrics struct {
	published prometheus.Counter
	failures  prometheus.Counter
}

// NewOutboxMetrics registers outbox metrics on the provided registerer.
func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	published := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "outbox_events_published_total",
		Help: "Outbox events delivered to the broker.",
	})
	failures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "outbox_publish_failures_total",
		Help: "Outbox publish attempts that failed.",
	})
	reg.MustRegister(published, failures)
	return &OutboxMetrics{published: published, failures: failures}
}

// IncPublished increments the published counter.
func (o *OutboxMetrics) IncPublished() {
	if o == nil || o.published == nil {
		return
	}
	o.published.Inc()
}

// IncFailure increments the failure counter.
func (o *OutboxMetrics) IncFailure() {
	if o == nil || o.failures == nil {
		return
	}
	o.failures.Inc()
}
