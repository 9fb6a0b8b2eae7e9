package recommend

import (
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/roomrank/internal/metrics"
)

// state is the per-request pipeline position. Transitions are linear;
// scored is skipped on the apartment path, failed is terminal and reachable
// only from fatal sub-steps (embedding, retrieval, aggregation).
type state string

const (
	stateReceived   state = "received"
	stateEmbedded   state = "embedded"
	stateRetrieved  state = "retrieved"
	stateFiltered   state = "filtered"
	stateReranked   state = "reranked"
	stateScored     state = "scored"
	stateAggregated state = "aggregated"
	stateReturned   state = "returned"
	stateFailed     state = "failed"
)

// tracker records state transitions, logging each and observing the time
// spent reaching it.
type tracker struct {
	pipeline string
	current  state
	lastAt   time.Time
	logger   *zap.Logger
}

func newTracker(pipeline string, logger *zap.Logger) *tracker {
	return &tracker{
		pipeline: pipeline,
		current:  stateReceived,
		lastAt:   time.Now(),
		logger:   logger,
	}
}

func (t *tracker) to(next state) {
	now := time.Now()
	metrics.PipelineStageDuration.WithLabelValues(t.pipeline, string(next)).
		Observe(now.Sub(t.lastAt).Seconds())
	t.logger.Debug("pipeline transition",
		zap.String("pipeline", t.pipeline),
		zap.String("from", string(t.current)),
		zap.String("to", string(next)))
	t.current = next
	t.lastAt = now
}

func (t *tracker) fail(err error) {
	t.logger.Warn("pipeline failed",
		zap.String("pipeline", t.pipeline),
		zap.String("state", string(t.current)),
		zap.Error(err))
	t.current = stateFailed
}
