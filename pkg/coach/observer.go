package coach

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"discoverycoach/pkg/logx"
)

// Stage names the workflow states of the engine.
type Stage string

const (
	StageClassifyIntent   Stage = "classify_intent"
	StageBuildContext     Stage = "build_context"
	StageRetrieveContext  Stage = "retrieve_context"
	StageGenerateResponse Stage = "generate_response"
	StageValidateResponse Stage = "validate_response"
	StageIncrementRetry   Stage = "increment_retry"
)

// StageObserver receives callbacks at stage boundaries and turn completion.
// It decouples the state machine from any particular logging or metrics sink.
// Implementations must not block; the engine calls them inline.
type StageObserver interface {
	StageStart(turnID string, stage Stage)
	StageEnd(turnID string, stage Stage, elapsed time.Duration, err error)
	TurnDone(turnID string, intent Intent, disposition Disposition, retries int, elapsed time.Duration)
}

// NopObserver discards all callbacks.
type NopObserver struct{}

func (NopObserver) StageStart(string, Stage) {}

func (NopObserver) StageEnd(string, Stage, time.Duration, error) {}

func (NopObserver) TurnDone(string, Intent, Disposition, int, time.Duration) {}

// LogObserver writes stage boundaries to a logx logger.
type LogObserver struct {
	logger *logx.Logger
}

// NewLogObserver creates an observer logging under the given component name.
func NewLogObserver(component string) *LogObserver {
	return &LogObserver{logger: logx.NewLogger(component)}
}

func (o *LogObserver) StageStart(turnID string, stage Stage) {
	o.logger.Debug("turn %s: stage %s started", turnID, stage)
}

func (o *LogObserver) StageEnd(turnID string, stage Stage, elapsed time.Duration, err error) {
	if err != nil {
		o.logger.Warn("turn %s: stage %s failed after %s: %v", turnID, stage, elapsed, err)
		return
	}
	o.logger.Debug("turn %s: stage %s completed in %s", turnID, stage, elapsed)
}

func (o *LogObserver) TurnDone(turnID string, intent Intent, disposition Disposition, retries int, elapsed time.Duration) {
	o.logger.Info("turn %s finished: intent=%s disposition=%s retries=%d elapsed=%s",
		turnID, intent, disposition, retries, elapsed)
}

// PrometheusObserver records stage and turn metrics.
type PrometheusObserver struct {
	stageDuration *prometheus.HistogramVec
	stageFailures *prometheus.CounterVec
	turnsTotal    *prometheus.CounterVec
	turnRetries   prometheus.Histogram
}

// NewPrometheusObserver creates an observer registered on the given registerer.
func NewPrometheusObserver(reg prometheus.Registerer) *PrometheusObserver {
	factory := promauto.With(reg)
	return &PrometheusObserver{
		stageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "coach_stage_duration_seconds",
				Help:    "Duration of workflow stages in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		stageFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coach_stage_failures_total",
				Help: "Total stage failures by stage",
			},
			[]string{"stage"},
		),
		turnsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coach_turns_total",
				Help: "Completed turns by intent and disposition",
			},
			[]string{"intent", "disposition"},
		),
		turnRetries: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "coach_turn_retries",
				Help:    "Generation retries per turn",
				Buckets: []float64{0, 1, 2},
			},
		),
	}
}

func (o *PrometheusObserver) StageStart(string, Stage) {}

func (o *PrometheusObserver) StageEnd(_ string, stage Stage, elapsed time.Duration, err error) {
	o.stageDuration.WithLabelValues(string(stage)).Observe(elapsed.Seconds())
	if err != nil {
		o.stageFailures.WithLabelValues(string(stage)).Inc()
	}
}

func (o *PrometheusObserver) TurnDone(_ string, intent Intent, disposition Disposition, retries int, _ time.Duration) {
	o.turnsTotal.WithLabelValues(string(intent), string(disposition)).Inc()
	o.turnRetries.Observe(float64(retries))
}

// MultiObserver fans callbacks out to several observers.
type MultiObserver []StageObserver

func (m MultiObserver) StageStart(turnID string, stage Stage) {
	for _, o := range m {
		o.StageStart(turnID, stage)
	}
}

func (m MultiObserver) StageEnd(turnID string, stage Stage, elapsed time.Duration, err error) {
	for _, o := range m {
		o.StageEnd(turnID, stage, elapsed, err)
	}
}

func (m MultiObserver) TurnDone(turnID string, intent Intent, disposition Disposition, retries int, elapsed time.Duration) {
	for _, o := range m {
		o.TurnDone(turnID, intent, disposition, retries, elapsed)
	}
}
