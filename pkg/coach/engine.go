package coach

import (
	"context"
	"fmt"
	"time"

	"discoverycoach/pkg/llm"
	"discoverycoach/pkg/logx"
)

// maxRetries is the retry ceiling: at most 2 additional generation attempts,
// 3 total per turn. This bounds worst-case latency and cost.
const maxRetries = 2

// PromptSource supplies the static coaching instructions. Loaded once by the
// caller; the engine only reads from it.
type PromptSource interface {
	// Base returns the base coaching system instruction.
	Base() string
	// FocusAppendix returns the artifact-type-specific instruction appendix,
	// or "" when the focus needs no steering beyond the base instruction.
	FocusAppendix(focus ArtifactFocus) string
}

// Engine sequences one turn through the discovery workflow. It holds no
// turn-spanning mutable state: every RunTurn call is independent, so a single
// Engine is safely shared across concurrent turns.
type Engine struct {
	factory   llm.Factory
	retriever Retriever
	prompts   PromptSource
	rules     SectionRules
	observer  StageObserver
	timeouts  Timeouts
	logger    *logx.Logger
}

// New creates an engine wired to the given provider factory, retriever, and
// prompt source. All three are externally owned; the engine only reads from
// them.
func New(factory llm.Factory, retriever Retriever, prompts PromptSource, opts ...Option) *Engine {
	e := &Engine{
		factory:   factory,
		retriever: retriever,
		prompts:   prompts,
		rules:     DefaultSectionRules(),
		observer:  NewLogObserver("engine"),
		timeouts:  DefaultTimeouts(),
		logger:    logx.NewLogger("engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Option configures an Engine.
type Option func(*Engine)

// WithObserver sets the stage observer. Defaults to a log observer.
func WithObserver(o StageObserver) Option {
	return func(e *Engine) { e.observer = o }
}

// WithSectionRules overrides the draft section markers.
func WithSectionRules(rules SectionRules) Option {
	return func(e *Engine) { e.rules = rules }
}

// WithTimeouts overrides the generation deadlines.
func WithTimeouts(t Timeouts) Option {
	return func(e *Engine) { e.timeouts = t }
}

// RunTurn processes one user message to a terminal disposition. The context
// governs the whole turn: cancellation propagates into the retrieval and
// generation calls, the only two points where the turn blocks on external
// services.
func (e *Engine) RunTurn(ctx context.Context, req TurnRequest) (TurnResult, error) {
	if err := req.Validate(); err != nil {
		return TurnResult{}, fmt.Errorf("invalid turn request: %w", err)
	}

	st := newTurnState(req)
	start := time.Now()
	stage := StageClassifyIntent

	for {
		if err := ctx.Err(); err != nil {
			return TurnResult{}, fmt.Errorf("turn cancelled in %s: %w", stage, err)
		}

		switch stage {
		case StageClassifyIntent:
			e.runStage(st, stage, func() error {
				e.classifyIntent(ctx, st)
				return nil
			})
			stage = StageBuildContext

		case StageBuildContext:
			e.runStage(st, stage, func() error {
				st.retrievalQuery = buildQuery(st)
				return nil
			})
			stage = e.routeAfterContext(st)

		case StageRetrieveContext:
			e.runStage(st, stage, func() error {
				e.retrieveContext(ctx, st)
				return nil
			})
			stage = StageGenerateResponse

		case StageGenerateResponse:
			e.runStage(st, stage, func() error {
				return e.generateResponse(ctx, st)
			})
			stage = StageValidateResponse

		case StageValidateResponse:
			e.runStage(st, stage, func() error {
				e.validateResponse(st)
				return nil
			})

			next, disposition := routeAfterValidation(st)
			if next == StageIncrementRetry {
				stage = StageIncrementRetry
				continue
			}
			result := st.result(disposition)
			e.observer.TurnDone(st.turnID, st.intent, disposition, st.retryCount, time.Since(start))
			return result, nil

		case StageIncrementRetry:
			e.runStage(st, stage, func() error {
				st.retryCount++
				e.logger.Debug("retrying generation (attempt %d/%d)", st.retryCount, maxRetries)
				return nil
			})
			// Retries loop straight back to generation: classification and
			// retrieval are stable across retries within one turn.
			stage = StageGenerateResponse
		}
	}
}

// runStage executes a stage body with observer callbacks around it.
func (e *Engine) runStage(st *turnState, stage Stage, body func() error) {
	e.observer.StageStart(st.turnID, stage)
	start := time.Now()
	err := body()
	e.observer.StageEnd(st.turnID, stage, time.Since(start), err)
}

// routeAfterContext decides whether retrieval runs. Summary turns rely on
// active-artifact context only, and a recorded generation error means the
// retry should not repeat a retrieval that was never the point of failure.
func (e *Engine) routeAfterContext(st *turnState) Stage {
	if st.isSummary {
		st.contextText = summaryContextMarker
		return StageGenerateResponse
	}
	if st.lastErr != nil {
		return StageGenerateResponse
	}
	return StageRetrieveContext
}

// routeAfterValidation applies the fixed-priority terminal routing:
//
//  1. recorded error, retries left      -> retry
//  2. recorded error, retries exhausted -> terminal error
//  3. validation issues, retries left   -> retry
//  4. validation issues, low confidence -> terminal clarify
//  5. otherwise                         -> terminal accept
func routeAfterValidation(st *turnState) (Stage, Disposition) {
	if st.lastErr != nil {
		if st.retryCount < maxRetries {
			return StageIncrementRetry, ""
		}
		return "", DispositionError
	}

	if st.needsRetry {
		return StageIncrementRetry, ""
	}
	if st.needsClarification {
		return "", DispositionClarify
	}
	return "", DispositionAccepted
}
