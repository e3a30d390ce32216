package orchestrator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/antflydb/searchctl/internal/alias"
	"github.com/antflydb/searchctl/internal/apperr"
	"github.com/antflydb/searchctl/internal/bulkindex"
	"github.com/antflydb/searchctl/internal/engine"
	"github.com/antflydb/searchctl/internal/healthserver"
	"github.com/antflydb/searchctl/internal/validate"
)

// Plan describes a single blue-green migration to run.
type Plan struct {
	Alias       string
	SourceIndex string
	TargetIndex string

	// RefreshAfter makes the freshly reindexed target visible to search
	// before validation runs, so the validator's counts and samples see
	// every copied document.
	RefreshAfter bool
}

// Result records the state the migration finished in, the validation
// report that gated the switch, and the manifest path written for it.
type Result struct {
	FinalState      State              `json:"finalState"`
	DocumentsCopied int64              `json:"documentsCopied"`
	Validation      validate.Report    `json:"validation"`
	ManifestPath    string             `json:"manifestPath,omitempty"`
	AliasBefore     *engine.AliasState `json:"aliasBefore,omitempty"`
	AliasAfter      *engine.AliasState `json:"aliasAfter,omitempty"`
	SourceCount     int64              `json:"sourceCount"`
	TargetCount     int64              `json:"targetCount"`
	Err             error              `json:"-"`
}

// Orchestrator drives Plans through the blue-green state machine.
type Orchestrator struct {
	port      engine.Port
	aliasMgr  *alias.Manager
	validator *validate.Validator
	retention *Retention
	metrics   *healthserver.Metrics
	logger    *zap.Logger
}

// New constructs an Orchestrator. metrics and logger may be nil.
func New(port engine.Port, validator *validate.Validator, retention *Retention, metrics *healthserver.Metrics, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		port:      port,
		aliasMgr:  alias.New(port),
		validator: validator,
		retention: retention,
		metrics:   metrics,
		logger:    logger,
	}
}

// Run drives plan through CREATE_TARGET -> REINDEX -> VALIDATE -> SWITCH ->
// RECORD -> DONE, stopping at FAIL (with the failing state and cause
// recorded in Result) the first time a step errors or validation fails.
func (o *Orchestrator) Run(ctx context.Context, plan Plan) Result {
	return o.RunWithValidator(ctx, plan, nil)
}

// RunWithValidator is Run, using validator in place of the Orchestrator's
// configured one when non-nil. Request-level validation overrides are built
// into a one-off *validate.Validator by the caller and passed here, rather
// than mutated onto the Orchestrator itself: the Orchestrator is shared
// across concurrent admin requests, so per-request overrides must stay
// local to the call instead of racing on shared state.
func (o *Orchestrator) RunWithValidator(ctx context.Context, plan Plan, validator *validate.Validator) Result {
	if validator == nil {
		validator = o.validator
	}
	log := o.logger.With(
		zap.String("alias", plan.Alias),
		zap.String("source_index", plan.SourceIndex),
		zap.String("target_index", plan.TargetIndex),
	)

	state := StateIdle
	result := Result{}

	aliasBefore, err := o.aliasMgr.CurrentState(ctx, plan.Alias)
	if err != nil {
		result.Err = err
		result.FinalState = StateFail
		o.observeOutcome("failed")
		log.Error("capturing alias state before migration failed", zap.Error(err))
		return result
	}
	result.AliasBefore = aliasBefore

	for state != StateDone && state != StateFail {
		state = next(state)
		log.Info("reindex step", zap.String("state", string(state)))

		var err error
		switch state {
		case StateCreateTarget:
			err = o.port.CreateIndex(ctx, plan.TargetIndex)
		case StateReindex:
			var n int64
			n, err = o.port.Reindex(ctx, plan.SourceIndex, plan.TargetIndex)
			result.DocumentsCopied = n
			if err == nil && plan.RefreshAfter {
				err = o.port.Refresh(ctx, plan.TargetIndex)
			}
		case StateValidate:
			var report validate.Report
			report, err = validator.Validate(ctx, plan.SourceIndex, plan.TargetIndex)
			result.Validation = report
			if err == nil && !report.Passed {
				err = apperr.New(apperr.ValidationFailed, "reindex validation failed for target %q: %s",
					plan.TargetIndex, report.FailureReasons())
			}
		case StateSwitch:
			err = o.aliasMgr.Switch(ctx, plan.Alias, plan.SourceIndex, plan.TargetIndex)
			if err == nil {
				result.AliasAfter, err = o.aliasMgr.CurrentState(ctx, plan.Alias)
			}
		case StateRecord:
			result.SourceCount, err = o.port.Count(ctx, plan.SourceIndex)
			if err == nil {
				result.TargetCount, err = o.port.Count(ctx, plan.TargetIndex)
			}
			if err == nil && o.retention != nil {
				result.ManifestPath, err = o.retention.Record(ctx, plan, result, time.Now())
			}
		}

		if err != nil {
			result.Err = err
			result.FinalState = StateFail
			o.observeOutcome("failed")
			log.Error("reindex step failed", zap.String("state", string(state)), zap.Error(err))
			return result
		}
	}

	result.FinalState = state
	o.observeOutcome("succeeded")
	return result
}

func (o *Orchestrator) observeOutcome(outcome string) {
	if o.metrics == nil {
		return
	}
	o.metrics.MigrationsTotal.WithLabelValues(outcome).Inc()
}

// IndexDocuments is a convenience wrapper drop-in for callers that want to
// seed the target index via the bulk indexer instead of the engine's native
// Reindex operation (e.g. when source and target documents need
// transformation in flight).
func IndexDocuments(ctx context.Context, ix *bulkindex.Indexer, targetIndex string, docs []engine.Document) (bulkindex.Result, error) {
	result, err := ix.Index(ctx, targetIndex, docs)
	if err != nil {
		return result, fmt.Errorf("indexing documents into %q: %w", targetIndex, err)
	}
	return result, nil
}
