// Package pipeline sequences the safe query-execution flow: describe schema,
// synthesize SQL, validate the output contract, run the safety guard, then
// execute. Every transition is audited and every internal failure is folded
// into a safe outcome; no error or panic escapes Run except the explicit
// unknown-store rejection.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/milldesk/milldesk/internal/audit"
	"github.com/milldesk/milldesk/internal/config"
	"github.com/milldesk/milldesk/internal/guard"
	"github.com/milldesk/milldesk/internal/schema"
	"github.com/milldesk/milldesk/internal/store"
	"github.com/milldesk/milldesk/internal/synth"
	"github.com/milldesk/milldesk/internal/validate"
)

// ErrUnknownStore rejects a store identifier outside the configured closed
// set. It is returned before any network I/O and is the only error Run can
// return; the API layer maps it to a 400 rather than an outcome.
var ErrUnknownStore = errors.New("unknown store identifier")

// OutcomeKind discriminates the pipeline's terminal states.
type OutcomeKind string

const (
	OutcomeExecuted    OutcomeKind = "executed"
	OutcomeBlocked     OutcomeKind = "generated_but_blocked"
	OutcomeUnsupported OutcomeKind = "unsupported"
)

// Outcome is the pipeline's sole upward contract. Exactly one kind per run;
// Rows is populated only for OutcomeExecuted, Reason only for OutcomeBlocked.
type Outcome struct {
	Kind     OutcomeKind
	SQL      string
	Params   []any
	RowCount int
	Rows     []map[string]any
	Message  string
	Reason   string
}

const (
	msgNotUnderstood  = "Query could not be understood."
	msgExecFailed     = "Query execution failed. Please refine the question."
	msgBlockedByRules = "SQL was generated but execution was blocked by safety rules."
)

// StoreOpener creates a Store from a config entry. Substituted in tests.
type StoreOpener func(cfg config.StoreConfig) (store.Store, error)

// Runner holds the pipeline's collaborators.
type Runner struct {
	cfg       *config.Config
	synth     synth.Synthesizer
	guard     *guard.Guard
	audit     *audit.Logger
	logger    *slog.Logger
	openStore StoreOpener
}

// Option configures a Runner.
type Option func(*Runner)

// WithStoreOpener replaces the store factory, used by tests to inject mocks.
func WithStoreOpener(open StoreOpener) Option {
	return func(r *Runner) {
		r.openStore = open
	}
}

// New creates a Runner wired to the real store drivers.
func New(cfg *config.Config, s synth.Synthesizer, auditLog *audit.Logger, logger *slog.Logger, opts ...Option) *Runner {
	r := &Runner{
		cfg:       cfg,
		synth:     s,
		guard:     guard.New(cfg.Guard.AllowedTables),
		audit:     auditLog,
		logger:    logger,
		openStore: store.Open,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run handles one question end to end. The returned error is non-nil only
// for an unknown store identifier; every other failure becomes an Outcome.
func (r *Runner) Run(ctx context.Context, question, storeName string) (Outcome, error) {
	storeCfg, ok := r.cfg.Store(storeName)
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %q", ErrUnknownStore, storeName)
	}

	outcome := r.runSafely(ctx, question, storeName, storeCfg)
	return outcome, nil
}

// runSafely is the fail-safe boundary: any panic below it is audited and
// converted to the generic unsupported outcome.
func (r *Runner) runSafely(ctx context.Context, question, storeName string, storeCfg config.StoreConfig) (outcome Outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			r.audit.Append("error", map[string]any{
				"question": question,
				"store":    storeName,
				"panic":    fmt.Sprint(rec),
			})
			r.logger.Error("pipeline panic recovered", "store", storeName, "panic", rec)
			outcome = Outcome{Kind: OutcomeUnsupported, Message: msgExecFailed}
		}
	}()
	return r.run(ctx, question, storeName, storeCfg)
}

func (r *Runner) run(ctx context.Context, question, storeName string, storeCfg config.StoreConfig) Outcome {
	// Schema fetch: fresh introspection of the allow-listed tables so the
	// model cannot hallucinate columns.
	schemaText, err := r.describeSchema(ctx, storeName, storeCfg)
	if err != nil {
		r.audit.Append("error", map[string]any{
			"question": question,
			"store":    storeName,
			"stage":    "schema_fetch",
			"error":    err.Error(),
		})
		r.logger.Error("schema fetch failed", "store", storeName, "error", err)
		return Outcome{Kind: OutcomeUnsupported, Message: msgNotUnderstood}
	}

	// Synthesis.
	synthCtx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.LLM.TimeoutSeconds)*time.Second)
	candidate, err := r.synth.Synthesize(synthCtx, question, schemaText)
	cancel()
	if err != nil {
		r.audit.Append("llm_unstructured_output", map[string]any{
			"question": question,
			"store":    storeName,
			"error":    err.Error(),
		})
		r.logger.Warn("synthesis failed", "store", storeName, "error", err)
		return Outcome{Kind: OutcomeUnsupported, Message: msgNotUnderstood}
	}

	// Contract validation.
	mode, err := validate.Classify(candidate)
	if err != nil {
		r.audit.Append("llm_unstructured_output", map[string]any{
			"question": question,
			"store":    storeName,
			"error":    err.Error(),
		})
		r.logger.Warn("candidate failed contract validation", "store", storeName, "error", err)
		return Outcome{Kind: OutcomeUnsupported, Message: msgNotUnderstood}
	}

	r.audit.Append("sql_synthesized", map[string]any{
		"question":    question,
		"store":       storeName,
		"mode":        string(mode),
		"sql":         candidate.SQL,
		"params":      candidate.Params,
		"unsupported": candidate.Unsupported,
	})

	if mode == validate.ModeUnsupported {
		// Courtesy-surface: the model generated SQL but flagged it
		// unsupported. Show it, never execute it.
		if strings.TrimSpace(candidate.SQL) != "" {
			r.audit.Append("sql_generated_but_blocked", map[string]any{
				"question": question,
				"store":    storeName,
				"sql":      candidate.SQL,
				"params":   candidate.Params,
			})
			return Outcome{
				Kind:    OutcomeBlocked,
				SQL:     candidate.SQL,
				Params:  candidate.Params,
				Message: msgBlockedByRules,
			}
		}
		return Outcome{Kind: OutcomeUnsupported, Message: candidate.Message}
	}

	// Safety guard over the literal query text.
	if d := r.guard.Check(candidate.SQL); !d.OK {
		r.audit.Append("sql_guard_rejected", map[string]any{
			"question":  question,
			"store":     storeName,
			"sql":       candidate.SQL,
			"params":    candidate.Params,
			"violation": string(d.Violation),
			"reason":    d.Reason(),
		})
		r.logger.Warn("guard rejected query", "store", storeName, "violation", d.Violation)
		return Outcome{
			Kind:    OutcomeBlocked,
			SQL:     candidate.SQL,
			Params:  candidate.Params,
			Message: msgBlockedByRules,
			Reason:  d.Reason(),
		}
	}

	// Execution.
	r.audit.Append("sql_execution_started", map[string]any{
		"question": question,
		"store":    storeName,
		"sql":      candidate.SQL,
		"params":   candidate.Params,
	})

	rows, err := r.execute(ctx, storeCfg, candidate.SQL, candidate.Params)
	if err != nil {
		r.audit.Append("error", map[string]any{
			"question": question,
			"store":    storeName,
			"stage":    "execution",
			"sql":      candidate.SQL,
			"error":    err.Error(),
		})
		r.logger.Error("query execution failed", "store", storeName, "error", err)
		return Outcome{Kind: OutcomeUnsupported, Message: msgExecFailed}
	}

	r.audit.Append("sql_executed", map[string]any{
		"question":      question,
		"store":         storeName,
		"sql":           candidate.SQL,
		"params":        candidate.Params,
		"rows_returned": len(rows),
	})

	return Outcome{
		Kind:     OutcomeExecuted,
		SQL:      candidate.SQL,
		Params:   candidate.Params,
		RowCount: len(rows),
		Rows:     rows,
	}
}

// Describe introspects a store's allow-listed tables on a scoped connection.
// Returns ErrUnknownStore for an unconfigured store name.
func (r *Runner) Describe(ctx context.Context, storeName string) (*schema.Schema, error) {
	storeCfg, ok := r.cfg.Store(storeName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStore, storeName)
	}
	return r.describe(ctx, storeName, storeCfg)
}

func (r *Runner) describe(ctx context.Context, storeName string, storeCfg config.StoreConfig) (*schema.Schema, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Pipeline.DescribeTimeoutSeconds)*time.Second)
	defer cancel()

	st, err := r.openStore(storeCfg)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	if err := st.Connect(ctx); err != nil {
		return nil, err
	}

	return store.DescribeTables(ctx, st, storeName, r.cfg.Guard.AllowedTables)
}

// describeSchema renders the introspected schema as prompt text, releasing
// the connection on every path.
func (r *Runner) describeSchema(ctx context.Context, storeName string, storeCfg config.StoreConfig) (string, error) {
	s, err := r.describe(ctx, storeName, storeCfg)
	if err != nil {
		return "", err
	}
	return s.RenderText(), nil
}

// execute runs the guarded query with positionally bound parameters on a
// scoped connection. Parameter values never touch the query text.
func (r *Runner) execute(ctx context.Context, storeCfg config.StoreConfig, sql string, params []any) ([]map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Pipeline.ExecuteTimeoutSeconds)*time.Second)
	defer cancel()

	st, err := r.openStore(storeCfg)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	if err := st.Connect(ctx); err != nil {
		return nil, err
	}

	return st.QueryRows(ctx, sql, params...)
}
