// File path: internal/core/core.go
package core

import (
	"context"
	"fmt"
	"time"

	"github.com/devAndrejr/Agents-Solution-Business-sub001/internal/assembler"
	"github.com/devAndrejr/Agents-Solution-Business-sub001/internal/catalog"
	"github.com/devAndrejr/Agents-Solution-Business-sub001/internal/common"
	"github.com/devAndrejr/Agents-Solution-Business-sub001/internal/dataset"
	"github.com/devAndrejr/Agents-Solution-Business-sub001/internal/intent"
	"github.com/devAndrejr/Agents-Solution-Business-sub001/internal/planner"
	"github.com/devAndrejr/Agents-Solution-Business-sub001/internal/semantic"
)

// TurnRequest is one conversational turn.
type TurnRequest struct {
	Utterance      string `json:"utterance"`
	HistorySummary string `json:"history_summary,omitempty"`
	DeadlineMS     int    `json:"deadline_ms,omitempty"`
}

// Orchestrator runs the full turn pipeline: classify, plan, execute,
// assemble. It holds only immutable collaborators, so concurrent turns
// are safe.
type Orchestrator struct {
	cfg        Config
	reg        *catalog.Registry
	classifier intent.Classifier
	planner    *planner.Planner
	executor   *planner.Executor
	asm        *assembler.Assembler
}

// New wires an orchestrator from already-built collaborators.
func New(cfg Config, reg *catalog.Registry, classifier intent.Classifier, src dataset.Source) *Orchestrator {
	cfg.applyDefaults()
	limits := planner.Limits{
		ResultRowBudget: cfg.ResultRowBudget,
		ScanRowBudget:   cfg.ScanRowBudget,
		DefaultTopK:     cfg.DefaultTopK,
	}
	return &Orchestrator{
		cfg:        cfg,
		reg:        reg,
		classifier: classifier,
		planner:    planner.New(reg, limits),
		executor:   planner.NewExecutor(reg, src, limits),
		asm:        assembler.New(reg),
	}
}

// Build loads the catalog, builds the semantic index over it with the
// given embedder, and wires the default rule classifier and dataset
// source. Catalog problems are fatal.
func Build(ctx context.Context, cfg Config, embedder semantic.Embedder) (*Orchestrator, error) {
	cfg.applyDefaults()
	reg, err := catalog.LoadFile(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("core: catalog: %w", err)
	}
	index, err := semantic.Build(ctx, reg, embedder, cfg.SemanticFloor)
	if err != nil {
		return nil, fmt.Errorf("core: semantic index: %w", err)
	}
	classifier := intent.NewRuleClassifier(reg, index, cfg.DefaultTopK)
	var src dataset.Source
	switch cfg.Dataset.Backend {
	case dataset.BackendSQL:
		src, err = dataset.NewSQLSource(reg, cfg.Dataset)
		if err != nil {
			return nil, err
		}
	default:
		src = dataset.NewMemorySource(reg, cfg.Dataset)
	}
	common.Logger().Info("core: ready",
		"datasets", len(reg.Entries()),
		"backend", src.Name(),
		"semantic_floor", cfg.SemanticFloor,
	)
	return New(cfg, reg, classifier, src), nil
}

// HandleTurn processes one turn to completion and always returns an
// envelope; failures after startup never escape as errors.
func (o *Orchestrator) HandleTurn(ctx context.Context, req TurnRequest) assembler.Envelope {
	deadline := o.cfg.DeadlineMS
	if req.DeadlineMS > 0 {
		deadline = req.DeadlineMS
	}
	ctx, cancel := context.WithTimeout(ctx, time.Duration(deadline)*time.Millisecond)
	defer cancel()

	start := time.Now()
	in := o.classifier.Classify(ctx, intent.Input{
		Utterance:      req.Utterance,
		HistorySummary: req.HistorySummary,
	})
	envelope := o.dispatch(ctx, in)
	common.Logger().Info("core: turn handled",
		"intent", string(in.Kind),
		"envelope", envelope.Type,
		"elapsed", time.Since(start).String(),
	)
	return envelope
}

func (o *Orchestrator) dispatch(ctx context.Context, in intent.Intent) assembler.Envelope {
	switch in.Kind {
	case intent.KindSchemaQuestion:
		return o.asm.Schema(in.Schema)
	case intent.KindClarification:
		return o.asm.Clarification(in.Clarification)
	case intent.KindRefusal:
		return o.asm.Refusal(in.Refusal)
	}
	plan, perr := o.planner.Build(in)
	if perr != nil {
		common.Logger().Warn("core: plan rejected", "code", perr.Code, "column", perr.Column)
		return o.asm.PlanError(perr)
	}
	result, eerr := o.executor.Execute(ctx, plan)
	if eerr != nil {
		common.Logger().Warn("core: execution failed", "code", eerr.Code)
		return o.asm.ExecError(eerr)
	}
	return o.asm.Result(in, plan, result)
}

// Registry exposes the catalog for read-only callers such as the HTTP
// layer.
func (o *Orchestrator) Registry() *catalog.Registry { return o.reg }
