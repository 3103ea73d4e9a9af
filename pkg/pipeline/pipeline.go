// Package pipeline runs the fusion, cleanup and serialization stages in
// order over one set of extraction batches.
//
// Every stage consumes the complete output of the previous one. A failed
// stage marks every later stage as skipped; nothing is attempted on partial
// data.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/sysmlfuse/internal/util"
	"github.com/OFFIS-RIT/sysmlfuse/pkg/ai"
	"github.com/OFFIS-RIT/sysmlfuse/pkg/fusion"
	"github.com/OFFIS-RIT/sysmlfuse/pkg/logger"
	"github.com/OFFIS-RIT/sysmlfuse/pkg/model"
	"github.com/OFFIS-RIT/sysmlfuse/pkg/orphan"
	"github.com/OFFIS-RIT/sysmlfuse/pkg/store"
	"github.com/OFFIS-RIT/sysmlfuse/pkg/xmi"
)

// ErrStageSkipped marks a stage that did not run because an earlier one
// failed.
var ErrStageSkipped = errors.New("stage skipped")

// Stage names a pipeline step.
type Stage string

const (
	StageFuse   Stage = "fuse"
	StageUnify  Stage = "unify"
	StageExport Stage = "export"
	StageRemove Stage = "remove"
	StageRepair Stage = "repair"
	StageXMI    Stage = "xmi"
)

// Status is the outcome of one stage.
type Status string

const (
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Options configures every stage.
type Options struct {
	Fusion  fusion.Options
	Unify   fusion.UnifyOptions
	Remover orphan.RemoverOptions
	Repair  orphan.RepairOptions
	// SkipXMI stops after repair.
	SkipXMI bool
}

// StageReport is the status line of one stage.
type StageReport struct {
	Name       Stage   `json:"name"`
	Status     Status  `json:"status"`
	Error      string  `json:"error,omitempty"`
	DurationMs float64 `json:"durationMs"`
}

// Report is the combined, JSON serializable account of one run.
type Report struct {
	RunID      string                `json:"runId"`
	StartedAt  time.Time             `json:"startedAt"`
	FinishedAt time.Time             `json:"finishedAt"`
	Stages     []StageReport         `json:"stages"`
	Fusion     *fusion.Report        `json:"fusion,omitempty"`
	Unify      *fusion.UnifyReport   `json:"unify,omitempty"`
	Removal    *orphan.RemovalReport `json:"removal,omitempty"`
	Repair     *orphan.RepairReport  `json:"repair,omitempty"`
	XMI        *xmi.Report           `json:"xmi,omitempty"`
}

// JSON returns the indented report.
func (r *Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// Status returns the status of a stage, or "" when it is not part of the run.
func (r *Report) Status(s Stage) Status {
	for _, st := range r.Stages {
		if st.Name == s {
			return st.Status
		}
	}
	return ""
}

// Result carries the artifacts of a run. Fields of stages that did not
// complete are nil.
type Result struct {
	Report *Report
	// Exported is the flat document read back from the graph store.
	Exported *model.Document
	// Document is the referentially closed document after repair.
	Document *model.Document
	XMI      []byte
}

// Pipeline holds the collaborators shared by every run. Each call to Run,
// Fuse or Clean uses a fresh run state.
type Pipeline struct {
	graph   store.GraphStore
	vectors store.VectorStore
	client  ai.Client
	opts    Options
}

// New creates a Pipeline. vectors and client may be nil; fusion then only
// merges elements with identical canonical keys and repair skips the LLM
// phase.
func New(graph store.GraphStore, vectors store.VectorStore, client ai.Client, opts Options) *Pipeline {
	return &Pipeline{graph: graph, vectors: vectors, client: client, opts: opts}
}

type run struct {
	ctx    context.Context
	res    *Result
	failed Stage
	err    error
}

func (p *Pipeline) newRun(ctx context.Context) *run {
	return &run{
		ctx: ctx,
		res: &Result{Report: &Report{RunID: util.NewRunID(), StartedAt: time.Now().UTC()}},
	}
}

// stage runs fn unless an earlier stage failed and records the outcome.
func (r *run) stage(name Stage, fn func(ctx context.Context) error) {
	rep := r.res.Report
	if r.failed != "" {
		rep.Stages = append(rep.Stages, StageReport{
			Name:   name,
			Status: StatusSkipped,
			Error:  fmt.Sprintf("%s: %s failed", ErrStageSkipped, r.failed),
		})
		logger.Warn("[Pipeline] Stage skipped", "run", rep.RunID, "stage", name, "failed", r.failed)
		return
	}

	start := time.Now()
	err := fn(r.ctx)
	sr := StageReport{
		Name:       name,
		Status:     StatusOK,
		DurationMs: float64(time.Since(start).Microseconds()) / 1000,
	}
	if err != nil {
		sr.Status = StatusFailed
		sr.Error = err.Error()
		r.failed = name
		r.err = fmt.Errorf("%s stage: %w", name, err)
		logger.Error("[Pipeline] Stage failed", "run", rep.RunID, "stage", name, "err", err)
	} else {
		logger.Info("[Pipeline] Stage finished", "run", rep.RunID, "stage", name, "duration_ms", sr.DurationMs)
	}
	rep.Stages = append(rep.Stages, sr)
}

func (r *run) finish() (*Result, error) {
	r.res.Report.FinishedAt = time.Now().UTC()
	return r.res, r.err
}

// Run fuses batches into the graph store, unifies the models, exports the
// flat document, removes and repairs orphans and finally generates XMI. The
// returned Result is non-nil even when a stage fails; the error wraps the
// first failure.
func (p *Pipeline) Run(ctx context.Context, batches []*model.Document) (*Result, error) {
	r := p.newRun(ctx)
	logger.Info("[Pipeline] Run started", "run", r.res.Report.RunID, "batches", len(batches))
	p.fuse(r, batches)
	p.clean(r, func() *model.Document { return r.res.Exported })
	return r.finish()
}

// Fuse runs only the fuse, unify and export stages.
func (p *Pipeline) Fuse(ctx context.Context, batches []*model.Document) (*Result, error) {
	r := p.newRun(ctx)
	logger.Info("[Pipeline] Fuse started", "run", r.res.Report.RunID, "batches", len(batches))
	p.fuse(r, batches)
	return r.finish()
}

func (p *Pipeline) fuse(r *run, batches []*model.Document) {
	r.stage(StageFuse, func(ctx context.Context) error {
		if err := p.graph.InitSchema(ctx); err != nil {
			return err
		}
		mgr := fusion.NewManager(p.graph, p.vectors, p.client, p.opts.Fusion)
		out, err := mgr.Fuse(ctx, batches)
		if err != nil {
			return err
		}
		r.res.Report.Fusion = out.Report
		return nil
	})
	r.stage(StageUnify, func(ctx context.Context) error {
		rep, err := fusion.UnifyModels(ctx, p.graph, p.opts.Unify)
		r.res.Report.Unify = rep
		return err
	})
	r.stage(StageExport, func(ctx context.Context) error {
		doc, err := fusion.Export(ctx, p.graph, p.opts.Unify)
		if err != nil {
			return err
		}
		r.res.Exported = doc
		return nil
	})
}

// Clean runs only the remove, repair and XMI stages over an existing flat
// document.
func (p *Pipeline) Clean(ctx context.Context, doc *model.Document) (*Result, error) {
	r := p.newRun(ctx)
	logger.Info("[Pipeline] Clean started", "run", r.res.Report.RunID, "elements", len(doc.Elements))
	p.clean(r, func() *model.Document { return doc })
	return r.finish()
}

// clean appends the stages shared by Run and Clean. input is evaluated
// lazily because Run only has the exported document after export.
func (p *Pipeline) clean(r *run, input func() *model.Document) {
	var removed *model.Document
	r.stage(StageRemove, func(context.Context) error {
		out, rep := orphan.RemoveOrphans(input(), p.opts.Remover)
		removed = out
		r.res.Report.Removal = rep
		return nil
	})
	r.stage(StageRepair, func(ctx context.Context) error {
		out, rep, err := orphan.NewRepairer(p.client, p.opts.Repair).Repair(ctx, removed)
		if err != nil {
			return err
		}
		r.res.Document = out
		r.res.Report.Repair = rep
		return nil
	})
	if p.opts.SkipXMI {
		return
	}
	r.stage(StageXMI, func(context.Context) error {
		data, rep, err := xmi.GenerateBytes(r.res.Document, xmi.Options{
			ModelID:   p.opts.Unify.MasterID,
			ModelName: p.opts.Unify.MasterName,
		})
		if err != nil {
			return err
		}
		r.res.XMI = data
		r.res.Report.XMI = rep
		return nil
	})
}
