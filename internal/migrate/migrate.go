// Package migrate drives artifacts through the detect, adapt, and
// normalize/validate pipeline, isolating failures per artifact.
package migrate

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/entro314-labs/vdk/internal/adapt"
	"github.com/entro314-labs/vdk/internal/detect"
	"github.com/entro314-labs/vdk/internal/logger"
	"github.com/entro314-labs/vdk/internal/model"
	"github.com/entro314-labs/vdk/internal/normalize"
)

// Persister receives finished canonical records. Implementations live
// outside this package; the catalog store is the default.
type Persister interface {
	SaveRecord(rec model.CanonicalRecord, sourcePath string) error
}

// Options configure a migration run.
type Options struct {
	// Workers bounds the conversion pool; values below 2 run sequentially.
	Workers int
	// Force re-migrates artifacts that are already canonical.
	Force bool
}

// Orchestrator runs the migration pipeline.
type Orchestrator struct {
	detector  *detect.Detector
	persister Persister
	opts      Options
}

// New builds an orchestrator around a detector and a persister. A nil
// persister is valid and turns the run into a dry run.
func New(detector *detect.Detector, persister Persister, opts Options) *Orchestrator {
	return &Orchestrator{detector: detector, persister: persister, opts: opts}
}

// outcome is the result of converting one detected context.
type outcome struct {
	record     model.CanonicalRecord
	skipped    *model.Diagnostic
	failed     *model.Diagnostic
	sourcePath string
}

// Run processes every artifact through detect, adapt, and
// normalize/validate, then persists the survivors. No single artifact can
// abort the run: every failure is caught at the artifact boundary and
// recorded under Failed.
func (o *Orchestrator) Run(files []model.FileInfo, dirs []model.DirInfo) model.MigrationRunResult {
	result := model.MigrationRunResult{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}

	contexts := o.detector.DetectAll(files, dirs)
	result.Detected = contexts
	result.Processed = len(contexts)
	logger.Info("detected %d contexts across %d files and %d directories", len(contexts), len(files), len(dirs))

	outcomes := o.convertAll(contexts)

	// Registry fold runs in discovery-priority order so first-wins stays
	// deterministic even when conversion ran on a worker pool.
	registry := make(map[string]string)
	for _, out := range outcomes {
		switch {
		case out.failed != nil:
			result.Failed = append(result.Failed, *out.failed)
		case out.skipped != nil:
			result.Skipped = append(result.Skipped, *out.skipped)
		default:
			if winner, dup := registry[out.record.ID]; dup {
				result.Duplicates = append(result.Duplicates, model.Diagnostic{
					Path:   out.sourcePath,
					Reason: "duplicate id",
					Detail: fmt.Sprintf("id %q already produced by %s", out.record.ID, winner),
					Record: out.record.ID,
					Keeps:  winner,
				})
				continue
			}
			registry[out.record.ID] = out.sourcePath
			if err := o.persist(out.record, out.sourcePath); err != nil {
				result.Failed = append(result.Failed, model.Diagnostic{
					Path:    out.sourcePath,
					Reason:  "persist failed",
					Detail:  err.Error(),
					Record:  out.record.ID,
					IsError: true,
				})
				continue
			}
			result.Converted = append(result.Converted, out.record)
		}
	}

	result.FinishedAt = time.Now().UTC()
	result.Summarize()
	return result
}

func (o *Orchestrator) convertAll(contexts []model.DetectedContext) []outcome {
	outcomes := make([]outcome, len(contexts))
	if o.opts.Workers < 2 {
		for i, ctx := range contexts {
			outcomes[i] = o.convert(ctx)
		}
		return outcomes
	}

	var g errgroup.Group
	g.SetLimit(o.opts.Workers)
	for i, ctx := range contexts {
		i, ctx := i, ctx
		g.Go(func() error {
			outcomes[i] = o.convert(ctx)
			return nil
		})
	}
	_ = g.Wait() // convert never returns an error; failures land in outcomes
	return outcomes
}

// convert runs adapt and normalize/validate for one context. Panics are
// caught at this boundary and demoted to per-artifact failures.
func (o *Orchestrator) convert(ctx model.DetectedContext) (out outcome) {
	out.sourcePath = ctx.Source.RelPath
	defer func() {
		if r := recover(); r != nil {
			logger.Error("conversion panic for %s: %v", ctx.Source.RelPath, r)
			out = outcome{
				sourcePath: ctx.Source.RelPath,
				failed: &model.Diagnostic{
					Path:    ctx.Source.RelPath,
					Reason:  "conversion panic",
					Detail:  fmt.Sprint(r),
					IsError: true,
				},
			}
		}
	}()

	if normalize.IsCanonical(ctx.Header) && !o.opts.Force {
		record, _, _ := normalize.Migrate(ctx.Header, ctx.Body, false)
		out.skipped = &model.Diagnostic{
			Path:   ctx.Source.RelPath,
			Reason: "already canonical",
			Record: record.ID,
		}
		return out
	}

	rec := adapt.Adapt(ctx)
	raw, err := model.HeaderMap(rec)
	if err != nil {
		out.failed = &model.Diagnostic{
			Path:    ctx.Source.RelPath,
			Reason:  "normalize failed",
			Detail:  err.Error(),
			Record:  rec.ID,
			IsError: true,
		}
		return out
	}
	rec, changes, _ := normalize.Migrate(raw, ctx.Body, true)
	if len(changes) > 0 {
		logger.Debug("%s: %s", ctx.Source.RelPath, strings.Join(changes, "; "))
	}

	if violations := normalize.Validate(rec); len(violations) > 0 {
		out.failed = &model.Diagnostic{
			Path:    ctx.Source.RelPath,
			Reason:  "validation failed",
			Detail:  strings.Join(violations, "; "),
			Record:  rec.ID,
			IsError: true,
		}
		return out
	}

	out.record = rec
	return out
}

func (o *Orchestrator) persist(rec model.CanonicalRecord, sourcePath string) error {
	if o.persister == nil {
		return nil
	}
	return o.persister.SaveRecord(rec, sourcePath)
}
