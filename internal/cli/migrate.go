package cli

import (
	"flag"
	"fmt"
	"path/filepath"

	"github.com/entro314-labs/vdk/internal/config"
	"github.com/entro314-labs/vdk/internal/detect"
	"github.com/entro314-labs/vdk/internal/fsutil"
	"github.com/entro314-labs/vdk/internal/logger"
	"github.com/entro314-labs/vdk/internal/migrate"
	"github.com/entro314-labs/vdk/internal/model"
	"github.com/entro314-labs/vdk/internal/store"
	"github.com/entro314-labs/vdk/internal/validate"
)

// catalogPersister writes converted records to the sqlite catalog and to
// .vdk/records as canonical documents.
type catalogPersister struct {
	store      *store.Store
	recordsDir string
}

func (p *catalogPersister) SaveRecord(rec model.CanonicalRecord, sourcePath string) error {
	if err := p.store.SaveRecord(rec, sourcePath); err != nil {
		return err
	}
	return model.WriteRecordFile(filepath.Join(p.recordsDir, rec.ID+".md"), rec)
}

func cmdMigrate(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	root := fs.String("root", ".", "project root")
	workers := fs.Int("workers", 0, "parallel conversion workers (0 = use config, 1 = sequential)")
	force := fs.Bool("force", false, "re-migrate artifacts that are already canonical")
	dryRun := fs.Bool("dry-run", false, "run the pipeline without persisting records")
	verbose := fs.Bool("verbose", false, "show progress information")
	debug := fs.Bool("debug", false, "show debug information")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *debug {
		logger.SetLevel(logger.LevelDebug)
	} else if *verbose {
		logger.SetLevel(logger.LevelInfo)
	}

	rootPath, err := resolveRoot(*root)
	if err != nil {
		return err
	}
	vdkDir, err := config.EnsureLayout(rootPath)
	if err != nil {
		return err
	}

	opts := migrate.Options{Workers: *workers, Force: *force}
	if cfg, err := config.Load(rootPath); err == nil {
		if opts.Workers == 0 {
			opts.Workers = cfg.Migration.Workers
		}
		opts.Force = opts.Force || cfg.Migration.Force
	}

	guardrails := config.LoadGuardrails(rootPath)
	files, dirs, err := fsutil.Enumerate(rootPath, guardrails)
	if err != nil {
		return fmt.Errorf("enumerate %s: %w", rootPath, err)
	}

	var persister migrate.Persister
	if !*dryRun {
		st, err := store.Open(filepath.Join(vdkDir, "catalog", "vdk.db"))
		if err != nil {
			return fmt.Errorf("open catalog: %w", err)
		}
		defer st.Close()
		persister = &catalogPersister{store: st, recordsDir: filepath.Join(vdkDir, "records")}
	}

	orchestrator := migrate.New(detect.New(), persister, opts)
	result := orchestrator.Run(files, dirs)

	if !*dryRun {
		if p, ok := persister.(*catalogPersister); ok {
			if err := p.store.SaveRun(result, rootPath); err != nil {
				logger.Error("save run summary: %v", err)
			}
		}
		summaryPath := filepath.Join(vdkDir, "outputs", "migration-run.json")
		if err := model.WriteRunSummary(summaryPath, model.NewRunSummary(rootPath, result)); err != nil {
			return err
		}
		if err := validate.JSON(summaryPath, "migration-run"); err != nil {
			return err
		}
	}

	fmt.Printf("Processed %d artifacts: %d converted, %d skipped, %d duplicates, %d errors\n",
		result.Processed, result.ConvertedCount, result.SkippedCount, result.DuplicateCount, result.ErrorCount)
	for _, d := range result.Failed {
		fmt.Printf("  FAILED %s: %s (%s)\n", d.Path, d.Reason, d.Detail)
	}
	return nil
}
