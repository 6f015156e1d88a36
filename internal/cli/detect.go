package cli

import (
	"flag"
	"fmt"

	"github.com/entro314-labs/vdk/internal/config"
	"github.com/entro314-labs/vdk/internal/detect"
	"github.com/entro314-labs/vdk/internal/fsutil"
	"github.com/entro314-labs/vdk/internal/logger"
)

func cmdDetect(args []string) error {
	fs := flag.NewFlagSet("detect", flag.ContinueOnError)
	root := fs.String("root", ".", "project root")
	verbose := fs.Bool("verbose", false, "show progress information")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *verbose {
		logger.SetLevel(logger.LevelInfo)
	}

	rootPath, err := resolveRoot(*root)
	if err != nil {
		return err
	}
	guardrails := config.LoadGuardrails(rootPath)
	files, dirs, err := fsutil.Enumerate(rootPath, guardrails)
	if err != nil {
		return fmt.Errorf("enumerate %s: %w", rootPath, err)
	}

	contexts := detect.New().DetectAll(files, dirs)
	if len(contexts) == 0 {
		fmt.Println("No AI context artifacts detected.")
		return nil
	}
	for _, ctx := range contexts {
		kind := "file"
		if ctx.Source.IsDir {
			kind = fmt.Sprintf("dir (%d files)", ctx.Source.FileCount)
		}
		fmt.Printf("%-18s %-8s %3d  %s [%s]\n", ctx.Type, ctx.Confidence, ctx.Score, ctx.Source.RelPath, kind)
	}
	fmt.Printf("\n%d artifacts detected.\n", len(contexts))
	return nil
}
