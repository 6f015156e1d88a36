package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunDispatch(t *testing.T) {
	t.Run("unknown command", func(t *testing.T) {
		err := Run([]string{"bogus"})
		if err == nil || !strings.Contains(err.Error(), "unknown command") {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("no arguments shows usage", func(t *testing.T) {
		if err := Run(nil); err != nil {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("version", func(t *testing.T) {
		if err := Run([]string{"version"}); err != nil {
			t.Errorf("err = %v", err)
		}
	})
}

func TestInitCommand(t *testing.T) {
	root := t.TempDir()
	if err := Run([]string{"init", "--root", root}); err != nil {
		t.Fatal(err)
	}

	for _, rel := range []string{".vdk", ".vdk/records", ".vdk/outputs", ".vdk/vdk.jsonc"} {
		if _, err := os.Stat(filepath.Join(root, rel)); err != nil {
			t.Errorf("missing %s: %v", rel, err)
		}
	}

	// Re-running init must not clobber the existing config.
	if err := Run([]string{"init", "--root", root}); err != nil {
		t.Errorf("second init: %v", err)
	}
}

func TestInitMissingRoot(t *testing.T) {
	err := Run([]string{"init", "--root", filepath.Join(t.TempDir(), "absent")})
	if err == nil {
		t.Error("expected error for missing root")
	}
}

func TestMigratePipeline(t *testing.T) {
	root := t.TempDir()
	content := "# Project Memory\n\nShared conventions the assistant keeps in mind across sessions.\n"
	if err := os.WriteFile(filepath.Join(root, "CLAUDE.md"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Run([]string{"init", "--root", root}); err != nil {
		t.Fatal(err)
	}
	if err := Run([]string{"migrate", "--root", root}); err != nil {
		t.Fatal(err)
	}

	recordPath := filepath.Join(root, ".vdk", "records", "mem-claude.md")
	if _, err := os.Stat(recordPath); err != nil {
		t.Fatalf("record document missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, ".vdk", "outputs", "migration-run.json")); err != nil {
		t.Errorf("run summary missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, ".vdk", "catalog", "vdk.db")); err != nil {
		t.Errorf("catalog missing: %v", err)
	}

	t.Run("validate accepts the produced record", func(t *testing.T) {
		if err := Run([]string{"validate", "--strict", recordPath}); err != nil {
			t.Errorf("validate: %v", err)
		}
	})

	t.Run("rerun skips canonical record", func(t *testing.T) {
		// The record document lives under .vdk and is guardrailed; the
		// original CLAUDE.md converts again via upsert without error.
		if err := Run([]string{"migrate", "--root", root}); err != nil {
			t.Errorf("second migrate: %v", err)
		}
	})
}

func TestMigrateDryRun(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "CLAUDE.md"), []byte("# Memory\n\nRemember the shared context.\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Run([]string{"migrate", "--root", root, "--dry-run"}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(root, ".vdk", "catalog", "vdk.db")); err == nil {
		t.Error("dry run created a catalog database")
	}
}

func TestDetectCommand(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "AGENTS.md"), []byte("# Agents\n\nThe workspace agent instructions.\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Run([]string{"detect", "--root", root}); err != nil {
		t.Fatal(err)
	}
}

func TestValidateCommand(t *testing.T) {
	t.Run("no arguments", func(t *testing.T) {
		if err := Run([]string{"validate"}); err == nil {
			t.Error("expected error without files")
		}
	})

	t.Run("non-canonical document rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "plain.md")
		if err := os.WriteFile(path, []byte("# Plain\n\nNo header.\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := Run([]string{"validate", path}); err == nil {
			t.Error("expected error for non-canonical document")
		}
	})
}
