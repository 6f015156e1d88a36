// Package config loads vdk workspace configuration and guardrails.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/entro314-labs/vdk/internal/jsonc"
)

// Guardrails lists glob patterns the scanner must not descend into.
type Guardrails struct {
	ExcludeGlobs []string `json:"excludeGlobs,omitempty"`
}

// Config is the workspace configuration stored at .vdk/vdk.jsonc.
type Config struct {
	SchemaVersion string `json:"schemaVersion"`
	Kind          string `json:"kind"`
	Project       struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	} `json:"project"`
	Guardrails Guardrails `json:"guardrails"`
	Migration  struct {
		Workers int  `json:"workers,omitempty"`
		Force   bool `json:"force,omitempty"`
	} `json:"migration"`
	Provenance any `json:"provenance"`
}

// Dir returns the workspace state directory for a project root.
func Dir(root string) string {
	return filepath.Join(root, ".vdk")
}

// EnsureLayout creates the .vdk directory tree.
func EnsureLayout(root string) (string, error) {
	vdkDir := Dir(root)
	dirs := []string{
		vdkDir,
		filepath.Join(vdkDir, "records"),
		filepath.Join(vdkDir, "outputs"),
		filepath.Join(vdkDir, "catalog"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return "", fmt.Errorf("create %s: %w", d, err)
		}
	}
	return vdkDir, nil
}

// Load reads the workspace config from .vdk/vdk.jsonc.
func Load(root string) (*Config, error) {
	path := filepath.Join(Dir(root), "vdk.jsonc")
	var cfg Config
	if err := jsonc.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// WriteDefault writes a starter config unless one already exists.
func WriteDefault(root, projectName string) error {
	path := filepath.Join(Dir(root), "vdk.jsonc")
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339)
	contents := fmt.Sprintf(`{
  // vdk workspace configuration
  "schemaVersion": "1.0.0",
  "kind": "vdk/config",
  "project": {
    "name": %q,
    "description": ""
  },
  "guardrails": {
    "excludeGlobs": []
  },
  "migration": {
    "workers": 1
  },
  "provenance": {
    "createdBy": "vdk init",
    "createdAt": %q
  }
}
`, projectName, now)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// LoadGuardrails returns guardrails from vdk.jsonc if available; otherwise defaults.
func LoadGuardrails(root string) Guardrails {
	cfg, err := Load(root)
	if err != nil {
		return defaultGuardrails()
	}
	def := defaultGuardrails()
	return Guardrails{
		ExcludeGlobs: mergeGlobs(def.ExcludeGlobs, cfg.Guardrails.ExcludeGlobs),
	}
}

func defaultGuardrails() Guardrails {
	return Guardrails{
		ExcludeGlobs: []string{
			".git/**",
			".vdk/**",
			"node_modules/**",
			"vendor/**",
			"dist/**",
			"build/**",
			"coverage/**",
			"target/**",
			".next/**",
			".turbo/**",
			".gradle/**",
			".idea/**",
			"**/*.min.*",
			"**/*.lock",
			"**/*.generated.*",
		},
	}
}

func mergeGlobs(defaults, user []string) []string {
	seen := make(map[string]struct{})
	var merged []string
	appendIfMissing := func(globs []string) {
		for _, g := range globs {
			norm := normalizeGlob(g)
			if norm == "" {
				continue
			}
			if _, ok := seen[norm]; ok {
				continue
			}
			seen[norm] = struct{}{}
			merged = append(merged, norm)
		}
	}
	appendIfMissing(defaults)
	appendIfMissing(user)
	return merged
}

func normalizeGlob(g string) string {
	trimmed := strings.TrimSpace(g)
	if trimmed == "" {
		return ""
	}
	trimmed = strings.ReplaceAll(trimmed, "\\", "/")
	for strings.Contains(trimmed, "//") {
		trimmed = strings.ReplaceAll(trimmed, "//", "/")
	}
	return filepath.ToSlash(trimmed)
}
