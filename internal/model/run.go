package model

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Provenance tracks the origin and creation details of an artifact.
type Provenance struct {
	CreatedBy string `json:"createdBy"`
	CreatedAt string `json:"createdAt"`
}

// RunSummary is the JSON artifact written after a migration run.
type RunSummary struct {
	SchemaVersion string       `json:"schemaVersion"`
	Kind          string       `json:"kind"`
	RunID         string       `json:"runId"`
	Root          string       `json:"root"`
	StartedAt     string       `json:"startedAt"`
	CompletedAt   string       `json:"completedAt"`
	Processed     int          `json:"processed"`
	Converted     int          `json:"converted"`
	Skipped       int          `json:"skipped"`
	Duplicates    int          `json:"duplicates"`
	Errors        int          `json:"errors"`
	Records       []string     `json:"records"`
	Failed        []Diagnostic `json:"failed"`
	Provenance    Provenance   `json:"provenance"`
}

// NewRunSummary builds the artifact from an in-memory run result.
func NewRunSummary(root string, res MigrationRunResult) RunSummary {
	ids := make([]string, 0, len(res.Converted))
	for _, rec := range res.Converted {
		ids = append(ids, rec.ID)
	}
	failed := res.Failed
	if failed == nil {
		failed = []Diagnostic{}
	}
	return RunSummary{
		SchemaVersion: "1.0.0",
		Kind:          "vdk/migration-run",
		RunID:         res.RunID,
		Root:          root,
		StartedAt:     res.StartedAt.UTC().Format(time.RFC3339),
		CompletedAt:   res.FinishedAt.UTC().Format(time.RFC3339),
		Processed:     res.Processed,
		Converted:     res.ConvertedCount,
		Skipped:       res.SkippedCount,
		Duplicates:    res.DuplicateCount,
		Errors:        res.ErrorCount,
		Records:       ids,
		Failed:        failed,
		Provenance: Provenance{
			CreatedBy: "vdk migrate",
			CreatedAt: time.Now().UTC().Format(time.RFC3339),
		},
	}
}

// WriteRunSummary writes the run artifact to disk.
func WriteRunSummary(path string, s RunSummary) error {
	if s.Records == nil {
		s.Records = []string{}
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
