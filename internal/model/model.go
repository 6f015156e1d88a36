// Package model defines the core data structures shared across the vdk pipeline.
package model

import "time"

// ContextType identifies the source convention an artifact follows.
type ContextType string

const (
	// TypeAssistantMemory covers assistant memory files (CLAUDE.md and friends).
	TypeAssistantMemory ContextType = "assistant-memory"
	// TypeEditorRules covers editor rule files (.cursorrules, .cursor/rules).
	TypeEditorRules ContextType = "editor-rules"
	// TypeReviewPolicy covers code review policy documents.
	TypeReviewPolicy ContextType = "review-policy"
	// TypeWorkspaceAgent covers workspace agent configs (AGENTS.md, copilot instructions).
	TypeWorkspaceAgent ContextType = "workspace-agent"
	// TypeGenericPrompt is the catch-all for ad-hoc prompt files.
	TypeGenericPrompt ContextType = "generic-prompt"
	// TypeUnclassified marks artifacts no signal matched; excluded downstream.
	TypeUnclassified ContextType = ""
)

// AllContextTypes is the closed, ordered set of context types. The order is
// load-bearing: classification ties between types are broken by it.
var AllContextTypes = []ContextType{
	TypeAssistantMemory,
	TypeEditorRules,
	TypeReviewPolicy,
	TypeWorkspaceAgent,
	TypeGenericPrompt,
}

// PriorityTier ranks how authoritative a context type is relative to others.
type PriorityTier int

const (
	TierLow PriorityTier = iota
	TierMedium
	TierHigh
)

// ConfidenceLevel buckets a raw classification score.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
	ConfidenceNone   ConfidenceLevel = "none"
)

// ConfidenceFromScore maps a raw integer score to a confidence bucket.
func ConfidenceFromScore(score int) ConfidenceLevel {
	switch {
	case score >= 80:
		return ConfidenceHigh
	case score >= 60:
		return ConfidenceMedium
	case score >= 40:
		return ConfidenceLow
	default:
		return ConfidenceNone
	}
}

// Rank orders confidence levels for sorting, higher is stronger.
func (c ConfidenceLevel) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	default:
		return 0
	}
}

// FileInfo describes an enumerated candidate file.
type FileInfo struct {
	Name    string
	RelPath string
	AbsPath string
	Size    int64
	ModTime time.Time
}

// DirInfo describes an enumerated candidate directory.
type DirInfo struct {
	Name    string
	RelPath string
}

// Section is one hierarchical slice of an artifact body.
type Section struct {
	Level int      `json:"level"`
	Title string   `json:"title"`
	Lines []string `json:"lines"`
}

// Flags are the per-type boolean features extracted from an artifact body.
type Flags struct {
	HasCommands        bool `json:"hasCommands"`
	HasRules           bool `json:"hasRules"`
	HasMemoryReference bool `json:"hasMemoryReference"`
	HasTemplating      bool `json:"hasTemplating"`
}

// DetectedContext is the immutable product of detection, consumed once by the
// adapter. Source describes the originating artifact; for directory-level
// detections FileCount is the number of relevant files inside.
type DetectedContext struct {
	Type       ContextType
	Confidence ConfidenceLevel
	Score      int
	Source     SourceRef
	Header     map[string]any
	Sections   []Section
	Body       string
	Flags      Flags
	Extra      map[string]any
}

// SourceRef points back at the artifact a detection came from.
type SourceRef struct {
	Name      string
	RelPath   string
	AbsPath   string
	IsDir     bool
	FileCount int
	Size      int64
	ModTime   time.Time
}

// RecordKind distinguishes the two canonical record variants.
type RecordKind string

const (
	KindBlueprint RecordKind = "blueprint"
	KindCommand   RecordKind = "command"
)

// SchemaVersion is the current canonical record schema version.
const SchemaVersion = "2.0.0"

// PlatformCapability describes how a record applies to one platform.
// Extra carries platform-specific fields (activation mode, globs, priority,
// character limit) without widening the struct per platform.
type PlatformCapability struct {
	Compatible bool           `json:"compatible" yaml:"compatible"`
	Extra      map[string]any `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// Relationships are cross-references between canonical records by id.
type Relationships struct {
	Requires   []string `json:"requires,omitempty" yaml:"requires,omitempty"`
	Suggests   []string `json:"suggests,omitempty" yaml:"suggests,omitempty"`
	Conflicts  []string `json:"conflicts,omitempty" yaml:"conflicts,omitempty"`
	Supersedes []string `json:"supersedes,omitempty" yaml:"supersedes,omitempty"`
}

// CanonicalRecord is the versioned schema every detected artifact is
// normalized into. The yaml tags define the frozen on-disk header block.
type CanonicalRecord struct {
	ID            string                        `json:"id" yaml:"id"`
	Kind          RecordKind                    `json:"kind" yaml:"kind"`
	Title         string                        `json:"title" yaml:"title"`
	Description   string                        `json:"description" yaml:"description"`
	Version       string                        `json:"version" yaml:"version"`
	SchemaVersion string                        `json:"schemaVersion" yaml:"schemaVersion"`
	Category      string                        `json:"category" yaml:"category"`
	Scope         string                        `json:"scope" yaml:"scope"`
	Complexity    string                        `json:"complexity" yaml:"complexity"`
	Audience      string                        `json:"audience" yaml:"audience"`
	Maturity      string                        `json:"maturity" yaml:"maturity"`
	Created       string                        `json:"created,omitempty" yaml:"created,omitempty"`
	Updated       string                        `json:"updated,omitempty" yaml:"updated,omitempty"`
	Platforms     map[string]PlatformCapability `json:"platforms" yaml:"platforms"`
	Tags          []string                      `json:"tags,omitempty" yaml:"tags,omitempty"`
	Relationships Relationships                 `json:"relationships,omitempty" yaml:"relationships,omitempty"`
	Body          string                        `json:"-" yaml:"-"`
}

// Diagnostic records a per-artifact outcome within a run.
type Diagnostic struct {
	Path    string `json:"path"`
	Reason  string `json:"reason"`
	Detail  string `json:"detail,omitempty"`
	Record  string `json:"record,omitempty"` // canonical id, when one exists
	Keeps   string `json:"keeps,omitempty"`  // winning id for duplicate diagnostics
	IsError bool   `json:"isError"`
}

// MigrationRunResult aggregates everything a run produced.
type MigrationRunResult struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Detected   []DetectedContext
	Converted  []CanonicalRecord
	Skipped    []Diagnostic
	Duplicates []Diagnostic
	Failed     []Diagnostic

	Processed      int
	ConvertedCount int
	SkippedCount   int
	DuplicateCount int
	ErrorCount     int
}

// Summarize refreshes the counters from the aggregated slices.
func (r *MigrationRunResult) Summarize() {
	r.ConvertedCount = len(r.Converted)
	r.SkippedCount = len(r.Skipped)
	r.DuplicateCount = len(r.Duplicates)
	r.ErrorCount = len(r.Failed)
}
