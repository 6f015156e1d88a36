// Package classify maps artifact path/name/content triples to context types
// with confidence scores. Everything here is a pure function over primitive
// inputs; no file I/O.
package classify

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/entro314-labs/vdk/internal/model"
)

// Definition is the detection table for one context type.
type Definition struct {
	Type      model.ContextType
	Tier      model.PriorityTier
	ShortCode string
	// CanonicalDir is the directory name that anchors directory-level
	// detection and the +10 path bonus.
	CanonicalDir string
	// Generic marks the catch-all type, which carries a scoring penalty.
	Generic bool

	Filenames  []string
	PathGlobs  []string
	DirWords   []string
	Indicators []string
}

// Definitions is the closed, ordered set of detection tables. Order is the
// declared tie-break between types within one signal tier.
var Definitions = []Definition{
	{
		Type:         model.TypeAssistantMemory,
		Tier:         model.TierHigh,
		ShortCode:    "mem",
		CanonicalDir: ".claude",
		Filenames:    []string{"CLAUDE.md", "CLAUDE.local.md", "MEMORY.md"},
		PathGlobs:    []string{"**/.claude/**/*.md", "**/memory/*.md"},
		DirWords:     []string{".claude", "memory"},
		Indicators:   []string{"memory", "claude", "context", "remember", "instructions"},
	},
	{
		Type:         model.TypeEditorRules,
		Tier:         model.TierHigh,
		ShortCode:    "rule",
		CanonicalDir: ".cursor",
		Filenames:    []string{".cursorrules", ".windsurfrules"},
		PathGlobs:    []string{"**/.cursor/rules/**", "**/rules/*.mdc"},
		DirWords:     []string{".cursor", "rules"},
		Indicators:   []string{"cursor", "rule", "always apply", "globs", "guideline"},
	},
	{
		Type:         model.TypeReviewPolicy,
		Tier:         model.TierMedium,
		ShortCode:    "rev",
		CanonicalDir: "review",
		Filenames:    []string{"REVIEW.md", "review-policy.md"},
		PathGlobs:    []string{"**/.github/review*.md"},
		DirWords:     []string{"review", "policies"},
		Indicators:   []string{"review", "reviewer", "approve", "lgtm", "pull request"},
	},
	{
		Type:         model.TypeWorkspaceAgent,
		Tier:         model.TierMedium,
		ShortCode:    "agent",
		CanonicalDir: ".agent",
		Filenames:    []string{"AGENTS.md", "copilot-instructions.md"},
		PathGlobs:    []string{"**/.github/copilot-instructions.md", "**/.agent/**/*.md"},
		DirWords:     []string{".agent", "agents"},
		Indicators:   []string{"agent", "copilot", "workspace", "assistant", "tool"},
	},
	{
		Type:         model.TypeGenericPrompt,
		Tier:         model.TierLow,
		ShortCode:    "prompt",
		CanonicalDir: "prompts",
		Generic:      true,
		Filenames:    []string{"PROMPT.md", "prompts.md"},
		PathGlobs:    []string{"**/prompts/**/*.md"},
		DirWords:     []string{"prompts"},
		Indicators:   []string{"prompt", "you are", "respond", "system message"},
	},
}

// Lookup returns the definition for a type. The bool is false for
// unclassified or unknown types.
func Lookup(t model.ContextType) (Definition, bool) {
	for _, def := range Definitions {
		if def.Type == t {
			return def, true
		}
	}
	return Definition{}, false
}

// Classify resolves an artifact to a context type and raw score.
// Signals are tried in tiers across all types: exact filename first, then
// path globs, then directory keywords, then content indicators; within a
// tier the declared type order wins. No signal match yields
// TypeUnclassified with a zero score.
func Classify(path, name, content string) (model.ContextType, int) {
	for _, def := range Definitions {
		if matchesFilename(def, name) {
			return def.Type, Score(def.Type, name, content, path)
		}
	}
	for _, def := range Definitions {
		if matchesGlob(def, path) {
			return def.Type, Score(def.Type, name, content, path)
		}
	}
	for _, def := range Definitions {
		if matchesDirWord(def, path) {
			return def.Type, Score(def.Type, name, content, path)
		}
	}
	for _, def := range Definitions {
		if countIndicators(def, content) > 0 {
			return def.Type, Score(def.Type, name, content, path)
		}
	}
	return model.TypeUnclassified, 0
}

const (
	exactFilenameBonus = 30
	indicatorBonus     = 5
	canonicalDirBonus  = 10
	genericPenalty     = 10
	// exactFilenameFloor guarantees at least Medium confidence for a
	// canonical filename match, regardless of the type's tier.
	exactFilenameFloor = 60
)

// tierBase maps a priority tier to its base score.
func tierBase(t model.PriorityTier) int {
	switch t {
	case model.TierHigh:
		return 60
	case model.TierMedium:
		return 40
	default:
		return 20
	}
}

// Score computes the raw confidence score for a type assignment.
func Score(t model.ContextType, name, content, path string) int {
	def, ok := Lookup(t)
	if !ok {
		return 0
	}
	score := tierBase(def.Tier)
	exact := matchesFilename(def, name)
	if exact {
		score += exactFilenameBonus
	}
	score += indicatorBonus * countIndicators(def, content)
	if pathHasSegment(path, def.CanonicalDir) {
		score += canonicalDirBonus
	}
	if def.Generic {
		score -= genericPenalty
	}
	if exact && score < exactFilenameFloor {
		score = exactFilenameFloor
	}
	return score
}

func matchesFilename(def Definition, name string) bool {
	for _, f := range def.Filenames {
		if strings.EqualFold(f, name) {
			return true
		}
	}
	return false
}

func matchesGlob(def Definition, path string) bool {
	normalized := filepath.ToSlash(path)
	for _, g := range def.PathGlobs {
		ok, err := doublestar.Match(g, normalized)
		if err == nil && ok {
			return true
		}
		// Glob patterns anchored at any depth should also match paths
		// relative to the workspace root.
		trimmed := strings.TrimPrefix(g, "**/")
		if trimmed != g {
			ok, err = doublestar.Match(trimmed, normalized)
			if err == nil && ok {
				return true
			}
		}
	}
	return false
}

func matchesDirWord(def Definition, path string) bool {
	dir := filepath.ToSlash(filepath.Dir(path))
	if dir == "." {
		return false
	}
	lower := strings.ToLower(dir)
	for _, w := range def.DirWords {
		for _, seg := range strings.Split(lower, "/") {
			if strings.Contains(seg, strings.ToLower(w)) {
				return true
			}
		}
	}
	return false
}

func countIndicators(def Definition, content string) int {
	if content == "" {
		return 0
	}
	lower := strings.ToLower(content)
	count := 0
	for _, kw := range def.Indicators {
		if strings.Contains(lower, kw) {
			count++
		}
	}
	return count
}

func pathHasSegment(path, segment string) bool {
	if segment == "" {
		return false
	}
	lower := strings.ToLower(filepath.ToSlash(path))
	for _, seg := range strings.Split(lower, "/") {
		if seg == strings.ToLower(segment) {
			return true
		}
	}
	return false
}

// MatchesDirName reports how a directory name relates to a type's canonical
// directory: exact match, keyword match, or none.
func MatchesDirName(def Definition, dirName string) (exact, keyword bool) {
	lower := strings.ToLower(dirName)
	if lower == strings.ToLower(def.CanonicalDir) {
		return true, true
	}
	for _, w := range def.DirWords {
		if strings.Contains(lower, strings.ToLower(w)) {
			return false, true
		}
	}
	return false, false
}
