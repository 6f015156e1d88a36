// Package detect walks enumerated artifacts and produces detected contexts.
package detect

import (
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/entro314-labs/vdk/internal/analyzer"
	"github.com/entro314-labs/vdk/internal/classify"
	"github.com/entro314-labs/vdk/internal/fsutil"
	"github.com/entro314-labs/vdk/internal/logger"
	"github.com/entro314-labs/vdk/internal/model"
)

// ReadFunc reads an artifact's text. The bool is false for binary or
// unreadable artifacts, which are dropped silently.
type ReadFunc func(path string) (string, bool)

// Detector turns enumerated files and directories into detected contexts.
type Detector struct {
	read ReadFunc
}

// New returns a detector using the default filesystem reader.
func New() *Detector {
	return &Detector{read: fsutil.ReadText}
}

// NewWithReader returns a detector with a custom artifact reader.
func NewWithReader(read ReadFunc) *Detector {
	return &Detector{read: read}
}

// DetectAll classifies every candidate file and directory and returns the
// deduplicated, prioritized detections. Unreadable artifacts are skipped;
// nothing here is a run-level error.
func (d *Detector) DetectAll(files []model.FileInfo, dirs []model.DirInfo) []model.DetectedContext {
	var contexts []model.DetectedContext
	for _, f := range files {
		ctx, ok := d.DetectFile(f)
		if !ok {
			continue
		}
		contexts = append(contexts, ctx)
	}
	for _, dir := range dirs {
		ctx, ok := d.DetectDir(dir, files)
		if !ok {
			continue
		}
		contexts = append(contexts, ctx)
	}
	return DedupAndPrioritize(contexts)
}

// DetectFile classifies a single file and builds its detected context.
// The bool is false when the file is not a candidate.
func (d *Detector) DetectFile(f model.FileInfo) (model.DetectedContext, bool) {
	if !fsutil.IsTextLike(f.Name) {
		return model.DetectedContext{}, false
	}
	content, ok := d.read(f.AbsPath)
	if !ok {
		logger.Debug("skip unreadable artifact: %s", f.RelPath)
		return model.DetectedContext{}, false
	}
	ctype, score := classify.Classify(f.RelPath, f.Name, content)
	if ctype == model.TypeUnclassified {
		return model.DetectedContext{}, false
	}

	header, body := analyzer.ParseHeader(content)
	sections := analyzer.SplitSections(body)
	flags := analyzer.DetectFlags(body, ctype)

	ctx := model.DetectedContext{
		Type:       ctype,
		Confidence: model.ConfidenceFromScore(score),
		Score:      score,
		Source: model.SourceRef{
			Name:    f.Name,
			RelPath: f.RelPath,
			AbsPath: f.AbsPath,
			Size:    f.Size,
			ModTime: f.ModTime,
		},
		Header:   header.Fields,
		Sections: sections,
		Body:     body,
		Flags:    flags,
		Extra:    extract(ctype, header, body),
	}
	return ctx, true
}

// DetectDir builds a directory-level context when a directory name matches a
// type's canonical directory. Confidence is 40 + 30 for an exact name match
// plus up to 20 for relevant contained files.
func (d *Detector) DetectDir(dir model.DirInfo, files []model.FileInfo) (model.DetectedContext, bool) {
	for _, def := range classify.Definitions {
		exact, keyword := classify.MatchesDirName(def, dir.Name)
		if !keyword {
			continue
		}
		count := relevantFileCount(dir.RelPath, files)
		score := 40
		if exact {
			score += 30
		}
		bonus := 5 * count
		if bonus > 20 {
			bonus = 20
		}
		score += bonus
		return model.DetectedContext{
			Type:       def.Type,
			Confidence: model.ConfidenceFromScore(score),
			Score:      score,
			Source: model.SourceRef{
				Name:      dir.Name,
				RelPath:   dir.RelPath,
				IsDir:     true,
				FileCount: count,
			},
			Extra: map[string]any{"fileCount": count},
		}, true
	}
	return model.DetectedContext{}, false
}

func relevantFileCount(dirRel string, files []model.FileInfo) int {
	prefix := filepath.ToSlash(dirRel) + "/"
	count := 0
	for _, f := range files {
		if strings.HasPrefix(filepath.ToSlash(f.RelPath), prefix) && fsutil.IsTextLike(f.Name) {
			count++
		}
	}
	return count
}

// DedupAndPrioritize drops None-confidence entries and stable-sorts the rest
// by confidence level, then type tier, both descending. Discovery order
// breaks remaining ties; the first surviving entry for a logical artifact is
// authoritative downstream.
func DedupAndPrioritize(contexts []model.DetectedContext) []model.DetectedContext {
	var kept []model.DetectedContext
	for _, c := range contexts {
		if c.Confidence == model.ConfidenceNone {
			continue
		}
		kept = append(kept, c)
	}
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Confidence.Rank() != kept[j].Confidence.Rank() {
			return kept[i].Confidence.Rank() > kept[j].Confidence.Rank()
		}
		return tierOf(kept[i].Type) > tierOf(kept[j].Type)
	})
	return kept
}

func tierOf(t model.ContextType) model.PriorityTier {
	def, ok := classify.Lookup(t)
	if !ok {
		return model.TierLow
	}
	return def.Tier
}

var (
	slashCommand = regexp.MustCompile(`(?m)^\s*/[a-z][\w-]*`)
	rootTag      = regexp.MustCompile(`<([A-Za-z][\w-]*)>`)
	globLine     = regexp.MustCompile(`(?m)^globs?:\s*(.+)$`)
)

// extract pulls the small per-type signal set out of an artifact.
func extract(ctype model.ContextType, header analyzer.Header, body string) map[string]any {
	extra := map[string]any{}
	switch ctype {
	case model.TypeAssistantMemory:
		extra["hasSlashCommands"] = slashCommand.MatchString(body)
	case model.TypeEditorRules:
		globs := header.Strings("globs")
		if len(globs) == 0 {
			if m := globLine.FindStringSubmatch(body); m != nil {
				for _, g := range strings.Split(m[1], ",") {
					if g = strings.TrimSpace(g); g != "" {
						globs = append(globs, g)
					}
				}
			}
		}
		extra["globs"] = globs
	case model.TypeWorkspaceAgent:
		if m := rootTag.FindStringSubmatch(body); m != nil {
			extra["rootTag"] = m[1]
		} else {
			extra["rootTag"] = ""
		}
	case model.TypeReviewPolicy:
		lower := strings.ToLower(body)
		extra["reviewPolicy"] = strings.Contains(lower, "review")
	}
	return extra
}
