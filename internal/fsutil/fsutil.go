// Package fsutil provides workspace enumeration and artifact reading.
package fsutil

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/entro314-labs/vdk/internal/config"
	"github.com/entro314-labs/vdk/internal/model"
)

var ErrNotFound = os.ErrNotExist

// MatchesGuardrail returns true if the path matches any guardrail glob.
func MatchesGuardrail(path string, guardrails config.Guardrails) bool {
	normalized := filepath.ToSlash(path)
	for _, g := range guardrails.ExcludeGlobs {
		if g == "" {
			continue
		}
		ok, err := doublestar.Match(g, normalized)
		if err == nil && ok {
			return true
		}
	}
	return false
}

// Enumerate walks the tree under root and returns candidate files and
// directories, skipping guardrailed paths, symlinked directories, and
// anything the process cannot stat.
func Enumerate(root string, guardrails config.Guardrails) ([]model.FileInfo, []model.DirInfo, error) {
	var files []model.FileInfo
	var dirs []model.DirInfo
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsPermission(err) {
				return filepath.SkipDir
			}
			return err
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if MatchesGuardrail(rel, guardrails) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type()&os.ModeSymlink != 0 {
			target, err := os.Stat(path)
			if err != nil {
				// Broken symlink; not a candidate.
				return nil
			}
			if target.IsDir() {
				return filepath.SkipDir
			}
			files = append(files, fileInfo(d.Name(), rel, path, target))
			return nil
		}

		if d.IsDir() {
			dirs = append(dirs, model.DirInfo{Name: d.Name(), RelPath: rel})
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		files = append(files, fileInfo(d.Name(), rel, path, info))
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return files, dirs, nil
}

func fileInfo(name, rel, abs string, info os.FileInfo) model.FileInfo {
	return model.FileInfo{
		Name:    name,
		RelPath: rel,
		AbsPath: abs,
		Size:    info.Size(),
		ModTime: NormalizeModTime(info.ModTime()),
	}
}

// textExtensions are the file extensions the detector will read content for.
// The empty entry admits extensionless dotfiles such as .cursorrules.
var textExtensions = map[string]struct{}{
	"":      {},
	".md":   {},
	".mdc":  {},
	".txt":  {},
	".yaml": {},
	".yml":  {},
	".json": {},
	".toml": {},
}

// IsTextLike reports whether a filename has a recognized text extension.
func IsTextLike(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == name { // dotfile like .cursorrules
		ext = ""
	}
	_, ok := textExtensions[ext]
	return ok
}

// maxArtifactSize caps how much of an artifact the detector will read.
const maxArtifactSize = 2 << 20

// ReadText reads an artifact's content as text. It returns ok=false for
// binary, oversized, or unreadable files; those are never run-level errors.
func ReadText(path string) (string, bool) {
	info, err := os.Stat(path)
	if err != nil || info.Size() > maxArtifactSize {
		return "", false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return "", false
	}
	return string(data), true
}

// NormalizeModTime truncates mod time to second precision for deterministic comparisons.
func NormalizeModTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}
