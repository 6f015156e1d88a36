// Package normalize upgrades legacy or partial canonical records to the
// current schema version and validates them against the record contract.
package normalize

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/entro314-labs/vdk/internal/adapt"
	"github.com/entro314-labs/vdk/internal/analyzer"
	"github.com/entro314-labs/vdk/internal/model"
	"github.com/entro314-labs/vdk/schemas"
)

// IsCanonical reports whether a raw record already satisfies the current
// schema shape: the version-defining field set is present and platforms is
// a non-empty structured map.
func IsCanonical(header map[string]any) bool {
	for _, field := range []string{"complexity", "scope", "audience", "maturity"} {
		if s, _ := header[field].(string); strings.TrimSpace(s) == "" {
			return false
		}
	}
	platforms, ok := header["platforms"].(map[string]any)
	if !ok || len(platforms) == 0 {
		return false
	}
	for _, v := range platforms {
		if _, ok := v.(map[string]any); !ok {
			return false
		}
	}
	return true
}

// Migrate upgrades a raw record to the current schema. It returns the
// canonical record, the list of applied changes, and whether migration was
// skipped because the record was already canonical. Re-applying Migrate to
// its own output is a no-op unless force is set.
func Migrate(header map[string]any, body string, force bool) (model.CanonicalRecord, []string, bool) {
	if header == nil {
		header = map[string]any{}
	}
	skipped := IsCanonical(header) && !force

	var changes []string
	change := func(format string, args ...any) {
		if !skipped {
			changes = append(changes, fmt.Sprintf(format, args...))
		}
	}

	rec := model.CanonicalRecord{Body: body}

	rec.ID = str(header, "id")
	if rec.ID == "" {
		if name := str(header, "name"); name != "" {
			rec.ID = adapt.Slugify(name)
			change("backfilled id from legacy name")
		}
	}
	rec.Title = str(header, "title")
	if rec.Title == "" {
		if name := str(header, "name"); name != "" {
			rec.Title = name
			change("backfilled title from legacy name")
		}
	}
	rec.Description = str(header, "description")

	rec.Kind = model.RecordKind(str(header, "kind"))
	if rec.Kind == "" {
		rec.Kind = model.KindBlueprint
		change("defaulted kind to %s", model.KindBlueprint)
	}

	rec.Version = str(header, "version")
	if rec.Version == "" {
		rec.Version = "1.0.0"
		change("defaulted version to 1.0.0")
	}
	rec.SchemaVersion = str(header, "schemaVersion")
	if rec.SchemaVersion != model.SchemaVersion {
		rec.SchemaVersion = model.SchemaVersion
		change("upgraded schemaVersion to %s", model.SchemaVersion)
	}

	rec.Category = str(header, "category")
	if rec.Category == "" {
		rec.Category = adapt.Category(body, model.TypeUnclassified)
		change("inferred category %q", rec.Category)
	}
	rec.Scope = str(header, "scope")
	if rec.Scope == "" {
		rec.Scope = adapt.Scope(body)
		change("inferred scope %q", rec.Scope)
	}
	rec.Complexity = str(header, "complexity")
	if rec.Complexity == "" {
		rec.Complexity = inferComplexity(body)
		change("inferred complexity %q", rec.Complexity)
	}
	rec.Audience = str(header, "audience")
	if rec.Audience == "" {
		rec.Audience = adapt.Audience(rec.Scope)
		change("inferred audience %q", rec.Audience)
	}
	rec.Maturity = str(header, "maturity")
	if rec.Maturity == "" {
		rec.Maturity = adapt.Maturity(body)
		change("inferred maturity %q", rec.Maturity)
	}

	rec.Created = normalizeDateField(header, "created", change)
	rec.Updated = normalizeDateField(header, "updated", change)

	rec.Platforms = normalizePlatforms(header, change)
	rec.Tags = normalizeTags(header, change)
	rec.Relationships = relationships(header)

	return rec, changes, skipped
}

func inferComplexity(body string) string {
	ctx := model.DetectedContext{
		Body:     body,
		Sections: analyzer.SplitSections(body),
		Flags:    analyzer.DetectFlags(body, model.TypeUnclassified),
	}
	return adapt.Complexity(ctx)
}

// normalizePlatforms converts legacy boolean and array platform configs to
// the structured capability map.
func normalizePlatforms(header map[string]any, change func(string, ...any)) map[string]model.PlatformCapability {
	out := map[string]model.PlatformCapability{}
	switch raw := header["platforms"].(type) {
	case map[string]any:
		rewrote := false
		for name, v := range raw {
			switch val := v.(type) {
			case bool:
				out[name] = model.PlatformCapability{Compatible: val}
				rewrote = true
			case map[string]any:
				entry := model.PlatformCapability{}
				if c, ok := val["compatible"].(bool); ok {
					entry.Compatible = c
				}
				if extra, ok := val["extra"].(map[string]any); ok {
					entry.Extra = extra
				}
				out[name] = entry
			default:
				out[name] = model.PlatformCapability{}
				rewrote = true
			}
		}
		if rewrote {
			change("normalized platforms to structured map")
		}
	case []any:
		for _, v := range raw {
			if name, ok := v.(string); ok && name != "" {
				out[name] = model.PlatformCapability{Compatible: true}
			}
		}
		change("normalized platform list to structured map")
	}
	if len(out) == 0 {
		out[adapt.UniversalPlatform] = model.PlatformCapability{Compatible: true}
		change("defaulted platforms to %s", adapt.UniversalPlatform)
	}
	return out
}

// normalizeTags canonicalizes tags to lowercase kebab-case.
func normalizeTags(header map[string]any, change func(string, ...any)) []string {
	raw, ok := header["tags"].([]any)
	if !ok {
		return nil
	}
	var out []string
	seen := map[string]struct{}{}
	rewrote := false
	for _, v := range raw {
		s, ok := v.(string)
		if !ok {
			continue
		}
		kebab := adapt.Kebab(s)
		if kebab == "" {
			continue
		}
		if kebab != s {
			rewrote = true
		}
		if _, dup := seen[kebab]; dup {
			rewrote = true
			continue
		}
		seen[kebab] = struct{}{}
		out = append(out, kebab)
	}
	if rewrote {
		change("canonicalized tags to kebab-case")
	}
	return out
}

func relationships(header map[string]any) model.Relationships {
	raw, ok := header["relationships"].(map[string]any)
	if !ok {
		return model.Relationships{}
	}
	get := func(field string) []string {
		list, ok := raw[field].([]any)
		if !ok {
			return nil
		}
		var out []string
		for _, v := range list {
			if s, ok := v.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return model.Relationships{
		Requires:   get("requires"),
		Suggests:   get("suggests"),
		Conflicts:  get("conflicts"),
		Supersedes: get("supersedes"),
	}
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
	"Jan 2, 2006",
}

func normalizeDateField(header map[string]any, key string, change func(string, ...any)) string {
	// yaml.v3 decodes unquoted dates into time.Time rather than string.
	if t, ok := header[key].(time.Time); ok {
		normalized := t.UTC().Format("2006-01-02")
		change("normalized %s date to %s", key, normalized)
		return normalized
	}
	raw := str(header, key)
	if raw == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			normalized := t.UTC().Format("2006-01-02")
			if normalized != raw {
				change("normalized %s date to %s", key, normalized)
			}
			return normalized
		}
	}
	change("dropped unparseable %s date %q", key, raw)
	return ""
}

func str(header map[string]any, key string) string {
	if v, ok := header[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// Validate checks a canonical record against the declarative contract and
// the relationship invariants. It returns the full list of violated rules;
// an empty list means the record is valid.
func Validate(rec model.CanonicalRecord) []string {
	contract, err := schemas.LoadContract()
	if err != nil {
		return []string{fmt.Sprintf("load contract: %v", err)}
	}

	var violations []string
	fields := map[string]string{
		"id":            rec.ID,
		"kind":          string(rec.Kind),
		"title":         rec.Title,
		"description":   rec.Description,
		"version":       rec.Version,
		"schemaVersion": rec.SchemaVersion,
		"category":      rec.Category,
		"scope":         rec.Scope,
		"complexity":    rec.Complexity,
		"audience":      rec.Audience,
		"maturity":      rec.Maturity,
	}
	for _, field := range contract.RequiredFields {
		if strings.TrimSpace(fields[field]) == "" {
			violations = append(violations, fmt.Sprintf("missing required field %q", field))
		}
	}
	for field, value := range fields {
		if value == "" {
			continue
		}
		if !contract.Allowed(field, value) {
			violations = append(violations, fmt.Sprintf("field %q has value %q outside enum", field, value))
		}
	}

	if len(rec.Platforms) == 0 {
		violations = append(violations, "platforms must not be empty")
	} else {
		compatible := false
		for name, entry := range rec.Platforms {
			if entry.Compatible {
				compatible = true
			}
			for key, bounds := range contract.NumericRanges {
				v, ok := numeric(entry.Extra[key])
				if !ok {
					continue
				}
				if v < bounds.Min || v > bounds.Max {
					violations = append(violations,
						fmt.Sprintf("platform %q field %q value %v outside range [%v, %v]", name, key, v, bounds.Min, bounds.Max))
				}
			}
		}
		if !compatible {
			violations = append(violations, "at least one platform must be compatible")
		}
	}

	if contract.MaxTags > 0 && len(rec.Tags) > contract.MaxTags {
		violations = append(violations, fmt.Sprintf("too many tags: %d > %d", len(rec.Tags), contract.MaxTags))
	}
	violations = append(violations, duplicateViolations("tags", rec.Tags)...)

	rels := relationshipMap(rec.Relationships)
	for _, field := range contract.RelationshipFields {
		ids := rels[field]
		violations = append(violations, duplicateViolations(field, ids)...)
		for _, id := range ids {
			if id == rec.ID {
				violations = append(violations, fmt.Sprintf("%s contains self-reference %q", field, id))
			}
		}
	}
	for _, id := range intersection(rels["requires"], rels["conflicts"]) {
		violations = append(violations, fmt.Sprintf("id %q appears in both requires and conflicts", id))
	}

	return violations
}

func relationshipMap(r model.Relationships) map[string][]string {
	return map[string][]string{
		"requires":   r.Requires,
		"suggests":   r.Suggests,
		"conflicts":  r.Conflicts,
		"supersedes": r.Supersedes,
	}
}

func duplicateViolations(field string, values []string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, v := range values {
		if _, dup := seen[v]; dup {
			out = append(out, fmt.Sprintf("%s contains duplicate entry %q", field, v))
			continue
		}
		seen[v] = struct{}{}
	}
	return out
}

func intersection(a, b []string) []string {
	set := map[string]struct{}{}
	for _, v := range a {
		set[v] = struct{}{}
	}
	var out []string
	for _, v := range b {
		if _, ok := set[v]; ok {
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
