package model

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// The on-disk canonical record format is frozen for compatibility: a YAML
// key-value header block delimited by "---" lines, followed by free-form
// body text.

const headerDelimiter = "---"

// RenderRecord serializes a canonical record into the frozen document format.
func RenderRecord(rec CanonicalRecord) ([]byte, error) {
	header, err := yaml.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal record header: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString(headerDelimiter + "\n")
	buf.Write(header)
	buf.WriteString(headerDelimiter + "\n")
	if rec.Body != "" {
		buf.WriteString("\n")
		buf.WriteString(rec.Body)
		if !strings.HasSuffix(rec.Body, "\n") {
			buf.WriteString("\n")
		}
	}
	return buf.Bytes(), nil
}

// WriteRecordFile writes a canonical record document to disk.
func WriteRecordFile(path string, rec CanonicalRecord) error {
	data, err := RenderRecord(rec)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// SplitDocument splits a record document into its raw header map and body.
// Documents without a header block yield a nil map and the full text as body.
// A present but unparseable header degrades the same way; this never fails.
func SplitDocument(text string) (map[string]any, string) {
	trimmed := strings.TrimPrefix(text, "\ufeff")
	if !strings.HasPrefix(trimmed, headerDelimiter+"\n") && trimmed != headerDelimiter {
		return nil, text
	}
	rest := strings.TrimPrefix(trimmed, headerDelimiter+"\n")
	if !strings.HasSuffix(rest, "\n") {
		rest += "\n"
	}
	idx := strings.Index(rest, "\n"+headerDelimiter+"\n")
	if idx < 0 {
		return nil, text
	}
	headerText := rest[:idx+1]
	body := rest[idx+1+len(headerDelimiter)+1:]
	body = strings.TrimPrefix(body, "\n")

	var header map[string]any
	if err := yaml.Unmarshal([]byte(headerText), &header); err != nil {
		return nil, text
	}
	if header == nil {
		return nil, text
	}
	return header, body
}

// ReadRecordDocument loads a record document as a raw header map plus body,
// the form the normalizer consumes.
func ReadRecordDocument(path string) (map[string]any, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", path, err)
	}
	header, body := SplitDocument(string(data))
	return header, body, nil
}

// HeaderMap converts a canonical record into the raw map form, used when a
// typed record flows back through the normalizer.
func HeaderMap(rec CanonicalRecord) (map[string]any, error) {
	data, err := yaml.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode record header: %w", err)
	}
	return m, nil
}
