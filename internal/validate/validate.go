// Package validate checks JSON artifacts against the embedded schemas.
package validate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/entro314-labs/vdk/internal/jsonc"
	"github.com/entro314-labs/vdk/schemas"
)

// JSON validates a JSON file against an embedded schema.
func JSON(path string, schemaName string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return Bytes(bytes.TrimSpace(data), schemaName, path)
}

// JSONC validates a JSONC file against an embedded schema.
func JSONC(path string, schemaName string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return Bytes(jsonc.Clean(data), schemaName, path)
}

// Bytes validates raw JSON bytes against an embedded schema. The origin
// argument names the source in error messages.
func Bytes(data []byte, schemaName, origin string) error {
	schema, err := schemas.Compile(schemaName)
	if err != nil {
		return err
	}
	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return fmt.Errorf("decode %s: %w", origin, err)
	}
	if err := schema.Validate(instance); err != nil {
		return fmt.Errorf("%s invalid: %w", origin, err)
	}
	return nil
}
