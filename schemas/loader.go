// Package schemas embeds the vdk JSON schemas and the declarative record
// contract, and compiles them once per process.
package schemas

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed *.schema.json contract.json
var schemaFS embed.FS

const (
	CanonicalRecord = "canonical-record"
	MigrationRun    = "migration-run"
	Config          = "config"
)

var names = []string{CanonicalRecord, MigrationRun, Config}

var (
	compileOnce sync.Once
	compiler    *jsonschema.Compiler
	compileErr  error
)

func getCompiler() (*jsonschema.Compiler, error) {
	compileOnce.Do(func() {
		c := jsonschema.NewCompiler()
		for _, name := range names {
			data, err := schemaFS.ReadFile(schemaPath(name))
			if err != nil {
				compileErr = fmt.Errorf("read schema %s: %w", name, err)
				return
			}
			doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
			if err != nil {
				compileErr = fmt.Errorf("decode schema %s: %w", name, err)
				return
			}
			if err := c.AddResource(schemaURL(name), doc); err != nil {
				compileErr = fmt.Errorf("register schema %s: %w", name, err)
				return
			}
		}
		compiler = c
	})
	return compiler, compileErr
}

func schemaPath(name string) string {
	return fmt.Sprintf("%s.schema.json", name)
}

func schemaURL(name string) string {
	return fmt.Sprintf("mem://schemas/%s.schema.json", name)
}

// Compile returns the compiled schema for a name.
func Compile(name string) (*jsonschema.Schema, error) {
	c, err := getCompiler()
	if err != nil {
		return nil, err
	}
	s, err := c.Compile(schemaURL(name))
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", name, err)
	}
	return s, nil
}

// List returns the raw bytes of every embedded schema by name.
func List() (map[string][]byte, error) {
	out := make(map[string][]byte, len(names))
	for _, n := range names {
		b, err := schemaFS.ReadFile(schemaPath(n))
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", n, err)
		}
		out[n] = b
	}
	return out, nil
}

// Range bounds a numeric contract field.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contract is the declarative validation contract for canonical records:
// required fields, enum sets, numeric ranges, and the relationship field
// names. The normalizer consumes it unchanged.
type Contract struct {
	RequiredFields     []string            `json:"requiredFields"`
	Enums              map[string][]string `json:"enums"`
	NumericRanges      map[string]Range    `json:"numericRanges"`
	RelationshipFields []string            `json:"relationshipFields"`
	MaxTags            int                 `json:"maxTags"`
}

var (
	contractOnce sync.Once
	contract     Contract
	contractErr  error
)

// LoadContract returns the embedded record contract.
func LoadContract() (Contract, error) {
	contractOnce.Do(func() {
		data, err := schemaFS.ReadFile("contract.json")
		if err != nil {
			contractErr = fmt.Errorf("read contract: %w", err)
			return
		}
		if err := json.Unmarshal(data, &contract); err != nil {
			contractErr = fmt.Errorf("decode contract: %w", err)
		}
	})
	return contract, contractErr
}

// Allowed reports whether a value is a member of a contract enum. Unknown
// fields have no enum constraint and pass.
func (c Contract) Allowed(field, value string) bool {
	values, ok := c.Enums[field]
	if !ok {
		return true
	}
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
