package cli

import (
	"encoding/json"
	"flag"
	"fmt"

	"github.com/entro314-labs/vdk/internal/model"
	"github.com/entro314-labs/vdk/internal/normalize"
	"github.com/entro314-labs/vdk/internal/validate"
	"github.com/entro314-labs/vdk/schemas"
)

func cmdValidate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	strict := fs.Bool("strict", false, "also check the header against the JSON schema")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("validate: no record files given")
	}

	failed := 0
	for _, path := range fs.Args() {
		violations, err := validateRecord(path, *strict)
		if err != nil {
			fmt.Printf("✗ %s: %v\n", path, err)
			failed++
			continue
		}
		if len(violations) > 0 {
			fmt.Printf("✗ %s\n", path)
			for _, v := range violations {
				fmt.Printf("    %s\n", v)
			}
			failed++
			continue
		}
		fmt.Printf("✓ %s\n", path)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d records invalid", failed, fs.NArg())
	}
	return nil
}

func validateRecord(path string, strict bool) ([]string, error) {
	header, body, err := model.ReadRecordDocument(path)
	if err != nil {
		return nil, err
	}
	if header == nil {
		return []string{"missing or malformed document header"}, nil
	}
	if !normalize.IsCanonical(header) {
		return []string{"header is not a canonical record; run 'vdk migrate'"}, nil
	}

	rec, _, _ := normalize.Migrate(header, body, false)
	violations := normalize.Validate(rec)

	if strict {
		raw, err := json.Marshal(header)
		if err != nil {
			return nil, fmt.Errorf("encode header: %w", err)
		}
		if err := validate.Bytes(raw, schemas.CanonicalRecord, path); err != nil {
			violations = append(violations, err.Error())
		}
	}
	return violations, nil
}
