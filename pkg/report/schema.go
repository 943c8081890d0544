package report

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:generate go run ../../tools/schemagen -o schema

//go:embed schema/process-cov.schema.json
var processCovSchema []byte

// Schema returns the JSON schema of a process coverage report.
func Schema() []byte {
	return processCovSchema
}

var compiledSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(processCovSchema))
})

// FieldError is one schema violation.
type FieldError struct {
	Field       string `json:"field"`
	Description string `json:"description"`
}

// SchemaError lists the schema violations of a report.
type SchemaError struct {
	Errors []FieldError
}

// Error implements error.
func (e *SchemaError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fieldErr := range e.Errors {
		parts = append(parts, fieldErr.Field+": "+fieldErr.Description)
	}

	return fmt.Sprintf("report does not match schema (%d errors): %s", len(e.Errors), strings.Join(parts, "; "))
}

// ValidateSchema checks raw JSON against the report schema. It returns a
// *SchemaError for a document that parses but does not match.
func ValidateSchema(raw []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("load schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}

	if result.Valid() {
		return nil
	}

	schemaErr := &SchemaError{Errors: make([]FieldError, 0, len(result.Errors()))}
	for _, resultErr := range result.Errors() {
		schemaErr.Errors = append(schemaErr.Errors, FieldError{
			Field:       resultErr.Field(),
			Description: resultErr.Description(),
		})
	}

	return schemaErr
}
