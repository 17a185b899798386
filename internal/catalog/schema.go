package catalog

import (
	"embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const (
	schemaRFP      = "rfp.schema.json"
	schemaProducts = "products.schema.json"
	schemaPricing  = "pricing.schema.json"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// ValidationError lists the schema violations of a document.
type ValidationError struct {
	Schema string
	Errors []FieldError
}

// FieldError is a single violation at a specific field.
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s validation failed:", ve.Schema)
	for i, err := range ve.Errors {
		fmt.Fprintf(&sb, " %d. %s: %s;", i+1, err.Field, err.Message)
	}
	return strings.TrimSuffix(sb.String(), ";")
}

// validateDocument checks data against one of the embedded schemas. Malformed
// JSON is reported by gojsonschema as a load error.
func validateDocument(schema string, data []byte) error {
	raw, err := schemaFS.ReadFile("schemas/" + schema)
	if err != nil {
		return fmt.Errorf("reading schema %s: %w", schema, err)
	}

	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(raw), gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("parsing document: %w", err)
	}

	if result.Valid() {
		return nil
	}

	verr := &ValidationError{
		Schema: strings.TrimSuffix(schema, ".schema.json"),
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		verr.Errors = append(verr.Errors, FieldError{Field: field, Message: desc.Description()})
	}

	return verr
}
