package api

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/graph_request.json
var graphRequestSchema string

// requestSchema validates graph build request bodies before they are decoded.
type requestSchema struct {
	schema *gojsonschema.Schema
}

func newRequestSchema() (*requestSchema, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(graphRequestSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}
	return &requestSchema{schema: schema}, nil
}

// validate checks a raw request body against the schema.
func (s *requestSchema) validate(body []byte) error {
	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			errs = append(errs, desc.String())
		}
		return fmt.Errorf("validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}
