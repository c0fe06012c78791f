package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"lab-report-ai/internal/health"
)

// extractionSchema checks the shape of the extraction reply before any
// value is read from it. Metric fields may be strings or null; those are
// dropped later rather than rejected.
type extractionSchema struct {
	schema *gojsonschema.Schema
}

func buildExtractionSchema() ([]byte, error) {
	props := map[string]any{
		"isLabReport": map[string]any{"type": "boolean"},
	}
	for _, key := range health.Keys {
		props[key] = map[string]any{"type": []string{"number", "string", "null"}}
	}
	return json.Marshal(map[string]any{
		"$schema":    "http://json-schema.org/draft-07/schema#",
		"title":      "Lab report extraction",
		"type":       "object",
		"properties": props,
	})
}

func mustExtractionSchema() *extractionSchema {
	raw, err := buildExtractionSchema()
	if err != nil {
		panic(err)
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		panic(fmt.Sprintf("compile extraction schema: %v", err))
	}
	return &extractionSchema{schema: schema}
}

func (s *extractionSchema) validate(doc []byte) error {
	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("extraction reply is not JSON: %w", err)
	}
	if !result.Valid() {
		var errs []string
		for _, e := range result.Errors() {
			errs = append(errs, e.String())
		}
		return fmt.Errorf("extraction reply rejected: %s", strings.Join(errs, "; "))
	}
	return nil
}
