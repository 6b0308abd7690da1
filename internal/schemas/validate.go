// Package schemas provides JSON Schema validation for the structured
// responses returned by generator and judge model calls.
package schemas

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed generator_response.schema.json
var generatorResponseSchema string

//go:embed judge_response.schema.json
var judgeResponseSchema string

// ValidationError represents a schema validation error with field paths.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field.
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// SchemaLoadError represents errors loading or parsing the schema itself.
type SchemaLoadError struct {
	Name    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Name, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Name, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

var (
	compileOnce     sync.Once
	generatorSchema *gojsonschema.Schema
	judgeSchema     *gojsonschema.Schema
	compileErr      error
)

func compile() {
	generatorSchema, compileErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(generatorResponseSchema))
	if compileErr != nil {
		compileErr = &SchemaLoadError{Name: "generator_response", Message: "compile failed", Cause: compileErr}
		return
	}
	judgeSchema, compileErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(judgeResponseSchema))
	if compileErr != nil {
		compileErr = &SchemaLoadError{Name: "judge_response", Message: "compile failed", Cause: compileErr}
	}
}

// ValidateGeneratorResponse validates raw generator JSON output.
func ValidateGeneratorResponse(jsonContent string) error {
	return validateAgainst("generator_response", func() *gojsonschema.Schema { return generatorSchema }, jsonContent)
}

// ValidateJudgeResponse validates raw judge JSON output.
func ValidateJudgeResponse(jsonContent string) error {
	return validateAgainst("judge_response", func() *gojsonschema.Schema { return judgeSchema }, jsonContent)
}

func validateAgainst(name string, schema func() *gojsonschema.Schema, jsonContent string) error {
	compileOnce.Do(compile)
	if compileErr != nil {
		return compileErr
	}

	result, err := schema().Validate(gojsonschema.NewStringLoader(jsonContent))
	if err != nil {
		return &SchemaLoadError{
			Name:    name,
			Message: "document could not be validated",
			Cause:   err,
		}
	}
	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}
	return validationErr
}
