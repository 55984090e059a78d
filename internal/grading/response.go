package grading

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ResponseSchemaName identifies the grading output schema.
const ResponseSchemaName = "grade_result"

// ResponseSchema is the JSON schema every provider is asked to follow.
var ResponseSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"score": map[string]any{
			"type": []any{"number", "string"},
		},
		"feedback": map[string]any{
			"type": "string",
		},
	},
	"required":             []any{"score", "feedback"},
	"additionalProperties": false,
}

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func responseSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		// The compiler wants a decoded JSON value, not a Go map with typed slices.
		raw, err := json.Marshal(ResponseSchema)
		if err != nil {
			compileErr = err
			return
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
		if err != nil {
			compileErr = err
			return
		}
		url := "schema://" + ResponseSchemaName + ".json"
		c := jsonschema.NewCompiler()
		if err := c.AddResource(url, doc); err != nil {
			compileErr = err
			return
		}
		compiledSchema, compileErr = c.Compile(url)
	})
	return compiledSchema, compileErr
}

// ParseResponse validates model output against ResponseSchema and decodes it.
// Markdown code fences around the JSON are tolerated.
func ParseResponse(text string) (*GradeResult, error) {
	body := stripCodeFence(text)
	if body == "" {
		return nil, fmt.Errorf("%w: empty response", ErrInvalidResponse)
	}

	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse JSON response: %v", ErrInvalidResponse, err)
	}

	schema, err := responseSchema()
	if err != nil {
		return nil, fmt.Errorf("%w: compile schema %q: %v", ErrGradingFailed, ResponseSchemaName, err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: schema validation failed: %v", ErrInvalidResponse, err)
	}

	var out struct {
		Score    any    `json:"score"`
		Feedback string `json:"feedback"`
	}
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	return &GradeResult{RawScore: out.Score, Feedback: out.Feedback}, nil
}

func stripCodeFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = ""
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
