package grading

import (
	"bytes"
	"fmt"
	"os"
	"text/template"
)

// SystemInstruction is sent alongside every rendered prompt.
const SystemInstruction = `You grade short free-text answers for a study application.
Reply with a single JSON object and nothing else:
{"score": <number from 0 to 10>, "feedback": "<one or two sentences for the learner>"}`

// DefaultPromptTemplate is used when no template file is configured. It sees
// the fields of GradeRequest.
const DefaultPromptTemplate = `Evaluate the user's answer to the question based on the provided context.
Score 0 when the answer is wrong or empty, 10 when it is complete and correct.

Context: {{.Context}}
Question: {{.Question}}
User Answer: {{.Answer}}`

// Prompt renders GradeRequests into model input.
type Prompt struct {
	tmpl *template.Template
}

// NewPrompt parses text as a prompt template.
func NewPrompt(text string) (*Prompt, error) {
	tmpl, err := template.New("grade").Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v", ErrInvalidConfig, err)
	}
	return &Prompt{tmpl: tmpl}, nil
}

// LoadPrompt reads the template at path, or returns the default template when
// path is empty.
func LoadPrompt(path string) (*Prompt, error) {
	if path == "" {
		return NewPrompt(DefaultPromptTemplate)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read prompt template from %s: %v", ErrInvalidConfig, path, err)
	}
	return NewPrompt(string(content))
}

// Render executes the template for req.
func (p *Prompt) Render(req GradeRequest) (string, error) {
	var buf bytes.Buffer
	if err := p.tmpl.Execute(&buf, req); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}
	return buf.String(), nil
}
