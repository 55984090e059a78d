// Package grading defines the boundary between the assessment service and the
// external language models that score free-text answers.
//
// A Grader turns a question, the learner's answer and some reference context
// into a raw score plus feedback. The raw score is passed to the normalizer
// untouched; this package makes no attempt to judge grading quality.
//
// Provider adapters live in internal/platform/{gemini,openai,anthropic} and
// share the prompt template, response schema and retry decorator defined here.
package grading
