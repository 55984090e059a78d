// Package anthropic provides a grading.Grader backed by the Anthropic
// Messages API.
package anthropic
