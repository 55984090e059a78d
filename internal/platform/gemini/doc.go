// Package gemini provides an implementation of the grading.Grader interface
// backed by Google's Gemini API.
//
// The adapter renders the shared grading prompt, asks Gemini for JSON output
// matching grading.ResponseSchema, and translates SDK errors into the grading
// error taxonomy so the retry decorator can tell transient failures from
// permanent ones.
package gemini
