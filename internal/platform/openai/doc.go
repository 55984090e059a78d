// Package openai provides a grading.Grader backed by any OpenAI-compatible
// chat completions endpoint. Setting llm.base_url points it at DeepSeek or
// another compatible provider instead of api.openai.com.
package openai
