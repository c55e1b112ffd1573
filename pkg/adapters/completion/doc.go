/*
Package completion provides CompletionClient implementations for the supported
text-generation services.

	openai     any OpenAI-compatible chat completions endpoint (openai-go)
	groq       Groq's OpenAI-compatible endpoint, the default provider
	anthropic  Anthropic Messages API (anthropic-sdk-go)
	gemini     Google Gemini API (genai)
	scripted   deterministic offline client for demos and tests

Cross-cutting concerns (logging, per-call timeouts) are applied with Middleware.
*/
package completion
