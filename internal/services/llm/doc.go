// Package llm provides an OpenAI-compatible chat client used by the
// summarize post-step.
//
// The default endpoint is OpenRouter. Any chat completions endpoint that
// accepts a bearer token works, including api.openai.com.
//
// Entry points:
//   - NewClient: construct a client from Config.
//   - Client.Summarize: condense transcript text into a short summary.
//   - Client.Complete: send system/user prompts and return plain text.
//   - Client.HealthCheck: verify the API key and model respond.
//
// HTTP 408/429/5xx responses are retried by the SDK with its own backoff.
// Completions that come back without content are retried by the client.
// Both share the attempt budget set by WithRetryMaxAttempts.
package llm
