// Package llm provides an OpenAI-compatible chat completions client used as
// a translation provider, plus the tolerant JSON decoding shared by every
// provider response.
//
// # Entry Points
//
// NewClient: construct a client from Config.
// Client.CompleteJSON: send system/user prompts, receive the raw model text.
// Client.HealthCheck: verify the API key and model are usable.
// DecodeLLMJSON: decode model output, tolerating code fences and prose.
//
// # Retry Behaviour
//
// The client retries HTTP 408/429/5xx responses, empty completions and
// network timeouts with exponential backoff (base 1s, max 10s). Retry-After
// is honoured for 429 responses. Context cancellation aborts retries
// immediately. Dispatch-level retry rounds are separate; providers built for
// dispatch usually run with a small attempt count.
//
// # Errors
//
// Exhausted retries and non-retryable HTTP failures wrap services.ErrTransport.
// Completions without content wrap services.ErrMalformedResponse. Missing
// prompts or credentials wrap services.ErrConfiguration.
package llm
