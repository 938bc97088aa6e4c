// Package llm provides an OpenRouter-compatible chat client.
//
// It is the transport under note refinement and the daily quality report.
// CompleteJSON requests a json_object response; CompleteText returns prose.
// Calls are single attempts: a refinement the inspector triggered either
// comes back within the timeout or the draft is left as it was.
//
// Requires api_key and model; base_url, referer, title and timeout are
// optional. Without a key every call fails with ErrNotConfigured and callers
// fall back to their no-oracle behaviour.
package llm
