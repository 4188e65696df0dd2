// Package rewrite turns a raw transcript into an edited Chinese article using
// an OpenRouter-compatible chat completions endpoint.
//
// The Client handles transport concerns: bearer and attribution headers,
// bounded retries with exponential backoff on 408/429/5xx and network
// timeouts, Retry-After support, and tolerant extraction of the completion
// text across provider response quirks. Rewriter builds the prompt, trims
// oversized transcripts, and strips code fences from the answer.
package rewrite
