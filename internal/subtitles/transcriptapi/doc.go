// Package transcriptapi is a client for the paid BibiGPT-style transcript
// service used when free subtitles are unavailable.
//
// A single Transcribe call posts the item URL to the summarize endpoint and
// decodes either an enveloped ({code, data}) or bare payload. Errors are
// classified so callers can retry only transport failures: TransportError is
// retryable, ErrPaymentRequired and APIError are terminal.
package transcriptapi
