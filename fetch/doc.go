// Package fetch retrieves web pages and reduces them to title plus
// markdown body text suitable for summarization.
//
// The HTTP fetcher classifies failures into typed errors so callers can
// distinguish permanent conditions (missing pages) from transient ones
// (rate limits, server errors, network faults). HTML is sanitized before
// conversion so script and style payloads never reach the language model.
package fetch
