// Package api exposes link submission, status polling and recommendations
// over a small JSON HTTP surface.
//
// Submission is asynchronous: POST /links responds 202 with a link ID and
// the caller polls GET /links/{id} until the status turns terminal.
package api
