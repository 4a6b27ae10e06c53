// Package common contains constants shared across marketplace client
// components.
package common

// RequestIDHeader carries the per-request correlation id on outbound HTTP
// requests.
const RequestIDHeader = "X-Request-ID"

// ContentTypeJSON is the media type of every request and response body the
// backend speaks.
const ContentTypeJSON = "application/json"
