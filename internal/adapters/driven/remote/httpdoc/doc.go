// Package httpdoc implements the remote document ports over the document
// server's HTTP and websocket API.
//
// Reads and merge-writes are plain JSON requests. Subscriptions hold a
// websocket open and redial with exponential backoff when it drops; every
// frame carries the whole document, so a missed frame is repaired by the
// next one.
//
// Requests pass through a token bucket limiter. A 429 response pauses all
// requests for the server's Retry-After period.
package httpdoc
