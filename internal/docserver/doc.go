// Package docserver implements the reference Remote Store: a small HTTP
// service holding one document per account, with per-field merge writes and
// realtime snapshots over websockets.
//
// Routes:
//
//	GET   /health
//	GET   /v1/projects/{project}/documents/{account}
//	PATCH /v1/projects/{project}/documents/{account}
//	GET   /v1/projects/{project}/documents/{account}/listen   (websocket)
//
// Every /v1 route requires "Authorization: Bearer <api key>" and an
// X-App-ID header. Documents are persisted in SQLite.
package docserver
