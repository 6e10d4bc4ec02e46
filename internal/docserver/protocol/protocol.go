// Package protocol defines the HTTP and websocket contract between the
// document server and its clients.
package protocol

import (
	"net/url"

	"github.com/custodia-labs/statesync/internal/core/domain"
)

// HeaderAppID carries the application id of the calling device.
const HeaderAppID = "X-App-ID"

// Frame types sent on the listen socket.
const (
	FrameSnapshot = "snapshot"
	FrameError    = "error"
)

// Frame is one websocket message from server to client.
type Frame struct {
	Type     string                 `json:"type"`
	Document *domain.RemoteDocument `json:"document,omitempty"`
	Error    string                 `json:"error,omitempty"`
}

// ErrorBody is the JSON body of every non-2xx response.
type ErrorBody struct {
	Error string `json:"error"`
}

// DocumentPath returns the REST path of an account document.
func DocumentPath(projectID, accountID string) string {
	return "/v1/projects/" + url.PathEscape(projectID) + "/documents/" + url.PathEscape(accountID)
}

// ListenPath returns the websocket path streaming an account document.
func ListenPath(projectID, accountID string) string {
	return DocumentPath(projectID, accountID) + "/listen"
}
