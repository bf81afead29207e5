package models

// Response is the envelope every handler replies with
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ChangeEvent is pushed to realtime subscribers when a watched document changes
type ChangeEvent struct {
	Type       string      `json:"type"`
	Collection string      `json:"collection"`
	Operation  string      `json:"operation"`
	DocumentID string      `json:"documentId,omitempty"`
	Document   interface{} `json:"document,omitempty"`
	// OwnerID is the partner a document belongs to; partners only receive their own
	OwnerID string `json:"-"`
}
