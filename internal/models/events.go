package models

import "social-schema-service/internal/schema"

// Event types published after a document passes through admission.
const (
	EventDocumentAccepted = "document.accepted"
	EventDocumentRejected = "document.rejected"
)

// DocumentEvent reports the outcome of validating (and possibly storing)
// one document.
type DocumentEvent struct {
	EventID    string             `json:"eventId"`
	EventType  string             `json:"eventType"`
	Collection string             `json:"collection"`
	DocumentID string             `json:"documentId,omitempty"`
	Stored     bool               `json:"stored"`
	Violations []schema.Violation `json:"violations,omitempty"`
	Timestamp  int64              `json:"timestamp"`
}
