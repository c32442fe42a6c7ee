package domain

import "time"

// Attachment stores metadata for a file uploaded against a ticket. The
// payload itself lives on disk under StoredFileName; attachments are
// immutable once created and removed with their ticket.
type Attachment struct {
	ID               string
	TicketID         string
	FileName         string
	StoredFileName   string
	ContentType      string
	FileSizeBytes    int64
	FilePath         string
	UploadedByUserID string
	UploadedAt       time.Time
}
