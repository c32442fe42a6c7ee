package dto

import (
	"time"

	"github.com/spec-kit/issue-tracker/internal/domain"
)

// AttachmentResponse metadata.
type AttachmentResponse struct {
	ID               string    `json:"id"`
	TicketID         string    `json:"ticket_id"`
	FileName         string    `json:"file_name"`
	ContentType      string    `json:"content_type"`
	FileSizeBytes    int64     `json:"file_size_bytes"`
	UploadedByUserID string    `json:"uploaded_by_user_id"`
	UploadedAt       time.Time `json:"uploaded_at"`
}

// NewAttachmentResponse maps a domain attachment.
func NewAttachmentResponse(a *domain.Attachment) AttachmentResponse {
	return AttachmentResponse{
		ID:               a.ID,
		TicketID:         a.TicketID,
		FileName:         a.FileName,
		ContentType:      a.ContentType,
		FileSizeBytes:    a.FileSizeBytes,
		UploadedByUserID: a.UploadedByUserID,
		UploadedAt:       a.UploadedAt,
	}
}

// NewAttachmentResponses maps a slice of attachments.
func NewAttachmentResponses(attachments []domain.Attachment) []AttachmentResponse {
	result := make([]AttachmentResponse, 0, len(attachments))
	for i := range attachments {
		result = append(result, NewAttachmentResponse(&attachments[i]))
	}
	return result
}
