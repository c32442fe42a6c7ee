package service

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/issue-tracker/internal/domain"
	"github.com/spec-kit/issue-tracker/internal/policy"
	"github.com/spec-kit/issue-tracker/internal/repository"
	"github.com/spec-kit/issue-tracker/internal/storage"
	apperrors "github.com/spec-kit/issue-tracker/pkg/util"
)

// AttachmentService stores ticket attachments on disk with metadata rows.
// Access inherits the parent ticket's visibility; there is no independent
// attachment-level permission.
type AttachmentService struct {
	attachments repository.AttachmentRepository
	tickets     repository.TicketRepository
	files       storage.FileStore
	maxBytes    int64
	allowed     map[string]struct{}
	logger      *zap.Logger
}

// NewAttachmentService constructs the service.
func NewAttachmentService(
	attachments repository.AttachmentRepository,
	tickets repository.TicketRepository,
	files storage.FileStore,
	maxBytes int64,
	allowedContentTypes []string,
	logger *zap.Logger,
) *AttachmentService {
	allowed := make(map[string]struct{}, len(allowedContentTypes))
	for _, ct := range allowedContentTypes {
		allowed[strings.ToLower(strings.TrimSpace(ct))] = struct{}{}
	}
	return &AttachmentService{
		attachments: attachments,
		tickets:     tickets,
		files:       files,
		maxBytes:    maxBytes,
		allowed:     allowed,
		logger:      logger,
	}
}

// Upload validates and stores one attachment for a visible ticket.
func (s *AttachmentService) Upload(ctx context.Context, callerID string, role domain.Role, ticketID, fileName, contentType string, size int64, r io.Reader) (*domain.Attachment, error) {
	ticket, err := s.visibleTicket(ctx, callerID, role, ticketID)
	if err != nil {
		return nil, err
	}

	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return nil, apperrors.NewValidationError("file name is required", nil)
	}
	if size <= 0 {
		return nil, apperrors.NewValidationError("file is empty", nil)
	}
	if size > s.maxBytes {
		return nil, apperrors.NewValidationError("file exceeds the upload size limit", map[string]any{
			"max_bytes":  s.maxBytes,
			"file_bytes": size,
		})
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if _, ok := s.allowed[contentType]; !ok {
		return nil, apperrors.NewValidationError("file type is not allowed", map[string]any{
			"content_type": contentType,
		})
	}

	// The size limit is enforced again while streaming; the declared size
	// is client input.
	storedName, path, err := s.files.Save(fileName, io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	attachment := &domain.Attachment{
		TicketID:         ticket.ID,
		FileName:         fileName,
		StoredFileName:   storedName,
		ContentType:      contentType,
		FileSizeBytes:    size,
		FilePath:         path,
		UploadedByUserID: callerID,
	}
	if err := s.attachments.Create(ctx, attachment); err != nil {
		if removeErr := s.files.Remove(path); removeErr != nil {
			s.logger.Warn("orphaned attachment file",
				zap.String("path", path), zap.Error(removeErr))
		}
		return nil, apperrors.MapError(err)
	}
	return attachment, nil
}

// List returns the attachments of a visible ticket.
func (s *AttachmentService) List(ctx context.Context, callerID string, role domain.Role, ticketID string) ([]domain.Attachment, error) {
	if _, err := s.visibleTicket(ctx, callerID, role, ticketID); err != nil {
		return nil, err
	}
	attachments, err := s.attachments.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return attachments, nil
}

// Download opens an attachment's payload after the parent-ticket check.
// The caller owns closing the reader.
func (s *AttachmentService) Download(ctx context.Context, callerID string, role domain.Role, attachmentID string) (*domain.Attachment, io.ReadCloser, error) {
	attachment, err := s.visibleAttachment(ctx, callerID, role, attachmentID)
	if err != nil {
		return nil, nil, err
	}

	reader, err := s.files.Open(attachment.FilePath)
	if err != nil {
		return nil, nil, apperrors.NewNotFound("attachment file", nil)
	}
	return attachment, reader, nil
}

// Delete removes an attachment row and its file.
func (s *AttachmentService) Delete(ctx context.Context, callerID string, role domain.Role, attachmentID string) error {
	attachment, err := s.visibleAttachment(ctx, callerID, role, attachmentID)
	if err != nil {
		return err
	}

	if err := s.attachments.Delete(ctx, attachmentID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("attachment", nil)
		}
		return apperrors.MapError(err)
	}
	if err := s.files.Remove(attachment.FilePath); err != nil {
		s.logger.Warn("attachment file removal failed",
			zap.String("path", attachment.FilePath), zap.Error(err))
	}
	return nil
}

func (s *AttachmentService) visibleTicket(ctx context.Context, callerID string, role domain.Role, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", nil)
		}
		return nil, apperrors.MapError(err)
	}
	if !policy.CanMutateTicket(callerID, role, ticket) {
		return nil, apperrors.NewForbidden("ticket is not visible to the caller")
	}
	return ticket, nil
}

func (s *AttachmentService) visibleAttachment(ctx context.Context, callerID string, role domain.Role, attachmentID string) (*domain.Attachment, error) {
	attachment, err := s.attachments.GetByID(ctx, attachmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("attachment", nil)
		}
		return nil, apperrors.MapError(err)
	}
	if _, err := s.visibleTicket(ctx, callerID, role, attachment.TicketID); err != nil {
		return nil, err
	}
	return attachment, nil
}
