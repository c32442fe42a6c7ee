package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/issue-tracker/internal/api/dto"
	"github.com/spec-kit/issue-tracker/internal/service"
	apperrors "github.com/spec-kit/issue-tracker/pkg/util"
)

// AttachmentsHandler exposes ticket attachment endpoints.
type AttachmentsHandler struct {
	attachments *service.AttachmentService
}

// NewAttachmentsHandler constructs handler.
func NewAttachmentsHandler(attachments *service.AttachmentService) *AttachmentsHandler {
	return &AttachmentsHandler{attachments: attachments}
}

// Upload handles POST /api/ticket/:id/attachment (multipart, field "file").
func (h *AttachmentsHandler) Upload(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewValidationError("multipart field 'file' is required", nil)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return apperrors.NewValidationError("unreadable upload", nil)
	}
	defer file.Close()

	attachment, err := h.attachments.Upload(
		c.UserContext(), p.UserID, p.Role, c.Params("id"),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		fileHeader.Size,
		file,
	)
	if err != nil {
		return err
	}
	return dataResponse(c, http.StatusCreated, dto.NewAttachmentResponse(attachment))
}

// List handles GET /api/ticket/:id/attachment.
func (h *AttachmentsHandler) List(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	attachments, err := h.attachments.List(c.UserContext(), p.UserID, p.Role, c.Params("id"))
	if err != nil {
		return err
	}
	return dataResponse(c, http.StatusOK, dto.NewAttachmentResponses(attachments))
}

// Download handles GET /api/attachment/:id.
func (h *AttachmentsHandler) Download(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	attachment, reader, err := h.attachments.Download(c.UserContext(), p.UserID, p.Role, c.Params("id"))
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, attachment.ContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+attachment.FileName+`"`)
	return c.SendStream(reader, int(attachment.FileSizeBytes))
}

// Delete handles DELETE /api/attachment/:id.
func (h *AttachmentsHandler) Delete(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	if err := h.attachments.Delete(c.UserContext(), p.UserID, p.Role, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
