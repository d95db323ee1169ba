package handlers

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/storage"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// FileStore is the subset of the disk store the file endpoints use.
type FileStore interface {
	ValidateType(fileName string) bool
	ValidateSize(size int64) bool
	MaxBytes() int64
	Store(ctx context.Context, fileName, folder string, r io.Reader) (*storage.StoredFile, error)
	Retrieve(ctx context.Context, handle string) ([]byte, error)
	Delete(ctx context.Context, handle string) (bool, error)
	Info(handle string) (*storage.FileInfo, error)
	List(folder string) ([]storage.FileInfo, error)
}

// FilesHandler exposes the attachment store under /files.
type FilesHandler struct {
	store   FileStore
	timeout time.Duration
	logger  *zap.Logger
}

// NewFilesHandler constructs handler. Store operations are bounded by timeout.
func NewFilesHandler(store FileStore, timeout time.Duration, logger *zap.Logger) *FilesHandler {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FilesHandler{store: store, timeout: timeout, logger: logger}
}

// Upload handles POST /files/upload?folder=.
func (h *FilesHandler) Upload(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewValidationError("file is required", nil)
	}
	if !h.store.ValidateType(fh.Filename) {
		return apperrors.NewValidationError("file type not allowed", map[string]any{"fileName": fh.Filename})
	}
	if !h.store.ValidateSize(fh.Size) {
		return apperrors.NewValidationError("file size must be between 1 byte and "+storage.HumanSize(h.store.MaxBytes()), map[string]any{"fileName": fh.Filename})
	}
	src, err := fh.Open()
	if err != nil {
		return apperrors.NewValidationError("file could not be read", nil)
	}
	defer src.Close()

	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()
	stored, err := h.store.Store(ctx, fh.Filename, c.Query("folder", storage.DefaultFolder), src)
	if err != nil {
		h.logger.Warn("file upload failed", zap.String("file", fh.Filename), zap.Error(err))
		return storageError(err)
	}
	h.logger.Info("file uploaded", zap.String("handle", stored.Handle), zap.Int64("size", stored.Size))
	return withMessage(c, fiber.StatusCreated, "file uploaded", fiber.Map{
		"data":       dto.FromStoredFile(*stored),
		"uploadTime": time.Now().UTC(),
	})
}

// Download handles GET /files/download/*.
func (h *FilesHandler) Download(c *fiber.Ctx) error {
	handle := c.Params("*")
	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()
	body, err := h.store.Retrieve(ctx, handle)
	if err != nil {
		return storageError(err)
	}
	c.Attachment(filepath.Base(handle))
	c.Set(fiber.HeaderContentType, mimetype.Detect(body).String())
	return c.Send(body)
}

// Info handles GET /files/info/*.
func (h *FilesHandler) Info(c *fiber.Ctx) error {
	info, err := h.store.Info(c.Params("*"))
	if err != nil {
		return storageError(err)
	}
	return c.JSON(fiber.Map{"data": dto.FromFileInfo(*info)})
}

// Delete handles DELETE /files/delete?filePath=.
func (h *FilesHandler) Delete(c *fiber.Ctx) error {
	handle := strings.TrimSpace(c.Query("filePath"))
	if handle == "" {
		return apperrors.NewValidationError("filePath is required", nil)
	}
	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()
	deleted, err := h.store.Delete(ctx, handle)
	if err != nil {
		return storageError(err)
	}
	if !deleted {
		return apperrors.NewNotFound("file", nil)
	}
	h.logger.Info("file deleted", zap.String("handle", handle))
	return withMessage(c, fiber.StatusOK, "file deleted", nil)
}

// List handles GET /files/list?folder=.
func (h *FilesHandler) List(c *fiber.Ctx) error {
	files, err := h.store.List(c.Query("folder", storage.DefaultFolder))
	if err != nil {
		return storageError(err)
	}
	return c.JSON(dto.SingleList(files, dto.FromFileInfo))
}
