package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk/internal/access"
	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/service"
	"github.com/spec-kit/helpdesk/internal/storage"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

func caller(c *fiber.Ctx) (access.RequestContext, error) {
	rc, ok := auth.RequestContextFrom(c)
	if !ok {
		return access.RequestContext{}, apperrors.NewUnauthorized("authentication required")
	}
	return rc, nil
}

// pathID reads a UUID route parameter in canonical form.
func pathID(c *fiber.Ctx, name string) (string, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return "", apperrors.NewValidationError("invalid "+name, map[string]any{name: "must be a valid UUID"})
	}
	return id.String(), nil
}

// bindBody decodes the request body into dst and checks its validate tags.
func bindBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return dto.Validate(dst)
}

func bindQuery(c *fiber.Ctx, dst any) error {
	if err := c.QueryParser(dst); err != nil {
		return apperrors.NewValidationError("invalid query string", nil)
	}
	return dto.Validate(dst)
}

// withMessage renders the mutating-endpoint envelope {message, ...}.
func withMessage(c *fiber.Ctx, status int, message string, fields fiber.Map) error {
	body := fiber.Map{"message": message}
	for k, v := range fields {
		body[k] = v
	}
	return c.Status(status).JSON(body)
}

func uploadedFile(fh *multipart.FileHeader) service.UploadedFile {
	return service.UploadedFile{
		Name: fh.Filename,
		Size: fh.Size,
		Open: func() (io.ReadCloser, error) { return fh.Open() },
	}
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEMultipartForm)
}

// storageError maps file store failures onto the error taxonomy.
func storageError(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return apperrors.NewNotFound("file", nil)
	case errors.Is(err, storage.ErrInvalidPath):
		return apperrors.NewValidationError("invalid file path", nil)
	case errors.Is(err, storage.ErrTypeNotAllowed), errors.Is(err, storage.ErrTooLarge), errors.Is(err, storage.ErrEmpty):
		return apperrors.NewValidationError(err.Error(), nil)
	default:
		return apperrors.NewUnavailable("file storage unavailable", err, nil)
	}
}
