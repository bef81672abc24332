package engine

import (
	"context"
	"fmt"
	"mime/multipart"
	"path"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rambosorn/khadimy/internal/content"
	"github.com/rambosorn/khadimy/internal/metadata"
	"github.com/rambosorn/khadimy/internal/metrics"
	"github.com/rambosorn/khadimy/internal/storage"
)

// UploadsPrefix is the URL prefix uploaded files are served under.
const UploadsPrefix = "/uploads"

type UploadHandler struct {
	files   *content.Files
	storage storage.FileStorage
	maxSize int64
	logger  *zap.Logger
}

func NewUploadHandler(files *content.Files, fs storage.FileStorage, maxSize int64, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{files: files, storage: fs, maxSize: maxSize, logger: logger}
}

// Upload handles POST /api/upload with one or more multipart "files" parts.
func (h *UploadHandler) Upload(c *fiber.Ctx) error {
	user := GetUser(c)
	if user.Role == metadata.RolePublic {
		return ForbiddenError("Forbidden: plugin::upload.content-api.upload")
	}

	form, err := c.MultipartForm()
	if err != nil {
		return BadRequestError("Files are empty")
	}
	parts := form.File["files"]
	if len(parts) == 0 {
		return BadRequestError("Files are empty")
	}

	for _, part := range parts {
		if part.Size > h.maxSize {
			metrics.UploadsTotal.WithLabelValues("too_large").Inc()
			return PayloadTooLargeError(fmt.Sprintf("%s exceeds size limit of %d bytes", part.Filename, h.maxSize))
		}
	}

	out := make([]map[string]any, 0, len(parts))
	for _, part := range parts {
		file, err := h.save(c.UserContext(), part)
		if err != nil {
			metrics.UploadsTotal.WithLabelValues("error").Inc()
			return err
		}
		metrics.UploadsTotal.WithLabelValues("ok").Inc()
		h.logger.Info("file uploaded",
			zap.Int64("id", file.ID),
			zap.String("name", file.Name),
			zap.Int64("size", file.Size),
		)
		out = append(out, file.Media())
	}

	return c.Status(fiber.StatusCreated).JSON(out)
}

func (h *UploadHandler) save(ctx context.Context, part *multipart.FileHeader) (*content.File, error) {
	src, err := part.Open()
	if err != nil {
		return nil, fmt.Errorf("open uploaded file: %w", err)
	}
	defer src.Close()

	docID := uuid.NewString()
	mime := part.Header.Get("Content-Type")
	if mime == "" {
		mime = "application/octet-stream"
	}

	rel, err := h.storage.Save(ctx, docID, part.Filename, src)
	if err != nil {
		return nil, fmt.Errorf("save file: %w", err)
	}

	file, err := h.files.Create(ctx, &content.File{
		DocumentID:  docID,
		Name:        storage.SanitizeFilename(part.Filename),
		URL:         path.Join(UploadsPrefix, rel),
		Mime:        mime,
		Size:        part.Size,
		StoragePath: rel,
	})
	if err != nil {
		_ = h.storage.Delete(ctx, rel)
		return nil, fmt.Errorf("record file: %w", err)
	}
	return file, nil
}
