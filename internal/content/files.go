package content

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rambosorn/khadimy/internal/store"
)

// File is an uploaded media file as stored in the files table.
type File struct {
	ID          int64  `json:"id"`
	DocumentID  string `json:"documentId"`
	Name        string `json:"name"`
	URL         string `json:"url"`
	Mime        string `json:"mime"`
	Size        int64  `json:"size"`
	StoragePath string `json:"-"`
}

// Media returns the object embedded in media fields.
func (f *File) Media() map[string]any {
	return map[string]any{
		"id":         f.ID,
		"documentId": f.DocumentID,
		"name":       f.Name,
		"url":        f.URL,
		"mime":       f.Mime,
		"size":       f.Size,
	}
}

type Files struct {
	store *store.Store
}

func NewFiles(s *store.Store) *Files {
	return &Files{store: s}
}

// Create records an uploaded file. DocumentID is assigned when empty.
func (f *Files) Create(ctx context.Context, file *File) (*File, error) {
	if file.DocumentID == "" {
		file.DocumentID = uuid.NewString()
	}
	ib := f.store.Dialect.Flavor().NewInsertBuilder()
	ib.InsertInto("files").
		Cols("document_id", "name", "url", "mime", "size", "storage_path", "created_at").
		Values(file.DocumentID, file.Name, file.URL, file.Mime, file.Size, file.StoragePath,
			f.store.Dialect.TimeParam(time.Now()))
	query, args := ib.Build()
	if _, err := store.Exec(ctx, f.store.DB, query, args...); err != nil {
		return nil, fmt.Errorf("insert file: %w", store.MapError(f.store.Dialect, err))
	}
	return f.find(ctx, "document_id", file.DocumentID)
}

// FindByID returns the file with the given id, or store.ErrNotFound.
func (f *Files) FindByID(ctx context.Context, id int64) (*File, error) {
	return f.find(ctx, "id", id)
}

func (f *Files) find(ctx context.Context, col string, v any) (*File, error) {
	sb := f.store.Dialect.Flavor().NewSelectBuilder()
	sb.Select("id", "document_id", "name", "url", "mime", "size", "storage_path").
		From("files").Where(sb.Equal(col, v))
	query, args := sb.Build()

	row, err := store.QueryRow(ctx, f.store.DB, query, args...)
	if err != nil {
		return nil, err
	}
	file := &File{}
	file.ID, _ = store.ToInt64(row["id"])
	file.DocumentID, _ = row["document_id"].(string)
	file.Name, _ = row["name"].(string)
	file.URL, _ = row["url"].(string)
	file.Mime, _ = row["mime"].(string)
	file.Size, _ = store.ToInt64(row["size"])
	file.StoragePath, _ = row["storage_path"].(string)
	return file, nil
}
