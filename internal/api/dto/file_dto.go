package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/storage"
)

// FileResponse describes a stored file.
type FileResponse struct {
	FileName          string     `json:"fileName"`
	FilePath          string     `json:"filePath"`
	FileSize          int64      `json:"fileSize"`
	FileSizeFormatted string     `json:"fileSizeFormatted"`
	Extension         string     `json:"extension,omitempty"`
	ContentType       string     `json:"contentType"`
	LastModified      *time.Time `json:"lastModified,omitempty"`
}

func FromStoredFile(f storage.StoredFile) FileResponse {
	return FileResponse{
		FileName:          f.OriginalName,
		FilePath:          f.Handle,
		FileSize:          f.Size,
		FileSizeFormatted: storage.HumanSize(f.Size),
		ContentType:       f.ContentType,
	}
}

func FromFileInfo(f storage.FileInfo) FileResponse {
	modified := f.ModTime
	return FileResponse{
		FileName:          f.Name,
		FilePath:          f.Handle,
		FileSize:          f.Size,
		FileSizeFormatted: storage.HumanSize(f.Size),
		Extension:         f.Extension,
		ContentType:       f.ContentType,
		LastModified:      &modified,
	}
}
