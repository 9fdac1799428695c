package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// EntryType определяет тип элемента в объединённом списке.
type EntryType string

const (
	EntryTypeFolder   EntryType = "folder"
	EntryTypeImage    EntryType = "image"
	EntryTypeDocument EntryType = "document"
	EntryTypePDF      EntryType = "pdf"
	EntryTypeOther    EntryType = "other"
)

// Entry — единое представление элемента для клиента: папки из
// реляционного каталога и файлы из объектного хранилища приводятся
// к одной форме.
type Entry struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Type      EntryType  `json:"type"`
	SizeBytes int64      `json:"size_bytes,omitempty"`
	Modified  *time.Time `json:"modified,omitempty"`
	Path      string     `json:"path,omitempty"`
	URL       string     `json:"url,omitempty"`
}

// BlobObject — элемент листинга объектного хранилища.
type BlobObject struct {
	Key        string
	Name       string
	SizeBytes  int64
	ModifiedAt time.Time
}

// DetectEntryType определяет тип файла по расширению.
// Расширение сравнивается без учёта регистра.
func DetectEntryType(fileName string) EntryType {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
	if ext == "" {
		return EntryTypeOther
	}

	switch ext {
	case "jpg", "jpeg", "png", "gif", "webp":
		return EntryTypeImage
	case "pdf":
		return EntryTypePDF
	case "doc", "docx", "txt", "xls", "xlsx", "ppt", "pptx":
		return EntryTypeDocument
	default:
		return EntryTypeOther
	}
}
