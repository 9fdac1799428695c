package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"famdrive/internal/domain"
	"famdrive/internal/service/s3"
)

// FileSystemService собирает папки из реляционного каталога и файлы
// из объектного хранилища в единый список элементов одного пути.
type FileSystemService struct {
	folderRepo FolderDirectory
	s3Client   s3.Storage
}

func NewFileSystemService(folderRepo FolderDirectory, s3Client s3.Storage) *FileSystemService {
	return &FileSystemService{
		folderRepo: folderRepo,
		s3Client:   s3Client,
	}
}

// List возвращает содержимое пути: сперва папки, затем файлы.
// Оба листинга идут параллельно; если любой из них упал, падает
// вся операция — наполовину заполненное дерево хуже явной ошибки.
func (s *FileSystemService) List(ctx context.Context, ownerID, path string) ([]domain.Entry, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner is required", ErrInvalidName)
	}

	var parentPath *string
	if path != "" {
		parentPath = &path
	}

	var (
		wg        sync.WaitGroup
		folders   []domain.Folder
		blobs     []domain.BlobObject
		folderErr error
		blobErr   error
	)

	wg.Add(2)

	go func() {
		defer wg.Done()
		folders, folderErr = s.folderRepo.ListChildren(ctx, ownerID, parentPath)
	}()

	go func() {
		defer wg.Done()
		blobs, blobErr = s.s3Client.List(ctx, objectPrefix(ownerID, path))
	}()

	wg.Wait()

	if folderErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, folderErr)
	}
	if blobErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, blobErr)
	}

	entries := make([]domain.Entry, 0, len(folders)+len(blobs))

	for _, folder := range folders {
		f := folder
		entries = append(entries, domain.Entry{
			ID:       strconv.FormatInt(f.ID, 10),
			Name:     f.Name,
			Type:     domain.EntryTypeFolder,
			Modified: &f.CreatedAt,
			Path:     f.Path,
		})
	}

	for _, blob := range blobs {
		b := blob
		entries = append(entries, domain.Entry{
			ID:        b.Key,
			Name:      b.Name,
			Type:      domain.DetectEntryType(b.Name),
			SizeBytes: b.SizeBytes,
			Modified:  &b.ModifiedAt,
			Path:      domain.JoinPath(path, b.Name),
			URL:       s.s3Client.PublicURL(b.Key),
		})
	}

	return entries, nil
}
