package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"

	"famdrive/internal/domain"
	"famdrive/internal/repository"
	"famdrive/internal/service/s3"
)

// maxConcurrentUploads — максимальное количество параллельных загрузок
const maxConcurrentUploads = 5

// UploadFailure — недогруженный файл из пакета. Наружу уходит только
// счётчик, подробности остаются для логов.
type UploadFailure struct {
	Name string
	Err  error
}

// BatchResult — итог пакетной загрузки: сколько файлов легло в
// хранилище и сколько нет.
type BatchResult struct {
	BatchID   uuid.UUID       `json:"batch_id"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Failures  []UploadFailure `json:"-"`
}

// DriveService — оркестратор операций над двумя хранилищами и квотой.
// Каждая операция — короткоживущая сага с компенсациями на частичных
// отказах; сквозных транзакций между бэкендами нет.
type DriveService struct {
	folderRepo   FolderDirectory
	quotaService *StorageQuotaService
	s3Client     s3.Storage
}

func NewDriveService(
	folderRepo FolderDirectory,
	quotaService *StorageQuotaService,
	s3Client s3.Storage,
) *DriveService {
	return &DriveService{
		folderRepo:   folderRepo,
		quotaService: quotaService,
		s3Client:     s3Client,
	}
}

// CreateFolder создаёт запись каталога и пишет косметический маркер
// в объектное хранилище. Ошибка маркера не отменяет папку: каталог
// авторитетен, расхождение только логируется.
func (s *DriveService) CreateFolder(ctx context.Context, ownerID, parentPath, name string) (*domain.Folder, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	folder := &domain.Folder{
		OwnerID: ownerID,
		Name:    name,
	}
	if parentPath != "" {
		folder.ParentPath = &parentPath
	}

	if err := s.folderRepo.Create(ctx, folder); err != nil {
		if err == repository.ErrFolderExists {
			return nil, fmt.Errorf("%w: folder %q already exists", ErrInvalidName, name)
		}
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	if err := s.s3Client.UploadBytes(markerKey(ownerID, folder.Path), []byte{}); err != nil {
		log.Printf("[DriveService] warning: failed to write folder marker for %s: %v", folder.Path, err)
	}

	return folder, nil
}

// UploadBatch загружает пакет файлов в path. Место под весь пакет
// резервируется одним условным обновлением до первой записи: либо
// пакет допущен целиком, либо отклонён без единого байта в хранилище.
// Дальше файлы независимы: упавшие возвращают свои байты квоте,
// остальных это не трогает.
func (s *DriveService) UploadBatch(ctx context.Context, ownerID, path string, files []domain.FileUpload) (*BatchResult, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files in batch", ErrInvalidName)
	}

	var totalSize int64
	for i := range files {
		if err := validateName(files[i].Name); err != nil {
			return nil, err
		}
		totalSize += files[i].Size()
	}

	if err := s.quotaService.Reserve(ctx, ownerID, totalSize); err != nil {
		return nil, err
	}

	result := &BatchResult{BatchID: uuid.New()}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		semaphore = make(chan struct{}, maxConcurrentUploads)
	)

	for i := range files {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(file *domain.FileUpload) {
			defer wg.Done()
			defer func() { <-semaphore }()

			key := objectKey(ownerID, path, file.Name)
			if err := s.s3Client.UploadBytes(key, file.Data); err != nil {
				// Возвращаем квоте байты этого файла
				if relErr := s.quotaService.Release(ctx, ownerID, file.Size()); relErr != nil {
					log.Printf("[DriveService] ledger drift: failed to release %d bytes for %s after upload error: %v",
						file.Size(), ownerID, relErr)
				}

				mu.Lock()
				result.Failed++
				result.Failures = append(result.Failures, UploadFailure{Name: file.Name, Err: err})
				mu.Unlock()
				return
			}

			mu.Lock()
			result.Succeeded++
			mu.Unlock()
		}(&files[i])
	}

	wg.Wait()

	for _, failure := range result.Failures {
		log.Printf("[DriveService] batch %s: failed to upload %s: %v", result.BatchID, failure.Name, failure.Err)
	}

	return result, nil
}

// DeleteFile удаляет блоб и возвращает его байты квоте. Удаление
// блоба — сигнал успеха операции: если возврат байтов не прошёл,
// расхождение логируется, но пользователю операция удалась.
func (s *DriveService) DeleteFile(ctx context.Context, ownerID, path string, sizeBytes int64) error {
	if path == "" {
		return fmt.Errorf("%w: path is required", ErrInvalidName)
	}

	key := ownerID + "/" + path
	if err := s.s3Client.DeleteObjects(ctx, []string{key}); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	if sizeBytes > 0 {
		if err := s.quotaService.Release(ctx, ownerID, sizeBytes); err != nil {
			log.Printf("[DriveService] ledger drift: failed to release %d bytes for %s after delete: %v",
				sizeBytes, ownerID, err)
		}
	}

	return nil
}

// DeleteFolder удаляет поддерево каталога одной транзакцией, после
// чего зачищает блобы под префиксом и возвращает их байты квоте.
// Маркеры нулевого размера на счётчик не влияют.
func (s *DriveService) DeleteFolder(ctx context.Context, ownerID string, folderID int64) error {
	path, err := s.folderRepo.Delete(ctx, folderID, ownerID)
	if err != nil {
		if err == repository.ErrFolderNotFound {
			return ErrNotFound
		}
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	// Записи каталога уже удалены: всё дальнейшее — лучшая попытка
	blobs, err := s.s3Client.ListAll(ctx, objectPrefix(ownerID, path))
	if err != nil {
		log.Printf("[DriveService] ledger drift: failed to list blobs under %s after folder delete: %v", path, err)
		return nil
	}
	if len(blobs) == 0 {
		return nil
	}

	keys := make([]string, 0, len(blobs))
	var totalSize int64
	for _, blob := range blobs {
		keys = append(keys, blob.Key)
		totalSize += blob.SizeBytes
	}

	if err := s.s3Client.DeleteObjects(ctx, keys); err != nil {
		log.Printf("[DriveService] ledger drift: failed to delete blobs under %s: %v", path, err)
		return nil
	}

	if totalSize > 0 {
		if err := s.quotaService.Release(ctx, ownerID, totalSize); err != nil {
			log.Printf("[DriveService] ledger drift: failed to release %d bytes for %s after folder delete: %v",
				totalSize, ownerID, err)
		}
	}

	return nil
}

// RenameFile переименовывает файл через download — put — delete:
// настоящего rename у объектного хранилища нет. Отказ до put
// оставляет оригинал нетронутым. Отказ delete после успешного put
// оставляет обе копии; квота при этом не искажается (размер тот же),
// но дубль виден пользователю, поэтому возвращается отдельная ошибка.
func (s *DriveService) RenameFile(ctx context.Context, ownerID, path, newName string) error {
	if err := validateName(newName); err != nil {
		return err
	}
	if path == "" {
		return fmt.Errorf("%w: path is required", ErrInvalidName)
	}

	dir, oldName := domain.SplitPath(path)
	if newName == oldName {
		return nil
	}

	oldKey := ownerID + "/" + path
	newKey := objectKey(ownerID, dir, newName)

	data, err := s.s3Client.Download(ctx, oldKey)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	if err := s.s3Client.UploadBytes(newKey, data); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	if err := s.s3Client.DeleteObjects(ctx, []string{oldKey}); err != nil {
		log.Printf("[DriveService] inconsistent rename: both %s and %s present: %v", oldKey, newKey, err)
		return ErrInconsistentRename
	}

	return nil
}

// MoveFile переносит файл под другой каталог серверным копированием.
func (s *DriveService) MoveFile(ctx context.Context, ownerID, path, newParentPath string) error {
	if path == "" {
		return fmt.Errorf("%w: path is required", ErrInvalidName)
	}

	_, name := domain.SplitPath(path)
	oldKey := ownerID + "/" + path
	newKey := objectKey(ownerID, newParentPath, name)
	if newKey == oldKey {
		return nil
	}

	if err := s.s3Client.Copy(ctx, oldKey, newKey); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	if err := s.s3Client.DeleteObjects(ctx, []string{oldKey}); err != nil {
		log.Printf("[DriveService] inconsistent move: both %s and %s present: %v", oldKey, newKey, err)
		return ErrInconsistentRename
	}

	return nil
}

// RenameFolder переименовывает папку с каскадом путей потомков в
// каталоге, затем переносит блобы под новый префикс. Перенос блобов —
// лучшая попытка: каталог авторитетен, отставшие ключи логируются.
func (s *DriveService) RenameFolder(ctx context.Context, ownerID string, folderID int64, newName string) error {
	if err := validateName(newName); err != nil {
		return err
	}

	oldPath, newPath, err := s.folderRepo.Rename(ctx, folderID, ownerID, newName)
	if err != nil {
		return translateFolderError(err, newName)
	}

	if oldPath != newPath {
		s.relocateBlobs(ctx, ownerID, oldPath, newPath)
	}

	return nil
}

// MoveFolder перемещает папку под нового родителя; механика та же,
// что у RenameFolder.
func (s *DriveService) MoveFolder(ctx context.Context, ownerID string, folderID int64, newParentPath string) error {
	var parent *string
	if newParentPath != "" {
		parent = &newParentPath
	}

	oldPath, newPath, err := s.folderRepo.Move(ctx, folderID, ownerID, parent)
	if err != nil {
		return translateFolderError(err, newParentPath)
	}

	if oldPath != newPath {
		s.relocateBlobs(ctx, ownerID, oldPath, newPath)
	}

	return nil
}

// DownloadFile отдаёт содержимое файла потоком.
func (s *DriveService) DownloadFile(ctx context.Context, ownerID, path string) (s3.S3Object, string, error) {
	if path == "" {
		return nil, "", fmt.Errorf("%w: path is required", ErrInvalidName)
	}

	obj, err := s.s3Client.GetObject(ctx, ownerID+"/"+path)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	_, name := domain.SplitPath(path)
	return obj, name, nil
}

// relocateBlobs переносит все объекты из-под старого префикса под
// новый серверным копированием. Удаляются только успешно
// скопированные оригиналы, остальное остаётся в логах.
func (s *DriveService) relocateBlobs(ctx context.Context, ownerID, oldPath, newPath string) {
	oldPrefix := objectPrefix(ownerID, oldPath)
	newPrefix := objectPrefix(ownerID, newPath)

	blobs, err := s.s3Client.ListAll(ctx, oldPrefix)
	if err != nil {
		log.Printf("[DriveService] drift: failed to list blobs under %s for relocation: %v", oldPrefix, err)
		return
	}

	copied := make([]string, 0, len(blobs))
	for _, blob := range blobs {
		dstKey := newPrefix + strings.TrimPrefix(blob.Key, oldPrefix)
		if err := s.s3Client.Copy(ctx, blob.Key, dstKey); err != nil {
			log.Printf("[DriveService] drift: failed to relocate %s to %s: %v", blob.Key, dstKey, err)
			continue
		}
		copied = append(copied, blob.Key)
	}

	if len(copied) == 0 {
		return
	}

	if err := s.s3Client.DeleteObjects(ctx, copied); err != nil {
		log.Printf("[DriveService] drift: failed to delete relocated blobs under %s: %v", oldPrefix, err)
	}
}

func validateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidName)
	case strings.Contains(name, "/"):
		return fmt.Errorf("%w: name must not contain '/'", ErrInvalidName)
	case name == "." || name == "..":
		return fmt.Errorf("%w: %q is reserved", ErrInvalidName, name)
	}
	return nil
}

func translateFolderError(err error, name string) error {
	switch err {
	case repository.ErrFolderNotFound:
		return ErrNotFound
	case repository.ErrFolderExists:
		return fmt.Errorf("%w: folder %q already exists", ErrInvalidName, name)
	case repository.ErrInvalidMove:
		return fmt.Errorf("%w: %v", ErrInvalidName, err)
	default:
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
}
