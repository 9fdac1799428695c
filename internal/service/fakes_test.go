package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"famdrive/internal/domain"
	"famdrive/internal/repository"
	"famdrive/internal/service/s3"
)

// fakeLedger — квота в памяти с той же семантикой условного
// резервирования, что и у Postgres-реализации.
type fakeLedger struct {
	mu      sync.Mutex
	used    int64
	limit   int64
	failOps bool
}

func newFakeLedger(used, limit int64) *fakeLedger {
	return &fakeLedger{used: used, limit: limit}
}

func (l *fakeLedger) GetQuota(ctx context.Context, ownerID string) (*domain.StorageQuota, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failOps {
		return nil, fmt.Errorf("ledger down")
	}
	return &domain.StorageQuota{
		OwnerID:         ownerID,
		TotalBytesLimit: l.limit,
		UsedBytes:       l.used,
	}, nil
}

func (l *fakeLedger) Reserve(ctx context.Context, ownerID string, n int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failOps {
		return fmt.Errorf("ledger down")
	}
	if l.used+n > l.limit {
		return repository.ErrNoCapacity
	}
	l.used += n
	return nil
}

func (l *fakeLedger) Release(ctx context.Context, ownerID string, n int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failOps {
		return fmt.Errorf("ledger down")
	}
	l.used -= n
	if l.used < 0 {
		l.used = 0
	}
	return nil
}

func (l *fakeLedger) UpdateQuotaLimit(ctx context.Context, ownerID string, newLimit int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.limit = newLimit
	return nil
}

func (l *fakeLedger) usedBytes() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.used
}

// fakeDirectory — каталог папок в памяти с уникальностью (owner, path)
// и каскадным переписыванием путей.
type fakeDirectory struct {
	mu      sync.Mutex
	nextID  int64
	folders map[int64]*domain.Folder
	listErr error
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{folders: map[int64]*domain.Folder{}}
}

func (d *fakeDirectory) ListChildren(ctx context.Context, ownerID string, parentPath *string) ([]domain.Folder, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.listErr != nil {
		return nil, d.listErr
	}

	var out []domain.Folder
	for _, f := range d.folders {
		if f.OwnerID != ownerID {
			continue
		}
		switch {
		case parentPath == nil && f.ParentPath == nil:
			out = append(out, *f)
		case parentPath != nil && f.ParentPath != nil && *parentPath == *f.ParentPath:
			out = append(out, *f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (d *fakeDirectory) Create(ctx context.Context, folder *domain.Folder) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	parent := ""
	if folder.ParentPath != nil {
		parent = *folder.ParentPath
	}
	folder.Path = domain.JoinPath(parent, folder.Name)

	for _, f := range d.folders {
		if f.OwnerID == folder.OwnerID && f.Path == folder.Path {
			return repository.ErrFolderExists
		}
	}

	d.nextID++
	folder.ID = d.nextID
	folder.CreatedAt = time.Now()
	folder.UpdatedAt = folder.CreatedAt

	stored := *folder
	d.folders[folder.ID] = &stored
	return nil
}

func (d *fakeDirectory) GetByID(ctx context.Context, id int64, ownerID string) (*domain.Folder, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	f, ok := d.folders[id]
	if !ok || f.OwnerID != ownerID {
		return nil, repository.ErrFolderNotFound
	}
	copied := *f
	return &copied, nil
}

func (d *fakeDirectory) Rename(ctx context.Context, id int64, ownerID, newName string) (string, string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	f, ok := d.folders[id]
	if !ok || f.OwnerID != ownerID {
		return "", "", repository.ErrFolderNotFound
	}

	parent := ""
	if f.ParentPath != nil {
		parent = *f.ParentPath
	}

	oldPath := f.Path
	newPath := domain.JoinPath(parent, newName)
	if newPath == oldPath {
		return oldPath, newPath, nil
	}

	for _, other := range d.folders {
		if other.ID != id && other.OwnerID == ownerID && other.Path == newPath {
			return "", "", repository.ErrFolderExists
		}
	}

	f.Name = newName
	f.Path = newPath
	d.rewriteSubtree(ownerID, oldPath, newPath)
	return oldPath, newPath, nil
}

func (d *fakeDirectory) Move(ctx context.Context, id int64, ownerID string, newParentPath *string) (string, string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	f, ok := d.folders[id]
	if !ok || f.OwnerID != ownerID {
		return "", "", repository.ErrFolderNotFound
	}

	oldPath := f.Path
	parent := ""
	if newParentPath != nil {
		parent = *newParentPath
		if parent == oldPath || strings.HasPrefix(parent, oldPath+"/") {
			return "", "", repository.ErrInvalidMove
		}

		found := false
		for _, other := range d.folders {
			if other.OwnerID == ownerID && other.Path == parent {
				found = true
				break
			}
		}
		if !found {
			return "", "", repository.ErrFolderNotFound
		}
	}

	newPath := domain.JoinPath(parent, f.Name)
	if newPath == oldPath {
		return oldPath, newPath, nil
	}

	f.Path = newPath
	f.ParentPath = newParentPath
	d.rewriteSubtree(ownerID, oldPath, newPath)
	return oldPath, newPath, nil
}

func (d *fakeDirectory) Delete(ctx context.Context, id int64, ownerID string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	f, ok := d.folders[id]
	if !ok || f.OwnerID != ownerID {
		return "", repository.ErrFolderNotFound
	}

	path := f.Path
	for otherID, other := range d.folders {
		if other.OwnerID != ownerID {
			continue
		}
		if other.Path == path || strings.HasPrefix(other.Path, path+"/") {
			delete(d.folders, otherID)
		}
	}
	return path, nil
}

func (d *fakeDirectory) rewriteSubtree(ownerID, oldPath, newPath string) {
	for _, other := range d.folders {
		if other.OwnerID != ownerID {
			continue
		}
		if strings.HasPrefix(other.Path, oldPath+"/") {
			other.Path = newPath + strings.TrimPrefix(other.Path, oldPath)
		}
		if other.ParentPath != nil {
			if *other.ParentPath == oldPath {
				p := newPath
				other.ParentPath = &p
			} else if strings.HasPrefix(*other.ParentPath, oldPath+"/") {
				p := newPath + strings.TrimPrefix(*other.ParentPath, oldPath)
				other.ParentPath = &p
			}
		}
	}
}

func (d *fakeDirectory) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.folders)
}

// fakeStorage — объектное хранилище в памяти поверх плоской карты
// ключей, с листингом по префиксу и разделителю как у S3.
type fakeStorage struct {
	mu       sync.Mutex
	objects  map[string][]byte
	listErr  error
	putErr   error
	delErr   error
	failPuts map[string]bool
}

var _ s3.Storage = (*fakeStorage)(nil)

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		objects:  map[string][]byte{},
		failPuts: map[string]bool{},
	}
}

func (f *fakeStorage) List(ctx context.Context, prefix string) ([]domain.BlobObject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}

	var out []domain.BlobObject
	for key, data := range f.objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		name := strings.TrimPrefix(key, prefix)
		if name == "" || name == s3.MarkerObject || strings.Contains(name, "/") {
			continue
		}
		out = append(out, domain.BlobObject{
			Key:       key,
			Name:      name,
			SizeBytes: int64(len(data)),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (f *fakeStorage) ListAll(ctx context.Context, prefix string) ([]domain.BlobObject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}

	var out []domain.BlobObject
	for key, data := range f.objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		out = append(out, domain.BlobObject{
			Key:       key,
			Name:      strings.TrimPrefix(key, prefix),
			SizeBytes: int64(len(data)),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (f *fakeStorage) UploadBytes(key string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return f.putErr
	}
	if f.failPuts[key] {
		return fmt.Errorf("put failed for %s", key)
	}
	f.objects[key] = append([]byte(nil), data...)
	return nil
}

func (f *fakeStorage) Download(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("object not found: %s", key)
	}
	return append([]byte(nil), data...), nil
}

func (f *fakeStorage) GetObject(ctx context.Context, key string) (s3.S3Object, error) {
	data, err := f.Download(ctx, key)
	if err != nil {
		return nil, err
	}
	return &fakeObject{
		ReadCloser: io.NopCloser(bytes.NewReader(data)),
		length:     int64(len(data)),
	}, nil
}

func (f *fakeStorage) DeleteObjects(ctx context.Context, keys []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.delErr != nil {
		return f.delErr
	}
	for _, key := range keys {
		delete(f.objects, key)
	}
	return nil
}

func (f *fakeStorage) Copy(ctx context.Context, srcKey, dstKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[srcKey]
	if !ok {
		return fmt.Errorf("object not found: %s", srcKey)
	}
	f.objects[dstKey] = append([]byte(nil), data...)
	return nil
}

func (f *fakeStorage) PublicURL(key string) string {
	return "https://storage.test/famdrive/" + key
}

func (f *fakeStorage) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok
}

func (f *fakeStorage) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

type fakeObject struct {
	io.ReadCloser
	length int64
}

func (o *fakeObject) ContentLength() int64 { return o.length }
func (o *fakeObject) ContentType() string  { return "application/octet-stream" }
