package service

import (
	"context"

	"famdrive/internal/domain"
)

// FolderDirectory — реляционный каталог папок, единственный источник
// истины об их существовании.
type FolderDirectory interface {
	ListChildren(ctx context.Context, ownerID string, parentPath *string) ([]domain.Folder, error)
	Create(ctx context.Context, folder *domain.Folder) error
	GetByID(ctx context.Context, id int64, ownerID string) (*domain.Folder, error)
	Rename(ctx context.Context, id int64, ownerID, newName string) (oldPath, newPath string, err error)
	Move(ctx context.Context, id int64, ownerID string, newParentPath *string) (oldPath, newPath string, err error)
	Delete(ctx context.Context, id int64, ownerID string) (path string, err error)
}

// QuotaLedger — учёт занятого места по владельцам. Изменяется только
// через Reserve/Release, прямой перезаписи used_bytes нет.
type QuotaLedger interface {
	GetQuota(ctx context.Context, ownerID string) (*domain.StorageQuota, error)
	Reserve(ctx context.Context, ownerID string, bytes int64) error
	Release(ctx context.Context, ownerID string, bytes int64) error
	UpdateQuotaLimit(ctx context.Context, ownerID string, newLimit int64) error
}
