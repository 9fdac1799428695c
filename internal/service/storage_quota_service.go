package service

import (
	"context"
	"errors"
	"fmt"

	"famdrive/internal/domain"
	"famdrive/internal/repository"
)

type StorageQuotaService struct {
	quotaRepo QuotaLedger
}

func NewStorageQuotaService(quotaRepo QuotaLedger) *StorageQuotaService {
	return &StorageQuotaService{
		quotaRepo: quotaRepo,
	}
}

func (s *StorageQuotaService) GetQuotaInfo(ctx context.Context, ownerID string) (*domain.QuotaInfo, error) {
	quota, err := s.quotaRepo.GetQuota(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get quota: %w", err)
	}

	availableSpace := quota.TotalBytesLimit - quota.UsedBytes
	var usagePercent float64
	if quota.TotalBytesLimit > 0 {
		usagePercent = float64(quota.UsedBytes) / float64(quota.TotalBytesLimit) * 100
	}

	return &domain.QuotaInfo{
		TotalSpace:     quota.TotalBytesLimit,
		UsedSpace:      quota.UsedBytes,
		AvailableSpace: availableSpace,
		UsagePercent:   usagePercent,
	}, nil
}

// CheckSpaceAvailable — справочная проверка для клиента. Решение о
// допуске записи принимает только Reserve.
func (s *StorageQuotaService) CheckSpaceAvailable(ctx context.Context, ownerID string, requiredBytes int64) (bool, error) {
	quota, err := s.quotaRepo.GetQuota(ctx, ownerID)
	if err != nil {
		return false, fmt.Errorf("failed to get quota: %w", err)
	}

	return (quota.UsedBytes + requiredBytes) <= quota.TotalBytesLimit, nil
}

// Reserve резервирует место под запись. Превышение лимита приходит
// из хранилища как результат условного обновления, без окна между
// проверкой и инкрементом.
func (s *StorageQuotaService) Reserve(ctx context.Context, ownerID string, bytes int64) error {
	err := s.quotaRepo.Reserve(ctx, ownerID, bytes)
	if err != nil {
		if errors.Is(err, repository.ErrNoCapacity) {
			return ErrQuotaExceeded
		}
		return fmt.Errorf("failed to reserve space: %w", err)
	}
	return nil
}

func (s *StorageQuotaService) Release(ctx context.Context, ownerID string, bytes int64) error {
	return s.quotaRepo.Release(ctx, ownerID, bytes)
}

func (s *StorageQuotaService) UpdateQuotaLimit(ctx context.Context, ownerID string, newLimit int64) error {
	if newLimit < 0 {
		return fmt.Errorf("new quota limit cannot be negative")
	}
	return s.quotaRepo.UpdateQuotaLimit(ctx, ownerID, newLimit)
}
