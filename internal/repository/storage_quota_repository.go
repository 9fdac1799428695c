package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"famdrive/internal/domain"
)

// ErrNoCapacity возвращается, когда условное резервирование места
// не прошло по лимиту.
var ErrNoCapacity = errors.New("not enough storage space available")

type StorageQuotaRepository struct {
	db *sqlx.DB
}

func NewStorageQuotaRepository(db *sqlx.DB) *StorageQuotaRepository {
	return &StorageQuotaRepository{db: db}
}

// GetQuota читает квоту владельца. Отсутствующая строка не создаётся
// на чтении: возвращаются значения по умолчанию, строка появится при
// первом резервировании.
func (r *StorageQuotaRepository) GetQuota(ctx context.Context, ownerID string) (*domain.StorageQuota, error) {
	var quota domain.StorageQuota

	err := r.db.GetContext(ctx, &quota,
		`SELECT id, owner_id, total_bytes_limit, used_bytes, created_at, updated_at
         FROM storage_quotas WHERE owner_id = $1`,
		ownerID)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &domain.StorageQuota{
				OwnerID:         ownerID,
				TotalBytesLimit: domain.DefaultQuotaLimit,
				UsedBytes:       0,
			}, nil
		}
		return nil, fmt.Errorf("failed to get quota: %w", err)
	}

	return &quota, nil
}

// Reserve атомарно добавляет bytes к used_bytes, только если лимит
// не превышается. Проверка и инкремент выполняются одним условным
// UPDATE, поэтому окна между check и act нет: из двух конкурентных
// загрузок лишняя получит ErrNoCapacity.
func (r *StorageQuotaRepository) Reserve(ctx context.Context, ownerID string, bytes int64) error {
	if bytes < 0 {
		return fmt.Errorf("cannot reserve negative bytes: %d", bytes)
	}

	if err := r.ensure(ctx, ownerID); err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, `
        UPDATE storage_quotas
        SET used_bytes = used_bytes + $1,
            updated_at = CURRENT_TIMESTAMP
        WHERE owner_id = $2 AND used_bytes + $1 <= total_bytes_limit`,
		bytes, ownerID)
	if err != nil {
		return fmt.Errorf("failed to reserve space: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if rows == 0 {
		return ErrNoCapacity
	}

	return nil
}

// Release уменьшает used_bytes, не опуская его ниже нуля.
func (r *StorageQuotaRepository) Release(ctx context.Context, ownerID string, bytes int64) error {
	if bytes < 0 {
		return fmt.Errorf("cannot release negative bytes: %d", bytes)
	}

	result, err := r.db.ExecContext(ctx, `
        UPDATE storage_quotas
        SET used_bytes = GREATEST(0, used_bytes - $1),
            updated_at = CURRENT_TIMESTAMP
        WHERE owner_id = $2`,
		bytes, ownerID)
	if err != nil {
		return fmt.Errorf("failed to release space: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("quota not found for owner: %s", ownerID)
	}

	return nil
}

func (r *StorageQuotaRepository) UpdateQuotaLimit(ctx context.Context, ownerID string, newLimit int64) error {
	if err := r.ensure(ctx, ownerID); err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, `
        UPDATE storage_quotas
        SET total_bytes_limit = $1,
            updated_at = CURRENT_TIMESTAMP
        WHERE owner_id = $2`,
		newLimit, ownerID)
	if err != nil {
		return fmt.Errorf("failed to update quota limit: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("quota not found for owner: %s", ownerID)
	}

	return nil
}

// ensure создаёт строку квоты с дефолтным лимитом, если её ещё нет.
func (r *StorageQuotaRepository) ensure(ctx context.Context, ownerID string) error {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO storage_quotas (owner_id, total_bytes_limit, used_bytes)
        VALUES ($1, $2, 0)
        ON CONFLICT (owner_id) DO NOTHING`,
		ownerID, domain.DefaultQuotaLimit)
	if err != nil {
		return fmt.Errorf("failed to ensure quota row: %w", err)
	}
	return nil
}
