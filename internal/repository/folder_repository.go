package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"famdrive/internal/domain"
)

var (
	ErrFolderNotFound = errors.New("folder not found")
	ErrFolderExists   = errors.New("folder already exists")
	ErrInvalidMove    = errors.New("cannot move folder into its own subtree")
)

const pqUniqueViolation = "23505"

type FolderRepository struct {
	db *sqlx.DB
}

func NewFolderRepository(db *sqlx.DB) *FolderRepository {
	return &FolderRepository{db: db}
}

// ListChildren возвращает папки с точным совпадением parent_path.
// Корень представлен как NULL, а не пустая строка.
func (r *FolderRepository) ListChildren(ctx context.Context, ownerID string, parentPath *string) ([]domain.Folder, error) {
	folders := []domain.Folder{}

	var err error
	if parentPath == nil {
		err = r.db.SelectContext(ctx, &folders, `
            SELECT id, owner_id, name, path, parent_path, created_at, updated_at
            FROM folders
            WHERE owner_id = $1 AND parent_path IS NULL
            ORDER BY id`, ownerID)
	} else {
		err = r.db.SelectContext(ctx, &folders, `
            SELECT id, owner_id, name, path, parent_path, created_at, updated_at
            FROM folders
            WHERE owner_id = $1 AND parent_path = $2
            ORDER BY id`, ownerID, *parentPath)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}

	return folders, nil
}

// Create вычисляет полный путь и вставляет запись. Уникальность
// (owner_id, path) обеспечивается ограничением в базе, гонка двух
// одновременных созданий одного пути разрешается на уровне Postgres.
func (r *FolderRepository) Create(ctx context.Context, folder *domain.Folder) error {
	parent := ""
	if folder.ParentPath != nil {
		parent = *folder.ParentPath
	}
	folder.Path = domain.JoinPath(parent, folder.Name)

	query := `
        INSERT INTO folders (owner_id, name, path, parent_path)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		folder.OwnerID,
		folder.Name,
		folder.Path,
		folder.ParentPath,
	).Scan(&folder.ID, &folder.CreatedAt, &folder.UpdatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return ErrFolderExists
		}
		return fmt.Errorf("failed to create folder: %w", err)
	}

	return nil
}

func (r *FolderRepository) GetByID(ctx context.Context, id int64, ownerID string) (*domain.Folder, error) {
	var folder domain.Folder
	err := r.db.GetContext(ctx, &folder, `
        SELECT id, owner_id, name, path, parent_path, created_at, updated_at
        FROM folders
        WHERE id = $1 AND owner_id = $2`, id, ownerID)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFolderNotFound
		}
		return nil, fmt.Errorf("failed to get folder: %w", err)
	}

	return &folder, nil
}

// Rename переименовывает папку и в той же транзакции переписывает
// префикс пути у всех потомков, чтобы path == parent_path + '/' + name
// оставался верным для всего поддерева. Возвращает старый и новый
// пути — вызывающий переносит блобы под новый префикс.
func (r *FolderRepository) Rename(ctx context.Context, id int64, ownerID, newName string) (oldPath, newPath string, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	folder, err := getForUpdate(ctx, tx, id, ownerID)
	if err != nil {
		return "", "", err
	}

	parent := ""
	if folder.ParentPath != nil {
		parent = *folder.ParentPath
	}

	oldPath = folder.Path
	newPath = domain.JoinPath(parent, newName)
	if newPath == oldPath {
		return oldPath, newPath, tx.Commit()
	}

	_, err = tx.ExecContext(ctx, `
        UPDATE folders
        SET name = $1, path = $2, updated_at = CURRENT_TIMESTAMP
        WHERE id = $3 AND owner_id = $4`,
		newName, newPath, id, ownerID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return "", "", ErrFolderExists
		}
		return "", "", fmt.Errorf("failed to rename folder: %w", err)
	}

	if err := rewriteSubtree(ctx, tx, ownerID, oldPath, newPath); err != nil {
		return "", "", err
	}

	if err := tx.Commit(); err != nil {
		return "", "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	return oldPath, newPath, nil
}

// Move перемещает папку под нового родителя с тем же каскадным
// переписыванием путей, что и Rename.
func (r *FolderRepository) Move(ctx context.Context, id int64, ownerID string, newParentPath *string) (oldPath, newPath string, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	folder, err := getForUpdate(ctx, tx, id, ownerID)
	if err != nil {
		return "", "", err
	}

	oldPath = folder.Path

	parent := ""
	if newParentPath != nil {
		parent = *newParentPath

		if parent == oldPath || strings.HasPrefix(parent, oldPath+"/") {
			return "", "", ErrInvalidMove
		}

		// Целевая папка должна существовать в каталоге
		var exists bool
		err = tx.GetContext(ctx, &exists,
			`SELECT EXISTS(SELECT 1 FROM folders WHERE owner_id = $1 AND path = $2)`,
			ownerID, parent)
		if err != nil {
			return "", "", fmt.Errorf("failed to check target folder: %w", err)
		}
		if !exists {
			return "", "", ErrFolderNotFound
		}
	}

	newPath = domain.JoinPath(parent, folder.Name)
	if newPath == oldPath {
		return oldPath, newPath, tx.Commit()
	}

	_, err = tx.ExecContext(ctx, `
        UPDATE folders
        SET path = $1, parent_path = $2, updated_at = CURRENT_TIMESTAMP
        WHERE id = $3 AND owner_id = $4`,
		newPath, newParentPath, id, ownerID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return "", "", ErrFolderExists
		}
		return "", "", fmt.Errorf("failed to move folder: %w", err)
	}

	if err := rewriteSubtree(ctx, tx, ownerID, oldPath, newPath); err != nil {
		return "", "", err
	}

	if err := tx.Commit(); err != nil {
		return "", "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	return oldPath, newPath, nil
}

// Delete удаляет папку вместе со всеми записями-потомками одной
// транзакцией и возвращает путь корня поддерева для очистки блобов.
func (r *FolderRepository) Delete(ctx context.Context, id int64, ownerID string) (string, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	folder, err := getForUpdate(ctx, tx, id, ownerID)
	if err != nil {
		return "", err
	}

	_, err = tx.ExecContext(ctx, `
        DELETE FROM folders
        WHERE owner_id = $1 AND (path = $2 OR path LIKE $2 || '/%')`,
		ownerID, folder.Path)
	if err != nil {
		return "", fmt.Errorf("failed to delete folder subtree: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	return folder.Path, nil
}

func getForUpdate(ctx context.Context, tx *sqlx.Tx, id int64, ownerID string) (*domain.Folder, error) {
	var folder domain.Folder
	err := tx.GetContext(ctx, &folder, `
        SELECT id, owner_id, name, path, parent_path, created_at, updated_at
        FROM folders
        WHERE id = $1 AND owner_id = $2
        FOR UPDATE`, id, ownerID)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFolderNotFound
		}
		return nil, fmt.Errorf("failed to get folder: %w", err)
	}

	return &folder, nil
}

// rewriteSubtree меняет префикс path и parent_path у всех потомков.
// У прямых детей parent_path равен старому пути целиком, у остальных
// начинается с него, поэтому обоим достаточно замены префикса.
func rewriteSubtree(ctx context.Context, tx *sqlx.Tx, ownerID, oldPath, newPath string) error {
	_, err := tx.ExecContext(ctx, `
        UPDATE folders
        SET path = $1 || substr(path, length($2) + 1),
            parent_path = $1 || substr(parent_path, length($2) + 1),
            updated_at = CURRENT_TIMESTAMP
        WHERE owner_id = $3 AND path LIKE $2 || '/%'`,
		newPath, oldPath, ownerID)
	if err != nil {
		return fmt.Errorf("failed to rewrite subtree paths: %w", err)
	}
	return nil
}
