package domain

import "time"

// Folder представляет запись каталога в реляционном хранилище.
// Папки существуют независимо от объектного хранилища: плоское
// S3-пространство ключей не умеет хранить пустые директории.
type Folder struct {
	ID         int64     `json:"id" db:"id"`
	OwnerID    string    `json:"owner_id" db:"owner_id"`
	Name       string    `json:"name" db:"name"`
	Path       string    `json:"path" db:"path"`
	ParentPath *string   `json:"parent_path,omitempty" db:"parent_path"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// IsRoot возвращает true, если папка лежит в корне владельца.
func (f *Folder) IsRoot() bool {
	return f.ParentPath == nil
}

// JoinPath собирает полный путь папки или файла: пути хранятся
// без ведущего и завершающего слеша, корень — пустая строка.
func JoinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}

// SplitPath разбивает полный путь на родительский путь и имя.
func SplitPath(path string) (parent, name string) {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i], path[i+1:]
		}
	}
	return "", path
}
