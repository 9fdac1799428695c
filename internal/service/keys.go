package service

import (
	"famdrive/internal/domain"
	"famdrive/internal/service/s3"
)

// Ключи объектного хранилища строятся как {owner}/{path}/{name}.
// Пути без ведущего и завершающего слеша, корень — пустая строка.

func objectKey(ownerID, path, name string) string {
	return ownerID + "/" + domain.JoinPath(path, name)
}

// objectPrefix возвращает префикс уровня каталога, со слешем на конце.
func objectPrefix(ownerID, path string) string {
	if path == "" {
		return ownerID + "/"
	}
	return ownerID + "/" + path + "/"
}

func markerKey(ownerID, folderPath string) string {
	return objectKey(ownerID, folderPath, s3.MarkerObject)
}
