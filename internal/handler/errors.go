package handler

import (
	"errors"
	"net/http"
	"strings"

	"famdrive/internal/service"
)

// writeServiceError переводит категорию ошибки оркестратора в HTTP
// статус. Детали бэкендов наружу не уходят.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrQuotaExceeded):
		http.Error(w, "Not enough storage space available", http.StatusRequestEntityTooLarge)
	case errors.Is(err, service.ErrNotFound):
		http.Error(w, "Item not found", http.StatusNotFound)
	case errors.Is(err, service.ErrInvalidName):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrInconsistentRename):
		http.Error(w, "Rename partially failed, refresh and retry", http.StatusInternalServerError)
	default:
		http.Error(w, "Failed to load or save data", http.StatusInternalServerError)
	}
}

// cleanRelPath нормализует путь из запроса: без ведущих и
// завершающих слешей, без пустых сегментов и переходов наверх.
func cleanRelPath(p string) (string, bool) {
	p = strings.Trim(p, "/")
	if p == "" {
		return "", true
	}

	for _, segment := range strings.Split(p, "/") {
		if segment == "" || segment == "." || segment == ".." {
			return "", false
		}
	}

	return p, true
}
