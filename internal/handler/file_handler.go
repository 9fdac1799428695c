package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"famdrive/internal/auth"
	"famdrive/internal/domain"
	"famdrive/internal/service"
)

// maxUploadMemory — лимит памяти под разбор multipart-формы
const maxUploadMemory = 32 << 20

type FileHandler struct {
	driveService *service.DriveService
	fsService    *service.FileSystemService
}

func NewFileHandler(driveService *service.DriveService, fsService *service.FileSystemService) *FileHandler {
	return &FileHandler{
		driveService: driveService,
		fsService:    fsService,
	}
}

// ListFiles отдаёт объединённый список папок и файлов пути.
func (h *FileHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	ownerID, err := auth.VerifyToken(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	path, ok := cleanRelPath(r.URL.Query().Get("path"))
	if !ok {
		http.Error(w, "Invalid path", http.StatusBadRequest)
		return
	}

	entries, err := h.fsService.List(r.Context(), ownerID, path)
	if err != nil {
		log.Printf("Error listing %s for %s: %v", path, ownerID, err)
		writeServiceError(w, err)
		return
	}

	response := struct {
		Path    string         `json:"path"`
		Entries []domain.Entry `json:"entries"`
	}{
		Path:    path,
		Entries: entries,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// UploadFiles принимает multipart-пакет файлов в поле "files".
func (h *FileHandler) UploadFiles(w http.ResponseWriter, r *http.Request) {
	ownerID, err := auth.VerifyToken(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	path, ok := cleanRelPath(r.URL.Query().Get("path"))
	if !ok {
		http.Error(w, "Invalid path", http.StatusBadRequest)
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		http.Error(w, "No files provided", http.StatusBadRequest)
		return
	}

	uploads := make([]domain.FileUpload, 0, len(headers))
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to read file %s", header.Filename), http.StatusBadRequest)
			return
		}

		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to read file %s", header.Filename), http.StatusBadRequest)
			return
		}

		uploads = append(uploads, domain.FileUpload{
			Name: header.Filename,
			Data: data,
		})
	}

	result, err := h.driveService.UploadBatch(r.Context(), ownerID, path, uploads)
	if err != nil {
		log.Printf("Upload batch rejected for %s: %v", ownerID, err)
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(result)
}

// DownloadFile отдаёт содержимое файла потоком.
func (h *FileHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	ownerID, err := auth.VerifyToken(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	path, ok := cleanRelPath(r.URL.Query().Get("path"))
	if !ok || path == "" {
		http.Error(w, "Invalid path", http.StatusBadRequest)
		return
	}

	obj, name, err := h.driveService.DownloadFile(r.Context(), ownerID, path)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	defer obj.Close()

	contentType := obj.ContentType()
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if obj.ContentLength() > 0 {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", obj.ContentLength()))
	}

	if _, err := io.Copy(w, obj); err != nil {
		log.Printf("Error streaming %s to client: %v", path, err)
	}
}

// DeleteFile удаляет файл; размер нужен для возврата байтов квоте.
func (h *FileHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	ownerID, err := auth.VerifyToken(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		Path      string `json:"path"`
		SizeBytes int64  `json:"size_bytes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	path, ok := cleanRelPath(req.Path)
	if !ok || path == "" {
		http.Error(w, "Invalid path", http.StatusBadRequest)
		return
	}

	if err := h.driveService.DeleteFile(r.Context(), ownerID, path, req.SizeBytes); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// RenameFile переименовывает файл в пределах его каталога.
func (h *FileHandler) RenameFile(w http.ResponseWriter, r *http.Request) {
	ownerID, err := auth.VerifyToken(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		Path    string `json:"path"`
		NewName string `json:"new_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	path, ok := cleanRelPath(req.Path)
	if !ok || path == "" {
		http.Error(w, "Invalid path", http.StatusBadRequest)
		return
	}

	if err := h.driveService.RenameFile(r.Context(), ownerID, path, req.NewName); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// MoveFile переносит файл в другой каталог.
func (h *FileHandler) MoveFile(w http.ResponseWriter, r *http.Request) {
	ownerID, err := auth.VerifyToken(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		Path          string `json:"path"`
		NewParentPath string `json:"new_parent_path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	path, ok := cleanRelPath(req.Path)
	if !ok || path == "" {
		http.Error(w, "Invalid path", http.StatusBadRequest)
		return
	}

	newParent, ok := cleanRelPath(req.NewParentPath)
	if !ok {
		http.Error(w, "Invalid target path", http.StatusBadRequest)
		return
	}

	if err := h.driveService.MoveFile(r.Context(), ownerID, path, newParent); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}
