// files.go — HTTP handlers файловых операций Filehub.
// Upload, List, Download, Thumbnail, Delete.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/filehub/internal/api/errors"
	"github.com/bigkaa/filehub/internal/catalog"
	"github.com/bigkaa/filehub/internal/config"
	"github.com/bigkaa/filehub/internal/service"
	"github.com/bigkaa/filehub/internal/thumbnail"
)

// multipartMemoryLimit — объём буферизации multipart form в памяти,
// остальное уходит во временные файлы.
const multipartMemoryLimit = 32 << 20 // 32 MB

// FilesHandler — обработчик файловых endpoints.
type FilesHandler struct {
	cfg         *config.Config
	uploadSvc   *service.UploadService
	downloadSvc *service.DownloadService
	deleteSvc   *service.DeleteService
	cat         catalog.Catalog
	logger      *slog.Logger
}

// NewFilesHandler создаёт обработчик файловых endpoints.
func NewFilesHandler(
	cfg *config.Config,
	uploadSvc *service.UploadService,
	downloadSvc *service.DownloadService,
	deleteSvc *service.DeleteService,
	cat catalog.Catalog,
	logger *slog.Logger,
) *FilesHandler {
	return &FilesHandler{
		cfg:         cfg,
		uploadSvc:   uploadSvc,
		downloadSvc: downloadSvc,
		deleteSvc:   deleteSvc,
		cat:         cat,
		logger:      logger.With(slog.String("component", "files_handler")),
	}
}

// uploadResponse — конверт ответа POST /upload.
// Всегда success=true при штатном завершении: пофайловые сбои лежат
// внутри results и не меняют статус ответа.
type uploadResponse struct {
	Success bool                 `json:"success"`
	Results []service.FileResult `json:"results"`
}

// listItem — элемент ответа GET /files.
type listItem struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	Size         int64   `json:"size"`
	ThumbnailURL *string `json:"thumbnailUrl"`
}

// Upload обрабатывает POST /upload.
// Multipart form, поле files (один или несколько файлов; поле file
// тоже принимается). Пустой батч — 400, файл сверх лимита размера — 413.
func (h *FilesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	// Ограничение тела запроса: батч файлов + запас на заголовки формы
	maxBody := h.cfg.MaxFileSize*int64(h.cfg.MaxBatchFiles) + multipartMemoryLimit
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)

	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			apierrors.FileTooLarge(w, "Тело запроса превышает допустимый размер")
			return
		}
		apierrors.ValidationError(w, fmt.Sprintf("Ошибка парсинга multipart: %s", err.Error()))
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	headers := h.batchHeaders(r)
	if len(headers) == 0 {
		apierrors.ValidationError(w, "Не переданы файлы для загрузки")
		return
	}
	if len(headers) > h.cfg.MaxBatchFiles {
		apierrors.ValidationError(w,
			fmt.Sprintf("Количество файлов %d превышает максимум %d", len(headers), h.cfg.MaxBatchFiles))
		return
	}

	// Лимит размера файла проверяется транспортным слоем до конвейера
	for _, fh := range headers {
		if fh.Size > h.cfg.MaxFileSize {
			apierrors.FileTooLarge(w,
				fmt.Sprintf("Размер файла %d байт превышает максимум %d байт", fh.Size, h.cfg.MaxFileSize))
			return
		}
	}

	files := make([]service.UploadFile, 0, len(headers))
	for _, fh := range headers {
		files = append(files, service.UploadFile{
			Name: fh.Filename,
			Size: fh.Size,
			Open: func() (io.ReadCloser, error) { return fh.Open() },
		})
	}

	results := h.uploadSvc.Upload(r.Context(), files)

	writeJSON(w, http.StatusOK, uploadResponse{
		Success: true,
		Results: results,
	})
}

// batchHeaders извлекает заголовки файлов из multipart form.
// Основное поле — files, одиночное поле file принимается для
// совместимости с простыми клиентами.
func (h *FilesHandler) batchHeaders(r *http.Request) []*multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	if headers := r.MultipartForm.File["files"]; len(headers) > 0 {
		return headers
	}
	return r.MultipartForm.File["file"]
}

// List обрабатывает GET /files.
// Возвращает все записи каталога: новые первыми. thumbnailUrl
// проставляется по типу файла, не по фактическому наличию миниатюры
// на диске — отсутствие обнаружится при обращении по ссылке.
func (h *FilesHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.cat.ListAll(r.Context())
	if err != nil {
		h.logger.Error("Ошибка листинга каталога", slog.String("error", err.Error()))
		apierrors.InternalError(w, "Ошибка каталога метаданных")
		return
	}

	items := make([]listItem, 0, len(records))
	for _, rec := range records {
		item := listItem{
			ID:   rec.ID,
			Name: rec.OriginalName,
			Type: rec.Type,
			Size: rec.Size,
		}
		if thumbnail.Eligible(rec.Type) {
			url := fmt.Sprintf("/thumbnails/%d", rec.ID)
			item.ThumbnailURL = &url
		}
		items = append(items, item)
	}

	writeJSON(w, http.StatusOK, items)
}

// GetFile обрабатывает GET /files/{id}.
// Отдаёт оригинал с оригинальным именем в Content-Disposition.
func (h *FilesHandler) GetFile(w http.ResponseWriter, r *http.Request) {
	fileID, ok := h.fileIDParam(w, r)
	if !ok {
		return
	}
	if serveErr := h.downloadSvc.ServeOriginal(w, r, fileID); serveErr != nil {
		apierrors.WriteError(w, serveErr.StatusCode, serveErr.Code, serveErr.Message)
	}
}

// GetThumbnail обрабатывает GET /thumbnails/{id}.
// 400 для типа без миниатюр, 404 при отсутствии записи или файла.
func (h *FilesHandler) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	fileID, ok := h.fileIDParam(w, r)
	if !ok {
		return
	}
	if serveErr := h.downloadSvc.ServeThumbnail(w, r, fileID); serveErr != nil {
		apierrors.WriteError(w, serveErr.StatusCode, serveErr.Code, serveErr.Message)
	}
}

// DeleteFile обрабатывает DELETE /files/{id}.
func (h *FilesHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	fileID, ok := h.fileIDParam(w, r)
	if !ok {
		return
	}

	if err := h.deleteSvc.Delete(r.Context(), fileID); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			apierrors.NotFound(w, fmt.Sprintf("Файл %d не найден", fileID))
			return
		}
		h.logger.Error("Ошибка удаления файла",
			slog.Int64("file_id", fileID),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Ошибка удаления файла")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// fileIDParam извлекает числовой id из пути.
// Нечисловой id неотличим от несуществующего ресурса — 404.
func (h *FilesHandler) fileIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		apierrors.NotFound(w, fmt.Sprintf("Файл %q не найден", raw))
		return 0, false
	}
	return id, true
}

// writeJSON вспомогательная функция для записи JSON-ответа.
func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}
