// download.go — отдача оригиналов и миниатюр.
package service

import (
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"

	apierrors "github.com/bigkaa/filehub/internal/api/errors"
	"github.com/bigkaa/filehub/internal/api/middleware"
	"github.com/bigkaa/filehub/internal/catalog"
	"github.com/bigkaa/filehub/internal/storage/blobstore"
	"github.com/bigkaa/filehub/internal/storage/naming"
	"github.com/bigkaa/filehub/internal/thumbnail"
)

// ServeError — ошибка отдачи файла с HTTP-кодом.
type ServeError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *ServeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// DownloadService — отдача оригиналов и миниатюр клиенту.
type DownloadService struct {
	store  *blobstore.BlobStore
	cat    catalog.Catalog
	logger *slog.Logger
}

// NewDownloadService создаёт сервис отдачи файлов.
func NewDownloadService(store *blobstore.BlobStore, cat catalog.Catalog, logger *slog.Logger) *DownloadService {
	return &DownloadService{
		store:  store,
		cat:    cat,
		logger: logger.With(slog.String("component", "download_service")),
	}
}

// ServeOriginal отдаёт оригинал файла через http.ServeContent
// с заголовком Content-Disposition, содержащим очищенное оригинальное имя.
// Отсутствие записи или blob на диске — 404 (включая гонку с удалением:
// файл, исчезнувший между lookup и открытием, деградирует в 404).
func (s *DownloadService) ServeOriginal(w http.ResponseWriter, r *http.Request, fileID int64) *ServeError {
	rec, err := s.cat.GetByID(r.Context(), fileID)
	if err != nil {
		return s.notFoundOrInternal(err, fileID)
	}

	file, err := s.store.OpenOriginalPath(rec.Path)
	if err != nil {
		if blobstore.IsNotExist(err) {
			s.logger.Warn("Оригинал отсутствует на диске",
				slog.Int64("file_id", fileID),
				slog.String("stored_name", rec.StoredName),
			)
			return &ServeError{
				StatusCode: http.StatusNotFound,
				Code:       apierrors.CodeNotFound,
				Message:    fmt.Sprintf("Файл %d отсутствует в хранилище", fileID),
			}
		}
		return &ServeError{
			StatusCode: http.StatusInternalServerError,
			Code:       apierrors.CodeInternalError,
			Message:    "Ошибка чтения файла",
		}
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return &ServeError{
			StatusCode: http.StatusInternalServerError,
			Code:       apierrors.CodeInternalError,
			Message:    "Ошибка чтения файла",
		}
	}

	downloadName := naming.SanitizeDisplayName(rec.OriginalName)
	w.Header().Set("Content-Type", contentTypeFor(rec.Type))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", downloadName))

	http.ServeContent(w, r, downloadName, stat.ModTime(), file)

	middleware.OperationsTotal.WithLabelValues("download", "success").Inc()
	s.logger.Debug("Файл отдан",
		slog.Int64("file_id", fileID),
		slog.String("filename", downloadName),
		slog.Int64("size", rec.Size),
	)
	return nil
}

// ServeThumbnail отдаёт миниатюру файла.
// Тип без миниатюр — 400, отсутствующая запись или blob — 404.
func (s *DownloadService) ServeThumbnail(w http.ResponseWriter, r *http.Request, fileID int64) *ServeError {
	rec, err := s.cat.GetByID(r.Context(), fileID)
	if err != nil {
		return s.notFoundOrInternal(err, fileID)
	}

	if !thumbnail.Eligible(rec.Type) {
		return &ServeError{
			StatusCode: http.StatusBadRequest,
			Code:       apierrors.CodeThumbnailNotAvailable,
			Message:    fmt.Sprintf("Миниатюры для типа %q не формируются", rec.Type),
		}
	}

	file, err := s.store.OpenThumbnail(rec.StoredName)
	if err != nil {
		if blobstore.IsNotExist(err) {
			return &ServeError{
				StatusCode: http.StatusNotFound,
				Code:       apierrors.CodeNotFound,
				Message:    fmt.Sprintf("Миниатюра файла %d не найдена", fileID),
			}
		}
		return &ServeError{
			StatusCode: http.StatusInternalServerError,
			Code:       apierrors.CodeInternalError,
			Message:    "Ошибка чтения миниатюры",
		}
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return &ServeError{
			StatusCode: http.StatusInternalServerError,
			Code:       apierrors.CodeInternalError,
			Message:    "Ошибка чтения миниатюры",
		}
	}

	// Миниатюры webp перекодируются в png при построении
	thumbType := rec.Type
	if thumbType == "webp" {
		thumbType = "png"
	}
	w.Header().Set("Content-Type", contentTypeFor(thumbType))

	http.ServeContent(w, r, rec.StoredName, stat.ModTime(), file)

	middleware.OperationsTotal.WithLabelValues("thumbnail_download", "success").Inc()
	return nil
}

// notFoundOrInternal транслирует ошибку каталога в ServeError.
func (s *DownloadService) notFoundOrInternal(err error, fileID int64) *ServeError {
	if errors.Is(err, catalog.ErrNotFound) {
		return &ServeError{
			StatusCode: http.StatusNotFound,
			Code:       apierrors.CodeNotFound,
			Message:    fmt.Sprintf("Файл %d не найден", fileID),
		}
	}
	s.logger.Error("Ошибка каталога",
		slog.Int64("file_id", fileID),
		slog.String("error", err.Error()),
	)
	return &ServeError{
		StatusCode: http.StatusInternalServerError,
		Code:       apierrors.CodeInternalError,
		Message:    "Ошибка каталога метаданных",
	}
}

// contentTypeFor определяет Content-Type по расширению файла.
// Неизвестное расширение — application/octet-stream.
func contentTypeFor(fileType string) string {
	if fileType == "" {
		return "application/octet-stream"
	}
	if ct := mime.TypeByExtension("." + fileType); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
