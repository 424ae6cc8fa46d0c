// delete.go — удаление файла: оригинал, миниатюра, запись каталога.
package service

import (
	"context"
	"log/slog"

	"github.com/bigkaa/filehub/internal/api/middleware"
	"github.com/bigkaa/filehub/internal/catalog"
	"github.com/bigkaa/filehub/internal/storage/blobstore"
)

// DeleteService — удаление файлов из хранилища и каталога.
type DeleteService struct {
	store  *blobstore.BlobStore
	cat    catalog.Catalog
	logger *slog.Logger
}

// NewDeleteService создаёт сервис удаления файлов.
func NewDeleteService(store *blobstore.BlobStore, cat catalog.Catalog, logger *slog.Logger) *DeleteService {
	return &DeleteService{
		store:  store,
		cat:    cat,
		logger: logger.With(slog.String("component", "delete_service")),
	}
}

// Delete удаляет файл: оригинал, миниатюру и запись каталога, в этом
// порядке. Удаление blob — best-effort: отсутствие файла на диске не
// ошибка, прочие сбои логируются и не прерывают удаление записи.
// Возвращает catalog.ErrNotFound, если записи нет.
func (s *DeleteService) Delete(ctx context.Context, fileID int64) error {
	rec, err := s.cat.GetByID(ctx, fileID)
	if err != nil {
		return err
	}

	if err := s.store.DeleteOriginalPath(rec.Path); err != nil {
		s.logger.Warn("Ошибка удаления оригинала, продолжаем",
			slog.Int64("file_id", fileID),
			slog.String("stored_name", rec.StoredName),
			slog.String("error", err.Error()),
		)
	}
	if err := s.store.DeleteThumbnail(rec.StoredName); err != nil {
		s.logger.Warn("Ошибка удаления миниатюры, продолжаем",
			slog.Int64("file_id", fileID),
			slog.String("stored_name", rec.StoredName),
			slog.String("error", err.Error()),
		)
	}

	if err := s.cat.DeleteByID(ctx, fileID); err != nil {
		return err
	}

	middleware.OperationsTotal.WithLabelValues("delete", "success").Inc()
	middleware.FilesTotal.Dec()

	s.logger.Info("Файл удалён",
		slog.Int64("file_id", fileID),
		slog.String("stored_name", rec.StoredName),
	)
	return nil
}
