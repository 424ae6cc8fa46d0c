// Пакет service — бизнес-логика Filehub.
// upload.go — конвейер загрузки: имя хранения → запись оригинала →
// миниатюра → вставка в каталог, с изоляцией пофайловых сбоев.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bigkaa/filehub/internal/api/middleware"
	"github.com/bigkaa/filehub/internal/catalog"
	"github.com/bigkaa/filehub/internal/domain/model"
	"github.com/bigkaa/filehub/internal/storage/blobstore"
	"github.com/bigkaa/filehub/internal/storage/naming"
	"github.com/bigkaa/filehub/internal/thumbnail"
)

// maxConcurrentFiles — ограничение параллельной обработки файлов батча.
const maxConcurrentFiles = 4

// UploadFile — один файл из upload-запроса.
type UploadFile struct {
	// Name — оригинальное имя файла от клиента (недоверенное)
	Name string
	// Size — заявленный размер в байтах
	Size int64
	// Open открывает поток содержимого файла
	Open func() (io.ReadCloser, error)
}

// FileResult — пофайловый результат загрузки: либо дескриптор успеха
// {id, name, type, size, url, thumbnailUrl}, либо дескриптор сбоя
// {name, error}. Сбой одного файла не влияет на остальные.
type FileResult struct {
	ID           int64
	Name         string
	Type         string
	Size         int64
	URL          string
	ThumbnailURL string
	Err          string
}

// Failed сообщает, является ли результат дескриптором сбоя.
func (r FileResult) Failed() bool {
	return r.Err != ""
}

// MarshalJSON сериализует дескриптор в формат ответа API.
// Сбой: {"name", "error"}. Успех: все поля, thumbnailUrl — null,
// если миниатюра не создана.
func (r FileResult) MarshalJSON() ([]byte, error) {
	if r.Failed() {
		return json.Marshal(struct {
			Name  string `json:"name"`
			Error string `json:"error"`
		}{Name: r.Name, Error: r.Err})
	}

	var thumbnailURL *string
	if r.ThumbnailURL != "" {
		thumbnailURL = &r.ThumbnailURL
	}
	return json.Marshal(struct {
		ID           int64   `json:"id"`
		Name         string  `json:"name"`
		Type         string  `json:"type"`
		Size         int64   `json:"size"`
		URL          string  `json:"url"`
		ThumbnailURL *string `json:"thumbnailUrl"`
	}{
		ID:           r.ID,
		Name:         r.Name,
		Type:         r.Type,
		Size:         r.Size,
		URL:          r.URL,
		ThumbnailURL: thumbnailURL,
	})
}

// UploadService — конвейер загрузки файлов.
type UploadService struct {
	store          *blobstore.BlobStore
	cat            catalog.Catalog
	thumbnailMaxPx int
	logger         *slog.Logger
}

// NewUploadService создаёт конвейер загрузки.
func NewUploadService(
	store *blobstore.BlobStore,
	cat catalog.Catalog,
	thumbnailMaxPx int,
	logger *slog.Logger,
) *UploadService {
	return &UploadService{
		store:          store,
		cat:            cat,
		thumbnailMaxPx: thumbnailMaxPx,
		logger:         logger.With(slog.String("component", "upload_service")),
	}
}

// Upload обрабатывает батч файлов и возвращает пофайловые результаты
// в порядке входного списка.
//
// Файлы обрабатываются независимо (ограниченный параллелизм), внутри
// файла шаги строго последовательны:
//  1. Генерация имени хранения
//  2. Запись оригинала на диск (сбой — дескриптор сбоя, дальше не идём)
//  3. Миниатюра для растровых типов (сбой изолируется: WARN в лог,
//     thumbnailUrl останется null)
//  4. Вставка записи в каталог (сбой — дескриптор сбоя; blob остаётся
//     на диске осиротевшим, это допустимо)
func (s *UploadService) Upload(ctx context.Context, files []UploadFile) []FileResult {
	results := make([]FileResult, len(files))

	g := new(errgroup.Group)
	g.SetLimit(maxConcurrentFiles)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			results[i] = s.processFile(ctx, f)
			return nil
		})
	}
	// processFile не возвращает ошибок: все сбои уходят в дескрипторы
	_ = g.Wait()

	return results
}

// processFile выполняет конвейер для одного файла.
func (s *UploadService) processFile(ctx context.Context, f UploadFile) FileResult {
	displayName := naming.SanitizeDisplayName(f.Name)
	fileType := naming.Ext(f.Name)
	storedName := naming.StoredName(f.Name, time.Now())

	// 1. Запись оригинала на диск
	reader, err := f.Open()
	if err != nil {
		s.logger.Error("Ошибка открытия загружаемого файла",
			slog.String("filename", displayName),
			slog.String("error", err.Error()),
		)
		middleware.OperationsTotal.WithLabelValues("upload", "error").Inc()
		return FileResult{Name: f.Name, Err: "ошибка чтения загружаемого файла"}
	}

	saved, err := s.store.WriteOriginal(storedName, reader)
	reader.Close()
	if err != nil {
		s.logger.Error("Ошибка сохранения файла на диск",
			slog.String("filename", displayName),
			slog.String("stored_name", storedName),
			slog.String("error", err.Error()),
		)
		middleware.OperationsTotal.WithLabelValues("upload", "error").Inc()
		return FileResult{Name: f.Name, Err: "ошибка сохранения файла на диск"}
	}

	// 2. Миниатюра для растровых типов. Сбой построения или записи
	// миниатюры не прерывает обработку файла: оригинал уже на диске,
	// запись в каталог обязана состояться.
	hasThumbnail := false
	if thumbnail.Eligible(fileType) {
		if thumbErr := s.deriveThumbnail(saved.FullPath, storedName, fileType); thumbErr != nil {
			s.logger.Warn("Миниатюра не создана, файл будет без превью",
				slog.String("filename", displayName),
				slog.String("stored_name", storedName),
				slog.String("error", thumbErr.Error()),
			)
			middleware.OperationsTotal.WithLabelValues("thumbnail", "error").Inc()
		} else {
			hasThumbnail = true
			middleware.OperationsTotal.WithLabelValues("thumbnail", "success").Inc()
		}
	}

	// 3. Вставка записи в каталог — строго после успешной записи blob.
	// При сбое оригинал и миниатюра остаются на диске осиротевшими.
	rec := &model.FileRecord{
		OriginalName: f.Name,
		StoredName:   storedName,
		Path:         saved.FullPath,
		Type:         fileType,
		Size:         saved.Size,
	}
	id, err := s.cat.Insert(ctx, rec)
	if err != nil {
		s.logger.Error("Ошибка вставки записи в каталог",
			slog.String("filename", displayName),
			slog.String("stored_name", storedName),
			slog.String("error", err.Error()),
		)
		middleware.OperationsTotal.WithLabelValues("upload", "error").Inc()
		return FileResult{Name: f.Name, Err: "ошибка записи метаданных"}
	}

	middleware.OperationsTotal.WithLabelValues("upload", "success").Inc()
	middleware.FilesTotal.Inc()

	s.logger.Info("Файл загружен",
		slog.Int64("file_id", id),
		slog.String("filename", displayName),
		slog.String("stored_name", storedName),
		slog.String("type", fileType),
		slog.Int64("size", saved.Size),
		slog.Bool("thumbnail", hasThumbnail),
	)

	result := FileResult{
		ID:   id,
		Name: f.Name,
		Type: fileType,
		Size: saved.Size,
		URL:  fmt.Sprintf("/files/%d", id),
	}
	if hasThumbnail {
		result.ThumbnailURL = fmt.Sprintf("/thumbnails/%d", id)
	}
	return result
}

// deriveThumbnail строит миниатюру оригинала и записывает её на диск.
func (s *UploadService) deriveThumbnail(originalPath, storedName, fileType string) error {
	data, err := thumbnail.Derive(originalPath, fileType, s.thumbnailMaxPx)
	if err != nil {
		return err
	}
	if _, err := s.store.WriteThumbnail(storedName, data); err != nil {
		return err
	}
	return nil
}
