// main.go — точка входа Filehub: сервис хранения файлов с миниатюрами.
// Порядок инициализации: config → logger → каталог → blob store →
// сервисы → HTTP-сервер.
package main

import (
	"context"
	"log"
	"log/slog"

	"github.com/bigkaa/filehub/internal/api/handlers"
	"github.com/bigkaa/filehub/internal/catalog"
	"github.com/bigkaa/filehub/internal/config"
	"github.com/bigkaa/filehub/internal/server"
	"github.com/bigkaa/filehub/internal/service"
	"github.com/bigkaa/filehub/internal/storage/blobstore"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	// 2. Настройка логгера
	logger := config.SetupLogger(cfg)
	logger.Info("Filehub запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("uploads_dir", cfg.UploadsDir),
		slog.String("thumbnails_dir", cfg.ThumbnailsDir),
	)

	// 3. Каталог метаданных: PostgreSQL или in-memory.
	// Таблица пересоздаётся при старте — метаданные не переживают рестарт.
	var cat catalog.Catalog
	if cfg.DatabaseURL != "" {
		pg, err := catalog.NewPostgres(context.Background(), cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Ошибка инициализации каталога PostgreSQL: %v", err)
		}
		cat = pg
		logger.Info("Каталог метаданных: PostgreSQL")
	} else {
		cat = catalog.NewMemory()
		logger.Warn("FH_DATABASE_URL не задан, каталог метаданных в памяти")
	}
	defer cat.Close()

	// 4. Blob store: директории оригиналов и миниатюр
	store, err := blobstore.New(cfg.UploadsDir, cfg.ThumbnailsDir)
	if err != nil {
		log.Fatalf("Ошибка инициализации blob store: %v", err)
	}

	// 5. Сервисы
	uploadSvc := service.NewUploadService(store, cat, cfg.ThumbnailMaxPx, logger)
	downloadSvc := service.NewDownloadService(store, cat, logger)
	deleteSvc := service.NewDeleteService(store, cat, logger)

	// 6. Handlers
	filesHandler := handlers.NewFilesHandler(cfg, uploadSvc, downloadSvc, deleteSvc, cat, logger)
	healthHandler := handlers.NewHealthHandler(cfg.UploadsDir, cfg.ThumbnailsDir, cat)

	// 7. Запуск сервера (блокирующий вызов с graceful shutdown)
	srv := server.New(cfg, logger, filesHandler, healthHandler)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		log.Fatalf("Сервер завершился с ошибкой: %v", err)
	}

	logger.Info("Filehub остановлен")
}
