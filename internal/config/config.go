// Пакет config — загрузка и валидация конфигурации Filehub
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации Filehub.
type Config struct {
	// Порт HTTP-сервера
	Port int
	// Путь к директории хранения оригиналов
	UploadsDir string
	// Путь к директории хранения миниатюр
	ThumbnailsDir string
	// DSN PostgreSQL для каталога метаданных.
	// Пустое значение — каталог в памяти (данные живут до рестарта).
	DatabaseURL string
	// Максимальный размер одного файла в байтах
	MaxFileSize int64
	// Максимальное количество файлов в одном upload-запросе
	MaxBatchFiles int
	// Сторона ограничивающего квадрата миниатюры в пикселях
	ThumbnailMaxPx int
	// Разрешённые CORS origins
	CORSOrigins []string
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string
	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}

	// FH_PORT — порт HTTP-сервера (по умолчанию 8080)
	port, err := getEnvInt("FH_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("FH_PORT: %w", err)
	}
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("FH_PORT: значение %d вне допустимого диапазона 1-65535", port)
	}
	cfg.Port = port

	// FH_UPLOADS_DIR — обязательный
	cfg.UploadsDir, err = getEnvRequired("FH_UPLOADS_DIR")
	if err != nil {
		return nil, err
	}

	// FH_THUMBNAILS_DIR — обязательный
	cfg.ThumbnailsDir, err = getEnvRequired("FH_THUMBNAILS_DIR")
	if err != nil {
		return nil, err
	}
	if cfg.ThumbnailsDir == cfg.UploadsDir {
		return nil, fmt.Errorf("FH_THUMBNAILS_DIR: должна отличаться от FH_UPLOADS_DIR")
	}

	// FH_DATABASE_URL — DSN PostgreSQL (опционально)
	cfg.DatabaseURL = getEnvDefault("FH_DATABASE_URL", "")

	// FH_MAX_FILE_SIZE — максимальный размер файла (по умолчанию 100 MB)
	maxFileSize, err := getEnvInt64("FH_MAX_FILE_SIZE", 104857600)
	if err != nil {
		return nil, fmt.Errorf("FH_MAX_FILE_SIZE: %w", err)
	}
	if maxFileSize <= 0 {
		return nil, fmt.Errorf("FH_MAX_FILE_SIZE: значение должно быть положительным")
	}
	cfg.MaxFileSize = maxFileSize

	// FH_MAX_BATCH_FILES — максимум файлов в одном запросе (по умолчанию 20)
	maxBatch, err := getEnvInt("FH_MAX_BATCH_FILES", 20)
	if err != nil {
		return nil, fmt.Errorf("FH_MAX_BATCH_FILES: %w", err)
	}
	if maxBatch <= 0 {
		return nil, fmt.Errorf("FH_MAX_BATCH_FILES: значение должно быть положительным")
	}
	cfg.MaxBatchFiles = maxBatch

	// FH_THUMBNAIL_MAX_PX — сторона ограничивающего квадрата миниатюры (по умолчанию 300)
	thumbPx, err := getEnvInt("FH_THUMBNAIL_MAX_PX", 300)
	if err != nil {
		return nil, fmt.Errorf("FH_THUMBNAIL_MAX_PX: %w", err)
	}
	if thumbPx <= 0 {
		return nil, fmt.Errorf("FH_THUMBNAIL_MAX_PX: значение должно быть положительным")
	}
	cfg.ThumbnailMaxPx = thumbPx

	// FH_CORS_ORIGINS — разрешённые origins через запятую (по умолчанию "*")
	origins := getEnvDefault("FH_CORS_ORIGINS", "*")
	for _, o := range strings.Split(origins, ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}
	if len(cfg.CORSOrigins) == 0 {
		return nil, fmt.Errorf("FH_CORS_ORIGINS: список origins пуст")
	}

	// FH_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("FH_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("FH_LOG_LEVEL: %w", err)
	}

	// FH_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("FH_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("FH_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// FH_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("FH_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("FH_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvInt64 возвращает int64 значение переменной окружения или значение по умолчанию.
func getEnvInt64(key string, defaultVal int64) (int64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
