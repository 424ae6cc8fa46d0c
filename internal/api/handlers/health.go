// health.go — обработчики health endpoints для Kubernetes probes.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/bigkaa/filehub/internal/config"
)

// statusFail — строковая константа для статуса "fail" в health checks.
const statusFail = "fail"

// CatalogPinger — интерфейс проверки доступности каталога метаданных.
type CatalogPinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler реализует health endpoints: /health/live, /health/ready.
type HealthHandler struct {
	version string
	// uploadsDir — директория оригиналов (проверка записи)
	uploadsDir string
	// thumbnailsDir — директория миниатюр (проверка записи)
	thumbnailsDir string
	// cat — каталог метаданных (ping)
	cat CatalogPinger
}

// NewHealthHandler создаёт обработчик health endpoints.
func NewHealthHandler(uploadsDir, thumbnailsDir string, cat CatalogPinger) *HealthHandler {
	return &HealthHandler{
		version:       config.Version,
		uploadsDir:    uploadsDir,
		thumbnailsDir: thumbnailsDir,
		cat:           cat,
	}
}

// HealthLive обрабатывает GET /health/live.
// Возвращает 200, если процесс жив. Не проверяет зависимости.
func (h *HealthHandler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	resp := map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   h.version,
		"service":   "filehub",
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

// HealthReady обрабатывает GET /health/ready.
// Проверяет: директории хранения на запись, доступность каталога.
func (h *HealthHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	overallStatus := "ok"
	httpStatus := http.StatusOK

	uploadsCheck := checkWritableDir(h.uploadsDir)
	if uploadsCheck["status"] != "ok" {
		overallStatus = statusFail
		httpStatus = http.StatusServiceUnavailable
	}

	thumbnailsCheck := checkWritableDir(h.thumbnailsDir)
	if thumbnailsCheck["status"] != "ok" {
		overallStatus = statusFail
		httpStatus = http.StatusServiceUnavailable
	}

	catalogCheck := h.checkCatalog(r.Context())
	if catalogCheck["status"] != "ok" {
		overallStatus = statusFail
		httpStatus = http.StatusServiceUnavailable
	}

	resp := map[string]any{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   h.version,
		"service":   "filehub",
		"checks": map[string]any{
			"uploads_dir":    uploadsCheck,
			"thumbnails_dir": thumbnailsCheck,
			"catalog":        catalogCheck,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(resp)
}

// checkWritableDir проверяет доступность директории на запись.
func checkWritableDir(dir string) map[string]any {
	testFile := filepath.Join(dir, ".health_check")
	if err := os.WriteFile(testFile, []byte("ok"), 0o600); err != nil {
		return map[string]any{
			"status":  statusFail,
			"message": "Директория недоступна для записи: " + err.Error(),
		}
	}
	_ = os.Remove(testFile)

	return map[string]any{
		"status": "ok",
	}
}

// checkCatalog проверяет доступность каталога метаданных.
func (h *HealthHandler) checkCatalog(ctx context.Context) map[string]any {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := h.cat.Ping(ctx); err != nil {
		return map[string]any{
			"status":  statusFail,
			"message": "Каталог недоступен: " + err.Error(),
		}
	}
	return map[string]any{
		"status": "ok",
	}
}
