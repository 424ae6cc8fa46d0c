// Пакет catalog — каталог метаданных загруженных файлов.
// Источник истины для листинга и поиска: запись в каталоге существует
// тогда и только тогда, когда запись оригинала на диск завершилась успешно.
//
// Две реализации: PostgreSQL (pgx) и in-memory. Обе гарантируют
// монотонные уникальные id и стабильный порядок листинга.
package catalog

import (
	"context"
	"errors"

	"github.com/bigkaa/filehub/internal/domain/model"
)

// ErrNotFound — запись не найдена.
var ErrNotFound = errors.New("запись не найдена")

// Catalog — интерфейс каталога метаданных.
// Записи неизменяемы: только вставка, чтение и удаление.
type Catalog interface {
	// Insert вставляет запись, присваивает id и серверное время загрузки.
	// Возвращает присвоенный id.
	Insert(ctx context.Context, rec *model.FileRecord) (int64, error)
	// ListAll возвращает все записи: новые первыми, при равном времени
	// загрузки — в порядке вставки.
	ListAll(ctx context.Context) ([]*model.FileRecord, error)
	// GetByID возвращает запись по id или ErrNotFound.
	GetByID(ctx context.Context, id int64) (*model.FileRecord, error)
	// DeleteByID удаляет запись по id. Возвращает ErrNotFound,
	// если записи нет.
	DeleteByID(ctx context.Context, id int64) error
	// Ping проверяет доступность каталога (для readiness probe).
	Ping(ctx context.Context) error
	// Close освобождает ресурсы каталога.
	Close()
}
