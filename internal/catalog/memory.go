// memory.go — каталог метаданных в памяти.
// Используется в тестах и при пустом FH_DATABASE_URL. Семантика
// совпадает с PostgreSQL-реализацией: монотонные id, стабильный
// порядок листинга.
package catalog

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/bigkaa/filehub/internal/domain/model"
)

// Memory — каталог метаданных в памяти процесса.
type Memory struct {
	mu      sync.RWMutex
	nextID  int64
	records map[int64]*model.FileRecord
	// order — id в порядке вставки, для стабильного tie-break листинга
	order []int64
}

// NewMemory создаёт пустой каталог в памяти.
func NewMemory() *Memory {
	return &Memory{
		nextID:  1,
		records: make(map[int64]*model.FileRecord),
	}
}

// Insert вставляет запись, присваивает id и время загрузки.
func (c *Memory) Insert(_ context.Context, rec *model.FileRecord) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := *rec
	stored.ID = c.nextID
	stored.UploadedAt = time.Now().UTC()
	c.nextID++

	c.records[stored.ID] = &stored
	c.order = append(c.order, stored.ID)

	rec.ID = stored.ID
	rec.UploadedAt = stored.UploadedAt
	return stored.ID, nil
}

// ListAll возвращает копии всех записей: новые первыми, при равном
// времени загрузки — в порядке вставки.
func (c *Memory) ListAll(_ context.Context) ([]*model.FileRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]*model.FileRecord, 0, len(c.order))
	for _, id := range c.order {
		rec := *c.records[id]
		result = append(result, &rec)
	}

	// Стабильная сортировка сохраняет порядок вставки при равном времени
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].UploadedAt.After(result[j].UploadedAt)
	})
	return result, nil
}

// GetByID возвращает копию записи по id или ErrNotFound.
func (c *Memory) GetByID(_ context.Context, id int64) (*model.FileRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rec, ok := c.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

// DeleteByID удаляет запись по id или возвращает ErrNotFound.
// Удалённый id никогда не переиспользуется.
func (c *Memory) DeleteByID(_ context.Context, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.records[id]; !ok {
		return ErrNotFound
	}
	delete(c.records, id)
	for i, oid := range c.order {
		if oid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

// Ping каталога в памяти всегда успешен.
func (c *Memory) Ping(_ context.Context) error {
	return nil
}

// Close для каталога в памяти — no-op.
func (c *Memory) Close() {}

// Проверка на этапе компиляции
var _ Catalog = (*Memory)(nil)
