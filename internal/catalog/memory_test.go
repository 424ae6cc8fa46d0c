package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bigkaa/filehub/internal/domain/model"
)

func newRecord(name string) *model.FileRecord {
	return &model.FileRecord{
		OriginalName: name,
		StoredName:   "1756600000000_a1b2c3d4.jpg",
		Path:         "/data/uploads/1756600000000_a1b2c3d4.jpg",
		Type:         "jpg",
		Size:         1024,
	}
}

// TestMemory_Insert проверяет присвоение id и времени загрузки.
func TestMemory_Insert(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	rec := newRecord("photo.jpg")
	id, err := c.Insert(ctx, rec)
	if err != nil {
		t.Fatalf("ошибка вставки: %v", err)
	}

	if id != 1 {
		t.Errorf("первый id: ожидалось 1, получено %d", id)
	}
	if rec.ID != id {
		t.Errorf("id должен быть записан в запись: %d != %d", rec.ID, id)
	}
	if rec.UploadedAt.IsZero() {
		t.Error("UploadedAt должно присваиваться при вставке")
	}
}

// TestMemory_IDsMonotonic проверяет монотонность id и отсутствие переиспользования.
func TestMemory_IDsMonotonic(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	id1, _ := c.Insert(ctx, newRecord("a.jpg"))
	id2, _ := c.Insert(ctx, newRecord("b.jpg"))
	if id2 <= id1 {
		t.Errorf("id должны возрастать: %d, %d", id1, id2)
	}

	if err := c.DeleteByID(ctx, id2); err != nil {
		t.Fatalf("ошибка удаления: %v", err)
	}

	id3, _ := c.Insert(ctx, newRecord("c.jpg"))
	if id3 <= id2 {
		t.Errorf("удалённый id не должен переиспользоваться: %d после %d", id3, id2)
	}
}

// TestMemory_GetByID проверяет получение записи и ErrNotFound.
func TestMemory_GetByID(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	id, _ := c.Insert(ctx, newRecord("photo.jpg"))

	rec, err := c.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("ошибка получения: %v", err)
	}
	if rec.OriginalName != "photo.jpg" {
		t.Errorf("OriginalName: ожидалось photo.jpg, получено %q", rec.OriginalName)
	}

	if _, err := c.GetByID(ctx, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("ожидался ErrNotFound, получено %v", err)
	}
}

// TestMemory_ListAll_Order проверяет порядок: новые первыми,
// стабильный tie-break по порядку вставки.
func TestMemory_ListAll_Order(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	id1, _ := c.Insert(ctx, newRecord("older.jpg"))
	time.Sleep(5 * time.Millisecond)
	id2, _ := c.Insert(ctx, newRecord("newer.jpg"))

	list, err := c.ListAll(ctx)
	if err != nil {
		t.Fatalf("ошибка листинга: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("ожидалось 2 записи, получено %d", len(list))
	}
	if list[0].ID != id2 || list[1].ID != id1 {
		t.Errorf("ожидался порядок [%d, %d], получено [%d, %d]", id2, id1, list[0].ID, list[1].ID)
	}
}

// TestMemory_DeleteByID проверяет удаление и повторное удаление.
func TestMemory_DeleteByID(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	id, _ := c.Insert(ctx, newRecord("photo.jpg"))

	if err := c.DeleteByID(ctx, id); err != nil {
		t.Fatalf("ошибка удаления: %v", err)
	}
	if err := c.DeleteByID(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("повторное удаление: ожидался ErrNotFound, получено %v", err)
	}
	if _, err := c.GetByID(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("запись должна отсутствовать после удаления: %v", err)
	}

	list, _ := c.ListAll(ctx)
	if len(list) != 0 {
		t.Errorf("листинг после удаления должен быть пуст: %d записей", len(list))
	}
}

// TestMemory_InsertReturnsCopy проверяет, что изменение исходной записи
// после вставки не влияет на каталог.
func TestMemory_InsertReturnsCopy(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	rec := newRecord("photo.jpg")
	id, _ := c.Insert(ctx, rec)

	rec.OriginalName = "изменено.jpg"

	stored, _ := c.GetByID(ctx, id)
	if stored.OriginalName != "photo.jpg" {
		t.Errorf("каталог не должен видеть изменения извне: %q", stored.OriginalName)
	}
}
