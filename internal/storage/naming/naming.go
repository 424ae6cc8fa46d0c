// Пакет naming — генерация имён файлов для хранения и санитизация
// пользовательских имён.
package naming

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Ext возвращает расширение имени файла: в нижнем регистре, без ведущей
// точки. Для имени без расширения возвращает пустую строку.
func Ext(filename string) string {
	ext := filepath.Ext(filename)
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// StoredName генерирует имя файла для хранения на диске.
// Формат: {millisecond-epoch}_{uuid8}.{ext}
// Пример: 1756600000123_a1b2c3d4.jpg
//
// Короткий UUID защищает от коллизий при одновременных загрузках
// в пределах одной миллисекунды. Файл без расширения получает имя
// с точкой на конце.
func StoredName(filename string, now time.Time) string {
	ts := now.UnixMilli()
	uid := uuid.New().String()[:8]
	return fmt.Sprintf("%d_%s.%s", ts, uid, Ext(filename))
}

// SanitizeDisplayName очищает пользовательское имя файла перед
// использованием в заголовке Content-Disposition или в логах.
// Убирает разделители путей, управляющие символы и кавычки.
// Пустой результат заменяется на "file".
func SanitizeDisplayName(name string) string {
	// Отбрасываем компоненты пути: клиент мог прислать ../../etc/passwd
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == ".." || name == "/" {
		return "file"
	}

	var result strings.Builder
	for _, r := range name {
		if r < 0x20 || r == 0x7F || r == '"' {
			continue
		}
		result.WriteRune(r)
	}
	if result.Len() == 0 {
		return "file"
	}
	return result.String()
}
