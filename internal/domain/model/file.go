// Пакет model — доменные модели Filehub.
// FileRecord — маппинг таблицы files каталога метаданных.
package model

import "time"

// Поддерживаемые растровые типы, для которых формируется миниатюра.
var rasterTypes = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"gif":  true,
	"webp": true,
}

// IsRasterType сообщает, относится ли расширение (без точки, в нижнем
// регистре) к поддерживаемым растровым типам.
func IsRasterType(fileType string) bool {
	return rasterTypes[fileType]
}

// FileRecord — запись файла в каталоге метаданных.
// Записи неизменяемы после вставки: обновлений нет, только удаление.
type FileRecord struct {
	// ID — уникальный идентификатор, присваивается каталогом монотонно,
	// никогда не переиспользуется
	ID int64
	// OriginalName — имя файла, переданное клиентом; недоверенное,
	// используется только для отображения и имени при скачивании
	OriginalName string
	// StoredName — имя файла на диске, присваивается сервером
	StoredName string
	// Path — абсолютный путь оригинала на диске
	Path string
	// Type — расширение в нижнем регистре без точки; определяет
	// право файла на миниатюру
	Type string
	// Size — размер оригинала в байтах на момент загрузки
	Size int64
	// UploadedAt — время вставки записи, присваивается каталогом
	UploadedAt time.Time
}
