// Пакет blobstore — операции с физическими файлами на диске.
// Две области хранения: оригиналы (uploads) и миниатюры (thumbnails).
// Запись выполняется через temp файл с fsync и атомарным rename.
package blobstore

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// BlobStore — управление физическими файлами на диске.
type BlobStore struct {
	// uploadsDir — директория хранения оригиналов (FH_UPLOADS_DIR)
	uploadsDir string
	// thumbnailsDir — директория хранения миниатюр (FH_THUMBNAILS_DIR)
	thumbnailsDir string
}

// WriteResult — результат записи оригинала на диск.
type WriteResult struct {
	// FullPath — абсолютный путь файла на диске
	FullPath string
	// Size — размер записанных данных в байтах
	Size int64
}

// New создаёт новый BlobStore. Проверяет и создаёт обе директории,
// если они не существуют.
func New(uploadsDir, thumbnailsDir string) (*BlobStore, error) {
	absUploads, err := filepath.Abs(uploadsDir)
	if err != nil {
		return nil, fmt.Errorf("некорректный путь директории оригиналов %s: %w", uploadsDir, err)
	}
	absThumbnails, err := filepath.Abs(thumbnailsDir)
	if err != nil {
		return nil, fmt.Errorf("некорректный путь директории миниатюр %s: %w", thumbnailsDir, err)
	}

	if err := os.MkdirAll(absUploads, 0o750); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию оригиналов %s: %w", absUploads, err)
	}
	if err := os.MkdirAll(absThumbnails, 0o750); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию миниатюр %s: %w", absThumbnails, err)
	}

	return &BlobStore{uploadsDir: absUploads, thumbnailsDir: absThumbnails}, nil
}

// WriteOriginal записывает данные оригинала из reader на диск.
// Возвращает абсолютный путь и размер записанного файла.
//
// Паттерн: temp файл → запись → fsync → atomic rename.
// При ошибке temp файл удаляется.
func (bs *BlobStore) WriteOriginal(storedName string, reader io.Reader) (*WriteResult, error) {
	fullPath := filepath.Join(bs.uploadsDir, storedName)
	tmpPath := fullPath + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания временного файла: %w", err)
	}

	size, err := io.Copy(f, reader)
	if err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка записи данных: %w", err)
	}

	// fsync для гарантии записи на диск
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка fsync: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка закрытия файла: %w", err)
	}

	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка атомарного переименования: %w", err)
	}

	return &WriteResult{
		FullPath: fullPath,
		Size:     size,
	}, nil
}

// WriteThumbnail записывает готовые байты миниатюры на диск под тем же
// storedName, что и оригинал. Возвращает абсолютный путь миниатюры.
func (bs *BlobStore) WriteThumbnail(storedName string, data []byte) (string, error) {
	fullPath := filepath.Join(bs.thumbnailsDir, storedName)
	tmpPath := fullPath + ".tmp"

	if err := os.WriteFile(tmpPath, data, 0o640); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("ошибка записи миниатюры: %w", err)
	}
	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("ошибка атомарного переименования миниатюры: %w", err)
	}

	return fullPath, nil
}

// OpenOriginalPath открывает оригинал по абсолютному пути из каталога.
// Отсутствующий файл — штатная ситуация (fs.ErrNotExist в цепочке ошибки),
// вызывающий код транслирует её в 404. Вызывающий код обязан закрыть файл.
func (bs *BlobStore) OpenOriginalPath(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия оригинала %s: %w", filepath.Base(path), err)
	}
	return f, nil
}

// OpenThumbnail открывает миниатюру по storedName.
// Вызывающий код обязан закрыть файл.
func (bs *BlobStore) OpenThumbnail(storedName string) (*os.File, error) {
	fullPath := filepath.Join(bs.thumbnailsDir, storedName)
	f, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия миниатюры %s: %w", storedName, err)
	}
	return f, nil
}

// IsNotExist сообщает, вызвана ли ошибка отсутствием файла на диске.
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

// DeleteOriginalPath удаляет оригинал по абсолютному пути.
// Возвращает nil, если файл уже не существует.
func (bs *BlobStore) DeleteOriginalPath(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("ошибка удаления оригинала %s: %w", filepath.Base(path), err)
	}
	return nil
}

// DeleteThumbnail удаляет миниатюру по storedName.
// Возвращает nil, если файл уже не существует.
func (bs *BlobStore) DeleteThumbnail(storedName string) error {
	fullPath := filepath.Join(bs.thumbnailsDir, storedName)
	err := os.Remove(fullPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("ошибка удаления миниатюры %s: %w", storedName, err)
	}
	return nil
}

// ThumbnailExists проверяет существование миниатюры на диске.
func (bs *BlobStore) ThumbnailExists(storedName string) bool {
	_, err := os.Stat(filepath.Join(bs.thumbnailsDir, storedName))
	return err == nil
}

// UploadsDir возвращает путь к директории оригиналов.
func (bs *BlobStore) UploadsDir() string {
	return bs.uploadsDir
}

// ThumbnailsDir возвращает путь к директории миниатюр.
func (bs *BlobStore) ThumbnailsDir() string {
	return bs.thumbnailsDir
}
