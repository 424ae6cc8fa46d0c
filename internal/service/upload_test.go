package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bigkaa/filehub/internal/catalog"
	"github.com/bigkaa/filehub/internal/storage/blobstore"
)

// testLogger — логгер, не пишущий в stdout тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestBlobStore(t *testing.T) *blobstore.BlobStore {
	t.Helper()
	root := t.TempDir()
	bs, err := blobstore.New(filepath.Join(root, "uploads"), filepath.Join(root, "thumbnails"))
	if err != nil {
		t.Fatalf("ошибка создания BlobStore: %v", err)
	}
	return bs
}

// pngBytes возвращает PNG заданных размеров.
func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: uint8(x % 256), B: uint8(y % 256), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("ошибка кодирования PNG: %v", err)
	}
	return buf.Bytes()
}

// bytesFile возвращает UploadFile поверх готовых байтов.
func bytesFile(name string, data []byte) UploadFile {
	return UploadFile{
		Name: name,
		Size: int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// brokenFile возвращает UploadFile, открытие которого всегда падает.
func brokenFile(name string) UploadFile {
	return UploadFile{
		Name: name,
		Size: 10,
		Open: func() (io.ReadCloser, error) {
			return nil, errors.New("поток недоступен")
		},
	}
}

// errReader — reader, падающий после первых байтов.
type errReader struct {
	data []byte
	done bool
}

func (r *errReader) Read(p []byte) (int, error) {
	if !r.done {
		r.done = true
		n := copy(p, r.data)
		return n, nil
	}
	return 0, errors.New("диск отвалился")
}

func (r *errReader) Close() error { return nil }

// TestUpload_ImageWithThumbnail проверяет полный конвейер для растрового файла.
func TestUpload_ImageWithThumbnail(t *testing.T) {
	bs := newTestBlobStore(t)
	cat := catalog.NewMemory()
	svc := NewUploadService(bs, cat, 300, testLogger())

	data := pngBytes(t, 600, 400)
	results := svc.Upload(context.Background(), []UploadFile{bytesFile("фото.png", data)})

	if len(results) != 1 {
		t.Fatalf("ожидался 1 результат, получено %d", len(results))
	}
	res := results[0]
	if res.Failed() {
		t.Fatalf("ожидался успех, получена ошибка: %s", res.Err)
	}
	if res.Type != "png" {
		t.Errorf("тип: ожидалось png, получено %q", res.Type)
	}
	if res.Size != int64(len(data)) {
		t.Errorf("размер: ожидалось %d, получено %d", len(data), res.Size)
	}
	if res.URL == "" || res.ThumbnailURL == "" {
		t.Errorf("url и thumbnailUrl должны быть заполнены: %+v", res)
	}

	// Запись должна существовать в каталоге
	rec, err := cat.GetByID(context.Background(), res.ID)
	if err != nil {
		t.Fatalf("запись не найдена в каталоге: %v", err)
	}
	if rec.OriginalName != "фото.png" {
		t.Errorf("OriginalName: получено %q", rec.OriginalName)
	}

	// Миниатюра должна лежать на диске
	if !bs.ThumbnailExists(rec.StoredName) {
		t.Error("миниатюра не создана на диске")
	}
}

// TestUpload_NonRasterType проверяет отсутствие миниатюры для прочих типов.
func TestUpload_NonRasterType(t *testing.T) {
	bs := newTestBlobStore(t)
	cat := catalog.NewMemory()
	svc := NewUploadService(bs, cat, 300, testLogger())

	results := svc.Upload(context.Background(), []UploadFile{
		bytesFile("document.pdf", []byte("%PDF-1.4 данные")),
	})

	res := results[0]
	if res.Failed() {
		t.Fatalf("ожидался успех, получена ошибка: %s", res.Err)
	}
	if res.ThumbnailURL != "" {
		t.Errorf("thumbnailUrl должен быть пуст для pdf: %q", res.ThumbnailURL)
	}

	rec, _ := cat.GetByID(context.Background(), res.ID)
	if bs.ThumbnailExists(rec.StoredName) {
		t.Error("миниатюра не должна создаваться для pdf")
	}
}

// TestUpload_CorruptImageStillStored проверяет изоляцию сбоя миниатюры:
// битое изображение сохраняется и попадает в каталог, thumbnailUrl пуст.
func TestUpload_CorruptImageStillStored(t *testing.T) {
	bs := newTestBlobStore(t)
	cat := catalog.NewMemory()
	svc := NewUploadService(bs, cat, 300, testLogger())

	results := svc.Upload(context.Background(), []UploadFile{
		bytesFile("битый.jpg", []byte("это не JPEG вовсе")),
	})

	res := results[0]
	if res.Failed() {
		t.Fatalf("сбой миниатюры не должен ронять файл: %s", res.Err)
	}
	if res.ThumbnailURL != "" {
		t.Errorf("thumbnailUrl должен быть пуст при сбое декодирования: %q", res.ThumbnailURL)
	}

	if _, err := cat.GetByID(context.Background(), res.ID); err != nil {
		t.Errorf("запись обязана существовать несмотря на сбой миниатюры: %v", err)
	}
}

// TestUpload_BatchWithFailure проверяет изоляцию пофайловых сбоев:
// сбойный файл k даёт дескриптор сбоя, остальные — успехи с разными id.
func TestUpload_BatchWithFailure(t *testing.T) {
	bs := newTestBlobStore(t)
	cat := catalog.NewMemory()
	svc := NewUploadService(bs, cat, 300, testLogger())

	files := []UploadFile{
		bytesFile("a.txt", []byte("первый")),
		brokenFile("b.txt"),
		bytesFile("c.txt", []byte("третий")),
		{
			Name: "d.txt",
			Size: 4,
			Open: func() (io.ReadCloser, error) {
				return &errReader{data: []byte("на")}, nil
			},
		},
		bytesFile("e.txt", []byte("пятый")),
	}

	results := svc.Upload(context.Background(), files)

	if len(results) != len(files) {
		t.Fatalf("ожидалось %d результатов, получено %d", len(files), len(results))
	}

	// Порядок результатов совпадает с порядком входных файлов
	for i, f := range files {
		if results[i].Name != f.Name {
			t.Errorf("позиция %d: ожидался файл %q, получен %q", i, f.Name, results[i].Name)
		}
	}

	if !results[1].Failed() {
		t.Error("файл b.txt должен дать дескриптор сбоя")
	}
	if !results[3].Failed() {
		t.Error("файл d.txt должен дать дескриптор сбоя")
	}

	seen := make(map[int64]bool)
	for _, i := range []int{0, 2, 4} {
		res := results[i]
		if res.Failed() {
			t.Errorf("файл %s должен быть успешен: %s", res.Name, res.Err)
			continue
		}
		if seen[res.ID] {
			t.Errorf("id %d не уникален", res.ID)
		}
		seen[res.ID] = true
	}

	// Сбойные файлы не должны попасть в каталог
	list, _ := cat.ListAll(context.Background())
	if len(list) != 3 {
		t.Errorf("в каталоге должно быть 3 записи, получено %d", len(list))
	}
}

// TestUpload_ExtensionlessFile проверяет файл без расширения:
// имя хранения заканчивается точкой, миниатюры нет.
func TestUpload_ExtensionlessFile(t *testing.T) {
	bs := newTestBlobStore(t)
	cat := catalog.NewMemory()
	svc := NewUploadService(bs, cat, 300, testLogger())

	results := svc.Upload(context.Background(), []UploadFile{
		bytesFile("README", []byte("содержимое")),
	})

	res := results[0]
	if res.Failed() {
		t.Fatalf("ожидался успех: %s", res.Err)
	}
	if res.Type != "" {
		t.Errorf("тип должен быть пуст: %q", res.Type)
	}

	rec, _ := cat.GetByID(context.Background(), res.ID)
	if !strings.HasSuffix(rec.StoredName, ".") {
		t.Errorf("имя хранения файла без расширения должно заканчиваться точкой: %s", rec.StoredName)
	}
}

// TestFileResult_MarshalJSON проверяет формат пофайловых дескрипторов.
func TestFileResult_MarshalJSON(t *testing.T) {
	// Успех с миниатюрой
	success := FileResult{ID: 7, Name: "a.png", Type: "png", Size: 10, URL: "/files/7", ThumbnailURL: "/thumbnails/7"}
	data, err := success.MarshalJSON()
	if err != nil {
		t.Fatalf("ошибка сериализации: %v", err)
	}
	s := string(data)
	if !strings.Contains(s, `"thumbnailUrl":"/thumbnails/7"`) {
		t.Errorf("нет thumbnailUrl: %s", s)
	}
	if strings.Contains(s, "error") {
		t.Errorf("успех не должен содержать error: %s", s)
	}

	// Успех без миниатюры: thumbnailUrl — явный null
	noThumb := FileResult{ID: 8, Name: "b.pdf", Type: "pdf", Size: 10, URL: "/files/8"}
	data, _ = noThumb.MarshalJSON()
	if !strings.Contains(string(data), `"thumbnailUrl":null`) {
		t.Errorf("ожидался thumbnailUrl:null, получено %s", string(data))
	}

	// Сбой: только name и error
	failure := FileResult{Name: "c.txt", Err: "ошибка сохранения"}
	data, _ = failure.MarshalJSON()
	s = string(data)
	if strings.Contains(s, "url") || strings.Contains(s, `"id"`) {
		t.Errorf("сбой должен содержать только name и error: %s", s)
	}
	if !strings.Contains(s, `"error":"ошибка сохранения"`) {
		t.Errorf("нет поля error: %s", s)
	}
}
