// Пакет thumbnail — построение миниатюр для растровых изображений.
// Миниатюра вписывается в квадрат maxPx×maxPx с сохранением пропорций,
// изображения меньше квадрата не увеличиваются.
package thumbnail

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"os"

	"github.com/disintegration/imaging"
	"golang.org/x/image/webp"

	"github.com/bigkaa/filehub/internal/domain/model"
)

// ErrUnsupportedType — тип файла не входит в набор растровых типов.
// Для вызывающего кода это штатный пропуск, а не сбой обработки.
var ErrUnsupportedType = errors.New("тип файла не поддерживает миниатюры")

// Eligible сообщает, формируется ли миниатюра для данного типа файла.
func Eligible(fileType string) bool {
	return model.IsRasterType(fileType)
}

// Derive строит миниатюру оригинала по пути на диске.
// Возвращает готовые байты миниатюры в формате исходного изображения
// (webp кодируется в PNG — энкодера webp нет).
//
// maxPx — сторона ограничивающего квадрата. Изображение, целиком
// помещающееся в квадрат, сохраняет исходные размеры.
func Derive(originalPath, fileType string, maxPx int) ([]byte, error) {
	if !Eligible(fileType) {
		return nil, ErrUnsupportedType
	}

	img, err := decode(originalPath, fileType)
	if err != nil {
		return nil, fmt.Errorf("ошибка декодирования изображения %s: %w", fileType, err)
	}

	// Fit уменьшает до вписывания в квадрат и никогда не увеличивает
	thumb := imaging.Fit(img, maxPx, maxPx, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, encodeFormat(fileType)); err != nil {
		return nil, fmt.Errorf("ошибка кодирования миниатюры: %w", err)
	}
	return buf.Bytes(), nil
}

// decode открывает и декодирует изображение заявленного типа.
func decode(path, fileType string) (image.Image, error) {
	if fileType == "webp" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return webp.Decode(f)
	}
	return imaging.Open(path)
}

// encodeFormat возвращает формат кодирования миниатюры по типу оригинала.
func encodeFormat(fileType string) imaging.Format {
	switch fileType {
	case "jpg", "jpeg":
		return imaging.JPEG
	case "gif":
		return imaging.GIF
	default:
		// png и webp (перекодируется в png)
		return imaging.PNG
	}
}
