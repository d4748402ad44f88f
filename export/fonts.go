package export

import (
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

var (
	fontOnce   sync.Once
	parsedFont *opentype.Font
	fontErr    error

	faceMu    sync.Mutex
	faceCache = make(map[float64]font.Face)
)

// fontFace returns a cached face at the given pixel size. Text layers render
// with the embedded Go Regular face so raster output needs no external font
// files and stays deterministic across hosts.
func fontFace(size float64) (font.Face, error) {
	fontOnce.Do(func() {
		parsedFont, fontErr = opentype.Parse(goregular.TTF)
	})
	if fontErr != nil {
		return nil, fontErr
	}

	faceMu.Lock()
	defer faceMu.Unlock()
	if face, ok := faceCache[size]; ok {
		return face, nil
	}
	face, err := opentype.NewFace(parsedFont, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, err
	}
	faceCache[size] = face
	return face, nil
}
