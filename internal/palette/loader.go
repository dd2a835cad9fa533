package palette

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/gen2brain/avif"
	"go.senan.xyz/taglib"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var audioExtensions = map[string]struct{}{
	".aac":  {},
	".aiff": {},
	".flac": {},
	".m4a":  {},
	".mp3":  {},
	".ogg":  {},
	".opus": {},
	".wav":  {},
}

// ErrNoArtwork is returned for audio files without embedded cover art.
var ErrNoArtwork = errors.New("no embedded artwork")

// LoadImage decodes the image at path. Audio files yield their embedded
// cover art.
func LoadImage(path string) (image.Image, error) {
	if _, ok := audioExtensions[strings.ToLower(filepath.Ext(path))]; ok {
		return loadArtwork(path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer file.Close()

	decoded, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return decoded, nil
}

func loadArtwork(path string) (image.Image, error) {
	data, err := taglib.ReadImage(path)
	if err != nil {
		return nil, fmt.Errorf("read artwork: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrNoArtwork
	}

	decoded, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode artwork: %w", err)
	}
	return decoded, nil
}
