package palette

import (
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadImageDecodesImageFiles(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cover.png")
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	img := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	img.Set(0, 0, color.NRGBA{R: 230, G: 57, B: 70, A: 255})
	if err := png.Encode(file, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	file.Close()

	decoded, err := LoadImage(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if decoded.Bounds().Dx() != 4 || decoded.Bounds().Dy() != 3 {
		t.Fatalf("unexpected bounds %v", decoded.Bounds())
	}
}

func TestLoadImageRejectsUndecodableFiles(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "broken.png")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadImage(path); err == nil {
		t.Fatal("expected a decode error")
	}

	if _, err := LoadImage(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Fatal("expected an open error")
	}
}

func TestLoadImageReportsAudioWithoutArtwork(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tone.wav")
	if err := os.WriteFile(path, silentWAV(800), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := LoadImage(path); !errors.Is(err, ErrNoArtwork) {
		t.Fatalf("expected ErrNoArtwork, got %v", err)
	}
}

func TestLoadImageRejectsBrokenAudio(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "broken.flac")
	if err := os.WriteFile(path, []byte("not audio"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := LoadImage(path)
	if err == nil {
		t.Fatal("expected an artwork read error")
	}
	if errors.Is(err, ErrNoArtwork) {
		t.Fatalf("broken audio reported as missing artwork: %v", err)
	}
}

// silentWAV builds a mono 16-bit PCM file of samples zero samples.
func silentWAV(samples int) []byte {
	const sampleRate = 8000
	dataSize := samples * 2

	buf := make([]byte, 44+dataSize)
	copy(buf[0:], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:], uint32(36+dataSize))
	copy(buf[8:], "WAVE")
	copy(buf[12:], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:], 16)
	binary.LittleEndian.PutUint16(buf[20:], 1)
	binary.LittleEndian.PutUint16(buf[22:], 1)
	binary.LittleEndian.PutUint32(buf[24:], sampleRate)
	binary.LittleEndian.PutUint32(buf[28:], sampleRate*2)
	binary.LittleEndian.PutUint16(buf[32:], 2)
	binary.LittleEndian.PutUint16(buf[34:], 16)
	copy(buf[36:], "data")
	binary.LittleEndian.PutUint32(buf[40:], uint32(dataSize))
	return buf
}
