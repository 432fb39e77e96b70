package dashboard

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/jpeg"
	"testing"
)

func TestContainRect(t *testing.T) {
	tests := []struct {
		src  image.Rectangle
		want image.Rectangle
	}{
		{image.Rect(0, 0, 640, 480), image.Rect(7, 0, 113, 80)},
		{image.Rect(0, 0, 1200, 400), image.Rect(0, 20, 120, 60)},
		{image.Rect(0, 0, 120, 80), image.Rect(0, 0, 120, 80)},
		{image.Rect(0, 0, 0, 0), image.Rect(0, 0, 120, 80)},
	}
	for _, tt := range tests {
		if got := containRect(tt.src, 120, 80); got != tt.want {
			t.Errorf("containRect(%v) = %v, want %v", tt.src, got, tt.want)
		}
	}
}

func TestThumbnailJPEG(t *testing.T) {
	src, err := placeholderJPEG(640, 480)
	if err != nil {
		t.Fatalf("placeholderJPEG: %v", err)
	}

	thumb, err := thumbnailJPEG(src, 120, 80)
	if err != nil {
		t.Fatalf("thumbnailJPEG: %v", err)
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(thumb))
	if err != nil {
		t.Fatalf("decode thumbnail: %v", err)
	}
	if cfg.Width != 120 || cfg.Height != 80 {
		t.Fatalf("thumbnail size = %dx%d", cfg.Width, cfg.Height)
	}
}

func TestThumbnailRejectsNonJPEG(t *testing.T) {
	if _, err := thumbnailJPEG([]byte("hello"), 120, 80); err == nil {
		t.Fatal("thumbnail of non-JPEG succeeded")
	}
}

func TestDecodeJPEG(t *testing.T) {
	data, err := decodeJPEG(base64.StdEncoding.EncodeToString([]byte("hello")))
	if err != nil || string(data) != "hello" {
		t.Fatalf("decodeJPEG = %q, %v", data, err)
	}
	if _, err := decodeJPEG("not base64!"); err == nil {
		t.Fatal("invalid base64 decoded")
	}
}
