package dashboard

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"

	"golang.org/x/image/draw"
)

var thumbnailBackground = color.RGBA{R: 0x0f, G: 0x0f, B: 0x0f, A: 0xff}

// decodeJPEG decodes a bare base64 image payload. The producer always
// sends JPEG; the bytes are not sniffed.
func decodeJPEG(b64 string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	return data, nil
}

// thumbnailJPEG scales src to fit inside width x height, letterboxed on the
// table background.
func thumbnailJPEG(src []byte, width, height int) ([]byte, error) {
	img, err := jpeg.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("decode jpeg: %w", err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(thumbnailBackground), image.Point{}, draw.Src)

	draw.ApproxBiLinear.Scale(dst, containRect(img.Bounds(), width, height), img, img.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 80}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// containRect centres the largest rectangle with src's aspect ratio that
// fits in width x height.
func containRect(src image.Rectangle, width, height int) image.Rectangle {
	sw, sh := src.Dx(), src.Dy()
	if sw <= 0 || sh <= 0 {
		return image.Rect(0, 0, width, height)
	}

	w, h := width, sh*width/sw
	if h > height {
		w, h = sw*height/sh, height
	}
	w, h = max(w, 1), max(h, 1)

	x := (width - w) / 2
	y := (height - h) / 2
	return image.Rect(x, y, x+w, y+h)
}
