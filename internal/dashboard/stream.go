package dashboard

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"time"

	"github.com/dj-oyu/vision-dash/internal/logger"
)

func sseHeaders(w http.ResponseWriter, useProtobuf bool) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	if useProtobuf {
		w.Header().Set("X-Content-Format", "application/protobuf")
	} else {
		w.Header().Set("X-Content-Format", "application/json")
	}
}

func writeSSEData(w http.ResponseWriter, event *SerializedEvent, useProtobuf bool) error {
	data := event.JSONData
	if useProtobuf {
		data = event.ProtobufData
	}
	_, err := fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}

// streamLiveEvents writes first, then every event from eventCh, until the
// client goes away or the channel closes. Idle periods get keepalive comments.
func streamLiveEvents(ctx context.Context, w http.ResponseWriter, first *SerializedEvent, eventCh <-chan *SerializedEvent, useProtobuf bool, keepalive time.Duration) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	sseHeaders(w, useProtobuf)
	if err := writeSSEData(w, first, useProtobuf); err != nil {
		logger.Debug("LiveStream", "Client disconnected during first write: %v", err)
		return
	}
	flusher.Flush()

	ticker := time.NewTicker(keepalive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-eventCh:
			if !ok {
				return
			}
			if err := writeSSEData(w, event, useProtobuf); err != nil {
				logger.Debug("LiveStream", "Client disconnected during event write: %v", err)
				return
			}
			flusher.Flush()
			ticker.Reset(keepalive)

		case <-ticker.C:
			if _, err := fmt.Fprintf(w, ": keepalive\n\n"); err != nil {
				logger.Debug("LiveStream", "Client disconnected during keepalive: %v", err)
				return
			}
			flusher.Flush()
		}
	}
}

// placeholderJPEG renders colour bars shown while no prediction image exists.
func placeholderJPEG(width, height int) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	// White, Yellow, Cyan, Green, Magenta, Red, Blue, Black
	colors := []color.RGBA{
		{R: 255, G: 255, B: 255, A: 255},
		{R: 255, G: 255, B: 0, A: 255},
		{R: 0, G: 255, B: 255, A: 255},
		{R: 0, G: 255, B: 0, A: 255},
		{R: 255, G: 0, B: 255, A: 255},
		{R: 255, G: 0, B: 0, A: 255},
		{R: 0, G: 0, B: 255, A: 255},
		{R: 0, G: 0, B: 0, A: 255},
	}

	barWidth := max(width/len(colors), 1)
	for y := range height {
		for x := range width {
			barIndex := min(x/barWidth, len(colors)-1)
			img.Set(x, y, colors[barIndex])
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 75}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
