package webmonitor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"net/http"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/dj-oyu/rdk-x5_smart-pet-camera/detect-monitor/internal/logger"
)

func writeSSE(w http.ResponseWriter, payload any) error {
	data, err := detectJSON.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}

// placeholderJPEG renders a dark frame with a centred caption, served when
// there is no detect image and no dummy image on disk.
func placeholderJPEG(caption string) ([]byte, error) {
	const width, height = 640, 480
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{R: 32, G: 32, B: 40, A: 255}}, image.Point{}, draw.Src)

	face := basicfont.Face7x13
	textWidth := font.MeasureString(face, caption).Ceil()
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.RGBA{R: 220, G: 220, B: 220, A: 255}),
		Face: face,
		Dot:  fixed.P((width-textWidth)/2, height/2),
	}
	d.DrawString(caption)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 75}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type jpegProvider func() []byte

// streamMJPEG pushes provider's frame every interval until the client leaves.
func streamMJPEG(ctx context.Context, w http.ResponseWriter, interval time.Duration, provider jpegProvider) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		jpegData := provider()

		if _, err := w.Write([]byte("--frame\r\nContent-Type: image/jpeg\r\n\r\n")); err != nil {
			logger.Debug("MJPEG", "Client disconnected during write: %v", err)
			return
		}
		if _, err := w.Write(jpegData); err != nil {
			logger.Debug("MJPEG", "Client disconnected during frame write: %v", err)
			return
		}
		if _, err := w.Write([]byte("\r\n")); err != nil {
			logger.Debug("MJPEG", "Client disconnected during delimiter write: %v", err)
			return
		}
		flusher.Flush()

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// streamStatus sends the image-less latest message as SSE every interval.
func streamStatus(ctx context.Context, w http.ResponseWriter, interval time.Duration, store *Store) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastVersion := -1
	for {
		version, _ := store.Info()
		if version != lastVersion {
			var payload any = map[string]any{}
			if msg, ok := store.Slim(); ok {
				payload = msg
			}
			if err := writeSSE(w, payload); err != nil {
				logger.Debug("SSE", "Client disconnected during status write: %v", err)
				return
			}
			lastVersion = version
		} else if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
			logger.Debug("SSE", "Client disconnected during keepalive: %v", err)
			return
		}
		flusher.Flush()

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
