package termview

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
)

const maxImageBytes = 32 << 20

// ImageInfo describes the image currently behind the image slot.
type ImageInfo struct {
	Width, Height int
	Format        string
	Size          uint64
	FetchedAt     time.Time
}

func (i ImageInfo) String() string {
	return fmt.Sprintf("%dx%d %s, %s", i.Width, i.Height, i.Format, humanize.Bytes(i.Size))
}

// Prober downloads an image URL and reads its header.
type Prober struct {
	client *http.Client
}

// NewProber returns a Prober whose requests give up after timeout.
func NewProber(timeout time.Duration) *Prober {
	return &Prober{client: &http.Client{Timeout: timeout}}
}

// Probe fetches url and decodes the image dimensions.
func (p *Prober) Probe(ctx context.Context, url string) (ImageInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ImageInfo{}, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return ImageInfo{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ImageInfo{}, fmt.Errorf("image %s: %s", url, resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return ImageInfo{}, fmt.Errorf("read image: %w", err)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return ImageInfo{}, fmt.Errorf("decode image: %w", err)
	}
	return ImageInfo{
		Width:     cfg.Width,
		Height:    cfg.Height,
		Format:    format,
		Size:      uint64(len(data)),
		FetchedAt: time.Now(),
	}, nil
}
