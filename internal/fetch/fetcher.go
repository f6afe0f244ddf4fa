// Package fetch downloads source images with a hard byte ceiling.
package fetch

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/dunamismax/pixelproxy/internal/apperrors"
)

// MaxImageBytes caps the cumulative bytes received from a source, checked
// after every chunk. The check is on bytes actually received, not the
// declared Content-Length, so a misreporting server cannot bypass it.
const MaxImageBytes = 50 * 1024 * 1024

const (
	userAgent    = "pixelproxy/1.0 (+https://github.com/dunamismax/pixelproxy)"
	fetchTimeout = 30 * time.Second
	chunkSize    = 32 * 1024
)

type Fetcher struct {
	client *http.Client
}

func NewFetcher() *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: fetchTimeout},
	}
}

// Fetch issues a single GET for url and returns the full body. Transport
// errors and non-2xx statuses both collapse to IMG_002; exceeding the byte
// ceiling aborts with IMG_005. No partial bytes are returned on any failure.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.ImageFetchFailed(url)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, apperrors.ImageFetchFailed(url)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperrors.ImageFetchFailed(url)
	}

	var buf bytes.Buffer
	chunk := make([]byte, chunkSize)
	for {
		n, readErr := resp.Body.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			if buf.Len() > MaxImageBytes {
				return nil, apperrors.ImageTooLarge()
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, apperrors.ImageFetchFailed(url)
		}
	}

	return buf.Bytes(), nil
}
