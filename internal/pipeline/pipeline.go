// Package pipeline orchestrates one image request: validate, derive the
// cache key, consult the store, and on a miss fetch, transform, and write
// back. All failures report into the apperrors taxonomy and short-circuit.
package pipeline

import (
	"context"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/dunamismax/pixelproxy/internal/apperrors"
	"github.com/dunamismax/pixelproxy/internal/cache"
	"github.com/dunamismax/pixelproxy/internal/transform"
)

const (
	MaxWidth       = 3840
	DefaultQuality = 75
)

// Params is one request's input, parsed by the transport layer. Nil pointer
// fields and empty strings mark absent parameters.
type Params struct {
	Src     string
	Width   *int
	Quality *int
	Format  string
}

// Fetcher streams a remote URL into memory, enforcing the byte ceiling.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Observer receives pipeline events for metrics. All methods are optional in
// the sense that a nil Observer disables them.
type Observer interface {
	CacheHit()
	CacheMiss()
	FetchedBytes(n int)
	Transformed(format string, elapsed time.Duration)
}

// Processor owns the request lifecycle. The cache store is the only shared
// mutable collaborator; fetch and transform run outside any store lock, so
// concurrent misses on the same key duplicate work and race to write. The
// store accepts whichever write lands last (both are derived from identical
// inputs). A single-flight strategy can replace the Fetcher if that cost
// ever matters.
type Processor struct {
	logger      *log.Logger
	store       cache.Store
	fetcher     Fetcher
	transformer transform.Transformer
	observer    Observer
}

func New(logger *log.Logger, store cache.Store, fetcher Fetcher, transformer transform.Transformer) *Processor {
	return &Processor{
		logger:      logger,
		store:       store,
		fetcher:     fetcher,
		transformer: transformer,
	}
}

// SetObserver attaches a metrics sink. Must be called before serving.
func (p *Processor) SetObserver(o Observer) {
	p.observer = o
}

// Process runs the full pipeline and returns the encoded bytes plus their
// sniffed content type, or a taxonomy error. Validation happens before any
// network or CPU work; no cache write occurs on any failure path.
func (p *Processor) Process(ctx context.Context, params Params) ([]byte, string, error) {
	if params.Src == "" {
		return nil, "", apperrors.MissingRequiredParameter("src")
	}

	parsed, err := url.Parse(params.Src)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, "", apperrors.InvalidImageURL()
	}

	// SVG is categorically unsupported here. The HTTP layer may choose to
	// redirect instead; that policy lives outside the pipeline.
	if strings.HasSuffix(strings.ToLower(params.Src), ".svg") {
		return nil, "", apperrors.InvalidImageFormat("svg")
	}

	if params.Width != nil && (*params.Width < 1 || *params.Width > MaxWidth) {
		return nil, "", apperrors.InvalidWidth(*params.Width)
	}

	quality := DefaultQuality
	if params.Quality != nil {
		if *params.Quality < 1 || *params.Quality > 100 {
			return nil, "", apperrors.InvalidQuality(*params.Quality)
		}
		quality = *params.Quality
	}

	// The format string is validated by the transform stage; no duplicate
	// check here.
	key := CacheKey(params.Src, params.Width, quality, params.Format)

	if data, ok := p.store.Get(ctx, key); ok {
		if p.observer != nil {
			p.observer.CacheHit()
		}
		return data, DetectContentType(data), nil
	}
	if p.observer != nil {
		p.observer.CacheMiss()
	}

	source, err := p.fetcher.Fetch(ctx, params.Src)
	if err != nil {
		return nil, "", err
	}
	if p.observer != nil {
		p.observer.FetchedBytes(len(source))
	}

	start := time.Now()
	processed, outFormat, err := p.transformer.Process(source, params.Width, quality, params.Format)
	if err != nil {
		return nil, "", err
	}
	if p.observer != nil {
		p.observer.Transformed(outFormat, time.Since(start))
	}

	// Best effort: the computed bytes are still returned when the write
	// fails.
	if err := p.store.Put(ctx, key, processed); err != nil {
		p.logger.Printf("cache write failed for key %s: %v", key, err)
	}

	return processed, DetectContentType(processed), nil
}
