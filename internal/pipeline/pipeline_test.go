package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/dunamismax/pixelproxy/internal/apperrors"
	"github.com/dunamismax/pixelproxy/internal/cache"
)

// fakeFetcher returns canned bytes and counts invocations.
type fakeFetcher struct {
	data  []byte
	err   error
	calls int
}

func (f *fakeFetcher) Fetch(_ context.Context, _ string) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

// fakeTransformer echoes its input prefixed with a PNG signature so the
// sniffer has something real to recognize.
type fakeTransformer struct {
	err   error
	calls int
}

var pngSignature = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}

func (f *fakeTransformer) Process(input []byte, _ *int, _ int, _ string) ([]byte, string, error) {
	f.calls++
	if f.err != nil {
		return nil, "", f.err
	}
	return append(append([]byte{}, pngSignature...), input...), "png", nil
}

func newTestProcessor(t *testing.T, fetcher *fakeFetcher, transformer *fakeTransformer) (*Processor, cache.Store) {
	t.Helper()

	store, err := cache.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	logger := log.New(io.Discard, "", 0)
	return New(logger, store, fetcher, transformer), store
}

func TestProcessMissingSrc(t *testing.T) {
	proc, _ := newTestProcessor(t, &fakeFetcher{}, &fakeTransformer{})

	_, _, err := proc.Process(context.Background(), Params{})
	assertCode(t, err, apperrors.CodeMissingRequiredParam)
}

func TestProcessRejectsBadURLs(t *testing.T) {
	proc, _ := newTestProcessor(t, &fakeFetcher{}, &fakeTransformer{})

	for _, src := range []string{"not-a-url", "ftp://example.com/a.png", "://broken", "/relative/path.png"} {
		_, _, err := proc.Process(context.Background(), Params{Src: src})
		assertCode(t, err, apperrors.CodeInvalidImageURL)
	}
}

func TestProcessRejectsSVGSource(t *testing.T) {
	proc, _ := newTestProcessor(t, &fakeFetcher{}, &fakeTransformer{})

	for _, src := range []string{"https://example.com/logo.svg", "https://example.com/LOGO.SVG"} {
		_, _, err := proc.Process(context.Background(), Params{Src: src})
		assertCode(t, err, apperrors.CodeInvalidImageFormat)
	}
}

func TestProcessWidthBounds(t *testing.T) {
	fetcher := &fakeFetcher{}
	proc, _ := newTestProcessor(t, fetcher, &fakeTransformer{})

	for _, width := range []int{0, -5, -3840, 3841, 5000} {
		w := width
		_, _, err := proc.Process(context.Background(), Params{
			Src:   "https://example.com/a.png",
			Width: &w,
		})
		assertCode(t, err, apperrors.CodeInvalidWidth)
	}
	if fetcher.calls != 0 {
		t.Fatalf("expected no fetches for out-of-range widths, got %d", fetcher.calls)
	}

	// 1 and 3840 are inclusive bounds.
	for _, width := range []int{1, 3840} {
		w := width
		if _, _, err := proc.Process(context.Background(), Params{
			Src:   "https://example.com/a.png",
			Width: &w,
		}); err != nil {
			t.Fatalf("width=%d should be accepted: %v", width, err)
		}
	}
}

func TestProcessQualityBounds(t *testing.T) {
	fetcher := &fakeFetcher{}
	proc, _ := newTestProcessor(t, fetcher, &fakeTransformer{})

	for _, quality := range []int{0, -10, 101} {
		q := quality
		_, _, err := proc.Process(context.Background(), Params{
			Src:     "https://example.com/a.png",
			Quality: &q,
		})
		assertCode(t, err, apperrors.CodeInvalidQuality)
	}
	if fetcher.calls != 0 {
		t.Fatalf("expected no fetches for out-of-range qualities, got %d", fetcher.calls)
	}
}

func TestProcessValidationPrecedesFetch(t *testing.T) {
	fetcher := &fakeFetcher{}
	proc, _ := newTestProcessor(t, fetcher, &fakeTransformer{})

	w := 0
	proc.Process(context.Background(), Params{Src: "https://example.com/a.png", Width: &w})
	if fetcher.calls != 0 {
		t.Fatalf("expected no fetch on validation failure, got %d calls", fetcher.calls)
	}
}

func TestProcessMissThenHit(t *testing.T) {
	fetcher := &fakeFetcher{data: []byte("source")}
	transformer := &fakeTransformer{}
	proc, _ := newTestProcessor(t, fetcher, transformer)

	params := Params{Src: "https://example.com/a.png"}

	first, contentType, err := proc.Process(context.Background(), params)
	if err != nil {
		t.Fatalf("first request: %v", err)
	}
	if contentType != "image/png" {
		t.Fatalf("expected sniffed image/png, got %s", contentType)
	}

	second, _, err := proc.Process(context.Background(), params)
	if err != nil {
		t.Fatalf("second request: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatal("expected byte-identical responses across requests")
	}
	if fetcher.calls != 1 {
		t.Fatalf("expected exactly one fetch, got %d", fetcher.calls)
	}
	if transformer.calls != 1 {
		t.Fatalf("expected exactly one transform, got %d", transformer.calls)
	}
}

func TestProcessNoCacheWriteOnFailure(t *testing.T) {
	transformer := &fakeTransformer{err: apperrors.ImageProcessingFailed("corrupt")}
	fetcher := &fakeFetcher{data: []byte("source")}
	proc, _ := newTestProcessor(t, fetcher, transformer)

	params := Params{Src: "https://example.com/a.png"}
	_, _, err := proc.Process(context.Background(), params)
	assertCode(t, err, apperrors.CodeImageProcessingFailed)

	// A retry must miss again: nothing was cached by the failed attempt.
	transformer.err = nil
	if _, _, err := proc.Process(context.Background(), params); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
	if fetcher.calls != 2 {
		t.Fatalf("expected second fetch after failed attempt, got %d calls", fetcher.calls)
	}
}

func TestProcessFetchErrorPropagates(t *testing.T) {
	fetcher := &fakeFetcher{err: apperrors.ImageFetchFailed("https://example.com/a.png")}
	proc, _ := newTestProcessor(t, fetcher, &fakeTransformer{})

	_, _, err := proc.Process(context.Background(), Params{Src: "https://example.com/a.png"})
	assertCode(t, err, apperrors.CodeImageFetchFailed)
}

// failingStore always errors on write; the pipeline must still return the
// computed bytes.
type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, bool) { return nil, false }
func (failingStore) Put(context.Context, string, []byte) error {
	return errors.New("disk full")
}

func TestProcessCacheWriteFailureIsBestEffort(t *testing.T) {
	logger := log.New(io.Discard, "", 0)
	proc := New(logger, failingStore{}, &fakeFetcher{data: []byte("source")}, &fakeTransformer{})

	data, contentType, err := proc.Process(context.Background(), Params{Src: "https://example.com/a.png"})
	if err != nil {
		t.Fatalf("expected success despite failed cache write, got %v", err)
	}
	if len(data) == 0 || contentType != "image/png" {
		t.Fatalf("expected processed bytes with sniffed type, got %d bytes type=%s", len(data), contentType)
	}
}

func TestProcessQualityDefaultsAffectKey(t *testing.T) {
	// Explicit quality 75 and absent quality share a key: the default is
	// applied before derivation.
	q := 75
	explicit := CacheKey("https://example.com/a.png", nil, q, "")

	fetcher := &fakeFetcher{data: []byte("source")}
	proc, store := newTestProcessor(t, fetcher, &fakeTransformer{})
	if _, _, err := proc.Process(context.Background(), Params{Src: "https://example.com/a.png"}); err != nil {
		t.Fatalf("process: %v", err)
	}

	if _, ok := store.Get(context.Background(), explicit); !ok {
		t.Fatal("expected entry under the default-quality key")
	}
}

func assertCode(t *testing.T, err error, want apperrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s, got nil", want)
	}
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected taxonomy error, got %T: %v", err, err)
	}
	if appErr.Code != want {
		t.Fatalf("expected code %s, got %s", want, appErr.Code)
	}
}
