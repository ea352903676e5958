package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"

	apperrors "github.com/joshband/copy-that-sub002/internal/errors"
	"github.com/joshband/copy-that-sub002/internal/observer"
	"github.com/joshband/copy-that-sub002/internal/provider"
	"github.com/joshband/copy-that-sub002/internal/repository"
	"github.com/joshband/copy-that-sub002/internal/shadow"
	"github.com/joshband/copy-that-sub002/pkg/models"
)

// memoryRepository serves canned image bytes keyed by URL
type memoryRepository struct {
	images map[string][]byte
}

func (r *memoryRepository) GetImage(ctx context.Context, imageURL string) ([]byte, *models.ImageMetadata, error) {
	data, ok := r.images[imageURL]
	if !ok {
		return nil, nil, repository.ErrImageNotFound
	}
	return data, &models.ImageMetadata{ContentType: "image/png", ContentLength: int64(len(data))}, nil
}

func (r *memoryRepository) ValidateImageURL(imageURL string) error {
	return nil
}

// recordingObserver counts completion events
type recordingObserver struct {
	mu        sync.Mutex
	completed []string
	failed    []string
}

func (o *recordingObserver) OnAnalysisComplete(imageURL string, result *models.ShadowAnalysisResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.completed = append(o.completed, imageURL)
}

func (o *recordingObserver) OnAnalysisFailed(imageURL string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failed = append(o.failed, imageURL)
}

func testImagePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.NRGBA{160, 160, 160, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode test PNG: %v", err)
	}
	return buf.Bytes()
}

func newTestService(t *testing.T, repo repository.ImageRepository) (ShadowAnalysisService, *recordingObserver, func()) {
	t.Helper()
	analyzer, err := shadow.NewShadowAnalyzer(provider.NewDisabledProvider())
	if err != nil {
		t.Fatalf("Failed to create analyzer: %v", err)
	}
	pool := shadow.NewWorkerPool(2)
	pool.Start()

	rec := &recordingObserver{}
	notifier := observer.NewNotifier()
	notifier.Register(rec)

	svc := NewShadowAnalysisService(repo, analyzer, pool, notifier)
	cleanup := func() {
		pool.Close()
		analyzer.Close()
	}
	return svc, rec, cleanup
}

func TestAnalyzeURL_Success(t *testing.T) {
	repo := &memoryRepository{images: map[string][]byte{
		"https://example.com/a.png": testImagePNG(t),
	}}
	svc, rec, cleanup := newTestService(t, repo)
	defer cleanup()

	result, err := svc.AnalyzeURL(context.Background(), "https://example.com/a.png", shadow.FastOptions())
	if err != nil {
		t.Fatalf("AnalyzeURL failed: %v", err)
	}
	if result.ImageURL != "https://example.com/a.png" {
		t.Errorf("Expected source URL recorded, got %q", result.ImageURL)
	}
	if len(rec.completed) != 1 {
		t.Errorf("Expected one completion event, got %d", len(rec.completed))
	}
}

func TestAnalyzeURL_FetchFailure(t *testing.T) {
	repo := &memoryRepository{images: map[string][]byte{}}
	svc, rec, cleanup := newTestService(t, repo)
	defer cleanup()

	_, err := svc.AnalyzeURL(context.Background(), "https://example.com/missing.png", shadow.FastOptions())
	if err == nil {
		t.Fatal("Expected an error for a missing image")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeNetwork) {
		t.Errorf("Expected network error, got %v", err)
	}
	if len(rec.failed) != 1 {
		t.Errorf("Expected one failure event, got %d", len(rec.failed))
	}
}

func TestAnalyzeBytes(t *testing.T) {
	svc, _, cleanup := newTestService(t, &memoryRepository{})
	defer cleanup()

	result, err := svc.AnalyzeBytes(context.Background(), testImagePNG(t), shadow.FastOptions())
	if err != nil {
		t.Fatalf("AnalyzeBytes failed: %v", err)
	}
	if result.ID == "" {
		t.Error("Expected a content-derived ID")
	}
}

func TestAnalyzeBytes_CancelledContext(t *testing.T) {
	svc, _, cleanup := newTestService(t, &memoryRepository{})
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.AnalyzeBytes(ctx, testImagePNG(t), shadow.FastOptions())
	if err == nil {
		t.Fatal("Expected an error for a cancelled context")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeTimeout) {
		t.Errorf("Expected timeout error, got %v", err)
	}
}

func TestAnalyzeBatch_PreservesOrderAndIsolatesFailures(t *testing.T) {
	good := testImagePNG(t)
	repo := &memoryRepository{images: map[string][]byte{
		"https://example.com/1.png": good,
		"https://example.com/3.png": good,
	}}
	svc, _, cleanup := newTestService(t, repo)
	defer cleanup()

	urls := []string{
		"https://example.com/1.png",
		"https://example.com/2.png", // missing
		"https://example.com/3.png",
	}
	items := svc.AnalyzeBatch(context.Background(), urls, shadow.FastOptions())

	if len(items) != 3 {
		t.Fatalf("Expected 3 items, got %d", len(items))
	}
	for i, u := range urls {
		if items[i].URL != u {
			t.Errorf("Item %d: expected URL %q, got %q", i, u, items[i].URL)
		}
	}
	if items[0].Result == nil || items[0].Error != "" {
		t.Errorf("Expected item 0 to succeed, got error %q", items[0].Error)
	}
	if items[1].Result != nil || items[1].Error == "" {
		t.Error("Expected item 1 to fail")
	}
	if !strings.Contains(items[1].Error, "fetch") {
		t.Errorf("Expected a fetch error message, got %q", items[1].Error)
	}
	if items[2].Result == nil {
		t.Error("Expected item 2 to succeed despite item 1 failing")
	}
}

func TestCapabilities(t *testing.T) {
	svc, _, cleanup := newTestService(t, &memoryRepository{})
	defer cleanup()

	caps := svc.Capabilities()
	if len(caps) == 0 {
		t.Fatal("Expected a capability manifest")
	}
	for name, available := range caps {
		if available {
			t.Errorf("Expected %q unavailable with a disabled provider", name)
		}
	}
}

func TestNotifierWithoutObservers(t *testing.T) {
	// A service with an empty notifier must not panic
	analyzer, err := shadow.NewShadowAnalyzer(provider.NewDisabledProvider())
	if err != nil {
		t.Fatalf("Failed to create analyzer: %v", err)
	}
	defer analyzer.Close()
	pool := shadow.NewWorkerPool(1)
	pool.Start()
	defer pool.Close()

	svc := NewShadowAnalysisService(&memoryRepository{}, analyzer, pool, observer.NewNotifier())
	if _, err := svc.AnalyzeBytes(context.Background(), testImagePNG(t), shadow.FastOptions()); err != nil {
		t.Fatalf("AnalyzeBytes failed: %v", err)
	}
}
