package service

import (
	"context"
	"sync"

	apperrors "github.com/joshband/copy-that-sub002/internal/errors"
	"github.com/joshband/copy-that-sub002/internal/observer"
	"github.com/joshband/copy-that-sub002/internal/repository"
	"github.com/joshband/copy-that-sub002/internal/shadow"
	"github.com/joshband/copy-that-sub002/pkg/models"
)

// ShadowAnalysisService coordinates image retrieval and the analysis
// pipeline for the transport layer.
type ShadowAnalysisService interface {
	// AnalyzeURL fetches an image by URL and analyzes it
	AnalyzeURL(ctx context.Context, imageURL string, opts shadow.AnalysisOptions) (*models.ShadowAnalysisResult, error)

	// AnalyzeBytes analyzes raw image bytes directly
	AnalyzeBytes(ctx context.Context, data []byte, opts shadow.AnalysisOptions) (*models.ShadowAnalysisResult, error)

	// AnalyzeBatch analyzes several URLs concurrently; results preserve
	// request order, processing does not
	AnalyzeBatch(ctx context.Context, urls []string, opts shadow.AnalysisOptions) []models.BatchAnalysisItem

	// Capabilities reports learned-model availability
	Capabilities() map[string]bool
}

type shadowAnalysisService struct {
	repo     repository.ImageRepository
	analyzer shadow.ShadowAnalyzer
	pool     *shadow.WorkerPool
	notifier *observer.Notifier
}

// NewShadowAnalysisService wires the repository, analyzer, batch pool, and
// event notifier together.
func NewShadowAnalysisService(repo repository.ImageRepository, analyzer shadow.ShadowAnalyzer,
	pool *shadow.WorkerPool, notifier *observer.Notifier) ShadowAnalysisService {
	return &shadowAnalysisService{
		repo:     repo,
		analyzer: analyzer,
		pool:     pool,
		notifier: notifier,
	}
}

func (s *shadowAnalysisService) AnalyzeURL(ctx context.Context, imageURL string, opts shadow.AnalysisOptions) (*models.ShadowAnalysisResult, error) {
	data, _, err := s.repo.GetImage(ctx, imageURL)
	if err != nil {
		wrapped := apperrors.NewNetworkError("failed to fetch image", err)
		s.notifier.NotifyFailed(imageURL, wrapped)
		return nil, wrapped
	}

	result, err := s.analyzer.Analyze(data, opts)
	if err != nil {
		s.notifier.NotifyFailed(imageURL, err)
		return nil, err
	}
	result.ImageURL = imageURL
	s.notifier.NotifyComplete(imageURL, result)
	return result, nil
}

func (s *shadowAnalysisService) AnalyzeBytes(ctx context.Context, data []byte, opts shadow.AnalysisOptions) (*models.ShadowAnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewTimeoutError("request cancelled", err)
	}
	result, err := s.analyzer.Analyze(data, opts)
	if err != nil {
		s.notifier.NotifyFailed("", err)
		return nil, err
	}
	s.notifier.NotifyComplete("", result)
	return result, nil
}

func (s *shadowAnalysisService) AnalyzeBatch(ctx context.Context, urls []string, opts shadow.AnalysisOptions) []models.BatchAnalysisItem {
	items := make([]models.BatchAnalysisItem, len(urls))
	var wg sync.WaitGroup
	for i, u := range urls {
		i, u := i, u
		wg.Add(1)
		s.pool.Submit(func() {
			defer wg.Done()
			items[i].URL = u
			result, err := s.AnalyzeURL(ctx, u, opts)
			if err != nil {
				items[i].Error = err.Error()
				return
			}
			items[i].Result = result
		})
	}
	wg.Wait()
	return items
}

func (s *shadowAnalysisService) Capabilities() map[string]bool {
	return s.analyzer.Capabilities()
}
