package container

import (
	"fmt"
	"net/http"
	"os"

	"github.com/joshband/copy-that-sub002/internal/config"
	"github.com/joshband/copy-that-sub002/internal/factory"
	"github.com/joshband/copy-that-sub002/internal/observer"
	"github.com/joshband/copy-that-sub002/internal/repository"
	"github.com/joshband/copy-that-sub002/internal/service"
	"github.com/joshband/copy-that-sub002/internal/shadow"
	"github.com/joshband/copy-that-sub002/internal/transport"
)

// Container holds all application dependencies
type Container struct {
	config   *config.Config
	analyzer shadow.ShadowAnalyzer
	service  service.ShadowAnalysisService
	pool     *shadow.WorkerPool
	handler  http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	// Model provider: ONNX when a model directory is configured
	modelProvider, err := factory.NewProviderFactory().CreateProvider(
		factory.ONNXProvider, cfg.ModelDir, cfg.Device)
	if err != nil {
		return nil, fmt.Errorf("failed to create model provider: %w", err)
	}

	storageType := factory.StorageType(envOrDefault("STORAGE_TYPE", string(factory.HTTPStorage)))
	fetcher, err := factory.NewStorageFactory().CreateStorage(storageType, cfg.MaxRequestBodySize)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage: %w", err)
	}

	analyzer, err := shadow.NewShadowAnalyzer(modelProvider)
	if err != nil {
		return nil, err
	}

	pool := shadow.NewWorkerPool(cfg.BatchWorkers)
	pool.Start()

	notifier := observer.NewNotifier()
	notifier.Register(observer.NewLoggingObserver())

	repo := repository.NewImageRepository(fetcher)
	svc := service.NewShadowAnalysisService(repo, analyzer, pool, notifier)
	handler := transport.NewHandler(svc, cfg)

	return &Container{
		config:   cfg,
		analyzer: analyzer,
		service:  svc,
		pool:     pool,
		handler:  handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Close releases container resources
func (c *Container) Close() error {
	c.pool.Close()
	return c.analyzer.Close()
}

func envOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
