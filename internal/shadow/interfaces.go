package shadow

import (
	"image"

	"github.com/joshband/copy-that-sub002/pkg/models"
)

// ShadowAnalyzer defines the main interface for shadow analysis
type ShadowAnalyzer interface {
	// Analyze runs the full pipeline on raw image bytes
	Analyze(data []byte, options AnalysisOptions) (*models.ShadowAnalysisResult, error)

	// AnalyzeImage runs the full pipeline on an already-decoded image
	AnalyzeImage(img image.Image, options AnalysisOptions) (*models.ShadowAnalysisResult, error)

	// Capabilities reports per-model availability for health checks
	Capabilities() map[string]bool

	// Lifecycle management
	Close() error
}
