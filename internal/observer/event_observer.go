package observer

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/joshband/copy-that-sub002/internal/logger"
	"github.com/joshband/copy-that-sub002/pkg/models"
)

// AnalysisObserver receives completed shadow analyses. Implementations must
// be safe for concurrent notification from batch workers.
type AnalysisObserver interface {
	OnAnalysisComplete(imageURL string, result *models.ShadowAnalysisResult)
	OnAnalysisFailed(imageURL string, err error)
}

// Notifier fans completion events out to registered observers.
type Notifier struct {
	mu        sync.RWMutex
	observers []AnalysisObserver
}

// NewNotifier creates an empty notifier.
func NewNotifier() *Notifier {
	return &Notifier{}
}

// Register adds an observer.
func (n *Notifier) Register(o AnalysisObserver) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.observers = append(n.observers, o)
}

// NotifyComplete dispatches a successful analysis to all observers.
func (n *Notifier) NotifyComplete(imageURL string, result *models.ShadowAnalysisResult) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, o := range n.observers {
		o.OnAnalysisComplete(imageURL, result)
	}
}

// NotifyFailed dispatches a failed analysis to all observers.
func (n *Notifier) NotifyFailed(imageURL string, err error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, o := range n.observers {
		o.OnAnalysisFailed(imageURL, err)
	}
}

// LoggingObserver logs analysis outcomes as structured events.
type LoggingObserver struct{}

// NewLoggingObserver creates a logging observer.
func NewLoggingObserver() *LoggingObserver {
	return &LoggingObserver{}
}

// OnAnalysisComplete logs one completed analysis.
func (l *LoggingObserver) OnAnalysisComplete(imageURL string, result *models.ShadowAnalysisResult) {
	logger.WithFields(logrus.Fields{
		"image_url":    imageURL,
		"direction":    result.Tokens.Direction.Label,
		"softness":     result.Tokens.Softness.Label,
		"density":      result.Tokens.Density.Label,
		"contributors": result.Contributors,
		"elapsed_sec":  result.ProcessingTimeSec,
	}).Info("Shadow analysis complete")
}

// OnAnalysisFailed logs one failed analysis.
func (l *LoggingObserver) OnAnalysisFailed(imageURL string, err error) {
	logger.WithError(err).WithField("image_url", imageURL).Error("Shadow analysis failed")
}
