package shadow

import (
	"crypto/sha256"
	"encoding/hex"
	"image"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	apperrors "github.com/joshband/copy-that-sub002/internal/errors"
	"github.com/joshband/copy-that-sub002/internal/logger"
	"github.com/joshband/copy-that-sub002/internal/provider"
	"github.com/joshband/copy-that-sub002/pkg/cssgen"
	"github.com/joshband/copy-that-sub002/pkg/models"
	"github.com/joshband/copy-that-sub002/pkg/tokens"
)

// pipeline implements ShadowAnalyzer. Per image it runs a DAG of stages:
// after preprocessing, the classical detector, learned scorer (+refiner),
// intrinsic decomposer, and depth estimator fan out concurrently; the light
// fit joins depth with shading gated by the classical lit mask; the fuser
// joins the three mask signals; features, tokens, and CSS follow serially.
// Stage-local recoverable failures become missing signals; only invalid
// input and invariant violations propagate.
type pipeline struct {
	preprocessor *Preprocessor
	classical    *ClassicalDetector
	scorer       *LearnedShadowScorer
	refiner      *BoundaryRefiner
	depth        *DepthNormalEstimator
	intrinsic    *IntrinsicDecomposer
	fitter       *LightDirectionFitter
	fuser        *MaskFuser
	extractor    *FeatureExtractor
	mapper       *cssgen.Mapper
	provider     provider.ModelProvider
}

// NewShadowAnalyzer creates the full pipeline over the given model provider.
// The provider is loaded lazily; missing models degrade the pipeline to its
// heuristic detectors instead of failing construction.
func NewShadowAnalyzer(p provider.ModelProvider) (ShadowAnalyzer, error) {
	if p == nil {
		p = provider.NewDisabledProvider()
	}
	segHandle, err := p.Get(provider.ModelSegment)
	if err != nil {
		logger.WithError(err).Warn("Segmentation model unavailable")
		segHandle = provider.Unavailable(provider.ModelSegment)
	}
	depthHandle, err := p.Get(provider.ModelDepth)
	if err != nil {
		logger.WithError(err).Warn("Depth model unavailable")
		depthHandle = provider.Unavailable(provider.ModelDepth)
	}

	return &pipeline{
		preprocessor: NewPreprocessor(),
		classical:    NewClassicalDetector(),
		scorer:       NewLearnedShadowScorer(),
		refiner:      NewBoundaryRefiner(segHandle),
		depth:        NewDepthNormalEstimator(depthHandle),
		intrinsic:    NewIntrinsicDecomposer(),
		fitter:       NewLightDirectionFitter(),
		fuser:        NewMaskFuser(),
		extractor:    NewFeatureExtractor(),
		mapper:       cssgen.NewMapper(),
		provider:     p,
	}, nil
}

// Analyze decodes raw bytes and runs the pipeline.
func (pl *pipeline) Analyze(data []byte, options AnalysisOptions) (*models.ShadowAnalysisResult, error) {
	img, _, err := pl.preprocessor.Decode(data)
	if err != nil {
		return nil, err
	}
	result, err := pl.AnalyzeImage(img, options)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(data)
	result.ID = hex.EncodeToString(sum[:8])
	return result, nil
}

// AnalyzeImage runs the pipeline on a decoded image.
func (pl *pipeline) AnalyzeImage(img image.Image, options AnalysisOptions) (*models.ShadowAnalysisResult, error) {
	start := time.Now()

	pre, err := pl.preprocessor.Process(img, options.MaxDimension)
	if err != nil {
		return nil, err
	}

	var (
		wg            sync.WaitGroup
		classicalRes  *ClassicalResult
		learnedMask   *SoftMask
		intrinsicRes  *IntrinsicResult
		depthRes      *DepthNormals
		stageWarnings = make(chan string, 8)
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		classicalRes = pl.classical.Detect(pre)
	}()
	go func() {
		defer wg.Done()
		prob := pl.scorer.Score(pre)
		if options.UseRefiner {
			refined, err := pl.refiner.Refine(pre, prob)
			if err == nil {
				prob = refined
			} else if apperrors.IsRecoverable(err) {
				stageWarnings <- "refiner skipped: " + err.Error()
			} else {
				stageWarnings <- "refiner failed: " + err.Error()
			}
		}
		learnedMask = prob
	}()
	go func() {
		defer wg.Done()
		intrinsicRes = pl.intrinsic.Decompose(pre)
	}()

	if options.UseGeometry {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := pl.depth.Estimate(pre)
			if err != nil {
				stageWarnings <- "depth skipped: " + err.Error()
				return
			}
			depthRes = res
		}()
	}

	wg.Wait()
	close(stageWarnings)

	var warnings []string
	for w := range stageWarnings {
		warnings = append(warnings, w)
	}

	// Light fit needs shading + normals, gated by classically lit pixels
	var light *models.LightDirection
	var predicted *SoftMask
	if options.UseGeometry && depthRes != nil {
		fitter := pl.fitter
		if options.FitResidualTolerance > 0 {
			custom := *pl.fitter
			custom.ResidualTolerance = options.FitResidualTolerance
			fitter = &custom
		}
		fitted, err := fitter.Fit(intrinsicRes.Shading, depthRes, classicalRes.Lit)
		switch {
		case err == nil:
			light = fitted
			predicted = PredictShadowMask(light, depthRes)
		case apperrors.IsRecoverable(err):
			warnings = append(warnings, "light fit diverged: "+err.Error())
		default:
			return nil, err
		}
	}

	fused, contributors, err := pl.fuser.Fuse(pre.Width, pre.Height, []Signal{
		{Name: "classical", Mask: classicalRes.Mask, Weight: options.ClassicalWeight},
		{Name: "learned", Mask: learnedMask, Weight: options.LearnedWeight},
		ShadingSignal(intrinsicRes, options.ShadingWeight),
	})
	if err != nil {
		return nil, err
	}

	// The external record's mask must match the input image
	outputMask := fused
	if pre.OrigWidth != pre.Width || pre.OrigHeight != pre.Height {
		outputMask = fused.Resize(pre.OrigWidth, pre.OrigHeight)
	}
	if !outputMask.Matches(pre.OrigWidth, pre.OrigHeight) {
		return nil, apperrors.NewDimensionMismatchError("fused mask does not match input dimensions")
	}

	features := pl.extractor.Extract(pre, fused, predicted)
	quantizer := tokens.NewQuantizer(options.Thresholds)
	toks := quantizer.Quantize(features, light)
	css := pl.mapper.Suggest(toks, features)

	result := &models.ShadowAnalysisResult{
		Timestamp:         start,
		ProcessingTimeSec: time.Since(start).Seconds(),
		Features:          features,
		Tokens:            toks,
		Light:             light,
		CSS:               css,
		Contributors:      contributors,
		Warnings:          warnings,
	}

	if options.EmitMask {
		artifact, err := outputMask.ToArtifact()
		if err != nil {
			return nil, apperrors.NewInternalError("failed to encode mask artifact", err)
		}
		result.Mask = artifact
	}

	logger.WithFields(logrus.Fields{
		"contributors": contributors,
		"direction":    toks.Direction.Label,
		"density":      toks.Density.Label,
		"elapsed_sec":  result.ProcessingTimeSec,
	}).Debug("Shadow analysis complete")

	return result, nil
}

// Capabilities reports which learned models are actually loadable.
func (pl *pipeline) Capabilities() map[string]bool {
	return pl.provider.Manifest()
}

// Close releases pipeline resources.
func (pl *pipeline) Close() error {
	return nil
}
