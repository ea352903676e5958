package shadow

import (
	"bytes"
	"image"
	"image/png"
	"reflect"
	"testing"

	apperrors "github.com/joshband/copy-that-sub002/internal/errors"
	"github.com/joshband/copy-that-sub002/internal/provider"
	"github.com/joshband/copy-that-sub002/pkg/tokens"
)

func encodeTestPNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode test PNG: %v", err)
	}
	return buf.Bytes()
}

func newTestAnalyzer(t *testing.T) ShadowAnalyzer {
	t.Helper()
	analyzer, err := NewShadowAnalyzer(provider.NewDisabledProvider())
	if err != nil {
		t.Fatalf("Failed to create analyzer: %v", err)
	}
	return analyzer
}

func TestAnalyze_FlatImage(t *testing.T) {
	analyzer := newTestAnalyzer(t)
	data := encodeTestPNG(t, createFlatImage(96, 96, 140))

	result, err := analyzer.Analyze(data, DefaultOptions())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if result.ID == "" {
		t.Error("Expected a content-derived ID")
	}
	if result.Features.ShadowAreaFraction > 0.02 {
		t.Errorf("Expected near-zero shadow area on a flat image, got %v", result.Features.ShadowAreaFraction)
	}
	if result.Tokens.Density.Label != tokens.DensitySparse {
		t.Errorf("Expected sparse density, got %q", result.Tokens.Density.Label)
	}
	if result.Tokens.Direction.Label != tokens.DirectionUnknown {
		t.Errorf("Expected unknown direction without a light fit, got %q", result.Tokens.Direction.Label)
	}
	if result.Light != nil {
		t.Errorf("Expected no fitted light without a depth model, got %+v", result.Light)
	}
}

func TestAnalyze_HardShadowScene(t *testing.T) {
	analyzer := newTestAnalyzer(t)
	rect := image.Rect(40, 30, 110, 90)
	data := encodeTestPNG(t, createShadowScene(160, 120, 210, 70, rect))

	result, err := analyzer.Analyze(data, DefaultOptions())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if result.Tokens.Density.Label == tokens.DensitySparse {
		t.Errorf("Expected a detected shadow region, got density %q", result.Tokens.Density.Label)
	}
	switch result.Tokens.Softness.Label {
	case tokens.SoftnessSoft, tokens.SoftnessVerySoft:
		t.Errorf("Expected a crisp edge not to read soft, got %q", result.Tokens.Softness.Label)
	}
	switch result.Tokens.Contrast.Label {
	case tokens.ContrastLow:
		t.Errorf("Expected clear lit/shadow separation, got contrast %q", result.Tokens.Contrast.Label)
	}
	if result.Features.MeanLitIntensity <= result.Features.MeanShadowIntensity {
		t.Errorf("Expected lit brighter than shadow: lit=%v shadow=%v",
			result.Features.MeanLitIntensity, result.Features.MeanShadowIntensity)
	}
}

func TestAnalyze_AllHeuristicContributorsPresent(t *testing.T) {
	analyzer := newTestAnalyzer(t)
	data := encodeTestPNG(t, createShadowScene(120, 120, 200, 60, image.Rect(30, 30, 90, 90)))

	result, err := analyzer.Analyze(data, DefaultOptions())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	want := map[string]bool{"classical": true, "learned": true, "shading": true}
	if len(result.Contributors) != len(want) {
		t.Fatalf("Expected 3 contributors, got %v", result.Contributors)
	}
	for _, name := range result.Contributors {
		if !want[name] {
			t.Errorf("Unexpected contributor %q", name)
		}
	}
}

func TestAnalyze_Deterministic(t *testing.T) {
	analyzer := newTestAnalyzer(t)
	data := encodeTestPNG(t, createShadowScene(120, 120, 200, 60, image.Rect(30, 30, 90, 90)))

	first, err := analyzer.Analyze(data, DefaultOptions())
	if err != nil {
		t.Fatalf("First analysis failed: %v", err)
	}
	second, err := analyzer.Analyze(data, DefaultOptions())
	if err != nil {
		t.Fatalf("Second analysis failed: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("Expected stable IDs, got %q and %q", first.ID, second.ID)
	}
	if !reflect.DeepEqual(first.Features, second.Features) {
		t.Errorf("Features differ between runs:\n%+v\n%+v", first.Features, second.Features)
	}
	if !reflect.DeepEqual(first.Tokens, second.Tokens) {
		t.Errorf("Tokens differ between runs:\n%+v\n%+v", first.Tokens, second.Tokens)
	}
}

func TestAnalyze_InvalidInput(t *testing.T) {
	analyzer := newTestAnalyzer(t)

	_, err := analyzer.Analyze([]byte("not an image"), DefaultOptions())
	if err == nil {
		t.Fatal("Expected an error for corrupt bytes")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeInvalidInput) {
		t.Errorf("Expected invalid-input error, got %v", err)
	}

	if _, err := analyzer.Analyze(nil, DefaultOptions()); err == nil {
		t.Fatal("Expected an error for empty bytes")
	}
}

func TestAnalyze_EmitMask(t *testing.T) {
	analyzer := newTestAnalyzer(t)
	data := encodeTestPNG(t, createShadowScene(100, 80, 200, 60, image.Rect(20, 20, 60, 60)))

	withMask, err := analyzer.Analyze(data, DefaultOptions().WithMask())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if withMask.Mask == nil {
		t.Fatal("Expected a mask artifact when requested")
	}
	if withMask.Mask.Width != 100 || withMask.Mask.Height != 80 {
		t.Errorf("Expected mask at input dimensions 100x80, got %dx%d",
			withMask.Mask.Width, withMask.Mask.Height)
	}

	without, err := analyzer.Analyze(data, DefaultOptions())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if without.Mask != nil {
		t.Error("Expected no mask artifact by default")
	}
}

func TestAnalyze_MaskMatchesDownscaledInput(t *testing.T) {
	analyzer := newTestAnalyzer(t)
	data := encodeTestPNG(t, createShadowScene(400, 300, 200, 60, image.Rect(100, 80, 280, 220)))

	result, err := analyzer.Analyze(data, DefaultOptions().WithMaxDimension(128).WithMask())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	// Even with an internal downscale, the external mask matches the input
	if result.Mask.Width != 400 || result.Mask.Height != 300 {
		t.Errorf("Expected mask at original 400x300, got %dx%d", result.Mask.Width, result.Mask.Height)
	}
}

func TestAnalyze_GeometryDisabledSkipsDepthWarning(t *testing.T) {
	analyzer := newTestAnalyzer(t)
	data := encodeTestPNG(t, createFlatImage(64, 64, 128))

	result, err := analyzer.Analyze(data, FastOptions())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	for _, w := range result.Warnings {
		t.Errorf("Expected no stage warnings with geometry disabled, got %q", w)
	}
}

func TestAnalyze_MissingDepthModelDegrades(t *testing.T) {
	analyzer := newTestAnalyzer(t)
	data := encodeTestPNG(t, createShadowScene(100, 100, 200, 60, image.Rect(25, 25, 75, 75)))

	// Geometry requested but no model available: the analysis still
	// completes, the direction token degrades to unknown
	result, err := analyzer.Analyze(data, GeometryOptions())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if result.Light != nil {
		t.Error("Expected no light fit without a depth model")
	}
	if result.Tokens.Direction.Label != tokens.DirectionUnknown {
		t.Errorf("Expected unknown direction, got %q", result.Tokens.Direction.Label)
	}
	if len(result.Warnings) == 0 {
		t.Error("Expected a stage warning for the missing depth model")
	}
	if result.Features.PhysicsConsistency != nil {
		t.Error("Expected nil physics consistency without a light fit")
	}
}

func TestCapabilities_DisabledProvider(t *testing.T) {
	analyzer := newTestAnalyzer(t)
	caps := analyzer.Capabilities()

	for _, name := range []string{provider.ModelDepth, provider.ModelSegment} {
		available, ok := caps[name]
		if !ok {
			t.Errorf("Expected %q in the capability manifest", name)
		}
		if available {
			t.Errorf("Expected %q unavailable with a disabled provider", name)
		}
	}
}

func TestAnalyzeImage_DirectUse(t *testing.T) {
	analyzer := newTestAnalyzer(t)

	result, err := analyzer.AnalyzeImage(createFlatImage(48, 48, 128), FastOptions())
	if err != nil {
		t.Fatalf("AnalyzeImage failed: %v", err)
	}
	if result.Timestamp.IsZero() {
		t.Error("Expected timestamp to be set")
	}
	if result.ProcessingTimeSec < 0 {
		t.Error("Expected non-negative processing time")
	}
	if result.CSS == nil || len(result.CSS.Variants) != 3 {
		t.Error("Expected CSS suggestions on every analysis")
	}
}
