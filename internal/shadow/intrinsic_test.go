package shadow

import (
	"image"
	"testing"
)

func TestDecompose_FlatImage(t *testing.T) {
	d := NewIntrinsicDecomposer()
	pre := mustPreprocess(t, createFlatImage(64, 64, 150), 0)

	res := d.Decompose(pre)

	if !res.Shading.Matches(pre.Width, pre.Height) || !res.Reflectance.Matches(pre.Width, pre.Height) {
		t.Fatal("Expected intrinsic layers at working resolution")
	}

	// A uniformly lit flat field has near-constant illumination, so shading
	// sits at its lit ceiling everywhere
	if mean := res.Shading.Mean(); mean < 0.9 {
		t.Errorf("Expected shading near 1 on a flat image, got mean %v", mean)
	}
}

func TestDecompose_ShadowReadsLowShading(t *testing.T) {
	d := NewIntrinsicDecomposer()
	rect := image.Rect(40, 40, 110, 110)
	pre := mustPreprocess(t, createShadowScene(160, 160, 210, 60, rect), 0)

	res := d.Decompose(pre)

	inside := res.Shading.At(75, 75)
	outside := res.Shading.At(10, 10)
	if inside >= outside {
		t.Errorf("Expected lower shading inside the shadow: inside=%v outside=%v", inside, outside)
	}
}

func TestDecompose_Bounded(t *testing.T) {
	d := NewIntrinsicDecomposer()
	pre := mustPreprocess(t, createGradientImage(80, 60), 0)

	res := d.Decompose(pre)
	for i := range res.Shading.Pix {
		if res.Shading.Pix[i] < 0 || res.Shading.Pix[i] > 1 {
			t.Fatalf("Shading out of range at index %d: %v", i, res.Shading.Pix[i])
		}
		if res.Reflectance.Pix[i] < 0 || res.Reflectance.Pix[i] > 1 {
			t.Fatalf("Reflectance out of range at index %d: %v", i, res.Reflectance.Pix[i])
		}
	}
}

func TestPercentile(t *testing.T) {
	plane := make([]float64, 100)
	for i := range plane {
		plane[i] = float64(i) / 99
	}

	p90 := percentile(plane, 0.9)
	if p90 < 0.85 || p90 > 0.95 {
		t.Errorf("Expected 90th percentile near 0.9, got %v", p90)
	}
	p10 := percentile(plane, 0.1)
	if p10 < 0.05 || p10 > 0.15 {
		t.Errorf("Expected 10th percentile near 0.1, got %v", p10)
	}
}
