package shadow

import (
	"bytes"
	"image/png"
	"testing"

	apperrors "github.com/joshband/copy-that-sub002/internal/errors"
)

func TestDecode_EmptyData(t *testing.T) {
	p := NewPreprocessor()

	_, _, err := p.Decode(nil)
	if err == nil {
		t.Fatal("Expected an error for empty data")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeInvalidInput) {
		t.Errorf("Expected invalid-input error, got %v", err)
	}
	if apperrors.IsRecoverable(err) {
		t.Error("Invalid input must not be recoverable")
	}
}

func TestDecode_CorruptData(t *testing.T) {
	p := NewPreprocessor()

	_, _, err := p.Decode([]byte("definitely not an image"))
	if err == nil {
		t.Fatal("Expected an error for corrupt data")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeInvalidInput) {
		t.Errorf("Expected invalid-input error, got %v", err)
	}
}

func TestDecode_ValidPNG(t *testing.T) {
	p := NewPreprocessor()

	var buf bytes.Buffer
	if err := png.Encode(&buf, createFlatImage(12, 8, 128)); err != nil {
		t.Fatalf("Failed to encode test PNG: %v", err)
	}

	img, format, err := p.Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if format != "png" {
		t.Errorf("Expected png format, got %q", format)
	}
	if img.Bounds().Dx() != 12 || img.Bounds().Dy() != 8 {
		t.Errorf("Unexpected decoded dimensions: %v", img.Bounds())
	}
}

func TestProcess_Planes(t *testing.T) {
	p := NewPreprocessor()

	pre, err := p.Process(createGradientImage(40, 30), 0)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if pre.Width != 40 || pre.Height != 30 {
		t.Errorf("Expected 40x30 working size, got %dx%d", pre.Width, pre.Height)
	}
	if pre.OrigWidth != 40 || pre.OrigHeight != 30 {
		t.Errorf("Expected original dimensions recorded, got %dx%d", pre.OrigWidth, pre.OrigHeight)
	}

	n := pre.Width * pre.Height
	if len(pre.Lum) != n || len(pre.RawLum) != n || len(pre.Sat) != n || len(pre.CoolBias) != n {
		t.Fatal("Expected every plane at working resolution")
	}
	for i := 0; i < n; i++ {
		if pre.Lum[i] < 0 || pre.Lum[i] > 1 {
			t.Fatalf("Lum out of range at index %d: %v", i, pre.Lum[i])
		}
		if pre.RawLum[i] < 0 || pre.RawLum[i] > 1 {
			t.Fatalf("RawLum out of range at index %d: %v", i, pre.RawLum[i])
		}
		if pre.CoolBias[i] < -1 || pre.CoolBias[i] > 1 {
			t.Fatalf("CoolBias out of range at index %d: %v", i, pre.CoolBias[i])
		}
	}
}

func TestProcess_DownscalesToMaxDimension(t *testing.T) {
	p := NewPreprocessor()

	pre, err := p.Process(createGradientImage(200, 100), 50)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if pre.Width != 50 {
		t.Errorf("Expected width bounded to 50, got %d", pre.Width)
	}
	if pre.Height != 25 {
		t.Errorf("Expected aspect ratio preserved (height 25), got %d", pre.Height)
	}
	if pre.OrigWidth != 200 || pre.OrigHeight != 100 {
		t.Errorf("Expected original dimensions preserved, got %dx%d", pre.OrigWidth, pre.OrigHeight)
	}
}

func TestProcess_TallImageBoundsHeight(t *testing.T) {
	p := NewPreprocessor()

	pre, err := p.Process(createGradientImage(100, 200), 50)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if pre.Height != 50 || pre.Width != 25 {
		t.Errorf("Expected 25x50 working size, got %dx%d", pre.Width, pre.Height)
	}
}

func TestProcess_SmallImageNotUpscaled(t *testing.T) {
	p := NewPreprocessor()

	pre, err := p.Process(createFlatImage(30, 20, 128), 1024)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if pre.Width != 30 || pre.Height != 20 {
		t.Errorf("Expected small image untouched, got %dx%d", pre.Width, pre.Height)
	}
}

func TestProcess_NilImage(t *testing.T) {
	p := NewPreprocessor()

	_, err := p.Process(nil, 0)
	if err == nil {
		t.Fatal("Expected an error for a nil image")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeInvalidInput) {
		t.Errorf("Expected invalid-input error, got %v", err)
	}
}

func TestStretchContrast_SpansUnitRange(t *testing.T) {
	lum := make([]float64, 1000)
	for i := range lum {
		lum[i] = 0.2 + 0.4*float64(i)/999 // raw values span [0.2, 0.6]
	}

	stretched := stretchContrast(lum)
	if stretched[0] != 0 {
		t.Errorf("Expected the dark end stretched to 0, got %v", stretched[0])
	}
	if stretched[999] != 1 {
		t.Errorf("Expected the bright end stretched to 1, got %v", stretched[999])
	}
}

func TestStretchContrast_FlatInputUnchanged(t *testing.T) {
	lum := []float64{0.5, 0.5, 0.5, 0.5}
	stretched := stretchContrast(lum)
	for i, v := range stretched {
		if v != 0.5 {
			t.Errorf("Expected flat input unchanged at index %d, got %v", i, v)
		}
	}
}
