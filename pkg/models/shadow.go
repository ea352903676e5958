package models

import "time"

// ShadowAnalysisResult represents the complete result of shadow analysis for
// one image. It is assembled once by the pipeline and never mutated afterwards;
// consumers (API layer, storage, UI) treat it as an opaque record.
type ShadowAnalysisResult struct {
	ID                string    `json:"id"`
	ImageURL          string    `json:"image_url,omitempty"`
	Timestamp         time.Time `json:"timestamp"`
	ProcessingTimeSec float64   `json:"processing_time_sec"`

	// Numeric descriptors, bounded per field
	Features ShadowFeatures `json:"features"`

	// Designer-facing categorical labels
	Tokens ShadowTokens `json:"tokens"`

	// Fitted dominant light; nil when the fit diverged or geometry was disabled
	Light *LightDirection `json:"light_direction"`

	// Suggested layered box-shadow parameters
	CSS *CSSSuggestion `json:"css_suggestion,omitempty"`

	// Fused soft mask, only populated when requested
	Mask *MaskArtifact `json:"mask,omitempty"`

	// Manifest of which detectors actually contributed to the fused mask
	Contributors []string `json:"contributors"`

	// Recoverable stage failures, for debuggability
	Warnings []string `json:"warnings,omitempty"`
}

// ShadowFeatures holds the numeric descriptors extracted from the fused mask,
// the image, and the fitted light direction. All fields are clamped to [0,1].
// PhysicsConsistency is nil when no light direction was recovered; it is never
// a fabricated number.
type ShadowFeatures struct {
	ShadowAreaFraction  float64  `json:"shadow_area_fraction"`
	MeanShadowIntensity float64  `json:"mean_shadow_intensity"`
	MeanLitIntensity    float64  `json:"mean_lit_intensity"`
	ShadowContrast      float64  `json:"shadow_contrast"`
	EdgeSoftnessMean    float64  `json:"edge_softness_mean"`
	PhysicsConsistency  *float64 `json:"physics_consistency"`
}

// TokenValue pairs a categorical label with the numeric confidence that
// produced it.
type TokenValue struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// ShadowTokens holds the quantized, designer-facing shadow labels.
type ShadowTokens struct {
	Direction     TokenValue `json:"direction"`
	Softness      TokenValue `json:"softness"`
	Contrast      TokenValue `json:"contrast"`
	Density       TokenValue `json:"density"`
	LightingStyle TokenValue `json:"lighting_style"`
}

// LightDirection is the fitted dominant light. The (X, Y, Z) vector is unit
// length in camera coordinates: X right, Y down, Z toward the viewer.
type LightDirection struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`

	// AzimuthDeg is degrees clockwise from image-top, naming the compass
	// direction the light comes FROM. ElevationDeg is degrees above horizon.
	AzimuthDeg   float64 `json:"azimuth_deg"`
	ElevationDeg float64 `json:"elevation_deg"`

	Ambient    float64 `json:"ambient"`
	Residual   float64 `json:"residual"`
	Confidence float64 `json:"confidence"`
}

// BoxShadowLayer is a single CSS box-shadow layer.
type BoxShadowLayer struct {
	OffsetX    float64 `json:"offset_x"`
	OffsetY    float64 `json:"offset_y"`
	BlurRadius float64 `json:"blur_radius"`
	Spread     float64 `json:"spread"`
	Opacity    float64 `json:"opacity"`
}

// CSSVariant is a named, ready-to-apply box-shadow made of one or more layers.
type CSSVariant struct {
	Name   string           `json:"name"`
	Layers []BoxShadowLayer `json:"layers"`
	Value  string           `json:"value"`
}

// CSSSuggestion carries the generated box-shadow variants.
type CSSSuggestion struct {
	Variants []CSSVariant `json:"variants"`
}

// MaskArtifact is the fused soft mask rendered as a grayscale PNG, encoded as
// base64 for transport. Dimensions match the input image.
type MaskArtifact struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// ImageMetadata contains metadata about a fetched image.
type ImageMetadata struct {
	ContentType   string `json:"content_type"`
	ContentLength int64  `json:"content_length"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	Format        string `json:"format"`
}
