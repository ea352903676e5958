package models

// AnalysisRequest is the /analyze request body. Exactly one of URL or
// ImageBase64 must be set. Option fields override server defaults only when
// present; pointer fields distinguish "absent" from "false".
type AnalysisRequest struct {
	URL         string `json:"url,omitempty"`
	ImageBase64 string `json:"image_base64,omitempty"`

	UseGeometry  *bool  `json:"use_geometry,omitempty"`
	UseRefiner   *bool  `json:"use_refiner,omitempty"`
	EmitMask     bool   `json:"emit_mask,omitempty"`
	MaxDimension int    `json:"max_dimension,omitempty"`
	Device       string `json:"device,omitempty"`
}

// BatchAnalysisRequest is the /analyze/batch request body.
type BatchAnalysisRequest struct {
	URLs []string `json:"urls"`

	UseGeometry  *bool  `json:"use_geometry,omitempty"`
	UseRefiner   *bool  `json:"use_refiner,omitempty"`
	EmitMask     bool   `json:"emit_mask,omitempty"`
	MaxDimension int    `json:"max_dimension,omitempty"`
	Device       string `json:"device,omitempty"`
}

// BatchAnalysisItem pairs one batch URL with its result or error. Items come
// back in request order regardless of processing order.
type BatchAnalysisItem struct {
	URL    string                `json:"url"`
	Result *ShadowAnalysisResult `json:"result,omitempty"`
	Error  string                `json:"error,omitempty"`
}

// BatchAnalysisResponse is the /analyze/batch response body.
type BatchAnalysisResponse struct {
	Results []BatchAnalysisItem `json:"results"`
}

// ErrorResponse is the uniform error body for all endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse reports service liveness and learned-model availability.
type HealthResponse struct {
	Status string          `json:"status"`
	Models map[string]bool `json:"models"`
}
