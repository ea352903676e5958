package transport

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/joshband/copy-that-sub002/internal/config"
	apperrors "github.com/joshband/copy-that-sub002/internal/errors"
	"github.com/joshband/copy-that-sub002/internal/logger"
	"github.com/joshband/copy-that-sub002/internal/service"
	"github.com/joshband/copy-that-sub002/internal/shadow"
	"github.com/joshband/copy-that-sub002/pkg/models"
)

// NewHandler builds the HTTP surface: analysis, batch analysis, and health.
func NewHandler(svc service.ShadowAnalysisService, cfg *config.Config) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), requestSizeLimiter(cfg.MaxRequestBodySize))

	r.GET("/health", healthCheck(svc))
	r.POST("/analyze", analyzeImage(svc, cfg))
	r.POST("/analyze/batch", analyzeBatch(svc, cfg))

	return r
}

func healthCheck(svc service.ShadowAnalysisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.HealthResponse{
			Status: "ok",
			Models: svc.Capabilities(),
		})
	}
}

func analyzeImage(svc service.ShadowAnalysisService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		var req models.AnalysisRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, apperrors.NewValidationError("invalid request body", err))
			return
		}
		if (req.URL == "") == (req.ImageBase64 == "") {
			respondError(c, apperrors.NewValidationError("exactly one of url or image_base64 is required", nil))
			return
		}

		opts := optionsFromRequest(req, cfg)

		var result *models.ShadowAnalysisResult
		var err error
		if req.URL != "" {
			if verr := validateImageURL(req.URL); verr != nil {
				respondError(c, verr)
				return
			}
			result, err = svc.AnalyzeURL(ctx, req.URL, opts)
		} else {
			data, derr := base64.StdEncoding.DecodeString(req.ImageBase64)
			if derr != nil {
				respondError(c, apperrors.NewValidationError("image_base64 is not valid base64", derr))
				return
			}
			result, err = svc.AnalyzeBytes(ctx, data, opts)
		}
		if err != nil {
			respondError(c, err)
			return
		}

		logger.WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"elapsed_sec": time.Since(start).Seconds(),
		}).Info("Request complete")
		c.JSON(http.StatusOK, result)
	}
}

func analyzeBatch(svc service.ShadowAnalysisService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		var req models.BatchAnalysisRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, apperrors.NewValidationError("invalid request body", err))
			return
		}
		if len(req.URLs) == 0 {
			respondError(c, apperrors.NewValidationError("urls must not be empty", nil))
			return
		}
		for _, u := range req.URLs {
			if err := validateImageURL(u); err != nil {
				respondError(c, err)
				return
			}
		}

		opts := shadow.DefaultOptions().WithMaxDimension(cfg.MaxDimension).WithDevice(cfg.Device)
		if req.UseGeometry != nil && !*req.UseGeometry {
			opts = opts.WithoutGeometry()
		}

		items := svc.AnalyzeBatch(ctx, req.URLs, opts)
		c.JSON(http.StatusOK, models.BatchAnalysisResponse{Results: items})
	}
}

// optionsFromRequest merges request overrides onto server defaults.
func optionsFromRequest(req models.AnalysisRequest, cfg *config.Config) shadow.AnalysisOptions {
	opts := shadow.DefaultOptions().WithMaxDimension(cfg.MaxDimension).WithDevice(cfg.Device)
	if req.UseGeometry != nil {
		opts.UseGeometry = *req.UseGeometry
	}
	if req.UseRefiner != nil {
		opts.UseRefiner = *req.UseRefiner
	}
	if req.EmitMask {
		opts = opts.WithMask()
	}
	if req.MaxDimension > 0 {
		opts = opts.WithMaxDimension(req.MaxDimension)
	}
	if req.Device != "" {
		opts = opts.WithDevice(req.Device)
	}
	return opts
}

func validateImageURL(imageURL string) error {
	parsedURL, err := url.Parse(imageURL)
	if err != nil {
		return apperrors.NewValidationError("invalid URL format", err)
	}
	if parsedURL.Host == "" {
		return apperrors.NewValidationError("URL must have a valid host", nil)
	}
	return nil
}

// respondError maps application errors onto HTTP responses.
func respondError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		logger.WithError(err).WithField("type", string(appErr.Type)).Warn("Request failed")
		c.JSON(appErr.StatusCode, models.ErrorResponse{
			Error:   string(appErr.Type),
			Message: appErr.Message,
		})
		return
	}
	logger.WithError(err).Error("Request failed with internal error")
	c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Error:   string(apperrors.ErrorTypeInternal),
		Message: "internal error",
	})
}

// requestSizeLimiter bounds request bodies to maxBytes.
func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
