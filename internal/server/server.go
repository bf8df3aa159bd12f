// Package server exposes the analyzer over a minimal HTTP API: one analyze
// endpoint, one feedback endpoint and read-only statistics views.
package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/platewise/platewise/internal/analyzer"
	"github.com/platewise/platewise/internal/vision"
	"go.uber.org/zap"
)

// maxImageBytes bounds uploaded image size (16MB).
const maxImageBytes = 16 << 20

// Server is the HTTP front for the analyzer service.
type Server struct {
	svc    *analyzer.Service
	logger *zap.Logger
	engine *gin.Engine
}

// New creates the HTTP server and registers routes.
func New(svc *analyzer.Service, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{svc: svc, logger: logger, engine: gin.New()}
	s.engine.Use(gin.Recovery())

	s.engine.GET("/health", s.handleHealth)

	api := s.engine.Group("/api/v1")
	api.POST("/analyze", s.handleAnalyze)
	api.POST("/feedback", s.handleFeedback)
	api.GET("/statistics/daily", s.handleDailyStatistics)
	api.GET("/analyses", s.handleRecentAnalyses)

	return s
}

// Run starts the server on addr and blocks.
func (s *Server) Run(addr string) error {
	s.logger.Info("starting HTTP server", zap.String("addr", addr))
	return s.engine.Run(addr)
}

// Handler exposes the gin engine for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleAnalyze(c *gin.Context) {
	imageBytes, err := readImage(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	analysis, err := s.svc.Analyze(c.Request.Context(), imageBytes)
	switch {
	case errors.Is(err, vision.ErrImageDecode):
		c.JSON(http.StatusBadRequest, gin.H{"error": "file must be a decodable image"})
		return
	case errors.Is(err, vision.ErrClassification):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "classification failed for this image"})
		return
	case err != nil:
		s.logger.Error("analysis failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "analysis failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"analysis":            analysis,
		"processing_time_sec": analysis.ProcessingTime.Seconds(),
	})
}

// readImage accepts either a multipart "image" field or a raw request body.
func readImage(c *gin.Context) ([]byte, error) {
	if file, err := c.FormFile("image"); err == nil {
		if file.Size > maxImageBytes {
			return nil, errors.New("image too large")
		}
		f, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(io.LimitReader(f, maxImageBytes))
	}

	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImageBytes))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("no image file provided")
	}
	return data, nil
}

type feedbackPayload struct {
	AnalysisID       string `json:"analysis_id" binding:"required"`
	FeedbackType     string `json:"feedback_type" binding:"required"`
	CorrectFood      string `json:"correct_food"`
	CorrectionReason string `json:"correction_reason"`
	Notes            string `json:"notes"`
}

func (s *Server) handleFeedback(c *gin.Context) {
	var payload feedbackPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := s.svc.SubmitFeedback(c.Request.Context(), analyzer.FeedbackRequest{
		AnalysisID:       payload.AnalysisID,
		FeedbackType:     payload.FeedbackType,
		CorrectFood:      payload.CorrectFood,
		CorrectionReason: payload.CorrectionReason,
		Notes:            payload.Notes,
	})
	switch {
	case errors.Is(err, analyzer.ErrInvalidFeedback):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, analyzer.ErrAnalysisNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	case err != nil:
		s.logger.Error("feedback submission failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record feedback"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "recorded"})
}

func (s *Server) handleDailyStatistics(c *gin.Context) {
	daily, err := s.svc.DailyStatistics(c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"statistics": daily,
		"derived": gin.H{
			"high_confidence_accuracy":      daily.HighConfidenceAccuracy(),
			"medium_confidence_accuracy":    daily.MediumConfidenceAccuracy(),
			"low_confidence_accuracy":       daily.LowConfidenceAccuracy(),
			"nutrition_search_success_rate": daily.NutritionSearchSuccessRate(),
		},
	})
}

func (s *Server) handleRecentAnalyses(c *gin.Context) {
	limit := 20
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	analyses, err := s.svc.Recent(limit)
	if err != nil {
		s.logger.Error("failed to list analyses", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list analyses"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"analyses": analyses})
}
