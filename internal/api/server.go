// SPDX-License-Identifier: Apache-2.0

// Package api exposes the parsing pipeline and the risk ensemble over HTTP,
// mirroring the endpoints the web dashboard consumes.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/cardioproj/cardio-mcp/internal/history"
	"github.com/cardioproj/cardio-mcp/internal/report"
	"github.com/cardioproj/cardio-mcp/internal/risk"
)

// Version is reported by /health and /model-info.
const Version = "1.0.0"

// Server wires the parser, scorer, and history store behind a gin engine.
type Server struct {
	engine *gin.Engine
	parser *report.Parser
	scorer *risk.Scorer
	store  *history.Store
	log    zerolog.Logger
	start  time.Time
}

// NewServer builds the HTTP surface. The history store may be nil; history
// persistence is then disabled and /history returns 503.
func NewServer(parser *report.Parser, scorer *risk.Scorer, store *history.Store, logger zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		engine: gin.New(),
		parser: parser,
		scorer: scorer,
		store:  store,
		log:    logger,
		start:  time.Now(),
	}
	s.engine.Use(gin.Recovery(), s.requestLogger())
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/model-info", s.handleModelInfo)
	s.engine.POST("/predict", s.handlePredict)
	s.engine.POST("/batch-predict", s.handleBatchPredict)
	s.engine.POST("/parse-report", s.handleParseReport)
	s.engine.GET("/history/:user_id", s.handleHistory)
}

// Handler exposes the engine for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.engine}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	s.log.Info().Str("addr", addr).Msg("http server listening")

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":          "healthy",
		"history_enabled": s.store != nil,
		"uptime_seconds":  time.Since(s.start).Seconds(),
		"version":         Version,
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleModelInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ensemble_weights": s.scorer.Weights(),
		"models":           []string{"gradient", "forest", "network"},
		"version":          Version,
	})
}

func (s *Server) handlePredict(c *gin.Context) {
	var patient risk.PatientData
	if err := c.ShouldBindJSON(&patient); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid patient payload: %v", err)})
		return
	}

	pred, err := s.scorer.Predict(patient)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	if userID := c.GetHeader("X-User-Id"); userID != "" && s.store != nil {
		rec := recordFromPrediction(userID, patient, pred)
		if err := s.store.Save(c.Request.Context(), rec); err != nil {
			// History is best-effort; the prediction itself stands.
			s.log.Error().Err(err).Str("user_id", userID).Msg("failed to persist prediction")
		}
	}

	c.JSON(http.StatusOK, pred)
}

func (s *Server) handleBatchPredict(c *gin.Context) {
	var patients []risk.PatientData
	if err := c.ShouldBindJSON(&patients); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid batch payload: %v", err)})
		return
	}

	preds, err := s.scorer.PredictBatch(patients)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"predictions": preds, "count": len(preds)})
}

type parseReportRequest struct {
	Text     string `json:"text"`
	SourceID string `json:"source_id"`
}

func (s *Server) handleParseReport(c *gin.Context) {
	var req parseReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid parse payload: %v", err)})
		return
	}
	if req.Text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	result := s.parser.Parse(req.Text)
	c.JSON(http.StatusOK, gin.H{
		"source_id":    req.SourceID,
		"result":       result,
		"formData":     report.ConvertToFormData(result.ParsedFields),
		"parsedCount":  len(result.ParsedFields),
		"unknownCount": len(result.UnknownFields),
	})
}

func (s *Server) handleHistory(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history persistence is disabled"})
		return
	}

	userID := c.Param("user_id")
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	records, err := s.store.List(c.Request.Context(), userID, limit)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("failed to list history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
		return
	}
	if records == nil {
		records = []*history.Record{}
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":     userID,
		"count":       len(records),
		"predictions": records,
		"limit":       limit,
	})
}

func recordFromPrediction(userID string, p risk.PatientData, pred *risk.Prediction) *history.Record {
	prediction := "No Risk"
	recommendation := "Maintain healthy lifestyle"
	if pred.RiskLevel == "high" || pred.RiskLevel == "very-high" {
		prediction = "Risk"
		recommendation = "Consult cardiologist"
	}
	gender := "female"
	if p.Sex == 1 {
		gender = "male"
	}
	return &history.Record{
		UserID:                userID,
		RiskLevel:             pred.RiskLevel,
		RiskScore:             pred.RiskScore,
		Confidence:            pred.Confidence,
		Prediction:            prediction,
		Explanation:           "Ensemble prediction based on loaded models.",
		Recommendations:       []string{recommendation},
		PatientAge:            p.Age,
		PatientGender:         gender,
		RestingBP:             p.RestingBP,
		Cholesterol:           p.Cholesterol,
		FastingBloodSugar:     p.FastingBloodSugar == 1,
		MaxHeartRate:          p.MaxHeartRate,
		ExerciseInducedAngina: p.ExerciseAngina == 1,
		OldPeak:               p.OldPeak,
		STSlope:               "flat",
	}
}
