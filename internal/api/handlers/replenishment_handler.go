package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/demandflow/internal/domain"
	"github.com/andresuchdata/demandflow/internal/pipeline"
	"github.com/andresuchdata/demandflow/internal/pipeline/replenishment"
	"github.com/andresuchdata/demandflow/internal/service"
)

type ReplenishmentHandler struct {
	service *service.ReplenishmentService
}

func NewReplenishmentHandler(service *service.ReplenishmentService) *ReplenishmentHandler {
	return &ReplenishmentHandler{service: service}
}

// AnalyzeRequest is the body of POST /demand/analyze.
type AnalyzeRequest struct {
	Forecasts []domain.ForecastSeries   `json:"forecasts" binding:"required"`
	History   []domain.HistoricalSeries `json:"history"`
	Policy    *replenishment.Policy     `json:"policy"`
}

// RunResponse is the compact answer to a run request.
type RunResponse struct {
	RunID     string                   `json:"run_id"`
	Summary   domain.AnalysisSummary   `json:"summary"`
	Skipped   []domain.SkippedProduct  `json:"skipped"`
	Dashboard domain.DashboardSnapshot `json:"dashboard"`
}

func newRunResponse(result *pipeline.RunResult) RunResponse {
	return RunResponse{
		RunID:     result.RunID,
		Summary:   result.Summary,
		Skipped:   result.Skipped,
		Dashboard: result.Dashboard,
	}
}

func (h *ReplenishmentHandler) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	result, err := h.service.Analyze(c.Request.Context(), service.AnalyzeInput{
		Forecasts: req.Forecasts,
		History:   req.History,
		Policy:    req.Policy,
		Source:    "api",
	})
	if err != nil {
		writeError(c, "failed to analyze demand", err)
		return
	}

	c.JSON(http.StatusOK, newRunResponse(result))
}

func (h *ReplenishmentHandler) Refresh(c *gin.Context) {
	result, err := h.service.Refresh(c.Request.Context())
	if err != nil {
		writeError(c, "failed to refresh from database", err)
		return
	}

	c.JSON(http.StatusOK, newRunResponse(result))
}

func (h *ReplenishmentHandler) GetVelocity(c *gin.Context) {
	profile, err := h.service.Velocity(c.Param("product"))
	if err != nil {
		writeError(c, "failed to fetch velocity", err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

func (h *ReplenishmentHandler) GetSuggestions(c *gin.Context) {
	var urgency domain.Urgency
	if raw := strings.TrimSpace(c.Query("urgency")); raw != "" {
		parsed, ok := parseUrgency(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid urgency", "details": "expected one of High, Normal, Low"})
			return
		}
		urgency = parsed
	}

	suggestions, err := h.service.Suggestions(urgency)
	if err != nil {
		writeError(c, "failed to fetch suggestions", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items": suggestions,
		"total": len(suggestions),
	})
}

func (h *ReplenishmentHandler) GetUrgent(c *gin.Context) {
	suggestions, err := h.service.Urgent()
	if err != nil {
		writeError(c, "failed to fetch urgent suggestions", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items": suggestions,
		"total": len(suggestions),
	})
}

func (h *ReplenishmentHandler) GetSuggestion(c *gin.Context) {
	suggestion, err := h.service.Suggestion(c.Param("product"))
	if err != nil {
		writeError(c, "failed to fetch suggestion", err)
		return
	}

	c.JSON(http.StatusOK, suggestion)
}

func (h *ReplenishmentHandler) GetDashboard(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	snapshot, err := h.service.Dashboard(c.Request.Context(), limit)
	if err != nil {
		writeError(c, "failed to fetch dashboard", err)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

func (h *ReplenishmentHandler) GetPerformance(c *gin.Context) {
	report, err := h.service.Performance(c.Request.Context())
	if err != nil {
		writeError(c, "failed to fetch performance metrics", err)
		return
	}

	c.JSON(http.StatusOK, report)
}

func (h *ReplenishmentHandler) GetLatestRun(c *gin.Context) {
	info, err := h.service.LatestRun(c.Request.Context())
	if err != nil {
		writeError(c, "failed to fetch latest run", err)
		return
	}

	c.JSON(http.StatusOK, info)
}

func (h *ReplenishmentHandler) Health(c *gin.Context) {
	body := gin.H{"status": "ok", "time": time.Now().UTC()}
	if latest, err := h.service.Latest(); err == nil {
		body["latest_run_id"] = latest.RunID
		body["latest_run_at"] = latest.CompletedAt
	}
	c.JSON(http.StatusOK, body)
}

func parseUrgency(raw string) (domain.Urgency, bool) {
	for _, u := range []domain.Urgency{domain.UrgencyHigh, domain.UrgencyNormal, domain.UrgencyLow} {
		if strings.EqualFold(raw, string(u)) {
			return u, true
		}
	}
	return "", false
}

func writeError(c *gin.Context, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case domain.IsConfigError(err):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrNoRun), errors.Is(err, service.ErrProductNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrSourceUnavailable):
		status = http.StatusServiceUnavailable
	}

	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg(message)
	}
	c.JSON(status, gin.H{"error": message, "details": err.Error()})
}
