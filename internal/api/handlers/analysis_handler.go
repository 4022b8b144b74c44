// internal/api/handlers/analysis_handler.go
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/avicolarenzo/replenish-go/internal/analysis"
	"github.com/avicolarenzo/replenish-go/internal/domain"
	"github.com/avicolarenzo/replenish-go/internal/forecast"
	"github.com/avicolarenzo/replenish-go/internal/service"
)

type AnalysisHandler struct {
	service *service.AnalysisService
}

func NewAnalysisHandler(service *service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{service: service}
}

func (h *AnalysisHandler) Report(c *gin.Context) {
	req, err := parseAnalysisRequest(c)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.service.Analyze(c.Request.Context(), req)
	if err != nil {
		h.analysisError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

func (h *AnalysisHandler) History(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))

	records, total, err := h.service.History(c.Request.Context(), page, pageSize)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load forecast history")
		return
	}

	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 50
	}
	totalPages := 1
	if total > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	c.JSON(http.StatusOK, gin.H{
		"records":     records,
		"total":       total,
		"page":        page,
		"page_size":   pageSize,
		"total_pages": totalPages,
	})
}

func (h *AnalysisHandler) ExportForecast(c *gin.Context) {
	req, err := parseAnalysisRequest(c)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition",
		fmt.Sprintf("attachment; filename=predicciones_%s.csv", time.Now().Format("20060102_1504")))

	if err := h.service.ExportForecastCSV(c.Request.Context(), c.Writer, req); err != nil {
		log.Error().Err(err).Msg("forecast export failed")
	}
}

// analysisError maps the engine's error taxonomy onto HTTP statuses: empty
// windows are the client's problem, model failures are upstream failures.
func (h *AnalysisHandler) analysisError(c *gin.Context, err error) {
	var unavailable *forecast.UnavailableError
	var invalid *analysis.OutputInvalidError

	switch {
	case errors.Is(err, service.ErrNoRecords):
		errorResponse(c, http.StatusNotFound, err.Error())
	case errors.As(err, &unavailable):
		errorResponse(c, http.StatusBadGateway, unavailable.Error())
	case errors.As(err, &invalid):
		errorResponse(c, http.StatusBadGateway, invalid.Error())
	default:
		log.Error().Err(err).Msg("analysis failed")
		errorResponse(c, http.StatusInternalServerError, "analysis failed")
	}
}

func parseAnalysisRequest(c *gin.Context) (domain.AnalysisRequest, error) {
	req := domain.AnalysisRequest{
		ChartMode: c.DefaultQuery("chart_mode", forecast.ModeCompare),
	}

	if from, ok := parseDateParam(c, "from"); ok {
		req.From = &from
	}
	if to, ok := parseDateParam(c, "to"); ok {
		req.To = &to
	}
	if raw := strings.TrimSpace(c.Query("month")); raw != "" {
		month, err := strconv.Atoi(raw)
		if err != nil || month < 1 || month > 12 {
			return req, errors.New("month must be between 1 and 12")
		}
		req.Month = &month
	}
	if raw := strings.TrimSpace(c.Query("service_level")); raw != "" {
		level, err := strconv.ParseFloat(raw, 64)
		if err != nil || level <= 0 || level >= 1 {
			return req, errors.New("service_level must be in (0, 1)")
		}
		req.ServiceLevel = &level
	}
	if raw := strings.TrimSpace(c.Query("lead_time_days")); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days < 1 || days > 60 {
			return req, errors.New("lead_time_days must be between 1 and 60")
		}
		req.LeadTimeDays = &days
	}

	return req, nil
}
