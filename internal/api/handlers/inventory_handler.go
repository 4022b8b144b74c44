// internal/api/handlers/inventory_handler.go
package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/avicolarenzo/replenish-go/internal/domain"
	"github.com/avicolarenzo/replenish-go/internal/ingest"
	"github.com/avicolarenzo/replenish-go/internal/service"
)

// maxImportSize bounds uploaded CSV files to 16 MiB.
const maxImportSize = 16 << 20

type InventoryHandler struct {
	service *service.InventoryService
}

func NewInventoryHandler(service *service.InventoryService) *InventoryHandler {
	return &InventoryHandler{service: service}
}

func (h *InventoryHandler) List(c *gin.Context) {
	filter := parseRecordFilter(c)

	records, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to list records")
		return
	}

	totalPages := 1
	if filter.PageSize > 0 && total > 0 {
		totalPages = (total + filter.PageSize - 1) / filter.PageSize
	}
	c.JSON(http.StatusOK, gin.H{
		"records":     records,
		"total":       total,
		"page":        filter.Page,
		"page_size":   filter.PageSize,
		"total_pages": totalPages,
	})
}

type createRecordRequest struct {
	Date         string  `json:"date" binding:"required"`
	AvgInventory float64 `json:"avg_inventory"`
	PricePerKg   float64 `json:"price_per_kg"`
	SalesKg      float64 `json:"sales_kg"`
	LossesKg     float64 `json:"losses_kg"`
	Note         string  `json:"note"`
}

func (h *InventoryHandler) Create(c *gin.Context) {
	var req createRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid record payload")
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	record := &domain.Record{
		Date:         date,
		AvgInventory: req.AvgInventory,
		PricePerKg:   req.PricePerKg,
		SalesKg:      req.SalesKg,
		LossesKg:     req.LossesKg,
		Note:         strings.TrimSpace(req.Note),
	}
	if err := h.service.Create(c.Request.Context(), record); err != nil {
		if errors.Is(err, service.ErrInvalidRecord) {
			errorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
		errorResponse(c, http.StatusInternalServerError, "failed to store record")
		return
	}

	c.JSON(http.StatusCreated, record)
}

func (h *InventoryHandler) Import(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "select a CSV file to import")
		return
	}
	if fileHeader.Size > maxImportSize {
		errorResponse(c, http.StatusRequestEntityTooLarge, "CSV file too large")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "could not open uploaded file")
		return
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, maxImportSize))
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "could not read uploaded file")
		return
	}

	summary, err := h.service.ImportCSV(c.Request.Context(), content, fileHeader.Filename)
	if err != nil {
		var emptyErr *ingest.EmptyImportError
		if errors.As(err, &emptyErr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":  emptyErr.Error(),
				"errors": firstN(emptyErr.RowErrors, 8),
			})
			return
		}
		errorResponse(c, http.StatusInternalServerError, "failed to import records")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("%d rows imported, %d rows skipped", summary.Imported, summary.Skipped),
		"summary": summary,
	})
}

func (h *InventoryHandler) Export(c *gin.Context) {
	filter := parseRecordFilter(c)

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition",
		fmt.Sprintf("attachment; filename=inventario_filtrado_%s.csv", time.Now().Format("20060102_1504")))

	if err := h.service.ExportCSV(c.Request.Context(), c.Writer, filter); err != nil {
		log.Error().Err(err).Msg("record export failed")
	}
}

func (h *InventoryHandler) Template(c *gin.Context) {
	c.Header("Content-Disposition", "attachment; filename=plantilla_inventario.csv")
	c.Data(http.StatusOK, "text/csv", []byte(h.service.Template()))
}

func parseRecordFilter(c *gin.Context) domain.RecordFilter {
	filter := domain.RecordFilter{Page: 1, PageSize: 50}

	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil && page > 0 {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "50")); err == nil && size > 0 {
		filter.PageSize = size
	}
	if from, ok := parseDateParam(c, "from"); ok {
		filter.From = &from
	}
	if to, ok := parseDateParam(c, "to"); ok {
		filter.To = &to
	}
	if v, err := strconv.ParseFloat(c.Query("price_min"), 64); err == nil {
		filter.PriceMin = &v
	}
	if v, err := strconv.ParseFloat(c.Query("price_max"), 64); err == nil {
		filter.PriceMax = &v
	}
	filter.Note = strings.TrimSpace(c.Query("note"))

	return filter
}

func parseDateParam(c *gin.Context, name string) (time.Time, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func firstN(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}

func errorResponse(c *gin.Context, statusCode int, message string) {
	log.Error().Msg(message)
	c.JSON(statusCode, gin.H{"error": message})
}
