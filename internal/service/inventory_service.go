// internal/service/inventory_service.go
package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/avicolarenzo/replenish-go/internal/cache"
	"github.com/avicolarenzo/replenish-go/internal/domain"
	"github.com/avicolarenzo/replenish-go/internal/ingest"
	"github.com/avicolarenzo/replenish-go/internal/repository"
	"github.com/avicolarenzo/replenish-go/internal/storage"
)

// ErrInvalidRecord rejects manual entries that violate the record invariants.
var ErrInvalidRecord = errors.New("record fields must be non-negative and dated")

// importTemplate is the sample CSV offered to users before their first import.
const importTemplate = "Fecha,InventarioPromedio,PrecioKg,VentasKg,PerdidasKg,Observacion\r\n" +
	"2025-07-01,180,10.5,165,2,Día normal\r\n" +
	"2025-07-02,200,10.2,175,1,Promoción local\r\n"

type InventoryService struct {
	repo    repository.InventoryRepository
	cache   cache.ReportCache
	archive storage.ObjectStorage
}

func NewInventoryService(repo repository.InventoryRepository, reportCache cache.ReportCache, archive storage.ObjectStorage) *InventoryService {
	return &InventoryService{repo: repo, cache: reportCache, archive: archive}
}

// ImportCSV parses the uploaded content tolerantly and stores every accepted
// row. Partial imports succeed; the summary carries the bounded error preview.
func (s *InventoryService) ImportCSV(ctx context.Context, content []byte, sourceName string) (*domain.ImportSummary, error) {
	result, err := ingest.Parse(string(content))
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.BulkInsert(ctx, result.Records); err != nil {
		return nil, fmt.Errorf("failed to store imported records: %w", err)
	}

	// Stored records changed, so cached reports are stale.
	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to invalidate report cache after import")
	}

	s.archiveImport(ctx, content, sourceName)

	return result.Summary(), nil
}

// archiveImport copies the raw upload to object storage. Best effort: an
// archive failure never fails the import.
func (s *InventoryService) archiveImport(ctx context.Context, content []byte, sourceName string) {
	if s.archive == nil {
		return
	}
	key := fmt.Sprintf("imports/%s/%s_%s", time.Now().Format("2006-01-02"), uuid.New().String(), sanitizeName(sourceName))
	if err := s.archive.Upload(ctx, key, content, "text/csv"); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to archive imported CSV")
		return
	}
	log.Info().Str("key", key).Msg("archived imported CSV")
}

func sanitizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "upload.csv"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}

// Create stores one manually entered record.
func (s *InventoryService) Create(ctx context.Context, record *domain.Record) error {
	if record.Date.IsZero() || record.AvgInventory < 0 || record.PricePerKg < 0 ||
		record.SalesKg < 0 || record.LossesKg < 0 {
		return ErrInvalidRecord
	}
	if err := s.repo.Insert(ctx, record); err != nil {
		return err
	}
	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to invalidate report cache after insert")
	}
	return nil
}

// List returns a filtered, paginated record page plus the unpaginated total.
func (s *InventoryService) List(ctx context.Context, filter domain.RecordFilter) ([]domain.Record, int, error) {
	return s.repo.List(ctx, filter)
}

// ExportCSV streams the filtered records in the same column layout the
// importer accepts, oldest first.
func (s *InventoryService) ExportCSV(ctx context.Context, w io.Writer, filter domain.RecordFilter) error {
	filter.Page = 1
	filter.PageSize = exportPageSize
	records, _, err := s.repo.List(ctx, filter)
	if err != nil {
		return err
	}
	// List is newest-first for the UI; exports read oldest-first.
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}

	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Fecha", "InventarioPromedio", "PrecioKg", "VentasKg", "PerdidasKg", "Observacion"}); err != nil {
		return err
	}
	for _, rec := range records {
		row := []string{
			rec.Date.Format("2006-01-02"),
			strconv.FormatFloat(rec.AvgInventory, 'f', -1, 64),
			strconv.FormatFloat(rec.PricePerKg, 'f', -1, 64),
			strconv.FormatFloat(rec.SalesKg, 'f', -1, 64),
			strconv.FormatFloat(rec.LossesKg, 'f', -1, 64),
			strings.ReplaceAll(rec.Note, `"`, "''"),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	return writer.Error()
}

const exportPageSize = 100000

// Template returns the sample import CSV.
func (s *InventoryService) Template() string {
	return importTemplate
}
