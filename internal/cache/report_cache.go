// internal/cache/report_cache.go
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/avicolarenzo/replenish-go/internal/config"
	"github.com/avicolarenzo/replenish-go/internal/domain"
)

const (
	reportKeyPrefix     = "analysis:report"
	reportScanBatchSize = 100
)

// ReportCache stores finished replenishment reports keyed by the analysis
// request that produced them. Reports invalidate as a whole whenever new
// records land.
type ReportCache interface {
	Get(ctx context.Context, req domain.AnalysisRequest) (*domain.ReplenishmentReport, bool, error)
	Set(ctx context.Context, req domain.AnalysisRequest, report *domain.ReplenishmentReport) error
	InvalidateAll(ctx context.Context) error
}

type redisReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopReportCache struct{}

func NewReportCache(cfg config.CacheConfig) (ReportCache, error) {
	if !cfg.Enabled {
		return &noopReportCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisReportCache{client: client, ttl: ttl}, nil
}

func NewNoopReportCache() ReportCache {
	return &noopReportCache{}
}

func (c *redisReportCache) Get(ctx context.Context, req domain.AnalysisRequest) (*domain.ReplenishmentReport, bool, error) {
	payload, err := c.client.Get(ctx, buildReportKey(req)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var report domain.ReplenishmentReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, false, fmt.Errorf("decode report cache: %w", err)
	}
	return &report, true, nil
}

func (c *redisReportCache) Set(ctx context.Context, req domain.AnalysisRequest, report *domain.ReplenishmentReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report cache: %w", err)
	}
	if err := c.client.Set(ctx, buildReportKey(req), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisReportCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, reportKeyPrefix, reportScanBatchSize)
}

func (n *noopReportCache) Get(ctx context.Context, req domain.AnalysisRequest) (*domain.ReplenishmentReport, bool, error) {
	return nil, false, nil
}

func (n *noopReportCache) Set(ctx context.Context, req domain.AnalysisRequest, report *domain.ReplenishmentReport) error {
	return nil
}

func (n *noopReportCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildReportKey(req domain.AnalysisRequest) string {
	return fmt.Sprintf("%s:%s", reportKeyPrefix, requestHash(req))
}

// requestHash produces a stable key from the request parameters, independent
// of the order they were supplied in.
func requestHash(req domain.AnalysisRequest) string {
	parts := []string{}

	if req.From != nil {
		parts = append(parts, "from="+req.From.Format("2006-01-02"))
	}
	if req.To != nil {
		parts = append(parts, "to="+req.To.Format("2006-01-02"))
	}
	if req.Month != nil {
		parts = append(parts, fmt.Sprintf("month=%d", *req.Month))
	}
	if req.ServiceLevel != nil {
		parts = append(parts, fmt.Sprintf("service_level=%.3f", *req.ServiceLevel))
	}
	if req.LeadTimeDays != nil {
		parts = append(parts, fmt.Sprintf("lead_time=%d", *req.LeadTimeDays))
	}
	if mode := strings.ToLower(strings.TrimSpace(req.ChartMode)); mode != "" {
		parts = append(parts, "mode="+mode)
	}

	if len(parts) == 0 {
		return "default"
	}

	sort.Strings(parts)
	sum := sha1.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}
