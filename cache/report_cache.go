package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"ergocare-backend/models"

	"github.com/redis/go-redis/v9"
)

// ReportCache stores generated reports keyed by risk profile
type ReportCache interface {
	Get(ctx context.Context, key string) (*models.Report, error)
	Set(ctx context.Context, key string, report *models.Report) error
}

type reportCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewReportCache creates a new report cache
func NewReportCache(client *redis.Client, ttl time.Duration) ReportCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &reportCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *reportCache) reportKey(key string) string {
	return fmt.Sprintf("report:%s", key)
}

// Get returns nil, nil on a miss
func (c *reportCache) Get(ctx context.Context, key string) (*models.Report, error) {
	data, err := c.client.Get(ctx, c.reportKey(key)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var report models.Report
	if err := json.Unmarshal([]byte(data), &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (c *reportCache) Set(ctx context.Context, key string, report *models.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.reportKey(key), data, c.ttl).Err()
}

// CacheKey derives a stable key from the risk profile and routed domains.
// Identical profiles retrieve identical context, so they share a report.
func CacheKey(interp models.RiskInterpretation, indices models.RiskIndices, domains []models.RetrievalDomain) string {
	payload := struct {
		Interpretation models.RiskInterpretation `json:"interpretation"`
		Indices        models.RiskIndices        `json:"indices"`
		Domains        []models.RetrievalDomain  `json:"domains"`
	}{interp, indices, domains}
	data, _ := json.Marshal(payload)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// NewClient parses a redis URI such as redis://localhost:6379/0
func NewClient(ctx context.Context, uri string) (*redis.Client, error) {
	opts, err := redis.ParseURL(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid redis uri: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}
