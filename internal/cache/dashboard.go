package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/demandflow/internal/config"
	"github.com/andresuchdata/demandflow/internal/domain"
)

const dashboardKeyPrefix = "replenishment:dashboard"

// DashboardKey identifies one rendering of a run's dashboard.
type DashboardKey struct {
	RunID string
	Limit int
}

type DashboardCache interface {
	GetSnapshot(ctx context.Context, key DashboardKey) (*domain.DashboardSnapshot, bool, error)
	SetSnapshot(ctx context.Context, key DashboardKey, snapshot *domain.DashboardSnapshot) error
	InvalidateAll(ctx context.Context) error
}

type redisDashboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopDashboardCache struct{}

// NewDashboardCache connects to redis when caching is enabled and falls back to a
// cache that never hits otherwise.
func NewDashboardCache(cfg config.CacheConfig) (DashboardCache, error) {
	if !cfg.Enabled {
		return &noopDashboardCache{}, nil
	}

	client, ttl, err := dialRedis(cfg)
	if err != nil {
		return nil, err
	}

	return &redisDashboardCache{client: client, ttl: ttl}, nil
}

func NewNoopDashboardCache() DashboardCache {
	return &noopDashboardCache{}
}

func (c *redisDashboardCache) GetSnapshot(ctx context.Context, key DashboardKey) (*domain.DashboardSnapshot, bool, error) {
	payload, err := c.client.Get(ctx, buildDashboardKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var snapshot domain.DashboardSnapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return nil, false, fmt.Errorf("decode dashboard cache: %w", err)
	}

	return &snapshot, true, nil
}

func (c *redisDashboardCache) SetSnapshot(ctx context.Context, key DashboardKey, snapshot *domain.DashboardSnapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode dashboard cache: %w", err)
	}

	if err := c.client.Set(ctx, buildDashboardKey(key), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	return nil
}

func (c *redisDashboardCache) InvalidateAll(ctx context.Context) error {
	removed, err := unlinkPrefix(ctx, c.client, dashboardKeyPrefix)
	if err != nil {
		return err
	}
	log.Debug().Int("keys", removed).Msg("dashboard cache invalidated")
	return nil
}

func (n *noopDashboardCache) GetSnapshot(ctx context.Context, key DashboardKey) (*domain.DashboardSnapshot, bool, error) {
	return nil, false, nil
}

func (n *noopDashboardCache) SetSnapshot(ctx context.Context, key DashboardKey, snapshot *domain.DashboardSnapshot) error {
	return nil
}

func (n *noopDashboardCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildDashboardKey(key DashboardKey) string {
	if key.RunID == "" {
		return dashboardKeyPrefix + ":default"
	}

	parts := []string{"run=" + strings.ToLower(key.RunID)}
	if key.Limit > 0 {
		parts = append(parts, "limit="+strconv.Itoa(key.Limit))
	}

	raw := strings.Join(parts, "|")
	hash := sha1.Sum([]byte(raw))
	return fmt.Sprintf("%s:%s", dashboardKeyPrefix, hex.EncodeToString(hash[:]))
}
