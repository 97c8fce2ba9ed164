package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"v2v-radar/service/internal/config"
	"v2v-radar/service/internal/domain"
	"v2v-radar/service/internal/metrics"
)

const geoKey = "v2v:geo"

func telemetryKey(id string) string {
	return fmt.Sprintf("vehicle:%s:telemetry", id)
}

// RedisStore is the authoritative shared state: the GEO set of active
// vehicles and the per-vehicle last-known telemetry with TTL. The two are
// written through one pipeline so a vehicle is visible in both or neither.
type RedisStore struct {
	client *redis.Client
	log    *zap.Logger
}

func NewRedisStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		PoolSize:     20,
		MinIdleConns: 5,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client, log: log}, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// UpsertVehicle writes the geo entry and the serialized sample in one
// pipeline. The geo member carries no TTL of its own; expiry is enforced at
// query time against the telemetry key and by the janitor.
func (r *RedisStore) UpsertVehicle(ctx context.Context, s *domain.Sample, ttl time.Duration) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal sample for %s: %w", s.UserID, err)
	}

	pipe := r.client.Pipeline()
	pipe.GeoAdd(ctx, geoKey, &redis.GeoLocation{
		Name:      s.UserID,
		Longitude: s.Longitude,
		Latitude:  s.Latitude,
	})
	pipe.Set(ctx, telemetryKey(s.UserID), payload, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		metrics.StoreFailures.Inc()
		return fmt.Errorf("redis upsert pipeline failed for %s: %w", s.UserID, err)
	}
	return nil
}

// RadiusByMember returns the ids within meters of the given member,
// including the member itself. An id that is not in the index yields an
// empty result, not an error.
func (r *RedisStore) RadiusByMember(ctx context.Context, id string, meters float64, count int) ([]string, error) {
	ids, err := r.client.GeoSearch(ctx, geoKey, &redis.GeoSearchQuery{
		Member:     id,
		Radius:     meters,
		RadiusUnit: "m",
		Count:      count,
	}).Result()
	if err != nil {
		// GEOSEARCH FROMMEMBER errors when the member is unknown.
		if strings.Contains(err.Error(), "could not decode requested zset member") {
			return nil, nil
		}
		metrics.StoreFailures.Inc()
		return nil, fmt.Errorf("geo search failed for %s: %w", id, err)
	}
	return ids, nil
}

// FetchSamples multi-gets the last-known samples for ids, order preserving.
// Missing or expired ids come back nil; a sample that fails to decode also
// comes back nil so one bad record cannot poison a batch.
func (r *RedisStore) FetchSamples(ctx context.Context, ids []string) ([]*domain.Sample, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = telemetryKey(id)
	}

	raw, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		metrics.StoreFailures.Inc()
		return nil, fmt.Errorf("telemetry mget failed: %w", err)
	}

	out := make([]*domain.Sample, len(ids))
	for i, v := range raw {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var s domain.Sample
		if err := json.Unmarshal([]byte(str), &s); err != nil {
			r.log.Debug("dropping undecodable stored sample",
				zap.String("vehicle_id", ids[i]), zap.Error(err))
			continue
		}
		out[i] = &s
	}
	return out, nil
}

// RemoveMembers evicts ids from the geo index.
func (r *RedisStore) RemoveMembers(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	members := make([]interface{}, len(ids))
	for i, id := range ids {
		members[i] = id
	}
	return r.client.ZRem(ctx, geoKey, members...).Err()
}

// RunJanitor periodically drops geo members whose telemetry key has
// expired, keeping the index and the telemetry store in step.
func (r *RedisStore) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := r.sweepExpired(ctx); err != nil {
				r.log.Error("geo janitor sweep failed", zap.Error(err))
			}
		case <-ctx.Done():
			return
		}
	}
}

func (r *RedisStore) sweepExpired(ctx context.Context) error {
	members, err := r.client.ZRange(ctx, geoKey, 0, -1).Result()
	if err != nil {
		return fmt.Errorf("geo member scan failed: %w", err)
	}
	if len(members) == 0 {
		return nil
	}

	pipe := r.client.Pipeline()
	checks := make([]*redis.IntCmd, len(members))
	for i, id := range members {
		checks[i] = pipe.Exists(ctx, telemetryKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("telemetry existence check failed: %w", err)
	}

	var dead []string
	for i, cmd := range checks {
		if cmd.Val() == 0 {
			dead = append(dead, members[i])
		}
	}
	if len(dead) == 0 {
		return nil
	}

	if err := r.RemoveMembers(ctx, dead); err != nil {
		return fmt.Errorf("geo member removal failed: %w", err)
	}
	r.log.Debug("geo janitor evicted expired vehicles", zap.Int("count", len(dead)))
	return nil
}
