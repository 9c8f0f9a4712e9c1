package infra

import (
	"context"
	"fmt"
	"strings"
	"time"

	"group-promoter/promotion/domain"

	"github.com/redis/go-redis/v9"
)

// RedisPromotionStats grava os lotes em hashes do Redis (campos promoted/failed):
//
//	<prefix>:total                            cumulativo, sem TTL
//	<prefix>:group:<id>                       cumulativo por grupo
//	<prefix>:group:<id>:minute:<yyyymmddhhmm> por minuto, com TTL
type RedisPromotionStats struct {
	rdb redis.Cmdable

	prefix string
	ttl    time.Duration
	bucket string // "minute" (padrão) ou "none"
}

type RedisStatsOption func(*RedisPromotionStats)

func WithStatsPrefix(prefix string) RedisStatsOption {
	return func(s *RedisPromotionStats) { s.prefix = strings.Trim(prefix, ":") }
}

func WithStatsTTL(d time.Duration) RedisStatsOption {
	return func(s *RedisPromotionStats) { s.ttl = d }
}

func WithStatsBucket(bucket string) RedisStatsOption {
	return func(s *RedisPromotionStats) { s.bucket = strings.ToLower(strings.TrimSpace(bucket)) }
}

func NewRedisPromotionStats(rdb redis.Cmdable, opts ...RedisStatsOption) *RedisPromotionStats {
	s := &RedisPromotionStats{
		rdb:    rdb,
		prefix: "promoter:promotions",
		ttl:    24 * time.Hour,
		bucket: "minute",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// redisCounts espelha domain.PromotionCounts nos campos do hash.
type redisCounts struct {
	Promoted int64 `redis:"promoted"`
	Failed   int64 `redis:"failed"`
}

func (s *RedisPromotionStats) Record(ctx context.Context, t domain.BatchTally) error {
	if s == nil || s.rdb == nil {
		return nil
	}
	at := t.At
	if at.IsZero() {
		at = time.Now()
	}

	groupKey := s.groupKey(t.Group)
	pipe := s.rdb.Pipeline()
	incr := func(key string) {
		if t.Counts.Promoted > 0 {
			pipe.HIncrBy(ctx, key, "promoted", t.Counts.Promoted)
		}
		if t.Counts.Failed > 0 {
			pipe.HIncrBy(ctx, key, "failed", t.Counts.Failed)
		}
	}
	incr(s.prefix + ":total")
	incr(groupKey)

	if s.bucket == "minute" {
		key := fmt.Sprintf("%s:minute:%s", groupKey, at.UTC().Format("200601021504"))
		incr(key)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
	}

	_, err := pipe.Exec(ctx)
	return err
}

// Total lê os contadores cumulativos de todos os grupos.
func (s *RedisPromotionStats) Total(ctx context.Context) (domain.PromotionCounts, error) {
	return s.read(ctx, s.prefix+":total")
}

// Group lê os contadores cumulativos de um grupo.
func (s *RedisPromotionStats) Group(ctx context.Context, group domain.GroupID) (domain.PromotionCounts, error) {
	return s.read(ctx, s.groupKey(group))
}

func (s *RedisPromotionStats) read(ctx context.Context, key string) (domain.PromotionCounts, error) {
	var rc redisCounts
	if err := s.rdb.HGetAll(ctx, key).Scan(&rc); err != nil {
		return domain.PromotionCounts{}, err
	}
	return domain.PromotionCounts{Promoted: rc.Promoted, Failed: rc.Failed}, nil
}

func (s *RedisPromotionStats) groupKey(group domain.GroupID) string {
	return s.prefix + ":group:" + group.String()
}
