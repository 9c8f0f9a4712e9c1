package infra

import (
	"context"
	"os"
	"testing"
	"time"

	"group-promoter/promotion/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func TestMemoryPromotionStats_SumsPerGroup(t *testing.T) {
	s := NewMemoryPromotionStats()
	ctx := context.Background()

	_ = s.Record(ctx, domain.BatchTally{Group: 1, Counts: domain.PromotionCounts{Promoted: 2, Failed: 1}})
	_ = s.Record(ctx, domain.BatchTally{Group: 1, Counts: domain.PromotionCounts{Failed: 3}})
	_ = s.Record(ctx, domain.BatchTally{Group: 2, Counts: domain.PromotionCounts{Promoted: 5}})

	if got := s.Total(); got != (domain.PromotionCounts{Promoted: 7, Failed: 4}) {
		t.Fatalf("unexpected totals %+v", got)
	}
	byGroup := s.ByGroup()
	if got := byGroup[1]; got != (domain.PromotionCounts{Promoted: 2, Failed: 4}) {
		t.Fatalf("unexpected group 1 counters %+v", got)
	}
	if got := byGroup[2]; got != (domain.PromotionCounts{Promoted: 5}) {
		t.Fatalf("unexpected group 2 counters %+v", got)
	}

	// cópia: alterar o mapa devolvido não mexe no store
	byGroup[1] = domain.PromotionCounts{}
	if got := s.ByGroup()[1]; got.Failed != 4 {
		t.Fatalf("store was mutated through ByGroup: %+v", got)
	}
}

func TestRedisPromotionStats_NilIsNoop(t *testing.T) {
	var s *RedisPromotionStats
	if err := s.Record(context.Background(), domain.BatchTally{}); err != nil {
		t.Fatalf("expected nil store to ignore tallies, got %v", err)
	}
}

// Roda só com um Redis disponível: REDIS_ADDR=localhost:6379 go test ./...
func TestRedisPromotionStats_Integration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer func() { _ = rdb.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	prefix := "promoter:test:" + uuid.NewString()
	s := NewRedisPromotionStats(rdb, WithStatsPrefix(prefix+":"), WithStatsTTL(time.Minute))
	at := time.Date(2026, 10, 19, 12, 30, 0, 0, time.UTC)
	defer rdb.Del(context.Background(),
		prefix+":total", prefix+":group:10", prefix+":group:20",
		prefix+":group:10:minute:202610191230")

	tallies := []domain.BatchTally{
		{Group: 10, Counts: domain.PromotionCounts{Promoted: 2, Failed: 1}, At: at},
		{Group: 10, Counts: domain.PromotionCounts{Failed: 1}, At: at},
		{Group: 20, Counts: domain.PromotionCounts{Promoted: 4}, At: at},
	}
	for _, tally := range tallies {
		if err := s.Record(ctx, tally); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	total, err := s.Total(ctx)
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total != (domain.PromotionCounts{Promoted: 6, Failed: 2}) {
		t.Fatalf("unexpected totals %+v", total)
	}
	g10, err := s.Group(ctx, 10)
	if err != nil {
		t.Fatalf("group: %v", err)
	}
	if g10 != (domain.PromotionCounts{Promoted: 2, Failed: 2}) {
		t.Fatalf("unexpected group counters %+v", g10)
	}
	if ttl := rdb.TTL(ctx, prefix+":group:10:minute:202610191230").Val(); ttl <= 0 {
		t.Fatalf("expected minute bucket with TTL, got %v", ttl)
	}
}
