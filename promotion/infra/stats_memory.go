package infra

import (
	"context"
	"maps"
	"sync"

	"group-promoter/promotion/domain"
)

// MemoryPromotionStats soma os lotes em memória, por grupo.
// Usado quando as estatísticas estão ligadas sem Redis; os números vivem só
// enquanto o processo roda e são logados no shutdown.
type MemoryPromotionStats struct {
	mu      sync.Mutex
	total   domain.PromotionCounts
	byGroup map[domain.GroupID]domain.PromotionCounts
}

func NewMemoryPromotionStats() *MemoryPromotionStats {
	return &MemoryPromotionStats{byGroup: make(map[domain.GroupID]domain.PromotionCounts)}
}

func (s *MemoryPromotionStats) Record(_ context.Context, t domain.BatchTally) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total.Promoted += t.Counts.Promoted
	s.total.Failed += t.Counts.Failed

	c := s.byGroup[t.Group]
	c.Promoted += t.Counts.Promoted
	c.Failed += t.Counts.Failed
	s.byGroup[t.Group] = c
	return nil
}

func (s *MemoryPromotionStats) Total() domain.PromotionCounts {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *MemoryPromotionStats) ByGroup() map[domain.GroupID]domain.PromotionCounts {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.byGroup)
}
