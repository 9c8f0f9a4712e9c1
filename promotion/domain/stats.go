package domain

import (
	"context"
	"time"
)

// PromotionCounts soma resultados por status.
type PromotionCounts struct {
	Promoted int64
	Failed   int64
}

func (c *PromotionCounts) Add(s Status) {
	switch s {
	case StatusPromoted:
		c.Promoted++
	case StatusFailed:
		c.Failed++
	}
}

// BatchTally resume um lote já processado, para um grupo.
type BatchTally struct {
	Group  GroupID
	Counts PromotionCounts
	At     time.Time
}

func Tally(group GroupID, outcomes []Outcome, at time.Time) BatchTally {
	t := BatchTally{Group: group, At: at}
	for _, o := range outcomes {
		t.Counts.Add(o.Status)
	}
	return t
}

// PromotionStatsStore guarda contadores de promoção por grupo.
// É best-effort: erro aqui nunca muda a resposta do lote.
type PromotionStatsStore interface {
	Record(ctx context.Context, t BatchTally) error
}
