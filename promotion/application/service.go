package application

import (
	"context"
	"fmt"
	"time"

	"group-promoter/promotion/domain"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Service promove um lote de usuários no grupo.
//
// Cada usuário vira uma goroutine independente; não há limite de concorrência.
// Um lote com N ids dispara N chamadas remotas simultâneas.
type Service struct {
	Promoter domain.Promoter
	// Stats opcional; recebe um BatchTally por lote processado.
	Stats  domain.PromotionStatsStore
	Logger *zap.Logger
}

// PromoteAll espera todas as chamadas terminarem e devolve um Outcome por usuário,
// na ordem de entrada. Falha remota de um usuário vira StatusFailed e nunca cancela
// os demais. O erro retornado só existe quando algo escapa desse isolamento
// (ex.: panic dentro de uma tarefa).
func (s Service) PromoteAll(ctx context.Context, group domain.GroupID, users []domain.UserID) ([]domain.Outcome, error) {
	results := make([]domain.Outcome, len(users))

	// errgroup sem WithContext: um erro não cancela as irmãs.
	var g errgroup.Group
	for i, user := range users {
		g.Go(func() (err error) {
			defer func() {
				if rec := recover(); rec != nil {
					err = fmt.Errorf("promote user %s: panic: %v", user, rec)
				}
			}()
			results[i] = s.promoteOne(ctx, group, user)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	s.record(ctx, domain.Tally(group, results, time.Now()))
	return results, nil
}

func (s Service) record(ctx context.Context, t domain.BatchTally) {
	if s.Stats == nil || t.Counts == (domain.PromotionCounts{}) {
		return
	}
	if err := s.Stats.Record(ctx, t); err != nil {
		s.logger().Warn("Failed to record promotion stats",
			zap.Stringer("group", t.Group),
			zap.Error(err))
	}
}

func (s Service) promoteOne(ctx context.Context, group domain.GroupID, user domain.UserID) domain.Outcome {
	change, err := s.Promoter.Promote(ctx, group, user)
	if err != nil {
		s.logger().Warn("Failed to promote user",
			zap.Stringer("user", user),
			zap.Stringer("group", group),
			zap.Error(err))
		return domain.Failed(user, err)
	}
	s.logger().Debug("User promoted",
		zap.Stringer("user", user),
		zap.Stringer("group", group),
		zap.String("from", change.From.Name),
		zap.String("to", change.To.Name))
	return domain.Promoted(user)
}

func (s Service) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}
