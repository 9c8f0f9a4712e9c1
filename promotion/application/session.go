package application

import (
	"context"
	"fmt"

	"group-promoter/promotion/domain"

	"go.uber.org/zap"
)

// SessionInitializer autentica a sessão compartilhada uma única vez.
type SessionInitializer struct {
	Session    domain.Session
	Credential string
	Logger     *zap.Logger
}

// Login autentica e consulta a identidade da sessão.
func (i SessionInitializer) Login(ctx context.Context) (domain.Identity, error) {
	if err := i.Session.Authenticate(ctx, i.Credential); err != nil {
		return domain.Identity{}, fmt.Errorf("authenticate: %w", err)
	}
	id, err := i.Session.AuthenticatedIdentity(ctx)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("authenticated identity: %w", err)
	}
	return id, nil
}

// Initialize faz o Login e só registra o resultado em log.
//
// Falha aqui não derruba o processo e não bloqueia requisições: as promoções
// passam a falhar na chamada remota. Não existe readiness gate.
func (i SessionInitializer) Initialize(ctx context.Context) {
	logger := i.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	id, err := i.Login(ctx)
	if err != nil {
		logger.Error("Failed to initialize session", zap.Error(err))
		return
	}
	logger.Info("Logged in as "+id.Name, zap.Int64("user_id", id.ID))
}
