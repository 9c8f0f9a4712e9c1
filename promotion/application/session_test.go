package application

import (
	"context"
	"errors"
	"testing"

	"group-promoter/promotion/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeSession struct {
	authErr     error
	identityErr error
	identity    domain.Identity
	credential  string
	identityHit int
}

func (s *fakeSession) Authenticate(_ context.Context, credential string) error {
	s.credential = credential
	return s.authErr
}

func (s *fakeSession) AuthenticatedIdentity(context.Context) (domain.Identity, error) {
	s.identityHit++
	return s.identity, s.identityErr
}

func TestSessionInitializer_LogsIdentity(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	sess := &fakeSession{identity: domain.Identity{ID: 9, Name: "PromoBot"}}

	SessionInitializer{Session: sess, Credential: "cookie", Logger: zap.New(core)}.Initialize(context.Background())

	assert.Equal(t, "cookie", sess.credential)
	require.Equal(t, 1, logs.FilterMessage("Logged in as PromoBot").Len())
}

func TestSessionInitializer_SwallowsAuthFailure(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	sess := &fakeSession{authErr: errors.New("invalid cookie")}

	SessionInitializer{Session: sess, Logger: zap.New(core)}.Initialize(context.Background())

	assert.Zero(t, sess.identityHit, "identity must not be queried after auth failure")
	entries := logs.FilterMessage("Failed to initialize session").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zap.ErrorLevel, entries[0].Level)
}

func TestSessionInitializer_LoginReportsIdentityFailure(t *testing.T) {
	sess := &fakeSession{identityErr: domain.ErrNotAuthenticated}

	_, err := SessionInitializer{Session: sess, Credential: "c"}.Login(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
}
