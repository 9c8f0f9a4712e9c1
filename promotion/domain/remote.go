package domain

import (
	"context"
	"errors"
)

var (
	ErrNoCredential     = errors.New("no credential configured")
	ErrNotAuthenticated = errors.New("session is not authenticated")
	ErrNotInGroup       = errors.New("User is not a member of the group")
	ErrHighestRank      = errors.New("User is already at the highest rank")
	// ErrInvalidUserID: o id não pode virar um segmento de path ("", ".", ".." ou com "/").
	ErrInvalidUserID = errors.New("invalid user id")
)

// Identity é a conta autenticada na sessão remota.
type Identity struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// Role é um cargo do grupo. Rank maior = cargo mais alto.
type Role struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Rank int    `json:"rank"`
}

type RoleChange struct {
	From Role
	To   Role
}

// Session representa a sessão única do processo com a plataforma remota.
//
// Não há refresh nem expiração: uma única tentativa de Authenticate na subida.
type Session interface {
	Authenticate(ctx context.Context, credential string) error
	AuthenticatedIdentity(ctx context.Context) (Identity, error)
}

// Promoter sobe o usuário um cargo dentro do grupo.
type Promoter interface {
	Promote(ctx context.Context, group GroupID, user UserID) (RoleChange, error)
}

// RemoteError é uma resposta de erro da plataforma remota.
//
// Error() retorna só a mensagem, que é o texto devolvido por item ao cliente.
type RemoteError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *RemoteError) Error() string { return e.Message }
