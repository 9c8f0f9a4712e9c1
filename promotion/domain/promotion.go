package domain

import (
	"strconv"
	"strings"
)

// GroupID identifica o grupo alvo na plataforma remota.
type GroupID int64

// InvalidGroupID é o resultado da coerção de um GROUP_ID ausente ou não numérico.
// Não existe caminho de erro próprio: as chamadas remotas falham com erro de grupo.
const InvalidGroupID GroupID = 0

func ParseGroupID(s string) GroupID {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return InvalidGroupID
	}
	return GroupID(id)
}

func (g GroupID) String() string { return strconv.FormatInt(int64(g), 10) }

// UserID guarda um elemento de userIds exatamente como chegou no corpo JSON.
//
// Os elementos não são validados aqui: "abc" ou 1.5 seguem para o serviço remoto,
// que é a fonte de verdade, e voltam como falha por item.
type UserID struct {
	raw  string
	text string
}

// NewUserID recebe o JSON bruto do elemento e sua forma textual (string sem aspas).
func NewUserID(raw, text string) UserID {
	return UserID{raw: raw, text: text}
}

func UserIDFromInt(id int64) UserID {
	s := strconv.FormatInt(id, 10)
	return UserID{raw: s, text: s}
}

// String retorna a forma usada em paths e logs.
func (u UserID) String() string { return u.text }

// MarshalJSON devolve o elemento como foi recebido.
func (u UserID) MarshalJSON() ([]byte, error) {
	if u.raw == "" {
		return []byte("null"), nil
	}
	return []byte(u.raw), nil
}

type Status string

const (
	StatusPromoted Status = "Promoted"
	StatusFailed   Status = "Failed"
)

// Outcome é o resultado de um único usuário dentro do lote.
type Outcome struct {
	UserID UserID `json:"userId"`
	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`
}

func Promoted(user UserID) Outcome {
	return Outcome{UserID: user, Status: StatusPromoted}
}

func Failed(user UserID, err error) Outcome {
	return Outcome{UserID: user, Status: StatusFailed, Error: err.Error()}
}
