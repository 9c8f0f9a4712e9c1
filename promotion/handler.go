package promotion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"group-promoter/promotion/domain"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// DefaultMaxBodyBytes segue o limite de corpo JSON usual (1 MiB).
const DefaultMaxBodyBytes = 1 << 20

// BatchPromoter é o caso de uso consumido pelo handler (application.Service).
type BatchPromoter interface {
	PromoteAll(ctx context.Context, group domain.GroupID, users []domain.UserID) ([]domain.Outcome, error)
}

type Handler struct {
	Promoter BatchPromoter
	// GroupID é lido a cada requisição.
	GroupID      func() domain.GroupID
	MaxBodyBytes int64
	Logger       *zap.Logger
}

type promoteResponse struct {
	Message string           `json:"message"`
	Results []domain.Outcome `json:"results"`
}

var errBodyTooLarge = errors.New("request body too large")

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := h.logger()

	users, err := h.readUserIDs(r)
	if errors.Is(err, errBodyTooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, msgTooLarge)
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, msgBadRequest)
		return
	}

	results, err := h.promote(r.Context(), users)
	if err != nil {
		logger.Error("Error promoting users",
			zap.String("request_id", RequestIDFromContext(r.Context())),
			zap.Int("users", len(users)),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	writeJSON(w, http.StatusOK, promoteResponse{Message: msgResults, Results: results})
}

// promote roda o lote sem repassar o cancelamento da requisição: um cliente que
// desconecta não interrompe as chamadas já disparadas.
func (h *Handler) promote(ctx context.Context, users []domain.UserID) (results []domain.Outcome, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()

	var group domain.GroupID
	if h.GroupID != nil {
		group = h.GroupID()
	}
	return h.Promoter.PromoteAll(context.WithoutCancel(ctx), group, users)
}

// readUserIDs exige um objeto JSON com userIds em forma de array.
// Os elementos não são validados. Corpo com Content-Type que não seja JSON
// nem é lido: cai no mesmo 400 de um objeto sem userIds.
func (h *Handler) readUserIDs(r *http.Request) ([]domain.UserID, error) {
	if !isJSONContent(r.Header.Get("Content-Type")) {
		return nil, errors.New("content type is not json")
	}
	limit := h.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, errBodyTooLarge
	}
	if !gjson.ValidBytes(body) {
		return nil, errors.New("invalid json")
	}

	doc := gjson.ParseBytes(body)
	if !doc.IsObject() {
		return nil, errors.New("body is not an object")
	}
	ids := doc.Get("userIds")
	if !ids.IsArray() {
		return nil, errors.New("userIds is not an array")
	}

	users := make([]domain.UserID, 0)
	ids.ForEach(func(_, v gjson.Result) bool {
		users = append(users, domain.NewUserID(v.Raw, v.String()))
		return true
	})
	return users, nil
}

// isJSONContent aceita application/json e os tipos +json (ex.: application/vnd.api+json).
func isJSONContent(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

func (h *Handler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}
