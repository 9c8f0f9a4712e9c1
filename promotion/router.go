package promotion

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type RouterOptions struct {
	Promote http.Handler
	Guard   func(http.Handler) http.Handler
	Logger  *zap.Logger
}

// NewRouter monta POST /promote atrás do guard. Outros métodos em /promote
// recebem 405 do chi, sem passar pelo guard.
func NewRouter(opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(RequestLogger(opts.Logger))

	// liveness apenas; não diz nada sobre a sessão remota
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		if opts.Guard != nil {
			r.Use(opts.Guard)
		}
		r.Method(http.MethodPost, "/promote", opts.Promote)
	})
	return r
}
