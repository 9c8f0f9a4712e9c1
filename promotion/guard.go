package promotion

import (
	"net/http"
	"strings"
)

const DefaultKeyHeader = "x-api-key"

type GuardOptions struct {
	// Key é o segredo compartilhado. KeySet=false (API_KEY ausente) rejeita tudo.
	Key    string
	KeySet bool
	Header string
}

// AccessGuard compara o header com o segredo por igualdade exata de string.
// Sem comparação em tempo constante e sem identidade por chave: um único segredo.
//
// Headers repetidos são unidos com ", " antes da comparação, então uma chave
// duplicada não confere com o segredo.
func AccessGuard(opts GuardOptions) func(next http.Handler) http.Handler {
	if opts.Header == "" {
		opts.Header = DefaultKeyHeader
	}
	header := http.CanonicalHeaderKey(opts.Header)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			vals, present := r.Header[header]
			if !present || !opts.KeySet || strings.Join(vals, ", ") != opts.Key {
				writeError(w, http.StatusForbidden, msgForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
