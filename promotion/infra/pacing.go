package infra

import (
	"net/http"

	"github.com/carlmjohnson/requests"
	"golang.org/x/time/rate"
)

// WithRateLimit espaça as requisições HTTP à API da Roblox em rps por segundo,
// com rajada burst. rps <= 0 (padrão) não limita nada.
//
// O lote continua sendo disparado inteiro em paralelo; só a saída para a rede
// espera o token. Os limites da Roblox são por conta, então o balde é único
// para o cliente.
func WithRateLimit(rps float64, burst int) RobloxOption {
	return func(c *RobloxClient) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
	}
}

// paced envolve o transport do http.Client com a espera no limiter.
func paced(hc *http.Client, lim *rate.Limiter) *http.Client {
	base := hc.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	out := *hc
	out.Transport = requests.RoundTripFunc(func(req *http.Request) (*http.Response, error) {
		if err := lim.Wait(req.Context()); err != nil {
			return nil, err
		}
		return base.RoundTrip(req)
	})
	return &out
}
