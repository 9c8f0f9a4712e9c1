// Package promotion expõe a promoção em grupo via HTTP (net/http + chi).
//
// Camadas:
//
//   - domain: tipos e contratos (sem net/http)
//   - application: fan-out das promoções, sessão
//   - infra: cliente Roblox, estatísticas de promoção
//   - promotion (este pacote): guard de API key, handler, middlewares e router
//
// Fluxo de POST /promote:
//
//  1. guard compara x-api-key com o segredo, 403
//  2. handler valida Content-Type e userIds, 400
//  3. uma chamada remota por usuário, em paralelo; responde 200 com todos os resultados
//  4. falha fora do isolamento por usuário vira 500
package promotion
