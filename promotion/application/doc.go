// Package application contém os casos de uso da promoção:
//
//   - Service: fan-out de uma chamada remota por usuário, com isolamento de falha por item,
//     e o resumo do lote por grupo para as estatísticas
//   - SessionInitializer: autenticação única da sessão na subida do processo
//
// Depende apenas de domain e não conhece net/http.
package application
