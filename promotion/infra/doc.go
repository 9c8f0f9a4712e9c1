// Package infra contém as implementações concretas dos contratos de domain.
//
//   - RobloxClient: sessão e promoção via API web da Roblox (carlmjohnson/requests),
//     com espaçamento opcional das requisições (golang.org/x/time/rate)
//   - MemoryPromotionStats / RedisPromotionStats: promovidos/falhos por grupo
package infra
