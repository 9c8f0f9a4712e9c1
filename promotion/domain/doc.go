// Package domain define os tipos e contratos da promoção em grupo.
//
// Este pacote não depende de net/http nem do cliente remoto concreto.
// O serviço remoto (plataforma de grupos) aparece aqui apenas como interfaces,
// o que permite testar o fan-out e o guard sem rede.
package domain
