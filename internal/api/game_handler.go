package api

import (
	"github.com/ericogr/duel-arena/internal/service"
)

// FightHandler groups all fight-related HTTP handlers.
type FightHandler struct {
	svc  *service.Service
	gate service.AccountGate
}

// NewFightHandler creates a handler over the coordinator. gate is consulted
// before challenge and accept.
func NewFightHandler(svc *service.Service, gate service.AccountGate) *FightHandler {
	return &FightHandler{svc: svc, gate: gate}
}
