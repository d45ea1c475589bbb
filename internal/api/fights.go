package api

import (
	"net/http"

	"github.com/ericogr/duel-arena/internal/constants"
	"github.com/ericogr/duel-arena/internal/game"
	"github.com/ericogr/duel-arena/internal/service"

	"github.com/gin-gonic/gin"
)

type ChallengePayload struct {
	TargetID string `json:"target_id" binding:"required"`
}

type MovePayload struct {
	Move game.Move `json:"move" binding:"required"`
}

// allowed consults the account gate and writes the refusal if any.
func (h *FightHandler) allowed(c *gin.Context, actor string) bool {
	if h.gate == nil {
		return true
	}
	ok, reason, err := h.gate.CanFight(c.Request.Context(), actor)
	if err != nil {
		writeError(c, err)
		return false
	}
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{
			constants.JSONKeyError: reason,
			constants.JSONKeyCode:  service.ErrAccountRestricted.Code,
		})
		return false
	}
	return true
}

// Challenge creates a pending fight against target_id.
func (h *FightHandler) Challenge(c *gin.Context) {
	var req ChallengePayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	actor := actorID(c)
	if !h.allowed(c, actor) {
		return
	}
	f, err := h.svc.Challenge(c.Request.Context(), actor, req.TargetID)
	if err != nil {
		writeError(c, err)
		return
	}
	writeFight(c, http.StatusCreated, f)
}

// GetFight returns the reconciled fight state to a participant or an admin.
func (h *FightHandler) GetFight(c *gin.Context) {
	f, err := h.svc.GetFight(c.Request.Context(), c.Param(constants.ParamFightID))
	if err != nil {
		writeError(c, err)
		return
	}
	if f.Slot(actorID(c)) == 0 && !isAdmin(c) {
		writeError(c, service.ErrNotParticipant)
		return
	}
	writeFight(c, http.StatusOK, f)
}

func (h *FightHandler) Accept(c *gin.Context) {
	actor := actorID(c)
	if !h.allowed(c, actor) {
		return
	}
	f, err := h.svc.Accept(c.Request.Context(), c.Param(constants.ParamFightID), actor)
	if err != nil {
		writeError(c, err)
		return
	}
	writeFight(c, http.StatusOK, f)
}

// SubmitMove records the caller's move for the current round.
func (h *FightHandler) SubmitMove(c *gin.Context) {
	var req MovePayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	f, err := h.svc.SubmitMove(c.Request.Context(), c.Param(constants.ParamFightID), actorID(c), req.Move)
	if err != nil {
		writeError(c, err)
		return
	}
	writeFight(c, http.StatusOK, f)
}

func (h *FightHandler) Forfeit(c *gin.Context) {
	f, err := h.svc.Forfeit(c.Request.Context(), c.Param(constants.ParamFightID), actorID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	writeFight(c, http.StatusOK, f)
}

// Replay verifies the stored history against a replay from the seed.
func (h *FightHandler) Replay(c *gin.Context) {
	v, err := h.svc.VerifyFight(c.Request.Context(), c.Param(constants.ParamFightID))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// AdminExpire expires a pending or active fight without a winner.
func (h *FightHandler) AdminExpire(c *gin.Context) {
	f, err := h.svc.ExpireFight(c.Request.Context(), c.Param(constants.ParamFightID))
	if err != nil {
		writeError(c, err)
		return
	}
	writeFight(c, http.StatusOK, f)
}
