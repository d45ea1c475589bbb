package api

import (
	"net/http"

	"github.com/ericogr/duel-arena/internal/constants"

	"github.com/gin-gonic/gin"
)

type ProfilePayload struct {
	Equipment []string `json:"equipment"`
}

// UpdateMe registers the caller or replaces their equipment.
func (h *FightHandler) UpdateMe(c *gin.Context) {
	var req ProfilePayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	p, err := h.svc.RegisterProfile(c.Request.Context(), actorID(c), req.Equipment)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// MyFight reports whether the caller is committed to a fight.
func (h *FightHandler) MyFight(c *gin.Context) {
	in, f, err := h.svc.IsInFight(c.Request.Context(), actorID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	if f == nil {
		c.JSON(http.StatusOK, gin.H{"in_fight": in, "fight": nil})
		return
	}
	view, err := fightForViewer(f, actorID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"in_fight": in, "fight": view})
}

func (h *FightHandler) GetActor(c *gin.Context) {
	p, err := h.svc.Profile(c.Request.Context(), c.Param(constants.ParamActorID))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// ActorFights lists an actor's fights, newest first.
func (h *FightHandler) ActorFights(c *gin.Context) {
	fights, err := h.svc.ListFights(c.Request.Context(), c.Param(constants.ParamActorID), historyLimit(c))
	if err != nil {
		writeError(c, err)
		return
	}
	views, err := fightsForViewer(c, fights)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fights": views})
}
