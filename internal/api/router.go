package api

import (
	"github.com/ericogr/duel-arena/internal/constants"

	"github.com/gin-gonic/gin"
)

// NewRouter wires every route onto a gin engine.
func NewRouter(h *FightHandler, v *TokenVerifier) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET(constants.RouteHealth, Health)
	router.GET(constants.RouteVersion, Version)

	protected := router.Group(constants.RouteAPIPrefix)
	protected.Use(AuthRequired(v))
	{
		protected.POST(constants.RouteFights, h.Challenge)
		protected.GET(constants.RouteFightByID, h.GetFight)
		protected.POST(constants.RouteFightAccept, h.Accept)
		protected.POST(constants.RouteFightMove, h.SubmitMove)
		protected.POST(constants.RouteFightForfeit, h.Forfeit)
		protected.GET(constants.RouteFightReplay, h.Replay)

		protected.PUT(constants.RouteMe, h.UpdateMe)
		protected.GET(constants.RouteMyFight, h.MyFight)
		protected.GET(constants.RouteActorByID, h.GetActor)
		protected.GET(constants.RouteActorFights, h.ActorFights)

		admin := protected.Group("")
		admin.Use(AdminRequired())
		admin.POST(constants.RouteAdminExpire, h.AdminExpire)
	}
	return router
}
