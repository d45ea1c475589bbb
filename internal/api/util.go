package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/ericogr/duel-arena/internal/constants"
	"github.com/ericogr/duel-arena/internal/game"
	"github.com/ericogr/duel-arena/internal/logging"
	"github.com/ericogr/duel-arena/internal/service"

	"github.com/gin-gonic/gin"
)

// statusForCode maps domain codes to HTTP statuses. Anything not listed is
// a conflict with the fight's current state.
var statusForCode = map[string]int{
	service.ErrSelfCombat.Code:          http.StatusBadRequest,
	service.ErrInvalidMove.Code:         http.StatusBadRequest,
	service.ErrInvalidStats.Code:        http.StatusBadRequest,
	service.ErrNotParticipant.Code:      http.StatusForbidden,
	service.ErrNotChallengedPlayer.Code: http.StatusForbidden,
	service.ErrAccountRestricted.Code:   http.StatusForbidden,
	service.ErrFightNotFound.Code:       http.StatusNotFound,
	service.ErrProfileNotFound.Code:     http.StatusNotFound,
}

// writeError renders err as {"error", "code"}. Errors without a domain code
// are logged and reported as internal.
func writeError(c *gin.Context, err error) {
	code := service.CodeOf(err)
	if code == "" {
		logging.Error("request failed", err, logging.Fields{"path": c.FullPath()})
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrInternal})
		return
	}
	status, ok := statusForCode[code]
	if !ok {
		status = http.StatusConflict
	}
	c.JSON(status, gin.H{constants.JSONKeyError: err.Error(), constants.JSONKeyCode: code})
}

func actorID(c *gin.Context) string {
	return c.GetString(constants.CtxActorID)
}

// historyLimit reads ?limit=, clamped to [1, MaxHistorySize].
func historyLimit(c *gin.Context) int {
	n, err := strconv.Atoi(c.Query(constants.QueryLimit))
	if err != nil || n <= 0 {
		return constants.DefaultHistorySize
	}
	if n > constants.MaxHistorySize {
		return constants.MaxHistorySize
	}
	return n
}

// pendingMoveKeys pairs each slot's pending move key with its submitted flag.
var pendingMoveKeys = [2][2]string{
	{constants.JSONKeyP1PendingMove, constants.JSONKeyP1Submitted},
	{constants.JSONKeyP2PendingMove, constants.JSONKeyP2Submitted},
}

// fightForViewer marshals f and removes every pending move that does not
// belong to viewer. Each side is reported as a submitted flag instead.
func fightForViewer(f *game.Fight, viewer string) (map[string]interface{}, error) {
	b, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	var out map[string]interface{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	redactPendingMoves(out, f.Slot(viewer))
	return out, nil
}

func redactPendingMoves(out map[string]interface{}, viewerSlot int) {
	for i, keys := range pendingMoveKeys {
		move, submitted := keys[0], keys[1]
		out[submitted] = out[move] != nil
		if i+1 != viewerSlot {
			delete(out, move)
		}
	}
}

// writeFight renders f for the calling actor.
func writeFight(c *gin.Context, status int, f *game.Fight) {
	out, err := fightForViewer(f, actorID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(status, out)
}

// fightsForViewer renders a list of fights for the calling actor.
func fightsForViewer(c *gin.Context, fights []game.Fight) ([]map[string]interface{}, error) {
	out := make([]map[string]interface{}, 0, len(fights))
	for i := range fights {
		v, err := fightForViewer(&fights[i], actorID(c))
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func isAdmin(c *gin.Context) bool {
	return c.GetString(constants.CtxRole) == constants.RoleAdmin
}
