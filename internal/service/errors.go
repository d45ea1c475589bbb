package service

import (
	"errors"

	"github.com/ericogr/duel-arena/internal/game"
)

// Error is a domain error with a stable code. Two errors match under
// errors.Is when their codes are equal.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	// precondition
	ErrSelfCombat          = &Error{Code: "SELF_COMBAT", Message: "an actor cannot fight themselves"}
	ErrInCombat            = &Error{Code: "IN_COMBAT", Message: "actor is already in a fight"}
	ErrProfileNotFound     = &Error{Code: "PROFILE_NOT_FOUND", Message: "profile not found"}
	ErrInvalidStats        = &Error{Code: "INVALID_STATS", Message: "combat stats are out of range"}
	ErrFightNotFound       = &Error{Code: "FIGHT_NOT_FOUND", Message: "fight not found"}
	ErrNotParticipant      = &Error{Code: "NOT_PARTICIPANT", Message: "actor is not part of this fight"}
	ErrNotChallengedPlayer = &Error{Code: "NOT_CHALLENGED_PLAYER", Message: "only the challenged actor can accept"}
	ErrInvalidMove         = &Error{Code: "INVALID_MOVE", Message: "move must be attack, block or crit"}
	ErrFightNotActive      = &Error{Code: "FIGHT_NOT_ACTIVE", Message: "fight has not started"}
	ErrAccountRestricted   = &Error{Code: "ACCOUNT_RESTRICTED", Message: "account is not allowed to fight"}

	// concurrency
	ErrAlreadyAccepted        = &Error{Code: "COMBAT_ALREADY_ACCEPTED", Message: "fight was already accepted"}
	ErrConcurrentModification = &Error{Code: "CONCURRENT_MODIFICATION", Message: "fight changed concurrently; reload and retry"}

	// terminal
	ErrFightCompleted = &Error{Code: "FIGHT_COMPLETED", Message: "fight is already completed"}
	ErrFightForfeited = &Error{Code: "FIGHT_FORFEITED", Message: "fight was forfeited"}
	ErrFightExpired   = &Error{Code: "FIGHT_EXPIRED", Message: "fight has expired"}
)

// CodeOf returns the domain code carried by err, or "" for infrastructure
// errors.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// terminalError names the terminal status a fight is already in.
func terminalError(s game.FightStatus) error {
	switch s {
	case game.StatusCompleted:
		return ErrFightCompleted
	case game.StatusForfeited:
		return ErrFightForfeited
	case game.StatusExpired:
		return ErrFightExpired
	}
	return nil
}
