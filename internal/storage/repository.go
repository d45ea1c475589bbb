package storage

import (
	"context"
	"errors"
	"time"

	"github.com/ericogr/duel-arena/internal/game"
)

var (
	// ErrNotFound is returned when a fight or profile does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a conditional update matched no row:
	// the stored state changed since the caller observed it.
	ErrConflict = errors.New("conditional update lost")
	// ErrLockHeld is returned when an actor's combat lock is already taken.
	ErrLockHeld = errors.New("actor combat lock held")
)

// Terminal describes the terminal transition applied together with a
// status change. WinnerID and LoserID are empty when there is no winner.
type Terminal struct {
	Status   game.FightStatus
	WinnerID string
	LoserID  string
	// Forfeit counts the loss as a forfeit on the loser's record.
	Forfeit bool
}

// Resolution is a round resolution to persist. ObservedP1 and ObservedP2
// are the pending-move slots the caller resolved from; the write only
// applies while the stored slots still hold exactly those values.
type Resolution struct {
	FightID    string
	Round      int
	ObservedP1 *game.Move
	ObservedP2 *game.Move
	Outcome    game.RoundOutcome
	Terminal   *Terminal
	Now        time.Time
}

// FightStore is the durable, CAS-capable store for fights and actor locks.
// Every method that changes a fight is a single atomic conditional write;
// lock changes happen in the same write as the status change they follow.
type FightStore interface {
	UpsertProfile(ctx context.Context, actorID string, equipment []string) (*game.Profile, error)
	GetProfile(ctx context.Context, actorID string) (*game.Profile, error)

	// CreatePendingFight inserts f and takes the inviter's lock. It fails
	// with ErrLockHeld if either participant's lock is held and with
	// ErrNotFound if either profile is missing.
	CreatePendingFight(ctx context.Context, f *game.Fight) error
	GetFight(ctx context.Context, id string) (*game.Fight, error)
	// FindOpenFights lists pending and active fights the actor is party to.
	FindOpenFights(ctx context.Context, actorID string) ([]game.Fight, error)
	ListFights(ctx context.Context, actorID string, limit int) ([]game.Fight, error)

	// ActivateFight moves a pending, unexpired fight to active, freezes the
	// stats and rules it is played under and takes the challenged player's
	// lock.
	ActivateFight(ctx context.Context, id string, p1, p2 game.CombatStats, rules game.CombatRules, now time.Time) (*game.Fight, error)
	// RecordMove fills the slot (1 or 2) of the given round if it is empty.
	RecordMove(ctx context.Context, id string, slot, round int, move game.Move, now time.Time) (*game.Fight, error)
	// ResolveRound appends the outcome and clears both slots, applying
	// r.Terminal when set.
	ResolveRound(ctx context.Context, r Resolution) (*game.Fight, error)
	// FinishFight applies t if the stored status is one of from.
	FinishFight(ctx context.Context, id string, from []game.FightStatus, t Terminal, now time.Time) (*game.Fight, error)

	// FindStaleFights returns pending fights whose acceptance window closed
	// at or before now and, when idleBefore is non-zero, active fights whose
	// last action is at or before idleBefore.
	FindStaleFights(ctx context.Context, now, idleBefore time.Time, limit int) ([]game.Fight, error)
}
