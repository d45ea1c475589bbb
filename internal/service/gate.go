package service

import (
	"context"
	"errors"

	"github.com/ericogr/duel-arena/internal/constants"
	"github.com/ericogr/duel-arena/internal/game"
	"github.com/ericogr/duel-arena/internal/storage"
)

// AccountGate decides whether an actor may fight at all. Callers consult it
// before Challenge and Accept.
type AccountGate interface {
	CanFight(ctx context.Context, actorID string) (allowed bool, reason string, err error)
}

// ProfileGate allows actors with a profile that is not suspended.
type ProfileGate struct {
	Profiles interface {
		GetProfile(ctx context.Context, actorID string) (*game.Profile, error)
	}
}

func (g ProfileGate) CanFight(ctx context.Context, actorID string) (bool, string, error) {
	p, err := g.Profiles.GetProfile(ctx, actorID)
	if errors.Is(err, storage.ErrNotFound) {
		return false, ErrProfileNotFound.Message, nil
	}
	if err != nil {
		return false, "", err
	}
	if p.Suspended {
		return false, constants.ErrAccountRestricted, nil
	}
	return true, "", nil
}
