package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/ericogr/duel-arena/internal/engine"
	"github.com/ericogr/duel-arena/internal/game"
	"github.com/ericogr/duel-arena/internal/storage"
)

// ListFights returns an actor's fights, newest first, as stored.
func (s *Service) ListFights(ctx context.Context, actorID string, limit int) ([]game.Fight, error) {
	fights, err := s.store.ListFights(ctx, actorID, limit)
	if err != nil {
		return nil, fmt.Errorf("list fights: %w", err)
	}
	return fights, nil
}

// Verification is the result of replaying a fight's history from its seed.
type Verification struct {
	FightID    string `json:"fight_id"`
	Rounds     int    `json:"rounds"`
	Consistent bool   `json:"consistent"`
	// FirstMismatch is the index of the first divergent round, -1 if none.
	FirstMismatch int `json:"first_mismatch"`
}

// VerifyFight replays the recorded moves from the seed, snapshots and rules
// of the fight and compares the result with the stored history.
func (s *Service) VerifyFight(ctx context.Context, fightID string) (*Verification, error) {
	f, err := s.getFight(ctx, fightID)
	if err != nil {
		return nil, err
	}
	if f.Status == game.StatusPending {
		return nil, ErrFightNotActive
	}
	p1 := engine.Combatant{ID: f.P1ID, Stats: f.P1Snapshot}
	p2 := engine.Combatant{ID: f.P2ID, Stats: f.P2Snapshot}
	replayed := engine.Replay(f.Seed, p1, p2, f.Rounds, s.rulesFor(f))
	idx := engine.FirstMismatch(f.Rounds, replayed)
	return &Verification{
		FightID:       f.ID,
		Rounds:        len(f.Rounds),
		Consistent:    idx < 0,
		FirstMismatch: idx,
	}, nil
}

// RegisterProfile creates the actor's profile or replaces its equipment.
// Active fights keep the snapshots taken when they were accepted.
func (s *Service) RegisterProfile(ctx context.Context, actorID string, equipment []string) (*game.Profile, error) {
	if equipment == nil {
		equipment = []string{}
	}
	p, err := s.store.UpsertProfile(ctx, actorID, equipment)
	if err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}
	return p, nil
}

// Profile returns the actor's profile record.
func (s *Service) Profile(ctx context.Context, actorID string) (*game.Profile, error) {
	p, err := s.store.GetProfile(ctx, actorID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return p, nil
}
