package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/ericogr/duel-arena/internal/audit"
	"github.com/ericogr/duel-arena/internal/constants"
	"github.com/ericogr/duel-arena/internal/engine"
	"github.com/ericogr/duel-arena/internal/game"
	"github.com/ericogr/duel-arena/internal/loadout"
	"github.com/ericogr/duel-arena/internal/logging"
	"github.com/ericogr/duel-arena/internal/storage"
)

// Challenge creates a pending fight from inviterID against targetID and
// takes the inviter's combat lock in the same write.
func (s *Service) Challenge(ctx context.Context, inviterID, targetID string) (*game.Fight, error) {
	ctx, span := s.startSpan(ctx, "Challenge", "")
	defer span.End()

	if inviterID == targetID {
		return nil, ErrSelfCombat
	}

	f, err := s.createPending(ctx, inviterID, targetID)
	if errors.Is(err, storage.ErrLockHeld) {
		// A lock may still point at a challenge whose window closed without
		// anyone reading it. Expire those and try once more.
		healed := false
		for _, id := range []string{inviterID, targetID} {
			ok, herr := s.expireLapsedLock(ctx, id)
			if herr != nil {
				return nil, herr
			}
			healed = healed || ok
		}
		if healed {
			f, err = s.createPending(ctx, inviterID, targetID)
		}
	}
	switch {
	case errors.Is(err, storage.ErrLockHeld):
		return nil, ErrInCombat
	case errors.Is(err, storage.ErrNotFound):
		return nil, ErrProfileNotFound
	case err != nil:
		return nil, fmt.Errorf("create fight: %w", err)
	}

	logging.Info("challenge created", logging.Fields{
		constants.LogFieldFightID:  f.ID,
		constants.LogFieldActorID:  inviterID,
		constants.LogFieldTargetID: targetID,
	})
	s.record(ctx, f, audit.Event{Kind: audit.KindChallenged, ActorID: inviterID, At: f.CreatedAt})
	return f, nil
}

func (s *Service) createPending(ctx context.Context, inviterID, targetID string) (*game.Fight, error) {
	now := s.now()
	f := &game.Fight{
		ID:           engine.GenerateSessionID(),
		P1ID:         inviterID,
		P2ID:         targetID,
		Status:       game.StatusPending,
		Seed:         engine.GenerateSeed(),
		Rounds:       game.RoundLog{},
		LastActionAt: now,
		CreatedAt:    now,
		UpdatedAt:    now,
		ExpiresAt:    now.Add(s.policy.ChallengeTTL),
	}
	if err := s.store.CreatePendingFight(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// expireLapsedLock expires the pending fight actorID's lock points at when
// its acceptance window has closed. It reports whether a lock was freed.
func (s *Service) expireLapsedLock(ctx context.Context, actorID string) (bool, error) {
	p, err := s.store.GetProfile(ctx, actorID)
	if errors.Is(err, storage.ErrNotFound) {
		return false, ErrProfileNotFound
	}
	if err != nil {
		return false, err
	}
	if !p.IsFighting || p.ActiveFightID == nil {
		return false, nil
	}
	f, err := s.store.GetFight(ctx, *p.ActiveFightID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if !s.challengeLapsed(f) {
		return false, nil
	}
	if _, err := s.expireLapsed(ctx, f); err != nil {
		return false, err
	}
	return true, nil
}

// Accept activates a pending fight for the challenged actor. Both stat
// snapshots are taken here and frozen for the rest of the fight.
func (s *Service) Accept(ctx context.Context, fightID, accepterID string) (*game.Fight, error) {
	ctx, span := s.startSpan(ctx, "Accept", fightID)
	defer span.End()

	f, err := s.getFight(ctx, fightID)
	if err != nil {
		return nil, err
	}
	switch f.Slot(accepterID) {
	case 0:
		return nil, ErrNotParticipant
	case 1:
		return nil, ErrNotChallengedPlayer
	}
	if err := s.acceptable(ctx, f); err != nil {
		return nil, err
	}

	p1, err := s.combatStats(ctx, f.P1ID)
	if err != nil {
		return nil, err
	}
	p2, err := s.combatStats(ctx, f.P2ID)
	if err != nil {
		return nil, err
	}
	if !validStats(p1) || !validStats(p2) {
		return nil, ErrInvalidStats
	}

	out, err := s.store.ActivateFight(ctx, fightID, p1, p2, s.rules, s.now())
	switch {
	case errors.Is(err, storage.ErrConflict):
		logging.Debug("accept lost conditional update", logging.Fields{constants.LogFieldFightID: fightID})
		fresh, gerr := s.getFight(ctx, fightID)
		if gerr != nil {
			return nil, gerr
		}
		if aerr := s.acceptable(ctx, fresh); aerr != nil {
			return nil, aerr
		}
		return nil, ErrConcurrentModification
	case errors.Is(err, storage.ErrLockHeld):
		return nil, ErrInCombat
	case err != nil:
		return nil, fmt.Errorf("activate fight %s: %w", fightID, err)
	}

	logTransition("fight accepted", out)
	s.record(ctx, out, audit.Event{Kind: audit.KindAccepted, ActorID: accepterID})
	return out, nil
}

// acceptable returns the error an accept on f must fail with, or nil when
// f is still open. A lapsed challenge is expired on the way.
func (s *Service) acceptable(ctx context.Context, f *game.Fight) error {
	switch f.Status {
	case game.StatusPending:
		if s.challengeLapsed(f) {
			if _, err := s.expireLapsed(ctx, f); err != nil {
				return err
			}
			return ErrFightExpired
		}
		return nil
	case game.StatusActive:
		return ErrAlreadyAccepted
	}
	return terminalError(f.Status)
}

// combatStats asks the aggregator for actorID's stats. Only a missing
// profile is a domain error; anything else is internal.
func (s *Service) combatStats(ctx context.Context, actorID string) (game.CombatStats, error) {
	st, err := s.stats.ResolveCombatStats(ctx, actorID)
	if errors.Is(err, loadout.ErrUnknownProfile) {
		return st, ErrProfileNotFound
	}
	if err != nil {
		return st, fmt.Errorf("resolve stats for %s: %w", actorID, err)
	}
	return st, nil
}
