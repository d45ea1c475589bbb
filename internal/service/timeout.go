package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/ericogr/duel-arena/internal/constants"
	"github.com/ericogr/duel-arena/internal/dedupe"
	"github.com/ericogr/duel-arena/internal/game"
	"github.com/ericogr/duel-arena/internal/logging"
	"github.com/ericogr/duel-arena/internal/storage"
)

// GetFight returns the fight after reconciling it. Concurrent reads of the
// same fight in this process share one reconciliation.
func (s *Service) GetFight(ctx context.Context, fightID string) (*game.Fight, error) {
	ctx, span := s.startSpan(ctx, "GetFight", fightID)
	defer span.End()

	// the reconciliation is shared, so one caller going away must not fail the rest
	shared := context.WithoutCancel(ctx)
	v, err, _ := dedupe.ReconcileGroup.Do(dedupe.FightKey(fightID), func() (interface{}, error) {
		f, err := s.getFight(shared, fightID)
		if err != nil {
			return nil, err
		}
		return s.reconcile(shared, f)
	})
	if err != nil {
		return nil, err
	}
	cp := *v.(*game.Fight)
	return &cp, nil
}

// reconcile applies whatever time has made due on f:
//   - a pending fight past its acceptance window expires
//   - an active fight with both moves recorded but unresolved is resolved
//   - an active fight past the round deadline is resolved with the missing
//     moves defaulted
//
// At most one round is resolved per call; the resolution resets the
// deadline for the next round.
func (s *Service) reconcile(ctx context.Context, f *game.Fight) (*game.Fight, error) {
	switch f.Status {
	case game.StatusPending:
		if s.challengeLapsed(f) {
			return s.expireLapsed(ctx, f)
		}
	case game.StatusActive:
		bothIn := f.P1PendingMove != nil && f.P2PendingMove != nil
		if bothIn || s.roundOverdue(f) {
			if !bothIn {
				logging.Info("round deadline passed; defaulting missing moves", logging.Fields{
					constants.LogFieldFightID: f.ID,
					constants.LogFieldRound:   f.CurrentRound,
				})
			}
			return s.resolveRound(ctx, f)
		}
	}
	return f, nil
}

func (s *Service) challengeLapsed(f *game.Fight) bool {
	return f.Status == game.StatusPending && !s.now().Before(f.ExpiresAt)
}

func (s *Service) roundOverdue(f *game.Fight) bool {
	return f.Status == game.StatusActive && s.now().Sub(f.LastActionAt) > s.policy.RoundTimeout
}

// expireLapsed moves a lapsed pending fight to expired. Losing the race to
// another writer is not an error: the fresh state is returned instead.
func (s *Service) expireLapsed(ctx context.Context, f *game.Fight) (*game.Fight, error) {
	out, err := s.store.FinishFight(ctx, f.ID, []game.FightStatus{game.StatusPending},
		storage.Terminal{Status: game.StatusExpired}, s.now())
	if errors.Is(err, storage.ErrConflict) {
		logging.Debug("challenge expiry lost conditional update", logging.Fields{constants.LogFieldFightID: f.ID})
		return s.getFight(ctx, f.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("expire fight %s: %w", f.ID, err)
	}
	logTransition("challenge expired", out)
	s.recordTerminal(ctx, out, "")
	return out, nil
}

// IsInFight reports whether actorID is committed to a fight: an active one,
// or a challenge they issued that is still open. The matching fight is
// returned, reconciled.
func (s *Service) IsInFight(ctx context.Context, actorID string) (bool, *game.Fight, error) {
	ctx, span := s.startSpan(ctx, "IsInFight", "")
	defer span.End()

	open, err := s.store.FindOpenFights(ctx, actorID)
	if err != nil {
		return false, nil, fmt.Errorf("find open fights: %w", err)
	}
	for i := range open {
		f, err := s.reconcile(ctx, &open[i])
		if err != nil {
			return false, nil, err
		}
		if f.Status == game.StatusActive || (f.Status == game.StatusPending && f.P1ID == actorID) {
			return true, f, nil
		}
	}
	return false, nil, nil
}
