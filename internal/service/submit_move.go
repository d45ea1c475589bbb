package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/ericogr/duel-arena/internal/audit"
	"github.com/ericogr/duel-arena/internal/constants"
	"github.com/ericogr/duel-arena/internal/engine"
	"github.com/ericogr/duel-arena/internal/game"
	"github.com/ericogr/duel-arena/internal/logging"
	"github.com/ericogr/duel-arena/internal/storage"
)

// SubmitMove records playerID's move for the current round. The fight is
// reconciled first, so a move sent after the round deadline lands in the
// round that follows the defaulted one. The submission that fills the
// second slot resolves the round.
func (s *Service) SubmitMove(ctx context.Context, fightID, playerID string, move game.Move) (*game.Fight, error) {
	ctx, span := s.startSpan(ctx, "SubmitMove", fightID)
	defer span.End()

	if !move.Valid() {
		return nil, ErrInvalidMove
	}
	f, err := s.getFight(ctx, fightID)
	if err != nil {
		return nil, err
	}
	slot := f.Slot(playerID)
	if slot == 0 {
		return nil, ErrNotParticipant
	}
	// an overdue round is settled before the move is placed
	if f, err = s.reconcile(ctx, f); err != nil {
		return nil, err
	}
	if err := moveBlocked(f, slot); err != nil {
		return nil, err
	}

	rec, err := s.store.RecordMove(ctx, fightID, slot, f.CurrentRound, move, s.now())
	if errors.Is(err, storage.ErrConflict) {
		logging.Debug("move lost conditional update", logging.Fields{
			constants.LogFieldFightID: fightID,
			constants.LogFieldActorID: playerID,
			constants.LogFieldRound:   f.CurrentRound,
		})
		fresh, gerr := s.getFight(ctx, fightID)
		if gerr != nil {
			return nil, gerr
		}
		if berr := moveBlocked(fresh, slot); berr != nil {
			return nil, berr
		}
		// the round moved on under us
		return nil, ErrConcurrentModification
	}
	if err != nil {
		return nil, fmt.Errorf("record move: %w", err)
	}

	logging.Debug("move recorded", logging.Fields{
		constants.LogFieldFightID: fightID,
		constants.LogFieldActorID: playerID,
		constants.LogFieldRound:   rec.CurrentRound,
	})
	if rec.P1PendingMove == nil || rec.P2PendingMove == nil {
		return rec, nil
	}
	return s.resolveRound(ctx, rec)
}

// moveBlocked returns why slot cannot submit on f, or nil.
func moveBlocked(f *game.Fight, slot int) error {
	switch f.Status {
	case game.StatusActive:
	case game.StatusPending:
		return ErrFightNotActive
	default:
		return terminalError(f.Status)
	}
	if f.PendingMove(slot) != nil {
		return ErrConcurrentModification
	}
	return nil
}

// resolveRound resolves f's current round from its pending slots, filling
// empty slots with the default move. The write is conditional on the slots
// still holding what was read, so a round resolves at most once; a caller
// that loses gets the fresh state and no error.
func (s *Service) resolveRound(ctx context.Context, f *game.Fight) (*game.Fight, error) {
	p1Move, p1Defaulted := s.moveOrDefault(f.P1PendingMove)
	p2Move, p2Defaulted := s.moveOrDefault(f.P2PendingMove)

	now := s.now()
	sess := engine.SessionFromFight(f)
	res := engine.ResolveRound(sess, p1Move, p2Move, s.rulesFor(f))
	next := sess.After(res)

	outcome := game.RoundOutcome{
		RoundNumber:        f.CurrentRound,
		P1Move:             p1Move,
		P2Move:             p2Move,
		P1Damage:           res.P1Damage,
		P2Damage:           res.P2Damage,
		P1Crit:             res.P1Crit,
		P2Crit:             res.P2Crit,
		P1Blocked:          res.P1Blocked,
		P2Blocked:          res.P2Blocked,
		P1TimeoutDefaulted: p1Defaulted,
		P2TimeoutDefaulted: p2Defaulted,
		P1HPAfter:          res.NewP1HP,
		P2HPAfter:          res.NewP2HP,
		ResolvedAt:         now,
	}

	var term *storage.Terminal
	switch {
	case engine.IsCombatEnded(next):
		winner := engine.DetermineWinner(next)
		term = &storage.Terminal{Status: game.StatusCompleted, WinnerID: winner, LoserID: f.Opponent(winner)}
	case p1Defaulted && p2Defaulted && s.idleLimitReached(f):
		term = &storage.Terminal{Status: game.StatusExpired}
	}

	out, err := s.store.ResolveRound(ctx, storage.Resolution{
		FightID:    f.ID,
		Round:      f.CurrentRound,
		ObservedP1: f.P1PendingMove,
		ObservedP2: f.P2PendingMove,
		Outcome:    outcome,
		Terminal:   term,
		Now:        now,
	})
	if errors.Is(err, storage.ErrConflict) {
		logging.Debug("round resolution lost conditional update", logging.Fields{
			constants.LogFieldFightID: f.ID,
			constants.LogFieldRound:   f.CurrentRound,
		})
		return s.getFight(ctx, f.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve round %d of %s: %w", f.CurrentRound, f.ID, err)
	}

	logging.Info("round resolved", logging.Fields{
		constants.LogFieldFightID: out.ID,
		constants.LogFieldRound:   outcome.RoundNumber,
		"p1_hp":                   outcome.P1HPAfter,
		"p2_hp":                   outcome.P2HPAfter,
	})
	s.record(ctx, out, audit.Event{Kind: audit.KindRoundResolved, Round: outcome.RoundNumber, At: now})
	if out.Status.IsTerminal() {
		logTransition("fight finished", out)
		s.recordTerminal(ctx, out, "")
	}
	return out, nil
}

func (s *Service) moveOrDefault(m *game.Move) (game.Move, bool) {
	if m != nil {
		return *m, false
	}
	return s.policy.DefaultMove, true
}

// idleLimitReached reports whether resolving one more fully defaulted round
// reaches the configured idle limit.
func (s *Service) idleLimitReached(f *game.Fight) bool {
	if s.policy.MaxIdleRounds <= 0 {
		return false
	}
	idle := 1
	for i := len(f.Rounds) - 1; i >= 0; i-- {
		r := f.Rounds[i]
		if !r.P1TimeoutDefaulted || !r.P2TimeoutDefaulted {
			break
		}
		idle++
	}
	return idle >= s.policy.MaxIdleRounds
}
