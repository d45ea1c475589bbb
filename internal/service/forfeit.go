package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ericogr/duel-arena/internal/constants"
	"github.com/ericogr/duel-arena/internal/game"
	"github.com/ericogr/duel-arena/internal/logging"
	"github.com/ericogr/duel-arena/internal/storage"
)

// Forfeit ends the fight on playerID's behalf. On an active fight the other
// participant wins and the forfeit counts as a loss. On a pending fight it
// is a decline: forfeited with no winner and no stats.
func (s *Service) Forfeit(ctx context.Context, fightID, playerID string) (*game.Fight, error) {
	ctx, span := s.startSpan(ctx, "Forfeit", fightID)
	defer span.End()

	f, err := s.getFight(ctx, fightID)
	if err != nil {
		return nil, err
	}
	if f.Slot(playerID) == 0 {
		return nil, ErrNotParticipant
	}

	var t storage.Terminal
	switch f.Status {
	case game.StatusPending:
		if s.challengeLapsed(f) {
			if _, err := s.expireLapsed(ctx, f); err != nil {
				return nil, err
			}
			return nil, ErrFightExpired
		}
		t = storage.Terminal{Status: game.StatusForfeited}
	case game.StatusActive:
		t = storage.Terminal{
			Status:   game.StatusForfeited,
			WinnerID: f.Opponent(playerID),
			LoserID:  playerID,
			Forfeit:  true,
		}
	default:
		return nil, terminalError(f.Status)
	}

	out, err := s.finish(ctx, f, t)
	if err != nil {
		return nil, err
	}
	logTransition("fight forfeited", out)
	s.recordTerminal(ctx, out, playerID)
	return out, nil
}

// ExpireFight expires a pending or active fight with no winner. It is the
// administrative and idle-timeout path.
func (s *Service) ExpireFight(ctx context.Context, fightID string) (*game.Fight, error) {
	ctx, span := s.startSpan(ctx, "ExpireFight", fightID)
	defer span.End()

	f, err := s.getFight(ctx, fightID)
	if err != nil {
		return nil, err
	}
	if f.Status.IsTerminal() {
		return nil, terminalError(f.Status)
	}
	out, err := s.finish(ctx, f, storage.Terminal{Status: game.StatusExpired})
	if err != nil {
		return nil, err
	}
	logTransition("fight expired", out)
	s.recordTerminal(ctx, out, "")
	return out, nil
}

// finish applies t conditioned on f's observed status. When another writer
// got there first the error reflects the state it left behind.
func (s *Service) finish(ctx context.Context, f *game.Fight, t storage.Terminal) (*game.Fight, error) {
	out, err := s.store.FinishFight(ctx, f.ID, []game.FightStatus{f.Status}, t, s.now())
	if errors.Is(err, storage.ErrConflict) {
		logging.Debug("terminal transition lost conditional update", logging.Fields{
			constants.LogFieldFightID: f.ID,
			constants.LogFieldStatus:  t.Status,
		})
		fresh, gerr := s.getFight(ctx, f.ID)
		if gerr != nil {
			return nil, gerr
		}
		if terr := terminalError(fresh.Status); terr != nil {
			return nil, terr
		}
		return nil, ErrConcurrentModification
	}
	if err != nil {
		return nil, fmt.Errorf("finish fight %s: %w", f.ID, err)
	}
	return out, nil
}

// ExpireStale expires lapsed challenges and, when an idle timeout is set,
// active fights with no action for that long. It is safe to run from any
// number of processes; it never resolves rounds. Returns how many fights
// this call expired.
func (s *Service) ExpireStale(ctx context.Context) (int, error) {
	ctx, span := s.startSpan(ctx, "ExpireStale", "")
	defer span.End()

	now := s.now()
	var idleBefore time.Time
	if s.policy.IdleActiveTimeout > 0 {
		idleBefore = now.Add(-s.policy.IdleActiveTimeout)
	}
	stale, err := s.store.FindStaleFights(ctx, now, idleBefore, 100)
	if err != nil {
		return 0, fmt.Errorf("find stale fights: %w", err)
	}

	expired := 0
	for i := range stale {
		f := &stale[i]
		out, err := s.store.FinishFight(ctx, f.ID, []game.FightStatus{f.Status},
			storage.Terminal{Status: game.StatusExpired}, now)
		if errors.Is(err, storage.ErrConflict) {
			continue
		}
		if err != nil {
			return expired, fmt.Errorf("expire fight %s: %w", f.ID, err)
		}
		expired++
		logTransition("stale fight expired", out)
		s.recordTerminal(ctx, out, "")
	}
	return expired, nil
}
