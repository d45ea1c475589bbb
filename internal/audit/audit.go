package audit

// Package audit records best-effort combat events. Sinks never take part in
// fight transitions: a failing sink is logged and ignored by the caller.

import (
	"context"
	"errors"
	"time"

	"github.com/ericogr/duel-arena/internal/constants"
	"github.com/ericogr/duel-arena/internal/logging"
)

// Kind names a recorded transition.
type Kind string

const (
	KindChallenged    Kind = "challenged"
	KindAccepted      Kind = "accepted"
	KindRoundResolved Kind = "round_resolved"
	KindCompleted     Kind = "completed"
	KindForfeited     Kind = "forfeited"
	KindDeclined      Kind = "declined"
	KindExpired       Kind = "expired"
)

// Event is one audit record for a fight.
type Event struct {
	Kind     Kind      `json:"kind"`
	FightID  string    `json:"fight_id"`
	ActorID  string    `json:"actor_id,omitempty"`
	WinnerID string    `json:"winner_id,omitempty"`
	LoserID  string    `json:"loser_id,omitempty"`
	Round    int       `json:"round,omitempty"`
	At       time.Time `json:"at"`
}

// Sink receives combat events.
type Sink interface {
	RecordCombatEvent(ctx context.Context, fightID string, ev Event) error
}

// LogSink writes events to the structured log.
type LogSink struct{}

func (LogSink) RecordCombatEvent(_ context.Context, fightID string, ev Event) error {
	logging.Info("combat event", logging.Fields{
		constants.LogFieldFightID:  fightID,
		"kind":                     ev.Kind,
		constants.LogFieldActorID:  ev.ActorID,
		constants.LogFieldWinnerID: ev.WinnerID,
		constants.LogFieldRound:    ev.Round,
	})
	return nil
}

// Fanout delivers to every sink and joins their errors.
type Fanout []Sink

func (f Fanout) RecordCombatEvent(ctx context.Context, fightID string, ev Event) error {
	var errs []error
	for _, s := range f {
		if s == nil {
			continue
		}
		if err := s.RecordCombatEvent(ctx, fightID, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards events.
type Nop struct{}

func (Nop) RecordCombatEvent(context.Context, string, Event) error { return nil }
