package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ericogr/duel-arena/internal/audit"
	"github.com/ericogr/duel-arena/internal/constants"
	"github.com/ericogr/duel-arena/internal/engine"
	"github.com/ericogr/duel-arena/internal/game"
	"github.com/ericogr/duel-arena/internal/logging"
	"github.com/ericogr/duel-arena/internal/storage"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/ericogr/duel-arena/internal/service"

// StatAggregator maps an actor's current equipment to combat stats. It is
// consulted once per participant when a fight is accepted.
type StatAggregator interface {
	ResolveCombatStats(ctx context.Context, actorID string) (game.CombatStats, error)
}

// Policy holds the coordinator's timing and fallback settings.
type Policy struct {
	RoundTimeout time.Duration
	ChallengeTTL time.Duration
	// DefaultMove is applied to a player who misses the round deadline.
	DefaultMove game.Move
	// MaxIdleRounds expires a fight after that many consecutive rounds in
	// which both moves were defaulted. Zero disables it.
	MaxIdleRounds int
	// IdleActiveTimeout lets ExpireStale expire active fights with no
	// action for that long. Zero disables it.
	IdleActiveTimeout time.Duration
}

// DefaultPolicy returns the settings used when none are configured.
func DefaultPolicy() Policy {
	return Policy{
		RoundTimeout:      time.Minute,
		ChallengeTTL:      5 * time.Minute,
		DefaultMove:       game.MoveBlock,
		MaxIdleRounds:     3,
		IdleActiveTimeout: 30 * time.Minute,
	}
}

// Service is the fight coordinator. It keeps no fight state of its own:
// every call reads the store and changes it through conditional writes.
type Service struct {
	store  storage.FightStore
	stats  StatAggregator
	audit  audit.Sink
	rules  engine.Rules
	policy Policy
	clock  func() time.Time
	tracer trace.Tracer
}

type Option func(*Service)

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.clock = now }
}

func WithRules(r engine.Rules) Option {
	return func(s *Service) { s.rules = r }
}

func WithPolicy(p Policy) Option {
	return func(s *Service) { s.policy = p }
}

// WithAudit sets the sink that receives combat events.
func WithAudit(sink audit.Sink) Option {
	return func(s *Service) { s.audit = sink }
}

// New builds a coordinator over store, using stats to snapshot combatants.
func New(store storage.FightStore, stats StatAggregator, opts ...Option) *Service {
	s := &Service{
		store:  store,
		stats:  stats,
		audit:  audit.Nop{},
		rules:  engine.DefaultRules(),
		policy: DefaultPolicy(),
		clock:  time.Now,
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	if !s.policy.DefaultMove.Valid() {
		s.policy.DefaultMove = game.MoveBlock
	}
	return s
}

func (s *Service) now() time.Time {
	return s.clock().UTC()
}

func (s *Service) startSpan(ctx context.Context, name, fightID string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "service."+name, trace.WithAttributes(attribute.String("fight.id", fightID)))
}

// getFight loads a fight, translating a missing record.
func (s *Service) getFight(ctx context.Context, id string) (*game.Fight, error) {
	f, err := s.store.GetFight(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrFightNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load fight %s: %w", id, err)
	}
	return f, nil
}

// record forwards an event to the audit sink. Failures are logged only.
func (s *Service) record(ctx context.Context, f *game.Fight, ev audit.Event) {
	ev.FightID = f.ID
	if ev.At.IsZero() {
		ev.At = s.now()
	}
	if err := s.audit.RecordCombatEvent(ctx, f.ID, ev); err != nil {
		logging.Warn("audit sink failed", err, logging.Fields{
			constants.LogFieldFightID: f.ID,
			"kind":                    ev.Kind,
		})
	}
}

// recordTerminal emits the event matching a fight's terminal status.
func (s *Service) recordTerminal(ctx context.Context, f *game.Fight, actorID string) {
	ev := audit.Event{ActorID: actorID, Round: f.CurrentRound}
	if f.WinnerID != nil {
		ev.WinnerID = *f.WinnerID
		ev.LoserID = f.Opponent(*f.WinnerID)
	}
	switch f.Status {
	case game.StatusCompleted:
		ev.Kind = audit.KindCompleted
	case game.StatusForfeited:
		ev.Kind = audit.KindForfeited
		if f.WinnerID == nil {
			ev.Kind = audit.KindDeclined
		}
	case game.StatusExpired:
		ev.Kind = audit.KindExpired
	default:
		return
	}
	s.record(ctx, f, ev)
}

func logTransition(msg string, f *game.Fight) {
	fields := logging.Fields{
		constants.LogFieldFightID: f.ID,
		constants.LogFieldStatus:  f.Status,
		constants.LogFieldRound:   f.CurrentRound,
	}
	if f.WinnerID != nil {
		fields[constants.LogFieldWinnerID] = *f.WinnerID
	}
	logging.Info(msg, fields)
}

func validStats(c game.CombatStats) bool {
	return c.Attack >= 0 && c.Defense >= 0 && c.MaxHP >= 1
}

// rulesFor returns the rules f was accepted under, falling back to the
// configured rules for fights that predate per-fight rules.
func (s *Service) rulesFor(f *game.Fight) engine.Rules {
	if f.Rules.IsZero() {
		return s.rules
	}
	return f.Rules
}
