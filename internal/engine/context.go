package engine

import "github.com/ericogr/duel-arena/internal/game"

// Combatant is one side of a session as seen by the engine.
type Combatant struct {
	ID    string
	Stats game.CombatStats
	HP    int
}

// Session is the engine's view of a fight at the start of a round.
type Session struct {
	Seed  int64
	Round int
	P1    Combatant
	P2    Combatant
}

// SessionFromFight builds the engine view of a stored fight.
func SessionFromFight(f *game.Fight) Session {
	return Session{
		Seed:  f.Seed,
		Round: f.CurrentRound,
		P1:    Combatant{ID: f.P1ID, Stats: f.P1Snapshot, HP: f.P1HP},
		P2:    Combatant{ID: f.P2ID, Stats: f.P2Snapshot, HP: f.P2HP},
	}
}

// After returns the session that follows a resolved round.
func (s Session) After(r RoundResult) Session {
	next := s
	next.Round++
	next.P1.HP = r.NewP1HP
	next.P2.HP = r.NewP2HP
	return next
}

// --- Round context -----------------------------------------------------
type roundContext struct {
	s     Session
	rules Rules
	rng   *Rng
}

func newRoundContext(s Session, rules Rules) *roundContext {
	return &roundContext{s: s, rules: rules, rng: RngForRound(s.Seed, s.Round)}
}

// hit resolves the damage dealt by attacker against defender.
func (rc *roundContext) hit(attacker, defender Combatant, move, defenderMove game.Move) DamageResult {
	return CalculateDamage(DamageInput{
		AttackerAtk:       attacker.Stats.Attack,
		DefenderDef:       defender.Stats.Defense,
		Move:              move,
		DefenderMove:      defenderMove,
		DefenderHasShield: defender.Stats.HasShield,
	}, rc.rules, rc.rng)
}
