package engine

import "github.com/ericogr/duel-arena/internal/game"

// RoundResult is the outcome of one round. P1Damage is the damage player 1
// dealt, P1Crit whether player 1 landed a crit and P1Blocked whether
// player 1 blocked player 2's hit.
type RoundResult struct {
	P1Damage  int
	P2Damage  int
	P1Crit    bool
	P2Crit    bool
	P1Blocked bool
	P2Blocked bool
	NewP1HP   int
	NewP2HP   int
}

// ResolveRound resolves both hits from the pre-round state. Resolution is
// simultaneous: HP is only applied after both hits are computed, so move
// order gives no advantage.
func ResolveRound(s Session, p1Move, p2Move game.Move, rules Rules) RoundResult {
	rc := newRoundContext(s, rules)

	byP1 := rc.hit(s.P1, s.P2, p1Move, p2Move)
	byP2 := rc.hit(s.P2, s.P1, p2Move, p1Move)

	return RoundResult{
		P1Damage:  byP1.Damage,
		P2Damage:  byP2.Damage,
		P1Crit:    byP1.IsCrit,
		P2Crit:    byP2.IsCrit,
		P1Blocked: byP2.Blocked,
		P2Blocked: byP1.Blocked,
		NewP1HP:   clampHP(s.P1.HP-byP2.Damage, s.P1.Stats.MaxHP),
		NewP2HP:   clampHP(s.P2.HP-byP1.Damage, s.P2.Stats.MaxHP),
	}
}

// IsCombatEnded reports whether either side is out of HP.
func IsCombatEnded(s Session) bool {
	return s.P1.HP <= 0 || s.P2.HP <= 0
}

// DetermineWinner returns the winner of an ended session, or "" while both
// sides still stand. On a double KO player 1, the challenger, wins.
func DetermineWinner(s Session) string {
	switch {
	case s.P2.HP <= 0:
		return s.P1.ID
	case s.P1.HP <= 0:
		return s.P2.ID
	}
	return ""
}
