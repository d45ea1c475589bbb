package engine

import "github.com/ericogr/duel-arena/internal/game"

// Replay recomputes every recorded round from the seed, the snapshots and
// the recorded moves, starting both sides at full HP.
func Replay(seed int64, p1, p2 Combatant, rounds []game.RoundOutcome, rules Rules) []RoundResult {
	s := Session{Seed: seed, Round: 1, P1: p1, P2: p2}
	s.P1.HP = p1.Stats.MaxHP
	s.P2.HP = p2.Stats.MaxHP

	out := make([]RoundResult, 0, len(rounds))
	for _, r := range rounds {
		s.Round = r.RoundNumber
		res := ResolveRound(s, r.P1Move, r.P2Move, rules)
		out = append(out, res)
		s = s.After(res)
	}
	return out
}

// FirstMismatch compares recorded rounds with a replay and returns the index
// of the first divergent round, or -1 when the history is consistent.
func FirstMismatch(rounds []game.RoundOutcome, replayed []RoundResult) int {
	for i := range rounds {
		if i >= len(replayed) {
			return i
		}
		r, p := rounds[i], replayed[i]
		if r.P1Damage != p.P1Damage || r.P2Damage != p.P2Damage ||
			r.P1Crit != p.P1Crit || r.P2Crit != p.P2Crit ||
			r.P1HPAfter != p.NewP1HP || r.P2HPAfter != p.NewP2HP {
			return i
		}
	}
	return -1
}
