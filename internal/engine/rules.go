package engine

import "github.com/ericogr/duel-arena/internal/game"

// Rules holds the tunable constants of the damage formula.
type Rules = game.CombatRules

// DefaultRules returns the rules used when nothing is configured.
func DefaultRules() Rules {
	return Rules{
		MinDamage:               1,
		CritChance:              0.5,
		CritMultiplier:          2.0,
		CritFailMultiplier:      0.5,
		BlockChance:             0.75,
		BlockReduction:          0.5,
		ShieldBlockReduction:    1.0,
		BlockerDamageMultiplier: 0.5,
	}
}
