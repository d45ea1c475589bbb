package engine

import (
	"math"

	"github.com/ericogr/duel-arena/internal/game"
)

// DamageInput describes one side's hit against the other.
type DamageInput struct {
	AttackerAtk       int
	DefenderDef       int
	Move              game.Move
	DefenderMove      game.Move
	DefenderHasShield bool
}

// DamageResult is the outcome of a single hit.
type DamageResult struct {
	Damage  int
	IsCrit  bool
	Blocked bool
}

// CalculateDamage computes the damage of one hit. It always consumes
// DrawsPerDamage values from rng: the defender's block roll first, then
// the attacker's crit roll.
func CalculateDamage(in DamageInput, rules Rules, rng *Rng) DamageResult {
	blockRoll := rng.Next()
	critRoll := rng.Next()

	base := in.AttackerAtk - in.DefenderDef
	if base < rules.MinDamage {
		base = rules.MinDamage
	}

	var res DamageResult
	dmg := float64(base)
	switch in.Move {
	case game.MoveCrit:
		if critRoll < rules.CritChance {
			dmg *= rules.CritMultiplier
			res.IsCrit = true
		} else {
			dmg *= rules.CritFailMultiplier
		}
	case game.MoveBlock:
		dmg *= rules.BlockerDamageMultiplier
	}
	res.Damage = floorAtLeast(dmg, rules.MinDamage)

	if in.DefenderMove == game.MoveBlock && blockRoll < rules.BlockChance {
		res.Blocked = true
		if in.DefenderHasShield {
			res.Damage = int(math.Floor(float64(res.Damage) * (1 - rules.ShieldBlockReduction)))
			if res.Damage < 0 {
				res.Damage = 0
			}
		} else {
			res.Damage = floorAtLeast(float64(res.Damage)*(1-rules.BlockReduction), rules.MinDamage)
		}
	}
	return res
}

func floorAtLeast(v float64, min int) int {
	n := int(math.Floor(v))
	if n < min {
		return min
	}
	return n
}
