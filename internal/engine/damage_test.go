package engine

import (
	"testing"

	"github.com/ericogr/duel-arena/internal/game"
)

func fixedRules(crit, block float64) Rules {
	r := DefaultRules()
	r.CritChance = crit
	r.BlockChance = block
	return r
}

func TestCalculateDamage(t *testing.T) {
	tests := []struct {
		name   string
		in     DamageInput
		rules  Rules
		want   int
		crit   bool
		blocks bool
	}{
		{"plain attack", DamageInput{AttackerAtk: 10, DefenderDef: 3, Move: game.MoveAttack, DefenderMove: game.MoveAttack}, DefaultRules(), 7, false, false},
		{"defense above attack floors to min", DamageInput{AttackerAtk: 1, DefenderDef: 10, Move: game.MoveAttack, DefenderMove: game.MoveAttack}, DefaultRules(), 1, false, false},
		{"crit lands", DamageInput{AttackerAtk: 10, DefenderDef: 3, Move: game.MoveCrit, DefenderMove: game.MoveAttack}, fixedRules(1, 0), 14, true, false},
		{"crit misses", DamageInput{AttackerAtk: 10, DefenderDef: 3, Move: game.MoveCrit, DefenderMove: game.MoveAttack}, fixedRules(0, 0), 3, false, false},
		{"blocker hits softer", DamageInput{AttackerAtk: 10, DefenderDef: 3, Move: game.MoveBlock, DefenderMove: game.MoveAttack}, DefaultRules(), 3, false, false},
		{"block halves", DamageInput{AttackerAtk: 10, DefenderDef: 3, Move: game.MoveAttack, DefenderMove: game.MoveBlock}, fixedRules(0, 1), 3, false, true},
		{"block never below min without shield", DamageInput{AttackerAtk: 1, DefenderDef: 5, Move: game.MoveAttack, DefenderMove: game.MoveBlock}, fixedRules(0, 1), 1, false, true},
		{"shield block absorbs everything", DamageInput{AttackerAtk: 10, DefenderDef: 3, Move: game.MoveAttack, DefenderMove: game.MoveBlock, DefenderHasShield: true}, fixedRules(0, 1), 0, false, true},
		{"failed block", DamageInput{AttackerAtk: 10, DefenderDef: 3, Move: game.MoveAttack, DefenderMove: game.MoveBlock, DefenderHasShield: true}, fixedRules(0, 0), 7, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateDamage(tt.in, tt.rules, NewRng(11))
			if got.Damage != tt.want || got.IsCrit != tt.crit || got.Blocked != tt.blocks {
				t.Fatalf("want dmg=%d crit=%v blocked=%v, got %+v", tt.want, tt.crit, tt.blocks, got)
			}
		})
	}
}

func TestCalculateDamage_ConsumesFixedDraws(t *testing.T) {
	inputs := []DamageInput{
		{AttackerAtk: 5, DefenderDef: 1, Move: game.MoveAttack, DefenderMove: game.MoveAttack},
		{AttackerAtk: 5, DefenderDef: 1, Move: game.MoveCrit, DefenderMove: game.MoveBlock},
	}
	for _, in := range inputs {
		used := NewRng(99)
		CalculateDamage(in, DefaultRules(), used)
		manual := NewRng(99)
		for i := 0; i < DrawsPerDamage; i++ {
			manual.Next()
		}
		if used.Next() != manual.Next() {
			t.Fatalf("move %s consumed a different number of draws", in.Move)
		}
	}
}

func TestRng_StreamIsReproducibleAndBounded(t *testing.T) {
	a, b := NewRng(2024), NewRng(2024)
	for i := 0; i < 1000; i++ {
		x, y := a.Next(), b.Next()
		if x != y {
			t.Fatalf("draw %d differs: %v vs %v", i, x, y)
		}
		if x < 0 || x >= 1 {
			t.Fatalf("draw %d out of range: %v", i, x)
		}
	}
	if NewRng(1).Next() == NewRng(2).Next() {
		t.Fatalf("different seeds should produce different streams")
	}
}

func TestRngForRound_StartsAtRoundOffset(t *testing.T) {
	r := NewRng(5)
	for i := 0; i < 2*DrawsPerRound; i++ {
		r.Next()
	}
	if got, want := RngForRound(5, 3).Next(), r.Next(); got != want {
		t.Fatalf("round 3 stream mismatch: %v vs %v", got, want)
	}
}
