package game

import (
	"database/sql/driver"
	"encoding/json"
)

// CombatRules holds the tunable constants of the damage formula. A fight
// keeps the rules it was accepted under so its history replays the same
// way after the configuration changes.
type CombatRules struct {
	// MinDamage is the floor applied to every non-shield hit.
	MinDamage int `json:"min_damage"`
	// CritChance is the probability that a crit move lands.
	CritChance         float64 `json:"crit_chance"`
	CritMultiplier     float64 `json:"crit_multiplier"`
	CritFailMultiplier float64 `json:"crit_fail_multiplier"`
	// BlockChance is the probability that a block move succeeds.
	BlockChance          float64 `json:"block_chance"`
	BlockReduction       float64 `json:"block_reduction"`
	ShieldBlockReduction float64 `json:"shield_block_reduction"`
	// BlockerDamageMultiplier scales the damage dealt by a player who
	// chose to block this round.
	BlockerDamageMultiplier float64 `json:"blocker_damage_multiplier"`
}

// IsZero reports whether no rules were recorded, as on fights stored
// before rules were kept per fight.
func (r CombatRules) IsZero() bool { return r == CombatRules{} }

// Value implements driver.Valuer.
func (r CombatRules) Value() (driver.Value, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (r *CombatRules) Scan(src interface{}) error {
	return scanJSON(src, r)
}
