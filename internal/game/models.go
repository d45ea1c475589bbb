package game

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// FightStatus is the lifecycle state of a fight.
type FightStatus string

const (
	StatusPending   FightStatus = "pending"
	StatusActive    FightStatus = "active"
	StatusCompleted FightStatus = "completed"
	StatusForfeited FightStatus = "forfeited"
	StatusExpired   FightStatus = "expired"
)

// IsTerminal reports whether no further transitions are permitted.
func (s FightStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusForfeited || s == StatusExpired
}

// Move is a player's chosen action for one round.
type Move string

const (
	MoveAttack Move = "attack"
	MoveBlock  Move = "block"
	MoveCrit   Move = "crit"
)

// Valid reports whether m is one of the known moves.
func (m Move) Valid() bool {
	switch m {
	case MoveAttack, MoveBlock, MoveCrit:
		return true
	}
	return false
}

// CombatStats is the frozen snapshot of a participant captured at accept
// time. HasShield records whether a shield-class item was equipped.
type CombatStats struct {
	Attack    int  `json:"attack"`
	Defense   int  `json:"defense"`
	MaxHP     int  `json:"max_hp" gorm:"column:max_hp"`
	HasShield bool `json:"has_shield"`
}

// RoundOutcome is one resolved round. P1Damage is the damage dealt by
// player 1 (to player 2) and P1Crit whether player 1 landed a crit.
type RoundOutcome struct {
	RoundNumber        int       `json:"round_number"`
	P1Move             Move      `json:"p1_move"`
	P2Move             Move      `json:"p2_move"`
	P1Damage           int       `json:"p1_damage"`
	P2Damage           int       `json:"p2_damage"`
	P1Crit             bool      `json:"p1_crit"`
	P2Crit             bool      `json:"p2_crit"`
	P1Blocked          bool      `json:"p1_blocked"`
	P2Blocked          bool      `json:"p2_blocked"`
	P1TimeoutDefaulted bool      `json:"p1_timeout_defaulted"`
	P2TimeoutDefaulted bool      `json:"p2_timeout_defaulted"`
	P1HPAfter          int       `json:"p1_hp_after"`
	P2HPAfter          int       `json:"p2_hp_after"`
	ResolvedAt         time.Time `json:"resolved_at"`
}

// RoundLog is the append-only round history, stored as a JSON column so a
// fight remains a single document.
type RoundLog []RoundOutcome

// Value implements driver.Valuer.
func (l RoundLog) Value() (driver.Value, error) {
	if l == nil {
		l = RoundLog{}
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *RoundLog) Scan(src interface{}) error {
	return scanJSON(src, l)
}

// StringList is a JSON-encoded list of strings (equipped item keys).
type StringList []string

// Value implements driver.Valuer.
func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		s = StringList{}
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (s *StringList) Scan(src interface{}) error {
	return scanJSON(src, s)
}

func scanJSON(src interface{}, dst interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dst)
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dst)
	default:
		return errors.New("unsupported json column type")
	}
}

// Fight is the single source of truth for one combat session.
type Fight struct {
	ID     string      `json:"fight_id" gorm:"primaryKey;size:36"`
	P1ID   string      `json:"p1_id" gorm:"index;size:64;not null"`
	P2ID   string      `json:"p2_id" gorm:"index;size:64;not null"`
	Status FightStatus `json:"status" gorm:"index;size:16;not null"`
	Seed   int64       `json:"seed"`

	P1Snapshot CombatStats `json:"p1_snapshot" gorm:"embedded;embeddedPrefix:p1_"`
	P2Snapshot CombatStats `json:"p2_snapshot" gorm:"embedded;embeddedPrefix:p2_"`
	P1HP       int         `json:"p1_hp" gorm:"column:p1_hp"`
	P2HP       int         `json:"p2_hp" gorm:"column:p2_hp"`
	Rules      CombatRules `json:"rules" gorm:"type:text"`

	CurrentRound  int   `json:"current_round"`
	P1PendingMove *Move `json:"p1_pending_move" gorm:"size:16"`
	P2PendingMove *Move `json:"p2_pending_move" gorm:"size:16"`

	Rounds       RoundLog  `json:"rounds" gorm:"type:text"`
	LastActionAt time.Time `json:"last_action_at"`
	WinnerID     *string   `json:"winner_id" gorm:"size:64"`

	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	FinishedAt *time.Time `json:"finished_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
}

// TableName keeps the table name stable regardless of naming strategy.
func (Fight) TableName() string { return "fights" }

// Slot returns 1 or 2 for a participant, 0 otherwise.
func (f *Fight) Slot(actorID string) int {
	switch actorID {
	case f.P1ID:
		return 1
	case f.P2ID:
		return 2
	}
	return 0
}

// Opponent returns the other participant's ID.
func (f *Fight) Opponent(actorID string) string {
	if actorID == f.P1ID {
		return f.P2ID
	}
	return f.P1ID
}

// PendingMove returns the pending move for the given slot.
func (f *Fight) PendingMove(slot int) *Move {
	if slot == 1 {
		return f.P1PendingMove
	}
	return f.P2PendingMove
}

// Profile is the actor record this subsystem mutates: the combat lock and
// the fight counters. Equipment feeds the stat aggregator.
type Profile struct {
	ID            string     `json:"actor_id" gorm:"primaryKey;size:64"`
	IsFighting    bool       `json:"is_fighting"`
	ActiveFightID *string    `json:"active_fight_id" gorm:"size:36"`
	Wins          int        `json:"wins"`
	Losses        int        `json:"losses"`
	Forfeits      int        `json:"forfeits"`
	Suspended     bool       `json:"suspended"`
	Equipment     StringList `json:"equipment" gorm:"type:text"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Store per-actor combat records in a dedicated table.
func (Profile) TableName() string { return "actor_profiles" }
