package engine

import (
	"reflect"
	"testing"

	"github.com/ericogr/duel-arena/internal/game"
)

func testSession(seed int64) Session {
	return Session{
		Seed:  seed,
		Round: 1,
		P1:    Combatant{ID: "p1", Stats: game.CombatStats{Attack: 10, Defense: 3, MaxHP: 30}, HP: 30},
		P2:    Combatant{ID: "p2", Stats: game.CombatStats{Attack: 8, Defense: 2, MaxHP: 30}, HP: 30},
	}
}

func TestResolveRound_Deterministic(t *testing.T) {
	moves := [][2]game.Move{
		{game.MoveAttack, game.MoveBlock},
		{game.MoveCrit, game.MoveCrit},
		{game.MoveBlock, game.MoveAttack},
		{game.MoveCrit, game.MoveBlock},
	}
	for _, seed := range []int64{0, 1, 42, -7, 1 << 40} {
		a := testSession(seed)
		b := testSession(seed)
		for _, m := range moves {
			ra := ResolveRound(a, m[0], m[1], DefaultRules())
			rb := ResolveRound(b, m[0], m[1], DefaultRules())
			if !reflect.DeepEqual(ra, rb) {
				t.Fatalf("seed %d round %d: results differ: %+v vs %+v", seed, a.Round, ra, rb)
			}
			a = a.After(ra)
			b = b.After(rb)
		}
	}
}

func TestResolveRound_AppliesDamageFromPreRoundState(t *testing.T) {
	s := testSession(9)
	res := ResolveRound(s, game.MoveAttack, game.MoveAttack, DefaultRules())
	// attack vs attack never rolls anything that matters: 10-2 and 8-3.
	if res.P1Damage != 8 || res.P2Damage != 5 {
		t.Fatalf("unexpected damage: p1=%d p2=%d", res.P1Damage, res.P2Damage)
	}
	if res.NewP1HP != 25 || res.NewP2HP != 22 {
		t.Fatalf("unexpected hp: p1=%d p2=%d", res.NewP1HP, res.NewP2HP)
	}
	if res.P1Crit || res.P2Crit || res.P1Blocked || res.P2Blocked {
		t.Fatalf("no crit or block expected: %+v", res)
	}
}

func TestResolveRound_HPClampedAtZero(t *testing.T) {
	s := testSession(3)
	s.P2.HP = 2
	res := ResolveRound(s, game.MoveAttack, game.MoveAttack, DefaultRules())
	if res.NewP2HP != 0 {
		t.Fatalf("expected hp clamped to 0, got %d", res.NewP2HP)
	}
	if !IsCombatEnded(s.After(res)) {
		t.Fatalf("expected combat to end")
	}
}

func TestDetermineWinner(t *testing.T) {
	tests := []struct {
		name   string
		p1, p2 int
		want   string
	}{
		{"both standing", 5, 5, ""},
		{"p2 down", 5, 0, "p1"},
		{"p1 down", 0, 3, "p2"},
		{"double KO goes to challenger", 0, 0, "p1"},
		{"overkill both", -4, -1, "p1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testSession(1)
			s.P1.HP = tt.p1
			s.P2.HP = tt.p2
			if got := DetermineWinner(s); got != tt.want {
				t.Fatalf("want %q, got %q", tt.want, got)
			}
		})
	}
}

func TestResolveRound_DoubleKO(t *testing.T) {
	s := testSession(5)
	s.P1.HP = 1
	s.P2.HP = 1
	res := ResolveRound(s, game.MoveAttack, game.MoveAttack, DefaultRules())
	after := s.After(res)
	if after.P1.HP != 0 || after.P2.HP != 0 {
		t.Fatalf("expected double KO, got p1=%d p2=%d", after.P1.HP, after.P2.HP)
	}
	if !IsCombatEnded(after) {
		t.Fatalf("expected combat ended")
	}
	if w := DetermineWinner(after); w != "p1" {
		t.Fatalf("expected p1 to win a double KO, got %q", w)
	}
}

func TestReplay_MatchesRecordedRounds(t *testing.T) {
	rules := DefaultRules()
	s := testSession(77)
	p1, p2 := s.P1, s.P2
	var recorded []game.RoundOutcome
	moves := []game.Move{game.MoveCrit, game.MoveBlock, game.MoveAttack}
	for i := 0; i < 3 && !IsCombatEnded(s); i++ {
		res := ResolveRound(s, moves[i], moves[(i+1)%3], rules)
		recorded = append(recorded, game.RoundOutcome{
			RoundNumber: s.Round, P1Move: moves[i], P2Move: moves[(i+1)%3],
			P1Damage: res.P1Damage, P2Damage: res.P2Damage, P1Crit: res.P1Crit, P2Crit: res.P2Crit,
			P1HPAfter: res.NewP1HP, P2HPAfter: res.NewP2HP,
		})
		s = s.After(res)
	}

	replayed := Replay(77, p1, p2, recorded, rules)
	if idx := FirstMismatch(recorded, replayed); idx != -1 {
		t.Fatalf("replay diverged at round index %d", idx)
	}

	recorded[1].P2Damage++
	if idx := FirstMismatch(recorded, replayed); idx != 1 {
		t.Fatalf("expected tampered round 1 to be detected, got %d", idx)
	}
}

func TestGenerateSessionID_Unique(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id := GenerateSessionID()
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate session id %s", id)
		}
		seen[id] = struct{}{}
	}
}
