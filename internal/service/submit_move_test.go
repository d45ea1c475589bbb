package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ericogr/duel-arena/internal/game"
)

func TestSubmitMove_SecondSubmissionRejected(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	f := e.activeFight("alice", "bob")

	if _, err := e.svc.SubmitMove(ctx, f.ID, "alice", game.MoveAttack); err != nil {
		t.Fatalf("first move: %v", err)
	}
	_, err := e.svc.SubmitMove(ctx, f.ID, "alice", game.MoveCrit)
	expectCode(t, err, ErrConcurrentModification)

	got, err := e.svc.GetFight(ctx, f.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.P1PendingMove == nil || *got.P1PendingMove != game.MoveAttack {
		t.Fatalf("committed move was overwritten: %v", got.P1PendingMove)
	}
}

func TestSubmitMove_ConcurrentResolvesOnce(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	f := e.activeFight("alice", "bob")

	for round := 1; round <= 5; round++ {
		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i, actor := range []string{"alice", "bob"} {
			wg.Add(1)
			go func(i int, actor string) {
				defer wg.Done()
				_, errs[i] = e.svc.SubmitMove(ctx, f.ID, actor, game.MoveAttack)
			}(i, actor)
		}
		wg.Wait()
		for _, err := range errs {
			if err != nil {
				t.Fatalf("round %d: %v", round, err)
			}
		}

		got, err := e.store.GetFight(ctx, f.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Status != game.StatusActive {
			break
		}
		if len(got.Rounds) != round || got.CurrentRound != round+1 {
			t.Fatalf("round %d resolved %d times (current=%d)", round, len(got.Rounds)-round+1, got.CurrentRound)
		}
		if got.P1PendingMove != nil || got.P2PendingMove != nil {
			t.Fatalf("slots not cleared after round %d", round)
		}
	}
}

func TestAccept_ConcurrentOnlyOneWins(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	f, err := e.svc.Challenge(ctx, "alice", "bob")
	if err != nil {
		t.Fatalf("challenge: %v", err)
	}

	const callers = 4
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.svc.Accept(ctx, f.ID, "bob")
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrAlreadyAccepted):
		default:
			t.Fatalf("unexpected accept error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one successful accept, got %d", wins)
	}

	got, err := e.store.GetFight(ctx, f.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != game.StatusActive || got.CurrentRound != 1 {
		t.Fatalf("expected active fight in round 1, got %s/%d", got.Status, got.CurrentRound)
	}
	e.assertLocked("bob", f.ID)
}

func TestChallenge_ConcurrentSameInviter(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, target := range []string{"bob", "carol"} {
		wg.Add(1)
		go func(i int, target string) {
			defer wg.Done()
			_, errs[i] = e.svc.Challenge(ctx, "alice", target)
		}(i, target)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
		} else if !errors.Is(err, ErrInCombat) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 {
		t.Fatalf("expected one challenge to win the inviter lock, got %d", ok)
	}
	open, err := e.store.FindOpenFights(ctx, "alice")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(open) != 1 {
		t.Fatalf("orphaned fight records: %d", len(open))
	}
}

func TestTerminalTransitionsReleaseLocks(t *testing.T) {
	ctx := context.Background()

	t.Run("forfeit", func(t *testing.T) {
		e := newTestEnv(t)
		f := e.activeFight("alice", "bob")
		out, err := e.svc.Forfeit(ctx, f.ID, "bob")
		if err != nil {
			t.Fatalf("forfeit: %v", err)
		}
		if out.Status != game.StatusForfeited || out.WinnerID == nil || *out.WinnerID != "alice" {
			t.Fatalf("unexpected forfeit result: %s %v", out.Status, out.WinnerID)
		}
		e.assertUnlocked("alice", "bob")
		bob, _ := e.store.GetProfile(ctx, "bob")
		if bob.Losses != 1 || bob.Forfeits != 1 {
			t.Fatalf("forfeit not recorded: %+v", bob)
		}

		_, err = e.svc.Forfeit(ctx, f.ID, "alice")
		expectCode(t, err, ErrFightForfeited)
		_, err = e.svc.ExpireFight(ctx, f.ID)
		expectCode(t, err, ErrFightForfeited)
	})

	t.Run("decline", func(t *testing.T) {
		e := newTestEnv(t)
		f, err := e.svc.Challenge(ctx, "alice", "bob")
		if err != nil {
			t.Fatalf("challenge: %v", err)
		}
		out, err := e.svc.Forfeit(ctx, f.ID, "bob")
		if err != nil {
			t.Fatalf("decline: %v", err)
		}
		if out.Status != game.StatusForfeited || out.WinnerID != nil {
			t.Fatalf("decline must not pick a winner: %s %v", out.Status, out.WinnerID)
		}
		e.assertUnlocked("alice", "bob")
		alice, _ := e.store.GetProfile(ctx, "alice")
		if alice.Wins != 0 || alice.Losses != 0 {
			t.Fatalf("decline must not touch counters: %+v", alice)
		}
	})

	t.Run("expire", func(t *testing.T) {
		e := newTestEnv(t)
		f := e.activeFight("alice", "bob")
		out, err := e.svc.ExpireFight(ctx, f.ID)
		if err != nil {
			t.Fatalf("expire: %v", err)
		}
		if out.Status != game.StatusExpired || out.WinnerID != nil || out.FinishedAt == nil {
			t.Fatalf("unexpected expire result: %+v", out)
		}
		e.assertUnlocked("alice", "bob")
		for i := 0; i < 2; i++ {
			_, err = e.svc.ExpireFight(ctx, f.ID)
			expectCode(t, err, ErrFightExpired)
		}
		_, err = e.svc.Accept(ctx, f.ID, "bob")
		expectCode(t, err, ErrFightExpired)
	})
}

func TestForfeitRaceWithExpire(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	f := e.activeFight("alice", "bob")

	var wg sync.WaitGroup
	var forfeitErr, expireErr error
	wg.Add(2)
	go func() { defer wg.Done(); _, forfeitErr = e.svc.Forfeit(ctx, f.ID, "alice") }()
	go func() { defer wg.Done(); _, expireErr = e.svc.ExpireFight(ctx, f.ID) }()
	wg.Wait()

	if (forfeitErr == nil) == (expireErr == nil) {
		t.Fatalf("exactly one terminal transition must win: forfeit=%v expire=%v", forfeitErr, expireErr)
	}
	got, err := e.store.GetFight(ctx, f.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if forfeitErr == nil {
		expectCode(t, expireErr, ErrFightForfeited)
	} else {
		expectCode(t, forfeitErr, ErrFightExpired)
	}
	if !got.Status.IsTerminal() {
		t.Fatalf("fight should be terminal, got %s", got.Status)
	}
	e.assertUnlocked("alice", "bob")
}
