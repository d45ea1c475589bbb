package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/ericogr/duel-arena/internal/config"
	"github.com/ericogr/duel-arena/internal/game"
	"github.com/ericogr/duel-arena/internal/loadout"
	"github.com/ericogr/duel-arena/internal/service"
	"github.com/ericogr/duel-arena/internal/storage"

	"github.com/gin-gonic/gin"
)

type apiEnv struct {
	t        *testing.T
	router   *gin.Engine
	verifier *TokenVerifier
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := storage.OpenDB(storage.DriverSQLite, filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = storage.CloseDB(db) })
	store := storage.NewGormStore(db)
	catalog := loadout.NewCatalog(config.LoadoutConfig{Base: config.StatsConfig{Attack: 5, Defense: 2, MaxHP: 50}})
	svc := service.New(store, loadout.NewAggregator(catalog, store))
	v, err := NewTokenVerifier("test-secret")
	if err != nil {
		t.Fatalf("verifier: %v", err)
	}
	return &apiEnv{t: t, router: NewRouter(NewFightHandler(svc, service.ProfileGate{Profiles: store}), v), verifier: v}
}

func (e *apiEnv) do(method, path, actor, role string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			e.t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequestWithContext(context.Background(), method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if actor != "" {
		tok, err := e.verifier.Issue(actor, role, time.Hour)
		if err != nil {
			e.t.Fatalf("issue: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	var out map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func TestRouter_FightFlow(t *testing.T) {
	e := newAPIEnv(t)

	for _, actor := range []string{"alice", "bob"} {
		if w, _ := e.do(http.MethodPut, "/api/actors/me", actor, "", ProfilePayload{}); w.Code != http.StatusOK {
			t.Fatalf("register %s: %d %s", actor, w.Code, w.Body.String())
		}
	}

	w, body := e.do(http.MethodPost, "/api/fights", "alice", "", ChallengePayload{TargetID: "bob"})
	if w.Code != http.StatusCreated {
		t.Fatalf("challenge: %d %s", w.Code, w.Body.String())
	}
	id, _ := body["fight_id"].(string)
	if id == "" || body["status"] != string(game.StatusPending) {
		t.Fatalf("unexpected challenge body: %v", body)
	}

	w, body = e.do(http.MethodPost, "/api/fights/"+id+"/accept", "alice", "", nil)
	if w.Code != http.StatusForbidden || body["code"] != service.ErrNotChallengedPlayer.Code {
		t.Fatalf("inviter accept should be refused: %d %v", w.Code, body)
	}

	if w, _ = e.do(http.MethodPost, "/api/fights/"+id+"/accept", "bob", "", nil); w.Code != http.StatusOK {
		t.Fatalf("accept: %d %s", w.Code, w.Body.String())
	}
	w, body = e.do(http.MethodPost, "/api/fights/"+id+"/accept", "bob", "", nil)
	if w.Code != http.StatusConflict || body["code"] != service.ErrAlreadyAccepted.Code {
		t.Fatalf("second accept: %d %v", w.Code, body)
	}

	if w, _ = e.do(http.MethodPost, "/api/fights/"+id+"/move", "alice", "", MovePayload{Move: game.MoveAttack}); w.Code != http.StatusOK {
		t.Fatalf("move: %d %s", w.Code, w.Body.String())
	}
	w, body = e.do(http.MethodPost, "/api/fights/"+id+"/move", "bob", "", MovePayload{Move: game.MoveBlock})
	if w.Code != http.StatusOK {
		t.Fatalf("move: %d %s", w.Code, w.Body.String())
	}
	if rounds, _ := body["rounds"].([]interface{}); len(rounds) != 1 {
		t.Fatalf("expected one resolved round, got %v", body["rounds"])
	}

	w, body = e.do(http.MethodGet, "/api/actors/me/fight", "bob", "", nil)
	if w.Code != http.StatusOK || body["in_fight"] != true {
		t.Fatalf("bob should be in a fight: %d %v", w.Code, body)
	}

	w, body = e.do(http.MethodGet, "/api/fights/"+id+"/replay", "bob", "", nil)
	if w.Code != http.StatusOK || body["consistent"] != true {
		t.Fatalf("replay: %d %v", w.Code, body)
	}

	if w, _ = e.do(http.MethodPost, "/api/fights/"+id+"/forfeit", "bob", "", nil); w.Code != http.StatusOK {
		t.Fatalf("forfeit: %d %s", w.Code, w.Body.String())
	}
	w, body = e.do(http.MethodPost, "/api/fights/"+id+"/forfeit", "bob", "", nil)
	if w.Code != http.StatusConflict || body["code"] != service.ErrFightForfeited.Code {
		t.Fatalf("second forfeit: %d %v", w.Code, body)
	}

	w, body = e.do(http.MethodGet, "/api/actors/alice/fights", "bob", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("history: %d", w.Code)
	}
	if fights, _ := body["fights"].([]interface{}); len(fights) != 1 {
		t.Fatalf("expected one fight in history, got %v", body["fights"])
	}
}

func TestRouter_AuthAndErrors(t *testing.T) {
	e := newAPIEnv(t)

	if w, _ := e.do(http.MethodGet, "/api/fights/x", "", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("missing token should be 401, got %d", w.Code)
	}
	w, body := e.do(http.MethodGet, "/api/fights/missing", "alice", "", nil)
	if w.Code != http.StatusNotFound || body["code"] != service.ErrFightNotFound.Code {
		t.Fatalf("unknown fight: %d %v", w.Code, body)
	}
	w, body = e.do(http.MethodPost, "/api/fights", "ghost", "", ChallengePayload{TargetID: "bob"})
	if w.Code != http.StatusForbidden || body["code"] != service.ErrAccountRestricted.Code {
		t.Fatalf("unregistered actor should be gated: %d %v", w.Code, body)
	}
	if w, _ = e.do(http.MethodPost, "/api/admin/fights/x/expire", "alice", "", nil); w.Code != http.StatusForbidden {
		t.Fatalf("non-admin expire should be 403, got %d", w.Code)
	}
	w, body = e.do(http.MethodPost, "/api/admin/fights/x/expire", "root", "admin", nil)
	if w.Code != http.StatusNotFound || body["code"] != service.ErrFightNotFound.Code {
		t.Fatalf("admin expire of unknown fight: %d %v", w.Code, body)
	}
	if w, _ = e.do(http.MethodGet, "/healthz", "", "", nil); w.Code != http.StatusOK {
		t.Fatalf("healthz: %d", w.Code)
	}
}

func TestRouter_HidesOpponentPendingMove(t *testing.T) {
	e := newAPIEnv(t)
	for _, actor := range []string{"alice", "bob", "mallory"} {
		if w, _ := e.do(http.MethodPut, "/api/actors/me", actor, "", ProfilePayload{}); w.Code != http.StatusOK {
			t.Fatalf("register %s: %d %s", actor, w.Code, w.Body.String())
		}
	}
	_, body := e.do(http.MethodPost, "/api/fights", "alice", "", ChallengePayload{TargetID: "bob"})
	id, _ := body["fight_id"].(string)
	if w, _ := e.do(http.MethodPost, "/api/fights/"+id+"/accept", "bob", "", nil); w.Code != http.StatusOK {
		t.Fatalf("accept: %d %s", w.Code, w.Body.String())
	}

	w, body := e.do(http.MethodPost, "/api/fights/"+id+"/move", "alice", "", MovePayload{Move: game.MoveCrit})
	if w.Code != http.StatusOK {
		t.Fatalf("move: %d %s", w.Code, w.Body.String())
	}
	if body["p1_pending_move"] != string(game.MoveCrit) || body["p1_move_submitted"] != true {
		t.Fatalf("alice should see her own move: %v", body)
	}

	w, body = e.do(http.MethodGet, "/api/fights/"+id, "bob", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get: %d %s", w.Code, w.Body.String())
	}
	if _, ok := body["p1_pending_move"]; ok {
		t.Fatalf("bob must not see alice's move: %v", body["p1_pending_move"])
	}
	if body["p1_move_submitted"] != true || body["p2_move_submitted"] != false {
		t.Fatalf("submitted flags: p1=%v p2=%v", body["p1_move_submitted"], body["p2_move_submitted"])
	}

	w, body = e.do(http.MethodGet, "/api/actors/me/fight", "bob", "", nil)
	fight, _ := body["fight"].(map[string]interface{})
	if w.Code != http.StatusOK || fight == nil {
		t.Fatalf("my fight: %d %v", w.Code, body)
	}
	if _, ok := fight["p1_pending_move"]; ok {
		t.Fatalf("my fight leaks alice's move: %v", fight)
	}

	w, body = e.do(http.MethodGet, "/api/actors/alice/fights", "mallory", "", nil)
	fights, _ := body["fights"].([]interface{})
	if w.Code != http.StatusOK || len(fights) != 1 {
		t.Fatalf("history: %d %v", w.Code, body)
	}
	if _, ok := fights[0].(map[string]interface{})["p1_pending_move"]; ok {
		t.Fatalf("history leaks alice's move to a third party")
	}

	w, body = e.do(http.MethodGet, "/api/fights/"+id, "mallory", "", nil)
	if w.Code != http.StatusForbidden || body["code"] != service.ErrNotParticipant.Code {
		t.Fatalf("non-participant read: %d %v", w.Code, body)
	}
	w, body = e.do(http.MethodGet, "/api/fights/"+id, "root", "admin", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("admin read: %d %v", w.Code, body)
	}
	if _, ok := body["p1_pending_move"]; ok {
		t.Fatalf("admin view should not carry pending moves: %v", body)
	}
}
