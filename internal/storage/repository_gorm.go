package storage

import (
	"context"
	"errors"
	"time"

	"github.com/ericogr/duel-arena/internal/game"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gormStore struct {
	db *gorm.DB
}

// NewGormStore returns a FightStore backed by db.
func NewGormStore(db *gorm.DB) FightStore {
	return &gormStore{db: db}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func pendingMoveColumn(slot int) string {
	if slot == 1 {
		return "p1_pending_move"
	}
	return "p2_pending_move"
}

func (r *gormStore) UpsertProfile(ctx context.Context, actorID string, equipment []string) (*game.Profile, error) {
	p := game.Profile{ID: actorID, Equipment: game.StringList(equipment)}
	// Only equipment is ever overwritten; the lock and counters belong to
	// fight transitions.
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"equipment", "updated_at"}),
	}).Create(&p).Error
	if err != nil {
		return nil, err
	}
	return r.GetProfile(ctx, actorID)
}

func (r *gormStore) GetProfile(ctx context.Context, actorID string) (*game.Profile, error) {
	var p game.Profile
	if err := r.db.WithContext(ctx).Where("id = ?", actorID).First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *gormStore) CreatePendingFight(ctx context.Context, f *game.Fight) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var profiles []game.Profile
		if err := tx.Where("id IN ?", []string{f.P1ID, f.P2ID}).Find(&profiles).Error; err != nil {
			return err
		}
		if len(profiles) != 2 {
			return ErrNotFound
		}
		for i := range profiles {
			if profiles[i].IsFighting {
				return ErrLockHeld
			}
		}

		res := tx.Model(&game.Profile{}).
			Where("id = ? AND is_fighting = ?", f.P1ID, false).
			Updates(map[string]interface{}{"is_fighting": true, "active_fight_id": f.ID})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrLockHeld
		}
		return tx.Create(f).Error
	})
}

func (r *gormStore) GetFight(ctx context.Context, id string) (*game.Fight, error) {
	return getFight(r.db.WithContext(ctx), id)
}

func getFight(tx *gorm.DB, id string) (*game.Fight, error) {
	var f game.Fight
	if err := tx.Where("id = ?", id).First(&f).Error; err != nil {
		return nil, notFound(err)
	}
	return &f, nil
}

func (r *gormStore) FindOpenFights(ctx context.Context, actorID string) ([]game.Fight, error) {
	var fights []game.Fight
	err := r.db.WithContext(ctx).
		Where("(p1_id = ? OR p2_id = ?) AND status IN ?", actorID, actorID, []game.FightStatus{game.StatusPending, game.StatusActive}).
		Order("created_at desc").
		Find(&fights).Error
	if err != nil {
		return nil, err
	}
	return fights, nil
}

// ListFights returns the actor's fights, newest first.
func (r *gormStore) ListFights(ctx context.Context, actorID string, limit int) ([]game.Fight, error) {
	if limit <= 0 {
		limit = 20
	}
	var fights []game.Fight
	err := r.db.WithContext(ctx).
		Where("p1_id = ? OR p2_id = ?", actorID, actorID).
		Order("created_at desc").
		Limit(limit).
		Find(&fights).Error
	if err != nil {
		return nil, err
	}
	return fights, nil
}

func (r *gormStore) ActivateFight(ctx context.Context, id string, p1, p2 game.CombatStats, rules game.CombatRules, now time.Time) (*game.Fight, error) {
	var out *game.Fight
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		f, err := getFight(tx, id)
		if err != nil {
			return err
		}
		res := tx.Model(&game.Fight{}).
			Where("id = ? AND status = ? AND expires_at > ?", id, game.StatusPending, now).
			Updates(map[string]interface{}{
				"status":         game.StatusActive,
				"p1_attack":      p1.Attack,
				"p1_defense":     p1.Defense,
				"p1_max_hp":      p1.MaxHP,
				"p1_has_shield":  p1.HasShield,
				"p2_attack":      p2.Attack,
				"p2_defense":     p2.Defense,
				"p2_max_hp":      p2.MaxHP,
				"p2_has_shield":  p2.HasShield,
				"p1_hp":          p1.MaxHP,
				"p2_hp":          p2.MaxHP,
				"rules":          rules,
				"current_round":  1,
				"last_action_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}

		lock := tx.Model(&game.Profile{}).
			Where("id = ? AND is_fighting = ?", f.P2ID, false).
			Updates(map[string]interface{}{"is_fighting": true, "active_fight_id": id})
		if lock.Error != nil {
			return lock.Error
		}
		if lock.RowsAffected == 0 {
			return ErrLockHeld
		}

		out, err = getFight(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *gormStore) RecordMove(ctx context.Context, id string, slot, round int, move game.Move, now time.Time) (*game.Fight, error) {
	var out *game.Fight
	col := pendingMoveColumn(slot)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&game.Fight{}).
			Where("id = ? AND status = ? AND current_round = ? AND "+col+" IS NULL", id, game.StatusActive, round).
			Updates(map[string]interface{}{col: move, "last_action_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}
		var err error
		out, err = getFight(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// slotCondition matches a pending-move column against an observed value.
func slotCondition(tx *gorm.DB, col string, observed *game.Move) *gorm.DB {
	if observed == nil {
		return tx.Where(col + " IS NULL")
	}
	return tx.Where(col+" = ?", *observed)
}

func (r *gormStore) ResolveRound(ctx context.Context, rr Resolution) (*game.Fight, error) {
	var out *game.Fight
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		f, err := getFight(tx, rr.FightID)
		if err != nil {
			return err
		}
		if f.Status != game.StatusActive || f.CurrentRound != rr.Round {
			return ErrConflict
		}

		rounds := make(game.RoundLog, 0, len(f.Rounds)+1)
		rounds = append(rounds, f.Rounds...)
		rounds = append(rounds, rr.Outcome)

		updates := map[string]interface{}{
			"p1_hp":           rr.Outcome.P1HPAfter,
			"p2_hp":           rr.Outcome.P2HPAfter,
			"current_round":   rr.Round + 1,
			"p1_pending_move": nil,
			"p2_pending_move": nil,
			"rounds":          rounds,
			"last_action_at":  rr.Now,
		}
		if rr.Terminal != nil {
			applyTerminal(updates, *rr.Terminal, rr.Now)
		}

		q := tx.Model(&game.Fight{}).Where("id = ? AND status = ? AND current_round = ?", rr.FightID, game.StatusActive, rr.Round)
		q = slotCondition(q, "p1_pending_move", rr.ObservedP1)
		q = slotCondition(q, "p2_pending_move", rr.ObservedP2)
		res := q.Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}

		if rr.Terminal != nil {
			if err := releaseAndRecord(tx, f, *rr.Terminal); err != nil {
				return err
			}
		}
		out, err = getFight(tx, rr.FightID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *gormStore) FinishFight(ctx context.Context, id string, from []game.FightStatus, t Terminal, now time.Time) (*game.Fight, error) {
	var out *game.Fight
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		f, err := getFight(tx, id)
		if err != nil {
			return err
		}
		updates := map[string]interface{}{}
		applyTerminal(updates, t, now)
		res := tx.Model(&game.Fight{}).Where("id = ? AND status IN ?", id, from).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}
		if err := releaseAndRecord(tx, f, t); err != nil {
			return err
		}
		out, err = getFight(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func applyTerminal(updates map[string]interface{}, t Terminal, now time.Time) {
	updates["status"] = t.Status
	updates["finished_at"] = now
	updates["p1_pending_move"] = nil
	updates["p2_pending_move"] = nil
	if t.WinnerID != "" {
		updates["winner_id"] = t.WinnerID
	}
}

// releaseAndRecord clears every lock still pointing at f and bumps the
// win/loss counters. It must run inside the transaction that set the
// terminal status.
func releaseAndRecord(tx *gorm.DB, f *game.Fight, t Terminal) error {
	err := tx.Model(&game.Profile{}).
		Where("id IN ? AND active_fight_id = ?", []string{f.P1ID, f.P2ID}, f.ID).
		Updates(map[string]interface{}{"is_fighting": false, "active_fight_id": nil}).Error
	if err != nil {
		return err
	}
	if t.WinnerID == "" {
		return nil
	}
	if err := tx.Model(&game.Profile{}).Where("id = ?", t.WinnerID).
		UpdateColumn("wins", gorm.Expr("wins + 1")).Error; err != nil {
		return err
	}
	loser := map[string]interface{}{"losses": gorm.Expr("losses + 1")}
	if t.Forfeit {
		loser["forfeits"] = gorm.Expr("forfeits + 1")
	}
	return tx.Model(&game.Profile{}).Where("id = ?", t.LoserID).UpdateColumns(loser).Error
}

func (r *gormStore) FindStaleFights(ctx context.Context, now, idleBefore time.Time, limit int) ([]game.Fight, error) {
	if limit <= 0 {
		limit = 50
	}
	q := r.db.WithContext(ctx).Where("status = ? AND expires_at <= ?", game.StatusPending, now)
	if !idleBefore.IsZero() {
		q = q.Or("status = ? AND last_action_at <= ?", game.StatusActive, idleBefore)
	}
	var fights []game.Fight
	if err := q.Order("created_at asc").Limit(limit).Find(&fights).Error; err != nil {
		return nil, err
	}
	return fights, nil
}
