// Package loadout aggregates an actor's equipped items into the combat
// stats snapshotted when a fight is accepted.
package loadout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ericogr/duel-arena/internal/config"
	"github.com/ericogr/duel-arena/internal/game"
	"github.com/ericogr/duel-arena/internal/logging"
	"github.com/ericogr/duel-arena/internal/storage"
)

// ErrUnknownProfile is returned when the actor has no profile to read
// equipment from.
var ErrUnknownProfile = errors.New("profile not found")

// Item is one equippable piece of gear.
type Item struct {
	Key     string
	Name    string
	Attack  int
	Defense int
	MaxHP   int
	Shield  bool
}

// Catalog indexes items by lower-cased key.
type Catalog struct {
	base  game.CombatStats
	items map[string]Item
}

// NewCatalog builds a catalog from the loaded configuration.
func NewCatalog(cfg config.LoadoutConfig) *Catalog {
	c := &Catalog{
		base: game.CombatStats{
			Attack:  cfg.Base.Attack,
			Defense: cfg.Base.Defense,
			MaxHP:   cfg.Base.MaxHP,
		},
		items: make(map[string]Item, len(cfg.Items)),
	}
	for _, it := range cfg.Items {
		key := normalize(it.Key)
		c.items[key] = Item{
			Key:     key,
			Name:    it.Name,
			Attack:  it.Attack,
			Defense: it.Defense,
			MaxHP:   it.MaxHP,
			Shield:  it.Shield,
		}
	}
	return c
}

func normalize(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// Lookup returns the item for key.
func (c *Catalog) Lookup(key string) (Item, bool) {
	it, ok := c.items[normalize(key)]
	return it, ok
}

// Stats folds the equipped keys over the base stats. Unknown keys are
// skipped and duplicates count once.
func (c *Catalog) Stats(equipped []string) game.CombatStats {
	out := c.base
	seen := make(map[string]struct{}, len(equipped))
	for _, raw := range equipped {
		key := normalize(raw)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		it, ok := c.items[key]
		if !ok {
			logging.Debug("ignoring unknown equipment key", logging.Fields{"key": raw})
			continue
		}
		out.Attack += it.Attack
		out.Defense += it.Defense
		out.MaxHP += it.MaxHP
		out.HasShield = out.HasShield || it.Shield
	}
	if out.MaxHP < 1 {
		out.MaxHP = 1
	}
	return out
}

// ProfileReader is the subset of the fight store the aggregator needs.
type ProfileReader interface {
	GetProfile(ctx context.Context, actorID string) (*game.Profile, error)
}

// Aggregator resolves combat stats for an actor from their stored
// equipment.
type Aggregator struct {
	catalog  *Catalog
	profiles ProfileReader
}

// NewAggregator wires a catalog to a profile source.
func NewAggregator(catalog *Catalog, profiles ProfileReader) *Aggregator {
	return &Aggregator{catalog: catalog, profiles: profiles}
}

// ResolveCombatStats returns the actor's current stats.
func (a *Aggregator) ResolveCombatStats(ctx context.Context, actorID string) (game.CombatStats, error) {
	p, err := a.profiles.GetProfile(ctx, actorID)
	if errors.Is(err, storage.ErrNotFound) {
		return game.CombatStats{}, fmt.Errorf("%w: %s", ErrUnknownProfile, actorID)
	}
	if err != nil {
		return game.CombatStats{}, fmt.Errorf("load profile %s: %w", actorID, err)
	}
	return a.catalog.Stats(p.Equipment), nil
}
