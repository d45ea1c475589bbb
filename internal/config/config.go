package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ericogr/duel-arena/internal/constants"
	"github.com/ericogr/duel-arena/internal/engine"
	"github.com/ericogr/duel-arena/internal/game"

	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Log      LogConfig      `koanf:"log"`
	Auth     AuthConfig     `koanf:"auth"`
	Audit    AuditConfig    `koanf:"audit"`
	Tracing  TracingConfig  `koanf:"tracing"`
	Combat   CombatConfig   `koanf:"combat"`
	Loadout  LoadoutConfig  `koanf:"loadout"`
}

type ServerConfig struct {
	Address string `koanf:"address"`
}

type DatabaseConfig struct {
	Driver string `koanf:"driver"` // sqlite, postgres
	DSN    string `koanf:"dsn"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json, console
}

type AuthConfig struct {
	JWTSecret string `koanf:"jwt_secret"`
}

type AuditConfig struct {
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	MaxEvents     int64  `koanf:"max_events"`
}

type TracingConfig struct {
	Enabled     bool   `koanf:"enabled"`
	ServiceName string `koanf:"service_name"`
}

// CombatConfig holds both the engine rules and the coordinator policy.
type CombatConfig struct {
	MinDamage               int     `koanf:"min_damage"`
	CritChance              float64 `koanf:"crit_chance"`
	CritMultiplier          float64 `koanf:"crit_multiplier"`
	CritFailMultiplier      float64 `koanf:"crit_fail_multiplier"`
	BlockChance             float64 `koanf:"block_chance"`
	BlockReduction          float64 `koanf:"block_reduction"`
	ShieldBlockReduction    float64 `koanf:"shield_block_reduction"`
	BlockerDamageMultiplier float64 `koanf:"blocker_damage_multiplier"`

	RoundTimeout       time.Duration `koanf:"round_timeout"`
	ChallengeTTL       time.Duration `koanf:"challenge_ttl"`
	TimeoutDefaultMove string        `koanf:"timeout_default_move"`
	MaxIdleRounds      int           `koanf:"max_idle_rounds"`
	SweepInterval      time.Duration `koanf:"sweep_interval"`
	IdleActiveTimeout  time.Duration `koanf:"idle_active_timeout"`
}

// Rules converts the configured constants into engine rules.
func (c CombatConfig) Rules() engine.Rules {
	return engine.Rules{
		MinDamage:               c.MinDamage,
		CritChance:              c.CritChance,
		CritMultiplier:          c.CritMultiplier,
		CritFailMultiplier:      c.CritFailMultiplier,
		BlockChance:             c.BlockChance,
		BlockReduction:          c.BlockReduction,
		ShieldBlockReduction:    c.ShieldBlockReduction,
		BlockerDamageMultiplier: c.BlockerDamageMultiplier,
	}
}

type StatsConfig struct {
	Attack  int `koanf:"attack"`
	Defense int `koanf:"defense"`
	MaxHP   int `koanf:"max_hp"`
}

type ItemConfig struct {
	Key     string `koanf:"key"`
	Name    string `koanf:"name"`
	Attack  int    `koanf:"attack"`
	Defense int    `koanf:"defense"`
	MaxHP   int    `koanf:"max_hp"`
	Shield  bool   `koanf:"shield"`
}

type LoadoutConfig struct {
	Base  StatsConfig  `koanf:"base"`
	Items []ItemConfig `koanf:"items"`
}

func defaults(k *koanf.Koanf) {
	rules := engine.DefaultRules()
	d := map[string]interface{}{
		"server.address":                   ":8080",
		"database.driver":                  "sqlite",
		"database.dsn":                     constants.DefaultDBPath,
		"log.level":                        "info",
		"log.format":                       "json",
		"audit.max_events":                 200,
		"tracing.service_name":             "duel-arena",
		"combat.min_damage":                rules.MinDamage,
		"combat.crit_chance":               rules.CritChance,
		"combat.crit_multiplier":           rules.CritMultiplier,
		"combat.crit_fail_multiplier":      rules.CritFailMultiplier,
		"combat.block_chance":              rules.BlockChance,
		"combat.block_reduction":           rules.BlockReduction,
		"combat.shield_block_reduction":    rules.ShieldBlockReduction,
		"combat.blocker_damage_multiplier": rules.BlockerDamageMultiplier,
		"combat.round_timeout":             "60s",
		"combat.challenge_ttl":             "5m",
		"combat.timeout_default_move":      string(game.MoveBlock),
		"combat.max_idle_rounds":           3,
		"combat.sweep_interval":            "0s",
		"combat.idle_active_timeout":       "30m",
		"loadout.base.attack":              5,
		"loadout.base.defense":             2,
		"loadout.base.max_hp":              50,
	}
	for key, v := range d {
		if !k.Exists(key) {
			_ = k.Set(key, v)
		}
	}
}

// Load reads the YAML file at path (a missing file is fine), overlays
// ARENA_* environment variables, applies defaults and validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	// ARENA_COMBAT__ROUND_TIMEOUT -> combat.round_timeout
	if err := k.Load(env.Provider(constants.EnvPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, constants.EnvPrefix)), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	defaults(k)

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate enforces cross-field constraints.
func (c *Config) Validate() error {
	cc := c.Combat
	if cc.MinDamage < 1 {
		return fmt.Errorf("combat.min_damage must be at least 1")
	}
	probs := map[string]float64{
		"crit_chance":            cc.CritChance,
		"block_chance":           cc.BlockChance,
		"block_reduction":        cc.BlockReduction,
		"shield_block_reduction": cc.ShieldBlockReduction,
	}
	for name, p := range probs {
		if p < 0 || p > 1 {
			return fmt.Errorf("combat.%s must be within [0,1], got %v", name, p)
		}
	}
	if cc.CritMultiplier < 1 || cc.CritFailMultiplier < 0 || cc.BlockerDamageMultiplier < 0 {
		return fmt.Errorf("combat multipliers out of range")
	}
	if cc.RoundTimeout <= 0 || cc.ChallengeTTL <= 0 {
		return fmt.Errorf("combat.round_timeout and combat.challenge_ttl must be positive")
	}
	if !game.Move(cc.TimeoutDefaultMove).Valid() {
		return fmt.Errorf("combat.timeout_default_move %q is not a valid move", cc.TimeoutDefaultMove)
	}
	if cc.MaxIdleRounds < 0 || cc.SweepInterval < 0 || cc.IdleActiveTimeout < 0 {
		return fmt.Errorf("combat idle settings must not be negative")
	}

	b := c.Loadout.Base
	if b.Attack < 0 || b.Defense < 0 || b.MaxHP < 1 {
		return fmt.Errorf("loadout.base needs non-negative attack/defense and max_hp >= 1")
	}
	keys := make(map[string]struct{}, len(c.Loadout.Items))
	for _, it := range c.Loadout.Items {
		key := strings.ToLower(strings.TrimSpace(it.Key))
		if key == "" {
			return fmt.Errorf("loadout item missing 'key'")
		}
		if _, dup := keys[key]; dup {
			return fmt.Errorf("duplicate loadout item key '%s'", it.Key)
		}
		keys[key] = struct{}{}
		if it.Attack < 0 || it.Defense < 0 || it.MaxHP < 0 {
			return fmt.Errorf("loadout item '%s' has negative stats", it.Key)
		}
	}

	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("database.driver %q is not supported", c.Database.Driver)
	}
	return nil
}
