// Package config loads the server and bot settings with viper: defaults first, then an
// optional JSON/YAML file, then JUNQI_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"junqi/internal/engine"
	"junqi/internal/junqi"
)

const envPrefix = "JUNQI"

type Config struct {
	Server  Server         `mapstructure:"server" json:"server"`
	Log     Log            `mapstructure:"log" json:"log"`
	Search  Search         `mapstructure:"search" json:"search"`
	Weights engine.Weights `mapstructure:"weights" json:"weights"`
	Bots    Bots           `mapstructure:"bots" json:"bots"`
	Store   Store          `mapstructure:"store" json:"store"`
	Game    Game           `mapstructure:"game" json:"game"`
}

type Server struct {
	Addr   string `mapstructure:"addr" json:"addr"`
	WebDir string `mapstructure:"webDir" json:"webDir"`
	// 人类走完后由服务端接着让机器人走
	AutoBots    bool `mapstructure:"autoBots" json:"autoBots"`
	OpenBrowser bool `mapstructure:"openBrowser" json:"openBrowser"`
}

type Log struct {
	Level  string `mapstructure:"level" json:"level"`
	Pretty bool   `mapstructure:"pretty" json:"pretty"`
}

// Search 搜索参数；时间预算在配置里用毫秒写。
type Search struct {
	engine.SearchConfig `mapstructure:",squash"`
	TimeLimitMs         int `mapstructure:"timeLimitMs" json:"timeLimitMs"`
}

// Engine converts the settings into the engine's own struct.
func (s Search) Engine() engine.SearchConfig {
	c := s.SearchConfig
	c.TimeLimit = time.Duration(s.TimeLimitMs) * time.Millisecond
	return c
}

type Bots struct {
	Seats  []string          `mapstructure:"seats" json:"seats"`
	Styles map[string]string `mapstructure:"styles" json:"styles"`
	TopN   int               `mapstructure:"topN" json:"topN"`
}

// SeatList 解析机器人座位。
func (b Bots) SeatList() ([]junqi.Seat, error) {
	var out []junqi.Seat
	for _, name := range b.Seats {
		s, ok := junqi.ParseSeat(name)
		if !ok || !s.Valid() {
			return nil, fmt.Errorf("bots.seats: unknown seat %q", name)
		}
		out = append(out, s)
	}
	return out, nil
}

// StyleMap 解析每个座位的根节点风格。
func (b Bots) StyleMap() (map[junqi.Seat]engine.Category, error) {
	out := make(map[junqi.Seat]engine.Category, len(b.Styles))
	for name, style := range b.Styles {
		s, ok := junqi.ParseSeat(name)
		if !ok || !s.Valid() {
			return nil, fmt.Errorf("bots.styles: unknown seat %q", name)
		}
		c, err := engine.ParseCategory(style)
		if err != nil {
			return nil, fmt.Errorf("bots.styles.%s: %w", name, err)
		}
		out[s] = c
	}
	return out, nil
}

type Store struct {
	Driver string `mapstructure:"driver" json:"driver"`
	DSN    string `mapstructure:"dsn" json:"dsn"`
}

type Game struct {
	// 0 表示按时间取种子
	Seed uint64 `mapstructure:"seed" json:"seed"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.webDir", "")
	v.SetDefault("server.autoBots", true)
	v.SetDefault("server.openBrowser", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	sc := engine.DefaultSearchConfig()
	v.SetDefault("search.depth", sc.Depth)
	v.SetDefault("search.beamWidth", sc.BeamWidth)
	v.SetDefault("search.discount", sc.Discount)
	v.SetDefault("search.timeLimitMs", sc.TimeLimit.Milliseconds())
	v.SetDefault("search.alphaBeta", sc.AlphaBeta)
	v.SetDefault("search.styleFirstPly", sc.StyleFirstPly)
	v.SetDefault("search.workers", sc.Workers)

	w := engine.DefaultWeights()
	v.SetDefault("weights.attack", w.Attack)
	v.SetDefault("weights.positional", w.Positional)
	v.SetDefault("weights.risk", w.Risk)
	v.SetDefault("weights.mobility", w.Mobility)
	v.SetDefault("weights.info", w.Info)
	v.SetDefault("weights.defense", w.Defense)
	v.SetDefault("weights.defenseThreatened", w.DefenseThreatened)
	v.SetDefault("weights.escort", w.Escort)
	v.SetDefault("weights.fakeEscort", w.FakeEscort)
	v.SetDefault("weights.bombCover", w.BombCover)
	v.SetDefault("weights.bombTrap", w.BombTrap)
	v.SetDefault("weights.feint", w.Feint)
	v.SetDefault("weights.openingFront", w.OpeningFront)
	v.SetDefault("weights.openingBackMine", w.OpeningBackMine)
	v.SetDefault("weights.openingBackDig", w.OpeningBackDig)
	v.SetDefault("weights.counterAttack", w.CounterAttack)

	v.SetDefault("bots.seats", []string{"west", "north", "east"})
	v.SetDefault("bots.styles", map[string]string{})
	v.SetDefault("bots.topN", 10)

	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.dsn", "junqi.db")

	v.SetDefault("game.seed", 0)
}

// Load reads the configuration. An empty path means defaults plus environment only;
// a named file that cannot be read is an error.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate 检查取值范围之外的配置。
func (c Config) Validate() error {
	switch c.Store.Driver {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("store.driver: unsupported %q", c.Store.Driver)
	}
	if _, err := c.Bots.SeatList(); err != nil {
		return err
	}
	if _, err := c.Bots.StyleMap(); err != nil {
		return err
	}
	if c.Search.Depth < 1 {
		return fmt.Errorf("search.depth must be positive, got %d", c.Search.Depth)
	}
	return nil
}
