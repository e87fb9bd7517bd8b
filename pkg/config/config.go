// Package config loads session.Settings from a configuration source
// (YAML, TOML, or JSON, anything spf13/viper's codec registry supports),
// mirroring the mapstructure-tagged-struct-plus-viper.Unmarshal pattern
// used throughout marmos91-dittofs/pkg/config. It is a config loader, not
// a CLI: it never touches flags or os.Args.
package config

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/viper"

	"github.com/wolimst/lib-secs2-hsms-go/pkg/session"
)

// raw is the on-disk shape. Every field is optional; unset fields keep
// session.NewSettings' defaults.
type raw struct {
	ConnectMode string        `mapstructure:"connect_mode"`
	T3          time.Duration `mapstructure:"t3"`
	T5          time.Duration `mapstructure:"t5"`
	T6          time.Duration `mapstructure:"t6"`
	T7          time.Duration `mapstructure:"t7"`
	T8          time.Duration `mapstructure:"t8"`
}

// Load reads source in the given viper format ("yaml", "toml", "json",
// ...) and returns the resulting Settings, layered over spec.md §4.7's
// defaults.
func Load(source io.Reader, format string) (session.Settings, error) {
	v := viper.New()
	v.SetConfigType(format)
	if err := v.ReadConfig(source); err != nil {
		return session.Settings{}, fmt.Errorf("config: read: %w", err)
	}

	var r raw
	if err := v.Unmarshal(&r); err != nil {
		return session.Settings{}, fmt.Errorf("config: unmarshal: %w", err)
	}

	opts := []session.Option{}
	if r.ConnectMode != "" {
		mode, err := parseConnectMode(r.ConnectMode)
		if err != nil {
			return session.Settings{}, err
		}
		opts = append(opts, session.WithConnectMode(mode))
	}
	if r.T3 > 0 {
		opts = append(opts, session.WithT3(r.T3))
	}
	if r.T5 > 0 {
		opts = append(opts, session.WithT5(r.T5))
	}
	if r.T6 > 0 {
		opts = append(opts, session.WithT6(r.T6))
	}
	if r.T7 > 0 {
		opts = append(opts, session.WithT7(r.T7))
	}
	if r.T8 > 0 {
		opts = append(opts, session.WithT8(r.T8))
	}

	return session.NewSettings(opts...), nil
}

func parseConnectMode(s string) (session.ConnectMode, error) {
	switch s {
	case "active":
		return session.Active, nil
	case "passive":
		return session.Passive, nil
	default:
		return 0, fmt.Errorf("config: connect_mode must be \"active\" or \"passive\", got %q", s)
	}
}
