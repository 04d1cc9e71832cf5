package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Worker pool size; 0 means GOMAXPROCS.
	Workers int `mapstructure:"workers" yaml:"workers"`
	// Record Set partitions; 0 means twice the workers.
	Partitions int `mapstructure:"partitions" yaml:"partitions"`
	// Dataset profile YAML; empty selects the built-in happiness-2015 profile.
	ProfilePath string `mapstructure:"profile" yaml:"profile"`
	Format      string `mapstructure:"format" yaml:"format"`
	HeadRows    int    `mapstructure:"head_rows" yaml:"head_rows"`
	// CSV delimiter: a single character or "tab"; empty sniffs by extension.
	Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
}

// Dir returns ~/.statloom.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".statloom"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.statloom/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (applied by the caller) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("STATLOOM")
	v.AutomaticEnv()

	v.SetDefault("workers", 0)
	v.SetDefault("partitions", 0)
	v.SetDefault("profile", "")
	v.SetDefault("format", "text")
	v.SetDefault("head_rows", 5)
	v.SetDefault("delimiter", "")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// optional read
		_ = v.ReadInConfig()
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.Workers < 0 || c.Partitions < 0 {
		return nil, fmt.Errorf("workers and partitions must not be negative (got %d, %d)", c.Workers, c.Partitions)
	}
	return &c, nil
}

// DelimiterRune parses a delimiter setting. Empty means auto-detect (0).
func DelimiterRune(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "":
		return 0, nil
	case "tab", `\t`:
		return '\t', nil
	case "comma":
		return ',', nil
	case "semicolon":
		return ';', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if size != len(s) || r == utf8.RuneError || r == '"' || r == '\n' || r == '\r' {
		return 0, fmt.Errorf("invalid delimiter %q: use a single character or tab", s)
	}
	return r, nil
}
