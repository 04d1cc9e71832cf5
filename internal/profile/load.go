package profile

import (
	"fmt"

	"github.com/KaramelBytes/statloom-cli/internal/utils"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Load reads a profile from a YAML (or any viper-supported) file and validates it.
// missing_markers, key_column and cardinality fall back to the Default values.
func Load(path string) (*Profile, error) {
	def := Default()
	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("missing_markers", def.MissingMarkers)
	v.SetDefault("key_column", def.KeyColumn)
	v.SetDefault("cardinality.min", def.Cardinality.Min)
	v.SetDefault("cardinality.max", def.Cardinality.Max)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	var p Profile
	if err := v.Unmarshal(&p); err != nil {
		return nil, fmt.Errorf("unmarshal profile: %w", err)
	}
	if p.Name == "" {
		p.Name = path
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Resolve returns the profile at path, or Default when path is empty.
func Resolve(path string) (*Profile, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Save writes the profile as YAML.
func Save(p *Profile, path string) error {
	b, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	return utils.SafeWriteFile(path, b)
}
