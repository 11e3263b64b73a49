package config

import (
	"fmt"
	"io"
	"os"
	"slowpoke/internal/core"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix marks the environment variables read by Load.
	EnvPrefix = "SLOWPOKE_"

	maxConfigFileSize = 1024 * 1024 // 1MB
)

// Load reads configuration from the YAML file at path, then applies
// environment overrides, defaults and validation. An empty path skips the
// file.
//
// Environment variables drop the prefix and split on the first underscore:
//
//	SLOWPOKE_JOURNAL_DRIVER    -> journal.driver
//	SLOWPOKE_ROBOT_LOCK_PATH   -> robot.lock_path
//	SLOWPOKE_BLOB_S3_BUCKET    -> blob.s3.bucket
//
// Workflow overrides live under workflows.<name> in the file and are merged
// onto the built-in profile of the same name.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		content, err := readFile(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	profiles, err := mergeProfiles(k)
	if err != nil {
		return nil, err
	}
	cfg.profiles = profiles
	return &cfg, nil
}

func readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("config path %s is a directory", path)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file %s exceeds %d bytes", path, maxConfigFileSize)
	}
	return io.ReadAll(f)
}

func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	section, field := parts[0], parts[1]
	if section == "blob" && strings.HasPrefix(field, "s3_") {
		return "blob.s3." + strings.TrimPrefix(field, "s3_")
	}
	return section + "." + field
}

// mergeProfiles overlays workflows.<name> onto the built-in profiles. A name
// with no built-in profile defines a new workflow and must set kind; it
// starts from the base profile of that kind.
func mergeProfiles(k *koanf.Koanf) ([]core.Profile, error) {
	defaults := core.DefaultProfiles()
	known := make(map[string]bool, len(defaults))
	out := make([]core.Profile, 0, len(defaults))
	for _, p := range defaults {
		known[p.Name] = true
		merged := p.Clone()
		if err := overlay(k, p.Name, &merged); err != nil {
			return nil, err
		}
		merged.Name = p.Name
		out = append(out, merged)
	}

	for _, name := range k.MapKeys("workflows") {
		if known[name] {
			continue
		}
		kind := core.WorkflowKind(k.String("workflows." + name + ".kind"))
		var base core.Profile
		switch kind {
		case core.KindGoldenGate:
			base = core.GoldenGateProfile()
		case core.KindColonyPCR:
			base = core.ColonyPCRProfile()
		default:
			return nil, fmt.Errorf("workflows.%s: kind %q is not one of %s, %s", name, kind, core.KindGoldenGate, core.KindColonyPCR)
		}
		base.Description = ""
		if err := overlay(k, name, &base); err != nil {
			return nil, err
		}
		base.Name = name
		out = append(out, base)
	}
	return out, nil
}

func overlay(k *koanf.Koanf, name string, p *core.Profile) error {
	key := "workflows." + name
	if !k.Exists(key) {
		return nil
	}
	if err := k.Unmarshal(key, p); err != nil {
		return fmt.Errorf("workflows.%s: %w", name, err)
	}
	return nil
}

// Profiles returns the workflow profiles with overrides applied.
func (c *Config) Profiles() []core.Profile {
	if c.profiles == nil {
		return core.DefaultProfiles()
	}
	out := make([]core.Profile, len(c.profiles))
	for i, p := range c.profiles {
		out[i] = p.Clone()
	}
	return out
}

// Registry builds the workflow registry from Profiles.
func (c *Config) Registry() (*core.WorkflowRegistry, error) {
	return core.NewRegistryFromProfiles(c.Profiles()...)
}
