// Package config loads the repository's vault list from .git-vault.toml
// (spec §6, an ambient CLI-layer concern — the controller itself only ever
// takes a vault path, never a config file).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pelletier/go-toml/v2"
)

// Config is the parsed contents of .git-vault.toml.
type Config struct {
	Vaults   []VaultConfig
	LogLevel string
	Warnings []string
}

// VaultConfig names one directory the repository treats as a vault.
type VaultConfig struct {
	Path string
}

// FileName is the config file's name at the repository root.
const FileName = ".git-vault.toml"

// Load reads and parses repoRoot/.git-vault.toml. A missing file is not an
// error: it yields an empty Config, since a repository may manage its
// vaults purely via explicit CLI paths.
func Load(repoRoot string) (*Config, error) {
	data, err := os.ReadFile(filepath.Join(repoRoot, FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", FileName, err)
	}

	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", FileName, err)
	}

	return parseRaw(raw), nil
}

// parseRaw converts the untyped TOML document into a Config, collecting a
// warning for every key it does not recognize rather than failing outright
// — an unrecognized key is usually a typo or a newer config the running
// binary predates, not a reason to refuse to unlock a vault.
func parseRaw(raw map[string]any) *Config {
	cfg := &Config{}

	for section, value := range raw {
		switch section {
		case "vaults":
			arr, ok := value.([]any)
			if !ok {
				cfg.Warnings = append(cfg.Warnings, "vaults: expected an array of tables")
				continue
			}
			for _, item := range arr {
				m, ok := item.(map[string]any)
				if !ok {
					cfg.Warnings = append(cfg.Warnings, "vaults: each entry must be a table")
					continue
				}
				vc, warnings := parseVaultEntry(m)
				cfg.Vaults = append(cfg.Vaults, vc)
				cfg.Warnings = append(cfg.Warnings, warnings...)
			}
		case "log":
			m, ok := value.(map[string]any)
			if !ok {
				cfg.Warnings = append(cfg.Warnings, "log: expected a table")
				continue
			}
			for k, v := range m {
				switch k {
				case "level":
					if s, ok := v.(string); ok {
						cfg.LogLevel = s
					}
				default:
					cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("unknown key in [log]: %s", k))
				}
			}
		default:
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("unknown section: %s", section))
		}
	}

	sort.Strings(cfg.Warnings)
	return cfg
}

func parseVaultEntry(m map[string]any) (VaultConfig, []string) {
	var vc VaultConfig
	var warnings []string
	for k, v := range m {
		switch k {
		case "path":
			if s, ok := v.(string); ok {
				vc.Path = s
			}
		default:
			warnings = append(warnings, fmt.Sprintf("unknown key in [[vaults]]: %s", k))
		}
	}
	return vc, warnings
}
