// Package config loads docbind CLI configuration from JSONC files.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tailscale/hujson"
)

// Errors returned while loading configuration.
var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrConfigFileRead     = errors.New("cannot read config file")
	ErrConfigInvalid      = errors.New("invalid config file")
	ErrSchemaFileEmpty    = errors.New("schema_file cannot be empty")
	ErrIndentInvalid      = errors.New("indent must be between -1 and 8")
)

// Config holds all configuration options.
type Config struct {
	// From config files (serialized)
	SchemaFile string `json:"schema_file"`
	RootType   string `json:"root_type,omitempty"`
	Indent     *int   `json:"indent,omitempty"`

	// Resolved paths (computed, not serialized)
	EffectiveCwd  string `json:"-"` // Absolute working directory (from -C flag or os.Getwd)
	SchemaFileAbs string `json:"-"` // Absolute path to the schema file

	// Sources tracks which config files were loaded (for diagnostics)
	Sources Sources `json:"-"`
}

// Sources tracks which config files were loaded.
type Sources struct {
	Global  string // Path to global config if loaded, empty otherwise
	Project string // Path to project config if loaded, empty otherwise
}

// DefaultIndent is the indent used when no config sets one.
const DefaultIndent = 2

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	indent := DefaultIndent

	return Config{
		SchemaFile: "schema.jsonc",
		Indent:     &indent,
	}
}

// FileName is the default project config file name.
const FileName = ".docbind.json"

// IndentWidth returns the configured indent.
func (c Config) IndentWidth() int {
	if c.Indent == nil {
		return DefaultIndent
	}

	return *c.Indent
}

// globalConfigPath returns the path to the global config file.
// Uses $XDG_CONFIG_HOME/docbind/config.json if set, otherwise
// ~/.config/docbind/config.json. Returns empty string if home directory cannot
// be determined.
func globalConfigPath(env map[string]string) string {
	if xdgConfig := env["XDG_CONFIG_HOME"]; xdgConfig != "" {
		return filepath.Join(xdgConfig, "docbind", "config.json")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "docbind", "config.json")
	}

	return ""
}

// LoadInput holds the inputs for Load.
type LoadInput struct {
	WorkDirOverride    string            // -C/--cwd flag value; if empty, os.Getwd() is used
	ConfigPath         string            // -c/--config flag value
	SchemaFileOverride string            // --schema flag value; empty means no override
	RootTypeOverride   string            // --type flag value; empty means no override
	Env                map[string]string // environment variables
}

// Load loads configuration with the following precedence (highest wins):
// 1. Defaults
// 2. Global user config (~/.config/docbind/config.json or $XDG_CONFIG_HOME/docbind/config.json)
// 3. Project config file at default location (.docbind.json, if exists)
// 4. Explicit config file via ConfigPath (if non-empty)
// 5. CLI overrides.
//
// All paths in the returned Config are resolved to absolute paths.
func Load(input LoadInput) (Config, error) {
	workDir := input.WorkDirOverride
	if workDir == "" {
		var err error

		workDir, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("cannot get working directory: %w", err)
		}
	}

	cfg := DefaultConfig()

	globalCfg, globalPath, err := loadGlobalConfig(input.Env)
	if err != nil {
		return Config{}, err
	}

	cfg.Sources.Global = globalPath
	cfg = merge(cfg, globalCfg)

	projectCfg, projectPath, err := loadProjectConfig(workDir, input.ConfigPath)
	if err != nil {
		return Config{}, err
	}

	cfg.Sources.Project = projectPath
	cfg = merge(cfg, projectCfg)

	if input.SchemaFileOverride != "" {
		cfg.SchemaFile = input.SchemaFileOverride
	}

	if input.RootTypeOverride != "" {
		cfg.RootType = input.RootTypeOverride
	}

	err = validate(cfg)
	if err != nil {
		return Config{}, err
	}

	cfg.EffectiveCwd = workDir

	if filepath.IsAbs(cfg.SchemaFile) {
		cfg.SchemaFileAbs = cfg.SchemaFile
	} else {
		cfg.SchemaFileAbs = filepath.Join(workDir, cfg.SchemaFile)
	}

	return cfg, nil
}

func loadGlobalConfig(env map[string]string) (Config, string, error) {
	path := globalConfigPath(env)
	if path == "" {
		return Config{}, "", nil
	}

	cfg, explicitEmpty, loaded, err := loadFile(path, false)
	if err != nil {
		return Config{}, "", err
	}

	if !loaded {
		return Config{}, "", nil
	}

	if explicitEmpty["schema_file"] {
		return Config{}, "", fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, ErrSchemaFileEmpty)
	}

	return cfg, path, nil
}

// loadProjectConfig loads the project config file (.docbind.json) or an
// explicit config file.
func loadProjectConfig(workDir, configPath string) (Config, string, error) {
	var (
		cfgFile   string
		mustExist bool
	)

	if configPath != "" {
		cfgFile = configPath
		if !filepath.IsAbs(cfgFile) {
			cfgFile = filepath.Join(workDir, cfgFile)
		}

		mustExist = true

		_, statErr := os.Stat(cfgFile)
		if statErr != nil {
			return Config{}, "", fmt.Errorf("%w: %s", ErrConfigFileNotFound, configPath)
		}
	} else {
		cfgFile = filepath.Join(workDir, FileName)
	}

	cfg, explicitEmpty, loaded, err := loadFile(cfgFile, mustExist)
	if err != nil {
		return Config{}, "", err
	}

	if !loaded {
		return Config{}, "", nil
	}

	if explicitEmpty["schema_file"] {
		return Config{}, "", fmt.Errorf("%w %s: %w", ErrConfigInvalid, cfgFile, ErrSchemaFileEmpty)
	}

	return cfg, cfgFile, nil
}

// loadFile loads a config file. If mustExist is false, missing files return
// zero config. Returns the config, a map of explicitly empty fields, whether
// the file was loaded, and any error.
func loadFile(path string, mustExist bool) (Config, map[string]bool, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return Config{}, nil, false, nil
		}

		if mustExist {
			return Config{}, nil, false, fmt.Errorf("%w: %s", ErrConfigFileRead, path)
		}

		return Config{}, nil, false, nil
	}

	cfg, explicitEmpty, err := parse(data)
	if err != nil {
		return Config{}, nil, false, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, err)
	}

	return cfg, explicitEmpty, true, nil
}

func parse(data []byte) (Config, map[string]bool, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, nil, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config

	err = json.Unmarshal(standardized, &cfg)
	if err != nil {
		return Config{}, nil, fmt.Errorf("invalid JSON: %w", err)
	}

	// Check which fields were explicitly set to empty
	var raw map[string]any

	_ = json.Unmarshal(standardized, &raw)

	explicitEmpty := make(map[string]bool)

	if val, exists := raw["schema_file"]; exists {
		if str, ok := val.(string); ok && str == "" {
			explicitEmpty["schema_file"] = true
		}
	}

	return cfg, explicitEmpty, nil
}

func merge(base, overlay Config) Config {
	if overlay.SchemaFile != "" {
		base.SchemaFile = overlay.SchemaFile
	}

	if overlay.RootType != "" {
		base.RootType = overlay.RootType
	}

	if overlay.Indent != nil {
		base.Indent = overlay.Indent
	}

	return base
}

func validate(cfg Config) error {
	if cfg.SchemaFile == "" {
		return ErrSchemaFileEmpty
	}

	if w := cfg.IndentWidth(); w < -1 || w > 8 {
		return fmt.Errorf("%w: got %d", ErrIndentInvalid, w)
	}

	return nil
}

// Format renders cfg as key=value lines.
func Format(cfg Config) string {
	lines := []string{
		"effective_cwd=" + cfg.EffectiveCwd,
		"schema_file=" + cfg.SchemaFileAbs,
	}

	if cfg.RootType != "" {
		lines = append(lines, "root_type="+cfg.RootType)
	}

	lines = append(lines, "indent="+strconv.Itoa(cfg.IndentWidth()))

	return strings.Join(lines, "\n")
}
