// Package config manages global (~/.config/weaver/config.toml) and
// per-project (.weaver/config.toml) configuration for Weaver.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// GlobalConfig holds user-wide settings.
type GlobalConfig struct {
	DefaultModel    string        `toml:"default_model"`
	DefaultEmbedder string        `toml:"default_embedder"`
	Keys            KeysConfig    `toml:"keys"`
	Ollama          OllamaConfig  `toml:"ollama"`
	Context         ContextConfig `toml:"context"`
	Retry           RetryConfig   `toml:"retry"`
	Output          OutputConfig  `toml:"output"`
}

type KeysConfig struct {
	Anthropic string `toml:"anthropic"`
	OpenAI    string `toml:"openai"`
}

type OllamaConfig struct {
	Host            string `toml:"host"`
	EmbedModel      string `toml:"embed_model"`
	CompletionModel string `toml:"completion_model"`
}

// ContextConfig bounds context assembly. Budgets are in model tokens.
type ContextConfig struct {
	CodeBudget    int `toml:"code_budget"`
	HistoryBudget int `toml:"history_budget"`
	TopKChunks    int `toml:"top_k_chunks"`
	MaxIndexes    int `toml:"max_indexes"`
	MaxFileKB     int `toml:"max_file_kb"`
}

// RetryConfig tunes the generation retry loop and its circuit breaker.
type RetryConfig struct {
	MaxAttempts      int `toml:"max_attempts"`
	BreakerThreshold int `toml:"breaker_threshold"`
	CooldownSeconds  int `toml:"cooldown_seconds"`
}

type OutputConfig struct {
	Color   bool `toml:"color"`
	Verbose bool `toml:"verbose"`
}

// ProjectConfig holds per-project overrides stored in .weaver/config.toml.
type ProjectConfig struct {
	DefaultModel  string      `toml:"default_model"`
	Project       ProjectMeta `toml:"project"`
	AlwaysInclude []string    `toml:"always_include"`
	Exclude       []string    `toml:"exclude"`
	IncludeTests  bool        `toml:"include_tests"`
}

type ProjectMeta struct {
	Name string `toml:"name"`
}

// DefaultGlobal returns sensible defaults.
func DefaultGlobal() GlobalConfig {
	return GlobalConfig{
		DefaultModel:    "claude",
		DefaultEmbedder: "ollama",
		Ollama: OllamaConfig{
			Host:            "http://localhost:11434",
			EmbedModel:      "nomic-embed-text",
			CompletionModel: "llama3.2",
		},
		Context: ContextConfig{
			CodeBudget:    6000,
			HistoryBudget: 8000,
			TopKChunks:    10,
			MaxIndexes:    8,
			MaxFileKB:     512,
		},
		Retry: RetryConfig{
			MaxAttempts:      3,
			BreakerThreshold: 5,
			CooldownSeconds:  30,
		},
		Output: OutputConfig{
			Color: true,
		},
	}
}

// GlobalConfigPath returns the path to the global config file.
func GlobalConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "weaver", "config.toml"), nil
}

// LoadGlobal loads the global config, applying defaults for any missing values.
func LoadGlobal() (GlobalConfig, error) {
	cfg := DefaultGlobal()

	path, err := GlobalConfigPath()
	if err != nil {
		return cfg, nil // Return defaults if we can't determine home dir.
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil // File doesn't exist yet, use defaults.
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("config: load global: %w", err)
	}

	// Let env vars override config file API keys.
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.Keys.Anthropic = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Keys.OpenAI = v
	}

	return cfg, nil
}

// SaveGlobal writes the global config to disk.
func SaveGlobal(cfg GlobalConfig) error {
	path, err := GlobalConfigPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: mkdir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("config: create global config: %w", err)
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// LoadProject loads .weaver/config.toml from the given project root.
func LoadProject(root string) (ProjectConfig, error) {
	var cfg ProjectConfig
	path := filepath.Join(root, ".weaver", "config.toml")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("config: load project: %w", err)
	}
	return cfg, nil
}

// ProjectDBPath returns the path to the project's SQLite database.
func ProjectDBPath(root string) string {
	return filepath.Join(root, ".weaver", "weaver.db")
}

// ProjectConfigDirPath returns the path to the project's .weaver/ directory.
func ProjectConfigDirPath(root string) string {
	return filepath.Join(root, ".weaver")
}

// Load returns the effective config for a project root (global merged with
// project). It is a convenience wrapper used by CLI commands.
func Load(root string) (GlobalConfig, error) {
	global, err := LoadGlobal()
	if err != nil {
		global = DefaultGlobal()
	}

	project, err := LoadProject(root)
	if err == nil && project.DefaultModel != "" {
		global.DefaultModel = project.DefaultModel
	}

	return global, nil
}

// SaveProject writes the project config to .weaver/config.toml.
func SaveProject(root string, cfg ProjectConfig) error {
	dir := filepath.Join(root, ".weaver")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("config: mkdir project: %w", err)
	}

	path := filepath.Join(dir, "config.toml")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("config: create project config: %w", err)
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
