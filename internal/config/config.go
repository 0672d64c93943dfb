// Package config loads the JSON-encoded app configuration and persists the
// JSON-encoded user settings (validate-and-clamp on read, MkdirAll-then-
// write on save).
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// AssetSource selects which resource.Source backs the game's assets.
type AssetSource string

const (
	AssetSourceFs  AssetSource = "fs"
	AssetSourceZip AssetSource = "zip"
)

// WindowConfig describes the presentation window.
type WindowConfig struct {
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Title      string `json:"title"`
	Fullscreen bool   `json:"fullscreen"`
}

// DebugConfig toggles optional development checks.
type DebugConfig struct {
	ScriptCheck bool `json:"script_check"`
}

// AudioConfig seeds the audio engine's initial mix.
type AudioConfig struct {
	Master float64 `json:"master"`
	BGM    float64 `json:"bgm"`
	SFX    float64 `json:"sfx"`
	Muted  bool    `json:"muted"`
}

// ResourcesConfig sizes runtime resource pools.
type ResourcesConfig struct {
	TextureCacheSizeMB int `json:"texture_cache_size_mb"`
}

// AppConfig is the top-level startup configuration.
type AppConfig struct {
	AssetsRoot      string          `json:"assets_root"`
	SavesDir        string          `json:"saves_dir"`
	ManifestPath    string          `json:"manifest_path"`
	DefaultFont     string          `json:"default_font"`
	StartScriptPath string          `json:"start_script_path"`
	AssetSource     AssetSource     `json:"asset_source"`
	ZipPath         string          `json:"zip_path,omitempty"`
	Window          WindowConfig    `json:"window"`
	Debug           DebugConfig     `json:"debug"`
	Audio           AudioConfig     `json:"audio"`
	Resources       ResourcesConfig `json:"resources"`
}

// ConfigError is fatal at startup and prevents launch.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

func defaultAppConfig() AppConfig {
	return AppConfig{
		AssetSource: AssetSourceFs,
		Window: WindowConfig{
			Width:  1280,
			Height: 720,
			Title:  "nitro-vn",
		},
		Audio: AudioConfig{Master: 1, BGM: 1, SFX: 1},
		Resources: ResourcesConfig{
			TextureCacheSizeMB: 256,
		},
	}
}

// LoadAppConfig reads and validates an AppConfig from a JSON file.
func LoadAppConfig(path string) (AppConfig, error) {
	cfg := defaultAppConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return AppConfig{}, &ConfigError{Field: path, Message: err.Error()}
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return AppConfig{}, &ConfigError{Field: path, Message: err.Error()}
	}

	if err := validateAppConfig(cfg); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func validateAppConfig(cfg AppConfig) error {
	if cfg.AssetsRoot == "" {
		return &ConfigError{Field: "assets_root", Message: "must not be empty"}
	}
	if cfg.StartScriptPath == "" {
		return &ConfigError{Field: "start_script_path", Message: "required"}
	}
	switch cfg.AssetSource {
	case AssetSourceFs:
	case AssetSourceZip:
		if cfg.ZipPath == "" {
			return &ConfigError{Field: "zip_path", Message: "required when asset_source is \"zip\""}
		}
	default:
		return &ConfigError{Field: "asset_source", Message: fmt.Sprintf("unknown source %q", cfg.AssetSource)}
	}
	for name, v := range map[string]float64{"audio.master": cfg.Audio.Master, "audio.bgm": cfg.Audio.BGM, "audio.sfx": cfg.Audio.SFX} {
		if v < 0 || v > 1 {
			return &ConfigError{Field: name, Message: "must be in [0,1]"}
		}
	}
	return nil
}

// UserSettings is the persisted, player-editable settings file.
type UserSettings struct {
	BGMVolume  float64 `json:"bgm_volume"`
	SFXVolume  float64 `json:"sfx_volume"`
	Muted      bool    `json:"muted"`
	Fullscreen bool    `json:"fullscreen"`
	TextSpeed  float64 `json:"text_speed"`
	AutoDelay  float64 `json:"auto_delay"`
	AutoMode   bool    `json:"auto_mode"`
}

func defaultUserSettings() UserSettings {
	return UserSettings{
		BGMVolume: 0.8,
		SFXVolume: 0.8,
		TextSpeed: 40,
		AutoDelay: 1.2,
	}
}

// LoadUserSettings reads settings from path, falling back to defaults when
// the file is absent, unreadable as expected JSON, or out of range. A stale
// settings file never blocks a launch.
func LoadUserSettings(path string) (UserSettings, error) {
	settings := defaultUserSettings()
	if path == "" {
		return settings, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return settings, err
	}
	if len(data) == 0 {
		return settings, nil
	}
	if err := json.Unmarshal(data, &settings); err != nil {
		return defaultUserSettings(), err
	}

	clampUserSettings(&settings)
	return settings, nil
}

// SaveUserSettings clamps out-of-range fields and writes settings as indented JSON.
func SaveUserSettings(path string, settings UserSettings) error {
	if path == "" {
		return nil
	}
	clampUserSettings(&settings)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func clampUserSettings(s *UserSettings) {
	s.BGMVolume = clamp01(s.BGMVolume)
	s.SFXVolume = clamp01(s.SFXVolume)
	if s.TextSpeed <= 0 {
		s.TextSpeed = defaultUserSettings().TextSpeed
	}
	if s.AutoDelay <= 0 {
		s.AutoDelay = defaultUserSettings().AutoDelay
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
