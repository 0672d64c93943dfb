// nitro-vn runs a visual novel: it loads the app configuration, mounts the
// asset source, opens the SDL window and audio device, and hands control to
// the frame loop.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"nitro-vn/internal/app"
	"nitro-vn/internal/config"
	"nitro-vn/internal/logging"
	"nitro-vn/internal/resource"
	"nitro-vn/internal/ui"
)

func main() {
	configPath := "config.json"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	if err := run(configPath); err != nil {
		fmt.Fprintf(os.Stderr, "nitro-vn: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.LoadAppConfig(configPath)
	if err != nil {
		return err
	}

	settingsPath := filepath.Join(filepath.Dir(configPath), "settings.json")
	settings, err := config.LoadUserSettings(settingsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "nitro-vn: settings: %v (using defaults)\n", err)
	}
	if settings.Fullscreen {
		cfg.Window.Fullscreen = true
	}

	log := logging.New(2048)
	defer log.Close()

	source, closeSource, err := openSource(cfg)
	if err != nil {
		return err
	}
	defer closeSource()

	if !source.Exists(resource.Normalize(cfg.StartScriptPath)) {
		return &config.ConfigError{Field: "start_script_path", Message: "script not found in asset source"}
	}

	fontPath, err := materializeFont(cfg, source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "nitro-vn: font: %v\n", err)
	}

	window, err := ui.NewWindow(cfg.Window, fontPath)
	if err != nil {
		return err
	}
	defer window.Close()

	player, err := ui.NewPlayer()
	if err != nil {
		return err
	}
	defer player.Close()

	a, err := app.New(cfg, settings, source, window, player, log)
	if err != nil {
		return err
	}

	return ui.Run(a, window, player)
}

// openSource mounts the configured asset backing.
func openSource(cfg config.AppConfig) (resource.Source, func(), error) {
	if cfg.AssetSource == config.AssetSourceZip {
		zip := resource.NewZipSource(cfg.ZipPath)
		return zip, func() { zip.Close() }, nil
	}
	return resource.NewFsSource(cfg.AssetsRoot), func() {}, nil
}

// materializeFont hands the text renderer a filesystem path. Fonts inside
// an archive are extracted to a temp file once at startup, since font
// loaders only accept paths.
func materializeFont(cfg config.AppConfig, source resource.Source) (string, error) {
	if cfg.DefaultFont == "" {
		return "", nil
	}
	logical := resource.Normalize(cfg.DefaultFont)

	if cfg.AssetSource == config.AssetSourceFs {
		return filepath.Join(cfg.AssetsRoot, filepath.FromSlash(logical)), nil
	}

	data, err := source.Read(logical)
	if err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp("", "nitro-vn-font-*"+filepath.Ext(logical))
	if err != nil {
		return "", err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	return tmp.Name(), nil
}
