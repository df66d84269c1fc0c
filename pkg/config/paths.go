package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "parcus"

func homeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return os.TempDir()
}

// windows: C:\Users\{user}\AppData\Roaming\parcus
// macOS: ~/Library/Application Support/parcus
// linux: ~/.config/parcus
func GetConfigDir() string {
	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			appData = filepath.Join(homeDir(), "AppData", "Roaming")
		}
		return filepath.Join(appData, appName)

	case "darwin":
		return filepath.Join(homeDir(), "Library", "Application Support", appName)

	default:
		xdgConfig := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfig == "" {
			xdgConfig = filepath.Join(homeDir(), ".config")
		}
		return filepath.Join(xdgConfig, appName)
	}
}

// windows: C:\Users\{user}\AppData\Local\parcus
// macOS: ~/Library/Caches/parcus
// linux: ~/.cache/parcus
func GetCacheDir() string {
	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			localAppData = filepath.Join(homeDir(), "AppData", "Local")
		}
		return filepath.Join(localAppData, appName)

	case "darwin":
		return filepath.Join(homeDir(), "Library", "Caches", appName)

	default:
		xdgCache := os.Getenv("XDG_CACHE_HOME")
		if xdgCache == "" {
			xdgCache = filepath.Join(homeDir(), ".cache")
		}
		return filepath.Join(xdgCache, appName)
	}
}

func GetDefaultConfigPath() string {
	return filepath.Join(GetConfigDir(), "config.yaml")
}

func GetHubCacheDir() string {
	return filepath.Join(GetCacheDir(), "hub")
}
