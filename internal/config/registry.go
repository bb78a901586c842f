package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	appName         = "netmgr"
	configFile      = "config.yaml"
	credentialsFile = "credentials.yaml"

	// ConfigDirEnvVar overrides the configuration directory
	ConfigDirEnvVar = "NETMGR_CONFIG_DIR"

	// SystemConfigDir is used when running as root (the normal device case)
	SystemConfigDir = "/etc/netmgr"
)

// Mutex for thread-safe file operations
var fileMutex sync.Mutex

// GetConfigDir returns the configuration directory:
//   - $NETMGR_CONFIG_DIR when set
//   - /etc/netmgr when running as root
//   - $XDG_CONFIG_HOME/netmgr or $HOME/.config/netmgr otherwise
func GetConfigDir() (string, error) {
	if dir := os.Getenv(ConfigDirEnvVar); dir != "" {
		return dir, nil
	}

	if os.Geteuid() == 0 {
		return SystemConfigDir, nil
	}

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", appName), nil
}

// GetConfigPath returns the full path to the settings file.
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFile), nil
}

// CredentialsPath returns where the credential record lives for these settings.
func (s *Settings) CredentialsPath() (string, error) {
	if s.Credentials != nil && s.Credentials.Path != "" {
		return s.Credentials.Path, nil
	}
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, credentialsFile), nil
}

// Load loads settings from path. An empty path means GetConfigPath().
// If the file doesn't exist, the compiled-in defaults are returned.
func Load(path string) (*Settings, error) {
	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get config path: %w", err)
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var settings Settings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if settings.Version == 0 {
		settings.Version = CurrentVersion
	}
	if settings.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported config version: %d (expected %d)", settings.Version, CurrentVersion)
	}

	settings.fillDefaults()
	return &settings, nil
}

// Save writes the settings to path atomically.
func (s *Settings) Save(path string) error {
	fileMutex.Lock()
	defer fileMutex.Unlock()

	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# netmgr settings
# Durations use Go syntax (e.g. 500ms, 30s, 2m).
# Credentials are stored separately in credentials.yaml.
#
# Location: ` + path + `

`)
	data = append(header, data...)

	// Write to temporary file first (atomic write)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config file: %w", err)
	}

	return nil
}
