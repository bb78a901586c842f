package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestGetConfigDirEnvOverride(t *testing.T) {
	t.Setenv(ConfigDirEnvVar, "/tmp/netmgr-test")

	dir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}
	if dir != "/tmp/netmgr-test" {
		t.Errorf("GetConfigDir() = %v, want /tmp/netmgr-test", dir)
	}
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv(ConfigDirEnvVar, t.TempDir())

	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}

	if filepath.Base(configPath) != "config.yaml" {
		t.Errorf("GetConfigPath() should end with 'config.yaml', got: %v", configPath)
	}
}

func TestDefault(t *testing.T) {
	s := Default()

	if s.Version != CurrentVersion {
		t.Errorf("Default().Version = %v, want %v", s.Version, CurrentVersion)
	}
	if s.Station.ConnectTimeout != 30*time.Second {
		t.Errorf("ConnectTimeout = %v, want 30s", s.Station.ConnectTimeout)
	}
	if s.Station.OnDwell != 10*time.Second {
		t.Errorf("OnDwell = %v, want 10s", s.Station.OnDwell)
	}
	if s.Station.OffDwell != 50*time.Second {
		t.Errorf("OffDwell = %v, want 50s", s.Station.OffDwell)
	}
	if s.AccessPoint.AutoDisable != 120*time.Second {
		t.Errorf("AutoDisable = %v, want 120s", s.AccessPoint.AutoDisable)
	}
	if s.Portal.FlagPoll != 200*time.Millisecond {
		t.Errorf("FlagPoll = %v, want 200ms", s.Portal.FlagPoll)
	}
	if s.Button.Line >= 0 {
		t.Error("button should be disabled by default")
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.AccessPoint.SSID != DefaultAPSSID {
		t.Errorf("SSID = %v, want %v", s.AccessPoint.SSID, DefaultAPSSID)
	}
}

func TestLoadPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `version: 1
station:
  on_dwell: 5s
access_point:
  ssid: Lab-Setup
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if s.Station.OnDwell != 5*time.Second {
		t.Errorf("OnDwell = %v, want 5s", s.Station.OnDwell)
	}
	if s.Station.OffDwell != DefaultOffDwell {
		t.Errorf("OffDwell = %v, want default %v", s.Station.OffDwell, DefaultOffDwell)
	}
	if s.AccessPoint.SSID != "Lab-Setup" {
		t.Errorf("SSID = %v, want Lab-Setup", s.AccessPoint.SSID)
	}
	if s.AccessPoint.Passphrase != DefaultAPPassphrase {
		t.Errorf("Passphrase = %v, want default", s.AccessPoint.Passphrase)
	}
	if s.Portal == nil || s.Portal.Addr != DefaultPortalAddr {
		t.Error("missing portal section should be filled with defaults")
	}
}

func TestLoadRejectsUnknownVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("version: 7\n"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Load() should reject version 7")
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("station: [\n"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Load() should fail on malformed YAML")
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	s := Default()
	s.Station.OffDwell = 90 * time.Second
	s.Control.Addr = ""

	if err := s.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "# netmgr settings") {
		t.Error("saved file should start with the header comment")
	}
	if !strings.Contains(string(data), "off_dwell: 1m30s") {
		t.Errorf("durations should be written in Go syntax, got:\n%s", data)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Station.OffDwell != 90*time.Second {
		t.Errorf("OffDwell = %v, want 1m30s", loaded.Station.OffDwell)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file should not remain after Save()")
	}
}

func TestCredentialsPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(ConfigDirEnvVar, dir)

	s := Default()
	p, err := s.CredentialsPath()
	if err != nil {
		t.Fatal(err)
	}
	if p != filepath.Join(dir, "credentials.yaml") {
		t.Errorf("CredentialsPath() = %v", p)
	}

	s.Credentials.Path = "/data/wifi.yaml"
	p, _ = s.CredentialsPath()
	if p != "/data/wifi.yaml" {
		t.Errorf("CredentialsPath() override = %v", p)
	}
}
