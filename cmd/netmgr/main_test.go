package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/muurk/netmgr/internal/config"
	"github.com/muurk/netmgr/internal/credentials"
	"github.com/muurk/netmgr/internal/provision"
	"github.com/muurk/netmgr/internal/readiness"
	"github.com/muurk/netmgr/internal/status"
	"github.com/muurk/netmgr/internal/statusfeed"
)

// execute runs the root command with args and stdin, returning its output
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func useConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(config.ConfigDirEnvVar, dir)
	return dir
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "", "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.HasPrefix(out, "netmgr ") {
		t.Errorf("output = %q", out)
	}
}

func TestConfigInitAndShow(t *testing.T) {
	dir := useConfigDir(t)

	if _, err := execute(t, "", "config", "init"); err != nil {
		t.Fatalf("config init error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err != nil {
		t.Fatalf("settings file not written: %v", err)
	}

	if _, err := execute(t, "", "config", "init"); err == nil {
		t.Error("second init without --force should fail")
	}
	if _, err := execute(t, "", "config", "init", "--force"); err != nil {
		t.Errorf("init --force error = %v", err)
	}

	out, err := execute(t, "", "config", "show")
	if err != nil {
		t.Fatalf("config show error = %v", err)
	}
	for _, want := range []string{"backend: nmcli", "ssid: " + config.DefaultAPSSID, "addr: " + config.DefaultControlAddr} {
		if !strings.Contains(out, want) {
			t.Errorf("config show missing %q", want)
		}
	}
}

func TestCredsSetAndShow(t *testing.T) {
	dir := useConfigDir(t)

	if _, err := execute(t, "", "creds", "set", "--ssid", "  Home Net ", "--password", "p&=% x"); err != nil {
		t.Fatalf("creds set error = %v", err)
	}

	got := credentials.NewStore(filepath.Join(dir, "credentials.yaml")).Load()
	want := credentials.Credentials{NetworkName: "Home Net", Passphrase: "p&=% x"}
	if got != want {
		t.Errorf("stored = %+v, want %+v", got, want)
	}

	out, err := execute(t, "", "creds", "show")
	if err != nil {
		t.Fatalf("creds show error = %v", err)
	}
	if !strings.Contains(out, "Home Net") || strings.Contains(out, "p&=% x") {
		t.Errorf("show output should name the network and mask the passphrase: %q", out)
	}

	out, _ = execute(t, "", "creds", "show", "--reveal")
	if !strings.Contains(out, "p&=% x") {
		t.Error("--reveal did not print the passphrase")
	}
}

func TestCredsSetRejectsInvalidName(t *testing.T) {
	dir := useConfigDir(t)

	_, err := execute(t, "", "creds", "set", "--ssid", "   ")
	if err == nil || err.Error() != credentials.MsgNameRequired {
		t.Errorf("error = %v, want %q", err, credentials.MsgNameRequired)
	}
	if _, err := os.Stat(filepath.Join(dir, "credentials.yaml")); !os.IsNotExist(err) {
		t.Error("invalid credentials were written")
	}
}

func TestCredsSetConfirmsOverwrite(t *testing.T) {
	dir := useConfigDir(t)
	store := credentials.NewStore(filepath.Join(dir, "credentials.yaml"))
	if err := store.Save(credentials.Credentials{NetworkName: "Old"}); err != nil {
		t.Fatal(err)
	}

	if _, err := execute(t, "n\n", "creds", "set", "--ssid", "New"); err != nil {
		t.Fatalf("declined set error = %v", err)
	}
	if got := store.Load().NetworkName; got != "Old" {
		t.Errorf("declined overwrite changed the record to %q", got)
	}

	if _, err := execute(t, "", "creds", "set", "--ssid", "New", "--yes"); err != nil {
		t.Fatalf("set --yes error = %v", err)
	}
	if got := store.Load().NetworkName; got != "New" {
		t.Errorf("NetworkName = %q, want New", got)
	}
}

func startAPI(t *testing.T) (*status.Store, *provision.Arbiter, string) {
	t.Helper()
	st := status.NewStore()
	a := provision.NewArbiter(time.Minute)
	srv := httptest.NewServer(statusfeed.New("", st, a, readiness.New()).Router())
	t.Cleanup(srv.Close)
	return st, a, srv.URL
}

func TestStatusCommand(t *testing.T) {
	useConfigDir(t)
	st, _, url := startAPI(t)
	st.Update(func(s *status.Status) {
		s.Mode = status.ModeStation
		s.Connected = true
		s.IP = "192.168.1.50"
	})

	out, err := execute(t, "", "--api", url, "status", "--json")
	if err != nil {
		t.Fatalf("status error = %v", err)
	}
	var got status.Status
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("status output is not JSON: %v\n%s", err, out)
	}
	if !got.Connected || got.IP != "192.168.1.50" {
		t.Errorf("status = %+v", got)
	}

	out, err = execute(t, "", "--api", url, "status")
	if err != nil {
		t.Fatalf("status error = %v", err)
	}
	if !strings.Contains(out, "192.168.1.50") {
		t.Errorf("panel missing IP: %q", out)
	}
}

func TestProvisionCommand(t *testing.T) {
	useConfigDir(t)
	_, a, url := startAPI(t)

	if _, err := execute(t, "", "--api", url, "provision"); err != nil {
		t.Fatalf("provision error = %v", err)
	}
	if !a.Poll(time.Now()) || a.LastReason() != provision.ReasonAPI {
		t.Error("provision did not submit an API request")
	}

	if _, err := execute(t, "", "--api", url, "provision", "--cancel"); err != nil {
		t.Fatalf("provision --cancel error = %v", err)
	}
	if a.Poll(time.Now()) {
		t.Error("cancel did not withdraw the request")
	}
}

func TestStatusCommandUnreachable(t *testing.T) {
	useConfigDir(t)
	out, err := execute(t, "", "--api", "127.0.0.1:1", "status")
	if err == nil {
		t.Fatal("expected an error for an unreachable API")
	}
	if !strings.Contains(out, "Troubleshooting") {
		t.Errorf("output missing troubleshooting tips: %q", out)
	}
}

func simSettings(t *testing.T) *config.Settings {
	t.Helper()
	s := config.Default()
	s.Radio.Backend = "sim"
	s.Portal.Addr = "127.0.0.1:0"
	s.Portal.Advertise = false
	s.Control.Addr = ""
	s.TimeSync.Enabled = false
	s.Restart.Mode = "exit"
	s.Credentials.Path = filepath.Join(t.TempDir(), "credentials.yaml")
	return s
}

func TestNewDaemonWiring(t *testing.T) {
	s := simSettings(t)
	d, err := newDaemon(s)
	if err != nil {
		t.Fatalf("newDaemon() error = %v", err)
	}
	if d.feed != nil || d.button != nil || d.responder != nil {
		t.Error("disabled services were built")
	}

	s = simSettings(t)
	s.Control.Addr = "127.0.0.1:0"
	s.Button.Line = 17
	s.Diag.SerialPort = "/dev/ttyS0"
	s.Portal.Advertise = true
	s.Portal.Addr = ":8080"
	d, err = newDaemon(s)
	if err != nil {
		t.Fatalf("newDaemon() error = %v", err)
	}
	if d.feed == nil || d.button == nil || d.responder == nil {
		t.Error("enabled services were not built")
	}

	s = simSettings(t)
	s.Radio.Backend = "zigbee"
	if _, err := newDaemon(s); err == nil {
		t.Error("unknown backend accepted")
	}
}

func TestDaemonRunStopsOnCancel(t *testing.T) {
	s := simSettings(t)
	s.Control.Addr = "127.0.0.1:0"
	d, err := newDaemon(s)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if d.ready.IsSet() {
		t.Error("ready set without credentials")
	}
}

func TestListenPort(t *testing.T) {
	tests := []struct {
		addr    string
		want    int
		wantErr bool
	}{
		{":80", 80, false},
		{"0.0.0.0:8080", 8080, false},
		{"[::]:443", 443, false},
		{"nope", 0, true},
		{":http", 0, true},
	}
	for _, tt := range tests {
		got, err := listenPort(tt.addr)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("listenPort(%q) = %d, %v", tt.addr, got, err)
		}
	}
}
