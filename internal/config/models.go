package config

import "time"

// CurrentVersion is the settings file schema version
const CurrentVersion = 1

// Settings represents the entire netmgr settings file.
// Every field has a compiled-in default; the file only needs the overrides.
type Settings struct {
	Version     int              `yaml:"version"`
	Radio       *RadioSettings   `yaml:"radio,omitempty"`
	Station     *StationSettings `yaml:"station,omitempty"`
	AccessPoint *APSettings      `yaml:"access_point,omitempty"`
	Portal      *PortalSettings  `yaml:"portal,omitempty"`
	Credentials *CredentialPrefs `yaml:"credentials,omitempty"`
	TimeSync    *TimeSyncPrefs   `yaml:"time_sync,omitempty"`
	Restart     *RestartPrefs    `yaml:"restart,omitempty"`
	Control     *ControlPrefs    `yaml:"control,omitempty"`
	Diag        *DiagPrefs       `yaml:"diag,omitempty"`
	Button      *ButtonPrefs     `yaml:"button,omitempty"`
}

// RadioSettings selects the radio backend.
type RadioSettings struct {
	Backend   string `yaml:"backend"`   // "nmcli" or "sim"
	Interface string `yaml:"interface"` // Wireless interface name (e.g., "wlan0")
}

// StationSettings controls the station duty cycle.
type StationSettings struct {
	ConnectTimeout time.Duration `yaml:"connect_timeout"` // Deadline for one connect attempt
	PollInterval   time.Duration `yaml:"poll_interval"`   // Connected-state poll period during an attempt
	OnDwell        time.Duration `yaml:"on_dwell"`        // How long to stay connected per cycle
	OffDwell       time.Duration `yaml:"off_dwell"`       // How long the radio stays off per cycle
}

// APSettings controls provisioning (access-point) mode.
type APSettings struct {
	SSID        string        `yaml:"ssid"`         // Access point name
	Passphrase  string        `yaml:"passphrase"`   // Access point passphrase (WPA2, 8-63 chars)
	AutoDisable time.Duration `yaml:"auto_disable"` // Provisioning request expiry
	SettleDelay time.Duration `yaml:"settle_delay"` // Pause after AP shutdown
}

// PortalSettings controls the credential-entry HTTP portal.
type PortalSettings struct {
	Addr         string        `yaml:"addr"`          // Listen address (e.g., ":80")
	FlagPoll     time.Duration `yaml:"flag_poll"`     // Provisioning flag poll period
	ReadTimeout  time.Duration `yaml:"read_timeout"`  // Per-connection read deadline
	Advertise    bool          `yaml:"advertise"`     // Announce the portal over mDNS
	MDNSInstance string        `yaml:"mdns_instance"` // mDNS instance name (defaults to AP SSID)
}

// CredentialPrefs locates the credential record.
type CredentialPrefs struct {
	Path string `yaml:"path"` // Empty = <config dir>/credentials.yaml
}

// TimeSyncPrefs controls NTP synchronization after a station connect.
type TimeSyncPrefs struct {
	Enabled bool          `yaml:"enabled"`
	Server  string        `yaml:"server"`
	Timeout time.Duration `yaml:"timeout"`
	SetTime bool          `yaml:"set_time"` // Step the system clock (requires CAP_SYS_TIME)
}

// RestartPrefs controls what happens after new credentials are saved.
type RestartPrefs struct {
	Mode    string        `yaml:"mode"`    // "command" or "exit"
	Command []string      `yaml:"command"` // Command run in "command" mode
	Delay   time.Duration `yaml:"delay"`   // Grace delay before restarting
}

// ControlPrefs controls the loopback status/control API.
type ControlPrefs struct {
	Addr string `yaml:"addr"` // Empty disables the API
}

// DiagPrefs controls the serial diagnostics responder.
type DiagPrefs struct {
	SerialPort string `yaml:"serial_port"` // Empty disables the responder
	Baud       int    `yaml:"baud"`
}

// ButtonPrefs controls the GPIO provisioning button.
type ButtonPrefs struct {
	Chip     string        `yaml:"chip"`     // GPIO chip (e.g., "gpiochip0")
	Line     int           `yaml:"line"`     // Line offset; negative disables the button
	Debounce time.Duration `yaml:"debounce"` // Presses closer together than this are ignored
}

// Compiled-in defaults.
const (
	DefaultConnectTimeout = 30 * time.Second
	DefaultPollInterval   = 500 * time.Millisecond
	DefaultOnDwell        = 10 * time.Second
	DefaultOffDwell       = 50 * time.Second
	DefaultAPSSID         = "CO2Monitor-Setup"
	DefaultAPPassphrase   = "12345678"
	DefaultAPAutoDisable  = 120 * time.Second
	DefaultAPSettleDelay  = 300 * time.Millisecond
	DefaultPortalAddr     = ":80"
	DefaultFlagPoll       = 200 * time.Millisecond
	DefaultReadTimeout    = 5 * time.Second
	DefaultNTPServer      = "pool.ntp.org"
	DefaultNTPTimeout     = 5 * time.Second
	DefaultRestartDelay   = 1 * time.Second
	DefaultControlAddr    = "127.0.0.1:7480"
	DefaultDiagBaud       = 115200
	DefaultDebounce       = 100 * time.Millisecond
)

// Default returns settings populated with every compiled-in default.
func Default() *Settings {
	return &Settings{
		Version: CurrentVersion,
		Radio: &RadioSettings{
			Backend:   "nmcli",
			Interface: "wlan0",
		},
		Station: &StationSettings{
			ConnectTimeout: DefaultConnectTimeout,
			PollInterval:   DefaultPollInterval,
			OnDwell:        DefaultOnDwell,
			OffDwell:       DefaultOffDwell,
		},
		AccessPoint: &APSettings{
			SSID:        DefaultAPSSID,
			Passphrase:  DefaultAPPassphrase,
			AutoDisable: DefaultAPAutoDisable,
			SettleDelay: DefaultAPSettleDelay,
		},
		Portal: &PortalSettings{
			Addr:        DefaultPortalAddr,
			FlagPoll:    DefaultFlagPoll,
			ReadTimeout: DefaultReadTimeout,
			Advertise:   true,
		},
		Credentials: &CredentialPrefs{},
		TimeSync: &TimeSyncPrefs{
			Enabled: true,
			Server:  DefaultNTPServer,
			Timeout: DefaultNTPTimeout,
			SetTime: true,
		},
		Restart: &RestartPrefs{
			Mode:    "command",
			Command: []string{"systemctl", "reboot"},
			Delay:   DefaultRestartDelay,
		},
		Control: &ControlPrefs{
			Addr: DefaultControlAddr,
		},
		Diag: &DiagPrefs{
			Baud: DefaultDiagBaud,
		},
		Button: &ButtonPrefs{
			Chip:     "gpiochip0",
			Line:     -1,
			Debounce: DefaultDebounce,
		},
	}
}

// fillDefaults replaces missing sections and zero values with defaults so
// a partial file on disk behaves like an override set.
func (s *Settings) fillDefaults() {
	d := Default()

	if s.Radio == nil {
		s.Radio = d.Radio
	}
	if s.Radio.Backend == "" {
		s.Radio.Backend = d.Radio.Backend
	}
	if s.Radio.Interface == "" {
		s.Radio.Interface = d.Radio.Interface
	}

	if s.Station == nil {
		s.Station = d.Station
	}
	setDuration(&s.Station.ConnectTimeout, d.Station.ConnectTimeout)
	setDuration(&s.Station.PollInterval, d.Station.PollInterval)
	setDuration(&s.Station.OnDwell, d.Station.OnDwell)
	setDuration(&s.Station.OffDwell, d.Station.OffDwell)

	if s.AccessPoint == nil {
		s.AccessPoint = d.AccessPoint
	}
	if s.AccessPoint.SSID == "" {
		s.AccessPoint.SSID = d.AccessPoint.SSID
	}
	if s.AccessPoint.Passphrase == "" {
		s.AccessPoint.Passphrase = d.AccessPoint.Passphrase
	}
	setDuration(&s.AccessPoint.AutoDisable, d.AccessPoint.AutoDisable)
	setDuration(&s.AccessPoint.SettleDelay, d.AccessPoint.SettleDelay)

	if s.Portal == nil {
		s.Portal = d.Portal
	}
	if s.Portal.Addr == "" {
		s.Portal.Addr = d.Portal.Addr
	}
	setDuration(&s.Portal.FlagPoll, d.Portal.FlagPoll)
	setDuration(&s.Portal.ReadTimeout, d.Portal.ReadTimeout)

	if s.Credentials == nil {
		s.Credentials = d.Credentials
	}

	if s.TimeSync == nil {
		s.TimeSync = d.TimeSync
	}
	if s.TimeSync.Server == "" {
		s.TimeSync.Server = d.TimeSync.Server
	}
	setDuration(&s.TimeSync.Timeout, d.TimeSync.Timeout)

	if s.Restart == nil {
		s.Restart = d.Restart
	}
	if s.Restart.Mode == "" {
		s.Restart.Mode = d.Restart.Mode
	}
	if len(s.Restart.Command) == 0 {
		s.Restart.Command = d.Restart.Command
	}
	setDuration(&s.Restart.Delay, d.Restart.Delay)

	if s.Control == nil {
		s.Control = d.Control
	}

	if s.Diag == nil {
		s.Diag = d.Diag
	}
	if s.Diag.Baud == 0 {
		s.Diag.Baud = d.Diag.Baud
	}

	if s.Button == nil {
		s.Button = d.Button
	}
	if s.Button.Chip == "" {
		s.Button.Chip = d.Button.Chip
	}
	setDuration(&s.Button.Debounce, d.Button.Debounce)
}

func setDuration(dst *time.Duration, def time.Duration) {
	if *dst <= 0 {
		*dst = def
	}
}
