package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultPort        = 563
	DefaultConnections = 50

	DefaultDialTimeout    = 15 * time.Second
	DefaultCommandTimeout = 15 * time.Second
	DefaultQuitTimeout    = 5 * time.Second
)

var (
	ErrHostRequired = errors.New("usenet host is required")
)

// Settings holds everything a check run needs. It is built once by the CLI
// layer and shared read-only by all sessions for the duration of the run.
type Settings struct {
	Host     string
	Port     int
	Username string
	Password string
	TLS      bool

	Connections    int
	DialTimeout    time.Duration
	CommandTimeout time.Duration
	QuitTimeout    time.Duration

	ShowMissing bool
	Verbose     bool
	LogFile     string
}

// Default returns settings matching the documented CLI defaults: TLS on the
// standard NNTPS port with 50 concurrent connections.
func Default() Settings {
	return Settings{
		Port:           DefaultPort,
		TLS:            true,
		Connections:    DefaultConnections,
		DialTimeout:    DefaultDialTimeout,
		CommandTimeout: DefaultCommandTimeout,
		QuitTimeout:    DefaultQuitTimeout,
	}
}

// Load returns the defaults overlaid with NZBCHECK_* environment variables,
// so credentials can stay out of shell history. Flags still win: the CLI
// applies them on top of the returned settings.
func Load() Settings {
	s := Default()

	v := viper.New()
	v.SetEnvPrefix("NZBCHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if host := v.GetString("server"); host != "" {
		s.Host = host
	}
	if port := v.GetInt("port"); port != 0 {
		s.Port = port
	}
	if user := v.GetString("username"); user != "" {
		s.Username = user
	}
	if pass := v.GetString("password"); pass != "" {
		s.Password = pass
	}
	if conns := v.GetInt("connections"); conns != 0 {
		s.Connections = conns
	}

	return s
}

// Addr returns the host:port dial target.
func (s Settings) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func (s Settings) Validate() error {
	if strings.TrimSpace(s.Host) == "" {
		return ErrHostRequired
	}
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("invalid port %d", s.Port)
	}
	if s.Connections < 1 {
		return fmt.Errorf("connections must be at least 1, got %d", s.Connections)
	}
	if s.DialTimeout <= 0 || s.CommandTimeout <= 0 || s.QuitTimeout <= 0 {
		return errors.New("timeouts must be positive")
	}
	return nil
}
