package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/davarch/qfc-sync/internal/domain"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"github.com/mitchellh/go-homedir"
	yamlv3 "gopkg.in/yaml.v3"
)

const (
	DefaultURL       = "https://app.qfield.cloud/api/v1/"
	DefaultPath      = "~/.config/qfc-sync/config.yaml"
	DefaultPauseFile = "~/.cache/qfc-sync/paused"

	cloudEnvPrefix = "QFIELDCLOUD_"
	appEnvPrefix   = "QFC_SYNC_"
)

type CloudConfig struct {
	URL       string        `koanf:"url" yaml:"url"`
	Token     domain.Secret `koanf:"token" yaml:"token,omitempty"`
	Username  string        `koanf:"username" yaml:"username,omitempty"`
	Email     string        `koanf:"email" yaml:"email,omitempty"`
	Password  domain.Secret `koanf:"password" yaml:"-"`
	Timeout   time.Duration `koanf:"timeout" yaml:"timeout"`
	RateLimit float64       `koanf:"rate_limit" yaml:"rate_limit"`
	UserAgent string        `koanf:"user_agent" yaml:"user_agent,omitempty"`
}

type SyncConfig struct {
	AutoCreate   bool          `koanf:"auto_create" yaml:"auto_create"`
	WaitTimeout  time.Duration `koanf:"wait_timeout" yaml:"wait_timeout"`
	PollInterval time.Duration `koanf:"poll_interval" yaml:"poll_interval"`
	CreateSettle time.Duration `koanf:"create_settle" yaml:"create_settle"`
	Notify       bool          `koanf:"notify" yaml:"notify"`
}

type WatchConfig struct {
	Debounce  time.Duration `koanf:"debounce" yaml:"debounce"`
	PauseFile string        `koanf:"pause_file" yaml:"pause_file"`
}

type LogConfig struct {
	Level  string `koanf:"level" yaml:"level"`
	Format string `koanf:"format" yaml:"format"`
}

type Config struct {
	Cloud CloudConfig `koanf:"cloud" yaml:"cloud"`
	Sync  SyncConfig  `koanf:"sync" yaml:"sync"`
	Watch WatchConfig `koanf:"watch" yaml:"watch"`
	Log   LogConfig   `koanf:"log" yaml:"log"`
}

// Load reads the YAML file at path (a missing file is fine) and overlays
// the environment. QFIELDCLOUD_TOKEN maps to cloud.token, QFC_SYNC_LOG_LEVEL
// to log.level.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		p, err := homedir.Expand(path)
		if err != nil {
			return Config{}, err
		}
		b, err := os.ReadFile(p)
		switch {
		case err == nil:
			if err := k.Load(rawbytes.Provider(b), yaml.Parser()); err != nil {
				return Config{}, fmt.Errorf("load config file %s: %w", p, err)
			}
		case !errors.Is(err, os.ErrNotExist):
			return Config{}, fmt.Errorf("read config file %s: %w", p, err)
		}
	}

	if err := k.Load(env.Provider(cloudEnvPrefix, ".", func(s string) string {
		return "cloud." + strings.ToLower(strings.TrimPrefix(s, cloudEnvPrefix))
	}), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	if err := k.Load(env.Provider(appEnvPrefix, ".", func(s string) string {
		parts := strings.SplitN(strings.ToLower(strings.TrimPrefix(s, appEnvPrefix)), "_", 2)
		if len(parts) != 2 {
			return ""
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	var c Config
	if err := k.Unmarshal("", &c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	applyDefaults(&c)

	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

func applyDefaults(c *Config) {
	if c.Cloud.URL == "" {
		c.Cloud.URL = DefaultURL
	}
	if c.Cloud.Timeout <= 0 {
		c.Cloud.Timeout = 30 * time.Second
	}
	if c.Cloud.RateLimit == 0 {
		c.Cloud.RateLimit = 5
	}
	if c.Sync.WaitTimeout <= 0 {
		c.Sync.WaitTimeout = 600 * time.Second
	}
	if c.Sync.PollInterval <= 0 {
		c.Sync.PollInterval = 5 * time.Second
	}
	if c.Sync.CreateSettle == 0 {
		c.Sync.CreateSettle = 10 * time.Second
	}
	if c.Watch.Debounce <= 0 {
		c.Watch.Debounce = 2 * time.Second
	}
	if c.Watch.PauseFile == "" {
		c.Watch.PauseFile = DefaultPauseFile
	}
	c.Watch.PauseFile = expandHome(c.Watch.PauseFile)
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}

func (c Config) Validate() error {
	if !strings.HasPrefix(c.Cloud.URL, "http://") && !strings.HasPrefix(c.Cloud.URL, "https://") {
		return fmt.Errorf("cloud.url must be an http(s) URL, got %q", c.Cloud.URL)
	}
	if c.Sync.PollInterval <= 0 {
		return fmt.Errorf("sync.poll_interval must be positive, got %s", c.Sync.PollInterval)
	}
	if c.Sync.WaitTimeout < 0 {
		return fmt.Errorf("sync.wait_timeout must not be negative, got %s", c.Sync.WaitTimeout)
	}
	if c.Sync.CreateSettle < 0 {
		return errors.New("sync.create_settle must not be negative")
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}
	return nil
}

// persisted is what Save writes. The token is stored in clear text and the
// password is never stored.
type persisted struct {
	Cloud struct {
		URL       string        `yaml:"url"`
		Token     string        `yaml:"token,omitempty"`
		Username  string        `yaml:"username,omitempty"`
		Email     string        `yaml:"email,omitempty"`
		Timeout   time.Duration `yaml:"timeout"`
		RateLimit float64       `yaml:"rate_limit"`
		UserAgent string        `yaml:"user_agent,omitempty"`
	} `yaml:"cloud"`
	Sync  SyncConfig  `yaml:"sync"`
	Watch WatchConfig `yaml:"watch"`
	Log   LogConfig   `yaml:"log"`
}

func Save(path string, c Config) error {
	if path == "" {
		return errors.New("empty config path")
	}
	path, err := homedir.Expand(path)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	lockFile := path + ".lock"
	lf, err := os.OpenFile(lockFile, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return err
	}
	defer func() { _ = lf.Close() }()

	if runtime.GOOS != "windows" {
		if err := syscall.Flock(int(lf.Fd()), syscall.LOCK_EX); err != nil {
			return err
		}
		defer func() { _ = syscall.Flock(int(lf.Fd()), syscall.LOCK_UN) }()
	}

	var p persisted
	p.Cloud.URL = c.Cloud.URL
	p.Cloud.Token = c.Cloud.Token.Value()
	p.Cloud.Username = c.Cloud.Username
	p.Cloud.Email = c.Cloud.Email
	p.Cloud.Timeout = c.Cloud.Timeout
	p.Cloud.RateLimit = c.Cloud.RateLimit
	p.Cloud.UserAgent = c.Cloud.UserAgent
	p.Sync, p.Watch, p.Log = c.Sync, c.Watch, c.Log

	b, err := yamlv3.Marshal(&p)
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}

	defer func() { _ = f.Close() }()

	if _, err := f.Write(b); err != nil {
		return err
	}

	if err := f.Sync(); err != nil {
		return err
	}

	return os.Rename(tmp, path)
}

func expandHome(p string) string {
	if e, err := homedir.Expand(p); err == nil {
		return e
	}
	return p
}
