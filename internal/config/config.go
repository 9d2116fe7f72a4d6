// Package config loads the daemon configuration from a TOML file, with
// GO_JABBER_* environment overrides and an optional .env file.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/flitsinc/go-jabber/internal/idgen"
)

const (
	envPrefix  = "GO_JABBER"
	configName = "config"
	configType = "toml"
	configDir  = ".go-jabber"
)

type Config struct {
	Profile  ProfileConfig            `mapstructure:"profile"`
	Core     CoreConfig               `mapstructure:"core"`
	HTTP     HTTPConfig               `mapstructure:"http"`
	Archive  ArchiveConfig            `mapstructure:"archive"`
	Accounts map[string]AccountConfig `mapstructure:"accounts"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-"`
}

type ProfileConfig struct {
	DataDir   string `mapstructure:"data_dir"`
	DBPath    string `mapstructure:"db_path"`
	LogLevel  string `mapstructure:"log_level"`
	LogPretty bool   `mapstructure:"log_pretty"`
	Instance  string `mapstructure:"instance"`
}

type CoreConfig struct {
	AlwaysAuth bool `mapstructure:"always_auth"`
	DelAuth    bool `mapstructure:"del_auth"`
	DelRoster  bool `mapstructure:"del_roster"`

	PollInterval time.Duration `mapstructure:"poll_interval"`
	ReadBudget   int           `mapstructure:"read_budget"`

	SubscriptionLoopThreshold int           `mapstructure:"subscription_loop_threshold"`
	SubscriptionLoopWindow    time.Duration `mapstructure:"subscription_loop_window"`

	ClientName    string `mapstructure:"client_name"`
	ClientVersion string `mapstructure:"client_version"`
	ClientOS      string `mapstructure:"client_os"`

	LogHistory bool `mapstructure:"log_history"`
}

type HTTPConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
	// WebDir replaces the built-in console page when set.
	WebDir string `mapstructure:"web_dir"`
}

// ArchiveConfig controls where export-history writes: Bucket selects S3,
// otherwise files land under Dir.
type ArchiveConfig struct {
	Dir    string `mapstructure:"dir"`
	Bucket string `mapstructure:"bucket"`
	Region string `mapstructure:"region"`
	Prefix string `mapstructure:"prefix"`
}

type AccountConfig struct {
	JID           string `mapstructure:"jid"`
	Password      string `mapstructure:"password"`
	Resource      string `mapstructure:"resource"`
	URL           string `mapstructure:"url"`
	Priority      int    `mapstructure:"priority"`
	AutoAuthorize bool   `mapstructure:"auto_authorize"`
	Autoconnect   bool   `mapstructure:"autoconnect"`
	Status        string `mapstructure:"status"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("profile.data_dir", "data")
	v.SetDefault("profile.db_path", "")
	v.SetDefault("profile.log_level", "info")
	v.SetDefault("profile.log_pretty", false)
	v.SetDefault("profile.instance", "")

	v.SetDefault("core.always_auth", false)
	v.SetDefault("core.del_auth", true)
	v.SetDefault("core.del_roster", true)
	v.SetDefault("core.poll_interval", 100*time.Millisecond)
	v.SetDefault("core.read_budget", 32)
	v.SetDefault("core.subscription_loop_threshold", 6)
	v.SetDefault("core.subscription_loop_window", 5*time.Second)
	v.SetDefault("core.client_name", "go-jabber")
	v.SetDefault("core.client_version", "dev")
	v.SetDefault("core.client_os", "")
	v.SetDefault("core.log_history", true)

	v.SetDefault("http.enabled", true)
	v.SetDefault("http.addr", "127.0.0.1:5290")
	v.SetDefault("http.web_dir", "")

	v.SetDefault("archive.dir", "")
	v.SetDefault("archive.bucket", "")
	v.SetDefault("archive.region", "")
	v.SetDefault("archive.prefix", "go-jabber")
}

// Load reads path, or the first config.toml found in the working directory
// and ~/.go-jabber when path is empty. A missing file is not an error.
func Load(path string) (*Store, error) {
	loadDotEnv(".env")

	v := viper.New()
	v.SetConfigType(configType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, configDir))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !(path != "" && errors.Is(err, os.ErrNotExist)) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}
	return newStore(v)
}

func newStore(v *viper.Viper) (*Store, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	if cfg.Profile.DBPath == "" {
		cfg.Profile.DBPath = filepath.Join(cfg.Profile.DataDir, "go-jabber.db")
	}
	if cfg.Archive.Dir == "" {
		cfg.Archive.Dir = filepath.Join(cfg.Profile.DataDir, "exports")
	}
	if cfg.Accounts == nil {
		cfg.Accounts = map[string]AccountConfig{}
	}
	for name, acct := range cfg.Accounts {
		if err := idgen.ValidateAccountName(name); err != nil {
			return nil, fmt.Errorf("account %q: %w", name, err)
		}
		if acct.JID == "" {
			return nil, fmt.Errorf("account %q: jid is required", name)
		}
		if acct.Resource == "" {
			acct.Resource = "go-jabber"
		}
		cfg.Accounts[name] = acct
	}
	return &Store{v: v, cfg: cfg}, nil
}

// Store answers section/key lookups against the loaded configuration.
type Store struct {
	v   *viper.Viper
	cfg Config
}

func (s *Store) Config() Config {
	return s.cfg
}

// Lookup returns the raw value of section.key as a string.
func (s *Store) Lookup(section, key string) (string, bool) {
	k := section + "." + key
	if !s.v.IsSet(k) {
		return "", false
	}
	return s.v.GetString(k), true
}

func (s *Store) Bool(section, key string) bool {
	return s.v.GetBool(section + "." + key)
}

func (s *Store) Account(name string) (AccountConfig, bool) {
	acct, ok := s.cfg.Accounts[name]
	return acct, ok
}

// AccountNames lists configured accounts in a stable order.
func (s *Store) AccountNames() []string {
	names := make([]string, 0, len(s.cfg.Accounts))
	for name := range s.cfg.Accounts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func loadDotEnv(path string) {
	file, err := os.Open(path)
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "export ") {
			line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		value = strings.TrimSpace(value)
		value = strings.Trim(value, `"'`)
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		_ = os.Setenv(key, value)
	}
}
