package config

import (
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

type fileProfile struct {
	DataDir   string `toml:"data_dir"`
	LogLevel  string `toml:"log_level"`
	LogPretty bool   `toml:"log_pretty"`
}

type fileCore struct {
	AlwaysAuth                bool   `toml:"always_auth"`
	DelAuth                   bool   `toml:"del_auth"`
	DelRoster                 bool   `toml:"del_roster"`
	PollInterval              string `toml:"poll_interval"`
	ReadBudget                int    `toml:"read_budget"`
	SubscriptionLoopThreshold int    `toml:"subscription_loop_threshold"`
	SubscriptionLoopWindow    string `toml:"subscription_loop_window"`
	ClientName                string `toml:"client_name"`
	LogHistory                bool   `toml:"log_history"`
}

type fileHTTP struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
}

type fileArchive struct {
	Bucket string `toml:"bucket"`
	Region string `toml:"region"`
	Prefix string `toml:"prefix"`
}

type fileAccount struct {
	JID           string `toml:"jid"`
	Password      string `toml:"password"`
	Resource      string `toml:"resource"`
	URL           string `toml:"url"`
	Priority      int    `toml:"priority"`
	AutoAuthorize bool   `toml:"auto_authorize"`
	Autoconnect   bool   `toml:"autoconnect"`
	Status        string `toml:"status"`
}

type fileSchema struct {
	Profile  fileProfile            `toml:"profile"`
	Core     fileCore               `toml:"core"`
	HTTP     fileHTTP               `toml:"http"`
	Archive  fileArchive            `toml:"archive"`
	Accounts map[string]fileAccount `toml:"accounts"`
}

func defaultSchema() fileSchema {
	return fileSchema{
		Profile: fileProfile{DataDir: "data", LogLevel: "info"},
		Core: fileCore{
			DelAuth:                   true,
			DelRoster:                 true,
			PollInterval:              "100ms",
			ReadBudget:                32,
			SubscriptionLoopThreshold: 6,
			SubscriptionLoopWindow:    "5s",
			ClientName:                "go-jabber",
			LogHistory:                true,
		},
		HTTP:    fileHTTP{Enabled: true, Addr: "127.0.0.1:5290"},
		Archive: fileArchive{Prefix: "go-jabber"},
		Accounts: map[string]fileAccount{
			"example": {
				JID:      "me@example.com",
				Resource: "go-jabber",
				URL:      "wss://example.com/xmpp-websocket",
				Status:   "online",
			},
		},
	}
}

// WriteDefault writes a starter configuration. It refuses to
// overwrite an existing file unless force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file %s already exists", path)
		}
	}
	data, err := toml.Marshal(defaultSchema())
	if err != nil {
		return fmt.Errorf("encode default config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
