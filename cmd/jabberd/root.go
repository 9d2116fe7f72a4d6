package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flitsinc/go-jabber/internal/config"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:           "jabberd",
		Short:         "Jabber client core: accounts, event stream and command bus",
		Long:          "jabberd keeps XMPP accounts connected, turns incoming stanzas into events and exposes a command bus over HTTP.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ./config.toml or ~/.go-jabber/config.toml)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(opts),
		newInitConfigCmd(opts),
		newSendCmd(opts),
		newExportCmd(opts),
	)
	return rootCmd
}

func (o *rootOptions) load() (config.Config, error) {
	store, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return store.Config(), nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version)
			return err
		},
	}
}
