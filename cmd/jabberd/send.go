package main

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/flitsinc/go-jabber/internal/api"
	"github.com/flitsinc/go-jabber/internal/hub"
)

func newSendCmd(opts *rootOptions) *cobra.Command {
	var (
		addr    string
		account string
		payload string
	)

	cmd := &cobra.Command{
		Use:   "send <verb>",
		Short: "Queue a command on a running daemon",
		Example: `  jabberd send status --account work --payload '{"show":"away","message":"lunch"}'
  jabberd send send-message --payload '{"to":"alice@example.com","body":"hi"}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				cfg, err := opts.load()
				if err != nil {
					return err
				}
				addr = cfg.HTTP.Addr
			}
			req := api.CommandRequest{Verb: hub.Verb(args[0]), Account: account}
			if payload != "" {
				if !json.Valid([]byte(payload)) {
					return fmt.Errorf("payload is not valid JSON")
				}
				req.Payload = json.RawMessage(payload)
			}
			body, err := json.Marshal(req)
			if err != nil {
				return fmt.Errorf("encode command: %w", err)
			}

			client := &http.Client{Timeout: 10 * time.Second}
			resp, err := client.Post(baseURL(addr)+"/api/commands", "application/json", bytes.NewReader(body))
			if err != nil {
				return fmt.Errorf("post command: %w", err)
			}
			defer resp.Body.Close()
			out, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("read response: %w", err)
			}
			if resp.StatusCode != http.StatusAccepted {
				return fmt.Errorf("daemon rejected command (%s): %s", resp.Status, strings.TrimSpace(string(out)))
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(string(out)))
			return err
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "daemon address (default http.addr from config)")
	cmd.Flags().StringVar(&account, "account", "", "account the command targets")
	cmd.Flags().StringVar(&payload, "payload", "", "command payload as JSON")
	return cmd
}

func baseURL(addr string) string {
	addr = strings.TrimRight(addr, "/")
	if strings.HasPrefix(addr, "http://") || strings.HasPrefix(addr, "https://") {
		return addr
	}
	return "http://" + addr
}
