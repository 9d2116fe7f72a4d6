package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/flitsinc/go-jabber/internal/api"
	"github.com/flitsinc/go-jabber/internal/config"
	"github.com/flitsinc/go-jabber/internal/core"
	"github.com/flitsinc/go-jabber/internal/history"
	"github.com/flitsinc/go-jabber/internal/hub"
	"github.com/flitsinc/go-jabber/internal/logging"
	"github.com/flitsinc/go-jabber/internal/metrics"
	"github.com/flitsinc/go-jabber/internal/state"
	"github.com/flitsinc/go-jabber/internal/transport"
	"github.com/flitsinc/go-jabber/internal/web"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	var noConnect bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Connect the configured accounts and serve the command bus",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			logger := logging.New(logging.Options{
				Level:    cfg.Profile.LogLevel,
				Pretty:   cfg.Profile.LogPretty,
				Instance: cfg.Profile.Instance,
				Out:      cmd.ErrOrStderr(),
			})
			logging.Install(logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runDaemon(ctx, daemonDeps{
				cfg:       cfg,
				log:       logger,
				dialer:    transport.NewWSDialer(logger),
				noConnect: noConnect,
				ready:     func(addr net.Addr) { fmt.Fprintf(cmd.OutOrStdout(), "listening on %s\n", addr) },
			})
		},
	}
	cmd.Flags().BoolVar(&noConnect, "no-autoconnect", false, "start with every account offline")
	return cmd
}

type daemonDeps struct {
	cfg       config.Config
	log       zerolog.Logger
	dialer    transport.Dialer
	noConnect bool
	ready     func(net.Addr)
}

// runDaemon wires storage, the hub, the core loop and the HTTP surface, and
// blocks until quit is processed or ctx ends.
func runDaemon(ctx context.Context, deps daemonDeps) error {
	cfg := deps.cfg
	log := deps.log

	db, err := state.Open(cfg.Profile.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	m, err := metrics.New()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	journal := hub.NewJournal(db)
	h := hub.New(hub.WithLogger(log), hub.WithMetrics(m), hub.WithJournal(journal))

	loop, err := core.New(h, deps.dialer, cfg,
		core.WithLogger(log),
		core.WithMetrics(m),
		core.WithHistory(history.NewStore(db)),
		core.WithRosterCache(state.NewStore(db)),
	)
	if err != nil {
		return err
	}
	if !deps.noConnect {
		loop.Autoconnect()
	}

	var srv *http.Server
	serveErr := make(chan error, 1)
	if cfg.HTTP.Enabled {
		listener, err := net.Listen("tcp", cfg.HTTP.Addr)
		if err != nil {
			return fmt.Errorf("listen %s: %w", cfg.HTTP.Addr, err)
		}
		apiServer := &api.Server{
			Hub:       h,
			Journal:   journal,
			Metrics:   m,
			StartedAt: time.Now().UTC(),
			Info: api.DiagnosticsInfo{
				HTTPAddr: listener.Addr().String(),
				DataDir:  cfg.Profile.DataDir,
				DBPath:   cfg.Profile.DBPath,
				Config:   cfg.File,
				Accounts: loop.Accounts(),
			},
		}
		mux := http.NewServeMux()
		apiHandler := apiServer.Handler()
		mux.Handle("/api/", apiHandler)
		mux.Handle("/metrics", apiHandler)
		mux.Handle("/", (&web.Server{Dir: cfg.HTTP.WebDir}).Handler())

		srv = &http.Server{
			Handler:           loggingMiddleware(log, mux),
			ReadHeaderTimeout: 5 * time.Second,
			BaseContext: func(_ net.Listener) context.Context {
				return ctx
			},
		}
		go func() {
			log.Info().Str("addr", listener.Addr().String()).Msg("http listening")
			if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- err
			}
		}()
		if deps.ready != nil {
			deps.ready(listener.Addr())
		}
	}

	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case err := <-serveErr:
			log.Error().Err(err).Msg("http server failed")
			cancel()
		case <-loopCtx.Done():
		}
	}()

	runErr := loop.Run(loopCtx)

	if srv != nil {
		shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("http shutdown")
		}
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	log.Info().Msg("stopped")
	return nil
}

func loggingMiddleware(log zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug().Str("method", r.Method).Str("path", r.URL.Path).Dur("took", time.Since(start)).Msg("http request")
	})
}
