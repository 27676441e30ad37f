package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"pkt.systems/pslog"

	"github.com/termloom/termloom"
	"github.com/termloom/termloom/internal/server"
	"github.com/termloom/termloom/plainengine"
	"github.com/termloom/termloom/ptyjob"
)

func newServeCmd(logger pslog.Logger, cfgPath *string) *cobra.Command {
	var addr string
	var indexDir string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve sessions over HTTP and websocket",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*cfgPath)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Addr
			}
			if indexDir == "" {
				indexDir = cfg.IndexDir
			}

			starter := &ptyjob.Starter{
				Logger: coreLogger(logger),
				Shell:  cfg.Shell,
				Term:   cfg.Term,
			}
			srv := server.New(server.Config{
				Addr:           addr,
				Logger:         coreLogger(logger),
				AllowedOrigins: cfg.AllowedOrigins,
				Manager: termloom.ManagerConfig{
					NewEngine:       plainengine.New,
					StartJob:        starter.Start,
					Logger:          coreLogger(logger),
					LightBackground: cfg.LightBackground,
					Env:             cfg.Env,
					SearchIndexDir:  indexDir,
				},
			})

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logger.With("signal", sig.String()).Info("shutting down")
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default 127.0.0.1:7171)")
	cmd.Flags().StringVar(&indexDir, "index-dir", "", "directory for scrollback search indexes")
	return cmd
}
