package main

import (
	"os"

	"github.com/spf13/cobra"
	"pkt.systems/pslog"

	"github.com/termloom/termloom"
)

func main() {
	logger := pslog.LoggerFromEnv(
		pslog.WithEnvWriter(os.Stderr),
		pslog.WithEnvOptions(pslog.Options{Mode: pslog.ModeConsole}),
	)

	root := newRootCmd(logger)
	if err := root.Execute(); err != nil {
		logger.With("err", err).Error("termloom command failed")
		os.Exit(1)
	}
}

func newRootCmd(logger pslog.Logger) *cobra.Command {
	var cfgPath string
	root := &cobra.Command{
		Use:           "termloom",
		Short:         "Terminal session manager",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (default ~/.config/termloom/config.yaml)")

	root.AddCommand(newRunCmd(logger, &cfgPath))
	root.AddCommand(newServeCmd(logger, &cfgPath))
	root.AddCommand(newVersionCmd())
	return root
}

func coreLogger(logger pslog.Logger) termloom.Logger {
	return termloom.NewPslogLogger(logger)
}
