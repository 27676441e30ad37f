package main

import (
	"errors"
	"os"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"pkt.systems/pslog"

	"github.com/termloom/termloom"
	"github.com/termloom/termloom/internal/tui"
	"github.com/termloom/termloom/plainengine"
	"github.com/termloom/termloom/ptyjob"
)

func newRunCmd(logger pslog.Logger, cfgPath *string) *cobra.Command {
	var sizeSpec string
	var name string
	var dir string
	var indexDir string
	cmd := &cobra.Command{
		Use:   "run [flags] [--] [command args...]",
		Short: "Run a command in a managed session in this terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !term.IsTerminal(int(os.Stdin.Fd())) {
				return errors.New("run requires a terminal on stdin")
			}
			cfg, err := loadConfig(*cfgPath)
			if err != nil {
				return err
			}
			if sizeSpec == "" {
				sizeSpec = cfg.Size
			}
			size, err := termloom.ParseSizeSpec(sizeSpec)
			if err != nil {
				return err
			}
			if indexDir == "" {
				indexDir = cfg.IndexDir
			}

			starter := &ptyjob.Starter{
				Logger: coreLogger(logger),
				Shell:  cfg.Shell,
				Term:   cfg.Term,
			}
			return tui.Run(tui.Config{
				Logger: coreLogger(logger),
				Manager: termloom.ManagerConfig{
					NewEngine:       plainengine.New,
					StartJob:        starter.Start,
					Logger:          coreLogger(logger),
					LightBackground: cfg.LightBackground,
					Env:             cfg.Env,
					SearchIndexDir:  indexDir,
				},
				Caps:    hostColorCaps(),
				Command: args,
				Dir:     dir,
				Name:    name,
				Size:    size,
			})
		},
	}
	cmd.Flags().StringVarP(&sizeSpec, "size", "s", "", `session size as "rows x cols"; nonzero dimensions are pinned`)
	cmd.Flags().StringVar(&name, "name", "", "session name (default derived from the command)")
	cmd.Flags().StringVar(&dir, "dir", "", "working directory for the command")
	cmd.Flags().StringVar(&indexDir, "index-dir", "", "directory for scrollback search indexes")
	return cmd
}

// hostColorCaps maps the calling terminal's color profile onto the
// capability model attribute mapping works from.
func hostColorCaps() termloom.ColorCaps {
	switch termenv.EnvColorProfile() {
	case termenv.TrueColor:
		return termloom.ColorCaps{TrueColor: true}
	case termenv.ANSI256:
		return termloom.ColorCaps{Palette: 256}
	case termenv.ANSI:
		return termloom.ColorCaps{Palette: 16}
	default:
		return termloom.ColorCaps{Palette: 8}
	}
}
