package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/imagefeed/imagefeed-core/internal/config"
	"github.com/imagefeed/imagefeed-core/internal/logger"
)

// app carries what every subcommand needs once the root has run.
type app struct {
	configPath string
	cfg        *config.Config
	logger     *slog.Logger
	logCloser  io.Closer
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "imagefeed",
		Short:         "imagefeed login and development authorization server",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger, a.logCloser = logger.New(logger.Config{
				Level:  cfg.LogLevel,
				Format: cfg.LogFormat,
				File:   cfg.LogFile,
				Output: cmd.ErrOrStderr(),
			})
			slog.SetDefault(a.logger)
			a.logger.Debug("loaded config", "config", cfg.String())
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if a.logCloser != nil {
				return a.logCloser.Close()
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default: ./imagefeed.yaml)")

	root.AddCommand(
		newLoginCmd(a),
		newDevAuthCmd(a),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		// Skip config loading.
		PersistentPreRun: func(*cobra.Command, []string) {},
		PersistentPostRun: func(*cobra.Command, []string) {},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "imagefeed %s\n", version)
		},
	}
}

// validated returns the loaded config after validation.
func (a *app) validated() (*config.Config, error) {
	if err := config.Validate(a.cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return a.cfg, nil
}
