// Package cli provides the tapestry command-line interface.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matthewbaird/tapestry/internal/config"
	"github.com/matthewbaird/tapestry/internal/logging"
)

// Version is set at build time.
var Version = "0.1.0"

type rootState struct {
	cfgFile string
	cfg     *config.Config
	log     *zap.Logger
}

// NewRootCmd creates the root command with all subcommands registered.
func NewRootCmd() *cobra.Command {
	state := &rootState{}

	rootCmd := &cobra.Command{
		Use:   "tapestry",
		Short: "Tapestry - editable markdown views over a graph store",
		Long: `Tapestry renders graph entities through markdown view templates and
syncs edits made to the rendered text back into graph mutations.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.Load(state.cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			state.cfg = cfg

			log, err := logging.NewCLI(cfg.LogLevel)
			if err != nil {
				return err
			}
			state.log = log
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if state.log != nil {
				_ = state.log.Sync()
			}
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&state.cfgFile, "config", "", "config file (default: ./tapestry.yaml)")
	pf.String("origin", "", "entity URL origin (default graph://local)")
	pf.String("views-dir", "", "path to the views directory")
	pf.String("schema-path", "", "path to the relationship schema file")
	pf.String("listen", "", "listen address for serve (default :8080)")
	pf.String("log-level", "", "log level (debug|info|warn|error)")
	pf.String("store-driver", "", "graph store driver (memory|sqlite)")
	pf.String("store-dsn", "", "graph store DSN for the sqlite driver")

	rootCmd.AddCommand(
		newServeCmd(state),
		newViewsCmd(state),
		newRenderCmd(state),
		newSyncCmd(state),
		newInitCmd(),
		newDemoCmd(state),
	)
	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
		return err
	}
	return nil
}
