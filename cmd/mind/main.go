package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/cosmicmind/internal/config"
	"github.com/danielpatrickdp/cosmicmind/internal/logging"
)

var (
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
)

// #region commands
var rootCmd = &cobra.Command{
	Use:   "mind",
	Short: "CosmicMind - a cognitive state engine with peer knowledge sharing",
	Long: `CosmicMind turns text events into frames, derives truths and hypotheses
from recurring patterns, steers goals, and shares truths with peer agents.

Run without arguments to start the interactive agent.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		logger, err = logging.New(level, cfg.Logging.JSON)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runAgent,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the agent: shell, autonomous cycles, and peer server",
	Args:  cobra.NoArgs,
	RunE:  runAgent,
}

var inspectCmd = &cobra.Command{
	Use:       "inspect [summary|truths|frames]",
	Short:     "Print the persisted state without starting the agent",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"summary", "truths", "frames"},
	RunE:      runInspect,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List archived snapshot versions and reflections",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

var replayCmd = &cobra.Command{
	Use:   "replay <fixture.json>",
	Short: "Replay a scripted fixture against a fresh agent and check expectations",
	Args:  cobra.ExactArgs(1),
	RunE:  runReplay,
}

// #endregion commands

// #region main
func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to mind.yaml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log engine events at debug level")
	historyCmd.Flags().IntVar(&historyLimit, "last", 20, "show N most recent versions")

	rootCmd.AddCommand(runCmd, inspectCmd, historyCmd, replayCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// #endregion main
