package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"qcgen/adapters/rng"
	"qcgen/adapters/synth"
	"qcgen/adapters/westgard"
	"qcgen/app"
	"qcgen/internal"
	"qcgen/internal/config"
)

// env is what every subcommand needs once configuration is loaded
type env struct {
	config    *config.Config
	presets   *config.Presets
	qc        *app.QCService
	simulator *app.Simulator
	logger    *internal.Logger
}

func main() {
	e := &env{}

	rootCmd := &cobra.Command{
		Use:           "qcgen",
		Short:         "Synthesize laboratory QC data and evaluate Westgard rules",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.load()
		},
	}

	rootCmd.AddCommand(
		newGenerateCmd(e),
		newEvaluateCmd(e),
		newExportCmd(e),
		newReportCmd(e),
		newTypeCmd(e),
		newSimulateCmd(e),
		newPresetsCmd(e),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (e *env) load() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	presets, err := cfg.LoadPresetsOrBuiltin()
	if err != nil {
		return err
	}

	// log output goes to stderr, stdout carries only values and reports
	level, _ := internal.ParseLogLevel(cfg.Log.Level)
	logger := internal.NewLogger(level)

	generator := synth.NewGenerator()
	engine := westgard.NewEngine(logger)
	rngPort := rng.NewAdapter()

	e.config = cfg
	e.presets = presets
	e.logger = logger
	e.qc = app.NewQCService(generator, engine, rngPort, logger)
	e.simulator = app.NewSimulator(generator, engine, rngPort, cfg.Simulation.MaxRuns, cfg.Simulation.MaxWorkers, logger)
	return nil
}
