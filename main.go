package main

import (
	"log"

	"github.com/joho/godotenv"

	"qcgen/adapters/rng"
	"qcgen/adapters/synth"
	"qcgen/adapters/westgard"
	"qcgen/app"
	"qcgen/internal"
	"qcgen/internal/config"
	"qcgen/ui"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load application configuration
	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	level, _ := internal.ParseLogLevel(appConfig.Log.Level)
	logger := internal.NewLogger(level)

	presets, err := appConfig.LoadPresetsOrBuiltin()
	if err != nil {
		log.Fatalf("Failed to load presets: %v", err)
	}

	// Wire adapters into the services
	generator := synth.NewGenerator()
	engine := westgard.NewEngine(logger)
	rngPort := rng.NewAdapter()

	qcService := app.NewQCService(generator, engine, rngPort, logger)
	simulator := app.NewSimulator(generator, engine, rngPort,
		appConfig.Simulation.MaxRuns, appConfig.Simulation.MaxWorkers, logger)

	server := ui.NewApp(ui.Config{
		Port:     appConfig.Server.Port,
		Defaults: appConfig.DefaultParams(),
		Lenient:  appConfig.QC.LenientDistribution,
	}, qcService, simulator, presets, logger)

	if err := server.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
