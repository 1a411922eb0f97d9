// Simd is the daemon that runs a constellation simulation: it loads a
// scenario JSON document, builds the node/model tree it describes, serves
// the runtime control API over HTTP/WebSocket, and drives the Manager's
// step loop to completion. Shutdown is handled gracefully on SIGINT or
// SIGTERM.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/orbitfold/constellation-sim/internal/app"
	"github.com/orbitfold/constellation-sim/internal/config"
)

func main() {
	var (
		configPath = pflag.StringP("config", "c", "", "Path to ops config TOML (auto-discovers if omitted)")
		bind       = pflag.String("bind", "", "HTTP bind address, overrides config")
	)
	pflag.Parse()

	if pflag.NArg() != 1 {
		log.Fatalf("usage: simd [flags] <scenario.json>")
	}
	scenarioPath := pflag.Arg(0)

	cfgFile := *configPath
	if cfgFile == "" {
		cfgFile = config.FindConfigFile()
	}

	logger := log.New(os.Stdout, "simd ", log.LstdFlags|log.Lmicroseconds)

	var cfg config.Config
	if cfgFile == "" {
		cfg = config.Default()
		logger.Printf("no ops config found, using defaults")
		logger.Printf("create %s/simd.toml to customize", config.DefaultConfigDir())
	} else {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			log.Fatalf("ops config load failed: %v", err)
		}
		logger.Printf("loaded ops config from %s", cfgFile)
	}

	if err := config.EnsureDirectories(cfg); err != nil {
		log.Fatalf("directory setup: %v", err)
	}

	a := app.New(app.Options{
		Logger:       logger,
		Cfg:          cfg,
		Bind:         *bind,
		ScenarioPath: scenarioPath,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("simd failed: %v", err)
	}

	// Brief pause so in-flight log writes can flush before exit.
	time.Sleep(50 * time.Millisecond)
}
