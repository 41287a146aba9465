package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/idilsaglam/tada/internal/cli"
	"github.com/idilsaglam/tada/internal/config"
	"github.com/idilsaglam/tada/internal/logging"
	"github.com/idilsaglam/tada/internal/ui"
)

func main() {
	flag.Usage = cli.PrintHelp

	// Root flags (apply to every subcommand)
	cfg, args, err := config.Load(flag.CommandLine, os.Args[1:])
	if err != nil {
		ui.Fail(err.Error())
		os.Exit(2)
	}
	ui.SetTheme(cfg.Theme)

	logger, closer, err := logging.Open(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		// keep going without a log file
		logger = logging.Discard()
		ui.Hint("logging disabled: " + err.Error())
	}
	logger.Debug("starting", "args", args, "backend", cfg.Backend, "config", cfg.File)

	code := cli.Run(args, cli.Options{
		Group:  cfg.Group,
		Config: cfg,
		Logger: logger,
	})
	if code != 0 {
		fmt.Fprintln(os.Stderr)
		logger.Info("exit", "code", code)
	}
	if closer != nil {
		closer.Close()
	}
	os.Exit(code)
}
