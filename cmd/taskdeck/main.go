package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/idilsaglam/taskdeck/internal/cli"
	"github.com/idilsaglam/taskdeck/internal/config"
	"github.com/idilsaglam/taskdeck/internal/storage"
	"github.com/idilsaglam/taskdeck/internal/task"
	"github.com/idilsaglam/taskdeck/internal/ui"
)

func main() {
	// Root flags (apply to every subcommand)
	groupPending := flag.Bool("group", false, "group output by pending/done")
	dataDir := flag.String("data", "", "data directory (default from config/env)")
	theme := flag.String("theme", "", "color theme: classic, neon or mono")
	noColor := flag.Bool("no-color", false, "disable colored output")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *theme != "" {
		cfg.Theme = *theme
	}

	ui.SetColorForcing(false, *noColor)
	ui.SetTheme(cfg.Theme)

	logger := log.New(os.Stderr, "", log.LstdFlags)

	// A store that cannot come up degrades the whole session to memory-only
	// instead of refusing to start.
	var store storage.Store
	fs, err := storage.NewFileStore(cfg.DataDir, storage.DefaultQuota)
	if err != nil {
		logger.Printf("storage unavailable, running memory-only: %v", err)
		store = storage.NewMemStore(storage.DefaultQuota)
	} else {
		store = fs
	}

	mgr := task.New(task.Config{Store: store, Logger: logger})
	mgr.Load()

	// Hand the remaining args to the CLI runner.
	args := flag.Args()
	if len(args) == 0 {
		cli.PrintHelp()
		os.Exit(2)
	}

	runner := cli.NewRunner(mgr, cli.Options{Group: *groupPending})
	code := runner.Run(args)
	if code != 0 {
		fmt.Fprintln(os.Stderr)
	}
	os.Exit(code)
}
