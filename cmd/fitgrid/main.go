// Package main implements the fitgrid binary: it decodes FIT activity
// files into tables, builds SQLite partitions, and uploads them to object
// storage. "list" prints the catalog of previously exported activities.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fitgrid/fitgrid/internal/app"
	"github.com/fitgrid/fitgrid/internal/config"
	"github.com/fitgrid/fitgrid/internal/logging"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	var (
		configFile  string
		dataDir     string
		mode        string
		normalize   string
		storageType string
		bucket      string
		logLevel    string
		showVersion bool
	)

	flag.StringVar(&configFile, "config", "", "Path to configuration file (YAML or JSON)")
	flag.StringVar(&dataDir, "data-dir", "", "Base directory for catalog and partition files")
	flag.StringVar(&mode, "mode", "", "Run mode: export, inspect, list")
	flag.StringVar(&normalize, "normalize", "", "GPS normalization policy: skip, strict")
	flag.StringVar(&storageType, "storage", "", "Storage type: local, s3")
	flag.StringVar(&bucket, "bucket", "", "S3 bucket name")
	flag.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flag.BoolVar(&showVersion, "version", false, "Show version information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "fitgrid - FIT activity decoder and partition exporter\n\n")
		fmt.Fprintf(os.Stderr, "Usage: fitgrid [options] [file.fit ...]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  fitgrid morning_run.fit\n")
		fmt.Fprintf(os.Stderr, "  fitgrid --mode inspect ride.fit\n")
		fmt.Fprintf(os.Stderr, "  fitgrid --storage s3 --bucket my-activities *.fit\n")
		fmt.Fprintf(os.Stderr, "  fitgrid --mode list\n")
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  FITGRID_MODE          Run mode (export, inspect, list)\n")
		fmt.Fprintf(os.Stderr, "  FITGRID_DATA_DIR      Base directory for catalog and partitions\n")
		fmt.Fprintf(os.Stderr, "  FITGRID_NORMALIZE     GPS normalization policy (skip, strict)\n")
		fmt.Fprintf(os.Stderr, "  FITGRID_S3_BUCKET     S3 bucket name\n")
		fmt.Fprintf(os.Stderr, "  FITGRID_LOG_LEVEL     Log level\n")
	}
	flag.Parse()

	if showVersion {
		fmt.Printf("fitgrid %s (%s)\n", version, commit)
		return
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Flags override file and environment.
	if mode != "" {
		cfg.Mode = config.Mode(mode)
	}
	if dataDir != "" {
		// Rebase derived paths under the new data directory.
		cfg.DataDir = dataDir
		cfg.Storage.Path = ""
		cfg.Export.PartitionDir = ""
		cfg.Resolve()
	}
	if normalize != "" {
		cfg.Normalize = normalize
	}
	if storageType != "" {
		cfg.Storage.Type = storageType
	}
	if bucket != "" {
		cfg.Storage.S3.Bucket = bucket
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Errorf("startup failed: %v", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := a.Run(ctx, flag.Args()); err != nil {
		log.Errorf("run failed: %v", err)
		os.Exit(1)
	}
}
