package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"studio-cms/internal/cms/adapter/persistence"
	cmsconfig "studio-cms/internal/cms/config"
	"studio-cms/internal/shared/logger"

	"github.com/joho/godotenv"
)

const usage = `Usage: migrate [flags] <command>

Commands:
  to-remote        copy every local collection file into the configured remote store
  taxonomy         rebuild settings.taxonomy from project services and categories
  taxonomy-report  list tags whose names hold several comma-separated tags

Flags:
`

func main() {
	dataDir := flag.String("data-dir", "", "collection directory (overrides DATA_DIR)")
	envFile := flag.String("env-file", ".env.local", "dotenv file loaded before .env")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	for _, file := range []string{*envFile, ".env"} {
		if err := godotenv.Load(file); err != nil && !os.IsNotExist(err) {
			log.Printf("Warning: Could not load %s: %v", file, err)
		}
	}

	cfg, err := cmsconfig.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load storage configuration: %v", err)
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appLogger := logger.NewLogger().WithComponent("migrate")
	store := persistence.NewAdapter(ctx, cfg, appLogger, nil)
	defer store.Close()

	m := NewMigrator(store, os.Stdout, appLogger)
	if err := m.Run(ctx, flag.Arg(0)); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
}
