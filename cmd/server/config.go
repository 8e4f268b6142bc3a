package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"inktycoon.dev/internal/persistence/kvstore"
)

// envConfig supplies flag defaults so the same binary runs from a shell or
// a container env file.
type envConfig struct {
	Addr        string        `env:"INK_ADDR" envDefault:":8080"`
	DataDir     string        `env:"INK_DATA_DIR" envDefault:"./data"`
	CatalogDir  string        `env:"INK_CATALOG_DIR"`
	TuningPath  string        `env:"INK_TUNING"`
	Driver      string        `env:"INK_STORE_DRIVER" envDefault:"fs"`
	SaveKey     string        `env:"INK_SAVE_KEY" envDefault:"tattoo-tycoon-save"`
	Seed        uint64        `env:"INK_SEED"`
	DisableLogs bool          `env:"INK_DISABLE_LOGS"`
	AdminHTTP   bool          `env:"INK_ENABLE_ADMIN_HTTP" envDefault:"true"`
	Shutdown    time.Duration `env:"INK_SHUTDOWN_TIMEOUT" envDefault:"5s"`

	S3 kvstore.S3Env
}

type serverConfig struct {
	Addr        string
	DataDir     string
	CatalogDir  string
	TuningPath  string
	SaveKey     string
	Seed        uint64
	DisableLogs bool
	AdminHTTP   bool
	Shutdown    time.Duration
	Store       kvstore.Options
}

func parseConfig(fs *flag.FlagSet, args []string) (serverConfig, error) {
	var e envConfig
	if err := env.Parse(&e); err != nil {
		return serverConfig{}, fmt.Errorf("parse env: %w", err)
	}

	var (
		cfg    serverConfig
		driver string
	)
	fs.StringVar(&cfg.Addr, "addr", e.Addr, "http listen address")
	fs.StringVar(&cfg.DataDir, "data", e.DataDir, "runtime data directory (saves, logs)")
	fs.StringVar(&cfg.CatalogDir, "catalogs", e.CatalogDir, "catalog directory (default: embedded catalogs)")
	fs.StringVar(&cfg.TuningPath, "tuning", e.TuningPath, "path to tuning.yaml (default: embedded tuning)")
	fs.StringVar(&driver, "store", e.Driver, "save store driver: fs|sqlite|s3|memory")
	fs.StringVar(&cfg.SaveKey, "save_key", e.SaveKey, "save slot key")
	fs.Uint64Var(&cfg.Seed, "seed", e.Seed, "rng seed (0 = time based)")
	fs.BoolVar(&cfg.DisableLogs, "disable_logs", e.DisableLogs, "disable tick/intent jsonl logs")
	fs.BoolVar(&cfg.AdminHTTP, "admin_http", e.AdminHTTP, "enable loopback-only admin endpoints")
	fs.DurationVar(&cfg.Shutdown, "shutdown_timeout", e.Shutdown, "graceful shutdown timeout")
	if err := fs.Parse(args); err != nil {
		return serverConfig{}, err
	}

	cfg.Store = kvstore.Options{Driver: kvstore.Driver(driver), Dir: cfg.DataDir}
	e.S3.Apply(&cfg.Store)
	switch cfg.Store.Driver {
	case kvstore.DriverFS, kvstore.DriverSQLite, kvstore.DriverS3, kvstore.DriverMemory:
	default:
		return serverConfig{}, fmt.Errorf("unknown store driver %q", driver)
	}
	if cfg.SaveKey == "" {
		return serverConfig{}, fmt.Errorf("save key must not be empty")
	}
	return cfg, nil
}
