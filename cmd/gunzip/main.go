package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/secDre4mer/go-inflate/config"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Println("ERROR: ", err)
		os.Exit(1)
	}

	logrus.SetLevel(cfg.LogLevel())
	if cfg.CLI.Debug {
		logrus.Info("debug mode enabled")
		displayConfig(cfg)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, err := newGunzipper(cfg, os.Stdout)
	if err != nil {
		logrus.Errorf("unable to create decoder: %s", err)
		os.Exit(1)
	}

	if err := g.Run(ctx, cfg.CLI.Files); err != nil {
		logrus.Errorf("error during gunzip run: %s", err)
		os.Exit(1)
	}
}

func displayConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}

	logrus.Info("gunzip settings:")
	logrus.Info("  [CLI]")
	logrus.Infof("  version: %s", config.VERSION)
	logrus.Infof("  debug: %v", cfg.CLI.Debug)
	logrus.Infof("  config file: %s", cfg.CLI.ConfigFile)
	logrus.Infof("  stdout: %v", cfg.CLI.Stdout)
	logrus.Infof("  keep: %v", cfg.CLI.Keep)
	logrus.Infof("  force: %v", cfg.CLI.Force)
	logrus.Infof("  output dir: %s", cfg.CLI.OutputDir)
	logrus.Infof("  verbose header: %v", cfg.CLI.VerboseHeader)
	logrus.Info("")
	logrus.Info("  [CONFIG]")
	logrus.Infof("  config.num_workers: %d", cfg.TOML.Config.NumWorkers)
	logrus.Infof("  config.log_level: %s", cfg.TOML.Config.LogLevel)
	logrus.Info("")
	logrus.Info("  [DECODER]")
	logrus.Infof("  decoder.max_output_size: %d", cfg.TOML.Decoder.MaxOutputSize)
	logrus.Infof("  decoder.tree_cache_size: %d", cfg.TOML.Decoder.TreeCacheSize)
	logrus.Infof("  decoder.disable_tree_cache: %v", cfg.TOML.Decoder.DisableTreeCache)
	logrus.Infof("  decoder.dynamic_only: %v", cfg.TOML.Decoder.DynamicOnly)
}
