package main

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/article-crawler/pkg/config"
	"github.com/user/article-crawler/pkg/logger"
)

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string
	debug   bool

	rootCmd = &cobra.Command{
		Use:           "article-crawler",
		Short:         "Crawls 51CTO open source articles and serves them over HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
)

// Execute runs the root command. Without a subcommand it serves the API.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(crawlCmd)
}

// setup loads .env, the configuration and the logger shared by every command.
func setup() (*config.Config, *zap.Logger, error) {
	// A missing .env file is fine, the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("could not load config: %w", err)
	}
	level := cfg.Server.LogLevel
	if debug {
		level = "debug"
	}
	log, err := logger.New(level, cfg.Server.LogFormat)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}
