package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/article-crawler/internal/delivery/http/response"
)

var maxPages int

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Run one crawl and print the resulting cache status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCrawl(cmd.Context(), maxPages)
	},
}

func init() {
	crawlCmd.Flags().IntVar(&maxPages, "max-pages", 0, "listing pages to crawl (default from config)")
}

func runCrawl(ctx context.Context, pages int) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	status, err := a.service.RunNow(ctx, pages)
	if err != nil {
		logger.Error("crawl failed", zap.Error(err))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(response.NewCacheStatus(status)); encErr != nil {
		return encErr
	}
	return err
}
