package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"

	"albion-trader/internal/albion"
	"albion-trader/internal/api"
	"albion-trader/internal/catalog"
	"albion-trader/internal/config"
	"albion-trader/internal/db"
	"albion-trader/internal/engine"
	"albion-trader/internal/logger"
)

var version = "dev"

func main() {
	cfg := config.Load()

	port := flag.Int("port", cfg.Port, "HTTP server port")
	warm := flag.Bool("warm", true, "refresh every category once at startup")
	flag.Parse()

	logger.SetLevel(cfg.LogLevel)
	logger.Banner(version)

	// Journal lives only as long as the process
	database, err := db.Open(db.MemoryDSN)
	if err != nil {
		logger.Error("DB", fmt.Sprintf("Failed to open database: %v", err))
		os.Exit(1)
	}
	defer database.Close()

	client := albion.NewClient(cfg.APIBaseURL, cfg.RequestTimeout, cfg.RequestsPerSecond)
	cat := catalog.New(cfg)
	scanner := engine.NewScanner(cfg, cat, client)
	scanner.Journal = database

	logger.Section("Configuration")
	logger.Stats("upstream", cfg.APIBaseURL)
	logger.Stats("categories", len(cat.Categories()))
	logger.Stats("quote_refresh", cfg.QuoteRefreshInterval)
	logger.Stats("history_ttl", cfg.HistoryTTL)

	if *warm {
		go func() {
			for _, v := range scanner.ScanAll(context.Background()) {
				if v.Warning != "" {
					logger.Warn("SCAN", fmt.Sprintf("%s: %s", v.Category, v.Warning))
					continue
				}
				logger.Success("SCAN", fmt.Sprintf("%s: %d items", v.Category, len(v.Items)))
			}
		}()
	}

	srv := api.NewServer(cfg, scanner, database, client)

	addr := fmt.Sprintf("127.0.0.1:%d", *port)
	logger.Server(addr)
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		logger.Error("Server", fmt.Sprintf("Failed: %v", err))
		os.Exit(1)
	}
}
