package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mordilloSan/go_logger/logger"

	"github.com/mordilloSan/staticserver/cmd"
	"github.com/mordilloSan/staticserver/internal/version"
)

func main() {
	defaults := cmd.DefaultServerConfig()
	var (
		host          = flag.String("host", defaults.Host, "Host to bind")
		port          = flag.Int("port", defaults.Port, "TCP port to listen on")
		root          = flag.String("root", "", "Directory to serve (overrides STATICSERVER_ROOT, default ./static)")
		templatePath  = flag.String("template", "", "Listing template file (default: embedded template)")
		watchTemplate = flag.Bool("watch-template", false, "Recompile the listing template when its file changes")
		hideDotfiles  = flag.Bool("hide-dotfiles", false, "Omit dotfiles from directory listings")
		accessDB      = flag.String("access-db", "", "SQLite access log path (overrides STATICSERVER_ACCESS_DB); empty disables")
		retention     = flag.String("access-retention", "0", "Prune access records older than this on startup (Go duration); 0 keeps everything")
		statsMode     = flag.Bool("stats", false, "Print an access log summary and exit")
		statsTop      = flag.Int("stats-top", 10, "Number of paths in the -stats summary")
		showVersion   = flag.Bool("version", false, "Print version and exit")
		verbose       = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	logger.Init("production", *verbose)

	accessVal := coalesce(*accessDB, os.Getenv("STATICSERVER_ACCESS_DB"))

	if *statsMode {
		cmd.RunStatsMode(accessVal, *statsTop)
		return
	}

	maxAge, err := parseRetention(*retention)
	if err != nil {
		logger.Warnf("Invalid retention %q, keeping all access records: %v", *retention, err)
		maxAge = 0
	}

	cfg := cmd.ServerConfig{
		Host:          *host,
		Port:          *port,
		Root:          coalesce(*root, os.Getenv("STATICSERVER_ROOT"), defaults.Root),
		TemplatePath:  *templatePath,
		WatchTemplate: *watchTemplate,
		HideDotfiles:  *hideDotfiles,
		AccessDBPath:  accessVal,
		AccessMaxAge:  maxAge,
	}

	s, err := cmd.NewServer(cfg)
	if err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
	defer s.Close()

	eff := s.Config()
	accessDisplay := eff.AccessDBPath
	if accessDisplay == "" {
		accessDisplay = "disabled"
	}
	templateDisplay := eff.TemplatePath
	if templateDisplay == "" {
		templateDisplay = "embedded"
	}
	logger.Infof("%s initialized root=%s addr=%s template=%s watch=%t accessLog=%s",
		version.String(), eff.Root, s.Addr(), templateDisplay, eff.WatchTemplate, accessDisplay)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Run(ctx)
	}()

	select {
	case sig := <-sigCh:
		logger.Infof("Received signal %v, initiating graceful shutdown...", sig)
		cancel()
		if err := <-errCh; err != nil {
			logger.Warnf("Server stopped with error: %v", err)
		}
	case err := <-errCh:
		if err != nil {
			s.Close()
			logger.Fatalf("Server exited with error: %v", err)
		}
	}

	logger.Infof("Shutdown complete")
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func parseRetention(s string) (time.Duration, error) {
	if s == "" || s == "0" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
