package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/andrelcunha/oxidedb/internal/core/server"
	"github.com/andrelcunha/oxidedb/internal/core/store"
	"github.com/andrelcunha/oxidedb/internal/observability"
)

var version string = "v0.1.0"

func main() {
	if err := newApp(run).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newApp(action cli.ActionFunc) *cli.App {
	return &cli.App{
		Name:    "oxidedb-server",
		Usage:   "in-memory key-value server speaking RESP3",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config file"},
			&cli.StringFlag{Name: "host", Usage: "listen host"},
			&cli.StringFlag{Name: "port", Aliases: []string{"p"}, Usage: "listen port"},
			&cli.StringFlag{Name: "docs", Usage: "RESP file served for COMMAND DOCS"},
			&cli.StringFlag{Name: "log-level", Usage: "trace, debug, info, warn or error"},
			&cli.StringFlag{Name: "log-format", Usage: "console or json"},
			&cli.StringFlag{Name: "metrics-addr", Usage: "address for the Prometheus endpoint, empty to disable"},
		},
		Action: action,
	}
}

func run(c *cli.Context) error {
	// Load .env file
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "Error loading .env file, using default values:", err)
	}

	config, err := loadConfig(c)
	if err != nil {
		return err
	}

	logger, err := observability.InitLogger("oxidedb", config.LogLevel, config.LogFormat)
	if err != nil {
		return err
	}

	docs, err := server.LoadDocs(config.DocsPath)
	if err != nil {
		return err
	}

	if config.LogFormat == "console" {
		fmt.Println(server.AsciiLogo())
	}
	srv := server.NewServer(config, store.New(), docs, logger)

	// Cancelled when a termination signal is received
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		logger.Info().Msg("shutting down")
		srv.Shutdown()
		return nil
	})

	if config.MetricsAddr != "" {
		metrics := &http.Server{
			Addr:              config.MetricsAddr,
			Handler:           observability.MetricsHandler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info().Str("addr", config.MetricsAddr).Msg("metrics endpoint listening")
			if err := metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return metrics.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}

// loadConfig layers defaults, the optional YAML file, OXIDEDB_* variables and
// finally command line flags.
func loadConfig(c *cli.Context) (*server.Config, error) {
	config := server.NewConfig()
	config.Version = version

	if path := c.String("config"); path != "" {
		if err := config.LoadFile(path); err != nil {
			return nil, err
		}
	}
	if err := config.LoadFromEnv(); err != nil {
		return nil, err
	}

	overrides := map[string]*string{
		"host":         &config.Host,
		"port":         &config.Port,
		"docs":         &config.DocsPath,
		"log-level":    &config.LogLevel,
		"log-format":   &config.LogFormat,
		"metrics-addr": &config.MetricsAddr,
	}
	for flag, field := range overrides {
		if c.IsSet(flag) {
			*field = c.String(flag)
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}
