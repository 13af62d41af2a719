package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	cli "github.com/urfave/cli/v2"

	"github.com/makolaonline/whatsapp-router/internal/adapter/broker"
	"github.com/makolaonline/whatsapp-router/internal/adapter/whatsapp"
	"github.com/makolaonline/whatsapp-router/internal/config"
	"github.com/makolaonline/whatsapp-router/internal/domain"
	"github.com/makolaonline/whatsapp-router/internal/hub"
	"github.com/makolaonline/whatsapp-router/internal/repository"
	"github.com/makolaonline/whatsapp-router/internal/service"
	server "github.com/makolaonline/whatsapp-router/internal/transport/http"
	"github.com/makolaonline/whatsapp-router/internal/transport/ws"
	"github.com/makolaonline/whatsapp-router/policy"
)

var version = "0.1.0"

func main() {
	app := &cli.App{
		Name:  "whatsapp-router",
		Usage: "WhatsApp command router for seller uploads and rider deliveries",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a YAML config file",
				EnvVars: []string{"CONFIG_FILE"},
			},
		},
		Action: runServeCommand,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the webhook and API server",
				Action: runServeCommand,
			},
			{
				Name:   "migrate",
				Usage:  "Create or upgrade the database schema",
				Action: runMigrateCommand,
			},
			{
				Name:  "seed",
				Usage: "Load sellers, riders and jobs from a YAML file",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "seed file", Required: true},
				},
				Action: runSeedCommand,
			},
			{
				Name:  "watch",
				Usage: "Print live job events from a running router",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "addr", Value: "ws://localhost:8080/v1/ws/jobs", Usage: "job feed address"},
					&cli.StringFlag{Name: "channel", Value: hub.BoardChannel, Usage: "board or a rider id"},
				},
				Action: runWatchCommand,
			},
			{
				Name:   "version",
				Usage:  "Show version",
				Action: runVersionCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func loadConfig(c *cli.Context) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, err
	}
	logger := newLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func newLogger(level, format string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func runServeCommand(c *cli.Context) error {
	cfg, logger, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting whatsapp router", "port", cfg.HTTPPort, "database", cfg.DatabaseURL)

	// Initialize store
	db, err := repository.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer db.Close()

	// Initialize policy engine
	policyEngine, err := policy.NewEngineFromFile(ctx, cfg.PolicyFile)
	if err != nil {
		return fmt.Errorf("failed to initialize policy engine: %w", err)
	}

	// Initialize messenger
	messenger := whatsapp.NewMessenger(cfg.APIBase, cfg.PhoneNumberID, cfg.AccessToken, cfg.SendTimeout, logger)
	logger.Info("messenger ready", "cloud_api", cfg.CloudAPIEnabled())

	// Initialize job event fan-out
	feedHub := hub.NewHub(logger)
	go feedHub.Run(ctx)

	var publisher broker.Publisher = broker.NopPublisher{}
	if cfg.AMQPURL != "" {
		publisher, err = broker.New(ctx, broker.ConnectionOptions{
			URL:           cfg.AMQPURL,
			RetryAttempts: 5,
			Delay:         time.Second,
			Logger:        logger,
		}, cfg.AMQPExchange)
		if err != nil {
			return fmt.Errorf("failed to connect to broker: %w", err)
		}
		logger.Info("publishing job events", "exchange", cfg.AMQPExchange)
	}
	defer publisher.Close()

	// Initialize service
	svc := service.New(db, messenger, policyEngine, logger, feedHub, broker.NewNotifier(publisher, logger))

	// Initialize servers
	feed := ws.NewServer(ws.Options{
		PingInterval: cfg.WSPingInterval,
		WriteTimeout: cfg.WSWriteTimeout,
		ReadTimeout:  cfg.WSReadTimeout,
	}, feedHub, logger)
	e := server.NewServer(svc, feed, server.Options{
		VerifyToken: cfg.VerifyToken,
		AppSecret:   cfg.AppSecret,
		Logger:      logger,
	})

	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	logger.Info("server started", "port", cfg.HTTPPort)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	}

	logger.Info("shutting down whatsapp router")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server gracefully", "error", err)
	}

	logger.Info("whatsapp router stopped")
	return nil
}

func runMigrateCommand(c *cli.Context) error {
	cfg, logger, err := loadConfig(c)
	if err != nil {
		return err
	}
	db, err := repository.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	defer db.Close()
	logger.Info("schema up to date", "database", cfg.DatabaseURL)
	return nil
}

func runSeedCommand(c *cli.Context) error {
	cfg, logger, err := loadConfig(c)
	if err != nil {
		return err
	}
	seed, err := loadSeedFile(c.String("file"))
	if err != nil {
		return err
	}

	db, err := repository.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer db.Close()

	svc := service.New(db, whatsapp.NewLogMessenger(logger), nil, logger)
	res, err := applySeed(c.Context, db, svc, seed)
	if err != nil {
		return err
	}
	logger.Info("seed loaded", "sellers", res.Sellers, "riders", res.Riders, "jobs", res.Jobs)
	return nil
}

func runWatchCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := ws.Dial(ctx, c.String("addr"), c.String("channel"))
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		client.Close()
	}()
	fmt.Printf("Subscribed to %s\n", client.Channel)

	for {
		update, err := client.Next()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read job feed: %w", err)
		}
		status, rider := "", "-"
		if update.Job != nil {
			status = string(update.Job.Status)
			if update.Job.RiderID != nil {
				rider = *update.Job.RiderID
			}
		}
		fmt.Printf("[%s] %s job=%s rider=%s status=%s\n",
			time.UnixMilli(update.Event.Ts).Format(time.Kitchen), update.Event.Type,
			domain.ShortID(update.Event.JobID), rider, status)
	}
}

func runVersionCommand(c *cli.Context) error {
	fmt.Println(version)
	return nil
}
