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

	"embeddables/internal/app/provider"
	"embeddables/internal/app/service"
	"embeddables/internal/client"
	"embeddables/internal/config"
	"embeddables/internal/domain/entity"
	"embeddables/internal/infrastructure/cache"
	"embeddables/internal/infrastructure/configloader"
	"embeddables/internal/infrastructure/restapi"
	"embeddables/internal/pkg/logger"
	"embeddables/internal/pkg/metrics"
	"embeddables/internal/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

var flagSettings = &cli.StringFlag{
	Name:    "settings",
	Usage:   "path to the YAML settings file",
	EnvVars: []string{"CONFIG_PATH"},
	Value:   "config/settings.yml",
}

func main() {
	app := &cli.App{
		Name:                 "embeddables",
		Usage:                "Configuration and query gateway for Andromeda embeddable widgets",
		EnableBashCompletion: true,
		Flags:                []cli.Flag{flagSettings},
		Commands: []*cli.Command{
			serveCmd,
			validateCmd,
		},
	}
	app.Setup()

	if err := app.Run(os.Args); err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}

var validateCmd = &cli.Command{
	Name:      "validate",
	Usage:     "assemble and validate an embeddable configuration document",
	ArgsUsage: "[config.json]",
	Action: func(cctx *cli.Context) error {
		path := cctx.Args().First()
		if path == "" {
			cfg, err := config.LoadConfig(cctx.String(flagSettings.Name))
			if err != nil {
				return err
			}
			path = cfg.Embeddable.ConfigPath
		}

		embeddable, err := configloader.Load(path, time.Now())
		if err != nil {
			var assemblyErr *configloader.AssemblyError
			if errors.As(err, &assemblyErr) {
				for _, iss := range assemblyErr.Issues {
					fmt.Fprintf(cctx.App.ErrWriter, "%s: %s\n", utils.OrDefault(iss.Path, "/"), iss.Message)
				}
			}
			return err
		}

		fmt.Fprintf(cctx.App.Writer, "%s is valid: %d collections (%d cw721, %d cw20), %d featured\n",
			path,
			len(embeddable.Collections),
			len(embeddable.CW721Collections()),
			len(embeddable.CW20Collections()),
			len(embeddable.FeaturedCollections()))
		for _, t := range entity.CollectionTypes {
			if n := len(embeddable.CollectionsOfType(t)); n > 0 {
				fmt.Fprintf(cctx.App.Writer, "  %-26s %d\n", t, n)
			}
		}
		return nil
	},
}

var serveCmd = &cli.Command{
	Name:  "serve",
	Usage: "start the HTTP API",
	Flags: []cli.Flag{
		&cli.DurationFlag{
			Name:  "shutdown-timeout",
			Usage: "how long to wait for in-flight requests on shutdown",
			Value: 5 * time.Second,
		},
	},
	Action: func(cctx *cli.Context) error {
		cfg, err := config.LoadConfig(cctx.String(flagSettings.Name))
		if err != nil {
			return err
		}

		zapLogger, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		defer func() { _ = zapLogger.Sync() }()

		configProvider, err := provider.NewConfigProvider(func() (entity.Configuration, error) {
			return configloader.Load(cfg.Embeddable.ConfigPath, time.Now())
		}, logger.NewAdapter(zapLogger))
		if err != nil {
			zapLogger.Error("Configuration assembly failed", zap.String("path", cfg.Embeddable.ConfigPath), zap.Error(err))
			return err
		}

		m := metrics.New(nil)
		entityCache := cache.New(cache.DefaultPolicies(), zapLogger, m)

		gqlClient := client.NewGraphQLClient(client.GraphQLClientOptions{
			Endpoint:  cfg.GraphQL.Endpoint,
			Timeout:   time.Duration(cfg.GraphQL.TimeoutMillis) * time.Millisecond,
			RateLimit: cfg.GraphQL.RateLimit,
			Burst:     cfg.GraphQL.Burst,
			Metrics:   m,
		}, zapLogger)

		queries := service.NewQueryService(gqlClient, entityCache, configProvider, zapLogger, service.QueryServiceOptions{
			MaxConcurrentRequests: cfg.Service.MaxConcurrentRequests,
		})

		if cfg.Logging.Level != "debug" {
			gin.SetMode(gin.ReleaseMode)
		}
		handler := restapi.NewHandler(configProvider, queries, zapLogger)
		router := restapi.SetupRouter(handler, restapi.RouterOptions{
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			Metrics:        m,
		}, zapLogger)

		srv := &http.Server{
			Addr:         ":" + cfg.Server.Port,
			Handler:      router,
			ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
			WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
			IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		}

		serveErr := make(chan error, 1)
		go func() {
			zapLogger.Info("Server starting", zap.String("port", cfg.Server.Port))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- err
			}
			close(serveErr)
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case err := <-serveErr:
			if err != nil {
				zapLogger.Error("Failed to start server", zap.Error(err))
				return err
			}
		case <-quit:
		}
		zapLogger.Info("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), cctx.Duration("shutdown-timeout"))
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			zapLogger.Error("Server forced to shutdown", zap.Error(err))
			return err
		}
		entityCache.Invalidate()
		zapLogger.Info("Server exiting")
		return nil
	},
}
