package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jeecoo/vibro-backend/internal/alerts"
	"github.com/jeecoo/vibro-backend/internal/auth"
	"github.com/jeecoo/vibro-backend/internal/config"
	"github.com/jeecoo/vibro-backend/internal/database"
	"github.com/jeecoo/vibro-backend/internal/groups"
	"github.com/jeecoo/vibro-backend/internal/jobs"
	"github.com/jeecoo/vibro-backend/internal/logging"
	"github.com/jeecoo/vibro-backend/internal/messages"
	"github.com/jeecoo/vibro-backend/internal/push"
	"github.com/jeecoo/vibro-backend/internal/realtime"
	"github.com/jeecoo/vibro-backend/internal/server"
	"github.com/jeecoo/vibro-backend/internal/sounds"
	"github.com/jeecoo/vibro-backend/internal/users"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "vibro-api",
		Short: "Vibro sound-alert and group chat backend service",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().String("mongo-uri", defaults.GetString("mongo.uri"), "MongoDB connection URI")
	cmd.PersistentFlags().String("mongo-database", defaults.GetString("mongo.database"), "MongoDB database name")
	cmd.PersistentFlags().Int("token-ttl-days", defaults.GetInt("token.ttl_days"), "Bearer token TTL in days")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("push-endpoint", defaults.GetString("push.endpoint"), "Push notification endpoint URL")
	cmd.PersistentFlags().String("keepalive-url", defaults.GetString("keepalive.url"), "URL pinged periodically to keep the host awake")
	cmd.PersistentFlags().String("signing-secret", "", "Token signing secret (overrides env)")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "mongo.uri", "mongo-uri")
	bindFlag(cmd, "mongo.database", "mongo-database")
	bindFlag(cmd, "token.ttl_days", "token-ttl-days")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "push.endpoint", "push-endpoint")
	bindFlag(cmd, "keepalive.url", "keepalive-url")
	bindFlag(cmd, "auth.signing_secret", "signing-secret")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	connectCtx, cancelConnect := context.WithTimeout(ctx, 15*time.Second)
	defer cancelConnect()
	db, err := database.Open(connectCtx, appConfig.MongoURI, appConfig.MongoDatabase, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancelClose := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancelClose()
		if err := database.Close(closeCtx, db); err != nil {
			logger.Warn("database close failed", zap.Error(err))
		}
	}()

	tokenManager, err := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		SigningSecret: []byte(appConfig.SigningSecret),
		Issuer:        "vibro-auth",
		Audience:      "vibro-api",
		TokenTTL:      appConfig.TokenTTL,
	})
	if err != nil {
		return err
	}

	userService, err := users.NewService(users.ServiceConfig{Database: db, Clock: time.Now})
	if err != nil {
		return err
	}
	groupService, err := groups.NewService(groups.ServiceConfig{Database: db, Clock: time.Now})
	if err != nil {
		return err
	}
	messageService, err := messages.NewService(messages.ServiceConfig{
		Database:  db,
		Directory: server.NewMessageDirectory(groupService, userService),
		Clock:     time.Now,
		Logger:    logger,
	})
	if err != nil {
		return err
	}
	soundService, err := sounds.NewService(sounds.ServiceConfig{Database: db, Clock: time.Now})
	if err != nil {
		return err
	}

	hub := realtime.NewHub(logger)

	pushClient, err := push.NewClient(push.ClientConfig{Endpoint: appConfig.PushEndpoint})
	if err != nil {
		return err
	}

	alertDispatcher, err := alerts.NewDispatcher(alerts.DispatcherConfig{
		Directory: server.NewAlertDirectory(groupService, userService),
		Emitter:   hub.Fanout(),
		Pusher:    pushClient,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		TokenManager: tokenManager,
		Users:        userService,
		Groups:       groupService,
		Messages:     messageService,
		Sounds:       soundService,
		Alerts:       alertDispatcher,
		Hub:          hub,
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    appConfig.HTTPAddress,
		Handler: handler,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go jobs.RunPruner(signalCtx, soundService, 0, logger)
	go jobs.RunKeepAlive(signalCtx, appConfig.KeepAliveURL, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("address", appConfig.HTTPAddress))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
