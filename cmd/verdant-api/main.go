package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/florahq/verdant/internal/accounts"
	"github.com/florahq/verdant/internal/ai"
	"github.com/florahq/verdant/internal/auth"
	"github.com/florahq/verdant/internal/config"
	"github.com/florahq/verdant/internal/database"
	"github.com/florahq/verdant/internal/gateway"
	"github.com/florahq/verdant/internal/logging"
	"github.com/florahq/verdant/internal/server"
	"github.com/florahq/verdant/internal/weather"
)

var cfgFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "verdant-api",
		Short: "Verdant garden tracking backend service",
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
	cmd.PersistentFlags().String("google-client-id", defaults.GetString("google.client_id"), "Google OAuth client ID")
	cmd.PersistentFlags().String("google-jwks-url", defaults.GetString("google.jwks_url"), "Google JWKS URL")
	cmd.PersistentFlags().String("database-path", defaults.GetString("database.path"), "SQLite database path")
	cmd.PersistentFlags().String("storage-path", defaults.GetString("storage.path"), "Directory for uploaded images")
	cmd.PersistentFlags().String("storage-base-url", defaults.GetString("storage.base_url"), "Public URL prefix for uploaded images")
	cmd.PersistentFlags().String("settings-dir", defaults.GetString("settings.dir"), "Directory for per-user settings caches")
	cmd.PersistentFlags().Int("token-ttl-minutes", defaults.GetInt("token.ttl_minutes"), "Session token TTL in minutes")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("signing-secret", "", "Session signing secret (overrides env)")
	cmd.PersistentFlags().Bool("auto-approve", defaults.GetBool("auth.auto_approve"), "Skip the waitlist for new accounts")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "google.client_id", "google-client-id")
	bindFlag(cmd, "google.jwks_url", "google-jwks-url")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "storage.path", "storage-path")
	bindFlag(cmd, "storage.base_url", "storage-base-url")
	bindFlag(cmd, "settings.dir", "settings-dir")
	bindFlag(cmd, "token.ttl_minutes", "token-ttl-minutes")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "auth.signing_secret", "signing-secret")
	bindFlag(cmd, "auth.auto_approve", "auto-approve")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	// Local development keeps secrets in a .env file; absence is fine.
	_ = godotenv.Load()

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

	db, err := database.OpenSQLite(appConfig.DatabasePath, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	googleVerifier, err := auth.NewGoogleVerifier(auth.GoogleVerifierConfig{
		Audience: appConfig.GoogleClientID,
		JWKSURL:  appConfig.GoogleJWKSURL,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	sessionIssuer, err := auth.NewSessionIssuer(auth.SessionIssuerConfig{
		Secret:   appConfig.SigningSecret,
		Issuer:   "verdant-auth",
		Audience: "verdant-api",
		TTL:      appConfig.TokenTTL,
	})
	if err != nil {
		return err
	}

	identityService, err := accounts.NewService(accounts.ServiceConfig{
		Database:    db,
		AutoApprove: appConfig.AutoApprove,
	})
	if err != nil {
		return err
	}

	backendGateway, err := gateway.New(gateway.Config{Database: db, Logger: logger})
	if err != nil {
		return err
	}
	mediaStore, err := gateway.NewMediaStore(gateway.MediaStoreConfig{
		Root:    appConfig.StoragePath,
		BaseURL: appConfig.StorageBaseURL,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	var modelClient ai.Client
	if strings.TrimSpace(appConfig.AIKey) != "" {
		modelClient = ai.NewOpenAI(appConfig.AIEndpoint, appConfig.AIKey, appConfig.AIModel)
	} else {
		logger.Warn("no model api key configured, generative features disabled")
	}

	dispatcher := server.NewNoticeDispatcher()
	sessions, err := server.NewSessionManager(server.SessionManagerConfig{
		Backend:         backendGateway,
		Media:           mediaStore,
		Weather:         weather.NewHTTPClient(appConfig.WeatherEndpoint),
		AI:              modelClient,
		SettingsDir:     appConfig.SettingsDir,
		Dispatcher:      dispatcher,
		Logger:          logger,
		FeedPageSize:    appConfig.FeedPageSize,
		SettingsSyncLag: appConfig.SettingsSyncLag,
	})
	if err != nil {
		return err
	}

	apiHandler, err := server.NewHTTPHandler(server.Dependencies{
		GoogleVerifier: googleVerifier,
		Accounts:       identityService,
		SessionTokens:  sessionIssuer,
		Sessions:       sessions,
		Dispatcher:     dispatcher,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/storage/plant-images/", http.StripPrefix("/storage/plant-images/",
		http.FileServer(http.Dir(appConfig.StoragePath))))
	mux.Handle("/", apiHandler)

	httpServer := &http.Server{
		Addr:    appConfig.HTTPAddress,
		Handler: mux,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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
