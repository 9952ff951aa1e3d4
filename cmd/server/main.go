package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/grupoip3/siigo-dashboard-service/internal/config"
	"github.com/grupoip3/siigo-dashboard-service/internal/crypto"
	"github.com/grupoip3/siigo-dashboard-service/internal/httpapi"
	"github.com/grupoip3/siigo-dashboard-service/internal/monitoring"
	"github.com/grupoip3/siigo-dashboard-service/internal/service"
	"github.com/grupoip3/siigo-dashboard-service/internal/siigo"
	"github.com/grupoip3/siigo-dashboard-service/internal/store"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	listenAddr := flag.String("listen", "", "Listen address (overrides LISTEN_ADDR)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})

	repo, err := store.NewCompanyRepository(cfg.PostgresURL, rdb)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer repo.Close()

	monitoring.InitMetrics()

	cipher := crypto.New(cfg.EncryptionKey)
	factory := siigo.NewFactory(cipher,
		siigo.WithBaseURL(cfg.SiigoAPIURL),
		siigo.WithHTTPClient(&http.Client{Timeout: cfg.SiigoTimeout}),
		siigo.WithPageInterval(cfg.SiigoPageInterval),
	)

	prober := service.NewCredentialProber(repo, factory)
	dashboards := service.NewDashboardService(repo, factory)
	configSvc := service.NewConfigService(repo, cipher, factory, prober)

	router := httpapi.NewRouter(httpapi.RouterConfig{
		Dashboards: dashboards,
		Config:     configSvc,
		Sessions:   httpapi.NewJWTVerifier([]byte(cfg.SessionSecret)),
	})

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	go func() {
		log.Info().Msgf("Starting SIIGO dashboard service on %s", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
	log.Info().Msg("Server exiting")
}
