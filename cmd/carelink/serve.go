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

	"carelink/internal/booking"
	"carelink/internal/cache"
	"carelink/internal/db"
	"carelink/internal/donations"
	"carelink/internal/metrics"
	"carelink/internal/requirements"
	"carelink/internal/server"
	"carelink/internal/storage"

	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/lestrrat-go/httprc/v3"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var serveCommand = &cli.Command{
	Name:   "serve",
	Usage:  "Start the HTTP API",
	Action: serve,
}

func serve(cCtx *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Quantities go over the wire as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	config, err := loadConfig(cCtx)
	if err != nil {
		return err
	}

	level, err := logrus.ParseLevel(config.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid LOG_LEVEL %q: %w", config.LogLevel, err)
	}
	logger.SetLevel(level)

	awsConfig, err := loadAWSConfig(ctx)
	if err != nil {
		return err
	}

	cognitoClient := cognitoidentityprovider.NewFromConfig(awsConfig)

	var archive *storage.Archive
	if config.PDFBucket != "" {
		archive = storage.NewArchive(s3.NewFromConfig(awsConfig), config.PDFBucket)
	}

	pool, err := db.Connect(ctx, config)
	if err != nil {
		return err
	}
	defer pool.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.New(registry)

	runner := db.NewTxRunner(pool, config.TxMaxAttempts, logger)
	runner.OnRetry(collector.IncTxRetry)

	requirementsService, err := requirements.NewService(
		requirements.NewRepository(pool),
		requirements.NewTransactor(runner),
		logger,
	)
	if err != nil {
		return err
	}

	donationsService, err := donations.NewService(
		donations.NewRepository(pool),
		donations.NewTransactor(runner),
		logger,
		collector,
	)
	if err != nil {
		return err
	}

	bookingService, err := booking.NewService(
		booking.NewRepository(pool),
		booking.NewTransactor(runner),
		logger,
		collector,
	)
	if err != nil {
		return err
	}

	if config.RedisURL != "" {
		ttl := time.Duration(config.ReportCacheTTLSec) * time.Second
		reportCache, err := cache.New(ctx, config.RedisURL, ttl, logger)
		if err != nil {
			logger.WithError(err).Warn("report cache unavailable, serving reports uncached")
		} else {
			requirementsService.WithCache(reportCache)
			donationsService.WithCache(reportCache)
		}
	}

	jwkCache, err := jwk.NewCache(ctx, httprc.NewClient())
	if err != nil {
		return fmt.Errorf("failed to initialize jwk cache: %w", err)
	}

	verifier := server.NewJWKSVerifier(jwkCache, config.CognitoIssuerURL, config.AdminGroup)

	err = jwkCache.Register(ctx, verifier.JWKSURL())
	if err != nil {
		return fmt.Errorf("failed to register cognito jwks with cache: %w", err)
	}

	srv, err := server.New(
		config,
		logger,
		requirementsService,
		donationsService,
		bookingService,
		verifier,
		cognitoClient,
		archive,
		collector,
		registry,
		pool,
	)
	if err != nil {
		return err
	}

	go func() {
		logger.WithField("port", config.ServerPort).Infof("server starting http://localhost:%d", config.ServerPort)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Stop(shutdownCtx)
}
