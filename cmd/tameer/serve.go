package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tameer/internal/auth"
	"tameer/internal/db"
	"tameer/internal/notify"
	"tameer/internal/portal"
	"tameer/internal/server"
	"tameer/internal/storage"
	"tameer/internal/store"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var serveCommand = &cli.Command{
	Name:   "serve",
	Usage:  "Start the HTTP server",
	Action: serve,
}

func serve(cCtx *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	config, err := loadConfig()
	if err != nil {
		return err
	}

	awsConfig, err := loadAWSConfig(ctx, config.StorageRegion)
	if err != nil {
		return err
	}

	s3Client := s3.NewFromConfig(awsConfig)
	objects := storage.NewS3Storage(s3Client, config.StorageBucket, config.StorageRegion, config.StoragePublicBaseURL)

	pool, err := db.Connect(ctx, config)
	if err != nil {
		return err
	}
	defer pool.Close()

	userRepo := store.NewUserRepository(pool)
	submissionRepo := store.NewSubmissionRepository(pool)
	estimateRepo := store.NewEstimateRepository(pool)

	dispatcher := notify.NewDispatcher(map[notify.EventKind]notify.Endpoint{
		notify.EventSubmissionReceived: {
			URL:     config.IntakeWebhookURL,
			Timeout: time.Duration(config.IntakeWebhookMs) * time.Millisecond,
		},
		notify.EventEstimateReady: {
			URL:     config.EstimateWebhookURL,
			Timeout: time.Duration(config.EstimateWebhookMs) * time.Millisecond,
		},
	}, config.WebhookToken, config.WebhookQueueCapacity, logger)
	defer dispatcher.Close()

	verifier := auth.NewVerifier(userRepo, logger)

	issuer, err := auth.NewIssuer([]byte(config.SessionSecret), time.Duration(config.SessionMaxAgeSec)*time.Second)
	if err != nil {
		return err
	}

	intake := portal.NewIntake(submissionRepo, objects, dispatcher, portal.IntakeLimits{
		MaxFiles:      config.MaxUploadFiles,
		MaxTotalBytes: config.MaxUploadTotalMB << 20,
	}, logger)
	fulfillment := portal.NewFulfillment(submissionRepo, estimateRepo, dispatcher, logger)
	listing := portal.NewListing(submissionRepo, estimateRepo)

	srv, err := server.New(
		config,
		logger,
		verifier,
		issuer,
		intake,
		fulfillment,
		listing,
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
