// Package app initializes and runs the main application service.
// It configures logging, storage, the blob store, authentication,
// and routing, and handles graceful shutdown.
package app

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/patric-chuzhbe/cloudalbum/internal/album"
	"github.com/patric-chuzhbe/cloudalbum/internal/auth"
	"github.com/patric-chuzhbe/cloudalbum/internal/blobgc"
	"github.com/patric-chuzhbe/cloudalbum/internal/blobstore"
	"github.com/patric-chuzhbe/cloudalbum/internal/blobstore/fsstore"
	"github.com/patric-chuzhbe/cloudalbum/internal/blobstore/memstore"
	"github.com/patric-chuzhbe/cloudalbum/internal/blobstore/s3store"
	"github.com/patric-chuzhbe/cloudalbum/internal/config"
	"github.com/patric-chuzhbe/cloudalbum/internal/db/memorystorage"
	"github.com/patric-chuzhbe/cloudalbum/internal/db/postgresdb"
	"github.com/patric-chuzhbe/cloudalbum/internal/db/storage"
	"github.com/patric-chuzhbe/cloudalbum/internal/logger"
	"github.com/patric-chuzhbe/cloudalbum/internal/models"
	"github.com/patric-chuzhbe/cloudalbum/internal/router"
)

// App encapsulates the configuration, HTTP handler, storage backends
// and the background blob remover needed to run the album service.
type App struct {
	cfg             *config.Config
	db              storage.Storage
	blobRemover     *blobgc.BlobRemover
	stopBlobRemover context.CancelFunc
	httpHandler     http.Handler
}

// New initializes a new instance of App by:
// - loading configuration
// - initializing logger
// - selecting and setting up metadata storage and the blob store
// - setting up the background blob remover
// - setting up the router and middleware
func New() (*App, error) {
	var err error
	app := &App{}

	app.cfg, err = config.New()
	if err != nil {
		return nil, err
	}

	err = logger.Init(app.cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	app.db, err = getStorageByType(app.cfg)
	if err != nil {
		return nil, err
	}

	blobs, err := getBlobStoreByType(app.cfg)
	if err != nil {
		return nil, err
	}

	signingKey, err := base64.URLEncoding.DecodeString(app.cfg.JWTSigningSecretKey)
	if err != nil {
		return nil, err
	}

	app.blobRemover = blobgc.New(
		blobs,
		app.cfg.RemoverQueueCapacity,
		app.cfg.DelayBetweenQueueFetches,
	)
	blobRemoverRunCtx, stopBlobRemover := context.WithCancel(context.Background())
	app.stopBlobRemover = stopBlobRemover

	app.blobRemover.Run(blobRemoverRunCtx)
	app.blobRemover.ListenErrors(func(err error) {
		logger.Log.Debugln("Error passed from the `app.blobRemover.ListenErrors()`:", zap.Error(err))
	})

	authService := auth.New(
		app.db,
		signingKey,
		app.cfg.AccessTokenTTL,
		app.cfg.RefreshTokenTTL,
	)

	albumService := album.New(app.db, blobs, app.blobRemover)

	app.httpHandler = router.New(app.db, albumService, authService)

	return app, nil
}

// Run starts the HTTP server with graceful shutdown support.
// It listens for system signals and cleans up resources upon termination.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Log.Infoln("server running", "RunAddr", a.cfg.RunAddr)

	server := &http.Server{
		Addr:    a.cfg.RunAddr,
		Handler: a.httpHandler,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Log.Infoln("Received shutdown signal. Closing storage and exiting...")
		a.stopBlobRemover()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		return a.db.Close()

	case err := <-serverErrCh:
		return fmt.Errorf("server error: %w", err)
	}
}

// Close finalizes resources used by App such as logging.
func (a *App) Close() {
	if err := logger.Sync(); err != nil {
		fmt.Println("Logger sync error:", err)
	}
}

func getAvailableStorageType(cfg *config.Config) int {
	if cfg.DatabaseDSN != "" {
		return models.StorageTypePostgresql
	}

	return models.StorageTypeMemory
}

func getStorageByType(cfg *config.Config) (storage.Storage, error) {
	switch getAvailableStorageType(cfg) {
	case models.StorageTypeUnknown:
		return nil, errors.New("unknown storage type")

	case models.StorageTypePostgresql:
		return postgresdb.New(
			context.Background(),
			cfg.DatabaseDSN,
			cfg.DBConnectionTimeout,
		)
	}

	return memorystorage.New()
}

func getAvailableBlobStoreType(cfg *config.Config) int {
	if cfg.S3Bucket != "" {
		return models.BlobStoreTypeS3
	}

	if cfg.BlobStorePath != "" {
		return models.BlobStoreTypeFilesystem
	}

	return models.BlobStoreTypeMemory
}

func getBlobStoreByType(cfg *config.Config) (blobstore.BlobStore, error) {
	switch getAvailableBlobStoreType(cfg) {
	case models.BlobStoreTypeS3:
		return s3store.New(context.Background(), s3store.Options{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})

	case models.BlobStoreTypeFilesystem:
		return fsstore.New(cfg.BlobStorePath)
	}

	return memstore.New(), nil
}
