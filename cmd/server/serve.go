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

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Brownie44l1/fungi-api/internal/admission"
	"github.com/Brownie44l1/fungi-api/internal/config"
	"github.com/Brownie44l1/fungi-api/internal/handlers"
	"github.com/Brownie44l1/fungi-api/internal/imaging"
	"github.com/Brownie44l1/fungi-api/internal/upload"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the prediction API server",
	Long:  "Download the model if needed, load it and serve POST /predict.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Address to listen on (default :$PORT)")
	rootCmd.Flags().StringVar(&serveAddr, "addr", "", "Address to listen on (default :$PORT)")
}

func openAdmissionStore(ctx context.Context, cfg *config.Config) (admission.Store, error) {
	switch cfg.AdmissionStore {
	case "sqlite":
		return admission.OpenSQL(ctx, admission.BackendSQLite, cfg.AdmissionDSN)
	case "postgres":
		return admission.OpenSQL(ctx, admission.BackendPostgres, cfg.AdmissionDSN)
	default:
		return admission.NewMemoryStore(), nil
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if err := cfg.RequireAPIKey(); err != nil {
		return err
	}
	addr := cfg.Addr()
	if serveAddr != "" {
		addr = serveAddr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	modelServer, err := loadModel(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := modelServer.Close(); err != nil {
			logger.Warn("model shutdown", zap.Error(err))
		}
	}()

	store, err := openAdmissionStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open admission store: %w", err)
	}
	defer store.Close()

	spool, err := upload.NewSpool(cfg.UploadDir)
	if err != nil {
		return err
	}

	gate := admission.NewGate(
		admission.NewAuthenticator(cfg.APIKey),
		admission.NewThrottle(store, cfg.ThrottleWindow, nil),
	)
	handler := handlers.NewHandler(modelServer, gate, spool, handlers.Options{
		Preprocess:       imaging.OptionsFromMetadata(modelServer.Metadata),
		InferenceTimeout: cfg.InferenceTimeout,
		MaxUploadBytes:   cfg.MaxUploadBytes,
		Classes:          len(modelServer.Metadata.Classes),
	}, logger)

	if !cfg.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router, err := handlers.NewRouter(handler, cfg.AllowedOrigin, cfg.TrustedProxies)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info("server starting",
		zap.String("addr", addr),
		zap.String("admission_store", cfg.AdmissionStore),
		zap.Duration("throttle_window", cfg.ThrottleWindow),
		zap.String("upload_dir", spool.Dir()))
	logger.Info("endpoints",
		zap.Strings("routes", []string{"GET /health", "POST /predict"}))

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
