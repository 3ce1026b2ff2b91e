package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Brownie44l1/fungi-api/internal/config"
	"github.com/Brownie44l1/fungi-api/internal/fetch"
	"github.com/Brownie44l1/fungi-api/internal/logging"
	"github.com/Brownie44l1/fungi-api/internal/model"
)

var rootCmd = &cobra.Command{
	Use:          "fungi-api",
	Short:        "Fungi and lichen species classifier",
	Long:         "Serves an image classifier for 100 species of fungi and lichen over HTTP.",
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(labelsCmd)
	rootCmd.AddCommand(classifyCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.Development)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func fetchOptions(cfg *config.Config, logger *zap.Logger) fetch.Options {
	return fetch.Options{
		GoogleAPIKey: cfg.GoogleAPIKey,
		Logger:       logger,
	}
}

// loadModel downloads the artifact when it is missing and opens an ONNX
// session on it. Any failure here must stop the process.
func loadModel(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*model.Server, error) {
	if _, err := fetch.Ensure(ctx, cfg.ModelPath, cfg.ModelURL, fetchOptions(cfg, logger)); err != nil {
		return nil, fmt.Errorf("obtain model: %w", err)
	}

	metadata, err := model.LoadMetadata(cfg.MetadataPath)
	if err != nil {
		return nil, err
	}

	logger.Info("loading model",
		zap.String("path", cfg.ModelPath),
		zap.Int("classes", len(metadata.Classes)),
		zap.String("layout", metadata.Layout),
		zap.String("channels", metadata.ChannelOrder))

	modelServer, err := model.NewServer(cfg.ModelPath, metadata, model.Options{
		SharedLibraryPath: cfg.OnnxLibraryPath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize model server: %w", err)
	}
	return modelServer, nil
}
