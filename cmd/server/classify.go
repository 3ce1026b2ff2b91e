package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Brownie44l1/fungi-api/internal/imaging"
	"github.com/Brownie44l1/fungi-api/internal/upload"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <image>",
	Short: "Classify a local image without going through HTTP",
	Args:  cobra.ExactArgs(1),
	RunE:  runClassify,
}

func runClassify(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	path := args[0]
	if _, err := upload.Extension(filepath.Base(path)); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	img, _, err := imaging.DecodeFile(path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	modelServer, err := loadModel(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := modelServer.Close(); err != nil {
			logger.Warn("model shutdown", zap.Error(err))
		}
	}()

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.InferenceTimeout)
	defer cancel()

	result, err := modelServer.Predict(ctx, imaging.Tensor(img, imaging.OptionsFromMetadata(modelServer.Metadata)))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (class %d, score %.4f)\n", result.Label, result.Index, result.Score)
	return nil
}
