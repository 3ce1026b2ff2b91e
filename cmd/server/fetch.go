package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Brownie44l1/fungi-api/internal/fetch"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the model artifact if it is missing",
	Args:  cobra.NoArgs,
	RunE:  runFetch,
}

func runFetch(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	downloaded, err := fetch.Ensure(cmd.Context(), cfg.ModelPath, cfg.ModelURL, fetchOptions(cfg, logger))
	if err != nil {
		return err
	}
	if downloaded {
		fmt.Fprintf(cmd.OutOrStdout(), "Downloaded model to %s\n", cfg.ModelPath)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Model already present at %s\n", cfg.ModelPath)
	}
	return nil
}
