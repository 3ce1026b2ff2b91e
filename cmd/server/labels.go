package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Brownie44l1/fungi-api/internal/config"
	"github.com/Brownie44l1/fungi-api/internal/model"
)

var labelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "Print the class labels in model output order",
	Args:  cobra.NoArgs,
	RunE:  runLabels,
}

func runLabels(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	metadata, err := model.LoadMetadata(cfg.MetadataPath)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for i, label := range metadata.Classes {
		fmt.Fprintf(out, "%3d  %s\n", i, label)
	}
	return nil
}
