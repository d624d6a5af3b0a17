package main

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/OCAP2/drivesim/internal/api"
	"github.com/OCAP2/drivesim/internal/config"
	v1 "github.com/OCAP2/drivesim/internal/storage/memory/export/v1"
	"github.com/spf13/cobra"
)

const uploadTimeout = 2 * time.Minute

func uploadCmd() *cobra.Command {
	var tag string

	cmd := &cobra.Command{
		Use:   "upload [file...]",
		Short: "Upload exported runs to the run viewer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			apiCfg := config.GetAPIConfig()
			if tag != "" {
				apiCfg.Tag = tag
			}
			client := api.New(apiCfg.ServerURL, apiCfg.APIKey)

			ctx, cancel := context.WithTimeout(cmd.Context(), uploadTimeout)
			defer cancel()
			if err := client.Healthcheck(ctx); err != nil {
				return fmt.Errorf("run viewer at %s: %w", apiCfg.ServerURL, err)
			}

			for _, path := range args {
				meta, err := readExportMeta(path)
				if err != nil {
					return err
				}
				meta.Tag = apiCfg.Tag
				if err := client.Upload(ctx, path, meta); err != nil {
					return fmt.Errorf("failed to upload %s: %w", path, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s (%s)\n", path, meta.RunName)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&tag, "tag", "", "tag shown in the viewer, overrides api.tag")
	return cmd
}

// readExportMeta pulls the upload fields out of an exported run file.
func readExportMeta(path string) (api.UploadMetadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return api.UploadMetadata{}, fmt.Errorf("failed to open export: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return api.UploadMetadata{}, fmt.Errorf("failed to read gzip: %w", err)
		}
		defer zr.Close()
		r = zr
	}

	var export v1.Export
	if err := json.NewDecoder(r).Decode(&export); err != nil {
		return api.UploadMetadata{}, fmt.Errorf("failed to decode export %s: %w", path, err)
	}
	meta := api.UploadMetadata{RunName: export.RunName, Seed: export.Seed}
	if export.Summary != nil {
		meta.Duration = export.Summary.Elapsed
		meta.Distance = export.Summary.Distance
	}
	return meta, nil
}
