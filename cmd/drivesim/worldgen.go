package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/OCAP2/drivesim/internal/config"
	"github.com/OCAP2/drivesim/internal/world"
	"github.com/OCAP2/drivesim/pkg/core"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// worldDump is the worldgen output document.
type worldDump struct {
	World     core.WorldInfo  `json:"world" yaml:"world"`
	Obstacles []core.Obstacle `json:"obstacles" yaml:"obstacles"`
}

func worldgenCmd() *cobra.Command {
	var (
		format  string
		output  string
		summary bool
	)

	cmd := &cobra.Command{
		Use:   "worldgen",
		Short: "Generate the obstacle field for a seed and write it as JSON or YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.GetWorldConfig()
			if err != nil {
				return &config.ValidationError{Err: err}
			}
			w, err := world.Generate(cfg, viper.GetInt64("sim.seed"))
			if err != nil {
				return err
			}

			if summary {
				printWorldInfo(cmd.OutOrStdout(), w.Info())
				return nil
			}

			out := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer f.Close()
				out = f
			}
			return writeWorld(out, format, worldDump{World: w.Info(), Obstacles: w.Obstacles()})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format (json, yaml)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to a file instead of stdout")
	cmd.Flags().BoolVar(&summary, "summary", false, "print the generation report only")
	return cmd
}

func writeWorld(out io.Writer, format string, dump worldDump) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(dump)
	case "yaml", "yml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(dump); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown format %q", format)
}

func printWorldInfo(out io.Writer, info core.WorldInfo) {
	fmt.Fprintf(out, "World (seed %d)\n", info.Seed)
	fmt.Fprintf(out, "  bounds:    ±%.0f\n", info.HalfExtent)
	fmt.Fprintf(out, "  placed:    %d of %d\n", info.Placed, info.Requested)
	fmt.Fprintf(out, "  attempts:  %d\n", info.Attempts)
	if info.UnderFilled() {
		fmt.Fprintln(out, "  WARNING: sampler gave up before reaching the requested count")
	}
}
