package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/OCAP2/drivesim/internal/config"
	"github.com/OCAP2/drivesim/internal/database"
	"github.com/OCAP2/drivesim/internal/geo"
	"github.com/OCAP2/drivesim/internal/model"
	"github.com/OCAP2/drivesim/internal/model/convert"
	"github.com/OCAP2/drivesim/internal/storage/memory"
	v1 "github.com/OCAP2/drivesim/internal/storage/memory/export/v1"
	"github.com/spf13/cobra"

	"gorm.io/gorm"
)

func exportCmd() *cobra.Command {
	var (
		sqlitePath  string
		outputDir   string
		compress    bool
		sampleEvery int
	)

	cmd := &cobra.Command{
		Use:   "export [run-id...]",
		Short: "Export recorded runs from a SQL database to JSON",
		Long: `Export reads runs written by the sqlite, postgres or mysql storage backends and
writes each one in the same JSON format the memory backend produces. Without
--sqlite the database configured under storage.db is used.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openExportDB(sqlitePath)
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}

			for _, arg := range args {
				id, err := strconv.ParseUint(arg, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid run id %q: %w", arg, err)
				}
				path, err := exportRun(db, uint(id), outputDir, compress, sampleEvery, cmd.OutOrStdout())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported run %d to %s\n", id, path)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sqlitePath, "sqlite", "", "read from this SQLite file instead of the configured server")
	cmd.Flags().StringVarP(&outputDir, "output", "o", ".", "directory for the exported files")
	cmd.Flags().BoolVar(&compress, "gzip", false, "gzip the output")
	cmd.Flags().IntVar(&sampleEvery, "sample-every", 1, "keep every Nth frame")
	return cmd
}

func openExportDB(sqlitePath string) (*gorm.DB, error) {
	if sqlitePath != "" {
		if _, err := os.Stat(sqlitePath); err != nil {
			return nil, fmt.Errorf("sqlite file: %w", err)
		}
		return database.OpenSqlite(sqlitePath)
	}
	c := config.GetStorageConfig().DB
	return database.Open(database.Config{
		Driver:   c.Driver,
		Host:     c.Host,
		Port:     c.Port,
		Username: c.Username,
		Password: c.Password,
		Database: c.Database,
	})
}

// loadRun reads a run with its obstacles and frames.
func loadRun(db *gorm.DB, id uint) (*v1.RunData, error) {
	var run model.Run
	if err := db.First(&run, id).Error; err != nil {
		return nil, fmt.Errorf("error getting run %d: %w", id, err)
	}

	var obstacles []model.Obstacle
	if err := db.Where("run_id = ?", id).Order("obstacle_id ASC").Find(&obstacles).Error; err != nil {
		return nil, fmt.Errorf("error getting obstacles: %w", err)
	}
	var frames []model.Frame
	if err := db.Where("run_id = ?", id).Order("tick ASC").Find(&frames).Error; err != nil {
		return nil, fmt.Errorf("error getting frames: %w", err)
	}

	coreRun := convert.RunToCore(run)
	data := &v1.RunData{Run: &coreRun}
	if run.EndTime.Valid {
		summary := convert.SummaryToCore(run.Summary)
		data.Summary = &summary
	}
	if run.Longitude != 0 || run.Latitude != 0 {
		data.Anchor = &geo.Anchor{Longitude: run.Longitude, Latitude: run.Latitude}
	}
	for _, o := range obstacles {
		data.Obstacles = append(data.Obstacles, convert.ObstacleToCore(o))
	}
	for _, f := range frames {
		data.Frames = append(data.Frames, convert.FrameToCore(f))
	}
	return data, nil
}

func exportRun(db *gorm.DB, id uint, outputDir string, compress bool, sampleEvery int, log io.Writer) (string, error) {
	start := time.Now()
	data, err := loadRun(db, id)
	if err != nil {
		return "", err
	}
	data.SampleEvery = sampleEvery
	fmt.Fprintf(log, "Loaded run %d (%d obstacles, %d frames) in %s\n",
		id, len(data.Obstacles), len(data.Frames), time.Since(start).Round(time.Millisecond))

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	name := fmt.Sprintf("run_%d_%s.json", id, data.Run.StartTime.Format("20060102_150405"))
	if compress {
		name += ".gz"
	}
	path := filepath.Join(outputDir, name)
	if err := memory.WriteExport(path, v1.Build(data), compress); err != nil {
		return "", err
	}
	return path, nil
}
