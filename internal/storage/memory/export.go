package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	v1 "github.com/OCAP2/drivesim/internal/storage/memory/export/v1"
)

// exportJSON writes the run data to a (optionally gzipped) JSON file
func (b *Backend) exportJSON() error {
	if b.run == nil {
		return fmt.Errorf("no run started")
	}

	export := v1.Build(&v1.RunData{
		Run:         b.run,
		Summary:     b.summary,
		Anchor:      b.anchor,
		Obstacles:   b.obstacles,
		Frames:      b.frames,
		SampleEvery: b.cfg.SampleEvery,
	})

	outputPath := filepath.Join(b.cfg.OutputDir, b.filename())

	// Ensure output directory exists
	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := WriteExport(outputPath, export, b.cfg.CompressOutput); err != nil {
		return err
	}

	b.lastExportPath = outputPath
	return nil
}

func (b *Backend) filename() string {
	name := sanitizeName(b.run.Name)
	if name == "" {
		name = "run"
	}
	timestamp := b.run.StartTime.Format("20060102_150405")
	if b.cfg.CompressOutput {
		return fmt.Sprintf("%s_%s.json.gz", name, timestamp)
	}
	return fmt.Sprintf("%s_%s.json", name, timestamp)
}

// sanitizeName replaces characters that are awkward in file names.
func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', ':', '/', '\\', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
}

// WriteExport writes data to path as JSON, gzipped when compress is set.
func WriteExport(path string, data v1.Export, compress bool) error {
	if compress {
		return writeGzipJSON(path, data)
	}
	return writeJSON(path, data)
}

func writeJSON(path string, data v1.Export) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	return encoder.Encode(data)
}

func writeGzipJSON(path string, data v1.Export) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gzWriter := gzip.NewWriter(f)
	encoder := json.NewEncoder(gzWriter)
	if err := encoder.Encode(data); err != nil {
		gzWriter.Close()
		return err
	}
	return gzWriter.Close()
}
