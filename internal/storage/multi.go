package storage

import (
	"errors"

	"github.com/OCAP2/drivesim/pkg/core"
)

// Multi fans every call out to several backends. The first backend is the
// primary: it assigns the run ID the others see.
type Multi struct {
	backends []Backend
}

// NewMulti combines backends. Nil entries are skipped.
func NewMulti(backends ...Backend) *Multi {
	m := &Multi{}
	for _, b := range backends {
		if b != nil {
			m.backends = append(m.backends, b)
		}
	}
	return m
}

// Backends returns the combined backends in call order.
func (m *Multi) Backends() []Backend {
	return m.backends
}

// Init initialises every backend and closes the ones already started when
// one fails.
func (m *Multi) Init() error {
	for i, b := range m.backends {
		if err := b.Init(); err != nil {
			for _, started := range m.backends[:i] {
				_ = started.Close()
			}
			return err
		}
	}
	return nil
}

func (m *Multi) Close() error {
	var errs []error
	for _, b := range m.backends {
		errs = append(errs, b.Close())
	}
	return errors.Join(errs...)
}

func (m *Multi) StartRun(run *core.Run, obstacles []core.Obstacle) error {
	var errs []error
	for _, b := range m.backends {
		errs = append(errs, b.StartRun(run, obstacles))
	}
	return errors.Join(errs...)
}

func (m *Multi) EndRun(summary *core.RunSummary) error {
	var errs []error
	for _, b := range m.backends {
		errs = append(errs, b.EndRun(summary))
	}
	return errors.Join(errs...)
}

func (m *Multi) RecordFrame(f *core.Frame) error {
	var errs []error
	for _, b := range m.backends {
		errs = append(errs, b.RecordFrame(f))
	}
	return errors.Join(errs...)
}

// Flush flushes every backend that buffers.
func (m *Multi) Flush() error {
	var errs []error
	for _, b := range m.backends {
		if f, ok := b.(Flusher); ok {
			errs = append(errs, f.Flush())
		}
	}
	return errors.Join(errs...)
}

// GetExportedFilePath returns the first non-empty export path.
func (m *Multi) GetExportedFilePath() string {
	for _, b := range m.backends {
		if e, ok := b.(Exportable); ok {
			if p := e.GetExportedFilePath(); p != "" {
				return p
			}
		}
	}
	return ""
}
