package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/OCAP2/drivesim/internal/influx"
	"github.com/OCAP2/drivesim/internal/model"
	"github.com/OCAP2/drivesim/internal/session"
	"github.com/OCAP2/drivesim/internal/worker"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StatusFile is written into Dependencies.StatusDir on every sample.
const StatusFile = "status.txt"

// FrameQueue reports the recorder's frame queue.
type FrameQueue interface {
	Pending() int
	Dropped() uint64
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	DB        *gorm.DB // optional, receives model.Performance rows
	Influx    *influx.Manager
	Logger    *slog.Logger
	Session   *session.Context
	Workers   *worker.Manager
	Frames    FrameQueue
	StatusDir string
	Interval  time.Duration
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Interval <= 0 {
		deps.Interval = time.Second
	}
	return &Service{deps: deps}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

type status struct {
	Run         string  `json:"run"`
	Tick        uint64  `json:"tick"`
	GameTime    float64 `json:"gameTime"`
	Velocity    float64 `json:"velocity"`
	Distance    float64 `json:"distance"`
	FrameQueue  int     `json:"frameQueue"`
	WriteQueue  int     `json:"writeQueue"`
	Dropped     uint64  `json:"droppedFrames"`
	Written     uint64  `json:"framesWritten"`
	Errors      uint64  `json:"frameErrors"`
	LastWriteMs float32 `json:"lastWriteMs"`
}

// GetProgramStatus returns the status lines and the sample to persist.
func (s *Service) GetProgramStatus() (output []string, perf model.Performance) {
	run := s.deps.Session.GetRun()
	cur := s.deps.Session.Status()

	st := status{
		Run:      run.Name,
		Tick:     cur.Tick,
		GameTime: cur.GameTime,
		Velocity: cur.Velocity,
		Distance: cur.Distance,
	}
	if s.deps.Frames != nil {
		st.FrameQueue = s.deps.Frames.Pending()
		st.Dropped = s.deps.Frames.Dropped()
	}
	if s.deps.Workers != nil {
		stats := s.deps.Workers.Stats()
		st.WriteQueue = stats.BackendQueue
		st.Written = stats.FramesWritten
		st.Errors = stats.FrameErrors
		st.LastWriteMs = float32(stats.LastWrite.Microseconds()) / 1000
	}

	perf = model.Performance{
		Time:                time.Now(),
		RunID:               run.ID,
		Ticks:               st.Tick,
		Velocity:            st.Velocity,
		Distance:            st.Distance,
		FrameQueue:          st.FrameQueue,
		WriteQueue:          st.WriteQueue,
		DroppedFrames:       st.Dropped,
		LastWriteDurationMs: st.LastWriteMs,
	}

	raw, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		raw = []byte(fmt.Sprintf(`{"error": "%s"}`, err))
	}
	output = append(output, string(raw))
	return output, perf
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	var statusFile *os.File
	if s.deps.StatusDir != "" {
		if err := os.MkdirAll(s.deps.StatusDir, 0755); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("error creating status dir: %w", err)
		}
		f, err := os.Create(filepath.Join(s.deps.StatusDir, StatusFile))
		if err != nil {
			s.mu.Unlock()
			return fmt.Errorf("error creating status file: %w", err)
		}
		statusFile = f
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		defer func() {
			if statusFile != nil {
				statusFile.Close()
			}
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()

		logger := s.deps.Logger
		logger.Debug("Starting status monitor goroutine", "interval", s.deps.Interval)

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.sample(statusFile)
			}
		}
	}()

	return nil
}

func (s *Service) sample(statusFile *os.File) {
	logger := s.deps.Logger
	if !s.deps.Session.Active() {
		return
	}

	lines, perf := s.GetProgramStatus()

	if statusFile != nil {
		statusFile.Truncate(0)
		statusFile.Seek(0, 0)
		for _, line := range lines {
			statusFile.WriteString(line + "\n")
		}
	}

	if s.deps.DB != nil {
		if err := s.deps.DB.Omit(clause.Associations).Create(&perf).Error; err != nil {
			logger.Error("Error writing performance sample", "error", err)
		}
	}

	if s.deps.Influx != nil {
		if err := s.deps.Influx.WritePoint(context.Background(), s.deps.Influx.PerformanceBucket(), PerformancePoint(s.deps.Session.GetRun().Name, perf)); err != nil {
			logger.Error("Error writing performance point", "error", err)
		}
	}
}

// PerformancePoint converts a sample to an influx point.
func PerformancePoint(run string, perf model.Performance) *influxdb2_write.Point {
	return influxdb2_write.NewPointWithMeasurement(influx.MeasurementPerformance).
		AddTag("run", run).
		AddField("ticks", perf.Ticks).
		AddField("velocity", perf.Velocity).
		AddField("distance", perf.Distance).
		AddField("frameQueue", perf.FrameQueue).
		AddField("writeQueue", perf.WriteQueue).
		AddField("droppedFrames", perf.DroppedFrames).
		AddField("lastWriteMs", perf.LastWriteDurationMs).
		SetTime(perf.Time)
}

// Stop stops the status monitor and waits for the goroutine to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	close(s.stopChan)
	s.isRunning = false
	done := s.done
	s.mu.Unlock()
	<-done
}
