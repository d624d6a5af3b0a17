package influx

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/OCAP2/drivesim/pkg/core"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/rs/zerolog"
)

// Measurement names written per frame.
const (
	MeasurementVehicle     = "vehicle"
	MeasurementCamera      = "camera"
	MeasurementEnvironment = "environment"
	MeasurementRun         = "run"
	MeasurementPerformance = "performance"
)

// Config holds the InfluxDB connection settings.
type Config struct {
	Enabled     bool
	Protocol    string
	Host        string
	Port        string
	Token       string
	Org         string
	Bucket      string
	BackupDir   string // gzip line protocol lands here when the server is unreachable
	SampleEvery int
}

// PerformanceBucket is where monitor samples go.
func (c Config) PerformanceBucket() string {
	return c.Bucket + "_performance"
}

// Manager handles InfluxDB connections and writes.
type Manager struct {
	Client       influxdb2.Client
	Writers      map[string]influxdb2_api.WriteAPI
	BackupWriter *gzip.Writer
	IsValid      bool
	BucketNames  []string
	Logger       zerolog.Logger
	BackupPath   string

	cfg        Config
	mu         sync.Mutex
	backupFile *os.File
	run        core.Run
	frames     atomic.Uint64
}

// NewManager creates a new InfluxDB manager.
func NewManager(cfg Config, log zerolog.Logger) *Manager {
	if cfg.SampleEvery < 1 {
		cfg.SampleEvery = 1
	}
	return &Manager{
		Writers:     make(map[string]influxdb2_api.WriteAPI),
		BucketNames: []string{cfg.Bucket, cfg.PerformanceBucket()},
		Logger:      log.With().Str("component", "influx").Logger(),
		BackupPath:  filepath.Join(cfg.BackupDir, "influx_backup.lp.gz"),
		cfg:         cfg,
	}
}

// PerformanceBucket is the bucket monitor samples are written to.
func (m *Manager) PerformanceBucket() string {
	return m.cfg.PerformanceBucket()
}

// Connect establishes a connection to InfluxDB.
func (m *Manager) Connect() error {
	if !m.cfg.Enabled {
		return errors.New("influx.enabled is false")
	}

	m.Client = influxdb2.NewClientWithOptions(
		fmt.Sprintf("%s://%s:%s", m.cfg.Protocol, m.cfg.Host, m.cfg.Port),
		m.cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(2500).
			SetFlushInterval(1000),
	)

	// validate client connection health
	running, err := m.Client.Ping(context.Background())

	if err != nil || !running {
		m.IsValid = false
		if m.BackupWriter == nil {
			m.Logger.Info().Str("backupPath", m.BackupPath).
				Msg("Failed to initialize InfluxDB client, writing to backup file")

			if err := os.MkdirAll(filepath.Dir(m.BackupPath), 0755); err != nil {
				return fmt.Errorf("error creating backup dir: %w", err)
			}
			file, err := os.OpenFile(m.BackupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
			if err != nil {
				return fmt.Errorf("error creating backup file: %w", err)
			}
			m.backupFile = file
			m.BackupWriter = gzip.NewWriter(file)
		}
		return nil
	}

	m.IsValid = true
	if err := m.setupOrganizationAndBuckets(); err != nil {
		return err
	}
	m.CreateWriters()
	m.Logger.Info().Msg("InfluxDB client initialized")
	return nil
}

func (m *Manager) setupOrganizationAndBuckets() error {
	ctx := context.Background()
	orgName := m.cfg.Org

	influxOrg, err := m.Client.OrganizationsAPI().FindOrganizationByName(ctx, orgName)
	if err != nil {
		m.Logger.Info().Str("org", orgName).Msg("Organization not found, creating")
		influxOrg, err = m.Client.OrganizationsAPI().CreateOrganizationWithName(ctx, orgName)
		if err != nil {
			m.Logger.Error().Err(err).Str("org", orgName).Msg("Error creating organization")
			return err
		}
	}

	// ensure buckets exist with 30 day retention
	for _, bucket := range m.BucketNames {
		if _, err := m.Client.BucketsAPI().FindBucketByName(ctx, bucket); err == nil {
			continue
		}
		m.Logger.Info().Str("bucket", bucket).Msg("Bucket not found, creating")

		rule := domain.RetentionRuleTypeExpire
		_, err = m.Client.BucketsAPI().CreateBucketWithName(ctx, influxOrg, bucket, domain.RetentionRule{
			Type:         &rule,
			EverySeconds: 60 * 60 * 24 * 30,
		})
		if err != nil {
			m.Logger.Error().Err(err).Str("bucket", bucket).Msg("Error creating bucket")
			return err
		}
	}

	return nil
}

// CreateWriters creates write APIs for all configured buckets.
func (m *Manager) CreateWriters() {
	for _, bucket := range m.BucketNames {
		m.Writers[bucket] = m.Client.WriteAPI(m.cfg.Org, bucket)

		go func(bucketName string, errorsCh <-chan error) {
			for writeErr := range errorsCh {
				m.Logger.Error().Err(writeErr).Str("bucket", bucketName).
					Msg("Error sending data to InfluxDB")
			}
		}(bucket, m.Writers[bucket].Errors())
	}

	m.Logger.Debug().Strs("buckets", m.BucketNames).Msg("InfluxDB writers initialized")
}

// WritePoint writes a point to InfluxDB or backup file.
func (m *Manager) WritePoint(_ context.Context, bucket string, point *influxdb2_write.Point) error {
	if m.IsValid {
		w, ok := m.Writers[bucket]
		if !ok {
			return fmt.Errorf("influxDB bucket '%s' not registered", bucket)
		}
		w.WritePoint(point)
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.BackupWriter == nil {
		return errors.New("influxDB client not initialized and backup writer not available")
	}
	// line protocol is already newline-terminated
	lineProtocol := influxdb2_write.PointToLineProtocol(point, time.Nanosecond)
	if _, err := m.BackupWriter.Write([]byte(lineProtocol)); err != nil {
		return fmt.Errorf("error writing to InfluxDB backup file: %w", err)
	}
	return nil
}

// Init connects, falling back to the backup file.
func (m *Manager) Init() error {
	return m.Connect()
}

// Close flushes pending writes and releases the client or backup file.
func (m *Manager) Close() error {
	if m.IsValid {
		for _, w := range m.Writers {
			w.Flush()
		}
		m.Client.Close()
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.BackupWriter == nil {
		return nil
	}
	err := errors.Join(m.BackupWriter.Close(), m.backupFile.Close())
	m.BackupWriter = nil
	m.backupFile = nil
	if m.Client != nil {
		m.Client.Close()
	}
	return err
}

// StartRun writes a run marker point.
func (m *Manager) StartRun(run *core.Run, obstacles []core.Obstacle) error {
	m.run = *run
	m.frames.Store(0)
	p := influxdb2_write.NewPointWithMeasurement(MeasurementRun).
		AddTag("event", "start").
		AddTag("run", run.Name).
		AddField("seed", run.Seed).
		AddField("obstacles", len(obstacles)).
		SetTime(run.StartTime)
	return m.WritePoint(context.Background(), m.cfg.Bucket, p)
}

// RecordFrame writes every SampleEvery-th frame as vehicle, camera and
// environment points.
func (m *Manager) RecordFrame(f *core.Frame) error {
	n := m.frames.Add(1)
	if (n-1)%uint64(m.cfg.SampleEvery) != 0 {
		return nil
	}
	var errs []error
	for _, p := range FramePoints(&m.run, f) {
		errs = append(errs, m.WritePoint(context.Background(), m.cfg.Bucket, p))
	}
	return errors.Join(errs...)
}

// EndRun writes the run summary.
func (m *Manager) EndRun(summary *core.RunSummary) error {
	p := influxdb2_write.NewPointWithMeasurement(MeasurementRun).
		AddTag("event", "end").
		AddTag("run", m.run.Name).
		AddField("ticks", summary.Ticks).
		AddField("elapsed", summary.Elapsed).
		AddField("distance", summary.Distance).
		AddField("maxSpeed", summary.MaxSpeed).
		AddField("clampedDeltas", summary.ClampedDeltas).
		SetTime(m.run.StartTime.Add(summary.WallTime))
	return m.WritePoint(context.Background(), m.cfg.Bucket, p)
}

// Flush pushes buffered points out.
func (m *Manager) Flush() error {
	if m.IsValid {
		for _, w := range m.Writers {
			w.Flush()
		}
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.BackupWriter == nil {
		return nil
	}
	return m.BackupWriter.Flush()
}

// FramePoints converts one frame into its points. Points are stamped with
// the run start plus the frame's simulated elapsed time.
func FramePoints(run *core.Run, f *core.Frame) []*influxdb2_write.Point {
	ts := run.StartTime.Add(time.Duration(f.Elapsed * float64(time.Second)))
	vehicle := influxdb2_write.NewPointWithMeasurement(MeasurementVehicle).
		AddTag("run", run.Name).
		AddField("tick", f.Tick).
		AddField("x", f.Vehicle.Position[0]).
		AddField("y", f.Vehicle.Position[1]).
		AddField("z", f.Vehicle.Position[2]).
		AddField("heading", f.Vehicle.Heading).
		AddField("steering", f.Vehicle.Steering).
		AddField("velocity", f.Snapshot.Velocity).
		AddField("distance", f.Snapshot.DistanceTraveled).
		AddField("input", f.Input.String()).
		SetTime(ts)

	camera := influxdb2_write.NewPointWithMeasurement(MeasurementCamera).
		AddTag("run", run.Name).
		AddField("x", f.Camera.Position[0]).
		AddField("y", f.Camera.Position[1]).
		AddField("z", f.Camera.Position[2]).
		AddField("fov", f.Camera.FOV).
		SetTime(ts)

	env := influxdb2_write.NewPointWithMeasurement(MeasurementEnvironment).
		AddTag("run", run.Name).
		AddField("gameTime", f.Environment.GameTime).
		AddField("dayFactor", f.Environment.DayFactor).
		AddField("raining", f.Environment.Raining).
		AddField("rainIntensity", f.Environment.RainIntensity).
		AddField("headlights", f.Lights.HeadlightsOn).
		SetTime(ts)

	return []*influxdb2_write.Point{vehicle, camera, env}
}
