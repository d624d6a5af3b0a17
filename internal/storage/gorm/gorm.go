// Package gormstorage implements the storage.Backend interface on any GORM
// dialect with an internal frame queue and a background DB writer goroutine.
package gormstorage

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/OCAP2/drivesim/internal/database"
	"github.com/OCAP2/drivesim/internal/geo"
	"github.com/OCAP2/drivesim/internal/model"
	"github.com/OCAP2/drivesim/internal/model/convert"
	"github.com/OCAP2/drivesim/internal/queue"
	"github.com/OCAP2/drivesim/pkg/core"
	"github.com/go-gl/mathgl/mgl64"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultBatchSize     = 500
	defaultFlushInterval = 2 * time.Second
	defaultMaxQueued     = 120_000 // about half an hour at 60 Hz
)

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB            *gorm.DB // nil keeps frames queued only
	Logger        *slog.Logger
	Projector     *geo.Projector // nil stores empty geometry
	BatchSize     int
	FlushInterval time.Duration
	MaxQueued     int // oldest frames are evicted past this
}

// Backend implements storage.Backend using GORM with queue-based batch writes.
type Backend struct {
	deps   Dependencies
	frames *queue.Queue[model.Frame]

	runID     atomic.Uint64
	run       model.Run
	coreRun   core.Run
	trackMu   sync.Mutex
	track     []mgl64.Vec3
	writeMu   sync.Mutex
	lastWrite atomic.Int64

	stopChan chan struct{}
	done     chan struct{}
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.BatchSize <= 0 {
		deps.BatchSize = defaultBatchSize
	}
	if deps.FlushInterval <= 0 {
		deps.FlushInterval = defaultFlushInterval
	}
	if deps.MaxQueued <= 0 {
		deps.MaxQueued = defaultMaxQueued
	}
	return &Backend{
		deps: deps,
	}
}

// Init creates the queue, migrates the schema and starts the DB writer goroutine.
func (b *Backend) Init() error {
	b.frames = queue.New[model.Frame](b.deps.MaxQueued)
	b.stopChan = make(chan struct{})
	b.done = make(chan struct{})

	if b.deps.DB == nil {
		close(b.done)
		return nil
	}

	b.deps.Logger.Info("Migrating schema", "dialect", b.deps.DB.Name())
	if err := database.Migrate(b.deps.DB); err != nil {
		close(b.done)
		return fmt.Errorf("failed to setup DB: %w", err)
	}

	go b.writeLoop()
	return nil
}

// Close stops the DB writer goroutine and writes whatever is still queued.
func (b *Backend) Close() error {
	if b.stopChan == nil {
		return nil
	}
	select {
	case <-b.stopChan:
		return nil
	default:
	}
	close(b.stopChan)
	<-b.done
	return b.Flush()
}

// DB returns the underlying connection, nil in queue-only mode.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// RunID is the database ID of the current run, 0 before StartRun.
func (b *Backend) RunID() uint {
	return uint(b.runID.Load())
}

// StartRun inserts the run and its obstacles.
func (b *Backend) StartRun(run *core.Run, obstacles []core.Obstacle) error {
	b.coreRun = *run
	b.run = convert.CoreToRun(*run, b.deps.Projector)
	b.trackMu.Lock()
	b.track = b.track[:0]
	b.trackMu.Unlock()

	if b.deps.DB == nil {
		return nil
	}
	db := b.deps.DB

	if err := db.Omit(clause.Associations).Create(&b.run).Error; err != nil {
		return fmt.Errorf("failed to insert new run: %w", err)
	}
	run.ID = b.run.ID
	b.coreRun.ID = b.run.ID
	b.runID.Store(uint64(b.run.ID))

	if len(obstacles) == 0 {
		return nil
	}
	rows := make([]model.Obstacle, len(obstacles))
	for i, o := range obstacles {
		rows[i] = convert.CoreToObstacle(o, b.run.ID, run.World.GroundY, b.deps.Projector)
	}
	if err := db.Omit(clause.Associations).CreateInBatches(&rows, b.deps.BatchSize).Error; err != nil {
		return fmt.Errorf("failed to insert obstacles: %w", err)
	}

	b.deps.Logger.Info("Run started", "runId", b.run.ID, "name", run.Name, "obstacles", len(rows))
	return nil
}

// RecordFrame converts and queues a frame.
func (b *Backend) RecordFrame(f *core.Frame) error {
	b.frames.Push(convert.CoreToFrame(*f, uint(b.runID.Load()), b.deps.Projector))

	b.trackMu.Lock()
	b.track = append(b.track, f.Vehicle.Position)
	b.trackMu.Unlock()
	return nil
}

// EndRun writes the remaining frames and stores the summary and track.
func (b *Backend) EndRun(summary *core.RunSummary) error {
	if n := b.Evicted(); n > 0 {
		b.deps.Logger.Warn("Frame queue overflowed", "evicted", n, "limit", b.deps.MaxQueued)
	}
	if b.deps.DB == nil {
		return nil
	}

	if err := b.Flush(); err != nil {
		return err
	}

	b.run.EndTime = convert.EndTime(b.coreRun, *summary)
	b.run.Summary = convert.CoreToSummary(*summary)

	if b.deps.Projector != nil {
		b.trackMu.Lock()
		track, err := b.deps.Projector.Track(b.track)
		b.trackMu.Unlock()
		if err != nil {
			b.deps.Logger.Warn("Run track not stored", "runId", b.run.ID, "error", err)
		} else {
			b.run.Track = track
		}
	}

	if err := b.deps.DB.Omit(clause.Associations).Save(&b.run).Error; err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	b.deps.Logger.Info("Run ended", "runId", b.run.ID, "ticks", summary.Ticks, "distance", summary.Distance)
	return nil
}

// Flush writes every queued frame. Batches that fail go back to the front
// of the queue and the first error is returned.
func (b *Backend) Flush() error {
	if b.deps.DB == nil {
		return nil
	}
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	for !b.frames.Empty() {
		if err := writeQueue(b.deps.DB, b.frames, b.deps.BatchSize, &b.lastWrite); err != nil {
			return err
		}
	}
	return nil
}

// QueueLen is the number of frames waiting to be written.
func (b *Backend) QueueLen() int {
	if b.frames == nil {
		return 0
	}
	return b.frames.Len()
}

// Evicted is how many frames were discarded because the queue was full.
func (b *Backend) Evicted() uint64 {
	if b.frames == nil {
		return 0
	}
	return b.frames.Evicted()
}

// LastWriteDuration is how long the most recent batch insert took.
func (b *Backend) LastWriteDuration() time.Duration {
	return time.Duration(b.lastWrite.Load())
}

// writeQueue writes one batch from a queue to the database in a transaction.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[T], max int, took *atomic.Int64) error {
	items := q.Take(max)
	if len(items) == 0 {
		return nil
	}

	start := time.Now()
	tx := db.Begin()
	if err := tx.Omit(clause.Associations).Create(&items).Error; err != nil {
		tx.Rollback()
		q.Requeue(items...)
		return fmt.Errorf("failed to write %d rows: %w", len(items), err)
	}
	if err := tx.Commit().Error; err != nil {
		q.Requeue(items...)
		return fmt.Errorf("failed to commit %d rows: %w", len(items), err)
	}
	took.Store(int64(time.Since(start)))
	return nil
}

// writeLoop periodically drains the queue into the DB.
func (b *Backend) writeLoop() {
	defer close(b.done)
	ticker := time.NewTicker(b.deps.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			if err := b.Flush(); err != nil {
				b.deps.Logger.Error("Error writing frames", "error", err, "queued", b.frames.Len())
			}
		}
	}
}
