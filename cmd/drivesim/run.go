package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/OCAP2/drivesim/internal/api"
	"github.com/OCAP2/drivesim/internal/config"
	"github.com/OCAP2/drivesim/internal/dispatcher"
	"github.com/OCAP2/drivesim/internal/environment"
	"github.com/OCAP2/drivesim/internal/influx"
	"github.com/OCAP2/drivesim/internal/input"
	"github.com/OCAP2/drivesim/internal/logging"
	"github.com/OCAP2/drivesim/internal/monitor"
	intOtel "github.com/OCAP2/drivesim/internal/otel"
	"github.com/OCAP2/drivesim/internal/script"
	"github.com/OCAP2/drivesim/internal/session"
	"github.com/OCAP2/drivesim/internal/sim"
	"github.com/OCAP2/drivesim/internal/storage"
	"github.com/OCAP2/drivesim/internal/storage/backends"
	"github.com/OCAP2/drivesim/internal/worker"
	"github.com/OCAP2/drivesim/pkg/core"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gorm.io/gorm"
)

const meterName = "github.com/OCAP2/drivesim"

type runOptions struct {
	name       string
	scriptPath string
	hold       []string
	storage    string
	duration   time.Duration
	rate       float64
	fixed      bool
}

func runCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the simulation headless and record it",
		Long: `Run ticks the scene until the input script ends, --duration of simulated
time has passed or the process is interrupted. Without --script the inputs
given by --hold are held for the whole run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("duration") {
				viper.Set("runner.duration", opts.duration)
			}
			if cmd.Flags().Changed("rate") {
				viper.Set("runner.rate", opts.rate)
			}
			if cmd.Flags().Changed("fixed") {
				viper.Set("runner.fixed", opts.fixed)
			}
			if opts.storage != "" {
				viper.Set("storage.type", opts.storage)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runSimulation(ctx, cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.name, "name", "n", "", "run name, defaults to a timestamp")
	cmd.Flags().StringVarP(&opts.scriptPath, "script", "s", "", "YAML input script")
	cmd.Flags().StringSliceVar(&opts.hold, "hold", nil, "actions held for the whole run without a script (forward, back, left, right, handbrake)")
	cmd.Flags().StringVar(&opts.storage, "storage", "", "storage backend (memory, sqlite, postgres, mysql, websocket)")
	cmd.Flags().DurationVarP(&opts.duration, "duration", "d", 0, "stop after this much simulated time")
	cmd.Flags().Float64Var(&opts.rate, "rate", sim.DefaultRate, "ticks per second")
	cmd.Flags().BoolVar(&opts.fixed, "fixed", false, "step with a constant dt as fast as possible")

	return cmd
}

// inputSource picks the script player when a script is given and a constant
// hold otherwise.
func inputSource(opts runOptions) (sim.InputSource, string, error) {
	if opts.scriptPath != "" {
		s, err := script.Load(opts.scriptPath)
		if err != nil {
			return nil, "", err
		}
		return script.NewPlayer(s), s.Name, nil
	}

	var in core.Input
	for _, name := range opts.hold {
		action, err := input.ParseAction(strings.TrimSpace(name))
		if err != nil {
			return nil, "", err
		}
		input.Apply(&in, action)
	}
	return sim.Constant(in), "", nil
}

// dbProvider is implemented by the GORM based backends.
type dbProvider interface {
	DB() *gorm.DB
}

func findDB(b storage.Backend) *gorm.DB {
	candidates := []storage.Backend{b}
	if multi, ok := b.(*storage.Multi); ok {
		candidates = multi.Backends()
	}
	for _, c := range candidates {
		if p, ok := c.(dbProvider); ok && p.DB() != nil {
			return p.DB()
		}
	}
	return nil
}

func runSimulation(ctx context.Context, out io.Writer, opts runOptions) error {
	sessionStart := time.Now()
	sess := session.NewContext()

	// logging
	logCfg := config.GetLoggingConfig()
	logFile, err := logging.OpenLogFile(logCfg.Dir, "drivesim", sessionStart)
	if err != nil {
		return err
	}
	defer logFile.Close()

	otelCfg := config.GetOTelConfig()
	provider, err := intOtel.New(intOtel.Config{
		Enabled:        otelCfg.Enabled,
		ServiceName:    otelCfg.ServiceName,
		ServiceVersion: CurrentVersion,
		BatchTimeout:   otelCfg.BatchTimeout,
		LogWriter:      logFile,
		MetricWriter:   metricWriter(otelCfg, logFile),
		MetricInterval: otelCfg.MetricInterval,
		Endpoint:       otelCfg.Endpoint,
		Insecure:       otelCfg.Insecure,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize OTel provider: %w", err)
	}

	setupOpts := []logging.SetupOption{logging.WithContext(sess.LogAttrs)}
	if logCfg.GraylogEnabled {
		gw, err := logging.NewGraylogWriter(logCfg.GraylogAddress)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to connect to Graylog at %s: %v\n", logCfg.GraylogAddress, err)
		} else {
			defer gw.Close()
			host, _ := os.Hostname()
			setupOpts = append(setupOpts, logging.WithGraylog(gw, host))
		}
	}

	slogManager := logging.NewSlogManager()
	slogManager.Setup(logFile, logCfg.Level, provider.LoggerProvider(), setupOpts...)
	logger := slogManager.Logger()
	logger.Info("Starting drivesim", "version", CurrentVersion, "buildDate", BuildDate, "log", logFile.Name())
	if otelCfg.Enabled {
		logger.Info("OTel provider initialized", "endpoint", otelCfg.Endpoint, "metrics", otelCfg.Metrics)
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := slogManager.Flush(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to flush logs: %v\n", err)
		}
		if err := provider.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to shut down OTel: %v\n", err)
		}
	}()
	meter := provider.Meter(meterName)

	// scene
	simCfg, err := config.GetSimConfig()
	if err != nil {
		logger.Error("Invalid configuration", "error", err)
		return err
	}
	runnerCfg := config.GetRunnerConfig()
	if runnerCfg.StartFromClock {
		loc, err := time.LoadLocation(runnerCfg.ClockZone)
		if err != nil {
			return fmt.Errorf("runner.clockZone: %w", err)
		}
		simCfg.StartTime = environment.StartTimeFromClock(simCfg.Environment, sessionStart.In(loc))
		logger.Info("Game time seeded from clock", "zone", runnerCfg.ClockZone, "gameTime", simCfg.StartTime)
	}

	src, scriptName, err := inputSource(opts)
	if err != nil {
		return err
	}

	anchor, err := config.GetGeoAnchor()
	if err != nil {
		return err
	}

	// storage
	storageCfg := config.GetStorageConfig()
	primary, err := backends.New(storageCfg, logger, anchor)
	if err != nil {
		logger.Error("Failed to create storage backend", "error", err)
		return err
	}

	var influxManager *influx.Manager
	if ic := config.GetInfluxConfig(); ic.Enabled {
		influxManager = influx.NewManager(influx.Config{
			Enabled:     ic.Enabled,
			Protocol:    ic.Protocol,
			Host:        ic.Host,
			Port:        ic.Port,
			Token:       ic.Token,
			Org:         ic.Org,
			Bucket:      ic.Bucket,
			BackupDir:   ic.BackupDir,
			SampleEvery: ic.SampleEvery,
		}, logging.NewZerolog(logFile, logCfg.Level, sess.LogAttrs))
	}

	var backend storage.Backend = primary
	if influxManager != nil {
		backend = storage.NewMulti(primary, influxManager)
	}
	if err := backend.Init(); err != nil {
		logger.Error("Failed to initialize storage backend", "type", storageCfg.Type, "error", err)
		return err
	}
	logger.Info("Storage backend initialized", "type", storageCfg.Type, "influx", influxManager != nil)

	d, err := dispatcher.New(logging.NewDispatcherLogger(logger), meter)
	if err != nil {
		backend.Close()
		return fmt.Errorf("failed to create dispatcher: %w", err)
	}
	workers := worker.NewManager(worker.Dependencies{Logger: logger}, backend)
	recorder := worker.NewRecorder(d, workers)

	simulation, err := sim.New(simCfg,
		sim.WithLogger(logger),
		sim.WithMeter(meter),
		sim.WithSink(sess),
		sim.WithSink(recorder),
	)
	if err != nil {
		d.Close()
		backend.Close()
		return err
	}

	run := &core.Run{
		Name:      runName(opts.name, scriptName, sessionStart),
		Seed:      simCfg.Seed,
		StartTime: sessionStart,
		Version:   CurrentVersion,
		Config:    viper.AllSettings(),
		World:     simulation.World().Info(),
	}
	if err := recorder.Start(run, simulation.World().Obstacles()); err != nil {
		d.Close()
		backend.Close()
		return fmt.Errorf("failed to start run: %w", err)
	}
	sess.SetRun(run)
	logger.Info("Run started", "name", run.Name, "id", run.ID, "obstacles", run.World.Placed)

	var monitorService *monitor.Service
	if mc := config.GetMonitorConfig(); mc.Enabled {
		monitorService = monitor.NewService(monitor.Dependencies{
			DB:        findDB(backend),
			Influx:    influxManager,
			Logger:    logger,
			Session:   sess,
			Workers:   workers,
			Frames:    recorder,
			StatusDir: logCfg.Dir,
			Interval:  mc.Interval,
		})
		if err := monitorService.Start(); err != nil {
			logger.Warn("Failed to start status monitor", "error", err)
			monitorService = nil
		}
	}

	runner := sim.Runner{
		Sim:      simulation,
		Rate:     runnerCfg.Rate,
		Fixed:    runnerCfg.Fixed,
		Duration: runnerCfg.Duration,
		Logger:   logger,
	}
	summary := runner.Run(ctx, src)

	if monitorService != nil {
		monitorService.Stop()
	}
	sess.EndRun()

	var errs []error
	if err := recorder.Finish(summary); err != nil {
		errs = append(errs, err)
	}
	d.Close()

	exported := ""
	if e, ok := backend.(storage.Exportable); ok {
		exported = e.GetExportedFilePath()
	}
	if err := backend.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close storage: %w", err))
	}
	if err := errors.Join(errs...); err != nil {
		logger.Error("Run finished with errors", "error", err)
		return err
	}

	if apiCfg := config.GetAPIConfig(); apiCfg.Upload && exported != "" {
		uploadCtx, cancel := context.WithTimeout(context.Background(), uploadTimeout)
		err := api.New(apiCfg.ServerURL, apiCfg.APIKey).Upload(uploadCtx, exported, api.UploadMetadata{
			RunName:  run.Name,
			Seed:     run.Seed,
			Duration: summary.Elapsed,
			Distance: summary.Distance,
			Tag:      apiCfg.Tag,
		})
		cancel()
		if err != nil {
			logger.Error("Failed to upload run", "path", exported, "error", err)
		} else {
			logger.Info("Run uploaded", "server", apiCfg.ServerURL, "path", exported)
		}
	}

	stats := workers.Stats()
	logger.Info("Run finished",
		"ticks", summary.Ticks,
		"framesWritten", stats.FramesWritten,
		"dropped", recorder.Dropped(),
		"exported", exported)
	printSummary(out, run, summary, stats, recorder.Dropped(), exported)
	return nil
}

func metricWriter(cfg config.OTelConfig, file io.Writer) io.Writer {
	if !cfg.Metrics {
		return nil
	}
	return file
}

// runName prefers the flag, then the script name, then a timestamp.
func runName(flag, scriptName string, start time.Time) string {
	switch {
	case flag != "":
		return flag
	case scriptName != "":
		return scriptName
	}
	return "run_" + start.Format("20060102_150405")
}

func printSummary(out io.Writer, run *core.Run, s core.RunSummary, stats worker.Stats, dropped uint64, exported string) {
	fmt.Fprintf(out, "Run %q (seed %d)\n", run.Name, run.Seed)
	fmt.Fprintf(out, "  ticks:      %d\n", s.Ticks)
	fmt.Fprintf(out, "  simulated:  %.2fs\n", s.Elapsed)
	fmt.Fprintf(out, "  wall time:  %s\n", s.WallTime.Round(time.Millisecond))
	fmt.Fprintf(out, "  distance:   %.1f m\n", s.Distance)
	fmt.Fprintf(out, "  max speed:  %.1f m/s\n", s.MaxSpeed)
	if s.ClampedDeltas > 0 {
		fmt.Fprintf(out, "  clamped dt: %d\n", s.ClampedDeltas)
	}
	fmt.Fprintf(out, "  recorded:   %d frames", stats.FramesWritten)
	if dropped > 0 || stats.FrameErrors > 0 {
		fmt.Fprintf(out, " (%d dropped, %d failed)", dropped, stats.FrameErrors)
	}
	fmt.Fprintln(out)
	if exported != "" {
		fmt.Fprintf(out, "  output:     %s\n", filepath.Clean(exported))
	}
}
