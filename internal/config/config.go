package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/OCAP2/drivesim/internal/camera"
	"github.com/OCAP2/drivesim/internal/environment"
	"github.com/OCAP2/drivesim/internal/geo"
	"github.com/OCAP2/drivesim/internal/placement"
	"github.com/OCAP2/drivesim/internal/sim"
	"github.com/OCAP2/drivesim/internal/vehicle"
	"github.com/OCAP2/drivesim/internal/world"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "drivesim.cfg.json"

// ValidationError wraps every violated configuration invariant.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return "invalid configuration: " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Validate checks a simulation config and wraps the violations.
func Validate(cfg sim.Config) error {
	if err := cfg.Validate(); err != nil {
		return &ValidationError{Err: err}
	}
	return nil
}

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
	SampleEvery    int    `json:"sampleEvery" mapstructure:"sampleEvery"`
}

// SQLiteConfig holds SQLite storage backend settings
type SQLiteConfig struct {
	Path         string        `json:"path" mapstructure:"path"`
	DumpPath     string        `json:"dumpPath" mapstructure:"dumpPath"`
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
}

// DBConfig holds database server settings
type DBConfig struct {
	Driver       string `json:"driver" mapstructure:"driver"`
	Host         string `json:"host" mapstructure:"host"`
	Port         string `json:"port" mapstructure:"port"`
	Username     string `json:"username" mapstructure:"username"`
	Password     string `json:"password" mapstructure:"password"`
	Database     string `json:"database" mapstructure:"database"`
	FallbackPath string `json:"fallbackPath" mapstructure:"fallbackPath"`
	BatchSize    int    `json:"batchSize" mapstructure:"batchSize"`
}

// WebSocketConfig holds live streaming settings
type WebSocketConfig struct {
	URL         string `json:"url" mapstructure:"url"`
	Token       string `json:"token" mapstructure:"token"`
	SampleEvery int    `json:"sampleEvery" mapstructure:"sampleEvery"`
}

// StorageConfig selects and configures the storage backend
type StorageConfig struct {
	Type      string          `json:"type" mapstructure:"type"`
	Memory    MemoryConfig    `json:"memory" mapstructure:"memory"`
	SQLite    SQLiteConfig    `json:"sqlite" mapstructure:"sqlite"`
	DB        DBConfig        `json:"db" mapstructure:"db"`
	WebSocket WebSocketConfig `json:"websocket" mapstructure:"websocket"`
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled        bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName    string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout   time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint       string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure       bool          `json:"insecure" mapstructure:"insecure"`
	Metrics        bool          `json:"metrics" mapstructure:"metrics"`
	MetricInterval time.Duration `json:"metricInterval" mapstructure:"metricInterval"`
}

// InfluxConfig holds InfluxDB settings
type InfluxConfig struct {
	Enabled     bool   `json:"enabled" mapstructure:"enabled"`
	Host        string `json:"host" mapstructure:"host"`
	Port        string `json:"port" mapstructure:"port"`
	Protocol    string `json:"protocol" mapstructure:"protocol"`
	Token       string `json:"token" mapstructure:"token"`
	Org         string `json:"org" mapstructure:"org"`
	Bucket      string `json:"bucket" mapstructure:"bucket"`
	BackupDir   string `json:"backupDir" mapstructure:"backupDir"`
	SampleEvery int    `json:"sampleEvery" mapstructure:"sampleEvery"`
}

// LoggingConfig holds log output settings
type LoggingConfig struct {
	Level          string `json:"level" mapstructure:"level"`
	Dir            string `json:"dir" mapstructure:"dir"`
	GraylogEnabled bool   `json:"graylogEnabled" mapstructure:"graylogEnabled"`
	GraylogAddress string `json:"graylogAddress" mapstructure:"graylogAddress"`
}

// MonitorConfig holds status reporting settings
type MonitorConfig struct {
	Enabled  bool          `json:"enabled" mapstructure:"enabled"`
	Interval time.Duration `json:"interval" mapstructure:"interval"`
}

// APIConfig holds run viewer upload settings
type APIConfig struct {
	ServerURL string `json:"serverUrl" mapstructure:"serverUrl"`
	APIKey    string `json:"apiKey" mapstructure:"apiKey"`
	Upload    bool   `json:"upload" mapstructure:"upload"`
	Tag       string `json:"tag" mapstructure:"tag"`
}

// RunnerConfig holds headless runner settings
type RunnerConfig struct {
	Rate           float64       `json:"rate" mapstructure:"rate"`
	Fixed          bool          `json:"fixed" mapstructure:"fixed"`
	Duration       time.Duration `json:"duration" mapstructure:"duration"`
	StartFromClock bool          `json:"startFromClock" mapstructure:"startFromClock"`
	ClockZone      string        `json:"clockZone" mapstructure:"clockZone"`
}

// setDefaults seeds viper from the stock scene so defaults live in one place.
func setDefaults() {
	d := sim.DefaultConfig()

	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./drivesimlogs")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("sim.seed", d.Seed)
	viper.SetDefault("sim.maxDelta", d.MaxDelta)
	viper.SetDefault("sim.startTime", d.StartTime)

	viper.SetDefault("runner.rate", float64(sim.DefaultRate))
	viper.SetDefault("runner.fixed", false)
	viper.SetDefault("runner.duration", "0s")
	viper.SetDefault("runner.startFromClock", false)
	viper.SetDefault("runner.clockZone", "UTC")

	v := d.Vehicle
	viper.SetDefault("vehicle.mass", v.Mass)
	viper.SetDefault("vehicle.maxForwardSpeed", v.MaxForwardSpeed)
	viper.SetDefault("vehicle.maxReverseSpeed", v.MaxReverseSpeed)
	viper.SetDefault("vehicle.accelerationRate", v.AccelerationRate)
	viper.SetDefault("vehicle.brakeForce", v.BrakeForce)
	viper.SetDefault("vehicle.handbrakeFactor", v.HandbrakeFactor)
	viper.SetDefault("vehicle.drag", v.Drag)
	viper.SetDefault("vehicle.rollingResistance", v.RollingResist)
	viper.SetDefault("vehicle.reverseThreshold", v.ReverseThreshold)
	viper.SetDefault("vehicle.deadZone", v.DeadZone)
	viper.SetDefault("vehicle.steeringThreshold", v.SteeringThreshold)
	viper.SetDefault("vehicle.steeringAngle", v.SteeringAngle)
	viper.SetDefault("vehicle.turnSpeed", v.TurnSpeed)
	viper.SetDefault("vehicle.steeringReturn", v.SteeringReturn)
	viper.SetDefault("vehicle.steeringSettle", v.SteeringSettle)
	viper.SetDefault("vehicle.maxWheelSteer", v.MaxWheelSteer)
	viper.SetDefault("vehicle.gravity", v.Gravity)
	viper.SetDefault("vehicle.groundY", v.GroundY)
	viper.SetDefault("vehicle.bottomOffset", v.BottomOffset)
	viper.SetDefault("vehicle.bounds", string(v.Bounds))
	viper.SetDefault("vehicle.mapLimit", v.MapLimit)
	viper.SetDefault("vehicle.spawn", v.SpawnPoint[:])

	c := d.Camera
	viper.SetDefault("camera.minDistance", c.MinDistance)
	viper.SetDefault("camera.maxDistance", c.MaxDistance)
	viper.SetDefault("camera.minFov", c.MinFOV)
	viper.SetDefault("camera.maxFov", c.MaxFOV)
	viper.SetDefault("camera.maxAngleOffset", c.MaxAngleOffset)
	viper.SetDefault("camera.angleRate", c.AngleRate)
	viper.SetDefault("camera.zoomRate", c.ZoomRate)
	viper.SetDefault("camera.height", c.Height)
	viper.SetDefault("camera.lookHeight", c.LookHeight)
	viper.SetDefault("camera.referenceSpeed", 0.0) // 0 follows vehicle.maxForwardSpeed

	e := d.Environment
	viper.SetDefault("environment.dayLength", e.DayLength)
	viper.SetDefault("environment.ambientDay", e.AmbientDay)
	viper.SetDefault("environment.ambientDusk", e.AmbientDusk)
	viper.SetDefault("environment.directionalDay", e.DirectionalDay)
	viper.SetDefault("environment.directionalDusk", e.DirectionalDusk)
	viper.SetDefault("environment.skyDay", e.SkyDay.Hex())
	viper.SetDefault("environment.skyDusk", e.SkyDusk.Hex())
	viper.SetDefault("environment.firstRainMin", e.FirstRainMin)
	viper.SetDefault("environment.firstRainMax", e.FirstRainMax)
	viper.SetDefault("environment.rainIntervalMin", e.RainIntervalMin)
	viper.SetDefault("environment.rainIntervalMax", e.RainIntervalMax)
	viper.SetDefault("environment.rainRampRate", e.RainRampRate)
	viper.SetDefault("environment.rainVisibleAt", e.RainVisibleAt)
	viper.SetDefault("environment.clockScale", e.ClockScale)

	w := d.World
	viper.SetDefault("world.minCount", w.MinCount)
	viper.SetDefault("world.maxCount", w.MaxCount)
	viper.SetDefault("world.halfExtent", w.HalfExtent)
	viper.SetDefault("world.spacing", w.Spacing)
	viper.SetDefault("world.clearance", w.Clearance)
	viper.SetDefault("world.spawn", []float64{w.Spawn.X, w.Spawn.Z})
	viper.SetDefault("world.groundY", w.GroundY)
	t := w.Tree
	viper.SetDefault("world.tree.trunkRadius", t.TrunkRadius)
	viper.SetDefault("world.tree.trunkHeight", t.TrunkHeight)
	viper.SetDefault("world.tree.canopyRadiusMin", t.CanopyRadiusMin)
	viper.SetDefault("world.tree.canopyRadiusMax", t.CanopyRadiusMax)
	viper.SetDefault("world.tree.canopyHeightMin", t.CanopyHeightMin)
	viper.SetDefault("world.tree.canopyHeightMax", t.CanopyHeightMax)
	viper.SetDefault("world.tree.leafOffsetMin", t.LeafOffsetMin)
	viper.SetDefault("world.tree.leafOffsetMax", t.LeafOffsetMax)
	viper.SetDefault("world.tree.leafRedMin", t.LeafRedMin)
	viper.SetDefault("world.tree.leafRedMax", t.LeafRedMax)
	viper.SetDefault("world.tree.leafGreenMin", t.LeafGreenMin)
	viper.SetDefault("world.tree.leafGreenMax", t.LeafGreenMax)
	viper.SetDefault("world.tree.leafBlueMin", t.LeafBlueMin)
	viper.SetDefault("world.tree.leafBlueMax", t.LeafBlueMax)

	viper.SetDefault("geo.anchor", "")

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./recordings")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.memory.sampleEvery", 1)
	viper.SetDefault("storage.sqlite.path", "")
	viper.SetDefault("storage.sqlite.dumpPath", "./recordings/drivesim.db")
	viper.SetDefault("storage.sqlite.dumpInterval", "3m")
	viper.SetDefault("storage.db.driver", "postgres")
	viper.SetDefault("storage.db.host", "localhost")
	viper.SetDefault("storage.db.port", "5432")
	viper.SetDefault("storage.db.username", "postgres")
	viper.SetDefault("storage.db.password", "postgres")
	viper.SetDefault("storage.db.database", "drivesim")
	viper.SetDefault("storage.db.fallbackPath", "./recordings/fallback.db")
	viper.SetDefault("storage.db.batchSize", 500)
	viper.SetDefault("storage.websocket.url", "ws://localhost:5000/api/v1/stream")
	viper.SetDefault("storage.websocket.token", "")
	viper.SetDefault("storage.websocket.sampleEvery", 2)

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "drivesim")
	viper.SetDefault("influx.bucket", "drivesim")
	viper.SetDefault("influx.backupDir", "./recordings/influx")
	viper.SetDefault("influx.sampleEvery", 6)

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "drivesim")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)
	viper.SetDefault("otel.metrics", false)
	viper.SetDefault("otel.metricInterval", "10s")

	viper.SetDefault("api.serverUrl", "http://localhost:5000")
	viper.SetDefault("api.apiKey", "")
	viper.SetDefault("api.upload", false)
	viper.SetDefault("api.tag", "")

	viper.SetDefault("monitor.enabled", true)
	viper.SetDefault("monitor.interval", "5s")
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	setDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// LoadDefaults sets default values without reading a file.
func LoadDefaults() {
	setDefaults()
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// floats reads a numeric array. JSON decodes to []any, defaults are []float64.
func floats(key string, n int) ([]float64, error) {
	var raw []any
	switch v := viper.Get(key).(type) {
	case []float64:
		for _, f := range v {
			raw = append(raw, f)
		}
	case []any:
		raw = v
	default:
		return nil, fmt.Errorf("%s must be an array of %d numbers", key, n)
	}
	if len(raw) != n {
		return nil, fmt.Errorf("%s must have %d components, got %d", key, n, len(raw))
	}
	out := make([]float64, n)
	for i, e := range raw {
		if _, err := fmt.Sscan(fmt.Sprint(e), &out[i]); err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", key, i, err)
		}
	}
	return out, nil
}

// GetVehicleConfig returns the vehicle tuning.
func GetVehicleConfig() (vehicle.Params, error) {
	p := vehicle.Params{
		Mass:              viper.GetFloat64("vehicle.mass"),
		MaxForwardSpeed:   viper.GetFloat64("vehicle.maxForwardSpeed"),
		MaxReverseSpeed:   viper.GetFloat64("vehicle.maxReverseSpeed"),
		AccelerationRate:  viper.GetFloat64("vehicle.accelerationRate"),
		BrakeForce:        viper.GetFloat64("vehicle.brakeForce"),
		HandbrakeFactor:   viper.GetFloat64("vehicle.handbrakeFactor"),
		Drag:              viper.GetFloat64("vehicle.drag"),
		RollingResist:     viper.GetFloat64("vehicle.rollingResistance"),
		ReverseThreshold:  viper.GetFloat64("vehicle.reverseThreshold"),
		DeadZone:          viper.GetFloat64("vehicle.deadZone"),
		SteeringThreshold: viper.GetFloat64("vehicle.steeringThreshold"),
		SteeringAngle:     viper.GetFloat64("vehicle.steeringAngle"),
		TurnSpeed:         viper.GetFloat64("vehicle.turnSpeed"),
		SteeringReturn:    viper.GetFloat64("vehicle.steeringReturn"),
		SteeringSettle:    viper.GetFloat64("vehicle.steeringSettle"),
		MaxWheelSteer:     viper.GetFloat64("vehicle.maxWheelSteer"),
		Gravity:           viper.GetFloat64("vehicle.gravity"),
		GroundY:           viper.GetFloat64("vehicle.groundY"),
		BottomOffset:      viper.GetFloat64("vehicle.bottomOffset"),
		Bounds:            vehicle.BoundsMode(strings.ToLower(viper.GetString("vehicle.bounds"))),
		MapLimit:          viper.GetFloat64("vehicle.mapLimit"),
	}
	spawn, err := floats("vehicle.spawn", 3)
	if err != nil {
		return p, err
	}
	p.SpawnPoint = [3]float64(spawn)
	return p, nil
}

// GetCameraConfig returns the chase camera tuning. A zero reference speed
// follows the vehicle's top speed.
func GetCameraConfig(topSpeed float64) camera.Params {
	ref := viper.GetFloat64("camera.referenceSpeed")
	if ref == 0 {
		ref = topSpeed
	}
	return camera.Params{
		MinDistance:    viper.GetFloat64("camera.minDistance"),
		MaxDistance:    viper.GetFloat64("camera.maxDistance"),
		MinFOV:         viper.GetFloat64("camera.minFov"),
		MaxFOV:         viper.GetFloat64("camera.maxFov"),
		MaxAngleOffset: viper.GetFloat64("camera.maxAngleOffset"),
		AngleRate:      viper.GetFloat64("camera.angleRate"),
		ZoomRate:       viper.GetFloat64("camera.zoomRate"),
		Height:         viper.GetFloat64("camera.height"),
		LookHeight:     viper.GetFloat64("camera.lookHeight"),
		ReferenceSpeed: ref,
	}
}

// GetEnvironmentConfig returns the day/night and weather tuning.
func GetEnvironmentConfig() (environment.Params, error) {
	var errs []error
	color := func(key string) colorful.Color {
		c, err := colorful.Hex(viper.GetString(key))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %q is not a #rrggbb colour", key, viper.GetString(key)))
		}
		return c
	}
	p := environment.Params{
		DayLength:       viper.GetFloat64("environment.dayLength"),
		AmbientDay:      viper.GetFloat64("environment.ambientDay"),
		AmbientDusk:     viper.GetFloat64("environment.ambientDusk"),
		DirectionalDay:  viper.GetFloat64("environment.directionalDay"),
		DirectionalDusk: viper.GetFloat64("environment.directionalDusk"),
		SkyDay:          color("environment.skyDay"),
		SkyDusk:         color("environment.skyDusk"),
		FirstRainMin:    viper.GetFloat64("environment.firstRainMin"),
		FirstRainMax:    viper.GetFloat64("environment.firstRainMax"),
		RainIntervalMin: viper.GetFloat64("environment.rainIntervalMin"),
		RainIntervalMax: viper.GetFloat64("environment.rainIntervalMax"),
		RainRampRate:    viper.GetFloat64("environment.rainRampRate"),
		RainVisibleAt:   viper.GetFloat64("environment.rainVisibleAt"),
		ClockScale:      viper.GetFloat64("environment.clockScale"),
	}
	return p, errors.Join(errs...)
}

// GetWorldConfig returns the obstacle field settings.
func GetWorldConfig() (world.Config, error) {
	cfg := world.Config{
		MinCount:   viper.GetInt("world.minCount"),
		MaxCount:   viper.GetInt("world.maxCount"),
		HalfExtent: viper.GetFloat64("world.halfExtent"),
		Spacing:    viper.GetFloat64("world.spacing"),
		Clearance:  viper.GetFloat64("world.clearance"),
		GroundY:    viper.GetFloat64("world.groundY"),
		Tree: world.TreeShape{
			TrunkRadius:     viper.GetFloat64("world.tree.trunkRadius"),
			TrunkHeight:     viper.GetFloat64("world.tree.trunkHeight"),
			CanopyRadiusMin: viper.GetFloat64("world.tree.canopyRadiusMin"),
			CanopyRadiusMax: viper.GetFloat64("world.tree.canopyRadiusMax"),
			CanopyHeightMin: viper.GetFloat64("world.tree.canopyHeightMin"),
			CanopyHeightMax: viper.GetFloat64("world.tree.canopyHeightMax"),
			LeafOffsetMin:   viper.GetFloat64("world.tree.leafOffsetMin"),
			LeafOffsetMax:   viper.GetFloat64("world.tree.leafOffsetMax"),
			LeafRedMin:      viper.GetFloat64("world.tree.leafRedMin"),
			LeafRedMax:      viper.GetFloat64("world.tree.leafRedMax"),
			LeafGreenMin:    viper.GetFloat64("world.tree.leafGreenMin"),
			LeafGreenMax:    viper.GetFloat64("world.tree.leafGreenMax"),
			LeafBlueMin:     viper.GetFloat64("world.tree.leafBlueMin"),
			LeafBlueMax:     viper.GetFloat64("world.tree.leafBlueMax"),
		},
	}
	spawn, err := floats("world.spawn", 2)
	if err != nil {
		return cfg, err
	}
	cfg.Spawn = placement.Point{X: spawn[0], Z: spawn[1]}
	return cfg, nil
}

// GetSimConfig assembles and validates the full simulation config. Every
// problem is reported in one *ValidationError.
func GetSimConfig() (sim.Config, error) {
	var errs []error

	v, err := GetVehicleConfig()
	errs = append(errs, err)
	env, err := GetEnvironmentConfig()
	errs = append(errs, err)
	w, err := GetWorldConfig()
	errs = append(errs, err)

	cfg := sim.Config{
		Seed:        viper.GetInt64("sim.seed"),
		MaxDelta:    viper.GetFloat64("sim.maxDelta"),
		StartTime:   viper.GetFloat64("sim.startTime"),
		Vehicle:     v,
		Camera:      GetCameraConfig(v.MaxForwardSpeed),
		Environment: env,
		World:       w,
	}
	errs = append(errs, cfg.Validate())
	if err := errors.Join(errs...); err != nil {
		return cfg, &ValidationError{Err: err}
	}
	return cfg, nil
}

// GetRunnerConfig returns the headless runner settings.
func GetRunnerConfig() RunnerConfig {
	return RunnerConfig{
		Rate:           viper.GetFloat64("runner.rate"),
		Fixed:          viper.GetBool("runner.fixed"),
		Duration:       viper.GetDuration("runner.duration"),
		StartFromClock: viper.GetBool("runner.startFromClock"),
		ClockZone:      viper.GetString("runner.clockZone"),
	}
}

// GetStorageConfig returns the storage backend settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
			SampleEvery:    viper.GetInt("storage.memory.sampleEvery"),
		},
		SQLite: SQLiteConfig{
			Path:         viper.GetString("storage.sqlite.path"),
			DumpPath:     viper.GetString("storage.sqlite.dumpPath"),
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
		},
		DB: DBConfig{
			Driver:       viper.GetString("storage.db.driver"),
			Host:         viper.GetString("storage.db.host"),
			Port:         viper.GetString("storage.db.port"),
			Username:     viper.GetString("storage.db.username"),
			Password:     viper.GetString("storage.db.password"),
			Database:     viper.GetString("storage.db.database"),
			FallbackPath: viper.GetString("storage.db.fallbackPath"),
			BatchSize:    viper.GetInt("storage.db.batchSize"),
		},
		WebSocket: WebSocketConfig{
			URL:         viper.GetString("storage.websocket.url"),
			Token:       viper.GetString("storage.websocket.token"),
			SampleEvery: viper.GetInt("storage.websocket.sampleEvery"),
		},
	}
}

// GetOTelConfig returns the OpenTelemetry settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:        viper.GetBool("otel.enabled"),
		ServiceName:    viper.GetString("otel.serviceName"),
		BatchTimeout:   viper.GetDuration("otel.batchTimeout"),
		Endpoint:       viper.GetString("otel.endpoint"),
		Insecure:       viper.GetBool("otel.insecure"),
		Metrics:        viper.GetBool("otel.metrics"),
		MetricInterval: viper.GetDuration("otel.metricInterval"),
	}
}

// GetInfluxConfig returns the InfluxDB settings.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:     viper.GetBool("influx.enabled"),
		Host:        viper.GetString("influx.host"),
		Port:        viper.GetString("influx.port"),
		Protocol:    viper.GetString("influx.protocol"),
		Token:       viper.GetString("influx.token"),
		Org:         viper.GetString("influx.org"),
		Bucket:      viper.GetString("influx.bucket"),
		BackupDir:   viper.GetString("influx.backupDir"),
		SampleEvery: viper.GetInt("influx.sampleEvery"),
	}
}

// GetLoggingConfig returns the log output settings.
func GetLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:          viper.GetString("logLevel"),
		Dir:            viper.GetString("logsDir"),
		GraylogEnabled: viper.GetBool("graylog.enabled"),
		GraylogAddress: viper.GetString("graylog.address"),
	}
}

// GetAPIConfig returns the run viewer settings.
func GetAPIConfig() APIConfig {
	return APIConfig{
		ServerURL: viper.GetString("api.serverUrl"),
		APIKey:    viper.GetString("api.apiKey"),
		Upload:    viper.GetBool("api.upload"),
		Tag:       viper.GetString("api.tag"),
	}
}

// GetMonitorConfig returns the status reporting settings.
func GetMonitorConfig() MonitorConfig {
	return MonitorConfig{
		Enabled:  viper.GetBool("monitor.enabled"),
		Interval: viper.GetDuration("monitor.interval"),
	}
}

// GetGeoAnchor returns the configured scene anchor, or nil when none is set.
func GetGeoAnchor() (*geo.Anchor, error) {
	raw := strings.TrimSpace(viper.GetString("geo.anchor"))
	if raw == "" {
		return nil, nil
	}
	a, err := geo.ParseAnchor(raw)
	if err != nil {
		return nil, fmt.Errorf("geo.anchor: %w", err)
	}
	return &a, nil
}
