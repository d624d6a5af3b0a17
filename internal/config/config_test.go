package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/OCAP2/drivesim/internal/sim"
	"github.com/OCAP2/drivesim/internal/vehicle"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(body), 0644))
	return dir
}

func TestLoad_WithValidConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{
		"logLevel": "debug",
		"sim": { "seed": 42 },
		"storage": { "db": { "host": "10.0.0.1", "port": "5433" } }
	}`)

	require.NoError(t, Load(dir))

	assert.Equal(t, "debug", viper.GetString("logLevel"))
	assert.Equal(t, 42, viper.GetInt("sim.seed"))
	assert.Equal(t, "10.0.0.1", viper.GetString("storage.db.host"))
	assert.Equal(t, "5433", viper.GetString("storage.db.port"))
}

func TestLoad_DefaultValues(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(writeConfig(t, `{}`)))

	assert.Equal(t, "info", viper.GetString("logLevel"))
	assert.Equal(t, "./drivesimlogs", viper.GetString("logsDir"))
	assert.Equal(t, false, viper.GetBool("graylog.enabled"))
	assert.Equal(t, "localhost:12201", viper.GetString("graylog.address"))
	assert.Equal(t, "memory", viper.GetString("storage.type"))
	assert.Equal(t, "./recordings", viper.GetString("storage.memory.outputDir"))
	assert.Equal(t, "3m", viper.GetString("storage.sqlite.dumpInterval"))
	assert.Equal(t, "postgres", viper.GetString("storage.db.driver"))
	assert.Equal(t, "drivesim", viper.GetString("storage.db.database"))
	assert.Equal(t, false, viper.GetBool("influx.enabled"))
	assert.Equal(t, "8086", viper.GetString("influx.port"))
	assert.Equal(t, "drivesim", viper.GetString("otel.serviceName"))
	assert.Equal(t, "", viper.GetString("geo.anchor"))
}

func TestLoad_MissingFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	err := Load("/nonexistent/path")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestGetString(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testKey", "testValue")
	assert.Equal(t, "testValue", GetString("testKey"))
}

func TestGetInt(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testInt", 42)
	assert.Equal(t, 42, GetInt("testInt"))
}

func TestGetBool(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testBool", true)
	assert.Equal(t, true, GetBool("testBool"))
}

func TestGetSimConfig_DefaultsMatchStockScene(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{}`)))

	cfg, err := GetSimConfig()
	require.NoError(t, err)

	want := sim.DefaultConfig()
	assert.Equal(t, want.Seed, cfg.Seed)
	assert.Equal(t, want.MaxDelta, cfg.MaxDelta)
	assert.Equal(t, want.Vehicle, cfg.Vehicle)
	assert.Equal(t, want.Camera, cfg.Camera)
	assert.Equal(t, want.World, cfg.World)
	assert.Equal(t, want.Environment.DayLength, cfg.Environment.DayLength)
	assert.Equal(t, want.Environment.SkyDay.Hex(), cfg.Environment.SkyDay.Hex())
	assert.Equal(t, want.Environment.SkyDusk.Hex(), cfg.Environment.SkyDusk.Hex())
}

func TestGetSimConfig_Override(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{
		"vehicle": { "maxForwardSpeed": 40, "bounds": "SQUARE", "spawn": [1, 2, 3] },
		"world": { "spawn": [5, -5], "maxCount": 10, "minCount": 5 },
		"environment": { "skyDay": "#112233" }
	}`)))

	cfg, err := GetSimConfig()
	require.NoError(t, err)

	assert.Equal(t, 40.0, cfg.Vehicle.MaxForwardSpeed)
	assert.Equal(t, vehicle.BoundsSquare, cfg.Vehicle.Bounds)
	assert.Equal(t, [3]float64{1, 2, 3}, cfg.Vehicle.SpawnPoint)
	assert.Equal(t, 5.0, cfg.World.Spawn.X)
	assert.Equal(t, -5.0, cfg.World.Spawn.Z)
	assert.Equal(t, 10, cfg.World.MaxCount)
	assert.Equal(t, "#112233", cfg.Environment.SkyDay.Hex())
	// camera reference speed follows the vehicle when unset
	assert.Equal(t, 40.0, cfg.Camera.ReferenceSpeed)
}

func TestGetSimConfig_CollectsEveryViolation(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{
		"sim": { "maxDelta": 0 },
		"environment": { "skyDusk": "orange" },
		"world": { "spawn": [1] }
	}`)))

	_, err := GetSimConfig()
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, err.Error(), "invalid configuration")
	assert.Contains(t, err.Error(), "sim.maxDelta")
	assert.Contains(t, err.Error(), "environment.skyDusk")
	assert.Contains(t, err.Error(), "world.spawn")
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(sim.DefaultConfig()))

	cfg := sim.DefaultConfig()
	cfg.MaxDelta = -1
	err := Validate(cfg)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Error(t, verr.Unwrap())
}

func TestGetStorageConfig_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{}`)))

	cfg := GetStorageConfig()
	assert.Equal(t, "memory", cfg.Type)
	assert.Equal(t, "./recordings", cfg.Memory.OutputDir)
	assert.Equal(t, true, cfg.Memory.CompressOutput)
	assert.Equal(t, 1, cfg.Memory.SampleEvery)
	assert.Equal(t, 3*time.Minute, cfg.SQLite.DumpInterval)
	assert.Equal(t, 500, cfg.DB.BatchSize)
	assert.Equal(t, 2, cfg.WebSocket.SampleEvery)
}

func TestGetStorageConfig_Override(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{
		"storage": {
			"type": "sqlite",
			"memory": { "outputDir": "/tmp/out", "compressOutput": false },
			"sqlite": { "dumpInterval": "10m" },
			"websocket": { "url": "ws://viewer:9000/live", "token": "abc" }
		}
	}`)))

	sc := GetStorageConfig()
	assert.Equal(t, "sqlite", sc.Type)
	assert.Equal(t, "/tmp/out", sc.Memory.OutputDir)
	assert.Equal(t, false, sc.Memory.CompressOutput)
	assert.Equal(t, 10*time.Minute, sc.SQLite.DumpInterval)
	assert.Equal(t, "ws://viewer:9000/live", sc.WebSocket.URL)
	assert.Equal(t, "abc", sc.WebSocket.Token)
}

func TestGetOTelConfig_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{}`)))

	cfg := GetOTelConfig()
	assert.Equal(t, false, cfg.Enabled)
	assert.Equal(t, "drivesim", cfg.ServiceName)
	assert.Equal(t, 5*time.Second, cfg.BatchTimeout)
	assert.Equal(t, "", cfg.Endpoint)
	assert.Equal(t, true, cfg.Insecure)
	assert.Equal(t, 10*time.Second, cfg.MetricInterval)
}

func TestGetOTelConfig_Override(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{
		"otel": {
			"enabled": true,
			"serviceName": "my-service",
			"batchTimeout": "30s",
			"endpoint": "localhost:4318",
			"insecure": false
		}
	}`)))

	oc := GetOTelConfig()
	assert.Equal(t, true, oc.Enabled)
	assert.Equal(t, "my-service", oc.ServiceName)
	assert.Equal(t, 30*time.Second, oc.BatchTimeout)
	assert.Equal(t, "localhost:4318", oc.Endpoint)
	assert.Equal(t, false, oc.Insecure)
}

func TestGetInfluxAndLoggingConfig(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{
		"logLevel": "warn",
		"graylog": { "enabled": true },
		"influx": { "enabled": true, "host": "influx.local", "sampleEvery": 3 }
	}`)))

	ic := GetInfluxConfig()
	assert.True(t, ic.Enabled)
	assert.Equal(t, "influx.local", ic.Host)
	assert.Equal(t, "http", ic.Protocol)
	assert.Equal(t, 3, ic.SampleEvery)

	lc := GetLoggingConfig()
	assert.Equal(t, "warn", lc.Level)
	assert.True(t, lc.GraylogEnabled)
	assert.Equal(t, "localhost:12201", lc.GraylogAddress)
}

func TestGetRunnerAndMonitorConfig(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{
		"runner": { "rate": 30, "fixed": true, "duration": "2m" }
	}`)))

	rc := GetRunnerConfig()
	assert.Equal(t, 30.0, rc.Rate)
	assert.True(t, rc.Fixed)
	assert.Equal(t, 2*time.Minute, rc.Duration)
	assert.Equal(t, "UTC", rc.ClockZone)

	mc := GetMonitorConfig()
	assert.True(t, mc.Enabled)
	assert.Equal(t, 5*time.Second, mc.Interval)
}

func TestGetAPIConfig(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{
		"api": { "apiKey": "k", "upload": true, "tag": "nightly" }
	}`)))

	ac := GetAPIConfig()
	assert.Equal(t, "http://localhost:5000", ac.ServerURL)
	assert.Equal(t, "k", ac.APIKey)
	assert.True(t, ac.Upload)
	assert.Equal(t, "nightly", ac.Tag)
}

func TestGetGeoAnchor(t *testing.T) {
	t.Cleanup(viper.Reset)
	LoadDefaults()

	a, err := GetGeoAnchor()
	require.NoError(t, err)
	assert.Nil(t, a)

	viper.Set("geo.anchor", "13.4, 52.5")
	a, err = GetGeoAnchor()
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, 13.4, a.Longitude)
	assert.Equal(t, 52.5, a.Latitude)

	viper.Set("geo.anchor", "13.4")
	_, err = GetGeoAnchor()
	assert.Error(t, err)
}
