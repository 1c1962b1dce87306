package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pitchmark.cfg.json"), []byte(body), 0644))
	return dir
}

func TestLoad_WithValidConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{
		"logLevel": "debug",
		"logsDir": "/var/log/pitchmark",
		"db": { "host": "10.0.0.1", "port": "5433" }
	}`)

	err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "debug", viper.GetString("logLevel"))
	assert.Equal(t, "/var/log/pitchmark", viper.GetString("logsDir"))
	assert.Equal(t, "10.0.0.1", viper.GetString("db.host"))
	assert.Equal(t, "5433", viper.GetString("db.port"))
}

func TestLoad_DefaultValues(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{}`)

	err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "info", viper.GetString("logLevel"))
	assert.Equal(t, "./pitchmarklogs", viper.GetString("logsDir"))
	assert.Equal(t, false, viper.GetBool("input.projected"))
	assert.Equal(t, 1024, viper.GetInt("preview.size"))
	assert.Equal(t, "http://localhost:5000", viper.GetString("api.serverUrl"))
	assert.Equal(t, "", viper.GetString("api.apiKey"))
	assert.Equal(t, false, viper.GetBool("db.enabled"))
	assert.Equal(t, "localhost", viper.GetString("db.host"))
	assert.Equal(t, "5432", viper.GetString("db.port"))
	assert.Equal(t, "postgres", viper.GetString("db.username"))
	assert.Equal(t, "postgres", viper.GetString("db.password"))
	assert.Equal(t, "pitchmark", viper.GetString("db.database"))
	assert.Equal(t, false, viper.GetBool("influx.enabled"))
	assert.Equal(t, "pitchmark-metrics", viper.GetString("influx.org"))
	assert.Equal(t, false, viper.GetBool("graylog.enabled"))
	assert.Equal(t, "localhost:12201", viper.GetString("graylog.address"))
	assert.Equal(t, false, viper.GetBool("monitor.enabled"))
	assert.Equal(t, "./pitchmark.status.json", viper.GetString("monitor.statusFile"))
	assert.Equal(t, "memory", viper.GetString("storage.type"))
	assert.Equal(t, "./scenes", viper.GetString("storage.memory.outputDir"))
	assert.Equal(t, true, viper.GetBool("storage.memory.compressOutput"))
	assert.Equal(t, "3m", viper.GetString("storage.sqlite.dumpInterval"))
	assert.Equal(t, false, viper.GetBool("otel.enabled"))
	assert.Equal(t, "pitchmark", viper.GetString("otel.serviceName"))
	assert.Equal(t, "5s", viper.GetString("otel.batchTimeout"))
	assert.Equal(t, "", viper.GetString("otel.endpoint"))
	assert.Equal(t, true, viper.GetBool("otel.insecure"))
}

func TestLoad_MissingFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	err := Load("/nonexistent/path")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestScalarGetters(t *testing.T) {
	t.Cleanup(viper.Reset)

	viper.Set("preview.size", 2048)
	viper.Set("api.apiKey", "s3cret")
	viper.Set("input.projected", true)

	assert.Equal(t, 2048, GetInt("preview.size"))
	assert.Equal(t, "s3cret", GetString("api.apiKey"))
	assert.True(t, GetBool("input.projected"))
}

func TestGetStorageConfig_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{}`)
	require.NoError(t, Load(dir))

	cfg := GetStorageConfig()
	assert.Equal(t, "memory", cfg.Type)
	assert.Equal(t, "./scenes", cfg.Memory.OutputDir)
	assert.Equal(t, true, cfg.Memory.CompressOutput)
	assert.Equal(t, 3*time.Minute, cfg.SQLite.DumpInterval)
}

func TestGetStorageConfig_Override(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{
		"storage": {
			"type": "sqlite",
			"memory": { "outputDir": "/data/scenes", "compressOutput": false },
			"sqlite": { "dumpInterval": "7m" }
		}
	}`)
	require.NoError(t, Load(dir))

	sc := GetStorageConfig()
	assert.Equal(t, "sqlite", sc.Type)
	assert.Equal(t, "/data/scenes", sc.Memory.OutputDir)
	assert.False(t, sc.Memory.CompressOutput)
	assert.Equal(t, 7*time.Minute, sc.SQLite.DumpInterval)
}

func TestGetOTelConfig_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{}`)
	require.NoError(t, Load(dir))

	cfg := GetOTelConfig()
	assert.Equal(t, false, cfg.Enabled)
	assert.Equal(t, "pitchmark", cfg.ServiceName)
	assert.Equal(t, 5*time.Second, cfg.BatchTimeout)
	assert.Equal(t, "", cfg.Endpoint)
	assert.Equal(t, true, cfg.Insecure)
}

func TestGetOTelConfig_Override(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{
		"otel": {
			"enabled": true,
			"serviceName": "pitchmark-nightly",
			"batchTimeout": "15s",
			"endpoint": "collector.example.com:4318",
			"insecure": false
		}
	}`)
	require.NoError(t, Load(dir))

	oc := GetOTelConfig()
	assert.True(t, oc.Enabled)
	assert.Equal(t, "pitchmark-nightly", oc.ServiceName)
	assert.Equal(t, 15*time.Second, oc.BatchTimeout)
	assert.Equal(t, "collector.example.com:4318", oc.Endpoint)
	assert.False(t, oc.Insecure)
}

func TestGetSports_Override(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{
		"sports": {
			"soccer": { "minLongSide": 100, "material": "pitch_turf" },
			"futsal": {
				"minLongSide": 25, "maxLongSide": 42,
				"minShortSide": 16, "maxShortSide": 25,
				"material": "pitch_futsal", "fallbackMaterial": "concrete"
			}
		}
	}`)
	require.NoError(t, Load(dir))

	sports, err := GetSports()
	require.NoError(t, err)
	require.Len(t, sports, 2)

	soccer := sports["soccer"]
	assert.Equal(t, 100.0, soccer.MinLongSide)
	assert.Equal(t, 0.0, soccer.MaxLongSide)
	assert.Equal(t, "pitch_turf", soccer.Material)
	assert.Equal(t, "", soccer.FallbackMaterial)

	futsal := sports["futsal"]
	assert.Equal(t, 25.0, futsal.MinLongSide)
	assert.Equal(t, 42.0, futsal.MaxLongSide)
	assert.Equal(t, 16.0, futsal.MinShortSide)
	assert.Equal(t, 25.0, futsal.MaxShortSide)
	assert.Equal(t, "pitch_futsal", futsal.Material)
	assert.Equal(t, "concrete", futsal.FallbackMaterial)
}

func TestGetSports_EmptyWhenAbsent(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{}`)
	require.NoError(t, Load(dir))

	sports, err := GetSports()
	require.NoError(t, err)
	assert.Empty(t, sports)
}

func TestGetMaterials_Override(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{
		"materials": {
			"pitch_futsal": { "texture": "textures/pitch_futsal.webp" },
			"concrete": { "texture": "textures/concrete.webp", "texWorldWidth": 2, "texWorldHeight": 2 }
		}
	}`)
	require.NoError(t, Load(dir))

	materials, err := GetMaterials()
	require.NoError(t, err)
	require.Len(t, materials, 2)

	assert.Equal(t, "textures/pitch_futsal.webp", materials["pitch_futsal"].Texture)
	assert.Equal(t, 0.0, materials["pitch_futsal"].TexWorldWidth)
	assert.Equal(t, 2.0, materials["concrete"].TexWorldWidth)
	assert.Equal(t, 2.0, materials["concrete"].TexWorldHeight)
}
