package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/led_compass/internal/compass"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, SensorLSM303AGR, cfg.Sensor.Driver)
	assert.Equal(t, 100*time.Millisecond, cfg.GlyphDuration())
	assert.Equal(t, compass.Reference, cfg.Calibration)
	assert.False(t, cfg.MQTT.Enabled)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compass.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
mqtt:
  enabled: true
  broker: tcp://pi.local:1883
sensor:
  driver: hmc5983
  i2c_addr: 0x1e
  odr_hz: 15
display:
  driver: console
  glyph_duration_ms: 250
calibration:
  center: {x: 1, y: 2, z: 3}
  scale: {x: 10, y: 20, z: 30}
  radius: 20
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.MQTT.Enabled)
	assert.Equal(t, "tcp://pi.local:1883", cfg.MQTT.Broker)
	assert.Equal(t, "compass/heading", cfg.MQTT.TopicHeading)
	assert.Equal(t, SensorHMC5983, cfg.Sensor.Driver)
	assert.Equal(t, uint16(0x1E), cfg.Sensor.I2CAddr)
	assert.Equal(t, 15, cfg.Sensor.ODRHz)
	assert.Equal(t, DisplayConsole, cfg.Display.Driver)
	assert.Equal(t, 250*time.Millisecond, cfg.GlyphDuration())
	assert.Equal(t, compass.Calibration{
		Center: compass.Measurement{X: 1, Y: 2, Z: 3},
		Scale:  compass.Measurement{X: 10, Y: 20, Z: 30},
		Radius: 20,
	}, cfg.Calibration)
}

func TestParse_Rejects(t *testing.T) {
	cases := map[string]string{
		"unknown key":      "sensor:\n  drivr: mock\n",
		"unknown driver":   "sensor:\n  driver: bno055\n",
		"unknown display":  "display:\n  driver: hub75\n",
		"zero scale":       "calibration:\n  scale: {x: 0, y: 1, z: 1}\n  radius: 1\n",
		"zero duration":    "display:\n  glyph_duration_ms: 0\n",
		"mqtt sans broker": "mqtt:\n  enabled: true\n  broker: \"\"\n",
		"not yaml":         "sensor: [",
		"empty static dir": "web:\n  static_dir: \"\"\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(body))
			assert.Error(t, err)
		})
	}
}

func TestParse_EmptyIsDefault(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParse_WebStaticDir(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, "web", cfg.Web.StaticDir)

	cfg, err = Parse([]byte("web:\n  port: 9090\n  static_dir: /usr/share/led-compass/web\n"))
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Web.Port)
	assert.Equal(t, "/usr/share/led-compass/web", cfg.Web.StaticDir)
}
