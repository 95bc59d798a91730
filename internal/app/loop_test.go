package app

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/relabs-tech/led_compass/internal/compass"
	"github.com/relabs-tech/led_compass/internal/sensors"
)

// fakeSensor reports not-ready notReady times before each sample, then
// fails once samples run out.
type fakeSensor struct {
	samples   []compass.Measurement
	notReady  int
	readErr   error
	statusErr error

	polls   int
	pending int
}

func (f *fakeSensor) Status() (sensors.Status, error) {
	f.polls++
	if f.statusErr != nil {
		return sensors.Status{}, f.statusErr
	}
	if f.pending < f.notReady {
		f.pending++
		return sensors.Status{}, nil
	}
	return sensors.Status{DataReady: true}, nil
}

func (f *fakeSensor) Read() (compass.Measurement, error) {
	f.pending = 0
	if f.readErr != nil {
		return compass.Measurement{}, f.readErr
	}
	if len(f.samples) == 0 {
		return compass.Measurement{}, errors.New("i2c: remote i/o error")
	}
	m := f.samples[0]
	f.samples = f.samples[1:]
	return m, nil
}

type shown struct {
	glyph compass.Glyph
	d     time.Duration
}

type fakeDisplay struct {
	frames []shown
	err    error
}

func (f *fakeDisplay) Show(g compass.Glyph, d time.Duration) error {
	if f.err != nil {
		return f.err
	}
	f.frames = append(f.frames, shown{g, d})
	return nil
}

func (f *fakeDisplay) Clear() error { return nil }

type recorder struct{ readings []compass.Reading }

func (r *recorder) Observe(rd compass.Reading) { r.readings = append(r.readings, rd) }

// onEllipsoid returns the raw sample that calibrates to radius along (dx, dy).
func onEllipsoid(dx, dy int32) compass.Measurement {
	c := compass.Reference
	return compass.Measurement{
		X: c.Center.X + dx*c.Scale.X,
		Y: c.Center.Y + dy*c.Scale.Y,
		Z: c.Center.Z,
	}
}

func TestLoop_RunShowsArrowsUntilSensorFails(t *testing.T) {
	sensor := &fakeSensor{
		samples: []compass.Measurement{
			onEllipsoid(1, 0),  // East
			onEllipsoid(0, 1),  // North
			onEllipsoid(-1, 0), // West
			onEllipsoid(0, -1), // South
		},
		notReady: 3,
	}
	disp := &fakeDisplay{}
	rec := &recorder{}
	l := &Loop{
		Sensor:        sensor,
		Display:       disp,
		Calibration:   compass.Reference,
		GlyphDuration: 100 * time.Millisecond,
		Observer:      rec,
		Log:           zap.NewNop().Sugar(),
	}

	err := l.Run()
	require.ErrorContains(t, err, "sensor read")
	require.ErrorContains(t, err, "remote i/o error")

	want := []compass.Sector{compass.East, compass.North, compass.West, compass.South}
	require.Len(t, disp.frames, len(want))
	require.Len(t, rec.readings, len(want))
	for i, s := range want {
		assert.Equal(t, compass.GlyphFor(s), disp.frames[i].glyph, "frame %d", i)
		assert.Equal(t, 100*time.Millisecond, disp.frames[i].d)
		assert.Equal(t, s, rec.readings[i].Sector)
	}
	// Each of the five reads waited through three not-ready polls.
	assert.Equal(t, 5*4, sensor.polls)
}

func TestLoop_StatusErrorIsFatal(t *testing.T) {
	boom := errors.New("bus stuck")
	disp := &fakeDisplay{}
	l := &Loop{Sensor: &fakeSensor{statusErr: boom}, Display: disp, Calibration: compass.Reference}

	err := l.Run()
	require.ErrorIs(t, err, boom)
	assert.Empty(t, disp.frames)
}

func TestLoop_ReadErrorIsFatal(t *testing.T) {
	boom := errors.New("nack")
	disp := &fakeDisplay{}
	l := &Loop{Sensor: &fakeSensor{readErr: boom}, Display: disp, Calibration: compass.Reference}

	_, err := l.Step()
	require.ErrorIs(t, err, boom)
	assert.Empty(t, disp.frames)
}

func TestLoop_DisplayErrorStopsLoop(t *testing.T) {
	boom := errors.New("panel gone")
	l := &Loop{
		Sensor:      &fakeSensor{samples: []compass.Measurement{onEllipsoid(1, 1), onEllipsoid(1, 1)}},
		Display:     &fakeDisplay{err: boom},
		Calibration: compass.Reference,
	}
	r, err := l.Step()
	require.ErrorIs(t, err, boom)
	assert.Equal(t, compass.NorthEast, r.Sector)
}

func TestLoop_StepIsDeterministic(t *testing.T) {
	raw := onEllipsoid(-1, -1)
	sensor := &fakeSensor{samples: []compass.Measurement{raw, raw}}
	l := &Loop{Sensor: sensor, Display: &fakeDisplay{}, Calibration: compass.Reference}

	a, err := l.Step()
	require.NoError(t, err)
	b, err := l.Step()
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, compass.SouthWest, a.Sector)
}
