package hmc5983

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c/i2ctest"

	"github.com/relabs-tech/led_compass/internal/compass"
)

func noSleep(t *testing.T) {
	t.Helper()
	old := sleep
	sleep = func(time.Duration) {}
	t.Cleanup(func() { sleep = old })
}

func initOps(cra, crb byte) []i2ctest.IO {
	return []i2ctest.IO{
		{Addr: DefaultAddr, W: []byte{regIDA}, R: []byte("H43")},
		{Addr: DefaultAddr, W: []byte{regCRA, cra}},
		{Addr: DefaultAddr, W: []byte{regCRB, crb}},
		{Addr: DefaultAddr, W: []byte{regMODE, 0x00}},
	}
}

func TestNew_ZeroOptsSelectsDefaults(t *testing.T) {
	noSleep(t)
	// 15 Hz, no averaging, gain code 1.
	bus := &i2ctest.Playback{Ops: initOps(0b100<<2, 1<<5), DontPanic: true}

	d, err := New(bus, Opts{})
	require.NoError(t, err)
	assert.Equal(t, int32(1090), d.lsbPerGaXY)
	assert.Equal(t, int32(980), d.lsbPerGaZ)
	require.NoError(t, bus.Close())
}

func TestNew_Gain088SelectsCodeZero(t *testing.T) {
	noSleep(t)
	bus := &i2ctest.Playback{Ops: initOps(0b100<<2, 0x00), DontPanic: true}

	d, err := New(bus, Opts{GainCode: Gain088})
	require.NoError(t, err)
	assert.Equal(t, int32(1370), d.lsbPerGaXY)
	assert.Equal(t, int32(1330), d.lsbPerGaZ)
	require.NoError(t, bus.Close())
}

func TestNew_OutOfRangeGainFallsBack(t *testing.T) {
	noSleep(t)
	bus := &i2ctest.Playback{Ops: initOps(0b100<<2, 1<<5), DontPanic: true}

	d, err := New(bus, Opts{GainCode: 9})
	require.NoError(t, err)
	assert.Equal(t, int32(1090), d.lsbPerGaXY)
	require.NoError(t, bus.Close())
}

func TestNew_WritesConfiguration(t *testing.T) {
	noSleep(t)
	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: DefaultAddr, W: []byte{regIDA}, R: []byte("H43")},
			{Addr: DefaultAddr, W: []byte{regCRA, 0b11<<5 | 0b110<<2}},
			{Addr: DefaultAddr, W: []byte{regCRB, 1 << 5}},
			{Addr: DefaultAddr, W: []byte{regMODE, 0x00}},
		},
		DontPanic: true,
	}
	_, err := New(bus, Opts{ODRHz: 75, AvgSamples: 8, GainCode: 1})
	require.NoError(t, err)
	require.NoError(t, bus.Close())
}

func TestNew_WrongIdentity(t *testing.T) {
	noSleep(t)
	bus := &i2ctest.Playback{
		Ops:       []i2ctest.IO{{Addr: DefaultAddr, W: []byte{regIDA}, R: []byte("ABC")}},
		DontPanic: true,
	}
	_, err := New(bus, Opts{})
	require.ErrorIs(t, err, ErrWrongID)
}

func TestReadReordersXZY(t *testing.T) {
	noSleep(t)
	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: DefaultAddr, W: []byte{regIDA}, R: []byte("H43")},
			{Addr: DefaultAddr, W: []byte{regCRA, 0b100 << 2}},
			{Addr: DefaultAddr, W: []byte{regCRB, 1 << 5}},
			{Addr: DefaultAddr, W: []byte{regMODE, 0x00}},
			{Addr: DefaultAddr, W: []byte{regSTATUS}, R: []byte{0x01}},
			// X=1090 (1 Ga), Z=-980 (-1 Ga), Y=545 (0.5 Ga)
			{Addr: DefaultAddr, W: []byte{regDATA}, R: []byte{0x04, 0x42, 0xFC, 0x2C, 0x02, 0x21}},
		},
		DontPanic: true,
	}
	d, err := New(bus, Opts{})
	require.NoError(t, err)

	st, err := d.Status()
	require.NoError(t, err)
	assert.True(t, st.DataReady)

	m, err := d.Read()
	require.NoError(t, err)
	assert.Equal(t, compass.Measurement{X: 100000, Y: 50000, Z: -100000}, m)
	require.NoError(t, bus.Close())
}

func TestDump_ReadsIdentity(t *testing.T) {
	noSleep(t)
	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: DefaultAddr, W: []byte{regIDA}, R: []byte("H43")},
			{Addr: DefaultAddr, W: []byte{regCRA, 0b100 << 2}},
			{Addr: DefaultAddr, W: []byte{regCRB, 1 << 5}},
			{Addr: DefaultAddr, W: []byte{regMODE, 0x00}},
			{Addr: DefaultAddr, W: []byte{regCRA}, R: []byte{0b100 << 2}},
			{Addr: DefaultAddr, W: []byte{regCRB}, R: []byte{1 << 5}},
			{Addr: DefaultAddr, W: []byte{regMODE}, R: []byte{0x00}},
			{Addr: DefaultAddr, W: []byte{regSTATUS}, R: []byte{0x01}},
			{Addr: DefaultAddr, W: []byte{regIDA}, R: []byte{'H'}},
			{Addr: DefaultAddr, W: []byte{regIDA + 1}, R: []byte{'4'}},
			{Addr: DefaultAddr, W: []byte{regIDA + 2}, R: []byte{'3'}},
		},
		DontPanic: true,
	}
	d, err := New(bus, Opts{})
	require.NoError(t, err)

	regs, err := d.Dump()
	require.NoError(t, err)
	require.Len(t, regs, 7)
	id := string([]byte{regs[4].Value, regs[5].Value, regs[6].Value})
	assert.Equal(t, "H43", id)
	assert.Equal(t, "CRB", regs[1].Name)
	require.NoError(t, bus.Close())
}
