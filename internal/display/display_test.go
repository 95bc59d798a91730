package display

import (
	"bytes"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/relabs-tech/led_compass/internal/compass"
)

type fakeDrawer struct {
	bounds image.Rectangle
	frames []image.Image
	err    error
}

func (f *fakeDrawer) Bounds() image.Rectangle { return f.bounds }

func (f *fakeDrawer) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	if f.err != nil {
		return f.err
	}
	f.frames = append(f.frames, src)
	return nil
}

func recordSleeps(t *testing.T) *[]time.Duration {
	t.Helper()
	var got []time.Duration
	old := sleep
	sleep = func(d time.Duration) { got = append(got, d) }
	t.Cleanup(func() { sleep = old })
	return &got
}

func TestRender_CellsMatchGlyph(t *testing.T) {
	b := image.Rect(0, 0, 128, 64)
	g := compass.GlyphFor(compass.NorthEast)
	img := Render(b, g, false)

	cell := CellSize(b)
	require.Equal(t, 12, cell)
	side := cell * compass.GlyphSize
	x0 := (b.Dx() - side) / 2
	y0 := (b.Dy() - side) / 2

	for r := 0; r < compass.GlyphSize; r++ {
		for c := 0; c < compass.GlyphSize; c++ {
			// Probe the middle of each cell.
			px := img.BitAt(x0+c*cell+cell/2, y0+r*cell+cell/2)
			assert.Equal(t, g.Lit(r, c), bool(px), "cell %d,%d", r, c)
		}
	}
	// Outside the glyph nothing is lit.
	assert.False(t, bool(img.BitAt(0, 0)))
	assert.False(t, bool(img.BitAt(127, 63)))
}

func TestRender_LabelDrawsRightOfGlyph(t *testing.T) {
	b := image.Rect(0, 0, 128, 64)
	img := Render(b, compass.GlyphFor(compass.South), true)

	lit := 0
	for y := 0; y < 64; y++ {
		for x := 70; x < 128; x++ {
			if img.BitAt(x, y) {
				lit++
			}
		}
	}
	assert.Positive(t, lit)
}

func TestPanel_ShowDrawsAndBlocks(t *testing.T) {
	sleeps := recordSleeps(t)
	dev := &fakeDrawer{bounds: image.Rect(0, 0, 128, 64)}
	p := NewPanel(dev, false)

	require.NoError(t, p.Show(compass.GlyphFor(compass.East), 100*time.Millisecond))
	require.Len(t, dev.frames, 1)
	assert.Equal(t, []time.Duration{100 * time.Millisecond}, *sleeps)

	require.NoError(t, p.Clear())
	require.Len(t, dev.frames, 2)
	blank := dev.frames[1].(*image1bit.VerticalLSB)
	for _, px := range blank.Pix {
		require.Zero(t, px)
	}
}

func TestPanel_DrawErrorSkipsWait(t *testing.T) {
	sleeps := recordSleeps(t)
	dev := &fakeDrawer{bounds: image.Rect(0, 0, 128, 64), err: errors.New("i2c nack")}
	p := NewPanel(dev, true)

	err := p.Show(compass.GlyphFor(compass.East), time.Second)
	require.ErrorContains(t, err, "i2c nack")
	assert.Empty(t, *sleeps)
}

func TestConsole_Show(t *testing.T) {
	sleeps := recordSleeps(t)
	var buf bytes.Buffer
	c := NewConsole(&buf, false)

	require.NoError(t, c.Show(compass.GlyphFor(compass.West), 100*time.Millisecond))
	want := "[W]\n" +
		". . # . . \n" +
		". . . # . \n" +
		"# # # # # \n" +
		". . . # . \n" +
		". . # . . \n"
	assert.Equal(t, want, buf.String())
	assert.Equal(t, []time.Duration{100 * time.Millisecond}, *sleeps)
}

func TestConsole_RedrawClearsFirst(t *testing.T) {
	recordSleeps(t)
	var buf bytes.Buffer
	c := NewConsole(&buf, true)

	require.NoError(t, c.Show(compass.Glyph{}, 0))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte(ansiClear+"[?]\n")))
}
