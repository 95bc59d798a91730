// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package display renders compass glyphs on an SSD1306 panel or a terminal.
package display

import (
	"fmt"
	"image"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/relabs-tech/led_compass/internal/compass"
)

var sleep = time.Sleep

// Drawer is the part of periph's display.Drawer the panel needs.
// *ssd1306.Dev satisfies it.
type Drawer interface {
	Bounds() image.Rectangle
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
}

// Panel shows a 5x5 glyph as a grid of filled blocks on a 1-bit panel,
// optionally with the sector name to its right.
type Panel struct {
	dev       Drawer
	showLabel bool
}

// NewPanel wraps dev.
func NewPanel(dev Drawer, showLabel bool) *Panel {
	return &Panel{dev: dev, showLabel: showLabel}
}

// Show draws g and blocks for d.
func (p *Panel) Show(g compass.Glyph, d time.Duration) error {
	img := Render(p.dev.Bounds(), g, p.showLabel)
	if err := p.dev.Draw(p.dev.Bounds(), img, image.Point{}); err != nil {
		return fmt.Errorf("panel draw: %w", err)
	}
	sleep(d)
	return nil
}

// Clear blanks the panel.
func (p *Panel) Clear() error {
	img := image1bit.NewVerticalLSB(p.dev.Bounds())
	return p.dev.Draw(p.dev.Bounds(), img, image.Point{})
}

// CellSize is the side in pixels of one glyph cell for a panel of bounds b.
func CellSize(b image.Rectangle) int {
	return min(b.Dx(), b.Dy()) / compass.GlyphSize
}

// Render rasterizes g into a fresh 1-bit image of bounds b. The glyph is
// vertically centered; it is horizontally centered unless a label is drawn,
// in which case it sits on the left and the label on the right.
func Render(b image.Rectangle, g compass.Glyph, label bool) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(b)

	cell := CellSize(b)
	side := cell * compass.GlyphSize
	x0 := b.Min.X + (b.Dx()-side)/2
	y0 := b.Min.Y + (b.Dy()-side)/2
	if label {
		x0 = b.Min.X + y0 - b.Min.Y
	}

	for r := 0; r < compass.GlyphSize; r++ {
		for c := 0; c < compass.GlyphSize; c++ {
			if !g.Lit(r, c) {
				continue
			}
			// One pixel gap keeps neighbouring cells readable.
			for y := 0; y < cell-1; y++ {
				for x := 0; x < cell-1; x++ {
					img.SetBit(x0+c*cell+x, y0+r*cell+y, image1bit.On)
				}
			}
		}
	}

	if label {
		if s, ok := compass.SectorOf(g); ok {
			drawer := &font.Drawer{
				Dst:  img,
				Src:  &image.Uniform{C: image1bit.On},
				Face: basicfont.Face7x13,
			}
			drawer.Dot = fixed.P(x0+side+(b.Max.X-x0-side)/2-7, b.Min.Y+b.Dy()/2+5)
			drawer.DrawString(s.String())
		}
	}
	return img
}
