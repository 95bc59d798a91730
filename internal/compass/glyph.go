// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package compass

import (
	"fmt"
	"strings"
)

// GlyphSize is the side of the square LED bitmap.
const GlyphSize = 5

// Glyph is a row-major 5x5 bitmap, 1 = lit.
type Glyph [GlyphSize][GlyphSize]uint8

// Lit reports whether the pixel at row, col is on.
func (g Glyph) Lit(row, col int) bool {
	return g[row][col] != 0
}

// String renders the glyph as five lines of 0/1.
func (g Glyph) String() string {
	var b strings.Builder
	for r, row := range g {
		if r > 0 {
			b.WriteByte('\n')
		}
		for _, px := range row {
			if px != 0 {
				b.WriteByte('1')
			} else {
				b.WriteByte('0')
			}
		}
	}
	return b.String()
}

var (
	arrowUp = Glyph{
		{0, 0, 1, 0, 0},
		{0, 1, 1, 1, 0},
		{1, 0, 1, 0, 1},
		{0, 0, 1, 0, 0},
		{0, 0, 1, 0, 0},
	}
	arrowDown = Glyph{
		{0, 0, 1, 0, 0},
		{0, 0, 1, 0, 0},
		{1, 0, 1, 0, 1},
		{0, 1, 1, 1, 0},
		{0, 0, 1, 0, 0},
	}
	arrowLeft = Glyph{
		{0, 0, 1, 0, 0},
		{0, 1, 0, 0, 0},
		{1, 1, 1, 1, 1},
		{0, 1, 0, 0, 0},
		{0, 0, 1, 0, 0},
	}
	arrowRight = Glyph{
		{0, 0, 1, 0, 0},
		{0, 0, 0, 1, 0},
		{1, 1, 1, 1, 1},
		{0, 0, 0, 1, 0},
		{0, 0, 1, 0, 0},
	}
	arrowUpLeft = Glyph{
		{1, 1, 1, 1, 0},
		{1, 1, 0, 0, 0},
		{1, 0, 1, 0, 0},
		{1, 0, 0, 1, 0},
		{0, 0, 0, 0, 1},
	}
	arrowUpRight = Glyph{
		{0, 1, 1, 1, 1},
		{0, 0, 0, 1, 1},
		{0, 0, 1, 0, 1},
		{0, 1, 0, 0, 1},
		{1, 0, 0, 0, 0},
	}
	arrowDownLeft = Glyph{
		{0, 0, 0, 0, 1},
		{1, 0, 0, 1, 0},
		{1, 0, 1, 0, 0},
		{1, 1, 0, 0, 0},
		{1, 1, 1, 1, 0},
	}
	arrowDownRight = Glyph{
		{1, 0, 0, 0, 0},
		{0, 1, 0, 0, 1},
		{0, 0, 1, 0, 1},
		{0, 0, 0, 1, 1},
		{0, 1, 1, 1, 1},
	}
)

// GlyphFor returns the arrow pointing at magnetic north as seen from a
// device facing sector. East yields the left arrow and West the right one.
func GlyphFor(s Sector) Glyph {
	switch s {
	case North:
		return arrowUp
	case South:
		return arrowDown
	case East:
		return arrowLeft
	case West:
		return arrowRight
	case NorthEast:
		return arrowUpLeft
	case NorthWest:
		return arrowUpRight
	case SouthEast:
		return arrowDownLeft
	case SouthWest:
		return arrowDownRight
	}
	panic(fmt.Sprintf("compass: no glyph for %v", s))
}

// SectorOf is the inverse of GlyphFor. It reports false for a bitmap that is
// not one of the eight arrows.
func SectorOf(g Glyph) (Sector, bool) {
	for _, s := range AllSectors() {
		if GlyphFor(s) == g {
			return s, true
		}
	}
	return 0, false
}
