// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package display

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/relabs-tech/led_compass/internal/compass"
)

const ansiClear = "\033[H\033[2J"

// Console prints glyphs as text, for bench runs without a panel.
type Console struct {
	w      io.Writer
	redraw bool
}

// NewConsole writes to w. With redraw set every frame first clears the
// terminal so the arrow stays in place.
func NewConsole(w io.Writer, redraw bool) *Console {
	return &Console{w: w, redraw: redraw}
}

// Show prints g and blocks for d.
func (c *Console) Show(g compass.Glyph, d time.Duration) error {
	var b strings.Builder
	if c.redraw {
		b.WriteString(ansiClear)
	}
	label := "?"
	if s, ok := compass.SectorOf(g); ok {
		label = s.String()
	}
	fmt.Fprintf(&b, "[%s]\n", label)
	for r := 0; r < compass.GlyphSize; r++ {
		for col := 0; col < compass.GlyphSize; col++ {
			if g.Lit(r, col) {
				b.WriteString("# ")
			} else {
				b.WriteString(". ")
			}
		}
		b.WriteByte('\n')
	}
	if _, err := io.WriteString(c.w, b.String()); err != nil {
		return fmt.Errorf("console write: %w", err)
	}
	sleep(d)
	return nil
}

// Clear blanks the terminal when redrawing, otherwise prints a separator.
func (c *Console) Clear() error {
	s := "\n"
	if c.redraw {
		s = ansiClear
	}
	_, err := io.WriteString(c.w, s)
	return err
}
