// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"github.com/relabs-tech/led_compass/internal/compass"
)

// Status is the data-ready state of a magnetometer.
type Status struct {
	DataReady bool // a fresh X/Y/Z sample is waiting
	Overrun   bool // a sample was overwritten before it was read
}

// Magnetometer is a polled 3-axis field sensor.
type Magnetometer interface {
	Status() (Status, error)
	Read() (compass.Measurement, error)
}
