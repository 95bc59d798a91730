// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/relabs-tech/led_compass/internal/config"
	"github.com/relabs-tech/led_compass/internal/sensors"
)

// DumpRegisters prints the register table of a magnetometer that supports
// read-back.
func DumpRegisters(s Sensor, out io.Writer) error {
	d, ok := s.(sensors.RegisterDumper)
	if !ok {
		return fmt.Errorf("sensor %T has no readable registers", s)
	}
	regs, err := d.Dump()
	if err != nil {
		return fmt.Errorf("register dump: %w", err)
	}
	return sensors.WriteRegisterTable(out, regs)
}

// RunRegisterDump opens the configured sensor and prints its registers.
func RunRegisterDump(cfg *config.Config, out io.Writer, log *zap.SugaredLogger) error {
	hw := NewHardware(log.Named("hw"))
	defer hw.Close()

	s, err := OpenSensor(hw, cfg)
	if err != nil {
		return fmt.Errorf("sensor: %w", err)
	}
	return DumpRegisters(s, out)
}
