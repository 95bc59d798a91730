// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package lsm303agr drives the magnetometer half of an ST LSM303AGR over I2C.
package lsm303agr

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"

	"github.com/relabs-tech/led_compass/internal/compass"
	"github.com/relabs-tech/led_compass/internal/sensors"
)

var sleep = time.Sleep

// Magnetometer register map.
const (
	regWhoAmI = 0x4F
	regCfgA   = 0x60 // COMP_TEMP_EN REBOOT SOFT_RST LP ODR1 ODR0 MD1 MD0
	regCfgB   = 0x61
	regCfgC   = 0x62 // BDU is bit 4
	regStatus = 0x67 // Zyxor is bit 7, Zyxda is bit 3
	regOutXL  = 0x68 // XL XH YL YH ZL ZH, little endian

	whoAmIVal = 0x40

	cfgASoftReset  = 1 << 5
	cfgAContinuous = 0x00
	cfgBOffCanc    = 1 << 1
	cfgCBDU        = 1 << 4

	statusZyxda = 1 << 3
	statusZyxor = 1 << 7

	// 1.5 mGauss per LSB.
	nanoteslaPerLSB = 150
)

// DefaultAddr is the fixed I2C address of the magnetometer.
const DefaultAddr = 0x1E

// ErrWrongID is returned when WHO_AM_I_M does not read 0x40.
var ErrWrongID = errors.New("lsm303agr: unexpected magnetometer id")

// Opts configures the magnetometer.
//
// ODR is the output data rate; 10, 20, 50 and 100 Hz are supported and any
// other value selects 10 Hz.
type Opts struct {
	Addr uint16
	ODR  physic.Frequency
}

// DefaultOpts is continuous conversion at 10 Hz.
var DefaultOpts = Opts{Addr: DefaultAddr, ODR: 10 * physic.Hertz}

// Dev is an LSM303AGR magnetometer in continuous mode.
// Read returns nanotesla.
type Dev struct {
	dev i2c.Dev
	odr physic.Frequency
}

// New checks the device id, resets it and starts continuous conversion.
func New(bus i2c.Bus, opts Opts) (*Dev, error) {
	addr := opts.Addr
	if addr == 0 {
		addr = DefaultAddr
	}
	d := &Dev{dev: i2c.Dev{Addr: addr, Bus: bus}}

	id, err := d.readReg(regWhoAmI)
	if err != nil {
		return nil, fmt.Errorf("lsm303agr: whoami read failed: %w", err)
	}
	if id != whoAmIVal {
		return nil, fmt.Errorf("%w: 0x%02X want 0x%02X", ErrWrongID, id, whoAmIVal)
	}

	if err := d.writeReg(regCfgA, cfgASoftReset); err != nil {
		return nil, fmt.Errorf("lsm303agr: reset failed: %w", err)
	}
	sleep(5 * time.Millisecond)

	odrBits, odr := odrCode(opts.ODR)
	d.odr = odr
	if err := d.writeReg(regCfgB, cfgBOffCanc); err != nil {
		return nil, fmt.Errorf("lsm303agr: cfg b: %w", err)
	}
	if err := d.writeReg(regCfgC, cfgCBDU); err != nil {
		return nil, fmt.Errorf("lsm303agr: cfg c: %w", err)
	}
	if err := d.writeReg(regCfgA, odrBits<<2|cfgAContinuous); err != nil {
		return nil, fmt.Errorf("lsm303agr: cfg a: %w", err)
	}
	return d, nil
}

// ODR returns the output data rate the device was configured with.
func (d *Dev) ODR() physic.Frequency { return d.odr }

// Status reads STATUS_REG_M.
func (d *Dev) Status() (sensors.Status, error) {
	b, err := d.readReg(regStatus)
	if err != nil {
		return sensors.Status{}, fmt.Errorf("lsm303agr: status: %w", err)
	}
	return sensors.Status{DataReady: b&statusZyxda != 0, Overrun: b&statusZyxor != 0}, nil
}

// Read returns the latest sample in nanotesla.
func (d *Dev) Read() (compass.Measurement, error) {
	var buf [6]byte
	if err := d.dev.Tx([]byte{regOutXL}, buf[:]); err != nil {
		return compass.Measurement{}, fmt.Errorf("lsm303agr: read output: %w", err)
	}
	x := int16(uint16(buf[0]) | uint16(buf[1])<<8)
	y := int16(uint16(buf[2]) | uint16(buf[3])<<8)
	z := int16(uint16(buf[4]) | uint16(buf[5])<<8)
	return compass.Measurement{
		X: int32(x) * nanoteslaPerLSB,
		Y: int32(y) * nanoteslaPerLSB,
		Z: int32(z) * nanoteslaPerLSB,
	}, nil
}

// Halt puts the magnetometer in idle mode.
func (d *Dev) Halt() error {
	return d.writeReg(regCfgA, 0x03)
}

func (d *Dev) String() string {
	return fmt.Sprintf("LSM303AGR{%s}", &d.dev)
}

func odrCode(f physic.Frequency) (byte, physic.Frequency) {
	switch f {
	case 20 * physic.Hertz:
		return 0b01, f
	case 50 * physic.Hertz:
		return 0b10, f
	case 100 * physic.Hertz:
		return 0b11, f
	default:
		return 0b00, 10 * physic.Hertz
	}
}

func (d *Dev) readReg(reg byte) (byte, error) {
	var b [1]byte
	if err := d.dev.Tx([]byte{reg}, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *Dev) writeReg(reg, val byte) error {
	return d.dev.Tx([]byte{reg, val}, nil)
}

// RegisterMap describes the magnetometer configuration registers.
func RegisterMap() []sensors.RegisterInfo {
	return []sensors.RegisterInfo{
		{Address: regWhoAmI, Name: "WHO_AM_I_M", Description: "Device identification (0x40)", Access: "R"},
		{Address: regCfgA, Name: "CFG_REG_A_M", Description: "Mode and data rate", Access: "RW",
			BitFields: []sensors.BitField{
				{Bits: "7", Name: "COMP_TEMP", Description: "Temperature compensation"},
				{Bits: "5", Name: "SOFT_RST", Description: "Soft reset"},
				{Bits: "4", Name: "LP", Description: "Low power mode"},
				{Bits: "3:2", Name: "ODR", Description: "Output data rate", Values: "0=10Hz, 1=20Hz, 2=50Hz, 3=100Hz"},
				{Bits: "1:0", Name: "MD", Description: "Mode", Values: "0=Continuous, 1=Single, 2/3=Idle"},
			}},
		{Address: regCfgB, Name: "CFG_REG_B_M", Description: "Filtering and offset cancellation", Access: "RW",
			BitFields: []sensors.BitField{
				{Bits: "4", Name: "OFF_CANC1", Description: "Offset cancellation in single mode"},
				{Bits: "1", Name: "OFF_CANC", Description: "Offset cancellation"},
				{Bits: "0", Name: "LPF", Description: "Low-pass filter"},
			}},
		{Address: regCfgC, Name: "CFG_REG_C_M", Description: "Interface options", Access: "RW",
			BitFields: []sensors.BitField{
				{Bits: "5", Name: "I2C_DIS", Description: "I2C disable"},
				{Bits: "4", Name: "BDU", Description: "Block data update"},
				{Bits: "3", Name: "BLE", Description: "Big endian output"},
				{Bits: "1", Name: "SELF_TEST", Description: "Self test"},
			}},
		{Address: regStatus, Name: "STATUS_REG_M", Description: "Data status", Access: "R",
			BitFields: []sensors.BitField{
				{Bits: "7", Name: "ZYXOR", Description: "X, Y, Z overrun"},
				{Bits: "3", Name: "ZYXDA", Description: "X, Y, Z data available"},
			}},
	}
}

// Dump reads back the configuration registers.
func (d *Dev) Dump() ([]sensors.RegisterValue, error) {
	return sensors.ReadRegisters(RegisterMap(), d.readReg)
}
