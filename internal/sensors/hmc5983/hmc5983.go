// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package hmc5983

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/i2c"

	"github.com/relabs-tech/led_compass/internal/compass"
	"github.com/relabs-tech/led_compass/internal/sensors"
)

var sleep = time.Sleep

// I2C register map for HMC5983/HMC5883L.
const (
	regCRA    = 0x00
	regCRB    = 0x01
	regMODE   = 0x02
	regDATA   = 0x03 // X MSB, X LSB, Z MSB, Z LSB, Y MSB, Y LSB
	regSTATUS = 0x09
	regIDA    = 0x0A

	statusRDY = 1 << 0

	// 1 Gauss = 100 µT = 100000 nT.
	nanoteslaPerGauss = 100000
)

// DefaultAddr is the default I2C address.
const DefaultAddr = 0x1E

// Gain088 selects gain code 0 (±0.88 Ga), which the zero value of
// Opts.GainCode cannot express.
const Gain088 = -1

const defaultGainCode = 1 // ±1.3 Ga, 1090 LSB/Ga

// ErrWrongID is returned when the identity registers do not read "H43".
var ErrWrongID = errors.New("hmc5983: unexpected identity")

// Opts holds initialization options.
//
// ODRHz: output data rate in Hz (3, 7, 15, 30, 75; anything else is 15).
// AvgSamples: sample averaging (1, 2, 4, 8).
// GainCode: 1..7 gain selection (CRB); 0 or out of range selects the
// ±1.3 Ga default (code 1). Use Gain088 for code 0.
type Opts struct {
	Addr       uint16
	ODRHz      int
	AvgSamples int
	GainCode   int
}

// Dev is an HMC5983 in continuous mode. Read returns nanotesla.
//
// NOTE: HMC5983 outputs data in order X,Z,Y.
type Dev struct {
	dev        i2c.Dev
	lsbPerGaXY int32
	lsbPerGaZ  int32
}

// New checks the identity and starts continuous conversion.
func New(bus i2c.Bus, opts Opts) (*Dev, error) {
	addr := opts.Addr
	if addr == 0 {
		addr = DefaultAddr
	}
	// Typical LSB/Gauss per gain code (datasheet).
	gainXY := []int32{1370, 1090, 820, 660, 440, 390, 330, 230}
	gainZ := []int32{1330, 980, 660, 600, 400, 355, 295, 205}
	gc := opts.GainCode
	switch {
	case gc == Gain088:
		gc = 0
	case gc < 1 || gc > 7:
		gc = defaultGainCode
	}

	d := &Dev{
		dev:        i2c.Dev{Addr: addr, Bus: bus},
		lsbPerGaXY: gainXY[gc],
		lsbPerGaZ:  gainZ[gc],
	}

	id := make([]byte, 3)
	if err := d.dev.Tx([]byte{regIDA}, id); err != nil {
		return nil, fmt.Errorf("hmc5983: id read failed: %w", err)
	}
	if string(id) != "H43" {
		return nil, fmt.Errorf("%w: %q", ErrWrongID, id)
	}

	if err := d.writeReg(regCRA, craBits(opts.AvgSamples, opts.ODRHz)); err != nil {
		return nil, fmt.Errorf("hmc5983: cra: %w", err)
	}
	if err := d.writeReg(regCRB, byte(gc)<<5); err != nil {
		return nil, fmt.Errorf("hmc5983: crb: %w", err)
	}
	if err := d.writeReg(regMODE, 0x00); err != nil {
		return nil, fmt.Errorf("hmc5983: mode: %w", err)
	}
	sleep(10 * time.Millisecond)
	return d, nil
}

func craBits(avg, odrHz int) byte {
	cra := byte(0)
	switch avg {
	case 8:
		cra |= 0b11 << 5
	case 4:
		cra |= 0b10 << 5
	case 2:
		cra |= 0b01 << 5
	}
	switch odrHz {
	case 75:
		cra |= 0b110 << 2
	case 30:
		cra |= 0b101 << 2
	case 7:
		cra |= 0b011 << 2
	case 3:
		cra |= 0b010 << 2
	default:
		cra |= 0b100 << 2
	}
	return cra
}

// Status reads the RDY bit.
func (d *Dev) Status() (sensors.Status, error) {
	b := make([]byte, 1)
	if err := d.dev.Tx([]byte{regSTATUS}, b); err != nil {
		return sensors.Status{}, fmt.Errorf("hmc5983: status: %w", err)
	}
	return sensors.Status{DataReady: b[0]&statusRDY != 0}, nil
}

// Read returns X, Y, Z in nanotesla.
func (d *Dev) Read() (compass.Measurement, error) {
	data := make([]byte, 6)
	if err := d.dev.Tx([]byte{regDATA}, data); err != nil {
		return compass.Measurement{}, fmt.Errorf("hmc5983: read data: %w", err)
	}
	x := int16(data[0])<<8 | int16(data[1])
	z := int16(data[2])<<8 | int16(data[3])
	y := int16(data[4])<<8 | int16(data[5])
	return compass.Measurement{
		X: countsToNanotesla(x, d.lsbPerGaXY),
		Y: countsToNanotesla(y, d.lsbPerGaXY),
		Z: countsToNanotesla(z, d.lsbPerGaZ),
	}, nil
}

func countsToNanotesla(counts int16, lsbPerGauss int32) int32 {
	return int32(int64(counts) * nanoteslaPerGauss / int64(lsbPerGauss))
}

// RegisterMap describes the configuration and status registers.
func RegisterMap() []sensors.RegisterInfo {
	return []sensors.RegisterInfo{
		{Address: regCRA, Name: "CRA", Description: "Configuration A", Access: "RW",
			BitFields: []sensors.BitField{
				{Bits: "7", Name: "TS", Description: "Temperature compensation"},
				{Bits: "6:5", Name: "MA", Description: "Samples averaged", Values: "0=1, 1=2, 2=4, 3=8"},
				{Bits: "4:2", Name: "DO", Description: "Output data rate", Values: "2=3Hz, 3=7.5Hz, 4=15Hz, 5=30Hz, 6=75Hz, 7=220Hz"},
				{Bits: "1:0", Name: "MS", Description: "Measurement bias"},
			}},
		{Address: regCRB, Name: "CRB", Description: "Configuration B", Access: "RW",
			BitFields: []sensors.BitField{
				{Bits: "7:5", Name: "GN", Description: "Gain", Values: "0=0.88Ga ... 7=8.1Ga"},
			}},
		{Address: regMODE, Name: "MODE", Description: "Mode", Access: "RW",
			BitFields: []sensors.BitField{
				{Bits: "7", Name: "HS", Description: "High speed I2C"},
				{Bits: "5", Name: "LP", Description: "Lowest power mode"},
				{Bits: "1:0", Name: "MD", Description: "Operating mode", Values: "0=Continuous, 1=Single, 2/3=Idle"},
			}},
		{Address: regSTATUS, Name: "STATUS", Description: "Status", Access: "R",
			BitFields: []sensors.BitField{
				{Bits: "4", Name: "DOW", Description: "Data overwritten"},
				{Bits: "1", Name: "LOCK", Description: "Data output locked"},
				{Bits: "0", Name: "RDY", Description: "Data ready"},
			}},
		{Address: regIDA, Name: "IDA", Description: "Identification A ('H')", Access: "R"},
		{Address: regIDA + 1, Name: "IDB", Description: "Identification B ('4')", Access: "R"},
		{Address: regIDA + 2, Name: "IDC", Description: "Identification C ('3')", Access: "R"},
	}
}

// Dump reads back the configuration and identity registers.
func (d *Dev) Dump() ([]sensors.RegisterValue, error) {
	return sensors.ReadRegisters(RegisterMap(), d.readReg)
}

func (d *Dev) readReg(addr byte) (byte, error) {
	var b [1]byte
	if err := d.dev.Tx([]byte{addr}, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *Dev) writeReg(addr byte, val byte) error {
	return d.dev.Tx([]byte{addr, val}, nil)
}
