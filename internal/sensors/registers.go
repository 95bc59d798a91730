// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"io"
	"strings"
)

// BitField describes a group of bits within a register.
type BitField struct {
	Bits        string `json:"bits"` // "7" or "4:2"
	Name        string `json:"name"`
	Description string `json:"description"`
	Values      string `json:"values,omitempty"`
}

// RegisterInfo is register-map metadata for one register.
type RegisterInfo struct {
	Address     byte       `json:"address"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Access      string     `json:"access"` // "R", "W", "RW"
	BitFields   []BitField `json:"bit_fields,omitempty"`
}

// RegisterValue is a register read back from the device.
type RegisterValue struct {
	RegisterInfo
	Value byte `json:"value"`
}

// RegisterDumper is implemented by drivers that can read back their
// configuration registers.
type RegisterDumper interface {
	Dump() ([]RegisterValue, error)
}

// ReadRegisters reads every readable register in regs with read.
func ReadRegisters(regs []RegisterInfo, read func(addr byte) (byte, error)) ([]RegisterValue, error) {
	out := make([]RegisterValue, 0, len(regs))
	for _, r := range regs {
		if !strings.Contains(r.Access, "R") {
			continue
		}
		v, err := read(r.Address)
		if err != nil {
			return out, fmt.Errorf("read %s (0x%02X): %w", r.Name, r.Address, err)
		}
		out = append(out, RegisterValue{RegisterInfo: r, Value: v})
	}
	return out, nil
}

// WriteRegisterTable prints regs as an aligned table, one line per register
// followed by its bit fields.
func WriteRegisterTable(w io.Writer, regs []RegisterValue) error {
	for _, r := range regs {
		if _, err := fmt.Fprintf(w, "0x%02X  %-14s 0x%02X  %08b  %s\n",
			r.Address, r.Name, r.Value, r.Value, r.Description); err != nil {
			return err
		}
		for _, f := range r.BitFields {
			if _, err := fmt.Fprintf(w, "        [%-3s] %-10s = %d\n", f.Bits, f.Name, fieldValue(r.Value, f.Bits)); err != nil {
				return err
			}
		}
	}
	return nil
}

// fieldValue extracts bits "h:l" (or a single "b") from v.
func fieldValue(v byte, bits string) byte {
	var hi, lo uint
	if _, err := fmt.Sscanf(bits, "%d:%d", &hi, &lo); err != nil {
		if _, err := fmt.Sscanf(bits, "%d", &hi); err != nil {
			return 0
		}
		lo = hi
	}
	if hi < lo || hi > 7 {
		return 0
	}
	mask := byte(1<<(hi-lo+1) - 1)
	return v >> lo & mask
}
