// picocalc-text-starter
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package gpio implements helpers for configuring the general purpose I/O
// lines used outside of the SPI byte stream itself: the SD card chip-select
// and card-detect signals (soc/spibus drives clock/MOSI/MISO through a
// drivers.SPI transport instead, see soc/spibus).
package gpio

import (
	"errors"
	"fmt"

	"github.com/mhbvr/picocalc-text-starter/internal/reg"
)

// GPIO registers, data and direction, one bit per pin.
const (
	GPIO_DR   = 0x00
	GPIO_GDIR = 0x04
)

// GPIO represents a GPIO bank instance.
type GPIO struct {
	// Base register for this bank.
	Base uint32
	// Clock gate register.
	CCGR uint32
	// Clock gate bit field.
	CG int

	clk bool
}

// Pin is a single configured GPIO line.
type Pin struct {
	num  int
	data uint32
	dir  uint32
}

// Init configures pin num on the GPIO bank, enabling its clock gate on first
// use.
func (hw *GPIO) Init(num int) (pin *Pin, err error) {
	if hw.Base == 0 {
		return nil, errors.New("invalid GPIO bank instance")
	}

	if num < 0 || num > 31 {
		return nil, fmt.Errorf("invalid GPIO number %d", num)
	}

	pin = &Pin{
		num:  num,
		data: hw.Base + GPIO_DR,
		dir:  hw.Base + GPIO_GDIR,
	}

	if !hw.clk && hw.CCGR != 0 {
		reg.SetN(hw.CCGR, hw.CG, 0b11, 0b11)
		hw.clk = true
	}

	return
}

// Out configures the pin as output.
func (pin *Pin) Out() {
	reg.Set(pin.dir, pin.num)
}

// In configures the pin as input.
func (pin *Pin) In() {
	reg.Clear(pin.dir, pin.num)
}

// High drives the pin high.
func (pin *Pin) High() {
	reg.Set(pin.data, pin.num)
}

// Low drives the pin low.
func (pin *Pin) Low() {
	reg.Clear(pin.data, pin.num)
}

// Value samples the pin level.
func (pin *Pin) Value() (high bool) {
	return reg.Get(pin.data, pin.num, 1) == 1
}
