// picocalc-text-starter
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package spibus implements soc/sdspi.Bus over a tinygo.org/x/drivers SPI
// peripheral, with chip-select and card-detect carried on separate
// soc/gpio lines (SPI peripherals typically leave chip-select to the
// caller rather than toggling it per transfer).
package spibus

import (
	"errors"

	"tinygo.org/x/drivers"

	"github.com/mhbvr/picocalc-text-starter/soc/gpio"
)

// Bus drives an SD card over SPI. It implements soc/sdspi.Bus.
type Bus struct {
	spi  drivers.SPI
	cs   *gpio.Pin
	cd   *gpio.Pin
	baud func(rate uint32) error
}

// New returns a Bus wrapping spi, with cs as the chip-select line and cd as
// the card-detect line (active low at the hardware level). setBaud
// reconfigures the peripheral's clock rate; it is supplied by the board
// package since the concrete SPI driver's baud-rate knob is
// implementation-specific.
func New(spi drivers.SPI, cs, cd *gpio.Pin, setBaud func(rate uint32) error) *Bus {
	return &Bus{spi: spi, cs: cs, cd: cd, baud: setBaud}
}

// Configure performs one-time pin assignment at initBaud, chip select left
// deasserted.
func (b *Bus) Configure(initBaud uint32) error {
	if b.spi == nil || b.cs == nil {
		return errors.New("spibus: not wired")
	}
	b.cs.Out()
	b.cs.High()
	if b.cd != nil {
		b.cd.In()
	}
	return b.SetBaud(initBaud)
}

// SetBaud changes the bus clock rate.
func (b *Bus) SetBaud(rate uint32) error {
	if b.baud == nil {
		return nil
	}
	return b.baud(rate)
}

// Transfer clocks len(tx) bytes full duplex.
func (b *Bus) Transfer(tx, rx []byte) error {
	return b.spi.Tx(tx, rx)
}

// CSAssert pulls chip select low.
func (b *Bus) CSAssert() {
	b.cs.Low()
}

// CSDeassert releases chip select.
func (b *Bus) CSDeassert() {
	b.cs.High()
}

// CardDetect samples the card-detect line, inverting it since the signal
// is active low at the hardware level: a high pin reading means no card.
func (b *Bus) CardDetect() bool {
	if b.cd == nil {
		return true
	}
	return !b.cd.Value()
}
