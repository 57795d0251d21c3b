// picocalc-text-starter
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// +build tamago,arm

package picocalc

import "github.com/mhbvr/picocalc-text-starter/internal/reg"

// spi0 registers (PL022-compatible SSP block), CPOL=0 CPHA=0, as required
// by the SD SPI mode wire protocol.
const (
	spi0Base = 0x4003C000

	sspCR0  = spi0Base + 0x00
	sspCR1  = spi0Base + 0x04
	sspDR   = spi0Base + 0x08
	sspSR   = spi0Base + 0x0C
	sspCPSR = spi0Base + 0x10

	sspSR_TFE = 0 // transmit FIFO empty
	sspSR_RNE = 2 // receive FIFO not empty
	sspSR_BSY = 4 // busy
)

// rp2040SPI drives the SPI0 peripheral directly through its memory-mapped
// registers. It implements tinygo.org/x/drivers.SPI so soc/spibus can wrap
// it uniformly with any other TinyGo-ecosystem SPI transport.
type rp2040SPI struct{}

var spiPeripheral = rp2040SPI{}

// Tx clocks len(w) bytes full duplex, one byte at a time through the FIFO.
// w and r must be the same length; either may be nil if that direction is
// unused by the caller.
func (rp2040SPI) Tx(w, r []byte) error {
	n := len(w)
	if r != nil {
		n = len(r)
	}

	for i := 0; i < n; i++ {
		tx := byte(0xFF)
		if w != nil {
			tx = w[i]
		}

		reg.Wait(sspSR, sspSR_TFE, 1, 1)
		reg.Write(sspDR, uint32(tx))
		reg.Wait(sspSR, sspSR_RNE, 1, 1)
		rx := byte(reg.Read(sspDR))

		if r != nil {
			r[i] = rx
		}
	}

	return nil
}

// Transfer clocks a single byte and returns the byte received.
func (rp2040SPI) Transfer(b byte) (byte, error) {
	tx := [1]byte{b}
	rx := [1]byte{0}
	if err := (rp2040SPI{}).Tx(tx[:], rx[:]); err != nil {
		return 0, err
	}
	return rx[0], nil
}

// setSPIBaud reprograms the SSP clock prescaler to approximate rate,
// assuming a 125 MHz peripheral clock (the RP2040's default sys_clk).
func setSPIBaud(rate uint32) error {
	const sysClk = 125_000_000

	prescale := uint32(2)
	for prescale < 254 && sysClk/prescale > rate {
		prescale += 2
	}

	reg.Write(sspCPSR, prescale)
	return nil
}
