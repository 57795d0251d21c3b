// picocalc-text-starter
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// +build tamago,arm

package picocalc

import (
	_ "unsafe"

	"github.com/mhbvr/picocalc-text-starter/internal/reg"
)

// UART0 is used as the serial console on the PicoCalc, reachable over its
// USB-serial bridge. Standard output is redirected there so panic traces
// and shell output surface without a display driver.
const (
	uart0Base = 0x40034000
	uartDR    = uart0Base + 0x00
	uartFR    = uart0Base + 0x18
	uartFR_TXFF = 5 // transmit FIFO full
)

//go:linkname printk runtime.printk
func printk(c byte) {
	reg.Wait(uartFR, uartFR_TXFF, 1, 0)
	reg.Write(uartDR, uint32(c))
}
