// picocalc-text-starter
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// +build tamago,arm

package picocalc

import (
	"github.com/mhbvr/picocalc-text-starter/soc/gpio"
	"github.com/mhbvr/picocalc-text-starter/soc/sdspi"
	"github.com/mhbvr/picocalc-text-starter/soc/spibus"
)

// microSD card wiring.
//
// The PicoCalc carries a single microSD slot, wired to the SPI0
// peripheral with a dedicated chip-select GPIO and a card-detect switch in
// the slot itself.
const (
	SD_CS_GPIO = 17
	SD_CS_BANK = 0x40014000
	SD_CS_CCGR = 0
	SD_CS_CG   = 0

	SD_CD_GPIO = 22
	SD_CD_BANK = 0x40014000
	SD_CD_CCGR = 0
	SD_CD_CG   = 0
)

// Card is the SD/SPI engine instance for the microSD slot, wired below in
// init. Board code and the FAT layer share this single instance.
var Card *sdspi.Engine

func init() {
	csBank := &gpio.GPIO{Base: SD_CS_BANK, CCGR: SD_CS_CCGR, CG: SD_CS_CG}
	cdBank := &gpio.GPIO{Base: SD_CD_BANK, CCGR: SD_CD_CCGR, CG: SD_CD_CG}

	cs, err := csBank.Init(SD_CS_GPIO)
	if err != nil {
		panic(err)
	}

	cd, err := cdBank.Init(SD_CD_GPIO)
	if err != nil {
		panic(err)
	}

	bus := spibus.New(spiPeripheral, cs, cd, setSPIBaud)
	Card = sdspi.NewEngine(bus)
}
