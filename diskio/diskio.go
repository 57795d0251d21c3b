// picocalc-text-starter
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package diskio implements the Block Device Adapter: the thin translation
// of the five operations a FAT library needs into soc/sdspi.Engine calls.
package diskio

import "github.com/mhbvr/picocalc-text-starter/soc/sdspi"

// Result is the coarse {Ok, ...} status the FAT library's diskio contract
// expects. The richer sdspi.Error remains available through the Engine's
// LastError accessor for diagnostics.
type Result int

const (
	Ok Result = iota
	NotInitialized
	NoDisk
	ParamErr
	Err
)

// Ioctl operation codes, named after the FatFs diskio contract this
// adapter matches.
type Ioctl int

const (
	CtrlSync Ioctl = iota
	GetSectorSize
	GetBlockSize
	GetSectorCount
)

const sectorSize = 512

// Disk is the Block Device Adapter for drive 0. Only drive 0 exists; any
// other drive number returns a parameter error.
type Disk struct {
	engine *sdspi.Engine
}

// New returns a Disk adapting engine.
func New(engine *sdspi.Engine) *Disk {
	return &Disk{engine: engine}
}

// Initialize brings the card up via the engine. The FAT library is
// expected to call this once before issuing status/read/write/ioctl.
func (d *Disk) Initialize(drive int) Result {
	if drive != 0 {
		return ParamErr
	}
	if err := d.engine.Init(); err != sdspi.ErrNone {
		return NotInitialized
	}
	return Ok
}

// Status reports whether the card is present.
func (d *Disk) Status(drive int) Result {
	if drive != 0 {
		return ParamErr
	}
	if !d.engine.CardDetected() {
		return NoDisk
	}
	return Ok
}

// Read forwards to Engine.ReadBlocks, folding its rich error into the
// coarse result the FAT contract expects.
func (d *Disk) Read(drive int, buf []byte, sector uint32, count uint32) Result {
	if drive != 0 {
		return ParamErr
	}
	if err := d.engine.ReadBlocks(sector, count, buf); err != sdspi.ErrNone {
		return Err
	}
	return Ok
}

// Write forwards to Engine.WriteBlocks. Writes are synchronous, so there
// is no separate flush step: CtrlSync is a no-op (see Ioctl).
func (d *Disk) Write(drive int, buf []byte, sector uint32, count uint32) Result {
	if drive != 0 {
		return ParamErr
	}
	if err := d.engine.WriteBlocks(sector, count, buf); err != sdspi.ErrNone {
		return Err
	}
	return Ok
}

// Ioctl answers the handful of queries a FAT library issues outside the
// read/write path.
func (d *Disk) Ioctl(drive int, op Ioctl) (uint32, Result) {
	if drive != 0 {
		return 0, ParamErr
	}

	switch op {
	case CtrlSync:
		return 0, Ok
	case GetSectorSize:
		return sectorSize, Ok
	case GetBlockSize:
		return 1, Ok
	case GetSectorCount:
		n, err := d.engine.SectorCount()
		if err != sdspi.ErrNone {
			return 0, Err
		}
		return n, Ok
	default:
		return 0, ParamErr
	}
}
