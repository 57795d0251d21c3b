// picocalc-text-starter
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package sdspi

import (
	"time"

	"github.com/mhbvr/picocalc-text-starter/bits"
)

// Init brings up a freshly inserted card, walking its full bring-up
// sequence. It is idempotent: calling it again on an already initialized
// card re-runs the full sequence, which is safe since the card itself
// tolerates being reset.
func (e *Engine) Init() Error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.bus == nil {
		return e.fail(ErrNoCard)
	}

	e.card = CardInfo{}

	// Uninit: precondition is a present card; bus at init baud with chip
	// select raised.
	if !e.bus.CardDetect() {
		return e.fail(ErrNoCard)
	}
	if err := e.bus.Configure(initBaud); err != nil {
		return e.fail(ErrNoCard)
	}
	e.bus.CSDeassert()
	time.Sleep(10 * time.Millisecond)

	// BusPrimed: clock >=74 bits with chip select high so the card can
	// synchronize to the bus.
	for i := 0; i < 10; i++ {
		e.xferByte(fill)
	}

	// Reset: GO_IDLE_STATE, retried with backoff until R1 == Idle.
	e.bus.CSAssert()
	var r1 byte
	ok := false
	for i := 0; i < resetRetries; i++ {
		var cmdErr Error
		r1, cmdErr = e.send(cmdGoIdleState, 0)
		if cmdErr == ErrNone && r1 == r1Idle {
			ok = true
			break
		}
		time.Sleep(resetBackoff)
	}
	if !ok {
		e.bus.CSDeassert()
		return e.fail(ErrTimeout)
	}

	// VersionProbe: SEND_IF_COND, 2.7-3.6V range, check pattern 0xAA.
	isV2 := false
	r1, tail, cmdErr := e.sendTail(cmdSendIfCond, 0x000001AA, 4)
	if cmdErr == ErrNone && r1 == r1Idle && len(tail) == 4 {
		voltage := uint32(tail[2])
		if bits.GetN(&voltage, 0, 0x0F) == 0x01 && tail[3] == 0xAA {
			isV2 = true
		}
	}

	// CrcEnable: non-fatal if it fails.
	if e.crc {
		e.send(cmdCrcOnOff, 1)
	}

	// OcrProbe: READ_OCR, verify 3.2-3.4V range bits (bit 20).
	r1, tail, cmdErr = e.sendTail(cmdReadOCR, 0, 4)
	if cmdErr != ErrNone {
		e.bus.CSDeassert()
		return e.fail(cmdErr)
	}
	if len(tail) != 4 {
		e.bus.CSDeassert()
		return e.fail(ErrCmdError)
	}
	ocrLow := uint32(tail[1])
	if !bits.Get(&ocrLow, 4) {
		e.bus.CSDeassert()
		return e.fail(ErrCmdError)
	}

	// PowerUp: APP_CMD + SD_SEND_OP_COND, HCS set if isV2, until idle
	// bit clears.
	var hcs uint32
	if isV2 {
		hcs = 1 << 30
	}
	deadline := time.Now().Add(powerUpBudget)
	ready := false
	for time.Now().Before(deadline) {
		r1, cmdErr = e.appSend(acmdSendOpCond, hcs)
		if cmdErr == ErrNone && r1&r1Idle == 0 {
			ready = true
			break
		}
		time.Sleep(powerUpPoll)
	}
	if !ready {
		e.bus.CSDeassert()
		return e.fail(ErrTimeout)
	}

	// CapacityClassify: reissue READ_OCR, check CCS bit 30 of the OCR.
	_, tail, cmdErr = e.sendTail(cmdReadOCR, 0, 4)
	if cmdErr != ErrNone {
		e.bus.CSDeassert()
		return e.fail(cmdErr)
	}
	ccsByte := uint32(0)
	if len(tail) == 4 {
		ccsByte = uint32(tail[0])
	}
	ccs := len(tail) == 4 && bits.Get(&ccsByte, 6)

	if ccs {
		e.card.Kind = KindSDHC_XC
		e.card.Addressing = BlockAddressed
	} else {
		e.card.Addressing = ByteAddressed
		if isV2 {
			e.card.Kind = KindSDSCv2
		} else {
			e.card.Kind = KindSDSCv1
		}
	}

	// SetBlockLen: harmless no-op for SDHC/SDXC, required for SDSC.
	if _, cmdErr = e.send(cmdSetBlocklen, blockSize); cmdErr != ErrNone {
		e.bus.CSDeassert()
		return e.fail(cmdErr)
	}

	sectors, csdErr := e.readCSD()
	if csdErr != ErrNone {
		e.bus.CSDeassert()
		return e.fail(csdErr)
	}
	e.card.SectorCount = sectors

	// FastBaud: raise the bus rate to the operational clock.
	if err := e.bus.SetBaud(operationBaud); err != nil {
		e.bus.CSDeassert()
		return e.fail(ErrTimeout)
	}

	e.card.Present = true
	e.card.initialized = true

	return e.ok()
}
