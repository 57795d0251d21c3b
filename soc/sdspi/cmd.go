// picocalc-text-starter
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package sdspi

// SD command indices used by the engine. Names follow the SD Physical
// Layer Simplified Specification.
const (
	cmdGoIdleState        = 0
	cmdSendIfCond         = 8
	cmdSendCSD            = 9
	cmdSendCID            = 10
	cmdStopTransmission   = 12
	cmdSetBlocklen        = 16
	cmdReadSingleBlock    = 17
	cmdReadMultipleBlock  = 18
	cmdSetWrBlkEraseCount = 23 // sent as ACMD23
	cmdWriteBlock         = 24
	cmdWriteMultipleBlock = 25
	cmdAppCmd             = 55
	cmdReadOCR            = 58
	cmdCrcOnOff           = 59

	acmdSendOpCond = 41
)

// hard-coded CRC bytes used when CRC generation is disabled, for the two
// commands the card validates regardless of whether CRC is otherwise enabled.
const (
	crcGoIdleState = 0x95
	crcSendIfCond  = 0x87
)

// R1 status bit positions.
const (
	r1Idle           = 1 << 0
	r1EraseReset     = 1 << 1
	r1IllegalCommand = 1 << 2
	r1CrcError       = 1 << 3
	r1EraseSeqError  = 1 << 4
	r1AddressError   = 1 << 5
	r1ParameterError = 1 << 6
)

// Data tokens.
const (
	tokenStartSingle = 0xFE
	tokenStartMulti  = 0xFC
	tokenStopTran    = 0xFD
)

// Data response token low 5 bits.
const (
	dataRespAccepted = 0b00101
	dataRespCrcError = 0b01011
	dataRespWrError  = 0b01101
)

// fill is the filler byte clocked for one-direction transfers and bus gaps.
const fill = 0xFF

// buildPacket frames a 6-byte SD command packet: start/tx bits and the
// 6-bit index in byte 0, the 32-bit big-endian argument in bytes 1-4, and
// the CRC7 (or hard-coded/disabled CRC) plus stop bit in byte 5.
func (e *Engine) buildPacket(index byte, arg uint32) [6]byte {
	var pkt [6]byte
	pkt[0] = 0x40 | (index & 0x3F)
	pkt[1] = byte(arg >> 24)
	pkt[2] = byte(arg >> 16)
	pkt[3] = byte(arg >> 8)
	pkt[4] = byte(arg)

	switch {
	case e.crc:
		pkt[5] = crc7(pkt[:5]) | 0x01
	case index == cmdGoIdleState:
		pkt[5] = crcGoIdleState
	case index == cmdSendIfCond:
		pkt[5] = crcSendIfCond
	default:
		pkt[5] = fill
	}

	return pkt
}

// xferByte is a thin convenience over Bus.Transfer for callers that only care
// about one direction.
func (e *Engine) xferByte(tx byte) (byte, error) {
	txb := [1]byte{tx}
	rxb := [1]byte{0}
	if err := e.bus.Transfer(txb[:], rxb[:]); err != nil {
		return 0, err
	}
	return rxb[0], nil
}

// send transmits a command packet and waits for the R1 byte, polling up to
// 8 filler bytes. STOP_TRANSMISSION additionally clocks one
// stuff byte before the R1 poll.
func (e *Engine) send(index byte, arg uint32) (byte, Error) {
	pkt := e.buildPacket(index, arg)
	rxb := make([]byte, len(pkt))
	if err := e.bus.Transfer(pkt[:], rxb); err != nil {
		return 0, e.fail(ErrTimeout)
	}

	if index == cmdStopTransmission {
		if _, err := e.xferByte(fill); err != nil {
			return 0, e.fail(ErrTimeout)
		}
	}

	for i := 0; i < 8; i++ {
		r1, err := e.xferByte(fill)
		if err != nil {
			return 0, e.fail(ErrTimeout)
		}
		if r1&0x80 == 0 {
			// One filler byte to satisfy the inter-command gap.
			e.xferByte(fill)
			return r1, ErrNone
		}
	}

	return 0, e.fail(ErrTimeout)
}

// sendTail sends a command and reads n additional trailing bytes (4 for R3
// and R7), returning the R1 byte and the tail.
func (e *Engine) sendTail(index byte, arg uint32, n int) (byte, []byte, Error) {
	r1, cmdErr := e.send(index, arg)
	if cmdErr != ErrNone {
		return r1, nil, cmdErr
	}

	tail := make([]byte, n)
	for i := range tail {
		b, err := e.xferByte(fill)
		if err != nil {
			return r1, nil, e.fail(ErrTimeout)
		}
		tail[i] = b
	}
	return r1, tail, ErrNone
}

// appSend issues APP_CMD followed by an ACMD, as required for every
// application-specific command.
func (e *Engine) appSend(index byte, arg uint32) (byte, Error) {
	r1, err := e.send(cmdAppCmd, 0)
	if err != ErrNone {
		return r1, err
	}
	if r1&r1IllegalCommand != 0 {
		return r1, e.fail(ErrCmdError)
	}
	return e.send(index, arg)
}

// classifyR1 maps an R1 error-bit set to the Error taxonomy. It
// ignores the idle bit: callers that care about idle state check it
// themselves, since it is not an error during init.
func classifyR1(r1 byte) Error {
	switch {
	case r1&r1CrcError != 0:
		return ErrCrcCmd
	case r1&(r1ParameterError|r1AddressError) != 0:
		return ErrOutOfRange
	case r1&^byte(r1Idle) != 0:
		return ErrCmdError
	default:
		return ErrNone
	}
}

// classifyErrorToken maps a read error token's low nibble to the Error
// taxonomy: bit 0 general error, bit 1 card controller error, bit 2 ECC
// failure, bit 3 out-of-range address.
func classifyErrorToken(tok byte) Error {
	switch {
	case tok&0x08 != 0:
		return ErrOutOfRange
	case tok&0x04 != 0:
		return ErrEccFail
	case tok&0x02 != 0:
		return ErrCardController
	case tok&0x01 != 0:
		return ErrGeneral
	default:
		return ErrDataToken
	}
}
