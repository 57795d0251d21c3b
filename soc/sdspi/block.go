// picocalc-text-starter
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package sdspi

import "time"

// waitToken polls the bus for a start token (or an error token) within
// timeout, returning the token byte. ErrTimeout is returned if nothing
// arrives before the deadline.
func (e *Engine) waitToken(timeout time.Duration) (byte, Error) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		b, err := e.xferByte(fill)
		if err != nil {
			return 0, e.fail(ErrTimeout)
		}
		if b != fill {
			return b, ErrNone
		}
	}
	return 0, e.fail(ErrTimeout)
}

// waitNotBusy polls the data-in line until it returns 0xFF (programming or
// transfer complete) or timeout elapses.
func (e *Engine) waitNotBusy(timeout time.Duration) Error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		b, err := e.xferByte(fill)
		if err != nil {
			return e.fail(ErrTimeout)
		}
		if b == fill {
			return e.ok()
		}
	}
	return e.fail(ErrTimeout)
}

// receiveDataBlock waits for a start token and reads n bytes into dst
// followed by the 2-byte CRC, verifying it when CRC is enabled. Any byte
// in the error-token range (top nibble zero) is classified instead of
// treated as a malformed start token.
func (e *Engine) receiveDataBlock(dst []byte, timeout time.Duration) Error {
	tok, err := e.waitToken(timeout)
	if err != ErrNone {
		return err
	}

	if tok != tokenStartSingle {
		if tok&0xF0 == 0 {
			return e.fail(classifyErrorToken(tok))
		}
		return e.fail(ErrDataToken)
	}

	rx := make([]byte, len(dst))
	tx := make([]byte, len(dst))
	for i := range tx {
		tx[i] = fill
	}
	if xferErr := e.bus.Transfer(tx, rx); xferErr != nil {
		return e.fail(ErrTimeout)
	}
	copy(dst, rx)

	var crcBytes [2]byte
	crcTx := [2]byte{fill, fill}
	if xferErr := e.bus.Transfer(crcTx[:], crcBytes[:]); xferErr != nil {
		return e.fail(ErrTimeout)
	}

	if e.crc {
		got := uint16(crcBytes[0])<<8 | uint16(crcBytes[1])
		if got != crc16(dst) {
			return e.fail(ErrCrcData)
		}
	}

	return e.ok()
}

// sendDataBlock clocks the pre-data filler byte, the given start token,
// the data bytes, and the CRC (or 0xFF 0xFF if disabled), then reads and
// classifies the data response byte.
func (e *Engine) sendDataBlock(token byte, data []byte) Error {
	e.xferByte(fill)
	e.xferByte(token)

	rx := make([]byte, len(data))
	if err := e.bus.Transfer(data, rx); err != nil {
		return e.fail(ErrTimeout)
	}

	var crcTx [2]byte
	if e.crc {
		sum := crc16(data)
		crcTx = [2]byte{byte(sum >> 8), byte(sum)}
	} else {
		crcTx = [2]byte{fill, fill}
	}
	var crcRx [2]byte
	if err := e.bus.Transfer(crcTx[:], crcRx[:]); err != nil {
		return e.fail(ErrTimeout)
	}

	resp, err := e.xferByte(fill)
	if err != nil {
		return e.fail(ErrTimeout)
	}

	switch resp & 0x1F {
	case dataRespAccepted:
		return e.ok()
	case dataRespCrcError:
		return e.fail(ErrCrcData)
	default:
		return e.fail(ErrWriteReject)
	}
}

// ReadBlocks reads n consecutive 512-byte sectors starting at start into
// buf, which must be n*512 bytes. n == 1 takes the single-block path with
// bounded retry of transient errors; n > 1 takes the
// multi-block streaming path with no internal retry.
func (e *Engine) ReadBlocks(start, n uint32, buf []byte) Error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.card.initialized {
		return e.fail(ErrNoCard)
	}
	if n == 0 || uint32(len(buf)) != n*blockSize {
		return e.fail(ErrOutOfRange)
	}
	if start+n > e.card.SectorCount {
		return e.fail(ErrOutOfRange)
	}

	if n == 1 {
		return e.readSingleBlock(start, buf)
	}
	return e.readMultipleBlocks(start, n, buf)
}

func (e *Engine) readSingleBlock(sector uint32, buf []byte) Error {
	var lastErr Error
	for attempt := 0; attempt < singleBlockRetries; attempt++ {
		r1, cmdErr := e.send(cmdReadSingleBlock, e.translate(sector))
		if cmdErr != ErrNone {
			return cmdErr
		}
		if r1c := classifyR1(r1); r1c != ErrNone {
			return e.fail(r1c)
		}

		blkErr := e.receiveDataBlock(buf, readTimeout)
		if blkErr == ErrNone {
			return e.ok()
		}

		switch blkErr {
		case ErrCrcData, ErrDataToken, ErrTimeout:
			lastErr = blkErr
			continue
		default:
			return blkErr
		}
	}
	return e.fail(lastErr)
}

func (e *Engine) readMultipleBlocks(start, n uint32, buf []byte) Error {
	r1, cmdErr := e.send(cmdReadMultipleBlock, e.translate(start))
	if cmdErr != ErrNone {
		return cmdErr
	}
	if r1c := classifyR1(r1); r1c != ErrNone {
		return e.fail(r1c)
	}

	var loopErr Error
	for i := uint32(0); i < n; i++ {
		blkErr := e.receiveDataBlock(buf[i*blockSize:(i+1)*blockSize], readTimeout)
		if blkErr != ErrNone {
			loopErr = blkErr
			break
		}
	}

	// STOP_TRANSMISSION is always issued, regardless of loop outcome, to
	// take the card out of multi-read mode.
	stopR1, stopErr := e.send(cmdStopTransmission, 0)
	if stopErr == ErrNone {
		stopErr = classifyR1(stopR1)
	}
	e.waitNotBusy(readTimeout)

	if loopErr != ErrNone {
		return e.fail(loopErr)
	}
	if stopErr != ErrNone {
		return e.fail(stopErr)
	}
	return e.ok()
}

// WriteBlocks writes n consecutive 512-byte sectors starting at start from
// buf. n == 1 takes the single-block path; n > 1 takes the multi-block
// streaming path with a pre-erase hint and a StopTran on every exit.
func (e *Engine) WriteBlocks(start, n uint32, buf []byte) Error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.card.initialized {
		return e.fail(ErrNoCard)
	}
	if n == 0 || uint32(len(buf)) != n*blockSize {
		return e.fail(ErrOutOfRange)
	}
	if start+n > e.card.SectorCount {
		return e.fail(ErrOutOfRange)
	}

	if n == 1 {
		return e.writeSingleBlock(start, buf)
	}
	return e.writeMultipleBlocks(start, n, buf)
}

func (e *Engine) writeSingleBlock(sector uint32, buf []byte) Error {
	r1, cmdErr := e.send(cmdWriteBlock, e.translate(sector))
	if cmdErr != ErrNone {
		return cmdErr
	}
	if r1c := classifyR1(r1); r1c != ErrNone {
		return e.fail(r1c)
	}

	if respErr := e.sendDataBlock(tokenStartSingle, buf); respErr != ErrNone {
		return respErr
	}

	return e.waitNotBusy(writeTimeout)
}

func (e *Engine) writeMultipleBlocks(start, n uint32, buf []byte) Error {
	// Pre-erase hint; failure is non-fatal.
	e.appSend(cmdSetWrBlkEraseCount, n)

	r1, cmdErr := e.send(cmdWriteMultipleBlock, e.translate(start))
	if cmdErr != ErrNone {
		return cmdErr
	}
	if r1c := classifyR1(r1); r1c != ErrNone {
		return e.fail(r1c)
	}

	var loopErr Error
	for i := uint32(0); i < n; i++ {
		respErr := e.sendDataBlock(tokenStartMulti, buf[i*blockSize:(i+1)*blockSize])
		if respErr != ErrNone {
			loopErr = respErr
			break
		}
		if busyErr := e.waitNotBusy(writeTimeout); busyErr != ErrNone {
			loopErr = busyErr
			break
		}
	}

	// StopTran is sent on every exit from the loop, successful or not
	// so the card is never left waiting for another block.
	e.xferByte(tokenStopTran)
	e.xferByte(fill)
	e.waitNotBusy(writeTimeout)

	if loopErr != ErrNone {
		return e.fail(loopErr)
	}
	return e.ok()
}
