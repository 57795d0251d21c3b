// picocalc-text-starter
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package sdspi

import "github.com/mhbvr/picocalc-text-starter/bits"

const csdSize = 16

// readCSD issues SEND_CSD, receives the 16-byte register as a data block,
// and derives the card's sector count from it.
//
// The CSD-v1 C_SIZE_MULT field straddles bytes 9 and 10 of the register;
// a legacy SDSC card showing an implausible capacity should be
// cross-checked against a known-good reference before trusting this path.
func (e *Engine) readCSD() (uint32, Error) {
	r1, cmdErr := e.send(cmdSendCSD, 0)
	if cmdErr != ErrNone {
		return 0, cmdErr
	}
	if r1c := classifyR1(r1); r1c != ErrNone {
		return 0, r1c
	}

	csd := make([]byte, csdSize)
	if blkErr := e.receiveDataBlock(csd, readTimeout); blkErr != ErrNone {
		return 0, blkErr
	}

	return csdSectorCount(csd), ErrNone
}

// csdSectorCount derives the card's capacity in 512-byte sectors from a
// raw 16-byte CSD register, dispatching on the structure version encoded
// in the top two bits of byte 0.
func csdSectorCount(csd []byte) uint32 {
	v := uint32(csd[0])
	if bits.GetN(&v, 6, 0x03) == 1 {
		return csdv2SectorCount(csd)
	}
	return csdv1SectorCount(csd)
}

// csdv2SectorCount implements the CSD v2 (SDHC/SDXC) formula:
// C_SIZE is a 22-bit field, sectors = (C_SIZE + 1) * 1024.
func csdv2SectorCount(csd []byte) uint32 {
	v := uint32(csd[7])<<16 | uint32(csd[8])<<8 | uint32(csd[9])
	cSize := bits.GetN(&v, 0, 0x3FFFFF)
	return (cSize + 1) * 1024
}

// csdv1SectorCount implements the CSD v1 (SDSC) formula: C_SIZE is a
// 12-bit field straddling bytes 6-8, C_SIZE_MULT a 3-bit field straddling
// bytes 9 and 10, and READ_BL_LEN the low nibble of byte 5.
// sectors = (C_SIZE + 1) << (C_SIZE_MULT + READ_BL_LEN - 7).
func csdv1SectorCount(csd []byte) uint32 {
	sizeWord := uint32(csd[6])<<16 | uint32(csd[7])<<8 | uint32(csd[8])
	cSize := bits.GetN(&sizeWord, 6, 0xFFF)

	multWord := uint32(csd[9])<<8 | uint32(csd[10])
	cSizeMult := bits.GetN(&multWord, 7, 0x07)

	blLenByte := uint32(csd[5])
	readBlLen := bits.GetN(&blLenByte, 0, 0x0F)

	shift := cSizeMult + readBlLen - 7
	return (cSize + 1) << shift
}
