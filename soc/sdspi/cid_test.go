// picocalc-text-starter
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package sdspi

import "testing"

func TestDecodeCID(t *testing.T) {
	raw := make([]byte, cidSize)
	raw[0] = 0x03
	copy(raw[1:3], "TI")
	copy(raw[3:8], "SD032")
	raw[8] = 0x10
	raw[9], raw[10], raw[11], raw[12] = 0xDE, 0xAD, 0xBE, 0xEF

	cid := decodeCID(raw)

	if cid.ManufacturerID != 0x03 {
		t.Errorf("ManufacturerID = %#02x, want 0x03", cid.ManufacturerID)
	}
	if cid.OEMID != "TI" {
		t.Errorf("OEMID = %q, want %q", cid.OEMID, "TI")
	}
	if cid.ProductName != "SD032" {
		t.Errorf("ProductName = %q, want %q", cid.ProductName, "SD032")
	}
	if cid.ProductRev != 0x10 {
		t.Errorf("ProductRev = %#02x, want 0x10", cid.ProductRev)
	}
	if want := uint32(0xDEADBEEF); cid.SerialNumber != want {
		t.Errorf("SerialNumber = %#08x, want %#08x", cid.SerialNumber, want)
	}
}

func TestReadCIDBeforeInit(t *testing.T) {
	e := NewEngine(newFakeCard(1024, true))
	if _, err := e.ReadCID(); err != ErrNoCard {
		t.Errorf("ReadCID() before Init = %v, want ErrNoCard", err)
	}
}
