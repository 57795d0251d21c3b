// picocalc-text-starter
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package mount

import (
	"errors"
	"testing"

	"github.com/mhbvr/picocalc-text-starter/soc/sdspi"
)

// fakeBus never answers an actual SD command; it only needs to report
// presence so Manager's reconciliation can be tested independent of the
// protocol engine, which has its own tests in soc/sdspi.
type fakeBus struct{ present bool }

func (b *fakeBus) Configure(uint32) error { return nil }
func (b *fakeBus) SetBaud(uint32) error    { return nil }
func (b *fakeBus) CSAssert()               {}
func (b *fakeBus) CSDeassert()             {}
func (b *fakeBus) CardDetect() bool        { return b.present }
func (b *fakeBus) Transfer(tx, rx []byte) error {
	for i := range rx {
		rx[i] = 0xFF
	}
	return nil
}

type fakeFS struct {
	mountErr   error
	mountCalls int
	unmounts   int
}

func (f *fakeFS) Mount() error {
	f.mountCalls++
	return f.mountErr
}

func (f *fakeFS) Unmount() error {
	f.unmounts++
	return nil
}

func TestReadyMountsOnInsertion(t *testing.T) {
	bus := &fakeBus{present: true}
	fs := &fakeFS{}
	m := New(sdspi.NewEngine(bus), fs)

	if !m.Ready() {
		t.Fatal("Ready() = false, want true after insertion")
	}
	if fs.mountCalls != 1 {
		t.Errorf("Mount called %d times, want 1", fs.mountCalls)
	}
}

func TestReadyUnmountsOnRemoval(t *testing.T) {
	bus := &fakeBus{present: true}
	fs := &fakeFS{}
	m := New(sdspi.NewEngine(bus), fs)

	if !m.Ready() {
		t.Fatal("Ready() = false, want true after insertion")
	}

	bus.present = false
	if m.Ready() {
		t.Fatal("Ready() = true, want false after removal")
	}
	if fs.unmounts != 1 {
		t.Errorf("Unmount called %d times, want 1", fs.unmounts)
	}
}

func TestReadyDoesNotRemountWithoutRemoval(t *testing.T) {
	bus := &fakeBus{present: true}
	fs := &fakeFS{}
	m := New(sdspi.NewEngine(bus), fs)

	m.Tick()
	m.Tick()
	m.Tick()

	if fs.mountCalls != 1 {
		t.Errorf("Mount called %d times across repeated ticks, want 1", fs.mountCalls)
	}
}

func TestReadyStaysFalseOnMountFailure(t *testing.T) {
	bus := &fakeBus{present: true}
	fs := &fakeFS{mountErr: errors.New("mount failed")}
	m := New(sdspi.NewEngine(bus), fs)

	if m.Ready() {
		t.Fatal("Ready() = true, want false when Mount fails")
	}
	if fs.mountCalls == 0 {
		t.Error("Mount was never attempted")
	}
}

func TestReadyRetriesAfterMountFailure(t *testing.T) {
	bus := &fakeBus{present: true}
	fs := &fakeFS{mountErr: errors.New("mount failed")}
	m := New(sdspi.NewEngine(bus), fs)

	m.Tick()
	fs.mountErr = nil
	if !m.Ready() {
		t.Fatal("Ready() = false, want true once Mount stops failing")
	}
}
