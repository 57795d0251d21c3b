// picocalc-text-starter
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package mount implements the Mount Manager: it polls card-detect
// periodically, mounts the volume on insertion, releases it on removal,
// and exposes the single "volume ready?" predicate the shell consults
// before issuing I/O.
package mount

import (
	"sync"
	"time"

	"github.com/mhbvr/picocalc-text-starter/fat"
	"github.com/mhbvr/picocalc-text-starter/soc/sdspi"
)

// Tick is the periodic poll interval.
const Tick = 500 * time.Millisecond

// Manager owns the mount state: whether the volume is currently mounted. It does
// not call Engine.Init itself: that happens inside fs.Mount(), via the
// block device adapter the filesystem was constructed with.
type Manager struct {
	mu      sync.Mutex
	engine  *sdspi.Engine
	fs      fat.Filesystem
	mounted bool
}

// New returns a Manager that reconciles engine's card-present state
// against fs's mount state.
func New(engine *sdspi.Engine, fs fat.Filesystem) *Manager {
	return &Manager{engine: engine, fs: fs}
}

// Ready returns the current mounted flag after reconciling present/mounted
// state. It is the single predicate the shell and any POSIX-shim user must
// consult before issuing I/O.
func (m *Manager) Ready() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reconcile()
	return m.mounted
}

// Tick runs one poll cycle. It must not overlap a synchronous SDE call
// from another caller; Manager serializes against itself with
// its own mutex but relies on the caller to serialize against direct
// Engine use elsewhere.
func (m *Manager) Tick() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reconcile()
}

// reconcile applies the mount/unmount rules. Callers must
// hold m.mu.
func (m *Manager) reconcile() {
	present := m.engine.CardDetected()

	switch {
	case present && !m.mounted:
		if err := m.fs.Mount(); err == nil {
			m.mounted = true
		}
	case !present && m.mounted:
		m.fs.Unmount()
		m.mounted = false
	}
}
