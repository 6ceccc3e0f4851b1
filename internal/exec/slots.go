package exec

import (
	"errors"
	"sync/atomic"

	"qirvm/internal/backend"
	"qirvm/internal/memory"
	"qirvm/internal/qir"
)

// The active interface slots are process-wide: trampolines are resolved to
// fixed functions shared by every executor, so at most one run may be in
// flight per process. The running flag is the admission gate; the slots
// themselves are touched only between a successful begin and the matching
// end.
var (
	running       atomic.Bool
	activeQuantum backend.Quantum
	activeRuntime backend.Runtime
)

// ErrReentrant reports a second Run beginning while one is in flight.
var ErrReentrant = errors.New("exec: a run is already in flight")

var errNoActive = errors.New("exec: no active interface (call outside a run)")

// beginRun claims the process-wide run slot. It fails without touching the
// slots when another run is active.
func beginRun(q backend.Quantum, rt backend.Runtime) bool {
	if !running.CompareAndSwap(false, true) {
		return false
	}
	activeQuantum = q
	activeRuntime = rt
	return true
}

// endRun clears both slots unconditionally and releases the gate.
func endRun() {
	activeQuantum = nil
	activeRuntime = nil
	running.Store(false)
}

// Active reports whether a run is in flight (both slots bound).
func Active() bool { return running.Load() }

// runEnv implements binder.Env over the active slots and the executor's
// memory space.
type runEnv struct {
	mem *memory.Manager
}

func (e *runEnv) Quantum() (backend.Quantum, error) {
	if q := activeQuantum; q != nil {
		return q, nil
	}
	return nil, errNoActive
}

func (e *runEnv) Runtime() (backend.Runtime, error) {
	if rt := activeRuntime; rt != nil {
		return rt, nil
	}
	return nil, errNoActive
}

func (e *runEnv) CString(addr uint64) (qir.OptionalCString, error) {
	return e.mem.CString(qir.Pointer(addr))
}
