package exec

// guard runs a cleanup exactly once on any exit path: normal return, an
// error unwinding out of the engine, or a panic raised inside a backend
// method. Arm it with defer immediately after acquiring the resource.
type guard struct {
	fn   func()
	done bool
}

func newGuard(fn func()) *guard { return &guard{fn: fn} }

// Run fires the cleanup; later calls are no-ops.
func (g *guard) Run() {
	if g.done {
		return
	}
	g.done = true
	g.fn()
}
