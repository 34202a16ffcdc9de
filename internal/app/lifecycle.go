package app

// Lifecycle holds the platform conventions for the last window closing.
type Lifecycle struct {
	goos string
}

func NewLifecycle(goos string) Lifecycle {
	return Lifecycle{goos: goos}
}

// KeepResident reports whether the process stays alive with no windows and
// re-creates them when activated again.
func (l Lifecycle) KeepResident() bool {
	return l.goos == "darwin"
}

func (l Lifecycle) QuitOnAllClosed() bool {
	return !l.KeepResident()
}
