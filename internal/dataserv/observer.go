package dataserv

// Observer is notified of process lifecycle and output volume.
// Calls are made outside the registry lock, from the relay goroutines,
// and must not block for long. The *Process identifies one run: a key
// that is re-bootstrapped produces a new *Process.
type Observer interface {
	ProcessStarted(p *Process)
	OutputRelayed(p *Process, stream string, n int)
	ProcessExited(p *Process, err error)
}

type noopObserver struct{}

func (noopObserver) ProcessStarted(*Process)             {}
func (noopObserver) OutputRelayed(*Process, string, int) {}
func (noopObserver) ProcessExited(*Process, error)       {}

// Observers combines several observers into one. Nil entries are skipped.
func Observers(obs ...Observer) Observer {
	var list multiObserver
	for _, o := range obs {
		if o != nil {
			list = append(list, o)
		}
	}
	switch len(list) {
	case 0:
		return noopObserver{}
	case 1:
		return list[0]
	}
	return list
}

type multiObserver []Observer

func (m multiObserver) ProcessStarted(p *Process) {
	for _, o := range m {
		o.ProcessStarted(p)
	}
}

func (m multiObserver) OutputRelayed(p *Process, stream string, n int) {
	for _, o := range m {
		o.OutputRelayed(p, stream, n)
	}
}

func (m multiObserver) ProcessExited(p *Process, err error) {
	for _, o := range m {
		o.ProcessExited(p, err)
	}
}

// Key is an Identity backed by a plain string.
type Key string

// ID returns the key itself.
func (k Key) ID() string { return string(k) }
