package dataserv

import (
	"errors"
	"testing"
	"time"
)

func TestMemoryLogger_KeepsTail(t *testing.T) {
	l := NewMemoryLogger(8)

	l.Write("stdout", []byte("abcd"))
	l.Write("stderr", []byte("efgh"))
	if got := l.Output(); got != "abcdefgh" {
		t.Errorf("Output() = %q, want %q", got, "abcdefgh")
	}

	l.Write("stdout", []byte("ij"))
	if got := l.Output(); got != "cdefghij" {
		t.Errorf("Output() = %q, want %q", got, "cdefghij")
	}
}

func TestMemoryLogger_DefaultLimit(t *testing.T) {
	if l := NewMemoryLogger(0); l.limit != DefaultOutputLimit {
		t.Errorf("limit = %d, want %d", l.limit, DefaultOutputLimit)
	}
}

func TestObservers(t *testing.T) {
	if _, ok := Observers().(noopObserver); !ok {
		t.Error("Observers() with no args is not a no-op")
	}

	single := &recordingObserver{}
	if Observers(nil, single) != Observer(single) {
		t.Error("Observers(nil, o) did not return o")
	}

	a, b := &recordingObserver{}, &recordingObserver{}
	obs := Observers(a, b)
	p := &Process{id: "d1", name: "FARM", startedAt: time.Now()}
	obs.ProcessStarted(p)
	obs.OutputRelayed(p, "stdout", 3)
	obs.ProcessExited(p, errors.New("x"))

	for _, o := range []*recordingObserver{a, b} {
		if len(o.started) != 1 || o.bytes["stdout"] != 3 || len(o.exited) != 1 {
			t.Errorf("observer = %+v, want one of each call", o)
		}
	}
}

func TestKey(t *testing.T) {
	var id Identity = Key("drive-1")
	if id.ID() != "drive-1" {
		t.Errorf("ID() = %q, want %q", id.ID(), "drive-1")
	}
}

func TestExecutionError(t *testing.T) {
	cause := errors.New("exit status 2")
	err := &ExecutionError{Op: "version", Err: cause}

	if err.Error() != "exit status 2" {
		t.Errorf("Error() = %q, want %q", err.Error(), "exit status 2")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}
