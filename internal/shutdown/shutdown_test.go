package shutdown

import (
	"testing"
)

type tokenType struct{}

func TestInstallOnce(t *testing.T) {
	r := NewRegistry()
	tok := &tokenType{}

	if !r.InstallOnce(tok, "first", func() {}) {
		t.Error("InstallOnce() first = false, want true")
	}
	if r.InstallOnce(tok, "second", func() {}) {
		t.Error("InstallOnce() duplicate token = true, want false")
	}
	if !r.Installed(tok) {
		t.Error("Installed() = false, want true")
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
	if r.Installed(&tokenType{}) {
		t.Error("Installed() for a different token = true, want false")
	}
}

func TestRun_ReverseOrderAndOnce(t *testing.T) {
	r := NewRegistry()
	var order []string

	r.InstallOnce("a", "a", func() { order = append(order, "a") })
	r.InstallOnce("b", "b", func() { order = append(order, "b") })
	r.InstallOnce("c", "c", func() { order = append(order, "c") })

	r.Run()
	r.Run()

	want := []string{"c", "b", "a"}
	if len(order) != len(want) {
		t.Fatalf("ran %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestRun_PanicDoesNotStopOthers(t *testing.T) {
	r := NewRegistry()
	ran := false

	r.InstallOnce("ok", "ok", func() { ran = true })
	r.InstallOnce("boom", "boom", func() { panic("boom") })

	r.Run()

	if !ran {
		t.Error("hook after a panicking hook did not run")
	}
}

func TestReset(t *testing.T) {
	r := NewRegistry()
	count := 0
	r.InstallOnce("x", "x", func() { count++ })
	r.Run()

	r.Reset()
	if r.Len() != 0 {
		t.Errorf("Len() after Reset = %d, want 0", r.Len())
	}

	r.InstallOnce("x", "x", func() { count++ })
	r.Run()
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}
