package errors

import (
	stderrors "errors"
	"strings"
	"testing"
)

func TestError_Message(t *testing.T) {
	err := New(PhaseBridge, KindTypeMismatch).
		Path("math.add", "arg0").
		Detail("expected i32, got f64").
		Build()

	msg := err.Error()
	if !strings.Contains(msg, "[bridge]") {
		t.Errorf("missing phase in %q", msg)
	}
	if !strings.Contains(msg, "type_mismatch") {
		t.Errorf("missing kind in %q", msg)
	}
	if !strings.Contains(msg, "math.add.arg0") {
		t.Errorf("missing path in %q", msg)
	}
	if !strings.Contains(msg, "expected i32") {
		t.Errorf("missing detail in %q", msg)
	}
}

func TestError_Is(t *testing.T) {
	err := NotFound(PhaseDispatch, "interface", "math.mul")

	if !stderrors.Is(err, &Error{Phase: PhaseDispatch, Kind: KindNotFound}) {
		t.Error("expected match on phase+kind")
	}
	if stderrors.Is(err, &Error{Phase: PhaseBridge, Kind: KindNotFound}) {
		t.Error("should not match different phase")
	}
	if stderrors.Is(err, &Error{Phase: PhaseDispatch, Kind: KindCapacity}) {
		t.Error("should not match different kind")
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := stderrors.New("disk on fire")
	err := IO(PhaseLoad, "bin/vm_x64_64.native", cause)

	if !stderrors.Is(err, cause) {
		t.Error("expected unwrap to reach cause")
	}
	if !strings.Contains(err.Error(), "disk on fire") {
		t.Errorf("cause missing from %q", err.Error())
	}
}

func TestConvenienceConstructors(t *testing.T) {
	cases := []struct {
		err  *Error
		kind Kind
	}{
		{ArgCountMismatch(PhaseBridge, "math.add", 2, 1), KindArgCountMismatch},
		{Capacity(PhaseLoad, "module registry", 64), KindCapacity},
		{Structural("bad magic 0x%08x", 0xdeadbeef), KindStructural},
		{Dependency("cycle involving %q", "vm_x64_64"), KindDependency},
		{Runtime("division by zero"), KindRuntime},
		{Unsupported(PhaseBridge, "string return on word stack"), KindUnsupported},
	}
	for _, c := range cases {
		if c.err.Kind != c.kind {
			t.Errorf("got kind %s, want %s", c.err.Kind, c.kind)
		}
		if c.err.Error() == "" {
			t.Error("empty message")
		}
	}
}
