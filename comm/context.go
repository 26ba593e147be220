package comm

import "time"

// MaxCallArgs is the argument capacity of a CallContext.
const MaxCallArgs = 4

// Status reports the outcome of a dispatched call.
type Status uint8

const (
	StatusPending Status = iota
	StatusSuccess
	StatusError
	StatusTimeout
	StatusNotFound
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	case StatusTimeout:
		return "timeout"
	case StatusNotFound:
		return "not_found"
	default:
		return "status(?)"
	}
}

// CallContext carries the arguments into a dispatch and the result back
// out. Callers set Args and ArgCount; dispatch writes Result and Status.
type CallContext struct {
	Args     [MaxCallArgs]Value
	Result   Value
	ArgCount int
	Status   Status
}

// SetArgs fills the argument slots. Panics if more than MaxCallArgs are
// given; dispatch-level arity checks handle every other mismatch.
func (c *CallContext) SetArgs(args ...Value) {
	if len(args) > MaxCallArgs {
		panic("comm: too many call arguments")
	}
	c.ArgCount = len(args)
	for i := range c.Args {
		c.Args[i] = Value{}
	}
	copy(c.Args[:], args)
}

// PendingCall is one entry of the asynchronous call table. Entries are
// append-only; an id is never reused even after its call resolves.
type PendingCall struct {
	IssuedAt  time.Time
	Interface string
	Ctx       CallContext
	ID        uint64
	Done      bool
}
