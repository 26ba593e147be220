package comm

// Target is a callable bound to a registered interface. Symbol resolution
// hands these out; raw code addresses never appear at this layer. Arity is
// fixed per target and checked before every invocation.
type Target interface {
	Arity() int
	Invoke(args []Value) (Value, error)
}

// MaxArity is the largest arity a Target may declare.
const MaxArity = 3

// Func0 is a niladic dispatch target.
type Func0 func() (Value, error)

func (f Func0) Arity() int { return 0 }

func (f Func0) Invoke(args []Value) (Value, error) { return f() }

// Func1 is a one-argument dispatch target.
type Func1 func(Value) (Value, error)

func (f Func1) Arity() int { return 1 }

func (f Func1) Invoke(args []Value) (Value, error) { return f(args[0]) }

// Func2 is a two-argument dispatch target.
type Func2 func(Value, Value) (Value, error)

func (f Func2) Arity() int { return 2 }

func (f Func2) Invoke(args []Value) (Value, error) { return f(args[0], args[1]) }

// Func3 is a three-argument dispatch target.
type Func3 func(Value, Value, Value) (Value, error)

func (f Func3) Arity() int { return 3 }

func (f Func3) Invoke(args []Value) (Value, error) { return f(args[0], args[1], args[2]) }
