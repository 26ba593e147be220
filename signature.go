package astcruntime

import "strings"

// MaxSignatureParams bounds call-signature arity. Calls never accept
// variadics; argument count must equal the parameter list length exactly.
const MaxSignatureParams = 16

// CallSignature declares the typed shape of a bridge interface: an ordered
// parameter tag list, one return tag, and a human-readable description.
type CallSignature struct {
	Description string
	Params      []Tag
	Return      Tag
}

// Signature is a convenience constructor: Signature(ret, params...).
func Signature(ret Tag, params ...Tag) CallSignature {
	return CallSignature{Return: ret, Params: params}
}

// WithDescription returns a copy of the signature carrying a description.
func (s CallSignature) WithDescription(desc string) CallSignature {
	s.Description = desc
	return s
}

// Validate checks arity bounds and tag validity.
func (s CallSignature) Validate() error {
	if len(s.Params) > MaxSignatureParams {
		return errTooManyParams
	}
	if !s.Return.Valid() {
		return errInvalidTag
	}
	for _, p := range s.Params {
		if !p.Valid() || p == TagVoid {
			return errInvalidTag
		}
	}
	return nil
}

// String renders the signature like "(i32, i32) -> i32".
func (s CallSignature) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, p := range s.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.String())
	}
	b.WriteString(") -> ")
	b.WriteString(s.Return.String())
	return b.String()
}

type signatureError string

func (e signatureError) Error() string { return string(e) }

const (
	errTooManyParams signatureError = "call signature exceeds maximum parameter count"
	errInvalidTag    signatureError = "call signature contains an invalid tag"
)
