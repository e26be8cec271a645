package bind

import "fmt"

// BuildError reports a failure during binding generation: an
// unclassifiable type, an unusable descriptor, a class that cannot be
// constructed at all. It aborts generation and never reaches a foreign
// caller.
type BuildError struct {
	Class  string
	Detail string
	Err    error
}

func (e *BuildError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("bind %s: %s: %v", e.Class, e.Detail, e.Err)
	}
	return fmt.Sprintf("bind %s: %s", e.Class, e.Detail)
}

func (e *BuildError) Unwrap() error { return e.Err }

// ArityError reports a foreign call with the wrong argument count. It is
// raised before any argument conversion or native invocation.
type ArityError struct {
	What string // "method print_int", "constructor Rect"
	Want int
	Got  int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("%s: expected %d arguments, got %d", e.What, e.Want, e.Got)
}

// ConversionError reports a foreign value that does not match the
// expected native type, a container element failing recursively, or a
// record missing a field. Conversion precedes invocation, so no native
// state has been mutated when one surfaces.
type ConversionError struct {
	What string // "argument 2 of print_int", "field x", "element 3"
	Err  error
}

func (e *ConversionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot convert %s: %v", e.What, e.Err)
	}
	return fmt.Sprintf("cannot convert %s", e.What)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// ConstructorResolutionError reports that no constructor matched the
// supplied arity, or that a matching constructor's arguments failed to
// convert. No wrapper survives a failed construction.
type ConstructorResolutionError struct {
	Class string
	Arity int
	Err   error
}

func (e *ConstructorResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("no matching constructor for %s with %d arguments: %v", e.Class, e.Arity, e.Err)
	}
	return fmt.Sprintf("no matching constructor for %s with %d arguments", e.Class, e.Arity)
}

func (e *ConstructorResolutionError) Unwrap() error { return e.Err }

// InvalidObjectError reports a thunk invoked on a wrapper whose native
// object is gone, e.g. after finalization.
type InvalidObjectError struct {
	Class string
}

func (e *InvalidObjectError) Error() string {
	return fmt.Sprintf("invalid %s object", e.Class)
}
