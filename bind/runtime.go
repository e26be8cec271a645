package bind

// Value is an opaque foreign-runtime value. Each Runtime implementation
// chooses its own concrete representation; the engine only moves Values
// between the contract's constructors and inspectors.
type Value = any

// ObjectField is one named entry of a foreign structured value. Records
// convert through ordered ObjectField slices so field enumeration order
// survives the trip.
type ObjectField struct {
	Name  string
	Value Value
}

// Runtime is the contract a concrete scripting engine implements. The
// binding engine is written once against this interface and
// instantiated per runtime.
//
// The engine assumes the runtime serializes all calls into a given
// wrapper; thunks perform no internal locking. Concurrent invocation
// against one wrapper from multiple threads is a caller obligation, not
// something the engine defends against.
type Runtime interface {
	// Value constructors.
	NewNumber(f float64) Value
	NewInteger(i int64) Value
	NewBool(b bool) Value
	NewString(s string) Value
	NewArray(elems []Value) Value
	NewObject(fields []ObjectField) Value
	Null() Value
	Undefined() Value

	// Value inspectors. Extraction returns false when the foreign value
	// is not of the requested shape; the engine maps that to a
	// ConversionError.
	AsNumber(v Value) (float64, bool)
	AsInteger(v Value) (int64, bool)
	AsBool(v Value) (bool, bool)
	AsString(v Value) (string, bool)
	AsArray(v Value) ([]Value, bool)
	ObjectField(v Value, name string) (Value, bool)
	IsNull(v Value) bool
	IsUndefined(v Value) bool

	// DefineClass installs a generated class into the given foreign
	// module/namespace handle (runtime-specific; nil means the global
	// namespace) and returns the foreign type handle. The runtime is
	// responsible for routing its collector to spec.Finalize exactly
	// once per wrapper.
	DefineClass(module Value, name string, spec *ClassSpec) (Value, error)
}

// ClassSpec is everything a runtime needs to expose one bound class:
// a constructor entry point, property accessors, method thunks, and the
// finalizer hook. All thunk errors are ordinary Go errors of the types
// in errors.go; the runtime translates them into its native error
// mechanism.
type ClassSpec struct {
	Name       string
	Construct  func(args []Value) (*Wrapper, error)
	Properties []Property
	Methods    []Method
	Finalize   func(w *Wrapper)
}

// Property exposes one native field through a getter/setter pair.
type Property struct {
	Name string
	Get  func(w *Wrapper) (Value, error)
	Set  func(w *Wrapper, v Value) error
}

// Method exposes one native method (under its possibly mangled foreign
// name) through an invocation thunk. Invoke gates on arity before
// converting anything.
type Method struct {
	Name   string
	Arity  int
	Invoke func(w *Wrapper, args []Value) (Value, error)
}
