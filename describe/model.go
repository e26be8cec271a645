// Package describe introspects Go types and produces the ordered
// field/method/constructor descriptors the binding engine consumes.
package describe

import "reflect"

// Class is the in-memory description of one bindable Go type.
type Class struct {
	Name string
	Type reflect.Type // the struct type, never a pointer

	Fields       []Field
	Methods      []Method
	Constructors []Constructor

	// NoDefault marks a type whose zero value is not a usable instance.
	// Zero-argument foreign construction is then served only by an
	// explicitly registered zero-parameter constructor.
	NoDefault bool
}

// Field describes one exported struct field, in declaration order.
type Field struct {
	Name   string // Go field name
	Index  []int  // reflect index path into Class.Type
	GoType reflect.Type
}

// Method describes one bindable method. Methods sharing a Name form an
// overload group; the engine disambiguates their foreign names.
type Method struct {
	Name   string // exposed base name (lowerCamel)
	GoName string

	// Func takes the receiver pointer as its first argument.
	Func   reflect.Value
	Params []reflect.Type // excluding the receiver

	Return     reflect.Type // nil when the method returns nothing
	ReturnsErr bool         // true when a trailing error result exists
}

// Constructor describes one registered constructor function, in
// registration order. The function returns *T or (*T, error).
type Constructor struct {
	Func       reflect.Value
	Params     []reflect.Type
	ReturnsErr bool
}
