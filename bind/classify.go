package bind

import (
	"fmt"
	"reflect"
)

// Kind is the structural category of a native type at the binding
// boundary. Every field, parameter, and return type resolves to exactly
// one Kind, or binding generation fails.
type Kind int

const (
	KindInvalid Kind = iota
	KindPrimitive
	KindText
	KindEnum
	KindSequence
	KindPointer
	KindRecord
)

var kindNames = [...]string{
	KindInvalid:   "invalid",
	KindPrimitive: "primitive",
	KindText:      "text",
	KindEnum:      "enum",
	KindSequence:  "sequence",
	KindPointer:   "pointer",
	KindRecord:    "record",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Classify categorizes a Go type structurally:
//
//   - Primitive: bool and the predeclared numeric kinds, unnamed.
//   - Text: any string kind, plus []byte.
//   - Enum: a named type whose underlying kind is an integer.
//   - Sequence: a slice or array that is not []byte.
//   - Pointer: *T, carrying ownership of a single element.
//   - Record: a struct, converted by value field-by-field.
//
// Maps, channels, funcs, interfaces and complex numbers have no foreign
// representation; classifying one is a generation-time failure.
func Classify(t reflect.Type) (Kind, error) {
	switch t.Kind() {
	case reflect.Bool, reflect.Float32, reflect.Float64:
		// Named float types still convert as plain numbers; only
		// integer-underlying named types are enumerations.
		return KindPrimitive, nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if isNamed(t) {
			return KindEnum, nil
		}
		return KindPrimitive, nil

	case reflect.String:
		return KindText, nil

	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 && !isNamed(t.Elem()) {
			return KindText, nil
		}
		if _, err := Classify(t.Elem()); err != nil {
			return KindInvalid, err
		}
		return KindSequence, nil

	case reflect.Array:
		if _, err := Classify(t.Elem()); err != nil {
			return KindInvalid, err
		}
		return KindSequence, nil

	case reflect.Pointer:
		if _, err := Classify(t.Elem()); err != nil {
			return KindInvalid, err
		}
		return KindPointer, nil

	case reflect.Struct:
		return KindRecord, nil

	default:
		return KindInvalid, fmt.Errorf("type %s (%s) has no foreign representation", t, t.Kind())
	}
}

// isNamed reports whether t is a defined (non-predeclared) type.
func isNamed(t reflect.Type) bool {
	return t.PkgPath() != ""
}
