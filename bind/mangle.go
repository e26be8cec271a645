package bind

import (
	"reflect"
	"strings"
)

// Mangler produces the foreign-visible name for one member of an
// overload group. Scripting runtimes have no native overloading, so each
// member of a group needs a distinct, stable name that call sites can
// reference directly. The interface exists so alternative strategies
// (e.g. runtime variant dispatch) can be substituted.
type Mangler interface {
	Mangle(base string, params []reflect.Type) string
}

// suffixMangler appends one deterministic token per parameter, derived
// from a simplified rendering of the parameter's type: package paths and
// pointer markers stripped, sequences rendered as "<elem>_list", tokens
// lowercased. print(int)/print(float64) become print_int/print_float64.
type suffixMangler struct{}

func (suffixMangler) Mangle(base string, params []reflect.Type) string {
	var b strings.Builder
	b.WriteString(base)
	for _, p := range params {
		b.WriteByte('_')
		b.WriteString(typeToken(p))
	}
	return b.String()
}

// typeToken renders one parameter type as a mangling token.
func typeToken(t reflect.Type) string {
	k, err := Classify(t)
	if err != nil {
		// Unclassifiable parameters are rejected before mangling;
		// this branch only renders diagnostics.
		return sanitizeToken(t.String())
	}

	switch k {
	case KindText:
		return "string"
	case KindPrimitive:
		return t.Kind().String()
	case KindEnum, KindRecord:
		return sanitizeToken(t.Name())
	case KindSequence:
		return typeToken(t.Elem()) + "_list"
	case KindPointer:
		// Ownership markers are stripped; the pointee names the token.
		return typeToken(t.Elem())
	}
	return sanitizeToken(t.String())
}

// sanitizeToken lowercases a type name and flattens the punctuation of
// qualified or parameterized names (dots, brackets, commas, spaces)
// into underscores.
func sanitizeToken(s string) string {
	var b strings.Builder
	sep := true // swallow leading separators
	for _, r := range strings.ToLower(s) {
		switch r {
		case '.', '/', '[', ']', ',', ' ', '*':
			if !sep {
				b.WriteByte('_')
				sep = true
			}
		default:
			b.WriteRune(r)
			sep = false
		}
	}
	return strings.TrimRight(b.String(), "_")
}
