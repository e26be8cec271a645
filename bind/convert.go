package bind

import (
	"fmt"
	"reflect"

	"github.com/chazu/prism/describe"
)

// conv is a compiled bidirectional converter for one native type. The
// tree is built once at binding-generation time (classification happens
// here, not per call) and is reused by every thunk touching the type.
type conv struct {
	kind Kind
	typ  reflect.Type

	elem   *conv       // Sequence, Pointer
	fields []fieldConv // Record
}

type fieldConv struct {
	name  string // foreign-visible field name
	index []int
	c     *conv
}

// compileConv classifies t and builds its converter tree. Any
// classification failure is a generation-time condition; callers wrap
// it into a BuildError.
func compileConv(t reflect.Type) (*conv, error) {
	k, err := Classify(t)
	if err != nil {
		return nil, err
	}

	c := &conv{kind: k, typ: t}
	switch k {
	case KindSequence:
		ec, err := compileConv(t.Elem())
		if err != nil {
			return nil, err
		}
		c.elem = ec

	case KindPointer:
		ec, err := compileConv(t.Elem())
		if err != nil {
			return nil, err
		}
		c.elem = ec

	case KindRecord:
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			fc, err := compileConv(f.Type)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", f.Name, err)
			}
			c.fields = append(c.fields, fieldConv{
				name:  describe.ExposedName(f.Name),
				index: f.Index,
				c:     fc,
			})
		}
	}
	return c, nil
}

// toForeign converts a native value into a foreign one.
func (c *conv) toForeign(rt Runtime, v reflect.Value) (Value, error) {
	switch c.kind {
	case KindPrimitive:
		switch v.Kind() {
		case reflect.Bool:
			return rt.NewBool(v.Bool()), nil
		case reflect.Float32, reflect.Float64:
			return rt.NewNumber(v.Float()), nil
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return rt.NewInteger(v.Int()), nil
		default: // unsigned
			return rt.NewInteger(int64(v.Uint())), nil
		}

	case KindText:
		if v.Kind() == reflect.Slice {
			return rt.NewString(string(v.Bytes())), nil
		}
		return rt.NewString(v.String()), nil

	case KindEnum:
		// Foreign side sees the underlying integer; no symbolic names.
		if isUnsignedKind(v.Kind()) {
			return rt.NewInteger(int64(v.Uint())), nil
		}
		return rt.NewInteger(v.Int()), nil

	case KindSequence:
		n := v.Len()
		elems := make([]Value, 0, n)
		for i := 0; i < n; i++ {
			fv, err := c.elem.toForeign(rt, v.Index(i))
			if err != nil {
				return nil, &ConversionError{What: fmt.Sprintf("element %d", i), Err: err}
			}
			elems = append(elems, fv)
		}
		return rt.NewArray(elems), nil

	case KindPointer:
		// The pointer itself is erased; only the pointee is observable.
		if v.IsNil() {
			return rt.Null(), nil
		}
		return c.elem.toForeign(rt, v.Elem())

	case KindRecord:
		fields := make([]ObjectField, 0, len(c.fields))
		for _, fc := range c.fields {
			fv, err := fc.c.toForeign(rt, v.FieldByIndex(fc.index))
			if err != nil {
				return nil, &ConversionError{What: "field " + fc.name, Err: err}
			}
			fields = append(fields, ObjectField{Name: fc.name, Value: fv})
		}
		return rt.NewObject(fields), nil
	}
	return nil, fmt.Errorf("unconvertible kind %s", c.kind)
}

// fromForeign converts a foreign value into the addressable native
// value out. On failure out may be partially written; callers that need
// all-or-nothing semantics stage into a fresh value first.
func (c *conv) fromForeign(rt Runtime, fv Value, out reflect.Value) error {
	switch c.kind {
	case KindPrimitive:
		return fromForeignPrimitive(rt, fv, out)

	case KindText:
		s, ok := rt.AsString(fv)
		if !ok {
			return &ConversionError{What: fmt.Sprintf("%s value", c.typ)}
		}
		if out.Kind() == reflect.Slice {
			// Always a staging copy: the foreign string's backing
			// storage is not guaranteed past this call.
			out.SetBytes([]byte(s))
			return nil
		}
		out.SetString(s)
		return nil

	case KindEnum:
		i, ok := rt.AsInteger(fv)
		if !ok {
			return &ConversionError{What: fmt.Sprintf("%s value", c.typ)}
		}
		if isUnsignedKind(out.Kind()) {
			if i < 0 || out.OverflowUint(uint64(i)) {
				return &ConversionError{What: fmt.Sprintf("%s value", c.typ), Err: fmt.Errorf("%d overflows %s", i, out.Type())}
			}
			out.SetUint(uint64(i))
		} else {
			if out.OverflowInt(i) {
				return &ConversionError{What: fmt.Sprintf("%s value", c.typ), Err: fmt.Errorf("%d overflows %s", i, out.Type())}
			}
			out.SetInt(i)
		}
		return nil

	case KindSequence:
		elems, ok := rt.AsArray(fv)
		if !ok {
			return &ConversionError{What: fmt.Sprintf("%s value", c.typ)}
		}
		if out.Kind() == reflect.Array {
			if len(elems) != out.Len() {
				return &ConversionError{
					What: fmt.Sprintf("%s value", c.typ),
					Err:  fmt.Errorf("expected %d elements, got %d", out.Len(), len(elems)),
				}
			}
			for i, e := range elems {
				if err := c.elem.fromForeign(rt, e, out.Index(i)); err != nil {
					return &ConversionError{What: fmt.Sprintf("element %d", i), Err: err}
				}
			}
			return nil
		}
		// Clear the destination, then convert and append in index order.
		dst := reflect.MakeSlice(c.typ, len(elems), len(elems))
		for i, e := range elems {
			if err := c.elem.fromForeign(rt, e, dst.Index(i)); err != nil {
				return &ConversionError{What: fmt.Sprintf("element %d", i), Err: err}
			}
		}
		out.Set(dst)
		return nil

	case KindPointer:
		if rt.IsNull(fv) {
			out.Set(reflect.Zero(c.typ))
			return nil
		}
		p := reflect.New(c.typ.Elem())
		if err := c.elem.fromForeign(rt, fv, p.Elem()); err != nil {
			return err
		}
		out.Set(p)
		return nil

	case KindRecord:
		for _, fc := range c.fields {
			fe, ok := rt.ObjectField(fv, fc.name)
			if !ok {
				return &ConversionError{
					What: "field " + fc.name,
					Err:  fmt.Errorf("missing in foreign value"),
				}
			}
			if err := fc.c.fromForeign(rt, fe, out.FieldByIndex(fc.index)); err != nil {
				return &ConversionError{What: "field " + fc.name, Err: err}
			}
		}
		return nil
	}
	return fmt.Errorf("unconvertible kind %s", c.kind)
}

// fromForeignPrimitive narrows the foreign number/boolean into the
// destination's exact kind and signedness.
func fromForeignPrimitive(rt Runtime, fv Value, out reflect.Value) error {
	switch out.Kind() {
	case reflect.Bool:
		b, ok := rt.AsBool(fv)
		if !ok {
			return &ConversionError{What: "boolean value"}
		}
		out.SetBool(b)
		return nil

	case reflect.Float32, reflect.Float64:
		f, ok := rt.AsNumber(fv)
		if !ok {
			return &ConversionError{What: "numeric value"}
		}
		out.SetFloat(f)
		return nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, ok := rt.AsInteger(fv)
		if !ok {
			return &ConversionError{What: "integer value"}
		}
		if out.OverflowInt(i) {
			return &ConversionError{What: "integer value", Err: fmt.Errorf("%d overflows %s", i, out.Type())}
		}
		out.SetInt(i)
		return nil

	default: // unsigned
		i, ok := rt.AsInteger(fv)
		if !ok {
			return &ConversionError{What: "integer value"}
		}
		if i < 0 || out.OverflowUint(uint64(i)) {
			return &ConversionError{What: "integer value", Err: fmt.Errorf("%d overflows %s", i, out.Type())}
		}
		out.SetUint(uint64(i))
		return nil
	}
}

func isUnsignedKind(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}
