package bind

import (
	"fmt"
	"reflect"

	"github.com/chazu/prism/describe"
)

// buildProperties compiles one getter/setter pair per field descriptor,
// in declaration order.
func buildProperties(rt Runtime, cls *describe.Class) ([]Property, error) {
	props := make([]Property, 0, len(cls.Fields))
	for _, f := range cls.Fields {
		fc, err := compileConv(f.GoType)
		if err != nil {
			return nil, &BuildError{Class: cls.Name, Detail: "field " + f.Name, Err: err}
		}

		name := describe.ExposedName(f.Name)
		index := f.Index
		className := cls.Name

		props = append(props, Property{
			Name: name,
			Get: func(w *Wrapper) (Value, error) {
				if !w.valid() {
					return nil, &InvalidObjectError{Class: className}
				}
				return fc.toForeign(rt, w.native.Elem().FieldByIndex(index))
			},
			Set: func(w *Wrapper, v Value) error {
				if !w.valid() {
					return &InvalidObjectError{Class: className}
				}
				if err := fc.fromForeign(rt, v, w.native.Elem().FieldByIndex(index)); err != nil {
					return &ConversionError{What: "property " + name, Err: err}
				}
				return nil
			},
		})
	}
	return props, nil
}

// buildMethods compiles one invocation thunk per method descriptor.
// Overload groups (descriptors sharing an exposed base name) of size one
// keep the base name; larger groups get mangled names, one per member.
func buildMethods(rt Runtime, cls *describe.Class, mangler Mangler) ([]Method, error) {
	groups := make(map[string]int, len(cls.Methods))
	for _, m := range cls.Methods {
		groups[m.Name]++
	}

	methods := make([]Method, 0, len(cls.Methods))
	for _, m := range cls.Methods {
		name := m.Name
		if groups[m.Name] > 1 {
			name = mangler.Mangle(m.Name, m.Params)
		}
		thunk, err := buildMethodThunk(rt, cls, m, name)
		if err != nil {
			return nil, err
		}
		methods = append(methods, *thunk)
	}

	// Mangling must keep every foreign name distinct.
	seen := make(map[string]bool, len(methods))
	for _, m := range methods {
		if seen[m.Name] {
			return nil, &BuildError{Class: cls.Name, Detail: fmt.Sprintf("duplicate foreign method name %q", m.Name)}
		}
		seen[m.Name] = true
	}
	return methods, nil
}

func buildMethodThunk(rt Runtime, cls *describe.Class, m describe.Method, foreignName string) (*Method, error) {
	argConvs := make([]*conv, len(m.Params))
	for i, p := range m.Params {
		pc, err := compileConv(p)
		if err != nil {
			return nil, &BuildError{
				Class:  cls.Name,
				Detail: fmt.Sprintf("method %s parameter %d", m.GoName, i),
				Err:    err,
			}
		}
		argConvs[i] = pc
	}

	var retConv *conv
	if m.Return != nil {
		rc, err := compileConv(m.Return)
		if err != nil {
			return nil, &BuildError{Class: cls.Name, Detail: "method " + m.GoName + " return", Err: err}
		}
		retConv = rc
	}

	fn := m.Func
	returnsErr := m.ReturnsErr
	className := cls.Name
	arity := len(m.Params)

	invoke := func(w *Wrapper, args []Value) (Value, error) {
		if !w.valid() {
			return nil, &InvalidObjectError{Class: className}
		}
		// The arity gate comes first: a wrong count never converts an
		// argument and never touches the native method.
		if len(args) != arity {
			return nil, &ArityError{What: "method " + foreignName, Want: arity, Got: len(args)}
		}

		in := make([]reflect.Value, 1+arity)
		in[0] = w.native
		for i, a := range args {
			pv := reflect.New(argConvs[i].typ)
			if err := argConvs[i].fromForeign(rt, a, pv.Elem()); err != nil {
				return nil, &ConversionError{
					What: fmt.Sprintf("argument %d of %s", i+1, foreignName),
					Err:  err,
				}
			}
			in[1+i] = pv.Elem()
		}

		out := fn.Call(in)

		if returnsErr {
			if errv := out[len(out)-1]; !errv.IsNil() {
				return nil, errv.Interface().(error)
			}
		}
		if retConv == nil {
			return rt.Undefined(), nil
		}
		return retConv.toForeign(rt, out[0])
	}

	return &Method{Name: foreignName, Arity: arity, Invoke: invoke}, nil
}
