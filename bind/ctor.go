package bind

import (
	"fmt"
	"reflect"

	"github.com/chazu/prism/describe"
)

// compiledCtor pairs one constructor descriptor with its precompiled
// argument converters.
type compiledCtor struct {
	fn         reflect.Value
	argConvs   []*conv
	returnsErr bool
}

// buildConstructor wires construction for the class.
//
// Zero foreign arguments take the default path: the type's zero value,
// unless the class opted out, in which case only an explicit
// zero-parameter constructor serves it. Non-zero argument counts scan
// the constructors in declaration order and the first arity match wins
// — a documented policy, not an accident of iteration.
func buildConstructor(rt Runtime, cls *describe.Class) (func(args []Value) (*Wrapper, error), error) {
	if cls.NoDefault && len(cls.Constructors) == 0 {
		return nil, &BuildError{
			Class:  cls.Name,
			Detail: "no default construction and no constructors: class cannot be instantiated",
		}
	}

	ctors := make([]compiledCtor, 0, len(cls.Constructors))
	for ci, cd := range cls.Constructors {
		cc := compiledCtor{fn: cd.Func, returnsErr: cd.ReturnsErr}
		for pi, p := range cd.Params {
			pc, err := compileConv(p)
			if err != nil {
				return nil, &BuildError{
					Class:  cls.Name,
					Detail: fmt.Sprintf("constructor %d parameter %d", ci, pi),
					Err:    err,
				}
			}
			cc.argConvs = append(cc.argConvs, pc)
		}
		ctors = append(ctors, cc)
	}

	typ := cls.Type
	name := cls.Name
	noDefault := cls.NoDefault

	return func(args []Value) (*Wrapper, error) {
		w := allocate(name)

		if len(args) == 0 && !noDefault {
			w.construct(reflect.New(typ))
			return w, nil
		}

		for _, cc := range ctors {
			if len(cc.argConvs) != len(args) {
				continue
			}
			in := make([]reflect.Value, len(args))
			for i, a := range args {
				pv := reflect.New(cc.argConvs[i].typ)
				if err := cc.argConvs[i].fromForeign(rt, a, pv.Elem()); err != nil {
					return nil, &ConstructorResolutionError{Class: name, Arity: len(args), Err: err}
				}
				in[i] = pv.Elem()
			}

			out := cc.fn.Call(in)
			if cc.returnsErr {
				if errv := out[1]; !errv.IsNil() {
					return nil, &ConstructorResolutionError{Class: name, Arity: len(args), Err: errv.Interface().(error)}
				}
			}
			ptr := out[0]
			if ptr.IsNil() {
				return nil, &ConstructorResolutionError{Class: name, Arity: len(args), Err: fmt.Errorf("constructor returned nil")}
			}
			w.construct(ptr)
			return w, nil
		}

		return nil, &ConstructorResolutionError{Class: name, Arity: len(args)}
	}, nil
}
