package describe

import (
	"fmt"
	"reflect"
	"sort"
)

// Option adjusts how a type is described.
type Option func(*options)

type options struct {
	constructors []any
	extraMethods []extraMethod
	exclude      map[string]bool
	noDefault    bool
	skipMethods  bool
}

type extraMethod struct {
	name string
	fn   any
}

// WithConstructor registers a constructor function for the type. The
// function must return *T or (*T, error). Constructors are kept in
// registration order; that order decides same-arity ambiguity downstream.
func WithConstructor(fn any) Option {
	return func(o *options) { o.constructors = append(o.constructors, fn) }
}

// WithMethod registers a free function as a method under the given Go
// name. The function's first parameter must be *T. Registering two
// functions under one name creates an overload group.
func WithMethod(name string, fn any) Option {
	return func(o *options) {
		o.extraMethods = append(o.extraMethods, extraMethod{name: name, fn: fn})
	}
}

// Exclude skips the named struct fields.
func Exclude(names ...string) Option {
	return func(o *options) {
		if o.exclude == nil {
			o.exclude = make(map[string]bool)
		}
		for _, n := range names {
			o.exclude[n] = true
		}
	}
}

// WithoutDefault marks the type's zero value as unusable, so default
// (zero-argument) construction requires an explicit zero-parameter
// constructor.
func WithoutDefault() Option {
	return func(o *options) { o.noDefault = true }
}

// SkipDeclaredMethods suppresses automatic discovery of the type's own
// method set, leaving only methods registered via WithMethod.
func SkipDeclaredMethods() Option {
	return func(o *options) { o.skipMethods = true }
}

// Describe builds the Class descriptor for the type of instance. The
// instance may be a value or a pointer; only its type is consulted.
// All queries are pure and deterministic: fields come back in
// declaration order, discovered methods in lexical order (the order
// reflect reports), registered methods and constructors in
// registration order.
func Describe(instance any, opts ...Option) (*Class, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	t := reflect.TypeOf(instance)
	if t == nil {
		return nil, fmt.Errorf("describe: nil instance")
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("describe: %s is not a struct type", t)
	}

	cls := &Class{
		Name:      t.Name(),
		Type:      t,
		NoDefault: o.noDefault,
	}
	if cls.Name == "" {
		return nil, fmt.Errorf("describe: anonymous struct types cannot be bound")
	}

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() || f.Anonymous {
			continue
		}
		if o.exclude[f.Name] {
			continue
		}
		cls.Fields = append(cls.Fields, Field{
			Name:   f.Name,
			Index:  f.Index,
			GoType: f.Type,
		})
	}

	if !o.skipMethods {
		pt := reflect.PointerTo(t)
		for i := 0; i < pt.NumMethod(); i++ {
			m := pt.Method(i)
			md, err := methodFromFunc(m.Name, m.Func, pt)
			if err != nil {
				return nil, fmt.Errorf("describe: method %s.%s: %w", t.Name(), m.Name, err)
			}
			cls.Methods = append(cls.Methods, *md)
		}
	}

	for _, em := range o.extraMethods {
		fv := reflect.ValueOf(em.fn)
		if fv.Kind() != reflect.Func {
			return nil, fmt.Errorf("describe: WithMethod(%q): not a function", em.name)
		}
		md, err := methodFromFunc(em.name, fv, reflect.PointerTo(t))
		if err != nil {
			return nil, fmt.Errorf("describe: method %s.%s: %w", t.Name(), em.name, err)
		}
		cls.Methods = append(cls.Methods, *md)
	}

	// Stable grouping: discovered methods are already lexically ordered,
	// registered ones append after them. Sorting by exposed name keeps
	// overload groups contiguous without disturbing registration order
	// inside a group.
	sort.SliceStable(cls.Methods, func(i, j int) bool {
		return cls.Methods[i].Name < cls.Methods[j].Name
	})

	for _, fn := range o.constructors {
		fv := reflect.ValueOf(fn)
		cd, err := constructorFromFunc(fv, reflect.PointerTo(t))
		if err != nil {
			return nil, fmt.Errorf("describe: constructor for %s: %w", t.Name(), err)
		}
		cls.Constructors = append(cls.Constructors, *cd)
	}

	return cls, nil
}

// methodFromFunc validates fn as a method of receiver type pt (first
// parameter *T) and extracts its descriptor.
func methodFromFunc(goName string, fn reflect.Value, pt reflect.Type) (*Method, error) {
	ft := fn.Type()
	if ft.NumIn() == 0 || ft.In(0) != pt {
		return nil, fmt.Errorf("first parameter must be %s", pt)
	}
	if ft.IsVariadic() {
		return nil, fmt.Errorf("variadic methods are not bindable")
	}

	md := &Method{
		Name:   ExposedName(goName),
		GoName: goName,
		Func:   fn,
	}
	for i := 1; i < ft.NumIn(); i++ {
		md.Params = append(md.Params, ft.In(i))
	}

	switch ft.NumOut() {
	case 0:
	case 1:
		if isErrorType(ft.Out(0)) {
			md.ReturnsErr = true
		} else {
			md.Return = ft.Out(0)
		}
	case 2:
		if !isErrorType(ft.Out(1)) {
			return nil, fmt.Errorf("second result must be error, got %s", ft.Out(1))
		}
		md.Return = ft.Out(0)
		md.ReturnsErr = true
	default:
		return nil, fmt.Errorf("too many results (%d)", ft.NumOut())
	}
	return md, nil
}

// constructorFromFunc validates fn as a constructor returning *T or
// (*T, error) and extracts its descriptor.
func constructorFromFunc(fn reflect.Value, pt reflect.Type) (*Constructor, error) {
	if fn.Kind() != reflect.Func {
		return nil, fmt.Errorf("not a function")
	}
	ft := fn.Type()
	if ft.IsVariadic() {
		return nil, fmt.Errorf("variadic constructors are not bindable")
	}

	switch ft.NumOut() {
	case 1:
		if ft.Out(0) != pt {
			return nil, fmt.Errorf("must return %s, got %s", pt, ft.Out(0))
		}
	case 2:
		if ft.Out(0) != pt {
			return nil, fmt.Errorf("must return %s, got %s", pt, ft.Out(0))
		}
		if !isErrorType(ft.Out(1)) {
			return nil, fmt.Errorf("second result must be error, got %s", ft.Out(1))
		}
	default:
		return nil, fmt.Errorf("must return %s or (%s, error)", pt, pt)
	}

	cd := &Constructor{
		Func:       fn,
		ReturnsErr: ft.NumOut() == 2,
	}
	for i := 0; i < ft.NumIn(); i++ {
		cd.Params = append(cd.Params, ft.In(i))
	}
	return cd, nil
}

var errType = reflect.TypeOf((*error)(nil)).Elem()

func isErrorType(t reflect.Type) bool {
	return t == errType
}
