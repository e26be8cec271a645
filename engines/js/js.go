// Package js exposes bound classes to a goja JavaScript interpreter.
//
// The adapter installs each class as a constructor function whose
// prototype carries accessor properties for fields and ordinary
// functions for method thunks. Thunk errors surface as thrown
// JavaScript errors.
package js

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"sync"

	"github.com/dop251/goja"
	"github.com/tliron/commonlog"

	"github.com/chazu/prism/bind"
)

// Engine adapts one goja VM to the binding contract. An Engine is not
// safe for concurrent script execution; goja itself is single-threaded.
type Engine struct {
	vm  *goja.Runtime
	log commonlog.Logger

	mu   sync.Mutex
	live map[*goja.Object]*liveWrapper
}

type liveWrapper struct {
	wrapper  *bind.Wrapper
	finalize func(*bind.Wrapper)
}

func New() *Engine {
	return &Engine{
		vm:   goja.New(),
		log:  commonlog.GetLogger("prism.js"),
		live: make(map[*goja.Object]*liveWrapper),
	}
}

// VM returns the underlying goja runtime for direct use.
func (e *Engine) VM() *goja.Runtime { return e.vm }

// RunString evaluates JavaScript source and returns the result.
func (e *Engine) RunString(src string) (goja.Value, error) {
	return e.vm.RunString(src)
}

// Module returns the named global namespace object, creating it when
// absent. Classes defined against it become e.g. geometry.Point.
func (e *Engine) Module(name string) (bind.Value, error) {
	global := e.vm.GlobalObject()
	if v := global.Get(name); v != nil {
		if obj, ok := v.(*goja.Object); ok {
			return obj, nil
		}
	}
	obj := e.vm.NewObject()
	if err := global.Set(name, obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// Release finalizes the wrapper behind one bound instance ahead of
// engine shutdown. The instance stays resolvable so later property or
// method access fails with an invalid-object error rather than a
// TypeError.
func (e *Engine) Release(v bind.Value) {
	obj, ok := v.(*goja.Object)
	if !ok {
		return
	}
	e.mu.Lock()
	lw := e.live[obj]
	e.mu.Unlock()
	if lw != nil {
		lw.finalize(lw.wrapper)
	}
}

// Close finalizes every wrapper still alive. goja exposes no
// per-object collection hook, so cleanup of owned native objects is
// tied to engine shutdown rather than the JavaScript collector.
func (e *Engine) Close() {
	e.mu.Lock()
	pending := e.live
	e.live = make(map[*goja.Object]*liveWrapper)
	e.mu.Unlock()

	for _, lw := range pending {
		lw.finalize(lw.wrapper)
	}
	if len(pending) > 0 {
		e.log.Debugf("finalized %d wrappers on close", len(pending))
	}
}

func (e *Engine) NewNumber(f float64) bind.Value { return e.vm.ToValue(f) }
func (e *Engine) NewInteger(i int64) bind.Value  { return e.vm.ToValue(i) }
func (e *Engine) NewBool(b bool) bind.Value      { return e.vm.ToValue(b) }
func (e *Engine) NewString(s string) bind.Value  { return e.vm.ToValue(s) }

func (e *Engine) NewArray(elems []bind.Value) bind.Value {
	items := make([]any, len(elems))
	for i, el := range elems {
		items[i] = el
	}
	return e.vm.NewArray(items...)
}

func (e *Engine) NewObject(fields []bind.ObjectField) bind.Value {
	obj := e.vm.NewObject()
	for _, f := range fields {
		if err := obj.Set(f.Name, f.Value); err != nil {
			panic(e.vm.NewGoError(err))
		}
	}
	return obj
}

func (e *Engine) Null() bind.Value      { return goja.Null() }
func (e *Engine) Undefined() bind.Value { return goja.Undefined() }

func asGoja(v bind.Value) (goja.Value, bool) {
	gv, ok := v.(goja.Value)
	return gv, ok
}

// isNumber reports whether the value is a JavaScript number. goja
// exports integral numbers as int64 and the rest as float64.
func isNumber(gv goja.Value) bool {
	t := gv.ExportType()
	if t == nil {
		return false
	}
	switch t.Kind() {
	case reflect.Int64, reflect.Float64:
		return true
	}
	return false
}

func (e *Engine) AsNumber(v bind.Value) (float64, bool) {
	gv, ok := asGoja(v)
	if !ok || !isNumber(gv) {
		return 0, false
	}
	return gv.ToFloat(), true
}

func (e *Engine) AsInteger(v bind.Value) (int64, bool) {
	gv, ok := asGoja(v)
	if !ok || !isNumber(gv) {
		return 0, false
	}
	f := gv.ToFloat()
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return gv.ToInteger(), true
}

func (e *Engine) AsBool(v bind.Value) (bool, bool) {
	gv, ok := asGoja(v)
	if !ok {
		return false, false
	}
	t := gv.ExportType()
	if t == nil || t.Kind() != reflect.Bool {
		return false, false
	}
	return gv.ToBoolean(), true
}

func (e *Engine) AsString(v bind.Value) (string, bool) {
	gv, ok := asGoja(v)
	if !ok {
		return "", false
	}
	t := gv.ExportType()
	if t == nil || t.Kind() != reflect.String {
		return "", false
	}
	return gv.String(), true
}

func (e *Engine) AsArray(v bind.Value) ([]bind.Value, bool) {
	gv, ok := asGoja(v)
	if !ok || goja.IsNull(gv) || goja.IsUndefined(gv) {
		return nil, false
	}
	obj := gv.ToObject(e.vm)
	if obj == nil || obj.ClassName() != "Array" {
		return nil, false
	}
	n := int(obj.Get("length").ToInteger())
	out := make([]bind.Value, n)
	for i := 0; i < n; i++ {
		out[i] = obj.Get(strconv.Itoa(i))
	}
	return out, true
}

func (e *Engine) ObjectField(v bind.Value, name string) (bind.Value, bool) {
	gv, ok := asGoja(v)
	if !ok || goja.IsNull(gv) || goja.IsUndefined(gv) {
		return nil, false
	}
	obj := gv.ToObject(e.vm)
	fv := obj.Get(name)
	if fv == nil {
		return nil, false
	}
	return fv, true
}

func (e *Engine) IsNull(v bind.Value) bool {
	gv, ok := asGoja(v)
	return ok && goja.IsNull(gv)
}

func (e *Engine) IsUndefined(v bind.Value) bool {
	gv, ok := asGoja(v)
	return ok && goja.IsUndefined(gv)
}

// DefineClass installs a constructor for the class on the given module
// object (the global object when module is nil) and returns it.
func (e *Engine) DefineClass(module bind.Value, name string, spec *bind.ClassSpec) (bind.Value, error) {
	proto := e.vm.NewObject()

	for _, p := range spec.Properties {
		p := p
		getter := e.vm.ToValue(func(call goja.FunctionCall) goja.Value {
			w := e.unwrap(call.This, name)
			out, err := p.Get(w)
			if err != nil {
				panic(e.vm.NewGoError(err))
			}
			return out.(goja.Value)
		})
		setter := e.vm.ToValue(func(call goja.FunctionCall) goja.Value {
			w := e.unwrap(call.This, name)
			if err := p.Set(w, call.Argument(0)); err != nil {
				panic(e.vm.NewGoError(err))
			}
			return goja.Undefined()
		})
		err := proto.DefineAccessorProperty(p.Name, getter, setter, goja.FLAG_FALSE, goja.FLAG_TRUE)
		if err != nil {
			return nil, err
		}
	}

	for _, m := range spec.Methods {
		m := m
		thunk := e.vm.ToValue(func(call goja.FunctionCall) goja.Value {
			w := e.unwrap(call.This, name)
			args := make([]bind.Value, len(call.Arguments))
			for i, a := range call.Arguments {
				args[i] = a
			}
			out, err := m.Invoke(w, args)
			if err != nil {
				panic(e.vm.NewGoError(err))
			}
			return out.(goja.Value)
		})
		if err := proto.Set(m.Name, thunk); err != nil {
			return nil, err
		}
	}

	ctor := e.vm.ToValue(func(call goja.ConstructorCall) *goja.Object {
		args := make([]bind.Value, len(call.Arguments))
		for i, a := range call.Arguments {
			args[i] = a
		}
		w, err := spec.Construct(args)
		if err != nil {
			panic(e.vm.NewGoError(err))
		}
		if err := call.This.SetPrototype(proto); err != nil {
			panic(e.vm.NewGoError(err))
		}
		w.SetHandle(call.This)
		e.mu.Lock()
		e.live[call.This] = &liveWrapper{wrapper: w, finalize: spec.Finalize}
		e.mu.Unlock()
		return nil
	})

	target := e.vm.GlobalObject()
	if module != nil {
		obj, ok := module.(*goja.Object)
		if !ok {
			return nil, fmt.Errorf("js: module handle for %s is not an object", name)
		}
		target = obj
	}
	if err := target.Set(name, ctor); err != nil {
		return nil, err
	}
	return ctor, nil
}

// unwrap recovers the wrapper a bound instance carries, throwing a
// TypeError when this is not an instance of the class.
func (e *Engine) unwrap(this goja.Value, class string) *bind.Wrapper {
	if obj, ok := this.(*goja.Object); ok {
		e.mu.Lock()
		lw := e.live[obj]
		e.mu.Unlock()
		if lw != nil {
			return lw.wrapper
		}
	}
	panic(e.vm.NewTypeError("not a %s instance", class))
}
