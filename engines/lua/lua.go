// Package lua exposes bound classes to a gopher-lua interpreter.
//
// Each class becomes a table carrying a `new` constructor; instances
// are userdata with a shared type metatable whose __index serves both
// field reads and method lookup, and whose __newindex serves field
// writes. Thunk errors surface through RaiseError.
package lua

import (
	"sync"

	"github.com/tliron/commonlog"
	glua "github.com/yuin/gopher-lua"

	"github.com/chazu/prism/bind"
)

// Engine adapts one Lua state to the binding contract. A single Lua
// state is not safe for concurrent use; neither is the Engine.
type Engine struct {
	state *glua.LState
	log   commonlog.Logger

	mu   sync.Mutex
	live map[*glua.LUserData]*liveWrapper
}

type liveWrapper struct {
	wrapper  *bind.Wrapper
	finalize func(*bind.Wrapper)
}

func New() *Engine {
	return &Engine{
		state: glua.NewState(),
		log:   commonlog.GetLogger("prism.lua"),
		live:  make(map[*glua.LUserData]*liveWrapper),
	}
}

// State returns the underlying Lua state for direct use.
func (e *Engine) State() *glua.LState { return e.state }

// DoString runs a chunk of Lua source.
func (e *Engine) DoString(src string) error {
	return e.state.DoString(src)
}

// Module returns the named global table, creating it when absent.
func (e *Engine) Module(name string) (bind.Value, error) {
	if v := e.state.GetGlobal(name); v != glua.LNil {
		if tbl, ok := v.(*glua.LTable); ok {
			return tbl, nil
		}
	}
	tbl := e.state.NewTable()
	e.state.SetGlobal(name, tbl)
	return tbl, nil
}

// Close finalizes every wrapper still alive and shuts the Lua state
// down. gopher-lua never invokes __gc on userdata, so cleanup of owned
// native objects is tied to engine shutdown rather than the collector.
func (e *Engine) Close() {
	e.mu.Lock()
	pending := e.live
	e.live = make(map[*glua.LUserData]*liveWrapper)
	e.mu.Unlock()

	for _, lw := range pending {
		lw.finalize(lw.wrapper)
	}
	if len(pending) > 0 {
		e.log.Debugf("finalized %d wrappers on close", len(pending))
	}
	e.state.Close()
}

// Release finalizes the wrapper behind one bound instance ahead of
// engine shutdown. Further access through the instance fails with an
// invalid-object error.
func (e *Engine) Release(v bind.Value) {
	ud, ok := v.(*glua.LUserData)
	if !ok {
		return
	}
	e.mu.Lock()
	lw := e.live[ud]
	delete(e.live, ud)
	e.mu.Unlock()
	if lw != nil {
		lw.finalize(lw.wrapper)
	}
}

func (e *Engine) NewNumber(f float64) bind.Value { return glua.LNumber(f) }
func (e *Engine) NewInteger(i int64) bind.Value  { return glua.LNumber(i) }
func (e *Engine) NewBool(b bool) bind.Value      { return glua.LBool(b) }
func (e *Engine) NewString(s string) bind.Value  { return glua.LString(s) }

func (e *Engine) NewArray(elems []bind.Value) bind.Value {
	tbl := e.state.NewTable()
	for i, el := range elems {
		tbl.RawSetInt(i+1, el.(glua.LValue))
	}
	return tbl
}

func (e *Engine) NewObject(fields []bind.ObjectField) bind.Value {
	tbl := e.state.NewTable()
	for _, f := range fields {
		tbl.RawSetString(f.Name, f.Value.(glua.LValue))
	}
	return tbl
}

// Lua has a single nil; both the null and undefined slots of the
// contract map onto it.
func (e *Engine) Null() bind.Value      { return glua.LNil }
func (e *Engine) Undefined() bind.Value { return glua.LNil }

func (e *Engine) AsNumber(v bind.Value) (float64, bool) {
	if n, ok := v.(glua.LNumber); ok {
		return float64(n), true
	}
	return 0, false
}

func (e *Engine) AsInteger(v bind.Value) (int64, bool) {
	n, ok := v.(glua.LNumber)
	if !ok || float64(n) != float64(int64(n)) {
		return 0, false
	}
	return int64(n), true
}

func (e *Engine) AsBool(v bind.Value) (bool, bool) {
	if b, ok := v.(glua.LBool); ok {
		return bool(b), true
	}
	return false, false
}

func (e *Engine) AsString(v bind.Value) (string, bool) {
	if s, ok := v.(glua.LString); ok {
		return string(s), true
	}
	return "", false
}

func (e *Engine) AsArray(v bind.Value) ([]bind.Value, bool) {
	tbl, ok := v.(*glua.LTable)
	if !ok {
		return nil, false
	}
	n := tbl.Len()
	out := make([]bind.Value, n)
	for i := 1; i <= n; i++ {
		out[i-1] = tbl.RawGetInt(i)
	}
	return out, true
}

// ObjectField reports ok for any table. Lua cannot distinguish an
// absent key from one set to nil, so a missing field comes back as
// LNil and fails in the field's own conversion instead of a dedicated
// missing-field check.
func (e *Engine) ObjectField(v bind.Value, name string) (bind.Value, bool) {
	tbl, ok := v.(*glua.LTable)
	if !ok {
		return nil, false
	}
	return tbl.RawGetString(name), true
}

func (e *Engine) IsNull(v bind.Value) bool      { return v == glua.LNil }
func (e *Engine) IsUndefined(v bind.Value) bool { return v == glua.LNil }

// DefineClass installs the class table (with its `new` constructor)
// into the given module table, or as a global when module is nil, and
// returns the class table.
func (e *Engine) DefineClass(module bind.Value, name string, spec *bind.ClassSpec) (bind.Value, error) {
	L := e.state
	mt := L.NewTypeMetatable(name)

	props := make(map[string]bind.Property, len(spec.Properties))
	for _, p := range spec.Properties {
		props[p.Name] = p
	}
	methods := make(map[string]*glua.LFunction, len(spec.Methods))
	for _, m := range spec.Methods {
		m := m
		methods[m.Name] = L.NewFunction(func(L *glua.LState) int {
			ud := L.CheckUserData(1)
			w := wrapperOf(L, ud, name)
			n := L.GetTop()
			args := make([]bind.Value, 0, n-1)
			for i := 2; i <= n; i++ {
				args = append(args, L.Get(i))
			}
			out, err := m.Invoke(w, args)
			if err != nil {
				L.RaiseError("%s", err)
				return 0
			}
			L.Push(out.(glua.LValue))
			return 1
		})
	}

	L.SetField(mt, "__index", L.NewFunction(func(L *glua.LState) int {
		ud := L.CheckUserData(1)
		key := L.CheckString(2)
		if p, ok := props[key]; ok {
			w := wrapperOf(L, ud, name)
			out, err := p.Get(w)
			if err != nil {
				L.RaiseError("%s", err)
				return 0
			}
			L.Push(out.(glua.LValue))
			return 1
		}
		if fn, ok := methods[key]; ok {
			L.Push(fn)
			return 1
		}
		L.Push(glua.LNil)
		return 1
	}))

	L.SetField(mt, "__newindex", L.NewFunction(func(L *glua.LState) int {
		ud := L.CheckUserData(1)
		key := L.CheckString(2)
		p, ok := props[key]
		if !ok {
			L.RaiseError("%s has no field %s", name, key)
			return 0
		}
		w := wrapperOf(L, ud, name)
		if err := p.Set(w, L.Get(3)); err != nil {
			L.RaiseError("%s", err)
		}
		return 0
	}))

	clsTable := L.NewTable()
	clsTable.RawSetString("new", L.NewFunction(func(L *glua.LState) int {
		n := L.GetTop()
		args := make([]bind.Value, 0, n)
		for i := 1; i <= n; i++ {
			args = append(args, L.Get(i))
		}
		w, err := spec.Construct(args)
		if err != nil {
			L.RaiseError("%s", err)
			return 0
		}
		ud := L.NewUserData()
		ud.Value = w
		L.SetMetatable(ud, mt)
		w.SetHandle(ud)
		e.mu.Lock()
		e.live[ud] = &liveWrapper{wrapper: w, finalize: spec.Finalize}
		e.mu.Unlock()
		L.Push(ud)
		return 1
	}))

	if module != nil {
		tbl, ok := module.(*glua.LTable)
		if !ok {
			return nil, &bind.BuildError{Class: name, Detail: "module handle is not a table"}
		}
		tbl.RawSetString(name, clsTable)
	} else {
		L.SetGlobal(name, clsTable)
	}
	return clsTable, nil
}

func wrapperOf(L *glua.LState, ud *glua.LUserData, class string) *bind.Wrapper {
	w, ok := ud.Value.(*bind.Wrapper)
	if !ok {
		L.RaiseError("not a %s instance", class)
		return nil
	}
	return w
}
