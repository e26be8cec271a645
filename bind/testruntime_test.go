package bind

// testRuntime is a minimal in-process runtime used by the package
// tests. It represents foreign values with plain Go values plus two
// sentinels, keeps defined classes inspectable, and makes collection an
// explicit, assertable step.

type testNull struct{}
type testUndefined struct{}

// testObject preserves field order, like a real structured value.
type testObject struct {
	names  []string
	values map[string]Value
}

func newTestObject(fields map[string]Value, order ...string) *testObject {
	o := &testObject{values: make(map[string]Value)}
	for _, n := range order {
		o.names = append(o.names, n)
		o.values[n] = fields[n]
	}
	return o
}

type testClass struct {
	spec   *ClassSpec
	handle Value
}

type testRuntime struct {
	classes map[string]*testClass
	live    []*Wrapper
}

func newTestRuntime() *testRuntime {
	return &testRuntime{classes: make(map[string]*testClass)}
}

func (rt *testRuntime) NewNumber(f float64) Value { return f }
func (rt *testRuntime) NewInteger(i int64) Value  { return i }
func (rt *testRuntime) NewBool(b bool) Value      { return b }
func (rt *testRuntime) NewString(s string) Value  { return s }
func (rt *testRuntime) NewArray(e []Value) Value  { return e }
func (rt *testRuntime) Null() Value               { return testNull{} }
func (rt *testRuntime) Undefined() Value          { return testUndefined{} }

func (rt *testRuntime) NewObject(fields []ObjectField) Value {
	o := &testObject{values: make(map[string]Value, len(fields))}
	for _, f := range fields {
		o.names = append(o.names, f.Name)
		o.values[f.Name] = f.Value
	}
	return o
}

func (rt *testRuntime) AsNumber(v Value) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func (rt *testRuntime) AsInteger(v Value) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true
		}
	}
	return 0, false
}

func (rt *testRuntime) AsBool(v Value) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

func (rt *testRuntime) AsString(v Value) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func (rt *testRuntime) AsArray(v Value) ([]Value, bool) {
	a, ok := v.([]Value)
	return a, ok
}

func (rt *testRuntime) ObjectField(v Value, name string) (Value, bool) {
	o, ok := v.(*testObject)
	if !ok {
		return nil, false
	}
	f, ok := o.values[name]
	return f, ok
}

func (rt *testRuntime) IsNull(v Value) bool {
	_, ok := v.(testNull)
	return ok
}

func (rt *testRuntime) IsUndefined(v Value) bool {
	_, ok := v.(testUndefined)
	return ok
}

func (rt *testRuntime) DefineClass(module Value, name string, spec *ClassSpec) (Value, error) {
	tc := &testClass{spec: spec, handle: "type:" + name}
	rt.classes[name] = tc
	return tc.handle, nil
}

// construct drives the class's constructor the way an engine would,
// tracking the wrapper for later collection.
func (rt *testRuntime) construct(name string, args ...Value) (*Wrapper, error) {
	tc := rt.classes[name]
	w, err := tc.spec.Construct(args)
	if err != nil {
		return nil, err
	}
	w.SetHandle(tc.handle)
	rt.live = append(rt.live, w)
	return w, nil
}

// collect plays the garbage collector: it finalizes every live wrapper.
func (rt *testRuntime) collect(name string) {
	tc := rt.classes[name]
	for _, w := range rt.live {
		tc.spec.Finalize(w)
	}
	rt.live = nil
}

func (rt *testRuntime) method(name, method string) *Method {
	tc := rt.classes[name]
	if tc == nil {
		return nil
	}
	for i := range tc.spec.Methods {
		if tc.spec.Methods[i].Name == method {
			return &tc.spec.Methods[i]
		}
	}
	return nil
}

func (rt *testRuntime) property(name, prop string) *Property {
	tc := rt.classes[name]
	if tc == nil {
		return nil
	}
	for i := range tc.spec.Properties {
		if tc.spec.Properties[i].Name == prop {
			return &tc.spec.Properties[i]
		}
	}
	return nil
}
