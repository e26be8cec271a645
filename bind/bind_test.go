package bind

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/chazu/prism/describe"
)

func TestBindClassRegistersMetadata(t *testing.T) {
	rt := newTestRuntime()
	cls, err := describe.Describe(point{})
	if err != nil {
		t.Fatalf("Describe(point): %v", err)
	}

	reg := NewRegistry()
	b := New(rt, WithRegistry(reg))
	handle, err := b.BindClass(nil, cls)
	if err != nil {
		t.Fatalf("BindClass: %v", err)
	}
	if handle == nil {
		t.Fatal("BindClass returned a nil type handle")
	}

	m, ok := reg.Get("point")
	if !ok {
		t.Fatal("bound class missing from registry")
	}
	if m.Handle != handle {
		t.Error("registry handle differs from the returned type handle")
	}
	if m.Signature == "" || m.Hash == "" {
		t.Errorf("incomplete metadata: %+v", m)
	}
}

func TestBindClassWithContentHash(t *testing.T) {
	rt := newTestRuntime()
	cls, _ := describe.Describe(point{})

	reg := NewRegistry()
	b := New(rt, WithRegistry(reg))
	if _, err := b.BindClass(nil, cls, WithContentHash("v1")); err != nil {
		t.Fatalf("BindClass: %v", err)
	}

	// An implementation-only change is invisible structurally but the
	// supplied content hash makes the registry notice it.
	if !reg.NeedsRegeneration("point", Signature(cls, "v2")) {
		t.Error("content hash change not detected")
	}
	if reg.NeedsRegeneration("point", Signature(cls, "v1")) {
		t.Error("identical content hash reported as changed")
	}
}

func TestRebindingDoesNotInvalidateWrappers(t *testing.T) {
	rt := newTestRuntime()
	cls, _ := describe.Describe(point{})

	b := New(rt)
	if _, err := b.BindClass(nil, cls); err != nil {
		t.Fatalf("BindClass: %v", err)
	}
	w, err := rt.construct("point")
	if err != nil {
		t.Fatalf("construct: %v", err)
	}

	// Re-register with a changed signature (simulated via content hash).
	if _, err := b.BindClass(nil, cls, WithContentHash("changed")); err != nil {
		t.Fatalf("re-BindClass: %v", err)
	}

	// The wrapper from the first binding still works.
	if err := rt.property("point", "x").Set(w, float64(8)); err != nil {
		t.Fatalf("set x on pre-rebind wrapper: %v", err)
	}
}

func TestCustomMangler(t *testing.T) {
	rt := newTestRuntime()
	cls, err := describe.Describe(printer{},
		describe.SkipDeclaredMethods(),
		describe.WithMethod("Print", printInt),
		describe.WithMethod("Print", printFloat),
	)
	if err != nil {
		t.Fatalf("Describe(printer): %v", err)
	}

	b := New(rt, WithMangler(dollarMangler{}))
	if _, err := b.BindClass(nil, cls); err != nil {
		t.Fatalf("BindClass: %v", err)
	}
	if rt.method("printer", "print$int") == nil || rt.method("printer", "print$float64") == nil {
		t.Error("custom mangler was not consulted")
	}
}

// dollarMangler proves the disambiguation strategy is swappable.
type dollarMangler struct{}

func (dollarMangler) Mangle(base string, params []reflect.Type) string {
	for _, p := range params {
		base = fmt.Sprintf("%s$%s", base, p.Kind())
	}
	return base
}

func TestOneBindingPerClass(t *testing.T) {
	// Binding the same descriptor twice against one registry must stay
	// at one entry: one ClassBinding per distinct native type.
	rt := newTestRuntime()
	cls, _ := describe.Describe(point{})
	b := New(rt)
	b.BindClass(nil, cls)
	b.BindClass(nil, cls)
	if b.Registry().Len() != 1 {
		t.Errorf("registry has %d entries for one class, want 1", b.Registry().Len())
	}
}

func TestBindClassPropagatesDefineError(t *testing.T) {
	rt := &failingRuntime{testRuntime: newTestRuntime()}
	cls, _ := describe.Describe(point{})
	_, err := New(rt).BindClass(nil, cls)
	var be *BuildError
	if !errors.As(err, &be) {
		t.Fatalf("BindClass = %v, want *BuildError", err)
	}
}

type failingRuntime struct {
	*testRuntime
}

func (f *failingRuntime) DefineClass(module Value, name string, spec *ClassSpec) (Value, error) {
	return nil, errors.New("engine refused")
}
