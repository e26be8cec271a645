package bind

import (
	"strings"
	"testing"

	"github.com/chazu/prism/describe"
)

func TestRegistryRegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	if r.IsRegistered("Point") {
		t.Error("empty registry claims Point is registered")
	}

	r.Register("Point", "class:Point|fields:X:float64|methods:", "handle")
	m, ok := r.Get("Point")
	if !ok {
		t.Fatal("Get(Point) not found after Register")
	}
	if m.Handle != "handle" {
		t.Errorf("Handle = %v, want handle", m.Handle)
	}
	if m.Hash == "" {
		t.Error("Register did not compute a hash")
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}
}

func TestRegistryUpsert(t *testing.T) {
	r := NewRegistry()
	r.Register("Point", "sig-a", nil)
	first, _ := r.Get("Point")
	r.Register("Point", "sig-b", "h2")
	second, _ := r.Get("Point")

	if r.Len() != 1 {
		t.Errorf("Len = %d after upsert, want 1", r.Len())
	}
	if second.Signature != "sig-b" || second.Handle != "h2" {
		t.Errorf("upsert kept stale entry: %+v", second)
	}
	if first.Hash == second.Hash {
		t.Error("different signatures hashed identically")
	}
}

func TestNeedsRegeneration(t *testing.T) {
	r := NewRegistry()
	if !r.NeedsRegeneration("Point", "sig-a") {
		t.Error("unregistered class does not need generation")
	}
	r.Register("Point", "sig-a", nil)
	if r.NeedsRegeneration("Point", "sig-a") {
		t.Error("unchanged signature triggers regeneration")
	}
	if !r.NeedsRegeneration("Point", "sig-b") {
		t.Error("changed signature does not trigger regeneration")
	}
}

func TestHashIsDeterministic(t *testing.T) {
	a := hashSignature("Point", "sig")
	for i := 0; i < 10; i++ {
		if b := hashSignature("Point", "sig"); b != a {
			t.Fatalf("hash changed between runs: %s vs %s", a, b)
		}
	}
	if hashSignature("Point", "sig") == hashSignature("Point", "gis") {
		t.Error("distinct signatures collide")
	}
}

func TestSignatureFormat(t *testing.T) {
	cls, err := describe.Describe(point{})
	if err != nil {
		t.Fatalf("Describe(point): %v", err)
	}
	sig := Signature(cls, "")
	want := "class:point|fields:X:float64,Y:float64|methods:distanceFromOrigin,translate"
	if sig != want {
		t.Errorf("Signature = %q, want %q", sig, want)
	}
}

func TestSignatureContentHashPrefix(t *testing.T) {
	cls, err := describe.Describe(point{})
	if err != nil {
		t.Fatalf("Describe(point): %v", err)
	}
	sig := Signature(cls, "abc123")
	if !strings.HasPrefix(sig, "hash:abc123|") {
		t.Errorf("Signature = %q, want hash: prefix", sig)
	}
	if Signature(cls, "abc123") == Signature(cls, "def456") {
		t.Error("content hash does not affect the signature")
	}
}

func TestSignatureGroupsOverloads(t *testing.T) {
	cls, err := describe.Describe(printer{},
		describe.SkipDeclaredMethods(),
		describe.WithMethod("Print", printInt),
		describe.WithMethod("Print", printFloat),
	)
	if err != nil {
		t.Fatalf("Describe(printer): %v", err)
	}
	sig := Signature(cls, "")
	if strings.Count(sig, "print") != 1 {
		t.Errorf("Signature = %q, want the overload group listed once", sig)
	}
}

func TestSignatureReflectsFieldOrder(t *testing.T) {
	type ab struct {
		A int
		B int
	}
	type ba struct {
		B int
		A int
	}
	clsAB, _ := describe.Describe(ab{})
	clsBA, _ := describe.Describe(ba{})
	sigAB := strings.TrimPrefix(Signature(clsAB, ""), "class:ab")
	sigBA := strings.TrimPrefix(Signature(clsBA, ""), "class:ba")
	if sigAB == sigBA {
		t.Error("field order is invisible to the signature")
	}
}
