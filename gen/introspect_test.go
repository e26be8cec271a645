package gen

import (
	"os"
	"path/filepath"
	"testing"
)

const modelSource = `package model

type Color int

const (
	Red Color = iota
	Green
	Blue
)

type Vec struct {
	X, Y float64
}

type Body struct {
	Name string
	Pos  Vec
	Tags []string
	M    map[string]int
}

func NewBody(name string) *Body { return &Body{Name: name} }

func (b *Body) MoveTo(v Vec)     { b.Pos = v }
func (b *Body) Describe() string { return b.Name }
func (b *Body) Attach(ch chan int) {}
`

// writeTestModule lays out a throwaway module with one package so the
// loader has something real to chew on.
func writeTestModule(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module example.com/m\n\ngo 1.21\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "model"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "model", "model.go"), []byte(modelSource), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestIntrospectPackages(t *testing.T) {
	dir := writeTestModule(t)

	models, err := IntrospectPackages(dir, []string{"./..."}, nil)
	if err != nil {
		t.Fatalf("IntrospectPackages: %v", err)
	}
	if len(models) != 1 {
		t.Fatalf("expected 1 package, got %d", len(models))
	}

	model := models[0]
	if model.ImportPath != "example.com/m/model" {
		t.Errorf("import path = %q", model.ImportPath)
	}
	if model.Name != "model" {
		t.Errorf("package name = %q", model.Name)
	}
	if len(model.ContentHash) != 64 {
		t.Errorf("content hash = %q, want 64 hex chars", model.ContentHash)
	}

	if len(model.Classes) != 2 {
		t.Fatalf("expected 2 classes, got %d", len(model.Classes))
	}

	var body *ClassModel
	for i := range model.Classes {
		if model.Classes[i].Name == "Body" {
			body = &model.Classes[i]
		}
	}
	if body == nil {
		t.Fatal("Body class not found")
	}

	// Fields in declaration order, the map field excluded.
	wantFields := []struct{ name, token string }{
		{"Name", "string"},
		{"Pos", "vec"},
		{"Tags", "string_list"},
	}
	if len(body.Fields) != len(wantFields) {
		t.Fatalf("Body fields = %+v", body.Fields)
	}
	for i, w := range wantFields {
		if body.Fields[i].Name != w.name || body.Fields[i].Token != w.token {
			t.Errorf("field %d = %s:%s, want %s:%s",
				i, body.Fields[i].Name, body.Fields[i].Token, w.name, w.token)
		}
	}
	if len(body.ExcludedFields) != 1 || body.ExcludedFields[0] != "M" {
		t.Errorf("excluded fields = %v, want [M]", body.ExcludedFields)
	}

	// The channel-taking method is skipped; the rest keep lexical order.
	if len(body.Methods) != 2 || body.Methods[0].Name != "Describe" || body.Methods[1].Name != "MoveTo" {
		t.Errorf("Body methods = %+v", body.Methods)
	}
	if body.Constructor != "NewBody" {
		t.Errorf("constructor = %q, want NewBody", body.Constructor)
	}

	wantSig := "class:Body|fields:Name:string,Pos:vec,Tags:string_list|methods:describe,moveTo"
	if body.Signature != wantSig {
		t.Errorf("signature = %q, want %q", body.Signature, wantSig)
	}
	if full := model.FullSignature(*body); full != "hash:"+model.ContentHash+"|"+wantSig {
		t.Errorf("full signature = %q", full)
	}

	if len(model.Enums) != 1 {
		t.Fatalf("expected 1 enum, got %d", len(model.Enums))
	}
	em := model.Enums[0]
	if em.Name != "Color" || len(em.Constants) != 3 {
		t.Fatalf("enum = %+v", em)
	}
	if em.Constants[0].Name != "Red" || em.Constants[0].Value != 0 {
		t.Errorf("first constant = %+v, want Red=0", em.Constants[0])
	}
	if em.Constants[2].Name != "Blue" || em.Constants[2].Value != 2 {
		t.Errorf("last constant = %+v, want Blue=2", em.Constants[2])
	}
}

func TestIntrospectPackagesFilter(t *testing.T) {
	dir := writeTestModule(t)

	only := func(name string) bool { return name == "Vec" }
	models, err := IntrospectPackages(dir, []string{"./..."}, only)
	if err != nil {
		t.Fatalf("IntrospectPackages: %v", err)
	}
	if len(models) != 1 {
		t.Fatalf("expected 1 package, got %d", len(models))
	}
	if len(models[0].Classes) != 1 || models[0].Classes[0].Name != "Vec" {
		t.Errorf("classes = %+v, want just Vec", models[0].Classes)
	}
	if len(models[0].Enums) != 0 {
		t.Errorf("enums = %+v, want none", models[0].Enums)
	}
}

func TestContentHashTracksSource(t *testing.T) {
	dir := writeTestModule(t)

	before, err := IntrospectPackages(dir, []string{"./..."}, nil)
	if err != nil {
		t.Fatalf("IntrospectPackages: %v", err)
	}

	// An implementation-only edit changes the hash but not the signature.
	edited := modelSource + "\nfunc (b *Body) note() {}\n"
	if err := os.WriteFile(filepath.Join(dir, "model", "model.go"), []byte(edited), 0o644); err != nil {
		t.Fatal(err)
	}
	after, err := IntrospectPackages(dir, []string{"./..."}, nil)
	if err != nil {
		t.Fatalf("IntrospectPackages: %v", err)
	}

	if before[0].ContentHash == after[0].ContentHash {
		t.Error("content hash unchanged after source edit")
	}
	if before[0].Classes[0].Signature != after[0].Classes[0].Signature {
		t.Error("structural signature changed by body-only edit")
	}
}
