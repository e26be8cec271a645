package gen

import (
	"strings"
	"testing"
)

func sampleModel() *PackageModel {
	return &PackageModel{
		ImportPath:  "example.com/m/model",
		Name:        "model",
		ContentHash: "deadbeef",
		Classes: []ClassModel{
			{
				Name: "Body",
				Fields: []FieldModel{
					{Name: "Name", TypeStr: "string", Token: "string"},
				},
				ExcludedFields: []string{"M"},
				Methods: []MethodModel{
					{Name: "Describe"},
					{Name: "MoveTo", Params: []ParamModel{{Name: "v", TypeStr: "Vec"}}},
				},
				Constructor: "NewBody",
				Signature:   "class:Body|fields:Name:string|methods:describe,moveTo",
			},
		},
		Enums: []EnumModel{
			{Name: "Color", Constants: []ConstantModel{
				{Name: "Red", Value: 0},
				{Name: "Green", Value: 1},
			}},
		},
	}
}

func TestGenerateRegistration(t *testing.T) {
	code, err := GenerateRegistration(sampleModel(), "bindings")
	if err != nil {
		t.Fatalf("GenerateRegistration: %v", err)
	}

	for _, want := range []string{
		"// Code generated by prismgen. DO NOT EDIT.",
		"package bindings",
		`pkg "example.com/m/model"`,
		"func RegisterModel(b *bind.Binder, module bind.Value) error",
		"func bindModelBody(b *bind.Binder, module bind.Value) error",
		"describe.Describe(pkg.Body{},",
		"describe.SkipDeclaredMethods(),",
		`describe.WithMethod("Describe", (*pkg.Body).Describe),`,
		`describe.WithMethod("MoveTo", (*pkg.Body).MoveTo),`,
		"describe.WithConstructor(pkg.NewBody),",
		`describe.Exclude("M"),`,
		`bind.WithContentHash("deadbeef")`,
		"var ModelEnums = map[string]map[string]int64{",
		`"color": {`,
		`"red": 0,`,
		`"green": 1,`,
	} {
		if !strings.Contains(code, want) {
			t.Errorf("generated code missing %q", want)
		}
	}
}

func TestGenerateRegistrationEnumsOnly(t *testing.T) {
	model := sampleModel()
	model.Classes = nil

	code, err := GenerateRegistration(model, "bindings")
	if err != nil {
		t.Fatalf("GenerateRegistration: %v", err)
	}
	// A file with only an enum table uses nothing from bind, describe
	// or the scanned package, so importing them would not compile.
	if strings.Contains(code, "import") {
		t.Errorf("enums-only file has an import block:\n%s", code)
	}
	for _, want := range []string{
		"var ModelEnums = map[string]map[string]int64{",
		`"color": {`,
	} {
		if !strings.Contains(code, want) {
			t.Errorf("generated code missing %q", want)
		}
	}
}

func TestGenerateRegistrationEmpty(t *testing.T) {
	if _, err := GenerateRegistration(&PackageModel{ImportPath: "x", Name: "x"}, "bindings"); err == nil {
		t.Error("empty model accepted")
	}
}

func TestGenerateRegistrationNoConstructor(t *testing.T) {
	model := sampleModel()
	model.Classes[0].Constructor = ""
	model.Classes[0].ExcludedFields = nil

	code, err := GenerateRegistration(model, "bindings")
	if err != nil {
		t.Fatalf("GenerateRegistration: %v", err)
	}
	if strings.Contains(code, "WithConstructor") {
		t.Error("constructor emitted for class without one")
	}
	if strings.Contains(code, "describe.Exclude") {
		t.Error("exclude emitted with no excluded fields")
	}
}

func TestGenerateEngineSetup(t *testing.T) {
	code, err := GenerateEngineSetup([]string{"js", "lua"}, "bindings")
	if err != nil {
		t.Fatalf("GenerateEngineSetup: %v", err)
	}
	for _, want := range []string{
		"package bindings",
		`"github.com/chazu/prism/engines/js"`,
		`"github.com/chazu/prism/engines/lua"`,
		"func NewJSBinder(opts ...bind.Option) (*js.Engine, *bind.Binder)",
		"func NewLuaBinder(opts ...bind.Option) (*lua.Engine, *bind.Binder)",
	} {
		if !strings.Contains(code, want) {
			t.Errorf("engine setup missing %q", want)
		}
	}

	if _, err := GenerateEngineSetup([]string{"tcl"}, "bindings"); err == nil {
		t.Error("unknown target accepted")
	}
	if _, err := GenerateEngineSetup(nil, "bindings"); err == nil {
		t.Error("empty target list accepted")
	}
}

func TestToPascal(t *testing.T) {
	cases := []struct{ in, want string }{
		{"model", "Model"},
		{"my-app", "MyApp"},
		{"my_app", "MyApp"},
		{"", ""},
	}
	for _, c := range cases {
		if got := toPascal(c.in); got != c.want {
			t.Errorf("toPascal(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
