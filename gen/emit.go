package gen

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/chazu/prism/describe"
)

// GenerateRegistration renders the Go source that describes and binds
// every class of one scanned package. The generated file exposes
// Register<Pkg>(b, module) plus a <Pkg>Enums table for the package's
// typed constants.
func GenerateRegistration(model *PackageModel, outPkg string) (string, error) {
	if len(model.Classes) == 0 && len(model.Enums) == 0 {
		return "", fmt.Errorf("nothing to generate for %s", model.ImportPath)
	}

	pascal := toPascal(model.Name)
	var b strings.Builder

	fmt.Fprintf(&b, "// Code generated by prismgen. DO NOT EDIT.\n\n")
	fmt.Fprintf(&b, "package %s\n\n", outPkg)

	// An enums-only file needs no imports: constant names and values
	// are resolved here, not in the generated source.
	if len(model.Classes) > 0 {
		fmt.Fprintf(&b, "import (\n")
		fmt.Fprintf(&b, "\t\"github.com/chazu/prism/bind\"\n")
		fmt.Fprintf(&b, "\t\"github.com/chazu/prism/describe\"\n\n")
		fmt.Fprintf(&b, "\tpkg %q\n", model.ImportPath)
		fmt.Fprintf(&b, ")\n\n")
		fmt.Fprintf(&b, "// Register%s binds every scanned class of %s.\n", pascal, model.ImportPath)
		fmt.Fprintf(&b, "func Register%s(b *bind.Binder, module bind.Value) error {\n", pascal)
		for _, cls := range model.Classes {
			fmt.Fprintf(&b, "\tif err := bind%s%s(b, module); err != nil {\n", pascal, cls.Name)
			fmt.Fprintf(&b, "\t\treturn err\n\t}\n")
		}
		fmt.Fprintf(&b, "\treturn nil\n}\n")

		for _, cls := range model.Classes {
			b.WriteByte('\n')
			emitClass(&b, model, pascal, cls)
		}
	}

	if len(model.Enums) > 0 {
		if len(model.Classes) > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "// %sEnums lists the typed integer constants of %s by enum type.\n",
			pascal, model.ImportPath)
		fmt.Fprintf(&b, "var %sEnums = map[string]map[string]int64{\n", pascal)
		for _, em := range model.Enums {
			fmt.Fprintf(&b, "\t%q: {\n", strings.ToLower(em.Name))
			for _, c := range em.Constants {
				fmt.Fprintf(&b, "\t\t%q: %d,\n", describe.ExposedName(c.Name), c.Value)
			}
			fmt.Fprintf(&b, "\t},\n")
		}
		fmt.Fprintf(&b, "}\n")
	}

	return b.String(), nil
}

func emitClass(b *strings.Builder, model *PackageModel, pascal string, cls ClassModel) {
	fmt.Fprintf(b, "func bind%s%s(b *bind.Binder, module bind.Value) error {\n", pascal, cls.Name)
	fmt.Fprintf(b, "\tcls, err := describe.Describe(pkg.%s{},\n", cls.Name)
	fmt.Fprintf(b, "\t\tdescribe.SkipDeclaredMethods(),\n")
	for _, m := range cls.Methods {
		fmt.Fprintf(b, "\t\tdescribe.WithMethod(%q, (*pkg.%s).%s),\n", m.Name, cls.Name, m.Name)
	}
	if cls.Constructor != "" {
		fmt.Fprintf(b, "\t\tdescribe.WithConstructor(pkg.%s),\n", cls.Constructor)
	}
	if len(cls.ExcludedFields) > 0 {
		quoted := make([]string, len(cls.ExcludedFields))
		for i, f := range cls.ExcludedFields {
			quoted[i] = fmt.Sprintf("%q", f)
		}
		fmt.Fprintf(b, "\t\tdescribe.Exclude(%s),\n", strings.Join(quoted, ", "))
	}
	fmt.Fprintf(b, "\t)\n")
	fmt.Fprintf(b, "\tif err != nil {\n\t\treturn err\n\t}\n")
	fmt.Fprintf(b, "\t_, err = b.BindClass(module, cls, bind.WithContentHash(%q))\n", model.ContentHash)
	fmt.Fprintf(b, "\treturn err\n}\n")
}

// GenerateEngineSetup renders a small helper file wiring the selected
// engine targets to binder construction, so host programs get a
// one-call entry point per runtime.
func GenerateEngineSetup(targets []string, outPkg string) (string, error) {
	var imports, funcs []string
	for _, target := range targets {
		switch target {
		case "js":
			imports = append(imports, "\t\"github.com/chazu/prism/engines/js\"")
			funcs = append(funcs, `// NewJSBinder creates a goja engine and a binder targeting it.
func NewJSBinder(opts ...bind.Option) (*js.Engine, *bind.Binder) {
	e := js.New()
	return e, bind.New(e, opts...)
}`)
		case "lua":
			imports = append(imports, "\t\"github.com/chazu/prism/engines/lua\"")
			funcs = append(funcs, `// NewLuaBinder creates a gopher-lua engine and a binder targeting it.
func NewLuaBinder(opts ...bind.Option) (*lua.Engine, *bind.Binder) {
	e := lua.New()
	return e, bind.New(e, opts...)
}`)
		default:
			return "", fmt.Errorf("unknown engine target %q", target)
		}
	}
	if len(funcs) == 0 {
		return "", fmt.Errorf("no engine targets configured")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "// Code generated by prismgen. DO NOT EDIT.\n\n")
	fmt.Fprintf(&b, "package %s\n\n", outPkg)
	fmt.Fprintf(&b, "import (\n\t\"github.com/chazu/prism/bind\"\n\n%s\n)\n\n", strings.Join(imports, "\n"))
	b.WriteString(strings.Join(funcs, "\n\n"))
	b.WriteByte('\n')
	return b.String(), nil
}

// toPascal converts a package name to PascalCase. Handles hyphenated
// and underscore-separated names.
func toPascal(s string) string {
	if len(s) == 0 {
		return s
	}

	var b strings.Builder
	nextUpper := true
	for _, r := range s {
		if r == '-' || r == '_' {
			nextUpper = true
			continue
		}
		if nextUpper {
			b.WriteRune(unicode.ToUpper(r))
			nextUpper = false
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
