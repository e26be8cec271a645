package gen

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"go/constant"
	"go/types"
	"os"
	"sort"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/chazu/prism/describe"
)

// IntrospectPackages loads Go packages by pattern and returns their API
// models. The included filter, if non-nil, restricts which exported
// type names become classes. Fields and methods whose types cannot be
// bound are skipped rather than failing the whole package; the
// generated describe call excludes them explicitly so the runtime
// signature matches the one computed here.
func IntrospectPackages(dir string, patterns []string, included func(string) bool) ([]*PackageModel, error) {
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedTypes | packages.NeedFiles,
		Dir:  dir,
	}

	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("loading %v: %w", patterns, err)
	}
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("no packages found for %v", patterns)
	}

	var models []*PackageModel
	for _, pkg := range pkgs {
		if len(pkg.Errors) > 0 {
			return nil, fmt.Errorf("package %s: %v", pkg.PkgPath, pkg.Errors)
		}
		if pkg.Types == nil {
			return nil, fmt.Errorf("type information not available for %s", pkg.PkgPath)
		}

		model, err := introspectPackage(pkg, included)
		if err != nil {
			return nil, err
		}
		if len(model.Classes) == 0 && len(model.Enums) == 0 {
			continue
		}
		models = append(models, model)
	}
	return models, nil
}

func introspectPackage(pkg *packages.Package, included func(string) bool) (*PackageModel, error) {
	model := &PackageModel{
		ImportPath: pkg.PkgPath,
		Name:       pkg.Name,
	}

	hash, err := hashFiles(pkg.GoFiles)
	if err != nil {
		return nil, fmt.Errorf("hashing %s: %w", pkg.PkgPath, err)
	}
	model.ContentHash = hash

	scope := pkg.Types.Scope()
	for _, name := range scope.Names() {
		obj := scope.Lookup(name)
		if !obj.Exported() {
			continue
		}
		tn, ok := obj.(*types.TypeName)
		if !ok {
			continue
		}
		if included != nil && !included(name) {
			continue
		}

		named, ok := tn.Type().(*types.Named)
		if !ok {
			continue
		}
		switch named.Underlying().(type) {
		case *types.Struct:
			cm := extractClass(tn, named, scope)
			model.Classes = append(model.Classes, *cm)
		case *types.Basic:
			if em := extractEnum(tn, named, scope); em != nil {
				model.Enums = append(model.Enums, *em)
			}
		}
	}

	return model, nil
}

func extractClass(tn *types.TypeName, named *types.Named, scope *types.Scope) *ClassModel {
	cm := &ClassModel{Name: tn.Name()}

	st := named.Underlying().(*types.Struct)
	var excluded []string
	for i := 0; i < st.NumFields(); i++ {
		f := st.Field(i)
		if !f.Exported() || f.Embedded() {
			continue
		}
		token, err := classifyToken(f.Type())
		if err != nil {
			excluded = append(excluded, f.Name())
			continue
		}
		cm.Fields = append(cm.Fields, FieldModel{
			Name:    f.Name(),
			TypeStr: f.Type().String(),
			Token:   token,
		})
	}
	cm.ExcludedFields = excluded

	// Pointer-receiver methods, directly defined only. types.NewMethodSet
	// reports them sorted by name, which matches the engine's ordering.
	mset := types.NewMethodSet(types.NewPointer(named))
	for i := 0; i < mset.Len(); i++ {
		sel := mset.At(i)
		fn, ok := sel.Obj().(*types.Func)
		if !ok || !fn.Exported() {
			continue
		}
		if sel.Index() != nil && len(sel.Index()) > 1 {
			continue
		}
		mm, ok := extractMethod(fn)
		if !ok {
			continue
		}
		cm.Methods = append(cm.Methods, *mm)
	}

	// Constructor convention: a package function New<Type> returning
	// *Type or (*Type, error).
	if obj := scope.Lookup("New" + tn.Name()); obj != nil {
		if fn, ok := obj.(*types.Func); ok && isConstructorFor(fn, named) {
			cm.Constructor = fn.Name()
		}
	}

	cm.Signature = classSignature(cm)
	return cm
}

// extractMethod validates one method's shape against what the binder
// accepts: a fixed arity with classifiable parameters and at most one
// non-error result.
func extractMethod(fn *types.Func) (*MethodModel, bool) {
	sig := fn.Type().(*types.Signature)
	if sig.Variadic() {
		return nil, false
	}

	mm := &MethodModel{Name: fn.Name()}
	params := sig.Params()
	for i := 0; i < params.Len(); i++ {
		p := params.At(i)
		if _, err := classifyToken(p.Type()); err != nil {
			return nil, false
		}
		mm.Params = append(mm.Params, ParamModel{Name: p.Name(), TypeStr: p.Type().String()})
	}

	results := sig.Results()
	switch results.Len() {
	case 0:
	case 1:
		if isErrorType(results.At(0).Type()) {
			mm.ReturnsErr = true
		} else if _, err := classifyToken(results.At(0).Type()); err != nil {
			return nil, false
		}
	case 2:
		if !isErrorType(results.At(1).Type()) {
			return nil, false
		}
		if _, err := classifyToken(results.At(0).Type()); err != nil {
			return nil, false
		}
		mm.ReturnsErr = true
	default:
		return nil, false
	}
	return mm, true
}

func isConstructorFor(fn *types.Func, named *types.Named) bool {
	sig := fn.Type().(*types.Signature)
	if sig.Variadic() {
		return false
	}
	results := sig.Results()
	if results.Len() < 1 || results.Len() > 2 {
		return false
	}
	ptr, ok := results.At(0).Type().(*types.Pointer)
	if !ok || ptr.Elem() != named {
		return false
	}
	if results.Len() == 2 && !isErrorType(results.At(1).Type()) {
		return false
	}
	for i := 0; i < sig.Params().Len(); i++ {
		if _, err := classifyToken(sig.Params().At(i).Type()); err != nil {
			return false
		}
	}
	return true
}

func extractEnum(tn *types.TypeName, named *types.Named, scope *types.Scope) *EnumModel {
	basic := named.Underlying().(*types.Basic)
	if basic.Info()&types.IsInteger == 0 {
		return nil
	}

	em := &EnumModel{Name: tn.Name()}
	for _, name := range scope.Names() {
		c, ok := scope.Lookup(name).(*types.Const)
		if !ok || !c.Exported() || c.Type() != named.Obj().Type() {
			continue
		}
		v, ok := constant.Int64Val(c.Val())
		if !ok {
			continue
		}
		em.Constants = append(em.Constants, ConstantModel{Name: c.Name(), Value: v})
	}
	if len(em.Constants) == 0 {
		return nil
	}
	sort.Slice(em.Constants, func(i, j int) bool {
		return em.Constants[i].Value < em.Constants[j].Value
	})
	return em
}

// classifyToken maps a Go type onto its signature token, mirroring the
// classification the binding engine performs over reflect at bind time.
func classifyToken(t types.Type) (string, error) {
	switch u := t.(type) {
	case *types.Basic:
		switch {
		case u.Info()&types.IsBoolean != 0,
			u.Info()&types.IsInteger != 0,
			u.Info()&types.IsFloat != 0:
			return basicToken(u), nil
		case u.Info()&types.IsString != 0:
			return "string", nil
		}
		return "", fmt.Errorf("unsupported basic type %s", u)

	case *types.Named:
		under := u.Underlying()
		if b, ok := under.(*types.Basic); ok {
			switch {
			case b.Info()&types.IsString != 0:
				return "string", nil
			case b.Info()&types.IsInteger != 0:
				// Named integer types are enums; the token is the type name.
				return strings.ToLower(u.Obj().Name()), nil
			case b.Info()&types.IsBoolean != 0, b.Info()&types.IsFloat != 0:
				// Named bool and float types stay plain primitives.
				return b.Name(), nil
			}
			return "", fmt.Errorf("unsupported named type %s", u)
		}
		if _, ok := under.(*types.Struct); ok {
			return strings.ToLower(u.Obj().Name()), nil
		}
		if s, ok := under.(*types.Slice); ok {
			return sliceToken(s)
		}
		return "", fmt.Errorf("unsupported named type %s", u)

	case *types.Slice:
		return sliceToken(u)

	case *types.Array:
		elem, err := classifyToken(u.Elem())
		if err != nil {
			return "", err
		}
		return elem + "_list", nil

	case *types.Pointer:
		return classifyToken(u.Elem())

	case *types.Struct:
		return "", fmt.Errorf("anonymous struct types are not bindable")
	}
	return "", fmt.Errorf("unsupported type %s", t)
}

// basicToken renders a basic type the way reflect.Kind prints it, so
// signatures match the runtime side. The byte and rune aliases print
// under their underlying kinds there.
func basicToken(b *types.Basic) string {
	switch b.Kind() {
	case types.Byte:
		return "uint8"
	case types.Rune:
		return "int32"
	}
	return b.Name()
}

func sliceToken(s *types.Slice) (string, error) {
	if b, ok := s.Elem().(*types.Basic); ok && b.Kind() == types.Byte {
		// Byte slices are text, same as the reflect classifier.
		return "string", nil
	}
	elem, err := classifyToken(s.Elem())
	if err != nil {
		return "", err
	}
	return elem + "_list", nil
}

// classSignature renders the structural signature in the exact format
// the runtime registry computes, so cache comparisons line up.
func classSignature(cm *ClassModel) string {
	var b strings.Builder
	b.WriteString("class:")
	b.WriteString(cm.Name)
	b.WriteString("|fields:")
	for i, f := range cm.Fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(f.Name)
		b.WriteByte(':')
		b.WriteString(f.Token)
	}
	b.WriteString("|methods:")
	for i, m := range cm.Methods {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(describe.ExposedName(m.Name))
	}
	return b.String()
}

// FullSignature combines a class's structural signature with the
// package content hash, matching what the runtime registry records
// when the generated code binds with the same hash.
func (p *PackageModel) FullSignature(cm ClassModel) string {
	return "hash:" + p.ContentHash + "|" + cm.Signature
}

// hashFiles computes a hex SHA-256 over the given files' contents in
// sorted path order.
func hashFiles(paths []string) (string, error) {
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	h := sha256.New()
	for _, p := range sorted {
		data, err := os.ReadFile(p)
		if err != nil {
			return "", err
		}
		h.Write(data)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func isErrorType(t types.Type) bool {
	named, ok := t.(*types.Named)
	if !ok {
		return false
	}
	return named.Obj().Name() == "error" && named.Obj().Pkg() == nil
}
