// Package gen introspects Go packages at build time and generates the
// source that describes and binds their exported structs.
package gen

// PackageModel is the in-memory representation of one scanned package's
// bindable API.
type PackageModel struct {
	ImportPath string
	Name       string // short package name (e.g., "model")
	Classes    []ClassModel
	Enums      []EnumModel

	// ContentHash is the hex SHA-256 over the package's source files,
	// fed into signatures so implementation-only edits are detected.
	ContentHash string
}

// ClassModel represents an exported struct type to bind.
type ClassModel struct {
	Name           string
	Fields         []FieldModel
	ExcludedFields []string      // exported fields whose types cannot be bound
	Methods        []MethodModel // pointer-receiver methods, lexical order
	Constructor    string        // name of the New<Type> function, if any
	Signature      string        // structural signature, same format the registry uses
}

// MethodModel represents one bindable method.
type MethodModel struct {
	Name       string // Go name
	Params     []ParamModel
	ReturnsErr bool
}

// ParamModel represents a parameter or result.
type ParamModel struct {
	Name    string
	TypeStr string // human-readable type (e.g., "float64", "*Body")
}

// FieldModel represents an exported struct field.
type FieldModel struct {
	Name    string
	TypeStr string
	Token   string // classification token used in signatures
}

// EnumModel represents a named integer type and its typed constants.
type EnumModel struct {
	Name      string
	Constants []ConstantModel
}

// ConstantModel is one typed constant of an enum.
type ConstantModel struct {
	Name  string
	Value int64
}
