// Package bind generates foreign-runtime bindings for Go types: given a
// class description from the describe package, it classifies every
// field, parameter and return type, synthesizes property accessors,
// method dispatch thunks and constructor resolution, and installs the
// result into a foreign module through the Runtime contract.
//
// Generation runs once, synchronously, at module-initialization time;
// it either completes or fails with a *BuildError. At call time only
// the compiled converters, the wrapper, and the thunks participate.
package bind

import (
	"github.com/tliron/commonlog"

	"github.com/chazu/prism/describe"
)

// Binder orchestrates binding generation against one runtime. It holds
// the registry of bound classes and the overload mangling strategy.
type Binder struct {
	rt      Runtime
	reg     *Registry
	mangler Mangler
	log     commonlog.Logger
}

// Option configures a Binder.
type Option func(*Binder)

// WithRegistry supplies the signature registry. Callers that share one
// registry across binders get cross-runtime change detection.
func WithRegistry(reg *Registry) Option {
	return func(b *Binder) { b.reg = reg }
}

// WithMangler substitutes the overload disambiguation strategy.
func WithMangler(m Mangler) Option {
	return func(b *Binder) { b.mangler = m }
}

// WithLogger overrides the binder's scoped logger.
func WithLogger(log commonlog.Logger) Option {
	return func(b *Binder) { b.log = log }
}

// New returns a Binder targeting the given runtime.
func New(rt Runtime, opts ...Option) *Binder {
	b := &Binder{
		rt:      rt,
		mangler: suffixMangler{},
		log:     commonlog.GetLogger("prism.bind"),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.reg == nil {
		b.reg = NewRegistry()
	}
	return b
}

// Registry returns the binder's signature registry.
func (b *Binder) Registry() *Registry { return b.reg }

// BindOption configures one BindClass call.
type BindOption func(*bindOptions)

type bindOptions struct {
	contentHash string
}

// WithContentHash attaches an externally computed implementation hash
// to the class's structural signature, so change detection also
// catches method-body-only edits.
func WithContentHash(h string) BindOption {
	return func(o *bindOptions) { o.contentHash = h }
}

// BindClass generates the binding for one class and installs it into
// the foreign module handle (nil means the runtime's global namespace).
// It returns the foreign type handle.
//
// Classes whose field types are themselves bound separately must be
// bound in dependency order by the caller; nested records convert by
// value, so they impose no ordering.
func (b *Binder) BindClass(module Value, cls *describe.Class, opts ...BindOption) (Value, error) {
	var o bindOptions
	for _, opt := range opts {
		opt(&o)
	}

	props, err := buildProperties(b.rt, cls)
	if err != nil {
		return nil, err
	}
	methods, err := buildMethods(b.rt, cls, b.mangler)
	if err != nil {
		return nil, err
	}
	construct, err := buildConstructor(b.rt, cls)
	if err != nil {
		return nil, err
	}

	sig := Signature(cls, o.contentHash)
	if b.reg.IsRegistered(cls.Name) && b.reg.NeedsRegeneration(cls.Name, sig) {
		// Re-registration with a changed shape is legal; wrappers
		// constructed from the previous binding stay alive.
		b.log.Noticef("class %s re-bound with changed signature", cls.Name)
	}

	spec := &ClassSpec{
		Name:       cls.Name,
		Construct:  construct,
		Properties: props,
		Methods:    methods,
		Finalize:   func(w *Wrapper) { w.Finalize() },
	}

	handle, err := b.rt.DefineClass(module, cls.Name, spec)
	if err != nil {
		return nil, &BuildError{Class: cls.Name, Detail: "define class", Err: err}
	}

	b.reg.Register(cls.Name, sig, handle)
	b.log.Debugf("bound class %s (%d properties, %d methods, %d constructors)",
		cls.Name, len(props), len(methods), len(cls.Constructors))
	return handle, nil
}
