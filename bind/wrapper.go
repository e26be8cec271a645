package bind

import (
	"io"
	"reflect"
)

// Wrapper couples a native object pointer, an ownership flag, and the
// foreign handle the runtime's collector uses to reach the finalizer.
//
// Lifecycle: allocate (no native object yet) → constructed (owns=true)
// → collected. Finalize runs exactly once, driven by the runtime's
// collector, never by application code.
type Wrapper struct {
	class     string
	native    reflect.Value // pointer to the native struct; invalid once collected
	owns      bool
	handle    Value
	finalized bool
}

// allocate returns an empty wrapper for the class. Construction is
// deferred until constructor arguments have been resolved.
func allocate(class string) *Wrapper {
	return &Wrapper{class: class}
}

// construct installs the freshly built native object and takes
// ownership of it.
func (w *Wrapper) construct(ptr reflect.Value) {
	w.native = ptr
	w.owns = true
}

// Native returns the wrapped native object as a pointer, or nil when
// the wrapper has been finalized or never constructed.
func (w *Wrapper) Native() any {
	if !w.valid() {
		return nil
	}
	return w.native.Interface()
}

// Handle returns the foreign object handle attached by the runtime.
func (w *Wrapper) Handle() Value { return w.handle }

// SetHandle attaches the foreign object handle. Runtimes call this once
// during construction.
func (w *Wrapper) SetHandle(h Value) { w.handle = h }

// Owns reports whether the wrapper owns its native object.
func (w *Wrapper) Owns() bool { return w.owns }

func (w *Wrapper) valid() bool {
	return !w.finalized && w.native.IsValid() && !w.native.IsNil()
}

// Finalize releases the native object iff the wrapper owns it, then
// invalidates the wrapper. When the native object implements io.Closer
// its Close error is discarded; collectors have nowhere to report it.
// Repeated calls are no-ops.
func (w *Wrapper) Finalize() {
	if w.finalized {
		return
	}
	w.finalized = true
	if w.owns && w.native.IsValid() && !w.native.IsNil() {
		if c, ok := w.native.Interface().(io.Closer); ok {
			_ = c.Close()
		}
	}
	w.native = reflect.Value{}
	w.handle = nil
}
