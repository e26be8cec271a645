package bind

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/fxamacker/cbor/v2"

	"github.com/chazu/prism/describe"
)

// ClassMetadata is one registry entry: a bound class's name, its
// structural signature, the signature hash, and the foreign type handle
// installed at registration.
type ClassMetadata struct {
	Name      string
	Signature string
	Hash      string // hex-encoded SHA-256
	Handle    Value
}

// Registry is the catalogue of bound classes and their structural
// signatures, used for change detection. It is an explicitly
// constructed object the embedding application owns and threads through
// the orchestrator — there is no hidden process-global instance.
//
// Registration happens during single-threaded module initialization;
// per-call thunks never touch the registry, so it carries no locking.
type Registry struct {
	classes map[string]*ClassMetadata
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{classes: make(map[string]*ClassMetadata)}
}

// Register upserts the entry for name, computing and storing the
// signature hash.
func (r *Registry) Register(name, signature string, handle Value) {
	r.classes[name] = &ClassMetadata{
		Name:      name,
		Signature: signature,
		Hash:      hashSignature(name, signature),
		Handle:    handle,
	}
}

// Get returns the metadata for a registered class.
func (r *Registry) Get(name string) (*ClassMetadata, bool) {
	m, ok := r.classes[name]
	return m, ok
}

// IsRegistered reports whether name has been bound.
func (r *Registry) IsRegistered(name string) bool {
	_, ok := r.classes[name]
	return ok
}

// Len returns the number of registered classes.
func (r *Registry) Len() int { return len(r.classes) }

// NeedsRegeneration reports whether the stored signature for name
// differs from newSignature. An unregistered name always needs
// generation.
//
// This is a best-effort, conservative detector: structural signatures
// cannot see method-body changes. Callers that need to catch
// implementation-only changes supply a content hash to Signature.
func (r *Registry) NeedsRegeneration(name, newSignature string) bool {
	m, ok := r.classes[name]
	if !ok {
		return true
	}
	return m.Signature != newSignature
}

// signatureRecord is the canonical form fed to the hash. CBOR canonical
// mode gives a deterministic byte encoding, so hashes are stable across
// runs and platforms.
type signatureRecord struct {
	Class     string `cbor:"1,keyasint"`
	Signature string `cbor:"2,keyasint"`
}

var sigEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("bind: failed to create CBOR enc mode: %v", err))
	}
	sigEncMode = em
}

func hashSignature(name, signature string) string {
	data, err := sigEncMode.Marshal(signatureRecord{Class: name, Signature: signature})
	if err != nil {
		// Two strings always encode; a failure here is a bug.
		panic(fmt.Sprintf("bind: encode signature record: %v", err))
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Signature builds the structural signature string for a class
// descriptor: the class name, each field's type token and name in
// declaration order, and each method's exposed base name (grouped, not
// parameter-typed). contentHash, when non-empty, is an externally
// supplied hash of the class's implementation, prefixed to catch
// implementation-only changes that structure cannot see.
func Signature(cls *describe.Class, contentHash string) string {
	var b strings.Builder
	if contentHash != "" {
		b.WriteString("hash:")
		b.WriteString(contentHash)
		b.WriteString("|")
	}
	b.WriteString("class:")
	b.WriteString(cls.Name)

	b.WriteString("|fields:")
	for i, f := range cls.Fields {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(f.Name)
		b.WriteString(":")
		b.WriteString(typeToken(f.GoType))
	}

	b.WriteString("|methods:")
	last := ""
	first := true
	for _, m := range cls.Methods {
		if m.Name == last {
			continue // grouped: one entry per overload group
		}
		if !first {
			b.WriteString(",")
		}
		b.WriteString(m.Name)
		last = m.Name
		first = false
	}
	return b.String()
}
