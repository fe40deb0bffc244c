// Package classreg implements the dependency engine's ClassRegistry:
// the closed bijection between address.ObjectClass tags and opaque
// storage-level address.ClassID values, plus destructor dispatch.
// Grounded on CockroachDB's pattern of a closed-enum-keyed dispatch
// table per catalog descriptor kind (c.f. the per-DescriptorType
// switches throughout pkg/sql/catalog) rather than runtime reflection
// or an open plugin registry.
package classreg

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/coredb-io/depgraph/pkg/catalog/depgraph/address"
	"github.com/coredb-io/depgraph/pkg/catalog/depgraph/errcode"
)

// ClassBackend is the per-class collaborator the embedding catalog
// supplies. The engine never touches storage directly; every class
// it knows about is backed by one of these.
type ClassBackend interface {
	// Exists reports whether id names a live row of this class.
	Exists(ctx context.Context, id int64) (bool, error)
	// Drop destroys the object named by a. a.SubID is 0 for a
	// whole-object drop. classreg.Registry.Dispatch passes a through
	// unchanged and does not pick a drop variant; telling a column
	// (sub-object) drop apart from a whole-object drop is up to Drop.
	Drop(ctx context.Context, a address.ObjectAddress) error
}

// unsupportedBackend always fails with Unsupported, used for classes
// the engine must never select as a destructor target in normal flow
// (Role, Database, Tablespace per spec §4.5) and for Compression,
// whose destructor spec §9's open question resolves to explicit
// failure rather than a silent no-op.
type unsupportedBackend struct{ reason string }

func (u unsupportedBackend) Exists(context.Context, int64) (bool, error) {
	return false, errcode.Newf(errcode.Unsupported, "classreg: %s", u.reason)
}

func (u unsupportedBackend) Drop(context.Context, address.ObjectAddress) error {
	return errcode.Newf(errcode.Unsupported, "classreg: %s", u.reason)
}

// Registry is the bijection plus dispatch table, spec §4.5.
type Registry struct {
	toID    map[address.ObjectClass]address.ClassID
	toClass map[address.ClassID]address.ObjectClass
	backend map[address.ObjectClass]ClassBackend
}

// New builds a Registry from an explicit, caller-supplied class-id
// assignment and per-class backends. Classes present in ids but
// absent from backends get an unsupportedBackend stand-in rather than
// a nil entry, so Dispatch never has to nil-check.
func New(ids map[address.ObjectClass]address.ClassID, backends map[address.ObjectClass]ClassBackend) (*Registry, error) {
	r := &Registry{
		toID:    make(map[address.ObjectClass]address.ClassID, len(ids)),
		toClass: make(map[address.ClassID]address.ObjectClass, len(ids)),
		backend: make(map[address.ObjectClass]ClassBackend, len(ids)),
	}
	for class, id := range ids {
		if !class.Valid() {
			return nil, errors.Newf("classreg: unrecognized object class %v", class)
		}
		if existing, ok := r.toClass[id]; ok {
			return nil, errors.Newf("classreg: class id %d already assigned to %v, cannot also assign to %v", id, existing, class)
		}
		r.toID[class] = id
		r.toClass[id] = class
	}
	for class := range ids {
		if b, ok := backends[class]; ok {
			r.backend[class] = b
			continue
		}
		r.backend[class] = unsupportedBackend{reason: "class " + class.String() + " has no destructor backend"}
	}
	// Role/Database/Tablespace are never dropped through this engine
	// (spec §4.5); Compression's destructor is explicitly unimplemented
	// (spec §9's open question, resolved to Unsupported rather than a
	// silent no-op). Both are enforced even if a caller supplied a
	// backend for them, since reaching them here is always a logic
	// error in the embedding catalog.
	for _, class := range []address.ObjectClass{address.Role, address.Database, address.Tablespace} {
		if _, ok := r.toID[class]; ok {
			r.backend[class] = unsupportedBackend{reason: class.String() + " is not dropped through the dependency engine"}
		}
	}
	if _, ok := r.toID[address.Compression]; ok {
		r.backend[address.Compression] = unsupportedBackend{reason: "compression method destructor is not implemented"}
	}
	return r, nil
}

// ClassID implements address.ClassTranslator.
func (r *Registry) ClassID(c address.ObjectClass) (address.ClassID, bool) {
	id, ok := r.toID[c]
	return id, ok
}

// ClassOf is the inverse of ClassID: the ObjectClass bijected with id.
func (r *Registry) ClassOf(id address.ClassID) (address.ObjectClass, bool) {
	c, ok := r.toClass[id]
	return c, ok
}

// Exists reports whether a names a live row, consulting the backend
// registered for class. Used by exprdeps when resolving
// regproc/regclass/regtype/regoper constants (spec §4.3's Const
// rule), and returns UnrecognizedObjectClass-shaped errors for an
// unregistered class so callers can tell "doesn't exist" apart from
// "don't know how to check".
func (r *Registry) Exists(ctx context.Context, class address.ObjectClass, id int64) (bool, error) {
	b, ok := r.backend[class]
	if !ok {
		return false, errors.Newf("classreg: unrecognized object class %v", class)
	}
	return b.Exists(ctx, id)
}

// Dispatch invokes the destructor registered for a's class, spec
// §4.6 Step 3's "ClassRegistry.dispatch_drop(object)".
func (r *Registry) Dispatch(ctx context.Context, a address.ObjectAddress) error {
	class, ok := r.ClassOf(a.ClassID)
	if !ok {
		return errors.Newf("classreg: unrecognized class id %d for %s", a.ClassID, a)
	}
	b, ok := r.backend[class]
	if !ok {
		return errors.Newf("classreg: unrecognized object class %v", class)
	}
	return b.Drop(ctx, a)
}
