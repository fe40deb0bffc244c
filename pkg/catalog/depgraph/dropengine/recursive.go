package dropengine

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/coredb-io/depgraph/pkg/catalog/depgraph/address"
	"github.com/coredb-io/depgraph/pkg/catalog/depgraph/edge"
)

// recursiveDeletion is spec §4.6's state machine of the same name.
// caller is nil for "no caller" (a direct, top-level drop of object).
func (e *Engine) recursiveDeletion(
	ctx context.Context,
	object address.ObjectAddress,
	behavior Behavior,
	msglevel Severity,
	caller *address.ObjectAddress,
	oktodelete *address.Set,
	alreadyDeleted *address.Set,
) (bool, error) {
	amOwned, owningObject, err := e.severOutgoingEdges(ctx, object, caller)
	if err != nil {
		return false, err
	}
	// Step 1's publish() barrier: subsequent scans (including this same
	// call's Step 2, and any sibling call reached through a cycle) must
	// observe the rows Step 1 just deleted, or cyclic graphs would loop
	// forever re-finding an edge an inner recursion already removed.
	if err := e.store.Publish(ctx); err != nil {
		return false, err
	}

	if amOwned {
		ok := true
		switch {
		case oktodelete.Present(owningObject):
			e.logAt(ctx, Debug2, "drop auto-cascades to %s", e.describeSafe(ctx, owningObject))
		case behavior == Restrict:
			e.logAt(ctx, msglevel, "%s depends on %s", e.describeSafe(ctx, owningObject), e.describeSafe(ctx, object))
			ok = false
		default:
			e.logAt(ctx, msglevel, "drop cascades to %s", e.describeSafe(ctx, owningObject))
		}
		childOK, err := e.recursiveDeletion(ctx, owningObject, behavior, msglevel, &object, oktodelete, alreadyDeleted)
		if err != nil {
			return false, err
		}
		// Steps 2 and 3 for object itself are skipped: the owner's own
		// recursion will reach back here (its Step 2 finds object as an
		// INTERNAL dependent of owningObject) and finish the job.
		return ok && childOK, nil
	}

	ok, err := e.deleteDependentObjects(ctx, object, behavior, msglevel, oktodelete, alreadyDeleted)
	if err != nil {
		return false, err
	}
	if err := e.destroyObject(ctx, object, alreadyDeleted); err != nil {
		return false, err
	}
	return ok, nil
}

// severOutgoingEdges is recursiveDeletion's Step 1.
func (e *Engine) severOutgoingEdges(ctx context.Context, object address.ObjectAddress, caller *address.ObjectAddress) (amOwned bool, owningObject address.ObjectAddress, err error) {
	cur, err := e.store.ScanOutgoing(ctx, object)
	if err != nil {
		return false, address.ObjectAddress{}, err
	}
	defer cur.Close()

	sawInternal := false
	for cur.Next(ctx) {
		ed := cur.Edge()
		switch ed.Type {
		case edge.Normal, edge.Auto:
			if err := cur.DeleteCurrent(ctx); err != nil {
				return false, address.ObjectAddress{}, err
			}

		case edge.Internal:
			other := ed.Referenced
			switch {
			case caller == nil:
				return false, address.ObjectAddress{}, errors.WithHintf(
					errors.Wrapf(ErrDependentObjectsExist, "cannot drop %s because %s requires it", e.describeSafe(ctx, object), e.describeSafe(ctx, other)),
					"you can drop %s instead", e.describeSafe(ctx, other))
			case callerMatches(*caller, other):
				if err := cur.DeleteCurrent(ctx); err != nil {
					return false, address.ObjectAddress{}, err
				}
			default:
				if sawInternal {
					return false, address.ObjectAddress{}, errors.Wrapf(ErrMultipleInternal, "%s", object)
				}
				sawInternal = true
				amOwned = true
				owningObject = other
				// This edge row must survive: the owner's own drop is
				// what eventually recurses back and removes it.
			}

		case edge.Pin:
			return false, address.ObjectAddress{}, errors.Wrapf(ErrIncorrectPinUse, "%s", object)

		default:
			return false, address.ObjectAddress{}, errors.Wrapf(ErrUnrecognizedDependencyType, "%v", ed.Type)
		}
	}
	if err := cur.Err(); err != nil {
		return false, address.ObjectAddress{}, err
	}
	return amOwned, owningObject, nil
}

// callerMatches reports whether other is the object that caller's
// drop is recursing in from: either the exact edge endpoint, or
// caller is other's whole-object super-address (spec's "caller
// matches other").
func callerMatches(caller, other address.ObjectAddress) bool {
	if caller == other {
		return true
	}
	return caller.IsWholeObject() && caller.ClassID == other.ClassID && caller.ObjectID == other.ObjectID
}

// deleteDependentObjects is recursiveDeletion's Step 2.
func (e *Engine) deleteDependentObjects(
	ctx context.Context,
	object address.ObjectAddress,
	behavior Behavior,
	msglevel Severity,
	oktodelete *address.Set,
	alreadyDeleted *address.Set,
) (bool, error) {
	cur, err := e.store.ScanIncoming(ctx, object)
	if err != nil {
		return false, err
	}
	defer cur.Close()

	ok := true
	for cur.Next(ctx) {
		ed := cur.Edge()
		other := ed.Dependent

		switch ed.Type {
		case edge.Pin:
			return false, e.pinError(ctx, object)

		case edge.Normal:
			switch {
			case oktodelete.Present(other):
				e.logAt(ctx, Debug2, "drop auto-cascades to %s", e.describeSafe(ctx, other))
			case behavior == Restrict:
				e.logAt(ctx, msglevel, "%s depends on %s", e.describeSafe(ctx, other), e.describeSafe(ctx, object))
				ok = false
			default:
				e.logAt(ctx, msglevel, "drop cascades to %s", e.describeSafe(ctx, other))
			}
			childOK, err := e.recursiveDeletion(ctx, other, behavior, msglevel, &object, oktodelete, alreadyDeleted)
			if err != nil {
				return false, err
			}
			ok = ok && childOK

		case edge.Auto, edge.Internal:
			e.logAt(ctx, Debug2, "drop auto-cascades to %s", e.describeSafe(ctx, other))
			childOK, err := e.recursiveDeletion(ctx, other, behavior, msglevel, &object, oktodelete, alreadyDeleted)
			if err != nil {
				return false, err
			}
			ok = ok && childOK

		default:
			return false, errors.Wrapf(ErrUnrecognizedDependencyType, "%v", ed.Type)
		}
	}
	if err := cur.Err(); err != nil {
		return false, err
	}
	return ok, nil
}

// destroyObject is recursiveDeletion's Step 3.
func (e *Engine) destroyObject(ctx context.Context, object address.ObjectAddress, alreadyDeleted *address.Set) error {
	if err := e.classes.Dispatch(ctx, object); err != nil {
		return err
	}
	if alreadyDeleted != nil && !alreadyDeleted.Present(object) {
		alreadyDeleted.AppendExact(object)
	}
	if e.cleanup != nil {
		if err := e.cleanup.DeleteComments(ctx, object); err != nil {
			return err
		}
		if object.IsWholeObject() {
			if err := e.cleanup.DeleteSharedDependencyRecords(ctx, object.ClassID, object.ObjectID); err != nil {
				return err
			}
		}
	}
	return e.store.Publish(ctx)
}

// findAutoDeletable is spec §4.6's pre-scan, building the
// order-independence oracle described in spec §9.
func (e *Engine) findAutoDeletable(ctx context.Context, o address.ObjectAddress, s *address.Set, addSelf bool) error {
	if s.Present(o) {
		return nil
	}
	if addSelf {
		s.AppendExact(o)
	}

	cur, err := e.store.ScanIncoming(ctx, o)
	if err != nil {
		return err
	}
	defer cur.Close()

	for cur.Next(ctx) {
		ed := cur.Edge()
		switch ed.Type {
		case edge.Normal:
			// ignored: a NORMAL dependent is never auto-deleted.
		case edge.Auto, edge.Internal:
			if err := e.findAutoDeletable(ctx, ed.Dependent, s, true); err != nil {
				return err
			}
		case edge.Pin:
			return e.pinError(ctx, o)
		default:
			return errors.Wrapf(ErrUnrecognizedDependencyType, "%v", ed.Type)
		}
	}
	return cur.Err()
}
