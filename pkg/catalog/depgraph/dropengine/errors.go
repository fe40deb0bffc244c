package dropengine

import (
	"github.com/cockroachdb/errors"

	"github.com/coredb-io/depgraph/pkg/catalog/depgraph/errcode"
)

// Sentinel errors for spec §7's named failure modes. Callers match
// them with errors.Is; every error this package returns is wrapped
// around exactly one of these (aside from errors passed straight
// through from Store/ClassRegistry/Describer collaborators).
// ErrDependentObjectsExist is built with errcode.Newf, so it carries
// the SQLSTATE errcode maps DependentObjectsStillExist to as a safe
// detail; every other sentinel here has no PostgreSQL SQLSTATE
// equivalent and so carries none.
var (
	// ErrDependentObjectsExist is raised at a RESTRICT violation
	// surfaced at the outermost call, when a PIN edge blocks a drop at
	// any step, or when INTERNAL redirection is hit with no caller.
	ErrDependentObjectsExist = errcode.Newf(errcode.DependentObjectsStillExist, "dropengine: dependent objects still exist")
	// ErrMultipleInternal marks a dependent with more than one
	// outgoing INTERNAL edge — a corruption of invariant 2.
	ErrMultipleInternal = errors.New("dropengine: more than one internal dependency")
	// ErrIncorrectPinUse marks a PIN edge found as an outgoing edge —
	// PIN edges may only appear incoming, per invariant 1.
	ErrIncorrectPinUse = errors.New("dropengine: pin edge used as an outgoing dependency")
	// ErrUnrecognizedDependencyType is a forward-compatibility guard
	// against a DependencyType this engine does not know the policy
	// for.
	ErrUnrecognizedDependencyType = errors.New("dropengine: unrecognized dependency type")
	// ErrUnrecognizedObjectClass marks a ClassRegistry lookup failure.
	ErrUnrecognizedObjectClass = errors.New("dropengine: unrecognized object class")
	// ErrCacheLookupFailed marks a Descriptor or ClassRegistry failure
	// to resolve an address to a description.
	ErrCacheLookupFailed = errors.New("dropengine: cache lookup failed")
)
