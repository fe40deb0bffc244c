package exprdeps

import "github.com/cockroachdb/errors"

// Sentinel errors for the failure modes spec §4.3/§7 calls out by
// name. Callers match them with errors.Is; Scan wraps one of these for
// the malformed-input cases below. Other failures (an unregistered
// object class, a RegChecker error, an unrecognized node kind) are
// returned without one of these sentinels.
var (
	// ErrInvalidVarLevel is returned when a Var's VarLevelsUp selects a
	// scope the Stack doesn't have.
	ErrInvalidVarLevel = errors.New("exprdeps: invalid var level")
	// ErrInvalidVarNo is returned when a Var's VarNo falls outside its
	// resolved scope's range table.
	ErrInvalidVarNo = errors.New("exprdeps: invalid var number")
	// ErrInvalidAttrNo is returned when a Var's AttNo selects a column
	// a join or function RTE does not have.
	ErrInvalidAttrNo = errors.New("exprdeps: invalid attribute number")
	// ErrUnsupported is returned for node kinds the scanner is handed
	// but must refuse to walk, e.g. an already-planned subplan.
	ErrUnsupported = errors.New("exprdeps: unsupported node kind")
)
