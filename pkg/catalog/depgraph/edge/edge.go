// Package edge implements the dependency engine's persistent edge
// table: the DependencyEdge record, the DependencyType policy tags,
// and the EdgeStore interface the drop engine scans and mutates.
package edge

import (
	"context"

	"github.com/coredb-io/depgraph/pkg/catalog/depgraph/address"
)

// DependencyType is the single-character on-disk tag for an edge's
// cascading policy, per spec §6. The literal byte values match the
// bit-exact encoding called out there, so any persistent backend can
// store this type as a single byte/char column.
type DependencyType byte

const (
	// Normal dependents block a RESTRICT drop and cascade under
	// CASCADE.
	Normal DependencyType = 'n'
	// Auto dependents are silently dropped along with the referenced
	// object, regardless of DropBehavior.
	Auto DependencyType = 'a'
	// Internal dependents are an implementation detail of the
	// referenced object; direct drops are redirected to the owner.
	Internal DependencyType = 'i'
	// Pin marks the referenced object as undroppable by users.
	Pin DependencyType = 'p'
)

func (t DependencyType) String() string {
	switch t {
	case Normal:
		return "NORMAL"
	case Auto:
		return "AUTO"
	case Internal:
		return "INTERNAL"
	case Pin:
		return "PIN"
	default:
		return "UNKNOWN"
	}
}

// Valid reports whether t is one of the four declared dependency
// types.
func (t DependencyType) Valid() bool {
	switch t {
	case Normal, Auto, Internal, Pin:
		return true
	default:
		return false
	}
}

// Edge is a single persistent record: spec §3's DependencyEdge.
type Edge struct {
	Dependent  address.ObjectAddress
	Referenced address.ObjectAddress
	Type       DependencyType
}

// Cursor is returned by Store's scan methods. It is consumed one Edge
// at a time; DeleteCurrent removes the row the cursor last yielded,
// and is only valid to call between a successful Next and the next
// Next/Close.
//
// Implementations must support calling DeleteCurrent while iteration
// is still open — the drop engine's Step 1 both reads and deletes
// rows from the same scan (spec §9's "recursive graph traversal with
// mutation"). A Store that cannot offer stable iteration across
// deletes-of-yielded-rows must materialize the scan into a local
// slice before returning the Cursor, as spec §9 prescribes.
type Cursor interface {
	// Next advances the cursor. It returns false at end of scan or on
	// error; callers must check Err after a false return.
	Next(ctx context.Context) bool
	// Edge returns the edge the most recent Next call yielded.
	Edge() Edge
	// DeleteCurrent removes the edge Edge() last returned.
	DeleteCurrent(ctx context.Context) error
	// Err returns the first error encountered during iteration, if
	// any.
	Err() error
	// Close releases resources (e.g. row locks) held by the cursor.
	// It is safe to call Close before exhausting the scan.
	Close()
}

// Store is the persistent edge table interface the drop engine is
// built against; spec §4.2. Both scan methods take a row-level write
// lock on every row they yield (§5). There is no separate unlocked
// scan, so the drop engine's discovery pre-scan takes the same locks.
type Store interface {
	// ScanOutgoing returns edges whose dependent endpoint is a, or,
	// if a is a whole-object address, any sub-object of a. Rows
	// yielded are locked for the lifetime of the cursor.
	ScanOutgoing(ctx context.Context, a address.ObjectAddress) (Cursor, error)
	// ScanIncoming returns edges whose referenced endpoint matches a
	// under the same subsumption rule as ScanOutgoing. Rows yielded
	// are locked for the lifetime of the cursor.
	ScanIncoming(ctx context.Context, a address.ObjectAddress) (Cursor, error)
	// InsertMany writes one edge (dependent, ref, kind) for every ref
	// in refs.
	InsertMany(ctx context.Context, dependent address.ObjectAddress, refs []address.ObjectAddress, kind DependencyType) error
	// Publish is the visibility barrier of spec §5: after it
	// returns, every mutation made earlier in this transaction is
	// visible to subsequent scans on this Store.
	Publish(ctx context.Context) error
}
