// Package dropengine implements the dependency engine's cascading
// deletion state machine, spec §4.6 — the component that ties
// address.Set, edge.Store, exprdeps.Scanner, classreg.Registry and
// describe.Describer together into the embedding catalog's drop
// commands. Grounded on the shape of CockroachDB's pkg/sql drop_*.go
// command implementations (a small public entry point that walks a
// descriptor graph, logs at each cascade decision, and defers actual
// row destruction to a registered per-class handler) adapted to the
// recursive, edge-table-driven model spec.md describes rather than
// CockroachDB's own job-based schema-change pipeline.
package dropengine

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/coredb-io/depgraph/pkg/catalog/depgraph/address"
	"github.com/coredb-io/depgraph/pkg/catalog/depgraph/classreg"
	"github.com/coredb-io/depgraph/pkg/catalog/depgraph/describe"
	"github.com/coredb-io/depgraph/pkg/catalog/depgraph/edge"
	"github.com/coredb-io/depgraph/pkg/catalog/depgraph/exprdeps"
	"github.com/coredb-io/depgraph/pkg/catalog/depgraph/logging"
)

// Behavior is spec §6's DropBehavior.
type Behavior int

const (
	// Restrict refuses a drop when any NORMAL incoming edge exists
	// outside the precomputed oktodelete closure.
	Restrict Behavior = iota
	// Cascade recursively deletes every reachable dependent regardless
	// of edge kind (still blocked by PIN).
	Cascade
)

func (b Behavior) String() string {
	if b == Cascade {
		return "CASCADE"
	}
	return "RESTRICT"
}

// Severity is spec §6's diagnostic message severity enumeration.
type Severity int

const (
	Debug2 Severity = iota
	Debug1
	Notice
	errorSeverity
)

// Cleanup is the embedding catalog's hook for the two bookkeeping
// steps spec §4.6 Step 3 performs alongside ClassRegistry.dispatch_drop:
// removing comments and shared-dependency records. Both are catalog
// storage concerns outside EdgeStore's scope (spec §1's "individual
// per-class destructors" out-of-scope boundary extends to these), so
// a nil Cleanup is a valid, silent no-op.
type Cleanup interface {
	DeleteComments(ctx context.Context, a address.ObjectAddress) error
	DeleteSharedDependencyRecords(ctx context.Context, classID address.ClassID, objectID int64) error
}

// Engine is the drop engine, spec §4.6. It holds no per-call state; a
// single Engine is reused across every deletion request in a
// transaction, and is reentrant on the same Store handle (spec §2's
// "destructors may call back into recordDependencyOnExpr").
type Engine struct {
	store     edge.Store
	classes   *classreg.Registry
	describer describe.Describer
	scanner   *exprdeps.Scanner
	cleanup   Cleanup
	log       *logging.Logger

	distributed bool
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithLogger overrides the default, silent-except-NOTICE logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithScanner supplies the exprdeps.Scanner backing
// RecordDependencyOnExpr/RecordDependencyOnSingleRelExpr. Omitting it
// is valid for embedders that only ever call RecordDependencyOn
// directly with pre-resolved addresses.
func WithScanner(s *exprdeps.Scanner) Option {
	return func(e *Engine) { e.scanner = s }
}

// WithCleanup supplies the comment/shared-dependency cleanup hook.
func WithCleanup(c Cleanup) Option {
	return func(e *Engine) { e.cleanup = c }
}

// WithDistributed marks the engine as running under a distributed
// execution role, per spec §6: NOTICE messages are downgraded to
// DEBUG1 in that mode, since a distributed worker has no client
// connection to notify.
func WithDistributed(d bool) Option {
	return func(e *Engine) { e.distributed = d }
}

// New builds an Engine. store, classes and describer are required
// collaborators; every other dependency is optional and supplied via
// Option.
func New(store edge.Store, classes *classreg.Registry, describer describe.Describer, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		classes:   classes,
		describer: describer,
		log:       logging.NewLogger(0),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// PerformDeletion is spec §4.6's performDeletion.
func (e *Engine) PerformDeletion(ctx context.Context, target address.ObjectAddress, behavior Behavior) error {
	oktodelete := address.New()
	if err := e.findAutoDeletable(ctx, target, oktodelete, true); err != nil {
		return err
	}
	ok, err := e.recursiveDeletion(ctx, target, behavior, Notice, nil, oktodelete, nil)
	if err != nil {
		return err
	}
	if !ok {
		return e.restrictViolation(ctx, target)
	}
	return nil
}

// PerformMultipleDeletions is spec §4.6's performMultipleDeletions.
// An AUTO/INTERNAL dependent of one target that is itself also a
// direct target is never dropped twice, since both the implicit
// closure and the per-target drop loop consult the same shared sets.
func (e *Engine) PerformMultipleDeletions(ctx context.Context, targets []address.ObjectAddress, behavior Behavior) error {
	implicit := address.New()
	alreadyDeleted := address.New()

	for _, t := range targets {
		if implicit.Present(t) {
			continue
		}
		if err := e.findAutoDeletable(ctx, t, implicit, false); err != nil {
			return err
		}
	}

	ok := true
	var violated address.ObjectAddress
	for _, t := range targets {
		if alreadyDeleted.Present(t) || implicit.Present(t) {
			continue
		}
		childOK, err := e.recursiveDeletion(ctx, t, behavior, Notice, nil, implicit, alreadyDeleted)
		if err != nil {
			return err
		}
		if !childOK && ok {
			violated = t
		}
		ok = ok && childOK
	}
	if !ok {
		return e.restrictViolation(ctx, violated)
	}
	return nil
}

// DeleteWhatDependsOn is spec §4.6's deleteWhatDependsOn: it drops
// everything reachable from target without dropping target itself.
// target is included in oktodelete so that self-referencing edges are
// silently tolerated rather than reported as violations.
func (e *Engine) DeleteWhatDependsOn(ctx context.Context, target address.ObjectAddress, showNotices bool) error {
	oktodelete := address.New()
	oktodelete.AppendExact(target)
	if err := e.findAutoDeletable(ctx, target, oktodelete, false); err != nil {
		return err
	}
	msglevel := Debug1
	if showNotices {
		msglevel = Notice
	}
	_, err := e.deleteDependentObjects(ctx, target, Cascade, msglevel, oktodelete, nil)
	return err
}

// RecordDependencyOn is the thin edge writer of spec §6.
func (e *Engine) RecordDependencyOn(ctx context.Context, depender address.ObjectAddress, refs []address.ObjectAddress, kind edge.DependencyType) error {
	return e.store.InsertMany(ctx, depender, refs, kind)
}

// RecordDependencyOnExpr walks expr (spec §4.3), dedups the discovered
// references, and records them all with kind kind.
func (e *Engine) RecordDependencyOnExpr(ctx context.Context, depender address.ObjectAddress, expr exprdeps.Node, rtable exprdeps.RangeTable, kind edge.DependencyType) error {
	if e.scanner == nil {
		return errors.AssertionFailedf("dropengine: RecordDependencyOnExpr requires a Scanner, see WithScanner")
	}
	refs := address.New()
	if err := e.scanner.Scan(ctx, expr, exprdeps.NewStack(rtable), e.classes, refs); err != nil {
		return err
	}
	refs.Dedup()
	return e.store.InsertMany(ctx, depender, refs.Items(), kind)
}

// RecordDependencyOnSingleRelExpr is as RecordDependencyOnExpr, but
// partitions the discovered references: those naming relID itself are
// recorded with selfKind, the rest with kind. The synthetic range
// table used for the scan has a single RTERelation entry for relID.
func (e *Engine) RecordDependencyOnSingleRelExpr(ctx context.Context, depender address.ObjectAddress, expr exprdeps.Node, relID int64, kind, selfKind edge.DependencyType) error {
	if e.scanner == nil {
		return errors.AssertionFailedf("dropengine: RecordDependencyOnSingleRelExpr requires a Scanner, see WithScanner")
	}
	rtable := exprdeps.RangeTable{{Kind: exprdeps.RTERelation, RelID: relID}}
	refs := address.New()
	if err := e.scanner.Scan(ctx, expr, exprdeps.NewStack(rtable), e.classes, refs); err != nil {
		return err
	}
	refs.Dedup()

	classID, ok := e.classes.ClassID(address.Class)
	if !ok {
		return errors.Wrap(ErrUnrecognizedObjectClass, "dropengine: Class is not registered with this ClassRegistry")
	}

	var self, rest []address.ObjectAddress
	for _, a := range refs.Items() {
		if a.ClassID == classID && a.ObjectID == relID {
			self = append(self, a)
		} else {
			rest = append(rest, a)
		}
	}
	if len(self) > 0 {
		if err := e.store.InsertMany(ctx, depender, self, selfKind); err != nil {
			return err
		}
	}
	if len(rest) > 0 {
		if err := e.store.InsertMany(ctx, depender, rest, kind); err != nil {
			return err
		}
	}
	return nil
}

// GetObjectClass resolves a's ClassID back to its ObjectClass tag.
func (e *Engine) GetObjectClass(a address.ObjectAddress) (address.ObjectClass, error) {
	class, ok := e.classes.ClassOf(a.ClassID)
	if !ok {
		return 0, errors.Wrapf(ErrUnrecognizedObjectClass, "class id %d", a.ClassID)
	}
	return class, nil
}

// GetObjectDescription renders a's diagnostic phrase via Descriptor.
func (e *Engine) GetObjectDescription(ctx context.Context, a address.ObjectAddress) (string, error) {
	class, err := e.GetObjectClass(a)
	if err != nil {
		return "", err
	}
	s, err := describe.Describe(e.describer, a, class)
	if err != nil {
		return "", errors.Mark(errors.Wrapf(err, "dropengine: describing %s", a), ErrCacheLookupFailed)
	}
	return s.StripMarkers(), nil
}

// describeSafe is used at log sites where a failed lookup must not
// itself abort the drop; it falls back to the raw address.
func (e *Engine) describeSafe(ctx context.Context, a address.ObjectAddress) string {
	s, err := e.GetObjectDescription(ctx, a)
	if err != nil {
		return a.String()
	}
	return s
}

func (e *Engine) restrictViolation(ctx context.Context, target address.ObjectAddress) error {
	desc := e.describeSafe(ctx, target)
	return errors.WithHint(
		errors.Wrapf(ErrDependentObjectsExist, "cannot drop %s because other objects depend on it", desc),
		"use CASCADE to drop the dependent objects too",
	)
}

func (e *Engine) pinError(ctx context.Context, object address.ObjectAddress) error {
	return errors.Wrapf(ErrDependentObjectsExist, "cannot drop %s because it is required by the database system", e.describeSafe(ctx, object))
}

func (e *Engine) logAt(ctx context.Context, sev Severity, format string, args ...interface{}) {
	switch sev {
	case Notice:
		if e.distributed {
			e.log.VEventf(ctx, 1, format, args...)
			return
		}
		e.log.Noticef(ctx, format, args...)
	case Debug1:
		e.log.VEventf(ctx, 1, format, args...)
	case Debug2:
		e.log.VEventf(ctx, 2, format, args...)
	default:
		e.log.VEventf(ctx, 0, format, args...)
	}
}
