// Package exprdeps walks a parsed expression tree and records every
// catalog object it references, implementing spec §4.3's
// recordDependencyOnExpr / recordDependencyOnSingleRelExpr discovery
// rules. Grounded on the same closed-node-kind, explicit-recursion
// shape CockroachDB's sem/tree visitors use (rather than reflection or
// an open node registry), adapted to the specific node kinds and
// reference rules spec.md's table names.
package exprdeps

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/coredb-io/depgraph/pkg/catalog/depgraph/address"
)

// RegChecker resolves whether an object exists in a given class, used
// only to validate non-null reg*-typed Const values before recording
// a reference to them. Typically satisfied by classreg.Registry.
type RegChecker interface {
	Exists(ctx context.Context, class address.ObjectClass, id int64) (bool, error)
}

// Stack is the nested-query-scope context a walk carries: one
// RangeTable per query level, innermost last.
type Stack struct {
	scopes []RangeTable
}

// NewStack builds a Stack whose only scope is the outermost query's
// range table.
func NewStack(outermost RangeTable) *Stack {
	return &Stack{scopes: []RangeTable{outermost}}
}

// Push enters a nested query scope.
func (s *Stack) Push(rt RangeTable) {
	s.scopes = append(s.scopes, rt)
}

// Pop leaves the innermost query scope.
func (s *Stack) Pop() {
	s.scopes = s.scopes[:len(s.scopes)-1]
}

// at resolves levelsUp against the current stack, where 0 is the
// innermost (current) scope.
func (s *Stack) at(levelsUp int) (RangeTable, error) {
	idx := len(s.scopes) - 1 - levelsUp
	if idx < 0 || idx >= len(s.scopes) {
		return nil, errors.Wrapf(ErrInvalidVarLevel, "levelsup=%d stack depth=%d", levelsUp, len(s.scopes))
	}
	return s.scopes[idx], nil
}

// trimmedTo returns a Stack whose top scope is what levelsUp currently
// resolves to, dropping everything inside it. Used only for join alias
// recursion: joinaliasvars are evaluated at the join's own scope (the
// RangeTable its RTEJoin entry lives in), so the recursive scan of
// that expression must see that scope as its own new level-0, exactly
// as find_expr_references_walker's list_copy_tail does for the
// join-alias-var case.
func (s *Stack) trimmedTo(levelsUp int) (*Stack, error) {
	idx := len(s.scopes) - 1 - levelsUp
	if idx < 0 || idx >= len(s.scopes) {
		return nil, errors.Wrapf(ErrInvalidVarLevel, "levelsup=%d stack depth=%d", levelsUp, len(s.scopes))
	}
	return &Stack{scopes: s.scopes[:idx+1]}, nil
}

// ConstRegInfo is supplied alongside a Const to tell Scan whether its
// ConstType names a reg* pseudo-type, and if so which ObjectClass its
// value should be checked against. Catalogs with no reg* types may
// return the zero value (NotReg) for every Const.
type ConstRegInfo func(constType int64) (RegKind, address.ObjectClass)

// Scanner walks Node trees and appends every discovered reference to
// an address.Set.
type Scanner struct {
	reg      RegChecker
	regClass ConstRegInfo
}

// New builds a Scanner. regClass may be nil, in which case no Const is
// treated as reg*-typed. reg may be nil only if regClass is nil or
// never reports a reg* kind; otherwise Scan fails on such a Const.
func New(reg RegChecker, regClass ConstRegInfo) *Scanner {
	return &Scanner{reg: reg, regClass: regClass}
}

// Scan walks node within the scope described by stack, appending every
// reference it discovers to out. translator resolves ObjectClass to
// the address.ClassID values out's entries require.
func (sc *Scanner) Scan(ctx context.Context, node Node, stack *Stack, translator address.ClassTranslator, out *address.Set) error {
	switch n := node.(type) {
	case nil:
		return nil

	case Var:
		return sc.scanVar(ctx, n, stack, translator, out)

	case Const:
		return sc.scanConst(ctx, n, translator, out)

	case Param:
		return out.AppendByClass(translator, address.Type, n.ParamType, 0)

	case FuncExpr:
		if err := out.AppendByClass(translator, address.Proc, n.FuncID, 0); err != nil {
			return err
		}
		return sc.scanAll(ctx, n.Args, stack, translator, out)

	case opLike:
		if err := out.AppendByClass(translator, address.Operator, n.opNo(), 0); err != nil {
			return err
		}
		return sc.scanAll(ctx, n.opArgs(), stack, translator, out)

	case fnLike:
		if err := out.AppendByClass(translator, address.Proc, n.fnOid(), 0); err != nil {
			return err
		}
		return sc.scanAll(ctx, n.fnArgs(), stack, translator, out)

	case typeOnlyLike:
		return out.AppendByClass(translator, address.Type, n.resultType(), 0)

	case RowExpr:
		return out.AppendByClass(translator, address.Type, n.RowTypeID, 0)

	case RowCompareExpr:
		for _, op := range n.OpNos {
			if err := out.AppendByClass(translator, address.Operator, op, 0); err != nil {
				return err
			}
		}
		for _, oc := range n.OpClasses {
			if err := out.AppendByClass(translator, address.OpClass, oc, 0); err != nil {
				return err
			}
		}
		return sc.scanAll(ctx, n.Args, stack, translator, out)

	case Query:
		stack.Push(n.RTable)
		err := sc.scanRangeTable(ctx, n.RTable, translator, out)
		if err == nil {
			err = sc.scanAll(ctx, n.Body, stack, translator, out)
		}
		stack.Pop()
		return err

	case PlannedSubPlan:
		return errors.Wrap(ErrUnsupported, "exprdeps: cannot scan an already-planned subplan")

	default:
		return errors.AssertionFailedf("exprdeps: unrecognized node kind %T", node)
	}
}

func (sc *Scanner) scanAll(ctx context.Context, nodes []Node, stack *Stack, translator address.ClassTranslator, out *address.Set) error {
	for _, n := range nodes {
		if err := sc.Scan(ctx, n, stack, translator, out); err != nil {
			return err
		}
	}
	return nil
}

// scanRangeTable records the membership references a range table
// implies on its own, independent of whether any Var in the query
// actually reads them (spec's Query row: "(Class, relid, 0) for each
// RTERelation entry" and "(Type, t, 0) for each funccoltype" of a
// FUNCTION/TABLEFUNCTION entry). RTEJoin carries no standalone
// reference; it only matters when a Var resolves through it.
func (sc *Scanner) scanRangeTable(_ context.Context, rt RangeTable, translator address.ClassTranslator, out *address.Set) error {
	for _, rte := range rt {
		switch rte.Kind {
		case RTERelation:
			if err := out.AppendByClass(translator, address.Class, rte.RelID, 0); err != nil {
				return err
			}
		case RTEFunction, RTETableFunction:
			for _, t := range rte.FuncColTypes {
				if err := out.AppendByClass(translator, address.Type, t, 0); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (sc *Scanner) scanVar(ctx context.Context, v Var, stack *Stack, translator address.ClassTranslator, out *address.Set) error {
	rt, err := stack.at(v.VarLevelsUp)
	if err != nil {
		return err
	}
	if v.VarNo < 1 || v.VarNo > len(rt) {
		return errors.Wrapf(ErrInvalidVarNo, "varno=%d rangetable len=%d", v.VarNo, len(rt))
	}
	rte := rt[v.VarNo-1]

	switch rte.Kind {
	case RTERelation:
		if v.AttNo == 0 {
			// whole-row reference: no column-level dependency.
			return nil
		}
		return out.AppendByClass(translator, address.Class, rte.RelID, uint32(v.AttNo))

	case RTEJoin:
		if v.AttNo < 1 || v.AttNo > len(rte.JoinAliasVars) {
			return errors.Wrapf(ErrInvalidAttrNo, "attno=%d joinaliasvars len=%d", v.AttNo, len(rte.JoinAliasVars))
		}
		outer, err := stack.trimmedTo(v.VarLevelsUp)
		if err != nil {
			return err
		}
		return sc.Scan(ctx, rte.JoinAliasVars[v.AttNo-1], outer, translator, out)

	case RTEFunction, RTETableFunction:
		if v.AttNo < 1 || v.AttNo > len(rte.FuncColTypes) {
			return errors.Wrapf(ErrInvalidAttrNo, "attno=%d funccoltypes len=%d", v.AttNo, len(rte.FuncColTypes))
		}
		return out.AppendByClass(translator, address.Type, rte.FuncColTypes[v.AttNo-1], 0)

	default:
		return errors.AssertionFailedf("exprdeps: unrecognized range table entry kind %v", rte.Kind)
	}
}

func (sc *Scanner) scanConst(ctx context.Context, c Const, translator address.ClassTranslator, out *address.Set) error {
	if err := out.AppendByClass(translator, address.Type, c.ConstType, 0); err != nil {
		return err
	}
	if c.ConstIsNull || sc.regClass == nil {
		return nil
	}
	kind, class := sc.regClass(c.ConstType)
	if kind == NotReg {
		return nil
	}
	if sc.reg == nil {
		return errors.AssertionFailedf("exprdeps: const declares reg kind %v but no RegChecker was supplied", kind)
	}
	ok, err := sc.reg.Exists(ctx, class, c.ConstValue)
	if err != nil {
		return errors.Wrapf(err, "exprdeps: checking existence of %v %d", class, c.ConstValue)
	}
	if ok {
		return out.AppendByClass(translator, class, c.ConstValue, 0)
	}
	return nil
}
