package exprdeps

// Node is the closed set of expression-tree node kinds the scanner
// knows how to walk, grounded on spec §4.3's discovery table. Like
// CockroachDB's sem/tree.Expr, it is a marker interface implemented
// only by the node types declared in this file; an embedding catalog
// builds one of these trees from its own parsed AST before handing it
// to Scan.
type Node interface {
	exprdepsNode()
}

// Var is a reference to a range-table column: spec's "Var" row.
type Var struct {
	// VarLevelsUp selects a RangeTable from the enclosing Stack: 0 is
	// the current query scope, 1 the immediately enclosing one, etc.
	VarLevelsUp int
	// VarNo is the 1-based index into that scope's RangeTable.
	VarNo int
	// AttNo is the 1-based column number; 0 denotes a whole-row
	// reference, which carries no dependency per spec's table.
	AttNo int
}

func (Var) exprdepsNode() {}

// Const is a literal value, typed by ConstType. If non-null and
// ConstType names one of the reg* pseudo-types, ConstValue is checked
// for existence in the corresponding class before a reference to it
// is recorded (spec's Const row).
type Const struct {
	ConstType  int64
	ConstIsNull bool
	ConstValue int64
}

func (Const) exprdepsNode() {}

// RegKind names which reg* pseudo-type a Const's ConstType is, if
// any, determining which class ConstValue is checked against.
type RegKind int

const (
	NotReg RegKind = iota
	RegProc
	RegProcedure
	RegOper
	RegOperator
	RegClass
	RegType
)

// Param is a parameter reference, typed by ParamType.
type Param struct {
	ParamType int64
}

func (Param) exprdepsNode() {}

// FuncExpr is a function call.
type FuncExpr struct {
	FuncID int64
	Args   []Node
}

func (FuncExpr) exprdepsNode() {}

// opLike is implemented by the four operator-call node kinds that
// share identical discovery policy: append (Operator, opno, 0), then
// descend into Args.
type opLike interface {
	Node
	opNo() int64
	opArgs() []Node
}

// OpExpr is a binary or unary operator call.
type OpExpr struct {
	OpNo int64
	Args []Node
}

func (OpExpr) exprdepsNode()       {}
func (e OpExpr) opNo() int64       { return e.OpNo }
func (e OpExpr) opArgs() []Node    { return e.Args }

// DistinctExpr is an "IS DISTINCT FROM" comparison.
type DistinctExpr struct {
	OpNo int64
	Args []Node
}

func (DistinctExpr) exprdepsNode() {}
func (e DistinctExpr) opNo() int64 { return e.OpNo }
func (e DistinctExpr) opArgs() []Node {
	return e.Args
}

// ScalarArrayOpExpr is "scalar op ANY/ALL (array)".
type ScalarArrayOpExpr struct {
	OpNo int64
	Args []Node
}

func (ScalarArrayOpExpr) exprdepsNode() {}
func (e ScalarArrayOpExpr) opNo() int64 { return e.OpNo }
func (e ScalarArrayOpExpr) opArgs() []Node {
	return e.Args
}

// NullIfExpr is "NULLIF(a, b)".
type NullIfExpr struct {
	OpNo int64
	Args []Node
}

func (NullIfExpr) exprdepsNode() {}
func (e NullIfExpr) opNo() int64 { return e.OpNo }
func (e NullIfExpr) opArgs() []Node {
	return e.Args
}

// fnLike is implemented by Aggref and WindowRef, which share a
// discovery policy identical to FuncExpr's but are kept as distinct
// node kinds to match spec's table.
type fnLike interface {
	Node
	fnOid() int64
	fnArgs() []Node
}

// Aggref is an aggregate function call.
type Aggref struct {
	FnOid int64
	Args  []Node
}

func (Aggref) exprdepsNode()  {}
func (a Aggref) fnOid() int64 { return a.FnOid }
func (a Aggref) fnArgs() []Node {
	return a.Args
}

// WindowRef is a window function call.
type WindowRef struct {
	FnOid int64
	Args  []Node
}

func (WindowRef) exprdepsNode() {}
func (w WindowRef) fnOid() int64 { return w.FnOid }
func (w WindowRef) fnArgs() []Node {
	return w.Args
}

// typeOnlyLike is implemented by the three coercion node kinds whose
// discovery policy is exactly "(Type, resulttype, 0)", with no
// further descent — spec's table lists no "descend" for these, unlike
// FuncExpr/OpExpr/RowCompareExpr.
type typeOnlyLike interface {
	Node
	resultType() int64
}

// RelabelType changes an expression's apparent type without a
// representational conversion.
type RelabelType struct {
	ResultType int64
	Arg        Node
}

func (RelabelType) exprdepsNode()    {}
func (r RelabelType) resultType() int64 { return r.ResultType }

// ConvertRowtypeExpr converts between related composite types.
type ConvertRowtypeExpr struct {
	ResultType int64
	Arg        Node
}

func (ConvertRowtypeExpr) exprdepsNode() {}
func (c ConvertRowtypeExpr) resultType() int64 {
	return c.ResultType
}

// CoerceToDomain coerces a value to a domain type.
type CoerceToDomain struct {
	ResultType int64
	Arg        Node
}

func (CoerceToDomain) exprdepsNode() {}
func (c CoerceToDomain) resultType() int64 {
	return c.ResultType
}

// RowExpr is a ROW(...) constructor, typed by its composite row type.
type RowExpr struct {
	RowTypeID int64
	Args      []Node
}

func (RowExpr) exprdepsNode() {}

// RowCompareExpr is a row-wise comparison "(a, b) op (c, d)", which
// may use a distinct operator and opclass per column pair.
type RowCompareExpr struct {
	OpNos     []int64
	OpClasses []int64
	Args      []Node
}

func (RowCompareExpr) exprdepsNode() {}

// RTEKind is the range-table entry kind, per spec §4.3's Query row.
type RTEKind int

const (
	RTERelation RTEKind = iota
	RTEJoin
	RTEFunction
	RTETableFunction
)

// RangeTableEntry is one entry of a query scope's range table.
type RangeTableEntry struct {
	Kind RTEKind

	// RelID is set for RTERelation.
	RelID int64

	// JoinAliasVars is set for RTEJoin: one expression per output
	// column of the join, evaluated at the join's own scope — the same
	// RangeTable the join's RTEJoin entry itself lives in, reached by
	// trimming the stack to that level before recursing.
	JoinAliasVars []Node

	// FuncColTypes is set for RTEFunction/RTETableFunction: the type
	// of each column the function(s) in this RTE produce.
	FuncColTypes []int64
}

// RangeTable is one query scope's list of range-table entries.
type RangeTable []RangeTableEntry

// Query is a subquery node: spec's "Query (subquery)" row. Body holds
// the subquery's own expression nodes (target list items, quals,
// etc.) to be scanned with RTable pushed onto the scope stack.
type Query struct {
	RTable RangeTable
	Body   []Node
}

func (Query) exprdepsNode() {}

// PlannedSubPlan represents an already-planned subplan reached during
// a walk; spec requires this to fail rather than be walked further.
type PlannedSubPlan struct{}

func (PlannedSubPlan) exprdepsNode() {}
