package address

// ObjectClass is the closed enumeration of catalog object classes the
// dependency engine knows how to address. It is kept in bijection with
// opaque catalog-class ids by classreg.Registry; nothing in this
// package or in dropengine switches on it without an exhaustive case.
type ObjectClass int

const (
	Class ObjectClass = iota
	Proc
	Type
	Cast
	Constraint
	Conversion
	Default
	Language
	Operator
	OpClass
	Rewrite
	Trigger
	Schema
	Role
	Database
	Tablespace
	Filespace
	Filesystem
	Fdw
	ForeignServer
	UserMapping
	ExtProtocol
	Compression

	numObjectClasses
)

// String renders the class the way diagnostic messages expect, e.g.
// "relation", "function". It does not attempt pluralization or article
// selection; callers composing a full phrase do that themselves.
func (c ObjectClass) String() string {
	switch c {
	case Class:
		return "relation"
	case Proc:
		return "function"
	case Type:
		return "type"
	case Cast:
		return "cast"
	case Constraint:
		return "constraint"
	case Conversion:
		return "conversion"
	case Default:
		return "default value"
	case Language:
		return "language"
	case Operator:
		return "operator"
	case OpClass:
		return "operator class"
	case Rewrite:
		return "rewrite rule"
	case Trigger:
		return "trigger"
	case Schema:
		return "schema"
	case Role:
		return "role"
	case Database:
		return "database"
	case Tablespace:
		return "tablespace"
	case Filespace:
		return "filespace"
	case Filesystem:
		return "filesystem"
	case Fdw:
		return "foreign-data wrapper"
	case ForeignServer:
		return "server"
	case UserMapping:
		return "user mapping"
	case ExtProtocol:
		return "protocol"
	case Compression:
		return "compression method"
	default:
		return "unknown object class"
	}
}

// Valid reports whether c is one of the declared ObjectClass values.
func (c ObjectClass) Valid() bool {
	return c >= Class && c < numObjectClasses
}
