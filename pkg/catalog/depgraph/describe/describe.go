// Package describe renders human-readable diagnostic phrases for
// ObjectAddress values — spec §4.4's Descriptor component. It never
// mutates catalog state; resolving names may still require catalog
// lookups, so Describer is an interface the embedding catalog
// implements rather than a closed function.
package describe

import (
	"github.com/cockroachdb/redact"

	"github.com/coredb-io/depgraph/pkg/catalog/depgraph/address"
)

// ObjectInfo is everything Describe needs about a single object
// beyond its class, supplied by the embedding catalog through
// Describer.Lookup. Every field is treated as user data and redacted
// by RedactableString.Redact; only the fixed class/kind words Describe
// adds around them are safe.
type ObjectInfo struct {
	// Name is the object's unqualified name, e.g. "foo" for a table,
	// "c" for a column.
	Name string
	// Schema is the qualifying schema name, empty if the object has
	// none (e.g. a database, a role).
	Schema string
	// Visible reports whether Name resolves unambiguously without a
	// schema qualifier in the active search path; when false, Describe
	// qualifies the name with Schema.
	Visible bool
	// OwnerDesc describes the object this one belongs to: for a
	// sub-object (SubID != 0) its whole object, e.g. "view public.v" for
	// a column of that view; for a default, trigger or rule the object
	// it is attached to. Empty when not applicable.
	OwnerDesc string
	// Extra carries class-specific detail, e.g. an access method name
	// for an OpClass. Empty when not applicable.
	Extra string
}

// Describer resolves catalog lookups on behalf of Describe. A
// CacheLookupFailed-class error should be returned (wrapped, not
// swallowed) when an address cannot be resolved; Describe propagates
// it rather than guessing at a description.
type Describer interface {
	Lookup(a address.ObjectAddress, class address.ObjectClass) (ObjectInfo, error)
}

// Describe renders a diagnostic phrase for a, e.g.
// "relation public.foo", "column c of view public.v", "default value
// for column c of table public.foo". class is supplied by the caller
// (normally from classreg.Registry.ClassOf) rather than recomputed
// here, since this package has no dependency on classreg.
func Describe(d Describer, a address.ObjectAddress, class address.ObjectClass) (redact.RedactableString, error) {
	info, err := d.Lookup(a, class)
	if err != nil {
		return "", err
	}
	return describeWithInfo(a, class, info), nil
}

func describeWithInfo(a address.ObjectAddress, class address.ObjectClass, info ObjectInfo) redact.RedactableString {
	var b redact.StringBuilder

	qualified := redact.Sprint(info.Name)
	if !info.Visible && info.Schema != "" {
		qualified = redact.Sprintf("%s.%s", info.Schema, info.Name)
	}

	switch {
	case a.SubID != 0 && class == address.Class:
		b.Printf("column %s of %s", qualified, info.OwnerDesc)
	case a.SubID != 0 && class == address.Constraint:
		b.Printf("constraint %s on %s", qualified, info.OwnerDesc)
	case class == address.Default:
		b.Printf("default value for %s", info.OwnerDesc)
	case class == address.OpClass && info.Extra != "":
		b.Printf("operator class %s for access method %s", qualified, info.Extra)
	case class == address.Operator:
		b.Printf("operator %s", qualified)
	case class == address.Trigger:
		b.Printf("trigger %s on %s", qualified, info.OwnerDesc)
	case class == address.Rewrite:
		b.Printf("rule %s on %s", qualified, info.OwnerDesc)
	default:
		b.Printf("%s %s", redact.SafeString(class.String()), qualified)
	}
	return b.RedactableString()
}
