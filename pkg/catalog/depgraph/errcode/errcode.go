// Package errcode carries the short SQLSTATE-like codes the drop
// engine attaches to user-facing errors, the way CockroachDB's
// pgwire/pgcode package tags errors for the wire protocol. Those two
// CockroachDB packages live inside the server binary and are not
// importable from a standalone module, so this package re-implements
// the call shape (Newf/Wrap layered on github.com/cockroachdb/errors,
// attaching the mapped SQLSTATE string as a safe detail) against this
// module's own, much smaller code list.
package errcode

import "github.com/cockroachdb/errors"

// Code is a short, stable token identifying a class of engine error.
// It is not a real SQLSTATE value; it exists purely so callers can
// group/report errors without string-matching messages.
type Code string

const (
	DependentObjectsStillExist Code = "dependent_objects_still_exist"
	Unsupported                Code = "feature_not_supported"
)

// Newf builds a new error with code's SQLSTATE (see pgCode) attached
// as a safe detail; the error text is the formatted message alone.
func Newf(code Code, format string, args ...interface{}) error {
	err := errors.Newf(format, args...)
	return errors.WithSafeDetails(err, string(pgCode(code)))
}

// Wrap attaches code's SQLSTATE to err as a safe detail, leaving any
// detail already carried by a cause untouched.
func Wrap(err error, code Code) error {
	return errors.WithSafeDetails(err, string(pgCode(code)))
}

// pgCode maps our short Code tokens onto the PostgreSQL SQLSTATE
// class they correspond to, for embedders that forward engine errors
// over the wire protocol and need a real code, not just our token.
func pgCode(code Code) string {
	switch code {
	case DependentObjectsStillExist:
		return "2BP01"
	case Unsupported:
		return "0A000"
	default:
		return "XX000"
	}
}
