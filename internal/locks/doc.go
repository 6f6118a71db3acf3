// Package locks models the locked-parameter document: the immutable
// reference snapshot a verification run is checked against.
//
// A document groups named entries under categories (geometric_parameters,
// derived_quantities, ...), each entry carrying its value as a decimal
// string plus optional units and provenance metadata. Values are kept as
// decimal strings until the moment of use so that no binary-float
// truncation happens on load.
//
// The document is read-only after parsing. Lookup failures are structured
// LockError values with stable codes; a missing parameter aborts the whole
// run because a verification with nothing to check against is meaningless.
package locks
