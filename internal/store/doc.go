// Package store is the SQLite run ledger.
//
// The ledger records each completed verification run: its token, the
// document it ran against, the verdict, and the per-step outcomes. It is
// reporting glue, not verification core - derived scalars are never
// persisted and nothing in the ledger feeds back into a run. The history
// command reads it.
package store
