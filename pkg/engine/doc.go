// Package engine implements the present/absent reconciliation core: look up
// the existing resource, resolve foreign-key names to identifiers, compute a
// field diff, and issue the create/update/delete calls that converge live
// controller state onto the declared state.
//
// Reconciliation is split into two phases. Plan performs only reads and
// returns the ordered mutation steps; Apply executes them strictly
// sequentially. A resolution failure therefore always aborts before any
// mutating call is issued.
package engine
