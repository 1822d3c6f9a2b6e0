// Package permission models roles as 64-bit permission masks.
//
// A [Registry] assigns bit positions to permission names, and a [RoleManager]
// composes named roles from them. Authorization asks whether the caller's role
// mask covers the mask of the required role, so higher roles are supersets of
// lower ones.
//
// The package is pure in-memory data with no I/O.
package permission
