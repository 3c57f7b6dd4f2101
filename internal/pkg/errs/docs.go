// Package errs provides standardized error types for the dispatch service.
// It implements a consistent pattern for error creation, formatting, and
// unwrapping used throughout the application.
//
// Each error kind follows the same shape:
//   - a sentinel error variable (e.g. ErrObjectNotFound, ErrConflict)
//   - a struct type carrying error details
//   - constructor functions with and without cause
//   - Error() for formatting and Unwrap() returning the sentinel
//
// Handlers and transport adapters classify failures with errors.Is against
// the sentinels, which keeps the error taxonomy (validation, not-found,
// conflict, expired, transient infrastructure) stable across layers. The
// conflict and expired kinds are deliberately distinct: a losing accept
// caller is told which of the two happened so its next action can differ.
package errs
