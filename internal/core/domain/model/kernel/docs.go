// Package kernel contains shared value objects used across the dispatch
// domain: UUID identifiers and geographic points. These are immutable,
// constructor-validated types; zero values fail validation so aggregates can
// rely on their invariants holding.
package kernel
