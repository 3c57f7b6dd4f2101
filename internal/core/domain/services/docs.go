// Package services contains stateless domain services that operate across
// aggregates: broadcast planning (priority boosts) and candidate ranking.
package services
