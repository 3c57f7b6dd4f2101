// Package task contains the Task aggregate: a delivery job moving through
// the broadcast-and-accept protocol. The aggregate owns two coupled state
// machines, the delivery lifecycle (Status) and the broadcast window
// sub-state (BroadcastStatus), and enforces the invariant tying courier
// assignment to lifecycle state.
package task
