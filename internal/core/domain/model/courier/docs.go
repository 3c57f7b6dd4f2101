// Package courier contains the Courier aggregate: a mobile worker that may
// receive task broadcasts when online, active, and reporting a location.
package courier
