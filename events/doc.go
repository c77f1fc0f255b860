// Package events implements the per-object detectors behind the frame pipeline:
// one-shot line crossing, region dwell tracking and stationary-vehicle violations.
//
// None of the types in this package are safe for concurrent use; the frame
// pipeline serialises every call under its own lock.
package events
