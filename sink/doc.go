// Package sink persists pipeline events as flat per-frame logs.
//
// FrameLog writes one CSV row per detection with per-line crossed flags and
// per-region inside flags, ViolationLog one CSV row per flagged object, and
// TrackExport a JSON array of GPS-projected centroids. All three implement
// controller.Sink.
package sink
