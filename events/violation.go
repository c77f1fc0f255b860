package events

import (
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-traffic/common"
)

// ErrPolicy is returned by Policy.Validate for unusable thresholds.
var ErrPolicy = errors.New("invalid violation policy")

// Policy holds the thresholds a stationary object must satisfy to be flagged.
type Policy struct {
	// StopThresholdSeconds is the minimum running dwell duration.
	StopThresholdSeconds float64
	// MaxDisplacementPixels is the exclusive upper bound on the last inside step.
	MaxDisplacementPixels int
	// MinFrames is the minimum inside span in frames.
	MinFrames int
	// EnforcementStartHour and EnforcementEndHour bound the local-time window
	// [start, end). A start after the end wraps past midnight.
	EnforcementStartHour int
	EnforcementEndHour   int
	// EnforceableClasses are the class names that can be flagged.
	EnforceableClasses []string
	// ExemptClasses are never flagged, even if also enforceable.
	ExemptClasses []string
}

// DefaultPolicy returns the reference thresholds.
func DefaultPolicy() Policy {
	return Policy{
		StopThresholdSeconds:  8.0,
		MaxDisplacementPixels: 10,
		MinFrames:             10,
		EnforcementStartHour:  8,
		EnforcementEndHour:    20,
		EnforceableClasses:    []string{"car", "bus_s", "bus_m", "truck_s", "truck_m", "truck_x", "bike"},
		ExemptClasses:         []string{"police", "ambulance"},
	}
}

// IsZero reports whether p is the zero Policy.
func (p Policy) IsZero() bool {
	return p.StopThresholdSeconds == 0 && p.MaxDisplacementPixels == 0 && p.MinFrames == 0 &&
		p.EnforcementStartHour == 0 && p.EnforcementEndHour == 0 &&
		len(p.EnforceableClasses) == 0 && len(p.ExemptClasses) == 0
}

// Validate rejects thresholds under which no object could ever be flagged.
func (p Policy) Validate() error {
	switch {
	case p.StopThresholdSeconds < 0:
		return errors.Wrapf(ErrPolicy, "stop threshold %v < 0", p.StopThresholdSeconds)
	case p.MaxDisplacementPixels <= 0:
		return errors.Wrapf(ErrPolicy, "max displacement %d <= 0", p.MaxDisplacementPixels)
	case p.MinFrames < 0:
		return errors.Wrapf(ErrPolicy, "min frames %d < 0", p.MinFrames)
	case p.EnforcementStartHour < 0 || p.EnforcementStartHour > 23:
		return errors.Wrapf(ErrPolicy, "enforcement start hour %d", p.EnforcementStartHour)
	case p.EnforcementEndHour < 0 || p.EnforcementEndHour > 24:
		return errors.Wrapf(ErrPolicy, "enforcement end hour %d", p.EnforcementEndHour)
	case len(p.EnforceableClasses) == 0:
		return errors.Wrap(ErrPolicy, "no enforceable classes")
	}
	return nil
}

// Candidate is the state of one dwelling object at one frame.
type Candidate struct {
	ObjectID        int
	Class           int
	DurationSeconds float64
	Displacement    int
	Frames          int
	// HasCrossedLine is true once the object crossed any line this session.
	HasCrossedLine bool
}

// Reason names the first condition a candidate failed.
type Reason string

const (
	ReasonNone          Reason = ""
	ReasonFlagged       Reason = "already flagged"
	ReasonDuration      Reason = "duration below threshold"
	ReasonDisplacement  Reason = "still moving"
	ReasonMinFrames     Reason = "too few frames"
	ReasonCrossedLine   Reason = "crossed a line"
	ReasonOutsideWindow Reason = "outside enforcement hours"
	ReasonClass         Reason = "class not enforceable"
)

// ViolationEvaluator decides, once per object and session, whether a dwelling
// object is parked illegally.
type ViolationEvaluator struct {
	policy      Policy
	clock       Clock
	labels      *common.LabelSet
	enforceable map[string]struct{}
	exempt      map[string]struct{}
	flagged     map[int]struct{}
}

// NewViolationEvaluator creates an evaluator. A nil clock means SystemClock.
func NewViolationEvaluator(policy Policy, labels *common.LabelSet, clock Clock) *ViolationEvaluator {
	if clock == nil {
		clock = SystemClock{}
	}
	if labels == nil {
		labels = common.NewLabelSet(common.DefaultLabels...)
	}
	return &ViolationEvaluator{
		policy:      policy,
		clock:       clock,
		labels:      labels,
		enforceable: toSet(policy.EnforceableClasses),
		exempt:      toSet(policy.ExemptClasses),
		flagged:     make(map[int]struct{}),
	}
}

// Check returns ReasonNone when every condition holds, otherwise the first
// failed condition. Already flagged objects fail with ReasonFlagged.
func (e *ViolationEvaluator) Check(c Candidate) Reason {
	switch {
	case e.Flagged(c.ObjectID):
		return ReasonFlagged
	case c.DurationSeconds < e.policy.StopThresholdSeconds:
		return ReasonDuration
	case c.Displacement >= e.policy.MaxDisplacementPixels:
		return ReasonDisplacement
	case c.Frames < e.policy.MinFrames:
		return ReasonMinFrames
	case c.HasCrossedLine:
		return ReasonCrossedLine
	case !e.InWindow():
		return ReasonOutsideWindow
	case !e.Enforceable(c.Class):
		return ReasonClass
	}
	return ReasonNone
}

// ShouldFlag reports whether c satisfies every condition and is not yet flagged.
func (e *ViolationEvaluator) ShouldFlag(c Candidate) bool {
	return e.Check(c) == ReasonNone
}

// Flag marks objectID as flagged for the rest of the session. It reports
// whether this call was the first.
func (e *ViolationEvaluator) Flag(objectID int) bool {
	if e.Flagged(objectID) {
		return false
	}
	e.flagged[objectID] = struct{}{}
	return true
}

// Flagged reports whether objectID has been flagged this session.
func (e *ViolationEvaluator) Flagged(objectID int) bool {
	_, ok := e.flagged[objectID]
	return ok
}

// InWindow reports whether the clock's local hour is inside the enforcement window.
func (e *ViolationEvaluator) InWindow() bool {
	h := e.clock.Now().Hour()
	start, end := e.policy.EnforcementStartHour, e.policy.EnforcementEndHour
	if start <= end {
		return start <= h && h < end
	}
	return h >= start || h < end
}

// Enforceable reports whether the class code maps to an enforceable, non-exempt name.
//
// The default label table has no codes for the default exempt names, so the
// exemption only takes effect with a label table that defines them.
func (e *ViolationEvaluator) Enforceable(class int) bool {
	name, ok := e.labels.Lookup(class)
	if !ok {
		return false
	}
	if _, ok := e.exempt[name]; ok {
		return false
	}
	_, ok = e.enforceable[name]
	return ok
}

// Reset forgets every flagged object.
func (e *ViolationEvaluator) Reset() {
	e.flagged = make(map[int]struct{})
}

func toSet(names []string) map[string]struct{} {
	out := make(map[string]struct{}, len(names))
	for _, n := range names {
		out[n] = struct{}{}
	}
	return out
}
