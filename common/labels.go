package common

import (
	"fmt"
	"sort"
)

// Label is one class code and its human-readable name.
type Label struct {
	// The integer code found in the detection table.
	Code int
	// The human-readable name.
	Name string
}

// DefaultLabels is the label table used by the traffic detection exports.
var DefaultLabels = []Label{
	{Code: 0, Name: "car"},
	{Code: 1, Name: "bus_s"},
	{Code: 2, Name: "bus_m"},
	{Code: 3, Name: "truck_s"},
	{Code: 4, Name: "truck_m"},
	{Code: 5, Name: "truck_x"},
	{Code: 6, Name: "bike"},
}

// LabelSet maps class codes to names and back.
type LabelSet struct {
	byCode map[int]string
	byName map[string]int
}

// NewLabelSet builds a label set from the given labels. Later entries replace
// earlier ones with the same code.
func NewLabelSet(labels ...Label) *LabelSet {
	s := &LabelSet{
		byCode: make(map[int]string, len(labels)),
		byName: make(map[string]int, len(labels)),
	}
	for _, l := range labels {
		s.byCode[l.Code] = l.Name
		s.byName[l.Name] = l.Code
	}
	return s
}

// FromMap builds a label set from a code to name map.
func FromMap(m map[int]string) *LabelSet {
	labels := make([]Label, 0, len(m))
	for code, name := range m {
		labels = append(labels, Label{Code: code, Name: name})
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i].Code < labels[j].Code })
	return NewLabelSet(labels...)
}

// Name returns the name for code, or "Label:<code>" when the code is unknown.
func (s *LabelSet) Name(code int) string {
	if name, ok := s.byCode[code]; ok {
		return name
	}
	return fmt.Sprintf("Label:%d", code)
}

// Lookup returns the name for code and whether it is known.
func (s *LabelSet) Lookup(code int) (string, bool) {
	name, ok := s.byCode[code]
	return name, ok
}

// Code returns the code for name and whether it is known.
func (s *LabelSet) Code(name string) (int, bool) {
	code, ok := s.byName[name]
	return code, ok
}

// Labels returns all labels sorted by code.
func (s *LabelSet) Labels() []Label {
	out := make([]Label, 0, len(s.byCode))
	for code, name := range s.byCode {
		out = append(out, Label{Code: code, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
