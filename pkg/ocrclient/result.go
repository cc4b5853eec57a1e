package ocrclient

import (
	"sort"
	"strings"
)

// Fragment is one recognized text run, with the engine's confidence
// for that run in [0,1].
type Fragment struct {
	Text        string      `json:"text"`
	Confidence  float64     `json:"confidence"`
	BoundingBox BoundingBox `json:"boundingBox"`
	Lang        string      `json:"lang,omitempty"`
}

type BoundingBox struct {
	Top    int `json:"top"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
	Right  int `json:"right"`
}

type Result struct {
	Fragments []Fragment `json:"fragments"`
}

type SortFragments []Fragment

func (s SortFragments) Len() int {
	return len(s)
}

func (s SortFragments) Less(i, j int) bool {
	bbI := s[i].BoundingBox
	bbJ := s[j].BoundingBox
	if bbI.Top < bbJ.Top {
		return true
	} else if bbI.Top == bbJ.Top {
		return bbI.Left <= bbJ.Left
	}
	return false
}

func (s SortFragments) Swap(i, j int) {
	s[i], s[j] = s[j], s[i]
}

var _ sort.Interface = SortFragments{}

// Text returns the recognized fragments in document order, one per
// line. OCR line breaks are unreliable; downstream heuristics must not
// assume any column alignment.
func (r *Result) Text() string {
	fragments := make([]Fragment, len(r.Fragments))
	copy(fragments, r.Fragments)
	sort.Sort(SortFragments(fragments))

	lines := make([]string, 0, len(fragments))
	for _, f := range fragments {
		lines = append(lines, f.Text)
	}
	return strings.Join(lines, "\n")
}

// MeanConfidence is the arithmetic mean of the per-fragment confidence
// scores. A result with no fragments has confidence 0.
func (r *Result) MeanConfidence() float64 {
	if len(r.Fragments) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, f := range r.Fragments {
		sum += f.Confidence
	}
	return sum / float64(len(r.Fragments))
}
