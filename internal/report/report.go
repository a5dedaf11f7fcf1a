// Package report summarises a set of segments for the CLI and the API.
package report

import (
	"io"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/micro2move/segment-cli/internal/segment"
)

// TopAreas is how many local areas the summary lists.
const TopAreas = 10

// Count is a labelled tally.
type Count struct {
	Name    string  `json:"name"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent,omitempty"`
}

// Summary holds aggregate statistics for a run.
type Summary struct {
	Total          int     `json:"total"`
	ByFacilityType []Count `json:"by_facility_type"`
	TopLocalAreas  []Count `json:"top_local_areas"`
	PopUpCount     int     `json:"pop_up_count"`
	AvgComfort     float64 `json:"avg_comfort"`
	Tags           []Count `json:"tags"`
}

// Build computes the summary. Facility types and tags are sorted by name;
// local areas by count descending, then name, keeping the first TopAreas.
func Build(segs []segment.Segment) Summary {
	s := Summary{
		Total:          len(segs),
		ByFacilityType: []Count{},
		TopLocalAreas:  []Count{},
		Tags:           []Count{},
	}
	if len(segs) == 0 {
		return s
	}

	types := map[string]int{}
	areas := map[string]int{}
	tags := map[string]int{}
	var comfort float64

	for _, seg := range segs {
		types[string(seg.FacilityType)]++
		areas[seg.LocalArea]++
		for _, t := range seg.Tags {
			tags[t]++
		}
		if seg.IsPopUp {
			s.PopUpCount++
		}
		comfort += seg.ComfortScore
	}

	s.AvgComfort = comfort / float64(len(segs))

	s.ByFacilityType = byName(types)
	for i := range s.ByFacilityType {
		s.ByFacilityType[i].Percent = float64(s.ByFacilityType[i].Count) / float64(len(segs)) * 100
	}

	s.TopLocalAreas = byName(areas)
	sort.SliceStable(s.TopLocalAreas, func(i, j int) bool {
		return s.TopLocalAreas[i].Count > s.TopLocalAreas[j].Count
	})
	if len(s.TopLocalAreas) > TopAreas {
		s.TopLocalAreas = s.TopLocalAreas[:TopAreas]
	}

	s.Tags = byName(tags)
	return s
}

func byName(m map[string]int) []Count {
	out := make([]Count, 0, len(m))
	for name, n := range m {
		out = append(out, Count{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Write renders the summary as an indented text block.
func (s Summary) Write(w io.Writer) error {
	p := message.NewPrinter(language.English)
	ew := &errWriter{w: w}

	ew.printf(p, "Summary Statistics:\n")
	ew.printf(p, "   Total segments: %d\n", s.Total)

	ew.printf(p, "\n   By facility type:\n")
	for _, c := range s.ByFacilityType {
		ew.printf(p, "   - %s: %d (%.1f%%)\n", c.Name, c.Count, c.Percent)
	}

	ew.printf(p, "\n   By local area:\n")
	for _, c := range s.TopLocalAreas {
		ew.printf(p, "   - %s: %d\n", c.Name, c.Count)
	}

	if len(s.Tags) > 0 {
		ew.printf(p, "\n   Tags:\n")
		for _, c := range s.Tags {
			ew.printf(p, "   - %s: %d\n", c.Name, c.Count)
		}
	}

	ew.printf(p, "\n   Pop-up cycleways: %d\n", s.PopUpCount)
	ew.printf(p, "\n   Average comfort score: %.2f\n", s.AvgComfort)
	return ew.err
}

// String renders the summary via Write.
func (s Summary) String() string {
	var b strings.Builder
	_ = s.Write(&b)
	return b.String()
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(p *message.Printer, format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = p.Fprintf(e.w, format, args...)
}
