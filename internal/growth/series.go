package growth

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/gompertz/internal/dynamo"
)

// Record is one volume measurement at one time point.
type Record struct {
	Time   float64 `json:"time"`
	Volume float64 `json:"volume"`
}

// Series is the time-ordered measurement record of one specimen.
type Series struct {
	Name    string   `json:"name"`
	Records []Record `json:"records"`
}

func (s Series) Len() int { return len(s.Records) }

func (s Series) Times() []float64 {
	out := make([]float64, len(s.Records))
	for i, r := range s.Records {
		out[i] = r.Time
	}
	return out
}

func (s Series) Volumes() []float64 {
	out := make([]float64, len(s.Records))
	for i, r := range s.Records {
		out[i] = r.Volume
	}
	return out
}

// First and Last return the first and last observed volumes.
func (s Series) First() float64 { return s.Records[0].Volume }
func (s Series) Last() float64  { return s.Records[len(s.Records)-1].Volume }

// Validate checks the invariants every model relies on: strictly increasing
// time and strictly positive volume.
func (s Series) Validate() error {
	if len(s.Records) == 0 {
		return fmt.Errorf("series %q is empty: %w", s.Name, dynamo.ErrDegenerateInput)
	}
	for i, r := range s.Records {
		if math.IsNaN(r.Time) || math.IsNaN(r.Volume) {
			return fmt.Errorf("series %q row %d: NaN value: %w", s.Name, i, dynamo.ErrDegenerateInput)
		}
		if !(r.Volume > 0) {
			return fmt.Errorf("series %q row %d: volume %g must be positive: %w", s.Name, i, r.Volume, dynamo.ErrMathDomain)
		}
		if i > 0 && !(r.Time > s.Records[i-1].Time) {
			return fmt.Errorf("series %q row %d: time %g not after %g: %w",
				s.Name, i, r.Time, s.Records[i-1].Time, dynamo.ErrDegenerateInput)
		}
	}
	return nil
}

// Drop returns a copy without the given row indices (outlier exclusion).
// Indices refer to the rows as loaded; out-of-range indices are an error.
func (s Series) Drop(rows ...int) (Series, error) {
	skip := make(map[int]bool, len(rows))
	for _, r := range rows {
		if r < 0 || r >= len(s.Records) {
			return Series{}, fmt.Errorf("series %q: row %d out of range [0, %d)", s.Name, r, len(s.Records))
		}
		skip[r] = true
	}
	out := Series{Name: s.Name, Records: make([]Record, 0, len(s.Records)-len(skip))}
	for i, r := range s.Records {
		if !skip[i] {
			out.Records = append(out.Records, r)
		}
	}
	return out, nil
}

// Log10 returns the series with every volume replaced by its base-10 logarithm.
func (s Series) Log10() Series {
	out := Series{Name: s.Name + " (log10)", Records: make([]Record, len(s.Records))}
	for i, r := range s.Records {
		out.Records[i] = Record{Time: r.Time, Volume: math.Log10(r.Volume)}
	}
	return out
}

// Sorted returns a copy ordered by time.
func (s Series) Sorted() Series {
	out := Series{Name: s.Name, Records: make([]Record, len(s.Records))}
	copy(out.Records, s.Records)
	sort.SliceStable(out.Records, func(i, j int) bool { return out.Records[i].Time < out.Records[j].Time })
	return out
}

// NewSeries pairs time and volume slices.
func NewSeries(name string, times, volumes []float64) (Series, error) {
	if len(times) != len(volumes) {
		return Series{}, fmt.Errorf("series %q: %d times vs %d volumes: %w",
			name, len(times), len(volumes), dynamo.ErrDimensionMismatch)
	}
	s := Series{Name: name, Records: make([]Record, len(times))}
	for i := range times {
		s.Records[i] = Record{Time: times[i], Volume: volumes[i]}
	}
	return s, nil
}
