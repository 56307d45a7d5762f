package growth

import (
	"fmt"

	"github.com/san-kum/gompertz/internal/dynamo"
)

// RateSentinel pads the growth-rate sequence to the length of the volume
// sequence. It is indistinguishable from a genuine zero rate.
const RateSentinel = 0.0

// GrowthRates approximates the per-capita growth rate (1/x)(dx/dt) by forward
// differences, one value per consecutive pair of records, followed by a
// trailing RateSentinel so the result has the same length as the series.
func GrowthRates(s Series) ([]float64, error) {
	if len(s.Records) < 2 {
		return nil, fmt.Errorf("series %q: need at least 2 records for a growth rate: %w",
			s.Name, dynamo.ErrDegenerateInput)
	}
	rates := make([]float64, 0, len(s.Records))
	for i := 0; i+1 < len(s.Records); i++ {
		cur, next := s.Records[i], s.Records[i+1]
		dt := next.Time - cur.Time
		if dt == 0 || cur.Volume == 0 {
			return nil, fmt.Errorf("series %q row %d: zero time step or volume: %w",
				s.Name, i, dynamo.ErrDegenerateInput)
		}
		rates = append(rates, (next.Volume-cur.Volume)/(dt*cur.Volume))
	}
	return append(rates, RateSentinel), nil
}

// RateSamples holds the (volume, rate) pairs fed to the rate-model fitter.
type RateSamples struct {
	Volumes []float64
	Rates   []float64
	// Sentinel reports whether the trailing padded zero is included as if it
	// were an observation.
	Sentinel bool
}

// NewRateSamples pairs each volume with its growth rate. With
// includeSentinel the last volume is paired with the padded zero, which
// reproduces the historical fits but adds one spurious observation.
func NewRateSamples(s Series, includeSentinel bool) (RateSamples, error) {
	rates, err := GrowthRates(s)
	if err != nil {
		return RateSamples{}, err
	}
	vols := s.Volumes()
	if !includeSentinel {
		vols = vols[:len(vols)-1]
		rates = rates[:len(rates)-1]
	}
	return RateSamples{Volumes: vols, Rates: rates, Sentinel: includeSentinel}, nil
}

func (r RateSamples) Len() int { return len(r.Volumes) }
