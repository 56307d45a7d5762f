package growth

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/gompertz/internal/dynamo"
)

func TestGrowthRatesWithSentinel(t *testing.T) {
	s, err := NewSeries("toy", []float64{0, 1, 2}, []float64{1, 2, 4})
	if err != nil {
		t.Fatal(err)
	}

	rates, err := GrowthRates(s)
	if err != nil {
		t.Fatalf("growth rates failed: %v", err)
	}

	// (2-1)/((1-0)·1) and (4-2)/((2-1)·2), then the padded zero.
	want := []float64{1.0, 1.0, 0}
	if len(rates) != len(want) {
		t.Fatalf("expected %d rates, got %d", len(want), len(rates))
	}
	for i := range want {
		if math.Abs(rates[i]-want[i]) > 1e-12 {
			t.Errorf("rate[%d]: expected %f, got %f", i, want[i], rates[i])
		}
	}
}

func TestGrowthRatesUnevenSteps(t *testing.T) {
	s, err := NewSeries("toy", []float64{0, 1, 3}, []float64{1, 2, 3})
	if err != nil {
		t.Fatal(err)
	}
	rates, err := GrowthRates(s)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{1.0, 0.25, RateSentinel}
	for i := range want {
		if math.Abs(rates[i]-want[i]) > 1e-12 {
			t.Errorf("rate[%d]: expected %g, got %g", i, want[i], rates[i])
		}
	}
}

func TestRateSamplesSentinelFlag(t *testing.T) {
	s, _ := NewSeries("toy", []float64{0, 1, 2, 4}, []float64{1, 2, 4, 6})

	with, err := NewRateSamples(s, true)
	if err != nil {
		t.Fatal(err)
	}
	if with.Len() != 4 || with.Rates[3] != RateSentinel || with.Volumes[3] != 6 {
		t.Errorf("expected sentinel pair (6, 0) at the end, got %v / %v", with.Volumes, with.Rates)
	}

	without, err := NewRateSamples(s, false)
	if err != nil {
		t.Fatal(err)
	}
	if without.Len() != 3 {
		t.Errorf("expected 3 authentic samples, got %d", without.Len())
	}
	if without.Volumes[2] != 4 || math.Abs(without.Rates[2]-0.25) > 1e-12 {
		t.Errorf("unexpected last authentic sample (%f, %f)", without.Volumes[2], without.Rates[2])
	}
}

func TestGrowthRatesTooShort(t *testing.T) {
	s, _ := NewSeries("one", []float64{0}, []float64{1})
	if _, err := GrowthRates(s); !errors.Is(err, dynamo.ErrDegenerateInput) {
		t.Errorf("expected ErrDegenerateInput, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		times   []float64
		volumes []float64
		want    error
	}{
		{"ok", []float64{0, 1}, []float64{1, 2}, nil},
		{"zero volume", []float64{0, 1}, []float64{0, 2}, dynamo.ErrMathDomain},
		{"negative volume", []float64{0, 1}, []float64{1, -2}, dynamo.ErrMathDomain},
		{"time not increasing", []float64{1, 1}, []float64{1, 2}, dynamo.ErrDegenerateInput},
		{"empty", nil, nil, dynamo.ErrDegenerateInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := NewSeries(tt.name, tt.times, tt.volumes)
			err := s.Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestDrop(t *testing.T) {
	s, _ := NewSeries("A", []float64{0, 1, 2, 3}, []float64{1, 2, 3, 4})

	out, err := s.Drop(2)
	if err != nil {
		t.Fatal(err)
	}
	if out.Len() != 3 || out.Records[2].Time != 3 {
		t.Errorf("unexpected records after drop: %v", out.Records)
	}
	if s.Len() != 4 {
		t.Error("drop mutated the source series")
	}

	if _, err := s.Drop(9); err == nil {
		t.Error("expected error for out-of-range row")
	}
}

func TestLog10(t *testing.T) {
	s, _ := NewSeries("A", []float64{0, 1}, []float64{10, 1000})
	l := s.Log10()
	if l.Records[0].Volume != 1 || l.Records[1].Volume != 3 {
		t.Errorf("unexpected log volumes %v", l.Volumes())
	}
}

func TestReadCSV(t *testing.T) {
	in := "0, 12.5\n3,20.1\n\n7,41\n"
	s, err := ReadCSV(strings.NewReader(in), "A")
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if s.Len() != 3 {
		t.Fatalf("expected 3 records, got %d", s.Len())
	}
	if s.Records[1].Time != 3 || s.Records[1].Volume != 20.1 {
		t.Errorf("unexpected record %v", s.Records[1])
	}

	if _, err := ReadCSV(strings.NewReader("Time,Volume\n"), "B"); err == nil {
		t.Error("expected error for non-numeric row")
	}
}

func TestSpecimenLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "A.csv")
	data := "0,10\n2,14\n4,9999\n6,25\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := Specimen{Name: "A", Path: path, Exclude: []int{2}}.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if s.Len() != 3 || s.Last() != 25 || s.First() != 10 {
		t.Errorf("unexpected series %v", s.Records)
	}
}

func TestParameterVector(t *testing.T) {
	names := []string{"r", "b"}
	values := []float64{0.1, -0.02}
	p := NewParameterVector(names, values)
	values[0] = 5

	if v, ok := p.Get("r"); !ok || v != 0.1 {
		t.Errorf("expected r=0.1 unaffected by caller mutation, got %v", v)
	}
	if _, ok := p.Get("k"); ok {
		t.Error("expected missing parameter")
	}
	if !strings.Contains(p.String(), "b = -0.02") {
		t.Errorf("unexpected string %q", p.String())
	}
}

func TestStatsJSONNonFiniteAIC(t *testing.T) {
	in := Stats{N: 4, SSE: 0, AIC: math.Inf(-1), RSquared: 1, AdjRSq: 1}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"aic":"-Inf"`) {
		t.Errorf("expected string AIC, got %s", data)
	}

	var out Stats
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if !math.IsInf(out.AIC, -1) || out.N != 4 || out.RSquared != 1 {
		t.Errorf("unexpected stats %+v", out)
	}

	if err := json.Unmarshal([]byte(`{"n":3,"aic":-7.5}`), &out); err != nil || out.AIC != -7.5 {
		t.Errorf("numeric AIC: got %v, %v", out.AIC, err)
	}
}
