package optim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/gompertz/internal/dynamo"
)

// Objective scores a parameter point; lower is better.
type Objective func(p []float64) (float64, error)

// GridSearch evaluates an objective over the Cartesian product of per-parameter
// value lists. It is used to pick a starting point for the local fitters.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Result is the best grid point found.
type Result struct {
	Params    []float64
	Value     float64
	Evaluated int
	Failed    int
}

// Search returns the grid point with the lowest finite objective. Points where
// the objective errors or is not finite are skipped.
func (g *GridSearch) Search(ctx context.Context, obj Objective) (*Result, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, fmt.Errorf("%d parameters, %d ranges: %w", len(g.paramNames), len(g.ranges), dynamo.ErrDimensionMismatch)
	}
	for i, r := range g.ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("empty range for %s: %w", g.paramNames[i], dynamo.ErrDegenerateInput)
		}
	}

	res := &Result{Value: math.Inf(1)}
	current := make([]float64, len(g.paramNames))
	if err := g.searchRecursive(ctx, 0, current, obj, res); err != nil {
		return nil, err
	}
	if res.Params == nil {
		return nil, fmt.Errorf("objective failed at all %d grid points: %w", res.Evaluated, dynamo.ErrMathDomain)
	}
	return res, nil
}

func (g *GridSearch) searchRecursive(ctx context.Context, depth int, current []float64, obj Objective, res *Result) error {
	if depth == len(g.paramNames) {
		if err := ctx.Err(); err != nil {
			return err
		}
		res.Evaluated++
		val, err := obj(current)
		if err != nil || math.IsNaN(val) || math.IsInf(val, 0) {
			res.Failed++
			return nil
		}
		if val < res.Value {
			res.Value = val
			res.Params = append(res.Params[:0], current...)
		}
		return nil
	}

	for _, val := range g.ranges[depth] {
		current[depth] = val
		if err := g.searchRecursive(ctx, depth+1, current, obj, res); err != nil {
			return err
		}
	}
	return nil
}
