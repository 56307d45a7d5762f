package integrators

// Tableau is the Butcher tableau of an explicit Runge-Kutta method. A is
// strictly lower triangular. BErr, when set, holds the weights of the embedded
// solution used for the error estimate.
type Tableau struct {
	Name  string
	Order int
	A     [][]float64
	B     []float64
	C     []float64
	BErr  []float64
}

func (t Tableau) Stages() int { return len(t.B) }

func (t Tableau) Embedded() bool { return len(t.BErr) == len(t.B) }

var EulerTableau = Tableau{
	Name:  "euler",
	Order: 1,
	A:     [][]float64{{}},
	B:     []float64{1},
	C:     []float64{0},
}

var RK4Tableau = Tableau{
	Name:  "rk4",
	Order: 4,
	A: [][]float64{
		{},
		{0.5},
		{0, 0.5},
		{0, 0, 1},
	},
	B: []float64{1.0 / 6, 1.0 / 3, 1.0 / 3, 1.0 / 6},
	C: []float64{0, 0.5, 0.5, 1},
}

// DormandPrince is the 5(4) pair. Its last stage is evaluated at the
// fifth-order solution.
var DormandPrince = Tableau{
	Name:  "rk45",
	Order: 5,
	A: [][]float64{
		{},
		{1.0 / 5},
		{3.0 / 40, 9.0 / 40},
		{44.0 / 45, -56.0 / 15, 32.0 / 9},
		{19372.0 / 6561, -25360.0 / 2187, 64448.0 / 6561, -212.0 / 729},
		{9017.0 / 3168, -355.0 / 33, 46732.0 / 5247, 49.0 / 176, -5103.0 / 18656},
		{35.0 / 384, 0, 500.0 / 1113, 125.0 / 192, -2187.0 / 6784, 11.0 / 84},
	},
	B:    []float64{35.0 / 384, 0, 500.0 / 1113, 125.0 / 192, -2187.0 / 6784, 11.0 / 84, 0},
	C:    []float64{0, 1.0 / 5, 3.0 / 10, 4.0 / 5, 8.0 / 9, 1, 1},
	BErr: []float64{5179.0 / 57600, 0, 7571.0 / 16695, 393.0 / 640, -92097.0 / 339200, 187.0 / 2100, 1.0 / 40},
}
