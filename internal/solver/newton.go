package solver

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

type newtonOpts struct {
	Tol          float64
	MaxIter      int
	RefreshEvery int // Jacobian refresh interval; >1 gives modified Newton
}

// newtonSolve drives a damped Newton iteration on F(u) = 0, mutating u
// in place. The Jacobian is built by forward differences and refactored
// every RefreshEvery iterations.
func newtonSolve(resid func(u []float64) ([]float64, error), u []float64, o newtonOpts) error {
	n := len(u)
	if o.RefreshEvery < 1 {
		o.RefreshEvery = 1
	}

	f, err := resid(u)
	if err != nil {
		return err
	}
	normF := maxAbs(f)

	var lu mat.LU
	haveJac := false
	step := mat.NewVecDense(n, nil)

	for iter := 0; iter < o.MaxIter; iter++ {
		if normF < o.Tol {
			return nil
		}

		if !haveJac || iter%o.RefreshEvery == 0 {
			jac, err := numJacobian(resid, u, f)
			if err != nil {
				return err
			}
			lu.Factorize(jac)
			haveJac = true
		}

		if err := lu.SolveVecTo(step, false, mat.NewVecDense(n, f)); err != nil {
			return fmt.Errorf("%w: singular jacobian: %v", ErrNotConverged, err)
		}

		// damp the step until the residual shrinks
		accepted := false
		lambda := 1.0
		for k := 0; k < 10; k++ {
			trial := make([]float64, n)
			for i := range trial {
				trial[i] = u[i] - lambda*step.AtVec(i)
			}
			fTrial, err := resid(trial)
			if err == nil && maxAbs(fTrial) < normF {
				copy(u, trial)
				f = fTrial
				normF = maxAbs(fTrial)
				accepted = true
				break
			}
			lambda /= 2
		}
		if !accepted {
			return fmt.Errorf("%w: residual stalled at %g", ErrNotConverged, normF)
		}
	}
	if normF < o.Tol {
		return nil
	}
	return fmt.Errorf("%w after %d iterations (residual %g)", ErrNotConverged, o.MaxIter, normF)
}

// numJacobian builds dF/du by forward differences around u, where f is
// the residual already evaluated at u.
func numJacobian(resid func(u []float64) ([]float64, error), u, f []float64) (*mat.Dense, error) {
	n := len(u)
	jac := mat.NewDense(n, n, nil)
	pert := append([]float64(nil), u...)
	for col := 0; col < n; col++ {
		eps := 1e-8 * math.Max(1.0, math.Abs(u[col]))
		pert[col] = u[col] + eps
		fp, err := resid(pert)
		if err != nil {
			return nil, err
		}
		pert[col] = u[col]
		for row := 0; row < n; row++ {
			jac.Set(row, col, (fp[row]-f[row])/eps)
		}
	}
	return jac, nil
}

func maxAbs(xs []float64) float64 {
	m := 0.0
	for _, x := range xs {
		m = math.Max(m, math.Abs(x))
	}
	return m
}
