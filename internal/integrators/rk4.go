package integrators

// RK4Step advances y' = f(t, y) by one classical Runge-Kutta step.
func RK4Step(f Func, t float64, y []float64, dt float64) ([]float64, error) {
	n := len(y)

	k1, err := f(t, y)
	if err != nil {
		return nil, err
	}

	scratch := make([]float64, n)
	for i := 0; i < n; i++ {
		scratch[i] = y[i] + dt*0.5*k1[i]
	}
	k2, err := f(t+dt*0.5, scratch)
	if err != nil {
		return nil, err
	}

	for i := 0; i < n; i++ {
		scratch[i] = y[i] + dt*0.5*k2[i]
	}
	k3, err := f(t+dt*0.5, scratch)
	if err != nil {
		return nil, err
	}

	for i := 0; i < n; i++ {
		scratch[i] = y[i] + dt*k3[i]
	}
	k4, err := f(t+dt, scratch)
	if err != nil {
		return nil, err
	}

	result := make([]float64, n)
	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		result[i] = y[i] + dt6*(k1[i]+2*k2[i]+2*k3[i]+k4[i])
	}
	return result, nil
}

// RK4At integrates across the whole time axis with a fixed number of
// substeps per interval, returning one row at every requested point.
func RK4At(f Func, times []float64, y0 []float64, substeps int) ([][]float64, error) {
	if substeps < 1 {
		substeps = 1
	}
	rows := make([][]float64, len(times))
	rows[0] = append([]float64(nil), y0...)
	y := append([]float64(nil), y0...)
	for i := 1; i < len(times); i++ {
		h := (times[i] - times[i-1]) / float64(substeps)
		t := times[i-1]
		for s := 0; s < substeps; s++ {
			var err error
			y, err = RK4Step(f, t, y, h)
			if err != nil {
				return nil, err
			}
			t += h
		}
		rows[i] = append([]float64(nil), y...)
	}
	return rows, nil
}
