package fluxmod

import "fmt"

// Series stores the trajectory of one model quantity: one row of
// Dims.Size() values per time index. It is the storage handle returned
// by registration and read back by callers after solving.
type Series struct {
	Label string
	Dims  Dims

	steps int
	data  []float64
}

// NewSeries allocates zeroed storage for steps time indices.
func NewSeries(label string, dims Dims, steps int) *Series {
	return &Series{
		Label: label,
		Dims:  append(Dims(nil), dims...),
		steps: steps,
		data:  make([]float64, dims.Size()*steps),
	}
}

// Steps returns the length of the time axis the series was sized to.
func (s *Series) Steps() int { return s.steps }

// At returns the row at a time index. The slice aliases the series
// storage; treat it as read-only.
func (s *Series) At(i int) []float64 {
	n := s.Dims.Size()
	return s.data[i*n : (i+1)*n]
}

// Get returns the single element at a time index, for scalar series.
func (s *Series) Get(i int) float64 { return s.At(i)[0] }

// Set writes the row at a time index.
func (s *Series) Set(i int, vals []float64) {
	n := s.Dims.Size()
	if len(vals) != n {
		panic(fmt.Sprintf("fluxmod: series %q row has %d elements, want %d", s.Label, len(vals), n))
	}
	copy(s.data[i*n:(i+1)*n], vals)
}

// Col returns the trajectory of one element across all time indices.
func (s *Series) Col(elem int) []float64 {
	n := s.Dims.Size()
	out := make([]float64, s.steps)
	for i := 0; i < s.steps; i++ {
		out[i] = s.data[i*n+elem]
	}
	return out
}
