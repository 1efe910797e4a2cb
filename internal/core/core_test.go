package core_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/fluxsim/internal/core"
	"github.com/san-kum/fluxsim/internal/fluxmod"
	"github.com/san-kum/fluxsim/internal/solver"
)

var _ = Describe("Core", func() {
	Describe("construction", func() {
		It("accepts the built-in strategy names", func() {
			for _, name := range []string{core.SolverStepwise, core.SolverAdaptive, core.SolverSimultaneous} {
				c, err := core.New(name)
				Expect(err).NotTo(HaveOccurred())
				Expect(c.Solver).NotTo(BeNil())
			}
		})

		It("accepts a caller-supplied solver value", func() {
			c, err := core.New(solver.NewBatch())
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Solver).To(BeAssignableToTypeOf(&solver.Batch{}))
		})

		It("rejects an unknown strategy name", func() {
			_, err := core.New("rk2")
			Expect(err).To(MatchError(core.ErrUnknownSolver))
		})

		It("rejects an argument of the wrong type", func() {
			_, err := core.New(42)
			Expect(err).To(MatchError(core.ErrUnknownSolver))
		})
	})

	Describe("lifecycle", func() {
		var c *core.Core

		BeforeEach(func() {
			var err error
			c, err = core.New(core.SolverStepwise)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.SetTime([]float64{0, 1, 2})).To(Succeed())
		})

		It("refuses to assemble without a time axis", func() {
			bare, err := core.New(core.SolverStepwise)
			Expect(err).NotTo(HaveOccurred())
			Expect(bare.Assemble()).To(MatchError(fluxmod.ErrTimeUnset))
		})

		It("refuses to solve before assembling", func() {
			Expect(c.Solve(1)).To(MatchError(core.ErrNotAssembled))
		})

		It("closes registration after assembling", func() {
			_, err := c.AddVariable("x", fluxmod.Scalar(1))
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Assemble()).To(Succeed())

			_, err = c.AddVariable("y", fluxmod.Scalar(0))
			Expect(err).To(MatchError(core.ErrAlreadyAssembled))
			_, err = c.AddParameter("k", fluxmod.Scalar(1))
			Expect(err).To(MatchError(core.ErrAlreadyAssembled))
			Expect(c.BindFlux("x", "f", false)).To(MatchError(core.ErrAlreadyAssembled))
			Expect(c.SetTime([]float64{0, 1})).To(MatchError(core.ErrAlreadyAssembled))
			Expect(c.Assemble()).To(MatchError(core.ErrAlreadyAssembled))
		})

		It("rejects duplicate labels before touching the solver", func() {
			_, err := c.AddVariable("x", fluxmod.Scalar(1))
			Expect(err).NotTo(HaveOccurred())
			_, err = c.AddVariable("x", fluxmod.Scalar(2))
			Expect(err).To(MatchError(fluxmod.ErrDuplicateLabel))

			_, err = c.RegisterFlux("f", func(s, p, fo fluxmod.State) []float64 {
				return []float64{1}
			}, nil)
			Expect(err).NotTo(HaveOccurred())
			_, err = c.RegisterFlux("f", func(s, p, fo fluxmod.State) []float64 {
				return []float64{2}
			}, nil)
			Expect(err).To(MatchError(fluxmod.ErrDuplicateFlux))
		})

		It("resolves series for variables and fluxes only", func() {
			_, err := c.AddVariable("x", fluxmod.Scalar(1))
			Expect(err).NotTo(HaveOccurred())
			_, err = c.RegisterFlux("f", func(s, p, fo fluxmod.State) []float64 {
				return []float64{1}
			}, nil)
			Expect(err).NotTo(HaveOccurred())
			_, err = c.AddParameter("k", fluxmod.Scalar(2))
			Expect(err).NotTo(HaveOccurred())

			Expect(c.Series("x")).NotTo(BeNil())
			Expect(c.Series("f")).NotTo(BeNil())
			_, err = c.Series("k")
			Expect(err).To(MatchError(fluxmod.ErrUnknownLabel))
		})
	})

	Describe("an assembled decay model", func() {
		var c *core.Core

		BeforeEach(func() {
			var err error
			c, err = core.New(core.SolverStepwise)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.SetTime([]float64{0, 1, 2})).To(Succeed())

			_, err = c.AddVariable("biomass", fluxmod.Scalar(2))
			Expect(err).NotTo(HaveOccurred())
			_, err = c.AddParameter("rate", fluxmod.Scalar(0.5))
			Expect(err).NotTo(HaveOccurred())
			_, err = c.RegisterFlux("decay", func(s, p, f fluxmod.State) []float64 {
				return []float64{p["rate"][0] * s["biomass"][0]}
			}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.BindFlux("biomass", "decay", true)).To(Succeed())
			Expect(c.Assemble()).To(Succeed())
		})

		It("halves the biomass once per unit step", func() {
			Expect(c.Solve(1)).To(Succeed())
			Expect(c.Solve(1)).To(Succeed())

			series, err := c.Series("biomass")
			Expect(err).NotTo(HaveOccurred())
			Expect(series.Col(0)).To(HaveLen(3))
			for i, want := range []float64{2, 1, 0.5} {
				Expect(math.Abs(series.Get(i) - want)).To(BeNumerically("<", 1e-12))
			}
		})

		It("records solve wall time on cleanup", func() {
			Expect(c.Solve(1)).To(Succeed())
			Expect(c.Cleanup()).To(Succeed())
			Expect(c.SolveTime()).To(BeNumerically(">", 0))
		})
	})
})
