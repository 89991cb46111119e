package epidemic_test

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/popdyn/internal/dynamo"
	"github.com/san-kum/popdyn/internal/epidemic"
	"github.com/san-kum/popdyn/internal/integrators"
)

func classicSIR() epidemic.Params {
	return epidemic.Params{Kind: epidemic.KindSIR, N: 1000, Beta: 0.3, Gamma: 0.1, I0: 1, TMax: 100}
}

func classicSEIR() epidemic.Params {
	return epidemic.Params{Kind: epidemic.KindSEIR, N: 1000, Beta: 0.5, Gamma: 0.1, Sigma: 0.2, I0: 1, E0: 5, TMax: 160}
}

var _ = Describe("Derivatives", func() {
	It("sums to zero for SIR", func() {
		m := epidemic.NewSIR(1000, 0.3, 0.1)
		dx := m.Derive(dynamo.State{700, 200, 100}, 0)
		Expect(dx.Sum()).To(BeNumerically("~", 0, 1e-12))
		Expect(dx[0]).To(BeNumerically("~", -0.3*700*200/1000.0, 1e-12))
		Expect(dx[2]).To(BeNumerically("~", 20, 1e-12))
	})

	It("sums to zero for SEIR", func() {
		m := epidemic.NewSEIR(1000, 0.5, 0.1, 0.2)
		dx := m.Derive(dynamo.State{600, 100, 200, 100}, 0)
		Expect(dx.Sum()).To(BeNumerically("~", 0, 1e-12))
		Expect(dx[1]).To(BeNumerically("~", 0.5*600*200/1000.0-20, 1e-12))
	})

	It("labels compartments in state order", func() {
		Expect(epidemic.NewSIR(1, 0, 0).Labels()).To(Equal([]string{"S", "I", "R"}))
		Expect(epidemic.NewSEIR(1, 0, 0, 1).Labels()).To(Equal([]string{"S", "E", "I", "R"}))
	})

	It("rejects unknown parameters", func() {
		err := epidemic.NewSIR(1, 0, 0).SetParam("sigma", 1)
		Expect(errors.Is(err, dynamo.ErrInvalidParameter)).To(BeTrue())
	})
})

var _ = Describe("Solve", func() {
	ctx := context.Background()

	DescribeTable("conserves the total population",
		func(p epidemic.Params) {
			out, err := epidemic.Solve(ctx, p, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Times).To(HaveLen(epidemic.DefaultSamples))
			for _, total := range out.Total() {
				Expect(math.Abs(total-p.N) / p.N).To(BeNumerically("<=", 1e-3))
			}
			Expect(out.Metrics["conservation_drift"]).To(BeNumerically("<=", 1e-3))
		},
		Entry("SIR classic", classicSIR()),
		Entry("SEIR classic", classicSEIR()),
		Entry("rumor with initial skeptics", epidemic.Params{Kind: epidemic.KindSIR, N: 275, Beta: 0.004 * 275, Gamma: 0.01, I0: 1, R0: 8, TMax: 50}),
		Entry("no infection", epidemic.Params{Kind: epidemic.KindSIR, N: 500, Beta: 0.3, Gamma: 0.1, TMax: 10}),
	)

	It("produces a single SIR peak inside the horizon", func() {
		p := classicSIR()
		out, err := epidemic.Solve(ctx, p, nil)
		Expect(err).NotTo(HaveOccurred())

		infected := out.Compartments["I"]
		peak := infected.ArgMax()
		Expect(peak).To(BeNumerically(">", 0))
		Expect(peak).To(BeNumerically("<", infected.Len()-1))
		Expect(out.Times[peak]).To(BeNumerically(">", 0))
		Expect(out.Times[peak]).To(BeNumerically("<", p.TMax))

		slack := 1e-6 * p.N
		for k := 1; k <= peak; k++ {
			Expect(infected.Values[k]).To(BeNumerically(">=", infected.Values[k-1]-slack))
		}
		for k := peak + 1; k < infected.Len(); k++ {
			Expect(infected.Values[k]).To(BeNumerically("<=", infected.Values[k-1]+slack))
		}

		Expect(out.Metrics["peak_time"]).To(Equal(out.Times[peak]))
		Expect(out.Metrics["peak_infected"]).To(Equal(infected.Values[peak]))
		Expect(out.Metrics["basic_reproduction"]).To(BeNumerically("~", 3, 1e-12))
	})

	It("starts at the initial compartments", func() {
		p := classicSEIR()
		out, err := epidemic.Solve(ctx, p, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Names).To(Equal([]string{"S", "E", "I", "R"}))
		Expect(out.Compartments["S"].Values[0]).To(Equal(994.0))
		Expect(out.Compartments["E"].Values[0]).To(Equal(5.0))
		Expect(out.Times[len(out.Times)-1]).To(Equal(p.TMax))
	})

	It("is deterministic for identical inputs", func() {
		a, err := epidemic.Solve(ctx, classicSIR(), nil)
		Expect(err).NotTo(HaveOccurred())
		b, err := epidemic.Solve(ctx, classicSIR(), nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(a.Compartments).To(Equal(b.Compartments))
	})

	It("agrees with a fixed-step RK4 run", func() {
		rk45, err := epidemic.Solve(ctx, classicSIR(), nil)
		Expect(err).NotTo(HaveOccurred())
		rk4, err := epidemic.Solve(ctx, classicSIR(), integrators.NewFixed("rk4", integrators.NewRK4(), 10))
		Expect(err).NotTo(HaveOccurred())
		Expect(rk4.Solver).To(Equal("rk4"))
		Expect(rk45.Metrics["peak_infected"]).To(BeNumerically("~", rk4.Metrics["peak_infected"], 5))
		Expect(rk45.Metrics["peak_time"]).To(BeNumerically("~", rk4.Metrics["peak_time"], 1))
	})

	DescribeTable("rejects invalid parameters before integrating",
		func(mutate func(*epidemic.Params), name string) {
			p := classicSEIR()
			mutate(&p)
			out, err := epidemic.Solve(ctx, p, nil)
			Expect(out).To(BeNil())
			Expect(errors.Is(err, dynamo.ErrInvalidParameter)).To(BeTrue())
			var perr *dynamo.ParameterError
			Expect(errors.As(err, &perr)).To(BeTrue())
			Expect(perr.Name).To(Equal(name))
		},
		Entry("zero population", func(p *epidemic.Params) { p.N = 0 }, "N"),
		Entry("negative beta", func(p *epidemic.Params) { p.Beta = -0.1 }, "beta"),
		Entry("negative gamma", func(p *epidemic.Params) { p.Gamma = -1 }, "gamma"),
		Entry("missing sigma", func(p *epidemic.Params) { p.Sigma = 0 }, "sigma"),
		Entry("seeds exceed N", func(p *epidemic.Params) { p.I0 = 600; p.E0 = 600 }, "I0"),
		Entry("NaN rate", func(p *epidemic.Params) { p.Beta = math.NaN() }, "beta"),
		Entry("zero horizon", func(p *epidemic.Params) { p.TMax = 0 }, "t_max"),
		Entry("one sample", func(p *epidemic.Params) { p.Samples = 1 }, "samples"),
		Entry("too many samples", func(p *epidemic.Params) { p.Samples = 1 << 40 }, "samples"),
	)

	It("rejects unknown kinds", func() {
		_, err := epidemic.ParseKind("sis")
		Expect(errors.Is(err, dynamo.ErrInvalidParameter)).To(BeTrue())
		k, err := epidemic.ParseKind(" SEIR ")
		Expect(err).NotTo(HaveOccurred())
		Expect(k).To(Equal(epidemic.KindSEIR))
	})

	It("surfaces integration failures", func() {
		solver := integrators.NewRK45()
		solver.MaxSteps = 3
		_, err := epidemic.Solve(ctx, classicSIR(), solver)
		Expect(errors.Is(err, dynamo.ErrIntegration)).To(BeTrue())
		Expect(errors.Is(err, dynamo.ErrMaxSteps)).To(BeTrue())
	})

	It("honours cancellation", func() {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := epidemic.Solve(cancelled, classicSIR(), nil)
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
	})
})

var _ = Describe("FromMassAction", func() {
	It("scales the contact rate by N", func() {
		beta, gamma := epidemic.FromMassAction(7138, 1.0/7138, 0.4)
		Expect(beta).To(BeNumerically("~", 1, 1e-12))
		Expect(gamma).To(Equal(0.4))
	})
})
