package field_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/popdyn/internal/dynamo"
	"github.com/san-kum/popdyn/internal/expr"
	"github.com/san-kum/popdyn/internal/field"
)

var _ = Describe("Evaluate", func() {
	circular := field.Request{DX: "-y", DY: "x", RangeX: 3, RangeY: 3, Mesh: 20}

	Context("with the circular field", func() {
		var s *field.Sample

		BeforeEach(func() {
			var err error
			s, err = field.Evaluate(circular)
			Expect(err).NotTo(HaveOccurred())
		})

		It("samples the whole mesh", func() {
			Expect(s.Len()).To(Equal(400))
			Expect(s.X[0]).To(Equal(-3.0))
			Expect(s.Y[0]).To(Equal(-3.0))
			Expect(s.X[19]).To(Equal(3.0))
			Expect(s.Y[399]).To(Equal(3.0))
		})

		It("normalizes every direction", func() {
			for i := 0; i < s.Len(); i++ {
				Expect(math.Hypot(s.U[i], s.V[i])).To(BeNumerically("~", 1, 1e-6))
			}
		})

		It("is tangential to circles around the origin", func() {
			for i := 0; i < s.Len(); i++ {
				Expect(s.U[i]*s.X[i] + s.V[i]*s.Y[i]).To(BeNumerically("~", 0, 1e-9))
				Expect(s.Magnitude[i]).To(BeNumerically("~", math.Hypot(s.X[i], s.Y[i]), 1e-12))
			}
		})

		It("is symmetric under a quarter turn", func() {
			n := s.Mesh
			for i := 0; i < n; i++ {
				for j := 0; j < n; j++ {
					// (x_j, y_i) maps to (-y_i, x_j), which is column n-1-i of row j.
					a := i*n + j
					b := j*n + (n - 1 - i)
					Expect(s.Magnitude[b]).To(BeNumerically("~", s.Magnitude[a], 1e-12))
					Expect(s.U[b]).To(BeNumerically("~", -s.V[a], 1e-9))
					Expect(s.V[b]).To(BeNumerically("~", s.U[a], 1e-9))
				}
			}
		})

		It("draws segments of a fixed length", func() {
			Expect(s.SegmentLength).To(BeNumerically("~", 0.12, 1e-12))
			x0, y0, x1, y1 := s.Segment(7)
			Expect(math.Hypot(x1-x0, y1-y0)).To(BeNumerically("~", 0.12, 1e-6))
		})
	})

	It("sizes segments from the x range only", func() {
		req := circular
		req.RangeY = 30
		s, err := field.Evaluate(req)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.SegmentLength).To(BeNumerically("~", 0.12, 1e-12))
	})

	It("leaves stationary points at zero", func() {
		s, err := field.Evaluate(field.Request{DX: "x", DY: "y", RangeX: 1, RangeY: 1, Mesh: 3})
		Expect(err).NotTo(HaveOccurred())
		Expect(s.U[4]).To(Equal(0.0))
		Expect(s.V[4]).To(Equal(0.0))
	})

	It("accepts the dashboard's numpy spelling", func() {
		s, err := field.Evaluate(field.Request{DX: "np.sin(y)", DY: "np.cos(x)", RangeX: 2, RangeY: 2, Mesh: 10})
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Len()).To(Equal(100))
	})

	DescribeTable("reports expression errors",
		func(dx, dy, label, fragment string) {
			s, err := field.Evaluate(field.Request{DX: dx, DY: dy, RangeX: 1, RangeY: 1, Mesh: 3})
			Expect(s).To(BeNil())
			Expect(errors.Is(err, dynamo.ErrExpression)).To(BeTrue())
			var eerr *expr.Error
			Expect(errors.As(err, &eerr)).To(BeTrue())
			Expect(err.Error()).To(HavePrefix(label))
			Expect(eerr.Msg).To(ContainSubstring(fragment))
		},
		Entry("code injection", "__import__('os')", "x", "dx/dt", "not allowed"),
		Entry("unknown symbol", "x", "open(y)", "dy/dt", "not allowed"),
		Entry("syntax", "x +", "y", "dx/dt", "end of input"),
		Entry("division by zero", "1/x", "y", "dx/dt", "non-finite"),
		Entry("log of negative", "x", "log(y)", "dy/dt", "non-finite"),
	)

	DescribeTable("rejects invalid grids",
		func(mutate func(*field.Request), name string) {
			req := circular
			mutate(&req)
			_, err := field.Evaluate(req)
			var perr *dynamo.ParameterError
			Expect(errors.As(err, &perr)).To(BeTrue())
			Expect(perr.Name).To(Equal(name))
		},
		Entry("mesh too small", func(r *field.Request) { r.Mesh = 1 }, "mesh"),
		Entry("mesh too large", func(r *field.Request) { r.Mesh = field.MaxMesh + 1 }, "mesh"),
		Entry("zero range", func(r *field.Request) { r.RangeX = 0 }, "range_x"),
		Entry("infinite range", func(r *field.Request) { r.RangeY = math.Inf(1) }, "range_y"),
	)
})

var _ = Describe("System", func() {
	It("derives the field at a state", func() {
		sys, err := field.Parse("-y", "x")
		Expect(err).NotTo(HaveOccurred())
		Expect(sys.StateDim()).To(Equal(2))
		dx := sys.Derive(dynamo.State{1, 0}, 0)
		Expect(dx[0]).To(BeNumerically("~", 0, 1e-15))
		Expect(dx[1]).To(Equal(1.0))
	})

	It("propagates parse errors", func() {
		_, err := field.Parse("x", "y z")
		Expect(errors.Is(err, dynamo.ErrExpression)).To(BeTrue())
	})
})
