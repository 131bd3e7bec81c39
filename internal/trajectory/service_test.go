package trajectory_test

import (
	"context"
	"math"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/neodefense/internal/dynamo"
	"github.com/san-kum/neodefense/internal/trajectory"
)

type countingObserver struct {
	mu           sync.Mutex
	propagations int
	corridors    int
}

func (c *countingObserver) ObservePropagation(bool, time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.propagations++
}

func (c *countingObserver) ObserveCorridor(int, int, int, bool, time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.corridors++
}

var _ = Describe("Service", func() {
	var (
		ctx      context.Context
		settings trajectory.Settings
		sv       dynamo.StateVector
		params   dynamo.DeflectionParameters
	)

	BeforeEach(func() {
		ctx = context.Background()
		seed := int64(42)
		settings = trajectory.DefaultSettings()
		settings.Seed = &seed

		var err error
		sv, err = trajectory.FromKilometers([]float64{1.496e8, 0, 0, 0, 29.78, 0})
		Expect(err).NotTo(HaveOccurred())

		params = dynamo.DeflectionParameters{DeltaV: 0.005, InterceptorMass: 500, AsteroidMass: 3.98e11, LeadTimeDays: 700}
	})

	Describe("ComputeHazardCorridor", func() {
		It("returns the requested number of ordered trajectories", func() {
			svc := trajectory.NewService(settings, nil)

			c, err := svc.ComputeHazardCorridor(ctx, sv)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Trajectories).To(HaveLen(8))
			Expect(c.Cancelled).To(BeFalse())
			Expect(c.Warnings()).To(BeNil())
			for i, s := range c.Trajectories {
				Expect(s.SimulationIndex).To(Equal(i))
				Expect(s.Len()).To(Equal(settings.NumPoints))
			}
		})

		It("anchors index 0 to the unperturbed propagation", func() {
			svc := trajectory.NewService(settings, nil)

			c, err := svc.ComputeHazardCorridor(ctx, sv)
			Expect(err).NotTo(HaveOccurred())
			nominal, err := svc.Propagate(ctx, sv)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Trajectories[0].Positions).To(Equal(nominal.Positions))
		})

		It("reproduces a seeded corridor across concurrent callers", func() {
			svc := trajectory.NewService(settings, nil)
			ref, err := svc.ComputeHazardCorridor(ctx, sv)
			Expect(err).NotTo(HaveOccurred())

			results := make([]*dynamo.HazardCorridor, 6)
			var wg sync.WaitGroup
			for i := range results {
				wg.Add(1)
				go func(i int) {
					defer GinkgoRecover()
					defer wg.Done()
					c, err := svc.ComputeHazardCorridor(ctx, sv)
					Expect(err).NotTo(HaveOccurred())
					results[i] = c
				}(i)
			}
			wg.Wait()

			for _, c := range results {
				Expect(c.Trajectories).To(HaveLen(len(ref.Trajectories)))
				for i := range ref.Trajectories {
					Expect(c.Trajectories[i].Positions).To(Equal(ref.Trajectories[i].Positions))
				}
			}
		})

		It("draws fresh noise when no seed is configured", func() {
			settings.Seed = nil
			svc := trajectory.NewService(settings, nil)

			a, err := svc.ComputeHazardCorridor(ctx, sv)
			Expect(err).NotTo(HaveOccurred())
			time.Sleep(time.Millisecond)
			b, err := svc.ComputeHazardCorridor(ctx, sv)
			Expect(err).NotTo(HaveOccurred())

			Expect(a.Trajectories[0].Positions).To(Equal(b.Trajectories[0].Positions))
			Expect(a.Trajectories[1].Positions[0]).NotTo(Equal(b.Trajectories[1].Positions[0]))
		})

		It("is not affected by later changes to the caller's seed", func() {
			seed := int64(42)
			settings.Seed = &seed
			svc := trajectory.NewService(settings, nil)
			before, err := svc.ComputeHazardCorridor(ctx, sv)
			Expect(err).NotTo(HaveOccurred())

			seed = 99
			after, err := svc.ComputeHazardCorridor(ctx, sv)
			Expect(err).NotTo(HaveOccurred())
			Expect(after.Trajectories[3].Positions).To(Equal(before.Trajectories[3].Positions))
			Expect(*svc.Settings().Seed).To(Equal(int64(42)))
		})

		It("rejects an invalid state before doing any work", func() {
			obs := &countingObserver{}
			svc := trajectory.NewService(settings, nil, trajectory.WithObserver(obs))

			_, err := svc.ComputeHazardCorridor(ctx, dynamo.StateVector{R: dynamo.Vec3{math.NaN(), 0, 0}})
			Expect(err).To(MatchError(dynamo.ErrInvalidStateVector))
			Expect(obs.corridors).To(Equal(0))
			Expect(obs.propagations).To(Equal(0))
		})

		It("reports every propagation and run to the observer", func() {
			obs := &countingObserver{}
			svc := trajectory.NewService(settings, nil, trajectory.WithObserver(obs))

			_, err := svc.ComputeHazardCorridor(ctx, sv)
			Expect(err).NotTo(HaveOccurred())
			Expect(obs.corridors).To(Equal(1))
			Expect(obs.propagations).To(Equal(8))
		})

		It("returns cancelled results instead of failing", func() {
			svc := trajectory.NewService(settings, nil)
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			c, err := svc.ComputeHazardCorridor(cctx, sv)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Cancelled).To(BeTrue())
			Expect(len(c.Trajectories)).To(BeNumerically("<=", 8))
		})
	})

	Describe("ComputeSafeTrajectory", func() {
		It("returns a trajectory on the corridor horizon", func() {
			svc := trajectory.NewService(settings, nil)

			traj, err := svc.ComputeSafeTrajectory(ctx, sv, params)
			Expect(err).NotTo(HaveOccurred())
			Expect(traj.Len()).To(Equal(settings.NumPoints))
			Expect(traj.Times[traj.Len()-1]).To(Equal(settings.DurationDays))
		})

		It("slows the body along its velocity", func() {
			svc := trajectory.NewService(settings, nil)
			params.AsteroidMass = 1e5

			res, err := svc.Deflect(ctx, sv, params)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.EffectiveDeltaV).To(BeNumerically(">", 0))
			Expect(res.Perturbed.V.Norm()).To(BeNumerically("<", sv.V.Norm()))
		})

		DescribeTable("boundary rejections",
			func(mutate func(*dynamo.StateVector, *dynamo.DeflectionParameters), want error) {
				s, p := sv, params
				mutate(&s, &p)
				svc := trajectory.NewService(settings, nil)
				_, err := svc.ComputeSafeTrajectory(ctx, s, p)
				Expect(err).To(MatchError(want))
			},
			Entry("zero asteroid mass", func(_ *dynamo.StateVector, p *dynamo.DeflectionParameters) { p.AsteroidMass = 0 }, dynamo.ErrInvalidMass),
			Entry("negative lead time", func(_ *dynamo.StateVector, p *dynamo.DeflectionParameters) { p.LeadTimeDays = -5 }, dynamo.ErrInvalidLeadTime),
			Entry("negative delta-v", func(_ *dynamo.StateVector, p *dynamo.DeflectionParameters) { p.DeltaV = -1 }, dynamo.ErrInvalidDeltaV),
			Entry("zero velocity", func(s *dynamo.StateVector, _ *dynamo.DeflectionParameters) { s.V = dynamo.Vec3{} }, dynamo.ErrUndefinedDeflectionDirection),
			Entry("zero position", func(s *dynamo.StateVector, _ *dynamo.DeflectionParameters) { s.R = dynamo.Vec3{} }, dynamo.ErrInvalidStateVector),
		)
	})

	Describe("RequiredDeltaV", func() {
		It("stays inside the clamp", func() {
			svc := trajectory.NewService(settings, nil)
			for _, lti := range []float64{1, 30, 365, 3650, 36500} {
				dv, err := svc.RequiredDeltaV(6.1e10, lti)
				Expect(err).NotTo(HaveOccurred())
				Expect(dv).To(BeNumerically(">=", 1e-4))
				Expect(dv).To(BeNumerically("<=", 1e-1))
			}
		})
	})
})

var _ = Describe("Boundary conversion", func() {
	It("accepts kilometre vectors and rejects malformed ones", func() {
		_, err := trajectory.FromKilometers([]float64{1, 2, 3})
		Expect(err).To(MatchError(dynamo.ErrInvalidStateVector))

		_, err = trajectory.FromKilometers([]float64{1, 0, 0, math.Inf(1), 0, 0})
		Expect(err).To(MatchError(dynamo.ErrInvalidStateVector))

		_, err = trajectory.FromKilometers([]float64{0, 0, 0, 1, 0, 0})
		Expect(err).To(MatchError(dynamo.ErrInvalidStateVector))
	})

	It("converts AU and AU/day into km and km/s", func() {
		sv, err := trajectory.FromEphemerisAU([]float64{1, 0, 0, 0, 0.0172, 0})
		Expect(err).NotTo(HaveOccurred())
		Expect(sv.R[0]).To(Equal(trajectory.AU))
		Expect(sv.V[1]).To(BeNumerically("~", 29.78, 0.01))

		_, err = trajectory.FromEphemerisAU([]float64{1, 0, 0})
		Expect(err).To(MatchError(dynamo.ErrInvalidStateVector))
	})

	It("builds a state from orbital elements in degrees", func() {
		sv, err := trajectory.FromOrbitalElements(trajectory.ElementsInput{
			SemiMajorAxisAU: 1,
			Eccentricity:    0,
			InclinationDeg:  10,
			NodeDeg:         40,
			PeriapsisDeg:    0,
			TrueAnomalyDeg:  0,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(sv.R.Norm()).To(BeNumerically("~", trajectory.AU, 1e-3))
		Expect(sv.V.Norm()).To(BeNumerically("~", 29.78, 0.01))

		// on the ascending node the body sits in the ecliptic
		Expect(math.Abs(sv.R[2])).To(BeNumerically("<", 1e-3))
		Expect(sv.V[2]).To(BeNumerically(">", 0))
	})

	It("rejects unbound or malformed element sets", func() {
		_, err := trajectory.FromOrbitalElements(trajectory.ElementsInput{SemiMajorAxisAU: 1, Eccentricity: 1.2})
		Expect(err).To(MatchError(dynamo.ErrInvalidStateVector))

		_, err = trajectory.FromOrbitalElements(trajectory.ElementsInput{SemiMajorAxisAU: -1})
		Expect(err).To(MatchError(dynamo.ErrInvalidStateVector))

		_, err = trajectory.FromOrbitalElements(trajectory.ElementsInput{SemiMajorAxisAU: math.NaN()})
		Expect(err).To(MatchError(dynamo.ErrInvalidStateVector))
	})
})
