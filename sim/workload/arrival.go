package workload

import (
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"
)

// ArrivalSampler generates inter-arrival gaps for the visitor stream.
type ArrivalSampler interface {
	// SampleGap returns the next inter-arrival gap in fractional simulated
	// minutes. Always returns a positive value, so the plan clock advances.
	SampleGap(rng *rand.Rand) float64
}

// minGap keeps degenerate samples from stalling plan generation.
const minGap = 1e-6

// PoissonSampler generates exponentially-distributed gaps (CV=1), the
// classic model for independent walk-up arrivals.
type PoissonSampler struct {
	rate float64 // parties per simulated minute
}

func (s *PoissonSampler) SampleGap(rng *rand.Rand) float64 {
	gap := rng.ExpFloat64() / s.rate
	if gap < minGap {
		return minGap
	}
	return gap
}

// GammaSampler generates Gamma-distributed gaps. CV > 1 produces bursty
// arrivals, the tour-bus pattern: long lulls punctuated by clumps.
// Implemented with Marsaglia-Tsang's method for shape >= 1, with the
// Ahrens-Dieter transformation for shape < 1.
type GammaSampler struct {
	shape float64 // 1/CV² (alpha parameter)
	scale float64 // CV²/rate in minutes (beta parameter)
}

func (s *GammaSampler) SampleGap(rng *rand.Rand) float64 {
	gap := gammaRand(rng, s.shape, s.scale)
	if gap < minGap {
		return minGap
	}
	return gap
}

// gammaRand samples from Gamma(shape, scale) using Marsaglia-Tsang's method.
// For shape >= 1: direct method.
// For shape < 1: Gamma(shape) = Gamma(shape+1) * U^(1/shape).
func gammaRand(rng *rand.Rand, shape, scale float64) float64 {
	if shape < 1.0 {
		// Ahrens-Dieter: Gamma(a) = Gamma(a+1) * U^(1/a)
		u := rng.Float64()
		return gammaRand(rng, shape+1.0, scale) * math.Pow(u, 1.0/shape)
	}

	// Marsaglia-Tsang for shape >= 1
	d := shape - 1.0/3.0
	c := 1.0 / math.Sqrt(9.0*d)

	for {
		var x, v float64
		for {
			x = rng.NormFloat64()
			v = 1.0 + c*x
			if v > 0 {
				break
			}
		}
		v = v * v * v
		u := rng.Float64()

		// Squeeze test
		if u < 1.0-0.0331*(x*x)*(x*x) {
			return d * v * scale
		}
		if math.Log(u) < 0.5*x*x+d*(1.0-v+math.Log(v)) {
			return d * v * scale
		}
	}
}

// WeibullSampler generates Weibull-distributed gaps.
type WeibullSampler struct {
	shape float64 // Weibull k parameter
	scale float64 // Weibull λ parameter (in minutes)
}

func (s *WeibullSampler) SampleGap(rng *rand.Rand) float64 {
	// Inverse CDF: scale * (-ln(U))^(1/shape)
	u := rng.Float64()
	if u == 0 {
		u = math.SmallestNonzeroFloat64 // prevent -ln(0) = +Inf
	}
	gap := s.scale * math.Pow(-math.Log(u), 1.0/s.shape)
	if gap < minGap {
		return minGap
	}
	return gap
}

// ConstantSampler emits arrivals on a fixed cadence, one party every 1/rate
// minutes. Useful for deterministic load tests.
type ConstantSampler struct {
	gap float64
}

func (s *ConstantSampler) SampleGap(_ *rand.Rand) float64 {
	return s.gap
}

// NewArrivalSampler creates an ArrivalSampler from a spec and a rate in
// parties per simulated minute.
func NewArrivalSampler(spec ArrivalSpec, rate float64) ArrivalSampler {
	// rate is floored so the 1/rate terms below stay finite
	if rate < 1e-12 {
		rate = 1e-12
	}
	switch spec.Process {
	case "poisson":
		return &PoissonSampler{rate: rate}

	case "gamma":
		cv := 1.0
		if spec.CV != nil {
			cv = *spec.CV
		}
		if cv <= 0 {
			cv = 1.0
		}
		// shape = 1/CV², scale = mean * CV² = (1/rate) * CV²
		shape := 1.0 / (cv * cv)
		mean := 1.0 / rate
		scale := mean * cv * cv
		if shape < 0.01 {
			logrus.Warnf("Gamma shape %.4f (CV=%.1f) is very small; falling back to Poisson", shape, cv)
			return &PoissonSampler{rate: rate}
		}
		return &GammaSampler{shape: shape, scale: scale}

	case "weibull":
		cv := 1.0
		if spec.CV != nil {
			cv = *spec.CV
		}
		if cv <= 0 {
			cv = 1.0
		}
		mean := 1.0 / rate
		k := weibullShapeFromCV(cv)
		// scale = mean / Γ(1 + 1/k)
		scale := mean / math.Gamma(1.0+1.0/k)
		return &WeibullSampler{shape: k, scale: scale}

	case "constant":
		return &ConstantSampler{gap: 1.0 / rate}

	default:
		// Validate rejects unknown processes before this point
		return &PoissonSampler{rate: rate}
	}
}

// weibullShapeFromCV finds Weibull shape parameter k such that
// CV² = Γ(1+2/k)/Γ(1+1/k)² - 1, using bisection.
// Range: k ∈ [0.1, 100], tolerance: |CV_computed - CV_target| < 0.001.
// Max 100 iterations; logs warning if convergence fails.
func weibullShapeFromCV(targetCV float64) float64 {
	lo, hi := 0.1, 100.0
	for i := 0; i < 100; i++ {
		mid := (lo + hi) / 2.0
		cv := weibullCV(mid)
		if math.Abs(cv-targetCV) < 0.001 {
			return mid
		}
		// CV is monotonically decreasing in k
		if cv > targetCV {
			lo = mid
		} else {
			hi = mid
		}
	}
	logrus.Warnf("weibullShapeFromCV: bisection did not converge for CV=%.3f after 100 iterations; using k=%.3f", targetCV, (lo+hi)/2.0)
	return (lo + hi) / 2.0
}

// weibullCV computes the coefficient of variation for Weibull(k).
func weibullCV(k float64) float64 {
	g1 := math.Gamma(1.0 + 1.0/k)
	g2 := math.Gamma(1.0 + 2.0/k)
	return math.Sqrt(g2/(g1*g1) - 1.0)
}
