package bandit

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// Sampler draws Beta variates for Thompson Sampling. It is safe for
// concurrent use; the mutex serializes access to the underlying PRNG.
// Production passes seed 0 (entropy from the clock); tests pass a fixed
// seed for reproducible distributional checks.
type Sampler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewSampler(seed int64) *Sampler {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Sampler{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// SampleBeta draws one sample from Beta(alpha, beta) as X/(X+Y) with
// X ~ Gamma(alpha), Y ~ Gamma(beta). The uninformed Beta(1,1) prior
// short-circuits to a plain uniform draw.
func (s *Sampler) SampleBeta(alpha, beta float64) float64 {
	if alpha <= 0 || beta <= 0 {
		return 0.5
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if alpha == 1 && beta == 1 {
		return s.rng.Float64()
	}

	x := s.sampleGamma(alpha)
	y := s.sampleGamma(beta)
	if x+y == 0 {
		return 0.5
	}

	return x / (x + y)
}

// sampleGamma draws from Gamma(shape, 1) using Marsaglia-Tsang
// acceptance-rejection. Shape < 1 uses the boost-and-correct identity
// Gamma(a) = Gamma(a+1) * U^(1/a). Caller must hold s.mu.
func (s *Sampler) sampleGamma(shape float64) float64 {
	if shape <= 0 {
		return 0
	}

	if shape < 1 {
		u := s.rng.Float64()
		if u == 0 {
			u = 1e-10
		}
		return s.sampleGamma(1+shape) * math.Pow(u, 1/shape)
	}

	d := shape - 1.0/3.0
	c := 1.0 / math.Sqrt(9.0*d)

	const maxIterations = 1000
	for iter := 0; iter < maxIterations; iter++ {
		x := s.rng.NormFloat64()
		v := 1.0 + c*x
		if v <= 0 {
			continue
		}

		v = v * v * v
		u := s.rng.Float64()

		if u < 1.0-0.0331*(x*x)*(x*x) {
			return d * v
		}

		if u > 0 && math.Log(u) < 0.5*x*x+d*(1.0-v+math.Log(v)) {
			return d * v
		}
	}

	return shape
}
