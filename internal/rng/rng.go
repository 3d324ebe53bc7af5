// Package rng provides the small seeded generator every arborgen component uses.
// Nothing in arborgen draws from global random state: each generation call builds
// its own Source from an explicit seed, so parallel execution order never changes
// the output.
package rng

// Source is a xorshift64* generator. A Source is not safe for concurrent use;
// each task owns its own.
type Source struct {
	state uint64
}

// New returns a Source seeded from seed. Any seed, including zero, is valid.
func New(seed int64) *Source {
	state := mix64(uint64(seed))
	if state == 0 {
		state = 0x9e3779b97f4a7c15
	}
	return &Source{state: state}
}

// Uint64 advances the generator.
func (r *Source) Uint64() uint64 {
	r.state ^= r.state >> 12
	r.state ^= r.state << 25
	r.state ^= r.state >> 27
	return r.state * 0x2545f4914f6cdd1d
}

// Int63 returns a non-negative int64.
func (r *Source) Int63() int64 {
	return int64(r.Uint64() >> 1)
}

// Intn returns a value in [0, n). It returns 0 when n <= 0.
func (r *Source) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(r.Uint64() % uint64(n))
}

// Float64 returns a value in [0, 1).
func (r *Source) Float64() float64 {
	return float64(r.Uint64()>>11) / (1 << 53)
}

// Range returns a value in [lo, hi).
func (r *Source) Range(lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + r.Float64()*(hi-lo)
}

// Symmetric returns a value in [-magnitude, magnitude).
func (r *Source) Symmetric(magnitude float64) float64 {
	if magnitude <= 0 {
		return 0
	}
	return r.Range(-magnitude, magnitude)
}

// Shuffle permutes n elements with Fisher-Yates.
func (r *Source) Shuffle(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		swap(i, j)
	}
}

// Weighted picks an index with probability proportional to weights. Negative
// weights count as zero. It returns -1 when no weight is positive.
func (r *Source) Weighted(weights []float64) int {
	total := 0.0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return -1
	}
	pick := r.Float64() * total
	last := -1
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		last = i
		if pick < w {
			return i
		}
		pick -= w
	}
	return last
}

// Mix derives a child seed from seed and salts. Different salts give
// independent streams for the same parent seed.
func Mix(seed int64, salts ...int64) int64 {
	h := mix64(uint64(seed))
	for _, s := range salts {
		h = mix64(h ^ (uint64(s) + 0x9e3779b97f4a7c15 + (h << 6) + (h >> 2)))
	}
	return int64(h)
}

// mix64 is the splitmix64 finalizer.
func mix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
