package filter

// Kalman is a scalar recursive estimator. It blends each noisy measurement
// into a running estimate, weighted by the current estimate uncertainty.
// One instance per signal: the covariance state is not shareable.
type Kalman struct {
	q float64 // process noise
	r float64 // measurement noise, must be > 0
	p float64 // estimate covariance
	k float64 // last gain
	x float64 // current estimate
}

// NewKalman creates a filter with process noise q, measurement noise r and
// initial covariance p0. r must be greater than zero; the filter does not
// check it.
func NewKalman(q, r, p0 float64) *Kalman {
	return &Kalman{
		q: q,
		r: r,
		p: p0,
	}
}

// Update feeds one measurement and returns the new estimate.
func (f *Kalman) Update(measurement float64) float64 {
	f.p += f.q
	f.k = f.p / (f.p + f.r)
	f.x += f.k * (measurement - f.x)
	f.p = (1 - f.k) * f.p
	return f.x
}

// Estimate returns the current estimate without feeding a measurement.
func (f *Kalman) Estimate() float64 {
	return f.x
}

// Gain returns the gain used by the last Update call.
func (f *Kalman) Gain() float64 {
	return f.k
}
