package trajstat

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// z975 is the 0.975 normal quantile used for 95% confidence bands.
const z975 = 1.959963984540054

// fftLagThreshold is the lag count above which the FFT path is used.
const fftLagThreshold = 16

// ACF computes the empirical autocorrelation function of a up to nlags lags
// (inclusive of lag zero), together with symmetric 95% confidence bands from
// Bartlett's formula. Lags beyond the series length are truncated.
func ACF(a []float64, nlags int) (acf []float64, conf [][2]float64) {
	n := len(a)
	if n == 0 {
		return nil, nil
	}
	if nlags >= n {
		nlags = n - 1
	}
	if nlags < 0 {
		nlags = 0
	}

	var cov []float64
	if nlags > fftLagThreshold {
		cov = autocovarianceFFT(a, nlags)
	} else {
		cov = autocovarianceDirect(a, nlags)
	}

	acf = make([]float64, nlags+1)
	if cov[0] == 0 {
		acf[0] = 1
	} else {
		for k := range acf {
			acf[k] = cov[k] / cov[0]
		}
	}

	// Bartlett: var(r_k) ~= (1 + 2*sum_{j<k} r_j^2) / n, with r_0 exact.
	conf = make([][2]float64, nlags+1)
	cum := 0.0
	for k := 0; k <= nlags; k++ {
		var sd float64
		switch k {
		case 0:
			sd = 0
		case 1:
			sd = math.Sqrt(1 / float64(n))
		default:
			cum += acf[k-1] * acf[k-1]
			sd = math.Sqrt((1 + 2*cum) / float64(n))
		}
		conf[k] = [2]float64{acf[k] - z975*sd, acf[k] + z975*sd}
	}
	return acf, conf
}

// autocovarianceDirect computes biased autocovariances c_k = sum_t d_t
// d_{t+k} / n for k = 0..nlags.
func autocovarianceDirect(a []float64, nlags int) []float64 {
	n := len(a)
	mean := stat.Mean(a, nil)
	d := make([]float64, n)
	for i, v := range a {
		d[i] = v - mean
	}
	cov := make([]float64, nlags+1)
	for k := 0; k <= nlags; k++ {
		cov[k] = floats.Dot(d[:n-k], d[k:]) / float64(n)
	}
	return cov
}

// autocovarianceFFT computes the same autocovariances via a zero-padded FFT.
// Padding to twice the length keeps the circular convolution from wrapping.
func autocovarianceFFT(a []float64, nlags int) []float64 {
	n := len(a)
	mean := stat.Mean(a, nil)
	pad := make([]complex128, 2*n)
	for i, v := range a {
		pad[i] = complex(v-mean, 0)
	}

	fft := fourier.NewCmplxFFT(len(pad))
	fft.Coefficients(pad, pad)
	for i, v := range pad {
		pad[i] = v * complex(real(v), -imag(v))
	}
	fft.Sequence(pad, pad)

	// Sequence leaves the inverse transform unnormalized.
	scale := 1 / float64(len(pad))
	cov := make([]float64, nlags+1)
	for k := 0; k <= nlags; k++ {
		cov[k] = real(pad[k]) * scale / float64(n)
	}
	return cov
}
