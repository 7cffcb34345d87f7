package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// Magnitudes returns |DFT(window)| for every bin, full length, unwindowed.
func Magnitudes(window []float64) []float64 {
	if len(window) == 0 {
		return []float64{}
	}
	coeffs := fft.FFTReal(window)
	mags := make([]float64, len(coeffs))
	for i, c := range coeffs {
		mags[i] = cmplx.Abs(c)
	}
	return mags
}

// PeakBin returns the absolute index of the largest magnitude in [lo, hi),
// clamped to the spectrum. Ties resolve to the lowest index. ok is false
// when the clamped range is empty.
func PeakBin(mags []float64, lo, hi int) (bin int, ok bool) {
	if lo < 0 {
		lo = 0
	}
	if hi > len(mags) {
		hi = len(mags)
	}
	if lo >= hi {
		return 0, false
	}

	bin = lo
	for i := lo + 1; i < hi; i++ {
		if mags[i] > mags[bin] {
			bin = i
		}
	}
	return bin, true
}

// BinHz converts a bin index to frequency for a window of n samples at rate.
func BinHz(bin int, rate float64, n int) float64 {
	if n <= 0 {
		return 0
	}
	return float64(bin) * rate / float64(n)
}
