/*
NAME
  filters.go

DESCRIPTION
  filters.go builds the windowed-sinc low-pass filter used ahead of timing
  recovery, and convolves it against a complex baseband signal. Adapted
  from the windowed-sinc design in codec/pcm/filters.go, generalized from
  real-valued PCM audio to complex-valued IQ.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package dsp

import (
	"math"

	"github.com/mjibson/go-dsp/window"
)

// lowPassCoeffs returns taps+1 windowed-sinc FIR coefficients for a
// low-pass filter with cutoff cutoffHz at sample rate sampleRate, using a
// flat-top window, the same construction codec/pcm.newLoHiFilter uses for
// PCM audio filtering.
func lowPassCoeffs(cutoffHz, sampleRate float64, taps int) []float64 {
	if cutoffHz <= 0 || cutoffHz >= sampleRate/2 || taps <= 0 {
		// Fall back to a no-op (identity) filter rather than failing the
		// whole pipeline over a bad bandwidth configuration.
		return []float64{1}
	}

	fd := cutoffHz / sampleRate
	size := taps + 1
	coeffs := make([]float64, size)
	b := 2 * math.Pi * fd
	winData := window.FlatTop(size)
	for n := 0; n < taps/2; n++ {
		c := float64(n) - float64(taps)/2
		y := math.Sin(c*b) / (math.Pi * c)
		coeffs[n] = y * winData[n]
		coeffs[size-1-n] = coeffs[n]
	}
	coeffs[taps/2] = 2 * fd * winData[taps/2]
	return coeffs
}

// convolveComplex convolves a complex signal with a real-valued filter
// kernel, returning a "same"-length result (the kernel's group delay is
// not compensated for, since timing recovery only needs relative symbol
// spacing, not absolute sample alignment).
func convolveComplex(x []complex128, kernel []float64) []complex128 {
	if len(kernel) == 0 {
		return x
	}
	out := make([]complex128, len(x))
	half := len(kernel) / 2
	for i := range x {
		var sum complex128
		for k, c := range kernel {
			j := i + k - half
			if j < 0 || j >= len(x) {
				continue
			}
			sum += x[j] * complex(c, 0)
		}
		out[i] = sum
	}
	return out
}
