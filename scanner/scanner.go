/*
NAME
  scanner.go

DESCRIPTION
  scanner.go implements the carrier scanner (C3): a frequency sweep that
  tunes an IQ source across a range and reports candidate TETRA carriers
  by spectral power and confidence.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package scanner sweeps a tunable IQ source over a frequency range and
// reports detected carriers, per spec.md §4.2.
package scanner

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/stat"

	"github.com/ausocean/utils/logging"
)

// TuneSettleDelay is the minimum delay between successive tune steps, per
// spec.md §4.2.
const TuneSettleDelay = 50 * time.Millisecond

// fftSize is the number of samples captured per tuned frequency.
const fftSize = 4096

// centerFraction is the fraction of the spectrum, centered on DC, counted
// as "in-band" energy for the confidence calculation.
const centerFraction = 0.2

// Source is the minimal subset of the IQ source interface the scanner
// needs: tuning and sampling. See iq.Source (device/iq) for the full
// contract.
type Source interface {
	Tune(hz uint64) error
	ReadSamples(ctx context.Context, n int) ([]complex64, error)
}

// Result describes one detected carrier, per spec.md §3's Scanner Result.
type Result struct {
	FrequencyHz uint64
	PowerDB     float64
	Confidence  float64
}

// Region names preset scan bands, per spec.md §4.2.
type Region string

// Preset regions. Bands are illustrative of typical national TETRA
// allocations and are tunables, not a regulatory database.
const (
	RegionEU Region = "eu"
)

// presetBands are (start, end) Hz pairs per region.
var presetBands = map[Region][][2]uint64{
	RegionEU: {
		{380_000_000, 385_000_000},
		{390_000_000, 395_000_000},
		{410_000_000, 430_000_000},
	},
}

// Scanner drives a frequency sweep over a Source.
type Scanner struct {
	Source Source
	Logger logging.Logger
}

// New returns a Scanner over src, logging via l.
func New(src Source, l logging.Logger) *Scanner {
	return &Scanner{Source: src, Logger: l}
}

// ScanRange sweeps from startHz to endHz in stepHz increments, returning
// every channel whose power and confidence both meet the given thresholds,
// sorted by power descending, per spec.md §4.2.
func (s *Scanner) ScanRange(ctx context.Context, startHz, endHz, stepHz uint64, minPowerDB, minConfidence float64) ([]Result, error) {
	if stepHz == 0 {
		stepHz = 1
	}
	var results []Result
	for f := startHz; f <= endHz; f += stepHz {
		select {
		case <-ctx.Done():
			return results, ctx.Err()
		default:
		}

		if err := s.Source.Tune(f); err != nil {
			if s.Logger != nil {
				s.Logger.Warning("scanner: tune failed", "freq", f, "error", err)
			}
			continue
		}

		select {
		case <-time.After(TuneSettleDelay):
		case <-ctx.Done():
			return results, ctx.Err()
		}

		samples, err := s.Source.ReadSamples(ctx, fftSize)
		if err != nil {
			if s.Logger != nil {
				s.Logger.Warning("scanner: read failed", "freq", f, "error", err)
			}
			continue
		}

		powerDB, confidence := analyze(samples)
		if powerDB >= minPowerDB && confidence >= minConfidence {
			results = append(results, Result{FrequencyHz: f, PowerDB: powerDB, Confidence: confidence})
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].PowerDB > results[j].PowerDB })
	return results, nil
}

// ScanPreset scans the bands defined for region, concatenating results
// across every band, per spec.md §4.2.
func (s *Scanner) ScanPreset(ctx context.Context, region Region, stepHz uint64, minPowerDB, minConfidence float64) ([]Result, error) {
	var all []Result
	for _, band := range presetBands[region] {
		r, err := s.ScanRange(ctx, band[0], band[1], stepHz, minPowerDB, minConfidence)
		if err != nil {
			return all, err
		}
		all = append(all, r...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].PowerDB > all[j].PowerDB })
	return all, nil
}

// analyze computes the peak spectral power in dB and a confidence score in
// [0,1] from a windowed FFT of samples, per spec.md §4.2.
func analyze(samples []complex64) (powerDB, confidence float64) {
	n := len(samples)
	if n == 0 {
		return math.Inf(-1), 0
	}

	win := window.Hamming(n)
	x := make([]complex128, n)
	for i, s := range samples {
		x[i] = complex(float64(real(s))*win[i], float64(imag(s))*win[i])
	}

	spectrum := fft.FFT(x)

	mags := make([]float64, len(spectrum))
	var maxMag, totalEnergy, centerEnergy float64
	centerBins := int(float64(n) * centerFraction / 2)
	for i, c := range spectrum {
		mag := math.Hypot(real(c), imag(c))
		mags[i] = mag
		if mag > maxMag {
			maxMag = mag
		}
		energy := mag * mag
		totalEnergy += energy

		// Bins near index 0 and n-1 are the low-frequency (center) bins
		// after an FFT shift convention where DC sits at index 0.
		bin := i
		if bin > n/2 {
			bin = n - bin
		}
		if bin <= centerBins {
			centerEnergy += energy
		}
	}

	powerDB = 20 * math.Log10(maxMag/float64(n)+1e-12)

	if totalEnergy == 0 {
		return powerDB, 0
	}
	ratio := centerEnergy / totalEnergy

	// Weight the center-energy ratio by how far the peak bin stands out
	// from the bulk of the spectrum, measured in standard deviations of
	// the magnitude distribution: a spectrum with one sharp carrier reads
	// as high confidence even when its center-energy ratio alone is
	// middling, while a flat noise floor is penalised even if some energy
	// happens to fall in the center bins.
	mean := stat.Mean(mags, nil)
	std := stat.StdDev(mags, nil)
	peakiness := 1.0
	if std > 0 {
		z := (maxMag - mean) / std
		peakiness = z / (z + 1)
	}

	confidence = ratio * peakiness
	if confidence > 1 {
		confidence = 1
	}
	if confidence < 0 {
		confidence = 0
	}
	return powerDB, confidence
}
