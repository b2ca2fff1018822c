/*
NAME
  iq.go

DESCRIPTION
  iq.go defines Source, the host-provided interface over a tunable
  radio front end, per spec.md §6. This generalizes device.AVDevice
  (Name/Set/Start/Stop/IsRunning plus io.Reader) from a byte-stream A/V
  capture device to a complex-sample source with tune/gain/sample-rate
  controls, the shape device/alsa.ALSA's Config-driven Setup/Start/Stop
  lifecycle already follows for audio.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package iq defines the tunable IQ sample source interface that drives
// the decode pipeline's input stage, per spec.md §6.
package iq

import (
	"context"

	"github.com/tetraear/decoder/config"
)

// Source is the host-provided radio front end, per spec.md §6's external
// interface: open/close, tune, gain, sample rate and blocking sample
// reads. Within the decoder the device is exclusively owned by the I/O
// stage: Decoder.Start tunes it once before the stage goroutines run, and
// nothing retunes it while the pipeline is running.
type Source interface {
	// Open prepares the device for use.
	Open() error

	// Close releases the device.
	Close() error

	// Tune retunes the device's center frequency to hz.
	Tune(hz uint64) error

	// SetGain selects automatic or fixed-dB gain, per mode.
	SetGain(mode config.GainMode, db float64) error

	// SetSampleRate requests hz as the sample rate and returns the
	// actual rate the device settled on.
	SetSampleRate(hz float64) (actual float64, err error)

	// ReadSamples blocks until n complex samples are available, ctx is
	// cancelled, or the device fails.
	ReadSamples(ctx context.Context, n int) ([]complex64, error)
}
