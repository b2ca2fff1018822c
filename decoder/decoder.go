/*
NAME
  decoder.go

DESCRIPTION
  decoder.go implements the decode orchestrator (C10): it drives the
  5-stage pipeline of spec.md §4.9 from a tuned IQ source through to a
  typed event stream, per spec.md §5's concurrency model. Lifecycle
  shape — a config-holding struct, an error channel drained by its own
  goroutine, a sync.WaitGroup tracking in-flight stage goroutines, and
  Start/Stop methods — is carried over directly from revid.Revid.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package decoder drives the TETRA decode pipeline end to end: IQ
// samples in, typed events out, per spec.md §4.9.
package decoder

import (
	"context"
	"sync"

	"github.com/tetraear/decoder/config"
	"github.com/tetraear/decoder/device/iq"
	"github.com/tetraear/decoder/event"
	"github.com/tetraear/decoder/keystore"
)

// Decoder drives the decode pipeline: one IQ source, one event bus, and
// the worker goroutines connecting them. Mirrors revid.Revid's
// cfg/err-chan/wg shape, generalized from an A/V transcode pipeline to a
// radio demodulate-and-decode one.
type Decoder struct {
	cfg    config.Config
	source iq.Source
	keys   *keystore.Store
	bus    *event.Bus

	// VoiceDetect decides whether a burst/PDU pair should be routed to
	// the voice codec bridge, per spec.md §9 Open Question 5. Defaults
	// to DefaultVoiceDetect; callers may override for a different
	// heuristic.
	VoiceDetect func(stage stageInput) bool

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	wg      sync.WaitGroup
	err     chan error
}

// New returns a Decoder for source, validating cfg and loading a key
// store from cfg.KeyFile if set.
func New(cfg config.Config, source iq.Source) (*Decoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	d := &Decoder{
		cfg:         cfg,
		source:      source,
		bus:         event.NewBus(cfg.EventQueueCapacity),
		VoiceDetect: DefaultVoiceDetect,
		err:         make(chan error, 1),
	}

	if cfg.KeyFile != "" {
		ks, err := keystore.Load(cfg.KeyFile, cfg.Logger)
		if err != nil {
			return nil, err
		}
		d.keys = ks
	} else {
		d.keys = keystore.Empty()
	}

	go d.handleErrors()
	return d, nil
}

// Events returns the receive side of the decoder's event bus.
func (d *Decoder) Events() <-chan event.Event {
	return d.bus.Events()
}

// handleErrors drains the internal error channel, logging every error
// at Error severity, mirroring revid.Revid.handleErrors.
func (d *Decoder) handleErrors() {
	for err := range d.err {
		if err != nil && d.cfg.Logger != nil {
			d.cfg.Logger.Error("decoder: async error", "error", err.Error())
		}
	}
}

// Start opens the IQ source, tunes it, and launches the pipeline
// goroutines. It returns once the pipeline is running; callers use ctx
// to drive cooperative shutdown (cancel ctx, then call Stop to wait for
// drain).
func (d *Decoder) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return nil
	}

	if err := d.source.Open(); err != nil {
		return err
	}
	if err := d.source.Tune(d.cfg.CenterFreq); err != nil {
		return err
	}
	if _, err := d.source.SetSampleRate(d.cfg.SampleRate); err != nil {
		return err
	}
	if err := d.source.SetGain(d.cfg.Gain, float64(d.cfg.GainDB)); err != nil {
		return err
	}

	d.stop = make(chan struct{})
	d.runPipeline(ctx)
	d.running = true
	return nil
}

// Stop signals the pipeline to drain and exit, then waits for every
// stage goroutine to finish, mirroring revid.Revid.Stop.
func (d *Decoder) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running {
		return
	}
	close(d.stop)
	d.wg.Wait()
	d.source.Close()
	d.bus.Close()
	d.running = false
}
