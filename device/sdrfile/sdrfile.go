/*
NAME
  sdrfile.go

DESCRIPTION
  sdrfile.go implements iq.Source by replaying interleaved float32 I/Q
  samples from a file, the only concrete IQ source this module ships
  since real SDR hardware is an external collaborator (spec.md §1).
  State handling (a mutex-guarded mode plus Open/Close/Start-shaped
  lifecycle) follows device/alsa.ALSA's pattern of a small explicit state
  machine guarded by sync.Mutex.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package sdrfile provides a file-backed iq.Source for tests and offline
// replay, per spec.md §9's note that real SDR hardware is a host
// responsibility.
package sdrfile

import (
	"context"
	"encoding/binary"
	"io"
	"math"
	"os"
	"sync"

	"github.com/ausocean/utils/logging"
	"github.com/pkg/errors"

	"github.com/tetraear/decoder/config"
)

const (
	closed = iota
	open
)

// Source replays interleaved little-endian float32 I/Q pairs from a file
// as complex64 samples, optionally looping back to the start on EOF so
// longer scans can be exercised against a short fixture.
type Source struct {
	l    logging.Logger
	path string

	mu         sync.Mutex
	mode       int
	f          *os.File
	sampleRate float64
	centerHz   uint64
	loop       bool
}

// New returns a Source reading from path. loop controls whether
// ReadSamples wraps back to the start of the file on EOF (useful for
// scanner sweeps that need more samples than a short fixture contains).
func New(l logging.Logger, path string, loop bool) *Source {
	return &Source{l: l, path: path, loop: loop, sampleRate: 2_000_000}
}

// Open opens the backing file.
func (s *Source) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == open {
		return nil
	}
	f, err := os.Open(s.path)
	if err != nil {
		return errors.Wrap(err, "sdrfile: open")
	}
	s.f = f
	s.mode = open
	return nil
}

// Close closes the backing file.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != open {
		return nil
	}
	err := s.f.Close()
	s.mode = closed
	return err
}

// Tune is a no-op for a replay source beyond recording the requested
// frequency; a file fixture has no real spectrum to retune.
func (s *Source) Tune(hz uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.centerHz = hz
	return nil
}

// SetGain is a no-op for a replay source.
func (s *Source) SetGain(mode config.GainMode, db float64) error {
	return nil
}

// SetSampleRate records the requested rate and reports it back
// unchanged, since a file fixture has no hardware rate to negotiate.
func (s *Source) SetSampleRate(hz float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sampleRate = hz
	return hz, nil
}

// ReadSamples reads n complex64 samples from the file, interpreting it
// as pairs of little-endian float32 (I, Q). On EOF: if loop is set, it
// seeks back to the start and continues; otherwise it returns whatever
// samples it managed to read before EOF with a nil error, in keeping
// with spec.md §7's "never fail on a single malformed/short read."
func (s *Source) ReadSamples(ctx context.Context, n int) ([]complex64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != open {
		return nil, errors.New("sdrfile: not open")
	}

	out := make([]complex64, 0, n)
	buf := make([]byte, 8)
	for len(out) < n {
		select {
		case <-ctx.Done():
			return out, ctx.Err()
		default:
		}

		if _, err := io.ReadFull(s.f, buf); err != nil {
			if err != io.EOF && err != io.ErrUnexpectedEOF {
				return out, errors.Wrap(err, "sdrfile: read")
			}
			if !s.loop {
				return out, nil
			}
			if _, seekErr := s.f.Seek(0, io.SeekStart); seekErr != nil {
				return out, errors.Wrap(seekErr, "sdrfile: seek")
			}
			continue
		}

		i := math.Float32frombits(binary.LittleEndian.Uint32(buf[0:4]))
		q := math.Float32frombits(binary.LittleEndian.Uint32(buf[4:8]))
		out = append(out, complex(i, q))
	}
	return out, nil
}
