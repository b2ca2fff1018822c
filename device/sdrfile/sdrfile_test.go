/*
NAME
  sdrfile_test.go

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package sdrfile

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"os"
	"testing"
)

func writeFixture(t *testing.T, pairs [][2]float32) string {
	t.Helper()
	f, err := os.CreateTemp("", "iq-*.bin")
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	for _, p := range pairs {
		var b [8]byte
		binary.LittleEndian.PutUint32(b[0:4], math.Float32bits(p[0]))
		binary.LittleEndian.PutUint32(b[4:8], math.Float32bits(p[1]))
		buf.Write(b[:])
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		t.Fatal(err)
	}
	f.Close()
	return f.Name()
}

func TestReadSamplesNoLoopStopsAtEOF(t *testing.T) {
	path := writeFixture(t, [][2]float32{{1, 2}, {3, 4}})
	defer os.Remove(path)

	s := New(nil, path, false)
	if err := s.Open(); err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	samples, err := s.ReadSamples(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(samples) != 2 {
		t.Fatalf("len(samples) = %d, want 2", len(samples))
	}
	if real(samples[0]) != 1 || imag(samples[0]) != 2 {
		t.Errorf("samples[0] = %v, want (1+2i)", samples[0])
	}
}

func TestReadSamplesLoopsOnEOF(t *testing.T) {
	path := writeFixture(t, [][2]float32{{1, 0}, {2, 0}})
	defer os.Remove(path)

	s := New(nil, path, true)
	if err := s.Open(); err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	samples, err := s.ReadSamples(context.Background(), 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(samples) != 5 {
		t.Fatalf("len(samples) = %d, want 5 (looped)", len(samples))
	}
}

func TestSetSampleRateReportsRequested(t *testing.T) {
	s := New(nil, "", false)
	got, err := s.SetSampleRate(1_800_000)
	if err != nil {
		t.Fatal(err)
	}
	if got != 1_800_000 {
		t.Errorf("got %v, want 1.8e6", got)
	}
}
