/*
NAME
  dsp_test.go

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
	"testing"
)

// TestProcessSymbolCount checks the invariant from spec.md §8:
// |process(b).symbols| ~= |b| * 18000/sample_rate, within +-1.
func TestProcessSymbolCount(t *testing.T) {
	const sampleRate = 1_800_000.0 // 100 samples/symbol.
	iq := make([]complex64, 100_000)
	for i := range iq {
		iq[i] = complex(float32(math.Cos(float64(i))), float32(math.Sin(float64(i))))
	}

	p := NewProcessor(sampleRate)
	symbols, bits := p.Process(iq)

	want := float64(len(iq)) * SymbolRateHz / sampleRate
	if math.Abs(float64(len(symbols))-want) > 1 {
		t.Errorf("len(symbols) = %d, want ~%.0f", len(symbols), want)
	}
	if len(bits) != len(symbols)*2 {
		t.Errorf("len(bits) = %d, want %d", len(bits), len(symbols)*2)
	}
}

func TestProcessEmptyInput(t *testing.T) {
	p := NewProcessor(1_800_000)
	symbols, bits := p.Process(nil)
	if len(symbols) != 0 || len(bits) != 0 {
		t.Errorf("expected empty output for empty input, got %d symbols", len(symbols))
	}
}

func TestProcessShortInput(t *testing.T) {
	p := NewProcessor(1_800_000)
	// Non-integer samples, so the input is not taken for pre-decided symbols.
	symbols, _ := p.Process([]complex64{complex(0.5, 0.5), complex(-0.5, 0.5)})
	if len(symbols) != 0 {
		t.Errorf("expected empty output for sub-symbol-period input, got %d symbols", len(symbols))
	}
}

func TestProcessPassesThroughPreDecidedSymbols(t *testing.T) {
	p := NewProcessor(1_800_000)
	iq := []complex64{0, 1, 2, 3, 0, 1}
	symbols, bits := p.Process(iq)
	want := []byte{0, 1, 2, 3, 0, 1}
	if len(symbols) != len(want) {
		t.Fatalf("len(symbols) = %d, want %d", len(symbols), len(want))
	}
	for i := range want {
		if symbols[i] != want[i] {
			t.Errorf("symbols[%d] = %d, want %d", i, symbols[i], want[i])
		}
	}
	if len(bits) != len(want)*2 {
		t.Errorf("len(bits) = %d, want %d", len(bits), len(want)*2)
	}
}

// TestSymbolBitRoundTrip checks the round-trip property from spec.md §8:
// symbol-to-bit mapping then bit-to-symbol reconstruction recovers the
// same symbol integers for values in {0,1,2,3}.
func TestSymbolBitRoundTrip(t *testing.T) {
	for s := byte(0); s < 4; s++ {
		bits := symbolsToBits([]byte{s})
		reconstructed := bits[0]<<1 | bits[1]
		if reconstructed != s {
			t.Errorf("symbol %d round-tripped to %d", s, reconstructed)
		}
	}
}
