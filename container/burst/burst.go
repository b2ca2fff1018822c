/*
NAME
  burst.go

DESCRIPTION
  burst.go implements the burst/slot framer (C4): training-sequence sync
  search, burst classification, and data-bit extraction.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package burst slices a demodulated bit/symbol stream into 255-symbol
// TETRA bursts, per spec.md §4.3.
package burst

// BitsPerBurst and SymbolsPerBurst are the fixed TETRA physical-layer
// burst dimensions, per spec.md §3.
const (
	SymbolsPerBurst = 255
	BitsPerBurst    = 510
	DataBitsPerNormalBurst = 216
)

// Kind classifies a burst's logical role, per spec.md §3.
type Kind int

const (
	NormalDownlink Kind = iota
	NormalUplink
	ControlDownlink
	ControlUplink
	Synchronization
	Linearization
)

// Burst is a single 510-bit physical-layer unit occupying one time slot,
// per spec.md §3.
type Burst struct {
	SlotNumber  int
	FrameNumber int
	Kind        Kind
	CrcOK       bool
	DataBits    []byte // 216 bits for Normal bursts; raw pass-through otherwise.
}

// Positioned pairs a Burst with the bit offset in the original stream at
// which it was found.
type Positioned struct {
	Burst  Burst
	Offset int
}

// syncThresholds are tried in order, each used only if the previous
// produced no matches, per spec.md §4.3.
var syncThresholds = []float64{0.75, 0.65, 0.55}

// minRestartGap is the minimum distance, in bits, from a successful match
// before the next search may find another, per spec.md §4.3.
const minRestartGap = 250

// trainingOffset is how far into a burst the training sequence begins,
// per spec.md §4.3.
const trainingOffset = 216

// Framer finds and slices bursts out of a demodulated bit/symbol stream.
type Framer struct{}

// NewFramer returns a ready-to-use Framer. Framer carries no mutable
// state of its own (sync patterns are immutable package-level tables, per
// spec.md §9's "global/singleton configuration" redesign note), so one
// Framer may be shared across goroutines; it is still recommended to keep
// one per logical channel alongside that channel's mac.Parser for
// locality.
func NewFramer() *Framer { return &Framer{} }

// Frame finds training-sequence matches in bits and slices out bursts, per
// spec.md §4.3. symbols must be the dibit stream bits was derived from
// (len(symbols)*2 == len(bits)); it is currently unused beyond that
// invariant but is accepted to keep the contract symmetric with future
// symbol-domain burst attributes.
func (f *Framer) Frame(bits []byte, symbols []byte) []Positioned {
	var out []Positioned

	matches := findSyncMatches(bits)
	if len(matches) == 0 {
		if len(bits) >= BitsPerBurst {
			for off := 0; off+BitsPerBurst <= len(bits); off += BitsPerBurst {
				out = append(out, f.sliceBurst(bits, off))
			}
		}
		return out
	}

	for _, m := range matches {
		anchor := m - trainingOffset
		if anchor < 0 {
			continue
		}
		if anchor+BitsPerBurst > len(bits) {
			continue
		}
		out = append(out, f.sliceBurst(bits, anchor))
	}
	return out
}

// findSyncMatches returns sync-pattern match positions in bits, trying
// successively lower correlation thresholds until one yields results, per
// spec.md §4.3.
func findSyncMatches(bits []byte) []int {
	for _, threshold := range syncThresholds {
		var matches []int
		last := -minRestartGap
		for pos := 0; pos+len(continuousSync) <= len(bits); pos++ {
			if pos-last < minRestartGap {
				continue
			}
			if correlate(bits, pos, continuousSync) >= threshold ||
				correlate(bits, pos, discontinuousSync) >= threshold {
				matches = append(matches, pos)
				last = pos
			}
		}
		if len(matches) > 0 {
			return matches
		}
	}
	return nil
}

// correlate returns the fraction of bits in bits[pos:pos+len(pattern)]
// that agree with pattern.
func correlate(bits []byte, pos int, pattern []byte) float64 {
	if pos+len(pattern) > len(bits) {
		return 0
	}
	matches := 0
	for i, p := range pattern {
		if bits[pos+i] == p {
			matches++
		}
	}
	return float64(matches) / float64(len(pattern))
}

// sliceBurst extracts the burst starting at bit offset off and classifies
// it, extracting data bits per spec.md §4.3.
func (f *Framer) sliceBurst(bits []byte, off int) Positioned {
	end := off + BitsPerBurst
	if end > len(bits) {
		end = len(bits)
	}
	raw := bits[off:end]

	kind := classify(raw)
	data := extractData(raw, kind)

	b := Burst{
		Kind:     kind,
		DataBits: data,
		CrcOK:    checkCRC(data),
	}
	return Positioned{Burst: b, Offset: off}
}

// classify makes a best-effort burst classification from correlation
// against the two training patterns and burst length; spec.md leaves
// slot/frame number derivation to higher layers, so classify only
// distinguishes Normal from Synchronization framing by where the strongest
// training correlation falls.
func classify(raw []byte) Kind {
	if len(raw) < BitsPerBurst {
		return NormalDownlink
	}
	if correlate(raw, 108, syncBurstTraining) > correlate(raw, trainingOffset, continuousSync) {
		return Synchronization
	}
	return NormalDownlink
}

// extractData concatenates the two data blocks for Normal bursts, the
// longer training-adjacent region for Sync bursts, or passes bits through
// unchanged otherwise, per spec.md §4.3.
func extractData(raw []byte, kind Kind) []byte {
	switch kind {
	case NormalDownlink, NormalUplink, ControlDownlink, ControlUplink:
		if len(raw) < 230 {
			return append([]byte(nil), raw...)
		}
		data := make([]byte, 0, DataBitsPerNormalBurst)
		data = append(data, raw[0:108]...)
		data = append(data, raw[122:230]...)
		return data
	case Synchronization:
		if len(raw) < 130 {
			return append([]byte(nil), raw...)
		}
		return append([]byte(nil), raw[108:130]...)
	default:
		return append([]byte(nil), raw...)
	}
}
