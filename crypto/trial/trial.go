/*
NAME
  trial.go

DESCRIPTION
  trial.go implements the crypto trial engine (C7): it attempts to decrypt
  a MAC PDU's payload against a keystore, a built-in list of known-weak
  default keys, a BYPASS (clear) hypothesis, and a handful of
  cross-algorithm defaults, scoring each attempt and keeping the best, per
  spec.md §4.6. This is the same "try several candidate keys in priority
  order and score the result" shape as crypto/trial's sibling
  crypto/tea.NewBlock callers, generalized from device/raspivid.Start's
  ordered-fallback pattern (try a known-good device path before falling
  back to a generic one).

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package trial implements the crypto trial decryption engine, per
// spec.md §4.6.
package trial

import (
	"github.com/tetraear/decoder/bitstream"
	"github.com/tetraear/decoder/container/burst"
	"github.com/tetraear/decoder/crypto/tea"
	"github.com/tetraear/decoder/keystore"
	"github.com/tetraear/decoder/protocol/mac"
)

// Result is the outcome of a successful trial decryption attempt, per
// spec.md §4.6.
type Result struct {
	Plaintext      []byte
	KeyDescriptor  string
	Algorithm      tea.Algorithm
	Score          int
}

// earlyAcceptScore and finalAcceptScore implement spec.md §4.6's
// early/final accept thresholds.
const (
	earlyAcceptScore = 80
	finalAcceptScore = 10
)

// Engine runs trial decryption attempts against a PDU's payload.
type Engine struct{}

// NewEngine returns a ready-to-use Engine. Engine holds no state: every
// Attempt call is independent, so one Engine may be shared across
// goroutines.
func NewEngine() *Engine { return &Engine{} }

// Attempt tries to decrypt pdu's payload, in the trial order of spec.md
// §4.6, and returns the best-scoring result if its score exceeds
// finalAcceptScore.
func (e *Engine) Attempt(pdu *mac.PDU, ks *keystore.Store) (*Result, bool) {
	ciphertext := pdu.Payload
	if len(pdu.Reassembled) > len(ciphertext) {
		ciphertext = pdu.Reassembled
	}
	if len(ciphertext) < tea.BlockSize {
		return nil, false
	}

	algo, haveAlgo := declaredAlgorithm(pdu)

	var best *Result

	consider := func(r *Result) {
		if r == nil {
			return
		}
		if best == nil || r.Score > best.Score {
			best = r
		}
	}

	// (1) Keys from the keystore matching the declared algorithm.
	if haveAlgo && ks != nil {
		for _, k := range ks.For(keystore.Algorithm(algo.String())) {
			consider(e.tryKey(algo, k.Bytes, k.Descriptor, ciphertext))
			if best != nil && best.Score > earlyAcceptScore {
				return best, true
			}
		}
	}

	// (2) Built-in weak/default keys for the declared algorithm.
	if haveAlgo {
		for _, k := range defaultKeys(algo) {
			consider(e.tryKey(algo, k.bytes, k.descriptor, ciphertext))
			if best != nil && best.Score > earlyAcceptScore {
				return best, true
			}
		}
	}

	// (3) BYPASS: treat the payload as already clear.
	consider(e.tryBypass(ciphertext))
	if best != nil && best.Score > earlyAcceptScore {
		return best, true
	}

	// (4) Cross-algorithm: first 5 defaults of each *other* TEA variant.
	for _, other := range []tea.Algorithm{tea.TEA1, tea.TEA2, tea.TEA3, tea.TEA4} {
		if haveAlgo && other == algo {
			continue
		}
		defaults := defaultKeys(other)
		n := 5
		if n > len(defaults) {
			n = len(defaults)
		}
		for _, k := range defaults[:n] {
			consider(e.tryKey(other, k.bytes, k.descriptor, ciphertext))
			if best != nil && best.Score > earlyAcceptScore {
				return best, true
			}
		}
	}

	if best == nil || best.Score <= finalAcceptScore {
		return nil, false
	}
	return best, true
}

// declaredAlgorithm extracts the PDU's declared TEA variant, if any.
func declaredAlgorithm(pdu *mac.PDU) (tea.Algorithm, bool) {
	switch pdu.EncryptionAlgo {
	case "TEA1":
		return tea.TEA1, true
	case "TEA2":
		return tea.TEA2, true
	case "TEA3":
		return tea.TEA3, true
	case "TEA4":
		return tea.TEA4, true
	default:
		return 0, false
	}
}

func (e *Engine) tryKey(algo tea.Algorithm, key []byte, descriptor string, ciphertext []byte) *Result {
	if len(key) != tea.KeyLen(algo) {
		return nil
	}
	block, err := tea.NewBlock(algo, key)
	if err != nil {
		return nil
	}
	plaintext, err := tea.DecryptAll(block, ciphertext)
	if err != nil {
		return nil
	}
	return &Result{
		Plaintext:     plaintext,
		KeyDescriptor: descriptor,
		Algorithm:     algo,
		Score:         score(plaintext),
	}
}

func (e *Engine) tryBypass(ciphertext []byte) *Result {
	return &Result{
		Plaintext:     ciphertext,
		KeyDescriptor: "BYPASS (clear)",
		Score:         score(ciphertext),
	}
}

// score implements spec.md §4.6's additive scoring heuristic.
func score(plaintext []byte) int {
	if len(plaintext) == 0 {
		return 0
	}

	s := 0

	printable := 0
	for _, b := range plaintext {
		if b >= 32 && b <= 126 {
			printable++
		}
	}
	s += 2 * printable

	unique := make(map[byte]bool, len(plaintext))
	for _, b := range plaintext {
		unique[b] = true
	}
	if len(unique) > len(plaintext)/8 {
		s += 30
	}

	if allSameByte(plaintext, 0x00) || allSameByte(plaintext, 0xFF) {
		s -= 50
	}

	first := plaintext[0]
	if first != 0x00 && first != 0xFF {
		s += 10
	}
	switch first {
	case 0x01, 0x02, 0x03, 0x04, 0x05, 0x08, 0x0A, 0x0C:
		s += 20
	}

	if passesCRCHeuristic(plaintext) {
		s += 100
	}
	if reparsesAsNonDataPDU(plaintext) {
		s += 50
	}

	return s
}

func allSameByte(p []byte, v byte) bool {
	for _, b := range p {
		if b != v {
			return false
		}
	}
	return true
}

func passesCRCHeuristic(p []byte) bool {
	return burst.CheckCRC(p)
}

// reparsesAsNonDataPDU implements spec.md §4.6's "+50 if plaintext
// re-parses as a typed MAC PDU other than plain Data" bonus.
func reparsesAsNonDataPDU(p []byte) bool {
	from := bitstream.BytesToBits(p)
	parser := mac.NewParser(nil)
	pdu, ok := parser.Parse(from)
	if !ok {
		return false
	}
	return pdu.Type != mac.Data
}

type keyCandidate struct {
	bytes      []byte
	descriptor string
}

// defaultKeys returns a built-in list of known weak/default keys for
// algo, per spec.md §4.6: all-zeros, all-ones, repeating nibble patterns,
// and a handful of plausible manufacturer defaults.
func defaultKeys(algo tea.Algorithm) []keyCandidate {
	n := tea.KeyLen(algo)
	mk := func(name string, fill func(i int) byte) keyCandidate {
		b := make([]byte, n)
		for i := range b {
			b[i] = fill(i)
		}
		return keyCandidate{bytes: b, descriptor: "default:" + algo.String() + ":" + name}
	}

	candidates := []keyCandidate{
		mk("all-zero", func(i int) byte { return 0x00 }),
		mk("all-ones", func(i int) byte { return 0xFF }),
		mk("nibble-0x11", func(i int) byte { return 0x11 }),
		mk("nibble-0x55", func(i int) byte { return 0x55 }),
		mk("nibble-0xAA", func(i int) byte { return 0xAA }),
		mk("incrementing", func(i int) byte { return byte(i) }),
		mk("decrementing", func(i int) byte { return byte(n - i) }),
		mk("manufacturer-1", func(i int) byte { return byte(0x42 + i) }),
		mk("manufacturer-2", func(i int) byte { return byte(0xDE ^ i) }),
		mk("manufacturer-3", func(i int) byte { return byte(0x13 * (i + 1)) }),
		mk("repeat-0x00FF", func(i int) byte {
			if i%2 == 0 {
				return 0x00
			}
			return 0xFF
		}),
		mk("repeat-0xDEAD", func(i int) byte {
			pattern := []byte{0xDE, 0xAD}
			return pattern[i%2]
		}),
	}
	return candidates
}
