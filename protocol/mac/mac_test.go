/*
NAME
  mac_test.go

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package mac

import (
	"bytes"
	"testing"

	"github.com/ausocean/utils/logging"

	"github.com/tetraear/decoder/bitstream"
)

func testLogger() logging.Logger {
	return logging.New(logging.Debug, &bytes.Buffer{}, true)
}

func buildResourceBits(addr uint32, encrypted bool, payload []byte) []byte {
	w := bitstream.NewWriter()
	w.WriteUint(uint64(Resource), TypeWidth)
	w.WriteUint(0, 1) // fill bit.
	if encrypted {
		w.WriteUint(1, 1)
	} else {
		w.WriteUint(0, 1)
	}
	w.WriteUint(uint64(addr), 24)
	w.WriteUint(uint64(len(payload)), 6)
	w.WriteBytes(payload)
	return w.Bits()
}

func buildFragBits(payload []byte) []byte {
	w := bitstream.NewWriter()
	w.WriteUint(uint64(Frag), TypeWidth)
	w.WriteUint(0, 1)
	w.WriteBytes(payload)
	return w.Bits()
}

func buildEndBits(payload []byte) []byte {
	w := bitstream.NewWriter()
	w.WriteUint(uint64(End), TypeWidth)
	w.WriteUint(0, 1)
	w.WriteUint(uint64(len(payload)), 6)
	w.WriteBytes(payload)
	return w.Bits()
}

// TestSdsReassemblyHappyPath implements spec.md §8 scenario 1.
func TestSdsReassemblyHappyPath(t *testing.T) {
	p := NewParser(testLogger())

	part1 := []byte("EMERGENCY: Unit 5 responding to")
	part2 := []byte(" incident at Main Street. ETA ")
	part3 := []byte("5 minutes.")

	pdu1, ok := p.Parse(buildResourceBits(0x456789, false, part1))
	if !ok {
		t.Fatal("Resource PDU failed to parse")
	}
	if pdu1.Address != 0x456789 {
		t.Errorf("address = %x, want %x", pdu1.Address, 0x456789)
	}

	_, ok = p.Parse(buildFragBits(part2))
	if !ok {
		t.Fatal("Frag PDU failed to parse")
	}

	pduEnd, ok := p.Parse(buildEndBits(part3))
	if !ok {
		t.Fatal("End PDU failed to parse")
	}
	if !pduEnd.HasReassembled {
		t.Fatal("expected reassembled payload on End PDU")
	}

	want := append(append(append([]byte{}, part1...), part2...), part3...)
	if !bytes.Equal(pduEnd.Reassembled, want) {
		t.Errorf("reassembled = %q, want %q", pduEnd.Reassembled, want)
	}

	if !p.IsIdle() {
		t.Error("parser should be Idle after End")
	}
	if !p.BufferEmpty() {
		t.Error("fragment buffer should be empty after End")
	}
}

// TestHighEntropyPromotion implements spec.md §8 scenario 4.
func TestHighEntropyPromotion(t *testing.T) {
	p := NewParser(testLogger())
	// 16 bytes, 15 unique.
	payload := []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 0}

	pdu, ok := p.Parse(buildResourceBits(0x1, false, payload))
	if !ok {
		t.Fatal("parse failed")
	}
	if !pdu.Encrypted {
		t.Error("expected PDU to be promoted to encrypted")
	}
	if pdu.EncryptionAlgo != "TEA1" {
		t.Errorf("encryption algo = %q, want TEA1", pdu.EncryptionAlgo)
	}
}

func TestParseShortInputReturnsNone(t *testing.T) {
	p := NewParser(testLogger())
	_, ok := p.Parse([]byte{1, 0, 1, 0, 1})
	if ok {
		t.Error("expected Parse to return false for < 8 bits")
	}
	if !p.BufferEmpty() {
		t.Error("fragment buffer should remain unchanged on short input")
	}
}

func TestFragBufferEmptyWhenIdle(t *testing.T) {
	p := NewParser(testLogger())
	if !p.IsIdle() || !p.BufferEmpty() {
		t.Error("new parser should start Idle with an empty buffer")
	}
}

func TestResourceRestartsDiscardsPreviousBuffer(t *testing.T) {
	p := NewParser(testLogger())
	p.Parse(buildResourceBits(0x1, false, []byte("first")))
	p.Parse(buildFragBits([]byte("-continued")))

	// A second Resource arrives before an End: the old buffer is
	// discarded silently and a new sequence begins, per spec.md §7.
	p.Parse(buildResourceBits(0x2, false, []byte("second")))
	pduEnd, ok := p.Parse(buildEndBits([]byte("-end")))
	if !ok {
		t.Fatal("parse failed")
	}
	want := "second-end"
	if string(pduEnd.Reassembled) != want {
		t.Errorf("reassembled = %q, want %q", pduEnd.Reassembled, want)
	}
}

func TestEndCorrectsEncryptedFlag(t *testing.T) {
	p := NewParser(testLogger())
	p.Parse(buildResourceBits(0x1, true, []byte("x")))
	pduEnd, ok := p.Parse(buildEndBits([]byte("y")))
	if !ok {
		t.Fatal("parse failed")
	}
	if !pduEnd.Encrypted {
		t.Error("expected End PDU's encrypted flag corrected to true from the originating Resource")
	}
}

func TestResourceCallMetadata(t *testing.T) {
	p := NewParser(testLogger())
	payload := []byte{0x80, 0x12, 0x34, 0x56, 0x07, 0x84, 0x00, 0x01}
	pdu, _ := p.Parse(buildResourceBits(0x1, false, payload))
	m := p.CallMetadata(pdu)
	if m == nil {
		t.Fatal("expected non-nil call metadata")
	}
	if m.CallType != "Group" {
		t.Errorf("CallType = %q, want Group", m.CallType)
	}
	if *m.Channel != 0x07 {
		t.Errorf("Channel = %d, want 7", *m.Channel)
	}
}
