/*
NAME
  crc_test.go

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package burst

import (
	"encoding/binary"
	"testing"
)

// TestCRCSelfCheck verifies CRC-16-CCITT over a payload concatenated with
// its own CRC yields zero, per spec.md §8.
func TestCRCSelfCheck(t *testing.T) {
	payload := []byte("TETRA burst payload")
	crc := CRC16CCITT(payload)

	var crcBytes [2]byte
	binary.BigEndian.PutUint16(crcBytes[:], crc)
	combined := append(append([]byte{}, payload...), crcBytes[:]...)

	// With no final XOR, appending the CRC big-endian leaves a zero
	// remainder.
	if got := CRC16CCITT(combined); got != 0 {
		t.Errorf("CRC16CCITT(payload||crc) = %#04x, want 0", got)
	}
	if CRC16CCITT(payload) != crc {
		t.Errorf("CRC16CCITT is not deterministic")
	}
}

func TestBitRatioOK(t *testing.T) {
	balanced := make([]byte, 100)
	for i := range balanced {
		balanced[i] = byte(i % 2)
	}
	if !bitRatioOK(balanced) {
		t.Error("expected balanced bit stream to pass ratio check")
	}

	allZero := make([]byte, 100)
	if bitRatioOK(allZero) {
		t.Error("expected all-zero bit stream to fail ratio check")
	}
}
