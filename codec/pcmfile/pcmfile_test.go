/*
NAME
  pcmfile_test.go

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package pcmfile

import (
	"bytes"
	"testing"
)

func TestEncodeProducesRIFFHeader(t *testing.T) {
	pcm := make([]int16, 800)
	for i := range pcm {
		pcm[i] = int16(i)
	}
	out, err := Encode(pcm)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) < 44 {
		t.Fatalf("len(out) = %d, want >= 44 for a RIFF header", len(out))
	}
	if !bytes.Equal(out[0:4], []byte("RIFF")) {
		t.Errorf("missing RIFF tag: %q", out[0:4])
	}
	if !bytes.Equal(out[8:12], []byte("WAVE")) {
		t.Errorf("missing WAVE tag: %q", out[8:12])
	}
}

func TestEncodeEmptyPCM(t *testing.T) {
	out, err := Encode(nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) < 44 {
		t.Errorf("expected at least a RIFF header for empty PCM, got %d bytes", len(out))
	}
}
