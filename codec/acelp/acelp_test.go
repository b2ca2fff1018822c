/*
NAME
  acelp_test.go

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package acelp

import (
	"context"
	"encoding/binary"
	"os"
	"runtime"
	"testing"
	"time"

	"github.com/tetraear/decoder/codec/voiceframe"
)

func buildFakeBlock(bfi uint16, pcm []int16) []byte {
	buf := make([]byte, blockBytes)
	binary.LittleEndian.PutUint16(buf[0:2], bfi)
	for i, v := range pcm {
		binary.LittleEndian.PutUint16(buf[2+i*2:4+i*2], uint16(v))
	}
	return buf
}

// writeFakeCodec writes a shell script at a temp path that, when invoked
// as `codec <in> <out>`, copies fixtureData to <out> and exits 0.
func writeFakeCodec(t *testing.T, fixtureData []byte) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake codec script is a POSIX shell script")
	}
	fixture, err := os.CreateTemp("", "fixture-*.bin")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fixture.Write(fixtureData); err != nil {
		t.Fatal(err)
	}
	fixture.Close()

	script, err := os.CreateTemp("", "fakecodec-*.sh")
	if err != nil {
		t.Fatal(err)
	}
	content := "#!/bin/sh\ncp \"" + fixture.Name() + "\" \"$2\"\nexit 0\n"
	if _, err := script.WriteString(content); err != nil {
		t.Fatal(err)
	}
	script.Close()
	if err := os.Chmod(script.Name(), 0o755); err != nil {
		t.Fatal(err)
	}
	return script.Name()
}

func validFrame() [voiceframe.FrameBytes]byte {
	var f [voiceframe.FrameBytes]byte
	binary.LittleEndian.PutUint16(f[0:2], frameMagic)
	return f
}

func TestDecodeRejectsFrameWithoutMagic(t *testing.T) {
	var f [voiceframe.FrameBytes]byte // all-zero, no magic.
	pcm := Decode(context.Background(), f, "/bin/true", nil)
	if pcm != nil {
		t.Error("expected nil PCM for a frame missing the 0x6B21 magic")
	}
}

func TestDecodeParsesRepeatingBlocks(t *testing.T) {
	pcm1 := make([]int16, pcmPerBlock)
	pcm2 := make([]int16, pcmPerBlock)
	for i := range pcm1 {
		pcm1[i] = int16(i)
		pcm2[i] = int16(-i)
	}
	fixture := append(buildFakeBlock(0, pcm1), buildFakeBlock(1, pcm2)...)
	codecPath := writeFakeCodec(t, fixture)

	pcm := Decode(context.Background(), validFrame(), codecPath, nil)
	if len(pcm) != pcmPerBlock*2 {
		t.Fatalf("len(pcm) = %d, want %d", len(pcm), pcmPerBlock*2)
	}
	if !equalInt16(pcm[:pcmPerBlock], pcm1) {
		t.Error("first block PCM mismatch")
	}
	if !equalInt16(pcm[pcmPerBlock:], pcm2) {
		t.Error("second block PCM mismatch")
	}
}

func TestDecodeMissingCodecReturnsEmpty(t *testing.T) {
	pcm := Decode(context.Background(), validFrame(), "/nonexistent/cdecoder", nil)
	if pcm != nil {
		t.Error("expected nil PCM when the codec binary cannot be run")
	}
}

func TestDecodeTimeoutReturnsEmpty(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("sleep-based fake codec is a POSIX shell script")
	}
	script, err := os.CreateTemp("", "slowcodec-*.sh")
	if err != nil {
		t.Fatal(err)
	}
	script.WriteString("#!/bin/sh\nsleep 10\n")
	script.Close()
	os.Chmod(script.Name(), 0o755)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	pcm := Decode(ctx, validFrame(), script.Name(), nil)
	if pcm != nil {
		t.Error("expected nil PCM on subprocess timeout")
	}
}

func TestToFloat32Normalises(t *testing.T) {
	out := ToFloat32([]int16{32767, -32768, 0})
	if out[2] != 0 {
		t.Errorf("out[2] = %v, want 0", out[2])
	}
	if out[0] <= 0.99 || out[0] > 1.0 {
		t.Errorf("out[0] = %v, want close to 1.0", out[0])
	}
}

func equalInt16(a, b []int16) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
