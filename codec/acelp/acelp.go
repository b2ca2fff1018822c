/*
NAME
  acelp.go

DESCRIPTION
  acelp.go implements the codec bridge (C9): it hands a 1380-byte voice
  frame to an external `cdecoder` binary and parses its repeating
  276-byte PCM blocks back out, per spec.md §4.8. The subprocess
  plumbing — exec.Command, a piped stderr drain goroutine, a
  bounded run — is grounded on device/raspivid.Start, generalized from a
  long-running streaming child process to a short-lived one-shot
  invocation bounded by a context timeout.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package acelp bridges TETRA voice frames to an external ACELP decoder
// subprocess, per spec.md §4.8.
package acelp

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"os/exec"
	"time"

	"github.com/ausocean/utils/logging"

	"github.com/tetraear/decoder/codec/voiceframe"
)

// DefaultTimeout is the per-call subprocess timeout, per spec.md §4.8 and
// §5.
const DefaultTimeout = 5 * time.Second

const (
	blockBytes  = 276
	pcmPerBlock = 137
	frameMagic  = 0x6B21
)

// Decode invokes the codec binary at codecPath on frame and returns the
// concatenated PCM samples it produces. Per spec.md §4.8, a malformed
// frame, subprocess timeout, non-zero exit, or missing output all produce
// an empty slice rather than an error — CodecError is per-frame and
// degrades to silence (spec.md §7).
func Decode(ctx context.Context, frame [voiceframe.FrameBytes]byte, codecPath string, l logging.Logger) []int16 {
	if binary.LittleEndian.Uint16(frame[0:2]) != frameMagic {
		if l != nil {
			l.Warning("acelp: frame missing 0x6B21 magic, discarding")
		}
		return nil
	}

	inPath, outPath, cleanup, err := prepareTempFiles(frame)
	if err != nil {
		if l != nil {
			l.Warning("acelp: could not prepare temp files", "error", err)
		}
		return nil
	}
	defer cleanup()

	cctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, codecPath, inPath, outPath)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		if l != nil {
			l.Warning("acelp: could not pipe codec stderr", "error", err)
		}
		return nil
	}

	done := make(chan struct{})
	var stderrBuf bytes.Buffer
	go func() {
		defer close(done)
		stderrBuf.ReadFrom(stderr)
	}()

	if err := cmd.Run(); err != nil {
		<-done
		if l != nil {
			l.Warning("acelp: codec invocation failed", "error", err, "stderr", stderrBuf.String())
		}
		return nil
	}
	<-done

	out, err := os.ReadFile(outPath)
	if err != nil || len(out) == 0 {
		return nil
	}
	return parseBlocks(out)
}

// prepareTempFiles writes frame to a unique temp input path and
// allocates a unique (not-yet-created) output path, per spec.md §5's
// "per-invocation unique filenames; no locking required."
func prepareTempFiles(frame [voiceframe.FrameBytes]byte) (inPath, outPath string, cleanup func(), err error) {
	in, err := os.CreateTemp("", "tetra-voice-in-*.bin")
	if err != nil {
		return "", "", nil, err
	}
	if _, err := in.Write(frame[:]); err != nil {
		in.Close()
		os.Remove(in.Name())
		return "", "", nil, err
	}
	if err := in.Close(); err != nil {
		os.Remove(in.Name())
		return "", "", nil, err
	}

	out, err := os.CreateTemp("", "tetra-voice-out-*.bin")
	if err != nil {
		os.Remove(in.Name())
		return "", "", nil, err
	}
	outName := out.Name()
	out.Close()
	os.Remove(outName) // the codec binary creates its own output file.

	cleanup = func() {
		os.Remove(in.Name())
		os.Remove(outName)
	}
	return in.Name(), outName, cleanup, nil
}

// parseBlocks parses repeating 276-byte [BFI:u16][137×i16 PCM] blocks,
// per spec.md §4.8, discarding any trailing partial block.
func parseBlocks(data []byte) []int16 {
	n := len(data) / blockBytes
	out := make([]int16, 0, n*pcmPerBlock)
	for b := 0; b < n; b++ {
		block := data[b*blockBytes : (b+1)*blockBytes]
		// block[0:2] is the BFI flag; not surfaced today (spec.md §4.8
		// only requires concatenating the PCM).
		pcm := block[2:]
		for i := 0; i < pcmPerBlock; i++ {
			v := int16(binary.LittleEndian.Uint16(pcm[i*2 : i*2+2]))
			out = append(out, v)
		}
	}
	return out
}

// ToFloat32 normalises PCM samples to [-1, 1] float32, per spec.md §4.8's
// "normalise to float x/32768 at the boundary if downstream requires
// float."
func ToFloat32(pcm []int16) []float32 {
	out := make([]float32, len(pcm))
	for i, v := range pcm {
		out[i] = float32(v) / 32768
	}
	return out
}
