/*
NAME
  pcmfile.go

DESCRIPTION
  pcmfile.go packages decoded TETRA voice PCM as WAV, per spec.md §6's
  "persisted audio layout: 8kHz, 16-bit mono; the host may package them
  as RIFF/WAVE." The go-audio/wav encoder and go-audio/audio.IntBuffer
  usage, plus the in-memory io.WriteSeeker adapter, are carried over
  directly from exp/flac/decode.go's FLAC-to-WAV bridge — here the
  upstream samples come from codec/acelp.Decode instead of a FLAC
  stream.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package pcmfile packages decoded TETRA voice PCM samples as WAV audio,
// per spec.md §6.
package pcmfile

import (
	"errors"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// SampleRate and BitDepth are fixed by spec.md §6: ACELP voice output is
// always 8 kHz, 16-bit mono.
const (
	SampleRate = 8000
	BitDepth   = 16
	Channels   = 1
	wavFormat  = 1
)

// writeSeeker is a memory-backed io.WriteSeeker, for callers that want
// WAV bytes in memory rather than a file, carried over from
// exp/flac/decode.go.
type writeSeeker struct {
	buf []byte
	pos int
}

// Bytes returns the bytes written so far.
func (ws *writeSeeker) Bytes() []byte {
	return ws.buf
}

func (ws *writeSeeker) Write(p []byte) (n int, err error) {
	minCap := ws.pos + len(p)
	if minCap > cap(ws.buf) {
		buf2 := make([]byte, len(ws.buf), minCap+len(p))
		copy(buf2, ws.buf)
		ws.buf = buf2
	}
	if minCap > len(ws.buf) {
		ws.buf = ws.buf[:minCap]
	}
	copy(ws.buf[ws.pos:], p)
	ws.pos += len(p)
	return len(p), nil
}

func (ws *writeSeeker) Seek(offset int64, whence int) (int64, error) {
	newPos, offs := 0, int(offset)
	switch whence {
	case io.SeekStart:
		newPos = offs
	case io.SeekCurrent:
		newPos = ws.pos + offs
	case io.SeekEnd:
		newPos = len(ws.buf) + offs
	}
	if newPos < 0 {
		return 0, errors.New("pcmfile: negative seek result")
	}
	ws.pos = newPos
	return int64(newPos), nil
}

// Encode packages pcm as an in-memory WAV file and returns its bytes.
func Encode(pcm []int16) ([]byte, error) {
	ws := &writeSeeker{}
	if err := WriteTo(ws, pcm); err != nil {
		return nil, err
	}
	return ws.Bytes(), nil
}

// WriteTo encodes pcm as WAV directly onto w (e.g. an *os.File), per
// spec.md §6.
func WriteTo(w io.WriteSeeker, pcm []int16) error {
	enc := wav.NewEncoder(w, SampleRate, BitDepth, Channels, wavFormat)

	data := make([]int, len(pcm))
	for i, v := range pcm {
		data[i] = int(v)
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: Channels, SampleRate: SampleRate},
		SourceBitDepth: BitDepth,
		Data:           data,
	}
	if err := enc.Write(buf); err != nil {
		return err
	}
	return enc.Close()
}
