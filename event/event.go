/*
NAME
  event.go

DESCRIPTION
  event.go defines the typed event surface emitted by the decode
  orchestrator to the host application.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package event defines the events pushed by the decoder to its host and
// the bounded, priority-aware bus used to deliver them.
package event

import (
	"time"

	"github.com/tetraear/decoder/container/burst"
	"github.com/tetraear/decoder/protocol/mac"
	"github.com/tetraear/decoder/protocol/sds"
)

// Kind discriminates the variant held by an Event.
type Kind int

const (
	// FrameDecoded reports a decoded MAC PDU and its originating burst.
	FrameDecoded Kind = iota
	// SdsReassembled reports a fully reassembled and decoded SDS message.
	SdsReassembled
	// VoiceAudio reports PCM audio reconstructed from a traffic burst.
	VoiceAudio
	// ScanResult reports a detected carrier from a scan.
	ScanResult
	// DeviceError reports a fatal device or configuration failure.
	DeviceError
)

// String returns a human-readable name for k.
func (k Kind) String() string {
	switch k {
	case FrameDecoded:
		return "FrameDecoded"
	case SdsReassembled:
		return "SdsReassembled"
	case VoiceAudio:
		return "VoiceAudio"
	case ScanResult:
		return "ScanResult"
	case DeviceError:
		return "DeviceError"
	default:
		return "Unknown"
	}
}

// Event is a tagged union of everything the orchestrator can emit. Only the
// fields relevant to Kind are populated; this flat-struct shape mirrors the
// rest of this module's data types (e.g. mac.PDU) rather than a Go sum
// type, since Go has none.
type Event struct {
	Kind Kind
	Time time.Time

	// FrameDecoded fields.
	Burst          burst.Burst
	PDU            mac.PDU
	CallMetadata   *mac.CallMetadata
	EncryptionNote string

	// SdsReassembled fields.
	Address uint32
	Message sds.Message

	// VoiceAudio fields.
	PCM       []int16
	BurstID   uint64
	SourceSSI *uint32

	// ScanResult fields.
	FrequencyHz uint64
	PowerDB     float64
	Confidence  float64

	// DeviceError fields.
	Err error
}

// Priority ranks events for bounded-channel backpressure: lower values are
// dropped first when a consumer falls behind. VoiceAudio is the least
// critical — protocol events are never sacrificed to make room for it.
func (e Event) Priority() int {
	if e.Kind == VoiceAudio {
		return 0
	}
	return 1
}

// Bus is a bounded, priority-aware event channel. Slow consumers cause
// VoiceAudio events to be dropped before any other kind.
type Bus struct {
	ch chan Event
}

// NewBus returns a Bus with the given channel capacity.
func NewBus(capacity int) *Bus {
	return &Bus{ch: make(chan Event, capacity)}
}

// Events returns the receive side of the bus.
func (b *Bus) Events() <-chan Event {
	return b.ch
}

// Publish attempts to send e without blocking. If the channel is full and e
// is a VoiceAudio event, it is dropped silently. If the channel is full and
// e is any other kind, Publish blocks until space is available or done is
// closed (done may be nil to block unconditionally).
func (b *Bus) Publish(e Event, done <-chan struct{}) {
	select {
	case b.ch <- e:
		return
	default:
	}
	if e.Kind == VoiceAudio {
		return
	}
	select {
	case b.ch <- e:
	case <-done:
	}
}

// Close closes the underlying channel. Callers must ensure no further
// Publish calls occur afterward.
func (b *Bus) Close() {
	close(b.ch)
}
