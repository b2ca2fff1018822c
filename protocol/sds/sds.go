/*
NAME
  sds.go

DESCRIPTION
  sds.go decodes a reassembled MAC payload as a TETRA Short Data Service
  message (C6), per spec.md §4.5. Decode is a total function: every input
  produces some Message, falling back to a hex dump of raw bytes when
  nothing more specific matches.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package sds decodes TETRA Short Data Service payloads into text, location
// and binary messages, per spec.md §4.5.
package sds

import (
	"encoding/hex"
	"strings"
	"unicode"

	"golang.org/x/text/encoding/charmap"

	"github.com/tetraear/decoder/bitstream"
)

// Kind discriminates the payload-specific fields of a Message.
type Kind int

const (
	Text Kind = iota
	Location
	Binary
	Raw
)

func (k Kind) String() string {
	switch k {
	case Text:
		return "Text"
	case Location:
		return "Location"
	case Binary:
		return "Binary"
	case Raw:
		return "Raw"
	default:
		return "Unknown"
	}
}

// Tag further identifies the text/binary sub-format, per spec.md §4.5.
const (
	TagSDS1    = "SDS-1"
	TagSDSGSM  = "SDS-GSM"
	TagISO8859 = "ISO-8859-1"
	TagASCII   = "ASCII"
	TagHeur    = "heuristic"
	TagHex     = "hex"
	TagEncrypted = "encrypted"
)

// Message is the flat-struct result of decoding an SDS payload, a tagged
// variant in place of a sum type, per this module's convention (see
// protocol/mac.PDU and event.Event).
type Message struct {
	Kind Kind
	Tag  string

	// Text fields (Kind == Text).
	Text string

	// Location fields (Kind == Location).
	Lat, Lon float64
	HasFix   bool
	NMEA     string // raw passthrough, set instead of Lat/Lon when present.

	// Binary fields (Kind == Binary, Kind == Raw).
	Raw []byte
	Hex string
}

const printableThreshold = 0.6
const entropyThreshold = 0.7
const entropyMinBytes = 8

// Decode implements the spec.md §4.5 dispatch order. It never returns an
// error: malformed or uninterpretable input becomes a Binary(hex) message.
func Decode(payload []byte) Message {
	if len(payload) >= 2 && payload[0] == 0x05 && payload[1] == 0x00 {
		body := safeSlice(payload, 3)
		return Message{Kind: Text, Tag: TagSDS1, Text: string(body)}
	}

	if len(payload) >= 2 && payload[0] == 0x07 && payload[1] == 0x00 {
		if m, ok := decodeGSM(safeSlice(payload, 3)); ok {
			return m
		}
		if m, ok := decodeGSM(safeSlice(payload, 2)); ok {
			return m
		}
	}

	if len(payload) >= 1 {
		switch payload[0] {
		case 0x82:
			if s, ok := decodeISO8859(payload[1:]); ok {
				return Message{Kind: Text, Tag: TagISO8859, Text: s}
			}
		case 0x03:
			if s, ok := decodeASCII(payload[1:]); ok {
				return Message{Kind: Text, Tag: TagASCII, Text: s}
			}
		case 0x83, 0x0c:
			return decodeLocationOrRaw(payload[1:])
		}
	}

	if m, ok := tryHeuristicText(payload); ok {
		return m
	}

	if len(payload) >= entropyMinBytes && byteEntropy(payload) >= entropyThreshold {
		return Message{Kind: Binary, Tag: TagEncrypted, Raw: payload}
	}

	return Message{Kind: Binary, Tag: TagHex, Raw: payload, Hex: hex.EncodeToString(payload)}
}

func safeSlice(b []byte, from int) []byte {
	if from >= len(b) {
		return nil
	}
	return b[from:]
}

// decodeGSM unpacks GSM 7-bit septets into characters and validates the
// result, per spec.md §4.5 item 2.
func decodeGSM(packed []byte) (Message, bool) {
	if len(packed) == 0 {
		return Message{}, false
	}
	chars := unpackGSM7(packed)
	s := gsm7ToString(chars)
	if printableRatio([]byte(s)) < printableThreshold || !valid(s) {
		return Message{}, false
	}
	return Message{Kind: Text, Tag: TagSDSGSM, Text: s}, true
}

// unpackGSM7 unpacks octet-aligned 7-bit septets, MSB-first byte order,
// into their raw 7-bit codes.
func unpackGSM7(packed []byte) []byte {
	r := bitstream.NewReader(bitstream.BytesToBits(packed))
	n := (len(packed) * 8) / 7
	out := make([]byte, 0, n)
	for i := 0; i < n; i++ {
		v, err := r.ReadUint(7)
		if err != nil {
			break
		}
		out = append(out, byte(v))
	}
	return out
}

// gsm7ToString maps each 7-bit code to the character with the same ASCII
// code point, enough to cover the printable ASCII range SDS text typically
// uses; codes below 0x20 become '?'. It does not apply the full GSM 03.38
// default alphabet.
func gsm7ToString(codes []byte) string {
	var b strings.Builder
	for _, c := range codes {
		if c < 0x20 {
			b.WriteRune('?')
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func decodeISO8859(b []byte) (string, bool) {
	dec := charmap.ISO8859_1.NewDecoder()
	out, err := dec.Bytes(b)
	if err != nil {
		return "", false
	}
	s := string(out)
	return s, valid(s)
}

func decodeASCII(b []byte) (string, bool) {
	for _, c := range b {
		if c > 127 {
			return "", false
		}
	}
	s := string(b)
	return s, valid(s)
}

// decodeLocationOrRaw implements spec.md §4.5 item 3's Location branch:
// attempt LIP parsing, else pass through NMEA, else mark Raw.
func decodeLocationOrRaw(b []byte) Message {
	if s := string(b); strings.Contains(s, "$GPGGA") || strings.Contains(s, "$GPRMC") {
		return Message{Kind: Location, Tag: "NMEA", NMEA: s}
	}
	if lat, lon, ok := parseLIP(b); ok {
		return Message{Kind: Location, Tag: "LIP", Lat: lat, Lon: lon, HasFix: true}
	}
	return Message{Kind: Raw, Tag: "location-raw", Raw: b}
}

// parseLIP decodes a Short or Long Location Information Protocol report,
// per spec.md §4.5's LIP parsing rule. A 2-bit report-type selector is
// followed by a 2-bit time-elapsed field (not otherwise used here) before
// latitude begins at bit offset 4.
func parseLIP(b []byte) (lat, lon float64, ok bool) {
	bits := bitstream.BytesToBits(b)
	r := bitstream.NewReader(bits)
	kind, err := r.ReadUint(2)
	if err != nil {
		return 0, 0, false
	}
	r.Skip(2) // time elapsed, unused.
	switch kind {
	case 0: // Short report.
		latRaw, err1 := r.ReadInt(24)
		lonRaw, err2 := r.ReadInt(25)
		if err1 != nil || err2 != nil {
			return 0, 0, false
		}
		lat = float64(latRaw) * (90.0 / (1 << 23))
		lon = float64(lonRaw) * (180.0 / (1 << 24))
		return lat, lon, true
	case 1: // Long report.
		latRaw, err1 := r.ReadInt(25)
		lonRaw, err2 := r.ReadInt(26)
		if err1 != nil || err2 != nil {
			return 0, 0, false
		}
		lat = float64(latRaw) * (90.0 / (1 << 24))
		lon = float64(lonRaw) * (180.0 / (1 << 25))
		return lat, lon, true
	default:
		return 0, 0, false
	}
}

// tryHeuristicText implements spec.md §4.5 item 4: if enough bytes are
// printable, try UTF-8, Latin-1, ASCII, Windows-1252 in order.
func tryHeuristicText(payload []byte) (Message, bool) {
	if len(payload) == 0 || printableRatio(payload) < printableThreshold {
		return Message{}, false
	}

	if s := string(payload); isValidUTF8Printable(s) && valid(s) {
		return Message{Kind: Text, Tag: TagHeur + "/utf-8", Text: s}, true
	}
	if s, ok := decodeISO8859(payload); ok {
		return Message{Kind: Text, Tag: TagHeur + "/latin-1", Text: s}, true
	}
	if s, ok := decodeASCII(payload); ok {
		return Message{Kind: Text, Tag: TagHeur + "/ascii", Text: s}, true
	}
	if dec := charmap.Windows1252.NewDecoder(); dec != nil {
		out, err := dec.Bytes(payload)
		if err == nil && valid(string(out)) {
			return Message{Kind: Text, Tag: TagHeur + "/windows-1252", Text: string(out)}, true
		}
	}
	return Message{}, false
}

func isValidUTF8Printable(s string) bool {
	for _, r := range s {
		if r == unicode.ReplacementChar {
			return false
		}
	}
	return true
}

// valid implements spec.md §4.5's validity check minus the printable-ratio
// test: it checks the alnum-ratio and rejects single-character repetition.
// decodeGSM and tryHeuristicText screen the printable ratio before calling
// it; the protocol-identifier branches of Decode do not.
func valid(s string) bool {
	if len(s) == 0 {
		return false
	}
	alnum := 0
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			alnum++
		}
	}
	if float64(alnum)/float64(len([]rune(s))) <= 0.5 {
		return false
	}
	return !isSingleCharRepeat(s)
}

func isSingleCharRepeat(s string) bool {
	if len(s) < 2 {
		return false
	}
	first := s[0]
	for i := 1; i < len(s); i++ {
		if s[i] != first {
			return false
		}
	}
	return true
}

func printableRatio(b []byte) float64 {
	if len(b) == 0 {
		return 0
	}
	n := 0
	for _, c := range b {
		if (c >= 32 && c <= 126) || c == 10 || c == 13 {
			n++
		}
	}
	return float64(n) / float64(len(b))
}

// byteEntropy returns the unique/total byte ratio used as a cheap entropy
// proxy, matching the heuristic used in protocol/mac's encryption
// inference.
func byteEntropy(b []byte) float64 {
	seen := make(map[byte]bool, len(b))
	for _, c := range b {
		seen[c] = true
	}
	return float64(len(seen)) / float64(len(b))
}
