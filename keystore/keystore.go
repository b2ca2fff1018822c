/*
NAME
  keystore.go

DESCRIPTION
  keystore.go loads the TEA1-4 key file format described in spec.md §6 and
  exposes a read-only lookup used by the crypto trial engine.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package keystore loads and serves TETRA encryption keys from a text key
// file. A Store is read-only after Load and safe for concurrent readers.
package keystore

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ausocean/utils/logging"
)

// Algorithm identifies a TETRA encryption algorithm.
type Algorithm string

// Algorithms recognised in key files, per spec.md §6.
const (
	TEA1 Algorithm = "TEA1"
	TEA2 Algorithm = "TEA2"
	TEA3 Algorithm = "TEA3"
	TEA4 Algorithm = "TEA4"
)

// KeyLen returns the required key length in bytes for algo, or 0 if algo is
// unrecognised.
func KeyLen(algo Algorithm) int {
	switch algo {
	case TEA1:
		return 10
	case TEA2, TEA3, TEA4:
		return 16
	default:
		return 0
	}
}

// Key is one entry loaded from a key file.
type Key struct {
	Algorithm  Algorithm
	KeyID      uint64
	Descriptor string // e.g. "file key TEA1/3".
	Bytes      []byte
}

// Store is an immutable, read-only-after-load table of keys, keyed by
// algorithm, each algorithm's keys kept in file order. Multiple readers may access a Store concurrently
// without locking, per spec.md §5.
type Store struct {
	byAlgo map[Algorithm][]Key
}

// Load reads a key file at path. Lines beginning with '#' are comments;
// blank lines are ignored. Each data line is "ALGO KEYID HEX". Lines with
// an unknown algorithm or malformed hex are skipped with a warning logged
// to l, per spec.md §6; Load itself only fails if the file cannot be
// opened or read.
func Load(path string, l logging.Logger) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("keystore: could not open key file: %w", err)
	}
	defer f.Close()

	s := &Store{byAlgo: make(map[Algorithm][]Key)}
	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 3 {
			l.Warning("keystore: skipping malformed line", "line", lineNo)
			continue
		}
		algo := Algorithm(strings.ToUpper(fields[0]))
		want := KeyLen(algo)
		if want == 0 {
			l.Warning("keystore: skipping unknown algorithm", "line", lineNo, "algo", fields[0])
			continue
		}
		id, err := strconv.ParseUint(fields[1], 0, 64)
		if err != nil {
			l.Warning("keystore: skipping malformed key id", "line", lineNo)
			continue
		}
		raw, err := hex.DecodeString(fields[2])
		if err != nil || len(raw) != want {
			l.Warning("keystore: skipping malformed key hex", "line", lineNo)
			continue
		}
		s.byAlgo[algo] = append(s.byAlgo[algo], Key{
			Algorithm:  algo,
			KeyID:      id,
			Descriptor: fmt.Sprintf("file key %s/%d", algo, id),
			Bytes:      raw,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("keystore: error reading key file: %w", err)
	}
	return s, nil
}

// Empty returns a Store with no keys, used when no key file is configured.
func Empty() *Store {
	return &Store{byAlgo: make(map[Algorithm][]Key)}
}

// For returns the keys loaded for algo, in file order.
func (s *Store) For(algo Algorithm) []Key {
	return s.byAlgo[algo]
}
