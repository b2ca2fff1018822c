/*
NAME
  keystore_test.go

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package keystore

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/ausocean/utils/logging"
)

func TestLoadSkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keys.txt")
	content := `# comment
TEA1 1 00112233445566778899
TEA2 2 bad_hex_not_even_length
BOGUS 3 0011223344556677889900112233
TEA3 4 000102030405060708090a0b0c0d0e0f
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	l := logging.New(logging.Debug, &bytes.Buffer{}, true)
	s, err := Load(path, l)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.For(TEA1)) != 1 {
		t.Errorf("TEA1 keys = %d, want 1", len(s.For(TEA1)))
	}
	if len(s.For(TEA2)) != 0 {
		t.Errorf("TEA2 keys = %d, want 0 (malformed hex)", len(s.For(TEA2)))
	}
	if len(s.For(TEA3)) != 1 {
		t.Errorf("TEA3 keys = %d, want 1", len(s.For(TEA3)))
	}
}

func TestLoadMissingFile(t *testing.T) {
	l := logging.New(logging.Debug, &bytes.Buffer{}, true)
	_, err := Load("/nonexistent/path/keys.txt", l)
	if err == nil {
		t.Error("expected error for missing file")
	}
}
