/*
NAME
  tea_test.go

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package tea

import "testing"

func TestNewBlockRejectsBadKeyLength(t *testing.T) {
	_, err := NewBlock(TEA1, make([]byte, 4))
	if err == nil {
		t.Fatal("expected error for short TEA1 key")
	}
}

func TestDecryptAllRejectsShortCiphertext(t *testing.T) {
	b, err := NewBlock(TEA1, make([]byte, KeyLen(TEA1)))
	if err != nil {
		t.Fatal(err)
	}
	_, err = DecryptAll(b, []byte{1, 2, 3})
	if err == nil {
		t.Fatal("expected error for sub-block ciphertext")
	}
}

func TestDecryptAllPadsToBlockBoundary(t *testing.T) {
	b, err := NewBlock(TEA2, make([]byte, KeyLen(TEA2)))
	if err != nil {
		t.Fatal(err)
	}
	out, err := DecryptAll(b, make([]byte, 10))
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 16 {
		t.Errorf("len(out) = %d, want 16 (padded to 2 blocks)", len(out))
	}
}

func TestAllVariantsConstructible(t *testing.T) {
	for _, algo := range []Algorithm{TEA1, TEA2, TEA3, TEA4} {
		_, err := NewBlock(algo, make([]byte, KeyLen(algo)))
		if err != nil {
			t.Errorf("%s: %v", algo, err)
		}
	}
}
