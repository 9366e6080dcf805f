package messages

import (
	"errors"
	"testing"
)

func TestCodecRoundTrip(t *testing.T) {
	codec := Codec{}

	ciphertext, iv, err := codec.Encrypt("who let the dogs out", "group-1")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if ciphertext == "" || iv == "" {
		t.Fatalf("expected non-empty ciphertext and iv")
	}

	plaintext, err := codec.Decrypt(ciphertext, iv, "group-1")
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if plaintext != "who let the dogs out" {
		t.Fatalf("round trip mismatch: %q", plaintext)
	}
}

func TestCodecWrongGroupKeyFailsCleanly(t *testing.T) {
	codec := Codec{}

	ciphertext, iv, err := codec.Encrypt("secret", "group-1")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	if _, err := codec.Decrypt(ciphertext, iv, "group-2"); !errors.Is(err, ErrDecryptFailed) {
		t.Fatalf("expected ErrDecryptFailed with wrong group key, got %v", err)
	}
}

func TestCodecRejectsMalformedInput(t *testing.T) {
	codec := Codec{}

	if _, err := codec.Decrypt("not base64!!", "also not", "group-1"); !errors.Is(err, ErrDecryptFailed) {
		t.Fatalf("expected ErrDecryptFailed on malformed input, got %v", err)
	}

	ciphertext, _, err := codec.Encrypt("secret", "group-1")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if _, err := codec.Decrypt(ciphertext, "c2hvcnQ=", "group-1"); !errors.Is(err, ErrDecryptFailed) {
		t.Fatalf("expected ErrDecryptFailed on wrong-size nonce, got %v", err)
	}
}

func TestCodecEncryptRequiresGroupID(t *testing.T) {
	codec := Codec{}

	if _, _, err := codec.Encrypt("secret", ""); err == nil {
		t.Fatalf("expected error without group id")
	}
}

func TestCodecNoncesAreUnique(t *testing.T) {
	codec := Codec{}

	_, first, err := codec.Encrypt("same text", "group-1")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	_, second, err := codec.Encrypt("same text", "group-1")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if first == second {
		t.Fatalf("expected fresh nonce per encryption")
	}
}
