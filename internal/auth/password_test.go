package auth

import "testing"

func TestPasswordHashAndMatch(t *testing.T) {
	hash, err := HashPassword("hunter22")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "hunter22" {
		t.Fatalf("hash must not equal the plaintext")
	}

	if !PasswordMatches(hash, "hunter22") {
		t.Fatalf("expected matching password to verify")
	}
	if PasswordMatches(hash, "hunter23") {
		t.Fatalf("expected wrong password to fail")
	}
	if PasswordMatches("not-a-bcrypt-hash", "hunter22") {
		t.Fatalf("expected malformed hash to fail")
	}
}
