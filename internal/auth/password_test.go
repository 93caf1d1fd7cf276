package auth

import "testing"

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("secret1")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == "secret1" {
		t.Fatal("HashPassword() returned the plain password")
	}

	if !CheckPassword(hash, "secret1") {
		t.Error("CheckPassword() = false for the right password")
	}
	if CheckPassword(hash, "secret2") {
		t.Error("CheckPassword() = true for the wrong password")
	}
}

func TestHashPasswordTooLong(t *testing.T) {
	long := make([]byte, 80)
	for i := range long {
		long[i] = 'a'
	}
	_, err := HashPassword(string(long))
	if err == nil {
		t.Fatal("HashPassword() should reject passwords over 72 bytes")
	}
	if !IsHashTooLong(err) {
		t.Errorf("IsHashTooLong(%v) = false", err)
	}
}
