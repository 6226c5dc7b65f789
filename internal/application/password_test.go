package application

import (
	"errors"
	"strings"
	"testing"
)

// Small parameters keep the tests fast; production uses DefaultArgon2idParams.
var testArgonParams = Argon2idParams{
	Memory:      8 * 1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

func TestCreatePasswordHash_Format(t *testing.T) {
	hash, err := CreatePasswordHash("correct horse battery staple", testArgonParams)
	if err != nil {
		t.Fatalf("CreatePasswordHash failed: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Errorf("Expected PHC format hash, got %q", hash)
	}
	if len(strings.Split(hash, "$")) != 6 {
		t.Errorf("Expected 6 hash segments, got %q", hash)
	}
}

func TestVerifyPassword_RoundTrip(t *testing.T) {
	hash, err := CreatePasswordHash("s3cret-passphrase", testArgonParams)
	if err != nil {
		t.Fatalf("CreatePasswordHash failed: %v", err)
	}

	if err := VerifyPassword(hash, "s3cret-passphrase"); err != nil {
		t.Errorf("Expected matching password to verify, got %v", err)
	}
	if err := VerifyPassword(hash, "wrong-passphrase"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials for wrong password, got %v", err)
	}
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	tests := []struct {
		name string
		hash string
	}{
		{name: "empty", hash: ""},
		{name: "sentinel", hash: "!unusable-password"},
		{name: "wrong algorithm", hash: "$bcrypt$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA"},
		{name: "truncated", hash: "$argon2id$v=19"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := VerifyPassword(tt.hash, "anything"); !errors.Is(err, ErrInvalidPasswordHash) {
				t.Errorf("Expected ErrInvalidPasswordHash, got %v", err)
			}
		})
	}
}

func TestCreatePasswordHash_UniqueSalts(t *testing.T) {
	first, err := CreatePasswordHash("same-password", testArgonParams)
	if err != nil {
		t.Fatalf("CreatePasswordHash failed: %v", err)
	}
	second, err := CreatePasswordHash("same-password", testArgonParams)
	if err != nil {
		t.Fatalf("CreatePasswordHash failed: %v", err)
	}
	if first == second {
		t.Error("Expected distinct hashes for the same password")
	}
}
