package crypto

import (
	"errors"
	"strings"
	"testing"
)

func TestArgon2HasherFormat(t *testing.T) {
	hash, err := Argon2Hasher{Params: DefaultHashParams()}.Hash("correct-horse-battery-staple")
	if err != nil {
		t.Fatalf("Hash() unexpected error: %v", err)
	}

	// $argon2id$v=19$m=65536,t=3,p=2$<salt>$<hash>
	parts := strings.Split(hash, "$")
	if len(parts) != 6 {
		t.Fatalf("Hash() expected 6 parts, got %d: %q", len(parts), hash)
	}
	if parts[1] != "argon2id" {
		t.Errorf("Hash() algorithm = %q, want %q", parts[1], "argon2id")
	}
	if parts[2] != "v=19" {
		t.Errorf("Hash() version = %q, want %q", parts[2], "v=19")
	}
	if parts[3] != "m=65536,t=3,p=2" {
		t.Errorf("Hash() params = %q, want %q", parts[3], "m=65536,t=3,p=2")
	}
}

func TestBcryptHasherFormat(t *testing.T) {
	hash, err := BcryptHasher{Cost: 4}.Hash("secret1")
	if err != nil {
		t.Fatalf("Hash() unexpected error: %v", err)
	}
	if !strings.HasPrefix(hash, "$2a$04$") {
		t.Errorf("Hash() = %q, want $2a$04$ prefix", hash)
	}
}

func TestHashersRoundTrip(t *testing.T) {
	hashers := map[string]PasswordHasher{
		"bcrypt":   BcryptHasher{Cost: 4},
		"argon2id": Argon2Hasher{Params: DefaultHashParams()},
	}

	for name, h := range hashers {
		t.Run(name, func(t *testing.T) {
			hash, err := h.Hash("my-secure-password")
			if err != nil {
				t.Fatalf("Hash() unexpected error: %v", err)
			}
			if !h.Compare("my-secure-password", hash) {
				t.Error("Compare() returned false for correct password")
			}
			if h.Compare("wrong-password", hash) {
				t.Error("Compare() returned true for wrong password")
			}

			again, err := h.Hash("my-secure-password")
			if err != nil {
				t.Fatalf("Hash() unexpected error: %v", err)
			}
			if hash == again {
				t.Error("Hash() produced identical hashes for same password (salt should differ)")
			}
		})
	}
}

func TestCompareAcceptsEitherFormat(t *testing.T) {
	bcryptHash, err := BcryptHasher{Cost: 4}.Hash("secret1")
	if err != nil {
		t.Fatalf("Hash() unexpected error: %v", err)
	}
	argonHash, err := Argon2Hasher{Params: DefaultHashParams()}.Hash("secret1")
	if err != nil {
		t.Fatalf("Hash() unexpected error: %v", err)
	}

	if !(Argon2Hasher{}).Compare("secret1", bcryptHash) {
		t.Error("argon2 hasher should verify a bcrypt hash")
	}
	if !(BcryptHasher{}).Compare("secret1", argonHash) {
		t.Error("bcrypt hasher should verify an argon2id hash")
	}
}

func TestCompareMalformedHash(t *testing.T) {
	tests := []string{
		"",
		"invalid-hash-format",
		"$argon2id$v=19$m=65536,t=3,p=2$!!!$!!!",
		"$argon2id$v=18$m=65536,t=3,p=2$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=65536,t=0,p=0$c2FsdA$aGFzaA",
		"$2a$10$short",
	}

	for _, hash := range tests {
		if ComparePassword("password", hash) {
			t.Errorf("ComparePassword() matched malformed hash %q", hash)
		}
	}
}

func TestVerifyPasswordInvalidHash(t *testing.T) {
	_, err := VerifyPassword("password", "invalid-hash-format")
	if !errors.Is(err, ErrInvalidHashFormat) {
		t.Errorf("VerifyPassword() error = %v, want %v", err, ErrInvalidHashFormat)
	}
}

func TestNewPasswordHasher(t *testing.T) {
	tests := []struct {
		name      string
		algorithm string
		cost      int
		want      PasswordHasher
		wantErr   bool
	}{
		{name: "default", algorithm: "", cost: 0, want: BcryptHasher{Cost: DefaultBcryptCost}},
		{name: "bcrypt", algorithm: AlgorithmBcrypt, cost: 12, want: BcryptHasher{Cost: 12}},
		{name: "argon2id", algorithm: AlgorithmArgon2id, want: Argon2Hasher{Params: DefaultHashParams()}},
		{name: "bcrypt cost too high", algorithm: AlgorithmBcrypt, cost: 40, wantErr: true},
		{name: "unknown", algorithm: "md5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewPasswordHasher(tt.algorithm, tt.cost)
			if tt.wantErr {
				if err == nil {
					t.Fatal("NewPasswordHasher() expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewPasswordHasher() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("NewPasswordHasher() = %#v, want %#v", got, tt.want)
			}
		})
	}
}
