package security

import (
	"strings"
	"testing"
)

func TestHashAndVerifyPassword(t *testing.T) {
	encoded, err := HashPassword("Trufa#Roxa92-Bicicleta")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !strings.HasPrefix(encoded, "argon2id$v=19$") {
		t.Fatalf("unexpected hash format: %s", encoded)
	}

	ok, err := VerifyPassword("Trufa#Roxa92-Bicicleta", encoded)
	if err != nil {
		t.Fatalf("VerifyPassword: %v", err)
	}
	if !ok {
		t.Fatal("correct password rejected")
	}

	ok, err = VerifyPassword("outra-senha-qualquer", encoded)
	if err != nil {
		t.Fatalf("VerifyPassword wrong: %v", err)
	}
	if ok {
		t.Fatal("wrong password accepted")
	}
}

func TestHashPasswordSaltsDiffer(t *testing.T) {
	first, err := HashPassword("mesma senha 123!")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	second, err := HashPassword("mesma senha 123!")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if first == second {
		t.Fatal("identical hashes for two invocations")
	}
}

func TestVerifyPasswordMalformed(t *testing.T) {
	if _, err := VerifyPassword("x", "not-an-argon2-hash"); err == nil {
		t.Fatal("expected error for malformed hash")
	}
	if _, err := VerifyPassword("x", "bcrypt$v=19$m=1,t=1,p=1$aaaa$bbbb"); err == nil {
		t.Fatal("expected error for foreign variant")
	}

	ok, err := VerifyPassword("", "")
	if err != nil || ok {
		t.Fatalf("empty inputs: ok=%v err=%v", ok, err)
	}
}

func TestConfigureArgon2(t *testing.T) {
	cases := []struct {
		name string
		cfg  Argon2Config
	}{
		{"memory too low", Argon2Config{Memory: 1024, Iterations: 3, Parallelism: 2, SaltLength: 16, KeyLength: 32}},
		{"zero iterations", Argon2Config{Memory: 64 * 1024, Iterations: 0, Parallelism: 2, SaltLength: 16, KeyLength: 32}},
		{"short salt", Argon2Config{Memory: 64 * 1024, Iterations: 3, Parallelism: 2, SaltLength: 4, KeyLength: 32}},
		{"short key", Argon2Config{Memory: 64 * 1024, Iterations: 3, Parallelism: 2, SaltLength: 16, KeyLength: 8}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := ConfigureArgon2(tc.cfg); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	valid := Argon2Config{Memory: 32 * 1024, Iterations: 2, Parallelism: 2, SaltLength: 16, KeyLength: 32}
	if err := ConfigureArgon2(valid); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	t.Cleanup(func() { _ = ConfigureArgon2(defaultArgon2Config) })

	encoded, err := HashPassword("parametros customizados 9!")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !strings.Contains(encoded, "m=32768,t=2,p=2") {
		t.Fatalf("hash does not embed active params: %s", encoded)
	}
}

func TestDefaultPasswordValidator(t *testing.T) {
	validator := DefaultPasswordValidator()

	rejected := []string{
		"curta1!",
		"somenteminusculas",
		"aaaaaaaaaA1",
		"password123A",
	}
	for _, password := range rejected {
		if err := validator.Validate(password); err == nil {
			t.Errorf("validator accepted %q", password)
		}
	}

	if err := validator.Validate("Trufa#Roxa92-Bicicleta"); err != nil {
		t.Fatalf("strong password rejected: %v", err)
	}
}
