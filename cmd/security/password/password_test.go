package password

import (
	"errors"
	"strings"
	"testing"
)

const strongPassword = "aula de violão às 19h!"

func TestHashVerifyRoundTrip(t *testing.T) {
	cfg := LightConfig()

	h, err := cfg.Hash(strongPassword)
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if !strings.HasPrefix(h, phcPrefix+"m=8192,t=1,p=1$") {
		t.Fatalf("unexpected encoding %q", h)
	}

	for _, tc := range []struct {
		plain string
		want  bool
	}{
		{strongPassword, true},
		{"aula de violão às 20h!", false},
		{"", false},
	} {
		ok, err := cfg.Verify(h, tc.plain)
		if err != nil {
			t.Fatalf("Verify(%q) error: %v", tc.plain, err)
		}
		if ok != tc.want {
			t.Fatalf("Verify(%q)=%v want %v", tc.plain, ok, tc.want)
		}
	}
}

func TestHash_SaltsEveryCall(t *testing.T) {
	cfg := LightConfig()
	a, _ := cfg.Hash(strongPassword)
	b, _ := cfg.Hash(strongPassword)
	if a == b {
		t.Fatalf("two hashes of the same password must differ")
	}
}

func TestValidateFor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Policy.MinLength = 8
	cfg.Policy.MaxLength = 24
	cfg.Policy.RejectVeryWeak = true

	cases := []struct {
		name, pw, email string
		want            error
	}{
		{"ok", "goodpassw0rd!", "", nil},
		{"too short", "short", "", ErrPasswordTooShort},
		{"too long", "this password is definitely too long", "", ErrPasswordTooLong},
		{"runes not bytes", "ççççççç", "", ErrPasswordTooShort},
		{"common word", "password", "", ErrWeakPassword},
		{"portuguese common word", "Senha123", "", ErrWeakPassword},
		{"repeated char", "11111111", "", ErrWeakPassword},
		{"short pin", "20240131", "", ErrWeakPassword},
		{"long digits allowed", "202401311234", "", nil},
		{"email local part", "ana.souza", "Ana.Souza@example.com", ErrWeakPassword},
		{"full email", "ana.souza@example.com", "ana.souza@example.com", ErrWeakPassword},
		{"unrelated to account", "secret123", "a@b.com", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := cfg.ValidateFor(tc.pw, tc.email); !errors.Is(err, tc.want) {
				t.Fatalf("ValidateFor(%q, %q)=%v want %v", tc.pw, tc.email, err, tc.want)
			}
		})
	}
}

func TestValidate_WeakCheckDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Policy.RejectVeryWeak = false

	if err := cfg.Validate("password"); err != nil {
		t.Fatalf("expected ok with weak check off, got %v", err)
	}
}

func TestVerify_InvalidHash(t *testing.T) {
	cfg := LightConfig()

	for _, enc := range []string{
		"not-a-hash",
		"$argon2i$v=19$m=8192,t=1,p=1$c2FsdHNhbHQ$aGFzaGhhc2g",
		phcPrefix + "m=8192,t=1$c2FsdHNhbHRzYWx0$aGFzaGhhc2hoYXNoaGFzaA",
		phcPrefix + "m=8192,t=1,p=1$!!$aGFzaGhhc2hoYXNoaGFzaA",
		phcPrefix + "m=0,t=1,p=1$c2FsdHNhbHRzYWx0$aGFzaGhhc2hoYXNoaGFzaA",
	} {
		ok, err := cfg.Verify(enc, "whatever")
		if !errors.Is(err, ErrInvalidHash) || ok {
			t.Fatalf("Verify(%q)=(%v, %v) want ErrInvalidHash", enc, ok, err)
		}
	}
}

func TestNeedsRehash(t *testing.T) {
	light := LightConfig()
	h, err := light.Hash(strongPassword)
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	if light.NeedsRehash(h) {
		t.Fatalf("hash made with the same params must not need a rehash")
	}
	if !DefaultConfig().NeedsRehash(h) {
		t.Fatalf("light hash must need a rehash under the default config")
	}
	if !light.NeedsRehash("garbage") {
		t.Fatalf("malformed hash must need a rehash")
	}
}

func TestVerify_RejectsOversizedParams(t *testing.T) {
	heavy := LightConfig()
	heavy.Params.MemoryKiB = 64 * 1024

	h, err := heavy.Hash(strongPassword)
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	ok, err := LightConfig().Verify(h, strongPassword)
	if !errors.Is(err, ErrInvalidHash) || ok {
		t.Fatalf("expected ErrInvalidHash for params above bounds, got ok=%v err=%v", ok, err)
	}
}
