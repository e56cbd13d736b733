package identity

import (
	"errors"
	"testing"

	"github.com/Manuqueiroz1/area-de-membros-teacher-poli/cmd/security/password"
)

func testHasher() *PasswordHasher {
	return NewPasswordHasher(password.LightConfig())
}

func TestPasswordHasher_HashAndVerify(t *testing.T) {
	t.Parallel()

	h := testHasher()
	enc, err := h.Hash("secret123", "a@b.com")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	ok, err := h.Verify("secret123", enc)
	if err != nil || !ok {
		t.Fatalf("expected match, ok=%v err=%v", ok, err)
	}
	ok, err = h.Verify("wrong-password", enc)
	if err != nil || ok {
		t.Fatalf("expected mismatch, ok=%v err=%v", ok, err)
	}
	if h.NeedsRehash(enc) {
		t.Fatalf("fresh hash must not need a rehash")
	}

	stronger := password.LightConfig()
	stronger.Params.Iterations = 2
	if !NewPasswordHasher(stronger).NeedsRehash(enc) {
		t.Fatalf("hash must need a rehash after iterations increase")
	}
}

func TestPasswordHasher_PolicyViolationsAreInvalidInput(t *testing.T) {
	t.Parallel()

	h := testHasher()
	for _, pw := range []string{"short", "password123", "a@b.com"} {
		if _, err := h.Hash(pw, "a@b.com"); !IsInvalidInput(err) {
			t.Fatalf("Hash(%q): expected invalid input, got %v", pw, err)
		}
		if err := h.Validate(pw, "a@b.com"); !IsInvalidInput(err) {
			t.Fatalf("Validate(%q): expected invalid input, got %v", pw, err)
		}
	}

	var opErr OpError
	err := h.Validate("short", "")
	if !errors.As(err, &opErr) || opErr.Msg == "" {
		t.Fatalf("expected OpError with client message, got %v", err)
	}
}

func TestPasswordHasher_VerifyMalformedHash(t *testing.T) {
	t.Parallel()

	if _, err := testHasher().Verify("secret123", "plaintext"); err == nil {
		t.Fatalf("expected error for malformed hash")
	}
}

func TestPasswordHasher_VerifyDummyDoesNotPanic(t *testing.T) {
	t.Parallel()

	h := testHasher()
	h.VerifyDummy("anything")
	h.VerifyDummy("anything")
	if h.dummyHash == "" {
		t.Fatalf("expected dummy hash to be prepared")
	}
}
