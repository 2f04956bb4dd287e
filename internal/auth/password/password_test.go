package password

import (
	"strings"
	"testing"
)

func TestHashAndVerify(t *testing.T) {
	encoded, err := Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$v=19$") {
		t.Fatalf("unexpected hash format %q", encoded)
	}

	if !Verify("correct horse battery staple", encoded) {
		t.Fatal("expected matching password to verify")
	}
	if Verify("wrong password", encoded) {
		t.Fatal("expected wrong password to fail")
	}
}

func TestVerifyRejectsMalformedHash(t *testing.T) {
	if Verify("anything", "not-a-hash") {
		t.Fatal("expected malformed hash to fail")
	}
	if Verify("anything", "$argon2id$v=19$m=bad$salt$hash") {
		t.Fatal("expected malformed params to fail")
	}
}

func TestRandomIsUnique(t *testing.T) {
	a, err := Random(24)
	if err != nil {
		t.Fatalf("random failed: %v", err)
	}
	b, err := Random(24)
	if err != nil {
		t.Fatalf("random failed: %v", err)
	}
	if a == b {
		t.Fatal("expected distinct random passwords")
	}
	if len(a) == 0 {
		t.Fatal("expected non-empty password")
	}
}
