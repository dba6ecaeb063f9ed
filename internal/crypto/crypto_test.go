package crypto

import (
	"testing"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatal(err)
	}
	if hash == "s3cret" {
		t.Fatal("hash must not equal the password")
	}
	if !CheckPassword(hash, "s3cret") {
		t.Fatal("expected password to match")
	}
	if CheckPassword(hash, "S3cret") {
		t.Fatal("expected a different password to fail")
	}
	if CheckPassword("not-a-hash", "s3cret") {
		t.Fatal("garbage hash must not match")
	}
}

func TestNewToken(t *testing.T) {
	a, err := NewToken()
	if err != nil {
		t.Fatal(err)
	}
	b, _ := NewToken()
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
	if a == b {
		t.Fatal("tokens should differ")
	}
}

func TestNewUUIDv7Ordered(t *testing.T) {
	prev := NewUUIDv7()
	if prev.Version() != 7 {
		t.Fatalf("expected version 7, got %d", prev.Version())
	}
	for i := 0; i < 100; i++ {
		next := NewUUIDv7()
		if next.String() <= prev.String() {
			t.Fatalf("uuid %s not after %s", next, prev)
		}
		prev = next
	}
}

func TestNewMessageID(t *testing.T) {
	id := NewMessageID()
	if len(id) != 26 {
		t.Fatalf("expected a 26 char ULID, got %q", id)
	}
	if NewMessageID() == id {
		t.Fatal("message ids should differ")
	}
}
