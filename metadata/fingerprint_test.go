package metadata

import (
	"strings"
	"testing"
)

func TestFingerprintReader(t *testing.T) {
	a, err := FingerprintReader(strings.NewReader("some document"))
	if err != nil {
		t.Fatal(err)
	}
	b, err := FingerprintReader(strings.NewReader("some document"))
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatal("identical content should fingerprint identically")
	}

	c, err := FingerprintReader(strings.NewReader("another document"))
	if err != nil {
		t.Fatal(err)
	}
	if a == c {
		t.Fatal("distinct content should fingerprint differently")
	}
	if len(a.String()) != 32 {
		t.Fatalf("String() = %q, want 32 hex digits", a.String())
	}
}
