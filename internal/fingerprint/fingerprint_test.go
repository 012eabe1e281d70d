package fingerprint

import (
	"errors"
	"testing"
)

func TestSum(t *testing.T) {
	t.Parallel()

	t.Run("computes SHA256 of normalized text", func(t *testing.T) {
		t.Parallel()

		// Expected SHA256 of "Hello, World!"
		expected := Exact("dffd6021bb2bd5b0af676290809ec3a53191dd81c7f70a4b28688a362182986f")
		if got := Sum("Hello, World!"); got != expected {
			t.Errorf("got %q, expected %q", got, expected)
		}
	})

	t.Run("empty text is not fingerprinted", func(t *testing.T) {
		t.Parallel()

		if got := Sum(""); got != "" {
			t.Errorf("expected empty fingerprint, got %q", got)
		}
	})
}

func TestHasher(t *testing.T) {
	t.Parallel()

	t.Run("default hasher matches Sum", func(t *testing.T) {
		t.Parallel()

		h, err := NewHasher("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if h.Algorithm() != SHA256 {
			t.Errorf("got %q, expected %q", h.Algorithm(), SHA256)
		}
		if h.Sum("abc") != Sum("abc") {
			t.Error("expected hasher and Sum to agree")
		}
	})

	t.Run("sha3 produces a different 64 hex digit digest", func(t *testing.T) {
		t.Parallel()

		h, err := NewHasher(SHA3)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// Expected SHA3-256 of "abc"
		expected := Exact("3a985da74fe225b2045c172d6bd390bd855f086e3e9d525b46bfe24511431532")
		if got := h.Sum("abc"); got != expected {
			t.Errorf("got %q, expected %q", got, expected)
		}
	})

	t.Run("rejects unknown algorithm", func(t *testing.T) {
		t.Parallel()

		_, err := NewHasher("md5")
		if !errors.Is(err, ErrUnknownAlgorithm) {
			t.Errorf("expected ErrUnknownAlgorithm, got %v", err)
		}
	})
}
