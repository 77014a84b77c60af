package id

import (
	"errors"
	"testing"
)

func TestParseAcceptsGenerated(t *testing.T) {
	p := New()
	got, err := Parse(p.String())
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if got != p {
		t.Fatalf("got %q, want %q", got, p)
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, s := range []string{"", "abc", "1; DROP TABLE users"} {
		if _, err := Parse(s); !errors.Is(err, ErrMalformed) {
			t.Fatalf("Parse(%q) = %v, want ErrMalformed", s, err)
		}
	}
}
