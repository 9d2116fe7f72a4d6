package idgen_test

import (
	"strings"
	"testing"

	"github.com/flitsinc/go-jabber/internal/idgen"
)

func TestNewIsUniqueAndOrdered(t *testing.T) {
	a := idgen.New()
	b := idgen.New()
	if a == b {
		t.Fatalf("expected distinct ids")
	}
	if a > b {
		t.Fatalf("expected time ordered ids, got %s then %s", a, b)
	}
}

func TestValidateAccountName(t *testing.T) {
	valid := []string{
		"a",
		"work",
		"home-server",
		"jabber-org-2",
	}
	for _, name := range valid {
		if err := idgen.ValidateAccountName(name); err != nil {
			t.Errorf("expected %q to be valid, got error: %v", name, err)
		}
	}

	invalid := []string{
		"",
		"-start-dash",
		"end-dash-",
		"1starts-with-digit",
		"UPPERCASE",
		"has spaces",
		"has_underscore",
		"has.dot",
		strings.Repeat("a", 65),
	}
	for _, name := range invalid {
		if err := idgen.ValidateAccountName(name); err == nil {
			t.Errorf("expected %q to be invalid, got nil error", name)
		}
	}
}
