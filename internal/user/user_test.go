package user

import (
	"testing"
)

func TestProfileSetGetClear(t *testing.T) {
	t.Setenv("PWVKPNO_HOME", t.TempDir())

	p := Profile{Name: "Alice", Email: "alice@example.com"}
	if err := SetProfile(p); err != nil {
		t.Fatalf("SetProfile: %v", err)
	}
	p2, ok, err := GetProfile()
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if !ok {
		t.Fatalf("expected profile to exist")
	}
	if p2 != p {
		t.Fatalf("unexpected profile: %+v", p2)
	}
	if got := Operator(); got != "Alice <alice@example.com>" {
		t.Fatalf("Operator() = %q", got)
	}
	if err := ClearProfile(); err != nil {
		t.Fatalf("ClearProfile: %v", err)
	}
	_, ok, err = GetProfile()
	if err != nil {
		t.Fatalf("GetProfile after clear: %v", err)
	}
	if ok {
		t.Fatalf("expected profile to be cleared")
	}
	// clearing twice is fine
	if err := ClearProfile(); err != nil {
		t.Fatalf("second ClearProfile: %v", err)
	}
}

func TestProfileValidate(t *testing.T) {
	if err := (Profile{}).Validate(); err == nil {
		t.Fatalf("expected empty profile to be rejected")
	}
	if err := (Profile{Name: "Bob", Email: "not-an-email"}).Validate(); err == nil {
		t.Fatalf("expected malformed email to be rejected")
	}
	if err := SetProfile(Profile{Email: "x y@example.com"}); err == nil {
		t.Fatalf("expected SetProfile to validate")
	}
}

func TestProfileString(t *testing.T) {
	cases := map[Profile]string{
		{Name: "Bob"}:                           "Bob",
		{Email: "bob@example.com"}:              "<bob@example.com>",
		{Name: "Bob", Email: "bob@example.com"}: "Bob <bob@example.com>",
	}
	for p, want := range cases {
		if got := p.String(); got != want {
			t.Fatalf("%+v.String() = %q, want %q", p, got, want)
		}
	}
}
