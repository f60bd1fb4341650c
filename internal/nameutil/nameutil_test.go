package nameutil

import "testing"

func TestValidateName(t *testing.T) {
	if err := ValidateName("  "); err == nil {
		t.Fatalf("expected error for empty name")
	}
	if err := ValidateName("Release Bot"); err != nil {
		t.Fatalf("unexpected error for valid name: %v", err)
	}
	// control char
	if err := ValidateName("bad\x00name"); err == nil {
		t.Fatalf("expected error for control bytes")
	}
	// invalid utf8 sequence
	if err := ValidateName(string([]byte{0xff, 0xff})); err == nil {
		t.Fatalf("expected error for invalid utf8")
	}
}

func TestSanitize(t *testing.T) {
	if s, changed := Sanitize("hello\x00world"); s != "helloworld" || !changed {
		t.Fatalf("expected NUL removed: got %q changed=%v", s, changed)
	}
	if s, changed := Sanitize(" a \u200B b "); s != "a  b" || !changed {
		t.Fatalf("expected zero-width removed and trimmed: got %q changed=%v", s, changed)
	}
	if s, changed := Sanitize("KITT"); s != "KITT" || changed {
		t.Fatalf("clean input must be unchanged: got %q changed=%v", s, changed)
	}
}

func TestReceiver(t *testing.T) {
	good := map[string]string{"KITT": "KITT", "kitt": "KITT", " p014\u200B": "P014", "sa46": "SA46"}
	for in, want := range good {
		got, err := Receiver(in)
		if err != nil {
			t.Fatalf("Receiver(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("Receiver(%q) = %q, want %q", in, got, want)
		}
	}
	for _, bad := range []string{"", "KIT", "KITTY", "KI-T", "K\u00cfTT"} {
		if _, err := Receiver(bad); err == nil {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}
