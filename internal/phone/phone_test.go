package phone

import (
	"errors"
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
		err  bool
	}{
		{name: "domestic prefix", in: "89991234567", want: "+79991234567"},
		{name: "formatted international", in: "+1 (415) 555-0132", want: "+14155550132"},
		{name: "already normalized", in: "+79991234567", want: "+79991234567"},
		{name: "missing plus", in: "79991234567", want: "+79991234567"},
		{name: "spaces and dashes", in: "8 999 123-45-67", want: "+79991234567"},
		{name: "short domestic eight stays", in: "8123456", want: "+8123456"},
		{name: "too few digits", in: "123", err: true},
		{name: "six digits", in: "+12345-6", err: true},
		{name: "empty", in: "", err: true},
		{name: "no digits at all", in: "call me maybe", err: true},
		{name: "only plus", in: "+", err: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Normalize(tc.in)
			if tc.err {
				if !errors.Is(err, ErrUnrecognized) {
					t.Fatalf("Normalize(%q) = %q, %v; want ErrUnrecognized", tc.in, got, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Normalize(%q) failed: %v", tc.in, err)
			}
			if got != tc.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeShape(t *testing.T) {
	inputs := []string{
		"89991234567", "+1 (415) 555-0132", "tel: 1234567", "0012345678",
		"+++1234567", "8800-555-35-35",
	}
	for _, in := range inputs {
		got, err := Normalize(in)
		if err != nil {
			continue
		}
		if !strings.HasPrefix(got, "+") {
			t.Errorf("Normalize(%q) = %q, missing '+' prefix", in, got)
		}
		if countDigits(got) < minDigits {
			t.Errorf("Normalize(%q) = %q, fewer than %d digits", in, got, minDigits)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"89991234567", "+1 (415) 555-0132", "7 912 345 67 89", "+442071838750"}
	for _, in := range inputs {
		once, err := Normalize(in)
		if err != nil {
			t.Fatalf("Normalize(%q) failed: %v", in, err)
		}
		twice, err := Normalize(once)
		if err != nil {
			t.Fatalf("Normalize(%q) failed on second pass: %v", once, err)
		}
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}
