package sanitize

import (
	"strings"
	"testing"
)

func TestSanitize(t *testing.T) {
	s := New()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "masked account number",
			in:   "debited from your a/c XXXX1234 today",
			want: "debited from your a/c [ACCOUNT] today",
		},
		{
			name: "card number run with separators",
			in:   "card 4532 1234 5678 9010 was charged",
			want: "card [CARD] was charged",
		},
		{
			name: "PAN",
			in:   "linked to PAN ABCDE1234F",
			want: "linked to PAN [PAN]",
		},
		{
			name: "aadhaar groups",
			in:   "aadhaar 1234 5678 9012 verified",
			want: "aadhaar [AADHAAR] verified",
		},
		{
			name: "phone with country code",
			in:   "call +91 9876543210 for help",
			want: "call [PHONE] for help",
		},
		{
			name: "email beats UPI rule",
			in:   "write to support@axisbank.com today",
			want: "write to [EMAIL] today",
		},
		{
			name: "UPI handle without dotted suffix",
			in:   "paid to ramesh.kumar@okhdfc yesterday",
			want: "paid to [UPI] yesterday",
		},
		{
			name: "greeting name replaced",
			in:   "Dear Ramesh Kumar,\nyour account was debited",
			want: "Dear Customer,\nyour account was debited",
		},
		{
			name: "clean text unchanged",
			in:   "INR 500.00 debited at SWIGGY",
			want: "INR 500.00 debited at SWIGGY",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Sanitize(tt.in); got != tt.want {
				t.Errorf("Sanitize() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSanitizeLeavesInputUntouched(t *testing.T) {
	s := New()
	in := "a/c XXXX1234"
	_ = s.Sanitize(in)
	if in != "a/c XXXX1234" {
		t.Fatal("input string mutated")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"under limit", "short", 10, "short"},
		{"exact limit", "12345", 5, "12345"},
		{"over limit", "1234567890", 4, "1234"},
		{"zero disables", "anything", 0, "anything"},
		{"multibyte boundary", "ab₹cd", 4, "ab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Truncate(tt.in, tt.max)
			if got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
			if len(got) > tt.max && tt.max > 0 {
				t.Errorf("Truncate exceeded max: %d > %d", len(got), tt.max)
			}
			if !strings.HasPrefix(tt.in, got) {
				t.Errorf("Truncate result %q is not a prefix of input", got)
			}
		})
	}
}
