// Package sanitize redacts account-identifying substrings from message text
// before it crosses the boundary to the AI collaborator. Internally retained
// text is never sanitized; only the outbound copy is.
package sanitize

import "regexp"

type rule struct {
	re   *regexp.Regexp
	repl string
}

// Sanitizer applies a fixed redaction pass. Immutable, safe for concurrent use.
type Sanitizer struct {
	rules    []rule
	greeting *regexp.Regexp
}

// New builds the stock sanitizer. Rule order matters: full email addresses
// must be consumed before the looser UPI-handle pattern, and card-number
// runs before bare phone numbers.
func New() *Sanitizer {
	return &Sanitizer{
		rules: []rule{
			// PAN: five letters, four digits, one letter.
			{regexp.MustCompile(`\b[A-Z]{5}\d{4}[A-Z]\b`), "[PAN]"},
			// Card-number runs, 13-19 digits with optional separators. Must
			// precede the Aadhaar rule, which would otherwise claim the
			// first twelve digits of a spaced card number.
			{regexp.MustCompile(`\b\d{4}[ -]?\d{4}[ -]?\d{4}[ -]?\d{1,7}\b`), "[CARD]"},
			// Aadhaar: three groups of four digits.
			{regexp.MustCompile(`\b\d{4}\s\d{4}\s\d{4}\b`), "[AADHAAR]"},
			// Masked account runs like XXXX1234 or **3456.
			{regexp.MustCompile(`\b[Xx*]{2,}\s*\d{3,6}\b`), "[ACCOUNT]"},
			// Indian mobile numbers, optionally with +91.
			{regexp.MustCompile(`(?:\+91[ -]?)?\b[6-9]\d{9}\b`), "[PHONE]"},
			// Email addresses (dotted TLD) before the looser UPI form.
			{regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`), "[EMAIL]"},
			// UPI handles: name@psp with no dot in the suffix.
			{regexp.MustCompile(`\b[A-Za-z0-9._-]{2,}@[A-Za-z]{2,}\b`), "[UPI]"},
		},
		// Personal names on greeting lines: "Dear Ramesh Kumar," etc.
		greeting: regexp.MustCompile(`(?im)^(dear|hi|hello)\s+[A-Za-z][A-Za-z .]{1,40},`),
	}
}

// Sanitize returns a redacted copy of text. The input is left untouched.
func (s *Sanitizer) Sanitize(text string) string {
	out := text
	for _, r := range s.rules {
		out = r.re.ReplaceAllString(out, r.repl)
	}
	out = s.greeting.ReplaceAllString(out, "$1 Customer,")
	return out
}

// Truncate limits text to max bytes, cutting on a rune boundary. Used to
// keep outbound prompts inside token limits.
func Truncate(text string, max int) string {
	if max <= 0 || len(text) <= max {
		return text
	}
	cut := max
	for cut > 0 && (text[cut]&0xC0) == 0x80 {
		cut--
	}
	return text[:cut]
}
