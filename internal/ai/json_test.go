package ai

import "testing"

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "bare object untouched",
			in:   `{"amount": 100}`,
			want: `{"amount": 100}`,
		},
		{
			name: "json fence stripped",
			in:   "```json\n{\"amount\": 100}\n```",
			want: `{"amount": 100}`,
		},
		{
			name: "plain fence stripped",
			in:   "```\n{\"amount\": 100}\n```",
			want: `{"amount": 100}`,
		},
		{
			name: "surrounding prose removed",
			in:   "Here is the extraction:\n{\"amount\": 100}\nLet me know if you need more.",
			want: `{"amount": 100}`,
		},
		{
			name: "null passes through",
			in:   "null",
			want: "null",
		},
		{
			name: "fenced null passes through",
			in:   "```json\nnull\n```",
			want: "null",
		},
		{
			name: "array value kept whole",
			in:   "```\n[{\"a\": 1}, {\"b\": 2}]\n```",
			want: `[{"a": 1}, {"b": 2}]`,
		},
		{
			name: "whitespace trimmed",
			in:   "  \n {\"a\": 1} \n ",
			want: `{"a": 1}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanModelJSON(tt.in); got != tt.want {
				t.Errorf("cleanModelJSON(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
