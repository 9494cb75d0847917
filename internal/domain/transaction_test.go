package domain

import "testing"

func TestParseExclusionScope(t *testing.T) {
	tests := []struct {
		in      string
		want    ExclusionScope
		wantErr bool
	}{
		{"SKIP", ExclusionSkip, false},
		{"MANUAL_PAID", ExclusionManualPaid, false},
		{"PERMANENT", ExclusionPermanent, false},
		{"permanent", ExclusionPermanent, false},
		{" skip ", ExclusionSkip, false},
		{"", "", true},
		{"PERMENANT", "", true},
		{"COVERED", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseExclusionScope(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseExclusionScope(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseExclusionScope(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
