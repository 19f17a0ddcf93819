package money

import (
	"encoding/json"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{in: "35.00", want: 3500},
		{in: "35", want: 3500},
		{in: "199.99", want: 19999},
		{in: "0.5", want: 50},
		{in: "12.340", want: 1234},
		{in: "12.345", wantErr: true},
		{in: "-1.00", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q) expected error, got %d", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	tests := map[int64]string{
		0:     "0.00",
		5:     "0.05",
		3500:  "35.00",
		19999: "199.99",
	}
	for cents, want := range tests {
		if got := Format(cents); got != want {
			t.Errorf("Format(%d) = %q, want %q", cents, got, want)
		}
	}
}

func TestNumber_MarshalsUnquoted(t *testing.T) {
	out, err := json.Marshal(map[string]any{"deposit_required": Number(3500)})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(out) != `{"deposit_required":35.00}` {
		t.Errorf("unexpected JSON: %s", out)
	}
}
