package llm

import "testing"

func TestToPlainText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "bullets stripped",
			in:   "- first point\n* second point\n• third point",
			want: "first point\nsecond point\nthird point",
		},
		{
			name: "bold and code stripped",
			in:   "**BTC** holds, `ETH` __slides__",
			want: "BTC holds, ETH slides",
		},
		{
			name: "surrounding whitespace trimmed",
			in:   "\n\n  digest body  \n\n",
			want: "digest body",
		},
		{
			name: "mid-line dash kept",
			in:   "range-bound trading all day",
			want: "range-bound trading all day",
		},
		{
			name: "plain text untouched",
			in:   "nothing to do here",
			want: "nothing to do here",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToPlainText(tt.in); got != tt.want {
				t.Errorf("ToPlainText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
