package hierarchy

import "testing"

func TestDisambiguateName(t *testing.T) {
	taken := func(names ...string) map[string]struct{} {
		set := make(map[string]struct{}, len(names))
		for _, n := range names {
			set[n] = struct{}{}
		}
		return set
	}

	tests := []struct {
		name   string
		input  string
		taken  map[string]struct{}
		maxLen int
		want   string
	}{
		{
			name:   "free name unchanged",
			input:  "Report",
			taken:  taken("Other"),
			maxLen: 255,
			want:   "Report",
		},
		{
			name:   "first conflict gets (2)",
			input:  "Report",
			taken:  taken("Report"),
			maxLen: 255,
			want:   "Report (2)",
		},
		{
			name:   "counter skips taken suffixes",
			input:  "Report",
			taken:  taken("Report", "Report (2)", "Report (3)"),
			maxLen: 255,
			want:   "Report (4)",
		},
		{
			name:   "existing suffix resumes the counter",
			input:  "Report (2)",
			taken:  taken("Report (2)"),
			maxLen: 255,
			want:   "Report (3)",
		},
		{
			name:   "stripped base still skips taken suffixes",
			input:  "Report (2)",
			taken:  taken("Report (2)", "Report (3)", "Report (4)"),
			maxLen: 255,
			want:   "Report (5)",
		},
		{
			name:   "truncates the base to fit",
			input:  "abcdefghij",
			taken:  taken("abcdefghij"),
			maxLen: 10,
			want:   "abcdef (2)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := disambiguateName(tt.input, tt.taken, tt.maxLen)
			if got != tt.want {
				t.Errorf("disambiguateName(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if len(got) > tt.maxLen {
				t.Errorf("result %q exceeds max length %d", got, tt.maxLen)
			}
		})
	}
}
