package services

import "testing"

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"already iso", "2024-03-15", "2024-03-15"},
		{"italian slash", "15/03/2024", "2024-03-15"},
		{"italian dash", "15-03-2024", "2024-03-15"},
		{"iso slash", "2024/03/15", "2024-03-15"},
		{"us slash", "03/15/2024", "2024-03-15"},
		{"ambiguous resolves day first", "03/04/2024", "2024-04-03"},
		{"rfc3339 timestamp", "2024-03-15T10:30:00Z", "2024-03-15"},
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
		{"garbage passes through", "not a date", "not a date"},
		{"partial date passes through", "2024-03", "2024-03"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeDate(tt.input); got != tt.want {
				t.Errorf("NormalizeDate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDateSortKey(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"valid date", "15/03/2024", "2024-03-15"},
		{"empty sorts earliest", "", "2000-01-01"},
		{"garbage sorts earliest", "soon", "2000-01-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dateSortKey(tt.input); got != tt.want {
				t.Errorf("dateSortKey(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
