package language

import (
	"testing"
)

func TestCanonical(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		// Word forms in any case
		{"english", "English"},
		{"English", "English"},
		{"ENGLISH", "English"},
		{"hindi", "Hindi"},
		{"mandarin", "Chinese"},
		// ISO codes resolve through the table
		{"en", "English"},
		{"eng", "English"},
		{"ta", "Tamil"},
		{"tam", "Tamil"},
		{"zh", "Chinese"},
		{"zho", "Chinese"},
		{"JA", "Japanese"},
		// Whitespace is stripped
		{"  french ", "French"},
		// Unknown labels are title-cased as-is
		{"klingon", "Klingon"},
		{"SINDARIN", "Sindarin"},
		// Empty
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := Canonical(tt.input)
			if result != tt.expected {
				t.Errorf("Canonical(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestCanonicalList(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{"nil", nil, []string{}},
		{"empty", []string{}, []string{}},
		{"single", []string{"english"}, []string{"English"}},
		{"dedup after canonicalization", []string{"en", "eng", "English"}, []string{"English"}},
		{"preserves first-seen order", []string{"hindi", "english", "tamil"}, []string{"Hindi", "English", "Tamil"}},
		{"drops empties", []string{"", "  ", "french"}, []string{"French"}},
		{"mixed known and unknown", []string{"en", "klingon"}, []string{"English", "Klingon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CanonicalList(tt.input)
			if len(result) != len(tt.expected) {
				t.Fatalf("CanonicalList(%v) = %v, want %v", tt.input, result, tt.expected)
			}
			for i := range result {
				if result[i] != tt.expected[i] {
					t.Errorf("CanonicalList(%v)[%d] = %q, want %q", tt.input, i, result[i], tt.expected[i])
				}
			}
		})
	}
}
